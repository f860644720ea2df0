package main

import (
	"encoding/json"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/koustreak/dbinspect/internal/errs"
)

type format int

const (
	formatJSON format = iota
	formatYAML
)

func parseFormat(s string) (format, error) {
	switch strings.ToLower(s) {
	case "", "json":
		return formatJSON, nil
	case "yaml", "yml":
		return formatYAML, nil
	}
	return 0, errs.Newf(errs.ErrKindInvalidInput, "unknown output format %q", s)
}

func write(w io.Writer, f format, v any) error {
	if f == formatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
