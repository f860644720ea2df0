// Package config loads dbinspect settings from defaults, an optional YAML
// file and DBINSPECT_ environment variables, in that order of precedence.
package config

import (
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/koustreak/dbinspect/internal/database"
	"github.com/koustreak/dbinspect/internal/errs"
	"github.com/koustreak/dbinspect/internal/logger"
	"github.com/koustreak/dbinspect/internal/schema"
)

// EnvPrefix marks the environment variables read by Load. A double
// underscore separates nesting levels: DBINSPECT_DATABASE__DSN sets
// database.dsn.
const EnvPrefix = "DBINSPECT_"

type Config struct {
	Database Database `koanf:"database"`
	Log      Log      `koanf:"log"`
	Server   Server   `koanf:"server"`
}

type Database struct {
	Client     string   `koanf:"client"`
	DSN        string   `koanf:"dsn"`
	Schema     string   `koanf:"schema"`
	SearchPath []string `koanf:"search_path"`

	MaxConns        int32         `koanf:"max_conns"`
	MinConns        int32         `koanf:"min_conns"`
	MaxConnLifetime time.Duration `koanf:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `koanf:"max_conn_idle_time"`
	ConnectTimeout  time.Duration `koanf:"connect_timeout"`
	QueryTimeout    time.Duration `koanf:"query_timeout"`
}

type Log struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type Server struct {
	Addr         string        `koanf:"addr"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

func defaults() map[string]any {
	return map[string]any{
		"database.max_conns":          4,
		"database.min_conns":          0,
		"database.max_conn_lifetime":  "30m",
		"database.max_conn_idle_time": "5m",
		"database.connect_timeout":    "10s",
		"database.query_timeout":      "30s",
		"log.level":                   "info",
		"log.format":                  "json",
		"server.addr":                 ":8080",
		"server.read_timeout":         "15s",
		"server.write_timeout":        "60s",
	}
}

// Load reads the configuration. path may be empty, in which case only
// defaults and the environment apply. The result is not validated.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to load defaults", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to read config file "+path, err)
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to read environment", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "invalid configuration", err)
	}
	return &cfg, nil
}

// Validate checks the settings needed to connect and serve.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errs.New(errs.ErrKindInvalidInput, "database.dsn is required")
	}
	if _, err := c.Database.ParseClient(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "json", "console":
	default:
		return errs.Newf(errs.ErrKindInvalidInput, "log.format must be json or console, got %q", c.Log.Format)
	}
	if c.Database.MinConns > c.Database.MaxConns && c.Database.MaxConns > 0 {
		return errs.Newf(errs.ErrKindInvalidInput, "database.min_conns %d exceeds max_conns %d",
			c.Database.MinConns, c.Database.MaxConns)
	}
	return nil
}

func (d Database) ParseClient() (schema.Client, error) {
	return schema.ParseClient(d.Client)
}

// Connection returns the driver settings for d. The client must parse.
func (d Database) Connection() (*database.Config, error) {
	client, err := d.ParseClient()
	if err != nil {
		return nil, err
	}
	cfg := database.DefaultConfig(client.Driver(), d.DSN)
	cfg.SearchPath = d.SearchPath
	cfg.MaxConns = d.MaxConns
	cfg.MinConns = d.MinConns
	cfg.MaxConnLifetime = d.MaxConnLifetime
	cfg.MaxConnIdleTime = d.MaxConnIdleTime
	cfg.ConnectTimeout = d.ConnectTimeout
	cfg.QueryTimeout = d.QueryTimeout
	return cfg, nil
}

// Options returns the inspector options for d.
func (d Database) Options(log *logger.Logger) schema.Options {
	return schema.Options{Schema: d.Schema, SearchPath: d.SearchPath, Logger: log}
}

// Logger returns the logger config for l, writing to stderr.
func (l Log) Logger() *logger.Config {
	cfg := logger.DefaultConfig()
	if l.Level != "" {
		cfg.Level = l.Level
	}
	if l.Format != "" {
		cfg.Format = l.Format
	}
	return cfg
}
