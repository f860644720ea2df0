package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/koustreak/dbinspect/internal/errs"
	"github.com/koustreak/dbinspect/internal/schema"
)

type ctxKey struct{}

func inspectorFrom(ctx context.Context) schema.Inspector {
	return ctx.Value(ctxKey{}).(schema.Inspector)
}

// withInspector builds the request's inspector and applies ?schema=.
func (s *Server) withInspector(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		insp, err := s.cfg.Inspector()
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if name := r.URL.Query().Get("schema"); name != "" {
			if insp, err = schema.WithSchema(insp, name); err != nil {
				s.writeError(w, r, err)
				return
			}
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, insp)))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.cfg.DB != nil {
		if err := s.cfg.DB.Ping(r.Context()); err != nil {
			s.log.ErrorWith("health check failed", err, nil)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	tables, err := inspectorFrom(r.Context()).TableInfo(r.Context())
	s.respond(w, r, tables, err)
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	table, err := inspectorFrom(r.Context()).Table(r.Context(), chi.URLParam(r, "table"))
	if err == nil && table == nil {
		err = errs.Newf(errs.ErrKindNotFound, "table %q not found", chi.URLParam(r, "table"))
	}
	s.respond(w, r, table, err)
}

func (s *Server) handleColumns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "table")
	insp := inspectorFrom(ctx)

	cols, err := insp.ColumnInfo(ctx, name)
	if err == nil && len(cols) == 0 {
		err = s.requireTable(ctx, insp, name)
	}
	s.respond(w, r, cols, err)
}

func (s *Server) handleColumn(w http.ResponseWriter, r *http.Request) {
	table, column := chi.URLParam(r, "table"), chi.URLParam(r, "column")
	col, err := inspectorFrom(r.Context()).Column(r.Context(), table, column)
	if err == nil && col == nil {
		err = errs.Newf(errs.ErrKindNotFound, "column %q.%q not found", table, column)
	}
	s.respond(w, r, col, err)
}

type primaryKey struct {
	Table  string  `json:"table"`
	Column *string `json:"column"`
}

// handlePrimary answers column null when the table has no single-column
// primary key.
func (s *Server) handlePrimary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "table")
	insp := inspectorFrom(ctx)

	pk, err := insp.Primary(ctx, name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := primaryKey{Table: name}
	if pk != "" {
		out.Column = &pk
	} else if err := s.requireTable(ctx, insp, name); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleForeignKeys(w http.ResponseWriter, r *http.Request) {
	fks, err := inspectorFrom(r.Context()).ForeignKeys(r.Context(), "")
	s.respond(w, r, fks, err)
}

func (s *Server) handleTableForeignKeys(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "table")
	insp := inspectorFrom(ctx)

	fks, err := insp.ForeignKeys(ctx, name)
	if err == nil && len(fks) == 0 {
		err = s.requireTable(ctx, insp, name)
	}
	s.respond(w, r, fks, err)
}

func (s *Server) requireTable(ctx context.Context, insp schema.Inspector, name string) error {
	ok, err := insp.HasTable(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return errs.Newf(errs.ErrKindNotFound, "table %q not found", name)
	}
	return nil
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, v any, err error) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.log.ErrorWith("request failed", err, map[string]any{"path": r.URL.Path})
	}
	writeJSON(w, status, errorBody{Error: err.Error(), Kind: errs.KindOf(err).String()})
}

// statusOf maps an error kind to the HTTP status reported for it.
func statusOf(err error) int {
	switch errs.KindOf(err) {
	case errs.ErrKindNotFound:
		return http.StatusNotFound
	case errs.ErrKindInvalidInput, errs.ErrKindUnsupportedEngine:
		return http.StatusBadRequest
	case errs.ErrKindPermissionDenied:
		return http.StatusForbidden
	case errs.ErrKindTimeout:
		return http.StatusGatewayTimeout
	case errs.ErrKindConnectionFailed:
		return http.StatusServiceUnavailable
	case errs.ErrKindQueryFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
