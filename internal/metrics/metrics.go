// Package metrics exposes Prometheus instruments for catalog reads and HTTP
// requests.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/koustreak/dbinspect/internal/errs"
	"github.com/koustreak/dbinspect/internal/schema"
)

// Collector holds every dbinspect metric, registered on its own registry.
type Collector struct {
	registry *prometheus.Registry

	InspectorCalls    *prometheus.CounterVec
	InspectorDuration *prometheus.HistogramVec
	InspectorErrors   *prometheus.CounterVec

	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewCollector registers the metrics on reg. A nil reg gets a fresh
// registry that also carries the Go runtime and process collectors.
func NewCollector(reg *prometheus.Registry) *Collector {
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		InspectorCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dbinspect_inspector_calls_total",
				Help: "Total number of inspector calls",
			},
			[]string{"engine", "op"},
		),
		InspectorDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dbinspect_inspector_duration_seconds",
				Help:    "Inspector call latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"engine", "op"},
		),
		InspectorErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dbinspect_inspector_errors_total",
				Help: "Total number of failed inspector calls",
			},
			[]string{"engine", "op", "kind"},
		),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dbinspect_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dbinspect_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// Registry returns the registry the metrics live on.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one HTTP request.
func (c *Collector) ObserveRequest(method, route string, status int, d time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (c *Collector) observe(engine, op string, start time.Time, err error) {
	c.InspectorCalls.WithLabelValues(engine, op).Inc()
	c.InspectorDuration.WithLabelValues(engine, op).Observe(time.Since(start).Seconds())
	if err != nil {
		c.InspectorErrors.WithLabelValues(engine, op, errs.KindOf(err).String()).Inc()
	}
}

// Instrument wraps insp so every call is counted and timed. The wrapper
// supports WithSchema exactly when insp does.
func Instrument(insp schema.Inspector, c *Collector) schema.Inspector {
	if c == nil {
		return insp
	}
	in := &instrumented{next: insp, c: c, engine: engineOf(insp)}
	if _, ok := insp.(schema.SchemaSelector); ok {
		return &selectable{in}
	}
	return in
}

func engineOf(insp schema.Inspector) string {
	switch insp.(type) {
	case *schema.MySQLInspector:
		return "mysql"
	case *schema.PostgresInspector:
		return "postgres"
	case *schema.CockroachInspector:
		return "cockroachdb"
	case *schema.MSSQLInspector:
		return "mssql"
	case *schema.OracleInspector:
		return "oracle"
	case *schema.SQLiteInspector:
		return "sqlite"
	default:
		return "unknown"
	}
}

type instrumented struct {
	next   schema.Inspector
	c      *Collector
	engine string
}

type selectable struct {
	*instrumented
}

func (s *selectable) WithSchema(name string) schema.Inspector {
	s.next.(schema.SchemaSelector).WithSchema(name)
	return s
}

func (i *instrumented) Tables(ctx context.Context) (_ []string, err error) {
	defer func(start time.Time) { i.c.observe(i.engine, "tables", start, err) }(time.Now())
	return i.next.Tables(ctx)
}

func (i *instrumented) TableInfo(ctx context.Context) (_ []schema.Table, err error) {
	defer func(start time.Time) { i.c.observe(i.engine, "table_info", start, err) }(time.Now())
	return i.next.TableInfo(ctx)
}

func (i *instrumented) Table(ctx context.Context, table string) (_ *schema.Table, err error) {
	defer func(start time.Time) { i.c.observe(i.engine, "table", start, err) }(time.Now())
	return i.next.Table(ctx, table)
}

func (i *instrumented) HasTable(ctx context.Context, table string) (_ bool, err error) {
	defer func(start time.Time) { i.c.observe(i.engine, "has_table", start, err) }(time.Now())
	return i.next.HasTable(ctx, table)
}

func (i *instrumented) Columns(ctx context.Context, table string) (_ []schema.ColumnRef, err error) {
	defer func(start time.Time) { i.c.observe(i.engine, "columns", start, err) }(time.Now())
	return i.next.Columns(ctx, table)
}

func (i *instrumented) ColumnInfo(ctx context.Context, table string) (_ []schema.Column, err error) {
	defer func(start time.Time) { i.c.observe(i.engine, "column_info", start, err) }(time.Now())
	return i.next.ColumnInfo(ctx, table)
}

func (i *instrumented) Column(ctx context.Context, table, column string) (_ *schema.Column, err error) {
	defer func(start time.Time) { i.c.observe(i.engine, "column", start, err) }(time.Now())
	return i.next.Column(ctx, table, column)
}

func (i *instrumented) HasColumn(ctx context.Context, table, column string) (_ bool, err error) {
	defer func(start time.Time) { i.c.observe(i.engine, "has_column", start, err) }(time.Now())
	return i.next.HasColumn(ctx, table, column)
}

func (i *instrumented) Primary(ctx context.Context, table string) (_ string, err error) {
	defer func(start time.Time) { i.c.observe(i.engine, "primary", start, err) }(time.Now())
	return i.next.Primary(ctx, table)
}

func (i *instrumented) ForeignKeys(ctx context.Context, table string) (_ []schema.ForeignKey, err error) {
	defer func(start time.Time) { i.c.observe(i.engine, "foreign_keys", start, err) }(time.Now())
	return i.next.ForeignKeys(ctx, table)
}
