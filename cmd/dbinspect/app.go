package main

import (
	"context"
	"io"

	"github.com/urfave/cli/v2"

	"github.com/koustreak/dbinspect/internal/config"
	"github.com/koustreak/dbinspect/internal/database"
	"github.com/koustreak/dbinspect/internal/database/connect"
	"github.com/koustreak/dbinspect/internal/errs"
	"github.com/koustreak/dbinspect/internal/logger"
	"github.com/koustreak/dbinspect/internal/metrics"
	"github.com/koustreak/dbinspect/internal/schema"
	"github.com/koustreak/dbinspect/internal/server"
)

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "dbinspect",
		Usage:     "Describe the tables, columns and keys of a database",
		UsageText: "dbinspect [-c FILE] [--client NAME --dsn DSN] COMMAND [ARGS]",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
				EnvVars: []string{"DBINSPECT_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "client",
				Usage: "database client: mysql, pg, cockroachdb, mssql, oracle, sqlite3",
			},
			&cli.StringFlag{
				Name:  "dsn",
				Usage: "connection string in the driver's format",
			},
			&cli.StringFlag{
				Name:  "schema",
				Usage: "schema (or MySQL database) to inspect",
			},
			&cli.StringSliceFlag{
				Name:  "search-path",
				Usage: "Postgres / CockroachDB search path, earliest schema first",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   "json",
				Usage:   "output format: json or yaml",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn, error or disabled",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "tables",
				Usage: "list base tables",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "info", Usage: "include comments and engine extras"},
				},
				Action: inspect(func(c *cli.Context, insp schema.Inspector) (any, error) {
					if c.Bool("info") {
						return insp.TableInfo(c.Context)
					}
					return insp.Tables(c.Context)
				}),
			},
			{
				Name:      "table",
				Usage:     "describe one table",
				ArgsUsage: "TABLE",
				Action: inspect(func(c *cli.Context, insp schema.Inspector) (any, error) {
					name, err := arg(c, 0, "TABLE")
					if err != nil {
						return nil, err
					}
					t, err := insp.Table(c.Context, name)
					if err == nil && t == nil {
						err = errs.Newf(errs.ErrKindNotFound, "table %q not found", name)
					}
					return t, err
				}),
			},
			{
				Name:      "columns",
				Usage:     "describe the columns of TABLE, or of every table",
				ArgsUsage: "[TABLE]",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "names", Usage: "print table and column names only"},
				},
				Action: inspect(func(c *cli.Context, insp schema.Inspector) (any, error) {
					if c.Bool("names") {
						return insp.Columns(c.Context, c.Args().First())
					}
					return insp.ColumnInfo(c.Context, c.Args().First())
				}),
			},
			{
				Name:      "column",
				Usage:     "describe one column",
				ArgsUsage: "TABLE COLUMN",
				Action: inspect(func(c *cli.Context, insp schema.Inspector) (any, error) {
					table, err := arg(c, 0, "TABLE")
					if err != nil {
						return nil, err
					}
					column, err := arg(c, 1, "COLUMN")
					if err != nil {
						return nil, err
					}
					col, err := insp.Column(c.Context, table, column)
					if err == nil && col == nil {
						err = errs.Newf(errs.ErrKindNotFound, "column %q.%q not found", table, column)
					}
					return col, err
				}),
			},
			{
				Name:      "exists",
				Usage:     "report whether TABLE, or COLUMN of TABLE, exists",
				ArgsUsage: "TABLE [COLUMN]",
				Action: inspect(func(c *cli.Context, insp schema.Inspector) (any, error) {
					table, err := arg(c, 0, "TABLE")
					if err != nil {
						return nil, err
					}
					if c.NArg() > 1 {
						return insp.HasColumn(c.Context, table, c.Args().Get(1))
					}
					return insp.HasTable(c.Context, table)
				}),
			},
			{
				Name:      "primary",
				Usage:     "print the single-column primary key of TABLE",
				ArgsUsage: "TABLE",
				Action: inspect(func(c *cli.Context, insp schema.Inspector) (any, error) {
					table, err := arg(c, 0, "TABLE")
					if err != nil {
						return nil, err
					}
					pk, err := insp.Primary(c.Context, table)
					if err != nil {
						return nil, err
					}
					out := map[string]any{"table": table, "column": nil}
					if pk != "" {
						out["column"] = pk
					}
					return out, nil
				}),
			},
			{
				Name:      "foreign-keys",
				Usage:     "list foreign keys of TABLE, or of every table",
				ArgsUsage: "[TABLE]",
				Action: inspect(func(c *cli.Context, insp schema.Inspector) (any, error) {
					return insp.ForeignKeys(c.Context, c.Args().First())
				}),
			},
			{
				Name:  "serve",
				Usage: "serve the schema over HTTP",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "addr", Usage: "listen address, overrides server.addr"},
				},
				Action: serve,
			},
		},
	}
}

// session is everything a command needs once configuration is resolved.
type session struct {
	cfg    *config.Config
	log    *logger.Logger
	client schema.Client
	db     database.DB
}

// open loads configuration, applies the global flags on top and connects.
func open(c *cli.Context) (*session, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("client") {
		cfg.Database.Client = c.String("client")
	}
	if c.IsSet("dsn") {
		cfg.Database.DSN = c.String("dsn")
	}
	if c.IsSet("schema") {
		cfg.Database.Schema = c.String("schema")
	}
	if c.IsSet("search-path") {
		cfg.Database.SearchPath = c.StringSlice("search-path")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logCfg := cfg.Log.Logger()
	logCfg.Output = c.App.ErrWriter
	log := logger.New(logCfg)

	client, err := cfg.Database.ParseClient()
	if err != nil {
		return nil, err
	}
	conn, err := cfg.Database.Connection()
	if err != nil {
		return nil, err
	}

	db, err := connect.Open(c.Context, conn)
	if err != nil {
		return nil, err
	}
	log.With().Str("engine", string(client.Driver())).Logger().Debug("connected")

	return &session{cfg: cfg, log: log, client: client, db: db}, nil
}

func (s *session) inspector() (schema.Inspector, error) {
	return schema.New(s.client, s.db, s.cfg.Database.Options(s.log))
}

// inspect wraps a one-shot command: connect, run fn under the query
// timeout, print the result in the chosen format.
func inspect(fn func(*cli.Context, schema.Inspector) (any, error)) cli.ActionFunc {
	return func(c *cli.Context) error {
		format, err := parseFormat(c.String("output"))
		if err != nil {
			return err
		}

		s, err := open(c)
		if err != nil {
			return err
		}
		defer s.db.Close()

		insp, err := s.inspector()
		if err != nil {
			return err
		}

		ctx := c.Context
		if t := s.cfg.Database.QueryTimeout; t > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, t)
			defer cancel()
		}
		c.Context = ctx

		out, err := fn(c, insp)
		if err != nil {
			return err
		}
		return write(c.App.Writer, format, out)
	}
}

func serve(c *cli.Context) error {
	s, err := open(c)
	if err != nil {
		return err
	}
	defer s.db.Close()

	addr := s.cfg.Server.Addr
	if c.IsSet("addr") {
		addr = c.String("addr")
	}

	collector := metrics.NewCollector(nil)
	srv := server.New(server.Config{
		Addr:         addr,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		QueryTimeout: s.cfg.Database.QueryTimeout,
		DB:           s.db,
		Logger:       s.log,
		Metrics:      collector,
		Inspector: func() (schema.Inspector, error) {
			insp, err := s.inspector()
			if err != nil {
				return nil, err
			}
			return metrics.Instrument(insp, collector), nil
		},
	})
	return srv.Run(c.Context)
}

func arg(c *cli.Context, i int, name string) (string, error) {
	if c.NArg() <= i || c.Args().Get(i) == "" {
		return "", errs.Newf(errs.ErrKindInvalidInput, "missing %s argument", name)
	}
	return c.Args().Get(i), nil
}
