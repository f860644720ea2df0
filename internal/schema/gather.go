package schema

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/koustreak/dbinspect/internal/database"
)

// gather runs fns concurrently when db allows overlapping queries, and one
// after another otherwise. The first error is returned.
func gather(ctx context.Context, db database.DB, fns ...func(context.Context) error) error {
	if !database.IsConcurrent(db) {
		for _, fn := range fns {
			if err := fn(ctx); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, fn := range fns {
		g.Go(func() error { return fn(gctx) })
	}
	return g.Wait()
}
