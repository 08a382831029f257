package render

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/gaugekit/internal/ambient"
)

// RenderAll validates and renders every entry concurrently, at most limit at
// a time (limit <= 0 means unbounded). Results keep the input order. The
// first invalid configuration cancels the batch.
func RenderAll(ctx context.Context, batch []Options, mode ambient.Mode, limit int) ([]string, error) {
	out := make([]string, len(batch))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, opts := range batch {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := opts.Gauge.Validate(); err != nil {
				return fmt.Errorf("gauge %d: %w", i, err)
			}
			out[i] = Render(opts, mode)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
