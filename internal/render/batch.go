package render

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/stringsim/internal/config"
	"github.com/san-kum/stringsim/internal/metrics"
)

// Batch renders each configuration on its own goroutine, at most workers
// at a time (unbounded when workers <= 0). newMetrics is called once per
// render since metrics are stateful. The first failure cancels the rest.
func Batch(ctx context.Context, cfgs []*config.Config, workers int, newMetrics func() []metrics.Metric) ([]*Result, error) {
	results := make([]*Result, len(cfgs))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, cfg := range cfgs {
		g.Go(func() error {
			var ms []metrics.Metric
			if newMetrics != nil {
				ms = newMetrics()
			}
			r, err := Run(ctx, cfg, ms)
			if err != nil {
				return fmt.Errorf("render %q: %w", cfg.Name, err)
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
