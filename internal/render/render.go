// Package render drives a voice offline, faster than real time, and
// writes the result as PCM.
package render

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/san-kum/stringsim/internal/config"
	"github.com/san-kum/stringsim/internal/metrics"
	"github.com/san-kum/stringsim/internal/voice"
)

const blockSize = 512

type Result struct {
	Samples    []float64
	SampleRate float64
	Plucks     int
	Metrics    map[string]float64
	Elapsed    time.Duration
}

// Duration is the length of the rendered signal in seconds.
func (r *Result) Duration() float64 {
	return float64(len(r.Samples)) / r.SampleRate
}

type rebaser interface {
	Rebase()
}

// Run renders cfg.Duration seconds of the configured string. The string is
// plucked at the first sample and again every cfg.Pluck.Every seconds when
// that is positive. Each metric observes every sample.
func Run(ctx context.Context, cfg *config.Config, ms []metrics.Metric) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s, err := cfg.NewString()
	if err != nil {
		return nil, err
	}
	v, err := voice.New(s, cfg.SampleRate)
	if err != nil {
		return nil, err
	}
	v.SetLevel(cfg.Level)

	total := int(math.Round(cfg.Duration * cfg.SampleRate))
	interval := 0
	if cfg.Pluck.Every > 0 {
		interval = int(math.Round(cfg.Pluck.Every * cfg.SampleRate))
		if interval < 1 {
			interval = 1
		}
	}

	for _, m := range ms {
		m.Reset()
	}

	result := &Result{
		Samples:    make([]float64, total),
		SampleRate: cfg.SampleRate,
		Metrics:    make(map[string]float64, len(ms)),
	}

	start := time.Now()
	for i := 0; i < total; i++ {
		if i%blockSize == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}

		plucked := i == 0 || (interval > 0 && i%interval == 0)
		if plucked {
			if err := v.Pluck(cfg.Pluck.Position, cfg.Pluck.Strength); err != nil {
				return nil, fmt.Errorf("pluck at sample %d: %w", i, err)
			}
			result.Plucks++
		}

		x := v.Next()
		result.Samples[i] = x

		for _, m := range ms {
			if r, ok := m.(rebaser); ok && plucked {
				r.Rebase()
			}
			m.Observe(s, x)
		}
	}
	result.Elapsed = time.Since(start)

	for _, m := range ms {
		result.Metrics[m.Name()] = m.Value()
	}
	return result, nil
}
