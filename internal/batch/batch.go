// Package batch evaluates every building against every earthquake.
package batch

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/mr1hm/go-quake-impact/internal/damage"
	"github.com/mr1hm/go-quake-impact/internal/models"
	"github.com/mr1hm/go-quake-impact/internal/worker"
)

// Run assesses the Cartesian product sequentially. Results are ordered by
// earthquake, then by building position in the input.
func Run(buildings []models.Building, quakes []models.Earthquake) []models.Result {
	out := make([]models.Result, 0, len(buildings)*len(quakes))
	for qi, e := range quakes {
		for _, b := range buildings {
			out = append(out, result(qi, e, b))
		}
	}
	return out
}

func result(qi int, e models.Earthquake, b models.Building) models.Result {
	return models.Result{
		EarthquakeIndex: qi,
		Magnitude:       e.Magnitude,
		FaultName:       e.FaultName,
		Building:        b,
		Assessment:      damage.Assess(b, e),
	}
}

type job struct {
	slot int
	qi   int
	bi   int
}

// RunConcurrent produces the same output as Run using a worker pool. Each job
// writes only its own slot, so ordering is fixed by construction. A workers
// value below 1 uses GOMAXPROCS. If ctx ends first, partial results are
// discarded and ctx.Err() is returned.
func RunConcurrent(ctx context.Context, buildings []models.Building, quakes []models.Earthquake, workers int) ([]models.Result, error) {
	total := len(buildings) * len(quakes)
	if total == 0 {
		return []models.Result{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("batch abandoned: %w", err)
	}
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, total)

	out := make([]models.Result, total)
	var done atomic.Int64

	pool := worker.NewPool("batch", workers, workers*2, func(ctx context.Context, j job) error {
		out[j.slot] = result(j.qi, quakes[j.qi], buildings[j.bi])
		done.Add(1)
		return nil
	})
	pool.Start(ctx)

	var submitErr error
submit:
	for qi := range quakes {
		for bi := range buildings {
			if err := pool.Submit(ctx, job{slot: qi*len(buildings) + bi, qi: qi, bi: bi}); err != nil {
				submitErr = err
				break submit
			}
		}
	}
	pool.Stop()

	if submitErr != nil {
		return nil, fmt.Errorf("batch abandoned: %w", submitErr)
	}
	// Workers quit on cancellation even with jobs still queued.
	if done.Load() != int64(total) {
		return nil, fmt.Errorf("batch abandoned: %w", context.Cause(ctx))
	}
	return out, nil
}
