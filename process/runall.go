package process

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// RunAll runs units and returns how many failed. With concurrency <= 1 the
// units run in order on the calling goroutine; otherwise at most concurrency
// units run at once. A cancelled ctx stops scheduling; units not started
// are not counted.
func RunAll(ctx context.Context, units []*Unit, concurrency int) int {
	if ctx == nil {
		ctx = context.Background()
	}
	if concurrency <= 1 {
		failed := 0
		for _, u := range units {
			if ctx.Err() != nil {
				break
			}
			if !u.Run(ctx) {
				failed++
			}
		}
		return failed
	}

	var failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(concurrency)
	for _, u := range units {
		if ctx.Err() != nil {
			break
		}
		u := u
		g.Go(func() error {
			if !u.Run(ctx) {
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()
	return int(failed.Load())
}
