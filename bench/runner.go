package bench

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/sbl8/eoc/core"
	"github.com/sbl8/eoc/model"
	"github.com/sbl8/eoc/runtime"
)

// Runner repeats one dataization: each cycle opens a basket for Entry
// under the root, dataizes it and deletes it.
type Runner struct {
	Table   *model.Table
	Entry   model.ObjectID
	Cycles  int
	Options runtime.Options

	// OnCycle, when set, observes every cycle. Parallel runs call it from
	// several goroutines.
	OnCycle func(worker int, v core.Data, perf runtime.Perf, elapsed time.Duration, err error)
}

// Result summarizes one Run.
type Result struct {
	Worker  int
	Cycles  int
	Value   core.Data // result of the last cycle
	Total   core.Data // sum over all cycles
	Perf    runtime.Perf
	Stats   runtime.Stats
	Elapsed time.Duration
}

// Run executes the cycles on a fresh engine. It stops at the first failed
// dataization or when ctx is done.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	return r.run(ctx, 0)
}

// RunParallel executes the cycles on workers independent engines sharing
// the table, which is frozen first.
func (r *Runner) RunParallel(ctx context.Context, workers int) ([]Result, error) {
	if workers < 1 {
		return nil, errors.Errorf("workers must be >= 1, got %d", workers)
	}
	r.Table.Freeze()

	results := make([]Result, workers)
	eg, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		worker := w
		eg.Go(func() error {
			res, err := r.run(ctx, worker)
			if err != nil {
				return errors.WithMessagef(err, "worker %d", worker)
			}
			results[worker] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Runner) run(ctx context.Context, worker int) (Result, error) {
	if r.Cycles < 1 {
		return Result{}, errors.Errorf("cycles must be >= 1, got %d", r.Cycles)
	}
	opts := r.Options
	e, err := runtime.NewEngine(r.Table, &opts)
	if err != nil {
		return Result{}, err
	}

	res := Result{Worker: worker, Perf: runtime.Perf{Atoms: map[string]int{}}}
	start := time.Now()
	for i := 0; i < r.Cycles; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		bx, err := e.New(r.Entry, core.RootBasket)
		if err != nil {
			return res, err
		}
		cycleStart := time.Now()
		v, perf, err := e.DataizeBasket(bx)
		if r.OnCycle != nil {
			r.OnCycle(worker, v, perf, time.Since(cycleStart), err)
		}
		if err != nil {
			return res, errors.WithMessagef(err, "cycle %d", i)
		}
		if err := e.Delete(bx); err != nil {
			return res, err
		}
		res.Cycles++
		res.Value = v
		res.Total += v
		res.Perf.Merge(perf)
	}
	res.Elapsed = time.Since(start)
	res.Stats = e.Stats()
	return res, nil
}
