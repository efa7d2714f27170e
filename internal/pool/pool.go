// Package pool runs independent work units on a bounded worker pool.
//
// The contract is submit-and-join: Run returns only after every unit has
// terminated, which makes each phase of the scenario an explicit barrier.
package pool

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"membench/internal/core"
)

// Call is one remote operation inside a unit. It returns the measured result
// and an error when the rest of the unit should be skipped (a transport
// failure makes dependent calls meaningless).
type Call func(ctx context.Context) (core.TestResult, error)

// WorkUnit is an ordered sequence of calls executed by a single worker
// without interleaving. Units are independent of each other; no ordering
// holds across units.
type WorkUnit struct {
	Name     string
	Category core.Category
	Calls    []Call
}

// Run executes units on `size` workers and blocks until all have terminated.
// Every call's result is handed to rep. A failing unit is isolated: its
// remaining calls are skipped, siblings are unaffected, and Run still joins.
// There is no pool-level cancellation beyond ctx; per-call timeouts belong to
// the transport.
func Run(ctx context.Context, units []WorkUnit, size int, rep core.Reporter, log *zap.Logger) {
	if len(units) == 0 {
		return
	}
	if size < 1 {
		size = 1
	}
	if size > len(units) {
		size = len(units)
	}
	if log == nil {
		log = zap.NewNop()
	}

	jobs := make(chan WorkUnit)
	var wg sync.WaitGroup
	for i := 0; i < size; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for unit := range jobs {
				runUnit(ctx, unit, rep, log, worker)
			}
		}(i)
	}

	for _, unit := range units {
		select {
		case jobs <- unit:
		case <-ctx.Done():
			// Undispatched units are reported as failed so the totals
			// still account for every submitted unit.
			rep.Record(core.TestResult{
				Name:     unit.Name,
				Category: unit.Category,
				Success:  false,
				Error:    ctx.Err().Error(),
			})
		}
	}
	close(jobs)
	wg.Wait()
}

func runUnit(ctx context.Context, unit WorkUnit, rep core.Reporter, log *zap.Logger, worker int) {
	defer func() {
		if r := recover(); r != nil {
			rep.Record(core.TestResult{
				Name:     unit.Name,
				Category: unit.Category,
				Success:  false,
				Error:    fmt.Sprintf("panic: %v", r),
			})
			log.Error("work unit panicked",
				zap.String("unit", unit.Name),
				zap.Int("worker", worker),
				zap.Any("panic", r))
		}
	}()

	for _, call := range unit.Calls {
		result, err := call(ctx)
		rep.Record(result)
		if err != nil {
			log.Debug("work unit aborted",
				zap.String("unit", unit.Name),
				zap.String("call", result.Name),
				zap.Error(err))
			return
		}
	}
}
