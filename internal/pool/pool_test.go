package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"membench/internal/core"
)

// recorder collects results for assertions.
type recorder struct {
	mu      sync.Mutex
	results []core.TestResult
}

func (r *recorder) Record(res core.TestResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

func (r *recorder) byName(name string) (core.TestResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, res := range r.results {
		if res.Name == name {
			return res, true
		}
	}
	return core.TestResult{}, false
}

func okCall(name string) Call {
	return func(ctx context.Context) (core.TestResult, error) {
		return core.TestResult{Name: name, Success: true}, nil
	}
}

func TestRunIsABarrier(t *testing.T) {
	var running atomic.Int32
	var units []WorkUnit
	for i := 0; i < 20; i++ {
		units = append(units, WorkUnit{
			Name: "unit",
			Calls: []Call{func(ctx context.Context) (core.TestResult, error) {
				running.Add(1)
				defer running.Add(-1)
				return core.TestResult{Success: true}, nil
			}},
		})
	}

	rep := &recorder{}
	Run(context.Background(), units, 4, rep, nil)

	if got := running.Load(); got != 0 {
		t.Errorf("Run returned with %d calls still in flight", got)
	}
	if len(rep.results) != 20 {
		t.Errorf("expected 20 results, got %d", len(rep.results))
	}
}

func TestFailedCallSkipsRestOfUnit(t *testing.T) {
	var thirdRan atomic.Bool
	unit := WorkUnit{
		Name: "failing",
		Calls: []Call{
			okCall("first"),
			func(ctx context.Context) (core.TestResult, error) {
				return core.TestResult{Name: "second", Success: false, Error: "boom"},
					errors.New("boom")
			},
			func(ctx context.Context) (core.TestResult, error) {
				thirdRan.Store(true)
				return core.TestResult{Name: "third", Success: true}, nil
			},
		},
	}
	sibling := WorkUnit{Name: "sibling", Calls: []Call{okCall("sibling call")}}

	rep := &recorder{}
	Run(context.Background(), []WorkUnit{unit, sibling}, 1, rep, nil)

	if thirdRan.Load() {
		t.Error("call after a failed call should not run")
	}
	if _, ok := rep.byName("second"); !ok {
		t.Error("failed call result was not recorded")
	}
	if res, ok := rep.byName("sibling call"); !ok || !res.Success {
		t.Error("sibling unit should be unaffected by a failing unit")
	}
}

func TestPanicIsRecordedAsFailure(t *testing.T) {
	units := []WorkUnit{
		{
			Name:     "panicking",
			Category: core.CategoryLoad,
			Calls: []Call{func(ctx context.Context) (core.TestResult, error) {
				panic("worker exploded")
			}},
		},
		{Name: "healthy", Calls: []Call{okCall("healthy call")}},
	}

	rep := &recorder{}
	Run(context.Background(), units, 2, rep, nil)

	res, ok := rep.byName("panicking")
	if !ok {
		t.Fatal("panicked unit produced no result")
	}
	if res.Success {
		t.Error("panicked unit should be recorded as failed")
	}
	if res.Error == "" {
		t.Error("panicked unit should carry the panic message")
	}
	if _, ok := rep.byName("healthy call"); !ok {
		t.Error("healthy unit should still complete")
	}
}

func TestCancelledContextReportsUndispatchedUnits(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	blocked := WorkUnit{Name: "never dispatched", Calls: []Call{okCall("x")}}
	rep := &recorder{}
	Run(ctx, []WorkUnit{blocked}, 1, rep, nil)

	// Either the unit ran (worker won the select) or it was reported as
	// undispatched; both account for it in the totals.
	if len(rep.results) == 0 {
		t.Fatal("cancelled run left a unit unaccounted for")
	}
}

func TestPoolSizeClamped(t *testing.T) {
	units := []WorkUnit{{Name: "only", Calls: []Call{okCall("only call")}}}
	rep := &recorder{}

	// Oversized and undersized pools must both work.
	Run(context.Background(), units, 100, rep, nil)
	Run(context.Background(), units, 0, rep, nil)

	if len(rep.results) != 2 {
		t.Errorf("expected 2 results across both runs, got %d", len(rep.results))
	}
}
