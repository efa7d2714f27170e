package metrics

import (
	"sync"
	"testing"
	"time"

	"membench/internal/core"
)

func TestSinkAggregates(t *testing.T) {
	s := NewSink()

	s.Record(core.TestResult{Category: core.CategoryLoad, Success: true, Latency: 10 * time.Millisecond})
	s.Record(core.TestResult{Category: core.CategoryLoad, Success: true, Latency: 30 * time.Millisecond})
	s.Record(core.TestResult{Category: core.CategoryLoad, Success: false, Latency: 50 * time.Millisecond})
	s.Record(core.TestResult{Category: core.CategoryRace, Success: true, Latency: 5 * time.Millisecond})

	m := s.Snapshot()
	if m.Global.Count != 4 {
		t.Errorf("global count = %d, want 4", m.Global.Count)
	}
	if m.Global.SuccessCount != 3 {
		t.Errorf("global success = %d, want 3", m.Global.SuccessCount)
	}

	load := m.ByCategory[core.CategoryLoad]
	if load.Count != 3 {
		t.Errorf("load count = %d, want 3", load.Count)
	}
	if load.LatencyMin != 10*time.Millisecond {
		t.Errorf("load min = %v, want 10ms", load.LatencyMin)
	}
	if load.LatencyMax != 50*time.Millisecond {
		t.Errorf("load max = %v, want 50ms", load.LatencyMax)
	}
	if load.Mean() != 30*time.Millisecond {
		t.Errorf("load mean = %v, want 30ms", load.Mean())
	}
	if got := load.SuccessRate(); got < 0.66 || got > 0.67 {
		t.Errorf("load success rate = %v, want ~0.667", got)
	}
}

func TestSinkEmptyAggregate(t *testing.T) {
	s := NewSink()
	m := s.Snapshot()
	if m.Global.Mean() != 0 {
		t.Error("mean of empty aggregate should be 0")
	}
	if m.Global.SuccessRate() != 0 {
		t.Error("success rate of empty aggregate should be 0")
	}
	if got := s.Category(core.CategoryLoad); got.Count != 0 {
		t.Errorf("unknown category aggregate count = %d, want 0", got.Count)
	}
}

func TestSinkConcurrentRecords(t *testing.T) {
	s := NewSink()
	const workers = 16
	const perWorker = 500

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			cat := core.CategoryLoad
			if w%2 == 1 {
				cat = core.CategoryPlanChange
			}
			for i := 0; i < perWorker; i++ {
				s.Record(core.TestResult{
					Category: cat,
					Success:  i%10 != 0,
					Latency:  time.Millisecond,
				})
			}
		}(w)
	}
	wg.Wait()

	m := s.Snapshot()
	if m.Global.Count != workers*perWorker {
		t.Errorf("global count = %d, want %d", m.Global.Count, workers*perWorker)
	}
	if want := time.Duration(workers*perWorker) * time.Millisecond; m.Global.LatencySum != want {
		t.Errorf("latency sum = %v, want %v", m.Global.LatencySum, want)
	}
	if m.Global.LatencyMin != time.Millisecond || m.Global.LatencyMax != time.Millisecond {
		t.Errorf("min/max = %v/%v, want 1ms/1ms", m.Global.LatencyMin, m.Global.LatencyMax)
	}
	sum := 0
	for _, agg := range m.ByCategory {
		sum += agg.Count
	}
	if sum != m.Global.Count {
		t.Errorf("category counts sum to %d, global is %d", sum, m.Global.Count)
	}
}

func TestBusinessCounters(t *testing.T) {
	b := NewBusiness()

	b.RecordSubscription(199)
	b.RecordSubscription(299)
	b.RecordPlanChange("SILVER", "GOLD", true, 100, 70, core.VerdictPass)
	b.RecordPlanChange("GOLD", "SILVER", false, -100, -50, core.VerdictPass)
	b.RecordPlanChange("SILVER", "PLATINUM", true, 300, 150, core.VerdictWarn)

	s := b.Snapshot()
	if s.Upgrades != 2 || s.Downgrades != 1 {
		t.Errorf("upgrades/downgrades = %d/%d, want 2/1", s.Upgrades, s.Downgrades)
	}
	// 199 + 299 initial, plus positive deltas 100 and 300.
	if s.Revenue != 898 {
		t.Errorf("revenue = %v, want 898", s.Revenue)
	}
	if s.ValidationPass != 2 || s.ValidationWarn != 1 {
		t.Errorf("validation pass/warn = %d/%d, want 2/1", s.ValidationPass, s.ValidationWarn)
	}
	if s.AdjustmentTotal != 170 {
		t.Errorf("adjustment total = %v, want 170", s.AdjustmentTotal)
	}
	if got := s.Transitions[TransitionKey("SILVER", "GOLD")]; got != 1 {
		t.Errorf("SILVER→GOLD transitions = %d, want 1", got)
	}
}

func TestBusinessSnapshotIsACopy(t *testing.T) {
	b := NewBusiness()
	b.RecordPlanChange("SILVER", "GOLD", true, 100, 70, core.VerdictPass)

	s := b.Snapshot()
	s.Transitions["SILVER→GOLD"] = 99

	if got := b.Snapshot().Transitions["SILVER→GOLD"]; got != 1 {
		t.Errorf("mutating a snapshot leaked into the accumulator: %d", got)
	}
}
