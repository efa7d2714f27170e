package metrics

import (
	"fmt"
	"sync"

	"membench/internal/core"
)

// Business accumulates subscription-economics counters across all workers.
type Business struct {
	mu sync.Mutex
	s  BusinessSnapshot
}

// BusinessSnapshot is a point-in-time copy of the business counters.
type BusinessSnapshot struct {
	Upgrades   int
	Downgrades int
	// Revenue is the sum of positive price impacts (initial subscriptions
	// plus upgrade deltas).
	Revenue float64
	// Transitions counts plan changes keyed by "fromTier→toTier".
	Transitions map[string]int
	// ValidationPass / ValidationWarn count pro-rated adjustment checks.
	ValidationPass int
	ValidationWarn int
	// AdjustmentTotal is the cumulative observed pro-rated adjustment.
	AdjustmentTotal float64
}

// NewBusiness creates an empty business accumulator.
func NewBusiness() *Business {
	return &Business{s: BusinessSnapshot{Transitions: make(map[string]int)}}
}

// TransitionKey renders the tier-transition counter key.
func TransitionKey(fromTier, toTier string) string {
	return fmt.Sprintf("%s→%s", fromTier, toTier)
}

// RecordSubscription accounts for an initial subscription purchase.
func (b *Business) RecordSubscription(price float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.s.Revenue += price
}

// RecordPlanChange accounts for one accepted plan mutation.
func (b *Business) RecordPlanChange(fromTier, toTier string, upgrade bool, priceDelta, adjustment float64, verdict core.Verdict) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if upgrade {
		b.s.Upgrades++
	} else {
		b.s.Downgrades++
	}
	if priceDelta > 0 {
		b.s.Revenue += priceDelta
	}
	b.s.Transitions[TransitionKey(fromTier, toTier)]++
	b.s.AdjustmentTotal += adjustment

	switch verdict {
	case core.VerdictPass:
		b.s.ValidationPass++
	case core.VerdictWarn:
		b.s.ValidationWarn++
	}
}

// Snapshot returns a consistent copy of the counters.
func (b *Business) Snapshot() BusinessSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := b.s
	out.Transitions = make(map[string]int, len(b.s.Transitions))
	for k, v := range b.s.Transitions {
		out.Transitions[k] = v
	}
	return out
}
