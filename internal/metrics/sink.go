// Package metrics aggregates call outcomes into running statistics.
//
// The sink is the only mutable structure every worker touches, so Record
// takes a single lock and does O(1) work per event. No percentiles are kept;
// mean/min/max only, computed from the running sum at snapshot time so
// rounding error never compounds.
package metrics

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"membench/internal/core"
)

// Aggregate is the per-category running statistic set.
type Aggregate struct {
	Count        int
	SuccessCount int
	LatencySum   time.Duration
	LatencyMin   time.Duration
	LatencyMax   time.Duration
}

func (a *Aggregate) observe(r core.TestResult) {
	a.Count++
	if r.Success {
		a.SuccessCount++
	}
	a.LatencySum += r.Latency
	if a.Count == 1 || r.Latency < a.LatencyMin {
		a.LatencyMin = r.Latency
	}
	if r.Latency > a.LatencyMax {
		a.LatencyMax = r.Latency
	}
}

// Mean is the average latency. Zero when no events have been observed.
func (a Aggregate) Mean() time.Duration {
	if a.Count == 0 {
		return 0
	}
	return a.LatencySum / time.Duration(a.Count)
}

// SuccessRate is the fraction of successful events, in [0,1].
func (a Aggregate) SuccessRate() float64 {
	if a.Count == 0 {
		return 0
	}
	return float64(a.SuccessCount) / float64(a.Count)
}

// RunMetrics is a consistent point-in-time view of the sink.
type RunMetrics struct {
	Global     Aggregate
	ByCategory map[core.Category]Aggregate
}

// Sink ingests TestResults from concurrent workers.
type Sink struct {
	mu         sync.Mutex
	global     Aggregate
	byCategory map[core.Category]*Aggregate

	latencyWarn time.Duration
	log         *zap.Logger
}

// Option configures a Sink.
type Option func(*Sink)

// WithLatencyWarning logs results slower than d as warnings.
func WithLatencyWarning(d time.Duration) Option {
	return func(s *Sink) { s.latencyWarn = d }
}

// WithLogger sets the sink's logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Sink) { s.log = log }
}

// NewSink creates an empty sink.
func NewSink(opts ...Option) *Sink {
	s := &Sink{
		byCategory: make(map[core.Category]*Aggregate),
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record ingests one result. The global and category aggregates are updated
// under the same lock so no snapshot can observe one without the other.
func (s *Sink) Record(r core.TestResult) {
	s.mu.Lock()
	s.global.observe(r)
	agg, ok := s.byCategory[r.Category]
	if !ok {
		agg = &Aggregate{}
		s.byCategory[r.Category] = agg
	}
	agg.observe(r)
	s.mu.Unlock()

	if s.latencyWarn > 0 && r.Latency > s.latencyWarn {
		s.log.Warn("slow response",
			zap.String("test", r.Name),
			zap.String("category", string(r.Category)),
			zap.Duration("latency", r.Latency))
	}
	if !r.Success && r.Error != "" {
		s.log.Debug("failed call",
			zap.String("test", r.Name),
			zap.Int("status", r.StatusCode),
			zap.String("error", r.Error))
	}
}

// Snapshot returns a consistent copy of all aggregates. Concurrent Record
// calls are either fully included or fully excluded, never torn.
func (s *Sink) Snapshot() RunMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := RunMetrics{
		Global:     s.global,
		ByCategory: make(map[core.Category]Aggregate, len(s.byCategory)),
	}
	for cat, agg := range s.byCategory {
		m.ByCategory[cat] = *agg
	}
	return m
}

// Category returns the aggregate for one category.
func (s *Sink) Category(cat core.Category) Aggregate {
	s.mu.Lock()
	defer s.mu.Unlock()
	if agg, ok := s.byCategory[cat]; ok {
		return *agg
	}
	return Aggregate{}
}
