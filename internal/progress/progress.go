// Package progress periodically logs sink totals during long phases.
package progress

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"membench/internal/metrics"
)

// Progress samples the sink on a fixed interval and logs the running totals.
// Start/Stop are idempotent; a quiet Progress does nothing.
type Progress struct {
	sink     *metrics.Sink
	log      *zap.Logger
	interval time.Duration
	quiet    bool

	started time.Time
	stopCh  chan struct{}
	stopped atomic.Bool
}

// New creates a Progress reporter over the given sink.
func New(sink *metrics.Sink, log *zap.Logger, quiet bool) *Progress {
	if log == nil {
		log = zap.NewNop()
	}
	return &Progress{
		sink:     sink,
		log:      log,
		interval: time.Second,
		quiet:    quiet,
	}
}

// SetInterval overrides the sampling interval (used by tests).
func (p *Progress) SetInterval(d time.Duration) { p.interval = d }

// Start begins background sampling.
func (p *Progress) Start() {
	if p.quiet || p.stopCh != nil {
		return
	}
	p.started = time.Now()
	p.stopCh = make(chan struct{})
	go p.run()
}

func (p *Progress) run() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.report()
		}
	}
}

func (p *Progress) report() {
	m := p.sink.Snapshot()
	elapsed := time.Since(p.started).Round(time.Second)
	p.log.Info("progress",
		zap.Duration("elapsed", elapsed),
		zap.Int("results", m.Global.Count),
		zap.Float64("successRate", m.Global.SuccessRate()),
		zap.Duration("meanLatency", m.Global.Mean()))
}

// Stop halts sampling. Safe to call multiple times.
func (p *Progress) Stop() {
	if p.stopCh == nil || !p.stopped.CompareAndSwap(false, true) {
		return
	}
	close(p.stopCh)
}
