// Package scenario sequences the harness phases against a live target.
//
// Phases run strictly in order and each one is a barrier: the next phase
// does not start until every work unit of the current phase has terminated.
// A phase that produces no usable inputs short-circuits its dependents
// instead of failing individual units.
package scenario

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"membench/internal/catalog"
	"membench/internal/client"
	"membench/internal/config"
	"membench/internal/core"
	"membench/internal/metrics"
	"membench/internal/profile"
	"membench/internal/ratelimit"
	"membench/internal/report"
	"membench/internal/validate"
)

// ErrServiceDown indicates the liveness gate failed. Fatal, like catalog
// unavailability: no phase runs against a service that is not up.
var ErrServiceDown = errors.New("service liveness check failed")

// Phase names in execution order.
const (
	PhaseCatalogLoad      = "CATALOG_LOAD"
	PhaseProvisionActors  = "PROVISION_ACTORS"
	PhaseInitialSubscribe = "INITIAL_SUBSCRIBE"
	PhasePlanChangeStress = "PLAN_CHANGE_STRESS"
	PhaseConcurrentLoad   = "CONCURRENT_LOAD"
	PhaseRaceProbe        = "RACE_PROBE"
	PhaseResourcePressure = "RESOURCE_PRESSURE"
	PhaseReport           = "REPORT"
)

// Driver owns the shared state flowing between phases.
type Driver struct {
	cfg       *config.Config
	client    *client.Client
	sink      *metrics.Sink
	business  *metrics.Business
	validator *validate.Validator
	profiles  *profile.Source
	limiter   *ratelimit.Limiter
	log       *zap.Logger
	clock     core.Clock
	runID     string

	catalog    *catalog.Catalog
	actors     []*Actor
	raceReport core.RaceReport
	timings    []report.PhaseTiming
}

// Option configures a Driver.
type Option func(*Driver)

// WithClock replaces the wall clock (used by tests).
func WithClock(c core.Clock) Option {
	return func(d *Driver) { d.clock = c }
}

// WithProfiles replaces the generated profile source.
func WithProfiles(src *profile.Source) Option {
	return func(d *Driver) { d.profiles = src }
}

// New wires a Driver around the injected sink and validator. All mutable
// state shared across workers lives in those two collaborators.
func New(cfg *config.Config, c *client.Client, sink *metrics.Sink, business *metrics.Business, v *validate.Validator, log *zap.Logger, opts ...Option) *Driver {
	if log == nil {
		log = zap.NewNop()
	}
	d := &Driver{
		cfg:       cfg,
		client:    c,
		sink:      sink,
		business:  business,
		validator: v,
		log:       log,
		clock:     core.RealClock{},
		runID:     uuid.NewString(),
	}
	if cfg.StressRPS > 0 {
		d.limiter = ratelimit.New(cfg.StressRPS)
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.profiles == nil {
		d.profiles = profile.Generate(cfg.Actors)
	}
	return d
}

// Timings returns the recorded phase intervals.
func (d *Driver) Timings() []report.PhaseTiming { return d.timings }

// Run executes all phases and returns the final verdict. Only liveness and
// catalog failures abort the run; everything else is captured in results.
func (d *Driver) Run(ctx context.Context) (*report.Verdict, error) {
	d.log.Info("run starting",
		zap.String("runID", d.runID),
		zap.String("target", d.cfg.BaseURL),
		zap.Int("actors", d.cfg.Actors))

	if err := d.checkLiveness(ctx); err != nil {
		return nil, err
	}

	var loadErr error
	d.phase(PhaseCatalogLoad, func() { loadErr = d.loadCatalog(ctx) })
	if loadErr != nil {
		return nil, loadErr
	}

	d.phase(PhaseProvisionActors, func() { d.provisionActors(ctx) })
	d.phase(PhaseInitialSubscribe, func() { d.initialSubscribe(ctx) })
	d.phase(PhasePlanChangeStress, func() { d.planChangeStress(ctx) })
	d.phase(PhaseConcurrentLoad, func() { d.concurrentLoad(ctx) })
	d.phase(PhaseRaceProbe, func() { d.raceProbe(ctx) })
	d.phase(PhaseResourcePressure, func() { d.resourcePressure(ctx) })

	var verdict *report.Verdict
	d.phase(PhaseReport, func() {
		verdict = report.Summarize(
			d.sink.Snapshot(),
			d.business.Snapshot(),
			d.validator.Findings(),
			d.raceReport,
			d.timings,
			report.Options{PassRate: d.cfg.PassRate, StrictBusiness: d.cfg.StrictBusiness},
		)
	})

	d.log.Info("run finished",
		zap.String("runID", d.runID),
		zap.Bool("passed", verdict.Passed),
		zap.Float64("overallRate", verdict.OverallRate),
		zap.Int("findings", len(verdict.Findings)))
	return verdict, nil
}

// phase runs fn as a barrier and records its interval.
func (d *Driver) phase(name string, fn func()) {
	start := d.clock.Now()
	d.log.Info("phase starting", zap.String("phase", name))
	fn()
	end := d.clock.Now()
	d.timings = append(d.timings, report.PhaseTiming{
		Name:  name,
		Start: start,
		End:   end,
		Took:  end.Sub(start),
	})
	d.log.Info("phase finished", zap.String("phase", name), zap.Duration("took", end.Sub(start)))
}

// checkLiveness gates the whole run on the health endpoint reporting UP.
func (d *Driver) checkLiveness(ctx context.Context) error {
	status, out := d.client.Health(ctx)
	if !out.OK() {
		return fmt.Errorf("%w: %s", ErrServiceDown, out.ErrorString())
	}
	if status != "UP" {
		return fmt.Errorf("%w: health status %q", ErrServiceDown, status)
	}
	return nil
}

// subscribedActors returns actors holding an active subscription.
func (d *Driver) subscribedActors() []*Actor {
	var out []*Actor
	for _, a := range d.actors {
		if a.Subscribed() {
			out = append(out, a)
		}
	}
	return out
}
