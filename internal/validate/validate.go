// Package validate recomputes expected business outcomes and compares them
// against what the service reported.
//
// The pro-rated model here is a sanity bound, not a reimplementation of the
// service's pricing algorithm. The factors are calibration knobs; a WARN is a
// signal to investigate, never a crash.
package validate

import (
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"

	"membench/internal/catalog"
	"membench/internal/client"
	"membench/internal/core"
)

// Factors are the calibration constants for the pro-rated model.
type Factors struct {
	// RemainingTimeFactor is the assumed fraction of the billing period
	// remaining when an upgrade lands.
	RemainingTimeFactor float64
	// CreditFactor scales the refunded delta on downgrades.
	CreditFactor float64
	// Tolerance is the absolute currency bound for a PASS.
	Tolerance float64
}

// DefaultFactors mirrors the assumptions the service appears to use.
var DefaultFactors = Factors{RemainingTimeFactor: 0.7, CreditFactor: 0.5, Tolerance: 1.0}

// FindingKind classifies a business finding.
type FindingKind string

const (
	FindingMonotonicity FindingKind = "TIER_PRICE_MONOTONICITY"
	FindingAdjustment   FindingKind = "PRO_RATED_ADJUSTMENT"
)

// Finding is one non-fatal business-rule observation.
type Finding struct {
	Kind     FindingKind
	Detail   string
	Expected float64
	Observed float64
}

// Validator accumulates findings from concurrent workers.
type Validator struct {
	factors Factors
	log     *zap.Logger

	mu       sync.Mutex
	findings []Finding
}

// New creates a Validator. Zero-valued factors fall back to the defaults so
// a partially-populated config cannot silently disable a check.
func New(f Factors, log *zap.Logger) *Validator {
	if f.RemainingTimeFactor == 0 {
		f.RemainingTimeFactor = DefaultFactors.RemainingTimeFactor
	}
	if f.CreditFactor == 0 {
		f.CreditFactor = DefaultFactors.CreditFactor
	}
	if f.Tolerance == 0 {
		f.Tolerance = DefaultFactors.Tolerance
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Validator{factors: f, log: log}
}

// Factors returns the active calibration constants.
func (v *Validator) Factors() Factors { return v.factors }

// Findings returns a copy of all recorded findings.
func (v *Validator) Findings() []Finding {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Finding, len(v.findings))
	copy(out, v.findings)
	return out
}

func (v *Validator) addFinding(f Finding) {
	v.mu.Lock()
	v.findings = append(v.findings, f)
	v.mu.Unlock()
	v.log.Warn("business finding",
		zap.String("kind", string(f.Kind)),
		zap.String("detail", f.Detail),
		zap.Float64("expected", f.Expected),
		zap.Float64("observed", f.Observed))
}

// PlanScore ranks a plan for upgrade/downgrade classification. Higher tier
// and longer duration raise the score; poor price efficiency lowers it.
// This is a heuristic ranking, not the service's own classification.
func PlanScore(p client.Plan) float64 {
	tier := catalog.TierOrdinal(p.Tier)
	months := p.DurationInMonths
	if months < 1 {
		months = 1
	}
	base := float64(tier*10 + months)
	if tier == 0 {
		return base
	}
	efficiency := p.Price / float64(months*tier)
	return base - efficiency/100
}

// IsUpgrade reports whether moving from one plan to another raises the score.
func IsUpgrade(from, to client.Plan) bool {
	return PlanScore(to) > PlanScore(from)
}

// ExpectedAdjustment computes the pro-rated amount the paid amount should
// shift by for a plan change. Upgrades charge a fraction of the price delta;
// downgrades credit half of it.
func (v *Validator) ExpectedAdjustment(from, to client.Plan) float64 {
	delta := to.Price - from.Price
	if delta > 0 {
		return delta * v.factors.RemainingTimeFactor
	}
	return delta * v.factors.CreditFactor
}

// CheckAdjustment compares the observed paid-amount shift against the model.
// Within tolerance is a PASS; anything else is recorded as a WARN finding
// with both values kept for diagnosis.
func (v *Validator) CheckAdjustment(from, to client.Plan, observed float64) (core.Verdict, float64) {
	expected := v.ExpectedAdjustment(from, to)
	if math.Abs(observed-expected) <= v.factors.Tolerance {
		return core.VerdictPass, expected
	}
	v.addFinding(Finding{
		Kind: FindingAdjustment,
		Detail: fmt.Sprintf("plan %d→%d (%s %s → %s %s): adjustment off by %.2f",
			from.ID, to.ID, from.Tier, from.Type, to.Tier, to.Type,
			math.Abs(observed-expected)),
		Expected: expected,
		Observed: observed,
	})
	return core.VerdictWarn, expected
}

// CheckMonotonicity asserts that mean price-per-day strictly increases with
// tier ordinal across the catalog. A violation is a non-fatal finding.
func (v *Validator) CheckMonotonicity(c *catalog.Catalog) bool {
	perTier := make(map[string][]float64)
	for _, p := range c.Plans() {
		months := p.DurationInMonths
		if months < 1 {
			months = 1
		}
		days := float64(months * 30)
		perTier[p.Tier] = append(perTier[p.Tier], p.Price/days)
	}

	ok := true
	var prevName string
	prevMean := -1.0
	for _, name := range catalog.TierNames {
		rates, present := perTier[name]
		if !present {
			continue
		}
		var sum float64
		for _, r := range rates {
			sum += r
		}
		mean := sum / float64(len(rates))
		if prevMean >= 0 && mean <= prevMean {
			ok = false
			v.addFinding(Finding{
				Kind: FindingMonotonicity,
				Detail: fmt.Sprintf("mean price-per-day does not increase from %s to %s",
					prevName, name),
				Expected: prevMean,
				Observed: mean,
			})
		}
		prevName, prevMean = name, mean
	}
	return ok
}
