// Package report consolidates sink and validator state into a final verdict.
package report

import (
	"time"

	"membench/internal/core"
	"membench/internal/metrics"
	"membench/internal/validate"
)

// CategorySummary is the reported view of one category's aggregate.
type CategorySummary struct {
	Category    core.Category `json:"category"`
	Count       int           `json:"count"`
	Success     int           `json:"success"`
	Failed      int           `json:"failed"`
	SuccessRate float64       `json:"successRate"`
	MeanLatency time.Duration `json:"meanLatency"`
	MinLatency  time.Duration `json:"minLatency"`
	MaxLatency  time.Duration `json:"maxLatency"`
}

// PhaseTiming records when a phase started and ended; phases are barriers,
// so intervals never overlap.
type PhaseTiming struct {
	Name  string        `json:"name"`
	Start time.Time     `json:"start"`
	End   time.Time     `json:"end"`
	Took  time.Duration `json:"took"`
}

// Verdict is the categorized pass/fail outcome of a run.
type Verdict struct {
	Passed      bool                     `json:"passed"`
	OverallRate float64                  `json:"overallRate"`
	PassRate    float64                  `json:"passRateThreshold"`
	Total       int                      `json:"total"`
	ByCategory  []CategorySummary        `json:"byCategory"`
	Business    metrics.BusinessSnapshot `json:"business"`
	Findings    []validate.Finding       `json:"findings"`
	Race        core.RaceReport          `json:"race"`
	Phases      []PhaseTiming            `json:"phases"`
}

// Options controls verdict thresholding.
type Options struct {
	// PassRate is the minimum overall success fraction, in [0,1].
	PassRate float64
	// StrictBusiness fails the verdict when any business finding exists.
	// By default findings are surfaced but do not fail the run.
	StrictBusiness bool
}

// Summarize folds run metrics, business counters and findings into a Verdict.
func Summarize(m metrics.RunMetrics, business metrics.BusinessSnapshot, findings []validate.Finding, race core.RaceReport, phases []PhaseTiming, opts Options) *Verdict {
	v := &Verdict{
		OverallRate: m.Global.SuccessRate(),
		PassRate:    opts.PassRate,
		Total:       m.Global.Count,
		Business:    business,
		Findings:    findings,
		Race:        race,
		Phases:      phases,
	}

	for _, cat := range core.Categories() {
		agg, ok := m.ByCategory[cat]
		if !ok {
			continue
		}
		v.ByCategory = append(v.ByCategory, CategorySummary{
			Category:    cat,
			Count:       agg.Count,
			Success:     agg.SuccessCount,
			Failed:      agg.Count - agg.SuccessCount,
			SuccessRate: agg.SuccessRate(),
			MeanLatency: agg.Mean(),
			MinLatency:  agg.LatencyMin,
			MaxLatency:  agg.LatencyMax,
		})
	}

	v.Passed = v.Total > 0 && v.OverallRate >= opts.PassRate
	if opts.StrictBusiness && len(findings) > 0 {
		v.Passed = false
	}
	return v
}
