// Package core holds the result types shared by every layer of the harness.
package core

import "time"

// Category buckets results for aggregation and the final report.
type Category string

const (
	CategoryProvisioning Category = "PROVISIONING"
	CategorySubscription Category = "SUBSCRIPTION"
	CategoryPlanChange   Category = "PLAN_CHANGE"
	CategoryDiscovery    Category = "DISCOVERY"
	CategoryLoad         Category = "LOAD"
	CategoryRace         Category = "RACE"
	CategoryPressure     Category = "RESOURCE_PRESSURE"
	CategoryBusiness     Category = "BUSINESS_LOGIC"
)

// Categories returns every category in report order.
func Categories() []Category {
	return []Category{
		CategoryProvisioning,
		CategorySubscription,
		CategoryPlanChange,
		CategoryDiscovery,
		CategoryLoad,
		CategoryRace,
		CategoryPressure,
		CategoryBusiness,
	}
}

// Verdict is the outcome of a business-rule check attached to a result.
// Empty means the result carried no such check.
type Verdict string

const (
	VerdictPass Verdict = "PASS"
	VerdictWarn Verdict = "WARN"
)

// TestResult is one observed call or check. Workers produce them, the sink
// aggregates them; nothing downstream holds onto individual results.
type TestResult struct {
	Name        string
	Category    Category
	Subcategory string
	Success     bool
	Latency     time.Duration
	StatusCode  int
	Error       string

	// Captured only on failure, for debug logging.
	RequestBody  string
	ResponseBody string

	// Business context, set on subscription and plan-change results.
	PlanChange  string
	PriceImpact float64
	Adjustment  float64
	Validation  Verdict
}

// Reporter ingests results from concurrently running workers. Record must be
// safe for concurrent use.
type Reporter interface {
	Record(TestResult)
}

// NullReporter discards every result.
type NullReporter struct{}

func (NullReporter) Record(TestResult) {}

// RaceReport summarises a contention probe against one shared entity.
type RaceReport struct {
	Accepted int  `json:"accepted"`
	Rejected int  `json:"rejected"`
	Total    int  `json:"total"`
	Readable bool `json:"readable"`
}
