// Package catalog holds the immutable plan/tier snapshot loaded once per run.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"membench/internal/client"
)

// ErrUnavailable indicates the catalog could not be fetched. This is fatal:
// no phase can run without a valid catalog, and a partial snapshot is never
// published.
var ErrUnavailable = errors.New("catalog unavailable")

// Tier ordinals used when the service omits a level field. The hierarchy is
// strict: SILVER < GOLD < PLATINUM.
var tierOrdinals = map[string]int{
	"SILVER":   1,
	"GOLD":     2,
	"PLATINUM": 3,
}

// TierNames lists tiers in ascending ordinal order.
var TierNames = []string{"SILVER", "GOLD", "PLATINUM"}

// PlanTypes lists the known duration classes.
var PlanTypes = []string{"MONTHLY", "QUARTERLY", "YEARLY"}

// Catalog is a read-only snapshot of the service's tiers and plans.
// Safe for unguarded concurrent reads after Load returns.
type Catalog struct {
	tiers []client.Tier
	plans []client.Plan
	byID  map[int64]client.Plan
}

// Load fetches tiers and plans, failing fast if either read does not succeed.
// Plans are sorted by (tier ordinal, price) so upgrade/downgrade candidate
// selection is deterministic.
func Load(ctx context.Context, c *client.Client) (*Catalog, error) {
	tiers, out := c.ListTiers(ctx)
	if !out.OK() {
		return nil, fmt.Errorf("%w: listing tiers: %s", ErrUnavailable, out.ErrorString())
	}
	plans, out := c.ListPlans(ctx)
	if !out.OK() {
		return nil, fmt.Errorf("%w: listing plans: %s", ErrUnavailable, out.ErrorString())
	}
	if len(plans) == 0 {
		return nil, fmt.Errorf("%w: service returned no plans", ErrUnavailable)
	}
	return FromSnapshot(tiers, plans), nil
}

// FromSnapshot builds a Catalog from already-fetched data. Load is the
// production path; this exists for tests and offline analysis.
func FromSnapshot(tiers []client.Tier, plans []client.Plan) *Catalog {
	sorted := make([]client.Plan, len(plans))
	copy(sorted, plans)
	sort.SliceStable(sorted, func(i, j int) bool {
		oi, oj := TierOrdinal(sorted[i].Tier), TierOrdinal(sorted[j].Tier)
		if oi != oj {
			return oi < oj
		}
		return sorted[i].Price < sorted[j].Price
	})

	byID := make(map[int64]client.Plan, len(sorted))
	for _, p := range sorted {
		byID[p.ID] = p
	}

	return &Catalog{tiers: tiers, plans: sorted, byID: byID}
}

// TierOrdinal returns the strict rank of a tier name, or 0 when unknown.
func TierOrdinal(name string) int {
	return tierOrdinals[name]
}

// Tiers returns the tier set. Callers must not mutate the slice.
func (c *Catalog) Tiers() []client.Tier { return c.tiers }

// Plans returns all plans ordered by (tier ordinal, price).
func (c *Catalog) Plans() []client.Plan { return c.plans }

// PlanByID looks up a plan from the snapshot.
func (c *Catalog) PlanByID(id int64) (client.Plan, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// PlansByType returns plans of the given duration class, snapshot order.
func (c *Catalog) PlansByType(planType string) []client.Plan {
	var out []client.Plan
	for _, p := range c.plans {
		if p.Type == planType {
			out = append(out, p)
		}
	}
	return out
}

// UpgradeCandidates returns plans that rank above the current one: a higher
// tier, or the same tier at a higher price.
func (c *Catalog) UpgradeCandidates(current client.Plan) []client.Plan {
	var out []client.Plan
	cur := TierOrdinal(current.Tier)
	for _, p := range c.plans {
		if p.ID == current.ID {
			continue
		}
		o := TierOrdinal(p.Tier)
		if o > cur || (o == cur && p.Price > current.Price) {
			out = append(out, p)
		}
	}
	return out
}

// DowngradeCandidates returns plans that rank below the current one.
func (c *Catalog) DowngradeCandidates(current client.Plan) []client.Plan {
	var out []client.Plan
	cur := TierOrdinal(current.Tier)
	for _, p := range c.plans {
		if p.ID == current.ID {
			continue
		}
		o := TierOrdinal(p.Tier)
		if o < cur || (o == cur && p.Price < current.Price) {
			out = append(out, p)
		}
	}
	return out
}

// CrossTierCandidates returns plans on a different tier than the current one.
func (c *Catalog) CrossTierCandidates(current client.Plan) []client.Plan {
	var out []client.Plan
	for _, p := range c.plans {
		if p.ID != current.ID && p.Tier != current.Tier {
			out = append(out, p)
		}
	}
	return out
}
