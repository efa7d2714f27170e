package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"membench/internal/client"
)

func testPlans() []client.Plan {
	return []client.Plan{
		{ID: 6, Tier: "GOLD", Type: "YEARLY", Price: 2999, DurationInMonths: 12},
		{ID: 1, Tier: "SILVER", Type: "MONTHLY", Price: 199, DurationInMonths: 1},
		{ID: 7, Tier: "PLATINUM", Type: "MONTHLY", Price: 499, DurationInMonths: 1},
		{ID: 4, Tier: "GOLD", Type: "MONTHLY", Price: 299, DurationInMonths: 1},
		{ID: 2, Tier: "SILVER", Type: "QUARTERLY", Price: 549, DurationInMonths: 3},
	}
}

func TestFromSnapshotOrdering(t *testing.T) {
	c := FromSnapshot(nil, testPlans())

	plans := c.Plans()
	if len(plans) != 5 {
		t.Fatalf("expected 5 plans, got %d", len(plans))
	}
	for i := 1; i < len(plans); i++ {
		prev, cur := plans[i-1], plans[i]
		po, co := TierOrdinal(prev.Tier), TierOrdinal(cur.Tier)
		if po > co || (po == co && prev.Price > cur.Price) {
			t.Errorf("plans out of order at %d: %v then %v", i, prev, cur)
		}
	}

	if p, ok := c.PlanByID(4); !ok || p.Tier != "GOLD" || p.Price != 299 {
		t.Errorf("PlanByID(4) = %v, %v", p, ok)
	}
}

func TestTierOrdinal(t *testing.T) {
	cases := map[string]int{"SILVER": 1, "GOLD": 2, "PLATINUM": 3, "BRONZE": 0, "": 0}
	for name, want := range cases {
		if got := TierOrdinal(name); got != want {
			t.Errorf("TierOrdinal(%q) = %d, want %d", name, got, want)
		}
	}
}

func TestCandidateSelection(t *testing.T) {
	c := FromSnapshot(nil, testPlans())
	current, _ := c.PlanByID(4) // GOLD MONTHLY 299

	for _, p := range c.UpgradeCandidates(current) {
		o := TierOrdinal(p.Tier)
		if o < TierOrdinal(current.Tier) {
			t.Errorf("upgrade candidate on a lower tier: %v", p)
		}
		if o == TierOrdinal(current.Tier) && p.Price <= current.Price {
			t.Errorf("same-tier upgrade candidate not more expensive: %v", p)
		}
	}
	for _, p := range c.DowngradeCandidates(current) {
		o := TierOrdinal(p.Tier)
		if o > TierOrdinal(current.Tier) {
			t.Errorf("downgrade candidate on a higher tier: %v", p)
		}
	}
	for _, p := range c.CrossTierCandidates(current) {
		if p.Tier == current.Tier {
			t.Errorf("cross-tier candidate on the same tier: %v", p)
		}
	}

	// GOLD MONTHLY can go up (GOLD YEARLY, PLATINUM) and down (SILVER).
	if len(c.UpgradeCandidates(current)) == 0 {
		t.Error("expected upgrade candidates")
	}
	if len(c.DowngradeCandidates(current)) == 0 {
		t.Error("expected downgrade candidates")
	}
}

func TestPlansByType(t *testing.T) {
	c := FromSnapshot(nil, testPlans())
	monthly := c.PlansByType("MONTHLY")
	if len(monthly) != 3 {
		t.Fatalf("expected 3 monthly plans, got %d", len(monthly))
	}
	for _, p := range monthly {
		if p.Type != "MONTHLY" {
			t.Errorf("wrong type in result: %v", p)
		}
	}
}

func TestLoadFailsWithoutPlans(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("[]"))
	}))
	defer ts.Close()

	_, err := Load(context.Background(), client.New(ts.URL))
	if err == nil {
		t.Fatal("expected error for empty plan list")
	}
}

func TestLoadFailsOnServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	_, err := Load(context.Background(), client.New(ts.URL))
	if err == nil {
		t.Fatal("expected error when tier listing fails")
	}
}
