package stubserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(New(Options{}).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decoding %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func postJSON(t *testing.T, url string, body, v any) int {
	t.Helper()
	data, _ := json.Marshal(body)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decoding %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestHealthEndpoint(t *testing.T) {
	ts := newServer(t)

	var health map[string]string
	if code := getJSON(t, ts.URL+"/actuator/health", &health); code != 200 {
		t.Fatalf("health returned %d", code)
	}
	if health["status"] != "UP" {
		t.Errorf("status = %q, want UP", health["status"])
	}
}

func TestSeededCatalog(t *testing.T) {
	ts := newServer(t)

	var tiers []tier
	getJSON(t, ts.URL+"/api/v1/membership/tiers", &tiers)
	if len(tiers) != 3 {
		t.Fatalf("expected 3 tiers, got %d", len(tiers))
	}

	var plans []plan
	getJSON(t, ts.URL+"/api/v1/membership/plans", &plans)
	if len(plans) != 9 {
		t.Fatalf("expected 9 plans, got %d", len(plans))
	}

	var goldPlans []plan
	getJSON(t, ts.URL+"/api/v1/membership/plans/tier/GOLD", &goldPlans)
	if len(goldPlans) != 3 {
		t.Errorf("expected 3 GOLD plans, got %d", len(goldPlans))
	}

	var byTierID []plan
	getJSON(t, ts.URL+"/api/v1/membership/plans/tier-id/2", &byTierID)
	if len(byTierID) != len(goldPlans) {
		t.Errorf("tier-id and tier-name lookups disagree: %d vs %d", len(byTierID), len(goldPlans))
	}

	if code := getJSON(t, ts.URL+"/api/v1/membership/tiers/id/99", nil); code != 404 {
		t.Errorf("unknown tier returned %d, want 404", code)
	}
}

func TestUserValidation(t *testing.T) {
	ts := newServer(t)

	if code := postJSON(t, ts.URL+"/api/v1/users", map[string]string{"name": "No Email"}, nil); code != 400 {
		t.Errorf("user without email returned %d, want 400", code)
	}

	payload := map[string]string{"name": "A", "email": "a@b.c"}
	if code := postJSON(t, ts.URL+"/api/v1/users", payload, nil); code != 201 {
		t.Errorf("valid user returned %d, want 201", code)
	}
	if code := postJSON(t, ts.URL+"/api/v1/users", payload, nil); code != 409 {
		t.Errorf("duplicate email returned %d, want 409", code)
	}
}

func TestProRatedPlanChange(t *testing.T) {
	ts := newServer(t)

	var u user
	postJSON(t, ts.URL+"/api/v1/users", map[string]string{"name": "A", "email": "a@b.c"}, &u)

	var sub subscription
	code := postJSON(t, ts.URL+"/api/v1/subscriptions",
		map[string]any{"userId": u.ID, "planId": 1, "autoRenewal": true}, &sub)
	if code != 201 {
		t.Fatalf("subscription returned %d", code)
	}
	if sub.PaidAmount != 199 {
		t.Fatalf("initial paid = %v, want 199", sub.PaidAmount)
	}

	// Upgrade SILVER MONTHLY (199) to GOLD MONTHLY (299): +70% of 100.
	var updated subscription
	putJSON(t, fmt.Sprintf("%s/api/v1/subscriptions/%d", ts.URL, sub.ID),
		map[string]any{"planId": 4, "autoRenewal": true}, &updated)
	if updated.PaidAmount != 269 {
		t.Errorf("paid after upgrade = %v, want 269", updated.PaidAmount)
	}
	if updated.Tier != "GOLD" {
		t.Errorf("tier after upgrade = %q, want GOLD", updated.Tier)
	}

	// Downgrade back: -50% of 100.
	putJSON(t, fmt.Sprintf("%s/api/v1/subscriptions/%d", ts.URL, sub.ID),
		map[string]any{"planId": 1, "autoRenewal": false}, &updated)
	if updated.PaidAmount != 219 {
		t.Errorf("paid after downgrade = %v, want 219", updated.PaidAmount)
	}
	if updated.AutoRenewal {
		t.Error("autoRenewal should be false after update")
	}
}

func TestRenewalToggleWithoutPlanChange(t *testing.T) {
	ts := newServer(t)

	var u user
	postJSON(t, ts.URL+"/api/v1/users", map[string]string{"name": "A", "email": "a@b.c"}, &u)
	var sub subscription
	postJSON(t, ts.URL+"/api/v1/subscriptions",
		map[string]any{"userId": u.ID, "planId": 2, "autoRenewal": true}, &sub)

	var updated subscription
	putJSON(t, fmt.Sprintf("%s/api/v1/subscriptions/%d", ts.URL, sub.ID),
		map[string]any{"autoRenewal": false}, &updated)

	if updated.PaidAmount != sub.PaidAmount {
		t.Errorf("paid amount moved on a renewal-only update: %v -> %v", sub.PaidAmount, updated.PaidAmount)
	}
	if updated.PlanID != sub.PlanID {
		t.Errorf("plan moved on a renewal-only update")
	}
}

func TestSubscriptionNotFound(t *testing.T) {
	ts := newServer(t)
	if code := getJSON(t, ts.URL+"/api/v1/subscriptions/42", nil); code != 404 {
		t.Errorf("missing subscription returned %d, want 404", code)
	}
}

func TestFlattenPricingOption(t *testing.T) {
	ts := httptest.NewServer(New(Options{FlattenPricing: true}).Handler())
	defer ts.Close()

	var plans []plan
	getJSON(t, ts.URL+"/api/v1/membership/plans", &plans)
	perDay := make(map[float64]bool)
	for _, p := range plans {
		perDay[p.Price/float64(p.DurationInMonths*30)] = true
	}
	if len(perDay) != 1 {
		t.Errorf("flattened pricing should give one price-per-day, got %d", len(perDay))
	}
}

func putJSON(t *testing.T, url string, body, v any) int {
	t.Helper()
	data, _ := json.Marshal(body)
	req, err := http.NewRequest(http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decoding %s: %v", url, err)
		}
	}
	return resp.StatusCode
}
