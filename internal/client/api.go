package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// Tier is a membership tier as served by the catalog endpoints.
type Tier struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	Level              int     `json:"level"`
	DiscountPercentage float64 `json:"discountPercentage"`
}

// Plan is a purchasable membership plan.
type Plan struct {
	ID               int64   `json:"id"`
	Tier             string  `json:"tier"`
	Type             string  `json:"type"`
	Price            float64 `json:"price"`
	DurationInMonths int     `json:"durationInMonths"`
}

// User is a service-side user record.
type User struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Address     string `json:"address"`
	City        string `json:"city"`
	State       string `json:"state"`
	Pincode     string `json:"pincode"`
}

// UserRequest is the payload for user creation.
type UserRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Address     string `json:"address"`
	City        string `json:"city"`
	State       string `json:"state"`
	Pincode     string `json:"pincode"`
}

// Subscription is the service's view of a user's plan membership.
type Subscription struct {
	ID          int64   `json:"id"`
	UserID      int64   `json:"userId"`
	PlanID      int64   `json:"planId"`
	Tier        string  `json:"tier"`
	AutoRenewal bool    `json:"autoRenewal"`
	PaidAmount  float64 `json:"paidAmount"`
}

// SubscriptionRequest is the payload for subscription creation.
type SubscriptionRequest struct {
	UserID      int64 `json:"userId"`
	PlanID      int64 `json:"planId"`
	AutoRenewal bool  `json:"autoRenewal"`
}

// SubscriptionUpdate is the payload for a plan change or renewal toggle.
// A nil PlanID leaves the plan untouched.
type SubscriptionUpdate struct {
	PlanID      *int64 `json:"planId,omitempty"`
	AutoRenewal bool   `json:"autoRenewal"`
}

// Health checks the liveness endpoint and returns the reported status field.
func (c *Client) Health(ctx context.Context) (string, Outcome) {
	out := c.do(ctx, http.MethodGet, "/actuator/health", nil)
	if !out.OK() {
		return "", out
	}
	status := gjson.GetBytes(out.Body, "status")
	if !status.Exists() {
		out.Err = fmt.Errorf("health response missing status field")
		return "", out
	}
	return status.String(), out
}

func (c *Client) ListTiers(ctx context.Context) ([]Tier, Outcome) {
	out := c.do(ctx, http.MethodGet, "/api/v1/membership/tiers", nil)
	var tiers []Tier
	decode(&out, &tiers)
	return tiers, out
}

func (c *Client) GetTier(ctx context.Context, id int64) (Tier, Outcome) {
	out := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/membership/tiers/id/%d", id), nil)
	var tier Tier
	decode(&out, &tier)
	return tier, out
}

func (c *Client) ListPlans(ctx context.Context) ([]Plan, Outcome) {
	out := c.do(ctx, http.MethodGet, "/api/v1/membership/plans", nil)
	var plans []Plan
	decode(&out, &plans)
	return plans, out
}

func (c *Client) GetPlan(ctx context.Context, id int64) (Plan, Outcome) {
	out := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/membership/plans/%d", id), nil)
	var plan Plan
	decode(&out, &plan)
	return plan, out
}

func (c *Client) PlansByType(ctx context.Context, planType string) ([]Plan, Outcome) {
	out := c.do(ctx, http.MethodGet, "/api/v1/membership/plans/type/"+planType, nil)
	var plans []Plan
	decode(&out, &plans)
	return plans, out
}

func (c *Client) PlansByTierID(ctx context.Context, tierID int64) ([]Plan, Outcome) {
	out := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/membership/plans/tier-id/%d", tierID), nil)
	var plans []Plan
	decode(&out, &plans)
	return plans, out
}

func (c *Client) PlansByTierName(ctx context.Context, tier string) ([]Plan, Outcome) {
	out := c.do(ctx, http.MethodGet, "/api/v1/membership/plans/tier/"+tier, nil)
	var plans []Plan
	decode(&out, &plans)
	return plans, out
}

func (c *Client) CreateUser(ctx context.Context, req UserRequest) (User, Outcome) {
	out := c.do(ctx, http.MethodPost, "/api/v1/users", req)
	var user User
	decode(&out, &user)
	return user, out
}

func (c *Client) GetUser(ctx context.Context, id int64) (User, Outcome) {
	out := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/users/%d", id), nil)
	var user User
	decode(&out, &user)
	return user, out
}

func (c *Client) ListUsers(ctx context.Context) ([]User, Outcome) {
	out := c.do(ctx, http.MethodGet, "/api/v1/users", nil)
	var users []User
	decode(&out, &users)
	return users, out
}

// PatchUser applies a partial update; fields maps JSON field names to values.
func (c *Client) PatchUser(ctx context.Context, id int64, fields map[string]any) (User, Outcome) {
	out := c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/v1/users/%d", id), fields)
	var user User
	decode(&out, &user)
	return user, out
}

func (c *Client) CreateSubscription(ctx context.Context, req SubscriptionRequest) (Subscription, Outcome) {
	out := c.do(ctx, http.MethodPost, "/api/v1/subscriptions", req)
	var sub Subscription
	decode(&out, &sub)
	return sub, out
}

func (c *Client) GetSubscription(ctx context.Context, id int64) (Subscription, Outcome) {
	out := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/subscriptions/%d", id), nil)
	var sub Subscription
	decode(&out, &sub)
	return sub, out
}

func (c *Client) ListSubscriptions(ctx context.Context) ([]Subscription, Outcome) {
	out := c.do(ctx, http.MethodGet, "/api/v1/subscriptions", nil)
	var subs []Subscription
	decode(&out, &subs)
	return subs, out
}

func (c *Client) SubscriptionsByUser(ctx context.Context, userID int64) ([]Subscription, Outcome) {
	out := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/subscriptions/user/%d", userID), nil)
	var subs []Subscription
	decode(&out, &subs)
	return subs, out
}

func (c *Client) UpdateSubscription(ctx context.Context, id int64, req SubscriptionUpdate) (Subscription, Outcome) {
	out := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/v1/subscriptions/%d", id), req)
	var sub Subscription
	decode(&out, &sub)
	return sub, out
}

func (c *Client) DeleteSubscription(ctx context.Context, id int64) Outcome {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/v1/subscriptions/%d", id), nil)
}
