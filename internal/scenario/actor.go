package scenario

import (
	"time"

	"membench/internal/client"
	"membench/internal/profile"
)

// Actor is a synthetic user owned by exactly one worker at a time. Outside
// the race probe no two workers ever touch the same actor, so its fields
// need no locking.
type Actor struct {
	Index   int
	Profile profile.Row

	UserID         int64
	SubscriptionID int64
	Plan           *client.Plan

	History         []ChangeEvent
	Upgrades        int
	Downgrades      int
	TotalPaid       float64
	TotalAdjustment float64
}

// ChangeEvent is one entry in an actor's plan-change history.
type ChangeEvent struct {
	Action     string
	FromPlanID int64
	ToPlanID   int64
	FromTier   string
	ToTier     string
	PriceDelta float64
	Adjustment float64
	At         time.Time
}

// Subscribed reports whether the actor holds an active subscription.
func (a *Actor) Subscribed() bool {
	return a.SubscriptionID != 0 && a.Plan != nil
}

// applyChange records an accepted plan mutation. The cached plan reference
// moves only here: a failed mutation leaves it untouched.
func (a *Actor) applyChange(action string, from, to client.Plan, adjustment float64, at time.Time) {
	a.History = append(a.History, ChangeEvent{
		Action:     action,
		FromPlanID: from.ID,
		ToPlanID:   to.ID,
		FromTier:   from.Tier,
		ToTier:     to.Tier,
		PriceDelta: to.Price - from.Price,
		Adjustment: adjustment,
		At:         at,
	})
	a.TotalAdjustment += adjustment
	if delta := to.Price - from.Price; delta > 0 {
		a.TotalPaid += delta
	}
	switch action {
	case "UPGRADE":
		a.Upgrades++
	case "DOWNGRADE":
		a.Downgrades++
	}
	plan := to
	a.Plan = &plan
}
