package scenario

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"go.uber.org/zap"

	"membench/internal/catalog"
	"membench/internal/client"
	"membench/internal/core"
	"membench/internal/pool"
	"membench/internal/race"
	"membench/internal/validate"
)

// resultFrom builds a TestResult from a call outcome. Bodies are kept only on
// failure, so the sink never holds payloads for the healthy majority.
func resultFrom(name string, cat core.Category, sub string, out client.Outcome) core.TestResult {
	r := core.TestResult{
		Name:        name,
		Category:    cat,
		Subcategory: sub,
		Success:     out.OK(),
		Latency:     out.Latency,
		StatusCode:  out.StatusCode,
		Error:       out.ErrorString(),
	}
	if !r.Success {
		r.RequestBody = string(out.RequestBody)
		r.ResponseBody = string(out.Body)
	}
	return r
}

// loadCatalog fetches the snapshot and runs the monotonicity check. Failure
// here aborts the run; no later phase can work without a catalog.
func (d *Driver) loadCatalog(ctx context.Context) error {
	cat, err := catalog.Load(ctx, d.client)
	if err != nil {
		return err
	}
	d.catalog = cat
	d.log.Info("catalog loaded",
		zap.Int("tiers", len(cat.Tiers())),
		zap.Int("plans", len(cat.Plans())))

	ok := d.validator.CheckMonotonicity(cat)
	d.sink.Record(core.TestResult{
		Name:        "tier pricing hierarchy",
		Category:    core.CategoryBusiness,
		Subcategory: "PRICING_RULES",
		Success:     ok,
	})
	return nil
}

// provisionActors creates one remote user per actor and immediately reads it
// back to verify the stored fields.
func (d *Driver) provisionActors(ctx context.Context) {
	d.actors = make([]*Actor, d.cfg.Actors)
	units := make([]pool.WorkUnit, d.cfg.Actors)

	for i := range d.actors {
		actor := &Actor{Index: i, Profile: d.profiles.Next()}
		d.actors[i] = actor

		createName := fmt.Sprintf("create user %d", i+1)
		validateName := fmt.Sprintf("validate user %d", i+1)
		updateName := fmt.Sprintf("update profile %d", i+1)
		units[i] = pool.WorkUnit{
			Name:     fmt.Sprintf("provision actor %d", i+1),
			Category: core.CategoryProvisioning,
			Calls: []pool.Call{
				func(ctx context.Context) (core.TestResult, error) {
					user, out := d.client.CreateUser(ctx, client.UserRequest{
						Name:        actor.Profile.Name,
						Email:       actor.Profile.Email,
						PhoneNumber: actor.Profile.Phone,
						Address:     actor.Profile.Address,
						City:        actor.Profile.City,
						State:       actor.Profile.State,
						Pincode:     actor.Profile.Pincode,
					})
					r := resultFrom(createName, core.CategoryProvisioning, "CREATION", out)
					if !out.OK() {
						return r, fmt.Errorf("user creation failed: %s", out.ErrorString())
					}
					actor.UserID = user.ID
					return r, nil
				},
				func(ctx context.Context) (core.TestResult, error) {
					user, out := d.client.GetUser(ctx, actor.UserID)
					r := resultFrom(validateName, core.CategoryProvisioning, "VALIDATION", out)
					if out.OK() {
						consistent := user.Name == actor.Profile.Name &&
							user.Email == actor.Profile.Email &&
							user.City == actor.Profile.City
						if !consistent {
							r.Success = false
							r.Error = "stored user fields do not match request"
						}
					}
					return r, nil
				},
				func(ctx context.Context) (core.TestResult, error) {
					address := fmt.Sprintf("Flat %d, %s", actor.Index+1, actor.Profile.Address)
					user, out := d.client.PatchUser(ctx, actor.UserID, map[string]any{"address": address})
					r := resultFrom(updateName, core.CategoryProvisioning, "PROFILE_UPDATE", out)
					if out.OK() && user.Address != address {
						r.Success = false
						r.Error = "patched address not reflected in response"
					}
					return r, nil
				},
			},
		}
	}

	pool.Run(ctx, units, d.cfg.Pools.Provision, d.sink, d.log)

	provisioned := 0
	for _, a := range d.actors {
		if a.UserID != 0 {
			provisioned++
		}
	}
	d.log.Info("actors provisioned", zap.Int("ok", provisioned), zap.Int("requested", d.cfg.Actors))
}

// subscriptionPatterns cycles auto-renewal and duration-class preferences so
// the actor population spreads across the catalog.
var subscriptionPatterns = []struct {
	autoRenewal bool
	planType    string
}{
	{true, "MONTHLY"},
	{false, "QUARTERLY"},
	{true, "YEARLY"},
	{false, "MONTHLY"},
	{true, "QUARTERLY"},
	{false, "YEARLY"},
}

// initialSubscribe gives every provisioned actor a starting subscription and
// verifies it is retrievable both directly and through the per-user listing.
func (d *Driver) initialSubscribe(ctx context.Context) {
	if d.catalog == nil || len(d.catalog.Plans()) == 0 {
		d.log.Warn("skipping initial subscribe: no plans loaded")
		return
	}

	var units []pool.WorkUnit
	for _, actor := range d.actors {
		if actor.UserID == 0 {
			continue
		}
		actor := actor
		pattern := subscriptionPatterns[actor.Index%len(subscriptionPatterns)]
		candidates := d.catalog.PlansByType(pattern.planType)
		if len(candidates) == 0 {
			candidates = d.catalog.Plans()
		}
		plan := candidates[rand.Intn(len(candidates))]

		subName := fmt.Sprintf("subscribe actor %d", actor.Index+1)
		units = append(units, pool.WorkUnit{
			Name:     subName,
			Category: core.CategorySubscription,
			Calls: []pool.Call{
				func(ctx context.Context) (core.TestResult, error) {
					sub, out := d.client.CreateSubscription(ctx, client.SubscriptionRequest{
						UserID:      actor.UserID,
						PlanID:      plan.ID,
						AutoRenewal: pattern.autoRenewal,
					})
					r := resultFrom(subName, core.CategorySubscription, "CREATION", out)
					r.PlanChange = fmt.Sprintf("New → %s %s", plan.Tier, plan.Type)
					r.PriceImpact = plan.Price
					if !out.OK() {
						return r, fmt.Errorf("subscription failed: %s", out.ErrorString())
					}
					actor.SubscriptionID = sub.ID
					p := plan
					actor.Plan = &p
					actor.TotalPaid += plan.Price
					d.business.RecordSubscription(plan.Price)
					return r, nil
				},
				func(ctx context.Context) (core.TestResult, error) {
					_, out := d.client.GetSubscription(ctx, actor.SubscriptionID)
					return resultFrom(
						fmt.Sprintf("retrieve subscription actor %d", actor.Index+1),
						core.CategorySubscription, "RETRIEVAL", out), nil
				},
				func(ctx context.Context) (core.TestResult, error) {
					subs, out := d.client.SubscriptionsByUser(ctx, actor.UserID)
					r := resultFrom(
						fmt.Sprintf("user subscriptions actor %d", actor.Index+1),
						core.CategorySubscription, "USER_SPECIFIC", out)
					if out.OK() && len(subs) == 0 {
						r.Success = false
						r.Error = "subscription missing from per-user listing"
					}
					return r, nil
				},
			},
		})
	}

	if len(units) == 0 {
		d.log.Warn("skipping initial subscribe: no actors provisioned")
		return
	}
	pool.Run(ctx, units, d.cfg.Pools.Subscribe, d.sink, d.log)
	d.log.Info("initial subscriptions done", zap.Int("subscribed", len(d.subscribedActors())))
}

// planChangeStress drives repeated upgrades and downgrades per actor, each
// bracketed by a pre/post read of the paid amount for pro-rated validation.
func (d *Driver) planChangeStress(ctx context.Context) {
	actors := d.subscribedActors()
	if len(actors) == 0 {
		d.log.Warn("skipping plan-change stress: no subscribed actors")
		return
	}
	if len(d.catalog.Plans()) < 2 {
		d.log.Warn("skipping plan-change stress: catalog too small")
		return
	}

	units := make([]pool.WorkUnit, 0, len(actors))
	for _, actor := range actors {
		actor := actor
		calls := make([]pool.Call, 0, d.cfg.Iterations.PlanChangesPerActor)
		for i := 0; i < d.cfg.Iterations.PlanChangesPerActor; i++ {
			i := i
			calls = append(calls, func(ctx context.Context) (core.TestResult, error) {
				return d.changePlan(ctx, actor, i), nil
			})
		}
		units = append(units, pool.WorkUnit{
			Name:     fmt.Sprintf("plan changes actor %d", actor.Index+1),
			Category: core.CategoryPlanChange,
			Calls:    calls,
		})
	}

	pool.Run(ctx, units, d.cfg.Pools.PlanChange, d.sink, d.log)
}

// changePlan performs one mutation for an actor. Even iterations force a
// cross-tier move to exercise the harder transitions.
func (d *Driver) changePlan(ctx context.Context, actor *Actor, iteration int) core.TestResult {
	from := *actor.Plan

	var candidates []client.Plan
	if iteration%2 == 0 {
		candidates = d.catalog.CrossTierCandidates(from)
	}
	if len(candidates) == 0 {
		for _, p := range d.catalog.Plans() {
			if p.ID != from.ID {
				candidates = append(candidates, p)
			}
		}
	}
	if len(candidates) == 0 {
		return core.TestResult{
			Name:     fmt.Sprintf("plan change actor %d iter %d", actor.Index+1, iteration+1),
			Category: core.CategoryPlanChange,
			Success:  false,
			Error:    "no candidate plans",
		}
	}
	to := candidates[rand.Intn(len(candidates))]

	upgrade := validate.IsUpgrade(from, to)
	action := "DOWNGRADE"
	if upgrade {
		action = "UPGRADE"
	}
	name := fmt.Sprintf("%s actor %d iter %d", strings.ToLower(action), actor.Index+1, iteration+1)

	// Paid amount immediately before the mutation.
	pre, preOut := d.client.GetSubscription(ctx, actor.SubscriptionID)
	d.sink.Record(resultFrom(
		fmt.Sprintf("pre-change read actor %d iter %d", actor.Index+1, iteration+1),
		core.CategoryPlanChange, "PRE_READ", preOut))
	if !preOut.OK() {
		return resultFrom(name, core.CategoryPlanChange, action, preOut)
	}

	planID := to.ID
	sub, out := d.client.UpdateSubscription(ctx, actor.SubscriptionID, client.SubscriptionUpdate{
		PlanID:      &planID,
		AutoRenewal: rand.Intn(2) == 0,
	})

	r := resultFrom(name, core.CategoryPlanChange, action, out)
	r.PlanChange = fmt.Sprintf("%s %s → %s %s", from.Tier, from.Type, to.Tier, to.Type)
	r.PriceImpact = to.Price - from.Price
	if !out.OK() {
		// Mutation rejected: the cached plan reference stays as-is.
		return r
	}

	adjustment := sub.PaidAmount - pre.PaidAmount
	verdict, expected := d.validator.CheckAdjustment(from, to, adjustment)
	r.Adjustment = adjustment
	r.Validation = verdict
	if verdict == core.VerdictWarn {
		d.log.Debug("pro-rated mismatch",
			zap.String("change", r.PlanChange),
			zap.Float64("expected", expected),
			zap.Float64("observed", adjustment))
	}

	d.business.RecordPlanChange(from.Tier, to.Tier, upgrade, to.Price-from.Price, adjustment, verdict)
	actor.applyChange(action, from, to, adjustment, d.clock.Now())
	return r
}

// concurrentLoad replays read-heavy call sequences from a wide worker pool,
// optionally paced by the configured RPS cap.
func (d *Driver) concurrentLoad(ctx context.Context) {
	if d.catalog == nil {
		d.log.Warn("skipping concurrent load: no catalog")
		return
	}

	units := make([]pool.WorkUnit, d.cfg.Pools.Load)
	for w := 0; w < d.cfg.Pools.Load; w++ {
		w := w
		var calls []pool.Call
		for iter := 0; iter < d.cfg.Iterations.LoadPerWorker; iter++ {
			calls = append(calls, d.loadSequence(w, iter)...)
		}
		units[w] = pool.WorkUnit{
			Name:     fmt.Sprintf("load worker %d", w+1),
			Category: core.CategoryLoad,
			Calls:    calls,
		}
	}

	pool.Run(ctx, units, d.cfg.Pools.Load, d.sink, d.log)
}

// loadSequence builds one iteration's worth of paced read calls, mixing the
// bulk listings, discovery filters and idempotent-read checks.
func (d *Driver) loadSequence(worker, iter int) []pool.Call {
	prefix := fmt.Sprintf("load w%d i%d", worker+1, iter+1)
	paced := func(name string, cat core.Category, sub string, call func(ctx context.Context) client.Outcome) pool.Call {
		return func(ctx context.Context) (core.TestResult, error) {
			if err := d.limiter.Wait(ctx); err != nil {
				return core.TestResult{
					Name: name, Category: cat, Subcategory: sub,
					Success: false, Error: err.Error(),
				}, err
			}
			return resultFrom(name, cat, sub, call(ctx)), nil
		}
	}

	calls := []pool.Call{
		paced(prefix+" list users", core.CategoryLoad, "BULK", func(ctx context.Context) client.Outcome {
			_, out := d.client.ListUsers(ctx)
			return out
		}),
		paced(prefix+" list plans", core.CategoryLoad, "BULK", func(ctx context.Context) client.Outcome {
			_, out := d.client.ListPlans(ctx)
			return out
		}),
		paced(prefix+" list tiers", core.CategoryLoad, "BULK", func(ctx context.Context) client.Outcome {
			_, out := d.client.ListTiers(ctx)
			return out
		}),
		paced(prefix+" list subscriptions", core.CategoryLoad, "BULK", func(ctx context.Context) client.Outcome {
			_, out := d.client.ListSubscriptions(ctx)
			return out
		}),
	}

	// Filtered lookups go to their own category so the report separates
	// catalog discovery traffic from raw listing load.
	for _, planType := range catalog.PlanTypes {
		planType := planType
		calls = append(calls, paced(prefix+" plans by type "+planType, core.CategoryDiscovery, "BY_TYPE",
			func(ctx context.Context) client.Outcome {
				_, out := d.client.PlansByType(ctx, planType)
				return out
			}))
	}

	for _, tier := range d.catalog.Tiers() {
		tier := tier
		calls = append(calls,
			paced(fmt.Sprintf("%s tier %d", prefix, tier.ID), core.CategoryDiscovery, "TIER_DETAIL",
				func(ctx context.Context) client.Outcome {
					_, out := d.client.GetTier(ctx, tier.ID)
					return out
				}),
			paced(fmt.Sprintf("%s plans by tier %s", prefix, tier.Name), core.CategoryDiscovery, "BY_TIER",
				func(ctx context.Context) client.Outcome {
					_, out := d.client.PlansByTierName(ctx, tier.Name)
					return out
				}))
	}

	// Idempotent read: two back-to-back GETs of an unmutated plan must agree
	// on core fields.
	plans := d.catalog.Plans()
	if len(plans) > 0 {
		plan := plans[(worker+iter)%len(plans)]
		calls = append(calls, func(ctx context.Context) (core.TestResult, error) {
			if err := d.limiter.Wait(ctx); err != nil {
				return core.TestResult{
					Name: prefix + " idempotent read", Category: core.CategoryLoad,
					Subcategory: "IDEMPOTENT", Success: false, Error: err.Error(),
				}, err
			}
			_, first := d.client.GetPlan(ctx, plan.ID)
			_, second := d.client.GetPlan(ctx, plan.ID)
			r := core.TestResult{
				Name:        prefix + " idempotent read",
				Category:    core.CategoryLoad,
				Subcategory: "IDEMPOTENT",
				Success:     first.OK() && second.OK(),
				Latency:     first.Latency + second.Latency,
				StatusCode:  second.StatusCode,
				Error:       second.ErrorString(),
			}
			if r.Success && !client.SameCoreFields(first.Body, second.Body,
				"id", "tier", "type", "price", "durationInMonths") {
				r.Success = false
				r.Error = "repeated reads disagree on core fields"
			}
			return r, nil
		})
	}

	return calls
}

// raceProbe fires conflicting auto-renewal toggles at one shared
// subscription from many workers at once.
func (d *Driver) raceProbe(ctx context.Context) {
	actors := d.subscribedActors()
	if len(actors) == 0 {
		d.log.Warn("skipping race probe: no subscribed actors")
		return
	}
	target := actors[0]

	mutations := []client.SubscriptionUpdate{
		{AutoRenewal: true},
		{AutoRenewal: false},
		{AutoRenewal: true},
		{AutoRenewal: false},
	}
	d.raceReport = race.Probe(ctx, d.client, target.SubscriptionID, mutations,
		d.cfg.Race.Concurrency, d.sink, d.log)
}

// resourcePressure pushes oversized payloads through user creation while
// periodically forcing bulk reads, simulating memory pressure on the target.
func (d *Driver) resourcePressure(ctx context.Context) {
	n := d.cfg.Iterations.Pressure
	if n == 0 {
		d.log.Warn("skipping resource pressure: zero iterations configured")
		return
	}

	units := make([]pool.WorkUnit, n)
	for i := 0; i < n; i++ {
		i := i
		// Payloads grow with the iteration index.
		padding := strings.Repeat("X", 1000+i*100)
		name := fmt.Sprintf("pressure create %d", i+1)
		calls := []pool.Call{
			func(ctx context.Context) (core.TestResult, error) {
				_, out := d.client.CreateUser(ctx, client.UserRequest{
					Name:        fmt.Sprintf("MemTest%d", i),
					Email:       fmt.Sprintf("pressure.%d.%s@loadtest.local", i, d.runID[:8]),
					PhoneNumber: fmt.Sprintf("9%09d", 700000000+i),
					Address:     "BigAddr " + padding,
					City:        "Bangalore",
					State:       "Karnataka",
					Pincode:     "560001",
				})
				return resultFrom(name, core.CategoryPressure, "OVERSIZED_PAYLOAD", out), nil
			},
		}
		if i%10 == 0 {
			bulkName := fmt.Sprintf("pressure bulk read %d", i+1)
			calls = append(calls, func(ctx context.Context) (core.TestResult, error) {
				_, out := d.client.ListUsers(ctx)
				return resultFrom(bulkName, core.CategoryPressure, "BULK_UNDER_PRESSURE", out), nil
			})
		}
		units[i] = pool.WorkUnit{
			Name:     fmt.Sprintf("pressure unit %d", i+1),
			Category: core.CategoryPressure,
			Calls:    calls,
		}
	}

	pool.Run(ctx, units, d.cfg.Pools.Pressure, d.sink, d.log)
}
