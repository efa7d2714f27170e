// Package stubserver is an in-memory stand-in for the membership service.
//
// It implements the same HTTP surface the harness drives: tier and plan
// catalog, user CRUD and subscriptions with pro-rated plan changes. State
// lives behind one mutex; this is a functional stub, not a load target.
package stubserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
)

const maxRequestBody = 4 << 20

// Options tune the stub's pricing behaviour.
type Options struct {
	// RemainingTimeFactor scales the charged delta on upgrades.
	RemainingTimeFactor float64
	// CreditFactor scales the credited delta on downgrades.
	CreditFactor float64
	// AdjustmentSkew is added to every pro-rated adjustment. Non-zero
	// values make the stub misprice plan changes on purpose.
	AdjustmentSkew float64
	// FlattenPricing reprices every plan to the same price-per-day,
	// breaking the tier pricing hierarchy on purpose.
	FlattenPricing bool
}

type tier struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	Level              int     `json:"level"`
	DiscountPercentage float64 `json:"discountPercentage"`
}

type plan struct {
	ID               int64   `json:"id"`
	Tier             string  `json:"tier"`
	Type             string  `json:"type"`
	Price            float64 `json:"price"`
	DurationInMonths int     `json:"durationInMonths"`
}

type user struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Address     string `json:"address"`
	City        string `json:"city"`
	State       string `json:"state"`
	Pincode     string `json:"pincode"`
}

type subscription struct {
	ID          int64   `json:"id"`
	UserID      int64   `json:"userId"`
	PlanID      int64   `json:"planId"`
	Tier        string  `json:"tier"`
	AutoRenewal bool    `json:"autoRenewal"`
	PaidAmount  float64 `json:"paidAmount"`
}

// Server holds the in-memory state and the routed handler.
type Server struct {
	opts   Options
	router chi.Router

	mu       sync.Mutex
	tiers    []tier
	plans    []plan
	users    map[int64]user
	subs     map[int64]subscription
	emails   map[string]int64
	nextUser int64
	nextSub  int64
}

// New creates a seeded Server.
func New(opts Options) *Server {
	if opts.RemainingTimeFactor == 0 {
		opts.RemainingTimeFactor = 0.7
	}
	if opts.CreditFactor == 0 {
		opts.CreditFactor = 0.5
	}
	s := &Server{
		opts:     opts,
		users:    make(map[int64]user),
		subs:     make(map[int64]subscription),
		emails:   make(map[string]int64),
		nextUser: 1,
		nextSub:  1,
	}
	s.seed()
	s.route()
	return s
}

// Handler returns the routed http.Handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) seed() {
	s.tiers = []tier{
		{ID: 1, Name: "SILVER", Level: 1, DiscountPercentage: 5},
		{ID: 2, Name: "GOLD", Level: 2, DiscountPercentage: 10},
		{ID: 3, Name: "PLATINUM", Level: 3, DiscountPercentage: 15},
	}
	s.plans = []plan{
		{ID: 1, Tier: "SILVER", Type: "MONTHLY", Price: 199, DurationInMonths: 1},
		{ID: 2, Tier: "SILVER", Type: "QUARTERLY", Price: 549, DurationInMonths: 3},
		{ID: 3, Tier: "SILVER", Type: "YEARLY", Price: 1999, DurationInMonths: 12},
		{ID: 4, Tier: "GOLD", Type: "MONTHLY", Price: 299, DurationInMonths: 1},
		{ID: 5, Tier: "GOLD", Type: "QUARTERLY", Price: 849, DurationInMonths: 3},
		{ID: 6, Tier: "GOLD", Type: "YEARLY", Price: 2999, DurationInMonths: 12},
		{ID: 7, Tier: "PLATINUM", Type: "MONTHLY", Price: 499, DurationInMonths: 1},
		{ID: 8, Tier: "PLATINUM", Type: "QUARTERLY", Price: 1399, DurationInMonths: 3},
		{ID: 9, Tier: "PLATINUM", Type: "YEARLY", Price: 4999, DurationInMonths: 12},
	}
	if s.opts.FlattenPricing {
		for i := range s.plans {
			s.plans[i].Price = float64(s.plans[i].DurationInMonths) * 300
		}
	}
}

func (s *Server) route() {
	r := chi.NewRouter()

	r.Get("/actuator/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "UP"})
	})

	r.Route("/api/v1/membership", func(r chi.Router) {
		r.Get("/tiers", s.listTiers)
		r.Get("/tiers/id/{id}", s.getTier)
		r.Get("/plans", s.listPlans)
		r.Get("/plans/{id}", s.getPlan)
		r.Get("/plans/type/{type}", s.plansByType)
		r.Get("/plans/tier-id/{id}", s.plansByTierID)
		r.Get("/plans/tier/{name}", s.plansByTierName)
	})

	r.Route("/api/v1/users", func(r chi.Router) {
		r.Post("/", s.createUser)
		r.Get("/", s.listUsers)
		r.Get("/{id}", s.getUser)
		r.Patch("/{id}", s.patchUser)
	})

	r.Route("/api/v1/subscriptions", func(r chi.Router) {
		r.Post("/", s.createSubscription)
		r.Get("/", s.listSubscriptions)
		r.Get("/{id}", s.getSubscription)
		r.Put("/{id}", s.updateSubscription)
		r.Delete("/{id}", s.deleteSubscription)
		r.Get("/user/{userId}", s.subscriptionsByUser)
	})

	s.router = r
}

func (s *Server) listTiers(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.tiers)
}

func (s *Server) getTier(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tier id")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tiers {
		if t.ID == id {
			writeJSON(w, http.StatusOK, t)
			return
		}
	}
	writeError(w, http.StatusNotFound, "tier not found")
}

func (s *Server) listPlans(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.plans)
}

func (s *Server) getPlan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid plan id")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.planByID(id); ok {
		writeJSON(w, http.StatusOK, p)
		return
	}
	writeError(w, http.StatusNotFound, "plan not found")
}

func (s *Server) plansByType(w http.ResponseWriter, r *http.Request) {
	planType := strings.ToUpper(chi.URLParam(r, "type"))
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []plan{}
	for _, p := range s.plans {
		if p.Type == planType {
			out = append(out, p)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) plansByTierID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tier id")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var name string
	for _, t := range s.tiers {
		if t.ID == id {
			name = t.Name
		}
	}
	if name == "" {
		writeError(w, http.StatusNotFound, "tier not found")
		return
	}
	writeJSON(w, http.StatusOK, s.plansForTier(name))
}

func (s *Server) plansByTierName(w http.ResponseWriter, r *http.Request) {
	name := strings.ToUpper(chi.URLParam(r, "name"))
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.plansForTier(name))
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req user
	if !readJSON(w, r, &req) {
		return
	}
	if req.Name == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, "name and email are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.emails[req.Email]; taken {
		writeError(w, http.StatusConflict, "email already registered")
		return
	}
	req.ID = s.nextUser
	s.nextUser++
	s.users[req.ID] = req
	s.emails[req.Email] = req.ID
	writeJSON(w, http.StatusCreated, req)
}

func (s *Server) listUsers(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]user, 0, len(s.users))
	for id := int64(1); id < s.nextUser; id++ {
		if u, ok := s.users[id]; ok {
			out = append(out, u)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		writeJSON(w, http.StatusOK, u)
		return
	}
	writeError(w, http.StatusNotFound, "user not found")
}

func (s *Server) patchUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	var fields map[string]string
	if !readJSON(w, r, &fields) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	for k, val := range fields {
		switch k {
		case "name":
			u.Name = val
		case "phoneNumber":
			u.PhoneNumber = val
		case "address":
			u.Address = val
		case "city":
			u.City = val
		case "state":
			u.State = val
		case "pincode":
			u.Pincode = val
		}
	}
	s.users[id] = u
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) createSubscription(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID      int64 `json:"userId"`
		PlanID      int64 `json:"planId"`
		AutoRenewal bool  `json:"autoRenewal"`
	}
	if !readJSON(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[req.UserID]; !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	p, ok := s.planByID(req.PlanID)
	if !ok {
		writeError(w, http.StatusNotFound, "plan not found")
		return
	}

	sub := subscription{
		ID:          s.nextSub,
		UserID:      req.UserID,
		PlanID:      p.ID,
		Tier:        p.Tier,
		AutoRenewal: req.AutoRenewal,
		PaidAmount:  p.Price,
	}
	s.nextSub++
	s.subs[sub.ID] = sub
	writeJSON(w, http.StatusCreated, sub)
}

func (s *Server) listSubscriptions(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]subscription, 0, len(s.subs))
	for id := int64(1); id < s.nextSub; id++ {
		if sub, ok := s.subs[id]; ok {
			out = append(out, sub)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid subscription id")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub, ok := s.subs[id]; ok {
		writeJSON(w, http.StatusOK, sub)
		return
	}
	writeError(w, http.StatusNotFound, "subscription not found")
}

// updateSubscription applies a plan change. The paid amount moves by the
// pro-rated delta: a fraction of the price difference on upgrades, a credit
// on downgrades. Omitting planId toggles auto-renewal only.
func (s *Server) updateSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid subscription id")
		return
	}
	var req struct {
		PlanID      *int64 `json:"planId"`
		AutoRenewal bool   `json:"autoRenewal"`
	}
	if !readJSON(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[id]
	if !ok {
		writeError(w, http.StatusNotFound, "subscription not found")
		return
	}

	if req.PlanID != nil && *req.PlanID != sub.PlanID {
		from, ok := s.planByID(sub.PlanID)
		if !ok {
			writeError(w, http.StatusInternalServerError, "current plan missing")
			return
		}
		to, ok := s.planByID(*req.PlanID)
		if !ok {
			writeError(w, http.StatusNotFound, "plan not found")
			return
		}
		delta := to.Price - from.Price
		if delta > 0 {
			sub.PaidAmount += delta * s.opts.RemainingTimeFactor
		} else {
			sub.PaidAmount += delta * s.opts.CreditFactor
		}
		sub.PaidAmount += s.opts.AdjustmentSkew
		sub.PlanID = to.ID
		sub.Tier = to.Tier
	}
	sub.AutoRenewal = req.AutoRenewal
	s.subs[id] = sub
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) deleteSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid subscription id")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[id]; !ok {
		writeError(w, http.StatusNotFound, "subscription not found")
		return
	}
	delete(s.subs, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) subscriptionsByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []subscription{}
	for id := int64(1); id < s.nextSub; id++ {
		if sub, ok := s.subs[id]; ok && sub.UserID == userID {
			out = append(out, sub)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) planByID(id int64) (plan, bool) {
	for _, p := range s.plans {
		if p.ID == id {
			return p, true
		}
	}
	return plan{}, false
}

func (s *Server) plansForTier(name string) []plan {
	out := []plan{}
	for _, p := range s.plans {
		if p.Tier == name {
			out = append(out, p)
		}
	}
	return out
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg, "status": fmt.Sprint(status)})
}
