// Package profile supplies synthetic actor profiles for provisioning.
package profile

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Row is one synthetic user profile.
type Row struct {
	Name    string
	Email   string
	Phone   string
	Address string
	City    string
	State   string
	Pincode string
}

// Mode defines how rows are selected during iteration.
type Mode string

const (
	// ModeSequential iterates rows in order, wrapping around.
	ModeSequential Mode = "sequential"
	// ModeRandom selects a random row for each iteration.
	ModeRandom Mode = "random"
)

// Source hands out profiles to provisioning workers. Thread-safe.
type Source struct {
	rows    []Row
	mode    Mode
	counter atomic.Uint64
	mu      sync.Mutex
	rng     *rand.Rand
}

// NewSource wraps a fixed row set.
func NewSource(rows []Row, mode Mode) *Source {
	if mode == "" {
		mode = ModeSequential
	}
	return &Source{
		rows: rows,
		mode: mode,
		rng:  rand.New(rand.NewSource(rand.Int63())),
	}
}

// Len returns the number of rows.
func (s *Source) Len() int { return len(s.rows) }

// Next returns the next profile based on the iteration mode.
func (s *Source) Next() Row {
	if len(s.rows) == 0 {
		return Row{}
	}
	var idx int
	switch s.mode {
	case ModeRandom:
		s.mu.Lock()
		idx = s.rng.Intn(len(s.rows))
		s.mu.Unlock()
	default:
		n := s.counter.Add(1) - 1
		idx = int(n % uint64(len(s.rows)))
	}
	return s.rows[idx]
}

var firstNames = []string{
	"Aarav", "Arjun", "Priya", "Ananya", "Vikram", "Kavya", "Rahul", "Sneha",
	"Amit", "Riya", "Sanjay", "Meera", "Rajesh", "Divya", "Kiran", "Pooja",
	"Suresh", "Nisha", "Manoj", "Deepika", "Rohit", "Neha", "Gaurav", "Shreya",
}

var lastNames = []string{
	"Sharma", "Patel", "Singh", "Kumar", "Gupta", "Jain", "Agarwal", "Verma",
	"Reddy", "Nair", "Iyer", "Shah", "Mehta", "Rao", "Mishra", "Joshi",
}

var cities = []struct {
	city, state, pincode, area string
}{
	{"Mumbai", "Maharashtra", "400001", "Bandra West"},
	{"Delhi", "Delhi", "110001", "Connaught Place"},
	{"Bangalore", "Karnataka", "560001", "Koramangala"},
	{"Chennai", "Tamil Nadu", "600001", "T Nagar"},
	{"Kolkata", "West Bengal", "700001", "Park Street"},
	{"Hyderabad", "Telangana", "500001", "Banjara Hills"},
	{"Pune", "Maharashtra", "411001", "Kothrud"},
	{"Jaipur", "Rajasthan", "302001", "Malviya Nagar"},
}

// Generate builds n synthetic profiles. Emails carry a random suffix so
// repeated runs against the same target never collide on uniqueness rules.
func Generate(n int) *Source {
	rng := rand.New(rand.NewSource(rand.Int63()))
	rows := make([]Row, n)
	for i := range rows {
		first := firstNames[rng.Intn(len(firstNames))]
		last := lastNames[rng.Intn(len(lastNames))]
		loc := cities[rng.Intn(len(cities))]
		suffix := uuid.NewString()[:8]
		rows[i] = Row{
			Name:    first + " " + last,
			Email:   fmt.Sprintf("%s.%s.%s@loadtest.local", strings.ToLower(first), strings.ToLower(last), suffix),
			Phone:   fmt.Sprintf("9%09d", rng.Intn(1_000_000_000)),
			Address: fmt.Sprintf("%d, %s", 101+rng.Intn(899), loc.area),
			City:    loc.city,
			State:   loc.state,
			Pincode: loc.pincode,
		}
	}
	return NewSource(rows, ModeSequential)
}

// LoadCSV reads profiles from a CSV file with a header row naming at least
// name, email, phone, city, state and pincode columns.
func LoadCSV(path string, mode Mode) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening profile file: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("profile file %s needs a header row and at least one data row", path)
	}

	col := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"name", "email", "phone", "city", "state", "pincode"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("profile file %s missing column %q", path, required)
		}
	}

	field := func(record []string, name string) string {
		if i, ok := col[name]; ok && i < len(record) {
			return record[i]
		}
		return ""
	}

	rows := make([]Row, 0, len(records)-1)
	for _, record := range records[1:] {
		rows = append(rows, Row{
			Name:    field(record, "name"),
			Email:   field(record, "email"),
			Phone:   field(record, "phone"),
			Address: field(record, "address"),
			City:    field(record, "city"),
			State:   field(record, "state"),
			Pincode: field(record, "pincode"),
		})
	}
	return NewSource(rows, mode), nil
}
