// Package filter turns a full training list and a filter state into the
// visible subset. The State is treated as immutable: every operation returns a
// modified copy.
package filter

import (
	"math"
	"strings"

	"github.com/mwantia/trainmap/pkg/training"
)

const (
	// MinDistanceKm and MaxDistanceKm bound the accepted distance threshold.
	MinDistanceKm = 1.0
	MaxDistanceKm = 100.0
)

// TimeWindow is the private flag of the time presets.
type TimeWindow int

const (
	TimeNone TimeWindow = iota
	TimeToday
	TimeTomorrow
	TimeWeekend
)

// Feature is the private flag of the feature presets.
type Feature int

const (
	FeatureNone Feature = iota
	FeatureTrial
)

// State is the single source of truth for what is visible.
type State struct {
	Weekdays  []training.Weekday `json:"weekdays,omitempty"`
	Locations []string           `json:"locations,omitempty"`
	Types     []string           `json:"types,omitempty"`
	AgeGroups []string           `json:"age_groups,omitempty"`

	// TypeText is a free-typed training type matched as case-insensitive substring.
	TypeText string `json:"type_text,omitempty"`
	Search   string `json:"search,omitempty"`

	Quick        QuickFilter `json:"-"`
	TimeFlag     TimeWindow  `json:"-"`
	FeatureFlag  Feature     `json:"-"`
	NearbyFlag   bool        `json:"-"`
	PersonalFlag bool        `json:"-"`

	MaxDistanceKm  float64 `json:"max_distance_km,omitempty"`
	DistanceActive bool    `json:"distance_active,omitempty"`
}

// Clone returns a deep copy.
func (s State) Clone() State {
	c := s
	c.Weekdays = append([]training.Weekday(nil), s.Weekdays...)
	c.Locations = append([]string(nil), s.Locations...)
	c.Types = append([]string(nil), s.Types...)
	c.AgeGroups = append([]string(nil), s.AgeGroups...)
	return c
}

// Normalize replaces malformed values with "no restriction": unknown weekdays
// are dropped, blank and duplicate set entries removed, and an invalid
// distance threshold disables the distance filter.
func (s State) Normalize() State {
	n := s.Clone()

	var days []training.Weekday
	seen := map[training.Weekday]bool{}
	for _, d := range n.Weekdays {
		parsed, ok := training.ParseWeekday(string(d))
		if !ok || seen[parsed] {
			continue
		}
		seen[parsed] = true
		days = append(days, parsed)
	}
	n.Weekdays = days

	n.Locations = normalizeSet(n.Locations)
	n.Types = normalizeSet(n.Types)
	n.AgeGroups = normalizeSet(n.AgeGroups)
	n.TypeText = strings.TrimSpace(n.TypeText)
	n.Search = strings.TrimSpace(n.Search)

	if !ValidDistance(n.MaxDistanceKm) {
		n.MaxDistanceKm = 0
		n.DistanceActive = false
	}

	if n.Quick == nil {
		n = clearPrivateFlags(n)
	}

	return n
}

// ValidDistance reports whether km is an accepted threshold.
func ValidDistance(km float64) bool {
	if math.IsNaN(km) || math.IsInf(km, 0) {
		return false
	}
	return km >= MinDistanceKm && km <= MaxDistanceKm
}

// HasCategoryFilters reports whether any category set or text filter restricts the result.
func (s State) HasCategoryFilters() bool {
	return len(s.Weekdays) > 0 || len(s.Locations) > 0 || len(s.Types) > 0 ||
		len(s.AgeGroups) > 0 || s.TypeText != "" || s.Search != ""
}

// WithWeekdays returns a copy with the weekday set replaced.
func (s State) WithWeekdays(days ...training.Weekday) State {
	c := s.Clone()
	c.Weekdays = append([]training.Weekday(nil), days...)
	return c
}

// WithLocations returns a copy with the location set replaced.
func (s State) WithLocations(locations ...string) State {
	c := s.Clone()
	c.Locations = append([]string(nil), locations...)
	return c
}

// WithTypes returns a copy with the training type set replaced.
func (s State) WithTypes(types ...string) State {
	c := s.Clone()
	c.Types = append([]string(nil), types...)
	return c
}

// WithAgeGroups returns a copy with the age group set replaced.
func (s State) WithAgeGroups(groups ...string) State {
	c := s.Clone()
	c.AgeGroups = append([]string(nil), groups...)
	return c
}

// WithSearch returns a copy with the search term replaced.
func (s State) WithSearch(term string) State {
	c := s.Clone()
	c.Search = term
	return c
}

// WithDistance returns a copy with the distance threshold set and enabled.
func (s State) WithDistance(km float64) State {
	c := s.Clone()
	c.MaxDistanceKm = km
	c.DistanceActive = true
	return c
}

// WithoutDistance returns a copy with the distance filter disabled. The
// threshold is kept so re-enabling restores it.
func (s State) WithoutDistance() State {
	c := s.Clone()
	c.DistanceActive = false
	return c
}

// Reset clears every filter.
func Reset() State {
	return State{}
}

func normalizeSet(values []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
