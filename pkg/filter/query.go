package filter

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/mwantia/trainmap/pkg/training"
)

// Shareable URL parameter names.
const (
	ParamWeekday  = "wochentag"
	ParamLocation = "ort"
	ParamType     = "training"
	ParamTypeText = "trainingtext"
	ParamAgeGroup = "altersgruppe"
	ParamSearch   = "q"
	ParamQuick    = "filter"
	ParamDistance = "distanz"
)

// EncodeQuery serializes the state into URL parameters. Set-valued categories
// are written as repeated parameters.
func EncodeQuery(s State) url.Values {
	s = s.Normalize()
	v := url.Values{}

	for _, d := range s.Weekdays {
		v.Add(ParamWeekday, string(d))
	}
	for _, l := range s.Locations {
		v.Add(ParamLocation, l)
	}
	for _, t := range s.Types {
		v.Add(ParamType, t)
	}
	for _, a := range s.AgeGroups {
		v.Add(ParamAgeGroup, a)
	}
	if s.TypeText != "" {
		v.Set(ParamTypeText, s.TypeText)
	}
	if s.Search != "" {
		v.Set(ParamSearch, s.Search)
	}
	if s.Quick != nil {
		v.Set(ParamQuick, s.Quick.Name())
	}
	if s.DistanceActive {
		v.Set(ParamDistance, strconv.FormatFloat(s.MaxDistanceKm, 'f', -1, 64))
	}

	return v
}

// ParseQuery rebuilds a state from URL parameters. It never fails: unknown
// quick filters, unknown weekdays and out-of-range distances are ignored.
// Weekdays and age groups additionally accept comma-delimited values.
func ParseQuery(v url.Values) State {
	s := State{}

	// The preset goes first so a personal preset does not wipe the categories
	// that were chosen after it.
	if q, ok := ParseQuickFilter(strings.TrimSpace(v.Get(ParamQuick))); ok {
		s = ApplyQuick(s, q)
	}

	for _, raw := range splitDelimited(v[ParamWeekday]) {
		if d, ok := training.ParseWeekday(raw); ok {
			s.Weekdays = append(s.Weekdays, d)
		}
	}
	s.Locations = append(s.Locations, v[ParamLocation]...)
	s.Types = append(s.Types, v[ParamType]...)
	s.AgeGroups = append(s.AgeGroups, splitDelimited(v[ParamAgeGroup])...)
	s.TypeText = v.Get(ParamTypeText)
	s.Search = v.Get(ParamSearch)

	if raw := strings.TrimSpace(v.Get(ParamDistance)); raw != "" {
		if km, err := strconv.ParseFloat(raw, 64); err == nil && ValidDistance(km) {
			s.MaxDistanceKm = km
			s.DistanceActive = true
		}
	}

	return s.Normalize()
}

func splitDelimited(values []string) []string {
	var out []string
	for _, v := range values {
		out = append(out, training.SplitTags(v)...)
	}
	return out
}
