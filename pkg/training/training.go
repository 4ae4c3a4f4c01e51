// Package training holds the domain model of recurring training sessions.
package training

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mwantia/trainmap/pkg/geo"
)

// Weekday is a day of week as used by the feed.
type Weekday string

const (
	Monday    Weekday = "Montag"
	Tuesday   Weekday = "Dienstag"
	Wednesday Weekday = "Mittwoch"
	Thursday  Weekday = "Donnerstag"
	Friday    Weekday = "Freitag"
	Saturday  Weekday = "Samstag"
	Sunday    Weekday = "Sonntag"
)

// Weekdays lists all days in display order.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// ParseWeekday accepts the canonical name case-insensitively.
func ParseWeekday(s string) (Weekday, bool) {
	s = strings.TrimSpace(s)
	for _, d := range Weekdays {
		if strings.EqualFold(string(d), s) {
			return d, true
		}
	}
	return "", false
}

// Order returns the position in the week starting with Monday, or 7 for
// unknown values so they sort last.
func (d Weekday) Order() int {
	for i, w := range Weekdays {
		if w == d {
			return i
		}
	}
	return len(Weekdays)
}

// FromTime maps a time.Time to its Weekday.
func FromTime(t time.Time) Weekday {
	// time.Weekday starts on Sunday.
	return Weekdays[(int(t.Weekday())+6)%7]
}

// Next returns the following day.
func (d Weekday) Next() Weekday {
	return Weekdays[(d.Order()+1)%len(Weekdays)]
}

// Training is one recurring scheduled session.
type Training struct {
	ID       int     `json:"id"`
	Weekday  Weekday `json:"wochentag"`
	Start    string  `json:"von"`
	End      string  `json:"bis"`
	Type     string  `json:"training"`
	Location string  `json:"ort"`
	Address  string  `json:"adresse"`
	AgeGroup string  `json:"altersgruppe"`
	Trainer  string  `json:"trainer"`
	Trial    bool    `json:"probetraining"`

	Lat *float64 `json:"lat,omitempty"`
	Lng *float64 `json:"lng,omitempty"`

	Note string `json:"bemerkung,omitempty"`
	Link string `json:"link,omitempty"`

	// Derived from the current user position.
	Distance     *float64 `json:"distance,omitempty"`
	DistanceText string   `json:"distanceText,omitempty"`
}

// Coordinates returns the training position when both parts are present and valid.
func (t Training) Coordinates() (geo.LatLng, bool) {
	if t.Lat == nil || t.Lng == nil {
		return geo.LatLng{}, false
	}
	ll := geo.LatLng{Lat: *t.Lat, Lng: *t.Lng}
	if !ll.Valid() {
		return geo.LatLng{}, false
	}
	return ll, true
}

// AgeGroups splits the comma-joined age group field into trimmed tags.
func (t Training) AgeGroups() []string {
	return SplitTags(t.AgeGroup)
}

// SplitTags splits a comma-joined tag field and drops empty entries.
func SplitTags(s string) []string {
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}

// StartMinutes parses the start time into minutes after midnight. Unparsable
// values yield -1.
func (t Training) StartMinutes() int {
	parsed, err := time.Parse("15:04", strings.TrimSpace(t.Start))
	if err != nil {
		return -1
	}
	return parsed.Hour()*60 + parsed.Minute()
}

// Feed is the upstream payload.
type Feed struct {
	Trainings []Training `json:"trainings"`
	Metadata  *Metadata  `json:"metadata,omitempty"`
}

// DecodeFeed accepts either an object with trainings and metadata or a bare array.
func DecodeFeed(data []byte) (*Feed, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var list []Training
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("failed to decode training list: %w", err)
		}
		return &Feed{Trainings: list}, nil
	}

	feed := &Feed{}
	if err := json.Unmarshal(data, feed); err != nil {
		return nil, fmt.Errorf("failed to decode training feed: %w", err)
	}
	return feed, nil
}

// Metadata lists the distinct values used to populate filter pickers.
type Metadata struct {
	Weekdays  []Weekday `json:"wochentage"`
	Locations []string  `json:"orte"`
	Types     []string  `json:"trainingsarten"`
	AgeGroups []string  `json:"altersgruppen"`
}

// Empty reports whether no picker has any value.
func (m *Metadata) Empty() bool {
	return len(m.Weekdays) == 0 && len(m.Locations) == 0 && len(m.Types) == 0 && len(m.AgeGroups) == 0
}

// DeriveMetadata scans all trainings once. Weekdays keep week order, the rest
// is sorted alphabetically.
func DeriveMetadata(trainings []Training) *Metadata {
	days := map[Weekday]bool{}
	locations := map[string]bool{}
	types := map[string]bool{}
	ages := map[string]bool{}

	for _, t := range trainings {
		if t.Weekday != "" {
			days[t.Weekday] = true
		}
		if t.Location != "" {
			locations[t.Location] = true
		}
		if t.Type != "" {
			types[t.Type] = true
		}
		for _, a := range t.AgeGroups() {
			ages[a] = true
		}
	}

	md := &Metadata{}
	for _, d := range Weekdays {
		if days[d] {
			md.Weekdays = append(md.Weekdays, d)
		}
	}
	md.Locations = sortedKeys(locations)
	md.Types = sortedKeys(types)
	md.AgeGroups = sortedKeys(ages)

	return md
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
