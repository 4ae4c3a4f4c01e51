package markers

import (
	"fmt"
	"hash/fnv"
	"html/template"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/mwantia/trainmap/pkg/geo"
	"github.com/mwantia/trainmap/pkg/training"
)

// locationNamespace scopes the UUIDv5 location ids.
var locationNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("trainmap:location"))

// DefaultColor is used for markers whose primary type is unknown.
const DefaultColor = "#607d8b"

var palette = []string{
	"#e53935", "#8e24aa", "#3949ab", "#039be5",
	"#00897b", "#7cb342", "#fdd835", "#fb8c00",
	"#6d4c41", "#d81b60", "#5e35b1", "#00acc1",
}

// Spec describes one marker. Trainings are referenced by id only.
type Spec struct {
	ID          string        `json:"id"`
	Key         string        `json:"key"`
	Position    geo.LatLng    `json:"position"`
	TrainingIDs []int         `json:"trainingIds"`
	PrimaryType string        `json:"primaryType"`
	Color       string        `json:"color"`
	Badge       int           `json:"badge,omitempty"`
	Tooltip     string        `json:"tooltip"`
	Popup       template.HTML `json:"popup"`
}

type BuildOptions struct {
	TypeColors map[string]string
}

// LocationID returns the stable opaque id for a location key.
func LocationID(key string) string {
	return uuid.NewSHA1(locationNamespace, []byte(key)).String()
}

// BuildMarkers produces one Spec per location group.
func BuildMarkers(trainings []training.Training, opts BuildOptions) ([]Spec, error) {
	arena := make(map[int]training.Training, len(trainings))
	for _, t := range trainings {
		arena[t.ID] = t
	}

	groups := GroupByLocation(trainings)
	specs := make([]Spec, 0, len(groups))

	for _, g := range groups {
		members := make([]training.Training, 0, len(g.TrainingIDs))
		for _, id := range g.TrainingIDs {
			members = append(members, arena[id])
		}

		primary := PrimaryType(members)
		popup, err := RenderPopup(members)
		if err != nil {
			return nil, fmt.Errorf("failed to render popup for '%s': %w", g.Key, err)
		}

		spec := Spec{
			ID:          LocationID(g.Key),
			Key:         g.Key,
			Position:    g.Position,
			TrainingIDs: g.TrainingIDs,
			PrimaryType: primary,
			Color:       ColorFor(primary, opts.TypeColors),
			Tooltip:     tooltip(members),
			Popup:       popup,
		}
		if len(members) > 1 {
			spec.Badge = len(members)
		}
		specs = append(specs, spec)
	}

	return specs, nil
}

// PrimaryType is the most frequent training type, ties broken alphabetically.
func PrimaryType(members []training.Training) string {
	counts := make(map[string]int)
	for _, t := range members {
		if t.Type != "" {
			counts[t.Type]++
		}
	}

	best, bestCount := "", 0
	for name, count := range counts {
		if count > bestCount || (count == bestCount && name < best) {
			best, bestCount = name, count
		}
	}
	return best
}

// ColorFor looks the type up in the configured table (case-insensitive) and
// falls back to a palette colour chosen by hash.
func ColorFor(trainingType string, table map[string]string) string {
	if trainingType == "" {
		return DefaultColor
	}
	if c, ok := table[trainingType]; ok && c != "" {
		return c
	}
	for name, c := range table {
		if strings.EqualFold(name, trainingType) && c != "" {
			return c
		}
	}

	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(trainingType)))
	return palette[h.Sum32()%uint32(len(palette))]
}

func tooltip(members []training.Training) string {
	if len(members) == 0 {
		return ""
	}
	if len(members) == 1 {
		return fmt.Sprintf("%s, %s", members[0].Type, members[0].Location)
	}
	return fmt.Sprintf("%s: %d Trainings", members[0].Location, len(members))
}

// SortForPopup orders trainings by weekday, start time, age group and type.
func SortForPopup(members []training.Training) []training.Training {
	sorted := append([]training.Training(nil), members...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Weekday.Order() != b.Weekday.Order() {
			return a.Weekday.Order() < b.Weekday.Order()
		}
		if a.StartMinutes() != b.StartMinutes() {
			return a.StartMinutes() < b.StartMinutes()
		}
		if a.AgeGroup != b.AgeGroup {
			return a.AgeGroup < b.AgeGroup
		}
		return a.Type < b.Type
	})
	return sorted
}
