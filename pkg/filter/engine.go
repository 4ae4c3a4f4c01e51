package filter

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/mwantia/trainmap/pkg/geo"
	"github.com/mwantia/trainmap/pkg/training"
)

// DefaultNearbyRadiusKm is used by the Nearby preset when Options leaves it unset.
const DefaultNearbyRadiusKm = 5.0

// Options carries the inputs that are not part of the filter state.
type Options struct {
	Favorites      map[int]bool
	NearbyRadiusKm float64
	Now            func() time.Time
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o Options) nearbyRadius() float64 {
	if ValidDistance(o.NearbyRadiusKm) {
		return o.NearbyRadiusKm
	}
	return DefaultNearbyRadiusKm
}

type stage func([]training.Training) []training.Training

// Apply runs the filter stages in order, each on the output of the previous
// one, and returns a new slice. The input is never modified. idx may be nil,
// in which case a throwaway index is built when a search term is present.
func Apply(all []training.Training, st State, idx *SearchIndex, pos *geo.LatLng, opts Options) []training.Training {
	st = st.Normalize()
	result := append([]training.Training(nil), all...)

	if st.PersonalFlag {
		result = keep(result, func(t training.Training) bool {
			return opts.Favorites[t.ID]
		})
		return sortByDistance(result, pos)
	}

	stages := []stage{
		weekdayStage(st, opts.now()),
		locationStage(st),
		typeStage(st),
		ageGroupStage(st),
		searchStage(st, idx),
		distanceStage(st, pos, opts.nearbyRadius()),
	}
	for _, run := range stages {
		if len(result) == 0 {
			break
		}
		result = run(result)
	}

	return sortByDistance(result, pos)
}

func weekdayStage(st State, now time.Time) stage {
	return func(in []training.Training) []training.Training {
		if len(st.Weekdays) > 0 {
			accepted := map[training.Weekday]bool{}
			for _, d := range st.Weekdays {
				accepted[d] = true
			}
			in = keep(in, func(t training.Training) bool { return accepted[t.Weekday] })
		}

		var window map[training.Weekday]bool
		today := training.FromTime(now)
		switch st.TimeFlag {
		case TimeToday:
			window = map[training.Weekday]bool{today: true}
		case TimeTomorrow:
			window = map[training.Weekday]bool{today.Next(): true}
		case TimeWeekend:
			window = map[training.Weekday]bool{training.Saturday: true, training.Sunday: true}
		}
		if window != nil {
			in = keep(in, func(t training.Training) bool { return window[t.Weekday] })
		}
		return in
	}
}

func locationStage(st State) stage {
	return func(in []training.Training) []training.Training {
		if len(st.Locations) == 0 {
			return in
		}
		accepted := toSet(st.Locations)
		return keep(in, func(t training.Training) bool { return accepted[t.Location] })
	}
}

func typeStage(st State) stage {
	return func(in []training.Training) []training.Training {
		if len(st.Types) > 0 {
			accepted := toSet(st.Types)
			in = keep(in, func(t training.Training) bool { return accepted[t.Type] })
		}
		if st.TypeText != "" {
			fold := cases.Fold()
			needle := fold.String(st.TypeText)
			in = keep(in, func(t training.Training) bool {
				return strings.Contains(fold.String(t.Type), needle)
			})
		}
		return in
	}
}

func ageGroupStage(st State) stage {
	return func(in []training.Training) []training.Training {
		if len(st.AgeGroups) > 0 {
			accepted := toSet(st.AgeGroups)
			in = keep(in, func(t training.Training) bool {
				for _, tag := range t.AgeGroups() {
					if accepted[tag] {
						return true
					}
				}
				return false
			})
		}
		if st.FeatureFlag == FeatureTrial {
			in = keep(in, func(t training.Training) bool { return t.Trial })
		}
		return in
	}
}

func searchStage(st State, idx *SearchIndex) stage {
	return func(in []training.Training) []training.Training {
		if st.Search == "" {
			return in
		}
		if idx == nil {
			idx = NewSearchIndex(in)
		}
		hits := idx.Search(st.Search)
		if hits == nil {
			return in
		}
		return keep(in, func(t training.Training) bool { return hits[t.ID] })
	}
}

func distanceStage(st State, pos *geo.LatLng, nearbyRadius float64) stage {
	return func(in []training.Training) []training.Training {
		if pos == nil {
			return in
		}

		threshold := -1.0
		if st.DistanceActive {
			threshold = st.MaxDistanceKm
		}
		if st.NearbyFlag && (threshold < 0 || nearbyRadius < threshold) {
			threshold = nearbyRadius
		}
		if threshold < 0 {
			return in
		}

		// Trainings without a computed distance are not penalized.
		return keep(in, func(t training.Training) bool {
			return t.Distance == nil || *t.Distance <= threshold
		})
	}
}

func sortByDistance(in []training.Training, pos *geo.LatLng) []training.Training {
	if pos == nil {
		return in
	}
	sort.SliceStable(in, func(i, j int) bool {
		a, b := in[i].Distance, in[j].Distance
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})
	return in
}

func keep(in []training.Training, pred func(training.Training) bool) []training.Training {
	out := make([]training.Training, 0, len(in))
	for _, t := range in {
		if pred(t) {
			out = append(out, t)
		}
	}
	return out
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
