package markers

import (
	"fmt"

	"github.com/mwantia/trainmap/pkg/geo"
	"github.com/mwantia/trainmap/pkg/training"
)

// KeyPrecision is the number of decimals used to decide that two trainings
// share a location.
const KeyPrecision = 6

// Group collects the trainings found at one rounded coordinate.
type Group struct {
	Key         string
	Position    geo.LatLng
	TrainingIDs []int
}

func LocationKey(ll geo.LatLng) string {
	return fmt.Sprintf("%.*f,%.*f", KeyPrecision, geo.RoundTo(ll.Lat, KeyPrecision), KeyPrecision, geo.RoundTo(ll.Lng, KeyPrecision))
}

// GroupByLocation groups trainings by rounded coordinate in order of first
// appearance. Trainings without coordinates are skipped.
func GroupByLocation(trainings []training.Training) []Group {
	index := make(map[string]int)
	groups := make([]Group, 0)

	for _, t := range trainings {
		ll, ok := t.Coordinates()
		if !ok {
			continue
		}

		key := LocationKey(ll)
		i, found := index[key]
		if !found {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{
				Key: key,
				Position: geo.LatLng{
					Lat: geo.RoundTo(ll.Lat, KeyPrecision),
					Lng: geo.RoundTo(ll.Lng, KeyPrecision),
				},
			})
		}
		groups[i].TrainingIDs = append(groups[i].TrainingIDs, t.ID)
	}

	return groups
}
