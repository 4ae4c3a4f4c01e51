package training

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/mwantia/trainmap/pkg/geo"
)

var distancePrinter = message.NewPrinter(language.German)

// FormatDistance renders a distance in km with one decimal place.
func FormatDistance(km float64) string {
	return distancePrinter.Sprintf("%.1f km", geo.RoundTo(km, 1))
}

// AnnotateDistances returns a copy of trainings with Distance and DistanceText
// computed from pos. Trainings without coordinates get both fields cleared.
func AnnotateDistances(trainings []Training, pos geo.LatLng) []Training {
	out := make([]Training, len(trainings))
	for i, t := range trainings {
		t.Distance = nil
		t.DistanceText = ""
		if ll, ok := t.Coordinates(); ok {
			d := geo.Distance(pos, ll)
			t.Distance = &d
			t.DistanceText = FormatDistance(d)
		}
		out[i] = t
	}
	return out
}

// StripDistances returns a copy of trainings without derived distance fields.
func StripDistances(trainings []Training) []Training {
	out := make([]Training, len(trainings))
	for i, t := range trainings {
		t.Distance = nil
		t.DistanceText = ""
		out[i] = t
	}
	return out
}
