package markers

import (
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/mwantia/trainmap/pkg/geo"
)

// Cluster merges markers that are closer than the cluster radius at a zoom.
type Cluster struct {
	ID        string     `json:"id"`
	Position  geo.LatLng `json:"position"`
	Count     int        `json:"count"`
	MarkerIDs []string   `json:"markerIds"`
}

// ClusterSpecs buckets markers into square pixel cells of radius size at the
// given zoom. A cell holding a single marker yields no cluster; that marker
// is returned in singles instead.
func ClusterSpecs(specs []Spec, zoom, radius float64) (clusters []Cluster, singles []Spec) {
	if radius <= 0 {
		return nil, append([]Spec(nil), specs...)
	}

	type cell struct {
		members []Spec
		sumX    float64
		sumY    float64
	}

	cells := make(map[[2]int64]*cell)
	order := make([][2]int64, 0)

	for _, s := range specs {
		p := geo.Project(s.Position, zoom)
		key := [2]int64{int64(math.Floor(p.X / radius)), int64(math.Floor(p.Y / radius))}

		c, ok := cells[key]
		if !ok {
			c = &cell{}
			cells[key] = c
			order = append(order, key)
		}
		c.members = append(c.members, s)
		c.sumX += p.X
		c.sumY += p.Y
	}

	for _, key := range order {
		c := cells[key]
		if len(c.members) == 1 {
			singles = append(singles, c.members[0])
			continue
		}

		ids := make([]string, 0, len(c.members))
		count := 0
		for _, m := range c.members {
			ids = append(ids, m.ID)
			count += len(m.TrainingIDs)
		}
		sort.Strings(ids)

		n := float64(len(c.members))
		center := geo.Unproject(geo.Point{X: c.sumX / n, Y: c.sumY / n}, zoom)

		clusters = append(clusters, Cluster{
			ID:        uuid.NewSHA1(locationNamespace, []byte(strings.Join(ids, "|"))).String(),
			Position:  center,
			Count:     count,
			MarkerIDs: ids,
		})
	}

	return clusters, singles
}
