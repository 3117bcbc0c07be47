package sampler

import (
	"math/rand"

	"github.com/fogleman/poissondisc"
	"github.com/paulmach/orb"

	"github.com/parkwatch/parkcast/boundary"
	"github.com/parkwatch/parkcast/geomodel"
)

// poisson disc rejection attempts per active point
const spacedK = 10

// EligibleSpaced fills the envelope of b with poisson disc samples at least
// minDistance degrees apart and keeps the ones inside the boundary. Meant
// for map displays that want markers that do not overlap; labels are still
// random 0|1. Empty for an empty or zero-area boundary.
func EligibleSpaced(b boundary.Boundary, minDistance float64, rnd *rand.Rand) []geomodel.Point {
	if minDistance <= 0 || b.Degenerate() {
		return nil
	}

	bound := b.Bound()
	samples := poissondisc.Sample(
		bound.Min.X(), bound.Min.Y(),
		bound.Max.X(), bound.Max.Y(),
		minDistance, spacedK, rnd,
	)

	points := make([]geomodel.Point, 0, len(samples))
	for _, s := range samples {
		if !b.Contains(orb.Point{s.X, s.Y}) {
			continue
		}
		points = append(points, geomodel.Point{X: s.X, Y: s.Y, Result: rnd.Intn(2)})
	}

	return points
}
