package sampler

import (
	"math/rand"

	"github.com/paulmach/orb"

	"github.com/parkwatch/parkcast/boundary"
	"github.com/parkwatch/parkcast/geomodel"
)

// Eligible collects up to overSample times the requested target so the final
// Sample call has a meaningful pool to pick from.
const overSample = 2

// DefaultAttempts is the proposal budget callers normally pass to Eligible
// for a given target.
func DefaultAttempts(target int) int { return target * 10 }

// Eligible proposes random coordinates inside the envelope of b and keeps
// the ones that pass containment, stopping once target*2 points are
// collected or maxAttempts proposals were made. Each kept point carries a
// random 0|1 display label.
//
// The result is best effort: it may be shorter than requested, and is empty
// for an empty or zero-area boundary. Data quality issues never produce an
// error here. rnd is the only source of randomness.
func Eligible(b boundary.Boundary, target, maxAttempts int, rnd *rand.Rand) []geomodel.Point {
	if target <= 0 || maxAttempts <= 0 || b.Degenerate() {
		return nil
	}

	bound := b.Bound()
	width := bound.Max.X() - bound.Min.X()
	height := bound.Max.Y() - bound.Min.Y()

	points := make([]geomodel.Point, 0, target*overSample)
	for range maxAttempts {
		if len(points) >= target*overSample {
			break
		}

		p := orb.Point{
			bound.Min.X() + rnd.Float64()*width,
			bound.Min.Y() + rnd.Float64()*height,
		}
		if !b.Contains(p) {
			continue
		}

		points = append(points, geomodel.Point{X: p.X(), Y: p.Y(), Result: rnd.Intn(2)})
	}

	return points
}

// Sample picks min(n, len(points)) distinct points uniformly at random
// without replacement, as a partial Fisher-Yates pass over a copy of the
// input. The input slice is left untouched; output order is selection order.
func Sample(points []geomodel.Point, n int, rnd *rand.Rand) []geomodel.Point {
	if n <= 0 || len(points) == 0 {
		return nil
	}
	if n > len(points) {
		n = len(points)
	}

	pool := make([]geomodel.Point, len(points))
	copy(pool, points)

	for i := range n {
		j := i + rnd.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}

	return pool[:n:n]
}
