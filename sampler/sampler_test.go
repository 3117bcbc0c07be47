package sampler_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/paulmach/orb"

	"github.com/parkwatch/parkcast/boundary"
	"github.com/parkwatch/parkcast/geomodel"
	"github.com/parkwatch/parkcast/sampler"
)

func squareBoundary(size float64) boundary.Boundary {
	return boundary.New("square", orb.MultiPolygon{orb.Polygon{orb.Ring{
		orb.Point{0, 0},
		orb.Point{size, 0},
		orb.Point{size, size},
		orb.Point{0, size},
		orb.Point{0, 0},
	}}})
}

func TestEligibleSquare(t *testing.T) {
	b := squareBoundary(10)
	rnd := rand.New(rand.NewSource(1))

	points := sampler.Eligible(b, 20, 200, rnd)

	// The envelope of an axis-aligned square is the square itself, so every
	// proposal passes containment and collection stops at target*2.
	if len(points) != 40 {
		t.Fatalf("expected 40 points, got %d", len(points))
	}
	for i, p := range points {
		if p.X < 0 || p.X > 10 || p.Y < 0 || p.Y > 10 {
			t.Fatalf("point %d out of bounds: %+v", i, p)
		}
		if p.Result != 0 && p.Result != 1 {
			t.Fatalf("point %d has label %d, want 0 or 1", i, p.Result)
		}
	}
}

func TestEligibleDeterministic(t *testing.T) {
	b := squareBoundary(10)

	a := sampler.Eligible(b, 20, 200, rand.New(rand.NewSource(42)))
	c := sampler.Eligible(b, 20, 200, rand.New(rand.NewSource(42)))

	if len(a) != len(c) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(c))
	}
	for i := range a {
		if a[i] != c[i] {
			t.Fatalf("point %d differs: %+v vs %+v", i, a[i], c[i])
		}
	}
}

func TestEligibleAttemptBudget(t *testing.T) {
	b := squareBoundary(10)
	rnd := rand.New(rand.NewSource(1))

	// With a budget below target*2 the result stays best effort.
	points := sampler.Eligible(b, 20, 7, rnd)
	if len(points) != 7 {
		t.Fatalf("expected at most 7 points from 7 attempts, got %d", len(points))
	}
}

func TestEligibleSparseBoundary(t *testing.T) {
	// Thin triangle covering a sliver of its envelope: misses are expected,
	// the call must still terminate within the budget.
	b := boundary.New("sliver", orb.MultiPolygon{orb.Polygon{orb.Ring{
		orb.Point{0, 0},
		orb.Point{10, 0},
		orb.Point{10, 0.1},
		orb.Point{0, 0},
	}}})
	rnd := rand.New(rand.NewSource(3))

	points := sampler.Eligible(b, 50, sampler.DefaultAttempts(50), rnd)
	for i, p := range points {
		if !b.Contains(orb.Point{p.X, p.Y}) {
			t.Fatalf("point %d escaped the boundary: %+v", i, p)
		}
	}
}

func TestEligibleDegenerate(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))

	cases := []struct {
		name string
		b    boundary.Boundary
	}{
		{"zero", boundary.Boundary{}},
		{"line", boundary.New("line", orb.MultiPolygon{orb.Polygon{orb.Ring{
			orb.Point{0, 0}, orb.Point{10, 0}, orb.Point{0, 0},
		}}})},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if points := sampler.Eligible(c.b, 10, 100, rnd); len(points) != 0 {
				t.Fatalf("expected no points, got %d", len(points))
			}
		})
	}
}

func TestEligibleBadArguments(t *testing.T) {
	b := squareBoundary(10)
	rnd := rand.New(rand.NewSource(1))

	if points := sampler.Eligible(b, 0, 100, rnd); points != nil {
		t.Fatalf("target 0 should yield nil, got %v", points)
	}
	if points := sampler.Eligible(b, 10, 0, rnd); points != nil {
		t.Fatalf("attempts 0 should yield nil, got %v", points)
	}
}

func TestSampleSmallPool(t *testing.T) {
	pool := []geomodel.Point{
		{X: 1, Y: 1, Result: 0},
		{X: 2, Y: 2, Result: 1},
		{X: 3, Y: 3, Result: 0},
	}
	rnd := rand.New(rand.NewSource(1))

	got := sampler.Sample(pool, 10, rnd)
	if len(got) != 3 {
		t.Fatalf("expected all 3 points, got %d", len(got))
	}

	seen := map[float64]bool{}
	for _, p := range got {
		if seen[p.X] {
			t.Fatalf("point %+v returned twice", p)
		}
		seen[p.X] = true
	}
}

func TestSampleNoReplacement(t *testing.T) {
	pool := make([]geomodel.Point, 100)
	for i := range pool {
		pool[i] = geomodel.Point{X: float64(i), Y: float64(i)}
	}
	rnd := rand.New(rand.NewSource(7))

	got := sampler.Sample(pool, 30, rnd)
	if len(got) != 30 {
		t.Fatalf("expected 30 points, got %d", len(got))
	}

	seen := map[float64]bool{}
	for _, p := range got {
		if seen[p.X] {
			t.Fatalf("point %+v returned twice", p)
		}
		seen[p.X] = true
	}
}

func TestSampleLeavesInputUntouched(t *testing.T) {
	pool := make([]geomodel.Point, 50)
	for i := range pool {
		pool[i] = geomodel.Point{X: float64(i), Y: float64(i)}
	}
	orig := make([]geomodel.Point, len(pool))
	copy(orig, pool)

	sampler.Sample(pool, 20, rand.New(rand.NewSource(9)))

	for i := range pool {
		if pool[i] != orig[i] {
			t.Fatalf("input mutated at %d: %+v vs %+v", i, pool[i], orig[i])
		}
	}
}

func TestSampleEmpty(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	if got := sampler.Sample(nil, 10, rnd); got != nil {
		t.Fatalf("expected nil for empty pool, got %v", got)
	}
	if got := sampler.Sample([]geomodel.Point{{X: 1}}, 0, rnd); got != nil {
		t.Fatalf("expected nil for n=0, got %v", got)
	}
}

func TestEligibleSpaced(t *testing.T) {
	b := squareBoundary(10)
	rnd := rand.New(rand.NewSource(1))
	const minDistance = 1.0

	points := sampler.EligibleSpaced(b, minDistance, rnd)
	if len(points) == 0 {
		t.Fatalf("expected points in a 10x10 square at spacing 1")
	}

	for i, p := range points {
		if !b.Contains(orb.Point{p.X, p.Y}) {
			t.Fatalf("point %d escaped the boundary: %+v", i, p)
		}
		if p.Result != 0 && p.Result != 1 {
			t.Fatalf("point %d has label %d, want 0 or 1", i, p.Result)
		}
	}

	for i := range points {
		for j := i + 1; j < len(points); j++ {
			d := math.Hypot(points[i].X-points[j].X, points[i].Y-points[j].Y)
			if d < minDistance {
				t.Fatalf("points %d and %d are %f apart, want >= %f", i, j, d, minDistance)
			}
		}
	}
}

func TestEligibleSpacedDegenerate(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	if points := sampler.EligibleSpaced(boundary.Boundary{}, 1, rnd); len(points) != 0 {
		t.Fatalf("expected no points for zero boundary, got %d", len(points))
	}
	if points := sampler.EligibleSpaced(squareBoundary(10), 0, rnd); len(points) != 0 {
		t.Fatalf("expected no points for zero spacing, got %d", len(points))
	}
}

func BenchmarkEligible(b *testing.B) {
	bound := squareBoundary(10)
	rnd := rand.New(rand.NewSource(1))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sampler.Eligible(bound, 100, sampler.DefaultAttempts(100), rnd)
	}
}
