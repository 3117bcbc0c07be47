package boundary

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Boundary is an immutable polygonal region used to constrain sampled
// points. The zero value is empty and contains nothing.
type Boundary struct {
	name string
	geom orb.MultiPolygon
}

func New(name string, geom orb.MultiPolygon) Boundary {
	return Boundary{name: name, geom: geom}
}

func (b Boundary) Name() string { return b.name }

// Geometry returns the underlying multi-polygon. Callers must not mutate it.
func (b Boundary) Geometry() orb.MultiPolygon { return b.geom }

// Bound returns the envelope of the boundary.
func (b Boundary) Bound() orb.Bound { return b.geom.Bound() }

// IsZero reports whether the boundary has no geometry.
func (b Boundary) IsZero() bool { return len(b.geom) == 0 }

// Degenerate reports whether the envelope of the boundary has zero area, in
// which case no point can be sampled from it.
func (b Boundary) Degenerate() bool {
	if b.IsZero() {
		return true
	}
	bound := b.geom.Bound()
	return bound.Min.X() == bound.Max.X() || bound.Min.Y() == bound.Max.Y()
}

// Contains reports whether p lies inside the boundary, using a planar ray
// cast. Points exactly on a ring edge follow the ray cast result and are
// treated as inside. Always false for an empty boundary.
func (b Boundary) Contains(p orb.Point) bool {
	if b.IsZero() {
		return false
	}
	return planar.MultiPolygonContains(b.geom, p)
}
