package boundary

import (
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/tidwall/qtree"
)

// ZoneTree indexes zones by their envelope. A point query walks the envelope
// hits and confirms each candidate with a full polygon containment test, so
// overlapping envelopes are fine.
type ZoneTree struct {
	mu        sync.RWMutex
	idCounter uint64
	zones     []Zone
	qt        qtree.QTree
}

func NewZoneTree() *ZoneTree {
	return &ZoneTree{}
}

func (zt *ZoneTree) Insert(z Zone) {
	bound := z.Geometry.Bound()

	zt.mu.Lock()
	defer zt.mu.Unlock()

	zt.zones = append(zt.zones, z)
	zt.qt.Insert(bound.Min, bound.Max, zt.idCounter)
	zt.idCounter++
}

func (zt *ZoneTree) Len() int {
	zt.mu.RLock()
	defer zt.mu.RUnlock()
	return len(zt.zones)
}

// QueryPoint returns the first zone whose geometry contains point.
func (zt *ZoneTree) QueryPoint(point orb.Point) (Zone, bool) {
	zt.mu.RLock()
	defer zt.mu.RUnlock()

	var out Zone
	found := false

	zt.qt.Search(point, point, func(_, _ [2]float64, data interface{}) bool {
		id := data.(uint64)

		if planar.MultiPolygonContains(zt.zones[id].Geometry, point) {
			out = zt.zones[id]
			found = true
			return false
		}

		return true
	})

	return out, found
}
