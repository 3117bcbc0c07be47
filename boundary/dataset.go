package boundary

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Zone is one named feature of a boundary dataset.
type Zone struct {
	Name     string
	Geometry orb.MultiPolygon
}

// Dataset is a parsed boundary source: the union geometry consumed by the
// sampler plus the per-feature zones consumed by containment lookups.
type Dataset struct {
	Union Boundary
	Zones []Zone

	tree *ZoneTree
}

// Tree returns the spatial index over the dataset zones.
func (d Dataset) Tree() *ZoneTree { return d.tree }

// ParseDataset decodes a GeoJSON FeatureCollection, Feature or bare geometry
// into a Dataset. Only polygonal geometry is accepted; anything else fails
// with a descriptive error rather than producing garbage coordinates.
func ParseDataset(name string, data []byte) (Dataset, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return Dataset{}, fmt.Errorf("boundary data is not valid JSON: %w", err)
	}

	var zones []Zone
	switch probe.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return Dataset{}, fmt.Errorf("unmarshal feature collection: %w", err)
		}
		for i, f := range fc.Features {
			geom, err := polygonal(f.Geometry)
			if err != nil {
				return Dataset{}, fmt.Errorf("feature %d: %w", i, err)
			}
			zones = append(zones, Zone{Name: featureName(f, i), Geometry: geom})
		}
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return Dataset{}, fmt.Errorf("unmarshal feature: %w", err)
		}
		geom, err := polygonal(f.Geometry)
		if err != nil {
			return Dataset{}, err
		}
		zones = append(zones, Zone{Name: featureName(f, 0), Geometry: geom})
	case "Polygon", "MultiPolygon":
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return Dataset{}, fmt.Errorf("unmarshal geometry: %w", err)
		}
		geom, err := polygonal(g.Geometry())
		if err != nil {
			return Dataset{}, err
		}
		zones = append(zones, Zone{Name: name, Geometry: geom})
	default:
		return Dataset{}, fmt.Errorf("unsupported boundary type %q", probe.Type)
	}

	union := orb.MultiPolygon{}
	tree := NewZoneTree()
	for _, z := range zones {
		union = append(union, z.Geometry...)
		tree.Insert(z)
	}

	return Dataset{
		Union: New(name, union),
		Zones: zones,
		tree:  tree,
	}, nil
}

func polygonal(g orb.Geometry) (orb.MultiPolygon, error) {
	switch geom := g.(type) {
	case orb.Polygon:
		return orb.MultiPolygon{geom}, nil
	case orb.MultiPolygon:
		return geom, nil
	default:
		return nil, fmt.Errorf("unsupported geometry type %q, want polygon or multi-polygon", g.GeoJSONType())
	}
}

func featureName(f *geojson.Feature, i int) string {
	if name, ok := f.Properties["name"].(string); ok && name != "" {
		return name
	}
	return fmt.Sprintf("zone-%d", i)
}
