package boundary_test

import (
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/parkwatch/parkcast/boundary"
)

func polygonFromBounds(minX, minY, maxX, maxY float64) orb.MultiPolygon {
	return orb.MultiPolygon{orb.Polygon{orb.Ring{
		orb.Point{minX, minY},
		orb.Point{maxX, minY},
		orb.Point{maxX, maxY},
		orb.Point{minX, maxY},
		orb.Point{minX, minY},
	}}}
}

func TestContains(t *testing.T) {
	b := boundary.New("square", polygonFromBounds(0, 0, 10, 10))

	cases := []struct {
		name  string
		point orb.Point
		want  bool
	}{
		{"center", orb.Point{5, 5}, true},
		{"outside", orb.Point{15, 5}, false},
		{"far outside", orb.Point{-100, -100}, false},
		{"inside near edge", orb.Point{9.999, 9.999}, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := b.Contains(c.point); got != c.want {
				t.Fatalf("Contains(%v) = %v, want %v", c.point, got, c.want)
			}
		})
	}
}

func TestContainsHole(t *testing.T) {
	outer := orb.Ring{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}
	hole := orb.Ring{{4, 4}, {6, 4}, {6, 6}, {4, 6}, {4, 4}}
	b := boundary.New("donut", orb.MultiPolygon{orb.Polygon{outer, hole}})

	if !b.Contains(orb.Point{1, 1}) {
		t.Fatalf("expected point in the ring body to be inside")
	}
	if b.Contains(orb.Point{5, 5}) {
		t.Fatalf("expected point in the hole to be outside")
	}
}

func TestContainsEmpty(t *testing.T) {
	var b boundary.Boundary
	if b.Contains(orb.Point{0, 0}) {
		t.Fatalf("zero boundary must not contain anything")
	}
	if !b.IsZero() {
		t.Fatalf("expected zero boundary")
	}
}

func TestDegenerate(t *testing.T) {
	cases := []struct {
		name string
		geom orb.MultiPolygon
		want bool
	}{
		{"empty", nil, true},
		{"vertical line", polygonFromBounds(3, 0, 3, 10), true},
		{"horizontal line", polygonFromBounds(0, 7, 10, 7), true},
		{"point", polygonFromBounds(1, 1, 1, 1), true},
		{"square", polygonFromBounds(0, 0, 1, 1), false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			b := boundary.New(c.name, c.geom)
			if got := b.Degenerate(); got != c.want {
				t.Fatalf("Degenerate() = %v, want %v", got, c.want)
			}
		})
	}
}

func FuzzContains(f *testing.F) {
	f.Add(0.0, 0.0, 1.0, 1.0, 0.5, 0.5)
	f.Add(0.0, 0.0, 1.0, 1.0, 1.5, 1.5)
	f.Add(-10.0, -10.0, 10.0, 10.0, 0.0, 0.0)

	f.Fuzz(func(t *testing.T, minX, minY, maxX, maxY, pointX, pointY float64) {
		geom := polygonFromBounds(minX, minY, maxX, maxY)
		point := orb.Point{pointX, pointY}

		b := boundary.New("fuzz", geom)
		want := planar.MultiPolygonContains(geom, point)
		if got := b.Contains(point); got != want {
			t.Fatalf("Contains(%v) = %v, want %v", point, got, want)
		}
	})
}

const featureCollectionJSON = `{
	"type": "FeatureCollection",
	"features": [
		{
			"type": "Feature",
			"properties": {"name": "downtown"},
			"geometry": {"type": "Polygon", "coordinates": [[[0,0],[10,0],[10,10],[0,10],[0,0]]]}
		},
		{
			"type": "Feature",
			"properties": {},
			"geometry": {"type": "MultiPolygon", "coordinates": [[[[20,20],[30,20],[30,30],[20,30],[20,20]]]]}
		}
	]
}`

func TestParseDatasetFeatureCollection(t *testing.T) {
	ds, err := boundary.ParseDataset("city", []byte(featureCollectionJSON))
	if err != nil {
		t.Fatal(err)
	}

	if len(ds.Zones) != 2 {
		t.Fatalf("expected 2 zones, got %d", len(ds.Zones))
	}
	if ds.Zones[0].Name != "downtown" {
		t.Fatalf("expected zone name downtown, got %q", ds.Zones[0].Name)
	}
	if ds.Zones[1].Name != "zone-1" {
		t.Fatalf("expected fallback zone name zone-1, got %q", ds.Zones[1].Name)
	}

	if ds.Union.Name() != "city" {
		t.Fatalf("expected union name city, got %q", ds.Union.Name())
	}
	if !ds.Union.Contains(orb.Point{5, 5}) {
		t.Fatalf("union should contain a point of the first zone")
	}
	if !ds.Union.Contains(orb.Point{25, 25}) {
		t.Fatalf("union should contain a point of the second zone")
	}
	if ds.Union.Contains(orb.Point{15, 15}) {
		t.Fatalf("union should not contain the gap between zones")
	}

	if ds.Tree().Len() != 2 {
		t.Fatalf("expected 2 indexed zones, got %d", ds.Tree().Len())
	}
}

func TestParseDatasetBareGeometry(t *testing.T) {
	data := `{"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,1],[0,0]]]}`
	ds, err := boundary.ParseDataset("lot", []byte(data))
	if err != nil {
		t.Fatal(err)
	}
	if len(ds.Zones) != 1 || ds.Zones[0].Name != "lot" {
		t.Fatalf("unexpected zones: %+v", ds.Zones)
	}
}

func TestParseDatasetErrors(t *testing.T) {
	cases := []struct {
		name    string
		data    string
		wantErr string
	}{
		{"not json", `{{{`, "not valid JSON"},
		{"unsupported type", `{"type": "Route"}`, "unsupported boundary type"},
		{
			"non polygonal feature",
			`{"type": "Feature", "properties": {}, "geometry": {"type": "Point", "coordinates": [1, 2]}}`,
			"unsupported geometry type",
		},
		{
			"non polygonal in collection",
			`{"type": "FeatureCollection", "features": [{"type": "Feature", "properties": {}, "geometry": {"type": "LineString", "coordinates": [[0,0],[1,1]]}}]}`,
			"feature 0",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := boundary.ParseDataset("bad", []byte(c.data))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), c.wantErr) {
				t.Fatalf("error %q does not mention %q", err, c.wantErr)
			}
		})
	}
}
