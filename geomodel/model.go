package geomodel

// Point is a sampled map point. X is longitude and Y is latitude, matching
// GeoJSON coordinate order. Result is a presentation-only 0|1 label used to
// color the marker on the map; it is never derived from the forecast service.
type Point struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Result int     `json:"result"`
}

// Query is a single forecast request: a date, an hour of day and a
// coordinate.
type Query struct {
	Date string  `json:"d"` // YYYY-MM-DD
	Hour int     `json:"h"` // 0-23
	X    float64 `json:"x"` // longitude
	Y    float64 `json:"y"` // latitude
}

// Result is the forecast service answer for one query.
type Result struct {
	Ticketed int `json:"ticketed"`
}
