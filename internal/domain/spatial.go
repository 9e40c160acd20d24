package domain

import (
	"strconv"
	"strings"
)

// horizontalEdgeEpsilon stands in for a zero denominator on horizontal edges.
const horizontalEdgeEpsilon = 1e-12

// Point is an (x, y) coordinate; for WGS-84 data x is longitude and y latitude.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Ring is a closed or unclosed sequence of vertices.
type Ring []Point

// Polygon is an outer ring followed by zero or more hole rings.
type Polygon []Ring

// Feature is a named district made of one polygon or, for a MultiPolygon,
// several.
type Feature struct {
	District string    `json:"district"`
	Polygons []Polygon `json:"-"`
}

// PointInRing reports whether (x, y) lies inside ring by even-odd ray casting.
func PointInRing(x, y float64, ring Ring) bool {
	inside := false
	j := len(ring) - 1
	for i := range ring {
		xi, yi := ring[i].X, ring[i].Y
		xj, yj := ring[j].X, ring[j].Y
		if (yi > y) != (yj > y) {
			dy := yj - yi
			if dy == 0 {
				dy = horizontalEdgeEpsilon
			}
			if x < (xj-xi)*(y-yi)/dy+xi {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// PointInPolygon reports whether (x, y) is inside the outer ring and outside
// every hole.
func PointInPolygon(x, y float64, polygon Polygon) bool {
	if len(polygon) == 0 || !PointInRing(x, y, polygon[0]) {
		return false
	}
	for _, hole := range polygon[1:] {
		if PointInRing(x, y, hole) {
			return false
		}
	}
	return true
}

// Contains reports whether any of the feature's polygons contains (x, y).
func (f Feature) Contains(x, y float64) bool {
	for _, p := range f.Polygons {
		if PointInPolygon(x, y, p) {
			return true
		}
	}
	return false
}

// ResolveDistrict returns the district of the first feature containing the
// point. Feature order matters when polygons overlap.
func ResolveDistrict(lon, lat float64, features []Feature) (string, bool) {
	for _, f := range features {
		if f.Contains(lon, lat) {
			return f.District, true
		}
	}
	return "", false
}

// ResolveDistrictText is ResolveDistrict for coordinates read from text.
// Empty or unparseable coordinates resolve to nothing.
func ResolveDistrictText(latText, lonText string, features []Feature) (string, bool) {
	latText, lonText = strings.TrimSpace(latText), strings.TrimSpace(lonText)
	if len(features) == 0 || latText == "" || lonText == "" {
		return "", false
	}
	lat, err := strconv.ParseFloat(latText, 64)
	if err != nil {
		return "", false
	}
	lon, err := strconv.ParseFloat(lonText, 64)
	if err != nil {
		return "", false
	}
	return ResolveDistrict(lon, lat, features)
}
