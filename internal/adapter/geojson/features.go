// Package geojson loads district boundaries from a GeoJSON FeatureCollection.
package geojson

import (
	"fmt"
	"os"
	"strings"

	"github.com/couchcryptid/landlord-risk-etl/internal/domain"
	"github.com/paulmach/orb"
	orbjson "github.com/paulmach/orb/geojson"
	"github.com/spf13/cast"
)

// fallbackProperties are tried, in order, after the configured property.
var fallbackProperties = []string{"district", "name", "DISTRICT"}

// LoadFeatures reads and decodes a GeoJSON file.
func LoadFeatures(path, districtProperty string) ([]domain.Feature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	features, err := DecodeFeatures(data, districtProperty)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return features, nil
}

// DecodeFeatures converts every Polygon and MultiPolygon feature into a
// domain.Feature. Other geometry types are skipped. The district name is the
// first non-empty of districtProperty, "district", "name" and "DISTRICT";
// features with none of them are named UNKNOWN.
func DecodeFeatures(data []byte, districtProperty string) ([]domain.Feature, error) {
	fc, err := orbjson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Feature, 0, len(fc.Features))
	for _, f := range fc.Features {
		var polygons []domain.Polygon
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			polygons = []domain.Polygon{convertPolygon(g)}
		case orb.MultiPolygon:
			for _, p := range g {
				polygons = append(polygons, convertPolygon(p))
			}
		default:
			continue
		}
		out = append(out, domain.Feature{
			District: districtName(f.Properties, districtProperty),
			Polygons: polygons,
		})
	}
	return out, nil
}

func districtName(props orbjson.Properties, configured string) string {
	names := append([]string{configured}, fallbackProperties...)
	for _, name := range names {
		if name == "" {
			continue
		}
		v, ok := props[name]
		if !ok || v == nil {
			continue
		}
		if s := strings.TrimSpace(cast.ToString(v)); s != "" {
			return s
		}
	}
	return domain.UnknownDistrict
}

func convertPolygon(p orb.Polygon) domain.Polygon {
	out := make(domain.Polygon, len(p))
	for i, ring := range p {
		r := make(domain.Ring, len(ring))
		for j, pt := range ring {
			r[j] = domain.Point{X: pt.Lon(), Y: pt.Lat()}
		}
		out[i] = r
	}
	return out
}
