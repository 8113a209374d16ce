package geospatial_test

import (
	"math"
	"testing"

	"github.com/samirrijal/dropspots/internal/core/domain"
	"github.com/samirrijal/dropspots/internal/pkg/geospatial"
)

func TestHaversine_SamePoint(t *testing.T) {
	if d := geospatial.Haversine(60.14, -2.11, 60.14, -2.11); d != 0 {
		t.Errorf("expected 0, got %f", d)
	}
}

func TestHaversine_OneDegreeLatitude(t *testing.T) {
	d := geospatial.Haversine(0, 0, 1, 0)
	if math.Abs(d-111195) > 100 {
		t.Errorf("expected ~111195 m, got %f", d)
	}
}

func TestBoundingBox_ContainsCenter(t *testing.T) {
	minLat, minLon, maxLat, maxLon := geospatial.BoundingBox(60.14, -2.11, 500)
	if !(minLat < 60.14 && maxLat > 60.14 && minLon < -2.11 && maxLon > -2.11) {
		t.Errorf("box %f,%f,%f,%f does not contain center", minLat, minLon, maxLat, maxLon)
	}
}

func TestBounds_MatchesBoundingBox(t *testing.T) {
	center := domain.GeoPoint{Lat: 43.263, Lon: -2.935}
	b := geospatial.Bounds(center, 1000)
	if !b.Contains(center) {
		t.Fatalf("bounds %+v do not contain %+v", b, center)
	}
	if b.Contains(domain.GeoPoint{Lat: 43.3, Lon: -2.935}) {
		t.Errorf("point ~4 km away should be outside a 1 km box")
	}
}
