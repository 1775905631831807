package common

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestHaversine_Identity(t *testing.T) {
	p := orb.Point{83.98, 28.21}
	if d := Haversine(p, p); d != 0 {
		t.Errorf("expected 0, got %v", d)
	}
}

func TestHaversine_Symmetric(t *testing.T) {
	pairs := [][2]orb.Point{
		{{83.98, 28.21}, {83.981, 28.211}},
		{{-93.25, 44.98}, {-111.69, 45.57}},
		{{0, 0}, {179.9, -0.1}},
		{{79.873, 6.936}, {79.849, 6.936}},
	}
	for _, pair := range pairs {
		ab := Haversine(pair[0], pair[1])
		ba := Haversine(pair[1], pair[0])
		if math.Abs(ab-ba) > 1e-6*math.Max(ab, 1) {
			t.Errorf("asymmetric distance for %v: %v != %v", pair, ab, ba)
		}
	}
}

func TestHaversine_KnownDistance(t *testing.T) {
	// 0.001 degrees of latitude at the equator is ~111m.
	d := Haversine(orb.Point{0, 0}, orb.Point{0, 0.001})
	if math.Abs(d-111.19) > 111.19*0.01 {
		t.Errorf("expected ~111m, got %v", d)
	}
}
