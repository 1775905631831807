package smooth

import (
	"math"
	"testing"

	"github.com/rotblauer/bustrack/types/fix"
)

func between(v, a, b float64) bool {
	lo, hi := math.Min(a, b), math.Max(a, b)
	return v >= lo-1e-12 && v <= hi+1e-12
}

func TestGain_Step_InitialGain(t *testing.T) {
	g := NewGain(nil)
	prev := fix.Smoothed{Fix: fix.Fix{Latitude: 28.0, Longitude: 84.0, Timestamp: 1}}
	current := fix.Fix{Latitude: 28.2, Longitude: 84.2, Timestamp: 2}
	got := g.Step(prev, current)
	if math.Abs(got.Latitude-28.1) > 1e-12 || math.Abs(got.Longitude-84.1) > 1e-12 {
		t.Errorf("expected midpoint with K=0.5, got %+v", got)
	}
	if got.Timestamp != 2 {
		t.Errorf("expected current timestamp, got %d", got.Timestamp)
	}
	// (1 - 0.5) * R + Q
	if want := 0.5*1e-4 + 1e-5; math.Abs(got.Uncertainty-want) > 1e-18 {
		t.Errorf("expected uncertainty %v, got %v", want, got.Uncertainty)
	}
	if !got.HasUncertainty {
		t.Error("expected uncertainty to be set")
	}
}

func TestGain_Step_ThreadsUncertainty(t *testing.T) {
	g := NewGain(nil)
	prev := fix.Smoothed{
		Fix:            fix.Fix{Latitude: 0, Longitude: 0},
		Uncertainty:    1e-4,
		HasUncertainty: true,
	}
	got := g.Step(prev, fix.Fix{Latitude: 1, Longitude: -1, Timestamp: 5})
	// K = 1e-4 / (1e-4 + 1e-4) = 0.5
	if math.Abs(got.Latitude-0.5) > 1e-12 || math.Abs(got.Longitude+0.5) > 1e-12 {
		t.Errorf("unexpected blend: %+v", got)
	}
	if want := 0.5*1e-4 + 1e-5; math.Abs(got.Uncertainty-want) > 1e-18 {
		t.Errorf("expected uncertainty %v, got %v", want, got.Uncertainty)
	}
}

func TestGain_Smooth_ConvexBlend(t *testing.T) {
	raw := []fix.Fix{
		{Latitude: 28.2100, Longitude: 83.9800, Timestamp: 0},
		{Latitude: 28.2110, Longitude: 83.9810, Timestamp: 20_000},
		{Latitude: 28.2105, Longitude: 83.9830, Timestamp: 40_000},
		{Latitude: 28.2130, Longitude: 83.9820, Timestamp: 60_000},
	}
	got := NewGain(nil).Smooth(raw)
	if len(got) != len(raw) {
		t.Fatalf("expected %d fixes, got %d", len(raw), len(got))
	}
	if got[0] != raw[0] {
		t.Errorf("expected first fix unchanged, got %+v", got[0])
	}
	for i := 1; i < len(got); i++ {
		if !between(got[i].Latitude, got[i-1].Latitude, raw[i].Latitude) ||
			!between(got[i].Longitude, got[i-1].Longitude, raw[i].Longitude) {
			t.Errorf("fix %d overshoots: prev=%+v raw=%+v got=%+v", i, got[i-1], raw[i], got[i])
		}
		if got[i].Timestamp != raw[i].Timestamp {
			t.Errorf("fix %d timestamp changed", i)
		}
	}
	if len(NewGain(nil).Smooth(nil)) != 0 {
		t.Error("expected empty output")
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{"", NameNone} {
		s, err := ByName(name)
		if err != nil || s != nil {
			t.Errorf("%q: expected nil smoother, got %v %v", name, s, err)
		}
	}
	if s, err := ByName(NameGain); err != nil || s == nil {
		t.Errorf("expected gain smoother, got %v %v", s, err)
	}
	if s, err := ByName(NameKalman); err != nil || s == nil {
		t.Errorf("expected kalman smoother, got %v %v", s, err)
	}
	if _, err := ByName("median"); err == nil {
		t.Error("expected error for unknown smoother")
	}
}

func TestKalman_Smooth_LengthAndTimestamps(t *testing.T) {
	raw := []fix.Fix{
		{Latitude: 28.2100, Longitude: 83.9800, Timestamp: 1_700_000_000_000},
		{Latitude: 28.2110, Longitude: 83.9810, Timestamp: 1_700_000_020_000},
		{Latitude: 28.2120, Longitude: 83.9820, Timestamp: 1_700_000_040_000},
	}
	got := NewKalman(nil).Smooth(raw)
	if len(got) != len(raw) {
		t.Fatalf("expected %d fixes, got %d", len(raw), len(got))
	}
	for i := range got {
		if got[i].Timestamp != raw[i].Timestamp {
			t.Errorf("fix %d timestamp changed", i)
		}
		// Estimates stay near the observations, within ~200m.
		if d := got[i].DistanceTo(raw[i]); d > 200 {
			t.Errorf("fix %d estimate %v is %vm from observation", i, got[i], d)
		}
	}
}
