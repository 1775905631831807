package path

import (
	"encoding/json"
	"errors"
	"math/rand"
	"slices"
	"testing"

	"github.com/paulmach/orb"
	"github.com/rotblauer/bustrack/geo/smooth"
	"github.com/rotblauer/bustrack/types/fix"
)

var scenario = []fix.Fix{
	{Timestamp: 0, Latitude: 28.21, Longitude: 83.98},
	{Timestamp: 5000, Latitude: 28.2101, Longitude: 83.9801},
	{Timestamp: 20000, Latitude: 28.2110, Longitude: 83.9810},
}

func TestProcess_Scenario(t *testing.T) {
	p := Process(scenario, nil)
	want := fix.Fixes{scenario[0], scenario[2]}
	if !slices.Equal(p.Fixes, want) {
		t.Fatalf("expected %v, got %v", want, p.Fixes)
	}
	if !p.Sufficient() {
		t.Error("expected sufficient path")
	}
	if p.Rejected != 1 || p.Raw != 3 || p.Invalid != 0 {
		t.Errorf("unexpected counts: %+v", p)
	}
}

func TestProcess_SortsUnorderedInput(t *testing.T) {
	sorted := []fix.Fix{
		{Timestamp: 1_000, Latitude: 28.2100, Longitude: 83.9800},
		{Timestamp: 21_000, Latitude: 28.2110, Longitude: 83.9810},
		{Timestamp: 23_000, Latitude: 28.2111, Longitude: 83.9811},
		{Timestamp: 45_000, Latitude: 28.2120, Longitude: 83.9822},
		{Timestamp: 90_000, Latitude: 28.2200, Longitude: 83.9900},
		{Timestamp: 130_000, Latitude: 28.2130, Longitude: 83.9830},
	}
	want := Process(sorted, nil).Fixes

	shuffled := slices.Clone(sorted)
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		before := slices.Clone(shuffled)
		got := Process(shuffled, nil).Fixes
		if !slices.Equal(got, want) {
			t.Fatalf("shuffled input %v gave %v, want %v", shuffled, got, want)
		}
		if !slices.Equal(before, shuffled) {
			t.Fatal("input was modified")
		}
	}
	if got := want[0]; got != sorted[0] {
		t.Errorf("expected first sorted fix kept, got %v", got)
	}
}

func TestProcess_DropsInvalid(t *testing.T) {
	in := append([]fix.Fix{{Timestamp: -1, Latitude: 95, Longitude: 0}}, scenario...)
	p := Process(in, nil)
	if p.Invalid != 1 {
		t.Errorf("expected 1 invalid, got %d", p.Invalid)
	}
	if p.Fixes[0] != scenario[0] {
		t.Errorf("expected first valid fix to seed the path, got %v", p.Fixes[0])
	}
}

func TestProcess_Insufficient(t *testing.T) {
	for _, in := range [][]fix.Fix{nil, scenario[:1], scenario[:2]} {
		p := Process(in, nil)
		if p.Fixes == nil {
			t.Fatal("expected non-nil fixes")
		}
		if p.Sufficient() {
			t.Errorf("expected insufficient path for %v", in)
		}
		if !errors.Is(p.Err(), ErrInsufficientPoints) {
			t.Errorf("expected ErrInsufficientPoints, got %v", p.Err())
		}
		if _, err := p.FeatureCollection(); !errors.Is(err, ErrInsufficientPoints) {
			t.Errorf("expected ErrInsufficientPoints from FeatureCollection, got %v", err)
		}
	}
}

func TestProcess_Smoothing(t *testing.T) {
	opts := DefaultOptions()
	opts.Smoother = smooth.NewGain(nil)
	in := []fix.Fix{
		{Timestamp: 0, Latitude: 28.2100, Longitude: 83.9800},
		{Timestamp: 20_000, Latitude: 28.2110, Longitude: 83.9810},
		{Timestamp: 40_000, Latitude: 28.2120, Longitude: 83.9820},
	}
	p := Process(in, opts)
	if !p.Smoothed {
		t.Fatal("expected smoothed path")
	}
	if len(p.Fixes) != 3 {
		t.Fatalf("expected 3 fixes, got %d", len(p.Fixes))
	}
	if p.Fixes[0] != in[0] {
		t.Error("expected first fix unchanged by smoothing")
	}
	if p.Fixes[1] == in[1] {
		t.Error("expected second fix to be smoothed")
	}
	if unsmoothed := Process(in, nil); unsmoothed.Smoothed || unsmoothed.Fixes[1] != in[1] {
		t.Error("expected default pipeline not to smooth")
	}
}

func TestPath_Summary(t *testing.T) {
	p := Process(scenario, nil)
	s := p.Summary()
	if s.Fixes != 2 {
		t.Errorf("expected 2 fixes, got %d", s.Fixes)
	}
	d := scenario[2].DistanceTo(scenario[0])
	if s.Distance != d {
		t.Errorf("expected distance %v, got %v", d, s.Distance)
	}
	if s.Duration.Seconds() != 20 {
		t.Errorf("expected 20s, got %v", s.Duration)
	}
	if s.SpeedMax <= 0 || s.SpeedMax > 60 || s.SpeedMean != s.SpeedMax {
		t.Errorf("unexpected speeds: %+v", s)
	}
}

func TestPath_FeatureCollection(t *testing.T) {
	p := Process(scenario, nil)
	fc, err := p.FeatureCollection()
	if err != nil {
		t.Fatal(err)
	}
	if len(fc.Features) != 3 {
		t.Fatalf("expected 3 features, got %d", len(fc.Features))
	}
	ls, ok := fc.Features[0].Geometry.(orb.LineString)
	if !ok || len(ls) != 2 {
		t.Fatalf("expected 2-point line string, got %v", fc.Features[0].Geometry)
	}
	if role := fc.Features[1].Properties.MustString("role"); role != RoleStart {
		t.Errorf("expected start role, got %q", role)
	}
	if role := fc.Features[2].Properties.MustString("role"); role != RoleEnd {
		t.Errorf("expected end role, got %q", role)
	}
	if !p.Bound().Contains(scenario[0].Point()) || !p.Bound().Contains(scenario[2].Point()) {
		t.Error("expected bound to contain both endpoints")
	}
	if _, err := json.Marshal(fc); err != nil {
		t.Fatal(err)
	}
}
