package api

import (
	"errors"
	"time"

	"github.com/rotblauer/bustrack/common"
	"github.com/rotblauer/bustrack/params"
	"github.com/rotblauer/bustrack/state"
	"github.com/rotblauer/bustrack/types/fix"
)

var ErrNoLocation = errors.New("no known location")

// LastKnown returns the latest fix of the bus, from cache or store.
func (b *Bus) LastKnown() (fix.Fix, error) {
	if f, ok := b.svc.Caches.GetLastKnown(b.BusID); ok {
		return f, nil
	}
	last, err := b.svc.Store.Last(b.BusID, 1)
	if errors.Is(err, state.ErrNoBus) || (err == nil && len(last) == 0) {
		return fix.Fix{}, ErrNoLocation
	}
	if err != nil {
		return fix.Fix{}, err
	}
	b.svc.Caches.SetLastKnown(b.BusID, last[0])
	return last[0], nil
}

// Status is the live view of a bus for dashboards.
type Status struct {
	BusID   string            `json:"bus"`
	Details *state.BusDetails `json:"details,omitempty"`
	Last    fix.Fix           `json:"last"`
	Age     time.Duration     `json:"age"`

	// Stored is the number of stored fixes of the bus.
	Stored int `json:"stored"`

	// SpeedKmh is derived from the last two stored fixes.
	// It is unset (HasSpeed false) with fewer than two fixes or no time between them.
	SpeedKmh float64 `json:"speed_kmh,omitempty"`
	HasSpeed bool    `json:"has_speed"`

	// SpeedWarning flags speed above params.SpeedWarningKmh.
	// It is for display only; it filters nothing.
	SpeedWarning bool `json:"speed_warning"`
}

// Status returns the live status of the bus.
func (b *Bus) Status() (*Status, error) {
	last, err := b.svc.Store.Last(b.BusID, 2)
	if errors.Is(err, state.ErrNoBus) || (err == nil && len(last) == 0) {
		return nil, ErrNoLocation
	}
	if err != nil {
		return nil, err
	}
	st := &Status{BusID: b.BusID.String(), Last: last[len(last)-1]}
	if d, err := b.svc.Store.Details(b.BusID); err == nil {
		st.Details = &d
	}
	st.Age = time.Since(st.Last.Time()).Round(time.Second)
	if st.Stored, err = b.svc.Store.Count(b.BusID); err != nil {
		return nil, err
	}
	if len(last) == 2 {
		st.SpeedKmh, st.HasSpeed = SpeedBetween(last[0], last[1])
		st.SpeedWarning = st.HasSpeed && st.SpeedKmh > params.SpeedWarningKmh
	}
	return st, nil
}

// SpeedBetween returns the speed in km/h from prev to current.
func SpeedBetween(prev, current fix.Fix) (float64, bool) {
	return common.SpeedKmh(current.DistanceTo(prev), current.Elapsed(prev).Seconds())
}
