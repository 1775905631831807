package fix

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/paulmach/orb"
	"github.com/rotblauer/bustrack/common"
)

var (
	ErrMissingCoordinates = errors.New("missing latitude or longitude")
	ErrMissingTimestamp   = errors.New("missing timestamp")
)

// Fix is one reported position of a bus.
// Raw fixes and fixes that survived cleaning share this type;
// cleaning selects fixes and never mutates them.
type Fix struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	// Timestamp is milliseconds since the Unix epoch.
	Timestamp int64 `json:"timestamp"`
}

// Fixes is a chronological (or about to be) sequence of fixes.
type Fixes []Fix

// Point returns the fix as an orb point (x,y::lng,lat).
func (f Fix) Point() orb.Point {
	return orb.Point{f.Longitude, f.Latitude}
}

func (f Fix) Time() time.Time {
	return time.UnixMilli(f.Timestamp)
}

// DistanceTo returns the great-circle distance to other, in meters.
func (f Fix) DistanceTo(other Fix) float64 {
	return common.Haversine(f.Point(), other.Point())
}

// Elapsed returns the time from prev to f.
func (f Fix) Elapsed(prev Fix) time.Duration {
	return time.Duration(f.Timestamp-prev.Timestamp) * time.Millisecond
}

// Validate checks that both coordinates are finite and in range.
// Timestamps are resolved (or rejected) at ingestion; see FromRecord.
func (f Fix) Validate() error {
	if !common.IsFinite(f.Latitude) || !common.IsFinite(f.Longitude) {
		return fmt.Errorf("non-finite coordinate: lat=%v lng=%v", f.Latitude, f.Longitude)
	}
	if f.Latitude < -90 || f.Latitude > 90 {
		return fmt.Errorf("invalid coordinate: lat=%.14f", f.Latitude)
	}
	if f.Longitude < -180 || f.Longitude > 180 {
		return fmt.Errorf("invalid coordinate: lng=%.14f", f.Longitude)
	}
	return nil
}

func (f Fix) String() string {
	return fmt.Sprintf("%s [%v,%v]",
		f.Time().UTC().Format(time.RFC3339),
		common.DecimalToFixed(f.Latitude, common.GPSPrecision6),
		common.DecimalToFixed(f.Longitude, common.GPSPrecision6))
}

// SortFunc orders fixes chronologically, for use with slices.SortStableFunc.
func SortFunc(a, b Fix) int {
	if a.Timestamp < b.Timestamp {
		return -1
	}
	if a.Timestamp > b.Timestamp {
		return 1
	}
	return 0
}

// Smoothed is a fix produced by the gain smoother.
// Uncertainty is threaded from one step to the next.
type Smoothed struct {
	Fix
	Uncertainty    float64 `json:"uncertainty"`
	HasUncertainty bool    `json:"-"`
}

// Speed returns the implied speed, in m/s, of moving from prev to f.
// NaN is returned when no time elapsed.
func (f Fix) Speed(prev Fix) float64 {
	seconds := f.Elapsed(prev).Seconds()
	if seconds <= 0 {
		return math.NaN()
	}
	return f.DistanceTo(prev) / seconds
}
