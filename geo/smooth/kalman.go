package smooth

import (
	"log/slog"
	"math"

	"github.com/paulmach/orb/geo"
	rkalman "github.com/regnull/kalman"
	"github.com/rotblauer/bustrack/params"
	"github.com/rotblauer/bustrack/types/fix"
)

// Kalman smooths with a constant-velocity geo Kalman filter.
// Speed and direction observations are derived from consecutive fixes,
// since buses report positions only.
type Kalman struct {
	Config *params.KalmanConfig
}

func NewKalman(config *params.KalmanConfig) *Kalman {
	if config == nil {
		config = params.DefaultKalmanConfig()
	}
	return &Kalman{Config: config}
}

func (k *Kalman) newFilter(latitude float64) (*rkalman.GeoFilter, error) {
	return rkalman.NewGeoFilter(&rkalman.GeoProcessNoise{
		// Bus routes are small enough to disregard the earth's curvature.
		BaseLat:           latitude,
		DistancePerSecond: k.Config.DistancePerSecond,
		SpeedPerSecond:    k.Config.SpeedPerSecond,
	})
}

// Smooth returns the filter's estimate after observing each fix.
// If the filter cannot be built or rejects an observation,
// the raw fix is passed through for that step.
func (k *Kalman) Smooth(fixes []fix.Fix) []fix.Fix {
	out := make([]fix.Fix, 0, len(fixes))
	if len(fixes) == 0 {
		return out
	}
	filter, err := k.newFilter(fixes[0].Latitude)
	if err != nil {
		slog.Error("Failed to initialize Kalman filter", "error", err)
		return append(out, fixes...)
	}

	prev := fixes[0]
	for i, current := range fixes {
		seconds := current.Elapsed(prev).Seconds()
		speed, direction := 0.0, 0.0
		if i > 0 && seconds > 0 {
			speed = current.Speed(prev)
			direction = math.Mod(geo.Bearing(prev.Point(), current.Point())+360, 360)
		}
		err := filter.Observe(seconds, &rkalman.GeoObserved{
			Lat:                current.Latitude,
			Lng:                current.Longitude,
			Speed:              speed,
			SpeedAccuracy:      1.0,
			Direction:          direction,
			DirectionAccuracy:  0,
			HorizontalAccuracy: k.Config.HorizontalAccuracy,
			VerticalAccuracy:   k.Config.HorizontalAccuracy,
		})
		prev = current
		if err != nil {
			slog.Warn("Kalman.Observe failed", "error", err, "fix", current)
			out = append(out, current)
			continue
		}
		estimate := filter.Estimate()
		if estimate == nil || math.IsNaN(estimate.Lat) || math.IsNaN(estimate.Lng) {
			out = append(out, current)
			continue
		}
		out = append(out, fix.Fix{
			Latitude:  estimate.Lat,
			Longitude: estimate.Lng,
			Timestamp: current.Timestamp,
		})
	}
	return out
}
