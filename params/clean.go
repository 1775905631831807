package params

import "time"

// OutlierConfig bounds the plausibility checks a fix must pass,
// relative to the last kept fix, to be kept in a path.
type OutlierConfig struct {
	// MinDistance is the jitter floor, in meters.
	// Fixes closer than this to the last kept fix are GPS noise.
	MinDistance float64

	// MaxDistance is the teleport ceiling, in meters.
	MaxDistance float64

	// MinInterval drops duplicate and rapid-fire reports.
	MinInterval time.Duration

	// MaxSpeedKmh is the highest implied speed, in km/h, a kept fix may represent.
	// Calibrated for an urban bus route.
	// This is a data cleaning bound; see SpeedWarningKmh for the display threshold.
	MaxSpeedKmh float64
}

func DefaultOutlierConfig() *OutlierConfig {
	return &OutlierConfig{
		MinDistance: 5,
		MaxDistance: 500,
		MinInterval: 10 * time.Second,
		MaxSpeedKmh: 60,
	}
}
