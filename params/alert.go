package params

// SpeedWarningKmh is the speed above which dashboards flag a bus.
// It is a display threshold only and has no filtering effect;
// it is deliberately separate from OutlierConfig.MaxSpeedKmh.
const SpeedWarningKmh = 60.0

// DefaultProximityRadius is the rider proximity alert radius, in meters.
const DefaultProximityRadius = 500.0
