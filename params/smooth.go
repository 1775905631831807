package params

// GainConfig holds the noise constants of the gain smoother.
type GainConfig struct {
	// ProcessNoise (Q) is added to the uncertainty on every step.
	ProcessNoise float64
	// MeasurementNoise (R) weighs new fixes against the running estimate.
	MeasurementNoise float64
	// InitialGain is used when the previous point carries no uncertainty.
	InitialGain float64
}

func DefaultGainConfig() *GainConfig {
	return &GainConfig{
		ProcessNoise:     1e-5,
		MeasurementNoise: 1e-4,
		InitialGain:      0.5,
	}
}

// KalmanConfig parameterizes the geo Kalman smoother's process noise.
type KalmanConfig struct {
	// DistancePerSecond is how far we expect a bus to move, m/s.
	DistancePerSecond float64
	// SpeedPerSecond is how much we expect its speed to change, m/s^2.
	SpeedPerSecond float64
	// HorizontalAccuracy is the assumed accuracy of reported fixes, meters.
	HorizontalAccuracy float64
}

func DefaultKalmanConfig() *KalmanConfig {
	return &KalmanConfig{
		DistancePerSecond:  13.9,
		SpeedPerSecond:     1.5,
		HorizontalAccuracy: 10,
	}
}
