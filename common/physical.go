package common

// All units are in metric:
// - Speed is in m/s unless suffixed Kmh
// - Distance is in meters
// - Time is in seconds

// SpeedKmh returns the speed in km/h for a distance (meters) covered in seconds.
// The second value is false when seconds is not positive, ie. the speed is
// undefined (or infinite).
func SpeedKmh(meters, seconds float64) (float64, bool) {
	if seconds <= 0 {
		return 0, false
	}
	return (meters / 1000) / (seconds / 3600), true
}
