package common

import (
	"math"

	"github.com/paulmach/orb"
)

// EarthRadiusMean is the mean radius of the earth, in meters.
// Note that orb.EarthRadius is the equatorial radius (6378137),
// so geo.Distance reports slightly longer distances than Haversine.
const EarthRadiusMean = 6371000.0

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Haversine returns the great-circle distance between a and b in meters.
// Points are orb (x,y::lng,lat) points in degrees.
// Coordinates are not range checked; callers validate upstream.
func Haversine(a, b orb.Point) float64 {
	phi1 := radians(a.Lat())
	phi2 := radians(b.Lat())
	dPhi := radians(b.Lat() - a.Lat())
	dLambda := radians(b.Lon() - a.Lon())

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	h := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda

	return EarthRadiusMean * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
