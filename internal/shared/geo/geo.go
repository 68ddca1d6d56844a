package geo

import "math"

const EarthRadiusMeters = 6371000.0

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// DistanceMeters returns the great-circle distance between two points using
// the haversine formula.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

type Fence struct {
	Enabled      bool
	CenterLat    float64
	CenterLong   float64
	RadiusMeters float64
}

// Contains reports whether the point is inside the fence. A disabled fence
// contains everything.
func (f Fence) Contains(lat, long float64) bool {
	if !f.Enabled {
		return true
	}
	return DistanceMeters(f.CenterLat, f.CenterLong, lat, long) <= f.RadiusMeters
}

func (f Fence) Distance(lat, long float64) float64 {
	return DistanceMeters(f.CenterLat, f.CenterLong, lat, long)
}
