// Package geo holds great-circle helpers for location search.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used by Haversine.
const EarthRadiusKm = 6371.0

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Lat float64
	Lng float64
}

// Valid reports whether p lies within latitude/longitude bounds.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Haversine returns the great-circle distance between a and b in kilometres.
func Haversine(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// BoundingBox returns the lat/lng box enclosing a circle of radiusKm around
// center. It is a cheap SQL pre-filter; Haversine decides. Near the
// antimeridian minLng or maxLng fall outside [-180, 180]; split them with
// LngRanges before querying.
func BoundingBox(center Point, radiusKm float64) (minLat, maxLat, minLng, maxLng float64) {
	dLat := radiusKm / EarthRadiusKm * 180 / math.Pi
	minLat = math.Max(-90, center.Lat-dLat)
	maxLat = math.Min(90, center.Lat+dLat)

	cosLat := math.Cos(center.Lat * math.Pi / 180)
	if cosLat < 1e-9 || maxLat == 90 || minLat == -90 {
		return minLat, maxLat, -180, 180
	}
	dLng := dLat / cosLat
	if dLng >= 180 {
		return minLat, maxLat, -180, 180
	}
	return minLat, maxLat, center.Lng - dLng, center.Lng + dLng
}

// LngRanges maps a longitude interval of less than 360 degrees onto at most
// two intervals inside [-180, 180], splitting at the antimeridian.
func LngRanges(minLng, maxLng float64) [][2]float64 {
	switch {
	case minLng < -180:
		return [][2]float64{{minLng + 360, 180}, {-180, maxLng}}
	case maxLng > 180:
		return [][2]float64{{minLng, 180}, {-180, maxLng - 360}}
	}
	return [][2]float64{{minLng, maxLng}}
}

// InLngRanges reports whether lng lies in one of ranges.
func InLngRanges(lng float64, ranges [][2]float64) bool {
	for _, r := range ranges {
		if lng >= r[0] && lng <= r[1] {
			return true
		}
	}
	return false
}
