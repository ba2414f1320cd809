package geo

import "math"

// Mean Earth radius of the spherical approximation, in meters.
const earthRadiusMeters = 6371000.0

type Point struct {
	Lat float64
	Lon float64
}

// Distance returns the great-circle distance between a and b in meters,
// computed with the haversine formula. Same inputs always produce the same
// output; callers rely on that for threshold tests.
func Distance(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}

// WithinRadius reports whether b lies within radiusMeters of a.
func WithinRadius(a, b Point, radiusMeters float64) bool {
	return Distance(a, b) <= radiusMeters
}

// ValidCoordinates reports whether lat/lon fall in the valid WGS84 ranges.
func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// BoundingBox returns latitude and longitude bounds of a box that fully
// contains the circle of radiusMeters around p. It is a coarse prefilter for
// candidate queries; callers still apply the exact Distance test. The
// longitude span blows up near the poles, so it is clamped to the full range.
func BoundingBox(p Point, radiusMeters float64) (minLat, maxLat, minLon, maxLon float64) {
	dLat := radiusMeters / earthRadiusMeters * 180 / math.Pi

	cosLat := math.Cos(p.Lat * math.Pi / 180)
	dLon := 180.0
	if cosLat > 1e-9 {
		dLon = dLat / cosLat
	}

	minLat = math.Max(p.Lat-dLat, -90)
	maxLat = math.Min(p.Lat+dLat, 90)
	minLon = math.Max(p.Lon-dLon, -180)
	maxLon = math.Min(p.Lon+dLon, 180)
	return minLat, maxLat, minLon, maxLon
}
