package geospatial

import "math"

const (
	earthRadiusKm = 6371.0
	tileSize      = 256.0
)

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c * 1000 // meters
}

// FitZoom returns the largest Web Mercator zoom level at which the box fits a
// viewport of widthPx x heightPx, clamped to [0, maxZoom].
func FitZoom(minLat, minLon, maxLat, maxLon float64, widthPx, heightPx, maxZoom int) int {
	lonFrac := (maxLon - minLon) / 360
	latFrac := (mercatorY(maxLat) - mercatorY(minLat)) / (2 * math.Pi)

	zoom := float64(maxZoom)
	if lonFrac > 0 {
		zoom = math.Min(zoom, math.Log2(float64(widthPx)/tileSize/lonFrac))
	}
	if latFrac > 0 {
		zoom = math.Min(zoom, math.Log2(float64(heightPx)/tileSize/latFrac))
	}

	z := int(math.Floor(zoom))
	if z < 0 {
		return 0
	}
	if z > maxZoom {
		return maxZoom
	}
	return z
}

func mercatorY(lat float64) float64 {
	// Web Mercator is undefined at the poles.
	lat = math.Max(math.Min(lat, 85.0511), -85.0511)
	return math.Log(math.Tan(math.Pi/4 + toRad(lat)/2))
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
