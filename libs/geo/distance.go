package geo

import "math"

const EarthRadiusMeters = 6371000.0

// DistanceMeters расстояние по большому кругу (формула гаверсинусов).
// Для отсутствующей точки возвращает 0.
func DistanceMeters(from, to *Coordinate) float64 {
	if from == nil || to == nil {
		return 0
	}

	lat1 := toRad(from.Latitude)
	lat2 := toRad(to.Latitude)
	dLat := toRad(to.Latitude - from.Latitude)
	dLon := toRad(to.Longitude - from.Longitude)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

func IsWithinDistance(from, to *Coordinate, maxMeters float64) bool {
	return DistanceMeters(from, to) <= maxMeters
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
