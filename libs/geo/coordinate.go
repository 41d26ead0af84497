package geo

// Coordinate точка в градусах WGS-84.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// RawCoordinate координаты в том виде, в котором их присылают устройства и фронтенд:
// поля lat/lng или latitude/longitude, любое из них может отсутствовать.
type RawCoordinate struct {
	Lat       *float64 `json:"lat,omitempty"`
	Lng       *float64 `json:"lng,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// Normalize lat важнее latitude, lng важнее longitude, отсутствующее значение равно 0.
func (r RawCoordinate) Normalize() Coordinate {
	return Coordinate{
		Latitude:  firstOf(r.Lat, r.Latitude),
		Longitude: firstOf(r.Lng, r.Longitude),
	}
}

// HasPosition хотя бы одна из осей присутствует.
func (r RawCoordinate) HasPosition() bool {
	return (r.Lat != nil || r.Latitude != nil) && (r.Lng != nil || r.Longitude != nil)
}

func firstOf(values ...*float64) float64 {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return 0
}
