package activity

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const earthRadiusKm = 6371.0

// Coordinate is a geographic point in floating point degrees.
type Coordinate struct {
	Lat float64
	Lon float64
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%g, %g)", c.Lat, c.Lon)
}

// ParseCoordinate reads a "(lat, lon)" pair. The surrounding parentheses are
// optional, the two comma-separated floats are not.
func ParseCoordinate(s string) (Coordinate, error) {
	trimmed := strings.TrimSpace(s)
	trimmed = strings.TrimPrefix(trimmed, "(")
	trimmed = strings.TrimSuffix(trimmed, ")")

	parts := strings.Split(trimmed, ",")
	if len(parts) != 2 {
		return Coordinate{}, fmt.Errorf("%w: %q", ErrInvalidCoordinate, s)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: bad latitude in %q", ErrInvalidCoordinate, s)
	}

	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: bad longitude in %q", ErrInvalidCoordinate, s)
	}

	return Coordinate{Lat: lat, Lon: lon}, nil
}

// Distance returns the great-circle distance between two coordinates in
// kilometers, using the haversine formula on a sphere of radius 6371 km.
func Distance(a, b Coordinate) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dlat := radians(b.Lat - a.Lat)
	dlon := radians(b.Lon - a.Lon)

	h := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
