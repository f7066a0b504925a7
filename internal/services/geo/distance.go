package geo

import (
	"fmt"
	"math"

	"github.com/neopath7/pethoria-matchpage-server/internal/domain/errs"
)

const (
	earthRadiusMiles = 3959.0
	earthRadiusKM    = 6371.0

	// MetersPerMile is kept at 1609.34 for parity with stored radius queries.
	MetersPerMile = 1609.34

	// EarthRadiusMeters is the sphere displayed distances are measured on.
	// Store-side radius filters must use it too.
	EarthRadiusMeters = earthRadiusMiles * MetersPerMile
)

// DistanceMiles returns the great-circle distance between two points in miles.
func DistanceMiles(lat1, lon1, lat2, lon2 float64) (float64, error) {
	if err := ValidateCoordinates(lat1, lon1); err != nil {
		return 0, err
	}
	if err := ValidateCoordinates(lat2, lon2); err != nil {
		return 0, err
	}
	if lat1 == lat2 && lon1 == lon2 {
		return 0, nil
	}
	return haversine(lat1, lon1, lat2, lon2, earthRadiusMiles), nil
}

func MilesToMeters(miles float64) float64 {
	return miles * MetersPerMile
}

func FormatMiles(miles float64) string {
	return fmt.Sprintf("%.1f miles away", miles)
}

func ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return errs.Invalid("coordinates", "not a finite number")
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return errs.Invalid("coordinates", "out of range")
	}
	return nil
}

func haversine(lat1, lon1, lat2, lon2, radius float64) float64 {
	toRad := func(v float64) float64 { return v * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return radius * c
}
