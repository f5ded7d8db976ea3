package measure

import "math"

// EarthRadiusMeters is the mean Earth radius used by both the area and distance formulas.
const EarthRadiusMeters = 6371000.0

// Unit conversion factors for display.
const (
	SquareFeetPerSquareMeter = 10.7639
	AcresPerSquareMeter      = 0.000247105
	FeetPerMeter             = 3.28084
	MilesPerMeter            = 0.000621371
)

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// PolygonArea returns the area in square meters of the polygon described by points.
// Vertices are projected onto a local equirectangular plane and summed with the shoelace formula,
// which is accurate for parcel-sized polygons away from the poles.
func PolygonArea(points []LatLng) float64 {
	if len(points) < 3 {
		return 0
	}

	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = toRadians(p.Lng) * EarthRadiusMeters * math.Cos(toRadians(p.Lat))
		ys[i] = toRadians(p.Lat) * EarthRadiusMeters
	}

	var sum float64
	for i := range points {
		j := (i + 1) % len(points)
		sum += xs[i]*ys[j] - xs[j]*ys[i]
	}
	return math.Abs(sum) / 2
}

// Haversine returns the great-circle distance in meters between a and b.
func Haversine(a, b LatLng) float64 {
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Lat))*math.Cos(toRadians(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func SquareMetersToSquareFeet(m2 float64) float64 { return m2 * SquareFeetPerSquareMeter }
func SquareMetersToAcres(m2 float64) float64      { return m2 * AcresPerSquareMeter }
func MetersToFeet(m float64) float64              { return m * FeetPerMeter }
func MetersToMiles(m float64) float64             { return m * MilesPerMeter }
