// Package geo holds great-circle helpers shared by the hazard model and the
// feed filters.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used for all distance calculations.
const EarthRadiusKm = 6371.0

// Distance returns the haversine great-circle distance in km between two
// points given in decimal degrees.
//
// Inputs are not range checked. Latitudes outside [-90, 90] or longitudes
// outside [-180, 180] produce a geometrically defined but meaningless result.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := deg2rad(lat1)
	phi2 := deg2rad(lat2)
	dPhi := deg2rad(lat2 - lat1)
	dLambda := deg2rad(lon2 - lon1)

	sinLat := math.Sin(dPhi / 2)
	sinLon := math.Sin(dLambda / 2)

	a := sinLat*sinLat + math.Cos(phi1)*math.Cos(phi2)*sinLon*sinLon
	// Rounding can push a a hair past 1 for antipodal points.
	if a > 1 {
		a = 1
	}
	c := 2 * math.Asin(math.Sqrt(a))

	return EarthRadiusKm * c
}

func deg2rad(d float64) float64 {
	return d * math.Pi / 180.0
}
