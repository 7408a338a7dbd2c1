package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance_KnownCities(t *testing.T) {
	// San Francisco City Hall to downtown Los Angeles.
	d := Distance(37.7749, -122.4194, 34.0522, -118.2437)
	assert.InDelta(t, 559.12, d, 0.01)
}

func TestDistance_Symmetric(t *testing.T) {
	points := [][2]float64{
		{37.7949, -122.4194},
		{37.7897, -122.3968},
		{37.4636, -122.4286},
		{-33.8688, 151.2093},
		{0, 0},
	}

	for _, a := range points {
		for _, b := range points {
			assert.Equal(t, Distance(a[0], a[1], b[0], b[1]), Distance(b[0], b[1], a[0], a[1]))
		}
	}
}

func TestDistance_IdenticalPointsIsZero(t *testing.T) {
	assert.Equal(t, 0.0, Distance(37.7949, -122.4194, 37.7949, -122.4194))
	assert.Equal(t, 0.0, Distance(0, 0, 0, 0))
}

func TestDistance_Antipodal(t *testing.T) {
	d := Distance(0, 0, 0, 180)
	assert.InDelta(t, EarthRadiusKm*3.141592653589793, d, 1e-6)
}

func TestDistance_OneDegreeLatitude(t *testing.T) {
	assert.InDelta(t, 111.19, Distance(0, 0, 1, 0), 0.01)
}
