package models

import (
	"fmt"
	"math"
)

// DefaultFaultName is applied at the boundary when a scenario names no fault.
const DefaultFaultName = "San Andreas Fault"

// Accepted input ranges for scenario earthquakes.
const (
	MinMagnitude = 4.0
	MaxMagnitude = 8.0
	MinDepthKm   = 1.0
	MaxDepthKm   = 30.0
)

// MinDistanceKm floors the hypocentral distance so the attenuation curve
// stays finite at the epicenter.
const MinDistanceKm = 0.1

// Earthquake is a scenario or feed event.
type Earthquake struct {
	Magnitude    float64 `json:"magnitude"` // moment magnitude
	EpicenterLat float64 `json:"epicenter_lat"`
	EpicenterLon float64 `json:"epicenter_lon"`
	DepthKm      float64 `json:"depth_km"`
	FaultName    string  `json:"fault_name,omitempty"`
}

// GroundAcceleration returns the peak ground acceleration in g at the given
// epicentral distance.
func (e Earthquake) GroundAcceleration(distanceKm float64) float64 {
	if distanceKm < MinDistanceKm {
		distanceKm = MinDistanceKm
	}

	base := 0.01 * math.Pow(10, 0.5*(e.Magnitude-4.0))
	attenuation := 1 / math.Pow(distanceKm+5, 1.5)
	depthFactor := 1.0 / (1 + e.DepthKm/20)

	return base * attenuation * depthFactor
}

// Intensity returns the Modified Mercalli-like intensity (1..12) at the given
// epicentral distance.
func (e Earthquake) Intensity(distanceKm float64) int {
	return IntensityFromPGA(e.GroundAcceleration(distanceKm))
}

// ShakeDurationSeconds is how long strong shaking lasts after the S-wave.
func (e Earthquake) ShakeDurationSeconds() float64 {
	return 10 + (e.Magnitude-5)*8
}

// IntensityFromPGA maps acceleration in g onto the 1..12 scale. The
// 0.0017-0.014 g band uses a logarithmic partial step that yields 2 or 3.
func IntensityFromPGA(pga float64) int {
	switch {
	case pga < 0.0017:
		return 1
	case pga < 0.014:
		return 2 + int(math.Log10(pga/0.0017)/math.Log10(8.2))
	case pga < 0.039:
		return 4
	case pga < 0.092:
		return 5
	case pga < 0.18:
		return 6
	case pga < 0.34:
		return 7
	case pga < 0.65:
		return 8
	case pga < 1.24:
		return 9
	default:
		return min(12, 10+int((pga-1.24)/0.5))
	}
}

// Validate rejects scenario inputs outside the supported ranges.
func (e Earthquake) Validate() error {
	if math.IsNaN(e.Magnitude) || e.Magnitude < MinMagnitude || e.Magnitude > MaxMagnitude {
		return fmt.Errorf("%w: magnitude %.2f outside [%.1f, %.1f]", ErrInvalidParameter, e.Magnitude, MinMagnitude, MaxMagnitude)
	}
	if math.IsNaN(e.DepthKm) || e.DepthKm < MinDepthKm || e.DepthKm > MaxDepthKm {
		return fmt.Errorf("%w: depth %.2f km outside [%.0f, %.0f]", ErrInvalidParameter, e.DepthKm, MinDepthKm, MaxDepthKm)
	}
	if math.IsNaN(e.EpicenterLat) || e.EpicenterLat < -90 || e.EpicenterLat > 90 {
		return fmt.Errorf("%w: epicenter latitude %.4f outside [-90, 90]", ErrInvalidParameter, e.EpicenterLat)
	}
	if math.IsNaN(e.EpicenterLon) || e.EpicenterLon < -180 || e.EpicenterLon > 180 {
		return fmt.Errorf("%w: epicenter longitude %.4f outside [-180, 180]", ErrInvalidParameter, e.EpicenterLon)
	}
	return nil
}
