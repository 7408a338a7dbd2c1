package models

import "fmt"

// BuildingType is the structural category used to look up base resistance.
type BuildingType string

const (
	BuildingTypeWood          BuildingType = "wood"           // light wood frame
	BuildingTypeMasonry       BuildingType = "masonry"        // unreinforced masonry
	BuildingTypeConcrete      BuildingType = "concrete"       // reinforced concrete
	BuildingTypeSteel         BuildingType = "steel"          // steel frame
	BuildingTypeModernSeismic BuildingType = "modern_seismic" // built to modern seismic code
)

// ReferenceYear is the year building age is measured against.
const ReferenceYear = 2025

const (
	defaultResistance = 0.5
	minResistance     = 0.1
	maxAgePenalty     = 0.3
	agePenaltyPerYear = 0.005
)

// BaseResistance returns the category's resistance before the age penalty.
// Unknown categories get 0.5.
func (t BuildingType) BaseResistance() float64 {
	switch t {
	case BuildingTypeWood:
		return 0.4
	case BuildingTypeMasonry:
		return 0.3
	case BuildingTypeConcrete:
		return 0.6
	case BuildingTypeSteel:
		return 0.7
	case BuildingTypeModernSeismic:
		return 0.9
	default:
		return defaultResistance
	}
}

// Known reports whether t is one of the enumerated categories.
func (t BuildingType) Known() bool {
	switch t {
	case BuildingTypeWood, BuildingTypeMasonry, BuildingTypeConcrete, BuildingTypeSteel, BuildingTypeModernSeismic:
		return true
	}
	return false
}

// Building is a catalogue entry. Social fields are zero when unknown.
type Building struct {
	ID        int          `json:"id"`
	Name      string       `json:"name"`
	Type      BuildingType `json:"building_type"`
	Stories   int          `json:"stories"`
	YearBuilt int          `json:"year_built"`
	Latitude  float64      `json:"latitude"`
	Longitude float64      `json:"longitude"`

	ElderlyPercent    float64 `json:"elderly_percent"`
	PovertyPercent    float64 `json:"poverty_percent"`
	PopulationDensity float64 `json:"population_density"` // people per sq mile
	SoVIScore         float64 `json:"sovi_score"`         // [0,1]
}

// StructuralResistance returns the resistance factor in [0.1, 0.9]: the
// category base minus 0.005 per year of age (capped at 0.3), floored at 0.1.
// Buildings dated after ReferenceYear carry no penalty.
func (b Building) StructuralResistance() float64 {
	age := float64(ReferenceYear - b.YearBuilt)
	if age < 0 {
		age = 0
	}
	penalty := min(maxAgePenalty, age*agePenaltyPerYear)

	return max(minResistance, b.Type.BaseResistance()-penalty)
}

// HeightVulnerability is 0.8 up to 3 stories, 1.0 up to 10, and 1.2 above.
func (b Building) HeightVulnerability() float64 {
	switch {
	case b.Stories <= 3:
		return 0.8
	case b.Stories <= 10:
		return 1.0
	default:
		return 1.2
	}
}

// SocialVulnerabilityMultiplier scales recovery time for social barriers.
// Result is in [1.0, 2.0].
func (b Building) SocialVulnerabilityMultiplier() float64 {
	m := 1.0

	switch {
	case b.ElderlyPercent > 25:
		m += 0.3
	case b.ElderlyPercent > 15:
		m += 0.15
	}

	switch {
	case b.PovertyPercent > 15:
		m += 0.3
	case b.PovertyPercent > 10:
		m += 0.15
	}

	switch {
	case b.PopulationDensity > 10000:
		m += 0.2
	case b.PopulationDensity > 5000:
		m += 0.1
	}

	m += b.SoVIScore * 0.4

	return min(2.0, max(1.0, m))
}

// Validate checks the record before it enters the catalogue. The catalog
// package runs it over every building at load.
func (b Building) Validate() error {
	if b.Stories <= 0 {
		return fmt.Errorf("%w: building %d: stories must be positive, got %d", ErrInvalidParameter, b.ID, b.Stories)
	}
	if b.Latitude < -90 || b.Latitude > 90 {
		return fmt.Errorf("%w: building %d: latitude %.4f outside [-90, 90]", ErrInvalidParameter, b.ID, b.Latitude)
	}
	if b.Longitude < -180 || b.Longitude > 180 {
		return fmt.Errorf("%w: building %d: longitude %.4f outside [-180, 180]", ErrInvalidParameter, b.ID, b.Longitude)
	}
	if b.ElderlyPercent < 0 || b.ElderlyPercent > 100 {
		return fmt.Errorf("%w: building %d: elderly percent %.1f outside [0, 100]", ErrInvalidParameter, b.ID, b.ElderlyPercent)
	}
	if b.PovertyPercent < 0 || b.PovertyPercent > 100 {
		return fmt.Errorf("%w: building %d: poverty percent %.1f outside [0, 100]", ErrInvalidParameter, b.ID, b.PovertyPercent)
	}
	if b.PopulationDensity < 0 {
		return fmt.Errorf("%w: building %d: population density must not be negative", ErrInvalidParameter, b.ID)
	}
	if b.SoVIScore < 0 || b.SoVIScore > 1 {
		return fmt.Errorf("%w: building %d: sovi score %.2f outside [0, 1]", ErrInvalidParameter, b.ID, b.SoVIScore)
	}
	return nil
}
