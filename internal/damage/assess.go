// Package damage turns an earthquake and a building into physical damage,
// a damage state, a combined social/physical vulnerability score, and a
// recovery estimate. Everything here is a pure function of its arguments and
// safe to call from any number of goroutines.
package damage

import (
	"github.com/mr1hm/go-quake-impact/internal/geo"
	"github.com/mr1hm/go-quake-impact/internal/models"
)

const (
	// damageScale converts g × height factor / resistance into percent.
	damageScale = 200.0
	// socialNormalizer centers the social multiplier for the combined score.
	socialNormalizer = 1.5
)

// Assess estimates the final damage to b from e.
func Assess(b models.Building, e models.Earthquake) models.DamageAssessment {
	distance := geo.Distance(b.Latitude, b.Longitude, e.EpicenterLat, e.EpicenterLon)

	pga := e.GroundAcceleration(distance)
	mmi := e.Intensity(distance)

	resistance := b.StructuralResistance()
	heightVuln := b.HeightVulnerability()

	physical := clampPercent(pga * heightVuln * damageScale / resistance)
	state := Classify(physical)

	social := b.SocialVulnerabilityMultiplier()

	return models.DamageAssessment{
		BuildingID:                    b.ID,
		DistanceKm:                    distance,
		PGA:                           pga,
		MMI:                           mmi,
		PhysicalDamagePercent:         physical,
		DamageState:                   state,
		StructuralResistance:          resistance,
		HeightVulnerability:           heightVuln,
		SocialVulnerabilityMultiplier: social,
		CombinedVulnerabilityScore:    physical * (social / socialNormalizer),
		EstimatedRecoveryDays:         state.BaseRecoveryDays() * social,
	}
}

// Classify maps a damage percentage onto a damage state. Each threshold is
// inclusive on its lower bound: exactly 5.0 is Slight.
func Classify(percent float64) models.DamageState {
	switch {
	case percent < 5:
		return models.DamageNone
	case percent < 15:
		return models.DamageSlight
	case percent < 30:
		return models.DamageModerate
	case percent < 60:
		return models.DamageExtensive
	case percent < 90:
		return models.DamageSevere
	default:
		return models.DamageCollapse
	}
}

func clampPercent(v float64) float64 {
	return min(100, max(0, v))
}
