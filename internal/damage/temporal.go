package damage

import (
	"github.com/mr1hm/go-quake-impact/internal/geo"
	"github.com/mr1hm/go-quake-impact/internal/models"
)

// Wave velocities in km/s.
const (
	PWaveVelocity = 6.0
	SWaveVelocity = 3.5
)

// pWaveDamageFactor is the damage fraction shown while only the P-wave has
// arrived.
const pWaveDamageFactor = 0.1

// animationTail is extra time shown after the farthest building settles.
const animationTail = 5.0

// WaveTiming holds arrival times in seconds after rupture.
type WaveTiming struct {
	DistanceKm    float64
	PArrival      float64
	SArrival      float64
	ShakeDuration float64
	ShakeEnd      float64
}

// Timing computes wave arrival for a building at the given distance.
func Timing(e models.Earthquake, distanceKm float64) WaveTiming {
	s := distanceKm / SWaveVelocity
	d := e.ShakeDurationSeconds()
	return WaveTiming{
		DistanceKm:    distanceKm,
		PArrival:      distanceKm / PWaveVelocity,
		SArrival:      s,
		ShakeDuration: d,
		ShakeEnd:      s + d,
	}
}

// AssessAt returns the damage to b at elapsed seconds after rupture. It keeps
// no history, so any sequence of elapsed values (including backwards
// scrubbing) gives the same answers as fresh calls.
func AssessAt(b models.Building, e models.Earthquake, elapsed float64) models.TemporalSnapshot {
	final := Assess(b, e)
	timing := Timing(e, final.DistanceKm)

	var (
		factor float64
		phase  models.WavePhase
	)
	switch {
	case elapsed < timing.PArrival:
		factor = 0
		phase = models.PhasePreArrival
	case elapsed < timing.SArrival:
		factor = pWaveDamageFactor
		phase = models.PhasePWave
	case elapsed < timing.ShakeEnd:
		progress := min(1.0, (elapsed-timing.SArrival)/timing.ShakeDuration)
		factor = progress * (final.PhysicalDamagePercent / 100)
		phase = models.PhaseShaking
	default:
		factor = final.PhysicalDamagePercent / 100
		phase = models.PhaseSettled
	}

	percent := factor * 100
	state := Classify(percent)

	return models.TemporalSnapshot{
		BuildingID:      b.ID,
		BuildingName:    b.Name,
		ElapsedSeconds:  elapsed,
		DistanceKm:      final.DistanceKm,
		PArrivalSeconds: timing.PArrival,
		SArrivalSeconds: timing.SArrival,
		ShakeEndSeconds: timing.ShakeEnd,
		DamagePercent:   percent,
		DamageState:     state,
		Color:           state.Color(),
		Phase:           phase,
		IsShaking:       phase == models.PhaseShaking,
	}
}

// Timeline returns one snapshot per building, in catalogue order.
func Timeline(buildings []models.Building, e models.Earthquake, elapsed float64) []models.TemporalSnapshot {
	out := make([]models.TemporalSnapshot, len(buildings))
	for i, b := range buildings {
		out[i] = AssessAt(b, e, elapsed)
	}
	return out
}

// AnimationDuration is the time span an animated view needs: until the
// farthest building stops shaking, plus a short tail.
func AnimationDuration(buildings []models.Building, e models.Earthquake) float64 {
	var maxDistance float64
	for _, b := range buildings {
		d := geo.Distance(b.Latitude, b.Longitude, e.EpicenterLat, e.EpicenterLon)
		maxDistance = max(maxDistance, d)
	}
	return maxDistance/SWaveVelocity + e.ShakeDurationSeconds() + animationTail
}
