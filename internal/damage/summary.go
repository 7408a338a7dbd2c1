package damage

import (
	"slices"

	"github.com/mr1hm/go-quake-impact/internal/models"
)

// HighRiskScore is the combined vulnerability score above which a building
// counts towards Summary.HighRiskCount.
const HighRiskScore = 50.0

// Summarize aggregates a result set. Every damage state has a key in
// StateCounts, zero if unused.
func Summarize(results []models.Result) models.Summary {
	s := models.Summary{
		BuildingCount: len(results),
		StateCounts:   make(map[models.DamageState]int, len(models.DamageStates())),
	}
	for _, st := range models.DamageStates() {
		s.StateCounts[st] = 0
	}
	if len(results) == 0 {
		return s
	}

	var damage, social, recovery float64
	for _, r := range results {
		a := r.Assessment
		damage += a.PhysicalDamagePercent
		social += a.SocialVulnerabilityMultiplier
		recovery += a.EstimatedRecoveryDays
		s.StateCounts[a.DamageState]++

		if a.DamageState.Rank() >= models.DamageSevere.Rank() {
			s.SevereOrWorse++
		}
		if a.CombinedVulnerabilityScore > HighRiskScore {
			s.HighRiskCount++
		}
		s.MaxPGA = max(s.MaxPGA, a.PGA)
		s.MaxMMI = max(s.MaxMMI, a.MMI)
	}

	n := float64(len(results))
	s.AvgPhysicalDamage = damage / n
	s.AvgSocialMultiplier = social / n
	s.AvgRecoveryDays = recovery / n
	return s
}

// HighRisk returns results where heavy damage meets a vulnerable community:
// Extensive or worse, plus elderly above 25%, poverty above 15% or SoVI above
// 0.7. Output is sorted by combined score, highest first.
func HighRisk(results []models.Result) []models.Result {
	var out []models.Result
	for _, r := range results {
		if r.Assessment.DamageState.Rank() < models.DamageExtensive.Rank() {
			continue
		}
		b := r.Building
		if b.ElderlyPercent > 25 || b.PovertyPercent > 15 || b.SoVIScore > 0.7 {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b models.Result) int {
		switch {
		case a.Assessment.CombinedVulnerabilityScore > b.Assessment.CombinedVulnerabilityScore:
			return -1
		case a.Assessment.CombinedVulnerabilityScore < b.Assessment.CombinedVulnerabilityScore:
			return 1
		default:
			return 0
		}
	})
	return out
}

// HistogramBin counts recovery estimates in (Low, High].
type HistogramBin struct {
	Label string  `json:"label"`
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count int     `json:"count"`
}

var recoveryBins = []HistogramBin{
	{Label: "<30d", Low: 0, High: 30},
	{Label: "30-90d", Low: 30, High: 90},
	{Label: "90-180d", Low: 90, High: 180},
	{Label: "180-365d", Low: 180, High: 365},
	{Label: ">365d", Low: 365, High: 1000},
}

// RecoveryHistogram bins estimated recovery days. Bins are right-closed, so
// buildings needing no recovery (0 days) fall in none of them.
func RecoveryHistogram(results []models.Result) []HistogramBin {
	bins := slices.Clone(recoveryBins)
	for _, r := range results {
		days := r.Assessment.EstimatedRecoveryDays
		for i := range bins {
			if days > bins[i].Low && days <= bins[i].High {
				bins[i].Count++
				break
			}
		}
	}
	return bins
}

// ColorMode selects which metric drives map colors.
type ColorMode string

const (
	ColorByPhysical ColorMode = "physical"
	ColorBySocial   ColorMode = "social"
	ColorByCombined ColorMode = "combined"
	ColorByRecovery ColorMode = "recovery"
)

// ParseColorMode accepts the four mode names; empty means physical.
func ParseColorMode(s string) (ColorMode, bool) {
	switch m := ColorMode(s); m {
	case "":
		return ColorByPhysical, true
	case ColorByPhysical, ColorBySocial, ColorByCombined, ColorByRecovery:
		return m, true
	default:
		return "", false
	}
}

const (
	bandLow      = "#00ff00"
	bandMedium   = "#ffff00"
	bandHigh     = "#ffa500"
	bandCritical = "#ff4500"
)

func band(v, low, medium, high float64) string {
	switch {
	case v < low:
		return bandLow
	case v < medium:
		return bandMedium
	case v < high:
		return bandHigh
	default:
		return bandCritical
	}
}

// ColorFor returns the map color of r under mode. Physical mode uses the
// damage state palette; the others use four-step bands.
func ColorFor(mode ColorMode, r models.Result) string {
	a := r.Assessment
	switch mode {
	case ColorBySocial:
		return band(a.SocialVulnerabilityMultiplier, 1.2, 1.4, 1.6)
	case ColorByCombined:
		return band(a.CombinedVulnerabilityScore, 20, 40, 60)
	case ColorByRecovery:
		return band(a.EstimatedRecoveryDays, 30, 90, 180)
	default:
		return a.DamageState.Color()
	}
}
