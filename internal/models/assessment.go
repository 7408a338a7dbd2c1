package models

// DamageState is the HAZUS-style six-level damage classification.
type DamageState string

const (
	DamageNone      DamageState = "None"
	DamageSlight    DamageState = "Slight"
	DamageModerate  DamageState = "Moderate"
	DamageExtensive DamageState = "Extensive"
	DamageSevere    DamageState = "Severe"
	DamageCollapse  DamageState = "Collapse"
)

// DamageStates lists every state from least to most severe.
func DamageStates() []DamageState {
	return []DamageState{DamageNone, DamageSlight, DamageModerate, DamageExtensive, DamageSevere, DamageCollapse}
}

// BaseRecoveryDays is the recovery time before the social multiplier.
func (s DamageState) BaseRecoveryDays() float64 {
	switch s {
	case DamageSlight:
		return 7
	case DamageModerate:
		return 30
	case DamageExtensive:
		return 90
	case DamageSevere:
		return 180
	case DamageCollapse:
		return 365
	default:
		return 0
	}
}

// Color is the map color used by every presentation surface.
func (s DamageState) Color() string {
	switch s {
	case DamageNone:
		return "#00ff00"
	case DamageSlight:
		return "#adff2f"
	case DamageModerate:
		return "#ffff00"
	case DamageExtensive:
		return "#ffa500"
	case DamageSevere:
		return "#ff4500"
	case DamageCollapse:
		return "#8b0000"
	default:
		return "#808080"
	}
}

// Rank orders states; None is 0 and Collapse is 5. Unknown states rank -1.
func (s DamageState) Rank() int {
	for i, st := range DamageStates() {
		if st == s {
			return i
		}
	}
	return -1
}

// DamageAssessment is the estimator output for one building and one event.
type DamageAssessment struct {
	BuildingID                    int         `json:"building_id"`
	DistanceKm                    float64     `json:"distance_km"`
	PGA                           float64     `json:"pga_g"`
	MMI                           int         `json:"mmi"`
	PhysicalDamagePercent         float64     `json:"physical_damage_percent"`
	DamageState                   DamageState `json:"damage_state"`
	StructuralResistance          float64     `json:"structural_resistance"`
	HeightVulnerability           float64     `json:"height_vulnerability"`
	SocialVulnerabilityMultiplier float64     `json:"social_vulnerability_multiplier"`
	CombinedVulnerabilityScore    float64     `json:"combined_vulnerability_score"`
	EstimatedRecoveryDays         float64     `json:"estimated_recovery_days"`
}

// WavePhase names the stage of shaking a building is in.
type WavePhase string

const (
	PhasePreArrival WavePhase = "pre_arrival"
	PhasePWave      WavePhase = "p_wave"
	PhaseShaking    WavePhase = "shaking"
	PhaseSettled    WavePhase = "settled"
)

// TemporalSnapshot is the damage state of one building at an elapsed time
// after rupture.
type TemporalSnapshot struct {
	BuildingID      int         `json:"building_id"`
	BuildingName    string      `json:"building_name"`
	ElapsedSeconds  float64     `json:"elapsed_seconds"`
	DistanceKm      float64     `json:"distance_km"`
	PArrivalSeconds float64     `json:"p_arrival_time"`
	SArrivalSeconds float64     `json:"s_arrival_time"`
	ShakeEndSeconds float64     `json:"shake_end_time"`
	DamagePercent   float64     `json:"damage_percent"`
	DamageState     DamageState `json:"damage_state"`
	Color           string      `json:"color"`
	Phase           WavePhase   `json:"phase"`
	IsShaking       bool        `json:"is_shaking"`
}

// Result is one row of a batch run: an assessment tagged with its event.
type Result struct {
	EarthquakeIndex int              `json:"earthquake_id"`
	Magnitude       float64          `json:"magnitude"`
	FaultName       string           `json:"fault_name"`
	Building        Building         `json:"building"`
	Assessment      DamageAssessment `json:"assessment"`
}

// Summary aggregates a result set the way the dashboards report it.
type Summary struct {
	BuildingCount       int                 `json:"building_count"`
	AvgPhysicalDamage   float64             `json:"avg_physical_damage"`
	SevereOrWorse       int                 `json:"severe_or_worse"`
	AvgSocialMultiplier float64             `json:"avg_social_multiplier"`
	AvgRecoveryDays     float64             `json:"avg_recovery_days"`
	HighRiskCount       int                 `json:"high_risk_count"`
	MaxPGA              float64             `json:"max_pga_g"`
	MaxMMI              int                 `json:"max_mmi"`
	StateCounts         map[DamageState]int `json:"state_counts"`
}
