package models

import "time"

type AlertSeverity string

const (
	AlertSeverityLow      AlertSeverity = "LOW"
	AlertSeverityModerate AlertSeverity = "MODERATE"
	AlertSeverityHigh     AlertSeverity = "HIGH"
	AlertSeverityCritical AlertSeverity = "CRITICAL"
)

// SeverityForScore bands a combined vulnerability score.
func SeverityForScore(score float64) AlertSeverity {
	switch {
	case score < 20:
		return AlertSeverityLow
	case score < 40:
		return AlertSeverityModerate
	case score < 60:
		return AlertSeverityHigh
	default:
		return AlertSeverityCritical
	}
}

// Raises reports whether the severity warrants a stored alert.
func (s AlertSeverity) Raises() bool {
	return s == AlertSeverityHigh || s == AlertSeverityCritical
}

type Alert struct {
	ID            string        `json:"id"`
	RunID         string        `json:"run_id"`
	BuildingID    int           `json:"building_id"`
	BuildingName  string        `json:"building_name"`
	Severity      AlertSeverity `json:"severity"`
	CombinedScore float64       `json:"combined_vulnerability_score"`
	RecoveryDays  float64       `json:"estimated_recovery_days"`
	CreatedAt     time.Time     `json:"created_at"`
}
