package models

import "time"

// Event sources.
const (
	SourceManual = "manual"
	SourceUSGS   = "usgs"
	SourceGDACS  = "gdacs"
)

// SeismicEvent is an earthquake reported by an external feed.
type SeismicEvent struct {
	ID          string // Unique ID from source (e.g., "usgs_nc73649170")
	Source      string
	Title       string
	Description string
	Magnitude   float64
	Latitude    float64
	Longitude   float64
	DepthKm     float64
	Timestamp   time.Time // when the event occurred
	ReportURL   string
	Raw         []byte    // original JSON/XML for debugging
	CreatedAt   time.Time // when we ingested it
}

// Earthquake converts the feed event into a scenario input.
func (e *SeismicEvent) Earthquake() Earthquake {
	return Earthquake{
		Magnitude:    e.Magnitude,
		EpicenterLat: e.Latitude,
		EpicenterLon: e.Longitude,
		DepthKm:      e.DepthKm,
		FaultName:    e.Title,
	}
}

// ScenarioRun is a persisted assessment of the whole catalogue against one
// earthquake.
type ScenarioRun struct {
	ID         string     `json:"id"`
	Source     string     `json:"source"`
	Title      string     `json:"title"`
	Earthquake Earthquake `json:"earthquake"`
	OccurredAt time.Time  `json:"occurred_at"`
	Summary    Summary    `json:"summary"`
	Results    []Result   `json:"results,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Preset is a named epicenter offered to scenario builders.
type Preset struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
