package repository

import (
	"context"
	"time"

	"github.com/mr1hm/go-quake-impact/internal/models"
)

type Filter struct {
	Limit        int
	Offset       int
	Since        *time.Time // occurred at or after
	Source       *string
	MinMagnitude *float64
	Severity     *models.AlertSeverity // alerts only
}

type RunRepository interface {
	// SaveRun stores the run, its results and its alerts in one transaction.
	SaveRun(ctx context.Context, run *models.ScenarioRun, alerts []models.Alert) error
	// GetRun returns nil, nil when no run has the ID.
	GetRun(ctx context.Context, id string) (*models.ScenarioRun, error)
	Exists(ctx context.Context, id string) (bool, error)
	// ListRuns returns runs newest first, without per-building results.
	ListRuns(ctx context.Context, opts Filter) ([]models.ScenarioRun, error)
}

type AlertRepository interface {
	GetByRunID(ctx context.Context, runID string) ([]models.Alert, error)
	ListAlerts(ctx context.Context, opts Filter) ([]models.Alert, error)
}
