// Package scenario runs the building catalogue against one earthquake and
// delivers the result: persisted, streamed, published.
package scenario

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/mr1hm/go-quake-impact/internal/batch"
	"github.com/mr1hm/go-quake-impact/internal/damage"
	"github.com/mr1hm/go-quake-impact/internal/models"
	"github.com/mr1hm/go-quake-impact/internal/observability"
	"github.com/mr1hm/go-quake-impact/internal/repository"
)

type Broadcaster interface {
	Broadcast(run *models.ScenarioRun) int
}

type Publisher interface {
	Publish(ctx context.Context, run *models.ScenarioRun) (int, error)
}

// Request describes one run. Only Earthquake is required.
type Request struct {
	ID         string
	Source     string
	Title      string
	Earthquake models.Earthquake
	OccurredAt time.Time
}

type Service struct {
	buildings   []models.Building
	runs        repository.RunRepository
	broadcaster Broadcaster
	publisher   Publisher
	metrics     *observability.Metrics
	clock       clockwork.Clock
	workers     int
	logger      *slog.Logger
}

type Option func(*Service)

func WithBroadcaster(b Broadcaster) Option { return func(s *Service) { s.broadcaster = b } }
func WithPublisher(p Publisher) Option     { return func(s *Service) { s.publisher = p } }
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}
func WithClock(c clockwork.Clock) Option { return func(s *Service) { s.clock = c } }
func WithWorkers(n int) Option           { return func(s *Service) { s.workers = n } }
func WithLogger(l *slog.Logger) Option   { return func(s *Service) { s.logger = l } }

func NewService(buildings []models.Building, runs repository.RunRepository, opts ...Option) *Service {
	s := &Service{
		buildings: buildings,
		runs:      runs,
		metrics:   observability.NewMetricsForTesting(),
		clock:     clockwork.NewRealClock(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Buildings() []models.Building {
	return s.buildings
}

// Preview assesses the catalogue against e without storing or delivering
// anything.
func (s *Service) Preview(ctx context.Context, e models.Earthquake) (*models.ScenarioRun, error) {
	return s.assess(ctx, s.normalize(Request{Earthquake: e}))
}

// Run assesses, persists and delivers a scenario. Invalid earthquakes fail
// with models.ErrInvalidParameter. Publishing failures are logged only.
func (s *Service) Run(ctx context.Context, req Request) (*models.ScenarioRun, error) {
	run, err := s.assess(ctx, s.normalize(req))
	if err != nil {
		return nil, err
	}

	alerts := alertsFor(run)
	if err := s.runs.SaveRun(ctx, run, alerts); err != nil {
		s.metrics.ScenarioFailures.WithLabelValues("persist").Inc()
		return nil, fmt.Errorf("error saving run: %w", err)
	}
	for _, a := range alerts {
		s.metrics.AlertsRaised.WithLabelValues(string(a.Severity)).Inc()
	}

	s.metrics.ScenarioRuns.WithLabelValues(run.Source).Inc()
	s.metrics.LastAvgDamage.Set(run.Summary.AvgPhysicalDamage)

	if s.broadcaster != nil {
		s.broadcaster.Broadcast(run)
	}
	if s.publisher != nil {
		n, err := s.publisher.Publish(ctx, run)
		if err != nil {
			s.metrics.PublishErrors.Inc()
			s.logger.Warn("failed to publish run", "run_id", run.ID, "error", err)
		} else {
			s.metrics.PublishedMessages.Add(float64(n))
		}
	}

	s.logger.Info("scenario assessed",
		"run_id", run.ID,
		"source", run.Source,
		"magnitude", run.Earthquake.Magnitude,
		"avg_damage", run.Summary.AvgPhysicalDamage,
		"severe_or_worse", run.Summary.SevereOrWorse,
	)
	return run, nil
}

func (s *Service) normalize(req Request) Request {
	if req.Earthquake.FaultName == "" {
		req.Earthquake.FaultName = models.DefaultFaultName
	}
	if req.Source == "" {
		req.Source = models.SourceManual
	}
	if req.ID == "" {
		req.ID = "run_" + uuid.NewString()
	}
	if req.OccurredAt.IsZero() {
		req.OccurredAt = s.clock.Now()
	}
	if req.Title == "" {
		req.Title = fmt.Sprintf("M%.1f %s", req.Earthquake.Magnitude, req.Earthquake.FaultName)
	}
	return req
}

func (s *Service) assess(ctx context.Context, req Request) (*models.ScenarioRun, error) {
	if err := req.Earthquake.Validate(); err != nil {
		s.metrics.ScenarioFailures.WithLabelValues("validate").Inc()
		return nil, err
	}

	start := s.clock.Now()
	results, err := batch.RunConcurrent(ctx, s.buildings, []models.Earthquake{req.Earthquake}, s.workers)
	if err != nil {
		s.metrics.ScenarioFailures.WithLabelValues("assess").Inc()
		return nil, err
	}
	s.metrics.ScenarioDuration.Observe(s.clock.Since(start).Seconds())
	s.metrics.Assessments.Add(float64(len(results)))

	return &models.ScenarioRun{
		ID:         req.ID,
		Source:     req.Source,
		Title:      req.Title,
		Earthquake: req.Earthquake,
		OccurredAt: req.OccurredAt,
		Summary:    damage.Summarize(results),
		Results:    results,
		CreatedAt:  s.clock.Now(),
	}, nil
}

func alertsFor(run *models.ScenarioRun) []models.Alert {
	var alerts []models.Alert
	for _, r := range run.Results {
		severity := models.SeverityForScore(r.Assessment.CombinedVulnerabilityScore)
		if !severity.Raises() {
			continue
		}
		alerts = append(alerts, models.Alert{
			ID:            uuid.NewString(),
			RunID:         run.ID,
			BuildingID:    r.Building.ID,
			BuildingName:  r.Building.Name,
			Severity:      severity,
			CombinedScore: r.Assessment.CombinedVulnerabilityScore,
			RecoveryDays:  r.Assessment.EstimatedRecoveryDays,
			CreatedAt:     run.CreatedAt,
		})
	}
	return alerts
}
