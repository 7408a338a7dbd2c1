package ingestion

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mr1hm/go-quake-impact/internal/config"
	"github.com/mr1hm/go-quake-impact/internal/geo"
	"github.com/mr1hm/go-quake-impact/internal/models"
	"github.com/mr1hm/go-quake-impact/internal/observability"
	"github.com/mr1hm/go-quake-impact/internal/repository"
	"github.com/mr1hm/go-quake-impact/internal/scenario"
	"github.com/mr1hm/go-quake-impact/internal/worker"
)

// Runner assesses one scenario. Implemented by *scenario.Service.
type Runner interface {
	Run(ctx context.Context, req scenario.Request) (*models.ScenarioRun, error)
}

// Outcome labels for processed feed events.
const (
	OutcomeAssessed  = "assessed"
	OutcomeDuplicate = "duplicate"
	OutcomeFiltered  = "filtered"
	OutcomeInvalid   = "invalid"
	OutcomeError     = "error"
)

type Manager struct {
	cfg     *config.Config
	runs    repository.RunRepository
	runner  Runner
	metrics *observability.Metrics
	clock   clockwork.Clock
	client  *http.Client
	pool    *worker.Pool[*models.SeismicEvent]
	wg      sync.WaitGroup
}

func NewManager(cfg *config.Config, runs repository.RunRepository, runner Runner, metrics *observability.Metrics) *Manager {
	if metrics == nil {
		metrics = observability.NewMetricsForTesting()
	}
	return &Manager{
		cfg:     cfg,
		runs:    runs,
		runner:  runner,
		metrics: metrics,
		clock:   clockwork.NewRealClock(),
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (m *Manager) Start(ctx context.Context) {
	m.pool = worker.NewPool("ingestion", m.cfg.Worker.Count, m.cfg.Worker.BufferSize, func(ctx context.Context, ev *models.SeismicEvent) error {
		outcome := m.process(ctx, ev)
		m.metrics.FeedEvents.WithLabelValues(ev.Source, outcome).Inc()
		return nil
	})
	m.pool.Start(ctx)

	// Start USGS poller if enabled
	if m.cfg.Sources.USGSEnabled {
		m.wg.Add(1)
		go m.runPoller(ctx, models.SourceUSGS, m.cfg.Sources.USGSURL, m.cfg.Sources.USGSPollInterval)
	}

	// Start GDACS poller if enabled
	if m.cfg.Sources.GDACSEnabled {
		m.wg.Add(1)
		go m.runPoller(ctx, models.SourceGDACS, m.cfg.Sources.GDACSURL, m.cfg.Sources.GDACSPollInterval)
	}
}

// process assesses ev unless it was already assessed, falls outside the
// region filter, or cannot be modelled. It returns the outcome label.
func (m *Manager) process(ctx context.Context, ev *models.SeismicEvent) string {
	exists, err := m.runs.Exists(ctx, ev.ID)
	if err != nil {
		slog.Error("error checking existence", "id", ev.ID, "error", err)
		return OutcomeError
	}
	if exists {
		return OutcomeDuplicate
	}

	if !m.inScope(ev) {
		slog.Debug("event outside region filter", "id", ev.ID, "magnitude", ev.Magnitude)
		return OutcomeFiltered
	}

	e := ev.Earthquake()
	// Feed depths outside the model range are clamped rather than rejected.
	e.DepthKm = min(max(e.DepthKm, models.MinDepthKm), models.MaxDepthKm)
	if err := e.Validate(); err != nil {
		slog.Info("skipping event", "id", ev.ID, "error", err)
		return OutcomeInvalid
	}

	run, err := m.runner.Run(ctx, scenario.Request{
		ID:         ev.ID,
		Source:     ev.Source,
		Title:      ev.Title,
		Earthquake: e,
		OccurredAt: ev.Timestamp,
	})
	if err != nil {
		slog.Error("error assessing event", "id", ev.ID, "error", err)
		return OutcomeError
	}

	slog.Info("assessed feed event", "id", ev.ID, "source", ev.Source, "run_id", run.ID,
		"magnitude", ev.Magnitude, "avg_damage", run.Summary.AvgPhysicalDamage)
	return OutcomeAssessed
}

func (m *Manager) inScope(ev *models.SeismicEvent) bool {
	r := m.cfg.Region
	if ev.Magnitude < r.MinMagnitude {
		return false
	}
	return geo.Distance(ev.Latitude, ev.Longitude, r.CenterLat, r.CenterLon) <= r.RadiusKm
}

func (m *Manager) runPoller(ctx context.Context, source, url string, interval time.Duration) {
	defer m.wg.Done()
	slog.Info("starting poller", "source", source, "interval", interval)

	ticker := m.clock.NewTicker(interval)
	defer ticker.Stop()

	// Initial poll
	m.poll(ctx, source, url)

	for {
		select {
		case <-ctx.Done():
			slog.Info("poller shutting down", "source", source)
			return
		case <-ticker.Chan():
			m.poll(ctx, source, url)
		}
	}
}

func (m *Manager) poll(ctx context.Context, source, url string) {
	slog.Debug("polling", "source", source)

	var (
		events []*models.SeismicEvent
		err    error
	)

	switch source {
	case models.SourceUSGS:
		events, err = m.pollUSGS(ctx, url)
	case models.SourceGDACS:
		events, err = m.pollGDACS(ctx, url)
	}
	if err != nil {
		slog.Error("poll failed", "source", source, "error", err)
		return
	}

	for _, ev := range events {
		if err := m.pool.Submit(ctx, ev); err != nil {
			return
		}
	}

	slog.Debug("poll complete", "source", source, "count", len(events))
}

func (m *Manager) Stop() {
	m.wg.Wait()
	if m.pool != nil {
		m.pool.Stop()
	}
	slog.Info("ingestion manager stopped")
}
