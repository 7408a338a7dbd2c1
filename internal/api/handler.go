package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/go-quake-impact/internal/catalog"
	"github.com/mr1hm/go-quake-impact/internal/damage"
	"github.com/mr1hm/go-quake-impact/internal/models"
	"github.com/mr1hm/go-quake-impact/internal/observability"
	"github.com/mr1hm/go-quake-impact/internal/report"
	"github.com/mr1hm/go-quake-impact/internal/repository"
	"github.com/mr1hm/go-quake-impact/internal/scenario"
)

// Scenarios is implemented by *scenario.Service.
type Scenarios interface {
	Buildings() []models.Building
	Preview(ctx context.Context, e models.Earthquake) (*models.ScenarioRun, error)
	Run(ctx context.Context, req scenario.Request) (*models.ScenarioRun, error)
}

// Subscriber is implemented by *stream.Broadcaster.
type Subscriber interface {
	Subscribe() (uint64, <-chan *models.ScenarioRun)
	Unsubscribe(id uint64)
}

var errNotFound = errors.New("scenario not found")

type Handler struct {
	scenarios  Scenarios
	runs       repository.RunRepository
	alerts     repository.AlertRepository
	subscriber Subscriber
	metrics    *observability.Metrics
}

func NewHandler(scenarios Scenarios, runs repository.RunRepository, alerts repository.AlertRepository, subscriber Subscriber, metrics *observability.Metrics) *Handler {
	if metrics == nil {
		metrics = observability.NewMetricsForTesting()
	}
	return &Handler{
		scenarios:  scenarios,
		runs:       runs,
		alerts:     alerts,
		subscriber: subscriber,
		metrics:    metrics,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)

	api := r.Group("/api")
	api.GET("/buildings", h.getBuildings)
	api.GET("/presets", h.getPresets)
	api.POST("/assess", h.assess)
	api.GET("/shakemap", h.getShakeMap)
	api.GET("/stream", h.stream)
	api.GET("/alerts", h.listAlerts)

	api.POST("/scenarios", h.createScenario)
	api.GET("/scenarios", h.listScenarios)
	api.GET("/scenarios/:id", h.getScenario)
	api.GET("/scenarios/:id/geojson", h.getScenarioGeoJSON)
	api.GET("/scenarios/:id/csv", h.getScenarioCSV)
	api.GET("/scenarios/:id/alerts", h.getScenarioAlerts)
	api.GET("/scenarios/:id/high-risk", h.getHighRisk)
	api.GET("/scenarios/:id/timeline", h.getTimeline)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) getBuildings(c *gin.Context) {
	buildings := h.scenarios.Buildings()
	c.JSON(http.StatusOK, gin.H{
		"buildings": buildings,
		"count":     len(buildings),
	})
}

func (h *Handler) getPresets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"presets": catalog.Presets()})
}

// earthquakeParams is accepted as a JSON body or as query parameters. A
// preset supplies the epicenter when lat/lon are omitted.
type earthquakeParams struct {
	Magnitude *float64 `json:"magnitude" form:"magnitude"`
	Latitude  *float64 `json:"epicenter_lat" form:"lat"`
	Longitude *float64 `json:"epicenter_lon" form:"lon"`
	DepthKm   *float64 `json:"depth_km" form:"depth"`
	FaultName string   `json:"fault_name" form:"fault_name"`
	Preset    string   `json:"preset" form:"preset"`
	Title     string   `json:"title" form:"-"`
}

func (p earthquakeParams) earthquake() (models.Earthquake, error) {
	if p.Magnitude == nil {
		return models.Earthquake{}, fmt.Errorf("%w: magnitude is required", models.ErrInvalidParameter)
	}
	e := models.Earthquake{
		Magnitude: *p.Magnitude,
		DepthKm:   catalog.DefaultDepthKm,
		FaultName: p.FaultName,
	}
	if p.DepthKm != nil {
		e.DepthKm = *p.DepthKm
	}

	if p.Preset != "" {
		preset, ok := catalog.Preset(p.Preset)
		if !ok {
			return models.Earthquake{}, fmt.Errorf("%w: unknown preset %q", models.ErrInvalidParameter, p.Preset)
		}
		e.EpicenterLat, e.EpicenterLon = preset.Latitude, preset.Longitude
		if e.FaultName == "" {
			e.FaultName = preset.Name
		}
	}
	if p.Latitude != nil && p.Longitude != nil {
		e.EpicenterLat, e.EpicenterLon = *p.Latitude, *p.Longitude
	} else if p.Preset == "" {
		return models.Earthquake{}, fmt.Errorf("%w: epicenter_lat and epicenter_lon or preset are required", models.ErrInvalidParameter)
	}

	return e, e.Validate()
}

func (h *Handler) assess(c *gin.Context) {
	var params earthquakeParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	e, err := params.earthquake()
	if err != nil {
		writeError(c, err)
		return
	}

	run, err := h.scenarios.Preview(c.Request.Context(), e)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

func (h *Handler) createScenario(c *gin.Context) {
	var params earthquakeParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	e, err := params.earthquake()
	if err != nil {
		writeError(c, err)
		return
	}

	run, err := h.scenarios.Run(c.Request.Context(), scenario.Request{
		Source:     models.SourceManual,
		Title:      params.Title,
		Earthquake: e,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, run)
}

func (h *Handler) listScenarios(c *gin.Context) {
	filter := repository.Filter{
		Limit: 20, // Default to 20 runs if limit param not supplied
	}

	if s := c.Query("source"); s != "" {
		source := strings.ToLower(s)
		filter.Source = &source
	}
	if m := c.Query("min_magnitude"); m != "" {
		if mag, err := strconv.ParseFloat(m, 64); err == nil && !math.IsNaN(mag) {
			filter.MinMagnitude = &mag
		}
	}
	if s := c.Query("since"); s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			filter.Since = &t
		}
	}
	if l := c.Query("limit"); l != "" {
		if lim, err := strconv.Atoi(l); err == nil && lim > 0 && lim <= 500 {
			filter.Limit = lim
		}
	}
	if o := c.Query("offset"); o != "" {
		if off, err := strconv.Atoi(o); err == nil && off >= 0 {
			filter.Offset = off
		}
	}

	runs, err := h.runs.ListRuns(c.Request.Context(), filter)
	if err != nil {
		slog.Error("failed to list runs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to fetch scenarios",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"scenarios": runs,
		"count":     len(runs),
	})
}

func (h *Handler) listAlerts(c *gin.Context) {
	filter := repository.Filter{Limit: 50}

	if s := c.Query("severity"); s != "" {
		severity := models.AlertSeverity(strings.ToUpper(s))
		filter.Severity = &severity
	}
	if l := c.Query("limit"); l != "" {
		if lim, err := strconv.Atoi(l); err == nil && lim > 0 && lim <= 500 {
			filter.Limit = lim
		}
	}

	alerts, err := h.alerts.ListAlerts(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

// loadRun fetches the run named by the :id path parameter, writing the error
// response itself when it returns nil.
func (h *Handler) loadRun(c *gin.Context) *models.ScenarioRun {
	run, err := h.runs.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return nil
	}
	if run == nil {
		writeError(c, errNotFound)
		return nil
	}
	return run
}

func (h *Handler) getScenario(c *gin.Context) {
	run := h.loadRun(c)
	if run == nil {
		return
	}
	c.JSON(http.StatusOK, run)
}

func (h *Handler) getScenarioGeoJSON(c *gin.Context) {
	mode, ok := damage.ParseColorMode(c.Query("color_by"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("unknown color_by %q", c.Query("color_by")),
		})
		return
	}
	run := h.loadRun(c)
	if run == nil {
		return
	}

	fc := toGeoJSON(run.Results, mode)
	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, fc)
}

func (h *Handler) getScenarioCSV(c *gin.Context) {
	run := h.loadRun(c)
	if run == nil {
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", run.ID+".csv"))
	c.Status(http.StatusOK)
	if err := report.WriteCSV(c.Writer, run.Results); err != nil {
		slog.Error("failed to write csv", "run_id", run.ID, "error", err)
	}
}

func (h *Handler) getScenarioAlerts(c *gin.Context) {
	run := h.loadRun(c)
	if run == nil {
		return
	}

	alerts, err := h.alerts.GetByRunID(c.Request.Context(), run.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

func (h *Handler) getHighRisk(c *gin.Context) {
	run := h.loadRun(c)
	if run == nil {
		return
	}

	risky := damage.HighRisk(run.Results)
	rows := make([]map[string]any, len(risky))
	for i, r := range risky {
		rows[i] = report.Row(r)
	}
	c.JSON(http.StatusOK, gin.H{
		"communities": rows,
		"count":       len(rows),
		"histogram":   damage.RecoveryHistogram(run.Results),
	})
}

func (h *Handler) getTimeline(c *gin.Context) {
	t, err := strconv.ParseFloat(c.Query("t"), 64)
	if err != nil || math.IsNaN(t) || math.IsInf(t, 0) || t < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "t must be a finite number of seconds >= 0"})
		return
	}
	run := h.loadRun(c)
	if run == nil {
		return
	}

	buildings := make([]models.Building, len(run.Results))
	for i, r := range run.Results {
		buildings[i] = r.Building
	}
	snapshots := damage.Timeline(buildings, run.Earthquake, t)

	shaking := 0
	for _, s := range snapshots {
		if s.IsShaking {
			shaking++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"elapsed_seconds":  t,
		"duration_seconds": damage.AnimationDuration(buildings, run.Earthquake),
		"shaking_count":    shaking,
		"snapshots":        snapshots,
	})
}

func (h *Handler) getShakeMap(c *gin.Context) {
	var params earthquakeParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters"})
		return
	}
	e, err := params.earthquake()
	if err != nil {
		writeError(c, err)
		return
	}

	steps := damage.DefaultShakeMapSteps
	if s := c.Query("steps"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 2 || n > 200 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "steps must be between 2 and 200"})
			return
		}
		steps = n
	}

	cells := damage.ShakeMap(e, damage.RegionBounds, steps)
	c.JSON(http.StatusOK, gin.H{
		"earthquake": e,
		"bounds":     damage.RegionBounds,
		"cells":      cells,
		"count":      len(cells),
	})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidParameter):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, errNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		slog.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
