package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mr1hm/go-quake-impact/internal/catalog"
	"github.com/mr1hm/go-quake-impact/internal/models"
	"github.com/mr1hm/go-quake-impact/internal/observability"
	"github.com/mr1hm/go-quake-impact/internal/report"
	"github.com/mr1hm/go-quake-impact/internal/repository"
	"github.com/mr1hm/go-quake-impact/internal/scenario"
	"github.com/mr1hm/go-quake-impact/internal/stream"
)

const financialDistrict = "Financial District (SF)"

type fixture struct {
	router      *gin.Engine
	svc         *scenario.Service
	broadcaster *stream.Broadcaster
	metrics     *observability.Metrics
}

func setupTestRouter(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := repository.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	broadcaster := stream.NewBroadcaster(stream.DefaultBuffer)
	t.Cleanup(broadcaster.Close)
	metrics := observability.NewMetricsForTesting()
	svc := scenario.NewService(catalog.Buildings(), db,
		scenario.WithBroadcaster(broadcaster),
		scenario.WithMetrics(metrics),
		scenario.WithClock(clockwork.NewFakeClockAt(time.Date(2026, 4, 18, 5, 12, 0, 0, time.UTC))),
	)

	router := gin.New()
	NewHandler(svc, db, db, broadcaster, metrics).RegisterRoutes(router)
	return &fixture{router: router, svc: svc, broadcaster: broadcaster, metrics: metrics}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func quake(magnitude float64) gin.H {
	return gin.H{"magnitude": magnitude, "preset": financialDistrict, "depth_km": 10}
}

func (f *fixture) createRun(t *testing.T, magnitude float64) models.ScenarioRun {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/scenarios", quake(magnitude))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.ScenarioRun](t, w)
}

func TestHealth(t *testing.T) {
	f := setupTestRouter(t)

	w := f.do(t, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, w)["status"])
}

func TestGetBuildingsAndPresets(t *testing.T) {
	f := setupTestRouter(t)

	w := f.do(t, http.MethodGet, "/api/buildings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	buildings := decode[struct {
		Buildings []models.Building `json:"buildings"`
		Count     int               `json:"count"`
	}](t, w)
	assert.Equal(t, 25, buildings.Count)
	assert.Equal(t, "Transamerica Pyramid", buildings.Buildings[0].Name)

	w = f.do(t, http.MethodGet, "/api/presets", nil)
	require.Equal(t, http.StatusOK, w.Code)
	presets := decode[map[string][]models.Preset](t, w)["presets"]
	require.Len(t, presets, 5)
	assert.Equal(t, financialDistrict, presets[0].Name)
}

func TestAssess_Preview(t *testing.T) {
	f := setupTestRouter(t)

	w := f.do(t, http.MethodPost, "/api/assess", quake(7.0))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	run := decode[models.ScenarioRun](t, w)
	require.Len(t, run.Results, 25)
	assert.Equal(t, 14, run.Summary.StateCounts[models.DamageNone])
	assert.Equal(t, 8, run.Summary.StateCounts[models.DamageSlight])
	assert.Equal(t, 3, run.Summary.StateCounts[models.DamageModerate])

	chinatown := run.Results[5]
	assert.Equal(t, 6, chinatown.Building.ID)
	assert.Equal(t, models.DamageModerate, chinatown.Assessment.DamageState)
	assert.InDelta(t, 28.550740499596973, chinatown.Assessment.PhysicalDamagePercent, 1e-9)

	// Previews are not stored
	w = f.do(t, http.MethodGet, "/api/scenarios", nil)
	assert.Equal(t, 0.0, decode[map[string]any](t, w)["count"])
}

func TestAssess_InvalidInput(t *testing.T) {
	f := setupTestRouter(t)

	tests := map[string]struct {
		body    any
		message string
	}{
		"magnitude too large": {quake(9.1), "magnitude"},
		"depth too deep":      {gin.H{"magnitude": 6, "preset": financialDistrict, "depth_km": 45}, "depth"},
		"missing magnitude":   {gin.H{"preset": financialDistrict}, "magnitude is required"},
		"missing epicenter":   {gin.H{"magnitude": 6}, "preset are required"},
		"unknown preset":      {gin.H{"magnitude": 6, "preset": "Atlantis"}, "unknown preset"},
		"latitude off globe":  {gin.H{"magnitude": 6, "epicenter_lat": 95, "epicenter_lon": -122.4}, "latitude"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/api/assess", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decode[map[string]string](t, w)["error"], tt.message)
		})
	}

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/assess", strings.NewReader("{"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestScenarios_CreateGetList(t *testing.T) {
	f := setupTestRouter(t)

	created := f.createRun(t, 7.0)
	assert.True(t, strings.HasPrefix(created.ID, "run_"))
	assert.Equal(t, models.SourceManual, created.Source)
	assert.Equal(t, financialDistrict, created.Earthquake.FaultName)

	w := f.do(t, http.MethodGet, "/api/scenarios/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[models.ScenarioRun](t, w)
	assert.Equal(t, created.ID, got.ID)
	assert.Len(t, got.Results, 25)

	w = f.do(t, http.MethodGet, "/api/scenarios/run_missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	f.createRun(t, 5.5)
	w = f.do(t, http.MethodGet, "/api/scenarios?min_magnitude=6", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Scenarios []models.ScenarioRun `json:"scenarios"`
		Count     int                  `json:"count"`
	}](t, w)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, created.ID, list.Scenarios[0].ID)

	w = f.do(t, http.MethodGet, "/api/scenarios?limit=1&source=manual", nil)
	assert.Equal(t, 1.0, decode[map[string]any](t, w)["count"])
}

func TestScenarioGeoJSON(t *testing.T) {
	f := setupTestRouter(t)
	run := f.createRun(t, 7.0)

	w := f.do(t, http.MethodGet, "/api/scenarios/"+run.ID+"/geojson?color_by=combined", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/geo+json", w.Header().Get("Content-Type"))

	fc := decode[FeatureCollection](t, w)
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 25)

	chinatown := fc.Features[5]
	assert.Equal(t, []float64{-122.4078, 37.7948}, chinatown.Geometry.Coordinates)
	assert.Equal(t, "Moderate", chinatown.Properties["damage_state"])
	// combined score 38.07 falls in the 20-40 band
	assert.Equal(t, "#ffff00", chinatown.Properties["color"])

	w = f.do(t, http.MethodGet, "/api/scenarios/"+run.ID+"/geojson?color_by=rainbow", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodGet, "/api/scenarios/run_missing/geojson", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestScenarioCSV(t *testing.T) {
	f := setupTestRouter(t)
	run := f.createRun(t, 7.0)

	w := f.do(t, http.MethodGet, "/api/scenarios/"+run.ID+"/csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), run.ID+".csv")

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 26)
	assert.Equal(t, strings.Join(report.Columns, ","), lines[0])
	assert.True(t, strings.HasPrefix(lines[6], "6,Chinatown Building,masonry,5,1910,"), lines[6])
}

func TestScenarioAlertsAndHighRisk(t *testing.T) {
	f := setupTestRouter(t)
	run := f.createRun(t, 8.0)

	w := f.do(t, http.MethodGet, "/api/scenarios/"+run.ID+"/alerts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	alerts := decode[struct {
		Alerts []models.Alert `json:"alerts"`
		Count  int            `json:"count"`
	}](t, w)
	assert.GreaterOrEqual(t, alerts.Count, 3)
	for _, a := range alerts.Alerts {
		assert.True(t, a.Severity.Raises(), a.Severity)
		assert.Equal(t, run.ID, a.RunID)
	}

	w = f.do(t, http.MethodGet, "/api/alerts?severity=critical", nil)
	require.Equal(t, http.StatusOK, w.Code)
	critical := decode[struct {
		Alerts []models.Alert `json:"alerts"`
	}](t, w)
	for _, a := range critical.Alerts {
		assert.Equal(t, models.AlertSeverityCritical, a.Severity)
	}

	w = f.do(t, http.MethodGet, "/api/scenarios/"+run.ID+"/high-risk", nil)
	require.Equal(t, http.StatusOK, w.Code)
	risk := decode[struct {
		Communities []map[string]any `json:"communities"`
		Histogram   []struct {
			Label string `json:"label"`
			Count int    `json:"count"`
		} `json:"histogram"`
	}](t, w)

	var ids []int
	for _, c := range risk.Communities {
		ids = append(ids, int(c["building_id"].(float64)))
	}
	assert.Equal(t, []int{6, 13, 7, 12}, ids)

	var counts []int
	for _, b := range risk.Histogram {
		counts = append(counts, b.Count)
	}
	assert.Equal(t, []int{6, 8, 2, 1, 1}, counts)
}

func TestScenarioTimeline(t *testing.T) {
	f := setupTestRouter(t)
	run := f.createRun(t, 7.0)

	type timeline struct {
		Elapsed   float64                   `json:"elapsed_seconds"`
		Duration  float64                   `json:"duration_seconds"`
		Shaking   int                       `json:"shaking_count"`
		Snapshots []models.TemporalSnapshot `json:"snapshots"`
	}

	w := f.do(t, http.MethodGet, "/api/scenarios/"+run.ID+"/timeline?t=0", nil)
	require.Equal(t, http.StatusOK, w.Code)
	start := decode[timeline](t, w)
	require.Len(t, start.Snapshots, 25)
	assert.Zero(t, start.Shaking)
	for _, s := range start.Snapshots {
		assert.Equal(t, models.PhasePreArrival, s.Phase)
		assert.Zero(t, s.DamagePercent)
	}

	w = f.do(t, http.MethodGet, "/api/scenarios/"+run.ID+"/timeline?t=1000", nil)
	require.Equal(t, http.StatusOK, w.Code)
	end := decode[timeline](t, w)
	assert.Less(t, end.Duration, 1000.0)
	for i, s := range end.Snapshots {
		assert.Equal(t, models.PhaseSettled, s.Phase)
		assert.InDelta(t, run.Results[i].Assessment.PhysicalDamagePercent, s.DamagePercent, 1e-9)
	}

	for _, q := range []string{"", "?t=-1", "?t=soon", "?t=NaN", "?t=Inf", "?t=%2BInf", "?t=-Inf"} {
		w = f.do(t, http.MethodGet, "/api/scenarios/"+run.ID+"/timeline"+q, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestShakeMap(t *testing.T) {
	f := setupTestRouter(t)

	w := f.do(t, http.MethodGet, "/api/shakemap?magnitude=7&lat=37.7949&lon=-122.4194&steps=20", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[struct {
		Cells []struct {
			PGA    float64 `json:"pga_g"`
			Weight float64 `json:"weight"`
		} `json:"cells"`
		Count int `json:"count"`
	}](t, w)
	require.NotZero(t, resp.Count)
	assert.LessOrEqual(t, resp.Count, 400)
	for _, c := range resp.Cells {
		assert.Greater(t, c.PGA, 0.001)
		assert.InDelta(t, c.PGA*200, c.Weight, 1e-12)
	}

	w = f.do(t, http.MethodGet, "/api/shakemap?preset="+strings.ReplaceAll(financialDistrict, " ", "%20"), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodGet, "/api/shakemap?magnitude=7&lat=37.7949&lon=-122.4194&steps=1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodGet, "/api/shakemap?magnitude=big", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimitMiddleware(1))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 3)
	for i := range codes {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		codes[i] = w.Code
	}
	assert.Equal(t, http.StatusNoContent, codes[0])
	assert.Equal(t, http.StatusTooManyRequests, codes[2])
}

func TestNewRouter_MetricsAndCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := setupTestRouter(t)
	router := NewRouter(NewHandler(f.svc, nil, nil, nil, f.metrics), 0)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://dashboard.example.org")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

type sseEvent struct {
	name string
	data string
}

func nextEvent(t *testing.T, r *bufio.Reader) sseEvent {
	t.Helper()
	var ev sseEvent
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if ev.name != "" {
				return ev
			}
		case strings.HasPrefix(line, "event:"):
			ev.name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			ev.data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}
}

func TestStream(t *testing.T) {
	f := setupTestRouter(t)
	srv := httptest.NewServer(f.router)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream"))

	reader := bufio.NewReader(resp.Body)
	require.Equal(t, "ready", nextEvent(t, reader).name)
	assert.Equal(t, 1, f.broadcaster.SubscriberCount())

	run, err := f.svc.Run(ctx, scenario.Request{Earthquake: catalog.DefaultScenarios()[0]})
	require.NoError(t, err)

	ev := nextEvent(t, reader)
	assert.Equal(t, "scenario", ev.name)
	var got models.ScenarioRun
	require.NoError(t, json.Unmarshal([]byte(ev.data), &got))
	assert.Equal(t, run.ID, got.ID)
	assert.Empty(t, got.Results)
	assert.Equal(t, 25, got.Summary.BuildingCount)
}
