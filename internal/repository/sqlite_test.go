package repository

import (
	"context"
	"testing"
	"time"

	"github.com/mr1hm/go-quake-impact/internal/batch"
	"github.com/mr1hm/go-quake-impact/internal/catalog"
	"github.com/mr1hm/go-quake-impact/internal/damage"
	"github.com/mr1hm/go-quake-impact/internal/models"
)

func setupTestDB(t *testing.T) *SQLiteDB {
	db, err := NewSQLiteDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	return db
}

var baseTime = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func testRun(id, source string, magnitude float64, occurred time.Time) *models.ScenarioRun {
	e := catalog.DefaultScenarios()[0]
	e.Magnitude = magnitude
	results := batch.Run(catalog.Buildings(), []models.Earthquake{e})
	return &models.ScenarioRun{
		ID:         id,
		Source:     source,
		Title:      "Test run",
		Earthquake: e,
		OccurredAt: occurred,
		Summary:    damage.Summarize(results),
		Results:    results,
		CreatedAt:  occurred.Add(time.Second),
	}
}

func TestSQLiteDB_SaveAndGetRun(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	run := testRun("run_1", models.SourceManual, 7.0, baseTime)

	if err := db.SaveRun(ctx, run, nil); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	got, err := db.GetRun(ctx, "run_1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected run, got nil")
	}
	if got.Earthquake != run.Earthquake {
		t.Errorf("earthquake mismatch: got %+v, want %+v", got.Earthquake, run.Earthquake)
	}
	if !got.OccurredAt.Equal(baseTime) {
		t.Errorf("expected occurred_at %v, got %v", baseTime, got.OccurredAt)
	}
	if got.Summary.AvgPhysicalDamage != run.Summary.AvgPhysicalDamage {
		t.Errorf("summary mismatch: got %v, want %v", got.Summary.AvgPhysicalDamage, run.Summary.AvgPhysicalDamage)
	}
	if got.Summary.StateCounts[models.DamageSlight] != 8 {
		t.Errorf("expected 8 Slight, got %d", got.Summary.StateCounts[models.DamageSlight])
	}
	if len(got.Results) != len(run.Results) {
		t.Fatalf("expected %d results, got %d", len(run.Results), len(got.Results))
	}
	for i := range run.Results {
		if got.Results[i] != run.Results[i] {
			t.Errorf("result %d mismatch:\n got %+v\nwant %+v", i, got.Results[i], run.Results[i])
		}
	}
}

func TestSQLiteDB_GetRun_Unknown(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	got, err := db.GetRun(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for unknown ID, got %+v", got)
	}
}

func TestSQLiteDB_Exists(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	exists, err := db.Exists(ctx, "usgs_nc1")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("expected false for nonexistent ID")
	}

	if err := db.SaveRun(ctx, testRun("usgs_nc1", models.SourceUSGS, 5.5, baseTime), nil); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	exists, err = db.Exists(ctx, "usgs_nc1")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("expected true for existing ID")
	}
}

func TestSQLiteDB_ListRuns_WithFilters(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	runs := []*models.ScenarioRun{
		testRun("run_a", models.SourceManual, 7.0, baseTime.Add(-48*time.Hour)),
		testRun("usgs_b", models.SourceUSGS, 4.5, baseTime.Add(-time.Hour)),
		testRun("gdacs_c", models.SourceGDACS, 6.0, baseTime),
	}
	for _, r := range runs {
		if err := db.SaveRun(ctx, r, nil); err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}
	}

	all, err := db.ListRuns(ctx, Filter{})
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(all))
	}
	if all[0].ID != "gdacs_c" || all[2].ID != "run_a" {
		t.Errorf("expected newest first, got %s..%s", all[0].ID, all[2].ID)
	}
	if all[0].Results != nil {
		t.Error("expected list without per-building results")
	}

	source := models.SourceUSGS
	results, err := db.ListRuns(ctx, Filter{Source: &source})
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(results) != 1 || results[0].ID != "usgs_b" {
		t.Errorf("expected only usgs_b, got %v", results)
	}

	minMag := 5.0
	results, err = db.ListRuns(ctx, Filter{MinMagnitude: &minMag})
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 runs with mag >= 5.0, got %d", len(results))
	}

	since := baseTime.Add(-2 * time.Hour)
	results, err = db.ListRuns(ctx, Filter{Since: &since})
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 runs since %v, got %d", since, len(results))
	}

	results, err = db.ListRuns(ctx, Filter{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(results) != 1 || results[0].ID != "usgs_b" {
		t.Errorf("expected second-newest run with limit/offset, got %v", results)
	}
}

func TestSQLiteDB_DuplicateRun(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	run := testRun("dup_test", models.SourceManual, 6.5, baseTime)

	if err := db.SaveRun(ctx, run, nil); err != nil {
		t.Fatalf("first SaveRun failed: %v", err)
	}
	if err := db.SaveRun(ctx, run, nil); err == nil {
		t.Error("expected error for duplicate ID, got nil")
	}

	// The failed save must not leave extra assessments behind.
	got, err := db.GetRun(ctx, "dup_test")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if len(got.Results) != 25 {
		t.Errorf("expected 25 results after rollback, got %d", len(got.Results))
	}
}

func TestSQLiteDB_Alerts(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	alerts := []models.Alert{
		{ID: "a1", RunID: "run_1", BuildingID: 6, BuildingName: "Chinatown Building", Severity: models.AlertSeverityCritical, CombinedScore: 120.4, RecoveryDays: 730, CreatedAt: baseTime},
		{ID: "a2", RunID: "run_1", BuildingID: 13, BuildingName: "Hayes Valley Apartment", Severity: models.AlertSeverityCritical, CombinedScore: 86.4, RecoveryDays: 328, CreatedAt: baseTime},
		{ID: "a3", RunID: "run_1", BuildingID: 12, BuildingName: "Richmond District Duplex", Severity: models.AlertSeverityHigh, CombinedScore: 39.8, RecoveryDays: 135, CreatedAt: baseTime.Add(time.Minute)},
	}
	if err := db.SaveRun(ctx, testRun("run_1", models.SourceManual, 8.0, baseTime), alerts); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	got, err := db.GetByRunID(ctx, "run_1")
	if err != nil {
		t.Fatalf("GetByRunID failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 alerts, got %d", len(got))
	}
	if got[0].BuildingID != 6 || got[2].BuildingID != 12 {
		t.Errorf("expected alerts by score descending, got %d..%d", got[0].BuildingID, got[2].BuildingID)
	}

	high := models.AlertSeverityHigh
	got, err = db.ListAlerts(ctx, Filter{Severity: &high})
	if err != nil {
		t.Fatalf("ListAlerts failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a3" {
		t.Errorf("expected only a3, got %v", got)
	}

	got, err = db.ListAlerts(ctx, Filter{Limit: 2})
	if err != nil {
		t.Fatalf("ListAlerts failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != "a3" {
		t.Errorf("expected newest alert first with limit, got %v", got)
	}

	none, err := db.GetByRunID(ctx, "other")
	if err != nil {
		t.Fatalf("GetByRunID failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no alerts, got %d", len(none))
	}
}

func TestSQLiteDB_SaveRunRollsBackOnAlertError(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	orphan := []models.Alert{{ID: "orphan", RunID: "missing", Severity: models.AlertSeverityHigh, CreatedAt: baseTime}}
	if err := db.SaveRun(ctx, testRun("run_1", models.SourceManual, 8.0, baseTime), orphan); err == nil {
		t.Fatal("expected foreign key error for alert without run")
	}

	// A failed alert insert must roll back the run so a retry is not a duplicate.
	exists, err := db.Exists(ctx, "run_1")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("expected run to be rolled back with its alerts")
	}

	valid := []models.Alert{{ID: "a1", RunID: "run_1", BuildingID: 6, Severity: models.AlertSeverityHigh, CreatedAt: baseTime}}
	if err := db.SaveRun(ctx, testRun("run_1", models.SourceManual, 8.0, baseTime), valid); err != nil {
		t.Fatalf("retry SaveRun failed: %v", err)
	}
}
