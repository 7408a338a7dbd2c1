package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/mr1hm/go-quake-impact/internal/models"
)

type SQLiteDB struct {
	db *sql.DB
}

var (
	_ RunRepository   = (*SQLiteDB)(nil)
	_ AlertRepository = (*SQLiteDB)(nil)
)

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// Every :memory: connection is its own database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error while migrating to database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		PRAGMA foreign_keys = ON;

		CREATE TABLE IF NOT EXISTS scenario_runs (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			title TEXT NOT NULL,
			magnitude REAL NOT NULL,
			epicenter_lat REAL NOT NULL,
			epicenter_lon REAL NOT NULL,
			depth_km REAL NOT NULL,
			fault_name TEXT NOT NULL,
			occurred_at DATETIME NOT NULL,
			summary TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS assessments (
			run_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			earthquake_id INTEGER NOT NULL,
			building TEXT NOT NULL,
			building_id INTEGER NOT NULL,
			distance_km REAL NOT NULL,
			pga_g REAL NOT NULL,
			mmi INTEGER NOT NULL,
			physical_damage_percent REAL NOT NULL,
			damage_state TEXT NOT NULL,
			structural_resistance REAL NOT NULL,
			height_vulnerability REAL NOT NULL,
			social_vulnerability_multiplier REAL NOT NULL,
			combined_vulnerability_score REAL NOT NULL,
			estimated_recovery_days REAL NOT NULL,
			PRIMARY KEY (run_id, position),
			FOREIGN KEY (run_id) REFERENCES scenario_runs(id) ON DELETE CASCADE
		);

		CREATE TABLE IF NOT EXISTS alerts (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			building_id INTEGER NOT NULL,
			building_name TEXT NOT NULL,
			severity TEXT NOT NULL,
			combined_score REAL NOT NULL,
			recovery_days REAL NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (run_id) REFERENCES scenario_runs(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_runs_occurred_at ON scenario_runs(occurred_at);
		CREATE INDEX IF NOT EXISTS idx_runs_source ON scenario_runs(source);
		CREATE INDEX IF NOT EXISTS idx_alerts_run_id ON alerts(run_id);
  	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

func (s *SQLiteDB) SaveRun(ctx context.Context, run *models.ScenarioRun, alerts []models.Alert) error {
	summary, err := json.Marshal(run.Summary)
	if err != nil {
		return fmt.Errorf("error encoding summary: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	e := run.Earthquake
	_, err = tx.ExecContext(ctx, `
		INSERT INTO scenario_runs (id, source, title, magnitude, epicenter_lat, epicenter_lon,
			depth_km, fault_name, occurred_at, summary, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Source, run.Title, e.Magnitude, e.EpicenterLat, e.EpicenterLon,
		e.DepthKm, e.FaultName, run.OccurredAt.UTC(), string(summary), run.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("error saving run %s: %w", run.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO assessments (run_id, position, earthquake_id, building, building_id,
			distance_km, pga_g, mmi, physical_damage_percent, damage_state,
			structural_resistance, height_vulnerability, social_vulnerability_multiplier,
			combined_vulnerability_score, estimated_recovery_days)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparing assessment insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range run.Results {
		building, err := json.Marshal(r.Building)
		if err != nil {
			return fmt.Errorf("error encoding building %d: %w", r.Building.ID, err)
		}
		a := r.Assessment
		_, err = stmt.ExecContext(ctx,
			run.ID, i, r.EarthquakeIndex, string(building), a.BuildingID,
			a.DistanceKm, a.PGA, a.MMI, a.PhysicalDamagePercent, string(a.DamageState),
			a.StructuralResistance, a.HeightVulnerability, a.SocialVulnerabilityMultiplier,
			a.CombinedVulnerabilityScore, a.EstimatedRecoveryDays,
		)
		if err != nil {
			return fmt.Errorf("error saving assessment %d of run %s: %w", i, run.ID, err)
		}
	}

	for i := range alerts {
		if err := addAlert(ctx, tx, &alerts[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing run %s: %w", run.ID, err)
	}
	return nil
}

const runColumns = `id, source, title, magnitude, epicenter_lat, epicenter_lon, depth_km,
	fault_name, occurred_at, summary, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*models.ScenarioRun, error) {
	var (
		run     models.ScenarioRun
		summary string
	)
	err := row.Scan(&run.ID, &run.Source, &run.Title, &run.Earthquake.Magnitude,
		&run.Earthquake.EpicenterLat, &run.Earthquake.EpicenterLon, &run.Earthquake.DepthKm,
		&run.Earthquake.FaultName, &run.OccurredAt, &summary, &run.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(summary), &run.Summary); err != nil {
		return nil, fmt.Errorf("error decoding summary of run %s: %w", run.ID, err)
	}
	return &run, nil
}

func (s *SQLiteDB) GetRun(ctx context.Context, id string) (*models.ScenarioRun, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM scenario_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error getting run %s: %w", id, err)
	}

	results, err := s.results(ctx, run)
	if err != nil {
		return nil, err
	}
	run.Results = results
	return run, nil
}

func (s *SQLiteDB) results(ctx context.Context, run *models.ScenarioRun) ([]models.Result, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT earthquake_id, building, building_id, distance_km, pga_g, mmi,
			physical_damage_percent, damage_state, structural_resistance, height_vulnerability,
			social_vulnerability_multiplier, combined_vulnerability_score, estimated_recovery_days
		FROM assessments WHERE run_id = ? ORDER BY position`, run.ID)
	if err != nil {
		return nil, fmt.Errorf("error listing assessments of run %s: %w", run.ID, err)
	}
	defer rows.Close()

	var out []models.Result
	for rows.Next() {
		var (
			r        models.Result
			building string
			state    string
		)
		a := &r.Assessment
		if err := rows.Scan(&r.EarthquakeIndex, &building, &a.BuildingID, &a.DistanceKm, &a.PGA,
			&a.MMI, &a.PhysicalDamagePercent, &state, &a.StructuralResistance,
			&a.HeightVulnerability, &a.SocialVulnerabilityMultiplier,
			&a.CombinedVulnerabilityScore, &a.EstimatedRecoveryDays); err != nil {
			return nil, fmt.Errorf("error scanning assessment: %w", err)
		}
		if err := json.Unmarshal([]byte(building), &r.Building); err != nil {
			return nil, fmt.Errorf("error decoding building %d: %w", a.BuildingID, err)
		}
		a.DamageState = models.DamageState(state)
		r.Magnitude = run.Earthquake.Magnitude
		r.FaultName = run.Earthquake.FaultName
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteDB) Exists(ctx context.Context, id string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM scenario_runs WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("error checking run %s: %w", id, err)
	}
	return n > 0, nil
}

func (s *SQLiteDB) ListRuns(ctx context.Context, opts Filter) ([]models.ScenarioRun, error) {
	var (
		where []string
		args  []any
	)
	if opts.Since != nil {
		where = append(where, "occurred_at >= ?")
		args = append(args, opts.Since.UTC())
	}
	if opts.Source != nil {
		where = append(where, "source = ?")
		args = append(args, *opts.Source)
	}
	if opts.MinMagnitude != nil {
		where = append(where, "magnitude >= ?")
		args = append(args, *opts.MinMagnitude)
	}

	query := `SELECT ` + runColumns + ` FROM scenario_runs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY occurred_at DESC, id"
	query, args = paginate(query, args, opts)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing runs: %w", err)
	}
	defer rows.Close()

	var out []models.ScenarioRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning run: %w", err)
		}
		out = append(out, *run)
	}
	return out, rows.Err()
}

func paginate(query string, args []any, opts Filter) (string, []any) {
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, opts.Offset)
		}
	}
	return query, args
}

func addAlert(ctx context.Context, tx *sql.Tx, a *models.Alert) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO alerts (id, run_id, building_id, building_name, severity, combined_score,
			recovery_days, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.RunID, a.BuildingID, a.BuildingName, string(a.Severity), a.CombinedScore,
		a.RecoveryDays, a.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("error saving alert %s: %w", a.ID, err)
	}
	return nil
}

const alertColumns = `id, run_id, building_id, building_name, severity, combined_score,
	recovery_days, created_at`

func (s *SQLiteDB) GetByRunID(ctx context.Context, runID string) ([]models.Alert, error) {
	return s.queryAlerts(ctx, `SELECT `+alertColumns+` FROM alerts WHERE run_id = ?
		ORDER BY combined_score DESC, building_id`, runID)
}

func (s *SQLiteDB) ListAlerts(ctx context.Context, opts Filter) ([]models.Alert, error) {
	var (
		where []string
		args  []any
	)
	if opts.Since != nil {
		where = append(where, "created_at >= ?")
		args = append(args, opts.Since.UTC())
	}
	if opts.Severity != nil {
		where = append(where, "severity = ?")
		args = append(args, string(*opts.Severity))
	}

	query := `SELECT ` + alertColumns + ` FROM alerts`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id"
	query, args = paginate(query, args, opts)

	return s.queryAlerts(ctx, query, args...)
}

func (s *SQLiteDB) queryAlerts(ctx context.Context, query string, args ...any) ([]models.Alert, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing alerts: %w", err)
	}
	defer rows.Close()

	var out []models.Alert
	for rows.Next() {
		var (
			a        models.Alert
			severity string
		)
		if err := rows.Scan(&a.ID, &a.RunID, &a.BuildingID, &a.BuildingName, &severity,
			&a.CombinedScore, &a.RecoveryDays, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning alert: %w", err)
		}
		a.Severity = models.AlertSeverity(severity)
		out = append(out, a)
	}
	return out, rows.Err()
}
