package main

import (
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// ---------------------------------------------------------------------------
// Schema version
// ---------------------------------------------------------------------------

const schemaVersion = 1

// ---------------------------------------------------------------------------
// Schema DDL (v1)
// ---------------------------------------------------------------------------

const schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_meta (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS experiments (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT NOT NULL UNIQUE,
	created_at  TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS runs (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	uuid           TEXT NOT NULL UNIQUE,
	experiment_id  INTEGER NOT NULL REFERENCES experiments(id) ON DELETE CASCADE,
	name           TEXT NOT NULL,
	status         TEXT NOT NULL DEFAULT 'FINISHED',
	started_at     TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS metrics (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	key         TEXT NOT NULL,
	step        INTEGER NOT NULL DEFAULT 0,
	timestamp   TEXT NOT NULL,
	value       REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_experiment ON runs(experiment_id);
CREATE INDEX IF NOT EXISTS idx_metrics_run_key ON metrics(run_id, key, step);
`

// ---------------------------------------------------------------------------
// Open / migrate
// ---------------------------------------------------------------------------

// openDB opens (or creates) the SQLite database and ensures the schema is at
// the current version. Fresh databases are seeded with a demo experiment so
// the UI has something to chart before the first import.
func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	ver, err := currentSchemaVersion(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("check schema version: %w", err)
	}

	if ver < schemaVersion {
		if err := migrateSchema(db, ver); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate schema: %w", err)
		}
	}

	return db, nil
}

// currentSchemaVersion returns the schema version from schema_meta, or 0 for
// a fresh database.
func currentSchemaVersion(db *sql.DB) (int, error) {
	var count int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='table' AND name='schema_meta'
	`).Scan(&count)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, nil
	}

	var ver int
	err = db.QueryRow("SELECT version FROM schema_meta LIMIT 1").Scan(&ver)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return ver, err
}

func migrateSchema(db *sql.DB, fromVersion int) error {
	if _, err := db.Exec(schemaV1); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	if fromVersion == 0 {
		if err := seedDemoData(db); err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
	}

	if _, err := db.Exec("DELETE FROM schema_meta"); err != nil {
		return fmt.Errorf("reset schema version: %w", err)
	}
	if _, err := db.Exec("INSERT INTO schema_meta (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("insert schema version: %w", err)
	}
	return nil
}

// seedDemoData inserts a small experiment with two runs and deterministic
// loss/accuracy curves. Seeding is skipped when any experiment already
// exists (e.g. re-running migration over imported data).
func seedDemoData(db *sql.DB) error {
	var existing int
	if err := db.QueryRow("SELECT COUNT(*) FROM experiments").Scan(&existing); err != nil {
		return err
	}
	if existing > 0 {
		return nil
	}

	res, err := db.Exec("INSERT INTO experiments (name) VALUES (?)", "demo")
	if err != nil {
		return fmt.Errorf("insert experiment: %w", err)
	}
	expID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	start := time.Now().Add(-30 * time.Minute).UTC()
	for r := 0; r < 2; r++ {
		runName := fmt.Sprintf("demo-run-%d", r+1)
		runRes, err := db.Exec(`
			INSERT INTO runs (uuid, experiment_id, name, status, started_at)
			VALUES (?, ?, ?, 'FINISHED', ?)
		`, uuid.NewString(), expID, runName, start.Add(time.Duration(r)*time.Minute).Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("insert run %q: %w", runName, err)
		}
		runID, err := runRes.LastInsertId()
		if err != nil {
			return err
		}

		stmt, err := db.Prepare(`
			INSERT INTO metrics (run_id, key, step, timestamp, value)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		for step := 0; step < 50; step++ {
			ts := start.Add(time.Duration(r)*time.Minute + time.Duration(step)*15*time.Second)
			loss := 2.0*math.Exp(-float64(step)/float64(12+6*r)) + 0.05
			acc := 1.0 - loss/2.5
			if _, err := stmt.Exec(runID, "loss", step, ts.Format(time.RFC3339), loss); err != nil {
				stmt.Close()
				return fmt.Errorf("insert metric: %w", err)
			}
			if _, err := stmt.Exec(runID, "accuracy", step, ts.Format(time.RFC3339), acc); err != nil {
				stmt.Close()
				return fmt.Errorf("insert metric: %w", err)
			}
		}
		stmt.Close()
	}
	return nil
}

// ---------------------------------------------------------------------------
// Domain rows
// ---------------------------------------------------------------------------

type experimentRow struct {
	id        int
	name      string
	createdAt string
}

type runRow struct {
	id        int
	uuid      string
	name      string
	status    string
	startedAt time.Time
}

type seriesPoint struct {
	step  int
	ts    time.Time
	value float64
}

// metricSeries is one run's history for one metric key.
type metricSeries struct {
	runID   int
	runName string
	key     string
	start   time.Time
	points  []seriesPoint
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// loadExperiments retrieves all experiments ordered by name.
func loadExperiments(db *sql.DB) ([]experimentRow, error) {
	rows, err := db.Query(`
		SELECT id, name, created_at
		FROM experiments
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query experiments: %w", err)
	}
	defer rows.Close()

	var out []experimentRow
	for rows.Next() {
		var e experimentRow
		if err := rows.Scan(&e.id, &e.name, &e.createdAt); err != nil {
			return nil, fmt.Errorf("scan experiment: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// findExperiment looks up an experiment by name (case-insensitive), falling
// back to the first one when name is empty.
func findExperiment(db *sql.DB, name string) (experimentRow, error) {
	experiments, err := loadExperiments(db)
	if err != nil {
		return experimentRow{}, err
	}
	if len(experiments) == 0 {
		return experimentRow{}, fmt.Errorf("no experiments in database")
	}
	if strings.TrimSpace(name) == "" {
		return experiments[0], nil
	}
	for _, e := range experiments {
		if strings.EqualFold(e.name, name) {
			return e, nil
		}
	}
	return experimentRow{}, fmt.Errorf("experiment %q not found", name)
}

// loadRuns retrieves runs for an experiment, oldest first.
func loadRuns(db *sql.DB, experimentID int) ([]runRow, error) {
	rows, err := db.Query(`
		SELECT id, uuid, name, status, started_at
		FROM runs
		WHERE experiment_id = ?
		ORDER BY started_at ASC, id ASC
	`, experimentID)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []runRow
	for rows.Next() {
		var r runRow
		var started string
		if err := rows.Scan(&r.id, &r.uuid, &r.name, &r.status, &started); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.startedAt = parseDBTime(started)
		out = append(out, r)
	}
	return out, rows.Err()
}

// loadMetricKeys retrieves the distinct metric keys logged across an
// experiment's runs, ordered alphabetically.
func loadMetricKeys(db *sql.DB, experimentID int) ([]string, error) {
	rows, err := db.Query(`
		SELECT DISTINCT m.key
		FROM metrics m
		JOIN runs r ON r.id = m.run_id
		WHERE r.experiment_id = ?
		ORDER BY m.key ASC
	`, experimentID)
	if err != nil {
		return nil, fmt.Errorf("query metric keys: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan metric key: %w", err)
		}
		out = append(out, key)
	}
	return out, rows.Err()
}

// loadSeries retrieves full metric histories for the given runs and keys,
// ordered by step. One metricSeries per (run, key) pair that has data.
func loadSeries(db *sql.DB, runs []runRow, keys []string) ([]metricSeries, error) {
	if len(runs) == 0 || len(keys) == 0 {
		return nil, nil
	}

	byRun := make(map[int]runRow, len(runs))
	for _, r := range runs {
		byRun[r.id] = r
	}

	stmt, err := db.Prepare(`
		SELECT step, timestamp, value
		FROM metrics
		WHERE run_id = ? AND key = ?
		ORDER BY step ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare series query: %w", err)
	}
	defer stmt.Close()

	var out []metricSeries
	for _, run := range runs {
		for _, key := range keys {
			points, err := querySeriesPoints(stmt, run.id, key)
			if err != nil {
				return nil, err
			}
			if len(points) == 0 {
				continue
			}
			out = append(out, metricSeries{
				runID:   run.id,
				runName: run.name,
				key:     key,
				start:   byRun[run.id].startedAt,
				points:  points,
			})
		}
	}
	return out, nil
}

func querySeriesPoints(stmt *sql.Stmt, runID int, key string) ([]seriesPoint, error) {
	rows, err := stmt.Query(runID, key)
	if err != nil {
		return nil, fmt.Errorf("query series %d/%q: %w", runID, key, err)
	}
	defer rows.Close()

	var out []seriesPoint
	for rows.Next() {
		var p seriesPoint
		var ts string
		if err := rows.Scan(&p.step, &ts, &p.value); err != nil {
			return nil, fmt.Errorf("scan series point: %w", err)
		}
		p.ts = parseDBTime(ts)
		out = append(out, p)
	}
	return out, rows.Err()
}

// parseDBTime parses the timestamp formats the schema produces: RFC3339 from
// the app, `datetime('now')` output from SQLite defaults.
func parseDBTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
