package main

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Metric CSV import
// ---------------------------------------------------------------------------

// metricRecord is one parsed CSV row: a single logged metric value.
type metricRecord struct {
	runName   string
	key       string
	step      int
	timestamp time.Time
	value     float64
}

// parseMetricRow parses one CSV record of the form
// run,key,step,timestamp,value. The timestamp is RFC3339 or a unix-seconds
// integer.
func parseMetricRow(fields []string) (metricRecord, error) {
	if len(fields) != 5 {
		return metricRecord{}, fmt.Errorf("expected 5 columns, got %d", len(fields))
	}

	rec := metricRecord{
		runName: strings.TrimSpace(fields[0]),
		key:     strings.TrimSpace(fields[1]),
	}
	if rec.runName == "" {
		return metricRecord{}, fmt.Errorf("empty run name")
	}
	if rec.key == "" {
		return metricRecord{}, fmt.Errorf("empty metric key")
	}

	step, err := strconv.Atoi(strings.TrimSpace(fields[2]))
	if err != nil {
		return metricRecord{}, fmt.Errorf("bad step %q: %w", fields[2], err)
	}
	if step < 0 {
		return metricRecord{}, fmt.Errorf("negative step %d", step)
	}
	rec.step = step

	rec.timestamp, err = parseMetricTimestamp(strings.TrimSpace(fields[3]))
	if err != nil {
		return metricRecord{}, err
	}

	rec.value, err = strconv.ParseFloat(strings.TrimSpace(fields[4]), 64)
	if err != nil {
		return metricRecord{}, fmt.Errorf("bad value %q: %w", fields[4], err)
	}
	return rec, nil
}

func parseMetricTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("bad timestamp %q", s)
}

// parseMetricCSV reads all records from r, skipping a header row when the
// first record's step column is not numeric.
func parseMetricCSV(r io.Reader) ([]metricRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	var out []metricRecord
	line := 0
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line++

		if line == 1 && looksLikeHeader(fields) {
			continue
		}

		rec, err := parseMetricRow(fields)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		out = append(out, rec)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no metric rows found")
	}
	return out, nil
}

func looksLikeHeader(fields []string) bool {
	if len(fields) != 5 {
		return false
	}
	_, err := strconv.Atoi(strings.TrimSpace(fields[2]))
	return err != nil
}

// ingestFile imports a metric CSV into the experiment, creating run rows on
// first sight of each run name. Returns the number of metric values written.
func ingestFile(db *sql.DB, experimentID int, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	records, err := parseMetricCSV(f)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	runIDs := make(map[string]int64)
	for _, rec := range records {
		if _, ok := runIDs[rec.runName]; ok {
			continue
		}
		id, err := ensureRun(tx, experimentID, rec.runName, rec.timestamp)
		if err != nil {
			return 0, err
		}
		runIDs[rec.runName] = id
	}

	stmt, err := tx.Prepare(`
		INSERT INTO metrics (run_id, key, step, timestamp, value)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare metric insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		_, err := stmt.Exec(runIDs[rec.runName], rec.key, rec.step, rec.timestamp.UTC().Format(time.RFC3339), rec.value)
		if err != nil {
			return 0, fmt.Errorf("insert metric %q step %d: %w", rec.key, rec.step, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return len(records), nil
}

// ensureRun returns the id of the named run in the experiment, inserting a
// new row (with a fresh uuid) when it does not exist yet.
func ensureRun(tx *sql.Tx, experimentID int, name string, startedAt time.Time) (int64, error) {
	var id int64
	err := tx.QueryRow(`
		SELECT id FROM runs WHERE experiment_id = ? AND name = ?
	`, experimentID, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("find run %q: %w", name, err)
	}

	res, err := tx.Exec(`
		INSERT INTO runs (uuid, experiment_id, name, status, started_at)
		VALUES (?, ?, ?, 'RUNNING', ?)
	`, uuid.NewString(), experimentID, name, startedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("insert run %q: %w", name, err)
	}
	return res.LastInsertId()
}

// listMetricCSVs returns the csv files in dir, sorted by name.
func listMetricCSVs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var out []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			out = append(out, entry.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}
