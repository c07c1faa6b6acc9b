package main

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestOpenDBSeedsDemoExperiment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	db, err := openDB(path)
	if err != nil {
		t.Fatalf("openDB: %v", err)
	}
	defer db.Close()

	experiments, err := loadExperiments(db)
	if err != nil {
		t.Fatalf("loadExperiments: %v", err)
	}
	if len(experiments) != 1 || experiments[0].name != "demo" {
		t.Fatalf("experiments = %+v, want one named demo", experiments)
	}

	runs, err := loadRuns(db, experiments[0].id)
	if err != nil {
		t.Fatalf("loadRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}
	for _, r := range runs {
		if r.uuid == "" {
			t.Errorf("run %q has empty uuid", r.name)
		}
		if r.startedAt.IsZero() {
			t.Errorf("run %q has zero start time", r.name)
		}
	}

	keys, err := loadMetricKeys(db, experiments[0].id)
	if err != nil {
		t.Fatalf("loadMetricKeys: %v", err)
	}
	want := []string{"accuracy", "loss"}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("keys = %v, want %v", keys, want)
	}
}

func TestOpenDBIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	db, err := openDB(path)
	if err != nil {
		t.Fatalf("openDB: %v", err)
	}
	db.Close()

	// Reopening must not reseed or fail migration.
	db, err = openDB(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()

	experiments, err := loadExperiments(db)
	if err != nil {
		t.Fatalf("loadExperiments: %v", err)
	}
	if len(experiments) != 1 {
		t.Errorf("experiments after reopen = %d, want 1", len(experiments))
	}
}

func TestFindExperiment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	db, err := openDB(path)
	if err != nil {
		t.Fatalf("openDB: %v", err)
	}
	defer db.Close()

	exp, err := findExperiment(db, "")
	if err != nil {
		t.Fatalf("findExperiment empty: %v", err)
	}
	if exp.name != "demo" {
		t.Errorf("default experiment = %q, want demo", exp.name)
	}

	if _, err := findExperiment(db, "DEMO"); err != nil {
		t.Errorf("case-insensitive lookup failed: %v", err)
	}
	if _, err := findExperiment(db, "nope"); err == nil {
		t.Error("expected error for unknown experiment")
	}
}

func TestLoadSeriesOrderedBySteps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	db, err := openDB(path)
	if err != nil {
		t.Fatalf("openDB: %v", err)
	}
	defer db.Close()

	exp, err := findExperiment(db, "")
	if err != nil {
		t.Fatalf("findExperiment: %v", err)
	}
	runs, err := loadRuns(db, exp.id)
	if err != nil {
		t.Fatalf("loadRuns: %v", err)
	}

	series, err := loadSeries(db, runs, []string{"loss"})
	if err != nil {
		t.Fatalf("loadSeries: %v", err)
	}
	if len(series) != len(runs) {
		t.Fatalf("series = %d, want %d", len(series), len(runs))
	}
	for _, s := range series {
		if s.key != "loss" {
			t.Errorf("key = %q, want loss", s.key)
		}
		if len(s.points) != 50 {
			t.Errorf("points = %d, want 50", len(s.points))
		}
		for i := 1; i < len(s.points); i++ {
			if s.points[i].step <= s.points[i-1].step {
				t.Fatalf("steps out of order at %d: %d <= %d", i, s.points[i].step, s.points[i-1].step)
			}
		}
	}
}

func TestLoadSeriesEmptyInputs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	db, err := openDB(path)
	if err != nil {
		t.Fatalf("openDB: %v", err)
	}
	defer db.Close()

	if series, err := loadSeries(db, nil, []string{"loss"}); err != nil || series != nil {
		t.Errorf("no runs: series = %v, err = %v", series, err)
	}
	if series, err := loadSeries(db, []runRow{{id: 1}}, nil); err != nil || series != nil {
		t.Errorf("no keys: series = %v, err = %v", series, err)
	}
}

func TestParseDBTime(t *testing.T) {
	rfc := "2026-03-01T12:00:00Z"
	if got := parseDBTime(rfc); got.IsZero() {
		t.Errorf("parseDBTime(%q) returned zero", rfc)
	}
	sqliteNow := "2026-03-01 12:00:00"
	if got := parseDBTime(sqliteNow); got.IsZero() {
		t.Errorf("parseDBTime(%q) returned zero", sqliteNow)
	}
	if got := parseDBTime("garbage"); !got.Equal(time.Time{}) {
		t.Errorf("parseDBTime(garbage) = %v, want zero", got)
	}
}
