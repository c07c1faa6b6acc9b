package main

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestParseMetricRow(t *testing.T) {
	tests := []struct {
		name    string
		fields  []string
		wantErr bool
	}{
		{"valid rfc3339", []string{"run-1", "loss", "0", "2026-03-01T12:00:00Z", "1.5"}, false},
		{"valid unix", []string{"run-1", "loss", "3", "1740000000", "0.8"}, false},
		{"wrong column count", []string{"run-1", "loss", "0"}, true},
		{"empty run", []string{"", "loss", "0", "1740000000", "1"}, true},
		{"empty key", []string{"run-1", "", "0", "1740000000", "1"}, true},
		{"bad step", []string{"run-1", "loss", "x", "1740000000", "1"}, true},
		{"negative step", []string{"run-1", "loss", "-1", "1740000000", "1"}, true},
		{"bad timestamp", []string{"run-1", "loss", "0", "yesterday", "1"}, true},
		{"bad value", []string{"run-1", "loss", "0", "1740000000", "high"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseMetricRow(tt.fields)
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %t", err, tt.wantErr)
			}
		})
	}
}

func TestParseMetricCSVSkipsHeader(t *testing.T) {
	data := "run,key,step,timestamp,value\nrun-1,loss,0,1740000000,2.0\nrun-1,loss,1,1740000015,1.5\n"
	records, err := parseMetricCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("parseMetricCSV: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0].step != 0 || records[1].step != 1 {
		t.Errorf("steps = %d, %d", records[0].step, records[1].step)
	}
}

func TestParseMetricCSVNoHeader(t *testing.T) {
	data := "run-1,loss,0,1740000000,2.0\n"
	records, err := parseMetricCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("parseMetricCSV: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
}

func TestParseMetricCSVEmpty(t *testing.T) {
	if _, err := parseMetricCSV(strings.NewReader("run,key,step,timestamp,value\n")); err == nil {
		t.Error("expected error for header-only file")
	}
	if _, err := parseMetricCSV(strings.NewReader("")); err == nil {
		t.Error("expected error for empty file")
	}
}

func TestIngestFileCreatesRunsAndMetrics(t *testing.T) {
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

	csvPath := filepath.Join(t.TempDir(), "metrics.csv")
	data := "run,key,step,timestamp,value\n" +
		"trial-1,loss,0,2026-03-01T12:00:00Z,2.0\n" +
		"trial-1,loss,1,2026-03-01T12:00:15Z,1.5\n" +
		"trial-2,loss,0,2026-03-01T12:01:00Z,1.9\n"
	if err := os.WriteFile(csvPath, []byte(data), 0644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	count, err := ingestFile(db, exp.id, csvPath)
	if err != nil {
		t.Fatalf("ingestFile: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}

	runs, err := loadRuns(db, exp.id)
	if err != nil {
		t.Fatalf("loadRuns: %v", err)
	}
	var names []string
	for _, r := range runs {
		names = append(names, r.name)
	}
	for _, want := range []string{"trial-1", "trial-2"} {
		found := false
		for _, n := range names {
			if n == want {
				found = true
			}
		}
		if !found {
			t.Errorf("run %q missing from %v", want, names)
		}
	}

	// Re-importing appends metrics but reuses the run rows.
	if _, err := ingestFile(db, exp.id, csvPath); err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	runsAfter, err := loadRuns(db, exp.id)
	if err != nil {
		t.Fatalf("loadRuns: %v", err)
	}
	if len(runsAfter) != len(runs) {
		t.Errorf("runs after re-import = %d, want %d", len(runsAfter), len(runs))
	}
}

func TestIngestFileRollsBackOnBadRow(t *testing.T) {
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
	keysBefore, _ := loadMetricKeys(db, exp.id)

	csvPath := filepath.Join(t.TempDir(), "bad.csv")
	data := "trial-x,newmetric,0,2026-03-01T12:00:00Z,1.0\ntrial-x,newmetric,oops,2026-03-01T12:00:15Z,2.0\n"
	if err := os.WriteFile(csvPath, []byte(data), 0644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	if _, err := ingestFile(db, exp.id, csvPath); err == nil {
		t.Fatal("expected parse error")
	}

	keysAfter, err := loadMetricKeys(db, exp.id)
	if err != nil {
		t.Fatalf("loadMetricKeys: %v", err)
	}
	if !reflect.DeepEqual(keysBefore, keysAfter) {
		t.Errorf("keys changed after failed import: %v -> %v", keysBefore, keysAfter)
	}
}

func TestListMetricCSVs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.csv", "a.CSV", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	got, err := listMetricCSVs(dir)
	if err != nil {
		t.Fatalf("listMetricCSVs: %v", err)
	}
	want := []string{"a.CSV", "b.csv"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("files = %v, want %v", got, want)
	}
}
