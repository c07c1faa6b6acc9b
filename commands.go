package main

import (
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

// ---------------------------------------------------------------------------
// Tea commands
// ---------------------------------------------------------------------------

// openDBCmd returns a Bubble Tea command that opens the database and resolves
// the experiment to display.
func openDBCmd(path, experimentName string) tea.Cmd {
	return func() tea.Msg {
		db, err := openDB(path)
		if err != nil {
			return dbReadyMsg{err: err}
		}
		exp, err := findExperiment(db, experimentName)
		if err != nil {
			_ = db.Close()
			return dbReadyMsg{err: err}
		}
		return dbReadyMsg{db: db, experiment: exp}
	}
}

// refreshCmd returns a Bubble Tea command that reloads the experiment's runs
// and metric key catalog.
func refreshCmd(db *sql.DB, experimentID int) tea.Cmd {
	return func() tea.Msg {
		runs, err := loadRuns(db, experimentID)
		if err != nil {
			return refreshDoneMsg{err: err}
		}
		keys, err := loadMetricKeys(db, experimentID)
		if err != nil {
			return refreshDoneMsg{err: err}
		}
		return refreshDoneMsg{runs: runs, keys: keys}
	}
}

// loadSeriesCmd returns a Bubble Tea command that fetches metric histories
// for the given runs and keys.
func loadSeriesCmd(db *sql.DB, runs []runRow, keys []string) tea.Cmd {
	return func() tea.Msg {
		series, err := loadSeries(db, runs, keys)
		return seriesLoadedMsg{series: series, err: err}
	}
}

// ingestCmd returns a Bubble Tea command that imports a metric CSV file.
func ingestCmd(db *sql.DB, experimentID int, filename, basePath string) tea.Cmd {
	return func() tea.Msg {
		path := filename
		if !filepath.IsAbs(path) {
			path = filepath.Join(basePath, path)
		}
		count, err := ingestFile(db, experimentID, path)
		return ingestDoneMsg{count: count, err: err, file: filepath.Base(path)}
	}
}

// loadFilesCmd returns a Bubble Tea command that scans basePath for CSV files.
func loadFilesCmd(basePath string) tea.Cmd {
	return func() tea.Msg {
		names, err := listMetricCSVs(basePath)
		if err != nil {
			return filesLoadedMsg{err: fmt.Errorf("scan %s: %w", basePath, err)}
		}
		var items []list.Item
		for _, name := range names {
			items = append(items, fileItem{name: name})
		}
		return filesLoadedMsg{items: items}
	}
}

// saveConfigCmd returns a Bubble Tea command that persists the current chart
// options as the startup defaults.
func saveConfigCmd(opts chartOptions, settings appSettings) tea.Cmd {
	return func() tea.Msg {
		err := saveAppConfig(chartDefaultsFromOptions(opts), settings)
		return configSavedMsg{err: err}
	}
}

// optionCmd wraps a panel change so it flows through Update like any other
// message.
func optionCmd(msg optionChangedMsg) tea.Cmd {
	return func() tea.Msg { return msg }
}
