package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// ---------------------------------------------------------------------------
// App configuration (TOML-based)
// ---------------------------------------------------------------------------

// chartDefaults seeds the chart panel options on startup. Values are strings
// in the file and validated into enums on load.
type chartDefaults struct {
	ChartType  string `toml:"chart_type"`
	XAxis      string `toml:"x_axis"`
	Smoothness int    `toml:"smoothness"`
	YLogScale  bool   `toml:"y_log_scale"`
	ShowPoints bool   `toml:"show_points"`
}

type appSettings struct {
	RowsPerPage int    `toml:"rows_per_page"`
	Experiment  string `toml:"experiment"`
}

// configFile is the top-level TOML structure.
type configFile struct {
	Chart    chartDefaults `toml:"chart"`
	Settings appSettings   `toml:"settings"`
}

const defaultConfigTOML = `# Runboard configuration.
# chart holds the defaults the chart panel starts with.

[chart]
chart_type = "line"
x_axis = "step"
smoothness = 0
y_log_scale = false
show_points = false

[settings]
rows_per_page = 20
experiment = ""
`

// configDir returns the directory for runboard config files,
// using XDG_CONFIG_HOME or falling back to ~/.config.
func configDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("user config dir: %w", err)
	}
	return filepath.Join(dir, "runboard"), nil
}

func configPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "runboard.toml"), nil
}

func defaultChartDefaults() chartDefaults {
	return chartDefaults{
		ChartType:  "line",
		XAxis:      "step",
		Smoothness: 0,
		YLogScale:  false,
		ShowPoints: false,
	}
}

func defaultSettings() appSettings {
	return appSettings{RowsPerPage: 20}
}

// loadAppConfig reads the config file, creating it with defaults if missing.
// Invalid values fall back to defaults rather than failing startup.
func loadAppConfig() (chartDefaults, appSettings, error) {
	path, err := configPath()
	if err != nil {
		return defaultChartDefaults(), defaultSettings(), err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0755); mkErr != nil {
			return defaultChartDefaults(), defaultSettings(), fmt.Errorf("create config dir: %w", mkErr)
		}
		if wErr := os.WriteFile(path, []byte(defaultConfigTOML), 0644); wErr != nil {
			return defaultChartDefaults(), defaultSettings(), fmt.Errorf("write default config: %w", wErr)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return defaultChartDefaults(), defaultSettings(), fmt.Errorf("read config: %w", err)
	}
	chart, settings, parseErr := parseConfig(data)
	if parseErr != nil {
		return defaultChartDefaults(), defaultSettings(), parseErr
	}
	return chart, settings, nil
}

// parseConfig parses TOML bytes into normalized config content.
func parseConfig(data []byte) (chartDefaults, appSettings, error) {
	var cfg configFile
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return defaultChartDefaults(), defaultSettings(), fmt.Errorf("parse runboard.toml: %w", err)
	}
	return normalizeChartDefaults(cfg.Chart), normalizeSettings(cfg.Settings), nil
}

func normalizeChartDefaults(c chartDefaults) chartDefaults {
	out := defaultChartDefaults()
	if _, err := parseChartType(c.ChartType); err == nil {
		out.ChartType = strings.ToLower(strings.TrimSpace(c.ChartType))
	}
	if mode, err := parseXAxisMode(c.XAxis); err == nil {
		out.XAxis = mode.String()
	}
	out.Smoothness = clampSmoothness(c.Smoothness)
	out.YLogScale = c.YLogScale
	out.ShowPoints = c.ShowPoints
	return out
}

func normalizeSettings(s appSettings) appSettings {
	out := defaultSettings()
	if s.RowsPerPage >= 5 && s.RowsPerPage <= 50 {
		out.RowsPerPage = s.RowsPerPage
	}
	out.Experiment = strings.TrimSpace(s.Experiment)
	return out
}

// chartOptionsFromDefaults builds the startup panel options from validated
// config values. Metric keys arrive later from the database.
func chartOptionsFromDefaults(c chartDefaults) chartOptions {
	opts := defaultChartOptions()
	if t, err := parseChartType(c.ChartType); err == nil {
		opts.chartType = t
	}
	if mode, err := parseXAxisMode(c.XAxis); err == nil {
		opts.selectedXAxis = mode
		opts.xAxis = mode
	}
	opts.initialLineSmoothness = clampSmoothness(c.Smoothness)
	opts.yAxisLogScale = c.YLogScale
	opts.showPoint = c.ShowPoints
	return opts
}

// chartDefaultsFromOptions is the inverse mapping, used when persisting the
// current panel state as the new defaults.
func chartDefaultsFromOptions(opts chartOptions) chartDefaults {
	return chartDefaults{
		ChartType:  opts.chartType.String(),
		XAxis:      opts.xAxis.String(),
		Smoothness: opts.initialLineSmoothness,
		YLogScale:  opts.yAxisLogScale,
		ShowPoints: opts.showPoint,
	}
}

// saveAppConfig persists chart defaults and settings, preserving whatever
// else parses from the existing file.
func saveAppConfig(chart chartDefaults, settings appSettings) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	cfg := configFile{
		Chart:    normalizeChartDefaults(chart),
		Settings: normalizeSettings(settings),
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encode runboard.toml: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write runboard.toml: %w", err)
	}
	return nil
}
