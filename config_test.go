package main

import (
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	chart, settings, err := parseConfig([]byte(defaultConfigTOML))
	if err != nil {
		t.Fatalf("parseConfig: %v", err)
	}
	if chart != defaultChartDefaults() {
		t.Errorf("chart = %+v, want defaults", chart)
	}
	if settings.RowsPerPage != 20 {
		t.Errorf("rows_per_page = %d, want 20", settings.RowsPerPage)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	data := []byte(`
[chart]
chart_type = "bar"
x_axis = "relative"
smoothness = 40
y_log_scale = true
show_points = true

[settings]
rows_per_page = 10
experiment = "mnist"
`)
	chart, settings, err := parseConfig(data)
	if err != nil {
		t.Fatalf("parseConfig: %v", err)
	}
	if chart.ChartType != "bar" || chart.XAxis != "relative" || chart.Smoothness != 40 {
		t.Errorf("chart = %+v", chart)
	}
	if !chart.YLogScale || !chart.ShowPoints {
		t.Errorf("toggles = %+v", chart)
	}
	if settings.RowsPerPage != 10 || settings.Experiment != "mnist" {
		t.Errorf("settings = %+v", settings)
	}
}

func TestParseConfigInvalidValuesFallBack(t *testing.T) {
	data := []byte(`
[chart]
chart_type = "pie"
x_axis = "epoch"
smoothness = 400

[settings]
rows_per_page = 500
`)
	chart, settings, err := parseConfig(data)
	if err != nil {
		t.Fatalf("parseConfig: %v", err)
	}
	if chart.ChartType != "line" {
		t.Errorf("chart_type = %q, want line fallback", chart.ChartType)
	}
	if chart.XAxis != "step" {
		t.Errorf("x_axis = %q, want step fallback", chart.XAxis)
	}
	if chart.Smoothness != smoothnessMax {
		t.Errorf("smoothness = %d, want clamped to %d", chart.Smoothness, smoothnessMax)
	}
	if settings.RowsPerPage != 20 {
		t.Errorf("rows_per_page = %d, want 20 fallback", settings.RowsPerPage)
	}
}

func TestParseConfigMalformedTOML(t *testing.T) {
	_, _, err := parseConfig([]byte("[chart\nchart_type ="))
	if err == nil {
		t.Fatal("expected parse error")
	}
}

func TestChartOptionsFromDefaultsRoundTrip(t *testing.T) {
	dfl := chartDefaults{
		ChartType:  "bar",
		XAxis:      "relative",
		Smoothness: 25,
		YLogScale:  true,
		ShowPoints: true,
	}
	opts := chartOptionsFromDefaults(dfl)

	if opts.chartType != chartTypeBar {
		t.Errorf("chartType = %v, want bar", opts.chartType)
	}
	if opts.selectedXAxis != xAxisRelative || opts.xAxis != xAxisRelative {
		t.Errorf("axis = %v/%v, want relative", opts.selectedXAxis, opts.xAxis)
	}
	if opts.initialLineSmoothness != 25 {
		t.Errorf("smoothness = %d, want 25", opts.initialLineSmoothness)
	}

	back := chartDefaultsFromOptions(opts)
	if back != dfl {
		t.Errorf("round trip = %+v, want %+v", back, dfl)
	}
}
