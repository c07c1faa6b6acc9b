package main

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Chart type and x-axis mode enums
// ---------------------------------------------------------------------------

type chartType int

const (
	chartTypeLine chartType = iota
	chartTypeBar
)

func (t chartType) String() string {
	switch t {
	case chartTypeLine:
		return "line"
	case chartTypeBar:
		return "bar"
	default:
		return fmt.Sprintf("chartType(%d)", int(t))
	}
}

func parseChartType(s string) (chartType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "line":
		return chartTypeLine, nil
	case "bar":
		return chartTypeBar, nil
	default:
		return chartTypeLine, fmt.Errorf("unknown chart type %q", s)
	}
}

type xAxisMode int

const (
	xAxisStep xAxisMode = iota
	xAxisTime
	xAxisRelative
)

func (m xAxisMode) String() string {
	switch m {
	case xAxisStep:
		return "step"
	case xAxisTime:
		return "time"
	case xAxisRelative:
		return "relative"
	default:
		return fmt.Sprintf("xAxisMode(%d)", int(m))
	}
}

func parseXAxisMode(s string) (xAxisMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "step":
		return xAxisStep, nil
	case "time", "wall":
		return xAxisTime, nil
	case "relative":
		return xAxisRelative, nil
	default:
		return xAxisStep, fmt.Errorf("unknown x-axis mode %q", s)
	}
}

// xAxisModes lists the selectable axis modes in radio display order.
func xAxisModes() []xAxisMode {
	return []xAxisMode{xAxisStep, xAxisTime, xAxisRelative}
}

func xAxisModeLabel(m xAxisMode) string {
	switch m {
	case xAxisStep:
		return "Step"
	case xAxisTime:
		return "Time (wall)"
	case xAxisRelative:
		return "Relative"
	default:
		return m.String()
	}
}

// ---------------------------------------------------------------------------
// Chart options
// ---------------------------------------------------------------------------

const (
	smoothnessMin  = 0
	smoothnessMax  = 100
	smoothnessStep = 5
)

// chartOptions is the full configuration contract of the chart panel and the
// chart view. It is a plain value: the panel owns no state beyond it, and the
// model re-supplies it on every change.
//
// selectedXAxis and xAxis are kept as separate fields: selectedXAxis tracks
// the radio highlight in the panel, xAxis is the mode the chart view actually
// plots with. A change commits both, but readers stay distinct.
type chartOptions struct {
	distinctMetricKeys    []string
	selectedMetricKeys    []string
	selectedXAxis         xAxisMode
	xAxis                 xAxisMode
	chartType             chartType
	initialLineSmoothness int
	yAxisLogScale         bool
	showPoint             bool
}

func defaultChartOptions() chartOptions {
	return chartOptions{
		selectedXAxis:         xAxisStep,
		xAxis:                 xAxisStep,
		chartType:             chartTypeLine,
		initialLineSmoothness: smoothnessMin,
	}
}

// normalizeOptions enforces the data-model invariants: distinct keys are
// deduplicated in order, selected keys are a subset of distinct keys, and
// smoothness is clamped to its range.
func normalizeOptions(opts chartOptions) chartOptions {
	seen := make(map[string]bool, len(opts.distinctMetricKeys))
	distinct := make([]string, 0, len(opts.distinctMetricKeys))
	for _, key := range opts.distinctMetricKeys {
		key = strings.TrimSpace(key)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		distinct = append(distinct, key)
	}
	opts.distinctMetricKeys = distinct

	selected := make([]string, 0, len(opts.selectedMetricKeys))
	for _, key := range opts.selectedMetricKeys {
		key = strings.TrimSpace(key)
		if seen[key] {
			selected = append(selected, key)
			seen[key] = false // drop duplicates within the selection too
		}
	}
	// restore membership for keys consumed above
	for _, key := range distinct {
		seen[key] = true
	}
	opts.selectedMetricKeys = selected

	opts.initialLineSmoothness = clampSmoothness(opts.initialLineSmoothness)
	return opts
}

func clampSmoothness(v int) int {
	if v < smoothnessMin {
		return smoothnessMin
	}
	if v > smoothnessMax {
		return smoothnessMax
	}
	return v
}

// ---------------------------------------------------------------------------
// Controls
// ---------------------------------------------------------------------------

// Stable control identifiers. Tests and the panel renderer locate controls by
// these IDs; they are part of the panel's external contract.
const (
	controlMetricSelect     = "metric-select"
	controlXAxisRadio       = "x-axis-radio"
	controlShowPointToggle  = "show-point-toggle"
	controlSmoothnessToggle = "smoothness-toggle"
	controlLogScaleToggle   = "log-scale-toggle"
)

type controlKind int

const (
	controlKindSelect controlKind = iota
	controlKindRadio
	controlKindToggle
	controlKindSlider
)

type control struct {
	id    string
	kind  controlKind
	label string
	// axisMode is only meaningful for x-axis radio controls.
	axisMode xAxisMode
}

// buildControls assembles the visible control set for the given options.
// Which controls appear is a pure function of the chart type and nothing
// else. The switch is exhaustive over the chart-type variants so that adding
// a new variant fails loudly instead of silently dropping controls.
func buildControls(opts chartOptions) []control {
	metricSelect := control{id: controlMetricSelect, kind: controlKindSelect, label: "Metrics"}
	logScale := control{id: controlLogScaleToggle, kind: controlKindToggle, label: "Y-axis log scale"}

	switch opts.chartType {
	case chartTypeLine:
		out := []control{metricSelect}
		for _, mode := range xAxisModes() {
			out = append(out, control{
				id:       controlXAxisRadio,
				kind:     controlKindRadio,
				label:    xAxisModeLabel(mode),
				axisMode: mode,
			})
		}
		out = append(out,
			control{id: controlShowPointToggle, kind: controlKindToggle, label: "Show points"},
			control{id: controlSmoothnessToggle, kind: controlKindSlider, label: "Line smoothness"},
			logScale,
		)
		return out
	case chartTypeBar:
		return []control{metricSelect, logScale}
	default:
		panic(fmt.Sprintf("unhandled chart type %v in buildControls", opts.chartType))
	}
}

func countControls(controls []control, id string) int {
	n := 0
	for _, c := range controls {
		if c.id == id {
			n++
		}
	}
	return n
}

// ---------------------------------------------------------------------------
// Option change message
// ---------------------------------------------------------------------------

type optionField int

const (
	fieldSelectedMetrics optionField = iota
	fieldXAxis
	fieldChartType
	fieldSmoothness
	fieldLogScale
	fieldShowPoint
)

func (f optionField) String() string {
	switch f {
	case fieldSelectedMetrics:
		return "selected_metrics"
	case fieldXAxis:
		return "x_axis"
	case fieldChartType:
		return "chart_type"
	case fieldSmoothness:
		return "smoothness"
	case fieldLogScale:
		return "log_scale"
	case fieldShowPoint:
		return "show_point"
	default:
		return fmt.Sprintf("optionField(%d)", int(f))
	}
}

// optionChangedMsg is the single change notification emitted by the panel.
// field discriminates which payload member is meaningful; everything else is
// zero. The model folds it into its options with applyOptionChange.
type optionChangedMsg struct {
	field      optionField
	metricKeys []string
	axis       xAxisMode
	chart      chartType
	smoothness int
	enabled    bool
}

// applyOptionChange folds a change message into an options value. It is the
// only writer of chart options after construction.
func applyOptionChange(opts chartOptions, msg optionChangedMsg) chartOptions {
	switch msg.field {
	case fieldSelectedMetrics:
		opts.selectedMetricKeys = append([]string(nil), msg.metricKeys...)
		return normalizeOptions(opts)
	case fieldXAxis:
		opts.selectedXAxis = msg.axis
		opts.xAxis = msg.axis
		return opts
	case fieldChartType:
		opts.chartType = msg.chart
		return opts
	case fieldSmoothness:
		opts.initialLineSmoothness = clampSmoothness(msg.smoothness)
		return opts
	case fieldLogScale:
		opts.yAxisLogScale = msg.enabled
		return opts
	case fieldShowPoint:
		opts.showPoint = msg.enabled
		return opts
	default:
		return opts
	}
}
