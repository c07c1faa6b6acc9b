package main

import (
	"fmt"
	"math"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/NimbleMarkets/ntcharts/canvas"
	tslc "github.com/NimbleMarkets/ntcharts/linechart/timeserieslinechart"
	"github.com/charmbracelet/lipgloss"
)

// ---------------------------------------------------------------------------
// Chart rendering
// ---------------------------------------------------------------------------

var (
	chartAxisStyle  = lipgloss.NewStyle().Foreground(colorSurface2)
	chartLabelStyle = lipgloss.NewStyle().Foreground(colorOverlay1)
	chartEmptyStyle = lipgloss.NewStyle().Foreground(colorOverlay1)
)

// renderChart draws the chart for the current options. The switch is
// exhaustive over the chart-type variants, like buildControls.
func renderChart(opts chartOptions, series []metricSeries, width, height int) string {
	if width < 20 {
		width = 20
	}
	if height < 5 {
		height = 5
	}

	visible := visibleSeries(opts, series)
	if len(visible) == 0 {
		return chartEmptyStyle.Render("No metric data to display. Select metrics with 'm'.")
	}

	switch opts.chartType {
	case chartTypeLine:
		return renderLineChart(opts, visible, width, height)
	case chartTypeBar:
		return renderBarChart(opts, visible, width, height)
	default:
		panic(fmt.Sprintf("unhandled chart type %v in renderChart", opts.chartType))
	}
}

// visibleSeries filters the loaded series down to the selected metric keys,
// keeping selection order so colors stay stable when keys toggle.
func visibleSeries(opts chartOptions, series []metricSeries) []metricSeries {
	var out []metricSeries
	for _, key := range opts.selectedMetricKeys {
		for _, s := range series {
			if s.key == key && len(s.points) > 0 {
				out = append(out, s)
			}
		}
	}
	return out
}

func seriesName(s metricSeries) string {
	return s.runName + "/" + s.key
}

// ---------------------------------------------------------------------------
// Line chart
// ---------------------------------------------------------------------------

func renderLineChart(opts chartOptions, series []metricSeries, width, height int) string {
	chart := tslc.New(width, height,
		tslc.WithAxesStyles(chartAxisStyle, chartLabelStyle),
		tslc.WithXLabelFormatter(xLabelFormatterFor(opts.xAxis)),
		tslc.WithYLabelFormatter(chartYLabelFormatter(opts.yAxisLogScale)),
	)

	type plotted struct {
		name   string
		style  lipgloss.Style
		points []tslc.TimePoint
	}

	var (
		plots        []plotted
		minX, maxX   time.Time
		minY, maxY   float64
		haveX, haveY bool
	)
	for i, s := range series {
		values := smoothSeries(seriesValues(s), opts.initialLineSmoothness)
		style := lipgloss.NewStyle().Foreground(seriesColor(i))

		var pts []tslc.TimePoint
		for j, p := range s.points {
			v := values[j]
			if opts.yAxisLogScale {
				if v <= 0 {
					continue
				}
				v = math.Log10(v)
			}
			x := plotTime(s, p, opts.xAxis)
			pts = append(pts, tslc.TimePoint{Time: x, Value: v})

			if !haveX || x.Before(minX) {
				minX = x
			}
			if !haveX || x.After(maxX) {
				maxX = x
			}
			haveX = true
			if !haveY || v < minY {
				minY = v
			}
			if !haveY || v > maxY {
				maxY = v
			}
			haveY = true
		}
		if len(pts) == 0 {
			continue
		}
		plots = append(plots, plotted{name: seriesName(s), style: style, points: pts})
	}
	if len(plots) == 0 {
		return chartEmptyStyle.Render("No plottable values (log scale hides non-positive data).")
	}

	if maxY == minY {
		maxY = minY + 1
	}
	pad := (maxY - minY) * 0.05
	chart.SetTimeRange(minX, maxX)
	chart.SetViewTimeRange(minX, maxX)
	chart.SetYRange(minY-pad, maxY+pad)
	chart.SetViewYRange(minY-pad, maxY+pad)

	for _, p := range plots {
		chart.SetDataSetStyle(p.name, p.style)
		for _, pt := range p.points {
			chart.PushDataSet(p.name, pt)
		}
	}

	chart.DrawXYAxisAndLabel()
	chart.DrawBrailleAll()

	if opts.showPoint {
		for _, p := range plots {
			for _, pt := range p.points {
				markDataPoint(&chart, pt, p.style)
			}
		}
	}

	return chart.View()
}

// plotTime maps a series point onto the chart's time axis. Step and relative
// modes reuse the time axis by encoding step count and elapsed seconds as
// unix timestamps, which the matching label formatter decodes.
func plotTime(s metricSeries, p seriesPoint, mode xAxisMode) time.Time {
	switch mode {
	case xAxisStep:
		return time.Unix(int64(p.step), 0)
	case xAxisTime:
		return p.ts
	case xAxisRelative:
		elapsed := p.ts.Sub(s.start)
		if elapsed < 0 {
			elapsed = 0
		}
		return time.Unix(int64(elapsed/time.Second), 0)
	default:
		return p.ts
	}
}

func xLabelFormatterFor(mode xAxisMode) func(int, float64) string {
	switch mode {
	case xAxisStep:
		return func(_ int, v float64) string {
			return fmt.Sprintf("%d", int64(v))
		}
	case xAxisTime:
		return tslc.HourTimeLabelFormatter()
	case xAxisRelative:
		return func(_ int, v float64) string {
			return formatElapsed(int64(v))
		}
	default:
		return tslc.HourTimeLabelFormatter()
	}
}

func formatElapsed(secs int64) string {
	if secs < 0 {
		secs = 0
	}
	switch {
	case secs < 60:
		return fmt.Sprintf("%ds", secs)
	case secs < 3600:
		return fmt.Sprintf("%dm", secs/60)
	default:
		return fmt.Sprintf("%dh%02dm", secs/3600, (secs%3600)/60)
	}
}

// chartYLabelFormatter keeps small values readable and, under log scale,
// labels ticks with the original magnitude instead of the exponent.
func chartYLabelFormatter(logScale bool) func(int, float64) string {
	format := func(v float64) string {
		abs := math.Abs(v)
		switch {
		case v == 0:
			return "0"
		case abs < 1:
			return fmt.Sprintf("%.2f", v)
		case abs < 1000:
			return fmt.Sprintf("%.1f", v)
		default:
			return fmt.Sprintf("%.0f", v)
		}
	}
	if !logScale {
		return func(_ int, v float64) string { return format(v) }
	}
	return func(_ int, v float64) string {
		actual := math.Pow(10, v)
		if actual >= 1000 || actual < 0.01 {
			return fmt.Sprintf("1e%.0f", v)
		}
		return format(actual)
	}
}

// markDataPoint stamps a point marker onto the canvas at the cell the value
// scales to, leaving the braille lines everywhere else.
func markDataPoint(chart *tslc.Model, pt tslc.TimePoint, style lipgloss.Style) {
	f := canvas.Float64Point{X: float64(pt.Time.Unix()), Y: pt.Value}
	scaled := chart.ScaleFloat64Point(f)
	p := canvas.CanvasPointFromFloat64Point(chart.Origin(), scaled)
	if chart.YStep() > 0 {
		p.X++
	}
	if chart.XStep() > 0 {
		p.Y--
	}

	origin := chart.Origin()
	topY := origin.Y - chart.GraphHeight()
	if topY < 0 {
		topY = 0
	}
	if p.X <= origin.X || p.X >= chart.Width() || p.Y < topY || p.Y >= origin.Y {
		return
	}
	chart.Canvas.SetRuneWithStyle(p, '•', style)
}

// ---------------------------------------------------------------------------
// Bar chart
// ---------------------------------------------------------------------------

// renderBarChart shows the latest logged value per run and metric, one bar
// group per run.
func renderBarChart(opts chartOptions, series []metricSeries, width, height int) string {
	byRun := make(map[int][]metricSeries)
	var runOrder []int
	for _, s := range series {
		if _, seen := byRun[s.runID]; !seen {
			runOrder = append(runOrder, s.runID)
		}
		byRun[s.runID] = append(byRun[s.runID], s)
	}

	styleByKey := make(map[string]lipgloss.Style, len(opts.selectedMetricKeys))
	for i, key := range opts.selectedMetricKeys {
		styleByKey[key] = lipgloss.NewStyle().Foreground(seriesColor(i))
	}

	var bars []barchart.BarData
	for _, runID := range runOrder {
		group := byRun[runID]
		bar := barchart.BarData{Label: group[0].runName}
		for _, s := range group {
			v := latestValue(s)
			if opts.yAxisLogScale {
				if v <= 0 {
					continue
				}
				v = math.Log10(v)
			}
			bar.Values = append(bar.Values, barchart.BarValue{
				Name:  s.key,
				Value: v,
				Style: styleByKey[s.key],
			})
		}
		if len(bar.Values) > 0 {
			bars = append(bars, bar)
		}
	}
	if len(bars) == 0 {
		return chartEmptyStyle.Render("No plottable values (log scale hides non-positive data).")
	}

	chart := barchart.New(width, height,
		barchart.WithDataSet(bars),
		barchart.WithStyles(chartAxisStyle, chartLabelStyle),
	)
	chart.Draw()
	return chart.View()
}

func seriesValues(s metricSeries) []float64 {
	out := make([]float64, len(s.points))
	for i, p := range s.points {
		out[i] = p.value
	}
	return out
}

func latestValue(s metricSeries) float64 {
	if len(s.points) == 0 {
		return 0
	}
	return s.points[len(s.points)-1].value
}
