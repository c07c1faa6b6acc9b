package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ---------------------------------------------------------------------------
// Chart control panel
// ---------------------------------------------------------------------------

type panelAction int

const (
	panelActionNone panelAction = iota
	panelActionMoved
	panelActionChanged
	panelActionOpenPicker
)

// panelResult reports what a key press did. When Action is
// panelActionChanged, Change carries the single option change to fold in.
type panelResult struct {
	Action panelAction
	Change optionChangedMsg
}

// chartPanel renders the option controls and turns key presses into option
// change messages. It holds no option state of its own: the model passes the
// current options into every call, so the controls always reflect the truth.
type chartPanel struct {
	cursor int
}

// panelControls returns the control rows the panel currently shows.
func (p *chartPanel) panelControls(opts chartOptions) []control {
	return buildControls(opts)
}

func (p *chartPanel) clampCursor(opts chartOptions) {
	controls := p.panelControls(opts)
	if p.cursor >= len(controls) {
		p.cursor = len(controls) - 1
	}
	if p.cursor < 0 {
		p.cursor = 0
	}
}

// HandleKey processes one key press against the current options.
func (p *chartPanel) HandleKey(keyName string, opts chartOptions) panelResult {
	controls := p.panelControls(opts)
	p.clampCursor(opts)

	switch keyName {
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
			return panelResult{Action: panelActionMoved}
		}
		return panelResult{Action: panelActionNone}
	case "down", "j":
		if p.cursor < len(controls)-1 {
			p.cursor++
			return panelResult{Action: panelActionMoved}
		}
		return panelResult{Action: panelActionNone}
	case "t":
		return panelResult{
			Action: panelActionChanged,
			Change: optionChangedMsg{field: fieldChartType, chart: nextChartType(opts.chartType)},
		}
	case "enter", "space", " ":
		return p.activate(controls, opts)
	case "left", "h":
		return p.adjust(controls, opts, -1)
	case "right", "l":
		return p.adjust(controls, opts, +1)
	default:
		return panelResult{Action: panelActionNone}
	}
}

// activate applies the cursor row's primary action.
func (p *chartPanel) activate(controls []control, opts chartOptions) panelResult {
	if p.cursor >= len(controls) {
		return panelResult{Action: panelActionNone}
	}
	c := controls[p.cursor]

	switch c.kind {
	case controlKindSelect:
		return panelResult{Action: panelActionOpenPicker}
	case controlKindRadio:
		if c.axisMode == opts.selectedXAxis {
			return panelResult{Action: panelActionNone}
		}
		return panelResult{
			Action: panelActionChanged,
			Change: optionChangedMsg{field: fieldXAxis, axis: c.axisMode},
		}
	case controlKindToggle:
		return p.toggle(c, opts)
	case controlKindSlider:
		return panelResult{
			Action: panelActionChanged,
			Change: optionChangedMsg{field: fieldSmoothness, smoothness: nextSmoothness(opts.initialLineSmoothness)},
		}
	default:
		return panelResult{Action: panelActionNone}
	}
}

func (p *chartPanel) toggle(c control, opts chartOptions) panelResult {
	switch c.id {
	case controlShowPointToggle:
		return panelResult{
			Action: panelActionChanged,
			Change: optionChangedMsg{field: fieldShowPoint, enabled: !opts.showPoint},
		}
	case controlLogScaleToggle:
		return panelResult{
			Action: panelActionChanged,
			Change: optionChangedMsg{field: fieldLogScale, enabled: !opts.yAxisLogScale},
		}
	default:
		return panelResult{Action: panelActionNone}
	}
}

// adjust handles left/right on the cursor row: sliders step their value,
// radios move to the adjacent mode.
func (p *chartPanel) adjust(controls []control, opts chartOptions, dir int) panelResult {
	if p.cursor >= len(controls) {
		return panelResult{Action: panelActionNone}
	}
	c := controls[p.cursor]

	switch c.kind {
	case controlKindSlider:
		next := clampSmoothness(opts.initialLineSmoothness + dir*smoothnessStep)
		if next == opts.initialLineSmoothness {
			return panelResult{Action: panelActionNone}
		}
		return panelResult{
			Action: panelActionChanged,
			Change: optionChangedMsg{field: fieldSmoothness, smoothness: next},
		}
	case controlKindRadio:
		modes := xAxisModes()
		idx := 0
		for i, m := range modes {
			if m == opts.selectedXAxis {
				idx = i
			}
		}
		idx += dir
		if idx < 0 || idx >= len(modes) {
			return panelResult{Action: panelActionNone}
		}
		return panelResult{
			Action: panelActionChanged,
			Change: optionChangedMsg{field: fieldXAxis, axis: modes[idx]},
		}
	default:
		return panelResult{Action: panelActionNone}
	}
}

func nextChartType(t chartType) chartType {
	switch t {
	case chartTypeLine:
		return chartTypeBar
	case chartTypeBar:
		return chartTypeLine
	default:
		panic(fmt.Sprintf("unhandled chart type %v in nextChartType", t))
	}
}

// nextSmoothness cycles the slider through its range in steps, wrapping back
// to zero past the top. Used for the enter/space shortcut.
func nextSmoothness(v int) int {
	next := v + smoothnessStep
	if next > smoothnessMax {
		return smoothnessMin
	}
	return next
}

// ---------------------------------------------------------------------------
// Rendering
// ---------------------------------------------------------------------------

var (
	panelLabelStyle    = lipgloss.NewStyle().Foreground(colorText)
	panelDimStyle      = lipgloss.NewStyle().Foreground(colorSubtext0)
	panelValueStyle    = lipgloss.NewStyle().Foreground(colorPeach)
	panelSelectedStyle = lipgloss.NewStyle().Foreground(colorAccent)
)

func (p *chartPanel) render(opts chartOptions, width int, focused bool) string {
	controls := p.panelControls(opts)
	p.clampCursor(opts)

	var lines []string
	lines = append(lines, panelDimStyle.Render("Chart type ")+panelValueStyle.Render(opts.chartType.String())+panelDimStyle.Render("  (t to switch)"))
	lines = append(lines, "")

	for i, c := range controls {
		prefix := "  "
		if focused && i == p.cursor {
			prefix = cursorStyle.Render("> ")
		}
		line := prefix + p.renderControl(c, opts)
		if width > 0 {
			line = truncate(line, width)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (p *chartPanel) renderControl(c control, opts chartOptions) string {
	switch c.kind {
	case controlKindSelect:
		count := fmt.Sprintf("%d/%d", len(opts.selectedMetricKeys), len(opts.distinctMetricKeys))
		return panelLabelStyle.Render(c.label) + " " + panelValueStyle.Render(count)
	case controlKindRadio:
		mark := "( )"
		style := panelDimStyle
		if c.axisMode == opts.selectedXAxis {
			mark = "(•)"
			style = panelSelectedStyle
		}
		return style.Render(mark) + " " + panelLabelStyle.Render(c.label)
	case controlKindToggle:
		on := false
		switch c.id {
		case controlShowPointToggle:
			on = opts.showPoint
		case controlLogScaleToggle:
			on = opts.yAxisLogScale
		}
		mark := "[ ]"
		style := panelDimStyle
		if on {
			mark = "[x]"
			style = panelSelectedStyle
		}
		return style.Render(mark) + " " + panelLabelStyle.Render(c.label)
	case controlKindSlider:
		return panelLabelStyle.Render(c.label) + " " + renderSmoothnessBar(opts.initialLineSmoothness)
	default:
		return panelLabelStyle.Render(c.label)
	}
}

// renderSmoothnessBar draws the slider track, ten cells for the 0-100 range.
func renderSmoothnessBar(v int) string {
	cells := 10
	filled := v * cells / smoothnessMax
	if filled > cells {
		filled = cells
	}
	bar := panelSelectedStyle.Render(strings.Repeat("█", filled)) +
		panelDimStyle.Render(strings.Repeat("░", cells-filled))
	return bar + " " + panelValueStyle.Render(fmt.Sprintf("%3d", v))
}
