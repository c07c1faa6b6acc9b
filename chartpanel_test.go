package main

import (
	"strings"
	"testing"
)

func TestPanelToggleChartTypeKey(t *testing.T) {
	var p chartPanel
	opts := lineOptions()

	res := p.HandleKey("t", opts)
	if res.Action != panelActionChanged {
		t.Fatalf("action = %v, want changed", res.Action)
	}
	if res.Change.field != fieldChartType || res.Change.chart != chartTypeBar {
		t.Errorf("change = %+v, want chart type bar", res.Change)
	}

	opts = applyOptionChange(opts, res.Change)
	res = p.HandleKey("t", opts)
	if res.Change.chart != chartTypeLine {
		t.Errorf("second toggle chart = %v, want line", res.Change.chart)
	}
}

func TestPanelEnterOnMetricSelectOpensPicker(t *testing.T) {
	var p chartPanel
	res := p.HandleKey("enter", lineOptions())
	if res.Action != panelActionOpenPicker {
		t.Errorf("action = %v, want open picker", res.Action)
	}
}

func TestPanelRadioSelection(t *testing.T) {
	var p chartPanel
	opts := lineOptions()

	// Cursor row 2 is the second x-axis radio (time).
	p.HandleKey("down", opts)
	p.HandleKey("down", opts)
	res := p.HandleKey("enter", opts)
	if res.Action != panelActionChanged {
		t.Fatalf("action = %v, want changed", res.Action)
	}
	if res.Change.field != fieldXAxis || res.Change.axis != xAxisTime {
		t.Errorf("change = %+v, want x-axis time", res.Change)
	}

	// Selecting the already-active mode is a no-op.
	opts = applyOptionChange(opts, res.Change)
	if res := p.HandleKey("enter", opts); res.Action != panelActionNone {
		t.Errorf("re-select action = %v, want none", res.Action)
	}
}

func TestPanelRadioLeftRightMovesMode(t *testing.T) {
	var p chartPanel
	opts := lineOptions()
	p.HandleKey("down", opts)

	res := p.HandleKey("right", opts)
	if res.Change.field != fieldXAxis || res.Change.axis != xAxisTime {
		t.Fatalf("right change = %+v, want time", res.Change)
	}
	// Already at the first mode, nothing to move to.
	if res := p.HandleKey("left", opts); res.Action != panelActionNone {
		t.Errorf("left at first mode = %v, want none", res.Action)
	}
}

func TestPanelTogglesEmitDiscriminatedChanges(t *testing.T) {
	var p chartPanel
	opts := lineOptions()
	controls := buildControls(opts)

	// Walk the cursor to each toggle and activate it.
	for i, c := range controls {
		if c.kind != controlKindToggle {
			continue
		}
		p.cursor = i
		res := p.HandleKey("enter", opts)
		if res.Action != panelActionChanged {
			t.Fatalf("toggle %s action = %v, want changed", c.id, res.Action)
		}
		switch c.id {
		case controlShowPointToggle:
			if res.Change.field != fieldShowPoint || !res.Change.enabled {
				t.Errorf("show point change = %+v", res.Change)
			}
		case controlLogScaleToggle:
			if res.Change.field != fieldLogScale || !res.Change.enabled {
				t.Errorf("log scale change = %+v", res.Change)
			}
		}
	}
}

func TestPanelSmoothnessSlider(t *testing.T) {
	var p chartPanel
	opts := lineOptions()
	controls := buildControls(opts)
	for i, c := range controls {
		if c.id == controlSmoothnessToggle {
			p.cursor = i
		}
	}

	res := p.HandleKey("right", opts)
	if res.Change.field != fieldSmoothness || res.Change.smoothness != smoothnessStep {
		t.Errorf("right change = %+v, want smoothness %d", res.Change, smoothnessStep)
	}

	// Left at zero stays put.
	if res := p.HandleKey("left", opts); res.Action != panelActionNone {
		t.Errorf("left at 0 action = %v, want none", res.Action)
	}

	opts.initialLineSmoothness = smoothnessMax
	if res := p.HandleKey("right", opts); res.Action != panelActionNone {
		t.Errorf("right at max action = %v, want none", res.Action)
	}
}

func TestPanelCursorClampsWhenControlsShrink(t *testing.T) {
	var p chartPanel
	opts := lineOptions()

	for i := 0; i < 10; i++ {
		p.HandleKey("down", opts)
	}
	lineCount := len(buildControls(opts))
	if p.cursor != lineCount-1 {
		t.Fatalf("cursor = %d, want %d", p.cursor, lineCount-1)
	}

	opts.chartType = chartTypeBar
	p.clampCursor(opts)
	barCount := len(buildControls(opts))
	if p.cursor >= barCount {
		t.Errorf("cursor = %d, want < %d after switching to bar", p.cursor, barCount)
	}
}

func TestPanelRenderShowsControlState(t *testing.T) {
	var p chartPanel
	opts := lineOptions()
	opts.yAxisLogScale = true

	out := p.render(opts, 40, true)
	if !strings.Contains(out, "[x] Y-axis log scale") {
		t.Errorf("render missing enabled log scale:\n%s", out)
	}
	if !strings.Contains(out, "[ ] Show points") {
		t.Errorf("render missing disabled show points:\n%s", out)
	}
	if !strings.Contains(out, "(•) Step") {
		t.Errorf("render missing selected step radio:\n%s", out)
	}

	opts.chartType = chartTypeBar
	out = p.render(opts, 40, true)
	if strings.Contains(out, "Show points") || strings.Contains(out, "smoothness") {
		t.Errorf("bar render leaked line-only controls:\n%s", out)
	}
}
