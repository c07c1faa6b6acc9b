package main

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/charmbracelet/lipgloss"
)

// ---------------------------------------------------------------------------
// Metric key picker (multi-select, fuzzy filtered)
// ---------------------------------------------------------------------------

type pickerAction int

const (
	pickerActionNone pickerAction = iota
	pickerActionMoved
	pickerActionToggled
	pickerActionSubmitted
	pickerActionCancelled
)

type pickerResult struct {
	Action       pickerAction
	SelectedKeys []string
}

type metricPicker struct {
	keys     []string
	filtered []string
	query    string
	cursor   int
	selected map[string]bool
}

func newMetricPicker(keys, preselected []string) *metricPicker {
	p := &metricPicker{
		keys:     append([]string(nil), keys...),
		selected: make(map[string]bool, len(preselected)),
	}
	for _, key := range preselected {
		p.selected[key] = true
	}
	p.rebuildFiltered()
	return p
}

// Selected returns the chosen keys in the picker's display order.
func (p *metricPicker) Selected() []string {
	if p == nil {
		return nil
	}
	out := make([]string, 0, len(p.selected))
	for _, key := range p.keys {
		if p.selected[key] {
			out = append(out, key)
		}
	}
	return out
}

func (p *metricPicker) SetQuery(q string) {
	if p == nil {
		return
	}
	p.query = q
	p.rebuildFiltered()
}

func (p *metricPicker) rebuildFiltered() {
	p.filtered = rankMetricKeys(p.keys, p.query)
	if p.cursor >= len(p.filtered) {
		p.cursor = len(p.filtered) - 1
	}
	if p.cursor < 0 {
		p.cursor = 0
	}
}

// HandleKey processes one key press and reports what happened so the model
// can react (refresh the chart, close the modal, and so on).
func (p *metricPicker) HandleKey(keyName string) pickerResult {
	if p == nil {
		return pickerResult{Action: pickerActionNone}
	}

	switch keyName {
	case "up", "ctrl+p":
		if p.cursor > 0 {
			p.cursor--
			return pickerResult{Action: pickerActionMoved}
		}
		return pickerResult{Action: pickerActionNone}
	case "down", "ctrl+n":
		if p.cursor < len(p.filtered)-1 {
			p.cursor++
			return pickerResult{Action: pickerActionMoved}
		}
		return pickerResult{Action: pickerActionNone}
	case "space", " ":
		if p.cursor < len(p.filtered) {
			key := p.filtered[p.cursor]
			if p.selected[key] {
				delete(p.selected, key)
			} else {
				p.selected[key] = true
			}
			return pickerResult{Action: pickerActionToggled, SelectedKeys: p.Selected()}
		}
		return pickerResult{Action: pickerActionNone}
	case "enter":
		return pickerResult{Action: pickerActionSubmitted, SelectedKeys: p.Selected()}
	case "esc":
		return pickerResult{Action: pickerActionCancelled}
	case "backspace":
		if len(p.query) > 0 {
			p.SetQuery(p.query[:len(p.query)-1])
		}
		return pickerResult{Action: pickerActionNone}
	default:
		if isPrintableASCIIKey(keyName) {
			p.SetQuery(p.query + keyName)
		}
		return pickerResult{Action: pickerActionNone}
	}
}

func isPrintableASCIIKey(keyName string) bool {
	if len(keyName) != 1 {
		return false
	}
	c := keyName[0]
	return c >= ' ' && c <= '~'
}

// rankMetricKeys filters and orders keys against the query. Exact prefix
// matches rank first, then substring matches, then near misses within
// Levenshtein distance 2 of the query. An empty query keeps the input order.
func rankMetricKeys(keys []string, query string) []string {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return append([]string(nil), keys...)
	}

	type scored struct {
		key  string
		rank int
		dist int
	}
	var matches []scored
	for _, key := range keys {
		lower := strings.ToLower(key)
		switch {
		case strings.HasPrefix(lower, query):
			matches = append(matches, scored{key: key, rank: 0})
		case strings.Contains(lower, query):
			matches = append(matches, scored{key: key, rank: 1})
		default:
			dist := levenshtein.ComputeDistance(lower, query)
			if dist <= 2 {
				matches = append(matches, scored{key: key, rank: 2, dist: dist})
			}
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].rank != matches[j].rank {
			return matches[i].rank < matches[j].rank
		}
		return matches[i].dist < matches[j].dist
	})

	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.key
	}
	return out
}

// ---------------------------------------------------------------------------
// Rendering
// ---------------------------------------------------------------------------

func renderMetricPicker(p *metricPicker, width int) string {
	if p == nil {
		return ""
	}

	var lines []string
	title := titleStyle.Render("Select Metrics")
	lines = append(lines, title)

	queryValue := lipgloss.NewStyle().Foreground(colorOverlay1).Render("(type to filter)")
	if strings.TrimSpace(p.query) != "" {
		queryValue = lipgloss.NewStyle().Foreground(colorText).Render(p.query)
	}
	lines = append(lines, lipgloss.NewStyle().Foreground(colorSubtext0).Render("Filter: ")+queryValue)
	lines = append(lines, "")

	if len(p.filtered) == 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(colorOverlay1).Render("  no matching metrics"))
	}
	for i, key := range p.filtered {
		mark := "[ ]"
		if p.selected[key] {
			mark = "[x]"
		}
		prefix := "  "
		if i == p.cursor {
			prefix = cursorStyle.Render("> ")
		}
		line := prefix + mark + " " + key
		if width > 0 {
			line = truncate(line, width)
		}
		lines = append(lines, line)
	}

	lines = append(lines, "")
	lines = append(lines, statusStyle.Render("space toggle · enter apply · esc cancel"))
	return strings.Join(lines, "\n")
}
