package main

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// overlayAt composites overlay on top of base at cell position (x, y),
// clamped to a width x height canvas. Used for modal dialogs.
func overlayAt(base, overlay string, x, y, width, height int) string {
	baseLines := splitLines(base)
	overlayLines := splitLines(overlay)

	for len(baseLines) < height {
		baseLines = append(baseLines, "")
	}

	for i, overlayLine := range overlayLines {
		row := y + i
		if row < 0 || row >= len(baseLines) {
			continue
		}
		baseLine := padRight(baseLines[row], width)
		left := ansi.Truncate(baseLine, x, "")
		overlayWidth := ansi.StringWidth(overlayLine)
		rightStart := x + overlayWidth
		right := ansi.TruncateLeft(baseLine, rightStart, "")
		baseLines[row] = padRight(left, x) + overlayLine + right
	}

	return strings.Join(baseLines, "\n")
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func maxLineWidth(lines []string) int {
	widest := 0
	for _, line := range lines {
		if w := ansi.StringWidth(line); w > widest {
			widest = w
		}
	}
	return widest
}

func padRight(s string, width int) string {
	gap := width - ansi.StringWidth(s)
	if gap <= 0 {
		return s
	}
	return s + strings.Repeat(" ", gap)
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if ansi.StringWidth(s) <= width {
		return s
	}
	if width <= 1 {
		return ansi.Truncate(s, width, "")
	}
	return ansi.Truncate(s, width, "…")
}
