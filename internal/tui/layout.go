package tui

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var ansiRE = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// overlayCentered draws overlay in the middle of base. The base loses its
// colors so the modal stands out.
func overlayCentered(base, overlay string, width, height int) string {
	baseLines := canvas(stripANSI(base), width, height)
	overLines := strings.Split(overlay, "\n")

	overW := 0
	for _, l := range overLines {
		if w := lipgloss.Width(l); w > overW {
			overW = w
		}
	}
	startY := max((len(baseLines)-len(overLines))/2, 0)
	startX := max((width-overW)/2, 0)
	for y := 0; y < len(overLines) && startY+y < len(baseLines); y++ {
		row := []rune(baseLines[startY+y])
		for len(row) < startX+overW {
			row = append(row, ' ')
		}
		w := min(lipgloss.Width(overLines[y]), len(row)-startX)
		suffix := ""
		if startX+w < len(row) {
			suffix = string(row[startX+w:])
		}
		baseLines[startY+y] = string(row[:startX]) + overLines[y] + suffix
	}
	return strings.Join(baseLines, "\n")
}

// applyBackdrop strips colors and swaps box-drawing runes for dashed ones.
func applyBackdrop(base string, width, height int) string {
	lines := canvas(stripANSI(base), width, height)
	for i := range lines {
		r := []rune(lines[i])
		for j := range r {
			r[j] = softenRune(r[j])
		}
		lines[i] = string(r)
	}
	return strings.Join(lines, "\n")
}

// canvas pads or cuts plain text to exactly width x height cells.
func canvas(plain string, width, height int) []string {
	lines := strings.Split(plain, "\n")
	width = max(width, 1)
	if height < 1 {
		height = max(len(lines), 1)
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	lines = lines[:height]
	for i := range lines {
		r := []rune(lines[i])
		switch {
		case len(r) < width:
			lines[i] += strings.Repeat(" ", width-len(r))
		case len(r) > width:
			lines[i] = string(r[:width])
		}
	}
	return lines
}

func stripANSI(s string) string {
	return ansiRE.ReplaceAllString(s, "")
}

func softenRune(r rune) rune {
	switch r {
	case '│', '┃':
		return '┆'
	case '─', '━':
		return '┄'
	case '┬', '┴', '┼':
		return '┼'
	case '├':
		return '┝'
	case '┤':
		return '┥'
	case '┌', '╭':
		return '┍'
	case '┐', '╮':
		return '┑'
	case '└', '╰':
		return '┕'
	case '┘', '╯':
		return '┙'
	default:
		return r
	}
}

func fitLines(lines []string, maxLines int) []string {
	if maxLines <= 0 {
		return []string{}
	}
	if len(lines) > maxLines {
		out := append([]string(nil), lines[:maxLines-1]...)
		return append(out, "~")
	}
	out := append([]string(nil), lines...)
	for len(out) < maxLines {
		out = append(out, "")
	}
	return out
}

func wrapLine(s string, width int) []string {
	s = strings.TrimSpace(s)
	if width <= 0 || s == "" {
		return []string{""}
	}
	out := make([]string, 0, 4)
	current := ""
	for _, w := range strings.Fields(s) {
		for len([]rune(w)) > width {
			if current != "" {
				out = append(out, current)
				current = ""
			}
			r := []rune(w)
			out = append(out, string(r[:width]))
			w = string(r[width:])
		}
		switch {
		case current == "":
			current = w
		case len([]rune(current))+1+len([]rune(w)) <= width:
			current += " " + w
		default:
			out = append(out, current)
			current = w
		}
	}
	if current != "" {
		out = append(out, current)
	}
	return out
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max == 1 {
		return "~"
	}
	return string(r[:max-1]) + "~"
}

func pad(s string, width int) string {
	r := []rune(s)
	if len(r) >= width {
		return string(r[:width])
	}
	return s + strings.Repeat(" ", width-len(r))
}

func clampLine(s string, maxWidth int) string {
	if len([]rune(s)) <= maxWidth {
		return s
	}
	return truncate(s, max(maxWidth, 1))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func formatVersionLabel(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "vdev"
	}
	if strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}
