package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func colorizeDetailLine(line string, theme UITheme) string {
	idx := strings.Index(line, ":")
	if idx <= 0 {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(theme.DetailsValue)).Render(line)
	}
	label := line[:idx+1]
	value := strings.TrimSpace(line[idx+1:])
	labelStyled := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.DetailsLabel)).Render(label)
	valueStyled := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.DetailsValue)).Render(value)
	if value == "" {
		return labelStyled
	}
	return labelStyled + " " + valueStyled
}

func itoa(n int) string { return strconv.Itoa(n) }

// formatWon renders a price with thousands separators, e.g. 15000 -> "₩15,000".
func formatWon(n int) string {
	neg := n < 0
	if neg {
		n = -n
	}
	s := strconv.Itoa(n)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := "₩" + b.String()
	if neg {
		return "-" + out
	}
	return out
}
