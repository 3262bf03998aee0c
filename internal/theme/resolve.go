package theme

import (
	"os"
	"strconv"
	"strings"

	"github.com/muesli/termenv"
)

// fallbackColor is used for slots that fail to convert (light gray).
const fallbackColor = "7"

// DetectTrueColor reports whether hex colors can be passed through as-is.
// termenv covers most terminals; COLORTERM and TERM catch the ones it misses.
func DetectTrueColor() bool {
	if termenv.EnvColorProfile() == termenv.TrueColor {
		return true
	}
	for _, v := range []string{os.Getenv("COLORTERM"), os.Getenv("TERM")} {
		v = strings.ToLower(v)
		if strings.Contains(v, "truecolor") || strings.Contains(v, "24bit") || strings.Contains(v, "direct") {
			return true
		}
	}
	return false
}

// ResolveForTerminal turns every palette slot into a lipgloss color string:
// the hex itself on truecolor terminals, the nearest xterm-256 index otherwise.
func ResolveForTerminal(p PaletteHex, trueColor bool) PaletteResolved {
	var out PaletteResolved
	for _, s := range p.slots(&out) {
		*s.out = resolveHex(*s.hex, trueColor)
	}
	return out
}

func resolveHex(h Hex, trueColor bool) string {
	if !hexRe.MatchString(string(h)) {
		return fallbackColor
	}
	if trueColor {
		return string(h)
	}
	if c, ok := termenv.ANSI256.Color(string(h)).(termenv.ANSI256Color); ok {
		return strconv.Itoa(int(c))
	}
	return fallbackColor
}
