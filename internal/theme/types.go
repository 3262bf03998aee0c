package theme

import (
	"encoding/json"
	"fmt"
	"regexp"
)

type Hex string

type PaletteHex struct {
	Accent       Hex `json:"accent"`
	AccentMuted  Hex `json:"accent_muted"`
	PopupBorder  Hex `json:"popup_border"`
	Backdrop     Hex `json:"backdrop"`
	Danger       Hex `json:"danger"`
	Success      Hex `json:"success"`
	TextPrimary  Hex `json:"text_primary"`
	TextMuted    Hex `json:"text_muted"`
	SelectionBg  Hex `json:"selection_bg"`
	SelectionFg  Hex `json:"selection_fg"`
	LogoLine1    Hex `json:"logo_line_1"`
	LogoLine2    Hex `json:"logo_line_2"`
	LogoLine3    Hex `json:"logo_line_3"`
	HeaderText   Hex `json:"header_text"`
	HelpText     Hex `json:"help_text"`
	StatusText   Hex `json:"status_text"`
	TableHeader  Hex `json:"table_header"`
	ColCategory  Hex `json:"col_category"`
	ColTitle     Hex `json:"col_title"`
	ColSchool    Hex `json:"col_school"`
	ColPrice     Hex `json:"col_price"`
	ColStatus    Hex `json:"col_status"`
	Tag          Hex `json:"tag"`
	NavActive    Hex `json:"nav_active"`
	NavInactive  Hex `json:"nav_inactive"`
	DetailsLabel Hex `json:"details_label"`
	DetailsValue Hex `json:"details_value"`
}

type ThemeFile struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Version int        `json:"version"`
	Colors  PaletteHex `json:"colors"`
}

// PaletteResolved holds lipgloss color strings: hex on truecolor terminals,
// xterm-256 indexes otherwise.
type PaletteResolved struct {
	Accent       string
	AccentMuted  string
	PopupBorder  string
	Backdrop     string
	Danger       string
	Success      string
	TextPrimary  string
	TextMuted    string
	SelectionBg  string
	SelectionFg  string
	LogoLine1    string
	LogoLine2    string
	LogoLine3    string
	HeaderText   string
	HelpText     string
	StatusText   string
	TableHeader  string
	ColCategory  string
	ColTitle     string
	ColSchool    string
	ColPrice     string
	ColStatus    string
	Tag          string
	NavActive    string
	NavInactive  string
	DetailsLabel string
	DetailsValue string
}

type slot struct {
	key string
	hex *Hex
	out *string
}

// slots pairs each palette entry with its resolved counterpart. r may be nil.
func (p *PaletteHex) slots(r *PaletteResolved) []slot {
	if r == nil {
		r = &PaletteResolved{}
	}
	return []slot{
		{"accent", &p.Accent, &r.Accent},
		{"accent_muted", &p.AccentMuted, &r.AccentMuted},
		{"popup_border", &p.PopupBorder, &r.PopupBorder},
		{"backdrop", &p.Backdrop, &r.Backdrop},
		{"danger", &p.Danger, &r.Danger},
		{"success", &p.Success, &r.Success},
		{"text_primary", &p.TextPrimary, &r.TextPrimary},
		{"text_muted", &p.TextMuted, &r.TextMuted},
		{"selection_bg", &p.SelectionBg, &r.SelectionBg},
		{"selection_fg", &p.SelectionFg, &r.SelectionFg},
		{"logo_line_1", &p.LogoLine1, &r.LogoLine1},
		{"logo_line_2", &p.LogoLine2, &r.LogoLine2},
		{"logo_line_3", &p.LogoLine3, &r.LogoLine3},
		{"header_text", &p.HeaderText, &r.HeaderText},
		{"help_text", &p.HelpText, &r.HelpText},
		{"status_text", &p.StatusText, &r.StatusText},
		{"table_header", &p.TableHeader, &r.TableHeader},
		{"col_category", &p.ColCategory, &r.ColCategory},
		{"col_title", &p.ColTitle, &r.ColTitle},
		{"col_school", &p.ColSchool, &r.ColSchool},
		{"col_price", &p.ColPrice, &r.ColPrice},
		{"col_status", &p.ColStatus, &r.ColStatus},
		{"tag", &p.Tag, &r.Tag},
		{"nav_active", &p.NavActive, &r.NavActive},
		{"nav_inactive", &p.NavInactive, &r.NavInactive},
		{"details_label", &p.DetailsLabel, &r.DetailsLabel},
		{"details_value", &p.DetailsValue, &r.DetailsValue},
	}
}

var hexRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func (p PaletteHex) Validate() error {
	for _, s := range p.slots(nil) {
		if !hexRe.MatchString(string(*s.hex)) {
			return fmt.Errorf("invalid hex color for %s: %q", s.key, string(*s.hex))
		}
	}
	return nil
}

// ParseThemeFile fills colors missing from the file with the default palette.
func ParseThemeFile(b []byte) (ThemeFile, error) {
	t := ThemeFile{
		Version: 1,
		Colors:  DefaultPaletteHex(),
	}
	if err := json.Unmarshal(b, &t); err != nil {
		return ThemeFile{}, err
	}
	if t.ID == "" {
		return ThemeFile{}, fmt.Errorf("theme id is required")
	}
	if t.Version == 0 {
		t.Version = 1
	}
	if err := t.Colors.Validate(); err != nil {
		return ThemeFile{}, err
	}
	return t, nil
}

func DefaultPaletteHex() PaletteHex {
	return PaletteHex{
		Accent:       "#10b981",
		AccentMuted:  "#475569",
		PopupBorder:  "#34d399",
		Backdrop:     "#0f172a",
		Danger:       "#f43f5e",
		Success:      "#10b981",
		TextPrimary:  "#e2e8f0",
		TextMuted:    "#94a3b8",
		SelectionBg:  "#059669",
		SelectionFg:  "#f8fafc",
		LogoLine1:    "#6ee7b7",
		LogoLine2:    "#34d399",
		LogoLine3:    "#10b981",
		HeaderText:   "#f1f5f9",
		HelpText:     "#94a3b8",
		StatusText:   "#6ee7b7",
		TableHeader:  "#a7f3d0",
		ColCategory:  "#5eead4",
		ColTitle:     "#f1f5f9",
		ColSchool:    "#cbd5e1",
		ColPrice:     "#fbbf24",
		ColStatus:    "#93c5fd",
		Tag:          "#34d399",
		NavActive:    "#10b981",
		NavInactive:  "#64748b",
		DetailsLabel: "#6ee7b7",
		DetailsValue: "#e2e8f0",
	}
}

// Builtins are the themes available without a file on disk.
func Builtins() []ThemeFile {
	curtain := DefaultPaletteHex()
	curtain.Accent = "#e11d48"
	curtain.PopupBorder = "#fb7185"
	curtain.SelectionBg = "#be123c"
	curtain.LogoLine1 = "#fda4af"
	curtain.LogoLine2 = "#fb7185"
	curtain.LogoLine3 = "#e11d48"
	curtain.StatusText = "#fda4af"
	curtain.TableHeader = "#fecdd3"
	curtain.Tag = "#fb7185"
	curtain.NavActive = "#e11d48"
	curtain.DetailsLabel = "#fda4af"
	return []ThemeFile{
		{ID: "default", Name: "Replay emerald", Version: 1, Colors: DefaultPaletteHex()},
		{ID: "curtain", Name: "Red curtain", Version: 1, Colors: curtain},
	}
}

func Builtin(id string) (ThemeFile, bool) {
	for _, t := range Builtins() {
		if t.ID == id {
			return t, true
		}
	}
	return ThemeFile{}, false
}
