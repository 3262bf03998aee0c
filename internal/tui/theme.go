package tui

import (
	"replay/internal/theme"
)

type UITheme struct {
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

func defaultUITheme() UITheme {
	resolved := theme.ResolveForTerminal(theme.DefaultPaletteHex(), theme.DetectTrueColor())
	return UIThemeFromResolved(resolved)
}

// UIThemeFromResolved maps a resolved palette onto the styles the screens use.
func UIThemeFromResolved(r theme.PaletteResolved) UITheme {
	return UITheme{
		Accent:       r.Accent,
		AccentMuted:  r.AccentMuted,
		PopupBorder:  r.PopupBorder,
		Backdrop:     r.Backdrop,
		Danger:       r.Danger,
		Success:      r.Success,
		TextPrimary:  r.TextPrimary,
		TextMuted:    r.TextMuted,
		SelectionBg:  r.SelectionBg,
		SelectionFg:  r.SelectionFg,
		LogoLine1:    r.LogoLine1,
		LogoLine2:    r.LogoLine2,
		LogoLine3:    r.LogoLine3,
		HeaderText:   r.HeaderText,
		HelpText:     r.HelpText,
		StatusText:   r.StatusText,
		TableHeader:  r.TableHeader,
		ColCategory:  r.ColCategory,
		ColTitle:     r.ColTitle,
		ColSchool:    r.ColSchool,
		ColPrice:     r.ColPrice,
		ColStatus:    r.ColStatus,
		Tag:          r.Tag,
		NavActive:    r.NavActive,
		NavInactive:  r.NavInactive,
		DetailsLabel: r.DetailsLabel,
		DetailsValue: r.DetailsValue,
	}
}

func (t UITheme) withDefaults() UITheme {
	d := defaultUITheme()
	if t.Accent == "" {
		t.Accent = d.Accent
	}
	if t.AccentMuted == "" {
		t.AccentMuted = d.AccentMuted
	}
	if t.PopupBorder == "" {
		t.PopupBorder = d.PopupBorder
	}
	if t.Backdrop == "" {
		t.Backdrop = d.Backdrop
	}
	if t.Danger == "" {
		t.Danger = d.Danger
	}
	if t.Success == "" {
		t.Success = d.Success
	}
	if t.TextPrimary == "" {
		t.TextPrimary = d.TextPrimary
	}
	if t.TextMuted == "" {
		t.TextMuted = d.TextMuted
	}
	if t.SelectionBg == "" {
		t.SelectionBg = d.SelectionBg
	}
	if t.SelectionFg == "" {
		t.SelectionFg = d.SelectionFg
	}
	if t.LogoLine1 == "" {
		t.LogoLine1 = d.LogoLine1
	}
	if t.LogoLine2 == "" {
		t.LogoLine2 = d.LogoLine2
	}
	if t.LogoLine3 == "" {
		t.LogoLine3 = d.LogoLine3
	}
	if t.HeaderText == "" {
		t.HeaderText = d.HeaderText
	}
	if t.HelpText == "" {
		t.HelpText = d.HelpText
	}
	if t.StatusText == "" {
		t.StatusText = d.StatusText
	}
	if t.TableHeader == "" {
		t.TableHeader = d.TableHeader
	}
	if t.ColCategory == "" {
		t.ColCategory = d.ColCategory
	}
	if t.ColTitle == "" {
		t.ColTitle = d.ColTitle
	}
	if t.ColSchool == "" {
		t.ColSchool = d.ColSchool
	}
	if t.ColPrice == "" {
		t.ColPrice = d.ColPrice
	}
	if t.ColStatus == "" {
		t.ColStatus = d.ColStatus
	}
	if t.Tag == "" {
		t.Tag = d.Tag
	}
	if t.NavActive == "" {
		t.NavActive = d.NavActive
	}
	if t.NavInactive == "" {
		t.NavInactive = d.NavInactive
	}
	if t.DetailsLabel == "" {
		t.DetailsLabel = d.DetailsLabel
	}
	if t.DetailsValue == "" {
		t.DetailsValue = d.DetailsValue
	}
	return t
}
