package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"replay/internal/auth"
	"replay/internal/router"
)

var logo = []string{
	"█▀█ █▀▀ █▀█ █   ▄▀█ █▄█",
	"█▀▄ ██▄ █▀▀ █▄▄ █▀█  █ ",
	"props · costumes · stages",
}

func (m appModel) View() string {
	if m.quitting {
		return "Bye.\n"
	}
	if m.width <= 0 {
		m.width = 110
	}
	if m.height <= 0 {
		m.height = 34
	}
	if m.svc.Provider.Screen() != auth.ScreenNone {
		return m.renderAuthScreen()
	}

	out := []string{}
	if !m.view.HeaderHidden {
		out = append(out, m.renderHeader()...)
	}
	status := m.status
	if m.flash != "" {
		status = m.flash
	}
	footer := []string{
		m.renderNav(),
		m.styled(m.theme.HelpText).Render(clampLine(globalHelp(m.keys), m.width)),
		m.styled(m.theme.StatusText).Render(clampLine(status, m.width)),
	}
	bodyHeight := max(m.height-len(out)-len(footer)-1, 4)
	var body string
	if m.view.Overlay.Open() {
		body = m.renderOverlay(m.width, bodyHeight)
	} else {
		body = m.renderTab(m.width, bodyHeight)
	}
	body = strings.Join(fitLines(strings.Split(body, "\n"), bodyHeight), "\n")
	out = append(out, body)
	out = append(out, footer...)
	view := strings.Join(out, "\n")

	switch {
	case m.svc.Provider.PromptOpen():
		view = overlayCentered(applyBackdrop(view, m.width, m.height), m.renderPrompt(), m.width, m.height)
	case m.drawer.open:
		view = overlayCentered(applyBackdrop(view, m.width, m.height), m.renderDrawer(), m.width, m.height)
	}
	return view + "\n"
}

func (m appModel) bodyHeight() int {
	return max(m.height-len(logo)-5, 4)
}

func (m appModel) renderHeader() []string {
	styles := []lipgloss.Style{
		m.styled(m.theme.LogoLine1).Bold(true),
		m.styled(m.theme.LogoLine2).Bold(true),
		m.styled(m.theme.LogoLine3),
	}
	who := m.styled(m.theme.TextMuted).Render("○ guest")
	if m.svc.Provider.IsLoggedIn() {
		who = m.styled(m.theme.Success).Render("● logged in")
	}
	unread := 0
	for _, n := range m.drawer.items {
		if !n.IsRead {
			unread++
		}
	}
	bell := "n alerts"
	if unread > 0 {
		bell = fmt.Sprintf("n alerts (%d)", unread)
	}
	right := []string{
		m.styled(m.theme.HeaderText).Bold(true).Render(m.view.Title()),
		who + "  " + m.styled(m.theme.TextMuted).Render(formatVersionLabel(m.svc.Version)),
		m.styled(m.theme.TextMuted).Render(bell),
	}
	if m.width < 48 {
		return []string{styles[0].Render("REPLAY") + "  " + right[0] + "  " + who}
	}
	out := make([]string, len(logo))
	for i := range logo {
		out[i] = styles[i].Render(pad(logo[i], 27)) + "   " + right[i]
	}
	return out
}

func (m appModel) renderNav() string {
	active := m.view.NavHighlight()
	parts := make([]string, 0, len(router.Tabs))
	for i, t := range router.Tabs {
		label := fmt.Sprintf(" %d %s ", i+1, t.Title())
		if t == active {
			parts = append(parts, lipgloss.NewStyle().
				Foreground(lipgloss.Color(m.theme.NavActive)).
				Bold(true).
				Underline(true).
				Render(label))
			continue
		}
		parts = append(parts, m.styled(m.theme.NavInactive).Render(label))
	}
	return strings.Join(parts, m.styled(m.theme.TextMuted).Render("│"))
}

func (m appModel) renderPrompt() string {
	lines := []string{
		m.styled(m.theme.Accent).Bold(true).Render("Login required"),
		"",
		"You need to log in to continue.",
		"",
		m.selected(" enter log in ") + "  " + m.styled(m.theme.TextMuted).Render("esc not now"),
	}
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.PopupBorder)).
		Padding(1, 3).
		Render(strings.Join(lines, "\n"))
}

func (m appModel) renderOverlay(width, height int) string {
	switch m.view.Overlay.Kind {
	case router.OverlayItemForm:
		return m.renderItemForm()
	case router.OverlayPostForm:
		return m.renderPostForm()
	case router.OverlayCalendar:
		return m.renderCalendar(width)
	case router.OverlayItemDetail:
		return m.renderItemDetail(width, height)
	case router.OverlayPerformanceDetail:
		return m.renderPerformanceDetail(width, height)
	}
	return ""
}

func (m appModel) submitLine(ready bool, label string) string {
	if ready {
		return m.selected(" " + label + " ")
	}
	muted := m.styled(m.theme.TextMuted)
	return muted.Render("["+label+"]") + "  " + muted.Render("fill in the required fields")
}

func (m appModel) renderItemForm() string {
	f := m.itemForm
	lines := []string{}
	for i := 0; i < ifCount; i++ {
		switch i {
		case ifCategory:
			lines = append(lines, m.choiceLine(itemFormLabels[i], itemCategories[f.category], f.focus == i))
		case ifRental:
			kind := "sale"
			if f.rental {
				kind = "rental (per day)"
			}
			lines = append(lines, m.choiceLine(itemFormLabels[i], kind, f.focus == i))
		default:
			lines = append(lines, m.fieldLine(itemFormLabels[i], f.inputs[i], f.focus == i))
		}
	}
	lines = append(lines, m.errorLine(f.err)...)
	lines = append(lines, "", m.submitLine(f.ready(), "Register"),
		"", m.styled(m.theme.HelpText).Render(helpLine(m.keys.NextField, m.keys.Confirm, m.keys.Back)+" · ←/→ change choice"))
	return strings.Join(lines, "\n")
}

func (m appModel) choiceLine(label, value string, focused bool) string {
	style := m.styled(m.theme.DetailsLabel)
	marker := "  "
	if focused {
		style = m.styled(m.theme.Accent).Bold(true)
		marker = "> "
	}
	return marker + style.Render(pad(label, 11)) + "‹ " + value + " ›"
}

func (m appModel) renderPostForm() string {
	f := m.postForm
	lines := []string{
		"  " + m.styled(m.theme.DetailsLabel).Render(pad("Board", 11)) + string(f.board) + m.styled(m.theme.TextMuted).Render("  (ctrl+b switch)"),
		m.fieldLine("Title", f.inputs[0], f.focus == 0),
		m.fieldLine("Body", f.inputs[1], f.focus == 1),
	}
	lines = append(lines, m.errorLine(f.err)...)
	lines = append(lines, "", m.submitLine(f.ready(), "Publish"),
		"", m.styled(m.theme.HelpText).Render(helpLine(m.keys.NextField, m.keys.Confirm, m.keys.Back)))
	return strings.Join(lines, "\n")
}

func (m appModel) renderCalendar(width int) string {
	c := m.calendar
	city := c.city
	if city == "" {
		city = "all cities"
	}
	shown := c.visible(m.cat)
	lines := []string{
		m.styled(m.theme.Accent).Bold(true).Render(c.month.Format("January 2006")) +
			m.styled(m.theme.TextMuted).Render("  ·  "+city),
		"",
		m.styled(m.theme.DetailsLabel).Render(" Su  Mo  Tu  We  Th  Fr  Sa"),
	}
	first := c.month
	days := first.AddDate(0, 1, -1).Day()
	row := strings.Repeat("    ", int(first.Weekday()))
	for d := 1; d <= days; d++ {
		date := time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
		cell := fmt.Sprintf(" %2d ", d)
		for _, p := range shown {
			if p.onDay(date) {
				cell = m.styled(m.theme.Accent).Bold(true).Render(fmt.Sprintf(" %2d*", d))
				break
			}
		}
		row += cell
		if date.Weekday() == time.Saturday || d == days {
			lines = append(lines, row)
			row = ""
		}
	}
	lines = append(lines, "")
	if len(shown) == 0 {
		lines = append(lines, m.styled(m.theme.TextMuted).Render("No performances this month."))
	}
	for i, p := range shown {
		line := clampLine(pad(p.dateRange(), 17)+" "+p.Title+" · "+p.Place, width)
		if i == c.cursor {
			line = m.selected(line)
		}
		lines = append(lines, line)
	}
	lines = append(lines, "", m.styled(m.theme.HelpText).Render(
		helpLine(m.keys.Left, m.keys.Right, m.keys.Cycle, m.keys.Confirm, m.keys.Back)))
	return strings.Join(lines, "\n")
}

// detailHeader replaces the shared header on the detail overlays.
func (m appModel) detailHeader(title string, width int) []string {
	bar := m.styled(m.theme.TextMuted).Render("‹ esc") + "  " +
		m.styled(m.theme.HeaderText).Bold(true).Render(truncate(title, width-8))
	return []string{bar, m.styled(m.theme.AccentMuted).Render(strings.Repeat("─", max(width, 1)))}
}

func (m appModel) renderItemDetail(width, height int) string {
	d := m.detail
	it, ok := m.cat.item(d.itemID)
	if !ok {
		return strings.Join(append(m.detailHeader("Not found", width), "This listing is gone."), "\n")
	}
	lines := m.detailHeader(it.Title, width)
	info := []string{
		"price: " + it.priceLabel(),
		"status: " + string(it.Status),
		"school: " + it.School,
		"location: " + it.Location,
		"category: " + it.Category,
	}
	for _, l := range info {
		lines = append(lines, colorizeDetailLine(l, m.theme))
	}
	if len(it.Tags) > 0 {
		tags := make([]string, len(it.Tags))
		for i, t := range it.Tags {
			tags[i] = m.styled(m.theme.Tag).Render("#" + t)
		}
		lines = append(lines, strings.Join(tags, " "))
	}
	lines = append(lines, "")
	if desc := renderMarkdown(it.Description, min(width, 80)); desc != "" {
		lines = append(lines, strings.Split(desc, "\n")...)
		lines = append(lines, "")
	}
	if it.Rental {
		lines = append(lines, m.styled(m.theme.DetailsLabel).Render("Pick rental days"), m.dayStrip(d))
		lines = append(lines, "", m.styled(m.theme.HelpText).Render(helpLine(m.keys.Left, m.keys.Right, m.keys.Mark, m.keys.Rent, m.keys.Back)))
	} else {
		lines = append(lines, m.styled(m.theme.HelpText).Render(helpLine(m.keys.Trade, m.keys.Back)))
	}
	return strings.Join(fitLines(lines, height), "\n")
}

func (m appModel) dayStrip(d itemDetailState) string {
	cells := make([]string, 0, detailDays)
	for i := 0; i < detailDays; i++ {
		day := d.from.AddDate(0, 0, i)
		label := fmt.Sprintf("%02d", day.Day())
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.TextPrimary))
		switch {
		case d.reserved(i):
			style = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.TextMuted)).Strikethrough(true)
		case d.picked[i]:
			style = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Success)).Bold(true)
		}
		if i == d.cursor {
			style = style.Background(lipgloss.Color(m.theme.SelectionBg))
		}
		cells = append(cells, style.Render(label))
	}
	return strings.Join(cells, " ")
}

func (m appModel) renderPerformanceDetail(width, height int) string {
	p, ok := m.cat.performance(m.view.Overlay.EntityID)
	if !ok {
		return strings.Join(append(m.detailHeader("Not found", width), "This performance is gone."), "\n")
	}
	lines := m.detailHeader(p.Title, width)
	for _, l := range []string{
		"when: " + p.dateRange(),
		"where: " + p.Place + ", " + p.City,
		"genre: " + p.Genre,
		"by: " + p.University,
	} {
		lines = append(lines, colorizeDetailLine(l, m.theme))
	}
	lines = append(lines, "")
	if desc := renderMarkdown(p.Description, min(width, 80)); desc != "" {
		lines = append(lines, strings.Split(desc, "\n")...)
	}
	lines = append(lines, "", m.styled(m.theme.HelpText).Render("esc back to calendar"))
	return strings.Join(fitLines(lines, height), "\n")
}
