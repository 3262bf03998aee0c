package tui

import (
	"context"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"replay/internal/api"
)

// liveFeed owns the push listener of the logged-in session. Messages from a
// listener that was stopped or replaced are dropped.
type liveFeed struct {
	gen    int
	ch     <-chan api.Notification
	cancel context.CancelFunc
}

func (f *liveFeed) start(listen func(ctx context.Context, token string) <-chan api.Notification, token string) tea.Cmd {
	f.stop()
	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	f.ch = listen(ctx, token)
	return f.wait()
}

// stop cancels the listener. The generation moves on so in-flight reads are
// recognised as stale.
func (f *liveFeed) stop() {
	if f.cancel != nil {
		f.cancel()
	}
	f.gen++
	f.ch = nil
	f.cancel = nil
}

func (f *liveFeed) current(gen int) bool {
	return f.ch != nil && f.gen == gen
}

func (f *liveFeed) wait() tea.Cmd {
	ch, gen := f.ch, f.gen
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return liveNotificationMsg{gen: gen, n: n}
	}
}

type drawerState struct {
	open    bool
	loading bool
	items   []api.Notification
	cursor  int
	err     string
}

var notificationTitles = map[string]string{
	"RENTAL_REQUEST":  "Rental requests",
	"RENTAL_APPROVED": "Rentals approved",
	"TRADE_REQUEST":   "Trade requests",
	"COMMENT":         "Comments",
}

func notificationGroup(t string) string {
	if title, ok := notificationTitles[strings.ToUpper(t)]; ok {
		return title
	}
	if t == "" {
		return "Other"
	}
	return strings.ToUpper(t[:1]) + strings.ToLower(strings.ReplaceAll(t[1:], "_", " "))
}

// grouped orders notifications by group title, newest first inside a group.
func grouped(items []api.Notification) []api.Notification {
	out := append([]api.Notification(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		gi, gj := notificationGroup(out[i].Type), notificationGroup(out[j].Type)
		if gi != gj {
			return gi < gj
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (m appModel) openDrawer() (appModel, tea.Cmd) {
	m.drawer.open = true
	m.drawer.cursor = 0
	if !m.svc.Provider.IsLoggedIn() || m.svc.Notifications == nil {
		return m, nil
	}
	m.drawer.loading = true
	m.drawer.err = ""
	return m, tea.Batch(m.notificationsCmd(), m.spinner.Tick)
}

func (m appModel) notificationsCmd() tea.Cmd {
	fetch := m.svc.Notifications
	token := m.svc.Provider.Token()
	return func() tea.Msg {
		items, err := fetch(context.Background(), token)
		return notificationsMsg{items: items, err: err}
	}
}

func (m appModel) updateDrawer(msg tea.KeyMsg) (appModel, tea.Cmd) {
	d := &m.drawer
	switch {
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Notifications):
		d.open = false
		return m, nil
	}
	if !m.svc.Provider.IsLoggedIn() {
		if key.Matches(msg, m.keys.Confirm) {
			d.open = false
			m.svc.Provider.OpenLogin()
			return m, m.login.focusCmd()
		}
		return m, nil
	}
	items := grouped(d.items)
	switch {
	case key.Matches(msg, m.keys.Up):
		d.cursor = clampInt(d.cursor-1, 0, max(len(items)-1, 0))
	case key.Matches(msg, m.keys.Down):
		d.cursor = clampInt(d.cursor+1, 0, max(len(items)-1, 0))
	case key.Matches(msg, m.keys.Refresh):
		return m.openDrawer()
	case key.Matches(msg, m.keys.Confirm):
		if d.cursor < len(items) {
			id := items[d.cursor].ID
			for i := range d.items {
				if d.items[i].ID == id {
					d.items[i].IsRead = true
				}
			}
		}
	}
	return m, nil
}

func (m appModel) renderDrawer() string {
	width := clampInt(m.width-10, 36, 64)
	title := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Accent)).Bold(true).Render("Notifications")
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.TextMuted))
	lines := []string{title, ""}
	switch {
	case !m.svc.Provider.IsLoggedIn():
		lines = append(lines, "Log in to see rental and trade updates.", "", m.selected(" enter log in "))
	case m.drawer.loading:
		lines = append(lines, m.spinner.View()+" loading...")
	case m.drawer.err != "":
		lines = append(lines, lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Danger)).Render(m.drawer.err))
	case len(m.drawer.items) == 0:
		lines = append(lines, muted.Render("You're all caught up."))
	default:
		group := ""
		for i, n := range grouped(m.drawer.items) {
			if g := notificationGroup(n.Type); g != group {
				group = g
				lines = append(lines, lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.DetailsLabel)).Render(g))
			}
			mark := "•"
			if n.IsRead {
				mark = " "
			}
			line := mark + " " + truncate(n.Message, width-16)
			if !n.CreatedAt.IsZero() {
				line = pad(line, width-14) + " " + n.CreatedAt.Local().Format("01.02 15:04")
			}
			if i == m.drawer.cursor {
				line = m.selected(line)
			}
			lines = append(lines, line)
		}
	}
	help := helpLine(m.keys.Back)
	if m.svc.Provider.IsLoggedIn() {
		help = helpLine(m.keys.Up, m.keys.Down, m.keys.Refresh, m.keys.Back) + " · enter mark read"
	}
	lines = append(lines, "", muted.Render(help))
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.PopupBorder)).
		Padding(0, 1).
		Width(width).
		Render(strings.Join(lines, "\n"))
}
