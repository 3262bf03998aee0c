package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"replay/internal/api"
	"replay/internal/router"
	"replay/internal/session"
)

// screenMode is the per-tab state machine for the manage and community tabs.
type screenMode int

const (
	modeIdle screenMode = iota
	modeViewing
	modeEditing
)

type homeLink struct {
	label string
	tab   router.Tab
	// overlay is opened instead of switching tabs when set.
	overlay router.OverlayKind
}

var homeLinks = []homeLink{
	{label: "Browse props and costumes", tab: router.TabTrade},
	{label: "Manage my listings", tab: router.TabManage},
	{label: "Community boards", tab: router.TabCommunity},
	{label: "Performance calendar", overlay: router.OverlayCalendar},
	{label: "Register a new item", overlay: router.OverlayItemForm},
}

type homeState struct {
	cursor int
}

type tradeState struct {
	table     itemTable
	search    textinput.Model
	searching bool
}

func newTradeState(c *catalog) tradeState {
	return tradeState{
		table:  newItemTable(c.items),
		search: newInput("title, school, tag", 48),
	}
}

type manageState struct {
	mode   screenMode
	status itemStatus
	cursor int
	itemID int64
	inputs []textinput.Model
	focus  int
	err    string
}

type communityState struct {
	board  board
	mode   screenMode
	cursor int
	postID int64
	inputs []textinput.Model
	focus  int
	err    string
}

type mypageState struct {
	loading bool
	profile *api.Profile
	err     string
}

func (m appModel) updateHome(msg tea.KeyMsg) (appModel, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.home.cursor = clampInt(m.home.cursor-1, 0, len(homeLinks)-1)
	case key.Matches(msg, m.keys.Down):
		m.home.cursor = clampInt(m.home.cursor+1, 0, len(homeLinks)-1)
	case key.Matches(msg, m.keys.Confirm):
		link := homeLinks[m.home.cursor]
		if link.overlay != router.OverlayNone {
			m.openGated(router.Overlay{Kind: link.overlay})
			return m, nil
		}
		return m.selectTab(link.tab)
	}
	return m, nil
}

func (m appModel) updateTrade(msg tea.KeyMsg) (appModel, tea.Cmd) {
	t := &m.trade
	if t.searching {
		switch msg.Type {
		case tea.KeyEsc, tea.KeyEnter:
			t.searching = false
			t.search.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		t.search, cmd = t.search.Update(msg)
		t.table.setFilter(t.search.Value())
		return m, cmd
	}
	switch {
	case key.Matches(msg, m.keys.Filter):
		t.searching = true
		return m, t.search.Focus()
	case key.Matches(msg, m.keys.Back):
		t.search.SetValue("")
		t.table.setFilter("")
	case key.Matches(msg, m.keys.Up):
		t.table.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		t.table.moveCursor(1)
	case key.Matches(msg, m.keys.Cycle):
		t.table.cycleCategory()
	case msg.String() == "s":
		t.table.cycleStatus()
	case msg.String() == "t":
		t.table.setSortField(sortFieldTitle)
	case msg.String() == "p":
		t.table.setSortField(sortFieldPrice)
	case msg.String() == "d":
		t.table.setSortField(sortFieldNewest)
	case key.Matches(msg, m.keys.Add):
		m.openGated(router.Overlay{Kind: router.OverlayItemForm})
	case key.Matches(msg, m.keys.Confirm):
		if it, ok := t.table.currentItem(); ok {
			m.openGated(router.Overlay{Kind: router.OverlayItemDetail, EntityID: it.ID})
		}
	}
	return m, nil
}

func (m appModel) myItems() []item {
	out := []item{}
	for _, it := range m.cat.items {
		if it.Mine && (m.manage.status == "" || it.Status == m.manage.status) {
			out = append(out, it)
		}
	}
	return out
}

func (m appModel) updateManage(msg tea.KeyMsg) (appModel, tea.Cmd) {
	s := &m.manage
	if !m.svc.Provider.IsLoggedIn() {
		if key.Matches(msg, m.keys.Confirm) {
			view := m.view
			m.svc.Provider.RequireLogin(func() {
				*view = view.Apply(router.SelectTabIntent{Tab: router.TabManage})
			})
		}
		return m, nil
	}
	switch s.mode {
	case modeEditing:
		return m.updateManageEdit(msg)
	case modeViewing:
		it, ok := m.cat.item(s.itemID)
		if !ok {
			s.mode = modeIdle
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Back):
			s.mode = modeIdle
		case key.Matches(msg, m.keys.Edit):
			s.mode = modeEditing
			s.err = ""
			s.focus = 0
			s.inputs = []textinput.Model{newInput("title", 64), newInput("price", 12)}
			s.inputs[0].SetValue(it.Title)
			s.inputs[1].SetValue(strconv.Itoa(it.Price))
			focusInputs(s.inputs, 0)
			return m, textinput.Blink
		case key.Matches(msg, m.keys.Cycle):
			it.Status = itemStatuses[(statusIndex(it.Status)+1)%len(itemStatuses)]
			m.cat.updateItem(it)
			m.trade.table.replaceItems(m.cat.items)
		}
		return m, nil
	}

	items := m.myItems()
	switch {
	case key.Matches(msg, m.keys.Up):
		s.cursor = clampInt(s.cursor-1, 0, max(len(items)-1, 0))
	case key.Matches(msg, m.keys.Down):
		s.cursor = clampInt(s.cursor+1, 0, max(len(items)-1, 0))
	case key.Matches(msg, m.keys.Cycle):
		opts := []string{""}
		for _, st := range itemStatuses {
			opts = append(opts, string(st))
		}
		s.status = itemStatus(cycleString(opts, string(s.status)))
		s.cursor = 0
	case key.Matches(msg, m.keys.Add):
		m.openGated(router.Overlay{Kind: router.OverlayItemForm})
	case key.Matches(msg, m.keys.Confirm):
		if s.cursor < len(items) {
			s.itemID = items[s.cursor].ID
			s.mode = modeViewing
		}
	}
	return m, nil
}

func statusIndex(st itemStatus) int {
	for i, s := range itemStatuses {
		if s == st {
			return i
		}
	}
	return 0
}

func (m appModel) updateManageEdit(msg tea.KeyMsg) (appModel, tea.Cmd) {
	s := &m.manage
	switch {
	case key.Matches(msg, m.keys.Back):
		s.mode = modeViewing
		return m, nil
	case key.Matches(msg, m.keys.NextField), key.Matches(msg, m.keys.PrevField):
		s.focus = 1 - s.focus
		focusInputs(s.inputs, s.focus)
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		title := strings.TrimSpace(s.inputs[0].Value())
		price := strings.TrimSpace(s.inputs[1].Value())
		if err := requireFields("title", title, "price", price); err != nil {
			s.err = err.Error()
			return m, nil
		}
		n, err := strconv.Atoi(price)
		if err != nil || n < 0 {
			s.err = "price must be a whole number"
			return m, nil
		}
		it, ok := m.cat.item(s.itemID)
		if ok {
			it.Title = title
			it.Price = n
			m.cat.updateItem(it)
			m.trade.table.replaceItems(m.cat.items)
		}
		s.mode = modeViewing
		s.err = ""
		return m, m.setFlash("Listing updated")
	}
	var cmd tea.Cmd
	s.inputs[s.focus], cmd = s.inputs[s.focus].Update(msg)
	return m, cmd
}

func (m appModel) updateCommunity(msg tea.KeyMsg) (appModel, tea.Cmd) {
	s := &m.community
	if s.board == "" {
		s.board = boardGeneral
	}
	switch s.mode {
	case modeEditing:
		return m.updatePostEdit(msg)
	case modeViewing:
		p, ok := m.cat.post(s.postID)
		switch {
		case !ok, key.Matches(msg, m.keys.Back):
			s.mode = modeIdle
		case key.Matches(msg, m.keys.Edit) && p.Mine:
			s.mode = modeEditing
			s.err = ""
			s.focus = 0
			s.inputs = []textinput.Model{newInput("title", 80), newInput("body", 400)}
			s.inputs[0].SetValue(p.Title)
			s.inputs[1].SetValue(p.Body)
			focusInputs(s.inputs, 0)
			return m, textinput.Blink
		}
		return m, nil
	}

	posts := m.cat.postsOn(s.board)
	switch {
	case key.Matches(msg, m.keys.Up):
		s.cursor = clampInt(s.cursor-1, 0, max(len(posts)-1, 0))
	case key.Matches(msg, m.keys.Down):
		s.cursor = clampInt(s.cursor+1, 0, max(len(posts)-1, 0))
	case key.Matches(msg, m.keys.Left), key.Matches(msg, m.keys.Right), msg.String() == "b":
		if s.board == boardGeneral {
			s.board = boardRequest
		} else {
			s.board = boardGeneral
		}
		s.cursor = 0
	case key.Matches(msg, m.keys.Write):
		m.openGated(router.Overlay{Kind: router.OverlayPostForm})
	case key.Matches(msg, m.keys.Calendar):
		m.openGated(router.Overlay{Kind: router.OverlayCalendar})
	case key.Matches(msg, m.keys.Confirm):
		if s.cursor < len(posts) {
			s.postID = posts[s.cursor].ID
			s.mode = modeViewing
		}
	}
	return m, nil
}

func (m appModel) updatePostEdit(msg tea.KeyMsg) (appModel, tea.Cmd) {
	s := &m.community
	switch {
	case key.Matches(msg, m.keys.Back):
		s.mode = modeViewing
		return m, nil
	case key.Matches(msg, m.keys.NextField), key.Matches(msg, m.keys.PrevField):
		s.focus = 1 - s.focus
		focusInputs(s.inputs, s.focus)
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		title := strings.TrimSpace(s.inputs[0].Value())
		body := strings.TrimSpace(s.inputs[1].Value())
		if err := requireFields("title", title, "body", body); err != nil {
			s.err = err.Error()
			return m, nil
		}
		if p, ok := m.cat.post(s.postID); ok {
			p.Title = title
			p.Body = body
			m.cat.updatePost(p)
		}
		s.mode = modeViewing
		s.err = ""
		return m, m.setFlash("Post updated")
	}
	var cmd tea.Cmd
	s.inputs[s.focus], cmd = s.inputs[s.focus].Update(msg)
	return m, cmd
}

func (m appModel) updateMyPage(msg tea.KeyMsg) (appModel, tea.Cmd) {
	p := m.svc.Provider
	if !p.IsLoggedIn() {
		if key.Matches(msg, m.keys.Confirm) {
			view := m.view
			p.RequireLogin(func() {
				*view = view.Apply(router.SelectTabIntent{Tab: router.TabMyPage})
			})
		}
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Logout):
		return m.logout()
	case key.Matches(msg, m.keys.Refresh):
		return m.loadProfile()
	}
	return m, nil
}

func (m appModel) renderTab(width, height int) string {
	switch m.view.Tab {
	case router.TabTrade:
		return m.renderTrade(width, height)
	case router.TabManage:
		return m.renderManage(width, height)
	case router.TabCommunity:
		return m.renderCommunity(width, height)
	case router.TabMyPage:
		return m.renderMyPage(width, height)
	default:
		return m.renderHome(width, height)
	}
}

func (m appModel) styled(color string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

func (m appModel) selected(s string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.SelectionFg)).
		Background(lipgloss.Color(m.theme.SelectionBg)).
		Render(s)
}

func (m appModel) renderHome(width, height int) string {
	lines := []string{
		m.styled(m.theme.Accent).Bold(true).Render("Share the stage."),
		m.styled(m.theme.TextMuted).Render("Props, costumes and sets passed between university theater clubs."),
		"",
	}
	for i, l := range homeLinks {
		line := "  " + l.label
		if i == m.home.cursor {
			line = m.selected("> " + l.label)
		}
		lines = append(lines, line)
	}
	lines = append(lines, "")
	upcoming := m.cat.performances
	if len(upcoming) > 0 {
		lines = append(lines, m.styled(m.theme.DetailsLabel).Render("On stage soon"))
		for _, p := range upcoming {
			lines = append(lines, "  "+p.dateRange()+"  "+p.Title+" · "+p.University)
		}
	}
	lines = append(lines, "", m.styled(m.theme.HelpText).Render(helpLine(m.keys.Up, m.keys.Down, m.keys.Confirm)))
	return strings.Join(fitLines(lines, height), "\n")
}

func (m appModel) renderTrade(width, height int) string {
	t := m.trade
	search := "/ search"
	if t.searching || t.search.Value() != "" {
		search = "search: " + t.search.View()
	}
	header := []string{
		m.styled(m.theme.StatusText).Render(clampLine(t.table.summary(), width)),
		m.styled(m.theme.HelpText).Render(search),
	}
	t.table.setHeight(height - len(header) - 1)
	help := m.styled(m.theme.HelpText).Render(clampLine(
		helpLine(m.keys.Confirm, m.keys.Add, m.keys.Cycle)+" · s status · t/p/d sort", width))
	return strings.Join(append(header, t.table.render(width, m.theme), help), "\n")
}

func (m appModel) renderManage(width, height int) string {
	if !m.svc.Provider.IsLoggedIn() {
		return strings.Join(fitLines([]string{
			m.styled(m.theme.TextMuted).Render("Log in to manage your listings."),
			"",
			m.styled(m.theme.HelpText).Render("enter log in"),
		}, height), "\n")
	}
	s := m.manage
	switch s.mode {
	case modeViewing, modeEditing:
		it, ok := m.cat.item(s.itemID)
		if !ok {
			return ""
		}
		lines := []string{
			m.styled(m.theme.Accent).Bold(true).Render(it.Title),
			"price: " + it.priceLabel(),
			"status: " + string(it.Status),
			"category: " + it.Category,
			"location: " + it.Location,
			"",
		}
		for i := range lines {
			if i > 0 && lines[i] != "" {
				lines[i] = colorizeDetailLine(lines[i], m.theme)
			}
		}
		if s.mode == modeEditing {
			lines = append(lines,
				m.fieldLine("Title", s.inputs[0], s.focus == 0),
				m.fieldLine("Price", s.inputs[1], s.focus == 1))
			lines = append(lines, m.errorLine(s.err)...)
			lines = append(lines, "", m.styled(m.theme.HelpText).Render(helpLine(m.keys.NextField)+" · enter save · esc cancel"))
		} else {
			lines = append(lines, m.styled(m.theme.HelpText).Render(helpLine(m.keys.Edit, m.keys.Back)+" · f next status"))
		}
		return strings.Join(fitLines(lines, height), "\n")
	}

	chips := []string{}
	for _, st := range append([]itemStatus{""}, itemStatuses...) {
		label := string(st)
		if st == "" {
			label = "all"
		}
		if st == s.status {
			chips = append(chips, m.selected(" "+label+" "))
		} else {
			chips = append(chips, m.styled(m.theme.Tag).Render(" "+label+" "))
		}
	}
	lines := []string{strings.Join(chips, " "), ""}
	items := m.myItems()
	if len(items) == 0 {
		lines = append(lines, m.styled(m.theme.TextMuted).Render("No listings here yet. Press + to register one."))
	}
	for i, it := range items {
		line := pad(truncate(it.Title, 32), 32) + "  " + pad(it.priceLabel(), 14) + string(it.Status)
		if i == s.cursor {
			line = m.selected(line)
		}
		lines = append(lines, line)
	}
	lines = append(lines, "", m.styled(m.theme.HelpText).Render(helpLine(m.keys.Confirm, m.keys.Add)+" · f status filter"))
	return strings.Join(fitLines(lines, height), "\n")
}

func (m appModel) renderCommunity(width, height int) string {
	s := m.community
	if s.board == "" {
		s.board = boardGeneral
	}
	if s.mode != modeIdle {
		p, ok := m.cat.post(s.postID)
		if !ok {
			return ""
		}
		lines := []string{
			m.styled(m.theme.Accent).Bold(true).Render(p.Title),
			m.styled(m.theme.TextMuted).Render(p.Author + " · " + p.CreatedAt.Format("2006.01.02")),
			"",
		}
		if s.mode == modeEditing {
			lines = append(lines,
				m.fieldLine("Title", s.inputs[0], s.focus == 0),
				m.fieldLine("Body", s.inputs[1], s.focus == 1))
			lines = append(lines, m.errorLine(s.err)...)
			lines = append(lines, "", m.styled(m.theme.HelpText).Render("tab next field · enter save · esc cancel"))
		} else {
			lines = append(lines, wrapLine(p.Body, width)...)
			help := helpLine(m.keys.Back)
			if p.Mine {
				help = helpLine(m.keys.Edit, m.keys.Back)
			}
			lines = append(lines, "", m.styled(m.theme.HelpText).Render(help))
		}
		return strings.Join(fitLines(lines, height), "\n")
	}

	tabs := []string{}
	for _, b := range []board{boardGeneral, boardRequest} {
		if b == s.board {
			tabs = append(tabs, m.selected(" "+string(b)+" "))
		} else {
			tabs = append(tabs, m.styled(m.theme.NavInactive).Render(" "+string(b)+" "))
		}
	}
	lines := []string{strings.Join(tabs, " "), ""}
	posts := m.cat.postsOn(s.board)
	if len(posts) == 0 {
		lines = append(lines, m.styled(m.theme.TextMuted).Render("Nothing posted yet."))
	}
	for i, p := range posts {
		line := pad(truncate(p.Title, 40), 40) + "  " + pad(truncate(p.Author, 18), 18) + p.CreatedAt.Format("01.02")
		if i == s.cursor {
			line = m.selected(line)
		}
		lines = append(lines, line)
	}
	lines = append(lines, "", m.styled(m.theme.HelpText).Render(
		helpLine(m.keys.Confirm, m.keys.Write, m.keys.Calendar)+" · b board"))
	return strings.Join(fitLines(lines, height), "\n")
}

func (m appModel) renderMyPage(width, height int) string {
	p := m.svc.Provider
	if !p.IsLoggedIn() {
		return strings.Join(fitLines([]string{
			m.styled(m.theme.TextMuted).Render("You are browsing as a guest."),
			"",
			m.styled(m.theme.HelpText).Render("enter log in"),
		}, height), "\n")
	}
	lines := []string{m.styled(m.theme.Accent).Bold(true).Render("My page"), ""}
	switch {
	case m.mypage.loading:
		lines = append(lines, m.spinner.View()+" loading profile...")
	case m.mypage.profile != nil:
		pr := m.mypage.profile
		lines = append(lines,
			"name: "+pr.Name,
			"email: "+pr.Email,
			"role: "+pr.Role,
			"school: "+optionalID(pr.SchoolID),
			"club: "+optionalID(pr.ClubID),
		)
	default:
		msg := m.mypage.err
		if msg == "" {
			msg = "No profile loaded."
		}
		lines = append(lines, m.styled(m.theme.TextMuted).Render(msg))
	}
	if c, ok := session.ParseClaims(p.Token()); ok {
		lines = append(lines, "")
		if c.Subject != "" {
			lines = append(lines, "account: #"+c.Subject)
		}
		if !c.ExpiresAt.IsZero() {
			exp := "session expires: " + c.ExpiresAt.Local().Format("2006.01.02 15:04")
			if c.Expired(time.Now()) {
				exp = "session expires: expired, log in again"
			}
			lines = append(lines, exp)
		}
	}
	for i := 2; i < len(lines); i++ {
		if strings.Contains(lines[i], ": ") {
			lines[i] = colorizeDetailLine(lines[i], m.theme)
		}
	}
	lines = append(lines, "", m.styled(m.theme.HelpText).Render(helpLine(m.keys.Refresh, m.keys.Logout)))
	return strings.Join(fitLines(lines, height), "\n")
}

func optionalID(id *int64) string {
	if id == nil {
		return "not set"
	}
	return fmt.Sprintf("#%d", *id)
}
