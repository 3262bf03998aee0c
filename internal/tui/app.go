package tui

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"replay/internal/api"
	"replay/internal/auth"
	"replay/internal/lookup"
	"replay/internal/router"
)

// Services is everything the shell needs from outside the UI loop. Function
// fields run inside tea.Cmd goroutines; nil ones disable their feature.
type Services struct {
	Provider *auth.Provider

	Login         func(ctx context.Context, email, password string) (string, error)
	Signup        func(ctx context.Context, req api.SignupRequest) (string, error)
	Revoke        func(ctx context.Context, token string)
	Profile       func(ctx context.Context, token string) (api.Profile, error)
	Schools       func(ctx context.Context, keyword string) ([]api.School, error)
	Clubs         func(ctx context.Context, schoolID int64, keyword string) ([]api.Club, error)
	Notifications func(ctx context.Context, token string) ([]api.Notification, error)
	// Live starts a push listener for token. The channel closes once ctx is
	// cancelled or the connection drops.
	Live func(ctx context.Context, token string) <-chan api.Notification

	InitialTab string
	Version    string
	Theme      UITheme
	Logger     *slog.Logger
	// Debounce is the lookup delay for the signup search fields.
	Debounce time.Duration
}

const flashDuration = 2 * time.Second

// effects collects commands queued by gated actions, which run outside the
// Update call that scheduled them.
type effects struct {
	cmds []tea.Cmd
}

func (e *effects) push(c tea.Cmd) {
	if c != nil {
		e.cmds = append(e.cmds, c)
	}
}

func (e *effects) drain() tea.Cmd {
	if len(e.cmds) == 0 {
		return nil
	}
	c := tea.Batch(e.cmds...)
	e.cmds = nil
	return c
}

type appModel struct {
	svc    Services
	keys   keyMap
	theme  UITheme
	logger *slog.Logger
	width  int
	height int

	// view is shared with gated actions so they can navigate once they fire.
	view        *router.ViewState
	fx          *effects
	lastOverlay router.Overlay

	cat     *catalog
	tracker *lookup.Tracker
	spinner spinner.Model

	login  loginForm
	role   roleChooser
	signup signupForm

	home      homeState
	trade     tradeState
	manage    manageState
	community communityState
	mypage    mypageState

	itemForm itemFormState
	postForm postFormState
	calendar calendarState
	detail   itemDetailState

	drawer drawerState
	live   *liveFeed

	status   string
	flash    string
	flashSeq int
	quitting bool
}

type authResultMsg struct {
	op    string
	token string
	err   error
}

type profileMsg struct {
	token   string
	profile api.Profile
	err     error
}

type notificationsMsg struct {
	items []api.Notification
	err   error
}

type liveNotificationMsg struct {
	gen int
	n   api.Notification
}

type flashClearMsg struct {
	seq int
}

func RunApp(svc Services) error {
	m := newAppModel(svc)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func newAppModel(svc Services) appModel {
	if svc.Logger == nil {
		svc.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if svc.Debounce <= 0 {
		svc.Debounce = lookup.DefaultDebounce
	}
	view := router.New(svc.InitialTab)
	cat := newMockCatalog()
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	m := appModel{
		svc:       svc,
		keys:      defaultKeyMap(),
		theme:     svc.Theme.withDefaults(),
		logger:    svc.Logger,
		view:      &view,
		fx:        &effects{},
		cat:       cat,
		tracker:   lookup.NewTracker(),
		spinner:   sp,
		login:     newLoginForm(),
		signup:    newSignupForm(),
		trade:     newTradeState(cat),
		community: communityState{board: boardGeneral},
		live:      &liveFeed{},
		status:    "Ready",
	}
	m.mypage.loading = view.Tab == router.TabMyPage && svc.Provider.IsLoggedIn() && svc.Profile != nil
	return m
}

func (m appModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.startLive()}
	if m.mypage.loading {
		cmds = append(cmds, m.profileCmd(), m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	next.syncOverlay()
	return next, tea.Batch(cmd, next.fx.drain())
}

func (m appModel) update(msg tea.Msg) (appModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.trade.table.setHeight(m.bodyHeight())
		return m, nil
	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case authResultMsg:
		return m.applyAuthResult(msg)
	case lookupTickMsg:
		return m, m.lookupFetch(msg.ticket)
	case schoolsMsg:
		return m.applySchools(msg), nil
	case clubsMsg:
		return m.applyClubs(msg), nil
	case profileMsg:
		return m.applyProfile(msg), nil
	case notificationsMsg:
		m.drawer.loading = false
		if msg.err != nil {
			m.logger.Warn("load notifications", "err", msg.err)
			m.drawer.err = "Could not load notifications."
			return m, nil
		}
		m.drawer.err = ""
		m.drawer.items = msg.items
		m.drawer.cursor = 0
		return m, nil
	case liveNotificationMsg:
		if !m.svc.Provider.IsLoggedIn() || !m.live.current(msg.gen) {
			return m, nil
		}
		m.drawer.items = append([]api.Notification{msg.n}, m.drawer.items...)
		cmd := m.setFlash("New notification: " + msg.n.Message)
		return m, tea.Batch(cmd, m.live.wait())
	case flashClearMsg:
		if msg.seq == m.flashSeq {
			m.flash = ""
		}
		return m, nil
	case tea.KeyMsg:
		return m.updateKey(msg)
	}
	return m, nil
}

func (m appModel) updateKey(msg tea.KeyMsg) (appModel, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.quitting = true
		return m, tea.Quit
	}
	p := m.svc.Provider
	if p.PromptOpen() {
		return m.updatePrompt(msg)
	}
	if p.Screen() != auth.ScreenNone {
		return m.updateAuthScreen(msg)
	}
	if m.drawer.open {
		return m.updateDrawer(msg)
	}
	if m.view.Overlay.Open() {
		if t, ok := tabDigit(msg); ok && !overlayTakesText(m.view.Overlay.Kind) {
			return m.selectTab(t)
		}
		return m.updateOverlay(msg)
	}
	if m.typing() {
		return m.updateTab(msg)
	}

	if t, ok := tabDigit(msg); ok {
		return m.selectTab(t)
	}
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.NextTab):
		return m.selectTab(router.Tabs[(m.tabIndex()+1)%len(router.Tabs)])
	case key.Matches(msg, m.keys.PrevTab):
		return m.selectTab(router.Tabs[(m.tabIndex()+len(router.Tabs)-1)%len(router.Tabs)])
	case key.Matches(msg, m.keys.Notifications):
		return m.openDrawer()
	case key.Matches(msg, m.keys.Login):
		if !p.IsLoggedIn() {
			p.OpenLogin()
			return m, m.login.focusCmd()
		}
		return m, nil
	}
	return m.updateTab(msg)
}

// tabDigit maps the number keys to bottom navigation tabs.
func tabDigit(msg tea.KeyMsg) (router.Tab, bool) {
	s := msg.String()
	if len(s) != 1 || s[0] < '1' || int(s[0]-'1') >= len(router.Tabs) {
		return "", false
	}
	return router.Tabs[s[0]-'1'], true
}

func overlayTakesText(k router.OverlayKind) bool {
	return k == router.OverlayItemForm || k == router.OverlayPostForm
}

func (m appModel) updatePrompt(msg tea.KeyMsg) (appModel, tea.Cmd) {
	switch msg.String() {
	case "enter", "y", "l":
		m.svc.Provider.GoToLogin()
		return m, m.login.focusCmd()
	case "esc", "n":
		m.svc.Provider.DismissPrompt()
	}
	return m, nil
}

func (m appModel) updateTab(msg tea.KeyMsg) (appModel, tea.Cmd) {
	switch m.view.Tab {
	case router.TabTrade:
		return m.updateTrade(msg)
	case router.TabManage:
		return m.updateManage(msg)
	case router.TabCommunity:
		return m.updateCommunity(msg)
	case router.TabMyPage:
		return m.updateMyPage(msg)
	default:
		return m.updateHome(msg)
	}
}

// typing reports whether a tab has a text field focused, in which case
// single-letter shortcuts go to the field.
func (m appModel) typing() bool {
	switch m.view.Tab {
	case router.TabTrade:
		return m.trade.searching
	case router.TabManage:
		return m.manage.mode == modeEditing
	case router.TabCommunity:
		return m.community.mode == modeEditing
	}
	return false
}

func (m appModel) tabIndex() int {
	for i, t := range router.Tabs {
		if t == m.view.Tab {
			return i
		}
	}
	return 0
}

// navigate applies router intents to the live view state.
func (m appModel) navigate(intents ...router.Intent) {
	*m.view = m.view.Apply(intents...)
}

func (m appModel) selectTab(t router.Tab) (appModel, tea.Cmd) {
	m.navigate(router.SelectTabIntent{Tab: t})
	if t == router.TabMyPage && m.svc.Provider.IsLoggedIn() {
		return m.loadProfile()
	}
	return m, nil
}

// openGated opens an overlay, asking for a login first when it requires one.
func (m appModel) openGated(o router.Overlay) {
	view := m.view
	open := func() { *view = view.Apply(router.OpenOverlayIntent{Overlay: o}) }
	if !router.RequiresAuth(o.Kind) {
		open()
		return
	}
	m.svc.Provider.RequireLogin(open)
}

// syncOverlay prepares screen state for an overlay that just opened.
func (m *appModel) syncOverlay() {
	cur := m.view.Overlay
	if cur == m.lastOverlay {
		return
	}
	prev := m.lastOverlay
	m.lastOverlay = cur
	switch cur.Kind {
	case router.OverlayItemForm:
		m.itemForm = newItemForm()
	case router.OverlayPostForm:
		m.postForm = newPostForm(m.community.board)
	case router.OverlayCalendar:
		if prev.Kind != router.OverlayPerformanceDetail {
			m.calendar = newCalendar(m.cat, time.Now())
		}
	case router.OverlayItemDetail:
		m.detail = newItemDetail(cur.EntityID, time.Now())
		m.navigate(router.HeaderIntent{Hidden: true})
	case router.OverlayPerformanceDetail:
		m.navigate(router.HeaderIntent{Hidden: true})
	}
}

func (m appModel) busy() bool {
	return m.svc.Provider.Submitting() || m.mypage.loading || m.drawer.loading
}

func (m *appModel) setFlash(text string) tea.Cmd {
	m.flashSeq++
	m.flash = text
	seq := m.flashSeq
	return tea.Tick(flashDuration, func(time.Time) tea.Msg { return flashClearMsg{seq: seq} })
}

func (m appModel) applyAuthResult(msg authResultMsg) (appModel, tea.Cmd) {
	p := m.svc.Provider
	if msg.err != nil {
		p.EndSubmit()
		m.logger.Info("auth failed", "op", msg.op, "err", msg.err)
		if msg.op == "signup" {
			m.signup.err = msg.err.Error()
		} else {
			m.login.err = msg.err.Error()
		}
		return m, nil
	}
	m.status = "Logged in"
	if err := p.CompleteAuth(context.Background(), msg.token); err != nil {
		m.status = "Logged in, but the session could not be saved"
	}
	m.login = newLoginForm()
	m.signup = newSignupForm()
	m.role = roleChooser{}
	live := m.startLive()
	if m.view.Tab == router.TabMyPage && !m.view.Overlay.Open() {
		var cmd tea.Cmd
		m, cmd = m.loadProfile()
		return m, tea.Batch(cmd, live)
	}
	return m, live
}

func (m appModel) loadProfile() (appModel, tea.Cmd) {
	if m.svc.Profile == nil {
		return m, nil
	}
	m.mypage.loading = true
	m.mypage.err = ""
	return m, tea.Batch(m.profileCmd(), m.spinner.Tick)
}

func (m appModel) profileCmd() tea.Cmd {
	fetch := m.svc.Profile
	if fetch == nil {
		return nil
	}
	token := m.svc.Provider.Token()
	return func() tea.Msg {
		p, err := fetch(context.Background(), token)
		return profileMsg{token: token, profile: p, err: err}
	}
}

func (m appModel) applyProfile(msg profileMsg) appModel {
	m.mypage.loading = false
	if msg.token != m.svc.Provider.Token() {
		return m
	}
	if msg.err != nil {
		m.logger.Warn("load profile", "err", msg.err)
		m.mypage.profile = nil
		m.mypage.err = "Profile unavailable right now."
		return m
	}
	prof := msg.profile
	m.mypage.profile = &prof
	m.mypage.err = ""
	return m
}

func (m appModel) logout() (appModel, tea.Cmd) {
	prev, err := m.svc.Provider.Logout(context.Background())
	if err != nil {
		m.logger.Error("clear session", "err", err)
	}
	m.live.stop()
	m.mypage = mypageState{}
	m.drawer.items = nil
	m.status = "Logged out"
	revoke := m.svc.Revoke
	if revoke == nil || prev == "" {
		return m, nil
	}
	return m, func() tea.Msg {
		revoke(context.Background(), prev)
		return nil
	}
}

// startLive (re)starts the push listener for the current token.
func (m appModel) startLive() tea.Cmd {
	if m.svc.Live == nil || !m.svc.Provider.IsLoggedIn() {
		return nil
	}
	return m.live.start(m.svc.Live, m.svc.Provider.Token())
}
