package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"replay/internal/api"
	"replay/internal/auth"
	"replay/internal/router"
)

type memSession struct {
	token string
}

func (s *memSession) Token() string    { return s.token }
func (s *memSession) IsLoggedIn() bool { return s.token != "" }
func (s *memSession) SetToken(_ context.Context, token string) error {
	s.token = token
	return nil
}
func (s *memSession) Logout(context.Context) (string, error) {
	prev := s.token
	s.token = ""
	return prev, nil
}

func newTestModel(sess *memSession) appModel {
	m := newAppModel(Services{
		Provider: auth.NewProvider(sess, nil),
		Login: func(_ context.Context, email, password string) (string, error) {
			if password != "secret" {
				return "", errors.New("login failed: check your email/password")
			}
			return "tok-" + email, nil
		},
		Schools: func(_ context.Context, keyword string) ([]api.School, error) {
			return []api.School{{ID: 1, Name: "Seoul University " + keyword}}, nil
		},
		Clubs: func(_ context.Context, schoolID int64, keyword string) ([]api.Club, error) {
			return []api.Club{{ID: 10, SchoolID: schoolID, Name: "Drama Club"}}, nil
		},
		Version: "1.0.0",
	})
	m.width = 110
	m.height = 34
	return m
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "ctrl+n":
		return tea.KeyMsg{Type: tea.KeyCtrlN}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(m appModel, msgs ...tea.Msg) (appModel, tea.Cmd) {
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(appModel)
	}
	return m, cmd
}

func press(m appModel, keys ...string) appModel {
	for _, k := range keys {
		m, _ = send(m, keyPress(k))
	}
	return m
}

// typeText sends each rune as its own key press, like a user typing.
func typeText(m appModel, text string) appModel {
	for _, r := range text {
		m, _ = send(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

// collect runs cmd and any batches it returns, keeping messages of type T.
func collect[T any](cmd tea.Cmd) []T {
	if cmd == nil {
		return nil
	}
	var out []T
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			out = append(out, collect[T](c)...)
		}
	case T:
		out = append(out, msg)
	}
	return out
}

func TestGatedDetailOpensAfterLoginWithSignupDetour(t *testing.T) {
	sess := &memSession{}
	m := newTestModel(sess)

	m = press(m, "2")
	want, ok := m.trade.table.currentItem()
	if !ok {
		t.Fatalf("expected a selected item")
	}
	m = press(m, "enter")
	p := m.svc.Provider
	if !p.PromptOpen() || m.view.Overlay.Open() {
		t.Fatalf("expected login prompt and no overlay, got prompt=%v overlay=%v", p.PromptOpen(), m.view.Overlay)
	}

	m = press(m, "enter")
	if p.Screen() != auth.ScreenLogin || p.PromptOpen() {
		t.Fatalf("expected login screen, got %v", p.Screen())
	}
	m = press(m, "ctrl+n")
	if p.Screen() != auth.ScreenSignupRole {
		t.Fatalf("expected signup role screen, got %v", p.Screen())
	}
	m = press(m, "esc")
	if p.Screen() != auth.ScreenLogin {
		t.Fatalf("expected back on login, got %v", p.Screen())
	}

	m = typeText(m, "a@b.c")
	m = press(m, "tab")
	m = typeText(m, "secret")
	m, cmd := send(m, keyPress("enter"))
	if !p.Submitting() {
		t.Fatalf("expected submit in flight")
	}
	results := collect[authResultMsg](cmd)
	if len(results) != 1 {
		t.Fatalf("expected one auth result, got %d", len(results))
	}
	if results[0].token != "tok-a@b.c" {
		t.Fatalf("unexpected token %q", results[0].token)
	}

	m, _ = send(m, results[0])
	if sess.token != "tok-a@b.c" {
		t.Fatalf("session token not stored: %q", sess.token)
	}
	if p.Screen() != auth.ScreenNone || p.PromptOpen() || p.HasPending() || p.Submitting() {
		t.Fatalf("auth ui should be fully closed")
	}
	if m.view.Overlay.Kind != router.OverlayItemDetail || m.view.Overlay.EntityID != want.ID {
		t.Fatalf("expected item detail for %d, got %+v", want.ID, m.view.Overlay)
	}
	if !m.view.HeaderHidden {
		t.Fatalf("detail overlay should hide the header")
	}
	if m.detail.itemID != want.ID {
		t.Fatalf("detail state not prepared: %d", m.detail.itemID)
	}
}

func TestLoginFailureKeepsScreenOpen(t *testing.T) {
	m := newTestModel(&memSession{})
	m = press(m, "L")
	m = typeText(m, "a@b.c")
	m = press(m, "tab")
	m = typeText(m, "wrong")
	m, cmd := send(m, keyPress("enter"))
	results := collect[authResultMsg](cmd)
	if len(results) != 1 || results[0].err == nil {
		t.Fatalf("expected a failed auth result")
	}
	m, _ = send(m, results[0])
	p := m.svc.Provider
	if p.Screen() != auth.ScreenLogin || p.Submitting() || p.IsLoggedIn() {
		t.Fatalf("login screen should stay open and idle")
	}
	if m.login.err != "login failed: check your email/password" {
		t.Fatalf("unexpected error text %q", m.login.err)
	}
}

func TestEmptyLoginIsRejectedLocally(t *testing.T) {
	m := newTestModel(&memSession{})
	m = press(m, "L")
	m, cmd := send(m, keyPress("enter"))
	if cmd != nil || m.svc.Provider.Submitting() {
		t.Fatalf("empty form must not reach the network")
	}
	if !strings.Contains(m.login.err, "email") || !strings.Contains(m.login.err, "password") {
		t.Fatalf("unexpected validation message %q", m.login.err)
	}
}

func TestDismissedPromptDropsAction(t *testing.T) {
	sess := &memSession{}
	m := newTestModel(sess)
	m = press(m, "4", "w")
	p := m.svc.Provider
	if !p.PromptOpen() {
		t.Fatalf("expected prompt for post form")
	}
	m = press(m, "esc")
	if p.PromptOpen() || p.HasPending() {
		t.Fatalf("dismiss should close the prompt and drop the action")
	}

	m = press(m, "L")
	m, _ = send(m, authResultMsg{op: "login", token: "tok"})
	if m.view.Overlay.Open() {
		t.Fatalf("dropped action must not fire, got %+v", m.view.Overlay)
	}
	if m.view.Tab != router.TabCommunity {
		t.Fatalf("tab should be unchanged, got %v", m.view.Tab)
	}
}

func TestStaleSchoolResultsAreDiscarded(t *testing.T) {
	m := newTestModel(&memSession{})
	m = press(m, "L", "ctrl+n", "enter")
	if m.svc.Provider.Screen() != auth.ScreenSignupForm {
		t.Fatalf("expected signup form, got %v", m.svc.Provider.Screen())
	}

	older := m.tracker.Begin(lookupSchool, "se")
	newer := m.tracker.Begin(lookupSchool, "seoul")
	if m.lookupFetch(older) != nil {
		t.Fatalf("superseded keystroke must not fetch")
	}
	if m.lookupFetch(newer) == nil {
		t.Fatalf("current keystroke should fetch")
	}

	m, _ = send(m,
		schoolsMsg{ticket: newer, schools: []api.School{{ID: 2, Name: "Seoul"}}},
		schoolsMsg{ticket: older, schools: []api.School{{ID: 3, Name: "Sejong"}}},
	)
	if len(m.signup.schools) != 1 || m.signup.schools[0].Name != "Seoul" {
		t.Fatalf("late stale response overwrote results: %+v", m.signup.schools)
	}

	first := m.tracker.Begin(lookupSchool, "bu")
	second := m.tracker.Begin(lookupSchool, "busan")
	m, _ = send(m, schoolsMsg{ticket: first, schools: []api.School{{ID: 4, Name: "Bucheon"}}})
	if m.signup.schools[0].Name != "Seoul" {
		t.Fatalf("stale response applied: %+v", m.signup.schools)
	}
	m, _ = send(m, schoolsMsg{ticket: second, schools: []api.School{{ID: 5, Name: "Busan"}}})
	if m.signup.schools[0].Name != "Busan" {
		t.Fatalf("current response not applied: %+v", m.signup.schools)
	}
}

func TestPickingSchoolResetsClubAndLoadsClubs(t *testing.T) {
	m := newTestModel(&memSession{})
	m = press(m, "L", "ctrl+n", "enter")
	tk := m.tracker.Begin(lookupSchool, "")
	m, _ = send(m, schoolsMsg{ticket: tk, schools: []api.School{{ID: 7, Name: "Yonsei"}}})
	m.signup.club = &api.Club{ID: 99, Name: "stale"}
	m.signup.setFocus(sfSchool)

	m, cmd := send(m, keyPress("enter"))
	if m.signup.school == nil || m.signup.school.ID != 7 {
		t.Fatalf("school not picked: %+v", m.signup.school)
	}
	if m.signup.club != nil || m.signup.focus != sfClub {
		t.Fatalf("club should reset and take focus")
	}
	if m.signup.inputs[sfSchool].Value() != "Yonsei" {
		t.Fatalf("school field should show the name, got %q", m.signup.inputs[sfSchool].Value())
	}
	if cmd == nil {
		t.Fatalf("expected club lookup")
	}
}

func TestSignupRequiresSchoolAndClub(t *testing.T) {
	m := newTestModel(&memSession{})
	m = press(m, "L", "ctrl+n", "enter")
	m = typeText(m, "Kim")
	m = press(m, "tab")
	m = typeText(m, "kim@u.ac.kr")
	m = press(m, "tab")
	m = typeText(m, "pw")
	m = press(m, "tab", "tab")
	m.signup.setFocus(sfName)
	m, _ = send(m, keyPress("enter"))
	if m.svc.Provider.Submitting() {
		t.Fatalf("incomplete signup must not submit")
	}
	if m.signup.err != "school, club are required" {
		t.Fatalf("unexpected validation message %q", m.signup.err)
	}
}

func TestDetailOverlayHidesHeaderUntilBack(t *testing.T) {
	m := newTestModel(&memSession{token: "tok"})
	m = press(m, "2")
	if !strings.Contains(m.View(), logo[2]) {
		t.Fatalf("header should be visible on the trade tab")
	}
	m = press(m, "enter")
	if m.view.Overlay.Kind != router.OverlayItemDetail || !m.view.HeaderHidden {
		t.Fatalf("expected item detail with hidden header, got %+v", *m.view)
	}
	if strings.Contains(m.View(), logo[2]) {
		t.Fatalf("shared header should be hidden on the detail screen")
	}
	m = press(m, "esc")
	if m.view.Overlay.Open() || m.view.HeaderHidden {
		t.Fatalf("back should close the overlay and restore the header")
	}
	if m.view.Tab != router.TabTrade {
		t.Fatalf("tab should stay on trade, got %v", m.view.Tab)
	}
}

func TestTabSwitchClosesOverlay(t *testing.T) {
	m := newTestModel(&memSession{token: "tok"})
	m = press(m, "4", "c")
	if m.view.Overlay.Kind != router.OverlayCalendar {
		t.Fatalf("expected calendar, got %+v", m.view.Overlay)
	}
	m = press(m, "enter")
	if m.view.Overlay.Kind != router.OverlayPerformanceDetail {
		t.Fatalf("expected performance detail, got %+v", m.view.Overlay)
	}
	if !m.view.HeaderHidden {
		t.Fatalf("performance detail should hide the shared header")
	}
	m = press(m, "esc")
	if m.view.Overlay.Kind != router.OverlayCalendar || m.view.HeaderHidden {
		t.Fatalf("esc should return to the calendar")
	}
	m = press(m, "1")
	if m.view.Overlay.Open() || m.view.Tab != router.TabHome {
		t.Fatalf("tab switch should drop the overlay, got %+v", *m.view)
	}
}

func TestAuthScreenRendersAlone(t *testing.T) {
	m := newTestModel(&memSession{})
	m = press(m, "L")
	out := m.View()
	if !strings.Contains(out, "Log in") {
		t.Fatalf("expected login screen in view")
	}
	if strings.Contains(out, "2 Trade") || strings.Contains(out, logo[2]) {
		t.Fatalf("header and navigation must not render behind auth screens")
	}
}

func TestItemFormHighlightsManageAndRegisters(t *testing.T) {
	m := newTestModel(&memSession{token: "tok"})
	before := len(m.cat.items)
	m = press(m, "2", "+")
	if m.view.Overlay.Kind != router.OverlayItemForm {
		t.Fatalf("expected item form, got %+v", m.view.Overlay)
	}
	if m.view.NavHighlight() != router.TabManage {
		t.Fatalf("item form should highlight manage")
	}
	m = typeText(m, "Rotary phone")
	m = press(m, "tab", "tab")
	m = typeText(m, "5000")
	m = press(m, "tab", "tab")
	m = typeText(m, "Seoul")
	m = press(m, "enter")

	if len(m.cat.items) != before+1 {
		t.Fatalf("expected a new item")
	}
	added := m.cat.items[len(m.cat.items)-1]
	if added.Title != "Rotary phone" || added.Price != 5000 || !added.Mine {
		t.Fatalf("unexpected item %+v", added)
	}
	if m.view.Overlay.Open() || m.view.Tab != router.TabManage {
		t.Fatalf("expected manage tab after submit, got %+v", *m.view)
	}
}

func TestItemFormFieldsCycleBothWays(t *testing.T) {
	m := newTestModel(&memSession{token: "tok"})
	m = press(m, "2", "+")
	if m.view.Overlay.Kind != router.OverlayItemForm {
		t.Fatalf("expected item form, got %+v", m.view.Overlay)
	}
	for i := 1; i <= ifCount; i++ {
		m = press(m, "tab")
		if want := i % ifCount; m.itemForm.focus != want || !m.itemForm.inputs[want].Focused() {
			t.Fatalf("tab %d: focus %d, want %d", i, m.itemForm.focus, want)
		}
	}
	for i := 1; i <= ifCount; i++ {
		m = press(m, "shift+tab")
		if want := (ifCount - i) % ifCount; m.itemForm.focus != want {
			t.Fatalf("shift+tab %d: focus %d, want %d", i, m.itemForm.focus, want)
		}
	}
	m = press(m, "down", "down", "up")
	if m.itemForm.focus != ifCategory {
		t.Fatalf("arrows should move focus, got %d", m.itemForm.focus)
	}
}

func TestPostFormFieldsCycleBothWays(t *testing.T) {
	m := newTestModel(&memSession{token: "tok"})
	m = press(m, "4", "w")
	if m.view.Overlay.Kind != router.OverlayPostForm {
		t.Fatalf("expected post form, got %+v", m.view.Overlay)
	}
	for i, k := range []string{"tab", "tab", "shift+tab", "shift+tab"} {
		m = press(m, k)
		want := (i + 1) % 2
		if m.postForm.focus != want || !m.postForm.inputs[want].Focused() {
			t.Fatalf("%s: focus %d, want %d", k, m.postForm.focus, want)
		}
	}
}

func TestLogoutLeavesNavigationAlone(t *testing.T) {
	sess := &memSession{token: "tok"}
	m := newTestModel(sess)
	m = press(m, "5")
	m, _ = send(m, profileMsg{token: "tok", profile: api.Profile{Name: "Kim"}})
	if m.mypage.profile == nil {
		t.Fatalf("expected profile")
	}
	m = press(m, "o")
	if sess.token != "" {
		t.Fatalf("session should be cleared")
	}
	if m.view.Tab != router.TabMyPage || m.view.Overlay.Open() {
		t.Fatalf("logout must not navigate, got %+v", *m.view)
	}
	if m.mypage.profile != nil {
		t.Fatalf("profile should be cleared")
	}
}

func TestProfileFromOldSessionIgnored(t *testing.T) {
	m := newTestModel(&memSession{token: "new"})
	m.mypage.loading = true
	m, _ = send(m, profileMsg{token: "old", profile: api.Profile{Name: "Ghost"}})
	if m.mypage.profile != nil {
		t.Fatalf("profile for another token applied")
	}
}

func TestDrawerOffersLoginWhenLoggedOut(t *testing.T) {
	m := newTestModel(&memSession{})
	m = press(m, "n")
	if !m.drawer.open {
		t.Fatalf("drawer should open")
	}
	m = press(m, "enter")
	if m.drawer.open || m.svc.Provider.Screen() != auth.ScreenLogin {
		t.Fatalf("drawer login action should open the login screen")
	}
}

// fakeFeed records listener starts and hands out buffered channels the test fills.
type fakeFeed struct {
	tokens []string
	ctxs   []context.Context
	ch     chan api.Notification
}

func (f *fakeFeed) listen(ctx context.Context, token string) <-chan api.Notification {
	f.tokens = append(f.tokens, token)
	f.ctxs = append(f.ctxs, ctx)
	f.ch = make(chan api.Notification, 4)
	return f.ch
}

func TestLiveNotificationIsListed(t *testing.T) {
	feed := &fakeFeed{}
	m := newTestModel(&memSession{token: "tok"})
	m.svc.Live = feed.listen
	cmd := m.Init()
	if len(feed.tokens) != 1 || feed.tokens[0] != "tok" {
		t.Fatalf("listener should start for the stored token, got %v", feed.tokens)
	}
	feed.ch <- api.Notification{ID: 1, Type: "RENTAL_REQUEST", Message: "Kim wants your chair"}
	msgs := collect[liveNotificationMsg](cmd)
	if len(msgs) != 1 {
		t.Fatalf("expected one pushed notification, got %d", len(msgs))
	}
	m, _ = send(m, msgs[0])
	if len(m.drawer.items) != 1 || !strings.Contains(m.flash, "Kim wants your chair") {
		t.Fatalf("live notification not applied: %+v %q", m.drawer.items, m.flash)
	}
	m, _ = send(m, flashClearMsg{seq: m.flashSeq})
	if m.flash != "" {
		t.Fatalf("flash should clear")
	}
}

func TestLiveNotificationAfterLogoutIsDropped(t *testing.T) {
	feed := &fakeFeed{}
	sess := &memSession{token: "tok"}
	m := newTestModel(sess)
	m.svc.Live = feed.listen
	cmd := m.Init()
	feed.ch <- api.Notification{ID: 2, Type: "TRADE_REQUEST", Message: "for the old account"}
	msgs := collect[liveNotificationMsg](cmd)
	if len(msgs) != 1 {
		t.Fatalf("expected one pushed notification, got %d", len(msgs))
	}

	m = press(m, "5", "o")
	if sess.token != "" {
		t.Fatalf("session should be cleared")
	}
	if feed.ctxs[0].Err() == nil {
		t.Fatalf("logout should cancel the listener")
	}
	m, _ = send(m, msgs[0])
	if len(m.drawer.items) != 0 || strings.Contains(m.flash, "old account") {
		t.Fatalf("notification after logout should be dropped: %+v %q", m.drawer.items, m.flash)
	}
}

func TestLoginStartsLiveFeed(t *testing.T) {
	feed := &fakeFeed{}
	m := newTestModel(&memSession{})
	m.svc.Live = feed.listen
	if cmd := m.Init(); len(feed.tokens) != 0 {
		t.Fatalf("no listener while logged out, got %v (cmd %v)", feed.tokens, cmd != nil)
	}
	m, _ = send(m, authResultMsg{op: "login", token: "tok-new"})
	if len(feed.tokens) != 1 || feed.tokens[0] != "tok-new" {
		t.Fatalf("login should start the listener, got %v", feed.tokens)
	}
}

func TestLookupTickIgnoredWhenSuperseded(t *testing.T) {
	m := newTestModel(&memSession{})
	tk := m.tracker.Begin(lookupSchool, "a")
	_ = m.tracker.Begin(lookupSchool, "ab")
	_, cmd := send(m, lookupTickMsg{ticket: tk})
	if cmd != nil {
		t.Fatalf("stale tick should not fetch")
	}
}
