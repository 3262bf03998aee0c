package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"replay/internal/api"
	"replay/internal/auth"
	"replay/internal/lookup"
)

const (
	lookupSchool = "school"
	lookupClub   = "club"
)

const lookupListMax = 6

type lookupTickMsg struct {
	ticket lookup.Ticket
}

type schoolsMsg struct {
	ticket  lookup.Ticket
	schools []api.School
	err     error
}

type clubsMsg struct {
	ticket lookup.Ticket
	clubs  []api.Club
	err    error
}

var errAuthUnavailable = errors.New("sign-in is not available right now")

func newInput(placeholder string, limit int) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = limit
	in.Prompt = ""
	return in
}

// focusInputs focuses inputs[idx] and blurs the rest.
func focusInputs(inputs []textinput.Model, idx int) {
	for i := range inputs {
		if i == idx {
			inputs[i].Focus()
		} else {
			inputs[i].Blur()
		}
	}
}

type loginForm struct {
	inputs []textinput.Model
	focus  int
	err    string
}

func newLoginForm() loginForm {
	email := newInput("you@school.ac.kr", 128)
	pw := newInput("password", 128)
	pw.EchoMode = textinput.EchoPassword
	pw.EchoCharacter = '•'
	f := loginForm{inputs: []textinput.Model{email, pw}}
	focusInputs(f.inputs, 0)
	return f
}

func (f loginForm) focusCmd() tea.Cmd { return textinput.Blink }

func (f *loginForm) move(delta int) {
	f.focus = (f.focus + delta + len(f.inputs)) % len(f.inputs)
	focusInputs(f.inputs, f.focus)
}

type roleChooser struct {
	cursor int
}

func (r roleChooser) role() api.Role {
	if r.cursor == 1 {
		return api.RoleAdmin
	}
	return api.RoleUser
}

const (
	sfName = iota
	sfEmail
	sfPassword
	sfAdminCode
	sfSchool
	sfClub
	sfCount
)

var signupLabels = [sfCount]string{"Name", "Email", "Password", "Admin code", "School", "Club"}

type signupForm struct {
	inputs     []textinput.Model
	focus      int
	schools    []api.School
	clubs      []api.Club
	listCursor int
	school     *api.School
	club       *api.Club
	lookupErr  string
	err        string
}

func newSignupForm() signupForm {
	inputs := make([]textinput.Model, sfCount)
	inputs[sfName] = newInput("your name", 64)
	inputs[sfEmail] = newInput("you@school.ac.kr", 128)
	inputs[sfPassword] = newInput("password", 128)
	inputs[sfPassword].EchoMode = textinput.EchoPassword
	inputs[sfPassword].EchoCharacter = '•'
	inputs[sfAdminCode] = newInput("issued by the service", 64)
	inputs[sfSchool] = newInput("type to search schools", 64)
	inputs[sfClub] = newInput("type to search clubs", 64)
	f := signupForm{inputs: inputs}
	focusInputs(f.inputs, sfName)
	return f
}

// order lists the focusable fields for role.
func (f signupForm) order(role api.Role) []int {
	if role == api.RoleAdmin {
		return []int{sfName, sfEmail, sfPassword, sfAdminCode, sfSchool, sfClub}
	}
	return []int{sfName, sfEmail, sfPassword, sfSchool, sfClub}
}

func (f *signupForm) move(delta int, role api.Role) {
	order := f.order(role)
	pos := 0
	for i, idx := range order {
		if idx == f.focus {
			pos = i
		}
	}
	f.setFocus(order[(pos+delta+len(order))%len(order)])
}

func (f *signupForm) setFocus(idx int) {
	f.focus = idx
	f.listCursor = 0
	focusInputs(f.inputs, idx)
}

func (f signupForm) listLen() int {
	switch f.focus {
	case sfSchool:
		return len(f.schools)
	case sfClub:
		return len(f.clubs)
	}
	return 0
}

func (f signupForm) request(role api.Role) (api.SignupRequest, error) {
	value := func(i int) string { return strings.TrimSpace(f.inputs[i].Value()) }
	schoolName, clubName := "", ""
	if f.school != nil {
		schoolName = f.school.Name
	}
	if f.club != nil {
		clubName = f.club.Name
	}
	pairs := []string{
		"name", value(sfName),
		"email", value(sfEmail),
		"password", value(sfPassword),
	}
	if role == api.RoleAdmin {
		pairs = append(pairs, "admin code", value(sfAdminCode))
	}
	pairs = append(pairs, "school", schoolName, "club", clubName)
	if err := requireFields(pairs...); err != nil {
		return api.SignupRequest{}, err
	}
	req := api.SignupRequest{
		Email:    value(sfEmail),
		Password: f.inputs[sfPassword].Value(),
		Name:     value(sfName),
		Role:     role,
		SchoolID: f.school.ID,
		ClubID:   f.club.ID,
	}
	if role == api.RoleAdmin {
		req.AdminCode = value(sfAdminCode)
	}
	return req, nil
}

func (m appModel) updateAuthScreen(msg tea.KeyMsg) (appModel, tea.Cmd) {
	switch m.svc.Provider.Screen() {
	case auth.ScreenLogin:
		return m.updateLogin(msg)
	case auth.ScreenSignupRole:
		return m.updateRole(msg)
	case auth.ScreenSignupForm:
		return m.updateSignup(msg)
	}
	return m, nil
}

func (m appModel) updateLogin(msg tea.KeyMsg) (appModel, tea.Cmd) {
	p := m.svc.Provider
	switch {
	case key.Matches(msg, m.keys.Back):
		p.Back()
		return m, nil
	case key.Matches(msg, m.keys.Signup):
		p.OpenSignupRole()
		return m, nil
	case key.Matches(msg, m.keys.NextField), msg.Type == tea.KeyDown:
		m.login.move(1)
		return m, nil
	case key.Matches(msg, m.keys.PrevField), msg.Type == tea.KeyUp:
		m.login.move(-1)
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		return m.submitLogin()
	}
	var cmd tea.Cmd
	m.login.inputs[m.login.focus], cmd = m.login.inputs[m.login.focus].Update(msg)
	return m, cmd
}

func (m appModel) submitLogin() (appModel, tea.Cmd) {
	p := m.svc.Provider
	if p.Submitting() {
		return m, nil
	}
	email := strings.TrimSpace(m.login.inputs[0].Value())
	password := m.login.inputs[1].Value()
	if err := requireFields("email", email, "password", password); err != nil {
		m.login.err = err.Error()
		return m, nil
	}
	if !p.BeginSubmit() {
		return m, nil
	}
	m.login.err = ""
	login := m.svc.Login
	return m, tea.Batch(func() tea.Msg {
		if login == nil {
			return authResultMsg{op: "login", err: errAuthUnavailable}
		}
		token, err := login(context.Background(), email, password)
		return authResultMsg{op: "login", token: token, err: err}
	}, m.spinner.Tick)
}

func (m appModel) updateRole(msg tea.KeyMsg) (appModel, tea.Cmd) {
	p := m.svc.Provider
	switch {
	case key.Matches(msg, m.keys.Back):
		p.Back()
	case key.Matches(msg, m.keys.Left), key.Matches(msg, m.keys.Up):
		m.role.cursor = 0
	case key.Matches(msg, m.keys.Right), key.Matches(msg, m.keys.Down):
		m.role.cursor = 1
	case key.Matches(msg, m.keys.Confirm):
		p.SetSignupRole(m.role.role())
		p.OpenSignupForm()
		m.signup = newSignupForm()
		tk := m.tracker.Begin(lookupSchool, "")
		return m, tea.Batch(textinput.Blink, m.lookupFetch(tk))
	}
	return m, nil
}

func (m appModel) updateSignup(msg tea.KeyMsg) (appModel, tea.Cmd) {
	p := m.svc.Provider
	f := &m.signup
	role := p.SignupRole()
	switch {
	case key.Matches(msg, m.keys.Back):
		p.Back()
		return m, nil
	case key.Matches(msg, m.keys.NextField):
		f.move(1, role)
		return m, nil
	case key.Matches(msg, m.keys.PrevField):
		f.move(-1, role)
		return m, nil
	case msg.Type == tea.KeyUp:
		if n := f.listLen(); n > 0 {
			f.listCursor = (f.listCursor + n - 1) % n
		} else {
			f.move(-1, role)
		}
		return m, nil
	case msg.Type == tea.KeyDown:
		if n := f.listLen(); n > 0 {
			f.listCursor = (f.listCursor + 1) % n
		} else {
			f.move(1, role)
		}
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		if f.focus == sfSchool && len(f.schools) > 0 {
			return m.pickSchool(f.schools[clampInt(f.listCursor, 0, len(f.schools)-1)])
		}
		if f.focus == sfClub && len(f.clubs) > 0 {
			club := f.clubs[clampInt(f.listCursor, 0, len(f.clubs)-1)]
			f.club = &club
			f.inputs[sfClub].SetValue(club.Name)
			f.clubs = nil
			return m, nil
		}
		return m.submitSignup()
	}

	before := f.inputs[f.focus].Value()
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	after := f.inputs[f.focus].Value()
	if before == after {
		return m, cmd
	}
	switch f.focus {
	case sfSchool:
		if f.school != nil && f.school.Name != after {
			f.school = nil
			f.club = nil
			f.clubs = nil
			f.inputs[sfClub].SetValue("")
		}
		return m, tea.Batch(cmd, m.debounce(m.tracker.Begin(lookupSchool, after)))
	case sfClub:
		if f.club != nil && f.club.Name != after {
			f.club = nil
		}
		return m, tea.Batch(cmd, m.debounce(m.tracker.Begin(lookupClub, after)))
	}
	return m, cmd
}

// pickSchool selects a school, clears the club choice and loads its clubs.
// The school field keeps the school name, which also re-runs its lookup.
func (m appModel) pickSchool(s api.School) (appModel, tea.Cmd) {
	f := &m.signup
	f.school = &s
	f.club = nil
	f.clubs = nil
	f.inputs[sfSchool].SetValue(s.Name)
	f.inputs[sfClub].SetValue("")
	f.setFocus(sfClub)
	refetch := m.debounce(m.tracker.Begin(lookupSchool, s.Name))
	clubs := m.lookupFetch(m.tracker.Begin(lookupClub, ""))
	return m, tea.Batch(refetch, clubs)
}

func (m appModel) submitSignup() (appModel, tea.Cmd) {
	p := m.svc.Provider
	if p.Submitting() {
		return m, nil
	}
	req, err := m.signup.request(p.SignupRole())
	if err != nil {
		m.signup.err = err.Error()
		return m, nil
	}
	if !p.BeginSubmit() {
		return m, nil
	}
	m.signup.err = ""
	signup := m.svc.Signup
	return m, tea.Batch(func() tea.Msg {
		if signup == nil {
			return authResultMsg{op: "signup", err: errAuthUnavailable}
		}
		token, err := signup(context.Background(), req)
		return authResultMsg{op: "signup", token: token, err: err}
	}, m.spinner.Tick)
}

func (m appModel) debounce(tk lookup.Ticket) tea.Cmd {
	return tea.Tick(m.svc.Debounce, func(time.Time) tea.Msg { return lookupTickMsg{ticket: tk} })
}

// lookupFetch starts the request for tk unless a newer keystroke replaced it.
func (m appModel) lookupFetch(tk lookup.Ticket) tea.Cmd {
	if !m.tracker.IsCurrent(tk) {
		return nil
	}
	switch tk.Field {
	case lookupSchool:
		fetch := m.svc.Schools
		if fetch == nil {
			return nil
		}
		return func() tea.Msg {
			schools, err := fetch(context.Background(), tk.Keyword)
			return schoolsMsg{ticket: tk, schools: schools, err: err}
		}
	case lookupClub:
		fetch := m.svc.Clubs
		if fetch == nil || m.signup.school == nil {
			return nil
		}
		schoolID := m.signup.school.ID
		return func() tea.Msg {
			clubs, err := fetch(context.Background(), schoolID, tk.Keyword)
			return clubsMsg{ticket: tk, clubs: clubs, err: err}
		}
	}
	return nil
}

func (m appModel) applySchools(msg schoolsMsg) appModel {
	if !m.tracker.Settle(msg.ticket) {
		return m
	}
	if msg.err != nil {
		m.logger.Warn("school lookup", "keyword", msg.ticket.Keyword, "err", msg.err)
		m.signup.lookupErr = "School search failed. Keep typing to retry."
		m.signup.schools = nil
		return m
	}
	m.signup.lookupErr = ""
	m.signup.schools = msg.schools
	if m.signup.focus == sfSchool {
		m.signup.listCursor = 0
	}
	return m
}

func (m appModel) applyClubs(msg clubsMsg) appModel {
	if !m.tracker.Settle(msg.ticket) {
		return m
	}
	if msg.err != nil {
		m.logger.Warn("club lookup", "keyword", msg.ticket.Keyword, "err", msg.err)
		m.signup.lookupErr = "Club search failed. Keep typing to retry."
		m.signup.clubs = nil
		return m
	}
	m.signup.lookupErr = ""
	m.signup.clubs = msg.clubs
	if m.signup.focus == sfClub {
		m.signup.listCursor = 0
	}
	return m
}

func (m appModel) renderAuthScreen() string {
	p := m.svc.Provider
	var title string
	var lines []string
	var help string
	switch p.Screen() {
	case auth.ScreenLogin:
		title = "Log in"
		lines = m.loginLines()
		help = helpLine(m.keys.Confirm, m.keys.NextField, m.keys.Signup, m.keys.Back)
	case auth.ScreenSignupRole:
		title = "Sign up: who are you?"
		lines = m.roleLines()
		help = helpLine(m.keys.Left, m.keys.Right, m.keys.Confirm, m.keys.Back)
	default:
		title = "Sign up as " + strings.ToLower(string(p.SignupRole()))
		lines = m.signupLines()
		help = helpLine(m.keys.NextField, m.keys.Confirm, m.keys.Back)
	}

	frames := p.Frames()
	crumbs := make([]string, len(frames))
	for i, s := range frames {
		crumbs[i] = s.String()
	}
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.TextMuted))
	body := []string{
		muted.Render(strings.Join(crumbs, " › ")),
		lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Accent)).Bold(true).Render(title),
		"",
	}
	body = append(body, lines...)
	if p.Submitting() {
		body = append(body, "", m.spinner.View()+" working...")
	}
	body = append(body, "", lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.HelpText)).Render(help))

	card := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.PopupBorder)).
		Padding(1, 3).
		Width(min(max(m.width-8, 40), 72)).
		Render(strings.Join(body, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, card) + "\n"
}

func (m appModel) fieldLine(label string, in textinput.Model, focused bool) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.DetailsLabel))
	marker := "  "
	if focused {
		style = style.Foreground(lipgloss.Color(m.theme.Accent)).Bold(true)
		marker = "> "
	}
	return marker + style.Render(pad(label, 11)) + in.View()
}

func (m appModel) errorLine(msg string) []string {
	if msg == "" {
		return nil
	}
	return []string{"", lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Danger)).Render(msg)}
}

func (m appModel) loginLines() []string {
	lines := []string{
		m.fieldLine("Email", m.login.inputs[0], m.login.focus == 0),
		m.fieldLine("Password", m.login.inputs[1], m.login.focus == 1),
	}
	return append(lines, m.errorLine(m.login.err)...)
}

func (m appModel) roleLines() []string {
	options := []struct{ name, desc string }{
		{"Member", "Club member browsing and sharing props"},
		{"Admin", "Club or school administrator (needs a code)"},
	}
	lines := make([]string, 0, len(options)*2)
	for i, o := range options {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.TextPrimary))
		marker := "  "
		if i == m.role.cursor {
			style = lipgloss.NewStyle().
				Foreground(lipgloss.Color(m.theme.SelectionFg)).
				Background(lipgloss.Color(m.theme.SelectionBg))
			marker = "> "
		}
		lines = append(lines, marker+style.Render(" "+o.name+" "), "    "+o.desc)
	}
	return lines
}

func (m appModel) signupLines() []string {
	f := m.signup
	lines := []string{}
	for _, idx := range f.order(m.svc.Provider.SignupRole()) {
		lines = append(lines, m.fieldLine(signupLabels[idx], f.inputs[idx], f.focus == idx))
		switch {
		case idx == sfSchool && f.focus == sfSchool:
			names := make([]string, len(f.schools))
			for i, s := range f.schools {
				names[i] = s.Name
				if s.Region != "" {
					names[i] += " (" + s.Region + ")"
				}
			}
			lines = append(lines, m.lookupList(names, f.listCursor)...)
		case idx == sfClub && f.focus == sfClub:
			if f.school == nil {
				lines = append(lines, "             pick a school first")
				continue
			}
			names := make([]string, len(f.clubs))
			for i, c := range f.clubs {
				names[i] = c.Name
			}
			lines = append(lines, m.lookupList(names, f.listCursor)...)
		}
	}
	if f.lookupErr != "" {
		lines = append(lines, m.errorLine(f.lookupErr)...)
	}
	return append(lines, m.errorLine(f.err)...)
}

func (m appModel) lookupList(names []string, cursor int) []string {
	if len(names) == 0 {
		return []string{"             no matches"}
	}
	start := 0
	if cursor >= lookupListMax {
		start = cursor - lookupListMax + 1
	}
	end := min(start+lookupListMax, len(names))
	out := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		line := "             " + truncate(names[i], 40)
		if i == cursor {
			line = "           › " + lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Accent)).Render(truncate(names[i], 40))
		}
		out = append(out, line)
	}
	return out
}
