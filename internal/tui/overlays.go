package tui

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"replay/internal/router"
)

const (
	ifTitle = iota
	ifCategory
	ifPrice
	ifRental
	ifLocation
	ifDescription
	ifCount
)

var itemFormLabels = [ifCount]string{"Title", "Category", "Price", "Type", "Location", "Details"}

type itemFormState struct {
	inputs   []textinput.Model
	focus    int
	category int
	rental   bool
	err      string
}

func newItemForm() itemFormState {
	inputs := make([]textinput.Model, ifCount)
	// Category and Type are choice fields; their inputs only carry focus.
	for i := range inputs {
		inputs[i] = newInput("", 0)
	}
	inputs[ifTitle] = newInput("what are you sharing?", 64)
	inputs[ifPrice] = newInput("0 for free", 9)
	inputs[ifLocation] = newInput("pickup area", 48)
	inputs[ifDescription] = newInput("condition, size, pickup notes", 400)
	f := itemFormState{inputs: inputs}
	focusInputs(f.inputs, ifTitle)
	return f
}

func (f itemFormState) values() (title, price, location string) {
	return strings.TrimSpace(f.inputs[ifTitle].Value()),
		strings.TrimSpace(f.inputs[ifPrice].Value()),
		strings.TrimSpace(f.inputs[ifLocation].Value())
}

func (f itemFormState) ready() bool {
	title, price, location := f.values()
	return requireFields("title", title, "price", price, "location", location) == nil
}

type postFormState struct {
	board  board
	inputs []textinput.Model
	focus  int
	err    string
}

func newPostForm(b board) postFormState {
	if b == "" {
		b = boardGeneral
	}
	f := postFormState{
		board:  b,
		inputs: []textinput.Model{newInput("title", 80), newInput("what do you want to say?", 400)},
	}
	focusInputs(f.inputs, 0)
	return f
}

func (f postFormState) ready() bool {
	return requireFields("title", f.inputs[0].Value(), "body", f.inputs[1].Value()) == nil
}

type calendarState struct {
	month  time.Time
	city   string
	cursor int
}

// newCalendar opens on the month of the next performance, or the last one
// when everything is in the past.
func newCalendar(c *catalog, now time.Time) calendarState {
	month := now
	var next, last time.Time
	for _, p := range c.performances {
		end := p.End
		if end.IsZero() {
			end = p.Start
		}
		if !end.Before(now) && (next.IsZero() || p.Start.Before(next)) {
			next = p.Start
		}
		if p.Start.After(last) {
			last = p.Start
		}
	}
	switch {
	case !next.IsZero():
		month = next
	case !last.IsZero():
		month = last
	}
	return calendarState{month: time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)}
}

func (c calendarState) visible(cat *catalog) []performance {
	out := []performance{}
	for _, p := range cat.performancesIn(c.city) {
		end := p.End
		if end.IsZero() {
			end = p.Start
		}
		monthEnd := c.month.AddDate(0, 1, -1)
		if !p.Start.After(monthEnd) && !end.Before(c.month) {
			out = append(out, p)
		}
	}
	return out
}

const detailDays = 14

type itemDetailState struct {
	itemID int64
	from   time.Time
	cursor int
	picked map[int]bool
}

func newItemDetail(id int64, now time.Time) itemDetailState {
	return itemDetailState{
		itemID: id,
		from:   time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		picked: map[int]bool{},
	}
}

// reserved marks days already booked by someone else. The pattern is fixed
// per item so it stays stable between renders.
func (d itemDetailState) reserved(offset int) bool {
	return (int64(offset)+d.itemID)%4 == 0
}

func (d itemDetailState) pickedCount() int {
	n := 0
	for _, ok := range d.picked {
		if ok {
			n++
		}
	}
	return n
}

func (m appModel) updateOverlay(msg tea.KeyMsg) (appModel, tea.Cmd) {
	switch m.view.Overlay.Kind {
	case router.OverlayItemForm:
		return m.updateItemForm(msg)
	case router.OverlayPostForm:
		return m.updatePostForm(msg)
	case router.OverlayCalendar:
		return m.updateCalendar(msg)
	case router.OverlayItemDetail:
		return m.updateItemDetail(msg)
	case router.OverlayPerformanceDetail:
		if key.Matches(msg, m.keys.Back) {
			m.navigate(router.OpenOverlayIntent{Overlay: router.Overlay{Kind: router.OverlayCalendar}})
		}
	}
	return m, nil
}

func (m appModel) updateItemForm(msg tea.KeyMsg) (appModel, tea.Cmd) {
	f := &m.itemForm
	switch {
	case key.Matches(msg, m.keys.Back):
		m.navigate(router.CloseOverlayIntent{})
		return m, nil
	case key.Matches(msg, m.keys.NextField), msg.Type == tea.KeyDown:
		f.focus = (f.focus + 1) % ifCount
		focusInputs(f.inputs, f.focus)
		return m, nil
	case key.Matches(msg, m.keys.PrevField), msg.Type == tea.KeyUp:
		f.focus = (f.focus + ifCount - 1) % ifCount
		focusInputs(f.inputs, f.focus)
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		return m.submitItemForm()
	}
	switch f.focus {
	case ifCategory:
		switch msg.Type {
		case tea.KeyLeft:
			f.category = (f.category + len(itemCategories) - 1) % len(itemCategories)
		case tea.KeyRight, tea.KeySpace:
			f.category = (f.category + 1) % len(itemCategories)
		}
		return m, nil
	case ifRental:
		switch msg.Type {
		case tea.KeyLeft, tea.KeyRight, tea.KeySpace:
			f.rental = !f.rental
		}
		return m, nil
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return m, cmd
}

func (m appModel) submitItemForm() (appModel, tea.Cmd) {
	f := &m.itemForm
	title, price, location := f.values()
	if err := requireFields("title", title, "price", price, "location", location); err != nil {
		f.err = err.Error()
		return m, nil
	}
	n, err := strconv.Atoi(price)
	if err != nil || n < 0 {
		f.err = "price must be a whole number"
		return m, nil
	}
	m.cat.addItem(item{
		Title:       title,
		Category:    itemCategories[f.category],
		School:      "my club",
		Location:    location,
		Price:       n,
		Rental:      f.rental,
		Status:      statusAvailable,
		Mine:        true,
		Description: strings.TrimSpace(f.inputs[ifDescription].Value()),
	})
	m.trade.table.replaceItems(m.cat.items)
	m.manage = manageState{}
	m.navigate(router.SelectTabIntent{Tab: router.TabManage})
	return m, m.setFlash("Item registered")
}

func (m appModel) updatePostForm(msg tea.KeyMsg) (appModel, tea.Cmd) {
	f := &m.postForm
	switch {
	case key.Matches(msg, m.keys.Back):
		m.navigate(router.CloseOverlayIntent{})
		return m, nil
	case key.Matches(msg, m.keys.NextField), key.Matches(msg, m.keys.PrevField):
		f.focus = 1 - f.focus
		focusInputs(f.inputs, f.focus)
		return m, nil
	case msg.Type == tea.KeyCtrlB:
		if f.board == boardGeneral {
			f.board = boardRequest
		} else {
			f.board = boardGeneral
		}
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		title := strings.TrimSpace(f.inputs[0].Value())
		body := strings.TrimSpace(f.inputs[1].Value())
		if err := requireFields("title", title, "body", body); err != nil {
			f.err = err.Error()
			return m, nil
		}
		m.cat.addPost(post{Board: f.board, Title: title, Body: body, Author: "me", Mine: true})
		m.community = communityState{board: f.board}
		m.navigate(router.SelectTabIntent{Tab: router.TabCommunity})
		return m, m.setFlash("Post published")
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return m, cmd
}

func (m appModel) updateCalendar(msg tea.KeyMsg) (appModel, tea.Cmd) {
	c := &m.calendar
	shown := c.visible(m.cat)
	switch {
	case key.Matches(msg, m.keys.Back):
		m.navigate(router.CloseOverlayIntent{})
	case key.Matches(msg, m.keys.Left):
		c.month = c.month.AddDate(0, -1, 0)
		c.cursor = 0
	case key.Matches(msg, m.keys.Right):
		c.month = c.month.AddDate(0, 1, 0)
		c.cursor = 0
	case key.Matches(msg, m.keys.Up):
		c.cursor = clampInt(c.cursor-1, 0, max(len(shown)-1, 0))
	case key.Matches(msg, m.keys.Down):
		c.cursor = clampInt(c.cursor+1, 0, max(len(shown)-1, 0))
	case key.Matches(msg, m.keys.Cycle):
		c.city = cycleString(append([]string{""}, cityOptions...), c.city)
		c.cursor = 0
	case key.Matches(msg, m.keys.Confirm):
		if c.cursor < len(shown) {
			m.navigate(router.OpenOverlayIntent{Overlay: router.Overlay{
				Kind:     router.OverlayPerformanceDetail,
				EntityID: shown[c.cursor].ID,
			}})
		}
	}
	return m, nil
}

func (m appModel) updateItemDetail(msg tea.KeyMsg) (appModel, tea.Cmd) {
	d := &m.detail
	it, ok := m.cat.item(d.itemID)
	if key.Matches(msg, m.keys.Back) || !ok {
		m.navigate(router.CloseOverlayIntent{})
		return m, nil
	}
	available := it.Status == statusAvailable
	switch {
	case key.Matches(msg, m.keys.Left):
		d.cursor = clampInt(d.cursor-1, 0, detailDays-1)
	case key.Matches(msg, m.keys.Right):
		d.cursor = clampInt(d.cursor+1, 0, detailDays-1)
	case key.Matches(msg, m.keys.Mark):
		if !it.Rental {
			return m, nil
		}
		if d.reserved(d.cursor) {
			return m, m.setFlash("That day is already reserved")
		}
		d.picked[d.cursor] = !d.picked[d.cursor]
	case key.Matches(msg, m.keys.Rent):
		switch {
		case !it.Rental:
			return m, m.setFlash("This item is for sale only")
		case !available:
			return m, m.setFlash("This item is not available right now")
		case d.pickedCount() == 0:
			return m, m.setFlash("Pick at least one day first")
		}
		n := d.pickedCount()
		d.picked = map[int]bool{}
		return m, m.setFlash("Rental request sent for " + strconv.Itoa(n) + " day(s)")
	case key.Matches(msg, m.keys.Trade):
		if it.Rental {
			return m, m.setFlash("This item is rental only")
		}
		if !available {
			return m, m.setFlash("This item is not available right now")
		}
		return m, m.setFlash("Purchase request sent to " + it.School)
	}
	return m, nil
}
