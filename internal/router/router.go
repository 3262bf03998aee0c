// Package router holds the shell's view state: the active tab, the single
// overlay screen and whether the shared header is hidden.
//
// ViewState is a value; every transition returns the next state. Leaf screens
// never mutate it directly and instead emit an Intent for the shell to Apply.
package router

import (
	"fmt"
	"strings"
)

type Tab string

const (
	TabHome      Tab = "home"
	TabTrade     Tab = "trade"
	TabManage    Tab = "manage"
	TabCommunity Tab = "community"
	TabMyPage    Tab = "mypage"
)

// Tabs is the bottom navigation order.
var Tabs = []Tab{TabHome, TabTrade, TabManage, TabCommunity, TabMyPage}

func (t Tab) Title() string {
	switch t {
	case TabTrade:
		return "Trade"
	case TabManage:
		return "Manage"
	case TabCommunity:
		return "Community"
	case TabMyPage:
		return "My page"
	default:
		return "Replay"
	}
}

func ParseTab(s string) (Tab, error) {
	t := Tab(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Tabs {
		if t == known {
			return t, nil
		}
	}
	return TabHome, fmt.Errorf("unknown tab %q", s)
}

type OverlayKind int

const (
	OverlayNone OverlayKind = iota
	OverlayItemForm
	OverlayPostForm
	OverlayCalendar
	OverlayItemDetail
	OverlayPerformanceDetail
)

func (k OverlayKind) String() string {
	switch k {
	case OverlayItemForm:
		return "item-form"
	case OverlayPostForm:
		return "post-form"
	case OverlayCalendar:
		return "calendar"
	case OverlayItemDetail:
		return "item-detail"
	case OverlayPerformanceDetail:
		return "performance-detail"
	default:
		return "none"
	}
}

// RequiresAuth lists the overlays that are opened through the login gate.
func RequiresAuth(k OverlayKind) bool {
	switch k {
	case OverlayItemForm, OverlayPostForm, OverlayCalendar, OverlayItemDetail, OverlayPerformanceDetail:
		return true
	}
	return false
}

// Overlay is the secondary screen drawn in place of the tab content.
// EntityID is set for the detail overlays.
type Overlay struct {
	Kind     OverlayKind
	EntityID int64
}

func (o Overlay) Open() bool { return o.Kind != OverlayNone }

type ViewState struct {
	Tab          Tab
	Overlay      Overlay
	HeaderHidden bool
}

// New seeds the state from an initial tab hint; unknown hints fall back to home.
func New(hint string) ViewState {
	tab, err := ParseTab(hint)
	if err != nil {
		tab = TabHome
	}
	return ViewState{Tab: tab}
}

// SelectTab switches tabs and drops any overlay and header override.
func (v ViewState) SelectTab(t Tab) ViewState {
	return ViewState{Tab: t}
}

// OpenOverlay replaces the current overlay and shows the shared header again.
// Screens that draw their own header hide it with a HeaderIntent.
func (v ViewState) OpenOverlay(o Overlay) ViewState {
	v.Overlay = o
	v.HeaderHidden = false
	return v
}

func (v ViewState) CloseOverlay() ViewState {
	v.Overlay = Overlay{}
	v.HeaderHidden = false
	return v
}

func (v ViewState) SetHeaderHidden(hidden bool) ViewState {
	v.HeaderHidden = hidden
	return v
}

// NavHighlight is the tab lit in the bottom navigation. Forms highlight the
// tab they belong to.
func (v ViewState) NavHighlight() Tab {
	switch v.Overlay.Kind {
	case OverlayItemForm:
		return TabManage
	case OverlayPostForm:
		return TabCommunity
	}
	return v.Tab
}

// Title is the shared header text.
func (v ViewState) Title() string {
	switch v.Overlay.Kind {
	case OverlayItemForm:
		return "New item"
	case OverlayPostForm:
		return "Write post"
	case OverlayCalendar:
		return "Performance calendar"
	}
	return v.Tab.Title()
}
