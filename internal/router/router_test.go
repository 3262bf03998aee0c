package router

import "testing"

func TestNewUsesTabHint(t *testing.T) {
	if v := New("community"); v.Tab != TabCommunity {
		t.Fatalf("tab = %q", v.Tab)
	}
	if v := New("bogus"); v.Tab != TabHome {
		t.Fatalf("unknown hint should fall back to home, got %q", v.Tab)
	}
	if v := New(" MyPage "); v.Tab != TabMyPage {
		t.Fatalf("hint should be case-insensitive, got %q", v.Tab)
	}
}

func TestSelectTabClearsOverlayAndHeader(t *testing.T) {
	v := New("trade").
		OpenOverlay(Overlay{Kind: OverlayItemDetail, EntityID: 3}).
		SetHeaderHidden(true)
	v = v.SelectTab(TabCommunity)
	if v.Overlay.Open() || v.HeaderHidden {
		t.Fatalf("overlay/header leaked across tab switch: %+v", v)
	}
	if v.Tab != TabCommunity {
		t.Fatalf("tab = %q", v.Tab)
	}
}

func TestDetailOverlayHidesHeaderAndBackRestoresIt(t *testing.T) {
	v := New("home").Apply(
		OpenOverlayIntent{Overlay: Overlay{Kind: OverlayItemDetail, EntityID: 7}},
		HeaderIntent{Hidden: true},
	)
	if !v.HeaderHidden {
		t.Fatalf("item detail should hide the shared header")
	}
	if v.Overlay.EntityID != 7 {
		t.Fatalf("entity = %d", v.Overlay.EntityID)
	}
	v = v.CloseOverlay()
	if v.HeaderHidden || v.Overlay.Open() || v.Tab != TabHome {
		t.Fatalf("unexpected state after back: %+v", v)
	}
}

func TestAtMostOneOverlay(t *testing.T) {
	v := New("community").
		OpenOverlay(Overlay{Kind: OverlayCalendar}).
		OpenOverlay(Overlay{Kind: OverlayPerformanceDetail, EntityID: 2})
	if v.Overlay.Kind != OverlayPerformanceDetail {
		t.Fatalf("overlay = %v", v.Overlay.Kind)
	}
	v = v.SetHeaderHidden(true).OpenOverlay(Overlay{Kind: OverlayPostForm})
	if v.HeaderHidden {
		t.Fatalf("forms keep the shared header")
	}
}

func TestApplyFoldsIntents(t *testing.T) {
	v := New("home").Apply(
		SelectTabIntent{Tab: TabTrade},
		OpenOverlayIntent{Overlay: Overlay{Kind: OverlayItemDetail, EntityID: 1}},
		nil,
		CloseOverlayIntent{},
		HeaderIntent{Hidden: true},
	)
	want := ViewState{Tab: TabTrade, HeaderHidden: true}
	if v != want {
		t.Fatalf("state = %+v, want %+v", v, want)
	}
}

func TestNavHighlightFollowsForms(t *testing.T) {
	v := New("trade").OpenOverlay(Overlay{Kind: OverlayItemForm})
	if v.NavHighlight() != TabManage {
		t.Fatalf("item form should light manage, got %q", v.NavHighlight())
	}
	v = New("home").OpenOverlay(Overlay{Kind: OverlayPostForm})
	if v.NavHighlight() != TabCommunity {
		t.Fatalf("post form should light community, got %q", v.NavHighlight())
	}
	if New("mypage").NavHighlight() != TabMyPage {
		t.Fatalf("plain tab highlight broken")
	}
}

func TestRequiresAuth(t *testing.T) {
	for _, k := range []OverlayKind{OverlayItemForm, OverlayPostForm, OverlayCalendar, OverlayItemDetail, OverlayPerformanceDetail} {
		if !RequiresAuth(k) {
			t.Fatalf("%v should be gated", k)
		}
	}
	if RequiresAuth(OverlayNone) {
		t.Fatalf("none should not be gated")
	}
}
