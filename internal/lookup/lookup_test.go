package lookup

import "testing"

func TestStaleResponseIsDiscarded(t *testing.T) {
	tr := NewTracker()
	first := tr.Begin("school", "Se")
	second := tr.Begin("school", "Seo")

	if !tr.Settle(second) {
		t.Fatalf("latest ticket should settle")
	}
	if tr.Settle(first) {
		t.Fatalf("superseded ticket must not settle after a newer one")
	}
}

func TestStaleResponseArrivingFirstIsDiscarded(t *testing.T) {
	tr := NewTracker()
	first := tr.Begin("school", "Se")
	second := tr.Begin("school", "Seo")

	if tr.Settle(first) {
		t.Fatalf("superseded ticket must not settle")
	}
	if !tr.Settle(second) {
		t.Fatalf("latest ticket should still settle")
	}
}

func TestFieldsAreIndependent(t *testing.T) {
	tr := NewTracker()
	school := tr.Begin("school", "Seoul")
	club := tr.Begin("club", "Drama")
	if !tr.IsCurrent(school) || !tr.IsCurrent(club) {
		t.Fatalf("tickets on different fields should not supersede each other")
	}
	if tr.Begin("club", "Film").Keyword != "Film" {
		t.Fatalf("keyword not recorded")
	}
	if !tr.Settle(school) {
		t.Fatalf("school ticket should settle")
	}
}

func TestSettleOnlyOnce(t *testing.T) {
	tr := NewTracker()
	tk := tr.Begin("school", " Seoul ")
	if tk.Keyword != "Seoul" {
		t.Fatalf("keyword = %q", tk.Keyword)
	}
	if !tr.Settle(tk) || tr.Settle(tk) {
		t.Fatalf("a ticket should settle exactly once")
	}
}
