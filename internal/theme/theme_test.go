package theme

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"replay/internal/config"
)

func TestPaletteHexValidate(t *testing.T) {
	p := DefaultPaletteHex()
	if p.Accent != "#10b981" || p.NavActive != "#10b981" {
		t.Fatalf("default accent should be emerald")
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("expected valid default palette: %v", err)
	}
	p.Danger = "red"
	err := p.Validate()
	if err == nil || !strings.Contains(err.Error(), "danger") {
		t.Fatalf("expected invalid hex error naming the field, got %v", err)
	}
}

func TestResolveForTerminal(t *testing.T) {
	p := DefaultPaletteHex()
	resolvedTrue := ResolveForTerminal(p, true)
	if resolvedTrue.Danger != string(p.Danger) || resolvedTrue.DetailsValue != string(p.DetailsValue) {
		t.Fatalf("expected truecolor to keep hex")
	}
	resolved256 := ResolveForTerminal(p, false)
	if resolved256.Danger == "" || resolved256.Danger[0] == '#' {
		t.Fatalf("expected numeric terminal color for 256 fallback, got %q", resolved256.Danger)
	}
	v := reflect.ValueOf(resolved256)
	for i := 0; i < v.NumField(); i++ {
		if v.Field(i).String() == "" {
			t.Fatalf("field %s did not resolve", v.Type().Field(i).Name)
		}
	}
}

func TestResolveHexPureColors(t *testing.T) {
	if got := resolveHex("#000000", false); got != "0" && got != "16" {
		t.Fatalf("black mapped to %s", got)
	}
	if got := resolveHex("#ffffff", false); got != "15" && got != "231" {
		t.Fatalf("white mapped to %s", got)
	}
	if got := resolveHex("nope", true); got != fallbackColor {
		t.Fatalf("invalid hex should fall back, got %s", got)
	}
}

func TestParseThemeFileFillsMissingColors(t *testing.T) {
	raw := []byte(`{"id":"partial","name":"Partial","colors":{"accent":"#89b4fa","danger":"#f38ba8"}}`)
	tf, err := ParseThemeFile(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tf.Version != 1 {
		t.Fatalf("version = %d", tf.Version)
	}
	if tf.Colors.Accent != "#89b4fa" {
		t.Fatalf("accent not applied")
	}
	if tf.Colors.Tag != DefaultPaletteHex().Tag {
		t.Fatalf("missing color should come from the default palette")
	}
}

func TestParseThemeFileRequiresID(t *testing.T) {
	if _, err := ParseThemeFile([]byte(`{"name":"x"}`)); err == nil {
		t.Fatalf("expected missing id error")
	}
	if _, err := ParseThemeFile([]byte(`{"id":"x","colors":{"accent":"green"}}`)); err == nil {
		t.Fatalf("expected invalid color error")
	}
}

func TestLoadActivePaletteHex(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := config.Default()
	cfg.Theme.Active = "curtain"
	p, id, err := LoadActivePaletteHex(cfg)
	if err != nil || id != "curtain" || p.Accent != "#e11d48" {
		t.Fatalf("builtin load = %q %q %v", id, p.Accent, err)
	}

	local := ThemeFile{ID: "night", Name: "Night", Version: 1, Colors: DefaultPaletteHex()}
	local.Colors.Accent = "#123456"
	if err := SaveThemeFile(local); err != nil {
		t.Fatalf("save: %v", err)
	}
	cfg.Theme.Active = "night"
	p, id, err = LoadActivePaletteHex(cfg)
	if err != nil || id != "night" || p.Accent != "#123456" {
		t.Fatalf("local load = %q %q %v", id, p.Accent, err)
	}

	cfg.Theme.Active = "missing"
	p, id, err = LoadActivePaletteHex(cfg)
	if err == nil || id != "default" || p != DefaultPaletteHex() {
		t.Fatalf("missing theme should fall back to default with an error")
	}
}

func TestLoadRejectsMismatchedID(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir, err := config.ThemesDir()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.json"), []byte(`{"id":"b"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Exists("a"); err == nil || !strings.Contains(err.Error(), "mismatch") {
		t.Fatalf("expected id mismatch, got %v", err)
	}
}

func TestListThemeIDs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	ids, err := ListThemeIDs()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"default", "curtain"}) {
		t.Fatalf("ids = %v", ids)
	}
	for _, id := range []string{"zeta", "alpha"} {
		if err := SaveThemeFile(ThemeFile{ID: id, Colors: DefaultPaletteHex()}); err != nil {
			t.Fatal(err)
		}
	}
	ids, err = ListThemeIDs()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"default", "curtain", "alpha", "zeta"}) {
		t.Fatalf("ids = %v", ids)
	}
}
