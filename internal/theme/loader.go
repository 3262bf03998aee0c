package theme

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"replay/internal/config"
)

// LoadActivePaletteHex returns the configured palette. Any failure falls back
// to the default palette and reports why.
func LoadActivePaletteHex(cfg config.Config) (PaletteHex, string, error) {
	active := cfg.Theme.Active
	if active == "" {
		active = "default"
	}
	if t, ok := Builtin(active); ok {
		return t.Colors, t.ID, nil
	}
	t, err := loadLocal(active)
	if err != nil {
		return DefaultPaletteHex(), "default", err
	}
	return t.Colors, t.ID, nil
}

func loadLocal(id string) (ThemeFile, error) {
	themesDir, err := config.ThemesDir()
	if err != nil {
		return ThemeFile{}, err
	}
	b, err := os.ReadFile(filepath.Join(themesDir, id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return ThemeFile{}, fmt.Errorf("theme not installed: %s", id)
		}
		return ThemeFile{}, err
	}
	t, err := ParseThemeFile(b)
	if err != nil {
		return ThemeFile{}, err
	}
	if t.ID != id {
		return ThemeFile{}, fmt.Errorf("theme id mismatch: expected %q got %q", id, t.ID)
	}
	return t, nil
}

// Exists reports whether id names a builtin or a valid local theme.
func Exists(id string) error {
	if _, ok := Builtin(id); ok {
		return nil
	}
	_, err := loadLocal(id)
	return err
}

func SaveThemeFile(theme ThemeFile) error {
	if err := theme.Colors.Validate(); err != nil {
		return err
	}
	themesDir, err := config.ThemesDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(themesDir, 0o755); err != nil {
		return err
	}
	out, err := json.MarshalIndent(theme, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(themesDir, theme.ID+".json"), out, 0o644)
}

// ListThemeIDs returns builtin ids followed by local ones.
func ListThemeIDs() ([]string, error) {
	ids := []string{}
	for _, t := range Builtins() {
		ids = append(ids, t.ID)
	}
	themesDir, err := config.ThemesDir()
	if err != nil {
		return nil, err
	}
	ents, err := os.ReadDir(themesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return ids, nil
		}
		return nil, err
	}
	local := make([]string, 0, len(ents))
	for _, ent := range ents {
		if ent.IsDir() || filepath.Ext(ent.Name()) != ".json" {
			continue
		}
		id := ent.Name()[:len(ent.Name())-5]
		if _, ok := Builtin(id); ok {
			continue
		}
		local = append(local, id)
	}
	sort.Strings(local)
	return append(ids, local...), nil
}
