package tui

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type sortField int

type sortDirection int

const (
	sortFieldTitle sortField = iota
	sortFieldPrice
	sortFieldNewest
)

const (
	sortAsc sortDirection = iota
	sortDesc
)

type columnSpec struct {
	title  string
	min    int
	max    int
	weight int
}

// itemTable is the filterable, sortable listing used by the trade and
// manage tabs.
type itemTable struct {
	items    []item
	filtered []int
	cursor   int
	scroll   int
	filter   string
	category string
	status   itemStatus
	sortBy   sortField
	sortDir  sortDirection
	height   int
}

func newItemTable(items []item) itemTable {
	t := itemTable{
		items:   append([]item(nil), items...),
		sortBy:  sortFieldNewest,
		sortDir: sortDesc,
		height:  20,
	}
	t.recompute()
	return t
}

// replaceItems keeps the cursor on the same item when it survives.
func (t *itemTable) replaceItems(items []item) {
	prev, ok := t.currentItem()
	t.items = append([]item(nil), items...)
	t.recompute()
	if !ok {
		return
	}
	for i, idx := range t.filtered {
		if t.items[idx].ID == prev.ID {
			t.cursor = i
			t.ensureVisible()
			return
		}
	}
}

func (t *itemTable) setHeight(h int) {
	t.height = h
	t.ensureVisible()
}

func (t *itemTable) moveCursor(delta int) {
	if len(t.filtered) == 0 {
		return
	}
	t.cursor = clampInt(t.cursor+delta, 0, len(t.filtered)-1)
	t.ensureVisible()
}

func (t *itemTable) setFilter(s string) {
	t.filter = s
	t.recompute()
}

// cycleCategory steps through "" (all) and each category.
func (t *itemTable) cycleCategory() {
	t.category = cycleString(append([]string{""}, itemCategories...), t.category)
	t.recompute()
}

func (t *itemTable) cycleStatus() {
	opts := []string{""}
	for _, s := range itemStatuses {
		opts = append(opts, string(s))
	}
	t.status = itemStatus(cycleString(opts, string(t.status)))
	t.recompute()
}

func cycleString(opts []string, cur string) string {
	for i, o := range opts {
		if o == cur {
			return opts[(i+1)%len(opts)]
		}
	}
	return opts[0]
}

func (t *itemTable) setSortField(field sortField) {
	if t.sortBy == field {
		if t.sortDir == sortAsc {
			t.sortDir = sortDesc
		} else {
			t.sortDir = sortAsc
		}
	} else {
		t.sortBy = field
		t.sortDir = sortAsc
		if field == sortFieldNewest {
			t.sortDir = sortDesc
		}
	}
	t.recompute()
}

func (t *itemTable) currentItem() (item, bool) {
	if len(t.filtered) == 0 || t.cursor < 0 || t.cursor >= len(t.filtered) {
		return item{}, false
	}
	return t.items[t.filtered[t.cursor]], true
}

func (t *itemTable) recompute() {
	indexes := make([]int, 0, len(t.items))
	needle := strings.ToLower(strings.TrimSpace(t.filter))
	for i, it := range t.items {
		if t.category != "" && it.Category != t.category {
			continue
		}
		if t.status != "" && it.Status != t.status {
			continue
		}
		hay := strings.ToLower(strings.Join(append([]string{it.Title, it.Category, it.School, it.Location}, it.Tags...), " "))
		if needle == "" || strings.Contains(hay, needle) {
			indexes = append(indexes, i)
		}
	}
	sort.Slice(indexes, func(i, j int) bool {
		a := t.items[indexes[i]]
		b := t.items[indexes[j]]
		cmp := compareItems(a, b, t.sortBy)
		if cmp == 0 {
			return a.ID < b.ID
		}
		if t.sortDir == sortAsc {
			return cmp < 0
		}
		return cmp > 0
	})
	t.filtered = indexes
	if t.cursor >= len(t.filtered) {
		t.cursor = len(t.filtered) - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
	t.ensureVisible()
}

func compareItems(a, b item, field sortField) int {
	switch field {
	case sortFieldPrice:
		switch {
		case a.Price < b.Price:
			return -1
		case a.Price > b.Price:
			return 1
		}
		return strings.Compare(a.Title, b.Title)
	case sortFieldNewest:
		if a.CreatedAt.Equal(b.CreatedAt) {
			return strings.Compare(a.Title, b.Title)
		}
		if a.CreatedAt.Before(b.CreatedAt) {
			return -1
		}
		return 1
	default:
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	}
}

func (t *itemTable) ensureVisible() {
	if len(t.filtered) == 0 {
		t.cursor = 0
		t.scroll = 0
		return
	}
	rows := t.bodyRows()
	if t.cursor < t.scroll {
		t.scroll = t.cursor
	}
	if t.cursor >= t.scroll+rows {
		t.scroll = t.cursor - rows + 1
	}
	maxScroll := len(t.filtered) - rows
	if maxScroll < 0 {
		maxScroll = 0
	}
	t.scroll = clampInt(t.scroll, 0, maxScroll)
}

func (t itemTable) bodyRows() int {
	height := t.height
	if height <= 0 {
		height = 20
	}
	// top border, header row, header separator, bottom border
	rows := height - 4
	if rows < 3 {
		rows = 3
	}
	return rows
}

func (t itemTable) render(totalWidth int, theme UITheme) string {
	cols := []columnSpec{
		{title: "Category", min: 8, max: 14, weight: 1},
		{title: "Title", min: 14, max: 36, weight: 4},
		{title: "School", min: 10, max: 26, weight: 2},
		{title: "Price", min: 8, max: 14, weight: 1},
		{title: "Status", min: 9, max: 10, weight: 0},
	}
	widths := allocateColumnWidths(totalWidth-2, cols)
	rowLimit := t.bodyRows()
	start := t.scroll
	end := start + rowLimit
	if end > len(t.filtered) {
		end = len(t.filtered)
	}
	colors := []string{theme.ColCategory, theme.ColTitle, theme.ColSchool, theme.ColPrice, theme.ColStatus}

	lines := make([]string, 0, rowLimit+4)
	lines = append(lines, drawBorder("┌", "┬", "┐", widths))
	lines = append(lines, drawRow([]string{"Category", "Title", "School", "Price", "Status"}, widths, colors, false, theme, true))
	lines = append(lines, drawBorder("├", "┼", "┤", widths))
	for i := start; i < end; i++ {
		it := t.items[t.filtered[i]]
		lines = append(lines, drawRow([]string{
			it.Category,
			it.Title,
			it.School,
			it.priceLabel(),
			string(it.Status),
		}, widths, colors, i == t.cursor, theme, false))
	}
	if len(t.filtered) == 0 {
		lines = append(lines, drawRow([]string{"", "No results. Try another search or filter.", "", "", ""}, widths, colors, false, theme, false))
		end = start + 1
	}
	for i := end; i < start+rowLimit; i++ {
		lines = append(lines, drawRow(make([]string, len(cols)), widths, colors, false, theme, false))
	}
	lines = append(lines, drawBorder("└", "┴", "┘", widths))
	return strings.Join(lines, "\n")
}

func (t itemTable) summary() string {
	parts := []string{sortLabel(t.sortBy, t.sortDir)}
	if t.category != "" {
		parts = append(parts, "category "+t.category)
	}
	if t.status != "" {
		parts = append(parts, "status "+string(t.status))
	}
	if t.filter != "" {
		parts = append(parts, "search \""+t.filter+"\"")
	}
	return strings.Join(parts, " | ") + " | " + itoa(len(t.filtered)) + "/" + itoa(len(t.items))
}

func sortLabel(field sortField, dir sortDirection) string {
	name := "title"
	switch field {
	case sortFieldPrice:
		name = "price"
	case sortFieldNewest:
		name = "date"
	}
	direction := "asc"
	if dir == sortDesc {
		direction = "desc"
	}
	return name + " " + direction
}

func drawBorder(left, mid, right string, widths []int) string {
	parts := make([]string, 0, len(widths)+2)
	parts = append(parts, left)
	for i, w := range widths {
		parts = append(parts, strings.Repeat("─", w))
		if i != len(widths)-1 {
			parts = append(parts, mid)
		}
	}
	parts = append(parts, right)
	return strings.Join(parts, "")
}

func drawRow(values []string, widths []int, colors []string, selected bool, theme UITheme, isHeader bool) string {
	parts := make([]string, 0, len(widths)+2)
	parts = append(parts, "│")
	for i := range widths {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		cell := pad(truncate(v, widths[i]), widths[i])
		cellStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(colors[i]))
		if isHeader {
			cellStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.TableHeader)).Bold(true)
		}
		if selected {
			cellStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(theme.SelectionFg)).
				Background(lipgloss.Color(theme.SelectionBg))
		}
		parts = append(parts, cellStyle.Render(cell))
		if i != len(widths)-1 {
			parts = append(parts, "│")
		}
	}
	parts = append(parts, "│")
	return strings.Join(parts, "")
}

func allocateColumnWidths(total int, cols []columnSpec) []int {
	if total < 10 {
		total = 10
	}
	sep := len(cols) - 1
	available := total - sep
	widths := make([]int, len(cols))
	used := 0
	for i, c := range cols {
		widths[i] = c.min
		used += c.min
	}
	remaining := available - used
	for remaining > 0 {
		changed := false
		for i, c := range cols {
			if remaining == 0 {
				break
			}
			if widths[i] >= c.max || c.weight == 0 {
				continue
			}
			widths[i]++
			remaining--
			changed = true
		}
		if !changed {
			break
		}
	}
	return widths
}
