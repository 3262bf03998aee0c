// Package lookup serializes debounced search fields so that only the answer
// for the latest keyword is applied.
package lookup

import (
	"strings"
	"time"
)

const DefaultDebounce = 300 * time.Millisecond

// Ticket identifies one keystroke's worth of lookup.
type Ticket struct {
	Field   string
	Gen     uint64
	Keyword string
}

// Tracker hands out tickets per field. A ticket is current until a newer one
// is issued for the same field.
type Tracker struct {
	gens    map[string]uint64
	settled map[string]uint64
}

func NewTracker() *Tracker {
	return &Tracker{gens: map[string]uint64{}, settled: map[string]uint64{}}
}

// Begin records a new keyword for field and supersedes earlier tickets.
func (t *Tracker) Begin(field, keyword string) Ticket {
	t.gens[field]++
	return Ticket{Field: field, Gen: t.gens[field], Keyword: strings.TrimSpace(keyword)}
}

func (t *Tracker) IsCurrent(tk Ticket) bool {
	return t.gens[tk.Field] == tk.Gen
}

// Settle reports whether a result for tk may be applied. It accepts each
// current ticket once; stale or repeated tickets are refused.
func (t *Tracker) Settle(tk Ticket) bool {
	if !t.IsCurrent(tk) || t.settled[tk.Field] >= tk.Gen {
		return false
	}
	t.settled[tk.Field] = tk.Gen
	return true
}
