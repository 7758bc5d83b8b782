package telemetry

import (
	"sync"

	"github.com/mantradev/mantra/internal/store"
)

// Mirror is a bounded in-memory view of recent resolutions, kept beside
// the database so dashboards can read hot data without a query.
type Mirror interface {
	Add(rec store.ResolutionRecord)
	Recent(n int) []store.ResolutionRecord
	Len() int
}

// RingMirror keeps the most recent records up to a fixed capacity,
// evicting oldest first.
type RingMirror struct {
	mu   sync.Mutex
	max  int
	recs []store.ResolutionRecord
}

// NewRingMirror creates a mirror holding at most max records.
func NewRingMirror(max int) *RingMirror {
	if max <= 0 {
		max = 256
	}
	return &RingMirror{max: max}
}

func (m *RingMirror) Add(rec store.ResolutionRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, rec)
	if len(m.recs) > m.max {
		m.recs = m.recs[len(m.recs)-m.max:]
	}
}

// Recent returns up to n records, newest first. n <= 0 means all held.
func (m *RingMirror) Recent(n int) []store.ResolutionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n <= 0 || n > len(m.recs) {
		n = len(m.recs)
	}
	out := make([]store.ResolutionRecord, n)
	for i := 0; i < n; i++ {
		out[i] = m.recs[len(m.recs)-1-i]
	}
	return out
}

func (m *RingMirror) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.recs)
}

// NopMirror discards everything. Used in tests and when the mirror is
// disabled.
type NopMirror struct{}

func (NopMirror) Add(store.ResolutionRecord)          {}
func (NopMirror) Recent(int) []store.ResolutionRecord { return nil }
func (NopMirror) Len() int                            { return 0 }
