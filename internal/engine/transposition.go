package engine

import (
	"github.com/hailam/connectplay/internal/board"
)

// TranspositionTable maps every board the analyzer has evaluated to its current value.
// Entries are only added or updated, never evicted, for the lifetime of a session.
//
// The table is owned by a single Analyzer goroutine and is not safe for concurrent use.
type TranspositionTable struct {
	entries map[board.Board]int

	// Statistics
	hits   uint64
	probes uint64
}

// NewTranspositionTable creates an empty table with room for sizeHint entries.
func NewTranspositionTable(sizeHint int) *TranspositionTable {
	return &TranspositionTable{
		entries: make(map[board.Board]int, sizeHint),
	}
}

// Probe looks up a board and records the probe in the hit statistics.
func (tt *TranspositionTable) Probe(b board.Board) (int, bool) {
	tt.probes++
	v, ok := tt.entries[b]
	if ok {
		tt.hits++
	}
	return v, ok
}

// Lookup returns the stored value for b without touching the statistics.
func (tt *TranspositionTable) Lookup(b board.Board) (int, bool) {
	v, ok := tt.entries[b]
	return v, ok
}

// Store inserts or overwrites the value for b.
func (tt *TranspositionTable) Store(b board.Board, value int) {
	tt.entries[b] = value
}

// Len returns the number of evaluated boards.
func (tt *TranspositionTable) Len() int {
	return len(tt.entries)
}

// HitRate returns the probe hit rate as a percentage.
func (tt *TranspositionTable) HitRate() float64 {
	if tt.probes == 0 {
		return 0
	}
	return float64(tt.hits) / float64(tt.probes) * 100
}
