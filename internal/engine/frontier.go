package engine

import (
	"github.com/hailam/connectplay/internal/board"
)

// Frontier is the breadth-first queue of boards waiting to be visited from the
// current root. A board is queued at most once per root epoch.
type Frontier struct {
	queue []board.Board
	head  int
	seen  map[board.Board]struct{}
}

// NewFrontier creates an empty frontier.
func NewFrontier() *Frontier {
	return &Frontier{
		seen: make(map[board.Board]struct{}),
	}
}

// Push appends b unless it was already queued in this epoch.
func (f *Frontier) Push(b board.Board) bool {
	if _, ok := f.seen[b]; ok {
		return false
	}
	f.seen[b] = struct{}{}
	f.queue = append(f.queue, b)
	return true
}

// Pop removes and returns the oldest queued board.
func (f *Frontier) Pop() (board.Board, bool) {
	if f.head == len(f.queue) {
		return board.Board{}, false
	}
	b := f.queue[f.head]
	f.head++

	// Reclaim the consumed prefix once it dominates the slice.
	if f.head > 1024 && f.head*2 > len(f.queue) {
		n := copy(f.queue, f.queue[f.head:])
		f.queue = f.queue[:n]
		f.head = 0
	}
	return b, true
}

// Len returns the number of boards still queued.
func (f *Frontier) Len() int {
	return len(f.queue) - f.head
}

// Reset discards everything queued and starts a new epoch containing only root.
func (f *Frontier) Reset(root board.Board) {
	f.queue = f.queue[:0]
	f.head = 0
	clear(f.seen)
	f.Push(root)
}
