package engine

import (
	"github.com/hailam/connectplay/internal/board"
)

// propagate pushes a changed value at b backward through its ancestors.
//
// Each predecessor already in the table is re-aggregated from its known
// children; if its value changes it is propagated in turn. Predecessors that
// were never evaluated are skipped: they will aggregate their children when
// they are evaluated themselves. Propagation never goes above the root's ply,
// since those positions can no longer arise in the live game. The root is
// re-synced whenever it or one of its children changes.
func (a *Analyzer) propagate(b board.Board) {
	resync := false
	stack := []board.Board{b}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if cur.Ply() <= a.rootPly {
			if cur == a.root {
				resync = true
			}
			continue
		}

		for _, prev := range cur.PrevBoards() {
			// A changed child can move the recommendation even when the
			// root's value stays the same.
			if prev == a.root {
				resync = true
			}
			old, ok := a.table.Lookup(prev)
			if !ok {
				continue
			}
			v, ok := a.aggregate(prev)
			if !ok || v == old {
				continue
			}
			a.table.Store(prev, v)
			propagationUpdates.Inc()
			stack = append(stack, prev)
		}
	}

	if resync {
		a.syncRoot()
	}
}

// aggregate returns the minimax value of b over its children currently in the
// table: the maximum when Red is to move, the minimum when Yellow is.
func (a *Analyzer) aggregate(b board.Board) (int, bool) {
	mover, ok := b.NextToMove()
	if !ok {
		return 0, false
	}

	best, found := 0, false
	for _, child := range b.NextBoards() {
		v, ok := a.table.Lookup(child)
		if !ok {
			continue
		}
		if !found || (mover == board.Red && v > best) || (mover == board.Yellow && v < best) {
			best, found = v, true
		}
	}
	return best, found
}
