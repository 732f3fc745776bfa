// Package board implements the rules of the 7x6 gravity-drop connect-four game.
//
// A Board is an immutable value: every operation that "changes" it returns a
// new Board. Two boards with the same grid compare equal with == regardless of
// the move order that produced them, so a Board can be used directly as a map key.
package board

import "strings"

// Board geometry.
const (
	Rows      = 6
	Cols      = 7
	Cells     = Rows * Cols
	WinLength = 4
)

// Board is a grid snapshot. Row 0 is the bottom row.
type Board struct {
	tiles [Rows][Cols]Tile
}

// line is a directed run of cells across the grid, starting at (row, col).
type line struct {
	row, col   int
	dRow, dCol int
}

// lines covers every run of WinLength or more cells exactly once:
// 6 rows, 7 columns, and 6 diagonals in each direction.
var lines = [25]line{
	{0, 0, 0, 1}, {1, 0, 0, 1}, {2, 0, 0, 1}, {3, 0, 0, 1}, {4, 0, 0, 1}, {5, 0, 0, 1},
	{0, 0, 1, 0}, {0, 1, 1, 0}, {0, 2, 1, 0}, {0, 3, 1, 0}, {0, 4, 1, 0}, {0, 5, 1, 0}, {0, 6, 1, 0},
	{3, 0, -1, 1}, {4, 0, -1, 1}, {5, 0, -1, 1}, {5, 1, -1, 1}, {5, 2, -1, 1}, {5, 3, -1, 1},
	{3, 6, -1, -1}, {4, 6, -1, -1}, {5, 6, -1, -1}, {5, 5, -1, -1}, {5, 4, -1, -1}, {5, 3, -1, -1},
}

// New returns the empty board.
func New() Board {
	return Board{}
}

func inBounds(row, col int) bool {
	return row >= 0 && col >= 0 && row < Rows && col < Cols
}

// At returns the tile at the given cell. Out-of-range cells read as Empty.
func (b Board) At(row, col int) Tile {
	if !inBounds(row, col) {
		return Empty
	}
	return b.tiles[row][col]
}

// Height returns the number of discs in a column.
func (b Board) Height(col int) int {
	h := 0
	for h < Rows && b.tiles[h][col] != Empty {
		h++
	}
	return h
}

// Count returns the number of discs owned by p.
func (b Board) Count(p Player) int {
	t := TileOf(p)
	n := 0
	for row := 0; row < Rows; row++ {
		for col := 0; col < Cols; col++ {
			if b.tiles[row][col] == t {
				n++
			}
		}
	}
	return n
}

// Ply returns the number of discs on the board.
func (b Board) Ply() int {
	n := 0
	for row := 0; row < Rows; row++ {
		for col := 0; col < Cols; col++ {
			if b.tiles[row][col] != Empty {
				n++
			}
		}
	}
	return n
}

// IsFull returns true if every cell is occupied.
func (b Board) IsFull() bool {
	for col := 0; col < Cols; col++ {
		if b.tiles[Rows-1][col] == Empty {
			return false
		}
	}
	return true
}

// Play drops a disc for player p into col and returns the resulting board.
func (b Board) Play(col int, p Player) (Board, error) {
	if next, ok := b.NextToMove(); !ok || next != p {
		return b, &MoveRejectedError{Reason: WrongTurn, Column: col, Player: p}
	}
	if col < 0 || col >= Cols {
		return b, &MoveRejectedError{Reason: ColumnOutOfRange, Column: col, Player: p}
	}
	row := b.Height(col)
	if row >= Rows {
		return b, &MoveRejectedError{Reason: ColumnFull, Column: col, Player: p}
	}

	next := b
	next.tiles[row][col] = TileOf(p)
	return next, nil
}

func (b Board) winnerOnLine(l line) (Player, bool) {
	red, yellow := 0, 0
	for row, col := l.row, l.col; inBounds(row, col); row, col = row+l.dRow, col+l.dCol {
		switch b.tiles[row][col] {
		case Empty:
			red, yellow = 0, 0
		case RedTile:
			red, yellow = red+1, 0
			if red == WinLength {
				return Red, true
			}
		case YellowTile:
			red, yellow = 0, yellow+1
			if yellow == WinLength {
				return Yellow, true
			}
		}
	}
	return NoPlayer, false
}

// Winner returns the player with four in a row, if any.
func (b Board) Winner() (Player, bool) {
	for _, l := range lines {
		if p, ok := b.winnerOnLine(l); ok {
			return p, true
		}
	}
	return NoPlayer, false
}

// NextToMove returns the side to move, or false if the game is decided or drawn.
// It panics with *InvariantError when the piece counts are impossible.
func (b Board) NextToMove() (Player, bool) {
	if _, won := b.Winner(); won {
		return NoPlayer, false
	}

	red, yellow := b.Count(Red), b.Count(Yellow)
	switch {
	case red+yellow == Cells:
		return NoPlayer, false
	case red == yellow:
		return Red, true
	case red == yellow+1:
		return Yellow, true
	}
	panic(&InvariantError{Red: red, Yellow: yellow})
}

// lastMover returns the player who dropped the most recent disc.
func (b Board) lastMover() (Player, bool) {
	red, yellow := b.Count(Red), b.Count(Yellow)
	switch {
	case red == 0 && yellow == 0:
		return NoPlayer, false
	case red == yellow:
		return Yellow, true
	case red == yellow+1:
		return Red, true
	}
	panic(&InvariantError{Red: red, Yellow: yellow})
}

// NextBoards returns every board reachable in one legal move, in column order.
// It is empty once the game is over.
func (b Board) NextBoards() []Board {
	p, ok := b.NextToMove()
	if !ok {
		return nil
	}

	boards := make([]Board, 0, Cols)
	for col := 0; col < Cols; col++ {
		if next, err := b.Play(col, p); err == nil {
			boards = append(boards, next)
		}
	}
	return boards
}

// PrevBoards returns every board from which b is reachable in one legal move.
func (b Board) PrevBoards() []Board {
	mover, ok := b.lastMover()
	if !ok {
		return nil
	}

	var boards []Board
	for col := 0; col < Cols; col++ {
		h := b.Height(col)
		if h == 0 || b.tiles[h-1][col] != TileOf(mover) {
			continue
		}
		prev := b
		prev.tiles[h-1][col] = Empty

		// A predecessor that was already decided could not have been played on.
		if next, err := prev.Play(col, mover); err == nil && next == b {
			boards = append(boards, prev)
		}
	}
	return boards
}

// Mirror returns the board reflected left to right.
func (b Board) Mirror() Board {
	var m Board
	for row := 0; row < Rows; row++ {
		for col := 0; col < Cols; col++ {
			m.tiles[row][Cols-1-col] = b.tiles[row][col]
		}
	}
	return m
}

const frame = "+ -  -  -  -  -  -  - +\n"

// String renders the board as a framed grid with user-facing column labels 1-7.
func (b Board) String() string {
	var sb strings.Builder
	sb.WriteString(frame)
	for row := Rows - 1; row >= 0; row-- {
		sb.WriteByte('|')
		for col := 0; col < Cols; col++ {
			sb.WriteByte(' ')
			sb.WriteByte(b.tiles[row][col].Symbol())
			sb.WriteByte(' ')
		}
		sb.WriteString("|\n")
	}
	sb.WriteString(frame)
	sb.WriteString("  1  2  3  4  5  6  7  ")
	return sb.String()
}
