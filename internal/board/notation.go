package board

import (
	"errors"
	"fmt"
	"strings"
)

// FromMoves builds a board by replaying a sequence of 1-indexed column digits,
// e.g. "4453". Spaces and commas are ignored. Players alternate starting with Red.
func FromMoves(seq string) (Board, error) {
	b := New()
	n := 0
	for _, ch := range seq {
		if ch == ' ' || ch == ',' {
			continue
		}
		n++
		if ch < '1' || ch > '7' {
			return b, fmt.Errorf("move %d: invalid column %q", n, ch)
		}
		p, ok := b.NextToMove()
		if !ok {
			return b, fmt.Errorf("move %d: game already over: %w", n, ErrWrongTurn)
		}
		next, err := b.Play(int(ch-'1'), p)
		if err != nil {
			return b, fmt.Errorf("move %d: %w", n, err)
		}
		b = next
	}
	return b, nil
}

// FormatMoves is the inverse of FromMoves for 0-indexed columns.
func FormatMoves(cols []int) string {
	buf := make([]byte, len(cols))
	for i, c := range cols {
		buf[i] = byte('1' + c)
	}
	return string(buf)
}

// ParseGrid parses a grid of 'R', 'Y' and '.' characters, top row first.
// Rows are separated by newlines or '/'. Surrounding '|' characters are ignored,
// so the body of Board.String output can be parsed back.
func ParseGrid(s string) (Board, error) {
	rows := strings.FieldsFunc(s, func(r rune) bool { return r == '\n' || r == '/' })
	var cleaned []string
	for _, row := range rows {
		row = strings.TrimSpace(row)
		if row == "" || strings.HasPrefix(row, "+") || strings.HasPrefix(row, "1") {
			continue
		}
		row = strings.Trim(row, "|")
		row = strings.ReplaceAll(row, " ", "")
		cleaned = append(cleaned, row)
	}
	if len(cleaned) != Rows {
		return Board{}, fmt.Errorf("invalid grid: need %d rows, got %d", Rows, len(cleaned))
	}

	var b Board
	for i, row := range cleaned {
		if len(row) != Cols {
			return Board{}, fmt.Errorf("invalid grid: row %d has %d cells, want %d", i+1, len(row), Cols)
		}
		r := Rows - 1 - i
		for col := 0; col < Cols; col++ {
			switch row[col] {
			case 'R', 'r':
				b.tiles[r][col] = RedTile
			case 'Y', 'y':
				b.tiles[r][col] = YellowTile
			case '.':
				b.tiles[r][col] = Empty
			default:
				return Board{}, fmt.Errorf("invalid grid: unexpected %q in row %d", row[col], i+1)
			}
		}
	}

	if err := b.Validate(); err != nil {
		return Board{}, err
	}
	return b, nil
}

// Grid returns the compact form accepted by ParseGrid, e.g. ".../.../...".
func (b Board) Grid() string {
	var sb strings.Builder
	for row := Rows - 1; row >= 0; row-- {
		for col := 0; col < Cols; col++ {
			sb.WriteByte(b.tiles[row][col].Symbol())
		}
		if row > 0 {
			sb.WriteByte('/')
		}
	}
	return sb.String()
}

var errFloating = errors.New("disc above an empty cell")

// Validate checks that the board could occur in legal play:
// no floating discs and Red has the same number of discs as Yellow or one more.
func (b Board) Validate() error {
	for col := 0; col < Cols; col++ {
		for row := b.Height(col); row < Rows; row++ {
			if b.tiles[row][col] != Empty {
				return fmt.Errorf("invalid board: column %d: %w", col+1, errFloating)
			}
		}
	}
	red, yellow := b.Count(Red), b.Count(Yellow)
	if red != yellow && red != yellow+1 {
		return fmt.Errorf("invalid board: %w", &InvariantError{Red: red, Yellow: yellow})
	}
	return nil
}
