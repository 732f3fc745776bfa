package board

// TerminalScore is the value of a won position, from Red's point of view.
// It dominates any heuristic score.
const TerminalScore = 1_000_000_000

// windowWeights scores a 4-cell window by the number of friendly discs in it,
// provided it holds no opposing disc.
var windowWeights = [WinLength + 1]int{0, 5, 50, 500, 0}

// Score returns the static evaluation of the board.
// Positive is good for Red, negative for Yellow.
func (b Board) Score() int {
	if p, won := b.Winner(); won {
		if p == Red {
			return TerminalScore
		}
		return -TerminalScore
	}
	if b.IsFull() {
		return 0
	}

	score := 0
	for _, l := range lines {
		red, yellow := b.scoreLine(l)
		score += red - yellow
	}
	return score
}

// scoreLine slides a WinLength window along l and sums each side's window scores.
func (b Board) scoreLine(l line) (red, yellow int) {
	var cells [max(Rows, Cols)]Tile
	n := 0
	for row, col := l.row, l.col; inBounds(row, col); row, col = row+l.dRow, col+l.dCol {
		cells[n] = b.tiles[row][col]
		n++
	}

	for start := 0; start+WinLength <= n; start++ {
		r, y := 0, 0
		for _, t := range cells[start : start+WinLength] {
			switch t {
			case RedTile:
				r++
			case YellowTile:
				y++
			}
		}
		switch {
		case y == 0:
			red += windowWeights[r]
		case r == 0:
			yellow += windowWeights[y]
		}
	}
	return red, yellow
}
