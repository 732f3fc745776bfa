package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	tests := []struct {
		moves string
		want  int
	}{
		{"", 0},
		{"4", 35},
		{"1", 15},
		{"44", -15},
		{"12", -5},
		{"34", -10},
		{"4444", -10},
		{"1213152", 105},
		{"1727374", TerminalScore},
		{"12321252", -TerminalScore},
		{drawnGame, 0},
	}

	for _, tt := range tests {
		t.Run(tt.moves, func(t *testing.T) {
			assert.Equal(t, tt.want, mustMoves(t, tt.moves).Score())
		})
	}
}

func TestScoreWindow(t *testing.T) {
	// A window holding both colours is dead for both sides.
	b := mustMoves(t, "12")
	red, yellow := b.scoreLine(lines[0])
	assert.Equal(t, 0, red)
	assert.Equal(t, 5, yellow)
}
