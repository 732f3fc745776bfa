package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromMoves(t *testing.T) {
	b, err := FromMoves("4 4, 5 3")
	require.NoError(t, err)
	assert.Equal(t, mustMoves(t, "4453"), b)
	assert.Equal(t, 4, b.Ply())

	_, err = FromMoves("48")
	assert.ErrorContains(t, err, "move 2")

	_, err = FromMoves("17273747")
	assert.ErrorIs(t, err, ErrWrongTurn)
}

func TestFormatMoves(t *testing.T) {
	assert.Equal(t, "", FormatMoves(nil))
	assert.Equal(t, "4453", FormatMoves([]int{3, 3, 4, 2}))

	b, err := FromMoves(FormatMoves([]int{0, 6, 0, 6}))
	require.NoError(t, err)
	assert.Equal(t, mustMoves(t, "1717"), b)
}

func TestParseGrid(t *testing.T) {
	want := mustMoves(t, drawnGame)

	b, err := ParseGrid("YRYRRYR/RRRYYYR/YYYRRRY/RRRYYYR/RYYYRRY/RRYYRYY")
	require.NoError(t, err)
	assert.Equal(t, want, b)
	assert.Equal(t, "YRYRRYR/RRRYYYR/YYYRRRY/RRRYYYR/RYYYRRY/RRYYRYY", want.Grid())

	t.Run("RoundTripsDisplay", func(t *testing.T) {
		b := mustMoves(t, "44536")
		parsed, err := ParseGrid(b.String())
		require.NoError(t, err)
		assert.Equal(t, b, parsed)
	})

	t.Run("Errors", func(t *testing.T) {
		bad := map[string]string{
			"TooFewRows":  "......./.......",
			"ShortRow":    "....../......./......./......./......./.......",
			"BadChar":     "......./......./......./......./......./...X...",
			"Floating":    "......./......./...R.../......./......./...Y...",
			"Parity":      "......./......./......./......./......./RR.....",
			"YellowFirst": "......./......./......./......./......./Y......",
		}
		for name, grid := range bad {
			_, err := ParseGrid(grid)
			assert.Error(t, err, name)
		}
	})
}
