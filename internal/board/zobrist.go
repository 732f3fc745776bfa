package board

// Zobrist keys for position ids.
// Uses PRNG with fixed seed so ids are stable across runs.
var zobristTile [2][Rows][Cols]uint64

func init() {
	initZobrist()
}

// Simple PRNG for reproducible Zobrist keys
type prng struct {
	state uint64
}

func newPRNG(seed uint64) *prng {
	return &prng{state: seed}
}

// xorshift64* algorithm
func (p *prng) next() uint64 {
	p.state ^= p.state >> 12
	p.state ^= p.state << 25
	p.state ^= p.state >> 27
	return p.state * 0x2545F4914F6CDD1D
}

func initZobrist() {
	rng := newPRNG(0xC04EC7F0DA7A5EED)

	for p := Red; p <= Yellow; p++ {
		for row := 0; row < Rows; row++ {
			for col := 0; col < Cols; col++ {
				zobristTile[p][row][col] = rng.next()
			}
		}
	}
}

// Hash returns a 64-bit id for the grid. Equal boards have equal hashes.
// Side to move is implied by the disc counts, so it is not mixed in.
func (b Board) Hash() uint64 {
	var h uint64
	for row := 0; row < Rows; row++ {
		for col := 0; col < Cols; col++ {
			if t := b.tiles[row][col]; t != Empty {
				h ^= zobristTile[t.Player()][row][col]
			}
		}
	}
	return h
}
