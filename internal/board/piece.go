package board

// Player represents one of the two sides. Red always moves first.
type Player uint8

const (
	Red Player = iota
	Yellow
	NoPlayer Player = 2
)

// Other returns the opposing player.
func (p Player) Other() Player {
	return p ^ 1
}

// String returns the player name.
func (p Player) String() string {
	switch p {
	case Red:
		return "Red"
	case Yellow:
		return "Yellow"
	default:
		return "NoPlayer"
	}
}

// Symbol returns the single character used for the player's discs.
func (p Player) Symbol() byte {
	switch p {
	case Red:
		return 'R'
	case Yellow:
		return 'Y'
	default:
		return '.'
	}
}

// ParsePlayer converts a name or symbol ("red", "R", "yellow", "Y") to a Player.
func ParsePlayer(s string) (Player, bool) {
	switch s {
	case "r", "R", "red", "Red", "RED":
		return Red, true
	case "y", "Y", "yellow", "Yellow", "YELLOW":
		return Yellow, true
	}
	return NoPlayer, false
}

// Tile is the content of a single cell.
// Encoded so that a Tile holding player p equals Tile(p + 1).
type Tile uint8

const (
	Empty Tile = iota
	RedTile
	YellowTile
)

// TileOf returns the tile occupied by player p.
func TileOf(p Player) Tile {
	return Tile(p + 1)
}

// Player returns the owner of the tile, or NoPlayer if empty.
func (t Tile) Player() Player {
	if t == Empty {
		return NoPlayer
	}
	return Player(t - 1)
}

// Symbol returns the display character for the tile.
func (t Tile) Symbol() byte {
	return t.Player().Symbol()
}
