package storage

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/hailam/connectplay/internal/board"
)

// Storage keys
const (
	keyPreferences = "preferences"
	keyStats       = "stats"
	keyFirstLaunch = "first_launch"
	keySavedGame   = "saved_game"
)

// Preferences stores user settings.
type Preferences struct {
	Human        string    `json:"human"` // "red", "yellow" or "both"
	ShowAnalysis bool      `json:"show_analysis"`
	LastPlayed   time.Time `json:"last_played"`
}

// DefaultPreferences returns the settings used before anything is saved.
func DefaultPreferences() *Preferences {
	return &Preferences{
		Human:        "both",
		ShowAnalysis: true,
	}
}

// GameStats accumulates finished games.
type GameStats struct {
	GamesPlayed   int           `json:"games_played"`
	RedWins       int           `json:"red_wins"`
	YellowWins    int           `json:"yellow_wins"`
	Draws         int           `json:"draws"`
	LongestGame   int           `json:"longest_game"` // in plies
	ShortestWin   int           `json:"shortest_win"` // in plies, 0 until the first win
	TotalPlayTime time.Duration `json:"total_play_time"`
}

// GameResult describes a finished game.
type GameResult struct {
	Winner   board.Player // NoPlayer for a draw
	Plies    int
	Duration time.Duration
}

// SavedGame is an unfinished game that can be resumed.
type SavedGame struct {
	Moves   string    `json:"moves"` // column digits, as accepted by board.FromMoves
	SavedAt time.Time `json:"saved_at"`
}

// Storage wraps BadgerDB for persistent storage.
type Storage struct {
	db *badger.DB
}

// Open opens the database under dir, or under the platform data directory
// when dir is empty.
func Open(dir string) (*Storage, error) {
	dbDir, err := DatabaseDir(dir)
	if err != nil {
		return nil, err
	}
	return open(badger.DefaultOptions(dbDir))
}

// OpenInMemory opens a database that is discarded on Close.
func OpenInMemory() (*Storage, error) {
	return open(badger.DefaultOptions("").WithInMemory(true))
}

func open(opts badger.Options) (*Storage, error) {
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Storage{db: db}, nil
}

// Close closes the database.
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// IsFirstLaunch reports whether MarkFirstLaunchComplete has never been called.
func (s *Storage) IsFirstLaunch() (bool, error) {
	first := true
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(keyFirstLaunch))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		first = false
		return nil
	})
	return first, err
}

// MarkFirstLaunchComplete records that the welcome text has been shown.
func (s *Storage) MarkFirstLaunchComplete() error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyFirstLaunch), []byte("done"))
	})
}

// put stores v as JSON under key.
func (s *Storage) put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// get decodes the value under key into v, leaving v untouched if the key is
// missing. It reports whether the key was found.
func (s *Storage) get(key string, v any) (bool, error) {
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
	return found, err
}

// SavePreferences saves user preferences and stamps LastPlayed.
func (s *Storage) SavePreferences(prefs *Preferences) error {
	prefs.LastPlayed = time.Now()
	return s.put(keyPreferences, prefs)
}

// LoadPreferences loads user preferences, returning defaults if none are saved.
func (s *Storage) LoadPreferences() (*Preferences, error) {
	prefs := DefaultPreferences()
	_, err := s.get(keyPreferences, prefs)
	return prefs, err
}

// SaveStats saves game statistics.
func (s *Storage) SaveStats(stats *GameStats) error {
	return s.put(keyStats, stats)
}

// LoadStats loads game statistics, returning empty stats if none are saved.
func (s *Storage) LoadStats() (*GameStats, error) {
	stats := &GameStats{}
	_, err := s.get(keyStats, stats)
	return stats, err
}

// RecordGame adds a finished game to the statistics.
func (s *Storage) RecordGame(result GameResult) error {
	stats, err := s.LoadStats()
	if err != nil {
		return err
	}
	stats.Add(result)
	return s.SaveStats(stats)
}

// Add folds one finished game into the statistics.
func (gs *GameStats) Add(result GameResult) {
	gs.GamesPlayed++
	gs.TotalPlayTime += result.Duration
	if result.Plies > gs.LongestGame {
		gs.LongestGame = result.Plies
	}

	switch result.Winner {
	case board.Red:
		gs.RedWins++
	case board.Yellow:
		gs.YellowWins++
	default:
		gs.Draws++
		return
	}
	if gs.ShortestWin == 0 || result.Plies < gs.ShortestWin {
		gs.ShortestWin = result.Plies
	}
}

// RedWinRate returns Red's share of finished games as a percentage (0-100).
func (gs *GameStats) RedWinRate() float64 {
	if gs.GamesPlayed == 0 {
		return 0
	}
	return float64(gs.RedWins) / float64(gs.GamesPlayed) * 100
}

// SaveGame stores the move list of the game in progress.
func (s *Storage) SaveGame(moves string) error {
	return s.put(keySavedGame, SavedGame{Moves: moves, SavedAt: time.Now()})
}

// LoadGame returns the saved game, if any.
func (s *Storage) LoadGame() (SavedGame, bool, error) {
	var g SavedGame
	found, err := s.get(keySavedGame, &g)
	return g, found, err
}

// ClearGame forgets the saved game.
func (s *Storage) ClearGame() error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keySavedGame))
	})
}
