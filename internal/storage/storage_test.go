package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/connectplay/internal/board"
)

func openTest(t *testing.T) *Storage {
	t.Helper()
	s, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPreferences(t *testing.T) {
	s := openTest(t)

	prefs, err := s.LoadPreferences()
	require.NoError(t, err)
	assert.Equal(t, DefaultPreferences(), prefs)

	prefs.Human = "yellow"
	prefs.ShowAnalysis = false
	require.NoError(t, s.SavePreferences(prefs))
	assert.False(t, prefs.LastPlayed.IsZero())

	loaded, err := s.LoadPreferences()
	require.NoError(t, err)
	assert.Equal(t, "yellow", loaded.Human)
	assert.False(t, loaded.ShowAnalysis)
	assert.WithinDuration(t, prefs.LastPlayed, loaded.LastPlayed, time.Second)
}

func TestFirstLaunch(t *testing.T) {
	s := openTest(t)

	first, err := s.IsFirstLaunch()
	require.NoError(t, err)
	assert.True(t, first)

	require.NoError(t, s.MarkFirstLaunchComplete())
	first, err = s.IsFirstLaunch()
	require.NoError(t, err)
	assert.False(t, first)
}

func TestRecordGame(t *testing.T) {
	s := openTest(t)

	stats, err := s.LoadStats()
	require.NoError(t, err)
	assert.Equal(t, &GameStats{}, stats)
	assert.Equal(t, 0.0, stats.RedWinRate())

	results := []GameResult{
		{Winner: board.Red, Plies: 13, Duration: time.Minute},
		{Winner: board.Yellow, Plies: 8},
		{Winner: board.NoPlayer, Plies: 42},
		{Winner: board.Red, Plies: 7},
	}
	for _, r := range results {
		require.NoError(t, s.RecordGame(r))
	}

	stats, err = s.LoadStats()
	require.NoError(t, err)
	assert.Equal(t, 4, stats.GamesPlayed)
	assert.Equal(t, 2, stats.RedWins)
	assert.Equal(t, 1, stats.YellowWins)
	assert.Equal(t, 1, stats.Draws)
	assert.Equal(t, 42, stats.LongestGame)
	assert.Equal(t, 7, stats.ShortestWin)
	assert.Equal(t, time.Minute, stats.TotalPlayTime)
	assert.Equal(t, 50.0, stats.RedWinRate())
}

func TestSavedGame(t *testing.T) {
	s := openTest(t)

	_, found, err := s.LoadGame()
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.SaveGame("4453"))
	g, found, err := s.LoadGame()
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "4453", g.Moves)
	assert.False(t, g.SavedAt.IsZero())

	require.NoError(t, s.ClearGame())
	_, found, err = s.LoadGame()
	require.NoError(t, err)
	assert.False(t, found)

	// Clearing twice is fine.
	require.NoError(t, s.ClearGame())
}

func TestOpenOnDisk(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.SaveGame("1234"))
	require.NoError(t, s.Close())

	_, err = os.Stat(filepath.Join(dir, "db"))
	require.NoError(t, err)

	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()
	g, found, err := s.LoadGame()
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "1234", g.Moves)
}

func TestDataDir(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("APPDATA", t.TempDir())

	dir, err := DataDir()
	require.NoError(t, err)
	assert.Equal(t, appName, filepath.Base(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
