package console

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/connectplay/internal/board"
	"github.com/hailam/connectplay/internal/engine"
	"github.com/hailam/connectplay/internal/storage"
)

type fakeAnalysis struct {
	mu    sync.Mutex
	roots []board.Board
}

func (f *fakeAnalysis) SubmitRoot(b board.Board) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roots = append(f.roots, b)
}

func (f *fakeAnalysis) submitted() []board.Board {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]board.Board(nil), f.roots...)
}

type fakeStore struct {
	saved   []string
	cleared int
	results []storage.GameResult
}

func (f *fakeStore) SaveGame(moves string) error { f.saved = append(f.saved, moves); return nil }
func (f *fakeStore) ClearGame() error { f.cleared++; return nil }
func (f *fakeStore) RecordGame(r storage.GameResult) error { f.results = append(f.results, r); return nil }

func position(t *testing.T, seq string) board.Board {
	t.Helper()
	b, err := board.FromMoves(seq)
	require.NoError(t, err)
	return b
}

// runScript feeds input to a console and returns its output once input ends.
func runScript(t *testing.T, input string, opts Options) (string, *fakeAnalysis) {
	t.Helper()
	var out bytes.Buffer
	fa := &fakeAnalysis{}
	c, err := New(strings.NewReader(input), &out, fa, nil, opts)
	require.NoError(t, err)
	require.NoError(t, c.Run(context.Background()))
	return out.String(), fa
}

func TestPlayMoves(t *testing.T) {
	out, fa := runScript(t, "4\n4\n5\nd\nquit\n", Options{})

	roots := fa.submitted()
	require.Len(t, roots, 4)
	assert.Equal(t, board.New(), roots[0])
	assert.Equal(t, position(t, "445"), roots[3])
	assert.Contains(t, out, "Yellow to move")
	assert.Contains(t, out, position(t, "445").String())
}

func TestIllegalMoves(t *testing.T) {
	out, fa := runScript(t, "9\n0\nmoves 111111\n1\n", Options{})

	assert.Contains(t, out, "illegal move: move rejected: Red plays column 9: column out of range")
	assert.Contains(t, out, "column 0")
	assert.Contains(t, out, "column full")
	assert.Len(t, fa.submitted(), 2, "rejected moves do not change the root")
}

func TestUnknownCommand(t *testing.T) {
	out, _ := runScript(t, "castle\n\n", Options{})
	assert.Contains(t, out, `unknown command "castle"`)
}

func TestMovesAndUndo(t *testing.T) {
	out, fa := runScript(t, "moves 44 53\nundo\nmoves 48\nundo\nundo\nundo\nundo\n", Options{})

	roots := fa.submitted()
	require.Len(t, roots, 6)
	assert.Equal(t, position(t, "4453"), roots[1])
	assert.Equal(t, position(t, "445"), roots[2])
	assert.Equal(t, board.New(), roots[5])
	assert.Contains(t, out, "invalid moves: move 2")
	assert.Contains(t, out, "nothing to undo")
}

func TestNewGame(t *testing.T) {
	store := &fakeStore{}
	_, fa := runScript(t, "new\n", Options{Moves: "4453", Store: store})

	roots := fa.submitted()
	require.Len(t, roots, 2)
	assert.Equal(t, position(t, "4453"), roots[0])
	assert.Equal(t, board.New(), roots[1])
	assert.Equal(t, []string{"4453", ""}, store.saved)
	assert.Equal(t, 1, store.cleared)
}

func TestGameOverIsRecorded(t *testing.T) {
	store := &fakeStore{}
	out, _ := runScript(t, "1\n2\n", Options{Moves: "121212", Store: store})

	assert.Contains(t, out, "Game over. Red wins!")
	assert.Contains(t, out, "the game is over")
	require.Len(t, store.results, 1)
	assert.Equal(t, board.Red, store.results[0].Winner)
	assert.Equal(t, 7, store.results[0].Plies)
	assert.Equal(t, 1, store.cleared)
	assert.Equal(t, []string{"121212"}, store.saved, "finished games are not saved")
}

func TestReportsForOtherRootsIgnored(t *testing.T) {
	var out bytes.Buffer
	reports := make(chan engine.Report, 2)
	reports <- engine.Report{Root: position(t, "1"), Score: 99, Column: 5, Exhausted: true}
	reports <- engine.Report{Root: board.New(), Score: 35, Column: 3, Nodes: 10, Exhausted: true}
	close(reports)

	in, w := io.Pipe()
	c, err := New(in, &out, &fakeAnalysis{}, reports, Options{ShowAnalysis: true})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()

	// Reports are drained before the commands are handled.
	time.Sleep(50 * time.Millisecond)
	_, err = io.WriteString(w, "hint\neval\n")
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, <-done)

	assert.Contains(t, out.String(), "analysis: +35, best column 4 (exact, 10 positions)")
	assert.Contains(t, out.String(), "hint: column 4")
	assert.Contains(t, out.String(), "score +35, best column 4, 10 positions explored, exact")
	assert.NotContains(t, out.String(), "column 6")
}

func TestHintWithoutAnalysis(t *testing.T) {
	out, _ := runScript(t, "hint\neval\n", Options{})
	assert.Contains(t, out, "hint: no recommendation yet")
	assert.Contains(t, out, "best column none")
}

func TestEnginePlaysOnExhaustion(t *testing.T) {
	var out bytes.Buffer
	fa := &fakeAnalysis{}
	reports := make(chan engine.Report)
	in, w := io.Pipe()

	c, err := New(in, &out, fa, reports, Options{Human: "red", ThinkTime: time.Hour})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	_, err = io.WriteString(w, "4\n")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(fa.submitted()) == 2 }, 5*time.Second, time.Millisecond)

	reports <- engine.Report{Root: position(t, "4"), Column: 2, Exhausted: true}
	require.Eventually(t, func() bool { return len(fa.submitted()) == 3 }, 5*time.Second, time.Millisecond)
	assert.Equal(t, position(t, "43"), fa.submitted()[2])

	cancel()
	require.NoError(t, <-done)
	assert.Contains(t, out.String(), "Yellow is thinking...")
	assert.Contains(t, out.String(), "Yellow plays 3")
}

func TestEnginePlaysAfterThinkTime(t *testing.T) {
	var out bytes.Buffer
	fa := &fakeAnalysis{}
	in, w := io.Pipe()
	defer w.Close()

	c, err := New(in, &out, fa, nil, Options{Human: "yellow", ThinkTime: time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	// Red opens with the lowest open column when nothing is recommended.
	require.Eventually(t, func() bool { return len(fa.submitted()) == 2 }, 5*time.Second, time.Millisecond)
	assert.Equal(t, position(t, "1"), fa.submitted()[1])

	cancel()
	require.NoError(t, <-done)
	assert.Contains(t, out.String(), "Red plays 1")
}

func TestUndoTakesBackEngineReply(t *testing.T) {
	_, fa := runScript(t, "undo\n", Options{Human: "red", Moves: "4455", ThinkTime: time.Hour})

	roots := fa.submitted()
	require.Len(t, roots, 2)
	assert.Equal(t, position(t, "44"), roots[1])
}

func TestEngineSideRejectsHumanMove(t *testing.T) {
	out, fa := runScript(t, "4\n", Options{Human: "yellow", ThinkTime: time.Hour})
	assert.Contains(t, out, "it is Red's turn")
	assert.Len(t, fa.submitted(), 1)
}

func TestNewValidatesOptions(t *testing.T) {
	_, err := New(strings.NewReader(""), io.Discard, &fakeAnalysis{}, nil, Options{Human: "green"})
	assert.Error(t, err)

	_, err = New(strings.NewReader(""), io.Discard, &fakeAnalysis{}, nil, Options{Moves: "1x"})
	assert.ErrorContains(t, err, "starting position")

	c, err := New(strings.NewReader(""), io.Discard, &fakeAnalysis{}, nil, Options{Moves: "4, 4"})
	require.NoError(t, err)
	assert.Equal(t, "44", c.Moves())
	assert.Equal(t, position(t, "44"), c.Board())
}
