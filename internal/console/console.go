// Package console runs an interactive game on a line-oriented terminal while
// the analyzer works in the background.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/connectplay/internal/board"
	"github.com/hailam/connectplay/internal/engine"
	"github.com/hailam/connectplay/internal/storage"
)

// DefaultThinkTime is how long the engine side waits for an exact answer
// before playing its current recommendation.
const DefaultThinkTime = 2 * time.Second

// Analysis receives every position the game reaches.
type Analysis interface {
	SubmitRoot(b board.Board)
}

// Store persists game progress. *storage.Storage satisfies it.
type Store interface {
	SaveGame(moves string) error
	ClearGame() error
	RecordGame(result storage.GameResult) error
}

// Options configures a Console.
type Options struct {
	Human        string        // "red", "yellow" or "both"; empty means both
	ShowAnalysis bool          // print the exact value when a position is solved
	ThinkTime    time.Duration // engine side's time per move
	Moves        string        // starting position as column digits
	ShowHelp     bool          // print the command list on start
	Store        Store         // nil disables persistence
	Logger       *zerolog.Logger
}

// Console is the foreground game loop. All game state is owned by Run.
type Console struct {
	in       io.Reader
	out      io.Writer
	analysis Analysis
	reports  <-chan engine.Report
	opts     Options
	log      zerolog.Logger

	moves   []int // 0-indexed columns played so far
	board   board.Board
	last    engine.Report // latest report for board
	started time.Time
	think   *time.Timer
	thinkC  <-chan time.Time
}

// New creates a console reading commands from in and writing to out.
// Positions are sent to analysis and its reports are read from reports.
func New(in io.Reader, out io.Writer, analysis Analysis, reports <-chan engine.Report, opts Options) (*Console, error) {
	if opts.Human == "" {
		opts.Human = "both"
	}
	if opts.ThinkTime <= 0 {
		opts.ThinkTime = DefaultThinkTime
	}
	if opts.Human != "both" {
		if _, ok := board.ParsePlayer(opts.Human); !ok {
			return nil, fmt.Errorf("invalid human side %q", opts.Human)
		}
	}

	moves, b, err := parseMoves(opts.Moves)
	if err != nil {
		return nil, fmt.Errorf("starting position: %w", err)
	}

	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &Console{
		in:       in,
		out:      out,
		analysis: analysis,
		reports:  reports,
		opts:     opts,
		log:      logger,
		moves:    moves,
		board:    b,
		last:     engine.Report{Root: b, Column: engine.NoRecommendation},
	}, nil
}

// Board returns the current position.
func (c *Console) Board() board.Board {
	return c.board
}

// Moves returns the current position as column digits.
func (c *Console) Moves() string {
	return board.FormatMoves(c.moves)
}

// Run processes commands until quit, end of input, or ctx is cancelled.
func (c *Console) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer c.stopThinking()

	lines := make(chan string)
	go c.readLines(ctx, lines)

	c.printf("connectplay: drop a disc with 1-7, type help for commands\n")
	if c.opts.ShowHelp {
		c.help()
	}
	c.started = time.Now()
	c.setPosition(c.moves, c.board)

	reports := c.reports
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if c.handle(line) {
				return nil
			}
		case r, ok := <-reports:
			if !ok {
				reports = nil
				continue
			}
			c.handleReport(r)
		case <-c.thinkC:
			c.engineMove()
		}
	}
}

func (c *Console) readLines(ctx context.Context, lines chan<- string) {
	defer close(lines)
	scanner := bufio.NewScanner(c.in)
	for scanner.Scan() {
		select {
		case lines <- strings.TrimSpace(scanner.Text()):
		case <-ctx.Done():
			return
		}
	}
	if err := scanner.Err(); err != nil {
		c.log.Warn().Err(err).Msg("input-failed")
	}
}

// handle executes one command line and reports whether to quit.
func (c *Console) handle(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := fields[0], fields[1:]

	if n, err := strconv.Atoi(cmd); err == nil {
		c.humanMove(n - 1)
		return false
	}

	switch cmd {
	case "undo":
		c.undo()
	case "new":
		c.newGame()
	case "moves":
		c.setMoves(strings.Join(args, ""))
	case "d":
		c.display()
	case "eval":
		c.eval()
	case "hint":
		c.hint()
	case "help":
		c.help()
	case "quit", "exit":
		return true
	default:
		c.printf("unknown command %q, type help for commands\n", cmd)
	}
	return false
}

func (c *Console) help() {
	c.printf(`commands:
  1-7          drop a disc in that column
  undo         take back the last move
  new          start a new game
  moves SEQ    set up the position reached by SEQ, e.g. moves 4453
  d            show the board
  eval         show the current analysis
  hint         show the recommended column
  quit         leave
`)
}

func (c *Console) humanMove(col int) {
	mover, ok := c.board.NextToMove()
	if !ok {
		c.printf("the game is over, type new or undo\n")
		return
	}
	if !c.humanPlays(mover) {
		c.printf("it is %s's turn and the engine is playing %s\n", mover, mover)
		return
	}
	c.play(col, mover)
}

// play makes a move for mover and records the game if it ends.
func (c *Console) play(col int, mover board.Player) {
	next, err := c.board.Play(col, mover)
	if err != nil {
		c.printf("illegal move: %v\n", err)
		return
	}
	c.log.Debug().Int("column", col+1).Stringer("player", mover).Msg("move-played")
	c.setPosition(append(c.moves, col), next)
	if gameOver(next) {
		c.record()
	}
}

func (c *Console) engineMove() {
	c.stopThinking()
	mover, ok := c.board.NextToMove()
	if !ok || c.humanPlays(mover) {
		return
	}

	col := engine.NoRecommendation
	if c.last.Root == c.board {
		col = c.last.Column
	}
	if col == engine.NoRecommendation {
		col = lowestOpenColumn(c.board)
	}
	c.printf("%s plays %d\n", mover, col+1)
	c.play(col, mover)
}

func (c *Console) undo() {
	if len(c.moves) == 0 {
		c.printf("nothing to undo\n")
		return
	}
	moves := c.moves[:len(c.moves)-1]
	// Take back engine replies too so the human is to move again.
	for len(moves) > 0 {
		b, _ := board.FromMoves(board.FormatMoves(moves))
		if mover, ok := b.NextToMove(); ok && c.humanPlays(mover) {
			break
		}
		moves = moves[:len(moves)-1]
	}
	b, err := board.FromMoves(board.FormatMoves(moves))
	if err != nil {
		c.log.Error().Err(err).Msg("undo-replay-failed")
		return
	}
	c.setPosition(moves, b)
}

func (c *Console) newGame() {
	if c.opts.Store != nil {
		if err := c.opts.Store.ClearGame(); err != nil {
			c.log.Warn().Err(err).Msg("clear-game-failed")
		}
	}
	c.started = time.Now()
	c.setPosition(nil, board.New())
}

func (c *Console) setMoves(seq string) {
	moves, b, err := parseMoves(seq)
	if err != nil {
		c.printf("invalid moves: %v\n", err)
		return
	}
	c.setPosition(moves, b)
}

// setPosition makes b the current position and hands it to the analyzer.
func (c *Console) setPosition(moves []int, b board.Board) {
	c.stopThinking()
	c.moves = moves
	c.board = b
	c.last = engine.Report{Root: b, Column: engine.NoRecommendation}
	c.analysis.SubmitRoot(b)

	c.display()
	if !gameOver(b) {
		c.save()
	}

	if mover, ok := b.NextToMove(); ok && !c.humanPlays(mover) {
		c.printf("%s is thinking...\n", mover)
		c.think = time.NewTimer(c.opts.ThinkTime)
		c.thinkC = c.think.C
	}
}

func (c *Console) stopThinking() {
	if c.think != nil {
		c.think.Stop()
	}
	c.think = nil
	c.thinkC = nil
}

func (c *Console) handleReport(r engine.Report) {
	if r.Root != c.board {
		return
	}
	prev := c.last
	c.last = r

	if !r.Exhausted || prev.Exhausted {
		return
	}
	if c.opts.ShowAnalysis {
		c.printf("analysis: %s, best column %s (exact, %d positions)\n",
			engine.FormatScore(r.Score), columnLabel(r.Column), r.Nodes)
	}
	if c.thinkC != nil {
		c.engineMove()
	}
}

func (c *Console) display() {
	c.printf("\n%s\n\n", c.board)
	if p, ok := c.board.Winner(); ok {
		c.printf("Game over. %s wins!\n", p)
		return
	}
	if c.board.IsFull() {
		c.printf("Game over. It's a draw.\n")
		return
	}
	mover, _ := c.board.NextToMove()
	c.printf("%s to move\n", mover)
}

func (c *Console) eval() {
	r := c.last
	exact := ""
	if r.Exhausted {
		exact = ", exact"
	}
	c.printf("score %s, best column %s, %d positions explored%s\n",
		engine.FormatScore(r.Score), columnLabel(r.Column), r.Nodes, exact)
}

func (c *Console) hint() {
	if c.last.Column == engine.NoRecommendation {
		c.printf("hint: no recommendation yet\n")
		return
	}
	c.printf("hint: column %d\n", c.last.Column+1)
}

func (c *Console) save() {
	if c.opts.Store == nil {
		return
	}
	if err := c.opts.Store.SaveGame(board.FormatMoves(c.moves)); err != nil {
		c.log.Warn().Err(err).Msg("save-game-failed")
	}
}

func (c *Console) record() {
	winner, ok := c.board.Winner()
	if !ok {
		winner = board.NoPlayer
	}
	c.log.Info().Stringer("winner", winner).Int("plies", len(c.moves)).Msg("game-over")
	if c.opts.Store == nil {
		return
	}
	result := storage.GameResult{Winner: winner, Plies: len(c.moves), Duration: time.Since(c.started)}
	if err := c.opts.Store.RecordGame(result); err != nil {
		c.log.Warn().Err(err).Msg("record-game-failed")
	}
	if err := c.opts.Store.ClearGame(); err != nil {
		c.log.Warn().Err(err).Msg("clear-game-failed")
	}
}

func (c *Console) humanPlays(p board.Player) bool {
	if c.opts.Human == "both" {
		return true
	}
	h, _ := board.ParsePlayer(c.opts.Human)
	return h == p
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func gameOver(b board.Board) bool {
	_, ok := b.NextToMove()
	return !ok
}

func lowestOpenColumn(b board.Board) int {
	for col := 0; col < board.Cols; col++ {
		if b.Height(col) < board.Rows {
			return col
		}
	}
	return engine.NoRecommendation
}

func columnLabel(col int) string {
	if col == engine.NoRecommendation {
		return "none"
	}
	return strconv.Itoa(col + 1)
}

// parseMoves replays seq and also returns its columns.
func parseMoves(seq string) ([]int, board.Board, error) {
	b, err := board.FromMoves(seq)
	if err != nil {
		return nil, b, err
	}
	var moves []int
	for _, ch := range seq {
		if ch >= '1' && ch <= '7' {
			moves = append(moves, int(ch-'1'))
		}
	}
	return moves, b, nil
}
