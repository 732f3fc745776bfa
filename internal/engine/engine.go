// Package engine implements the live analysis engine.
//
// An Analyzer explores the game graph breadth-first from the current root,
// stores a value for every board it evaluates, and propagates changed values
// back to their ancestors. The table and frontier belong to the goroutine
// running Analyzer.Run; the outside world talks to it only through
// SubmitRoot and the Reporter it was given.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/hailam/connectplay/internal/board"
)

// Default timings.
const (
	DefaultReportInterval = 200 * time.Millisecond
	DefaultIdlePoll       = 50 * time.Millisecond
)

// Options configures an Analyzer.
type Options struct {
	ReportInterval time.Duration   // Node count report cadence
	IdlePoll       time.Duration   // Wait between polls when there is nothing to explore
	MaxNodes       int             // Table size at which new boards stop being evaluated (0 = no limit)
	Logger         *zerolog.Logger // nil disables logging
}

// Analyzer is the background analysis worker.
type Analyzer struct {
	opts     Options
	session  string
	log      zerolog.Logger
	reporter Reporter
	rootRep  RootReporter // reporter, if it also tracks roots

	roots     chan board.Board // latest-wins mailbox
	done      chan struct{}
	closeOnce sync.Once

	// Owned by the Run goroutine.
	table       *TranspositionTable
	frontier    *Frontier
	root        board.Board
	rootPly     int
	exhausted   bool // drain already handled for this epoch
	capped      bool // MaxNodes was hit in this epoch
	countReport rate.Sometimes
}

// New creates an analyzer that will start from root when Run is called.
func New(root board.Board, reporter Reporter, opts Options) *Analyzer {
	if opts.ReportInterval <= 0 {
		opts.ReportInterval = DefaultReportInterval
	}
	if opts.IdlePoll <= 0 {
		opts.IdlePoll = DefaultIdlePoll
	}

	session := uuid.NewString()[:8]
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("session", session).Logger()
	}

	a := &Analyzer{
		opts:        opts,
		session:     session,
		log:         logger,
		reporter:    reporter,
		roots:       make(chan board.Board, 1),
		done:        make(chan struct{}),
		table:       NewTranspositionTable(1 << 16),
		frontier:    NewFrontier(),
		root:        root,
		rootPly:     root.Ply(),
		countReport: rate.Sometimes{Interval: opts.ReportInterval},
	}
	a.rootRep, _ = reporter.(RootReporter)
	return a
}

// Session returns the analysis session id.
func (a *Analyzer) Session() string {
	return a.session
}

// SubmitRoot tells the analyzer the real game has reached b.
// It never blocks; a root that has not been picked up yet is replaced.
func (a *Analyzer) SubmitRoot(b board.Board) {
	for {
		select {
		case a.roots <- b:
			return
		default:
		}
		select {
		case <-a.roots:
		default:
		}
	}
}

// Close stops Run. It is safe to call more than once.
func (a *Analyzer) Close() {
	a.closeOnce.Do(func() { close(a.done) })
}

// Run explores until ctx is cancelled or Close is called, both of which return nil.
// A corrupted board discovered during analysis aborts the run with an error.
func (a *Analyzer) Run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			inv, ok := r.(*board.InvariantError)
			if !ok {
				panic(r)
			}
			a.log.Error().Err(inv).Msg("analysis-aborted")
			err = fmt.Errorf("analysis aborted: %w", inv)
		}
	}()

	a.log.Info().Str("root", a.root.Grid()).Msg("analysis-started")
	a.reroot(a.root)

	for {
		select {
		case <-ctx.Done():
			a.stopped()
			return nil
		case <-a.done:
			a.stopped()
			return nil
		case b := <-a.roots:
			a.reroot(b)
		default:
		}

		a.countReport.Do(func() {
			a.reporter.ReportNodesExplored(a.table.Len())
		})

		if a.step() {
			continue
		}

		// Nothing to explore: wait for a new root instead of spinning.
		select {
		case <-ctx.Done():
			a.stopped()
			return nil
		case <-a.done:
			a.stopped()
			return nil
		case b := <-a.roots:
			a.reroot(b)
		case <-time.After(a.opts.IdlePoll):
		}
	}
}

func (a *Analyzer) stopped() {
	a.log.Info().
		Int("nodes", a.table.Len()).
		Float64("hit_rate", a.table.HitRate()).
		Msg("analysis-stopped")
}

// step visits one frontier board. It returns false when there was nothing to do.
func (a *Analyzer) step() bool {
	b, ok := a.frontier.Pop()
	if !ok {
		a.drained()
		return false
	}

	if _, known := a.table.Probe(b); known {
		transpositionHits.Inc()
	} else if a.opts.MaxNodes > 0 && a.table.Len() >= a.opts.MaxNodes {
		if !a.capped {
			a.capped = true
			a.log.Warn().Int("max_nodes", a.opts.MaxNodes).Msg("node-cap-reached")
		}
		return true
	} else {
		a.table.Store(b, a.evaluate(b))
		nodesEvaluated.Inc()
		a.propagate(b)
	}

	// Decided and full boards have no children.
	for _, next := range b.NextBoards() {
		a.frontier.Push(next)
	}

	tableSize.Set(float64(a.table.Len()))
	frontierSize.Set(float64(a.frontier.Len()))
	return true
}

// drained handles an empty frontier once per epoch.
func (a *Analyzer) drained() {
	if a.exhausted {
		return
	}
	a.exhausted = true
	a.reporter.ReportNodesExplored(a.table.Len())
	if a.capped {
		a.log.Debug().Int("nodes", a.table.Len()).Msg("frontier-drained-at-cap")
		return
	}

	a.log.Debug().
		Str("root", a.root.Grid()).
		Int("nodes", a.table.Len()).
		Msg("subtree-exhausted")
	if a.rootRep != nil {
		a.rootRep.ReportExhausted(a.root)
	}
}

// reroot makes b the new root: the frontier restarts from b alone while
// the table keeps everything learned so far.
func (a *Analyzer) reroot(b board.Board) {
	a.root = b
	a.rootPly = b.Ply()
	a.frontier.Reset(b)
	a.exhausted = false
	a.capped = false

	// Propagation never reaches above the old root, so a known board may
	// be behind its children.
	if v, ok := a.table.Lookup(b); !ok {
		a.table.Store(b, a.evaluate(b))
		nodesEvaluated.Inc()
	} else if agg, ok := a.aggregate(b); ok && agg != v {
		a.table.Store(b, agg)
		propagationUpdates.Inc()
	}
	reroots.Inc()
	a.log.Debug().Str("root", b.Grid()).Int("ply", a.rootPly).Msg("rerooted")

	if a.rootRep != nil {
		a.rootRep.ReportRoot(b)
	}
	a.syncRoot()
}

// evaluate returns the first value stored for b: the aggregate of its
// children already in the table, or the heuristic score if there are none.
func (a *Analyzer) evaluate(b board.Board) int {
	if v, ok := a.aggregate(b); ok {
		return v
	}
	return b.Score()
}

// syncRoot reports the root's value and the recommended column.
func (a *Analyzer) syncRoot() {
	v, ok := a.table.Lookup(a.root)
	if !ok {
		return
	}
	a.reporter.ReportRootScore(v)
	a.reporter.ReportRecommendedColumn(a.recommend(v))
}

// recommend returns the lowest column whose resulting board is known to
// have the root's value v.
func (a *Analyzer) recommend(v int) int {
	mover, ok := a.root.NextToMove()
	if !ok {
		return NoRecommendation
	}
	for col := 0; col < board.Cols; col++ {
		child, err := a.root.Play(col, mover)
		if err != nil {
			continue
		}
		if cv, ok := a.table.Lookup(child); ok && cv == v {
			return col
		}
	}
	return NoRecommendation
}
