package engine

import (
	"strconv"

	"github.com/hailam/connectplay/internal/board"
)

// NoRecommendation is reported as the column when no child of the root is
// known to achieve the root's value yet.
const NoRecommendation = -1

// Reporter receives the analyzer's outbound signals.
// Calls are made from the analyzer goroutine and must not block.
type Reporter interface {
	ReportRootScore(score int)
	ReportRecommendedColumn(col int)
	ReportNodesExplored(nodes int)
}

// RootReporter is a Reporter that also wants to know which position the
// signals refer to, and when that position's subtree has been fully explored.
type RootReporter interface {
	Reporter
	ReportRoot(root board.Board)
	ReportExhausted(root board.Board)
}

// Report is an immutable snapshot of everything reported for the current root.
type Report struct {
	Root      board.Board
	Score     int
	Column    int // 0-indexed, or NoRecommendation
	Nodes     int
	Exhausted bool // Score is exact
}

// ChanReporter collects signals into Report snapshots and delivers them on a
// channel. Only the latest snapshot is kept if the consumer falls behind.
type ChanReporter struct {
	ch  chan Report
	cur Report
}

// NewChanReporter creates a reporter whose snapshots are read from Reports.
func NewChanReporter() *ChanReporter {
	return &ChanReporter{
		ch:  make(chan Report, 1),
		cur: Report{Column: NoRecommendation},
	}
}

// Reports returns the snapshot channel.
func (r *ChanReporter) Reports() <-chan Report {
	return r.ch
}

func (r *ChanReporter) ReportRoot(root board.Board) {
	r.cur = Report{Root: root, Column: NoRecommendation, Nodes: r.cur.Nodes}
	r.publish()
}

func (r *ChanReporter) ReportRootScore(score int) {
	r.cur.Score = score
	r.publish()
}

func (r *ChanReporter) ReportRecommendedColumn(col int) {
	r.cur.Column = col
	r.publish()
}

func (r *ChanReporter) ReportNodesExplored(nodes int) {
	r.cur.Nodes = nodes
	r.publish()
}

func (r *ChanReporter) ReportExhausted(root board.Board) {
	if root != r.cur.Root {
		return
	}
	r.cur.Exhausted = true
	r.publish()
}

// publish replaces any undelivered snapshot with the current one.
func (r *ChanReporter) publish() {
	for {
		select {
		case r.ch <- r.cur:
			return
		default:
		}
		select {
		case <-r.ch:
		default:
		}
	}
}

// FormatScore converts a root value to a human-readable string.
func FormatScore(score int) string {
	switch {
	case score >= board.TerminalScore:
		return "Red wins"
	case score <= -board.TerminalScore:
		return "Yellow wins"
	case score > 0:
		return "+" + strconv.Itoa(score)
	default:
		return strconv.Itoa(score)
	}
}
