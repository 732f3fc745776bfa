package board

import (
	"errors"
	"fmt"
)

// Reason classifies why a move was rejected.
type Reason uint8

const (
	WrongTurn Reason = iota + 1
	ColumnOutOfRange
	ColumnFull
)

// Sentinel errors, one per Reason. Match with errors.Is.
var (
	ErrWrongTurn        = errors.New("wrong player to move")
	ErrColumnOutOfRange = errors.New("column out of range")
	ErrColumnFull       = errors.New("column full")
)

func (r Reason) String() string {
	switch r {
	case WrongTurn:
		return "WrongTurn"
	case ColumnOutOfRange:
		return "ColumnOutOfRange"
	case ColumnFull:
		return "ColumnFull"
	default:
		return "Unknown"
	}
}

func (r Reason) sentinel() error {
	switch r {
	case WrongTurn:
		return ErrWrongTurn
	case ColumnOutOfRange:
		return ErrColumnOutOfRange
	case ColumnFull:
		return ErrColumnFull
	default:
		return nil
	}
}

// MoveRejectedError is returned by Play for an illegal move.
// The board it was called on is never modified.
type MoveRejectedError struct {
	Reason Reason
	Column int // 0-indexed, as passed to Play
	Player Player
}

func (e *MoveRejectedError) Error() string {
	return fmt.Sprintf("move rejected: %s plays column %d: %v", e.Player, e.Column+1, e.Reason.sentinel())
}

func (e *MoveRejectedError) Unwrap() error {
	return e.Reason.sentinel()
}

// InvariantError reports a board whose piece counts cannot occur in legal play.
// It is raised with panic: it always indicates a bug, never bad user input.
type InvariantError struct {
	Red    int
	Yellow int
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("board in illegal state: red=%d yellow=%d", e.Red, e.Yellow)
}
