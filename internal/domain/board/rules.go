package board

import (
	"errors"
	"fmt"
)

var (
	ErrOccupied    = errors.New("point occupied")
	ErrSuicide     = errors.New("suicide")
	ErrKo          = errors.New("ko")
	ErrOutOfBounds = errors.New("point out of bounds")
	ErrWrongTurn   = errors.New("not your turn")
	ErrGameOver    = errors.New("play has ended")
)

// IllegalMoveError reports a rejected placement. Reason is one of the
// sentinel errors above.
type IllegalMoveError struct {
	Move   Move
	Reason error
}

func (e *IllegalMoveError) Error() string {
	return fmt.Sprintf("illegal move %s: %v", e.Move, e.Reason)
}

func (e *IllegalMoveError) Unwrap() error {
	return e.Reason
}

type Outcome struct {
	Board    *Board
	Captured []Point
}

// Apply places a stone of color c, resolving captures of adjacent opposing
// groups before checking the mover's own liberties. A pass returns a copy of
// b. If prev is not nil, a placement that recreates prev is rejected as ko.
// The input board is never modified.
func Apply(b *Board, prev *Board, c Color, m Move) (Outcome, error) {
	if m.IsPass() {
		return Outcome{Board: b.Clone()}, nil
	}
	p := m.Point
	if !b.InBounds(p) {
		return Outcome{}, &IllegalMoveError{Move: m, Reason: ErrOutOfBounds}
	}
	if b.At(p) != Empty {
		return Outcome{}, &IllegalMoveError{Move: m, Reason: ErrOccupied}
	}

	next := b.Clone()
	next.Set(p, c)

	var captured []Point
	for _, n := range p.neighbours() {
		if !next.InBounds(n) || next.At(n) != c.Opponent() {
			continue
		}
		stones, libs := next.Group(n)
		if libs > 0 {
			continue
		}
		for _, s := range stones {
			next.Set(s, Empty)
		}
		captured = append(captured, stones...)
	}

	if _, libs := next.Group(p); libs == 0 {
		return Outcome{}, &IllegalMoveError{Move: m, Reason: ErrSuicide}
	}
	if prev != nil && len(captured) == 1 && next.Equal(prev) {
		return Outcome{}, &IllegalMoveError{Move: m, Reason: ErrKo}
	}

	sortPoints(captured)
	return Outcome{Board: next, Captured: captured}, nil
}

// State tracks the position of a single game: current board, side to move,
// the history of accepted moves and consecutive passes. It is not safe for
// concurrent use.
type State struct {
	board   *Board
	prev    *Board
	turn    Color
	passes  int
	history []Move
	ko      bool
}

// NewState starts an empty board with Black to move.
func NewState(size int, ko bool) *State {
	return &State{board: New(size), turn: Black, ko: ko}
}

// Replay rebuilds a state from a move history. Any rejected move aborts the replay.
func Replay(size int, ko bool, moves []Move) (*State, error) {
	s := NewState(size, ko)
	for i, m := range moves {
		if _, err := s.Play(s.turn, m); err != nil {
			return nil, fmt.Errorf("replay move %d: %w", i, err)
		}
	}
	return s, nil
}

// Play validates turn order and legality and then commits the move.
// Rejected moves leave the state untouched.
func (s *State) Play(c Color, m Move) (Outcome, error) {
	if s.Ended() {
		return Outcome{}, ErrGameOver
	}
	if c != s.turn {
		return Outcome{}, ErrWrongTurn
	}
	var prev *Board
	if s.ko {
		prev = s.prev
	}
	out, err := Apply(s.board, prev, c, m)
	if err != nil {
		return Outcome{}, err
	}
	s.prev = s.board
	s.board = out.Board
	s.turn = c.Opponent()
	s.history = append(s.history, m)
	if m.IsPass() {
		s.passes++
	} else {
		s.passes = 0
	}
	return out, nil
}

func (s *State) Board() *Board {
	return s.board.Clone()
}

func (s *State) Turn() Color {
	return s.turn
}

func (s *State) History() []Move {
	out := make([]Move, len(s.history))
	copy(out, s.history)
	return out
}

func (s *State) Len() int {
	return len(s.history)
}

// Ended reports two consecutive passes: the position must now be scored.
func (s *State) Ended() bool {
	return s.passes >= 2
}

// LastMove returns the most recent move, ok is false on an empty history.
func (s *State) LastMove() (Move, bool) {
	if len(s.history) == 0 {
		return Move{}, false
	}
	return s.history[len(s.history)-1], true
}

// Clone returns an independent copy. Boards are never modified in place, so
// they are shared.
func (s *State) Clone() *State {
	cp := *s
	cp.history = s.History()
	return &cp
}
