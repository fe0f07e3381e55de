package game

import (
	"time"

	"goarena/internal/domain/board"
)

// Clock keeps per-side remaining time. Only the side to move is charged, and
// only for wall time elapsed since its turn began.
type Clock struct {
	black   time.Duration
	white   time.Duration
	turn    board.Color
	since   time.Time
	running bool
}

func NewClock(main time.Duration) *Clock {
	return &Clock{black: main, white: main}
}

func (c *Clock) Start(turn board.Color, now time.Time) {
	c.turn = turn
	c.since = now
	c.running = true
}

func (c *Clock) Running() bool {
	return c.running
}

func (c *Clock) Turn() board.Color {
	return c.turn
}

func (c *Clock) Remaining(color board.Color, now time.Time) time.Duration {
	left := c.stored(color)
	if c.running && color == c.turn {
		left -= now.Sub(c.since)
	}
	if left < 0 {
		return 0
	}
	return left
}

// Switch charges the mover and hands the turn to the opponent. It returns the
// mover's remaining time, which may be zero.
func (c *Clock) Switch(now time.Time) time.Duration {
	left := c.charge(now)
	c.turn = c.turn.Opponent()
	c.since = now
	return left
}

func (c *Clock) Stop(now time.Time) {
	if !c.running {
		return
	}
	c.charge(now)
	c.running = false
}

// Expired reports the side to move when its time has run out.
func (c *Clock) Expired(now time.Time) (board.Color, bool) {
	if !c.running {
		return board.Empty, false
	}
	if c.Remaining(c.turn, now) <= 0 {
		return c.turn, true
	}
	return board.Empty, false
}

func (c *Clock) stored(color board.Color) time.Duration {
	if color == board.Black {
		return c.black
	}
	return c.white
}

func (c *Clock) charge(now time.Time) time.Duration {
	left := c.Remaining(c.turn, now)
	if c.turn == board.Black {
		c.black = left
	} else {
		c.white = left
	}
	c.since = now
	return left
}
