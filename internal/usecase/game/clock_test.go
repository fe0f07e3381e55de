package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"goarena/internal/domain/board"
)

func TestClockChargesOnlySideToMove(t *testing.T) {
	start := time.Unix(1000, 0)
	c := NewClock(time.Minute)
	assert.Equal(t, time.Minute, c.Remaining(board.Black, start.Add(time.Hour)))

	c.Start(board.Black, start)
	now := start.Add(10 * time.Second)
	assert.Equal(t, 50*time.Second, c.Remaining(board.Black, now))
	assert.Equal(t, time.Minute, c.Remaining(board.White, now))

	left := c.Switch(now)
	assert.Equal(t, 50*time.Second, left)
	assert.Equal(t, board.White, c.Turn())

	now = now.Add(5 * time.Second)
	assert.Equal(t, 50*time.Second, c.Remaining(board.Black, now))
	assert.Equal(t, 55*time.Second, c.Remaining(board.White, now))

	c.Stop(now)
	assert.Equal(t, 55*time.Second, c.Remaining(board.White, now.Add(time.Hour)))
}

func TestClockExpiry(t *testing.T) {
	start := time.Unix(1000, 0)
	c := NewClock(time.Second)
	c.Start(board.Black, start)

	_, expired := c.Expired(start.Add(999 * time.Millisecond))
	assert.False(t, expired)

	side, expired := c.Expired(start.Add(time.Second))
	assert.True(t, expired)
	assert.Equal(t, board.Black, side)
	assert.Zero(t, c.Remaining(board.Black, start.Add(time.Hour)))
}
