package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustMove(t *testing.T, s string) Move {
	t.Helper()
	m, err := ParseMove(s)
	require.NoError(t, err)
	return m
}

func setup(t *testing.T, size int, black, white []string) *Board {
	t.Helper()
	b := New(size)
	for _, s := range black {
		b.Set(mustMove(t, s).Point, Black)
	}
	for _, s := range white {
		b.Set(mustMove(t, s).Point, White)
	}
	return b
}

func TestParseMove(t *testing.T) {
	m := mustMove(t, "q16")
	assert.Equal(t, Point{Col: 16, Row: 16}, m.Point)
	assert.Equal(t, "q16", m.String())

	m = mustMove(t, "ps")
	assert.True(t, m.IsPass())
	assert.Equal(t, "ps", m.String())

	for _, bad := range []string{"", "d", "4d", "d-1", "d+3", "Dx"} {
		_, err := ParseMove(bad)
		assert.ErrorIs(t, err, ErrBadCoordinate, bad)
	}
}

func TestOpeningMovesAlternate(t *testing.T) {
	s := NewState(DefaultSize, true)
	require.Equal(t, Black, s.Turn())

	out, err := s.Play(Black, mustMove(t, "d4"))
	require.NoError(t, err)
	assert.Empty(t, out.Captured)
	assert.Equal(t, White, s.Turn())

	out, err = s.Play(White, mustMove(t, "q16"))
	require.NoError(t, err)
	assert.Empty(t, out.Captured)
	assert.Equal(t, Black, s.Turn())

	hist := s.History()
	require.Len(t, hist, 2)
	assert.Equal(t, "d4", hist[0].String())
	assert.Equal(t, "q16", hist[1].String())
	assert.Equal(t, Black, s.Board().At(Point{3, 4}))
	assert.Equal(t, White, s.Board().At(Point{16, 16}))
}

func TestCaptureSingleStone(t *testing.T) {
	b := setup(t, DefaultSize, []string{"a2", "c2", "b1"}, []string{"b2"})

	out, err := Apply(b, nil, Black, mustMove(t, "b3"))
	require.NoError(t, err)
	assert.Equal(t, []Point{{Col: 1, Row: 2}}, out.Captured)
	assert.Equal(t, Empty, out.Board.At(Point{Col: 1, Row: 2}))
	assert.Equal(t, Black, out.Board.At(Point{Col: 1, Row: 3}))
	// input untouched
	assert.Equal(t, White, b.At(Point{Col: 1, Row: 2}))
}

func TestCaptureGroupOnEdge(t *testing.T) {
	b := setup(t, 9, []string{"a2", "b2", "c1"}, []string{"a0", "b0", "a1", "b1"})
	// white group a0 b0 a1 b1 has a single liberty at c0
	out, err := Apply(b, nil, Black, mustMove(t, "c0"))
	require.NoError(t, err)
	assert.Equal(t, []Point{{0, 0}, {1, 0}, {0, 1}, {1, 1}}, out.Captured)
	for _, p := range out.Captured {
		assert.Equal(t, Empty, out.Board.At(p))
	}
}

func TestSuicideRejected(t *testing.T) {
	b := setup(t, DefaultSize, []string{"a2", "c2", "b1", "b3"}, nil)

	_, err := Apply(b, nil, White, mustMove(t, "b2"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSuicide)
	var illegal *IllegalMoveError
	require.ErrorAs(t, err, &illegal)
	assert.Equal(t, "b2", illegal.Move.String())
	assert.Equal(t, Empty, b.At(Point{1, 2}))
}

func TestCaptureBeatsSuicide(t *testing.T) {
	// white b0 is in atari; black filling its last liberty at the corner
	// would have no liberties were it not for the capture.
	b := setup(t, 5, []string{"b1", "c0"}, []string{"a1", "b0"})
	b.Set(Point{0, 2}, White)
	out, err := Apply(b, nil, Black, mustMove(t, "a0"))
	require.NoError(t, err)
	assert.Equal(t, []Point{{1, 0}}, out.Captured)
}

func TestOccupiedAndOutOfBounds(t *testing.T) {
	b := setup(t, DefaultSize, []string{"d4"}, nil)

	_, err := Apply(b, nil, White, mustMove(t, "d4"))
	assert.ErrorIs(t, err, ErrOccupied)

	_, err = Apply(b, nil, White, mustMove(t, "t0"))
	assert.ErrorIs(t, err, ErrOutOfBounds)

	_, err = Apply(b, nil, White, mustMove(t, "a19"))
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestWrongTurnLeavesStateUnchanged(t *testing.T) {
	s := NewState(DefaultSize, true)
	_, err := s.Play(White, mustMove(t, "d4"))
	assert.ErrorIs(t, err, ErrWrongTurn)
	assert.Equal(t, Black, s.Turn())
	assert.Zero(t, s.Len())

	_, err = s.Play(Black, mustMove(t, "d4"))
	require.NoError(t, err)
	_, err = s.Play(White, mustMove(t, "d4"))
	assert.ErrorIs(t, err, ErrOccupied)
	assert.Equal(t, White, s.Turn())
	assert.Equal(t, 1, s.Len())
}

func TestDoublePassEndsPlay(t *testing.T) {
	s := NewState(DefaultSize, true)
	_, err := s.Play(Black, PassMove())
	require.NoError(t, err)
	assert.False(t, s.Ended())

	_, err = s.Play(White, mustMove(t, "d4"))
	require.NoError(t, err)
	_, err = s.Play(Black, PassMove())
	require.NoError(t, err)
	assert.False(t, s.Ended())

	_, err = s.Play(White, PassMove())
	require.NoError(t, err)
	assert.True(t, s.Ended())

	_, err = s.Play(Black, mustMove(t, "a0"))
	assert.ErrorIs(t, err, ErrGameOver)
}

func koState(t *testing.T, ko bool) *State {
	t.Helper()
	// classic ko shape around b1/c1
	moves := []string{"b0", "c0", "a1", "d1", "b2", "c2", "ps", "b1", "c1"}
	s := NewState(5, ko)
	for _, mv := range moves {
		_, err := s.Play(s.Turn(), mustMove(t, mv))
		require.NoError(t, err, mv)
	}
	return s
}

func TestKoRecapture(t *testing.T) {
	s := koState(t, true)
	// black c1 captured white b1; immediate retake is ko
	assert.Equal(t, Empty, s.Board().At(Point{1, 1}))
	_, err := s.Play(White, mustMove(t, "b1"))
	assert.ErrorIs(t, err, ErrKo)

	s = koState(t, false)
	out, err := s.Play(White, mustMove(t, "b1"))
	require.NoError(t, err)
	assert.Equal(t, []Point{{2, 1}}, out.Captured)
}

func TestDeterministicReplay(t *testing.T) {
	moves := []Move{}
	for _, mv := range []string{"d4", "q16", "c3", "ps", "d3", "e4"} {
		moves = append(moves, mustMove(t, mv))
	}
	a, err := Replay(DefaultSize, true, moves)
	require.NoError(t, err)
	b, err := Replay(DefaultSize, true, moves)
	require.NoError(t, err)
	assert.Equal(t, a.Board().Cells(), b.Board().Cells())
	assert.Equal(t, a.Turn(), b.Turn())
}

func TestDiff(t *testing.T) {
	prev := setup(t, DefaultSize, []string{"a2", "c2", "b1"}, []string{"b2"})
	out, err := Apply(prev, nil, Black, mustMove(t, "b3"))
	require.NoError(t, err)

	changes := Diff(prev, out.Board)
	assert.Equal(t, []Change{
		{Point: Point{1, 2}, Color: Empty},
		{Point: Point{1, 3}, Color: Black},
	}, changes)
}

func TestStateCloneIsIndependent(t *testing.T) {
	s := NewState(DefaultSize, true)
	_, err := s.Play(Black, mustMove(t, "d4"))
	require.NoError(t, err)

	cp := s.Clone()
	_, err = cp.Play(White, mustMove(t, "q16"))
	require.NoError(t, err)

	assert.Equal(t, 1, s.Len())
	assert.Equal(t, White, s.Turn())
	assert.Equal(t, Empty, s.Board().At(Point{16, 16}))
	assert.Equal(t, 2, cp.Len())
}
