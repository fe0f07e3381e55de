package codec

import (
	"encoding/base64"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goarena/internal/domain/board"
)

// randomPosition plays random legal moves so every board is reachable.
func randomPosition(rng *rand.Rand, moves int) *board.Board {
	s := board.NewState(board.DefaultSize, true)
	for i := 0; i < moves && !s.Ended(); i++ {
		var m board.Move
		if rng.Intn(40) == 0 {
			m = board.PassMove()
		} else {
			m = board.PlaceAt(rng.Intn(board.DefaultSize), rng.Intn(board.DefaultSize))
		}
		if _, err := s.Play(s.Turn(), m); err != nil {
			continue
		}
	}
	return s.Board()
}

func TestRoundTripRandomBoards(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		b := randomPosition(rng, rng.Intn(400))
		enc, err := EncodeBoard(b)
		require.NoError(t, err)
		assert.NotContains(t, enc, "+")
		assert.NotContains(t, enc, "/")

		dec, err := DecodeBoard(enc)
		require.NoError(t, err)
		require.True(t, b.Equal(dec), "board %d differs after round trip", i)
	}
}

func TestEmptyBoardLayout(t *testing.T) {
	enc, err := EncodeBoard(board.New(board.DefaultSize))
	require.NoError(t, err)

	raw, err := base64.URLEncoding.DecodeString(enc)
	require.NoError(t, err)
	assert.Equal(t, byte(19), raw[0])
	// an empty board compresses to a handful of bytes
	assert.Less(t, len(raw), 20)
}

func TestRowMajorOrder(t *testing.T) {
	b := board.New(board.DefaultSize)
	b.Set(board.Point{Col: 3, Row: 0}, board.Black)
	b.Set(board.Point{Col: 0, Row: 3}, board.White)
	enc, err := EncodeBoard(b)
	require.NoError(t, err)

	dec, err := DecodeBoard(enc)
	require.NoError(t, err)
	cells := dec.Cells()
	assert.Equal(t, board.Black, cells[3])
	assert.Equal(t, board.White, cells[3*19])
}

func TestDecodeCorrupt(t *testing.T) {
	enc, err := EncodeBoard(board.New(board.DefaultSize))
	require.NoError(t, err)

	raw, err := base64.URLEncoding.DecodeString(enc)
	require.NoError(t, err)
	raw[0] = 5

	cases := map[string]string{
		"not base64": "!!!",
		"too short":  base64.URLEncoding.EncodeToString([]byte{19}),
		"truncated":  enc[:len(enc)/2],
		"garbage":    base64.URLEncoding.EncodeToString([]byte{19, 0xff, 0xff, 0xff, 0x01}),
		"wrong size": base64.URLEncoding.EncodeToString(raw),
	}
	for name, state := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeBoard(state)
			assert.ErrorIs(t, err, ErrCorruptState)
		})
	}
}
