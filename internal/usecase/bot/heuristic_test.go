package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goarena/internal/domain/board"
)

func TestHeuristicCapturesFirst(t *testing.T) {
	req := Request{BoardSize: 19, Moves: []string{"b2", "a2", "q16", "c2", "q15", "b1", "q14"}}
	require.Equal(t, board.White, req.ToMove())

	move, err := Heuristic{}.GenerateMove(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "b3", move)
}

func TestHeuristicAnswersPassWithPass(t *testing.T) {
	move, err := Heuristic{}.GenerateMove(context.Background(), Request{BoardSize: 19, Moves: []string{"d4", "ps"}})
	require.NoError(t, err)
	assert.Equal(t, board.PassCoord, move)
}

func TestHeuristicIsDeterministicAndLegal(t *testing.T) {
	req := Request{BoardSize: 9, Moves: []string{"c2", "g6"}}
	first, err := Heuristic{}.GenerateMove(context.Background(), req)
	require.NoError(t, err)
	second, err := Heuristic{}.GenerateMove(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	mv, err := board.ParseMove(first)
	require.NoError(t, err)
	state, err := board.Replay(9, true, []board.Move{board.PlaceAt(2, 2), board.PlaceAt(6, 6)})
	require.NoError(t, err)
	_, err = state.Play(board.Black, mv)
	assert.NoError(t, err)
}

func TestHeuristicKeepsOwnEye(t *testing.T) {
	// black b0 and a1 wrap the a0 corner
	req := Request{BoardSize: 5, Moves: []string{"b0", "e4", "a1", "e3"}}
	move, err := Heuristic{}.GenerateMove(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, "a0", move)
}

func TestHeuristicRejectsBadHistory(t *testing.T) {
	_, err := Heuristic{}.GenerateMove(context.Background(), Request{BoardSize: 19, Moves: []string{"d4", "d4"}})
	assert.Error(t, err)

	_, err = Heuristic{}.GenerateMove(context.Background(), Request{BoardSize: 19, Moves: []string{"??"}})
	assert.Error(t, err)
}

func TestHeuristicFollowsKoSetting(t *testing.T) {
	retake := []string{"s18", "d4", "e4", "c3", "f3", "d2", "e2", "a0", "d3", "e3", "d3"}

	move, err := Heuristic{}.GenerateMove(context.Background(), Request{BoardSize: 19, Ko: false, Moves: retake})
	require.NoError(t, err)
	assert.NotEmpty(t, move)

	_, err = Heuristic{}.GenerateMove(context.Background(), Request{BoardSize: 19, Ko: true, Moves: retake})
	assert.ErrorIs(t, err, board.ErrKo)
}
