package bot

import (
	"context"
	"fmt"

	"goarena/internal/domain/board"
)

// Request is everything a generator needs: the side to move follows from the
// history length, black moving first.
type Request struct {
	BoardSize int
	Komi      float64
	// Ko enables the simple ko rule, matching the session that asked.
	Ko    bool
	Moves []string
}

func (r Request) ToMove() board.Color {
	if len(r.Moves)%2 == 0 {
		return board.Black
	}
	return board.White
}

type Generator interface {
	GenerateMove(ctx context.Context, req Request) (string, error)
}

// Heuristic is a deterministic local generator: capture when possible,
// otherwise the move keeping the most liberties, never filling its own eyes.
// It passes when the opponent has just passed.
type Heuristic struct{}

func (Heuristic) GenerateMove(ctx context.Context, req Request) (string, error) {
	moves := make([]board.Move, 0, len(req.Moves))
	for _, m := range req.Moves {
		mv, err := board.ParseMove(m)
		if err != nil {
			return "", err
		}
		moves = append(moves, mv)
	}
	size := req.BoardSize
	if size == 0 {
		size = board.DefaultSize
	}
	state, err := board.Replay(size, req.Ko, moves)
	if err != nil {
		return "", fmt.Errorf("heuristic: %w", err)
	}
	if last, ok := state.LastMove(); ok && last.IsPass() {
		return board.PassCoord, nil
	}
	return bestMove(ctx, state).String(), nil
}

func bestMove(ctx context.Context, state *board.State) board.Move {
	b := state.Board()
	me := state.Turn()
	best, bestScore := board.PassMove(), 0

	for row := 0; row < b.Size(); row++ {
		if ctx.Err() != nil {
			break
		}
		for col := 0; col < b.Size(); col++ {
			p := board.Point{Col: col, Row: row}
			if b.At(p) != board.Empty || ownEye(b, p, me) {
				continue
			}
			score, ok := evaluate(state, p)
			if ok && score > bestScore {
				best, bestScore = board.PlaceAt(col, row), score
			}
		}
	}
	return best
}

// evaluate tries p on a copy of the state; higher is better.
func evaluate(state *board.State, p board.Point) (int, bool) {
	cp := state.Clone()
	out, err := cp.Play(cp.Turn(), board.Move{Kind: board.Place, Point: p})
	if err != nil {
		return 0, false
	}
	_, libs := out.Board.Group(p)
	score := 10 + len(out.Captured)*100 + libs*3 + edgeDistance(p, out.Board.Size())
	if libs == 1 {
		score -= 60
	}
	return score, true
}

func edgeDistance(p board.Point, size int) int {
	d := p.Col
	for _, v := range []int{p.Row, size - 1 - p.Col, size - 1 - p.Row} {
		if v < d {
			d = v
		}
	}
	if d > 3 {
		return 3
	}
	return d
}

func ownEye(b *board.Board, p board.Point, me board.Color) bool {
	for _, n := range []board.Point{
		{Col: p.Col - 1, Row: p.Row}, {Col: p.Col + 1, Row: p.Row},
		{Col: p.Col, Row: p.Row - 1}, {Col: p.Col, Row: p.Row + 1},
	} {
		if b.InBounds(n) && b.At(n) != me {
			return false
		}
	}
	return true
}
