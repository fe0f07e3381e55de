package rating

import (
	"math"

	"goarena/internal/domain/board"
	"goarena/internal/domain/game"
	"goarena/internal/domain/user"
)

const (
	// K is the Elo development coefficient.
	K = 20.0
	// Default is the rating of a player with no rated games.
	Default = 400
)

// Expected is the score r is expected to take from a game against op.
func Expected(r, op int) float64 {
	return 1 / (1 + math.Pow(10, float64(op-r)/400))
}

// Next is r after scoring score (1 win, 0.5 draw, 0 loss) against op.
func Next(r, op int, score float64) int {
	return r + int(math.Round(K*(score-Expected(r, op))))
}

// Change is the movement of both ratings after one game.
type Change struct {
	Black      int
	White      int
	BlackDelta int
	WhiteDelta int
}

// Apply rates one game. winner is board.Empty for a draw.
func Apply(black, white int, winner board.Color) Change {
	blackScore := 0.5
	switch winner {
	case board.Black:
		blackScore = 1
	case board.White:
		blackScore = 0
	}
	c := Change{
		Black: Next(black, white, blackScore),
		White: Next(white, black, 1-blackScore),
	}
	c.BlackDelta, c.WhiteDelta = c.Black-black, c.White-white
	return c
}

// Eligible reports whether a finished game moves ratings: human games between
// two registered players that were actually decided.
func Eligible(mode game.Mode, reason game.FinishReason, black, white user.Identity) bool {
	if mode != game.ModeHuman || reason == game.ReasonCancelled {
		return false
	}
	return black.Ranked() && white.Ranked()
}
