package rating

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"goarena/internal/domain/game"
	ratingDomain "goarena/internal/domain/rating"
	"goarena/internal/domain/user"
)

// Store keeps one rating per registered identity. Unknown identities have
// ratingDomain.Default.
type Store interface {
	GetRating(ctx context.Context, identity string) (int, error)
	SaveRating(ctx context.Context, identity string, rating int, won bool) error
}

type RatingUseCase struct {
	store Store
	log   *zap.SugaredLogger
}

func NewRatingUseCase(store Store, log *zap.SugaredLogger) *RatingUseCase {
	return &RatingUseCase{store: store, log: log}
}

// Settle updates both players after a finished game. It reports false for
// games that do not count.
func (r *RatingUseCase) Settle(ctx context.Context, rec game.Record, black, white user.Identity) (ratingDomain.Change, bool, error) {
	if !ratingDomain.Eligible(rec.Mode, rec.Reason, black, white) {
		return ratingDomain.Change{}, false, nil
	}

	blackRating, err := r.store.GetRating(ctx, black.ID)
	if err != nil {
		return ratingDomain.Change{}, false, fmt.Errorf("load rating of %s: %w", black.ID, err)
	}
	whiteRating, err := r.store.GetRating(ctx, white.ID)
	if err != nil {
		return ratingDomain.Change{}, false, fmt.Errorf("load rating of %s: %w", white.ID, err)
	}

	winner := game.ColorFromWire(rec.Winner)
	change := ratingDomain.Apply(blackRating, whiteRating, winner)
	if err := r.store.SaveRating(ctx, black.ID, change.Black, rec.Winner == game.WireBlack); err != nil {
		return ratingDomain.Change{}, false, fmt.Errorf("save rating of %s: %w", black.ID, err)
	}
	if err := r.store.SaveRating(ctx, white.ID, change.White, rec.Winner == game.WireWhite); err != nil {
		return ratingDomain.Change{}, false, fmt.Errorf("save rating of %s: %w", white.ID, err)
	}

	r.log.Infow("ratings updated", "game_id", rec.GameID,
		"black", black.ID, "black_rating", change.Black,
		"white", white.ID, "white_rating", change.White)
	return change, true, nil
}
