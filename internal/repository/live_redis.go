package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"goarena/internal/domain/game"
)

const (
	liveGameKey    = "live_game"
	identityPrefix = "identity:"
)

// LiveGameRepository mirrors running games into one redis hash: game ids map
// to JSON snapshots, "identity:<id>" fields map players to their game.
type LiveGameRepository struct {
	log   *zap.SugaredLogger
	redis *redis.Client
}

func NewLiveGameRepository(log *zap.SugaredLogger, redis *redis.Client) *LiveGameRepository {
	return &LiveGameRepository{
		log:   log,
		redis: redis,
	}
}

func (l *LiveGameRepository) SaveSnapshot(ctx context.Context, snap game.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return l.redis.HSet(ctx, liveGameKey, snap.GameID, data).Err()
}

// LoadSnapshot reports ok == false when the game is not mirrored.
func (l *LiveGameRepository) LoadSnapshot(ctx context.Context, gameID string) (game.Snapshot, bool, error) {
	raw, err := l.redis.HGet(ctx, liveGameKey, gameID).Bytes()
	if errors.Is(err, redis.Nil) {
		return game.Snapshot{}, false, nil
	}
	if err != nil {
		return game.Snapshot{}, false, err
	}
	var snap game.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return game.Snapshot{}, false, fmt.Errorf("failed to unmarshal snapshot %s: %w", gameID, err)
	}
	return snap, true, nil
}

func (l *LiveGameRepository) BindIdentity(ctx context.Context, identity, gameID string) error {
	return l.redis.HSet(ctx, liveGameKey, identityPrefix+identity, gameID).Err()
}

// UnbindIdentity removes the index entry only while it still points at gameID.
func (l *LiveGameRepository) UnbindIdentity(ctx context.Context, identity, gameID string) error {
	field := identityPrefix + identity
	return l.redis.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, liveGameKey, field).Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		if current != gameID {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HDel(ctx, liveGameKey, field)
			return nil
		})
		return err
	}, liveGameKey)
}

func (l *LiveGameRepository) LookupIdentity(ctx context.Context, identity string) (string, error) {
	id, err := l.redis.HGet(ctx, liveGameKey, identityPrefix+identity).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return id, err
}

func (l *LiveGameRepository) DeleteGame(ctx context.Context, gameID string) error {
	if err := l.redis.HDel(ctx, liveGameKey, gameID).Err(); err != nil {
		return err
	}
	l.log.Debugw("live game dropped", "game_id", gameID)
	return nil
}
