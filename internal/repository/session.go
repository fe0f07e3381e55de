package repo

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const sessionPrefix = "session:"

// RedisSessionStorage reads login sessions written by the account service.
type RedisSessionStorage struct {
	client *redis.Client
	log    *zap.SugaredLogger
}

func NewSessionRedisStorage(redis *redis.Client, log *zap.SugaredLogger) *RedisSessionStorage {
	return &RedisSessionStorage{
		client: redis,
		log:    log,
	}
}

func (r *RedisSessionStorage) GetUsernameBySession(ctx context.Context, sessionID string) (username string, ok bool) {
	v, err := r.client.Get(ctx, sessionPrefix+sessionID).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.Errorw("session lookup failed", "error", err)
		}
		return "", false
	}
	return v, v != ""
}

func (r *RedisSessionStorage) StoreSession(ctx context.Context, sessionID, username string, ttl time.Duration) error {
	return r.client.Set(ctx, sessionPrefix+sessionID, username, ttl).Err()
}

func (r *RedisSessionStorage) DeleteSession(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, sessionPrefix+sessionID).Err()
}
