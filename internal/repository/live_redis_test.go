package repo

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"goarena/internal/domain/game"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestLiveGameSnapshots(t *testing.T) {
	mr, client := newRedis(t)
	repo := NewLiveGameRepository(zap.NewNop().Sugar(), client)
	ctx := context.Background()

	snap := game.Snapshot{
		GameID:    "g1",
		Black:     "alice",
		White:     "bob",
		Status:    "active",
		History:   []string{"d4", "q16"},
		BTime:     1000,
		WTime:     2000,
		Winner:    game.WireNone,
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, repo.SaveSnapshot(ctx, snap))
	assert.Contains(t, mr.HGet(liveGameKey, "g1"), `"history":["d4","q16"]`)

	got, ok, err := repo.LoadSnapshot(ctx, "g1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, snap.History, got.History)
	assert.Equal(t, snap.BTime, got.BTime)
	assert.True(t, snap.CreatedAt.Equal(got.CreatedAt))

	require.NoError(t, repo.DeleteGame(ctx, "g1"))
	_, ok, err = repo.LoadSnapshot(ctx, "g1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLiveGameIdentityIndex(t *testing.T) {
	mr, client := newRedis(t)
	repo := NewLiveGameRepository(zap.NewNop().Sugar(), client)
	ctx := context.Background()

	id, err := repo.LookupIdentity(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, id)

	require.NoError(t, repo.BindIdentity(ctx, "alice", "g1"))
	assert.Equal(t, "g1", mr.HGet(liveGameKey, "identity:alice"))
	id, err = repo.LookupIdentity(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "g1", id)

	// a stale unbind for an older game keeps the newer binding
	require.NoError(t, repo.BindIdentity(ctx, "alice", "g2"))
	require.NoError(t, repo.UnbindIdentity(ctx, "alice", "g1"))
	id, err = repo.LookupIdentity(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "g2", id)

	require.NoError(t, repo.UnbindIdentity(ctx, "alice", "g2"))
	id, err = repo.LookupIdentity(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, id)

	require.NoError(t, repo.UnbindIdentity(ctx, "nobody", "g2"))
}

func TestLiveGameRedisDown(t *testing.T) {
	mr, client := newRedis(t)
	repo := NewLiveGameRepository(zap.NewNop().Sugar(), client)
	mr.Close()

	assert.Error(t, repo.SaveSnapshot(context.Background(), game.Snapshot{GameID: "g1"}))
	_, err := repo.LookupIdentity(context.Background(), "alice")
	assert.Error(t, err)
}
