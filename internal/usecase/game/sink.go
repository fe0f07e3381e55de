package game

import (
	"context"
	"time"

	"go.uber.org/zap"

	"goarena/internal/domain/game"
)

type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap game.Snapshot) error
}

// SnapshotSink writes snapshots to a store from its own goroutine. Only the
// newest unsaved snapshot is kept, so Publish never blocks the session.
type SnapshotSink struct {
	store SnapshotStore
	log   *zap.SugaredLogger
	slot  chan game.Snapshot
	done  chan struct{}
}

func NewSnapshotSink(store SnapshotStore, log *zap.SugaredLogger) *SnapshotSink {
	return &SnapshotSink{
		store: store,
		log:   log,
		slot:  make(chan game.Snapshot, 1),
		done:  make(chan struct{}),
	}
}

// Publish must be called from a single goroutine.
func (k *SnapshotSink) Publish(snap game.Snapshot) {
	select {
	case <-k.slot:
	default:
	}
	k.slot <- snap
}

// Run saves snapshots until ctx is cancelled, then flushes the pending one.
func (k *SnapshotSink) Run(ctx context.Context) {
	defer close(k.done)
	for {
		select {
		case snap := <-k.slot:
			k.save(snap)
		case <-ctx.Done():
			select {
			case snap := <-k.slot:
				k.save(snap)
			default:
			}
			return
		}
	}
}

func (k *SnapshotSink) Done() <-chan struct{} {
	return k.done
}

func (k *SnapshotSink) save(snap game.Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := k.store.SaveSnapshot(ctx, snap); err != nil {
		k.log.Errorw("failed to save snapshot", "game_id", snap.GameID, "error", err)
	}
}
