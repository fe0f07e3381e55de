package registry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"goarena/internal/domain/game"
	"goarena/internal/domain/rating"
	"goarena/internal/domain/user"
	errs "goarena/internal/errors"
	gameuc "goarena/internal/usecase/game"
)

// LiveStore mirrors in-progress games outside the process.
type LiveStore interface {
	gameuc.SnapshotStore
	BindIdentity(ctx context.Context, identity, gameID string) error
	UnbindIdentity(ctx context.Context, identity, gameID string) error
	LookupIdentity(ctx context.Context, identity string) (string, error)
	DeleteGame(ctx context.Context, gameID string) error
}

type Archive interface {
	SaveRecord(ctx context.Context, rec game.Record) error
	FindRecord(ctx context.Context, gameID string) (game.Record, error)
}

// Ratings settles a finished game; rated is false for games that do not count.
type Ratings interface {
	Settle(ctx context.Context, rec game.Record, black, white user.Identity) (change rating.Change, rated bool, err error)
}

type Config struct {
	Size            int
	Komi            float64
	Ko              bool
	MainTime        time.Duration
	StartTimeout    time.Duration
	RetentionWindow time.Duration
	// Now is handed to every session; nil means time.Now.
	Now func() time.Time
}

type entry struct {
	session    *gameuc.Session
	sink       *gameuc.SnapshotSink
	sinkCancel context.CancelFunc
	reclaim    *time.Timer
	// closed once ratings are settled
	rated chan struct{}
}

// Registry indexes sessions by id and active sessions by player identity.
type Registry struct {
	cfg     Config
	log     *zap.SugaredLogger
	live    LiveStore
	archive Archive
	ratings Ratings

	mu         sync.RWMutex
	byID       map[string]*entry
	byIdentity map[string]string
}

// New creates a registry. live, archive and ratings may be nil.
func New(cfg Config, log *zap.SugaredLogger, live LiveStore, archive Archive, ratings Ratings) *Registry {
	return &Registry{
		cfg:        cfg,
		log:        log,
		live:       live,
		archive:    archive,
		ratings:    ratings,
		byID:       make(map[string]*entry),
		byIdentity: make(map[string]string),
	}
}

// Create starts a session for the pair. Each human may hold one active session.
func (r *Registry) Create(ctx context.Context, mode game.Mode, black, white user.Identity) (*gameuc.Session, error) {
	id := uuid.New().String()

	if black.ID == white.ID {
		return nil, errs.ErrAlreadyInGame
	}

	r.mu.Lock()
	for _, p := range []user.Identity{black, white} {
		if p.IsBot() {
			continue
		}
		if _, busy := r.byIdentity[p.ID]; busy {
			r.mu.Unlock()
			return nil, errs.ErrAlreadyInGame
		}
	}

	opts := gameuc.Options{
		ID:           id,
		Mode:         mode,
		Black:        black,
		White:        white,
		Size:         r.cfg.Size,
		Komi:         r.cfg.Komi,
		Ko:           r.cfg.Ko,
		MainTime:     r.cfg.MainTime,
		StartTimeout: r.cfg.StartTimeout,
		Log:          r.log,
		Now:          r.cfg.Now,
		OnFinish:     r.finished,
	}
	e := &entry{}
	var sink *gameuc.SnapshotSink
	sinkCtx, sinkCancel := context.WithCancel(context.Background())
	if r.live != nil {
		sink = gameuc.NewSnapshotSink(r.live, r.log)
		opts.OnSnapshot = sink.Publish
		e.sink, e.sinkCancel = sink, sinkCancel
	} else {
		sinkCancel()
	}
	e.session = gameuc.NewSession(opts)
	r.byID[id] = e
	for _, p := range []user.Identity{black, white} {
		if !p.IsBot() {
			r.byIdentity[p.ID] = id
		}
	}
	r.mu.Unlock()

	if sink != nil {
		go sink.Run(sinkCtx)
		for _, p := range []user.Identity{black, white} {
			if p.IsBot() {
				continue
			}
			if err := r.live.BindIdentity(ctx, p.ID, id); err != nil {
				r.log.Errorw("failed to index live game", "game_id", id, "identity", p.ID, "error", err)
			}
		}
	}
	go e.session.Run()

	r.log.Infow("game created", "game_id", id, "mode", string(mode), "black", black.ID, "white", white.ID)
	return e.session, nil
}

func (r *Registry) Get(gameID string) (*gameuc.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byID[gameID]
	if !ok {
		return nil, false
	}
	return e.session, true
}

// Lookup returns the unfinished session identity plays in.
func (r *Registry) Lookup(identity string) (*gameuc.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byIdentity[identity]
	if !ok {
		return nil, false
	}
	e, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	return e.session, true
}

// Pending reports the game id identity can reconnect to. The live store is
// consulted when this process does not know the identity.
func (r *Registry) Pending(ctx context.Context, identity string) (string, bool) {
	if s, ok := r.Lookup(identity); ok {
		return s.ID(), true
	}
	if r.live == nil {
		return "", false
	}
	id, err := r.live.LookupIdentity(ctx, identity)
	if err != nil {
		r.log.Warnw("live lookup failed", "identity", identity, "error", err)
		return "", false
	}
	return id, id != ""
}

// Review returns the record of a game: live state while the session is held
// in memory, otherwise the archive.
func (r *Registry) Review(ctx context.Context, gameID string) (game.Record, error) {
	if s, ok := r.Get(gameID); ok {
		if rec, done := s.Record(); done {
			return rec, nil
		}
		snap := s.Snapshot()
		return game.Record{
			GameID:    snap.GameID,
			Mode:      snap.Mode,
			Black:     snap.Black,
			White:     snap.White,
			BlackName: snap.BlackName,
			WhiteName: snap.WhiteName,
			Winner:    game.WireNone,
			Moves:     snap.History,
			Chat:      snap.Chat,
			CreatedAt: snap.CreatedAt,
		}, nil
	}
	if r.archive == nil {
		return game.Record{}, errs.ErrGameNotFound
	}
	rec, err := r.archive.FindRecord(ctx, gameID)
	if err != nil {
		if errors.Is(err, errs.ErrGameNotFound) {
			return game.Record{}, err
		}
		return game.Record{}, errors.Join(errs.ErrInternal, err)
	}
	return rec, nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// finished runs on the session goroutine.
func (r *Registry) finished(s *gameuc.Session) {
	r.mu.Lock()
	for _, p := range []user.Identity{s.Black(), s.White()} {
		if r.byIdentity[p.ID] == s.ID() {
			delete(r.byIdentity, p.ID)
		}
	}
	var rated chan struct{}
	if e, ok := r.byID[s.ID()]; ok {
		if r.ratings != nil {
			rated = make(chan struct{})
			e.rated = rated
		}
		e.reclaim = time.AfterFunc(r.cfg.RetentionWindow, func() { r.reclaim(s.ID()) })
	}
	r.mu.Unlock()

	if rated != nil {
		go r.settle(s, rated)
	}

	if r.live != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			for _, p := range []user.Identity{s.Black(), s.White()} {
				if p.IsBot() {
					continue
				}
				if err := r.live.UnbindIdentity(ctx, p.ID, s.ID()); err != nil {
					r.log.Errorw("failed to unindex live game", "game_id", s.ID(), "error", err)
				}
			}
		}()
	}
}

func (r *Registry) settle(s *gameuc.Session, done chan struct{}) {
	defer close(done)
	rec, ok := s.Record()
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	change, rated, err := r.ratings.Settle(ctx, rec, s.Black(), s.White())
	if err != nil {
		r.log.Errorw("failed to update ratings", "game_id", s.ID(), "error", err)
		return
	}
	if rated {
		s.SetRating(change)
	}
}

// reclaim archives a finished session and frees it.
func (r *Registry) reclaim(gameID string) {
	r.mu.Lock()
	e, ok := r.byID[gameID]
	var rated chan struct{}
	if ok {
		delete(r.byID, gameID)
		rated = e.rated
	}
	r.mu.Unlock()
	if !ok {
		return
	}
	if rated != nil {
		<-rated
	}

	e.session.Close()
	<-e.session.Done()
	e.stopSink()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if rec, done := e.session.Record(); done && r.archive != nil {
		if err := r.archive.SaveRecord(ctx, rec); err != nil {
			r.log.Errorw("failed to archive game", "game_id", gameID, "error", err)
		}
	}
	if r.live != nil {
		if err := r.live.DeleteGame(ctx, gameID); err != nil {
			r.log.Errorw("failed to drop live game", "game_id", gameID, "error", err)
		}
	}
	r.log.Infow("game reclaimed", "game_id", gameID)
}

func (e *entry) stopSink() {
	if e.sink == nil {
		return
	}
	e.sinkCancel()
	<-e.sink.Done()
}

// Shutdown stops every session. Finished ones are archived right away,
// unfinished ones stay in the live store for another instance.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	var finished []string
	var running []*entry
	for id, e := range r.byID {
		if e.reclaim != nil && e.reclaim.Stop() {
			finished = append(finished, id)
			continue
		}
		running = append(running, e)
	}
	r.mu.Unlock()

	for _, id := range finished {
		r.reclaim(id)
	}
	for _, e := range running {
		e.session.Close()
		<-e.session.Done()
		e.stopSink()
	}
}
