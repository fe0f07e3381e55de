package matchmaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"goarena/internal/domain/board"
	"goarena/internal/domain/game"
	"goarena/internal/domain/user"
	errs "goarena/internal/errors"
	"goarena/internal/usecase/bot"
	gameuc "goarena/internal/usecase/game"
)

// SessionStore is the part of the registry the matchmaker allocates from.
type SessionStore interface {
	Create(ctx context.Context, mode game.Mode, black, white user.Identity) (*gameuc.Session, error)
	Lookup(identity string) (*gameuc.Session, bool)
}

type Config struct {
	TicketTTL time.Duration
	Bot       bot.Config
}

// Match is where a ticket ended up.
type Match struct {
	TicketID string
	GameID   string
	Color    board.Color
}

// Ticket is a pending request for an opponent.
type Ticket struct {
	ID        string
	Identity  user.Identity
	Mode      game.Mode
	CreatedAt time.Time

	done  chan struct{}
	match Match
	err   error
}

func newTicket(identity user.Identity, mode game.Mode, now time.Time) *Ticket {
	return &Ticket{
		ID:        uuid.New().String(),
		Identity:  identity,
		Mode:      mode,
		CreatedAt: now,
		done:      make(chan struct{}),
	}
}

// Wait blocks until the ticket is paired, cancelled or expired.
func (t *Ticket) Wait(ctx context.Context) (Match, error) {
	select {
	case <-t.done:
		return t.match, t.err
	case <-ctx.Done():
		return Match{}, ctx.Err()
	}
}

func (t *Ticket) resolve(m Match, err error) {
	m.TicketID = t.ID
	t.match, t.err = m, err
	close(t.done)
}

// pools are split by mode and by whether the identity may play ranked.
type poolKey struct {
	mode   game.Mode
	ranked bool
}

type Matchmaker struct {
	cfg       Config
	log       *zap.SugaredLogger
	sessions  SessionStore
	generator bot.Generator
	now       func() time.Time

	mu      sync.Mutex
	pools   map[poolKey][]*Ticket
	waiting map[string]*Ticket
	// tickets whose game is being created right now
	pairing map[string]*Ticket

	botCtx    context.Context
	botCancel context.CancelFunc
}

// New creates a matchmaker. generator may be nil; bots then use the local
// heuristic.
func New(cfg Config, sessions SessionStore, generator bot.Generator, log *zap.SugaredLogger) *Matchmaker {
	if cfg.TicketTTL == 0 {
		cfg.TicketTTL = 2 * time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Matchmaker{
		cfg:       cfg,
		log:       log,
		sessions:  sessions,
		generator: generator,
		now:       time.Now,
		pools:     make(map[poolKey][]*Ticket),
		waiting:   make(map[string]*Ticket),
		pairing:   make(map[string]*Ticket),
		botCtx:    ctx,
		botCancel: cancel,
	}
}

// Enqueue files a ticket for identity. A retry from an identity that already
// waits gets the same ticket back; one that already plays gets its session.
func (m *Matchmaker) Enqueue(ctx context.Context, identity user.Identity, mode game.Mode) (*Ticket, error) {
	if _, ok := game.ParseMode(string(mode)); !ok {
		return nil, errs.ErrBadMode
	}

	m.mu.Lock()
	if t, ok := m.waiting[identity.ID]; ok {
		m.mu.Unlock()
		return t, nil
	}
	if t, ok := m.pairing[identity.ID]; ok {
		m.mu.Unlock()
		return t, nil
	}
	if s, ok := m.sessions.Lookup(identity.ID); ok {
		m.mu.Unlock()
		t := newTicket(identity, s.Mode(), m.now())
		t.resolve(Match{GameID: s.ID(), Color: s.ColorOf(identity.ID)}, nil)
		return t, nil
	}

	t := newTicket(identity, mode, m.now())
	if mode == game.ModeBot {
		m.pairing[identity.ID] = t
		m.mu.Unlock()
		m.startBotGame(ctx, t)
		m.mu.Lock()
		delete(m.pairing, identity.ID)
		m.mu.Unlock()
		return t, nil
	}

	key := poolKey{mode: mode, ranked: !identity.IsGuest()}
	m.pools[key] = append(m.pools[key], t)
	m.waiting[identity.ID] = t
	first, second := m.takePair(key)
	m.mu.Unlock()

	if first == nil {
		m.log.Debugw("ticket queued", "ticket_id", t.ID, "identity", identity.ID, "mode", string(mode))
		return t, nil
	}
	m.pair(ctx, key, first, second)
	return t, nil
}

// takePair moves the two oldest tickets of key from waiting to pairing.
// Callers hold mu.
func (m *Matchmaker) takePair(key poolKey) (*Ticket, *Ticket) {
	queue := m.pools[key]
	if len(queue) < 2 {
		return nil, nil
	}
	first, second := queue[0], queue[1]
	m.pools[key] = queue[2:]
	for _, t := range []*Ticket{first, second} {
		delete(m.waiting, t.Identity.ID)
		m.pairing[t.Identity.ID] = t
	}
	return first, second
}

// pair starts a game; the longer waiting ticket plays black. When the game
// cannot be created because one side is already playing, that side is sent
// to its game and the other goes back to the head of the queue.
func (m *Matchmaker) pair(ctx context.Context, key poolKey, first, second *Ticket) {
	s, err := m.sessions.Create(ctx, first.Mode, first.Identity, second.Identity)

	m.mu.Lock()
	delete(m.pairing, first.Identity.ID)
	delete(m.pairing, second.Identity.ID)
	if err == nil {
		m.mu.Unlock()
		first.resolve(Match{GameID: s.ID(), Color: board.Black}, nil)
		second.resolve(Match{GameID: s.ID(), Color: board.White}, nil)
		return
	}
	m.log.Warnw("failed to create paired game", "black", first.Identity.ID, "white", second.Identity.ID, "error", err)

	if !errors.Is(err, errs.ErrAlreadyInGame) {
		m.mu.Unlock()
		first.resolve(Match{}, err)
		second.resolve(Match{}, err)
		return
	}

	var requeue, resolved []*Ticket
	var matches []Match
	for _, t := range []*Ticket{first, second} {
		if busy, ok := m.sessions.Lookup(t.Identity.ID); ok {
			resolved = append(resolved, t)
			matches = append(matches, Match{GameID: busy.ID(), Color: busy.ColorOf(t.Identity.ID)})
			continue
		}
		requeue = append(requeue, t)
	}
	if len(resolved) == 0 {
		// nobody is actually busy; do not loop on the same pair
		m.mu.Unlock()
		first.resolve(Match{}, err)
		second.resolve(Match{}, err)
		return
	}
	m.pools[key] = append(requeue, m.pools[key]...)
	for _, t := range requeue {
		m.waiting[t.Identity.ID] = t
	}
	next1, next2 := m.takePair(key)
	m.mu.Unlock()

	for i, t := range resolved {
		t.resolve(matches[i], nil)
	}
	if next1 != nil {
		m.pair(ctx, key, next1, next2)
	}
}

func (m *Matchmaker) startBotGame(ctx context.Context, t *Ticket) {
	s, err := m.sessions.Create(ctx, game.ModeBot, t.Identity, user.Bot())
	if err != nil {
		t.resolve(Match{}, err)
		return
	}

	botCtx, cancel := context.WithCancel(m.botCtx)
	player := bot.NewPlayer(m.cfg.Bot, s, m.generator, m.log.With("game_id", s.ID(), "bot", true))
	go player.Run(botCtx)
	go func() {
		select {
		case <-s.Done():
		case <-botCtx.Done():
		}
		cancel()
	}()

	if err := s.Attach(ctx, user.Bot().ID, player, true); err != nil {
		cancel()
		t.resolve(Match{}, err)
		return
	}
	t.resolve(Match{GameID: s.ID(), Color: board.Black}, nil)
}

// Cancel withdraws the waiting ticket of identity.
func (m *Matchmaker) Cancel(identity string) error {
	m.mu.Lock()
	t, ok := m.waiting[identity]
	if ok {
		m.remove(t)
	}
	m.mu.Unlock()
	if !ok {
		return errs.ErrTicketNotFound
	}
	t.resolve(Match{}, errs.ErrTicketCancelled)
	return nil
}

// remove drops t from its pool. Callers hold mu.
func (m *Matchmaker) remove(t *Ticket) {
	delete(m.waiting, t.Identity.ID)
	key := poolKey{mode: t.Mode, ranked: !t.Identity.IsGuest()}
	queue := m.pools[key]
	for i, q := range queue {
		if q == t {
			m.pools[key] = append(queue[:i:i], queue[i+1:]...)
			return
		}
	}
}

// Waiting is the number of queued tickets.
func (m *Matchmaker) Waiting() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.waiting)
}

// Run expires stale tickets until ctx is done, then stops every bot.
func (m *Matchmaker) Run(ctx context.Context) error {
	interval := m.cfg.TicketTTL / 4
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer m.botCancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.expire()
		}
	}
}

func (m *Matchmaker) expire() {
	deadline := m.now().Add(-m.cfg.TicketTTL)
	var stale []*Ticket

	m.mu.Lock()
	for _, t := range m.waiting {
		if t.CreatedAt.Before(deadline) {
			stale = append(stale, t)
		}
	}
	for _, t := range stale {
		m.remove(t)
	}
	m.mu.Unlock()

	for _, t := range stale {
		m.log.Infow("ticket expired", "ticket_id", t.ID, "identity", t.Identity.ID)
		t.resolve(Match{}, errs.ErrTicketExpired)
	}
}
