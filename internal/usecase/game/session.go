package game

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"goarena/internal/domain/board"
	"goarena/internal/domain/game"
	"goarena/internal/domain/rating"
	"goarena/internal/domain/sgf"
	"goarena/internal/domain/user"
	errs "goarena/internal/errors"
)

// Peer is one attached party: a player socket, a spectator socket or the bot.
// Deliver must never block the caller.
type Peer interface {
	Deliver(msg any)
}

// Replaceable peers are told when a newer connection takes their seat.
type Replaceable interface {
	Replaced()
}

type Options struct {
	ID           string
	Mode         game.Mode
	Black        user.Identity
	White        user.Identity
	Size         int
	Komi         float64
	Ko           bool
	MainTime     time.Duration
	StartTimeout time.Duration

	Log *zap.SugaredLogger
	// Now is the wall clock; tests replace it.
	Now func() time.Time
	// OnSnapshot receives every published snapshot from the session goroutine.
	OnSnapshot func(game.Snapshot)
	// OnFinish runs once on the session goroutine after the gameover broadcast.
	OnFinish func(*Session)
}

type seat struct {
	identity user.Identity
	color    board.Color
	peer     Peer
	synced   bool
}

// Session is the authoritative state of one game. All mutation happens on the
// goroutine started by Run; other goroutines talk to it through events.
type Session struct {
	opts      Options
	log       *zap.SugaredLogger
	now       func() time.Time
	createdAt time.Time

	events chan event
	quit   chan struct{}
	done   chan struct{}
	once   sync.Once

	// owned by the session goroutine
	state      *board.State
	clock      *Clock
	seats      [2]*seat
	spectators map[Peer]struct{}
	status     game.Status
	chat       []game.ChatEntry
	timer      *time.Timer
	startTimer *time.Timer
	score      board.Score

	mu        sync.RWMutex
	published game.Snapshot
	record    *game.Record
}

func NewSession(opts Options) *Session {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop().Sugar()
	}
	if opts.Size == 0 {
		opts.Size = board.DefaultSize
	}
	s := &Session{
		opts:       opts,
		log:        opts.Log.With("game_id", opts.ID),
		now:        opts.Now,
		events:     make(chan event, 64),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		state:      board.NewState(opts.Size, opts.Ko),
		clock:      NewClock(opts.MainTime),
		spectators: make(map[Peer]struct{}),
		status:     game.StatusWaitingSync,
	}
	s.createdAt = s.now()
	s.seats[0] = &seat{identity: opts.Black, color: board.Black}
	s.seats[1] = &seat{identity: opts.White, color: board.White}
	s.publish()
	return s
}

func (s *Session) ID() string {
	return s.opts.ID
}

func (s *Session) Mode() game.Mode {
	return s.opts.Mode
}

func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

func (s *Session) Black() user.Identity {
	return s.opts.Black
}

func (s *Session) White() user.Identity {
	return s.opts.White
}

// ColorOf returns the seat color of id, or Empty when id is not a player.
func (s *Session) ColorOf(id string) board.Color {
	switch id {
	case s.opts.Black.ID:
		return board.Black
	case s.opts.White.ID:
		return board.White
	}
	return board.Empty
}

// Snapshot returns the state as of the last processed event.
func (s *Session) Snapshot() game.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := s.published
	snap.History = append([]string(nil), snap.History...)
	snap.Chat = append([]game.ChatEntry(nil), snap.Chat...)
	return snap
}

func (s *Session) Status() game.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch s.published.Status {
	case game.StatusActive.String():
		return game.StatusActive
	case game.StatusFinished.String():
		return game.StatusFinished
	}
	return game.StatusWaitingSync
}

// Record is available once the session has finished.
func (s *Session) Record() (game.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.record == nil {
		return game.Record{}, false
	}
	return *s.record, true
}

// SetRating adds the rating movement to the finished game's record.
func (s *Session) SetRating(change rating.Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.record == nil {
		return
	}
	s.record.Rated = true
	s.record.BlackDelta, s.record.WhiteDelta = change.BlackDelta, change.WhiteDelta
}

// Run processes events until Close. It arms the start timeout first.
func (s *Session) Run() {
	defer close(s.done)
	if s.opts.StartTimeout > 0 {
		s.startTimer = time.AfterFunc(s.opts.StartTimeout, func() { s.post(startTimeoutEvent{}) })
	}
	for {
		select {
		case ev := <-s.events:
			s.handle(ev)
		case <-s.quit:
			s.stopTimers()
			return
		}
	}
}

// Close stops the session goroutine. Pending events are dropped.
func (s *Session) Close() {
	s.once.Do(func() { close(s.quit) })
}

func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Attach binds p to the seat of identity id, replacing any previous peer.
// With resync the peer immediately receives a full sync.
func (s *Session) Attach(ctx context.Context, id string, p Peer, resync bool) error {
	reply := make(chan error, 1)
	if !s.post(attachEvent{id: id, peer: p, resync: resync, reply: reply}) {
		return errs.ErrSessionClosed
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return errs.ErrSessionClosed
	}
}

// Spectate adds a read-only peer and sends it a sync.
func (s *Session) Spectate(p Peer) error {
	if !s.post(spectateEvent{peer: p}) {
		return errs.ErrSessionClosed
	}
	return nil
}

// Detach clears p from whatever it is bound to. The clock keeps running.
func (s *Session) Detach(p Peer) {
	s.post(detachEvent{peer: p})
}

// Submit queues a client message from p. Messages from one peer are handled
// in submission order.
func (s *Session) Submit(p Peer, msg game.ClientMessage) error {
	if !s.post(messageEvent{peer: p, msg: msg}) {
		return errs.ErrSessionClosed
	}
	return nil
}

func (s *Session) post(ev event) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}

func (s *Session) handle(ev event) {
	switch e := ev.(type) {
	case attachEvent:
		e.reply <- s.attach(e)
	case spectateEvent:
		s.spectators[e.peer] = struct{}{}
		s.sendSync(e.peer, nil)
		s.sendGameOverTo(e.peer)
	case detachEvent:
		s.detach(e.peer)
	case messageEvent:
		s.dispatch(e.peer, e.msg)
	case tickEvent:
		s.checkClock()
	case startTimeoutEvent:
		if s.status == game.StatusWaitingSync {
			s.log.Info("game never started, cancelling")
			s.finish(board.Empty, game.ReasonCancelled)
		}
	}
}

func (s *Session) attach(e attachEvent) error {
	st := s.seatOf(e.id)
	if st == nil {
		return errs.ErrGameNotFound
	}
	if st.peer != nil && st.peer != e.peer {
		s.log.Infow("replacing stale connection", "identity", e.id)
		if r, ok := st.peer.(Replaceable); ok {
			r.Replaced()
		}
	}
	st.peer = e.peer
	if e.resync {
		s.syncSeat(st)
		s.sendGameOverTo(st.peer)
	}
	return nil
}

func (s *Session) detach(p Peer) {
	if _, ok := s.spectators[p]; ok {
		delete(s.spectators, p)
		return
	}
	for _, st := range s.seats {
		if st.peer == p {
			st.peer = nil
			s.log.Infow("player disconnected", "identity", st.identity.ID)
		}
	}
}

func (s *Session) dispatch(p Peer, msg game.ClientMessage) {
	st := s.seatOfPeer(p)
	if st == nil {
		if _, ok := s.spectators[p]; ok {
			if _, isReq := msg.(game.ReqState); isReq {
				s.sendSync(p, nil)
				s.sendGameOverTo(p)
				return
			}
			s.log.Debugw("ignoring message from spectator", "message", msg)
		}
		return
	}

	// expiry is detected lazily on any inbound event as well as by the timer
	s.checkClock()

	switch m := msg.(type) {
	case game.ReqState:
		s.syncSeat(st)
		s.sendGameOverTo(p)
	case game.MoveRequest:
		s.move(st, m.Move)
	case game.ChatRequest:
		s.chatFrom(st, m.Message)
	case game.Abort:
		if s.status == game.StatusFinished {
			return
		}
		s.log.Infow("game aborted", "identity", st.identity.ID)
		s.finish(st.color.Opponent(), game.ReasonAbort)
	}
}

func (s *Session) move(st *seat, coord string) {
	if s.status != game.StatusActive || st.color != s.state.Turn() {
		s.sendMoveStatus(st, coord, false, false)
		return
	}
	mv, err := board.ParseMove(coord)
	if err != nil {
		s.sendMoveStatus(st, coord, true, false)
		return
	}
	out, err := s.state.Play(st.color, mv)
	if err != nil {
		s.log.Debugw("rejected move", "move", coord, "error", err)
		s.sendMoveStatus(st, coord, true, false)
		return
	}

	left := s.clock.Switch(s.now())
	ended := left <= 0 || s.state.Ended()
	if !ended {
		s.armTimer()
	}
	s.publish()

	encoded := s.encode()
	s.sendMoveStatus(st, mv.String(), true, true)
	other := s.seats[1-s.seatIndex(st)]
	if other.peer != nil {
		other.peer.Deliver(s.moveMsg(mv, st.color, encoded, other.color))
	}
	for p := range s.spectators {
		p.Deliver(s.moveMsg(mv, st.color, encoded, board.Black))
	}
	if len(out.Captured) > 0 {
		s.log.Debugw("stones captured", "move", mv.String(), "count", len(out.Captured))
	}

	switch {
	case left <= 0:
		s.finish(st.color.Opponent(), game.ReasonTime)
	case s.state.Ended():
		s.score = board.AreaScore(s.state.Board(), s.opts.Komi)
		s.finish(s.score.Winner(), game.ReasonScore)
	}
}

func (s *Session) chatFrom(st *seat, text string) {
	if len(text) > game.MaxChatLength {
		text = text[:game.MaxChatLength]
		for !utf8.ValidString(text) {
			text = text[:len(text)-1]
		}
	}
	if text == "" {
		return
	}
	entry := game.ChatEntry{Color: game.WireColor(st.color), Text: text, At: s.now()}
	s.chat = append(s.chat, entry)
	s.publish()

	msg := game.ChatMsg{Type: game.TypeChat, Message: text, Color: entry.Color}
	for _, other := range s.seats {
		if other != st && other.peer != nil {
			other.peer.Deliver(msg)
		}
	}
	for p := range s.spectators {
		p.Deliver(msg)
	}
}

// checkClock finishes the game when the side to move has no time left and
// otherwise re-arms the expiry timer.
func (s *Session) checkClock() {
	if s.status != game.StatusActive {
		return
	}
	if side, expired := s.clock.Expired(s.now()); expired {
		s.log.Infow("clock expired", "color", side.String())
		s.finish(side.Opponent(), game.ReasonTime)
		return
	}
	s.armTimer()
}

func (s *Session) armTimer() {
	if s.timer != nil {
		s.timer.Stop()
	}
	left := s.clock.Remaining(s.clock.Turn(), s.now())
	s.timer = time.AfterFunc(left+time.Millisecond, func() { s.post(tickEvent{}) })
}

func (s *Session) stopTimers() {
	if s.timer != nil {
		s.timer.Stop()
	}
	if s.startTimer != nil {
		s.startTimer.Stop()
	}
}

func (s *Session) activate() {
	s.status = game.StatusActive
	if s.startTimer != nil {
		s.startTimer.Stop()
	}
	s.clock.Start(board.Black, s.now())
	s.armTimer()
	s.log.Info("game started")
	s.publish()
}

func (s *Session) finish(winner board.Color, reason game.FinishReason) {
	if s.status == game.StatusFinished {
		return
	}
	s.clock.Stop(s.now())
	s.status = game.StatusFinished
	s.stopTimers()

	msg := s.gameOverMsg(winner, reason)
	for _, st := range s.seats {
		if st.peer != nil {
			st.peer.Deliver(msg)
		}
	}
	for p := range s.spectators {
		p.Deliver(msg)
	}

	s.mu.Lock()
	s.published.Winner = msg.Winner
	s.published.Reason = reason
	s.mu.Unlock()
	s.publish()
	s.buildRecord(winner, reason)

	s.log.Infow("game finished", "winner", winner.String(), "reason", string(reason))
	if s.opts.OnFinish != nil {
		s.opts.OnFinish(s)
	}
}

func (s *Session) buildRecord(winner board.Color, reason game.FinishReason) {
	snap := s.Snapshot()
	rec := game.Record{
		GameID:     s.opts.ID,
		Mode:       s.opts.Mode,
		Black:      s.opts.Black.ID,
		White:      s.opts.White.ID,
		BlackName:  s.opts.Black.Name,
		WhiteName:  s.opts.White.Name,
		Winner:     game.WireColor(winner),
		Reason:     reason,
		Moves:      snap.History,
		Chat:       snap.Chat,
		CreatedAt:  s.createdAt,
		FinishedAt: s.now(),
	}
	var letter string
	switch winner {
	case board.Black:
		letter = "B"
	case board.White:
		letter = "W"
	}
	margin := 0.0
	if reason == game.ReasonScore {
		rec.BlackScore, rec.WhiteScore = s.score.Black, s.score.White
		margin = s.score.Black - s.score.White
		if margin < 0 {
			margin = -margin
		}
	}
	tree, err := sgf.Build(sgf.Header{
		Size:      s.opts.Size,
		Komi:      s.opts.Komi,
		Black:     s.opts.Black.Name,
		White:     s.opts.White.Name,
		Result:    sgf.Result(letter, margin, string(reason)),
		CreatedAt: s.createdAt,
	}, snap.History)
	if err != nil {
		s.log.Errorw("failed to build sgf", "error", err)
	} else {
		rec.Sgf = sgf.Serialize(tree)
	}

	s.mu.Lock()
	s.record = &rec
	s.mu.Unlock()
}

func (s *Session) publish() {
	now := s.now()
	hist := s.state.History()
	moves := make([]string, len(hist))
	for i, m := range hist {
		moves[i] = m.String()
	}

	s.mu.Lock()
	winner, reason := s.published.Winner, s.published.Reason
	if s.status != game.StatusFinished {
		winner, reason = game.WireNone, ""
	}
	s.published = game.Snapshot{
		GameID:    s.opts.ID,
		Mode:      s.opts.Mode,
		Black:     s.opts.Black.ID,
		White:     s.opts.White.ID,
		BlackName: s.opts.Black.Name,
		WhiteName: s.opts.White.Name,
		Status:    s.status.String(),
		Turn:      game.WireColor(s.state.Turn()),
		History:   moves,
		State:     s.encode(),
		BTime:     s.clock.Remaining(board.Black, now).Milliseconds(),
		WTime:     s.clock.Remaining(board.White, now).Milliseconds(),
		Winner:    winner,
		Reason:    reason,
		Chat:      append([]game.ChatEntry(nil), s.chat...),
		CreatedAt: s.createdAt,
		UpdatedAt: now,
	}
	snap := s.published
	s.mu.Unlock()

	if s.opts.OnSnapshot != nil {
		s.opts.OnSnapshot(snap)
	}
}

func (s *Session) seatOf(id string) *seat {
	for _, st := range s.seats {
		if st.identity.ID == id {
			return st
		}
	}
	return nil
}

func (s *Session) seatOfPeer(p Peer) *seat {
	for _, st := range s.seats {
		if st.peer == p {
			return st
		}
	}
	return nil
}

func (s *Session) seatIndex(st *seat) int {
	if s.seats[0] == st {
		return 0
	}
	return 1
}
