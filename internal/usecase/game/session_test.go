package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goarena/internal/codec"
	"goarena/internal/domain/board"
	"goarena/internal/domain/game"
	"goarena/internal/domain/user"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type testPeer struct {
	msgs     chan any
	replaced chan struct{}
}

func newTestPeer() *testPeer {
	return &testPeer{msgs: make(chan any, 128), replaced: make(chan struct{}, 1)}
}

func (p *testPeer) Deliver(msg any) {
	p.msgs <- msg
}

func (p *testPeer) Replaced() {
	p.replaced <- struct{}{}
}

func expect[T any](t *testing.T, p *testPeer) T {
	t.Helper()
	select {
	case msg := <-p.msgs:
		typed, ok := msg.(T)
		require.True(t, ok, "unexpected message %T: %+v", msg, msg)
		return typed
	case <-time.After(2 * time.Second):
		var zero T
		t.Fatalf("timed out waiting for %T", zero)
		return zero
	}
}

func expectNothing(t *testing.T, p *testPeer) {
	t.Helper()
	select {
	case msg := <-p.msgs:
		t.Fatalf("unexpected message %T: %+v", msg, msg)
	case <-time.After(50 * time.Millisecond):
	}
}

const mainTime = 15 * time.Minute

type fixture struct {
	s      *Session
	clock  *fakeClock
	black  *testPeer
	white  *testPeer
	mu     sync.Mutex
	snaps  []game.Snapshot
	finish chan *Session
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	f := &fixture{
		clock:  &fakeClock{now: time.Unix(1_700_000_000, 0)},
		black:  newTestPeer(),
		white:  newTestPeer(),
		finish: make(chan *Session, 1),
	}
	opts.ID = "g1"
	opts.Mode = game.ModeHuman
	opts.Black = user.Registered("alice")
	opts.White = user.Registered("bob")
	opts.Komi = 7.5
	opts.Ko = true
	if opts.MainTime == 0 {
		opts.MainTime = mainTime
	}
	opts.Now = f.clock.Now
	opts.OnSnapshot = func(snap game.Snapshot) {
		f.mu.Lock()
		f.snaps = append(f.snaps, snap)
		f.mu.Unlock()
	}
	opts.OnFinish = func(s *Session) { f.finish <- s }
	f.s = NewSession(opts)
	go f.s.Run()
	t.Cleanup(f.s.Close)

	ctx := context.Background()
	require.NoError(t, f.s.Attach(ctx, user.Registered("alice").ID, f.black, false))
	require.NoError(t, f.s.Attach(ctx, user.Registered("bob").ID, f.white, false))
	return f
}

// start syncs both players and drains the syncs.
func (f *fixture) start(t *testing.T) {
	t.Helper()
	require.NoError(t, f.s.Submit(f.black, game.ReqState{}))
	first := expect[game.SyncMsg](t, f.black)
	assert.Equal(t, "waiting", first.Status)

	require.NoError(t, f.s.Submit(f.white, game.ReqState{}))
	ws := expect[game.SyncMsg](t, f.white)
	assert.Equal(t, "active", ws.Status)
	assert.Equal(t, game.WireWhite, ws.Color)
	assert.False(t, ws.Turn)

	bs := expect[game.SyncMsg](t, f.black)
	assert.Equal(t, "active", bs.Status)
	assert.True(t, bs.Turn)
	assert.Equal(t, "alice", bs.PName)
	assert.Equal(t, "bob", bs.OpName)
}

func (f *fixture) play(t *testing.T, mover, other *testPeer, coord string) game.MoveMsg {
	t.Helper()
	require.NoError(t, f.s.Submit(mover, game.MoveRequest{Move: coord}))
	st := expect[game.MoveStatusMsg](t, mover)
	require.True(t, st.TurnStatus, coord)
	require.True(t, st.MoveStatus, coord)
	mv := expect[game.MoveMsg](t, other)
	assert.Equal(t, coord, mv.Move)
	return mv
}

func decode(t *testing.T, state string) *board.Board {
	t.Helper()
	b, err := codec.DecodeBoard(state)
	require.NoError(t, err)
	return b
}

func TestOpeningMoves(t *testing.T) {
	f := newFixture(t, Options{})
	f.start(t)

	mv := f.play(t, f.black, f.white, "d4")
	assert.Equal(t, game.WireBlack, mv.Color)
	assert.Equal(t, board.Black, decode(t, mv.State).At(board.Point{Col: 3, Row: 4}))
	f.play(t, f.white, f.black, "q16")

	snap := f.s.Snapshot()
	assert.Equal(t, []string{"d4", "q16"}, snap.History)
	assert.Equal(t, game.WireBlack, snap.Turn)
	assert.Equal(t, "active", snap.Status)
}

func TestMoveRejections(t *testing.T) {
	f := newFixture(t, Options{})

	// not started yet
	require.NoError(t, f.s.Submit(f.black, game.MoveRequest{Move: "d4"}))
	st := expect[game.MoveStatusMsg](t, f.black)
	assert.False(t, st.TurnStatus)
	assert.Equal(t, "d4", st.Move)

	f.start(t)

	require.NoError(t, f.s.Submit(f.white, game.MoveRequest{Move: "d4"}))
	st = expect[game.MoveStatusMsg](t, f.white)
	assert.False(t, st.TurnStatus)
	assert.False(t, st.MoveStatus)
	assert.Equal(t, "d4", st.Move)
	expectNothing(t, f.black)

	f.play(t, f.black, f.white, "d4")

	require.NoError(t, f.s.Submit(f.white, game.MoveRequest{Move: "d4"}))
	st = expect[game.MoveStatusMsg](t, f.white)
	assert.True(t, st.TurnStatus)
	assert.False(t, st.MoveStatus)
	assert.Equal(t, "d4", st.Move)
	// the rejected player still gets the authoritative board to roll back to
	assert.Equal(t, board.Black, decode(t, st.State).At(board.Point{Col: 3, Row: 4}))

	require.NoError(t, f.s.Submit(f.white, game.MoveRequest{Move: "zz"}))
	st = expect[game.MoveStatusMsg](t, f.white)
	assert.False(t, st.MoveStatus)

	snap := f.s.Snapshot()
	assert.Equal(t, []string{"d4"}, snap.History)
	assert.Equal(t, game.WireWhite, snap.Turn)
}

func TestCaptureIsBroadcast(t *testing.T) {
	f := newFixture(t, Options{})
	f.start(t)

	f.play(t, f.black, f.white, "a2")
	f.play(t, f.white, f.black, "b2")
	f.play(t, f.black, f.white, "c2")
	f.play(t, f.white, f.black, "q16")
	f.play(t, f.black, f.white, "b1")
	f.play(t, f.white, f.black, "q15")
	mv := f.play(t, f.black, f.white, "b3")

	b := decode(t, mv.State)
	assert.Equal(t, board.Empty, b.At(board.Point{Col: 1, Row: 2}))
	assert.Equal(t, board.Black, b.At(board.Point{Col: 1, Row: 3}))
}

func TestDoublePassScores(t *testing.T) {
	f := newFixture(t, Options{})
	f.start(t)

	f.play(t, f.black, f.white, "ps")
	require.NoError(t, f.s.Submit(f.white, game.MoveRequest{Move: "ps"}))
	expect[game.MoveStatusMsg](t, f.white)
	over := expect[game.GameOverMsg](t, f.white)
	assert.Equal(t, "score", over.Message)
	assert.Equal(t, game.WireWhite, over.Winner)
	assert.Equal(t, 7.5, over.WhiteScore)

	expect[game.MoveMsg](t, f.black)
	assert.Equal(t, over, expect[game.GameOverMsg](t, f.black))

	finished := <-f.finish
	rec, ok := finished.Record()
	require.True(t, ok)
	assert.Equal(t, game.ReasonScore, rec.Reason)
	assert.Equal(t, []string{"ps", "ps"}, rec.Moves)
	assert.Contains(t, rec.Sgf, "RE[W+7.5]")
	assert.Equal(t, game.StatusFinished, f.s.Status())
}

func TestAbortEndsGame(t *testing.T) {
	f := newFixture(t, Options{})
	f.start(t)
	f.play(t, f.black, f.white, "d4")

	require.NoError(t, f.s.Submit(f.black, game.Abort{}))
	over := expect[game.GameOverMsg](t, f.white)
	assert.Equal(t, game.WireWhite, over.Winner)
	assert.Equal(t, "abort", over.Message)
	expect[game.GameOverMsg](t, f.black)

	// moves after the end are rejected without touching history
	require.NoError(t, f.s.Submit(f.white, game.MoveRequest{Move: "q16"}))
	st := expect[game.MoveStatusMsg](t, f.white)
	assert.False(t, st.TurnStatus)
	assert.Equal(t, []string{"d4"}, f.s.Snapshot().History)

	// late sync still works during retention
	require.NoError(t, f.s.Submit(f.black, game.ReqState{}))
	resync := expect[game.SyncMsg](t, f.black)
	assert.Equal(t, "finished", resync.Status)
	assert.Equal(t, over, expect[game.GameOverMsg](t, f.black))
}

func TestSessionClockExpiry(t *testing.T) {
	f := newFixture(t, Options{})
	f.start(t)
	f.play(t, f.black, f.white, "d4")

	f.clock.Advance(mainTime + time.Second)
	f.s.post(tickEvent{})

	over := expect[game.GameOverMsg](t, f.black)
	assert.Equal(t, game.WireBlack, over.Winner)
	assert.Equal(t, "time", over.Message)
	expect[game.GameOverMsg](t, f.white)
}

func TestExpiryDetectedOnInboundMove(t *testing.T) {
	f := newFixture(t, Options{})
	f.start(t)

	f.clock.Advance(mainTime)
	require.NoError(t, f.s.Submit(f.black, game.MoveRequest{Move: "d4"}))
	over := expect[game.GameOverMsg](t, f.black)
	assert.Equal(t, game.WireWhite, over.Winner)
	st := expect[game.MoveStatusMsg](t, f.black)
	assert.False(t, st.TurnStatus)
	assert.Empty(t, f.s.Snapshot().History)
}

func TestReconnectResumes(t *testing.T) {
	f := newFixture(t, Options{})
	f.start(t)

	f.clock.Advance(2 * time.Second)
	f.play(t, f.black, f.white, "d4")

	f.s.Detach(f.black)
	f.clock.Advance(30 * time.Second)

	fresh := newTestPeer()
	require.NoError(t, f.s.Attach(context.Background(), user.Registered("alice").ID, fresh, true))
	resync := expect[game.SyncMsg](t, fresh)

	snap := f.s.Snapshot()
	assert.Equal(t, snap.History, resync.History)
	assert.Equal(t, snap.State, resync.State)
	assert.Equal(t, []string{"d4"}, resync.History)
	assert.False(t, resync.Turn)
	assert.Equal(t, game.WireWhite, resync.ToMove)
	assert.Equal(t, (mainTime - 2*time.Second).Milliseconds(), resync.SelfTime)
	assert.Equal(t, (mainTime - 30*time.Second).Milliseconds(), resync.OpTime)

	// the new connection plays on
	f.play(t, f.white, fresh, "q16")
	f.play(t, fresh, f.white, "c3")
}

func TestReplacedConnectionIsNotified(t *testing.T) {
	f := newFixture(t, Options{})
	fresh := newTestPeer()
	require.NoError(t, f.s.Attach(context.Background(), user.Registered("alice").ID, fresh, false))
	select {
	case <-f.black.replaced:
	case <-time.After(time.Second):
		t.Fatal("old peer was not replaced")
	}
	// the stale peer is ignored from now on
	require.NoError(t, f.s.Submit(f.black, game.ReqState{}))
	expectNothing(t, f.black)
}

func TestChatAndSpectators(t *testing.T) {
	f := newFixture(t, Options{})
	f.start(t)

	watcher := newTestPeer()
	require.NoError(t, f.s.Spectate(watcher))
	resync := expect[game.SyncMsg](t, watcher)
	assert.Equal(t, game.WireNone, resync.Color)

	require.NoError(t, f.s.Submit(f.black, game.ChatRequest{Message: "hello"}))
	assert.Equal(t, "hello", expect[game.ChatMsg](t, f.white).Message)
	assert.Equal(t, game.WireBlack, expect[game.ChatMsg](t, watcher).Color)
	expectNothing(t, f.black)

	// spectators are read only
	require.NoError(t, f.s.Submit(watcher, game.MoveRequest{Move: "d4"}))
	require.NoError(t, f.s.Submit(watcher, game.ChatRequest{Message: "hi"}))
	require.NoError(t, f.s.Submit(watcher, game.Abort{}))
	expectNothing(t, f.white)

	f.play(t, f.black, f.white, "d4")
	assert.Equal(t, "d4", expect[game.MoveMsg](t, watcher).Move)

	long := make([]byte, game.MaxChatLength+20)
	for i := range long {
		long[i] = 'x'
	}
	require.NoError(t, f.s.Submit(f.white, game.ChatRequest{Message: string(long)}))
	assert.Len(t, expect[game.ChatMsg](t, f.black).Message, game.MaxChatLength)
	assert.Len(t, f.s.Snapshot().Chat, 2)
}

func TestSpectatorResyncAfterFinish(t *testing.T) {
	f := newFixture(t, Options{})
	f.start(t)

	watcher := newTestPeer()
	require.NoError(t, f.s.Spectate(watcher))
	expect[game.SyncMsg](t, watcher)

	require.NoError(t, f.s.Submit(f.white, game.Abort{}))
	over := expect[game.GameOverMsg](t, watcher)
	assert.Equal(t, game.WireBlack, over.Winner)

	require.NoError(t, f.s.Submit(watcher, game.ReqState{}))
	resync := expect[game.SyncMsg](t, watcher)
	assert.Equal(t, "finished", resync.Status)
	assert.Equal(t, over, expect[game.GameOverMsg](t, watcher))
	expectNothing(t, watcher)
}

func TestStartTimeoutCancels(t *testing.T) {
	f := newFixture(t, Options{StartTimeout: 20 * time.Millisecond})

	finished := <-f.finish
	rec, ok := finished.Record()
	require.True(t, ok)
	assert.Equal(t, game.ReasonCancelled, rec.Reason)
	assert.Equal(t, game.WireNone, rec.Winner)
	over := expect[game.GameOverMsg](t, f.black)
	assert.Equal(t, "cancelled", over.Message)
}

func TestSnapshotsPublishedPerMove(t *testing.T) {
	f := newFixture(t, Options{})
	f.start(t)
	f.play(t, f.black, f.white, "d4")

	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.snaps)
	last := f.snaps[len(f.snaps)-1]
	assert.Equal(t, []string{"d4"}, last.History)
	assert.Equal(t, "active", last.Status)
	assert.Equal(t, game.WireNone, last.Winner)
}

func TestSessionClosed(t *testing.T) {
	f := newFixture(t, Options{})
	f.s.Close()
	<-f.s.Done()
	assert.Error(t, f.s.Submit(f.black, game.ReqState{}))
	assert.Error(t, f.s.Attach(context.Background(), user.Registered("alice").ID, f.black, true))
}
