package bot

import (
	"context"
	"time"

	"go.uber.org/zap"

	"goarena/internal/codec"
	"goarena/internal/domain/board"
	"goarena/internal/domain/game"
	gameuc "goarena/internal/usecase/game"
)

// Submitter is the session entry point shared with human connections.
type Submitter interface {
	Submit(p gameuc.Peer, msg game.ClientMessage) error
}

type Config struct {
	BoardSize    int
	Komi         float64
	Ko           bool
	ThinkTimeout time.Duration
}

// maxResyncs bounds consecutive failed board checks before the bot stops
// asking for syncs and plays on the server's board.
const maxResyncs = 3

// Player is the engine-side opponent. It sees exactly the messages a player
// socket sees and answers through the same Submit path.
type Player struct {
	cfg      Config
	session  Submitter
	primary  Generator
	fallback Generator
	log      *zap.SugaredLogger

	inbox chan any

	// owned by Run
	color   board.Color
	history []string
	local   *board.Board
	retries int
	resyncs int
}

// NewPlayer creates a bot for session. primary may be nil, in which case only
// the local heuristic is used.
func NewPlayer(cfg Config, session Submitter, primary Generator, log *zap.SugaredLogger) *Player {
	if cfg.BoardSize == 0 {
		cfg.BoardSize = board.DefaultSize
	}
	if cfg.ThinkTimeout == 0 {
		cfg.ThinkTimeout = 10 * time.Second
	}
	if primary == nil {
		primary = Heuristic{}
	}
	return &Player{
		cfg:      cfg,
		session:  session,
		primary:  primary,
		fallback: Heuristic{},
		log:      log,
		inbox:    make(chan any, 64),
		local:    board.New(cfg.BoardSize),
	}
}

func (p *Player) Deliver(msg any) {
	select {
	case p.inbox <- msg:
	default:
		p.log.Warn("bot inbox full, dropping message")
	}
}

// Run plays until the game is over or ctx is done.
func (p *Player) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-p.inbox:
			if over := p.handle(ctx, msg); over {
				return
			}
		}
	}
}

func (p *Player) handle(ctx context.Context, msg any) bool {
	switch m := msg.(type) {
	case game.SyncMsg:
		p.color = game.ColorFromWire(m.Color)
		p.history = append(p.history[:0], m.History...)
		if !p.observe(m.State) {
			return false
		}
		if m.Turn {
			p.think(ctx, p.primary)
		}
	case game.MoveMsg:
		p.history = append(p.history, m.Move)
		if !p.observe(m.State) {
			return false
		}
		if game.ColorFromWire(m.Color) != p.color {
			p.retries = 0
			p.think(ctx, p.primary)
		}
	case game.MoveStatusMsg:
		if m.MoveStatus {
			p.history = append(p.history, m.Move)
			p.observe(m.State)
			return false
		}
		if !m.TurnStatus {
			return false
		}
		// rejected: retry once with the local heuristic, then pass
		p.retries++
		if p.retries == 1 {
			p.think(ctx, p.fallback)
		} else {
			p.submit(board.PassCoord)
		}
	case game.GameOverMsg:
		return true
	}
	return false
}

// observe checks the received board against the replayed history. A mismatch
// or corrupt payload triggers a fresh sync, at most maxResyncs times in a row;
// after that a decodable server board is taken as is.
func (p *Player) observe(state string) bool {
	decoded, decodeErr := codec.DecodeBoard(state)
	err := decodeErr
	if err == nil {
		var replayed *board.State
		replayed, err = p.replay()
		if err == nil && !replayed.Board().Equal(decoded) {
			p.log.Warnw("bot board out of sync", "changes", len(board.Diff(p.local, decoded)))
			err = codec.ErrCorruptState
		}
	}
	if err == nil {
		p.resyncs = 0
		p.local = decoded
		return true
	}

	if p.resyncs >= maxResyncs {
		p.log.Errorw("bot board still disagrees after resyncs", "error", err)
		if decodeErr != nil {
			return false
		}
		p.local = decoded
		return true
	}
	p.resyncs++
	p.log.Warnw("bot requesting resync", "error", err, "attempt", p.resyncs)
	if err := p.session.Submit(p, game.ReqState{}); err != nil {
		p.log.Debugw("session gone", "error", err)
	}
	return false
}

func (p *Player) replay() (*board.State, error) {
	moves := make([]board.Move, 0, len(p.history))
	for _, h := range p.history {
		mv, err := board.ParseMove(h)
		if err != nil {
			return nil, err
		}
		moves = append(moves, mv)
	}
	return board.Replay(p.cfg.BoardSize, p.cfg.Ko, moves)
}

func (p *Player) think(ctx context.Context, gen Generator) {
	req := Request{
		BoardSize: p.cfg.BoardSize,
		Komi:      p.cfg.Komi,
		Ko:        p.cfg.Ko,
		Moves:     append([]string(nil), p.history...),
	}
	thinkCtx, cancel := context.WithTimeout(ctx, p.cfg.ThinkTimeout)
	defer cancel()

	move, err := gen.GenerateMove(thinkCtx, req)
	if err != nil && gen != p.fallback {
		p.log.Warnw("move generator failed, using heuristic", "error", err)
		move, err = p.fallback.GenerateMove(thinkCtx, req)
	}
	if err != nil {
		p.log.Errorw("bot could not generate a move, passing", "error", err)
		move = board.PassCoord
	}
	p.submit(move)
}

func (p *Player) submit(move string) {
	if err := p.session.Submit(p, game.MoveRequest{Move: move}); err != nil {
		p.log.Debugw("session gone", "error", err)
	}
}
