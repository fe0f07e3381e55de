package game

import (
	"goarena/internal/codec"
	"goarena/internal/domain/board"
	"goarena/internal/domain/game"
)

func (s *Session) encode() string {
	state, err := codec.EncodeBoard(s.state.Board())
	if err != nil {
		s.log.Errorw("failed to encode board", "error", err)
	}
	return state
}

// times returns the remaining milliseconds for self and opponent of color.
func (s *Session) times(self board.Color) (int64, int64) {
	now := s.now()
	return s.clock.Remaining(self, now).Milliseconds(),
		s.clock.Remaining(self.Opponent(), now).Milliseconds()
}

// syncSeat sends a full sync and starts the game once both seats have one.
func (s *Session) syncSeat(st *seat) {
	if st.peer == nil {
		return
	}
	st.synced = true
	if s.status == game.StatusWaitingSync && s.seats[0].synced && s.seats[1].synced {
		s.activate()
		other := s.seats[1-s.seatIndex(st)]
		if other.peer != nil {
			s.sendSync(other.peer, other)
		}
	}
	s.sendSync(st.peer, st)
}

// sendSync builds the sync from st's perspective; spectators (st == nil) see black's.
func (s *Session) sendSync(p Peer, st *seat) {
	self := board.Black
	color := game.WireNone
	pname, opname := s.opts.Black.Name, s.opts.White.Name
	if st != nil {
		self = st.color
		color = game.WireColor(st.color)
		if st.color == board.White {
			pname, opname = opname, pname
		}
	}
	hist := s.state.History()
	moves := make([]string, len(hist))
	for i, m := range hist {
		moves[i] = m.String()
	}
	selfTime, opTime := s.times(self)
	p.Deliver(game.SyncMsg{
		Type:     game.TypeSync,
		GameID:   s.opts.ID,
		Color:    color,
		Turn:     st != nil && s.status == game.StatusActive && s.state.Turn() == st.color,
		ToMove:   game.WireColor(s.state.Turn()),
		State:    s.encode(),
		History:  moves,
		SelfTime: selfTime,
		OpTime:   opTime,
		PName:    pname,
		OpName:   opname,
		Status:   s.status.String(),
	})
}

func (s *Session) sendMoveStatus(st *seat, coord string, turnOK, moveOK bool) {
	if st.peer == nil {
		return
	}
	selfTime, opTime := s.times(st.color)
	st.peer.Deliver(game.MoveStatusMsg{
		Type:       game.TypeMoveStatus,
		TurnStatus: turnOK,
		MoveStatus: moveOK,
		Move:       coord,
		State:      s.encode(),
		SelfTime:   selfTime,
		OpTime:     opTime,
	})
}

func (s *Session) moveMsg(mv board.Move, mover board.Color, state string, self board.Color) game.MoveMsg {
	selfTime, opTime := s.times(self)
	return game.MoveMsg{
		Type:     game.TypeMove,
		Move:     mv.String(),
		Color:    game.WireColor(mover),
		State:    state,
		SelfTime: selfTime,
		OpTime:   opTime,
	}
}

func (s *Session) gameOverMsg(winner board.Color, reason game.FinishReason) game.GameOverMsg {
	msg := game.GameOverMsg{
		Type:    game.TypeGameOver,
		Winner:  game.WireColor(winner),
		Message: string(reason),
	}
	if reason == game.ReasonScore {
		msg.BlackScore, msg.WhiteScore = s.score.Black, s.score.White
	}
	return msg
}

// sendGameOverTo repeats the final result to a peer attaching after the end.
func (s *Session) sendGameOverTo(p Peer) {
	if s.status != game.StatusFinished || p == nil {
		return
	}
	s.mu.RLock()
	winner, reason := s.published.Winner, s.published.Reason
	s.mu.RUnlock()
	p.Deliver(s.gameOverMsg(game.ColorFromWire(winner), reason))
}
