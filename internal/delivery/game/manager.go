package game

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"goarena/internal/domain/game"
	errs "goarena/internal/errors"
	"goarena/internal/httpresponse"
	gameuc "goarena/internal/usecase/game"
)

const (
	connectNew       = "new"
	connectReconnect = "reconnect"

	closeNoGame = 4004
)

// PlayerSocket godoc
// @Summary Player websocket
// @Description mode=new binds the first socket of a freshly matched game, mode=reconnect re-binds and resyncs
// @Tags game
// @Param mode query string true "new or reconnect"
// @Param token query string true "namespaced identity token"
// @Router /game [get]
func (g *GameHandler) PlayerSocket(w http.ResponseWriter, r *http.Request) {
	identity, ok := g.authHandler.GetIdentity(w, r)
	if !ok {
		return
	}
	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = connectNew
	}
	if mode != connectNew && mode != connectReconnect {
		httpresponse.WriteError(w, http.StatusBadRequest, "mode must be new or reconnect")
		return
	}

	session, found := g.registry.Lookup(identity.ID)
	if !found {
		httpresponse.WriteError(w, http.StatusNotFound, "no pending game")
		return
	}

	conn, ok := g.upgrade(w, r)
	if !ok {
		return
	}
	log := g.log.With("game_id", session.ID(), "identity", identity.ID)
	c := newWSConn(conn, g.cfg.SendBuffer, log)
	go c.writePump()

	// attach before reading so the first reqState finds the seat bound
	if err := session.Attach(r.Context(), identity.ID, c, mode == connectReconnect); err != nil {
		log.Warnw("attach failed", "error", err)
		c.close(closeCodeFor(err), err.Error())
		return
	}
	log.Infow("player connected", "mode", mode)
	g.serve(session, c)
	session.Detach(c)
	log.Info("player disconnected")
}

// Spectate godoc
// @Summary Spectator websocket
// @Description Read-only stream of a running game; only reqState is accepted
// @Tags game
// @Param gameId path string true "game id"
// @Router /spectate/{gameId} [get]
func (g *GameHandler) Spectate(w http.ResponseWriter, r *http.Request) {
	if _, ok := g.authHandler.GetIdentity(w, r); !ok {
		return
	}
	gameID := chi.URLParam(r, "gameId")
	session, found := g.registry.Get(gameID)
	if !found {
		httpresponse.WriteError(w, http.StatusNotFound, errs.ErrGameNotFound.Error())
		return
	}

	conn, ok := g.upgrade(w, r)
	if !ok {
		return
	}
	c := newWSConn(conn, g.cfg.SendBuffer, g.log.With("game_id", gameID, "spectator", true))
	go c.writePump()

	if err := session.Spectate(c); err != nil {
		c.close(closeCodeFor(err), err.Error())
		return
	}
	g.serve(session, c)
	session.Detach(c)
}

func (g *GameHandler) upgrade(w http.ResponseWriter, r *http.Request) (*websocket.Conn, bool) {
	var header http.Header
	// browsers send the token as a second subprotocol and expect the first echoed
	if protocols := websocket.Subprotocols(r); len(protocols) > 0 {
		header = http.Header{"Sec-WebSocket-Protocol": {protocols[0]}}
	}
	conn, err := g.upgrader.Upgrade(w, r, header)
	if err != nil {
		g.log.Warnw("failed to upgrade connection", "error", err)
		return nil, false
	}
	return conn, true
}

// serve pumps client frames into the session until either side goes away.
func (g *GameHandler) serve(session *gameuc.Session, c *wsConn) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-session.Done():
			c.close(closeCodeFor(nil), "game closed")
		case <-ctx.Done():
		}
	}()

	c.readPump(func(data []byte) {
		msg, err := game.DecodeClientMessage(data)
		if err != nil {
			c.log.Debugw("ignoring malformed message", "error", err)
			return
		}
		if err := session.Submit(c, msg); err != nil {
			c.close(closeCodeFor(err), err.Error())
		}
	})
}

// closeCodeFor maps a session error to a websocket close code.
func closeCodeFor(err error) int {
	if errors.Is(err, errs.ErrGameNotFound) {
		return closeNoGame
	}
	return websocket.CloseNormalClosure
}
