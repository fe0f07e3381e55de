package game

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"goarena/internal/bootstrap"
	"goarena/internal/delivery/auth"
	"goarena/internal/domain/game"
	errs "goarena/internal/errors"
	"goarena/internal/httpresponse"
	"goarena/internal/usecase/matchmaker"
	"goarena/internal/usecase/registry"
	"goarena/internal/utils"
)

// LiveReader exposes games mirrored by other engine instances.
type LiveReader interface {
	LoadSnapshot(ctx context.Context, gameID string) (game.Snapshot, bool, error)
}

type GameHandler struct {
	cfg         *bootstrap.Config
	log         *zap.SugaredLogger
	registry    *registry.Registry
	matchmaker  *matchmaker.Matchmaker
	authHandler *auth.AuthHandler
	live        LiveReader
	upgrader    websocket.Upgrader
}

// NewGameHandler wires the HTTP and socket endpoints. live may be nil.
func NewGameHandler(
	cfg *bootstrap.Config,
	log *zap.SugaredLogger,
	reg *registry.Registry,
	mm *matchmaker.Matchmaker,
	authHandler *auth.AuthHandler,
	live LiveReader,
) *GameHandler {
	return &GameHandler{
		cfg:         cfg,
		log:         log,
		registry:    reg,
		matchmaker:  mm,
		authHandler: authHandler,
		live:        live,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Routes mounts every endpoint of the engine on r.
func (g *GameHandler) Routes(r chi.Router) {
	r.Post("/findgame", g.FindGame)
	r.Delete("/findgame", g.CancelFindGame)
	r.Get("/getwsurl", g.GetWsURL)
	r.Get("/ispending", g.IsPending)
	r.Get("/review", g.Review)
	r.Get("/game", g.PlayerSocket)
	r.Get("/spectate/{gameId}", g.Spectate)
}

func (g *GameHandler) wsURL() string {
	return g.cfg.WsURL + "/game"
}

// FindGame godoc
// @Summary Find an opponent
// @Description Queues the caller and waits until a game is allocated
// @Tags game
// @Accept json
// @Produce json
// @Param request body game.FindGameRequest false "mode: human or bot"
// @Success 200 {object} game.FindGameResponse
// @Failure 400 {object} httpresponse.ErrorResponse
// @Failure 401 {object} httpresponse.ErrorResponse
// @Router /findgame [post]
func (g *GameHandler) FindGame(w http.ResponseWriter, r *http.Request) {
	identity, ok := g.authHandler.GetIdentity(w, r)
	if !ok {
		return
	}

	req := game.FindGameRequest{Mode: string(game.ModeHuman)}
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		g.log.Warnw("FindGame: malformed request", "error", err)
		httpresponse.WriteError(w, http.StatusBadRequest, httpresponse.MALFORMEDJSON_errorDesc)
		return
	}
	mode, ok := game.ParseMode(req.Mode)
	if !ok {
		httpresponse.WriteError(w, http.StatusBadRequest, errs.ErrBadMode.Error())
		return
	}

	ticket, err := g.matchmaker.Enqueue(r.Context(), identity, mode)
	if err != nil {
		g.writeMatchError(w, err)
		return
	}
	match, err := ticket.Wait(r.Context())
	if err != nil {
		if r.Context().Err() != nil {
			g.log.Debugw("FindGame: client left while waiting", "identity", identity.ID)
			return
		}
		g.writeMatchError(w, err)
		return
	}

	httpresponse.WriteResponseWithStatus(w, http.StatusOK, game.FindGameResponse{
		GameID:   match.GameID,
		TicketID: match.TicketID,
		Color:    game.WireColor(match.Color),
		WsURL:    g.wsURL(),
	})
}

func (g *GameHandler) writeMatchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errs.ErrBadMode):
		httpresponse.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, errs.ErrTicketCancelled), errors.Is(err, errs.ErrAlreadyInGame):
		httpresponse.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, errs.ErrTicketExpired):
		httpresponse.WriteError(w, http.StatusRequestTimeout, err.Error())
	default:
		g.log.Errorw("matchmaking failed", "error", err)
		httpresponse.WriteInternalErrorResponse(w)
	}
}

// CancelFindGame godoc
// @Summary Cancel matchmaking
// @Tags game
// @Produce json
// @Success 200 {string} string "OK"
// @Failure 404 {object} httpresponse.ErrorResponse
// @Router /findgame [delete]
func (g *GameHandler) CancelFindGame(w http.ResponseWriter, r *http.Request) {
	identity, ok := g.authHandler.GetIdentity(w, r)
	if !ok {
		return
	}
	if err := g.matchmaker.Cancel(identity.ID); err != nil {
		httpresponse.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, "OK")
}

// GetWsURL godoc
// @Summary Websocket address of this engine
// @Tags game
// @Produce json
// @Success 200 {object} game.FindGameResponse
// @Router /getwsurl [get]
func (g *GameHandler) GetWsURL(w http.ResponseWriter, r *http.Request) {
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, game.FindGameResponse{
		Color: game.WireNone,
		WsURL: g.wsURL(),
	})
}

// IsPending godoc
// @Summary Whether the caller has a game to reconnect to
// @Tags game
// @Produce json
// @Success 200 {object} game.PendingResponse
// @Failure 401 {object} httpresponse.ErrorResponse
// @Router /ispending [get]
func (g *GameHandler) IsPending(w http.ResponseWriter, r *http.Request) {
	identity, ok := g.authHandler.GetIdentity(w, r)
	if !ok {
		return
	}
	resp := game.PendingResponse{Status: "absent"}
	if id, found := g.registry.Pending(r.Context(), identity.ID); found {
		resp = game.PendingResponse{Status: "present", GameID: id}
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, resp)
}

// Review godoc
// @Summary Moves, chat and result of a game
// @Tags game
// @Produce json
// @Param gameid query string true "game id"
// @Success 200 {object} game.Record
// @Failure 404 {object} httpresponse.ErrorResponse
// @Router /review [get]
func (g *GameHandler) Review(w http.ResponseWriter, r *http.Request) {
	gameID := r.URL.Query().Get("gameid")
	if gameID == "" {
		httpresponse.WriteError(w, http.StatusBadRequest, "gameid is required")
		return
	}

	rec, err := g.registry.Review(r.Context(), gameID)
	if errors.Is(err, errs.ErrGameNotFound) && g.live != nil {
		var snap game.Snapshot
		var found bool
		snap, found, err = g.live.LoadSnapshot(r.Context(), gameID)
		if err == nil && !found {
			err = errs.ErrGameNotFound
		}
		if err == nil {
			rec = recordFromSnapshot(snap)
		}
	}
	switch {
	case err == nil:
		httpresponse.WriteResponseWithStatus(w, http.StatusOK, rec)
	case errors.Is(err, errs.ErrGameNotFound):
		httpresponse.WriteError(w, http.StatusNotFound, err.Error())
	default:
		g.log.Errorw("Review: lookup failed", "game_id", gameID, "error", err)
		httpresponse.WriteInternalErrorResponse(w)
	}
}

func recordFromSnapshot(snap game.Snapshot) game.Record {
	return game.Record{
		GameID:    snap.GameID,
		Mode:      snap.Mode,
		Black:     snap.Black,
		White:     snap.White,
		BlackName: snap.BlackName,
		WhiteName: snap.WhiteName,
		Winner:    snap.Winner,
		Reason:    snap.Reason,
		Moves:     snap.History,
		Chat:      snap.Chat,
		CreatedAt: snap.CreatedAt,
	}
}
