package auth

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"goarena/internal/domain/user"
	errs "goarena/internal/errors"
	"goarena/internal/httpresponse"
	authUC "goarena/internal/usecase/auth"
)

type AuthHandler struct {
	usecaseHandler *authUC.AuthUsecaseHandler
	log            *zap.SugaredLogger
}

func NewAuthHandler(usecaseHandler *authUC.AuthUsecaseHandler, log *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{
		usecaseHandler: usecaseHandler,
		log:            log,
	}
}

// Token finds the namespaced token of a request: the token query parameter,
// the second websocket subprotocol, or a bearer Authorization header.
func Token(r *http.Request) string {
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	if protocols := websocketProtocols(r); len(protocols) > 1 {
		return protocols[1]
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

func websocketProtocols(r *http.Request) []string {
	h := r.Header.Get("Sec-WebSocket-Protocol")
	if h == "" {
		return nil
	}
	parts := strings.Split(h, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// Identity resolves the caller. Without a token the sessionID cookie is tried.
func (a *AuthHandler) Identity(r *http.Request) (user.Identity, error) {
	if token := Token(r); token != "" {
		return a.usecaseHandler.Resolve(r.Context(), token)
	}
	sessionCookie, err := r.Cookie("sessionID")
	if err != nil {
		return user.Identity{}, errs.ErrUnauthorized
	}
	return a.usecaseHandler.CheckSession(r.Context(), sessionCookie.Value)
}

// GetIdentity is Identity that answers 401 itself on failure.
func (a *AuthHandler) GetIdentity(w http.ResponseWriter, r *http.Request) (user.Identity, bool) {
	identity, err := a.Identity(r)
	if err != nil {
		if !errors.Is(err, errs.ErrUnauthorized) && !errors.Is(err, errs.ErrSessionNotFound) {
			a.log.Errorw("GetIdentity: failed to resolve token", "error", err)
		} else {
			a.log.Debugw("GetIdentity: unauthorized", "error", err)
		}
		httpresponse.WriteError(w, http.StatusUnauthorized, errs.ErrUnauthorized.Error())
		return user.Identity{}, false
	}
	return identity, true
}
