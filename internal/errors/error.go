package errors

import "errors"

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrSessionNotFound = errors.New("session was not found")
	ErrGameNotFound    = errors.New("game not found")
	ErrAlreadyInGame   = errors.New("identity already has an active game")
	ErrTicketNotFound  = errors.New("matchmaking ticket not found")
	ErrTicketExpired   = errors.New("matchmaking ticket expired")
	ErrTicketCancelled = errors.New("matchmaking ticket cancelled")
	ErrSessionClosed   = errors.New("game session is closed")
	ErrBadMode         = errors.New("unknown game mode")
	ErrInternal        = errors.New("internal error")
)
