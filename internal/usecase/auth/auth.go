package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	userDomain "goarena/internal/domain/user"
	errs "goarena/internal/errors"
)

// Token namespaces, selected by the first character of a token.
const (
	TokenTypeJWT     = "1"
	TokenTypeSession = "2"
	TokenTypeGuest   = "3"
)

type SessionStorage interface {
	GetUsernameBySession(ctx context.Context, sessionID string) (username string, ok bool)
}

type AuthUsecaseHandler struct {
	sessionStorage SessionStorage
	jwtSecret      []byte
}

// NewAuthUsecaseHandler builds a resolver. sessions may be nil when no redis is
// configured; namespace 2 tokens are then rejected.
func NewAuthUsecaseHandler(sessions SessionStorage, jwtSecret string) *AuthUsecaseHandler {
	return &AuthUsecaseHandler{
		sessionStorage: sessions,
		jwtSecret:      []byte(jwtSecret),
	}
}

// Resolve maps a namespaced token to the identity it carries.
func (a *AuthUsecaseHandler) Resolve(ctx context.Context, token string) (userDomain.Identity, error) {
	if token == "" {
		return userDomain.Identity{}, errs.ErrUnauthorized
	}
	kind, rest := token[:1], token[1:]
	switch kind {
	case TokenTypeJWT:
		username, err := a.verifyJWT(rest)
		if err != nil {
			return userDomain.Identity{}, fmt.Errorf("%w: %v", errs.ErrUnauthorized, err)
		}
		return userDomain.Registered(username), nil
	case TokenTypeSession:
		return a.CheckSession(ctx, rest)
	case TokenTypeGuest:
		if rest == "" {
			rest = uuid.New().String()
		}
		if !userDomain.ValidUsername(rest) {
			return userDomain.Identity{}, fmt.Errorf("%w: bad guest id", errs.ErrUnauthorized)
		}
		return userDomain.Guest(rest), nil
	}
	return userDomain.Identity{}, errs.ErrUnauthorized
}

// CheckSession resolves a plain session id, as stored by the account service.
func (a *AuthUsecaseHandler) CheckSession(ctx context.Context, sessionID string) (userDomain.Identity, error) {
	if a.sessionStorage == nil || sessionID == "" {
		return userDomain.Identity{}, errs.ErrSessionNotFound
	}
	username, ok := a.sessionStorage.GetUsernameBySession(ctx, sessionID)
	if !ok || !userDomain.ValidUsername(username) {
		return userDomain.Identity{}, errs.ErrSessionNotFound
	}
	return userDomain.Registered(username), nil
}

func (a *AuthUsecaseHandler) verifyJWT(raw string) (string, error) {
	if len(a.jwtSecret) == 0 {
		return "", errors.New("jwt secret is not configured")
	}
	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("unexpected claims")
	}
	username, _ := claims["username"].(string)
	if username == "" {
		return "", errors.New("token has no username")
	}
	if !userDomain.ValidUsername(username) {
		return "", fmt.Errorf("bad username %q", username)
	}
	return username, nil
}
