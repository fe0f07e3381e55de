package user

import (
	"strings"
	"unicode"
)

// Kind is the namespace an identity was issued from.
type Kind string

const (
	KindUser   Kind = "u"
	KindGuest  Kind = "g"
	KindSystem Kind = "sys"
)

const maxUsernameLength = 64

// Identity is an opaque, comparable player id plus a display name. ID always
// carries its Kind as a prefix, so ids from different namespaces never meet.
type Identity struct {
	ID   string `json:"id" bson:"id"`
	Name string `json:"name" bson:"name"`
	Kind Kind   `json:"kind" bson:"kind"`
}

func newIdentity(kind Kind, key, name string) Identity {
	return Identity{ID: string(kind) + ":" + key, Name: name, Kind: kind}
}

func (i Identity) IsZero() bool {
	return i.ID == ""
}

func Guest(id string) Identity {
	return newIdentity(KindGuest, id, "guest")
}

func Registered(username string) Identity {
	return newIdentity(KindUser, username, username)
}

// Bot is the identity used for the engine-side opponent. No token resolves
// to the system namespace.
func Bot() Identity {
	return newIdentity(KindSystem, "bot", "bot")
}

func (i Identity) IsGuest() bool {
	return i.Kind == KindGuest
}

func (i Identity) IsBot() bool {
	return i.ID == Bot().ID
}

// Ranked reports whether games of this identity may affect a rating.
func (i Identity) Ranked() bool {
	return i.Kind == KindUser
}

// ValidUsername rejects names that cannot be shown or logged safely.
func ValidUsername(name string) bool {
	if name == "" || len(name) > maxUsernameLength || strings.TrimSpace(name) != name {
		return false
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}
