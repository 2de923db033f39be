// Package token holds the trusted domain objects this library ships with:
// the access/refresh token pair and the authentication context persisted
// alongside it. All of them are registered with the default codec registry,
// and all of them live under the default allowlist prefix.
package token

import (
	"time"

	"github.com/imperiuse/safe-codec/codec"
)

type (
	// AccessToken - bearer token with its lifecycle metadata.
	AccessToken struct {
		ID        string
		Value     string
		TokenType string
		ExpiresAt time.Time
		Scopes    []string
		Refresh   *RefreshToken
		Details   map[string]string
	}

	// RefreshToken - long lived companion of AccessToken.
	RefreshToken struct {
		Value     string
		ExpiresAt time.Time
	}

	// Authentication - who the token was issued to.
	Authentication struct {
		Principal     string
		Authorities   []string
		Authenticated bool
	}

	// Event - token lifecycle notification carried over the event feed.
	Event struct {
		Op string // "saved" | "removed"
		ID string
		At time.Time
	}
)

// Event ops.
const (
	OpSaved   = "saved"
	OpRemoved = "removed"
)

// Expired - true when the token has an expiry in the past.
func (t *AccessToken) Expired() bool {
	return !t.ExpiresAt.IsZero() && t.ExpiresAt.Before(time.Now())
}

func init() {
	codec.Register(AccessToken{})
	codec.Register(RefreshToken{})
	codec.Register(Authentication{})
	codec.Register(Event{})
}
