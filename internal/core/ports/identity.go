package ports

import (
	"context"

	"github.com/mern-eats/my-user-gateway/internal/core/domain"
)

// IdentityProvider is the external authorisation server.
type IdentityProvider interface {
	// LoginURL builds the authorize redirect for state, bound to a PKCE verifier.
	LoginURL(state, verifier string) string
	// Exchange trades an authorization code for a verified identity and tokens.
	Exchange(ctx context.Context, code, verifier string) (domain.Identity, domain.TokenSet, error)
	// LogoutURL ends the provider session and sends the browser to returnTo.
	LogoutURL(returnTo string) string
}

// SessionStore persists login sessions.
type SessionStore interface {
	Save(ctx context.Context, sess *domain.Session) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	// Update overwrites an existing session without extending its lifetime.
	// It returns domain.ErrSessionNotFound when the session is gone.
	Update(ctx context.Context, sess *domain.Session) error
	Delete(ctx context.Context, id string) error
}
