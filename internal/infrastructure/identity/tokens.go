package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/mern-eats/my-user-gateway/internal/core/domain"
	"github.com/mern-eats/my-user-gateway/internal/core/ports"
)

// SessionTokens acquires access tokens silently for the session carried by
// the request context, refreshing with the refresh token once expired.
// Rotated tokens are written back to the session store, but only while the
// session still exists.
type SessionTokens struct {
	oauth *oauth2.Config
	store ports.SessionStore
	log   zerolog.Logger
}

var _ ports.TokenSource = (*SessionTokens)(nil)

func NewSessionTokens(oauth *oauth2.Config, store ports.SessionStore, log zerolog.Logger) *SessionTokens {
	return &SessionTokens{oauth: oauth, store: store, log: log}
}

// AccessToken returns a currently valid access token.
func (s *SessionTokens) AccessToken(ctx context.Context) (string, error) {
	sess, ok := domain.SessionFromContext(ctx)
	if !ok {
		return "", domain.ErrLoginRequired
	}

	current := toOAuth(sess.Tokens)
	tok, err := s.oauth.TokenSource(ctx, current).Token()
	if err != nil {
		return "", fmt.Errorf("acquire token: %w", err)
	}

	if tok.AccessToken != current.AccessToken {
		sess.Tokens = fromOAuth(tok)
		if tok.RefreshToken == "" {
			sess.Tokens.RefreshToken = current.RefreshToken
		}
		if err := s.store.Update(ctx, sess); err != nil {
			if errors.Is(err, domain.ErrSessionNotFound) {
				// Logged out or expired while the caller held a copy.
				return "", domain.ErrLoginRequired
			}
			s.log.Warn().Err(err).Str("session_id", sess.ID).Msg("failed to persist refreshed token")
		}
	}
	return tok.AccessToken, nil
}
