package domain

import (
	"context"
	"time"
)

// Identity is the authenticated end user as reported by the identity provider.
type Identity struct {
	Subject string `json:"sub"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
}

// Complete reports whether the identity carries everything provisioning needs.
func (i Identity) Complete() bool {
	return i.Subject != "" && i.Email != ""
}

// TokenSet holds the provider-issued credentials for one login session.
type TokenSet struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
}

// Session is one login session, created on a successful callback and removed
// on logout.
type Session struct {
	ID        string    `json:"id"`
	Identity  Identity  `json:"identity"`
	Tokens    TokenSet  `json:"tokens"`
	CreatedAt time.Time `json:"created_at"`
}

type sessionKey struct{}

// ContextWithSession returns a copy of ctx carrying sess.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// SessionFromContext returns the session stored by ContextWithSession, if any.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(*Session)
	return sess, ok && sess != nil
}
