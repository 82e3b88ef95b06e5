package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/mern-eats/my-user-gateway/internal/core/domain"
)

// stubSessionStore treats every session as live unless listed in gone.
type stubSessionStore struct {
	saved []*domain.Session
	gone  map[string]bool
}

func (s *stubSessionStore) Save(_ context.Context, sess *domain.Session) error {
	clone := *sess
	s.saved = append(s.saved, &clone)
	return nil
}

func (s *stubSessionStore) Update(ctx context.Context, sess *domain.Session) error {
	if s.gone[sess.ID] {
		return domain.ErrSessionNotFound
	}
	return s.Save(ctx, sess)
}

func (s *stubSessionStore) Get(_ context.Context, _ string) (*domain.Session, error) {
	return nil, domain.ErrSessionNotFound
}

func (s *stubSessionStore) Delete(_ context.Context, _ string) error { return nil }

func refreshServer(t *testing.T, calls *int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		_ = r.ParseForm()
		if r.Form.Get("grant_type") != "refresh_token" || r.Form.Get("refresh_token") != "refresh-1" {
			t.Errorf("unexpected refresh request: %v", r.Form)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"access-2","token_type":"Bearer","expires_in":3600}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func oauthConfig(tokenURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID: "client-id",
		Endpoint: oauth2.Endpoint{TokenURL: tokenURL, AuthStyle: oauth2.AuthStyleInParams},
	}
}

func TestSessionTokens_ValidTokenIsReused(t *testing.T) {
	calls := 0
	srv := refreshServer(t, &calls)
	store := &stubSessionStore{}
	src := NewSessionTokens(oauthConfig(srv.URL), store, zerolog.Nop())

	sess := &domain.Session{ID: "s1", Tokens: domain.TokenSet{
		AccessToken: "access-1", TokenType: "Bearer", RefreshToken: "refresh-1", Expiry: time.Now().Add(time.Hour),
	}}
	tok, err := src.AccessToken(domain.ContextWithSession(context.Background(), sess))
	if err != nil {
		t.Fatalf("AccessToken returned error: %v", err)
	}
	if tok != "access-1" {
		t.Fatalf("expected cached token, got %q", tok)
	}
	if calls != 0 || len(store.saved) != 0 {
		t.Fatalf("valid token must not be refreshed")
	}
}

func TestSessionTokens_ExpiredTokenIsRefreshedAndPersisted(t *testing.T) {
	calls := 0
	srv := refreshServer(t, &calls)
	store := &stubSessionStore{}
	src := NewSessionTokens(oauthConfig(srv.URL), store, zerolog.Nop())

	sess := &domain.Session{ID: "s1", Tokens: domain.TokenSet{
		AccessToken: "access-1", TokenType: "Bearer", RefreshToken: "refresh-1", Expiry: time.Now().Add(-time.Minute),
	}}
	tok, err := src.AccessToken(domain.ContextWithSession(context.Background(), sess))
	if err != nil {
		t.Fatalf("AccessToken returned error: %v", err)
	}
	if tok != "access-2" || calls != 1 {
		t.Fatalf("expected refreshed token, got %q after %d calls", tok, calls)
	}
	if len(store.saved) != 1 {
		t.Fatalf("expected refreshed session to be saved")
	}
	saved := store.saved[0].Tokens
	if saved.AccessToken != "access-2" || saved.RefreshToken != "refresh-1" {
		t.Fatalf("unexpected persisted tokens: %+v", saved)
	}
}

func TestSessionTokens_NoSession(t *testing.T) {
	src := NewSessionTokens(oauthConfig("http://unused"), &stubSessionStore{}, zerolog.Nop())
	if _, err := src.AccessToken(context.Background()); !errors.Is(err, domain.ErrLoginRequired) {
		t.Fatalf("expected ErrLoginRequired, got %v", err)
	}
}

func TestSessionTokens_ExpiredWithoutRefreshToken(t *testing.T) {
	src := NewSessionTokens(oauthConfig("http://unused"), &stubSessionStore{}, zerolog.Nop())
	sess := &domain.Session{ID: "s1", Tokens: domain.TokenSet{AccessToken: "a", Expiry: time.Now().Add(-time.Minute)}}

	if _, err := src.AccessToken(domain.ContextWithSession(context.Background(), sess)); err == nil {
		t.Fatalf("expected error for expired token without refresh token")
	}
}

func TestSessionTokens_RefreshForEndedSessionIsNotPersisted(t *testing.T) {
	calls := 0
	srv := refreshServer(t, &calls)
	store := &stubSessionStore{gone: map[string]bool{"gone": true}}
	src := NewSessionTokens(oauthConfig(srv.URL), store, zerolog.Nop())

	// A queued job still holds a copy of a session that was logged out.
	snapshot := &domain.Session{ID: "gone", Tokens: domain.TokenSet{
		AccessToken: "access-1", TokenType: "Bearer", RefreshToken: "refresh-1", Expiry: time.Now().Add(-time.Minute),
	}}
	tok, err := src.AccessToken(domain.ContextWithSession(context.Background(), snapshot))

	if !errors.Is(err, domain.ErrLoginRequired) {
		t.Fatalf("expected ErrLoginRequired, got token=%q err=%v", tok, err)
	}
	if len(store.saved) != 0 {
		t.Fatalf("ended session must not be written back, got %d saves", len(store.saved))
	}
}
