package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mern-eats/my-user-gateway/internal/core/domain"
)

const cookieName = "test_session"

type memStore struct {
	sessions map[string]*domain.Session
	err      error
}

func (m *memStore) Save(_ context.Context, s *domain.Session) error {
	m.sessions[s.ID] = s
	return nil
}

func (m *memStore) Get(_ context.Context, id string) (*domain.Session, error) {
	if m.err != nil {
		return nil, m.err
	}
	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

func (m *memStore) Update(_ context.Context, s *domain.Session) error {
	if _, ok := m.sessions[s.ID]; !ok {
		return domain.ErrSessionNotFound
	}
	m.sessions[s.ID] = s
	return nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	delete(m.sessions, id)
	return nil
}

func newEcho(store *memStore) (*echo.Echo, *sessions.CookieStore) {
	cookies := sessions.NewCookieStore([]byte(strings.Repeat("h", 32)), []byte(strings.Repeat("b", 32)))
	e := echo.New()
	e.Use(session.Middleware(cookies))
	e.Use(Session(cookieName, store, zerolog.Nop()))

	// /login plants a session id in the cookie.
	e.GET("/login", func(c echo.Context) error {
		cs, err := Cookie(c, cookieName)
		if err != nil {
			return err
		}
		cs.Values[ValueSessionID] = c.QueryParam("sid")
		if err := cs.Save(c.Request(), c.Response()); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	})
	e.GET("/me", func(c echo.Context) error {
		sess, _ := c.Get(ContextKey).(*domain.Session)
		fromCtx, ok := domain.SessionFromContext(c.Request().Context())
		if !ok || fromCtx != sess {
			return c.String(http.StatusInternalServerError, "request context not bound")
		}
		return c.String(http.StatusOK, sess.Identity.Subject)
	}, RequireSession())
	return e, cookies
}

func loginCookie(t *testing.T, e *echo.Echo, sid string) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login?sid="+sid, nil))
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatalf("no cookie set")
	}
	return cookies[0]
}

func TestSession_BindsStoredSession(t *testing.T) {
	store := &memStore{sessions: map[string]*domain.Session{
		"s1": {ID: "s1", Identity: domain.Identity{Subject: "auth0|123"}},
	}}
	e, _ := newEcho(store)
	cookie := loginCookie(t, e, "s1")

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "auth0|123" {
		t.Fatalf("expected 200 auth0|123, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestSession_NoCookie_Unauthorized(t *testing.T) {
	e, _ := newEcho(&memStore{sessions: map[string]*domain.Session{}})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestSession_ExpiredSession_Unauthorized(t *testing.T) {
	store := &memStore{sessions: map[string]*domain.Session{}}
	e, _ := newEcho(store)
	cookie := loginCookie(t, e, "gone")

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestSession_StoreError_ContinuesAnonymously(t *testing.T) {
	store := &memStore{sessions: map[string]*domain.Session{}, err: errors.New("redis down")}
	e, _ := newEcho(store)
	cookie := loginCookie(t, e, "s1")

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestSession_TamperedCookie_Unauthorized(t *testing.T) {
	store := &memStore{sessions: map[string]*domain.Session{"s1": {ID: "s1"}}}
	e, _ := newEcho(store)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: "forged"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
