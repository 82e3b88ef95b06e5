package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mern-eats/my-user-gateway/internal/api/middleware"
	"github.com/mern-eats/my-user-gateway/internal/core/domain"
	"github.com/mern-eats/my-user-gateway/internal/core/service"
)

const testCookie = "test_session"

var errBoom = errors.New("boom")

// --- identity provider ---

type stubIdP struct {
	mu           sync.Mutex
	loginState   string
	loginVerify  string
	exchangeCode string
	exchangeVer  string
	identity     domain.Identity
	tokens       domain.TokenSet
	exchangeErr  error
}

func (s *stubIdP) LoginURL(state, verifier string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loginState, s.loginVerify = state, verifier
	return "https://idp.test/authorize?state=" + url.QueryEscape(state)
}

func (s *stubIdP) Exchange(_ context.Context, code, verifier string) (domain.Identity, domain.TokenSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exchangeCode, s.exchangeVer = code, verifier
	return s.identity, s.tokens, s.exchangeErr
}

func (s *stubIdP) LogoutURL(returnTo string) string {
	return "https://idp.test/v2/logout?returnTo=" + url.QueryEscape(returnTo)
}

// --- session store ---

type memSessions struct {
	mu      sync.Mutex
	data    map[string]*domain.Session
	deleted []string
	saveErr error
}

func newMemSessions() *memSessions {
	return &memSessions{data: map[string]*domain.Session{}}
}

func (m *memSessions) Save(_ context.Context, s *domain.Session) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[s.ID] = s
	return nil
}

func (m *memSessions) Get(_ context.Context, id string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.data[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

func (m *memSessions) Update(_ context.Context, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[s.ID]; !ok {
		return domain.ErrSessionNotFound
	}
	m.data[s.ID] = s
	return nil
}

func (m *memSessions) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *memSessions) only(t *testing.T) *domain.Session {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.data) != 1 {
		t.Fatalf("expected exactly one stored session, got %d", len(m.data))
	}
	for _, s := range m.data {
		return s
	}
	return nil
}

// --- guard, flow, forgetter ---

type stubGuard struct {
	resets []string
}

func (g *stubGuard) Acquire(context.Context, string) (bool, error) { return true, nil }

func (g *stubGuard) Reset(_ context.Context, sessionID string) error {
	g.resets = append(g.resets, sessionID)
	return nil
}

type stubFlow struct {
	calls []*domain.Session
}

func (f *stubFlow) Evaluate(_ context.Context, sess *domain.Session) (string, service.Decision) {
	f.calls = append(f.calls, sess)
	if sess == nil {
		return domain.RootRoute, service.DecisionIncompleteIdentity
	}
	return domain.RootRoute, service.DecisionEnqueued
}

type stubForgetter struct {
	forgotten []string
}

func (f *stubForgetter) Forget(sessionID string) {
	f.forgotten = append(f.forgotten, sessionID)
}

// --- user service ---

type stubUsers struct {
	getFn    func(ctx context.Context, sid string) (*domain.User, error)
	updateFn func(ctx context.Context, sid string, req domain.UpdateUserRequest) (*domain.User, error)
	states   map[string]service.OperationState
}

func (s *stubUsers) GetMyUser(ctx context.Context, sid string) (*domain.User, error) {
	return s.getFn(ctx, sid)
}

func (s *stubUsers) UpdateMyUser(ctx context.Context, sid string, req domain.UpdateUserRequest) (*domain.User, error) {
	return s.updateFn(ctx, sid, req)
}

func (s *stubUsers) States(string) map[string]service.OperationState {
	return s.states
}

// --- helpers ---

// browser replays cookies between requests like a user agent would.
type browser struct {
	e       *echo.Echo
	cookies map[string]*http.Cookie
}

func newBrowser(e *echo.Echo) *browser {
	return &browser{e: e, cookies: map[string]*http.Cookie{}}
}

func (b *browser) get(target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	b.e.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c
	}
	return rec
}

// newTestEcho returns an echo instance with the cookie-session stack
// installed. Handler errors are recorded in *lastErr.
func newTestEcho(store *memSessions) (*echo.Echo, *error) {
	cookies := sessions.NewCookieStore([]byte(strings.Repeat("h", 32)), []byte(strings.Repeat("b", 32)))
	cookies.Options = &sessions.Options{Path: "/", MaxAge: 3600, HttpOnly: true}

	e := echo.New()
	e.Validator = NewValidator()
	var lastErr error
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		lastErr = err
		e.DefaultHTTPErrorHandler(err, c)
	}
	e.Use(session.Middleware(cookies))
	e.Use(middleware.Session(testCookie, store, zerolog.Nop()))
	return e, &lastErr
}

// withSession returns an echo context bound to sess, as the Session
// middleware would leave it.
func withSession(e *echo.Echo, req *http.Request, sess *domain.Session) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if sess != nil {
		c.Set(middleware.ContextKey, sess)
		c.SetRequest(req.WithContext(domain.ContextWithSession(req.Context(), sess)))
	}
	return c, rec
}
