package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/mern-eats/my-user-gateway/internal/api/metrics"
	"github.com/mern-eats/my-user-gateway/internal/api/middleware"
	"github.com/mern-eats/my-user-gateway/internal/core/domain"
	"github.com/mern-eats/my-user-gateway/internal/core/ports"
	"github.com/mern-eats/my-user-gateway/internal/core/service"
)

// StateCodec signs and verifies the OAuth state parameter.
type StateCodec interface {
	Encode(nonce, returnTo string) (string, error)
	Decode(state, nonce string) (returnTo string, err error)
}

// ProvisioningFlow decides where to send a freshly authenticated user.
type ProvisioningFlow interface {
	Evaluate(ctx context.Context, sess *domain.Session) (string, service.Decision)
}

// SessionForgetter drops per-session operation state.
type SessionForgetter interface {
	Forget(sessionID string)
}

// AuthHandler drives the identity-provider login, callback and logout.
type AuthHandler struct {
	idp        ports.IdentityProvider
	sessions   ports.SessionStore
	guard      ports.ProvisioningGuard
	states     StateCodec
	flow       ProvisioningFlow
	users      SessionForgetter
	cookieName string
	appBaseURL string
	log        zerolog.Logger
	now        func() time.Time
}

// AuthDeps groups the collaborators of AuthHandler.
type AuthDeps struct {
	IdP        ports.IdentityProvider
	Sessions   ports.SessionStore
	Guard      ports.ProvisioningGuard
	States     StateCodec
	Flow       ProvisioningFlow
	Users      SessionForgetter
	CookieName string
	AppBaseURL string
	Log        zerolog.Logger
}

func NewAuthHandler(d AuthDeps) *AuthHandler {
	return &AuthHandler{
		idp:        d.IdP,
		sessions:   d.Sessions,
		guard:      d.Guard,
		states:     d.States,
		flow:       d.Flow,
		users:      d.Users,
		cookieName: d.CookieName,
		appBaseURL: d.AppBaseURL,
		log:        d.Log,
		now:        time.Now,
	}
}

// Login starts the authorization-code flow.
//
// @Summary      Start login
// @Description  Redirects to the identity provider. After the callback the browser is sent to returnTo (a local path) or /auth-callback.
// @Tags         auth
// @Param        returnTo  query  string  false  "Local path to return to after login"
// @Success      302
// @Failure      500  {object}  errorResponse
// @Router       /auth/login [get]
func (h *AuthHandler) Login(c echo.Context) error {
	cs, err := middleware.Cookie(c, h.cookieName)
	if cs == nil {
		return err
	}
	if err != nil {
		// A cookie sealed with an older key is replaced on save.
		h.log.Debug().Err(err).Msg("discarding unreadable session cookie")
	}

	nonce := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	state, err := h.states.Encode(nonce, c.QueryParam("returnTo"))
	if err != nil {
		return err
	}

	cs.Values[middleware.ValueNonce] = nonce
	cs.Values[middleware.ValueVerifier] = verifier
	if err := cs.Save(c.Request(), c.Response()); err != nil {
		return err
	}

	return c.Redirect(http.StatusFound, h.idp.LoginURL(state, verifier))
}

// Callback completes the authorization-code flow and opens a session.
//
// @Summary      Login callback
// @Tags         auth
// @Param        code   query  string  true  "Authorization code"
// @Param        state  query  string  true  "Signed OAuth state"
// @Success      302
// @Failure      400  {object}  errorResponse
// @Failure      401  {object}  errorResponse
// @Router       /auth/callback [get]
func (h *AuthHandler) Callback(c echo.Context) error {
	ctx := c.Request().Context()

	if idpErr := c.QueryParam("error"); idpErr != "" {
		h.log.Warn().
			Str("error", idpErr).
			Str("description", c.QueryParam("error_description")).
			Msg("identity provider rejected login")
		return echo.NewHTTPError(http.StatusUnauthorized, "login was not completed")
	}

	cs, err := middleware.Cookie(c, h.cookieName)
	if err != nil {
		return domain.ErrInvalidState
	}
	nonce, _ := cs.Values[middleware.ValueNonce].(string)
	verifier, _ := cs.Values[middleware.ValueVerifier].(string)
	if nonce == "" || verifier == "" {
		return domain.ErrInvalidState
	}

	returnTo, err := h.states.Decode(c.QueryParam("state"), nonce)
	if err != nil {
		return err
	}

	code := c.QueryParam("code")
	if code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing authorization code")
	}

	identity, tokens, err := h.idp.Exchange(ctx, code, verifier)
	if err != nil {
		h.log.Warn().Err(err).Msg("code exchange failed")
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication failed")
	}

	// A new login always gets a new session id.
	if prev, _ := cs.Values[middleware.ValueSessionID].(string); prev != "" {
		h.endSession(ctx, prev)
	}

	sess := &domain.Session{
		ID:        uuid.NewString(),
		Identity:  identity,
		Tokens:    tokens,
		CreatedAt: h.now().UTC(),
	}
	if err := h.sessions.Save(ctx, sess); err != nil {
		return err
	}

	delete(cs.Values, middleware.ValueNonce)
	delete(cs.Values, middleware.ValueVerifier)
	cs.Values[middleware.ValueSessionID] = sess.ID
	if err := cs.Save(c.Request(), c.Response()); err != nil {
		return err
	}

	h.log.Info().Str("session_id", sess.ID).Str("subject", identity.Subject).Msg("login completed")
	return c.Redirect(http.StatusFound, returnTo)
}

// AuthCallback runs the post-authentication provisioning flow.
//
// @Summary      Post-login landing
// @Description  Starts a one-shot background create of the user record and redirects to the root route without waiting for it.
// @Tags         auth
// @Success      302
// @Router       /auth-callback [get]
func (h *AuthHandler) AuthCallback(c echo.Context) error {
	sess, _ := optionalSession(c)

	route, decision := h.flow.Evaluate(c.Request().Context(), sess)
	metrics.ProvisioningDecisionsTotal.WithLabelValues(string(decision)).Inc()

	return c.Redirect(http.StatusFound, route)
}

// Logout ends the session locally and at the identity provider.
//
// @Summary      Logout
// @Tags         auth
// @Success      302
// @Router       /auth/logout [get]
func (h *AuthHandler) Logout(c echo.Context) error {
	if sess, ok := optionalSession(c); ok {
		h.endSession(c.Request().Context(), sess.ID)
	}

	if cs, _ := middleware.Cookie(c, h.cookieName); cs != nil {
		cs.Values = map[any]any{}
		cs.Options = expired(cs.Options)
		if err := cs.Save(c.Request(), c.Response()); err != nil {
			h.log.Warn().Err(err).Msg("failed to clear session cookie")
		}
	}

	return c.Redirect(http.StatusFound, h.idp.LogoutURL(h.appBaseURL))
}

// endSession removes the stored session and the state keyed by it. The
// provisioning guard is reset here so the next login provisions again.
func (h *AuthHandler) endSession(ctx context.Context, sessionID string) {
	log := h.log.With().Str("session_id", sessionID).Logger()
	if err := h.sessions.Delete(ctx, sessionID); err != nil {
		log.Warn().Err(err).Msg("failed to delete session")
	}
	if err := h.guard.Reset(ctx, sessionID); err != nil {
		log.Warn().Err(err).Msg("failed to reset provisioning guard")
	}
	h.users.Forget(sessionID)
}

func expired(opts *sessions.Options) *sessions.Options {
	out := sessions.Options{Path: "/"}
	if opts != nil {
		out = *opts
	}
	out.MaxAge = -1
	return &out
}
