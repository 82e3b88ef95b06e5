package middleware

import (
	"errors"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mern-eats/my-user-gateway/internal/core/domain"
	"github.com/mern-eats/my-user-gateway/internal/core/ports"
)

const (
	// ContextKey is the echo context key holding the *domain.Session.
	ContextKey = "session"

	// Cookie values.
	ValueSessionID = "sid"
	ValueNonce     = "nonce"
	ValueVerifier  = "verifier"
)

// Cookie returns the signed and encrypted cookie session called name. It
// requires the echo-contrib session middleware.
func Cookie(c echo.Context, name string) (*sessions.Session, error) {
	return session.Get(name, c)
}

// Session resolves the login session referenced by the cookie and binds it
// to both the echo context and the request context. Requests without a valid
// session continue anonymously.
func Session(cookieName string, store ports.SessionStore, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cs, err := Cookie(c, cookieName)
			if err != nil {
				// Undecodable cookie (rotated secret, tampering): treat as anonymous.
				log.Debug().Err(err).Msg("ignoring unreadable session cookie")
				return next(c)
			}

			sid, _ := cs.Values[ValueSessionID].(string)
			if sid == "" {
				return next(c)
			}

			sess, err := store.Get(c.Request().Context(), sid)
			if err != nil {
				if !errors.Is(err, domain.ErrSessionNotFound) {
					log.Warn().Err(err).Str("session_id", sid).Msg("session lookup failed")
				}
				return next(c)
			}

			c.Set(ContextKey, sess)
			c.SetRequest(c.Request().WithContext(domain.ContextWithSession(c.Request().Context(), sess)))
			return next(c)
		}
	}
}

// RequireSession rejects requests that carry no login session.
func RequireSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := c.Get(ContextKey).(*domain.Session); !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "login required")
			}
			return next(c)
		}
	}
}
