package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mern-eats/my-user-gateway/internal/api/middleware"
	"github.com/mern-eats/my-user-gateway/internal/core/domain"
)

// ctxSession extracts the login session bound by the Session middleware and
// fails fast with 401 when the request is anonymous.
func ctxSession(c echo.Context) (*domain.Session, error) {
	sess, ok := optionalSession(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "login required")
	}
	return sess, nil
}

func optionalSession(c echo.Context) (*domain.Session, bool) {
	sess, ok := c.Get(middleware.ContextKey).(*domain.Session)
	return sess, ok && sess != nil
}
