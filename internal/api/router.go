package api

import (
	"sync"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/mern-eats/my-user-gateway/internal/api/handler"
	"github.com/mern-eats/my-user-gateway/internal/api/middleware"
	"github.com/mern-eats/my-user-gateway/internal/core/ports"
)

// Collectors register with the default registry, so the middleware is built once per process.
var httpMetrics = sync.OnceValue(func() echo.MiddlewareFunc {
	return echoprometheus.NewMiddleware("portal")
})

// Dependencies carries everything the HTTP surface is wired to.
type Dependencies struct {
	Cookies    sessions.Store
	CookieName string
	AppBaseURL string

	IdP          ports.IdentityProvider
	Sessions     ports.SessionStore
	Guard        ports.ProvisioningGuard
	Inbox        ports.NotificationInbox
	States       handler.StateCodec
	Flow         handler.ProvisioningFlow
	Users        UserService
	History      handler.ProvisioningHistory
	Dependencies map[string]handler.Pinger
	Log          zerolog.Logger
}

// UserService is what both the user and auth handlers need from the
// my-user service.
type UserService interface {
	handler.UserService
	handler.SessionForgetter
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(httpMetrics())
	e.Use(session.Middleware(d.Cookies))
	e.Use(middleware.Session(d.CookieName, d.Sessions, d.Log))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(handler.AuthDeps{
		IdP:        d.IdP,
		Sessions:   d.Sessions,
		Guard:      d.Guard,
		States:     d.States,
		Flow:       d.Flow,
		Users:      d.Users,
		CookieName: d.CookieName,
		AppBaseURL: d.AppBaseURL,
		Log:        d.Log,
	})
	userHandler := handler.NewUserHandler(d.Users)
	provisioningHandler := handler.NewProvisioningHandler(d.History)
	notificationHandler := handler.NewNotificationHandler(d.Inbox)
	healthHandler := handler.NewHealthHandler(d.Dependencies)

	// --- Auth routes ---
	e.GET("/auth/login", authHandler.Login)
	e.GET("/auth/callback", authHandler.Callback)
	e.GET("/auth/logout", authHandler.Logout)
	e.GET("/auth-callback", authHandler.AuthCallback)

	// --- Session-protected API ---
	my := e.Group("/api", middleware.RequireSession())
	my.GET("/my/user", userHandler.GetMyUser)
	my.PUT("/my/user", userHandler.UpdateMyUser)
	my.GET("/my/user/state", userHandler.States)
	my.GET("/my/provisioning", provisioningHandler.List)
	my.GET("/notifications", notificationHandler.Drain)

	// --- Health probes (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)

	// --- Operational ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}
