// @title        My User Gateway API
// @version      1.0
// @description  Session-backed gateway for the signed-in user's profile and post-login provisioning.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"

	_ "github.com/mern-eats/my-user-gateway/docs"
	"github.com/mern-eats/my-user-gateway/internal/api"
	"github.com/mern-eats/my-user-gateway/internal/api/handler"
	"github.com/mern-eats/my-user-gateway/internal/core/service"
	"github.com/mern-eats/my-user-gateway/internal/infrastructure/config"
	mongodb "github.com/mern-eats/my-user-gateway/internal/infrastructure/db/mongo"
	redisdb "github.com/mern-eats/my-user-gateway/internal/infrastructure/db/redis"
	"github.com/mern-eats/my-user-gateway/internal/infrastructure/identity"
	"github.com/mern-eats/my-user-gateway/internal/infrastructure/queue"
	"github.com/mern-eats/my-user-gateway/internal/infrastructure/secrets"
	"github.com/mern-eats/my-user-gateway/internal/infrastructure/userapi"
	"github.com/mern-eats/my-user-gateway/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		log := logger.Init(logger.Options{Service: "my-user-gateway"})
		log.Fatal().Err(err).Msg("configuration error")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Development(),
		Service: "my-user-gateway",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- Storage ---
	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer rdb.Close()

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(dctx)
	}()

	audit := mongodb.NewProvisioningRepository(db)
	if err := audit.EnsureIndexes(ctx); err != nil {
		return err
	}

	sessionStore := redisdb.NewSessionStore(rdb, cfg.Session.TTL)
	guard := redisdb.NewProvisioningGuard(rdb, cfg.Session.TTL)
	notifications := redisdb.NewNotificationQueue(rdb, cfg.Session.TTL)

	// --- Identity ---
	keys, err := secrets.Derive(cfg.Session.Secret)
	if err != nil {
		return err
	}
	cookies := sessions.NewCookieStore(keys.CookieHash, keys.CookieBlock)
	cookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.Session.TTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Session.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}

	auth, err := identity.NewAuthenticator(ctx, identity.Config{
		Domain:       cfg.Auth.Domain,
		ClientID:     cfg.Auth.ClientID,
		ClientSecret: cfg.Auth.ClientSecret,
		CallbackURL:  cfg.Auth.CallbackURL,
		Audience:     cfg.Auth.Audience,
	})
	if err != nil {
		return errors.Join(config.ErrAuthConfig, err)
	}
	tokens := identity.NewSessionTokens(auth.OAuthConfig(), sessionStore, logger.Component("tokens"))

	// --- Core ---
	client := userapi.NewClient(cfg.APIBaseURL, tokens, nil, logger.Component("userapi"))
	users := service.NewUserService(client, notifications, service.NewStateTracker(cfg.Session.TTL), logger.Component("users"))
	jobs := service.NewJobRunner(users, audit, logger.Component("provisioning"))

	dispatcher := queue.NewDispatcher(cfg.Provisioning.Workers, cfg.Provisioning.Timeout, jobs, logger.Component("dispatcher"))
	// Workers outlive the signal context so queued jobs drain on shutdown.
	dispatcher.Start(context.WithoutCancel(ctx))
	defer dispatcher.Stop()

	flow := service.NewProvisioningFlow(guard, dispatcher, logger.Component("provisioning"))

	// --- HTTP ---
	e := api.NewRouter(api.Dependencies{
		Cookies:    cookies,
		CookieName: cfg.Session.CookieName,
		AppBaseURL: cfg.AppBaseURL,
		IdP:        auth,
		Sessions:   sessionStore,
		Guard:      guard,
		Inbox:      notifications,
		States:     identity.NewStateCodec(keys.State, 0),
		Flow:       flow,
		Users:      users,
		History:    jobs,
		Dependencies: map[string]handler.Pinger{
			"redis":   redisdb.Pinger{Client: rdb},
			"mongodb": mongodb.Pinger{DB: db},
		},
		Log: logger.Component("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(sctx)
}
