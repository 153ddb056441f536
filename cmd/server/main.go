// Command server runs the todo HTTP API.
//
// @title       Todo API
// @version     1.0
// @description CRUD service for todo lists and their items.
// @BasePath    /
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-todo-backend/internal/config"
	httpapi "github.com/tbourn/go-todo-backend/internal/http"
	"github.com/tbourn/go-todo-backend/internal/http/middleware"
	"github.com/tbourn/go-todo-backend/internal/observability"
	"github.com/tbourn/go-todo-backend/internal/repo"
	"github.com/tbourn/go-todo-backend/internal/sysutil"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("could not load .env")
	}

	cfg := config.MustLoad()
	log.Logger = sysutil.NewLogger(os.Stderr, cfg.LogPretty)
	sysutil.SetLogLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(ctx context.Context, cfg config.Config) error {
	ver := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, ver)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.Open(cfg.DB.URL, dbOptions(cfg))
	if err != nil {
		return err
	}
	if err := repo.AutoMigrate(db); err != nil {
		return err
	}
	pool := repo.NewPool(db)
	defer func() {
		if err := pool.Close(); err != nil {
			log.Warn().Err(err).Msg("closing database pool")
		}
	}()
	if sqlDB, err := db.DB(); err == nil {
		if err := middleware.RegisterDBStats(sqlDB, "todo"); err != nil {
			log.Warn().Err(err).Msg("db pool metrics disabled")
		}
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return err
	}
	httpapi.RegisterRoutes(r, pool, cfg)

	srv := newHTTPServer(cfg, r)
	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("version", ver).
			Bool("postgres", repo.IsPostgresDSN(cfg.DB.URL)).
			Msgf("server started at http://%s", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}

func newHTTPServer(cfg config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}
}

func dbOptions(cfg config.Config) repo.Options {
	return repo.Options{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.DB.ConnMaxIdleTime,
		Tracing:         cfg.OTEL.Enabled,
	}
}
