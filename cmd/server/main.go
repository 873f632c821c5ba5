package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rohits-web03/inkwell/internal/api"
	"github.com/rohits-web03/inkwell/internal/api/middleware"
	"github.com/rohits-web03/inkwell/internal/api/services"
	"github.com/rohits-web03/inkwell/internal/cache"
	"github.com/rohits-web03/inkwell/internal/config"
	"github.com/rohits-web03/inkwell/internal/logger"
	"github.com/rohits-web03/inkwell/internal/repositories"
	"golang.org/x/sync/errgroup"
)

// @title Inkwell API
// @version 1.0
// @description Token-authenticated blog backend.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	log := logger.New(cfg.Environment)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := repositories.ConnectDatabase(cfg.DB_URL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	log.Info("Database connected")

	blobs, err := newBlobStore(cfg)
	if err != nil {
		return err
	}

	var postCache *cache.Cache
	if cfg.RedisURL != "" {
		postCache, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn("Redis unavailable, continuing without cache", "error", err)
			postCache = nil
		} else {
			defer postCache.Close()
			log.Info("Redis connected")
		}
	}

	tokens := services.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	auth := services.NewAuthService(repositories.NewUserRepository(db), tokens)
	posts := services.NewPostService(repositories.NewPostRepository(db), blobs, postCache, cfg.ThumbnailMaxBytes)

	handler := api.SetupRouter(api.Deps{
		Auth:    auth,
		Posts:   posts,
		Google:  services.NewGoogleOAuth(cfg.Google),
		Blobs:   blobs,
		Metrics: middleware.NewMetrics(),
		Logger:  log,
		Cors:    cfg.CorsConfig,
		// base64 inflates by 4/3; leave room for the other fields.
		MaxBodyBytes:  cfg.ThumbnailMaxBytes*4/3 + 1<<20,
		SecureCookies: cfg.IsProduction(),
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
		// Timeouts prevent resource exhaustion from slow clients
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Starting Inkwell server", "port", cfg.Port, "env", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on port %s: %w", cfg.Port, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newBlobStore(cfg config.Config) (repositories.BlobStore, error) {
	if cfg.R2.Enabled() {
		slog.Info("Storing thumbnails in R2", "bucket", cfg.R2.BucketName)
		return repositories.NewR2Store(cfg.R2, cfg.PublicBaseURL), nil
	}
	store, err := repositories.NewDiskStore(cfg.MediaDir, cfg.PublicBaseURL)
	if err != nil {
		return nil, err
	}
	slog.Info("Storing thumbnails on disk", "dir", cfg.MediaDir)
	return store, nil
}
