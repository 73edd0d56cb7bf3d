// Copyright 2025 The Contacts API Authors
// Licensed under the EUPL-1.2

// Package server wires configuration, storage, cache, mail and the
// HTTP surface together and runs the process.
package server

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

	"github.com/contactshq/contacts-api/internal/cache"
	"github.com/contactshq/contacts-api/internal/config"
	"github.com/contactshq/contacts-api/internal/database"
	"github.com/contactshq/contacts-api/internal/handlers"
	"github.com/contactshq/contacts-api/internal/i18n"
	apimw "github.com/contactshq/contacts-api/internal/middleware"
	"github.com/contactshq/contacts-api/internal/models"
	"github.com/contactshq/contacts-api/internal/repository"
	"github.com/contactshq/contacts-api/internal/services/avatar"
	"github.com/contactshq/contacts-api/internal/services/contacts"
	"github.com/contactshq/contacts-api/internal/services/email"
	"github.com/contactshq/contacts-api/internal/services/identity"
	"github.com/contactshq/contacts-api/internal/services/token"
	"github.com/labstack/echo/v4"
	"github.com/urfave/cli/v3"
)

const (
	loginRatePerMinute = 5
	meRatePerMinute    = 10
)

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	setupLogger(cfg.Log.Level, cfg.Log.Format)

	if err := cfg.Validate(); err != nil {
		return err
	}

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
	)

	// Database
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	// i18n
	if initErr := i18n.Init(); initErr != nil {
		return fmt.Errorf("failed to init i18n: %w", initErr)
	}

	// Identity cache
	identityCache, err := setupCache(ctx, cfg)
	if err != nil {
		return err
	}

	// Services
	repo := repository.New(db)
	tokens := token.New([]byte(cfg.Auth.JWTSecret), cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL, cfg.Auth.ActionTTL)
	identitySvc := identity.NewService(repo, identityCache, tokens)
	contactsSvc := contacts.NewService(repo)

	var mailSvc email.Sender
	if cfg.SMTP.Host == "" {
		slog.Warn("no SMTP host configured, emails will be logged instead of sent")
		mailSvc = email.LogSender{}
	} else {
		mailSvc, err = email.NewService(&cfg.SMTP, cfg.Server.BaseURL)
		if err != nil {
			return fmt.Errorf("failed to init mail service: %w", err)
		}
	}

	var avatarSvc avatar.Uploader
	if cfg.S3.Bucket == "" {
		slog.Warn("no S3 bucket configured, avatar uploads are disabled")
		avatarSvc = avatar.Disabled{}
	} else {
		avatarSvc, err = avatar.NewService(ctx, &cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to init avatar store: %w", err)
		}
	}

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	setupMiddleware(e, cfg)
	setupRoutes(e, identitySvc, handlers.New(identitySvc, contactsSvc, mailSvc, avatarSvc))

	return startWithGracefulShutdown(e, cfg)
}

// setupCache picks the redis backend when an address is configured and
// the in-process one otherwise.
func setupCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	if cfg.Redis.Addr == "" {
		slog.Warn("no redis address configured, using in-process identity cache")
		return cache.NewMemory(), nil
	}
	redisCache, err := cache.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return redisCache, nil
}

func setupRoutes(e *echo.Echo, identitySvc *identity.Service, h *handlers.Handlers) {
	e.GET("/health", h.Health)

	// Public auth routes
	authGroup := e.Group("/auth")
	authGroup.POST("/register", h.Register)
	authGroup.POST("/login", h.Login, rateLimiter(loginRatePerMinute))
	authGroup.POST("/refresh", h.Refresh)
	authGroup.GET("/verify-email/:token", h.VerifyEmail)
	authGroup.POST("/password-reset", h.RequestPasswordReset)
	authGroup.POST("/password-reset/confirm", h.ConfirmPasswordReset)

	// Authenticated routes
	users := e.Group("/users", apimw.RequireUser(identitySvc))
	users.GET("/me", h.Me, rateLimiter(meRatePerMinute))
	users.PATCH("/me/avatar", h.UpdateAvatar,
		apimw.RequireVerified(identitySvc),
		apimw.RequireRole(identitySvc, models.RoleAdmin))

	// Contact routes require a verified account
	contactsGroup := e.Group("/contacts",
		apimw.RequireUser(identitySvc),
		apimw.RequireVerified(identitySvc))
	contactsGroup.POST("", h.CreateContact)
	contactsGroup.GET("", h.ListContacts)
	contactsGroup.GET("/birthdays/upcoming", h.UpcomingBirthdays)
	contactsGroup.GET("/:id", h.GetContact)
	contactsGroup.PUT("/:id", h.UpdateContact)
	contactsGroup.DELETE("/:id", h.DeleteContact)
}

func startWithGracefulShutdown(e *echo.Echo, cfg *config.Config) error {
	errChan := make(chan error, 1)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		slog.Info("Server running", "url", cfg.Server.BaseURL)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Wait for interrupt signal or error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		slog.Info("shutting down server")
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}
