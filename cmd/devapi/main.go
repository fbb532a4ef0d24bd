// Command devapi runs a local posts REST API backed by SQLite, so the web
// client can be developed and tested without the production backend.
//
// CONFIGURATION (environment or .env):
//
//	PORT        listen port                               (8000)
//	DB_PATH     SQLite file, created on first start       (data/devapi.db)
//	JWT_SECRET  HMAC key for access tokens, 16+ chars     (required)
//	TOKEN_TTL   access token lifetime                     (60m)
//	LOG_LEVEL   debug, info, warn, error                  (info)
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/sakif/social-feed/internal/auth"
	"github.com/sakif/social-feed/internal/config"
	"github.com/sakif/social-feed/internal/devapi"
	"github.com/sakif/social-feed/internal/repository/sqlite"
	"github.com/sakif/social-feed/internal/server"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("failed to load .env", slog.String("error", err.Error()))
		os.Exit(1)
	}

	level, err := config.LogLevel("LOG_LEVEL", slog.LevelInfo)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	if err != nil {
		logger.Warn("ignoring LOG_LEVEL", slog.String("error", err.Error()))
	}

	if err := run(logger); err != nil {
		logger.Error("dev API error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// === 1. STORAGE ===
	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return fmt.Errorf("creating database directory: %w", err)
		}
	}
	db, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	// === 2. AUTH ===
	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}

	// === 3. HTTP ===
	api, err := devapi.New(db, tokens, auth.NewPasswordService(), logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      api.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("dev API starting",
		slog.Int("port", cfg.Port),
		slog.String("db", cfg.DBPath),
		slog.Duration("token_ttl", tokens.TTL()),
	)
	return server.Run(srv, logger)
}

func loadConfig() (devapi.Config, error) {
	cfg := devapi.Config{
		DBPath:    config.String("DB_PATH", "data/devapi.db"),
		JWTSecret: config.String("JWT_SECRET", ""),
	}
	if cfg.JWTSecret == "" {
		return cfg, errors.New("JWT_SECRET is required")
	}

	var err error
	if cfg.Port, err = config.Int("PORT", 8000); err != nil {
		return cfg, err
	}
	if cfg.TokenTTL, err = config.Duration("TOKEN_TTL", auth.DefaultTokenTTL); err != nil {
		return cfg, err
	}
	return cfg, nil
}
