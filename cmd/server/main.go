// Command server runs the social feed web client.
//
// CONFIGURATION (environment or .env):
//
//	PORT              listen port                      (8501)
//	API_BASE_URL      root of the posts REST API       (http://127.0.0.1:8000)
//	API_TIMEOUT       per backend call                 (10s)
//	SESSION_LIFETIME  session cookie lifetime          (24h)
//	SECURE_COOKIES    Secure flag on the cookie        (false)
//	LOG_LEVEL         debug, info, warn, error         (info)
package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/sakif/social-feed/internal/api"
	"github.com/sakif/social-feed/internal/config"
	"github.com/sakif/social-feed/internal/server"
)

func main() {
	// === 1. CONFIGURATION ===
	// .env is optional; real environment variables take precedence.
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("failed to load .env", slog.String("error", err.Error()))
		os.Exit(1)
	}

	level, err := config.LogLevel("LOG_LEVEL", slog.LevelInfo)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	if err != nil {
		logger.Warn("ignoring LOG_LEVEL", slog.String("error", err.Error()))
	}

	cfg, err := loadConfig()
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. CREATE AND START THE SERVER ===
	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func loadConfig() (server.Config, error) {
	cfg := server.Config{
		APIBaseURL: config.String("API_BASE_URL", "http://127.0.0.1:8000"),
	}

	var err error
	if cfg.Port, err = config.Int("PORT", 8501); err != nil {
		return cfg, err
	}
	if cfg.APITimeout, err = config.Duration("API_TIMEOUT", api.DefaultTimeout); err != nil {
		return cfg, err
	}
	if cfg.SessionLifetime, err = config.Duration("SESSION_LIFETIME", 24*time.Hour); err != nil {
		return cfg, err
	}
	if cfg.SecureCookies, err = config.Bool("SECURE_COOKIES", false); err != nil {
		return cfg, err
	}
	return cfg, nil
}
