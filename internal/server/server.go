// Package server wires the web client together: session store, API client,
// services, handlers and routes.
//
// DEPENDENCY INJECTION FLOW:
//
//	main.go reads Config
//	server.New creates: session.Manager → api.Client → services → handler.Pages
//
// This is the composition root; nothing below it constructs its own
// dependencies.
package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/social-feed/internal/api"
	"github.com/sakif/social-feed/internal/feed"
	"github.com/sakif/social-feed/internal/handler"
	"github.com/sakif/social-feed/internal/middleware"
	"github.com/sakif/social-feed/internal/service"
	"github.com/sakif/social-feed/internal/session"
	"github.com/sakif/social-feed/web"
)

// Config holds the web client configuration.
type Config struct {
	Port            int
	APIBaseURL      string        // root of the posts REST API
	APITimeout      time.Duration // per backend call
	SessionLifetime time.Duration
	SecureCookies   bool // set the Secure flag on the session cookie (HTTPS only)
}

// Server is the web client.
type Server struct {
	router  *chi.Mux
	config  Config
	logger  *slog.Logger
	session *session.Manager
}

// New creates the server and assembles the dependency chain:
//
//  1. session.Manager: per-browser state
//  2. api.Client: the only thing that talks to the backend; it reads the
//     bearer token from the session and ends the session on a 401
//  3. services: page rules, depending on small interfaces
//  4. handler.Pages: HTTP in, template or redirect out
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	if cfg.APIBaseURL == "" {
		return nil, errors.New("server: API base URL is required")
	}
	if cfg.APITimeout <= 0 {
		cfg.APITimeout = api.DefaultTimeout
	}

	sess := session.New(session.Config{
		Lifetime:      cfg.SessionLifetime,
		SecureCookies: cfg.SecureCookies,
		Logger:        logger,
	})

	client := api.New(cfg.APIBaseURL, &http.Client{Timeout: cfg.APITimeout}, sess, logger)

	views, err := handler.NewViews(web.Templates)
	if err != nil {
		return nil, fmt.Errorf("server: loading templates: %w", err)
	}

	pages := handler.NewPages(
		service.NewAccountService(client, sess, logger),
		service.NewPostService(client, sess, logger),
		service.NewFeedService(client, sess, logger),
		sess,
		views,
		logger,
	)

	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		session: sess,
	}
	if err := s.setupRoutes(pages); err != nil {
		return nil, fmt.Errorf("server: setting up routes: %w", err)
	}
	return s, nil
}

// Handler returns the router, for tests and for embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures middleware and routes.
//
// ROUTE STRUCTURE:
//
//	GET  /static/*                     → CSS
//	GET  /, POST /                     → login
//	GET  /signup, POST /signup         → registration
//	POST /logout                       → end session
//	--- login required ---
//	GET  /feed, /my-posts              → listing screens
//	POST /feed/more, /my-posts/more    → next batch
//	POST /posts                        → create
//	GET  /posts/{id}/edit, POST ...    → edit (owner)
//	POST /posts/{id}/publish           → publish draft (owner)
//	POST /posts/{id}/delete[/confirm]  → two-step delete (owner)
//	POST /posts/{id}/vote              → toggle vote
//	POST /posts/{id}/expand            → Read more / Show less
//	POST /confirm/cancel               → drop a pending confirmation
//	GET  /profile, POST /profile[/…]   → profile tabs
//
// Static files are served outside the session middleware so that they
// never load or touch a session.
func (s *Server) setupRoutes(pages *handler.Pages) error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	static, err := fs.Sub(web.Static, "static")
	if err != nil {
		return err
	}
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	s.router.Group(func(r chi.Router) {
		r.Use(s.session.LoadAndSave)

		r.Get("/", pages.HandleLoginPage)
		r.Post("/", pages.HandleLogin)
		r.Get("/signup", pages.HandleSignupPage)
		r.Post("/signup", pages.HandleSignup)
		r.Post("/logout", pages.HandleLogout)

		r.Group(func(r chi.Router) {
			r.Use(s.session.RequireAuth)

			for _, sc := range feed.Screens {
				r.Get(sc.Path, pages.HandleScreen(sc))
				r.Post(sc.Path+"/more", pages.HandleLoadMore(sc))
			}

			r.Post("/posts", pages.HandleCreatePost)
			r.Route("/posts/{id}", func(r chi.Router) {
				r.Get("/edit", pages.HandleEditPage)
				r.Post("/edit", pages.HandleUpdatePost)
				r.Post("/publish", pages.HandlePublishPost)
				r.Post("/delete", pages.HandleDeletePost)
				r.Post("/delete/confirm", pages.HandleConfirmDeletePost)
				r.Post("/vote", pages.HandleVote)
				r.Post("/expand", pages.HandleToggleExpand)
			})
			r.Post("/confirm/cancel", pages.HandleCancelConfirm)

			r.Get("/profile", pages.HandleProfile)
			r.Post("/profile", pages.HandleUpdateProfile)
			r.Post("/profile/email", pages.HandleUpdateEmail)
			r.Post("/profile/password", pages.HandleUpdatePassword)
			r.Post("/profile/delete", pages.HandleDeleteAccount)
			r.Post("/profile/delete/confirm", pages.HandleConfirmDeleteAccount)
		})
	})

	return nil
}

// Start runs the web client until SIGINT or SIGTERM.
func (s *Server) Start() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second + s.config.APITimeout,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("web client starting",
		slog.Int("port", s.config.Port),
		slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
		slog.String("api", s.config.APIBaseURL),
	)
	return Run(srv, s.logger)
}

// Run serves srv until SIGINT or SIGTERM, then shuts it down gracefully.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new connections
//  2. Wait up to 30 seconds for in-flight requests to finish
func Run(srv *http.Server, logger *slog.Logger) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		logger.Info("server stopped gracefully")
	}

	return nil
}
