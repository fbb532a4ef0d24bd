// Package devapi is a local implementation of the posts REST API that the web
// client talks to. It stores users, posts and votes in SQLite, issues JWT
// bearer tokens and answers errors in the same {"detail": ...} shape as the
// production backend, so the client cannot tell the two apart.
//
// ROUTES:
//
//	POST   /login               form password grant → {access_token, token_type}
//	POST   /users               signup (no token)
//	GET    /users/profile/me    current user
//	PATCH  /users/{id}          partial update of the caller's own account
//	DELETE /users/{id}          delete the caller's own account ({password})
//	GET    /posts               published posts plus the caller's drafts
//	GET    /posts/me            the caller's posts
//	POST   /posts               create
//	GET    /posts/{id}          one post with its vote aggregate
//	PATCH  /posts/{id}          owner only
//	DELETE /posts/{id}          owner only
//	POST   /vote                {post_id, dir}
package devapi

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/social-feed/internal/auth"
	"github.com/sakif/social-feed/internal/middleware"
	"github.com/sakif/social-feed/internal/repository"
)

// Config holds the dev API settings read by cmd/devapi.
type Config struct {
	Port      int
	DBPath    string
	JWTSecret string
	TokenTTL  time.Duration
}

// Store is everything the API needs from storage. *sqlite.DB implements it.
type Store interface {
	repository.UserRepository
	repository.PostRepository
	repository.VoteRepository
}

// API serves the REST endpoints.
type API struct {
	store     Store
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// New creates an API. All dependencies are required.
func New(store Store, tokens *auth.TokenService, passwords *auth.PasswordService, logger *slog.Logger) (*API, error) {
	if store == nil || tokens == nil || passwords == nil {
		return nil, errors.New("devapi: store, tokens and passwords are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &API{store: store, tokens: tokens, passwords: passwords, logger: logger}, nil
}

// Routes builds the router. Middleware order follows the web client: request
// id first so every later log line can carry it.
func (a *API) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Logger(a.logger))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	r.Post("/login", a.HandleLogin)
	r.Post("/users", a.HandleCreateUser)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(a.tokens, deny))

		r.Get("/users/profile/me", a.HandleCurrentUser)
		r.Patch("/users/{id}", a.HandleUpdateUser)
		r.Delete("/users/{id}", a.HandleDeleteUser)

		r.Get("/posts", a.HandleListPosts)
		r.Get("/posts/me", a.HandleListMyPosts)
		r.Post("/posts", a.HandleCreatePost)
		r.Get("/posts/{id}", a.HandleGetPost)
		r.Patch("/posts/{id}", a.HandleUpdatePost)
		r.Delete("/posts/{id}", a.HandleDeletePost)

		r.Post("/vote", a.HandleVote)
	})

	return r
}

// currentUser returns the id RequireAuth put in the context. Routes outside
// the auth group never call it.
func currentUser(r *http.Request) int {
	id, _ := auth.UserIDFromContext(r.Context())
	return id
}
