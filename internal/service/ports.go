// Package service holds the page logic of the web client.
//
// THE LAYERS:
//
//	Handler (HTTP)   → parses forms, picks the redirect or template
//	Service (rules)  → validates, calls the backend, updates session state
//	api.Client       → talks to the posts REST API
//
// Services depend on the small interfaces below, not on *api.Client or
// *session.Manager, so the tests can count backend calls with fakes.
package service

import (
	"context"
	"net/url"

	"golang.org/x/oauth2"

	"github.com/sakif/social-feed/internal/api"
	"github.com/sakif/social-feed/internal/feed"
	"github.com/sakif/social-feed/internal/model"
	"github.com/sakif/social-feed/internal/session"
)

// AccountBackend is the part of the REST API that deals with users.
type AccountBackend interface {
	Login(ctx context.Context, email, password string) (*oauth2.Token, error)
	Signup(ctx context.Context, in model.Signup) error
	CurrentUser(ctx context.Context) (model.User, error)
	UpdateUser(ctx context.Context, id int, in model.UserUpdate) (model.User, error)
	DeleteUser(ctx context.Context, id int, password string) error
}

// PostBackend is the part of the REST API that deals with posts and votes.
type PostBackend interface {
	ListPosts(ctx context.Context, endpoint string, query url.Values) ([]model.FeedItem, error)
	CreatePost(ctx context.Context, in model.PostInput) (model.Post, error)
	UpdatePost(ctx context.Context, id int, patch model.PostPatch) (model.Post, error)
	DeletePost(ctx context.Context, id int) error
	Vote(ctx context.Context, v model.Vote) error
}

// AuthSession records logins and logouts.
type AuthSession interface {
	LoginSuccess(ctx context.Context, tok *oauth2.Token) error
	Logout(ctx context.Context) error
}

// FeedStore keeps the per-screen pagination state.
type FeedStore interface {
	FeedState(ctx context.Context, screen string) feed.State
	SaveFeedState(ctx context.Context, screen string, st feed.State)
	ResetFeeds(ctx context.Context)
}

var (
	_ AccountBackend = (*api.Client)(nil)
	_ PostBackend    = (*api.Client)(nil)
	_ AuthSession    = (*session.Manager)(nil)
	_ FeedStore      = (*session.Manager)(nil)
)
