package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sakif/social-feed/internal/model"
)

// Backend paths.
const (
	PathLogin       = "/login"
	PathUsers       = "/users"
	PathCurrentUser = "/users/profile/me"
	PathPosts       = "/posts"
	PathMyPosts     = "/posts/me"
	PathVote        = "/vote"
)

func userPath(id int) string { return PathUsers + "/" + strconv.Itoa(id) }
func postPath(id int) string { return PathPosts + "/" + strconv.Itoa(id) }

// Signup creates an account. It is the only call besides Login that is sent
// without a token.
func (c *Client) Signup(ctx context.Context, in model.Signup) error {
	return c.do(ctx, request{method: http.MethodPost, path: PathUsers, body: in}, nil)
}

// CurrentUser fetches the logged-in user.
func (c *Client) CurrentUser(ctx context.Context) (model.User, error) {
	var u model.User
	err := c.do(ctx, request{method: http.MethodGet, path: PathCurrentUser, authed: true}, &u)
	return u, err
}

// UpdateUser applies a partial update to the user's profile.
func (c *Client) UpdateUser(ctx context.Context, id int, in model.UserUpdate) (model.User, error) {
	var u model.User
	err := c.do(ctx, request{method: http.MethodPatch, path: userPath(id), body: in, authed: true}, &u)
	return u, err
}

// DeleteUser deletes the account after the backend re-checks the password.
// It shares the response path of every other call, so a 401 here ends the
// session too.
func (c *Client) DeleteUser(ctx context.Context, id int, password string) error {
	body := model.AccountDeletion{Password: password}
	return c.do(ctx, request{method: http.MethodDelete, path: userPath(id), body: body, authed: true}, nil)
}

// ListPosts fetches one page of a listing endpoint (PathPosts or PathMyPosts)
// with the given limit/skip/sort/search query.
func (c *Client) ListPosts(ctx context.Context, endpoint string, query url.Values) ([]model.FeedItem, error) {
	var items []model.FeedItem
	err := c.do(ctx, request{method: http.MethodGet, path: endpoint, query: query, authed: true}, &items)
	return items, err
}

// CreatePost creates a post, published or as a draft.
func (c *Client) CreatePost(ctx context.Context, in model.PostInput) (model.Post, error) {
	var p model.Post
	err := c.do(ctx, request{method: http.MethodPost, path: PathPosts, body: in, authed: true}, &p)
	return p, err
}

// UpdatePost applies a partial update to a post the user owns.
func (c *Client) UpdatePost(ctx context.Context, id int, patch model.PostPatch) (model.Post, error) {
	var p model.Post
	err := c.do(ctx, request{method: http.MethodPatch, path: postPath(id), body: patch, authed: true}, &p)
	return p, err
}

func (c *Client) DeletePost(ctx context.Context, id int) error {
	return c.do(ctx, request{method: http.MethodDelete, path: postPath(id), authed: true}, nil)
}

// Vote sets (dir 1) or retracts (dir 0) the user's vote on a post.
func (c *Client) Vote(ctx context.Context, v model.Vote) error {
	return c.do(ctx, request{method: http.MethodPost, path: PathVote, body: v, authed: true}, nil)
}
