package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/sakif/social-feed/internal/apperror"
	"github.com/sakif/social-feed/internal/model"
	"github.com/sakif/social-feed/internal/session"
)

// fakeCreds is a Credentials that records expiries.
type fakeCreds struct {
	token   string
	expired int
}

func (f *fakeCreds) Token(ctx context.Context) (*oauth2.Token, error) {
	if f.token == "" {
		return nil, apperror.NoToken()
	}
	return &oauth2.Token{AccessToken: f.token, TokenType: "bearer"}, nil
}

func (f *fakeCreds) Expire(ctx context.Context) error {
	f.expired++
	f.token = ""
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, h http.HandlerFunc, creds Credentials) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, srv.Client(), creds, quietLogger())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// =========================================================================
// LOGIN
// =========================================================================

func TestLogin_PasswordGrant(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, PathLogin, r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get(RequestIDHeader))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "password", r.PostForm.Get("grant_type"))
		assert.Equal(t, "user@example.com", r.PostForm.Get("username"))
		assert.Equal(t, "Abc123!x", r.PostForm.Get("password"))
		writeJSON(w, http.StatusCreated, map[string]string{"access_token": "tok-1", "token_type": "bearer"})
	}, &fakeCreds{})

	tok, err := c.Login(context.Background(), "user@example.com", "Abc123!x")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok.AccessToken)
	assert.Equal(t, "Bearer", tok.Type())
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestLogin_RejectedIsNotExpiry(t *testing.T) {
	for _, status := range []int{http.StatusForbidden, http.StatusUnauthorized} {
		creds := &fakeCreds{token: "existing"}
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, status, map[string]string{"detail": "Invalid Credentials"})
		}, creds)

		_, err := c.Login(context.Background(), "user@example.com", "Wrong123!")
		require.Error(t, err)
		assert.ErrorIs(t, err, apperror.ErrRejected)
		assert.Equal(t, "Invalid Credentials", apperror.Message(err, ""))
		assert.Zero(t, creds.expired, "status %d on login must not expire the session", status)
	}
}

func TestLogin_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := New(srv.URL, nil, &fakeCreds{}, quietLogger())

	_, err := c.Login(context.Background(), "user@example.com", "Abc123!x")
	assert.ErrorIs(t, err, apperror.ErrUnavailable)
	assert.Equal(t, "Unable to connect to server", apperror.Message(err, ""))
}

// =========================================================================
// RESPONSE HANDLING
// =========================================================================

func TestUnauthorized_EndsSessionOnEveryCall(t *testing.T) {
	calls := map[string]func(*Client, context.Context) error{
		"CurrentUser": func(c *Client, ctx context.Context) error { _, err := c.CurrentUser(ctx); return err },
		"UpdateUser": func(c *Client, ctx context.Context) error {
			_, err := c.UpdateUser(ctx, 1, model.UserUpdate{FirstName: "A"})
			return err
		},
		"DeleteUser": func(c *Client, ctx context.Context) error { return c.DeleteUser(ctx, 1, "Abc123!x") },
		"ListPosts": func(c *Client, ctx context.Context) error {
			_, err := c.ListPosts(ctx, PathPosts, url.Values{"limit": {"50"}})
			return err
		},
		"CreatePost": func(c *Client, ctx context.Context) error {
			_, err := c.CreatePost(ctx, model.PostInput{Title: "t", Content: "c"})
			return err
		},
		"UpdatePost": func(c *Client, ctx context.Context) error {
			title := "t"
			_, err := c.UpdatePost(ctx, 1, model.PostPatch{Title: &title})
			return err
		},
		"DeletePost": func(c *Client, ctx context.Context) error { return c.DeletePost(ctx, 1) },
		"Vote":       func(c *Client, ctx context.Context) error { return c.Vote(ctx, model.Vote{PostID: 1, Direction: 1}) },
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			sessions := session.New(session.Config{})
			ctx, err := sessions.Load(context.Background(), "")
			require.NoError(t, err)
			require.NoError(t, sessions.LoginSuccess(ctx, &oauth2.Token{AccessToken: "stale"}))

			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
			}, sessions)

			err = call(c, ctx)
			assert.ErrorIs(t, err, apperror.ErrUnauthorized)
			assert.Equal(t, "Session expired. Please login again.", apperror.Message(err, ""))
			assert.False(t, sessions.IsAuthenticated(ctx), "session still authenticated after 401")
			_, tokErr := sessions.Token(ctx)
			assert.ErrorIs(t, tokErr, apperror.ErrNoToken)
		})
	}
}

func TestRejected_DetailMessage(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		wantDetails []string
	}{
		{"string detail", http.StatusForbidden, `{"detail":"Not authorized to perform requested action"}`, "Not authorized to perform requested action", nil},
		{"validation list", http.StatusUnprocessableEntity, `{"detail":[{"loc":["body","title"],"msg":"field required"},{"msg":"too short"}]}`, "field required; too short", []string{"field required", "too short"}},
		{"no detail", http.StatusInternalServerError, `{"error":"boom"}`, "Request failed", nil},
		{"not json", http.StatusBadGateway, `<html>bad gateway</html>`, "Request failed", nil},
		{"empty body", http.StatusNotFound, ``, "Request failed", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creds := &fakeCreds{token: "tok"}
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}, creds)

			_, err := c.CurrentUser(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, apperror.ErrRejected)

			var appErr *apperror.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.wantMessage, appErr.Message)
			assert.Equal(t, tt.status, appErr.Status)
			assert.Equal(t, tt.wantDetails, appErr.Details)
			assert.Zero(t, creds.expired)
		})
	}
}

func TestNoContent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/posts/12", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}, &fakeCreds{token: "tok"})

	assert.NoError(t, c.DeletePost(context.Background(), 12))
}

func TestUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	creds := &fakeCreds{token: "tok"}
	c := New(srv.URL, nil, creds, quietLogger())

	err := c.Vote(context.Background(), model.Vote{PostID: 1, Direction: 1})
	assert.ErrorIs(t, err, apperror.ErrUnavailable)
	assert.Equal(t, "Unable to connect to server", apperror.Message(err, ""))
	assert.Zero(t, creds.expired)
}

func TestNoToken_SendsNothing(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}, &fakeCreds{})

	_, err := c.CurrentUser(context.Background())
	assert.ErrorIs(t, err, apperror.ErrNoToken)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

// =========================================================================
// REQUEST SHAPE
// =========================================================================

func TestCreatePost_SendsBearerAndJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "req-42", r.Header.Get(RequestIDHeader))

		var in model.PostInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, model.PostInput{Title: "Hello", Content: "World", Published: true}, in)

		writeJSON(w, http.StatusCreated, map[string]any{
			"id": 3, "title": in.Title, "content": in.Content, "published": in.Published,
			"owner_id": 1, "created_at": "2024-05-01T10:00:00",
		})
	}, &fakeCreds{token: "tok"})

	ctx := context.WithValue(context.Background(), chimiddleware.RequestIDKey, "req-42")
	p, err := c.CreatePost(ctx, model.PostInput{Title: "Hello", Content: "World", Published: true})
	require.NoError(t, err)
	assert.Equal(t, 3, p.ID)
	assert.False(t, p.CreatedAt.IsZero())
}

func TestListPosts_QueryAndDecode(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathMyPosts, r.URL.Path)
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		assert.Equal(t, "100", r.URL.Query().Get("skip"))
		assert.Equal(t, "oldest", r.URL.Query().Get("sort"))
		_, _ = io.WriteString(w, `[{"Post":{"id":1,"title":"a","content":"b","published":false,"owner_id":2,"owner":{"first_name":"A","last_name":"B"},"created_at":"2024-05-01T10:00:00"},"votes":2,"user_voted":true}]`)
	}, &fakeCreds{token: "tok"})

	q := url.Values{"limit": {"50"}, "skip": {"100"}, "sort": {"oldest"}}
	items, err := c.ListPosts(context.Background(), PathMyPosts, q)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Votes)
	assert.True(t, items[0].UserVoted)
	assert.True(t, items[0].Post.IsDraft())
}

func TestSignup_IsUnauthenticated(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.Equal(t, PathUsers, r.URL.Path)
		var in model.Signup
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "ada@example.com", in.Email)
		writeJSON(w, http.StatusCreated, map[string]any{"id": 1, "email": in.Email})
	}, &fakeCreds{})

	err := c.Signup(context.Background(), model.Signup{FirstName: "Ada", LastName: "L", Email: "ada@example.com", Password: "Abc123!x"})
	assert.NoError(t, err)
}

func TestDeleteUser_SendsPassword(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/users/5", r.URL.Path)
		var body model.AccountDeletion
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Abc123!x", body.Password)
		w.WriteHeader(http.StatusNoContent)
	}, &fakeCreds{token: "tok"})

	assert.NoError(t, c.DeleteUser(context.Background(), 5, "Abc123!x"))
}
