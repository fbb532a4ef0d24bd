// Package api is the HTTP client for the posts REST API.
//
// Every call goes through one path (do → handleResponse), so the outcome of a
// request is always one of:
//
//	2xx          → body decoded into the caller's value (204: nothing decoded)
//	401          → the session is expired through Credentials and
//	               apperror.SessionExpired is returned
//	other non-2xx → apperror.Rejected with the backend's "detail" message
//	no response  → apperror.Unavailable ("Unable to connect to server")
//
// There are no retries. Cancellation flows in through the context.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/sakif/social-feed/internal/apperror"
)

// DefaultTimeout bounds a single backend call.
const DefaultTimeout = 10 * time.Second

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 4 << 20

// Credentials supplies the bearer token of the current user and ends the
// session when the backend stops accepting it. session.Manager implements it.
type Credentials interface {
	Token(ctx context.Context) (*oauth2.Token, error)
	Expire(ctx context.Context) error
}

// Client talks to the backend at baseURL.
type Client struct {
	baseURL string
	http    *http.Client
	creds   Credentials
	oauth   *oauth2.Config
	logger  *slog.Logger
}

// New creates a Client. httpClient may be nil, in which case a client with
// DefaultTimeout is used. The given client is copied, never modified.
func New(baseURL string, httpClient *http.Client, creds Credentials, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	hc := *httpClient
	hc.Transport = requestIDTransport{base: hc.Transport}

	baseURL = strings.TrimRight(baseURL, "/")
	return &Client{
		baseURL: baseURL,
		http:    &hc,
		creds:   creds,
		logger:  logger,
		oauth: &oauth2.Config{
			Endpoint: oauth2.Endpoint{
				TokenURL:  baseURL + "/login",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}
}

// request describes one backend call.
type request struct {
	method string
	path   string
	query  url.Values
	body   any  // JSON-encoded when non-nil
	authed bool // send the bearer token; a 401 then expires the session
}

func (c *Client) do(ctx context.Context, rq request, out any) error {
	target := c.baseURL + rq.path
	if len(rq.query) > 0 {
		target += "?" + rq.query.Encode()
	}

	var body io.Reader
	if rq.body != nil {
		data, err := json.Marshal(rq.body)
		if err != nil {
			return fmt.Errorf("api: encoding %s %s: %w", rq.method, rq.path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, rq.method, target, body)
	if err != nil {
		return fmt.Errorf("api: building %s %s: %w", rq.method, rq.path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if rq.authed {
		tok, err := c.creds.Token(ctx)
		if err != nil {
			return err
		}
		tok.SetAuthHeader(req)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("backend unreachable",
			slog.String("method", rq.method),
			slog.String("path", rq.path),
			slog.String("error", err.Error()),
		)
		return apperror.Unavailable(err)
	}
	defer resp.Body.Close()

	c.logger.Debug("backend call",
		slog.String("method", rq.method),
		slog.String("path", rq.path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	return c.handleResponse(ctx, rq, resp, out)
}

// handleResponse is the single place where a backend answer becomes data or
// an error.
func (c *Client) handleResponse(ctx context.Context, rq request, resp *http.Response, out any) error {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return apperror.Unavailable(err)
	}

	if resp.StatusCode == http.StatusUnauthorized && rq.authed {
		if err := c.creds.Expire(ctx); err != nil {
			c.logger.Error("failed to end expired session", slog.String("error", err.Error()))
		}
		c.logger.Warn("backend rejected token, session ended",
			slog.String("method", rq.method),
			slog.String("path", rq.path),
		)
		return apperror.SessionExpired()
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message, details := parseDetail(data)
		c.logger.Warn("backend rejected request",
			slog.String("method", rq.method),
			slog.String("path", rq.path),
			slog.Int("status", resp.StatusCode),
			slog.String("detail", message),
		)
		return apperror.Rejected(resp.StatusCode, message, details...)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("api: decoding %s %s response: %w", rq.method, rq.path, err)
	}
	return nil
}

// parseDetail extracts the backend's error message. "detail" is either a
// string or a list of validation errors ({"msg": ...}); anything else yields
// an empty message and the caller falls back to "Request failed".
func parseDetail(body []byte) (string, []string) {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return "", nil
	}

	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		return s, nil
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; "), msgs
	}
	return "", nil
}

// Login exchanges email and password for an access token using the OAuth2
// password grant: a form-encoded POST /login. A refused login is a rejected
// request, never a session expiry.
func (c *Client) Login(ctx context.Context, email, password string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)

	tok, err := c.oauth.PasswordCredentialsToken(ctx, email, password)
	if err == nil {
		c.logger.Debug("login succeeded", slog.String("email", email))
		return tok, nil
	}

	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		status := 0
		if re.Response != nil {
			status = re.Response.StatusCode
		}
		message, details := parseDetail(re.Body)
		c.logger.Warn("login rejected", slog.String("email", email), slog.Int("status", status))
		return nil, apperror.Rejected(status, message, details...)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		c.logger.Error("backend unreachable",
			slog.String("path", "/login"),
			slog.String("error", err.Error()),
		)
		return nil, apperror.Unavailable(err)
	}

	// A 2xx without an access_token.
	c.logger.Warn("login returned no token", slog.String("error", err.Error()))
	return nil, apperror.Rejected(0, "Login failed")
}
