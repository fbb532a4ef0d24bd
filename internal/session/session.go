// Package session is the per-user state of the web client.
//
// Each browser gets its own scs session (cookie + in-memory store). It holds:
//
//	authenticated     bool       false until a login succeeds
//	access_token      string     bearer token returned by POST /login
//	token_expires_at  time.Time  exp of the token, when it is a JWT
//	flash             Flash      one-shot message shown after a redirect
//	expanded          map[int]bool  posts whose full content is shown
//	confirm           Confirmation  pending two-step destructive action
//	feed:<screen>     feed.State    pagination state of one listing
//
// Logout destroys the whole session, so no key survives it.
package session

import (
	"context"
	"encoding/gob"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"golang.org/x/oauth2"

	"github.com/sakif/social-feed/internal/apperror"
	"github.com/sakif/social-feed/internal/auth"
	"github.com/sakif/social-feed/internal/feed"
)

const (
	keyAuthenticated = "authenticated"
	keyToken         = "access_token"
	keyTokenType     = "token_type"
	keyTokenExpiry   = "token_expires_at"
	keyFlash         = "flash"
	keyExpanded      = "expanded"
	keyConfirm       = "confirm"
	feedKeyPrefix    = "feed:"
)

func init() {
	// Session values are gob encoded by the store.
	gob.Register(Flash{})
	gob.Register(Confirmation{})
	gob.Register(feed.State{})
	gob.Register(map[int]bool{})
	gob.Register(time.Time{})
}

// Config controls the session cookie.
type Config struct {
	Lifetime      time.Duration
	SecureCookies bool
	CookieName    string
	Logger        *slog.Logger
}

// Manager wraps an scs.SessionManager with the client's typed accessors.
// Every method takes the request context that LoadAndSave populated.
type Manager struct {
	sm     *scs.SessionManager
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Manager backed by an in-memory store.
func New(cfg Config) *Manager {
	sm := scs.New()
	sm.Store = memstore.New()
	if cfg.Lifetime > 0 {
		sm.Lifetime = cfg.Lifetime
	}
	sm.Cookie.Name = "social_feed_session"
	if cfg.CookieName != "" {
		sm.Cookie.Name = cfg.CookieName
	}
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = cfg.SecureCookies
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{sm: sm, logger: logger, now: time.Now}
}

// LoadAndSave loads the caller's session into the request context and writes
// it back (with the cookie) after the handler returns.
func (m *Manager) LoadAndSave(next http.Handler) http.Handler {
	return m.sm.LoadAndSave(next)
}

// Load attaches the session identified by token to ctx. An empty token starts
// a fresh session. Used outside the HTTP path, mainly by tests.
func (m *Manager) Load(ctx context.Context, token string) (context.Context, error) {
	return m.sm.Load(ctx, token)
}

// =========================================================================
// AUTH STATE
// =========================================================================

// Init makes sure the authenticated flag exists. It never overwrites it.
func (m *Manager) Init(ctx context.Context) {
	if !m.sm.Exists(ctx, keyAuthenticated) {
		m.sm.Put(ctx, keyAuthenticated, false)
	}
}

// IsAuthenticated reports whether a login succeeded in this session.
func (m *Manager) IsAuthenticated(ctx context.Context) bool {
	return m.sm.GetBool(ctx, keyAuthenticated)
}

// LoginSuccess stores the token and flips the session to authenticated. The
// session token is renewed first so a pre-login cookie cannot be reused.
func (m *Manager) LoginSuccess(ctx context.Context, tok *oauth2.Token) error {
	if tok == nil || tok.AccessToken == "" {
		return apperror.NoToken()
	}
	if err := m.sm.RenewToken(ctx); err != nil {
		return err
	}

	expiry := tok.Expiry
	if expiry.IsZero() {
		if info, err := auth.Inspect(tok.AccessToken); err == nil {
			expiry = info.ExpiresAt
		}
	}

	m.sm.Put(ctx, keyToken, tok.AccessToken)
	m.sm.Put(ctx, keyTokenType, tok.TokenType)
	if !expiry.IsZero() {
		m.sm.Put(ctx, keyTokenExpiry, expiry.UTC())
	}
	m.sm.Put(ctx, keyAuthenticated, true)
	return nil
}

// Logout wipes every key of the session.
func (m *Manager) Logout(ctx context.Context) error {
	return m.sm.Destroy(ctx)
}

// Expire ends a session whose token the backend no longer accepts. The
// session is wiped like on logout and a fresh one carries the explanation.
func (m *Manager) Expire(ctx context.Context) error {
	if err := m.sm.Destroy(ctx); err != nil {
		return err
	}
	m.sm.Put(ctx, keyAuthenticated, false)
	m.SetFlash(ctx, FlashError, apperror.SessionExpired().Message)
	return nil
}

// Token returns the stored bearer credential or apperror.ErrNoToken.
func (m *Manager) Token(ctx context.Context) (*oauth2.Token, error) {
	access := m.sm.GetString(ctx, keyToken)
	if access == "" {
		return nil, apperror.NoToken()
	}
	tokenType := m.sm.GetString(ctx, keyTokenType)
	if tokenType == "" || strings.EqualFold(tokenType, "bearer") {
		tokenType = "Bearer"
	}
	return &oauth2.Token{
		AccessToken: access,
		TokenType:   tokenType,
		Expiry:      m.sm.GetTime(ctx, keyTokenExpiry),
	}, nil
}

// AuthHeader returns the value of the Authorization header for API calls.
func (m *Manager) AuthHeader(ctx context.Context) (string, error) {
	tok, err := m.Token(ctx)
	if err != nil {
		return "", err
	}
	return tok.Type() + " " + tok.AccessToken, nil
}

// TokenExpired reports whether the stored token's exp has passed. Sessions
// whose token carries no expiry never expire locally; the backend's 401
// ends them instead.
func (m *Manager) TokenExpired(ctx context.Context) bool {
	exp := m.sm.GetTime(ctx, keyTokenExpiry)
	return !exp.IsZero() && !m.now().Before(exp)
}

// RequireAuth sends anonymous visitors back to the login page and ends
// sessions whose token has run out.
func (m *Manager) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !m.IsAuthenticated(ctx) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		if m.TokenExpired(ctx) {
			if err := m.Expire(ctx); err != nil {
				m.logger.Error("ending expired session",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
			}
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// =========================================================================
// FLASH
// =========================================================================

// Flash kinds.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"
)

// Flash is a message shown once on the page rendered after a redirect.
type Flash struct {
	Kind    string
	Message string
}

func (m *Manager) SetFlash(ctx context.Context, kind, message string) {
	m.sm.Put(ctx, keyFlash, Flash{Kind: kind, Message: message})
}

// PopFlash returns and removes the pending flash message.
func (m *Manager) PopFlash(ctx context.Context) (Flash, bool) {
	f, ok := m.sm.Pop(ctx, keyFlash).(Flash)
	return f, ok
}

// =========================================================================
// UI STATE
// =========================================================================

// ToggleExpanded flips "Read more" for a post and returns the new value.
func (m *Manager) ToggleExpanded(ctx context.Context, postID int) bool {
	expanded := m.expanded(ctx)
	if expanded[postID] {
		delete(expanded, postID)
	} else {
		expanded[postID] = true
	}
	m.sm.Put(ctx, keyExpanded, expanded)
	return expanded[postID]
}

// Expanded returns the set of posts currently shown in full.
func (m *Manager) Expanded(ctx context.Context) map[int]bool {
	return m.expanded(ctx)
}

func (m *Manager) expanded(ctx context.Context) map[int]bool {
	stored, _ := m.sm.Get(ctx, keyExpanded).(map[int]bool)
	out := make(map[int]bool, len(stored))
	for id, v := range stored {
		out[id] = v
	}
	return out
}

// FeedState returns the stored pagination state of a screen, or an empty one.
func (m *Manager) FeedState(ctx context.Context, screen string) feed.State {
	st, _ := m.sm.Get(ctx, feedKeyPrefix+screen).(feed.State)
	return st
}

func (m *Manager) SaveFeedState(ctx context.Context, screen string, st feed.State) {
	m.sm.Put(ctx, feedKeyPrefix+screen, st)
}

// ResetFeeds empties the loaded window of every screen. Filters are kept.
func (m *Manager) ResetFeeds(ctx context.Context) {
	for _, key := range m.sm.Keys(ctx) {
		if !strings.HasPrefix(key, feedKeyPrefix) {
			continue
		}
		st, _ := m.sm.Get(ctx, key).(feed.State)
		st.Reset()
		m.sm.Put(ctx, key, st)
	}
}
