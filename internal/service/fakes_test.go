package service

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"golang.org/x/oauth2"

	"github.com/sakif/social-feed/internal/feed"
	"github.com/sakif/social-feed/internal/model"
)

// =========================================================================
// FAKES
// =========================================================================

// fakeBackend is an in-memory stand-in for api.Client. It records every
// call so tests can assert how many requests a form produced.
type fakeBackend struct {
	calls []string // "METHOD path", in order

	token   *oauth2.Token
	user    model.User
	pages   [][]model.FeedItem // returned by successive ListPosts calls
	queries []url.Values

	created  []model.PostInput
	patched  map[int]model.PostPatch
	deleted  []int
	votes    []model.Vote
	updates  []model.UserUpdate
	signups  []model.Signup
	password string // DeleteUser password

	err error // returned by every call when set
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		token:   &oauth2.Token{AccessToken: "tok", TokenType: "bearer"},
		user:    model.User{ID: 1, FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"},
		patched: make(map[int]model.PostPatch),
	}
}

func (f *fakeBackend) record(call string) error {
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeBackend) count(prefix string) int {
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (f *fakeBackend) Login(ctx context.Context, email, password string) (*oauth2.Token, error) {
	if err := f.record("POST /login"); err != nil {
		return nil, err
	}
	return f.token, nil
}

func (f *fakeBackend) Signup(ctx context.Context, in model.Signup) error {
	if err := f.record("POST /users"); err != nil {
		return err
	}
	f.signups = append(f.signups, in)
	return nil
}

func (f *fakeBackend) CurrentUser(ctx context.Context) (model.User, error) {
	if err := f.record("GET /users/profile/me"); err != nil {
		return model.User{}, err
	}
	return f.user, nil
}

func (f *fakeBackend) UpdateUser(ctx context.Context, id int, in model.UserUpdate) (model.User, error) {
	if err := f.record("PATCH /users"); err != nil {
		return model.User{}, err
	}
	f.updates = append(f.updates, in)
	u := f.user
	if in.FirstName != "" {
		u.FirstName = in.FirstName
	}
	if in.LastName != "" {
		u.LastName = in.LastName
	}
	if in.Email != "" {
		u.Email = in.Email
	}
	return u, nil
}

func (f *fakeBackend) DeleteUser(ctx context.Context, id int, password string) error {
	if err := f.record("DELETE /users"); err != nil {
		return err
	}
	f.password = password
	return nil
}

func (f *fakeBackend) ListPosts(ctx context.Context, endpoint string, query url.Values) ([]model.FeedItem, error) {
	if err := f.record("GET " + endpoint); err != nil {
		return nil, err
	}
	f.queries = append(f.queries, query)
	if len(f.pages) == 0 {
		return nil, nil
	}
	page := f.pages[0]
	f.pages = f.pages[1:]
	return page, nil
}

func (f *fakeBackend) CreatePost(ctx context.Context, in model.PostInput) (model.Post, error) {
	if err := f.record("POST /posts"); err != nil {
		return model.Post{}, err
	}
	f.created = append(f.created, in)
	return model.Post{ID: 100 + len(f.created), Title: in.Title, Content: in.Content, Published: in.Published}, nil
}

func (f *fakeBackend) UpdatePost(ctx context.Context, id int, patch model.PostPatch) (model.Post, error) {
	if err := f.record("PATCH /posts"); err != nil {
		return model.Post{}, err
	}
	f.patched[id] = patch
	return model.Post{ID: id}, nil
}

func (f *fakeBackend) DeletePost(ctx context.Context, id int) error {
	if err := f.record("DELETE /posts"); err != nil {
		return err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeBackend) Vote(ctx context.Context, v model.Vote) error {
	if err := f.record("POST /vote"); err != nil {
		return err
	}
	f.votes = append(f.votes, v)
	return nil
}

// fakeSession implements AuthSession and FeedStore with plain maps.
type fakeSession struct {
	token  *oauth2.Token
	feeds  map[string]feed.State
	logins int
	ended  int
}

func newFakeSession() *fakeSession {
	return &fakeSession{feeds: make(map[string]feed.State)}
}

func (s *fakeSession) LoginSuccess(ctx context.Context, tok *oauth2.Token) error {
	s.token = tok
	s.logins++
	return nil
}

func (s *fakeSession) Logout(ctx context.Context) error {
	s.token = nil
	s.feeds = make(map[string]feed.State)
	s.ended++
	return nil
}

func (s *fakeSession) FeedState(ctx context.Context, screen string) feed.State {
	return s.feeds[screen]
}

func (s *fakeSession) SaveFeedState(ctx context.Context, screen string, st feed.State) {
	s.feeds[screen] = st
}

func (s *fakeSession) ResetFeeds(ctx context.Context) {
	for name, st := range s.feeds {
		st.Reset()
		s.feeds[name] = st
	}
}

// loaded stores a loaded state with the given items on screen.
func (s *fakeSession) loaded(screen string, items ...model.FeedItem) {
	var st feed.State
	st.Append(items)
	s.feeds[screen] = st
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func feedItem(id, ownerID int, published, voted bool) model.FeedItem {
	return model.FeedItem{
		Post: model.Post{
			ID:        id,
			Title:     "title " + string(rune('a'+id%26)),
			Content:   "content",
			Published: published,
			OwnerID:   ownerID,
		},
		UserVoted: voted,
	}
}
