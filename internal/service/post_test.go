package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/social-feed/internal/apperror"
	"github.com/sakif/social-feed/internal/feed"
	"github.com/sakif/social-feed/internal/model"
)

func newTestPostService() (*PostService, *fakeBackend, *fakeSession) {
	backend := newFakeBackend()
	sess := newFakeSession()
	return NewPostService(backend, sess, testLogger()), backend, sess
}

func assertReset(t *testing.T, sess *fakeSession) {
	t.Helper()
	for name, st := range sess.feeds {
		if st.Skip != 0 || len(st.Items) != 0 || !st.NeedsInitialFetch() {
			t.Errorf("screen %s not reset: skip=%d loaded=%d", name, st.Skip, len(st.Items))
		}
	}
}

// =========================================================================
// CREATE
// =========================================================================

func TestCreate_EmptyTitleSendsNothing(t *testing.T) {
	svc, backend, sess := newTestPostService()
	sess.loaded(feed.AllPosts.Name, feedItem(1, 2, true, false))

	_, err := svc.Create(context.Background(), PostForm{Title: "   ", Content: "body", Published: true})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Create() error = %v, want validation error", err)
	}
	if apperror.Message(err, "") != "Title and content are required" {
		t.Errorf("message = %q", apperror.Message(err, ""))
	}
	if len(backend.calls) != 0 {
		t.Errorf("requests made: %v", backend.calls)
	}
	if st := sess.feeds[feed.AllPosts.Name]; len(st.Items) != 1 {
		t.Error("a rejected form must not reset the feed")
	}
}

func TestCreate_OnePostThenReset(t *testing.T) {
	svc, backend, sess := newTestPostService()
	sess.loaded(feed.AllPosts.Name, feedItem(1, 2, true, false), feedItem(2, 2, true, false))
	sess.loaded(feed.MyPosts.Name, feedItem(3, 1, false, false))

	p, err := svc.Create(context.Background(), PostForm{Title: " Hello ", Content: " World ", Published: false})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if len(backend.calls) != 1 || backend.calls[0] != "POST /posts" {
		t.Errorf("calls = %v, want exactly one POST /posts", backend.calls)
	}
	if backend.created[0] != (model.PostInput{Title: "Hello", Content: "World", Published: false}) {
		t.Errorf("created = %+v", backend.created[0])
	}
	if p.Title != "Hello" {
		t.Errorf("Create() post = %+v", p)
	}
	assertReset(t, sess)
}

func TestCreate_BackendErrorKeepsFeed(t *testing.T) {
	svc, backend, sess := newTestPostService()
	sess.loaded(feed.AllPosts.Name, feedItem(1, 2, true, false))
	backend.err = apperror.Unavailable(errors.New("connection refused"))

	if _, err := svc.Create(context.Background(), PostForm{Title: "t", Content: "c"}); !errors.Is(err, apperror.ErrUnavailable) {
		t.Fatalf("Create() error = %v", err)
	}
	if st := sess.feeds[feed.AllPosts.Name]; len(st.Items) != 1 {
		t.Error("feed reset although the post was not created")
	}
}

// =========================================================================
// OWNER-ONLY ACTIONS
// =========================================================================

func TestUpdate_OwnerOnly(t *testing.T) {
	svc, backend, sess := newTestPostService()
	owner := model.User{ID: 1}
	sess.loaded(feed.AllPosts.Name, feedItem(5, 1, true, false), feedItem(6, 2, true, false))

	err := svc.Update(context.Background(), owner, 6, PostForm{Title: "t", Content: "c"})
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("Update() on someone else's post error = %v", err)
	}
	if len(backend.calls) != 0 {
		t.Fatalf("requests made: %v", backend.calls)
	}

	if err := svc.Update(context.Background(), owner, 5, PostForm{Title: "New", Content: "Body", Published: true}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	patch := backend.patched[5]
	if *patch.Title != "New" || *patch.Content != "Body" || !*patch.Published {
		t.Errorf("patch = %+v", patch)
	}
	assertReset(t, sess)
}

func TestUpdate_UnknownPost(t *testing.T) {
	svc, _, _ := newTestPostService()

	err := svc.Update(context.Background(), model.User{ID: 1}, 99, PostForm{Title: "t", Content: "c"})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestPublish(t *testing.T) {
	svc, backend, sess := newTestPostService()
	user := model.User{ID: 1}
	sess.loaded(feed.MyPosts.Name, feedItem(5, 1, false, false), feedItem(7, 1, true, false))

	if err := svc.Publish(context.Background(), user, 7); err != nil {
		t.Fatalf("Publish() on a published post error = %v", err)
	}
	if len(backend.calls) != 0 {
		t.Fatalf("publishing a published post made requests: %v", backend.calls)
	}

	if err := svc.Publish(context.Background(), user, 5); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	patch := backend.patched[5]
	if patch.Published == nil || !*patch.Published || *patch.Title != "title f" {
		t.Errorf("patch = %+v", patch)
	}
	assertReset(t, sess)
}

func TestDelete(t *testing.T) {
	svc, backend, sess := newTestPostService()
	sess.loaded(feed.AllPosts.Name, feedItem(5, 1, true, false), feedItem(6, 2, true, false))

	if err := svc.Delete(context.Background(), model.User{ID: 1}, 6); !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("Delete() of someone else's post error = %v", err)
	}
	if err := svc.Delete(context.Background(), model.User{ID: 1}, 5); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(backend.deleted) != 1 || backend.deleted[0] != 5 {
		t.Errorf("deleted = %v", backend.deleted)
	}
	assertReset(t, sess)
}

// =========================================================================
// VOTE
// =========================================================================

func TestVote_Toggles(t *testing.T) {
	tests := []struct {
		name    string
		voted   bool
		wantDir int
	}{
		{"not voted", false, model.VoteUp},
		{"already voted", true, model.VoteRetract},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, backend, sess := newTestPostService()
			sess.loaded(feed.AllPosts.Name, feedItem(3, 2, true, tt.voted))

			dir, err := svc.Vote(context.Background(), 3)
			if err != nil {
				t.Fatalf("Vote() error = %v", err)
			}
			if dir != tt.wantDir || backend.votes[0] != (model.Vote{PostID: 3, Direction: tt.wantDir}) {
				t.Errorf("dir = %d, votes = %+v", dir, backend.votes)
			}
			assertReset(t, sess)
		})
	}
}
