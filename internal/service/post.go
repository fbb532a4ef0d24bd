package service

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/sakif/social-feed/internal/apperror"
	"github.com/sakif/social-feed/internal/feed"
	"github.com/sakif/social-feed/internal/model"
	"github.com/sakif/social-feed/internal/validate"
)

// PostService runs the post mutations: create, edit, publish, delete, vote.
//
// RESET RULE:
// Every successful mutation resets the pagination state of every screen, so
// the next render refetches from offset zero. A failed mutation leaves the
// loaded posts alone.
//
// OWNERSHIP:
// The backend enforces that only the owner may edit, publish or delete. The
// client checks it too, against the post as it was loaded, and refuses
// locally instead of sending a request that is bound to fail.
type PostService struct {
	backend PostBackend
	store   FeedStore
	logger  *slog.Logger
}

func NewPostService(backend PostBackend, store FeedStore, logger *slog.Logger) *PostService {
	return &PostService{backend: backend, store: store, logger: logger}
}

// PostForm is the create / edit form as submitted.
type PostForm struct {
	Title     string
	Content   string
	Published bool
}

func (f PostForm) trimmed() PostForm {
	f.Title = strings.TrimSpace(f.Title)
	f.Content = strings.TrimSpace(f.Content)
	return f
}

// Create validates the form and creates the post.
func (s *PostService) Create(ctx context.Context, f PostForm) (model.Post, error) {
	f = f.trimmed()
	if err := validate.Post(f.Title, f.Content); err != nil {
		return model.Post{}, err
	}

	p, err := s.backend.CreatePost(ctx, model.PostInput{Title: f.Title, Content: f.Content, Published: f.Published})
	if err != nil {
		return model.Post{}, err
	}
	s.store.ResetFeeds(ctx)

	s.logger.Info("post created", slog.Int("postID", p.ID), slog.Bool("published", f.Published))
	return p, nil
}

// Lookup returns a loaded post by id, searching every screen.
func (s *PostService) Lookup(ctx context.Context, postID int) (model.FeedItem, error) {
	for _, sc := range feed.Screens {
		st := s.store.FeedState(ctx, sc.Name)
		if item, ok := st.Find(postID); ok {
			return item, nil
		}
	}
	return model.FeedItem{}, apperror.NotFound("post", strconv.Itoa(postID))
}

// Owned returns the loaded post if user owns it.
func (s *PostService) Owned(ctx context.Context, user model.User, postID int) (model.Post, error) {
	item, err := s.Lookup(ctx, postID)
	if err != nil {
		return model.Post{}, err
	}
	if item.Post.OwnerID != user.ID {
		return model.Post{}, apperror.Forbidden("You are not allowed to edit this post.")
	}
	return item.Post, nil
}

// Update replaces title, content and published flag of an owned post.
func (s *PostService) Update(ctx context.Context, user model.User, postID int, f PostForm) error {
	if _, err := s.Owned(ctx, user, postID); err != nil {
		return err
	}
	f = f.trimmed()
	if err := validate.Post(f.Title, f.Content); err != nil {
		return err
	}

	patch := model.PostPatch{Title: &f.Title, Content: &f.Content, Published: &f.Published}
	if _, err := s.backend.UpdatePost(ctx, postID, patch); err != nil {
		return err
	}
	s.store.ResetFeeds(ctx)

	s.logger.Info("post updated", slog.Int("postID", postID))
	return nil
}

// Publish turns an owned draft into a published post.
func (s *PostService) Publish(ctx context.Context, user model.User, postID int) error {
	p, err := s.Owned(ctx, user, postID)
	if err != nil {
		return err
	}
	if p.Published {
		return nil
	}

	published := true
	patch := model.PostPatch{Title: &p.Title, Content: &p.Content, Published: &published}
	if _, err := s.backend.UpdatePost(ctx, postID, patch); err != nil {
		return err
	}
	s.store.ResetFeeds(ctx)

	s.logger.Info("post published", slog.Int("postID", postID))
	return nil
}

// Delete removes an owned post. The caller has already collected the
// user's confirmation.
func (s *PostService) Delete(ctx context.Context, user model.User, postID int) error {
	if _, err := s.Owned(ctx, user, postID); err != nil {
		return err
	}
	if err := s.backend.DeletePost(ctx, postID); err != nil {
		return err
	}
	s.store.ResetFeeds(ctx)

	s.logger.Info("post deleted", slog.Int("postID", postID))
	return nil
}

// Vote toggles the user's vote: it retracts an existing vote and upvotes
// otherwise. It returns the direction that was sent.
func (s *PostService) Vote(ctx context.Context, postID int) (int, error) {
	item, err := s.Lookup(ctx, postID)
	if err != nil {
		return 0, err
	}

	dir := item.NextVoteDirection()
	if err := s.backend.Vote(ctx, model.Vote{PostID: postID, Direction: dir}); err != nil {
		return 0, err
	}
	s.store.ResetFeeds(ctx)

	s.logger.Debug("vote cast", slog.Int("postID", postID), slog.Int("dir", dir))
	return dir, nil
}
