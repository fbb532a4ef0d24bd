// Package repository defines the storage interfaces of the dev API.
//
// The interfaces speak the wire types from internal/model so the HTTP layer
// can encode results directly. Implementations live in sub-packages
// (repository/sqlite).
package repository

import (
	"context"

	"github.com/sakif/social-feed/internal/feed"
	"github.com/sakif/social-feed/internal/model"
)

// Page size bounds for post listings.
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// ListOptions selects a window of posts.
type ListOptions struct {
	Limit  int
	Offset int
	Sort   feed.Sort
	Search string // substring of the title, case-insensitive

	// ViewerID is the user asking. Published posts are visible to everyone;
	// drafts only to their owner.
	ViewerID int

	// OwnerID restricts the listing to one author when non-zero.
	OwnerID int
}

// Normalize clamps the window and fills in the default sort.
func (o ListOptions) Normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.Limit > MaxLimit {
		o.Limit = MaxLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	o.Sort = feed.ParseSort(string(o.Sort))
	return o
}

// UserRecord is a stored account including its password hash.
type UserRecord struct {
	model.User
	PasswordHash string
}

type UserRepository interface {
	// CreateUser stores a new account. A taken email is apperror.ErrConflict.
	CreateUser(ctx context.Context, in model.Signup, passwordHash string) (model.User, error)
	GetUserByID(ctx context.Context, id int) (UserRecord, error)
	GetUserByEmail(ctx context.Context, email string) (UserRecord, error)
	// UpdateUser applies the non-empty name and email fields of in, and the
	// password hash when passwordHash is non-empty.
	UpdateUser(ctx context.Context, id int, in model.UserUpdate, passwordHash string) (model.User, error)
	// DeleteUser removes the account with its posts and votes.
	DeleteUser(ctx context.Context, id int) error
}

type PostRepository interface {
	CreatePost(ctx context.Context, ownerID int, in model.PostInput) (model.Post, error)
	// GetPost returns the post with its vote aggregate as seen by viewerID.
	GetPost(ctx context.Context, id, viewerID int) (model.FeedItem, error)
	UpdatePost(ctx context.Context, id int, patch model.PostPatch) (model.Post, error)
	DeletePost(ctx context.Context, id int) error
	ListPosts(ctx context.Context, opts ListOptions) ([]model.FeedItem, error)
}

type VoteRepository interface {
	// AddVote records userID's vote. A second vote is apperror.ErrConflict.
	AddVote(ctx context.Context, postID, userID int) error
	// RemoveVote deletes userID's vote; apperror.ErrNotFound when there is none.
	RemoveVote(ctx context.Context, postID, userID int) error
}
