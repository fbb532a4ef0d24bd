package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sakif/social-feed/internal/apperror"
	"github.com/sakif/social-feed/internal/feed"
	"github.com/sakif/social-feed/internal/model"
	"github.com/sakif/social-feed/internal/repository"
)

var _ repository.PostRepository = (*DB)(nil)

// feedSelect returns posts joined with their owner and vote aggregate.
// The single placeholder is the viewer id for user_voted.
const feedSelect = `
	SELECT p.id, p.title, p.content, p.published, p.owner_id, p.created_at,
	       u.id, u.first_name, u.last_name, u.email,
	       COUNT(v.user_id) AS votes,
	       COALESCE(MAX(v.user_id = ?), 0) AS user_voted
	FROM posts p
	JOIN users u ON u.id = p.owner_id
	LEFT JOIN votes v ON v.post_id = p.id`

var orderBy = map[feed.Sort]string{
	feed.SortNewest:     "p.created_at DESC, p.id DESC",
	feed.SortOldest:     "p.created_at ASC, p.id ASC",
	feed.SortPopularity: "votes DESC, p.created_at DESC, p.id DESC",
}

func (db *DB) CreatePost(ctx context.Context, ownerID int, in model.PostInput) (model.Post, error) {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO posts (title, content, published, owner_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		in.Title,
		in.Content,
		in.Published,
		ownerID,
		db.timestamp(),
	)
	if err != nil {
		return model.Post{}, fmt.Errorf("sqlite: creating post: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return model.Post{}, fmt.Errorf("sqlite: reading post id: %w", err)
	}
	item, err := db.GetPost(ctx, int(id), ownerID)
	if err != nil {
		return model.Post{}, err
	}
	return item.Post, nil
}

// GetPost returns apperror.ErrNotFound for a missing post and for someone
// else's draft.
func (db *DB) GetPost(ctx context.Context, id, viewerID int) (model.FeedItem, error) {
	row := db.conn.QueryRowContext(ctx,
		feedSelect+`
		WHERE p.id = ? AND (p.published = 1 OR p.owner_id = ?)
		GROUP BY p.id`,
		viewerID, id, viewerID,
	)

	item, err := scanFeedItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.FeedItem{}, notFoundPost(id)
		}
		return model.FeedItem{}, fmt.Errorf("sqlite: getting post %d: %w", id, err)
	}
	return item, nil
}

// UpdatePost applies the non-nil fields of patch.
func (db *DB) UpdatePost(ctx context.Context, id int, patch model.PostPatch) (model.Post, error) {
	var (
		sets []string
		args []any
	)
	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Content != nil {
		sets = append(sets, "content = ?")
		args = append(args, *patch.Content)
	}
	if patch.Published != nil {
		sets = append(sets, "published = ?")
		args = append(args, *patch.Published)
	}

	if len(sets) > 0 {
		args = append(args, id)
		res, err := db.conn.ExecContext(ctx,
			`UPDATE posts SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
		if err != nil {
			return model.Post{}, fmt.Errorf("sqlite: updating post %d: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return model.Post{}, notFoundPost(id)
		}
	}

	// Read back as the owner so a draft is returned too.
	var ownerID int
	if err := db.conn.QueryRowContext(ctx, `SELECT owner_id FROM posts WHERE id = ?`, id).Scan(&ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Post{}, notFoundPost(id)
		}
		return model.Post{}, fmt.Errorf("sqlite: getting post %d: %w", id, err)
	}
	item, err := db.GetPost(ctx, id, ownerID)
	if err != nil {
		return model.Post{}, err
	}
	return item.Post, nil
}

func (db *DB) DeletePost(ctx context.Context, id int) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting post %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFoundPost(id)
	}
	return nil
}

// ListPosts returns one window of posts visible to opts.ViewerID.
//
// PAGINATION:
// LIMIT/OFFSET over a total order (the sort key, then id) so consecutive
// windows never repeat or skip a post while the data is unchanged.
func (db *DB) ListPosts(ctx context.Context, opts repository.ListOptions) ([]model.FeedItem, error) {
	opts = opts.Normalize()

	where := []string{"(p.published = 1 OR p.owner_id = ?)"}
	args := []any{opts.ViewerID, opts.ViewerID}
	if opts.OwnerID != 0 {
		where = append(where, "p.owner_id = ?")
		args = append(args, opts.OwnerID)
	}
	if search := strings.TrimSpace(opts.Search); search != "" {
		where = append(where, `p.title LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(search)+"%")
	}
	args = append(args, opts.Limit, opts.Offset)

	query := feedSelect + `
		WHERE ` + strings.Join(where, " AND ") + `
		GROUP BY p.id
		ORDER BY ` + orderBy[opts.Sort] + `
		LIMIT ? OFFSET ?`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing posts: %w", err)
	}
	defer rows.Close()

	items := []model.FeedItem{}
	for rows.Next() {
		item, err := scanFeedItem(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning post: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating posts: %w", err)
	}
	return items, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanFeedItem(s scanner) (model.FeedItem, error) {
	var (
		item      model.FeedItem
		createdAt string
	)
	err := s.Scan(
		&item.Post.ID,
		&item.Post.Title,
		&item.Post.Content,
		&item.Post.Published,
		&item.Post.OwnerID,
		&createdAt,
		&item.Post.Owner.ID,
		&item.Post.Owner.FirstName,
		&item.Post.Owner.LastName,
		&item.Post.Owner.Email,
		&item.Votes,
		&item.UserVoted,
	)
	if err != nil {
		return model.FeedItem{}, err
	}
	item.Post.CreatedAt = model.ParseTimestamp(createdAt)
	return item, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func notFoundPost(id int) *apperror.AppError {
	err := apperror.NotFound("post", strconv.Itoa(id))
	err.Message = fmt.Sprintf("post with id: %d does not exist", id)
	return err
}
