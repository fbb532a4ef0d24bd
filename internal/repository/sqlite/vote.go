package sqlite

import (
	"context"
	"fmt"

	"github.com/sakif/social-feed/internal/apperror"
	"github.com/sakif/social-feed/internal/repository"
)

var _ repository.VoteRepository = (*DB)(nil)

// AddVote relies on the (post_id, user_id) primary key to reject a second vote.
func (db *DB) AddVote(ctx context.Context, postID, userID int) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO votes (post_id, user_id) VALUES (?, ?)`, postID, userID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict(fmt.Sprintf("user %d has already voted on post %d", userID, postID))
		}
		return fmt.Errorf("sqlite: adding vote on post %d: %w", postID, err)
	}
	return nil
}

func (db *DB) RemoveVote(ctx context.Context, postID, userID int) error {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM votes WHERE post_id = ? AND user_id = ?`, postID, userID)
	if err != nil {
		return fmt.Errorf("sqlite: removing vote on post %d: %w", postID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err := apperror.NotFound("vote", fmt.Sprintf("%d/%d", postID, userID))
		err.Message = "Vote does not exist"
		return err
	}
	return nil
}
