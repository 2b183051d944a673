package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"postcircle/internal/model"
)

type followRepository struct {
	db *sqlx.DB
}

func NewFollowRepository(db *sqlx.DB) FollowRepository {
	return &followRepository{db: db}
}

// Create inserts the directed edge. The composite primary key plus
// ON CONFLICT DO NOTHING makes re-adds a no-op; RowsAffected tells the
// caller whether this was a genuinely new edge.
func (r *followRepository) Create(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error) {
	query := `
		INSERT INTO follows (follower_id, followee_id, created_at, last_modified)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (follower_id, followee_id) DO NOTHING
	`
	result, err := tx.ExecContext(ctx, query, followerID, followeeID)
	if err != nil {
		return false, fmt.Errorf("failed to create follow: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// Delete removes the edge. Deleting an edge that does not exist is not an
// error; the caller decides what zero rows means.
func (r *followRepository) Delete(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error) {
	query := `DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2`
	result, err := tx.ExecContext(ctx, query, followerID, followeeID)
	if err != nil {
		return false, fmt.Errorf("failed to delete follow: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

func (r *followRepository) Exists(ctx context.Context, followerID, followeeID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id = $1 AND followee_id = $2)`
	var exists bool
	err := r.db.GetContext(ctx, &exists, query, followerID, followeeID)
	if err != nil {
		return false, fmt.Errorf("failed to check follow existence: %w", err)
	}
	return exists, nil
}

// ListFollowers retrieves users who follow the specified user, in edge
// insertion order. When usernames is non-nil the listing is restricted to
// followers whose username is in the set (single-element set for an exact
// match); the filter goes into the SQL with ANY($2) rather than being
// applied in Go.
func (r *followRepository) ListFollowers(ctx context.Context, userID int64, usernames []string) ([]model.UserSummary, error) {
	var query string
	var args []interface{}

	if usernames == nil {
		query = `
			SELECT u.id, u.username
			FROM follows f
			JOIN users u ON u.id = f.follower_id
			WHERE f.followee_id = $1
			ORDER BY f.created_at ASC
		`
		args = []interface{}{userID}
	} else {
		query = `
			SELECT u.id, u.username
			FROM follows f
			JOIN users u ON u.id = f.follower_id
			WHERE f.followee_id = $1 AND u.username = ANY($2)
			ORDER BY f.created_at ASC
		`
		args = []interface{}{userID, pq.Array(usernames)}
	}

	var users []model.UserSummary
	err := r.db.SelectContext(ctx, &users, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list followers: %w", err)
	}

	return users, nil
}

// ListFollowing retrieves users that the specified user follows. See
// ListFollowers for ordering and filter semantics.
func (r *followRepository) ListFollowing(ctx context.Context, userID int64, usernames []string) ([]model.UserSummary, error) {
	var query string
	var args []interface{}

	if usernames == nil {
		query = `
			SELECT u.id, u.username
			FROM follows f
			JOIN users u ON u.id = f.followee_id
			WHERE f.follower_id = $1
			ORDER BY f.created_at ASC
		`
		args = []interface{}{userID}
	} else {
		query = `
			SELECT u.id, u.username
			FROM follows f
			JOIN users u ON u.id = f.followee_id
			WHERE f.follower_id = $1 AND u.username = ANY($2)
			ORDER BY f.created_at ASC
		`
		args = []interface{}{userID, pq.Array(usernames)}
	}

	var users []model.UserSummary
	err := r.db.SelectContext(ctx, &users, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list following: %w", err)
	}

	return users, nil
}
