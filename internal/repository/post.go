package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"postcircle/internal/model"
)

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, p *model.Post) error {
	query := `
		INSERT INTO posts (author_id, title, body, visibility, access_group_id, created_at, last_modified)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, created_at, last_modified
	`

	err := r.db.QueryRowxContext(ctx, query,
		p.AuthorID,
		p.Title,
		p.Body,
		p.Visibility,
		p.AccessGroupID,
	).Scan(&p.ID, &p.CreatedAt, &p.LastModified)
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}

	return nil
}

func (r *postRepository) GetByID(ctx context.Context, postID int64) (*model.Post, error) {
	query := `
		SELECT p.id, p.author_id, p.title, p.body, p.visibility, p.access_group_id,
		       p.created_at, p.last_modified,
		       u.id AS "author.id", u.username AS "author.username"
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE p.id = $1
	`

	var row struct {
		model.Post
		AuthorSummary model.UserSummary `db:"author"`
	}
	err := r.db.GetContext(ctx, &row, query, postID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	post := row.Post
	post.Author = &row.AuthorSummary
	return &post, nil
}

func (r *postRepository) Update(ctx context.Context, p *model.Post) error {
	query := `
		UPDATE posts
		SET title = $1, body = $2, visibility = $3, access_group_id = $4, last_modified = NOW()
		WHERE id = $5
		RETURNING last_modified
	`

	err := r.db.QueryRowxContext(ctx, query,
		p.Title,
		p.Body,
		p.Visibility,
		p.AccessGroupID,
		p.ID,
	).Scan(&p.LastModified)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.ErrPostNotFound
		}
		return fmt.Errorf("failed to update post: %w", err)
	}

	return nil
}

// Delete removes the post; permission grants cascade with it.
func (r *postRepository) Delete(ctx context.Context, postID int64) (bool, error) {
	query := `DELETE FROM posts WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, postID)
	if err != nil {
		return false, fmt.Errorf("failed to delete post: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

// ListVisible evaluates the visibility rules in SQL so a listing never
// materializes posts the viewer cannot see. The predicate mirrors the
// service-level CanView resolution exactly: explicit grant, public, own
// post, followed author's all_friends post, or friend_group membership.
func (r *postRepository) ListVisible(ctx context.Context, viewerID int64, filter model.PostFilter) ([]model.Post, error) {
	conditions := []string{`(
		p.visibility = 'public'
		OR p.author_id = $1
		OR EXISTS (SELECT 1 FROM post_permissions pp WHERE pp.post_id = p.id AND pp.user_id = $1)
		OR (p.visibility = 'all_friends' AND EXISTS (
			SELECT 1 FROM follows f WHERE f.follower_id = $1 AND f.followee_id = p.author_id))
		OR (p.visibility = 'friend_group' AND EXISTS (
			SELECT 1 FROM friend_group_members m WHERE m.group_id = p.access_group_id AND m.member_id = $1))
	)`}
	args := []interface{}{viewerID}

	appendTime := func(column, op string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("p.%s %s $%d", column, op, len(args)))
	}

	if filter.CreatedBefore != nil {
		appendTime("created_at", "<", *filter.CreatedBefore)
	}
	if filter.CreatedAfter != nil {
		appendTime("created_at", ">", *filter.CreatedAfter)
	}
	if filter.ModifiedBefore != nil {
		appendTime("last_modified", "<", *filter.ModifiedBefore)
	}
	if filter.ModifiedAfter != nil {
		appendTime("last_modified", ">", *filter.ModifiedAfter)
	}

	query := fmt.Sprintf(`
		SELECT p.id, p.author_id, p.title, p.body, p.visibility, p.access_group_id,
		       p.created_at, p.last_modified,
		       u.id AS "author.id", u.username AS "author.username"
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE %s
		ORDER BY p.created_at DESC
	`, strings.Join(conditions, " AND "))

	var rows []struct {
		model.Post
		AuthorSummary model.UserSummary `db:"author"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	posts := make([]model.Post, 0, len(rows))
	for i := range rows {
		post := rows[i].Post
		author := rows[i].AuthorSummary
		post.Author = &author
		posts = append(posts, post)
	}

	return posts, nil
}

// GrantPermission inserts an explicit grant; the unique (post_id, user_id)
// constraint makes repeat grants a no-op.
func (r *postRepository) GrantPermission(ctx context.Context, postID, userID int64) (bool, error) {
	query := `
		INSERT INTO post_permissions (post_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (post_id, user_id) DO NOTHING
	`
	result, err := r.db.ExecContext(ctx, query, postID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to grant permission: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

func (r *postRepository) RevokePermission(ctx context.Context, postID, userID int64) (bool, error) {
	query := `DELETE FROM post_permissions WHERE post_id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, postID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to revoke permission: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

func (r *postRepository) HasPermission(ctx context.Context, postID, userID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM post_permissions WHERE post_id = $1 AND user_id = $2)`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, postID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check permission: %w", err)
	}

	return exists, nil
}
