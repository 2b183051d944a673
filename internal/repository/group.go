package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"postcircle/internal/model"
)

type groupRepository struct {
	db *sqlx.DB
}

func NewGroupRepository(db *sqlx.DB) GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) ListByOwner(ctx context.Context, ownerID int64) ([]model.FriendGroup, error) {
	query := `
		SELECT id, owner_id, name, created_at
		FROM friend_groups
		WHERE owner_id = $1
		ORDER BY id ASC
	`

	var groups []model.FriendGroup
	err := r.db.SelectContext(ctx, &groups, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	return groups, nil
}

// GetByID resolves a group scoped to its owner. A group that exists but
// belongs to someone else is indistinguishable from one that does not
// exist at all.
func (r *groupRepository) GetByID(ctx context.Context, ownerID, groupID int64) (*model.FriendGroup, error) {
	query := `
		SELECT id, owner_id, name, created_at
		FROM friend_groups
		WHERE owner_id = $1 AND id = $2
	`

	var g model.FriendGroup
	err := r.db.GetContext(ctx, &g, query, ownerID, groupID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	return &g, nil
}

func (r *groupRepository) ExistsByOwnerAndName(ctx context.Context, tx *sqlx.Tx, ownerID int64, name string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM friend_groups WHERE owner_id = $1 AND name = $2)`

	var exists bool
	err := tx.GetContext(ctx, &exists, query, ownerID, name)
	if err != nil {
		return false, fmt.Errorf("failed to check group name: %w", err)
	}

	return exists, nil
}

func (r *groupRepository) Create(ctx context.Context, tx *sqlx.Tx, g *model.FriendGroup) error {
	query := `
		INSERT INTO friend_groups (owner_id, name, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id, created_at
	`

	err := tx.QueryRowxContext(ctx, query, g.OwnerID, g.Name).Scan(&g.ID, &g.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}

	return nil
}

func (r *groupRepository) Rename(ctx context.Context, tx *sqlx.Tx, groupID int64, name string) error {
	query := `UPDATE friend_groups SET name = $1 WHERE id = $2`
	_, err := tx.ExecContext(ctx, query, name, groupID)
	if err != nil {
		return fmt.Errorf("failed to rename group: %w", err)
	}
	return nil
}

// Delete removes the group; the membership rows go with it via the
// ON DELETE CASCADE foreign key.
func (r *groupRepository) Delete(ctx context.Context, ownerID, groupID int64) (bool, error) {
	query := `DELETE FROM friend_groups WHERE owner_id = $1 AND id = $2`
	result, err := r.db.ExecContext(ctx, query, ownerID, groupID)
	if err != nil {
		return false, fmt.Errorf("failed to delete group: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

// ListMembers returns the group's members ordered by membership-row
// insertion (the serial id), not by username.
func (r *groupRepository) ListMembers(ctx context.Context, groupID int64) ([]model.UserSummary, error) {
	query := `
		SELECT u.id, u.username
		FROM friend_group_members m
		JOIN users u ON u.id = m.member_id
		WHERE m.group_id = $1
		ORDER BY m.id ASC
	`

	var users []model.UserSummary
	err := r.db.SelectContext(ctx, &users, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	return users, nil
}

// InsertMember adds a membership row; the unique (group_id, member_id)
// constraint plus ON CONFLICT DO NOTHING makes repeat adds a no-op.
func (r *groupRepository) InsertMember(ctx context.Context, tx *sqlx.Tx, groupID, memberID int64) (bool, error) {
	query := `
		INSERT INTO friend_group_members (group_id, member_id)
		VALUES ($1, $2)
		ON CONFLICT (group_id, member_id) DO NOTHING
	`
	result, err := tx.ExecContext(ctx, query, groupID, memberID)
	if err != nil {
		return false, fmt.Errorf("failed to insert member: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

func (r *groupRepository) DeleteMember(ctx context.Context, tx *sqlx.Tx, groupID, memberID int64) (bool, error) {
	query := `DELETE FROM friend_group_members WHERE group_id = $1 AND member_id = $2`
	result, err := tx.ExecContext(ctx, query, groupID, memberID)
	if err != nil {
		return false, fmt.Errorf("failed to delete member: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

// DeleteMembersNotIn removes every membership whose member is outside the
// keep set. An empty keep set empties the group, which is exactly what a
// reconciliation against an empty target list needs.
func (r *groupRepository) DeleteMembersNotIn(ctx context.Context, tx *sqlx.Tx, groupID int64, keep []int64) (int64, error) {
	query := `DELETE FROM friend_group_members WHERE group_id = $1 AND NOT (member_id = ANY($2))`
	result, err := tx.ExecContext(ctx, query, groupID, pq.Array(keep))
	if err != nil {
		return 0, fmt.Errorf("failed to prune members: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows, nil
}

func (r *groupRepository) IsMember(ctx context.Context, groupID, memberID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM friend_group_members WHERE group_id = $1 AND member_id = $2)`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, groupID, memberID)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}

	return exists, nil
}
