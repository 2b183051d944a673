package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"postcircle/internal/model"
)

// TxManager runs a function inside a single database transaction.
// Multi-step operations (follow add/remove, membership reconciliation)
// go through it so their writes are atomic per request.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

type UserRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, user *model.User) error
	CreateProfile(ctx context.Context, tx *sqlx.Tx, profile *model.Profile) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdateUsername(ctx context.Context, userID int64, username string) error
	GetProfile(ctx context.Context, userID int64) (*model.Profile, error)
	UpdateProfileBio(ctx context.Context, userID int64, bio *string) error
}

type FollowRepository interface {
	// Create inserts the edge if absent. Returns true only when a row was
	// actually inserted; an existing edge is left untouched.
	Create(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error)
	// Delete removes the edge if present. Returns true when a row was
	// deleted; deleting a missing edge is not an error.
	Delete(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error)
	Exists(ctx context.Context, followerID, followeeID int64) (bool, error)
	// ListFollowers returns users following userID in edge insertion order,
	// optionally restricted to the given follower usernames (nil = all).
	ListFollowers(ctx context.Context, userID int64, usernames []string) ([]model.UserSummary, error)
	// ListFollowing returns users userID follows, same ordering and filter
	// semantics as ListFollowers.
	ListFollowing(ctx context.Context, userID int64, usernames []string) ([]model.UserSummary, error)
}

type GroupRepository interface {
	ListByOwner(ctx context.Context, ownerID int64) ([]model.FriendGroup, error)
	// GetByID resolves a group scoped to its owner; a group owned by
	// someone else is reported as absent.
	GetByID(ctx context.Context, ownerID, groupID int64) (*model.FriendGroup, error)
	// ExistsByOwnerAndName checks the owner-scoped name pre-check inside
	// the same transaction as the insert or rename that follows it.
	ExistsByOwnerAndName(ctx context.Context, tx *sqlx.Tx, ownerID int64, name string) (bool, error)
	Create(ctx context.Context, tx *sqlx.Tx, group *model.FriendGroup) error
	Rename(ctx context.Context, tx *sqlx.Tx, groupID int64, name string) error
	// Delete removes the group and cascades its membership rows. Returns
	// true when a group row was deleted.
	Delete(ctx context.Context, ownerID, groupID int64) (bool, error)
	// ListMembers returns members in membership-row insertion order.
	ListMembers(ctx context.Context, groupID int64) ([]model.UserSummary, error)
	// InsertMember adds a membership if absent; returns true on actual insert.
	InsertMember(ctx context.Context, tx *sqlx.Tx, groupID, memberID int64) (bool, error)
	// DeleteMember removes a membership if present; returns true on actual delete.
	DeleteMember(ctx context.Context, tx *sqlx.Tx, groupID, memberID int64) (bool, error)
	// DeleteMembersNotIn removes every membership whose member id is not in
	// keep. An empty keep set empties the group.
	DeleteMembersNotIn(ctx context.Context, tx *sqlx.Tx, groupID int64, keep []int64) (int64, error)
	IsMember(ctx context.Context, groupID, memberID int64) (bool, error)
}

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, postID int64) (*model.Post, error)
	Update(ctx context.Context, post *model.Post) error
	Delete(ctx context.Context, postID int64) (bool, error)
	// ListVisible returns posts the viewer may see under the visibility
	// rules (explicit grant, public, own, followed author's all_friends,
	// friend_group membership), newest first.
	ListVisible(ctx context.Context, viewerID int64, filter model.PostFilter) ([]model.Post, error)
	// GrantPermission inserts an explicit per-user grant; returns true on
	// actual insert.
	GrantPermission(ctx context.Context, postID, userID int64) (bool, error)
	// RevokePermission removes a grant; returns true on actual delete.
	RevokePermission(ctx context.Context, postID, userID int64) (bool, error)
	HasPermission(ctx context.Context, postID, userID int64) (bool, error)
}

type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	Revoke(ctx context.Context, id string, replacedBy *string) error
	RevokeAllForUser(ctx context.Context, userID int64) error
	DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error)
}
