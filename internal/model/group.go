package model

import (
	"errors"
	"time"
)

// MaxGroupNameLength is the schema limit on friend group names.
const MaxGroupNameLength = 48

// FriendGroup is an owner-curated named set of users, used to scope
// friend_group-visibility posts. Names are unique per owner; the check is
// an application-level pre-check inside the create/update transaction.
type FriendGroup struct {
	ID        int64     `db:"id" json:"id"`
	OwnerID   int64     `db:"owner_id" json:"-"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	// Members is populated only when the caller asked for expansion.
	Members []UserSummary `json:"members,omitempty"`
}

// FriendGroupMember is one membership row. At most one row exists per
// (group, member) pair; listings are ordered by row insertion (id).
type FriendGroupMember struct {
	ID       int64 `db:"id" json:"id"`
	GroupID  int64 `db:"group_id" json:"group_id"`
	MemberID int64 `db:"member_id" json:"member_id"`
}

// CreateGroupRequest is the POST body for creating a friend group.
// Members, when present, is reconciled immediately after the insert.
type CreateGroupRequest struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// UpdateGroupRequest is the PUT body for a friend group. Members is
// tri-state: nil means leave membership untouched, an empty list removes
// every member, a non-empty list is the reconciliation target set.
type UpdateGroupRequest struct {
	Name    *string   `json:"name"`
	Members *[]string `json:"members"`
}

// ReconcileMembersRequest is the PUT body for the members collection.
type ReconcileMembersRequest struct {
	Usernames []string `json:"usernames"`
}

var (
	// ErrGroupNotFound is returned when a group does not exist or is not
	// owned by the caller; the two cases are deliberately indistinguishable.
	ErrGroupNotFound = errors.New("friend group not found")

	// ErrGroupNameMissing is returned when a group is created or renamed
	// without a name.
	ErrGroupNameMissing = errors.New("group name is required")

	// ErrGroupNameInUse is returned when the owner already has a group
	// with that exact name.
	ErrGroupNameInUse = errors.New("group name already in use")

	// ErrGroupNameTooLong is returned when the name exceeds MaxGroupNameLength.
	ErrGroupNameTooLong = errors.New("group name too long")
)
