package model

import (
	"errors"
	"time"
)

// Visibility is a post's visibility mode.
type Visibility string

const (
	// VisibilityPublic means anyone may view the post.
	VisibilityPublic Visibility = "public"
	// VisibilityPrivate means only the author may view the post.
	VisibilityPrivate Visibility = "private"
	// VisibilityAllFriends means viewers who follow the author may view it.
	VisibilityAllFriends Visibility = "all_friends"
	// VisibilityFriendGroup means members of the post's access group (and
	// the author) may view it.
	VisibilityFriendGroup Visibility = "friend_group"
)

// Valid reports whether v is one of the known visibility modes.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityPrivate, VisibilityAllFriends, VisibilityFriendGroup:
		return true
	}
	return false
}

// Post size limits, matching the schema.
const (
	MaxPostTitleLength = 1024
	MaxPostBodyLength  = 1024 * 1024
)

// Post is a user's post. AccessGroupID is set if and only if Visibility
// is friend_group, and the group must belong to the author.
type Post struct {
	ID            int64      `db:"id" json:"id"`
	AuthorID      int64      `db:"author_id" json:"-"`
	Title         string     `db:"title" json:"title"`
	Body          string     `db:"body" json:"body"`
	Visibility    Visibility `db:"visibility" json:"visibility_type"`
	AccessGroupID *int64     `db:"access_group_id" json:"access_group,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	LastModified  time.Time  `db:"last_modified" json:"last_modified"`

	// Author is joined in for list/detail responses.
	Author *UserSummary `json:"author,omitempty"`
}

// PostPermission is an explicit per-user grant for one post. It overrides
// the post's visibility mode entirely and is managed by the author only.
type PostPermission struct {
	ID     int64 `db:"id" json:"id"`
	UserID int64 `db:"user_id" json:"user_id"`
	PostID int64 `db:"post_id" json:"post_id"`
}

// CreatePostRequest is the POST body for creating a post.
type CreatePostRequest struct {
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	Visibility  Visibility `json:"visibility_type"`
	AccessGroup *int64     `json:"access_group"`
}

// UpdatePostRequest is the PUT body for a post. Nil fields are untouched.
// Changing visibility to friend_group requires AccessGroup; changing away
// from friend_group clears it.
type UpdatePostRequest struct {
	Title       *string     `json:"title"`
	Body        *string     `json:"body"`
	Visibility  *Visibility `json:"visibility_type"`
	AccessGroup *int64      `json:"access_group"`
}

// PostFilter restricts a post listing by timestamps. Nil fields are
// ignored.
type PostFilter struct {
	CreatedBefore  *time.Time
	CreatedAfter   *time.Time
	ModifiedBefore *time.Time
	ModifiedAfter  *time.Time
}

var (
	// ErrPostNotFound is returned when a post does not exist or the viewer
	// may not see it; the two cases are deliberately indistinguishable.
	ErrPostNotFound = errors.New("post not found")

	// ErrNotPostAuthor is returned when a non-author attempts a write or a
	// permission grant on a post they can view.
	ErrNotPostAuthor = errors.New("not the author of this post")

	// ErrInvalidVisibility is returned for an unknown visibility mode or a
	// visibility/access_group combination that violates the invariant.
	ErrInvalidVisibility = errors.New("invalid visibility configuration")

	// ErrAccessGroupNotOwned is returned when the access group does not
	// exist or does not belong to the post's author.
	ErrAccessGroupNotOwned = errors.New("access group does not belong to author")

	// ErrPostTooLarge is returned when a post title or body exceeds its
	// length limit.
	ErrPostTooLarge = errors.New("post content exceeds size limit")
)
