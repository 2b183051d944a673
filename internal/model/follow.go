package model

import "time"

// Follow is a directed edge meaning the follower sees the followee's
// content. At most one row exists per ordered (follower, followee) pair;
// the pair is the primary key. Self-follows are not rejected anywhere in
// this layer.
type Follow struct {
	FollowerID   int64     `db:"follower_id" json:"follower_id"`
	FolloweeID   int64     `db:"followee_id" json:"followee_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	LastModified time.Time `db:"last_modified" json:"last_modified"`
}

// FollowRequest is the PUT/DELETE body for the follow endpoints: the
// username of the target user.
type FollowRequest struct {
	Username string `json:"username"`
}

// UsernameFilter constrains a follower/following listing to an exact
// username or a set of usernames. The zero value matches everything.
type UsernameFilter struct {
	Exact string
	In    []string
}

// IsZero reports whether the filter imposes no constraint.
func (f UsernameFilter) IsZero() bool {
	return f.Exact == "" && len(f.In) == 0
}

// Usernames flattens the filter into the list of usernames the listing
// is restricted to, or nil for no restriction.
func (f UsernameFilter) Usernames() []string {
	if f.Exact != "" {
		return []string{f.Exact}
	}
	if len(f.In) > 0 {
		return f.In
	}
	return nil
}
