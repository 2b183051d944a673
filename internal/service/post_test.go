package service

import (
	"context"
	"errors"
	"testing"

	"postcircle/internal/model"
)

func groupID(id int64) *int64 { return &id }

// =============================================================================
// VISIBILITY TESTS
// =============================================================================

func TestPostService_CanView_Matrix(t *testing.T) {
	const (
		author   = int64(1)
		follower = int64(2)
		member   = int64(3)
		stranger = int64(4)
	)

	postRepo := &mockPostRepository{}
	// follower follows the author; member belongs to group 10.
	followRepo := &mockFollowRepository{
		existsFn: func(ctx context.Context, followerID, followeeID int64) (bool, error) {
			return followerID == follower && followeeID == author, nil
		},
	}
	groupRepo := &mockGroupRepository{
		isMemberFn: func(ctx context.Context, gID, memberID int64) (bool, error) {
			return gID == 10 && memberID == member, nil
		},
	}
	svc := NewPostService(postRepo, groupRepo, followRepo, &mockUserRepository{})

	tests := []struct {
		name     string
		post     model.Post
		viewerID int64
		want     bool
	}{
		{"public/stranger", model.Post{ID: 1, AuthorID: author, Visibility: model.VisibilityPublic}, stranger, true},
		{"public/author", model.Post{ID: 1, AuthorID: author, Visibility: model.VisibilityPublic}, author, true},

		{"private/author", model.Post{ID: 2, AuthorID: author, Visibility: model.VisibilityPrivate}, author, true},
		{"private/follower", model.Post{ID: 2, AuthorID: author, Visibility: model.VisibilityPrivate}, follower, false},
		{"private/stranger", model.Post{ID: 2, AuthorID: author, Visibility: model.VisibilityPrivate}, stranger, false},

		{"all_friends/follower", model.Post{ID: 3, AuthorID: author, Visibility: model.VisibilityAllFriends}, follower, true},
		{"all_friends/stranger", model.Post{ID: 3, AuthorID: author, Visibility: model.VisibilityAllFriends}, stranger, false},

		{"friend_group/author", model.Post{ID: 4, AuthorID: author, Visibility: model.VisibilityFriendGroup, AccessGroupID: groupID(10)}, author, true},
		{"friend_group/member", model.Post{ID: 4, AuthorID: author, Visibility: model.VisibilityFriendGroup, AccessGroupID: groupID(10)}, member, true},
		{"friend_group/follower", model.Post{ID: 4, AuthorID: author, Visibility: model.VisibilityFriendGroup, AccessGroupID: groupID(10)}, follower, false},
		{"friend_group/stranger", model.Post{ID: 4, AuthorID: author, Visibility: model.VisibilityFriendGroup, AccessGroupID: groupID(10)}, stranger, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.CanView(context.Background(), tt.viewerID, &tt.post)
			if err != nil {
				t.Fatalf("expected no error, got: %v", err)
			}
			if got != tt.want {
				t.Errorf("CanView() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPostService_CanView_ExplicitGrantOverrides(t *testing.T) {
	// A direct grant makes even a private post visible to a stranger.
	postRepo := &mockPostRepository{
		hasPermissionFn: func(ctx context.Context, postID, userID int64) (bool, error) {
			return postID == 1 && userID == 4, nil
		},
	}
	svc := NewPostService(postRepo, &mockGroupRepository{}, &mockFollowRepository{}, &mockUserRepository{})

	post := &model.Post{ID: 1, AuthorID: 1, Visibility: model.VisibilityPrivate}

	got, err := svc.CanView(context.Background(), 4, post)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !got {
		t.Error("an explicit grant must override the visibility mode")
	}
}

func TestPostService_CanView_FollowDirectionMatters(t *testing.T) {
	// all_friends requires viewer -> author, not author -> viewer.
	followRepo := &mockFollowRepository{
		existsFn: func(ctx context.Context, followerID, followeeID int64) (bool, error) {
			// Only the reverse edge exists: the author follows the viewer.
			return followerID == 1 && followeeID == 2, nil
		},
	}
	svc := NewPostService(&mockPostRepository{}, &mockGroupRepository{}, followRepo, &mockUserRepository{})

	post := &model.Post{ID: 1, AuthorID: 1, Visibility: model.VisibilityAllFriends}

	got, err := svc.CanView(context.Background(), 2, post)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if got {
		t.Error("being followed by the author must not grant visibility")
	}
}

func TestPostService_Get_InvisiblePostReadsAsAbsent(t *testing.T) {
	postRepo := &mockPostRepository{
		getByIDFn: func(ctx context.Context, postID int64) (*model.Post, error) {
			return &model.Post{ID: postID, AuthorID: 1, Visibility: model.VisibilityPrivate}, nil
		},
	}
	svc := NewPostService(postRepo, &mockGroupRepository{}, &mockFollowRepository{}, &mockUserRepository{})

	_, err := svc.Get(context.Background(), &model.User{ID: 2, Username: "bob"}, 1)

	if !errors.Is(err, model.ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got: %v", err)
	}
}

// =============================================================================
// CREATE / UPDATE TESTS
// =============================================================================

func TestPostService_Create_DefaultsToPublic(t *testing.T) {
	svc := NewPostService(&mockPostRepository{}, &mockGroupRepository{}, &mockFollowRepository{}, &mockUserRepository{})

	post, err := svc.Create(context.Background(),
		&model.User{ID: 1, Username: "alice"},
		&model.CreatePostRequest{Title: "hello", Body: "first post"})

	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if post.Visibility != model.VisibilityPublic {
		t.Errorf("visibility = %q, want %q", post.Visibility, model.VisibilityPublic)
	}
}

func TestPostService_Create_FriendGroupRequiresOwnedGroup(t *testing.T) {
	// The group lookup is owner-scoped, so someone else's group reads as
	// absent and the create fails.
	svc := NewPostService(&mockPostRepository{}, &mockGroupRepository{}, &mockFollowRepository{}, &mockUserRepository{})

	_, err := svc.Create(context.Background(),
		&model.User{ID: 1, Username: "alice"},
		&model.CreatePostRequest{
			Title:       "hello",
			Visibility:  model.VisibilityFriendGroup,
			AccessGroup: groupID(99),
		})

	if !errors.Is(err, model.ErrAccessGroupNotOwned) {
		t.Fatalf("expected ErrAccessGroupNotOwned, got: %v", err)
	}
}

func TestPostService_Create_AccessGroupInvariant(t *testing.T) {
	svc := NewPostService(&mockPostRepository{}, &mockGroupRepository{}, &mockFollowRepository{}, &mockUserRepository{})

	tests := []struct {
		name string
		req  model.CreatePostRequest
	}{
		{"friend_group without group", model.CreatePostRequest{Title: "x", Visibility: model.VisibilityFriendGroup}},
		{"public with group", model.CreatePostRequest{Title: "x", Visibility: model.VisibilityPublic, AccessGroup: groupID(10)}},
		{"private with group", model.CreatePostRequest{Title: "x", Visibility: model.VisibilityPrivate, AccessGroup: groupID(10)}},
		{"unknown mode", model.CreatePostRequest{Title: "x", Visibility: "everyone"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), &model.User{ID: 1, Username: "alice"}, &tt.req)
			if !errors.Is(err, model.ErrInvalidVisibility) {
				t.Errorf("expected ErrInvalidVisibility, got: %v", err)
			}
		})
	}
}

func TestPostService_Update_VisibilityChangeClearsAccessGroup(t *testing.T) {
	var saved *model.Post
	postRepo := &mockPostRepository{
		getByIDFn: func(ctx context.Context, postID int64) (*model.Post, error) {
			return &model.Post{
				ID:            postID,
				AuthorID:      1,
				Visibility:    model.VisibilityFriendGroup,
				AccessGroupID: groupID(10),
			}, nil
		},
		updateFn: func(ctx context.Context, post *model.Post) error {
			saved = post
			return nil
		},
	}
	svc := NewPostService(postRepo, &mockGroupRepository{}, &mockFollowRepository{}, &mockUserRepository{})

	public := model.VisibilityPublic
	_, err := svc.Update(context.Background(),
		&model.User{ID: 1, Username: "alice"},
		1,
		&model.UpdatePostRequest{Visibility: &public})

	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if saved == nil {
		t.Fatal("expected the post to be saved")
	}
	if saved.AccessGroupID != nil {
		t.Error("leaving friend_group visibility must clear the access group")
	}
}

func TestPostService_Update_NonAuthorOfVisiblePostIsForbidden(t *testing.T) {
	postRepo := &mockPostRepository{
		getByIDFn: func(ctx context.Context, postID int64) (*model.Post, error) {
			return &model.Post{ID: postID, AuthorID: 1, Visibility: model.VisibilityPublic}, nil
		},
	}
	svc := NewPostService(postRepo, &mockGroupRepository{}, &mockFollowRepository{}, &mockUserRepository{})

	title := "hijacked"
	_, err := svc.Update(context.Background(),
		&model.User{ID: 2, Username: "bob"},
		1,
		&model.UpdatePostRequest{Title: &title})

	if !errors.Is(err, model.ErrNotPostAuthor) {
		t.Fatalf("expected ErrNotPostAuthor, got: %v", err)
	}
}

func TestPostService_Update_NonAuthorOfHiddenPostSeesNotFound(t *testing.T) {
	// Existence must not leak to callers who can't view the post.
	postRepo := &mockPostRepository{
		getByIDFn: func(ctx context.Context, postID int64) (*model.Post, error) {
			return &model.Post{ID: postID, AuthorID: 1, Visibility: model.VisibilityPrivate}, nil
		},
	}
	svc := NewPostService(postRepo, &mockGroupRepository{}, &mockFollowRepository{}, &mockUserRepository{})

	title := "hijacked"
	_, err := svc.Update(context.Background(),
		&model.User{ID: 2, Username: "bob"},
		1,
		&model.UpdatePostRequest{Title: &title})

	if !errors.Is(err, model.ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got: %v", err)
	}
}

// =============================================================================
// PERMISSION GRANT TESTS
// =============================================================================

func TestPostService_GrantPermission_AuthorOnly(t *testing.T) {
	postRepo := &mockPostRepository{
		getByIDFn: func(ctx context.Context, postID int64) (*model.Post, error) {
			return &model.Post{ID: postID, AuthorID: 1, Visibility: model.VisibilityPublic}, nil
		},
	}
	svc := NewPostService(postRepo, &mockGroupRepository{}, &mockFollowRepository{}, &mockUserRepository{})

	_, err := svc.GrantPermission(context.Background(), &model.User{ID: 2, Username: "bob"}, 1, "carol")

	if !errors.Is(err, model.ErrNotPostAuthor) {
		t.Fatalf("expected ErrNotPostAuthor, got: %v", err)
	}
}

func TestPostService_GrantPermission_UnknownGrantee(t *testing.T) {
	postRepo := &mockPostRepository{
		getByIDFn: func(ctx context.Context, postID int64) (*model.Post, error) {
			return &model.Post{ID: postID, AuthorID: 1, Visibility: model.VisibilityPublic}, nil
		},
	}
	svc := NewPostService(postRepo, &mockGroupRepository{}, &mockFollowRepository{}, &mockUserRepository{})

	_, err := svc.GrantPermission(context.Background(), &model.User{ID: 1, Username: "alice"}, 1, "ghost")

	if !errors.Is(err, model.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got: %v", err)
	}
}
