package service

import (
	"context"
	"errors"
	"fmt"

	"postcircle/internal/model"
	"postcircle/internal/repository"
)

// PostService handles posts and derived visibility. CanView is a pure
// function of current state and is recomputed per request; nothing here
// is cached.
type PostService struct {
	postRepo   repository.PostRepository
	groupRepo  repository.GroupRepository
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
}

func NewPostService(
	postRepo repository.PostRepository,
	groupRepo repository.GroupRepository,
	followRepo repository.FollowRepository,
	userRepo repository.UserRepository,
) *PostService {
	return &PostService{
		postRepo:   postRepo,
		groupRepo:  groupRepo,
		followRepo: followRepo,
		userRepo:   userRepo,
	}
}

// Create makes a new post authored by the caller, enforcing the
// visibility/access-group invariant.
func (s *PostService) Create(ctx context.Context, author *model.User, req *model.CreatePostRequest) (*model.Post, error) {
	if err := validatePostContent(req.Title, req.Body); err != nil {
		return nil, err
	}

	visibility := req.Visibility
	if visibility == "" {
		visibility = model.VisibilityPublic
	}

	if err := s.validateVisibility(ctx, author.ID, visibility, req.AccessGroup); err != nil {
		return nil, err
	}

	post := &model.Post{
		AuthorID:      author.ID,
		Title:         req.Title,
		Body:          req.Body,
		Visibility:    visibility,
		AccessGroupID: req.AccessGroup,
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	post.Author = &model.UserSummary{ID: author.ID, Username: author.Username}
	return post, nil
}

// Get returns the post if the viewer may see it. A post the viewer cannot
// see reads as absent; existence is not leaked.
func (s *PostService) Get(ctx context.Context, viewer *model.User, postID int64) (*model.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	visible, err := s.CanView(ctx, viewer.ID, post)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, model.ErrPostNotFound
	}

	return post, nil
}

// List returns the posts visible to the viewer, newest first. The
// visibility predicate is evaluated in SQL with the same rules as
// CanView.
func (s *PostService) List(ctx context.Context, viewer *model.User, filter model.PostFilter) ([]model.Post, error) {
	return s.postRepo.ListVisible(ctx, viewer.ID, filter)
}

// Update applies a partial update, author only. Non-authors who can view
// the post get a forbidden error; everyone else gets not-found.
func (s *PostService) Update(ctx context.Context, caller *model.User, postID int64, req *model.UpdatePostRequest) (*model.Post, error) {
	post, err := s.authorOnly(ctx, caller, postID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		post.Title = *req.Title
	}
	if req.Body != nil {
		post.Body = *req.Body
	}
	if err := validatePostContent(post.Title, post.Body); err != nil {
		return nil, err
	}

	if req.Visibility != nil {
		post.Visibility = *req.Visibility
		if post.Visibility == model.VisibilityFriendGroup {
			post.AccessGroupID = req.AccessGroup
		} else {
			// The invariant: access_group is set iff visibility is
			// friend_group.
			post.AccessGroupID = nil
		}
	} else if req.AccessGroup != nil {
		post.AccessGroupID = req.AccessGroup
	}

	if err := s.validateVisibility(ctx, post.AuthorID, post.Visibility, post.AccessGroupID); err != nil {
		return nil, err
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}

	return post, nil
}

// Delete removes the post, author only.
func (s *PostService) Delete(ctx context.Context, caller *model.User, postID int64) error {
	post, err := s.authorOnly(ctx, caller, postID)
	if err != nil {
		return err
	}

	deleted, err := s.postRepo.Delete(ctx, post.ID)
	if err != nil {
		return err
	}
	if !deleted {
		return model.ErrPostNotFound
	}
	return nil
}

// GrantPermission gives one user an explicit view grant on the post,
// independent of its visibility mode. Author only; idempotent.
func (s *PostService) GrantPermission(ctx context.Context, caller *model.User, postID int64, username string) (*model.UserSummary, error) {
	post, err := s.authorOnly(ctx, caller, postID)
	if err != nil {
		return nil, err
	}

	grantee, err := s.resolveUser(ctx, username)
	if err != nil {
		return nil, err
	}

	if _, err := s.postRepo.GrantPermission(ctx, post.ID, grantee.ID); err != nil {
		return nil, err
	}

	return &model.UserSummary{ID: grantee.ID, Username: grantee.Username}, nil
}

// RevokePermission removes an explicit grant. Author only; revoking a
// grant that does not exist is a no-op success.
func (s *PostService) RevokePermission(ctx context.Context, caller *model.User, postID int64, username string) error {
	post, err := s.authorOnly(ctx, caller, postID)
	if err != nil {
		return err
	}

	grantee, err := s.resolveUser(ctx, username)
	if err != nil {
		return err
	}

	_, err = s.postRepo.RevokePermission(ctx, post.ID, grantee.ID)
	return err
}

// CanView resolves whether the viewer may see the post:
//   - an explicit permission grant overrides everything;
//   - public: anyone;
//   - private: author only;
//   - all_friends: viewers who follow the author (viewer -> author edge);
//   - friend_group: the author, or members of the post's access group.
func (s *PostService) CanView(ctx context.Context, viewerID int64, post *model.Post) (bool, error) {
	granted, err := s.postRepo.HasPermission(ctx, post.ID, viewerID)
	if err != nil {
		return false, err
	}
	if granted {
		return true, nil
	}

	switch post.Visibility {
	case model.VisibilityPublic:
		return true, nil
	case model.VisibilityPrivate:
		return viewerID == post.AuthorID, nil
	case model.VisibilityAllFriends:
		return s.followRepo.Exists(ctx, viewerID, post.AuthorID)
	case model.VisibilityFriendGroup:
		if viewerID == post.AuthorID {
			return true, nil
		}
		if post.AccessGroupID == nil {
			return false, nil
		}
		return s.groupRepo.IsMember(ctx, *post.AccessGroupID, viewerID)
	default:
		return false, fmt.Errorf("unknown visibility %q on post %d", post.Visibility, post.ID)
	}
}

// authorOnly loads the post and enforces the write guard: invisible posts
// read as absent, visible posts written by someone else are forbidden.
func (s *PostService) authorOnly(ctx context.Context, caller *model.User, postID int64) (*model.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	if post.AuthorID == caller.ID {
		return post, nil
	}

	visible, err := s.CanView(ctx, caller.ID, post)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, model.ErrPostNotFound
	}
	return nil, model.ErrNotPostAuthor
}

// validateVisibility enforces that access_group is present iff the mode
// is friend_group, and that the group belongs to the author.
func (s *PostService) validateVisibility(ctx context.Context, authorID int64, visibility model.Visibility, accessGroup *int64) error {
	if !visibility.Valid() {
		return model.ErrInvalidVisibility
	}

	if visibility == model.VisibilityFriendGroup {
		if accessGroup == nil {
			return model.ErrInvalidVisibility
		}
		if _, err := s.groupRepo.GetByID(ctx, authorID, *accessGroup); err != nil {
			if errors.Is(err, model.ErrGroupNotFound) {
				return model.ErrAccessGroupNotOwned
			}
			return err
		}
		return nil
	}

	if accessGroup != nil {
		return model.ErrInvalidVisibility
	}
	return nil
}

func (s *PostService) resolveUser(ctx context.Context, username string) (*model.User, error) {
	if username == "" {
		return nil, model.ErrMissingUsername
	}
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, &model.UnknownUsernameError{Username: username}
		}
		return nil, err
	}
	return user, nil
}

func validatePostContent(title, body string) error {
	if len(title) > model.MaxPostTitleLength {
		return fmt.Errorf("title exceeds %d bytes: %w", model.MaxPostTitleLength, model.ErrPostTooLarge)
	}
	if len(body) > model.MaxPostBodyLength {
		return fmt.Errorf("body exceeds %d bytes: %w", model.MaxPostBodyLength, model.ErrPostTooLarge)
	}
	return nil
}
