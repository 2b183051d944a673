package service

import (
	"context"

	"github.com/jmoiron/sqlx"

	"postcircle/internal/model"
	"postcircle/internal/queue"
)

// =============================================================================
// MOCKS
// =============================================================================
//
// Services depend on repository INTERFACES, so tests swap in mocks with
// per-test behavior defined through function fields. The mock TxManager
// runs the callback with its tx field (nil by default); tests that care
// which transaction a repository call rides on set it to a sentinel and
// compare pointers. The mock repositories never dereference the tx.

type mockTxManager struct {
	tx         *sqlx.Tx
	beginCalls int
}

func (m *mockTxManager) WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	m.beginCalls++
	return fn(m.tx)
}

type mockUserRepository struct {
	createFn           func(ctx context.Context, tx *sqlx.Tx, user *model.User) error
	createProfileFn    func(ctx context.Context, tx *sqlx.Tx, profile *model.Profile) error
	getByIDFn          func(ctx context.Context, id int64) (*model.User, error)
	getByUsernameFn    func(ctx context.Context, username string) (*model.User, error)
	existsByUsernameFn func(ctx context.Context, username string) (bool, error)
	existsByEmailFn    func(ctx context.Context, email string) (bool, error)
	updateUsernameFn   func(ctx context.Context, userID int64, username string) error
	getProfileFn       func(ctx context.Context, userID int64) (*model.Profile, error)
	updateProfileBioFn func(ctx context.Context, userID int64, bio *string) error

	createCalls int
}

func (m *mockUserRepository) Create(ctx context.Context, tx *sqlx.Tx, user *model.User) error {
	m.createCalls++
	if m.createFn != nil {
		return m.createFn(ctx, tx, user)
	}
	return nil
}

func (m *mockUserRepository) CreateProfile(ctx context.Context, tx *sqlx.Tx, profile *model.Profile) error {
	if m.createProfileFn != nil {
		return m.createProfileFn(ctx, tx, profile)
	}
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	if m.getByUsernameFn != nil {
		return m.getByUsernameFn(ctx, username)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	if m.existsByUsernameFn != nil {
		return m.existsByUsernameFn(ctx, username)
	}
	return false, nil
}

func (m *mockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if m.existsByEmailFn != nil {
		return m.existsByEmailFn(ctx, email)
	}
	return false, nil
}

func (m *mockUserRepository) UpdateUsername(ctx context.Context, userID int64, username string) error {
	if m.updateUsernameFn != nil {
		return m.updateUsernameFn(ctx, userID, username)
	}
	return nil
}

func (m *mockUserRepository) GetProfile(ctx context.Context, userID int64) (*model.Profile, error) {
	if m.getProfileFn != nil {
		return m.getProfileFn(ctx, userID)
	}
	return &model.Profile{UserID: userID}, nil
}

func (m *mockUserRepository) UpdateProfileBio(ctx context.Context, userID int64, bio *string) error {
	if m.updateProfileBioFn != nil {
		return m.updateProfileBioFn(ctx, userID, bio)
	}
	return nil
}

type mockFollowRepository struct {
	createFn        func(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error)
	deleteFn        func(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error)
	existsFn        func(ctx context.Context, followerID, followeeID int64) (bool, error)
	listFollowersFn func(ctx context.Context, userID int64, usernames []string) ([]model.UserSummary, error)
	listFollowingFn func(ctx context.Context, userID int64, usernames []string) ([]model.UserSummary, error)

	createCalls int
	deleteCalls int
}

func (m *mockFollowRepository) Create(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error) {
	m.createCalls++
	if m.createFn != nil {
		return m.createFn(ctx, tx, followerID, followeeID)
	}
	return true, nil
}

func (m *mockFollowRepository) Delete(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error) {
	m.deleteCalls++
	if m.deleteFn != nil {
		return m.deleteFn(ctx, tx, followerID, followeeID)
	}
	return true, nil
}

func (m *mockFollowRepository) Exists(ctx context.Context, followerID, followeeID int64) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, followerID, followeeID)
	}
	return false, nil
}

func (m *mockFollowRepository) ListFollowers(ctx context.Context, userID int64, usernames []string) ([]model.UserSummary, error) {
	if m.listFollowersFn != nil {
		return m.listFollowersFn(ctx, userID, usernames)
	}
	return nil, nil
}

func (m *mockFollowRepository) ListFollowing(ctx context.Context, userID int64, usernames []string) ([]model.UserSummary, error) {
	if m.listFollowingFn != nil {
		return m.listFollowingFn(ctx, userID, usernames)
	}
	return nil, nil
}

type mockGroupRepository struct {
	listByOwnerFn          func(ctx context.Context, ownerID int64) ([]model.FriendGroup, error)
	getByIDFn              func(ctx context.Context, ownerID, groupID int64) (*model.FriendGroup, error)
	existsByOwnerAndNameFn func(ctx context.Context, tx *sqlx.Tx, ownerID int64, name string) (bool, error)
	createFn               func(ctx context.Context, tx *sqlx.Tx, group *model.FriendGroup) error
	renameFn               func(ctx context.Context, tx *sqlx.Tx, groupID int64, name string) error
	deleteFn               func(ctx context.Context, ownerID, groupID int64) (bool, error)
	listMembersFn          func(ctx context.Context, groupID int64) ([]model.UserSummary, error)
	insertMemberFn         func(ctx context.Context, tx *sqlx.Tx, groupID, memberID int64) (bool, error)
	deleteMemberFn         func(ctx context.Context, tx *sqlx.Tx, groupID, memberID int64) (bool, error)
	deleteMembersNotInFn   func(ctx context.Context, tx *sqlx.Tx, groupID int64, keep []int64) (int64, error)
	isMemberFn             func(ctx context.Context, groupID, memberID int64) (bool, error)

	insertMemberCalls       int
	deleteMembersNotInCalls int
}

func (m *mockGroupRepository) ListByOwner(ctx context.Context, ownerID int64) ([]model.FriendGroup, error) {
	if m.listByOwnerFn != nil {
		return m.listByOwnerFn(ctx, ownerID)
	}
	return nil, nil
}

func (m *mockGroupRepository) GetByID(ctx context.Context, ownerID, groupID int64) (*model.FriendGroup, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, ownerID, groupID)
	}
	return nil, model.ErrGroupNotFound
}

func (m *mockGroupRepository) ExistsByOwnerAndName(ctx context.Context, tx *sqlx.Tx, ownerID int64, name string) (bool, error) {
	if m.existsByOwnerAndNameFn != nil {
		return m.existsByOwnerAndNameFn(ctx, tx, ownerID, name)
	}
	return false, nil
}

func (m *mockGroupRepository) Create(ctx context.Context, tx *sqlx.Tx, group *model.FriendGroup) error {
	if m.createFn != nil {
		return m.createFn(ctx, tx, group)
	}
	group.ID = 1
	return nil
}

func (m *mockGroupRepository) Rename(ctx context.Context, tx *sqlx.Tx, groupID int64, name string) error {
	if m.renameFn != nil {
		return m.renameFn(ctx, tx, groupID, name)
	}
	return nil
}

func (m *mockGroupRepository) Delete(ctx context.Context, ownerID, groupID int64) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, ownerID, groupID)
	}
	return true, nil
}

func (m *mockGroupRepository) ListMembers(ctx context.Context, groupID int64) ([]model.UserSummary, error) {
	if m.listMembersFn != nil {
		return m.listMembersFn(ctx, groupID)
	}
	return nil, nil
}

func (m *mockGroupRepository) InsertMember(ctx context.Context, tx *sqlx.Tx, groupID, memberID int64) (bool, error) {
	m.insertMemberCalls++
	if m.insertMemberFn != nil {
		return m.insertMemberFn(ctx, tx, groupID, memberID)
	}
	return true, nil
}

func (m *mockGroupRepository) DeleteMember(ctx context.Context, tx *sqlx.Tx, groupID, memberID int64) (bool, error) {
	if m.deleteMemberFn != nil {
		return m.deleteMemberFn(ctx, tx, groupID, memberID)
	}
	return true, nil
}

func (m *mockGroupRepository) DeleteMembersNotIn(ctx context.Context, tx *sqlx.Tx, groupID int64, keep []int64) (int64, error) {
	m.deleteMembersNotInCalls++
	if m.deleteMembersNotInFn != nil {
		return m.deleteMembersNotInFn(ctx, tx, groupID, keep)
	}
	return 0, nil
}

func (m *mockGroupRepository) IsMember(ctx context.Context, groupID, memberID int64) (bool, error) {
	if m.isMemberFn != nil {
		return m.isMemberFn(ctx, groupID, memberID)
	}
	return false, nil
}

type mockPostRepository struct {
	createFn           func(ctx context.Context, post *model.Post) error
	getByIDFn          func(ctx context.Context, postID int64) (*model.Post, error)
	updateFn           func(ctx context.Context, post *model.Post) error
	deleteFn           func(ctx context.Context, postID int64) (bool, error)
	listVisibleFn      func(ctx context.Context, viewerID int64, filter model.PostFilter) ([]model.Post, error)
	grantPermissionFn  func(ctx context.Context, postID, userID int64) (bool, error)
	revokePermissionFn func(ctx context.Context, postID, userID int64) (bool, error)
	hasPermissionFn    func(ctx context.Context, postID, userID int64) (bool, error)
}

func (m *mockPostRepository) Create(ctx context.Context, post *model.Post) error {
	if m.createFn != nil {
		return m.createFn(ctx, post)
	}
	post.ID = 1
	return nil
}

func (m *mockPostRepository) GetByID(ctx context.Context, postID int64) (*model.Post, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, postID)
	}
	return nil, model.ErrPostNotFound
}

func (m *mockPostRepository) Update(ctx context.Context, post *model.Post) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, post)
	}
	return nil
}

func (m *mockPostRepository) Delete(ctx context.Context, postID int64) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, postID)
	}
	return true, nil
}

func (m *mockPostRepository) ListVisible(ctx context.Context, viewerID int64, filter model.PostFilter) ([]model.Post, error) {
	if m.listVisibleFn != nil {
		return m.listVisibleFn(ctx, viewerID, filter)
	}
	return nil, nil
}

func (m *mockPostRepository) GrantPermission(ctx context.Context, postID, userID int64) (bool, error) {
	if m.grantPermissionFn != nil {
		return m.grantPermissionFn(ctx, postID, userID)
	}
	return true, nil
}

func (m *mockPostRepository) RevokePermission(ctx context.Context, postID, userID int64) (bool, error) {
	if m.revokePermissionFn != nil {
		return m.revokePermissionFn(ctx, postID, userID)
	}
	return true, nil
}

func (m *mockPostRepository) HasPermission(ctx context.Context, postID, userID int64) (bool, error) {
	if m.hasPermissionFn != nil {
		return m.hasPermissionFn(ctx, postID, userID)
	}
	return false, nil
}

type publishedEvent struct {
	Stream string
	Event  queue.NotificationEvent
}

type mockPublisher struct {
	publishFn func(ctx context.Context, stream string, event queue.NotificationEvent) (string, error)

	published []publishedEvent
}

func (m *mockPublisher) Publish(ctx context.Context, stream string, event queue.NotificationEvent) (string, error) {
	m.published = append(m.published, publishedEvent{Stream: stream, Event: event})
	if m.publishFn != nil {
		return m.publishFn(ctx, stream, event)
	}
	return "1-0", nil
}
