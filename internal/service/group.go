package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"postcircle/internal/model"
	"postcircle/internal/repository"
)

// GroupService maintains per-owner friend groups and their membership
// sets. Membership converges to client-submitted target sets through an
// idempotent reconciliation.
type GroupService struct {
	groupRepo repository.GroupRepository
	userRepo  repository.UserRepository
	tx        repository.TxManager
}

func NewGroupService(
	groupRepo repository.GroupRepository,
	userRepo repository.UserRepository,
	tx repository.TxManager,
) *GroupService {
	return &GroupService{
		groupRepo: groupRepo,
		userRepo:  userRepo,
		tx:        tx,
	}
}

// List returns the owner's groups, optionally with members expanded.
func (s *GroupService) List(ctx context.Context, ownerID int64, expandMembers bool) ([]model.FriendGroup, error) {
	groups, err := s.groupRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if expandMembers {
		for i := range groups {
			members, err := s.groupRepo.ListMembers(ctx, groups[i].ID)
			if err != nil {
				return nil, err
			}
			groups[i].Members = members
		}
	}

	return groups, nil
}

// Get returns one group with members expanded. A group owned by someone
// else reads as absent.
func (s *GroupService) Get(ctx context.Context, ownerID, groupID int64) (*model.FriendGroup, error) {
	group, err := s.groupRepo.GetByID(ctx, ownerID, groupID)
	if err != nil {
		return nil, err
	}

	members, err := s.groupRepo.ListMembers(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	group.Members = members

	return group, nil
}

// Create makes a new group for the owner. The name pre-check and the
// insert run in the same transaction; a concurrent create of the same
// name can still slip between two requests' pre-checks (known race,
// matching the historical behavior). Initial members, when provided, are
// reconciled inside the same transaction.
func (s *GroupService) Create(ctx context.Context, ownerID int64, name string, initialMembers []string) (*model.FriendGroup, error) {
	if err := validateGroupName(name); err != nil {
		return nil, err
	}

	var resolved []*model.User
	if len(initialMembers) > 0 {
		var err error
		resolved, err = s.resolveMembers(ctx, initialMembers)
		if err != nil {
			return nil, err
		}
	}

	group := &model.FriendGroup{
		OwnerID: ownerID,
		Name:    name,
	}

	err := s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		taken, err := s.groupRepo.ExistsByOwnerAndName(ctx, tx, ownerID, name)
		if err != nil {
			return err
		}
		if taken {
			return model.ErrGroupNameInUse
		}

		if err := s.groupRepo.Create(ctx, tx, group); err != nil {
			return err
		}

		for _, member := range resolved {
			if _, err := s.groupRepo.InsertMember(ctx, tx, group.ID, member.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	group.Members = summaries(resolved)
	return group, nil
}

// Update renames the group and/or reconciles its membership. A nil
// Members pointer leaves membership untouched; an empty list removes
// every member; a non-empty list is the target set.
func (s *GroupService) Update(ctx context.Context, ownerID, groupID int64, req *model.UpdateGroupRequest) (*model.FriendGroup, error) {
	group, err := s.groupRepo.GetByID(ctx, ownerID, groupID)
	if err != nil {
		return nil, err
	}

	var resolved []*model.User
	if req.Members != nil {
		// Resolve the whole target set up front: one unknown username
		// aborts the call before any write happens.
		resolved, err = s.resolveMembers(ctx, *req.Members)
		if err != nil {
			return nil, err
		}
	}

	rename := req.Name != nil && *req.Name != group.Name
	if rename {
		if err := validateGroupName(*req.Name); err != nil {
			return nil, err
		}
	}

	err = s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		if rename {
			taken, err := s.groupRepo.ExistsByOwnerAndName(ctx, tx, ownerID, *req.Name)
			if err != nil {
				return err
			}
			if taken {
				return model.ErrGroupNameInUse
			}
			if err := s.groupRepo.Rename(ctx, tx, group.ID, *req.Name); err != nil {
				return err
			}
			group.Name = *req.Name
		}

		if req.Members != nil {
			return s.reconcile(ctx, tx, group.ID, resolved)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	members, err := s.groupRepo.ListMembers(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	group.Members = members

	return group, nil
}

// Delete removes the group and its memberships.
func (s *GroupService) Delete(ctx context.Context, ownerID, groupID int64) error {
	deleted, err := s.groupRepo.Delete(ctx, ownerID, groupID)
	if err != nil {
		return err
	}
	if !deleted {
		return model.ErrGroupNotFound
	}
	return nil
}

// Members lists the group's members in membership insertion order.
func (s *GroupService) Members(ctx context.Context, ownerID, groupID int64) ([]model.UserSummary, error) {
	group, err := s.groupRepo.GetByID(ctx, ownerID, groupID)
	if err != nil {
		return nil, err
	}
	return s.groupRepo.ListMembers(ctx, group.ID)
}

// ReconcileMembers converges the group's membership to exactly the given
// username set. Applying the same set twice performs zero writes the
// second time.
func (s *GroupService) ReconcileMembers(ctx context.Context, ownerID, groupID int64, usernames []string) ([]model.UserSummary, error) {
	group, err := s.groupRepo.GetByID(ctx, ownerID, groupID)
	if err != nil {
		return nil, err
	}

	resolved, err := s.resolveMembers(ctx, usernames)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		return s.reconcile(ctx, tx, group.ID, resolved)
	})
	if err != nil {
		return nil, err
	}

	return s.groupRepo.ListMembers(ctx, group.ID)
}

// AddMember idempotently adds one member to the group.
func (s *GroupService) AddMember(ctx context.Context, ownerID, groupID int64, username string) (*model.UserSummary, error) {
	group, err := s.groupRepo.GetByID(ctx, ownerID, groupID)
	if err != nil {
		return nil, err
	}

	members, err := s.resolveMembers(ctx, []string{username})
	if err != nil {
		return nil, err
	}
	member := members[0]

	err = s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		_, err := s.groupRepo.InsertMember(ctx, tx, group.ID, member.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &model.UserSummary{ID: member.ID, Username: member.Username}, nil
}

// RemoveMember idempotently removes one member from the group. Removing a
// user who is not a member is a no-op success.
func (s *GroupService) RemoveMember(ctx context.Context, ownerID, groupID int64, username string) error {
	group, err := s.groupRepo.GetByID(ctx, ownerID, groupID)
	if err != nil {
		return err
	}

	members, err := s.resolveMembers(ctx, []string{username})
	if err != nil {
		return err
	}
	member := members[0]

	return s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		_, err := s.groupRepo.DeleteMember(ctx, tx, group.ID, member.ID)
		return err
	})
}

// reconcile applies the resolved target set inside tx: prune memberships
// outside the set, then insert the missing ones. ON CONFLICT on the
// insert makes step two idempotent, so replaying the same target set
// touches nothing.
func (s *GroupService) reconcile(ctx context.Context, tx *sqlx.Tx, groupID int64, target []*model.User) error {
	keep := make([]int64, 0, len(target))
	for _, member := range target {
		keep = append(keep, member.ID)
	}

	if _, err := s.groupRepo.DeleteMembersNotIn(ctx, tx, groupID, keep); err != nil {
		return err
	}

	for _, member := range target {
		if _, err := s.groupRepo.InsertMember(ctx, tx, groupID, member.ID); err != nil {
			return err
		}
	}

	return nil
}

// resolveMembers maps every requested username to a user. Any username
// that fails to resolve aborts the whole operation; partial application
// is never allowed.
func (s *GroupService) resolveMembers(ctx context.Context, usernames []string) ([]*model.User, error) {
	resolved := make([]*model.User, 0, len(usernames))
	for _, username := range usernames {
		if username == "" {
			return nil, model.ErrMissingUsername
		}
		user, err := s.userRepo.GetByUsername(ctx, username)
		if err != nil {
			if errors.Is(err, model.ErrUserNotFound) {
				return nil, &model.UnknownUsernameError{Username: username}
			}
			return nil, fmt.Errorf("failed to resolve member '%s': %w", username, err)
		}
		resolved = append(resolved, user)
	}
	return resolved, nil
}

func validateGroupName(name string) error {
	if strings.TrimSpace(name) == "" {
		return model.ErrGroupNameMissing
	}
	if len(name) > model.MaxGroupNameLength {
		return model.ErrGroupNameTooLong
	}
	return nil
}

func summaries(users []*model.User) []model.UserSummary {
	out := make([]model.UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, model.UserSummary{ID: u.ID, Username: u.Username})
	}
	return out
}
