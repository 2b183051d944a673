package service

import (
	"context"
	"log"

	"github.com/jmoiron/sqlx"

	"postcircle/internal/model"
	"postcircle/internal/queue"
	"postcircle/internal/repository"
)

// FollowService maintains the directed follow graph.
type FollowService struct {
	followRepo repository.FollowRepository
	tx         repository.TxManager
	publisher  queue.Publisher
}

func NewFollowService(
	followRepo repository.FollowRepository,
	tx repository.TxManager,
	publisher queue.Publisher,
) *FollowService {
	return &FollowService{
		followRepo: followRepo,
		tx:         tx,
		publisher:  publisher,
	}
}

// Follow adds the edge follower -> followee. Idempotent: re-adding an
// existing edge succeeds, writes nothing, and does not re-trigger the
// notification. Only a genuinely new edge publishes a user_followed event
// after the transaction commits. Self-follows are not rejected here.
func (s *FollowService) Follow(ctx context.Context, follower, followee *model.User) (bool, error) {
	var inserted bool
	err := s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		inserted, err = s.followRepo.Create(ctx, tx, follower.ID, followee.ID)
		return err
	})
	if err != nil {
		return false, err
	}

	// Publish only for a new edge, and only after commit.
	if inserted && s.publisher != nil {
		event := queue.NewUserFollowedEvent(follower.ID, followee.ID)
		msgID, err := s.publisher.Publish(ctx, queue.StreamNotifications, event)
		if err != nil {
			// Delivery is fire-and-forget; a publish failure never fails
			// the follow call.
			log.Printf("[FollowService] Failed to publish UserFollowed event: follower=%d followee=%d err=%v",
				follower.ID, followee.ID, err)
		} else {
			log.Printf("[FollowService] Published UserFollowed: follower=%d followee=%d msgID=%s",
				follower.ID, followee.ID, msgID)
		}
	}

	return inserted, nil
}

// Unfollow removes the edge follower -> followee. Removing an edge that
// does not exist is a no-op success.
func (s *FollowService) Unfollow(ctx context.Context, follower, followee *model.User) error {
	return s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		_, err := s.followRepo.Delete(ctx, tx, follower.ID, followee.ID)
		return err
	})
}

// ListFollowers returns the users following user, in edge insertion
// order, optionally filtered by follower username.
func (s *FollowService) ListFollowers(ctx context.Context, user *model.User, filter model.UsernameFilter) ([]model.UserSummary, error) {
	return s.followRepo.ListFollowers(ctx, user.ID, filter.Usernames())
}

// ListFollowing returns the users that user follows, same semantics as
// ListFollowers.
func (s *FollowService) ListFollowing(ctx context.Context, user *model.User, filter model.UsernameFilter) ([]model.UserSummary, error) {
	return s.followRepo.ListFollowing(ctx, user.ID, filter.Usernames())
}
