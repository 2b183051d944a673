package worker

import (
	"context"
	"fmt"
	"log"

	"postcircle/internal/model"
	"postcircle/internal/queue"
	"postcircle/internal/service"
)

// UserProvider resolves user records for notification delivery. It
// abstracts the repository layer so workers don't depend on the DB
// directly.
type UserProvider interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// Handler processes notification events from the queue.
type Handler struct {
	users  UserProvider
	mailer service.Mailer
}

// NewHandler creates a new event handler.
func NewHandler(users UserProvider, mailer service.Mailer) *Handler {
	return &Handler{
		users:  users,
		mailer: mailer,
	}
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.NotificationEvent) error {
	switch event.Type {
	case queue.EventUserFollowed:
		return h.handleUserFollowed(ctx, event)
	default:
		log.Printf("[Worker] Unknown event type: %s", event.Type)
		return fmt.Errorf("unknown event type: %s", event.Type)
	}
}

// handleUserFollowed mails the followee about their new follower. The
// publisher emitted the event only for a genuinely new edge, so one
// event means at most one email.
func (h *Handler) handleUserFollowed(ctx context.Context, event queue.NotificationEvent) error {
	follower, err := h.users.GetByID(ctx, event.FollowerID)
	if err != nil {
		return fmt.Errorf("get follower %d: %w", event.FollowerID, err)
	}

	followee, err := h.users.GetByID(ctx, event.FolloweeID)
	if err != nil {
		return fmt.Errorf("get followee %d: %w", event.FolloweeID, err)
	}

	subject := fmt.Sprintf("%s is now following you", follower.Username)
	body := fmt.Sprintf("Hi %s,\n\n%s started following you.\n", followee.Username, follower.Username)

	if err := h.mailer.Send(ctx, followee.Email, subject, body); err != nil {
		return fmt.Errorf("send follow mail: %w", err)
	}

	return nil
}
