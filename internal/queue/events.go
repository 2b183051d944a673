package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types for the notification stream
const (
	EventUserFollowed = "user_followed"
)

// Stream names
const (
	StreamNotifications = "stream:notifications"
)

// Consumer group name for notification workers
const (
	ConsumerGroupNotifications = "notification_workers"
)

// NotificationEvent is published to the notification stream after a
// graph mutation commits. The request path never waits on its delivery.
type NotificationEvent struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"` // Unix timestamp when event occurred

	// Follow event (UserFollowed)
	FollowerID int64 `json:"follower_id,omitempty"`
	FolloweeID int64 `json:"followee_id,omitempty"`
}

// NewUserFollowedEvent creates an event for a genuinely new follow edge.
// It is published exactly once per edge, never on an idempotent re-add;
// the worker mails the followee about their new follower.
func NewUserFollowedEvent(followerID, followeeID int64) NotificationEvent {
	return NotificationEvent{
		Type:       EventUserFollowed,
		Timestamp:  time.Now().Unix(),
		FollowerID: followerID,
		FolloweeID: followeeID,
	}
}

// ToMap converts the event to a map for Redis XADD.
// Redis Streams store field-value pairs, so we serialize to JSON in a "data" field.
func (e NotificationEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseNotificationEvent parses a NotificationEvent from Redis stream message values.
func ParseNotificationEvent(values map[string]interface{}) (NotificationEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return NotificationEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event NotificationEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return NotificationEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
