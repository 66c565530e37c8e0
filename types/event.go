package types

import "time"

const (
	EventUserCreated        = "user.created"
	EventUserPictureUpdated = "user.picture.updated"
	EventUserPictureDeleted = "user.picture.deleted"

	// EventAttributeType carries the event type as a broker message attribute.
	EventAttributeType = "type"
)

// UserEvent is published to the message broker when an account changes.
type UserEvent struct {
	// Type is one of the Event* constants.
	Type string `json:"type"`

	// UserID identifies the affected account.
	UserID string `json:"user_id"`

	// PictureID is set for picture events.
	PictureID string `json:"picture_id,omitempty"`

	// OccurredAt is when the change was persisted.
	OccurredAt time.Time `json:"occurred_at"`
}
