package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/roomly/apiserver/types"
	"github.com/sirupsen/logrus"
)

// EventPublisher is satisfied by *mq.MQ.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// Events publishes account changes. A nil *Events publishes nothing.
type Events struct {
	publisher EventPublisher
	channel   string
	logger    logrus.FieldLogger
	now       func() time.Time
}

func NewEvents(publisher EventPublisher, channel string, logger logrus.FieldLogger) *Events {
	return &Events{
		publisher: publisher,
		channel:   channel,
		logger:    logger,
		now:       time.Now,
	}
}

// Emit publishes an event. Failures are logged and never returned; the
// account change has already been persisted.
func (e *Events) Emit(ctx context.Context, eventType, userID, pictureID string) {
	if e == nil || e.publisher == nil {
		return
	}

	payload, err := json.Marshal(types.UserEvent{
		Type:       eventType,
		UserID:     userID,
		PictureID:  pictureID,
		OccurredAt: e.now().UTC(),
	})
	if err != nil {
		e.logger.WithError(err).Error("encode user event")
		return
	}

	attrs := map[string]string{types.EventAttributeType: eventType}
	if _, err := e.publisher.Publish(ctx, e.channel, payload, attrs); err != nil {
		e.logger.WithError(err).WithFields(logrus.Fields{
			"event":   eventType,
			"user_id": userID,
		}).Warn("publish user event failed")
	}
}
