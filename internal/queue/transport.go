package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OutboundSMS is the queued form of a rendered message.
type OutboundSMS struct {
	ID       string    `json:"id"`
	MSISDN   string    `json:"msisdn"`
	Text     string    `json:"text"`
	QueuedAt time.Time `json:"queued_at"`
}

// Transport sends by publishing to a queue. Success means the message was
// queued, not delivered.
type Transport struct {
	Queue Queue
	Topic string
}

func (t *Transport) Send(ctx context.Context, msisdn, message string) error {
	body, err := json.Marshal(OutboundSMS{
		ID:       uuid.NewString(),
		MSISDN:   msisdn,
		Text:     message,
		QueuedAt: time.Now(),
	})
	if err != nil {
		return err
	}
	return t.Queue.Publish(ctx, t.Topic, body)
}
