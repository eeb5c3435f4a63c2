package queue

import (
	"encoding/json"
	"fmt"
	"math/rand"

	"github.com/rs/zerolog/log"
)

// Sender hands one SMS to a handset.
type Sender func(sms OutboundSMS) error

// DeliveryHandler decodes queued SMS and passes them to send.
func DeliveryHandler(send Sender) func(body []byte) error {
	return func(body []byte) error {
		var sms OutboundSMS
		if err := json.Unmarshal(body, &sms); err != nil {
			log.Warn().Err(err).Msg("invalid outbound sms payload")
			return nil // nothing to deliver
		}

		if err := send(sms); err != nil {
			return fmt.Errorf("deliver %s to %s: %w", sms.ID, sms.MSISDN, err)
		}
		log.Debug().Str("id", sms.ID).Str("msisdn", sms.MSISDN).Msg("sms delivered")
		return nil
	}
}

// StartDeliverySubscriber wires send to every message published on topic.
func StartDeliverySubscriber(q Queue, topic string, send Sender) error {
	if err := q.Subscribe(topic, DeliveryHandler(send)); err != nil {
		return fmt.Errorf("subscribe to %s: %w", topic, err)
	}
	log.Info().Str("topic", topic).Msg("delivery subscriber started")
	return nil
}

//////////////////////////
// Example Mock Sender  //
//////////////////////////

// MockSender simulates a handset that fails the given share of messages.
func MockSender(failureRate float64) Sender {
	return func(sms OutboundSMS) error {
		if rand.Float64() < failureRate {
			return fmt.Errorf("mock sending failed")
		}
		return nil
	}
}
