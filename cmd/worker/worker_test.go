package main

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/muxo-dispatch/internal/queue"
)

func TestWorker(t *testing.T) {
	q := queue.NewInMemoryQueue()
	stats := &deliveryStats{}

	var mu sync.Mutex
	received := map[string]string{}
	send := func(sms queue.OutboundSMS) error {
		mu.Lock()
		defer mu.Unlock()
		received[sms.MSISDN] = sms.Text
		if sms.MSISDN == "15550000000" {
			return errors.New("handset unreachable")
		}
		return nil
	}
	require.NoError(t, queue.StartDeliverySubscriber(q, "outbound_sms", stats.wrap(send)))

	transport := &queue.Transport{Queue: q, Topic: "outbound_sms"}
	require.NoError(t, transport.Send(context.Background(), "15551234567", "Hi Ann"))
	require.NoError(t, transport.Send(context.Background(), "15550000000", "Hi Bob"))

	assert.Eventually(t, func() bool {
		return stats.delivered.Load() == 1 && stats.failed.Load() == 1
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "Hi Ann", received["15551234567"])
	assert.Equal(t, "Hi Bob", received["15550000000"])
}
