package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/muxo-dispatch/internal/model"
)

func TestWebhookPostsProgress(t *testing.T) {
	got := make(chan model.Progress, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var p model.Progress
		if err := json.NewDecoder(r.Body).Decode(&p); err == nil {
			got <- p
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wh := NewWebhook(srv.URL, 50)
	go wh.Run(ctx)

	wh.Publish(model.Progress{CampaignID: 7, Event: model.EventSent, SentCount: 1, Target: 2})
	wh.Publish(model.Progress{CampaignID: 7, Event: model.EventState, State: model.StateCompleted})

	for _, want := range []string{model.EventSent, model.EventState} {
		select {
		case p := <-got:
			assert.Equal(t, 7, p.CampaignID)
			assert.Equal(t, want, p.Event)
		case <-time.After(2 * time.Second):
			t.Fatal("webhook was not called")
		}
	}
}

func TestWebhookPublishDoesNotBlockWhenFull(t *testing.T) {
	wh := NewWebhook("http://127.0.0.1:0", 1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < defaultBuffer+10; i++ {
			wh.Publish(model.Progress{CampaignID: 1})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked")
	}
	require.Len(t, wh.queue, defaultBuffer)
}
