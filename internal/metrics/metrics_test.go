package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/unclebandit/muxo-dispatch/internal/model"
)

func scrape(t *testing.T, s *Sink) string {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	return rec.Body.String()
}

func TestSinkCountsOutcomesAndStates(t *testing.T) {
	s := New(func() int { return 2 })

	s.Publish(model.Progress{Event: model.EventSent})
	s.Publish(model.Progress{Event: model.EventSent})
	s.Publish(model.Progress{Event: model.EventFailed})
	s.Publish(model.Progress{Event: model.EventState, State: model.StateCompleted})

	body := scrape(t, s)
	assert.Contains(t, body, `muxo_messages_processed_total{outcome="sent"} 2`)
	assert.Contains(t, body, `muxo_messages_processed_total{outcome="failed"} 1`)
	assert.Contains(t, body, `muxo_campaign_transitions_total{state="completed"} 1`)
}

func TestHandlerExposesActiveGauge(t *testing.T) {
	s := New(func() int { return 3 })
	assert.Contains(t, scrape(t, s), "muxo_campaigns_active 3")
}
