// Package notify posts campaign progress to an external status webhook.
//
// Delivery is best-effort: events are buffered, paced by a token bucket, and
// dropped with a warning when the buffer is full or the post fails.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/unclebandit/muxo-dispatch/internal/model"
)

const defaultBuffer = 256

type Webhook struct {
	url     string
	client  *http.Client
	limiter *rate.Limiter
	queue   chan model.Progress
}

// NewWebhook posts at most rps events per second to url.
func NewWebhook(url string, rps int) *Webhook {
	if rps <= 0 {
		rps = 1
	}
	return &Webhook{
		url:     url,
		client:  &http.Client{Timeout: 5 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
		queue:   make(chan model.Progress, defaultBuffer),
	}
}

// Publish enqueues p without blocking.
func (w *Webhook) Publish(p model.Progress) {
	select {
	case w.queue <- p:
	default:
		log.Warn().Int("campaign_id", p.CampaignID).Str("event", p.Event).Msg("status webhook queue full; dropping event")
	}
}

// Run posts queued events until ctx is done.
func (w *Webhook) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case p := <-w.queue:
			if err := w.limiter.Wait(ctx); err != nil {
				return
			}
			if err := w.post(ctx, p); err != nil {
				log.Warn().Err(err).Int("campaign_id", p.CampaignID).Msg("webhook post failed")
			}
		}
	}
}

func (w *Webhook) post(ctx context.Context, p model.Progress) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %s", resp.Status)
	}
	return nil
}
