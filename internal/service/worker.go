package service

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/unclebandit/muxo-dispatch/internal/model"
)

// NormalizeRate falls back to 1 msg/s for anything that is not a positive
// finite number.
func NormalizeRate(rate float64) float64 {
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= 0 {
		return 1
	}
	return rate
}

// interval is the wait between sends. Rates so low that the wait overflows a
// Duration wait forever.
func interval(rate float64) time.Duration {
	d := float64(time.Second) / NormalizeRate(rate)
	if d >= float64(math.MaxInt64) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}

// loop is the pacing loop of one generation. It never returns an error; all
// outcomes are state changes on r.
func (s *Scheduler) loop(ctx context.Context, cancel context.CancelFunc, r *run, gen uint64, done chan struct{}, prev <-chan struct{}, opensAt *time.Time, waitFirst bool) {
	defer func() {
		cancel()
		r.mu.Lock()
		if r.gen == gen {
			r.active = false
		}
		r.mu.Unlock()
		close(done)
	}()

	if prev != nil {
		select {
		case <-prev:
		case <-ctx.Done():
			return
		}
	}

	if opensAt != nil {
		if !sleep(ctx, time.Until(*opensAt)) {
			return
		}
		r.mu.Lock()
		if r.gen != gen || r.c.State != model.StateIdle {
			r.mu.Unlock()
			return
		}
		s.enterRunning(r)
		r.mu.Unlock()
	}

	if waitFirst && !s.pace(ctx, r) {
		return
	}

	for {
		contact, template, ok := s.next(r, gen)
		if !ok {
			return
		}

		text := RenderTemplate(template, contact)
		// Sends use the scheduler context so pausing never aborts one midway.
		err := s.Transport.Send(s.ctx, contact.MSISDN, text)
		s.record(r, contact, text, err)

		if !s.advance(r, gen, err) {
			return
		}
		if !s.pace(ctx, r) {
			return
		}
	}
}

// next picks the contact at SentCount, or ends the run.
func (s *Scheduler) next(r *run, gen uint64) (model.Contact, string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.gen != gen || r.c.State != model.StateRunning {
		return model.Contact{}, "", false
	}
	if r.c.SentCount >= r.c.Target {
		s.finish(r, model.StateCompleted)
		return model.Contact{}, "", false
	}
	if r.c.Window.Expired(time.Now()) {
		log.Info().Int("campaign_id", r.c.ID).Int("sent", r.c.SentCount).Int("target", r.c.Target).Msg("window closed mid-run")
		s.finish(r, model.StateCompleted)
		return model.Contact{}, "", false
	}
	return r.c.Contacts[r.c.SentCount], r.c.Template, true
}

// advance counts a processed contact. A failed send still counts, which
// guarantees the loop terminates; it is not retried.
func (s *Scheduler) advance(r *run, gen uint64, sendErr error) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.c.SentCount++
	event := model.EventSent
	if sendErr != nil {
		r.c.FailedCount++
		r.c.LastError = sendErr.Error()
		event = model.EventFailed
	}
	s.commit(r, event)

	if r.c.State == model.StateRunning && r.c.SentCount >= r.c.Target {
		s.finish(r, model.StateCompleted)
	}
	return r.gen == gen && r.c.State == model.StateRunning
}

// pace waits one interval at the current rate, cut short by the end of the
// window. It reports false when the wait was interrupted.
func (s *Scheduler) pace(ctx context.Context, r *run) bool {
	r.mu.Lock()
	d := interval(r.c.Rate)
	if end := r.c.Window.End; end != nil {
		if left := time.Until(*end) + time.Millisecond; left < d {
			d = left
		}
	}
	r.mu.Unlock()

	return sleep(ctx, d)
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *Scheduler) record(r *run, contact model.Contact, text string, sendErr error) {
	id := r.campaignID()
	if sendErr != nil {
		log.Warn().Err(sendErr).Int("campaign_id", id).Str("msisdn", contact.MSISDN).Msg("send failed")
	}
	if s.OutboundRepo == nil {
		return
	}

	msg := &model.OutboundMessage{
		CampaignID:      id,
		MSISDN:          contact.MSISDN,
		Status:          model.MessageStatusSent,
		RenderedContent: text,
	}
	if sendErr != nil {
		msg.Status = model.MessageStatusFailed
		msg.LastError = sendErr.Error()
	}
	if err := s.OutboundRepo.Create(s.ctx, msg); err != nil {
		log.Warn().Err(err).Int("campaign_id", id).Msg("failed to record outbound message")
	}
}

func (r *run) campaignID() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.c.ID
}
