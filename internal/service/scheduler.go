package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	appErrors "github.com/unclebandit/muxo-dispatch/internal/errors"
	"github.com/unclebandit/muxo-dispatch/internal/model"
	"github.com/unclebandit/muxo-dispatch/internal/repository"
)

// Transport hands one rendered message to whatever delivers it to a handset.
type Transport interface {
	Send(ctx context.Context, msisdn, message string) error
}

// ProgressSink observes campaigns. Publish runs with the campaign lock held
// and must not block.
type ProgressSink interface {
	Publish(p model.Progress)
}

// Sinks fans progress out to every sink in order.
type Sinks []ProgressSink

func (s Sinks) Publish(p model.Progress) {
	for _, sink := range s {
		if sink != nil {
			sink.Publish(p)
		}
	}
}

// Scheduler owns the mutable state of every campaign it was given and drives
// at most one pacing loop per campaign. Campaigns never share a lock.
type Scheduler struct {
	CampaignRepo repository.CampaignRepositoryInterface
	OutboundRepo repository.OutboundMessageRepositoryInterface
	Transport    Transport
	Sink         ProgressSink

	ctx  context.Context
	mu   sync.RWMutex
	runs map[int]*run
}

type run struct {
	mu sync.Mutex
	c  model.Campaign

	gen    uint64
	active bool
	stop   context.CancelFunc
	done   chan struct{}

	finished  chan struct{}
	closeOnce sync.Once
}

// NewScheduler builds a scheduler whose loops and sends live until ctx ends.
func NewScheduler(ctx context.Context, transport Transport, campaignRepo repository.CampaignRepositoryInterface) *Scheduler {
	return &Scheduler{
		CampaignRepo: campaignRepo,
		Transport:    transport,
		ctx:          ctx,
		runs:         make(map[int]*run),
	}
}

// Add hands a freshly created campaign to the scheduler.
func (s *Scheduler) Add(c model.Campaign) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[c.ID] = &run{c: c, finished: make(chan struct{})}
}

func (s *Scheduler) get(id int) (*run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	return r, nil
}

// Start moves an idle campaign to running, or holds it until its window
// opens. A closed window cancels the campaign and returns WindowExpiredError.
func (s *Scheduler) Start(id int) error {
	r, err := s.get(id)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case r.c.State == model.StateRunning || (r.c.State == model.StateIdle && r.active):
		return appErrors.NewAlreadyRunning(id)
	case r.c.State != model.StateIdle:
		return appErrors.NewInvalidTransition(id, "start", string(r.c.State))
	}

	now := time.Now()
	if r.c.Window.Expired(now) {
		err := appErrors.NewWindowExpired(id, *r.c.Window.End)
		r.c.LastError = err.Error()
		s.finish(r, model.StateCancelled)
		return err
	}

	ctx, cancel := s.arm(r)
	if r.c.Window.Pending(now) {
		opensAt := *r.c.Window.Start
		r.c.Scheduled = true
		s.commit(r, model.EventState)
		log.Info().Int("campaign_id", id).Time("opens_at", opensAt).Msg("campaign scheduled")
		go s.loop(ctx, cancel, r, r.gen, r.done, nil, &opensAt, false)
		return nil
	}

	s.enterRunning(r)
	go s.loop(ctx, cancel, r, r.gen, r.done, nil, nil, false)
	return nil
}

// Pause abandons the current wait. SentCount is kept.
func (s *Scheduler) Pause(id int) error {
	r, err := s.get(id)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.c.State != model.StateRunning {
		return appErrors.NewInvalidTransition(id, "pause", string(r.c.State))
	}
	r.c.State = model.StatePaused
	if r.stop != nil {
		r.stop()
	}
	s.commit(r, model.EventState)
	return nil
}

// Resume re-enters the pacing loop from the current SentCount. The first
// send waits a full interval.
func (s *Scheduler) Resume(id int) error {
	r, err := s.get(id)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.c.State != model.StatePaused {
		return appErrors.NewInvalidTransition(id, "resume", string(r.c.State))
	}
	if r.c.SentCount >= r.c.Target {
		s.finish(r, model.StateCompleted)
		return nil
	}

	// A send issued before the pause may still be in flight; the new loop
	// waits for the old one to exit.
	prev := r.done
	ctx, cancel := s.arm(r)
	r.c.State = model.StateRunning
	s.commit(r, model.EventState)
	go s.loop(ctx, cancel, r, r.gen, r.done, prev, nil, true)
	return nil
}

// Cancel is terminal. Sends already issued are not undone.
func (s *Scheduler) Cancel(id int) error {
	r, err := s.get(id)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.c.State.Terminal() {
		return appErrors.NewInvalidTransition(id, "cancel", string(r.c.State))
	}
	if r.stop != nil {
		r.stop()
	}
	s.finish(r, model.StateCancelled)
	return nil
}

// SetRate changes the pace. The wait already in progress keeps its length.
func (s *Scheduler) SetRate(id int, rate float64) error {
	r, err := s.get(id)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.c.State.Terminal() {
		return appErrors.NewInvalidTransition(id, "set rate of", string(r.c.State))
	}
	r.c.Rate = NormalizeRate(rate)
	s.commit(r, model.EventState)
	return nil
}

func (s *Scheduler) Progress(id int) (model.Progress, error) {
	r, err := s.get(id)
	if err != nil {
		return model.Progress{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.c.Progress(model.EventState, time.Now()), nil
}

// Snapshot returns a copy of the campaign as the scheduler sees it.
func (s *Scheduler) Snapshot(id int) (model.Campaign, error) {
	r, err := s.get(id)
	if err != nil {
		return model.Campaign{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.c, nil
}

// Done is closed once the campaign reaches a terminal state.
func (s *Scheduler) Done(id int) (<-chan struct{}, error) {
	r, err := s.get(id)
	if err != nil {
		return nil, err
	}
	return r.finished, nil
}

// ActiveCount is the number of campaigns running or waiting for their window.
func (s *Scheduler) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, r := range s.runs {
		r.mu.Lock()
		if r.c.State == model.StateRunning || r.c.Scheduled {
			n++
		}
		r.mu.Unlock()
	}
	return n
}

// Prune forgets terminal campaigns that finished before cutoff, together
// with their outcome records.
func (s *Scheduler) Prune(cutoff time.Time) int {
	s.mu.Lock()
	var pruned []int
	for id, r := range s.runs {
		r.mu.Lock()
		stale := r.c.State.Terminal() && !r.active && r.c.FinishedAt != nil && r.c.FinishedAt.Before(cutoff)
		r.mu.Unlock()
		if stale {
			delete(s.runs, id)
			pruned = append(pruned, id)
		}
	}
	s.mu.Unlock()

	for _, id := range pruned {
		if err := s.CampaignRepo.Delete(id); err != nil {
			log.Warn().Err(err).Int("campaign_id", id).Msg("failed to delete pruned campaign")
		}
		if s.OutboundRepo != nil {
			if err := s.OutboundRepo.DeleteByCampaign(s.ctx, id); err != nil {
				log.Warn().Err(err).Int("campaign_id", id).Msg("failed to delete outbound messages")
			}
		}
	}
	return len(pruned)
}

// arm prepares a new loop generation. Callers hold r.mu.
func (s *Scheduler) arm(r *run) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(s.ctx)
	r.gen++
	r.active = true
	r.stop = cancel
	r.done = make(chan struct{})
	return ctx, cancel
}

// enterRunning resets counters for a fresh run. Callers hold r.mu.
func (s *Scheduler) enterRunning(r *run) {
	now := time.Now()
	r.c.State = model.StateRunning
	r.c.Scheduled = false
	r.c.SentCount = 0
	r.c.FailedCount = 0
	r.c.LastError = ""
	r.c.StartedAt = &now
	s.commit(r, model.EventState)
}

// finish moves to a terminal state. Callers hold r.mu.
func (s *Scheduler) finish(r *run, state model.State) {
	now := time.Now()
	r.c.State = state
	r.c.Scheduled = false
	r.c.FinishedAt = &now
	s.commit(r, model.EventState)
	r.closeOnce.Do(func() { close(r.finished) })
}

// commit publishes the current campaign to the registry and sinks. Callers
// hold r.mu.
func (s *Scheduler) commit(r *run, event string) {
	now := time.Now()
	r.c.UpdatedAt = &now

	if err := s.CampaignRepo.Save(r.c); err != nil {
		log.Warn().Err(err).Int("campaign_id", r.c.ID).Msg("failed to save campaign")
	}
	if event == model.EventState {
		log.Info().
			Int("campaign_id", r.c.ID).
			Str("state", string(r.c.State)).
			Int("sent", r.c.SentCount).
			Int("target", r.c.Target).
			Msg("campaign state")
	}
	if s.Sink != nil {
		s.Sink.Publish(r.c.Progress(event, now))
	}
}
