package model

import "time"

type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StatePaused    State = "paused"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
)

// Terminal states have no outgoing transitions.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled
}

// IsValidState checks a state filter coming from the outside.
func IsValidState(s string) bool {
	switch State(s) {
	case StateIdle, StateRunning, StatePaused, StateCompleted, StateCancelled:
		return true
	default:
		return false
	}
}

// Window bounds when a campaign may send. A nil side is unbounded.
type Window struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// Expired reports whether now is past the end of the window.
func (w Window) Expired(now time.Time) bool {
	return w.End != nil && now.After(*w.End)
}

// Pending reports whether the window has not opened yet.
func (w Window) Pending(now time.Time) bool {
	return w.Start != nil && now.Before(*w.Start)
}

type Campaign struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	ListName    string     `json:"list_name"`
	Template    string     `json:"template"`
	Window      Window     `json:"window"`
	Rate        float64    `json:"rate"`
	State       State      `json:"state"`
	Scheduled   bool       `json:"scheduled"`
	SentCount   int        `json:"sent_count"`
	FailedCount int        `json:"failed_count"`
	Target      int        `json:"target"`
	LastError   string     `json:"last_error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`

	// Contacts is the list snapshot taken at creation. It is never mutated
	// afterwards, so copies of a Campaign may share it.
	Contacts []Contact `json:"-"`
}

// Progress event kinds.
const (
	EventState  = "state"
	EventSent   = "sent"
	EventFailed = "failed"
)

// Progress is what observers see of a campaign.
type Progress struct {
	CampaignID  int       `json:"campaign_id"`
	Event       string    `json:"event"`
	State       State     `json:"state"`
	Scheduled   bool      `json:"scheduled"`
	SentCount   int       `json:"sent_count"`
	FailedCount int       `json:"failed_count"`
	Target      int       `json:"target"`
	LastError   string    `json:"last_error,omitempty"`
	At          time.Time `json:"at"`
}

func (c *Campaign) Progress(event string, at time.Time) Progress {
	return Progress{
		CampaignID:  c.ID,
		Event:       event,
		State:       c.State,
		Scheduled:   c.Scheduled,
		SentCount:   c.SentCount,
		FailedCount: c.FailedCount,
		Target:      c.Target,
		LastError:   c.LastError,
		At:          at,
	}
}
