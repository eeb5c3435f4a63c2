// Package progress fans campaign progress out to in-process subscribers
// such as server-sent event streams.
package progress

import (
	"sync"

	"github.com/unclebandit/muxo-dispatch/internal/model"
)

// Hub delivers progress to subscribers of a campaign. Slow subscribers lose
// events rather than holding up the campaign.
type Hub struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[int]map[uint64]chan model.Progress
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]map[uint64]chan model.Progress)}
}

// Subscribe returns a channel of progress for one campaign and a function
// that unsubscribes and closes it.
func (h *Hub) Subscribe(campaignID, buffer int) (<-chan model.Progress, func()) {
	ch := make(chan model.Progress, buffer)

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	if h.subs[campaignID] == nil {
		h.subs[campaignID] = make(map[uint64]chan model.Progress)
	}
	h.subs[campaignID][id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[campaignID], id)
			if len(h.subs[campaignID]) == 0 {
				delete(h.subs, campaignID)
			}
			close(ch)
		})
	}
}

func (h *Hub) Publish(p model.Progress) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs[p.CampaignID] {
		select {
		case ch <- p:
		default:
		}
	}
}
