package repository

import (
	"sort"
	"sync"
	"time"

	appErrors "github.com/unclebandit/muxo-dispatch/internal/errors"
	"github.com/unclebandit/muxo-dispatch/internal/model"
)

type CampaignRepositoryInterface interface {
	Create(c *model.Campaign) error
	GetByID(id int) (*model.Campaign, error)
	Save(c model.Campaign) error
	Delete(id int) error
	ListCampaigns(offset, limit int, state string) ([]*model.Campaign, int, error)
}

// CampaignRepository is the in-memory campaign registry. Campaigns live only
// as long as the process does.
type CampaignRepository struct {
	mu        sync.RWMutex
	nextID    int
	campaigns map[int]model.Campaign
}

func NewCampaignRepository() *CampaignRepository {
	return &CampaignRepository{campaigns: make(map[int]model.Campaign)}
}

// ====================== Campaign CRUD ======================

func (r *CampaignRepository) Create(c *model.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	c.ID = r.nextID
	c.CreatedAt = time.Now()
	if c.State == "" {
		c.State = model.StateIdle
	}
	r.campaigns[c.ID] = *c
	return nil
}

func (r *CampaignRepository) GetByID(id int) (*model.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	return &c, nil
}

func (r *CampaignRepository) Save(c model.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.campaigns[c.ID]; !ok {
		return appErrors.NewCampaignNotFound(c.ID)
	}
	r.campaigns[c.ID] = c
	return nil
}

func (r *CampaignRepository) Delete(id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.campaigns[id]; !ok {
		return appErrors.NewCampaignNotFound(id)
	}
	delete(r.campaigns, id)
	return nil
}

// ListCampaigns returns newest first, optionally filtered by state.
func (r *CampaignRepository) ListCampaigns(offset, limit int, state string) ([]*model.Campaign, int, error) {
	r.mu.RLock()
	filtered := make([]*model.Campaign, 0, len(r.campaigns))
	for _, c := range r.campaigns {
		if state != "" && string(c.State) != state {
			continue
		}
		c := c
		filtered = append(filtered, &c)
	}
	r.mu.RUnlock()

	sort.Slice(filtered, func(i, j int) bool { return filtered[i].ID > filtered[j].ID })

	total := len(filtered)
	if offset >= total {
		return []*model.Campaign{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return filtered[offset:end], total, nil
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
