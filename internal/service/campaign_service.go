package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	appErrors "github.com/unclebandit/muxo-dispatch/internal/errors"
	"github.com/unclebandit/muxo-dispatch/internal/model"
	"github.com/unclebandit/muxo-dispatch/internal/repository"
)

const defaultPreviewCount = 3

type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	ListRepo     repository.ListRepositoryInterface
	OutboundRepo repository.OutboundMessageRepositoryInterface
	Scheduler    *Scheduler
}

type CampaignDetails struct {
	model.Campaign
	Progress model.Progress `json:"progress"`
	Stats    map[string]int `json:"stats"`
}

// CreateCampaign validates the input and snapshots the list. Later changes
// to the list do not reach the campaign.
func (s *CampaignService) CreateCampaign(name, listName, template string, window model.Window, rate float64) (*model.Campaign, error) {
	contacts, ok := s.ListRepo.Get(listName)
	if !ok || len(contacts) == 0 {
		return nil, appErrors.NewEmptyList(listName)
	}

	if window.Start != nil && window.End != nil && window.Start.After(*window.End) {
		return nil, appErrors.NewInvalidWindow(*window.Start, *window.End)
	}

	if strings.TrimSpace(name) == "" {
		name = listName
	}

	c := &model.Campaign{
		Name:     name,
		ListName: listName,
		Template: template,
		Window:   window,
		Rate:     NormalizeRate(rate),
		State:    model.StateIdle,
		Target:   len(contacts),
		Contacts: contacts,
	}
	if err := s.CampaignRepo.Create(c); err != nil {
		return nil, err
	}
	s.Scheduler.Add(*c)

	log.Info().Int("campaign_id", c.ID).Str("list", listName).Int("target", c.Target).Float64("rate", c.Rate).Msg("campaign created")
	return c, nil
}

// Preview renders the first n contacts of a list exactly as a send would.
func (s *CampaignService) Preview(listName, template string, n int) ([]string, error) {
	contacts, ok := s.ListRepo.Get(listName)
	if !ok || len(contacts) == 0 {
		return nil, appErrors.NewEmptyList(listName)
	}
	if n <= 0 {
		n = defaultPreviewCount
	}
	if n > len(contacts) {
		n = len(contacts)
	}

	out := make([]string, 0, n)
	for _, c := range contacts[:n] {
		out = append(out, RenderTemplate(template, c))
	}
	return out, nil
}

func (s *CampaignService) StartCampaign(id int) error  { return s.Scheduler.Start(id) }
func (s *CampaignService) PauseCampaign(id int) error  { return s.Scheduler.Pause(id) }
func (s *CampaignService) ResumeCampaign(id int) error { return s.Scheduler.Resume(id) }
func (s *CampaignService) CancelCampaign(id int) error { return s.Scheduler.Cancel(id) }

func (s *CampaignService) SetRate(id int, rate float64) error {
	return s.Scheduler.SetRate(id, rate)
}

func (s *CampaignService) GetProgress(id int) (model.Progress, error) {
	return s.Scheduler.Progress(id)
}

// ListCampaigns fetches campaigns with pagination
func (s *CampaignService) ListCampaigns(page, pageSize int, state string) ([]model.Campaign, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	ptrs, total, err := s.CampaignRepo.ListCampaigns(offset, pageSize, state)
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]model.Campaign, len(ptrs))
	for i, c := range ptrs {
		campaigns[i] = *c
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}

	return campaigns, pagination, nil
}

func (s *CampaignService) GetCampaignDetails(ctx context.Context, id int) (*CampaignDetails, error) {
	campaign, err := s.CampaignRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	progress, err := s.Scheduler.Progress(id)
	if err != nil {
		return nil, err
	}

	stats := map[string]int{"total": 0, model.MessageStatusSent: 0, model.MessageStatusFailed: 0}
	if s.OutboundRepo != nil {
		stats, err = s.OutboundRepo.GetCampaignStats(ctx, id)
		if err != nil {
			log.Warn().Err(err).Int("campaign_id", id).Msg("failed to load campaign stats")
			return nil, err
		}
	}

	return &CampaignDetails{Campaign: *campaign, Progress: progress, Stats: stats}, nil
}
