package controller

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	appErrors "github.com/unclebandit/muxo-dispatch/internal/errors"
	"github.com/unclebandit/muxo-dispatch/internal/model"
	"github.com/unclebandit/muxo-dispatch/internal/progress"
	"github.com/unclebandit/muxo-dispatch/internal/service"
)

const eventBuffer = 64

type CampaignController struct {
	CampaignService *service.CampaignService
	Hub             *progress.Hub
}

func (c *CampaignController) Routes(r chi.Router) {
	r.Post("/campaigns", c.CreateCampaign)
	r.Get("/campaigns", c.ListCampaigns)
	r.Get("/campaigns/{id}", c.GetCampaignDetails)
	r.Post("/campaigns/{id}/start", c.StartCampaign)
	r.Post("/campaigns/{id}/pause", c.PauseCampaign)
	r.Post("/campaigns/{id}/resume", c.ResumeCampaign)
	r.Post("/campaigns/{id}/cancel", c.CancelCampaign)
	r.Put("/campaigns/{id}/rate", c.SetRate)
	r.Get("/campaigns/{id}/progress", c.GetProgress)
	r.Get("/campaigns/{id}/events", c.StreamProgress)
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string       `json:"name"`
		ListName string       `json:"list_name"`
		Template string       `json:"template"`
		Window   model.Window `json:"window"`
		Rate     interface{}  `json:"rate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	campaign, err := c.CampaignService.CreateCampaign(body.Name, body.ListName, body.Template, body.Window, parseRate(body.Rate))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, campaign)
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	state := r.URL.Query().Get("state")

	if state != "" && !model.IsValidState(state) {
		http.Error(w, "invalid state filter", http.StatusBadRequest)
		return
	}

	campaigns, pagination, err := c.CampaignService.ListCampaigns(page, pageSize, state)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":       campaigns,
		"pagination": pagination,
	})
}

func (c *CampaignController) GetCampaignDetails(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(w, r)
	if !ok {
		return
	}

	details, err := c.CampaignService.GetCampaignDetails(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, details)
}

func (c *CampaignController) StartCampaign(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, c.CampaignService.StartCampaign)
}

func (c *CampaignController) PauseCampaign(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, c.CampaignService.PauseCampaign)
}

func (c *CampaignController) ResumeCampaign(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, c.CampaignService.ResumeCampaign)
}

func (c *CampaignController) CancelCampaign(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, c.CampaignService.CancelCampaign)
}

// transition applies op and answers with the resulting progress.
func (c *CampaignController) transition(w http.ResponseWriter, r *http.Request, op func(id int) error) {
	id, ok := campaignID(w, r)
	if !ok {
		return
	}

	if err := op(id); err != nil {
		writeError(w, err)
		return
	}

	c.writeProgress(w, id)
}

func (c *CampaignController) SetRate(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(w, r)
	if !ok {
		return
	}

	var body struct {
		Rate interface{} `json:"rate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	if err := c.CampaignService.SetRate(id, parseRate(body.Rate)); err != nil {
		writeError(w, err)
		return
	}

	c.writeProgress(w, id)
}

func (c *CampaignController) GetProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(w, r)
	if !ok {
		return
	}
	c.writeProgress(w, id)
}

// StreamProgress writes progress as server-sent events until the campaign
// reaches a terminal state or the client goes away.
func (c *CampaignController) StreamProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	// Subscribe before the first snapshot so no event falls in between.
	events, unsubscribe := c.Hub.Subscribe(id, eventBuffer)
	defer unsubscribe()

	current, err := c.CampaignService.GetProgress(id)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, current); err != nil {
		return
	}
	flusher.Flush()
	if current.State.Terminal() {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case p, open := <-events:
			if !open {
				return
			}
			if err := writeEvent(w, p); err != nil {
				log.Debug().Err(err).Int("campaign_id", id).Msg("progress stream closed")
				return
			}
			flusher.Flush()
			if p.State.Terminal() {
				return
			}
		}
	}
}

func (c *CampaignController) writeProgress(w http.ResponseWriter, id int) {
	p, err := c.CampaignService.GetProgress(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func writeEvent(w http.ResponseWriter, p model.Progress) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", p.Event, data)
	return err
}

func campaignID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// parseRate accepts a JSON number or numeric string. Anything else yields 0,
// which the scheduler clamps to its default.
func parseRate(v interface{}) float64 {
	switch rate := v.(type) {
	case float64:
		return rate
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(rate), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := appErrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
	}
	http.Error(w, err.Error(), status)
}
