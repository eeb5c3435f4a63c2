package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	appErrors "github.com/unclebandit/muxo-dispatch/internal/errors"
	"github.com/unclebandit/muxo-dispatch/internal/model"
	"github.com/unclebandit/muxo-dispatch/internal/service"
)

const maxImportBytes = 10 << 20

// ContactHandler holds the dependencies for contact and list HTTP handlers
type ContactHandler struct {
	Contacts  *service.ContactService
	Campaigns *service.CampaignService
}

func (h *ContactHandler) Routes(r chi.Router) {
	r.Post("/imports", h.ImportHandler)
	r.Get("/imports/{id}", h.GetImportHandler)
	r.Put("/imports/{id}/rows/{row}", h.SetIncludeHandler)

	r.Post("/lists", h.CreateListHandler)
	r.Get("/lists", h.ListListsHandler)
	r.Get("/lists/{name}", h.GetListHandler)
	r.Post("/lists/{name}/members", h.ToggleMemberHandler)
	r.Post("/lists/{name}/preview", h.PreviewHandler)
}

type importResponse struct {
	ID   string            `json:"id"`
	Rows []model.ImportRow `json:"rows"`
}

// ImportHandler parses a CSV body into a new import session
func (h *ContactHandler) ImportHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		http.Error(w, "failed to read body: "+err.Error(), http.StatusBadRequest)
		return
	}

	session := h.Contacts.Import(string(body))
	writeJSON(w, http.StatusCreated, importResponse{ID: session.ID, Rows: session.Rows()})
}

func (h *ContactHandler) GetImportHandler(w http.ResponseWriter, r *http.Request) {
	session, err := h.Contacts.GetImport(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, importResponse{ID: session.ID, Rows: session.Rows()})
}

// SetIncludeHandler toggles one row. Opted-out rows are reported as not applied.
func (h *ContactHandler) SetIncludeHandler(w http.ResponseWriter, r *http.Request) {
	session, err := h.Contacts.GetImport(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	row, err := strconv.Atoi(chi.URLParam(r, "row"))
	if err != nil {
		http.Error(w, "invalid row index", http.StatusBadRequest)
		return
	}

	var payload struct {
		Include bool `json:"include"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	applied := session.SetInclude(row, payload.Include)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"row":     row,
		"applied": applied,
		"rows":    session.Rows(),
	})
}

func (h *ContactHandler) CreateListHandler(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name     string `json:"name"`
		ImportID string `json:"import_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(payload.Name)
	contacts, err := h.Contacts.CreateListFromImport(name, payload.ImportID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"name":     name,
		"contacts": contacts,
	})
}

func (h *ContactHandler) ListListsHandler(w http.ResponseWriter, r *http.Request) {
	type listSummary struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	out := []listSummary{}
	for _, name := range h.Contacts.ListNames() {
		contacts, _ := h.Contacts.GetList(name)
		out = append(out, listSummary{Name: name, Count: len(contacts)})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": out})
}

func (h *ContactHandler) GetListHandler(w http.ResponseWriter, r *http.Request) {
	name := listName(r)
	contacts, ok := h.Contacts.GetList(name)
	if !ok {
		http.Error(w, "list not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"name": name, "contacts": contacts})
}

// ToggleMemberHandler adds or removes a contact; unknown lists are created.
func (h *ContactHandler) ToggleMemberHandler(w http.ResponseWriter, r *http.Request) {
	var contact model.Contact
	if err := json.NewDecoder(r.Body).Decode(&contact); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	member, err := h.Contacts.ToggleMembership(listName(r), contact)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"msisdn": contact.MSISDN, "member": member})
}

func (h *ContactHandler) PreviewHandler(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Template string `json:"template"`
		Count    int    `json:"count"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	rendered, err := h.Campaigns.Preview(listName(r), payload.Template, payload.Count)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"rendered": rendered})
}

func listName(r *http.Request) string {
	name := chi.URLParam(r, "name")
	if unescaped, err := url.PathUnescape(name); err == nil {
		return unescaped
	}
	return name
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
