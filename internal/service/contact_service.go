package service

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	appErrors "github.com/unclebandit/muxo-dispatch/internal/errors"
	"github.com/unclebandit/muxo-dispatch/internal/model"
	"github.com/unclebandit/muxo-dispatch/internal/repository"
)

type ContactService struct {
	ListRepo repository.ListRepositoryInterface

	mu      sync.Mutex
	imports map[string]*ImportSession

	// listMu serialises read-modify-write of lists.
	listMu sync.Mutex
}

func NewContactService(listRepo repository.ListRepositoryInterface) *ContactService {
	return &ContactService{
		ListRepo: listRepo,
		imports:  make(map[string]*ImportSession),
	}
}

// Import parses text and keeps the rows under a new session ID.
func (s *ContactService) Import(text string) *ImportSession {
	session := NewImportSession(uuid.NewString(), ParseContacts(text))

	s.mu.Lock()
	s.imports[session.ID] = session
	s.mu.Unlock()

	log.Info().Str("import_id", session.ID).Int("rows", len(session.Rows())).Msg("contacts imported")
	return session
}

func (s *ContactService) GetImport(id string) (*ImportSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.imports[id]
	if !ok {
		return nil, appErrors.NewImportNotFound(id)
	}
	return session, nil
}

// CreateList stores the included, not opted-out rows under name, replacing
// any list already there. Repeated MSISDNs keep their first row.
func (s *ContactService) CreateList(name string, rows []model.ImportRow) ([]model.Contact, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, appErrors.NewInvalidName(name)
	}

	s.listMu.Lock()
	defer s.listMu.Unlock()

	seen := make(map[string]bool, len(rows))
	contacts := make([]model.Contact, 0, len(rows))
	for _, r := range rows {
		// Opt-out follows the tags even when the caller left the flag unset.
		if !r.Include || r.OptedOut || model.IsOptOut(r.Tags) || seen[r.MSISDN] {
			continue
		}
		seen[r.MSISDN] = true
		contacts = append(contacts, r.Contact.Clone())
	}

	s.ListRepo.Put(name, contacts)
	log.Info().Str("list", name).Int("contacts", len(contacts)).Msg("list created")
	return contacts, nil
}

func (s *ContactService) CreateListFromImport(name, importID string) ([]model.Contact, error) {
	session, err := s.GetImport(importID)
	if err != nil {
		return nil, err
	}
	return s.CreateList(name, session.Rows())
}

// ToggleMembership removes the contact from the list if its MSISDN is there
// and appends it otherwise. A missing list is created on the fly. Opted-out
// contacts can be removed but never added. It reports whether the contact is
// a member afterwards.
func (s *ContactService) ToggleMembership(listName string, contact model.Contact) (bool, error) {
	listName = strings.TrimSpace(listName)
	if listName == "" {
		return false, appErrors.NewInvalidName(listName)
	}
	contact = model.NewContact(contact.MSISDN, contact.FirstName, contact.LastName, contact.Tags)

	s.listMu.Lock()
	defer s.listMu.Unlock()

	current, _ := s.ListRepo.Get(listName)
	updated := make([]model.Contact, 0, len(current)+1)
	found := false
	for _, c := range current {
		if c.MSISDN == contact.MSISDN {
			found = true
			continue
		}
		updated = append(updated, c)
	}

	member := false
	if !found && !contact.OptedOut {
		updated = append(updated, contact)
		member = true
	}

	s.ListRepo.Put(listName, updated)
	return member, nil
}

func (s *ContactService) GetList(name string) ([]model.Contact, bool) {
	return s.ListRepo.Get(name)
}

func (s *ContactService) ListNames() []string {
	return s.ListRepo.Names()
}
