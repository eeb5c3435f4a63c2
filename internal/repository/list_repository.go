package repository

import (
	"sort"
	"sync"

	"github.com/unclebandit/muxo-dispatch/internal/model"
)

// ListRepositoryInterface stores named contact lists.
type ListRepositoryInterface interface {
	Get(name string) ([]model.Contact, bool)
	Put(name string, contacts []model.Contact)
	Names() []string
}

// ListRepository keeps lists in memory. Every read and write copies the
// contacts, so callers never hold a live view into the store.
type ListRepository struct {
	mu    sync.RWMutex
	lists map[string][]model.Contact
}

func NewListRepository() *ListRepository {
	return &ListRepository{lists: make(map[string][]model.Contact)}
}

func (r *ListRepository) Get(name string) ([]model.Contact, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	contacts, ok := r.lists[name]
	if !ok {
		return nil, false
	}
	return cloneContacts(contacts), true
}

// Put overwrites any existing list with the same name.
func (r *ListRepository) Put(name string, contacts []model.Contact) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lists[name] = cloneContacts(contacts)
}

func (r *ListRepository) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.lists))
	for name := range r.lists {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func cloneContacts(in []model.Contact) []model.Contact {
	out := make([]model.Contact, len(in))
	for i, c := range in {
		out[i] = c.Clone()
	}
	return out
}

var _ ListRepositoryInterface = (*ListRepository)(nil)
