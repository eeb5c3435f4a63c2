package service

import (
	"strings"
	"sync"

	"github.com/unclebandit/muxo-dispatch/internal/model"
)

// ParseContacts reads `msisdn,first_name,last_name,tag1;tag2` lines. Missing
// trailing fields are empty, extra fields are ignored, and blank lines are
// skipped. Commas and semicolons cannot be escaped. Duplicates are kept.
func ParseContacts(text string) []model.ImportRow {
	rows := []model.ImportRow{}
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Split(line, ",")
		field := func(i int) string {
			if i < len(fields) {
				return fields[i]
			}
			return ""
		}

		tags := []string{}
		for _, t := range strings.Split(field(3), ";") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}

		c := model.NewContact(field(0), field(1), field(2), tags)
		rows = append(rows, model.ImportRow{Contact: c, Include: !c.OptedOut})
	}
	return rows
}

// ImportSession holds parsed rows between upload and list creation.
type ImportSession struct {
	ID string

	mu   sync.Mutex
	rows []model.ImportRow
}

func NewImportSession(id string, rows []model.ImportRow) *ImportSession {
	return &ImportSession{ID: id, rows: rows}
}

// SetInclude toggles whether a row takes part in list creation. Opted-out
// rows and out-of-range indexes are left alone and report false.
func (s *ImportSession) SetInclude(i int, include bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= len(s.rows) || s.rows[i].OptedOut {
		return false
	}
	s.rows[i].Include = include
	return true
}

// Rows returns a copy of the session rows.
func (s *ImportSession) Rows() []model.ImportRow {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.ImportRow, len(s.rows))
	for i, r := range s.rows {
		out[i] = model.ImportRow{Contact: r.Contact.Clone(), Include: r.Include}
	}
	return out
}
