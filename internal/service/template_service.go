package service

import (
	"regexp"
	"strings"

	"github.com/unclebandit/muxo-dispatch/internal/model"
)

var placeholder = regexp.MustCompile(`\{\{(.*?)\}\}`)

// RenderTemplate replaces every {{ field }} with the contact's value for
// field. Unknown fields render as "". It has no other outcome, so preview and
// send produce the same text.
func RenderTemplate(template string, contact model.Contact) string {
	return placeholder.ReplaceAllStringFunc(template, func(m string) string {
		key := strings.TrimSpace(m[2 : len(m)-2])
		return contact.Field(key)
	})
}
