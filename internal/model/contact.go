package model

import "strings"

// Contact is a single addressable recipient. MSISDN is its identity key.
type Contact struct {
	MSISDN    string   `json:"msisdn"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Tags      []string `json:"tags"`
	OptedOut  bool     `json:"opted_out"`
}

// ImportRow is a parsed CSV row awaiting list creation.
type ImportRow struct {
	Contact
	Include bool `json:"include"`
}

// IsOptOut reports whether any tag marks the contact as opted out:
// a case-insensitive "opt" anywhere in the tag.
func IsOptOut(tags []string) bool {
	for _, t := range tags {
		if strings.Contains(strings.ToLower(t), "opt") {
			return true
		}
	}
	return false
}

// NewContact builds a Contact with OptedOut derived from tags.
func NewContact(msisdn, firstName, lastName string, tags []string) Contact {
	if tags == nil {
		tags = []string{}
	}
	return Contact{
		MSISDN:    msisdn,
		FirstName: firstName,
		LastName:  lastName,
		Tags:      tags,
		OptedOut:  IsOptOut(tags),
	}
}

// Field returns the named string attribute, or "" for anything else.
func (c Contact) Field(name string) string {
	switch name {
	case "msisdn":
		return c.MSISDN
	case "first_name":
		return c.FirstName
	case "last_name":
		return c.LastName
	}
	return ""
}

// Clone returns a copy that shares no slices with c.
func (c Contact) Clone() Contact {
	out := c
	out.Tags = append([]string{}, c.Tags...)
	return out
}
