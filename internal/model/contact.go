// internal/model/contact.go
package model

import "strings"

// Contact is a contact record with its channel addresses already resolved.
// The raw record is loosely typed (alternate field names, nested socials),
// so resolution happens once at ingestion in the CRM client and the rest
// of the engine only sees this shape.
type Contact struct {
	ID         int    `json:"id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email,omitempty"`
	ProfileURL string `json:"linkedin,omitempty"`
}

// FullName is first + last with surrounding whitespace trimmed.
func (c *Contact) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Address returns the contact's address for the given channel, or "" when
// none was resolved.
func (c *Contact) Address(ch Channel) string {
	switch ch {
	case ChannelEmail:
		return c.Email
	case ChannelLinkedIn:
		return c.ProfileURL
	}
	return ""
}
