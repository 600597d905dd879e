// internal/model/campaign.go
package model

// Campaign is the system-of-record campaign row. Immutable for the
// duration of a run.
type Campaign struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	EmailSubject string `json:"email_subject"`
	EmailBody    string `json:"email_body"`

	// The LinkedIn message text has lived under several field names across
	// revisions of the record; all of them are decoded and the renderer
	// picks the first non-empty one.
	LinkedInMessage string `json:"linkedin_message"`
	Message         string `json:"message"`
	LinkedInBody    string `json:"linkedin_body"`
	BodyText        string `json:"body_text"`
}

// MessageFields returns the candidate plain-text message fields in
// priority order.
func (c *Campaign) MessageFields() []string {
	return []string{c.LinkedInMessage, c.Message, c.LinkedInBody, c.BodyText}
}
