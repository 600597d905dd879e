// internal/crm/resolve.go
package crm

import (
	"strings"

	"github.com/carbonsustain/outreach-backend/internal/model"
)

// contactPayload mirrors the loosely-typed contact record the system of
// record returns. Channel addresses hide behind a handful of alternate
// field names (plus a nested socials object for LinkedIn), so they are
// resolved once here and the engine only ever sees model.Contact.
type contactPayload struct {
	ID        int    `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	Email        string `json:"email"`
	EmailAddress string `json:"email_address"`
	PrimaryEmail string `json:"primary_email"`
	WorkEmail    string `json:"work_email"`

	LinkedIn    string `json:"linkedin"`
	LinkedInURL string `json:"linkedin_url"`
	ProfileURL  string `json:"profile_url"`
	URL         string `json:"url"`

	Socials struct {
		LinkedIn    string `json:"linkedin"`
		LinkedInURL string `json:"linkedin_url"`
	} `json:"socials"`
}

func (p *contactPayload) resolve() *model.Contact {
	return &model.Contact{
		ID:         p.ID,
		FirstName:  p.FirstName,
		LastName:   p.LastName,
		Email:      p.resolveEmail(),
		ProfileURL: p.resolveProfileURL(),
	}
}

// resolveEmail walks the accepted field names in priority order and takes
// the first value that looks like an address.
func (p *contactPayload) resolveEmail() string {
	for _, v := range []string{p.Email, p.EmailAddress, p.PrimaryEmail, p.WorkEmail} {
		v = strings.TrimSpace(v)
		if strings.Contains(v, "@") {
			return v
		}
	}
	return ""
}

// resolveProfileURL prefers the direct linkedin field, then the alternate
// URL fields (which must actually point at linkedin.com), then the nested
// socials object.
func (p *contactPayload) resolveProfileURL() string {
	if v := strings.TrimSpace(p.LinkedIn); strings.HasPrefix(v, "http") {
		return v
	}
	for _, v := range []string{p.LinkedInURL, p.ProfileURL, p.URL} {
		v = strings.TrimSpace(v)
		if strings.HasPrefix(v, "http") && strings.Contains(v, "linkedin.com") {
			return v
		}
	}
	for _, v := range []string{p.Socials.LinkedIn, p.Socials.LinkedInURL} {
		v = strings.TrimSpace(v)
		if strings.HasPrefix(v, "http") {
			return v
		}
	}
	return ""
}
