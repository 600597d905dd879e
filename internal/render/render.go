// internal/render/render.go
package render

import (
	"regexp"
	"strings"

	"github.com/carbonsustain/outreach-backend/internal/model"
)

// DefaultLinkedInMessage is used when a campaign carries no message text
// at all, not even an email body to derive one from.
const DefaultLinkedInMessage = "Hi there — I'm reaching out to share a quick update on what we're building. Would love to connect!"

// Message is a rendered subject/body pair. Subject is empty for the
// LinkedIn channel.
type Message struct {
	Subject string
	Body    string
}

var (
	tagRe        = regexp.MustCompile(`<[^>]+>`)
	whitespaceRe = regexp.MustCompile(`\s+`)

	domainRe    = regexp.MustCompile(`^https?://[^/]+/`)
	slugDelimRe = regexp.MustCompile(`[-_.+]`)
	digitsRe    = regexp.MustCompile(`\d+`)
)

// Personalize substitutes first/last/full name placeholders in both the
// {x} and {{x}} spellings. Empty contact fields leave their placeholders
// untouched rather than erroring; a degraded greeting still goes out.
func Personalize(text string, contact *model.Contact) string {
	out := text
	out = substitute(out, "first_name", contact.FirstName)
	out = substitute(out, "last_name", contact.LastName)
	out = substitute(out, "full_name", contact.FullName())
	return out
}

func substitute(text, key, value string) string {
	if value == "" {
		return text
	}
	text = strings.ReplaceAll(text, "{{"+key+"}}", value)
	return strings.ReplaceAll(text, "{"+key+"}", value)
}

// Email renders the campaign's email for a contact. Subject falls back to
// the campaign name. A body that is not already a full HTML document gets
// wrapped in a minimal one before sending.
func Email(campaign *model.Campaign, contact *model.Contact) Message {
	subject := campaign.EmailSubject
	if subject == "" {
		subject = campaign.Name
	}
	if subject == "" {
		subject = "Outreach Campaign"
	}

	body := Personalize(campaign.EmailBody, contact)
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(body)), "<!doctype") {
		body = "<html><body><p>" + body + "</p></body></html>"
	}

	return Message{Subject: Personalize(subject, contact), Body: body}
}

// LinkedInMessage renders the plain-text DM for a contact. The text comes
// from the first non-empty campaign message field, else from the email
// body with markup stripped, else from a fixed default. A message with no
// first-name placeholder gets a greeting prefix when the name is known.
// A contact record without a first name falls back to the name token in
// the profile URL slug.
func LinkedInMessage(campaign *model.Campaign, contact *model.Contact) string {
	base := linkedInText(campaign)

	c := *contact
	if c.FirstName == "" {
		c.FirstName = firstNameFromProfileURL(c.ProfileURL)
	}

	hasPlaceholder := strings.Contains(base, "{first_name}") || strings.Contains(base, "{{first_name}}")
	msg := Personalize(base, &c)
	if !hasPlaceholder && c.FirstName != "" {
		msg = "Hi " + c.FirstName + " — " + msg
	}
	return msg
}

// firstNameFromProfileURL guesses a first name from a profile URL slug:
// "https://www.linkedin.com/in/ada-lovelace-1b2c3d/" yields "Ada".
// Returns "" when the slug carries no usable name token.
func firstNameFromProfileURL(profileURL string) string {
	path := strings.Trim(domainRe.ReplaceAllString(profileURL, ""), "/")
	if path == "" {
		return ""
	}
	parts := strings.Split(path, "/")
	handle := parts[0]
	if handle == "in" && len(parts) > 1 {
		handle = parts[1]
	}
	token := slugDelimRe.Split(handle, 2)[0]
	token = strings.TrimSpace(digitsRe.ReplaceAllString(token, ""))
	if token == "" {
		return ""
	}
	return strings.ToUpper(token[:1]) + strings.ToLower(token[1:])
}

func linkedInText(campaign *model.Campaign) string {
	for _, field := range campaign.MessageFields() {
		if s := strings.TrimSpace(field); s != "" {
			return s
		}
	}
	if stripped := StripMarkup(campaign.EmailBody); stripped != "" {
		return stripped
	}
	return DefaultLinkedInMessage
}

// StripMarkup removes HTML tags and collapses whitespace, turning a rich
// email body into something usable as a DM.
func StripMarkup(html string) string {
	text := tagRe.ReplaceAllString(html, " ")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}
