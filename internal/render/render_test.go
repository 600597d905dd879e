package render_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/carbonsustain/outreach-backend/internal/model"
	"github.com/carbonsustain/outreach-backend/internal/render"
)

func TestPersonalizeNoPlaceholders(t *testing.T) {
	contact := &model.Contact{FirstName: "Ada", LastName: "Lovelace"}
	text := "Nothing to substitute here."
	assert.Equal(t, text, render.Personalize(text, contact))
}

func TestPersonalizeBothBraceSpellings(t *testing.T) {
	contact := &model.Contact{FirstName: "Ada", LastName: "Lovelace"}
	got := render.Personalize("Hi {first_name}, or should I say {{first_name}} {{last_name}}?", contact)
	assert.Equal(t, "Hi Ada, or should I say Ada Lovelace?", got)
}

func TestPersonalizeFullName(t *testing.T) {
	contact := &model.Contact{FirstName: "Ada", LastName: "Lovelace"}
	assert.Equal(t, "Dear Ada Lovelace", render.Personalize("Dear {full_name}", contact))
}

func TestPersonalizeEmptyFieldLeavesPlaceholder(t *testing.T) {
	contact := &model.Contact{FirstName: "", LastName: "Lovelace"}
	got := render.Personalize("Hi {first_name} {last_name}", contact)
	assert.Equal(t, "Hi {first_name} Lovelace", got)
}

func TestEmailWrapsPlainBody(t *testing.T) {
	campaign := &model.Campaign{
		EmailSubject: "Quick intro",
		EmailBody:    "Hi {first_name}, quick question.",
	}
	contact := &model.Contact{FirstName: "Ada"}

	msg := render.Email(campaign, contact)
	assert.Equal(t, "Quick intro", msg.Subject)
	assert.True(t, strings.HasPrefix(msg.Body, "<html><body><p>"))
	assert.Contains(t, msg.Body, "Hi Ada, quick question.")
}

func TestEmailKeepsFullDocument(t *testing.T) {
	body := "<!DOCTYPE html><html><body>Hi {first_name}</body></html>"
	campaign := &model.Campaign{EmailSubject: "s", EmailBody: body}
	contact := &model.Contact{FirstName: "Ada"}

	msg := render.Email(campaign, contact)
	assert.False(t, strings.HasPrefix(msg.Body, "<html><body><p>"))
	assert.Contains(t, msg.Body, "Hi Ada")
}

func TestEmailSubjectFallsBackToName(t *testing.T) {
	campaign := &model.Campaign{Name: "SD Climate Week"}
	msg := render.Email(campaign, &model.Contact{})
	assert.Equal(t, "SD Climate Week", msg.Subject)
}

func TestLinkedInMessagePrefersConfiguredText(t *testing.T) {
	campaign := &model.Campaign{
		LinkedInMessage: "Hi {first_name}, loved your work.",
		EmailBody:       "<p>should not be used</p>",
	}
	contact := &model.Contact{FirstName: "Ada"}
	assert.Equal(t, "Hi Ada, loved your work.", render.LinkedInMessage(campaign, contact))
}

func TestLinkedInMessageDerivedFromEmailBody(t *testing.T) {
	campaign := &model.Campaign{
		EmailBody: "<html><body><p>Hello   there,</p>\n<p>quick  update.</p></body></html>",
	}
	contact := &model.Contact{FirstName: "Ada"}

	got := render.LinkedInMessage(campaign, contact)
	// Tags stripped, whitespace collapsed, greeting prefixed because the
	// derived text has no first-name placeholder.
	assert.Equal(t, "Hi Ada — Hello there, quick update.", got)
}

func TestLinkedInMessageGreetingFromProfileSlug(t *testing.T) {
	campaign := &model.Campaign{LinkedInMessage: "Loved your latest post."}
	contact := &model.Contact{ProfileURL: "https://www.linkedin.com/in/ada-lovelace-1b2c3d/"}

	got := render.LinkedInMessage(campaign, contact)
	assert.Equal(t, "Hi Ada — Loved your latest post.", got)
}

func TestLinkedInMessagePlaceholderFromProfileSlug(t *testing.T) {
	campaign := &model.Campaign{LinkedInMessage: "Hi {first_name}, quick question."}
	contact := &model.Contact{ProfileURL: "https://www.linkedin.com/in/grace-hopper/"}

	got := render.LinkedInMessage(campaign, contact)
	assert.Equal(t, "Hi Grace, quick question.", got)
}

func TestLinkedInMessageRecordNameWinsOverSlug(t *testing.T) {
	campaign := &model.Campaign{LinkedInMessage: "Quick question."}
	contact := &model.Contact{
		FirstName:  "Augusta",
		ProfileURL: "https://www.linkedin.com/in/ada-lovelace/",
	}
	assert.Equal(t, "Hi Augusta — Quick question.", render.LinkedInMessage(campaign, contact))
}

func TestLinkedInMessageUnusableSlugSkipsGreeting(t *testing.T) {
	campaign := &model.Campaign{LinkedInMessage: "Quick question."}
	// Opaque numeric handle, nothing name-like to extract.
	contact := &model.Contact{ProfileURL: "https://www.linkedin.com/in/123456789/"}
	assert.Equal(t, "Quick question.", render.LinkedInMessage(campaign, contact))
}

func TestLinkedInMessageDefault(t *testing.T) {
	campaign := &model.Campaign{}
	contact := &model.Contact{}
	assert.Equal(t, render.DefaultLinkedInMessage, render.LinkedInMessage(campaign, contact))
}

func TestStripMarkup(t *testing.T) {
	assert.Equal(t, "a b c", render.StripMarkup("<p>a</p> <b>b</b>\n\tc"))
	assert.Equal(t, "", render.StripMarkup("<br/>"))
}
