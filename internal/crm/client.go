// internal/crm/client.go
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/carbonsustain/outreach-backend/internal/errors"
	"github.com/carbonsustain/outreach-backend/internal/model"
)

// Client talks to the outreach system of record: campaign metadata,
// campaign-contact channel mappings, contact records and the outreach
// ledger. All list endpoints return paginated {results, next} pages and
// the client always follows them to the end.
type Client struct {
	BaseURL string
	Token   string

	// External contact-method codes used in listing queries. The numeric
	// codes have changed between revisions of the source system, so they
	// are configuration, not constants.
	EmailMethodCode    int
	LinkedInMethodCode int

	HTTP *http.Client
	Log  *zap.SugaredLogger
}

// New builds a Client with a bounded request timeout.
func New(baseURL, token string, emailCode, linkedInCode int, timeout time.Duration, log *zap.SugaredLogger) *Client {
	return &Client{
		BaseURL:            baseURL,
		Token:              token,
		EmailMethodCode:    emailCode,
		LinkedInMethodCode: linkedInCode,
		HTTP:               &http.Client{Timeout: timeout},
		Log:                log,
	}
}

func (c *Client) methodCode(ch model.Channel) int {
	if ch == model.ChannelEmail {
		return c.EmailMethodCode
	}
	return c.LinkedInMethodCode
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", rawURL, errNotFound)
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GET %s: status %d: %s", rawURL, resp.StatusCode, bytes.TrimSpace(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

var errNotFound = fmt.Errorf("not found")

// GetCampaign fetches a campaign by id.
func (c *Client) GetCampaign(ctx context.Context, id int) (*model.Campaign, error) {
	var campaign model.Campaign
	url := fmt.Sprintf("%s/outreach/campaigns/%d/", c.BaseURL, id)
	if err := c.getJSON(ctx, url, &campaign); err != nil {
		if isNotFound(err) {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return &campaign, nil
}

func isNotFound(err error) bool {
	for err != nil {
		if err == errNotFound {
			return true
		}
		type unwrapper interface{ Unwrap() error }
		u, ok := err.(unwrapper)
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

type mappingPage struct {
	Results []model.ChannelMapping `json:"results"`
	Next    string                 `json:"next"`
}

// ListChannelMappings follows pagination for every mapping of
// (campaign, channel). Order across pages is preserved; duplicates are the
// dispatcher's problem.
func (c *Client) ListChannelMappings(ctx context.Context, campaignID int, ch model.Channel) ([]model.ChannelMapping, error) {
	var all []model.ChannelMapping
	next := fmt.Sprintf("%s/outreach/campaign-contact-methods/?campaign=%d&contact_method=%d",
		c.BaseURL, campaignID, c.methodCode(ch))
	for next != "" {
		var page mappingPage
		if err := c.getJSON(ctx, next, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Results...)
		next = page.Next
	}
	return all, nil
}

// GetContact fetches a contact and resolves its channel addresses from the
// loosely-typed record (see resolve.go).
func (c *Client) GetContact(ctx context.Context, id int) (*model.Contact, error) {
	var raw contactPayload
	url := fmt.Sprintf("%s/outreach/contacts/%d/", c.BaseURL, id)
	if err := c.getJSON(ctx, url, &raw); err != nil {
		return nil, err
	}
	return raw.resolve(), nil
}

type logPage struct {
	Results []model.OutreachLogEntry `json:"results"`
	Next    string                   `json:"next"`
}

// ListLogEntries fetches every ledger entry for (campaign, contact),
// following pagination. contactID 0 lists the whole campaign.
func (c *Client) ListLogEntries(ctx context.Context, campaignID, contactID int) ([]model.OutreachLogEntry, error) {
	q := url.Values{}
	q.Set("campaign", fmt.Sprint(campaignID))
	if contactID != 0 {
		q.Set("contact", fmt.Sprint(contactID))
	}
	next := fmt.Sprintf("%s/outreach/contact-logs/?%s", c.BaseURL, q.Encode())
	var all []model.OutreachLogEntry
	for next != "" {
		var page logPage
		if err := c.getJSON(ctx, next, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Results...)
		next = page.Next
	}
	return all, nil
}

// AppendLogEntry records an outbound send in the ledger.
func (c *Client) AppendLogEntry(ctx context.Context, entry model.OutreachLogEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/outreach/contact-logs/", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("POST %s: status %d: %s", url, resp.StatusCode, bytes.TrimSpace(body))
	}
	return nil
}
