// internal/dispatch/dispatcher.go
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/carbonsustain/outreach-backend/internal/model"
	"github.com/carbonsustain/outreach-backend/internal/pacing"
	"github.com/carbonsustain/outreach-backend/internal/render"
	"github.com/carbonsustain/outreach-backend/internal/sender"
	"github.com/carbonsustain/outreach-backend/internal/sender/linkedin"
)

// ContactSource is read-only access to campaign metadata, channel
// mappings and contact records.
type ContactSource interface {
	GetCampaign(ctx context.Context, id int) (*model.Campaign, error)
	ListChannelMappings(ctx context.Context, campaignID int, ch model.Channel) ([]model.ChannelMapping, error)
	GetContact(ctx context.Context, id int) (*model.Contact, error)
}

// Ledger is append access to the outreach ledger.
type Ledger interface {
	AppendLogEntry(ctx context.Context, entry model.OutreachLogEntry) error
}

// DedupGuard answers "was this contact already messaged on this channel
// for this campaign".
type DedupGuard interface {
	AlreadyContacted(ctx context.Context, campaignID, contactID int, ch model.Channel) bool
}

// Dispatcher runs one campaign over one channel: dedup check, contact
// fetch, render, send, ledger append, jitter, next contact. Contacts are
// processed strictly sequentially; the pacing itself is the anti-detection
// mechanism and the LinkedIn sender holds a single shared session.
type Dispatcher struct {
	Source      ContactSource
	Ledger      Ledger
	Guard       DedupGuard
	Senders     map[model.Channel]sender.ChannelSender
	Pace        pacing.Window
	SenderEmail string
	Log         *zap.SugaredLogger
}

// Run processes the campaign to completion or failure and always returns
// a summary covering the contacts processed so far. Per-contact problems
// are counted, never raised; only missing campaigns, missing senders and
// login timeout abort the run.
func (d *Dispatcher) Run(ctx context.Context, campaignID int, ch model.Channel, contactIDs []int) (*model.SendSummary, error) {
	summary := &model.SendSummary{CampaignID: campaignID, Channel: ch.String()}

	campaign, err := d.Source.GetCampaign(ctx, campaignID)
	if err != nil {
		// No content to send; nothing per-contact can happen.
		return summary, err
	}

	channelSender, ok := d.Senders[ch]
	if !ok {
		return summary, fmt.Errorf("no sender configured for channel %s", ch)
	}

	if len(contactIDs) == 0 {
		contactIDs, err = d.eligibleContactIDs(ctx, campaignID, ch)
		if err != nil {
			return summary, err
		}
	}
	d.Log.Infow("starting campaign run",
		"campaign_id", campaignID, "campaign", campaign.Name, "channel", ch, "contacts", len(contactIDs))

	for i, contactID := range contactIDs {
		// Caller abort is observed between contacts, never mid-send.
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}

		summary.Attempted++
		if err := d.processContact(ctx, campaign, ch, channelSender, contactID, summary); err != nil {
			if errors.Is(err, linkedin.ErrLoginTimeout) {
				// The shared session cannot proceed; report what we got.
				d.Log.Errorw("login timeout, aborting run", "campaign_id", campaignID)
				return summary, err
			}
			summary.Failed++
			d.Log.Warnw("contact failed", "contact_id", contactID, "error", err)
		}

		if i < len(contactIDs)-1 {
			if err := d.Pace.Sleep(ctx); err != nil {
				return summary, err
			}
		}
	}

	d.Log.Infow("campaign run complete",
		"campaign_id", campaignID, "channel", ch,
		"attempted", summary.Attempted, "sent", summary.Sent,
		"skipped", summary.Skipped, "failed", summary.Failed, "drafted", summary.Drafted)
	return summary, nil
}

// processContact handles one contact end to end. Skips mutate the summary
// directly and return nil; a non-nil return is a genuine failure.
func (d *Dispatcher) processContact(ctx context.Context, campaign *model.Campaign, ch model.Channel, channelSender sender.ChannelSender, contactID int, summary *model.SendSummary) error {
	if d.Guard.AlreadyContacted(ctx, campaign.ID, contactID, ch) {
		d.Log.Infow("already contacted, skipping", "contact_id", contactID, "channel", ch)
		summary.Skipped++
		return nil
	}

	contact, err := d.Source.GetContact(ctx, contactID)
	if err != nil {
		return fmt.Errorf("fetch contact %d: %w", contactID, err)
	}

	address := contact.Address(ch)
	if address == "" {
		d.Log.Infow("no address for channel, skipping", "contact_id", contactID, "channel", ch)
		summary.Skipped++
		return nil
	}

	req := d.buildRequest(campaign, contact, ch, address)
	outcome, err := channelSender.Send(ctx, req)
	if err != nil {
		return err
	}

	if outcome.Drafted {
		summary.Drafted++
		return nil
	}
	if !outcome.Sent {
		return fmt.Errorf("sender reported neither sent nor drafted for contact %d", contactID)
	}

	summary.Sent++
	d.appendLedgerEntry(ctx, campaign.ID, contactID, ch, req)
	return nil
}

func (d *Dispatcher) buildRequest(campaign *model.Campaign, contact *model.Contact, ch model.Channel, address string) sender.Request {
	if ch == model.ChannelEmail {
		msg := render.Email(campaign, contact)
		return sender.Request{Address: address, Subject: msg.Subject, Body: msg.Body}
	}
	return sender.Request{Address: address, Body: render.LinkedInMessage(campaign, contact)}
}

// appendLedgerEntry records a confirmed send. A ledger write failure is a
// warning, not a send failure: the message is already out, and failing the
// contact here would double-send it on the next run.
func (d *Dispatcher) appendLedgerEntry(ctx context.Context, campaignID, contactID int, ch model.Channel, req sender.Request) {
	entry := model.OutreachLogEntry{
		CampaignID:  campaignID,
		ContactID:   contactID,
		SenderEmail: d.SenderEmail,
		Channel:     ch.String(),
		Direction:   model.DirectionOutbound,
		Body:        req.Body,
	}
	if ch == model.ChannelEmail {
		subject := req.Subject
		entry.Subject = &subject
	}
	if err := d.Ledger.AppendLogEntry(ctx, entry); err != nil {
		d.Log.Warnw("failed to append ledger entry",
			"campaign_id", campaignID, "contact_id", contactID, "error", err)
	}
}

// eligibleContactIDs pulls every channel mapping for the campaign and
// dedups by contact id, first occurrence winning, listing order preserved.
func (d *Dispatcher) eligibleContactIDs(ctx context.Context, campaignID int, ch model.Channel) ([]int, error) {
	mappings, err := d.Source.ListChannelMappings(ctx, campaignID, ch)
	if err != nil {
		return nil, err
	}
	seen := make(map[int]bool, len(mappings))
	var ids []int
	for _, m := range mappings {
		if seen[m.ContactID] {
			continue
		}
		seen[m.ContactID] = true
		ids = append(ids, m.ContactID)
	}
	return ids, nil
}

// ListEligibleContacts returns the deduped contacts that hold a usable
// address for the channel.
func (d *Dispatcher) ListEligibleContacts(ctx context.Context, campaignID int, ch model.Channel) ([]model.Contact, error) {
	ids, err := d.eligibleContactIDs(ctx, campaignID, ch)
	if err != nil {
		return nil, err
	}
	contacts := make([]model.Contact, 0, len(ids))
	for _, id := range ids {
		contact, err := d.Source.GetContact(ctx, id)
		if err != nil {
			d.Log.Warnw("could not fetch contact, dropping from listing", "contact_id", id, "error", err)
			continue
		}
		if contact.Address(ch) == "" {
			continue
		}
		contacts = append(contacts, *contact)
	}
	return contacts, nil
}
