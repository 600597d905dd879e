// internal/dedup/guard.go
package dedup

import (
	"context"

	"go.uber.org/zap"

	"github.com/carbonsustain/outreach-backend/internal/model"
)

// LedgerReader is the slice of the ledger client the guard needs.
type LedgerReader interface {
	ListLogEntries(ctx context.Context, campaignID, contactID int) ([]model.OutreachLogEntry, error)
}

// Guard decides whether a contact was already messaged on a channel for a
// campaign. It is the only thing standing between a re-run and a double
// send, and it works off the ledger so the decision survives process
// restarts.
type Guard struct {
	Ledger LedgerReader
	Log    *zap.SugaredLogger
}

// AlreadyContacted returns true iff the ledger holds an outbound entry for
// (campaign, contact) on the given channel (case-insensitive).
//
// A ledger read failure fails open: the contact is treated as not yet
// contacted and a warning is logged. Blocking a whole run on a transient
// ledger outage costs more than the occasional duplicate message.
func (g *Guard) AlreadyContacted(ctx context.Context, campaignID, contactID int, ch model.Channel) bool {
	entries, err := g.Ledger.ListLogEntries(ctx, campaignID, contactID)
	if err != nil {
		g.Log.Warnw("ledger read failed, assuming not contacted",
			"campaign_id", campaignID, "contact_id", contactID, "error", err)
		return false
	}
	for _, e := range entries {
		if e.Direction == model.DirectionOutbound && ch.Matches(e.Channel) {
			return true
		}
	}
	return false
}
