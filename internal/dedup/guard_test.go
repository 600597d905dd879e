package dedup_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/carbonsustain/outreach-backend/internal/dedup"
	"github.com/carbonsustain/outreach-backend/internal/model"
)

type fakeLedger struct {
	entries []model.OutreachLogEntry
	err     error
}

func (f *fakeLedger) ListLogEntries(ctx context.Context, campaignID, contactID int) ([]model.OutreachLogEntry, error) {
	return f.entries, f.err
}

func TestAlreadyContactedMatchesOutboundEntry(t *testing.T) {
	guard := &dedup.Guard{
		Ledger: &fakeLedger{entries: []model.OutreachLogEntry{
			{Channel: "email", Direction: model.DirectionOutbound},
		}},
		Log: zap.NewNop().Sugar(),
	}
	assert.True(t, guard.AlreadyContacted(context.Background(), 3, 10, model.ChannelEmail))
}

func TestAlreadyContactedIgnoresInbound(t *testing.T) {
	guard := &dedup.Guard{
		Ledger: &fakeLedger{entries: []model.OutreachLogEntry{
			{Channel: "email", Direction: model.DirectionInbound},
		}},
		Log: zap.NewNop().Sugar(),
	}
	assert.False(t, guard.AlreadyContacted(context.Background(), 3, 10, model.ChannelEmail))
}

func TestAlreadyContactedIgnoresOtherChannels(t *testing.T) {
	guard := &dedup.Guard{
		Ledger: &fakeLedger{entries: []model.OutreachLogEntry{
			{Channel: "linkedin", Direction: model.DirectionOutbound},
		}},
		Log: zap.NewNop().Sugar(),
	}
	assert.False(t, guard.AlreadyContacted(context.Background(), 3, 10, model.ChannelEmail))
}

func TestAlreadyContactedChannelCaseInsensitive(t *testing.T) {
	guard := &dedup.Guard{
		Ledger: &fakeLedger{entries: []model.OutreachLogEntry{
			{Channel: "EMAIL", Direction: model.DirectionOutbound},
		}},
		Log: zap.NewNop().Sugar(),
	}
	assert.True(t, guard.AlreadyContacted(context.Background(), 3, 10, model.ChannelEmail))
}

func TestAlreadyContactedFailsOpenOnLedgerError(t *testing.T) {
	guard := &dedup.Guard{
		Ledger: &fakeLedger{err: errors.New("ledger down")},
		Log:    zap.NewNop().Sugar(),
	}
	assert.False(t, guard.AlreadyContacted(context.Background(), 3, 10, model.ChannelEmail))
}
