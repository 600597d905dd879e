package dispatch_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/carbonsustain/outreach-backend/internal/dedup"
	"github.com/carbonsustain/outreach-backend/internal/dispatch"
	"github.com/carbonsustain/outreach-backend/internal/model"
	"github.com/carbonsustain/outreach-backend/internal/sender"
)

type fakeRecorder struct {
	running  []string
	finished map[string]*model.SendSummary
	errs     map[string]error
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{
		finished: make(map[string]*model.SendSummary),
		errs:     make(map[string]error),
	}
}

func (f *fakeRecorder) MarkRunning(ctx context.Context, runID string) error {
	f.running = append(f.running, runID)
	return nil
}

func (f *fakeRecorder) Finish(ctx context.Context, runID string, summary *model.SendSummary, runErr error) error {
	f.finished[runID] = summary
	f.errs[runID] = runErr
	return nil
}

func TestExecuteRecordsOutcome(t *testing.T) {
	source := &fakeSource{
		campaign: &model.Campaign{ID: 3, EmailSubject: "s", EmailBody: "b"},
		contacts: map[int]*model.Contact{10: {ID: 10, Email: "ada@example.com"}},
	}
	ledger := &fakeLedgerStore{}
	recorder := newFakeRecorder()
	svc := &dispatch.RunService{
		Dispatcher: newDispatcher(source, ledger, &fakeSender{outcome: sender.Outcome{Sent: true}}),
		Runs:       recorder,
		Log:        zap.NewNop().Sugar(),
	}

	job := dispatch.RunJob{RunID: "run-1", CampaignID: 3, Channel: "email", ContactIDs: []int{10}}
	require.NoError(t, svc.Execute(context.Background(), job))

	assert.Equal(t, []string{"run-1"}, recorder.running)
	require.Contains(t, recorder.finished, "run-1")
	assert.Equal(t, 1, recorder.finished["run-1"].Sent)
	assert.NoError(t, recorder.errs["run-1"])
}

func TestExecutePersistsPartialSummaryOnFailure(t *testing.T) {
	source := &fakeSource{campaignErr: errors.New("campaign not found")}
	recorder := newFakeRecorder()
	svc := &dispatch.RunService{
		Dispatcher: newDispatcher(source, &fakeLedgerStore{}, &fakeSender{}),
		Runs:       recorder,
		Log:        zap.NewNop().Sugar(),
	}

	job := dispatch.RunJob{RunID: "run-2", CampaignID: 99, Channel: "email"}
	err := svc.Execute(context.Background(), job)
	assert.Error(t, err)

	// The run is closed out even though it aborted before any contact.
	require.Contains(t, recorder.finished, "run-2")
	assert.Equal(t, 0, recorder.finished["run-2"].Attempted)
	assert.Error(t, recorder.errs["run-2"])
}

func TestExecuteRejectsUnknownChannel(t *testing.T) {
	recorder := newFakeRecorder()
	svc := &dispatch.RunService{
		Dispatcher: newDispatcher(&fakeSource{}, &fakeLedgerStore{}, &fakeSender{}),
		Runs:       recorder,
		Log:        zap.NewNop().Sugar(),
	}

	err := svc.Execute(context.Background(), dispatch.RunJob{RunID: "run-3", Channel: "fax"})
	assert.Error(t, err)
	assert.Empty(t, recorder.running)
}

var _ dispatch.DedupGuard = (*dedup.Guard)(nil)
