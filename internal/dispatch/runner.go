// internal/dispatch/runner.go
package dispatch

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/carbonsustain/outreach-backend/internal/model"
)

// RunJob is the queued request for one campaign run. ContactIDs empty
// means "everyone mapped to this channel".
type RunJob struct {
	RunID      string `json:"run_id"`
	CampaignID int    `json:"campaign_id"`
	Channel    string `json:"channel"`
	ContactIDs []int  `json:"contact_ids,omitempty"`
}

// RunRecorder persists run history around a dispatch.
type RunRecorder interface {
	MarkRunning(ctx context.Context, runID string) error
	Finish(ctx context.Context, runID string, summary *model.SendSummary, runErr error) error
}

// RunService executes queued run jobs: record start, dispatch, record
// outcome. It is what both the in-process subscriber and the AMQP worker
// call.
type RunService struct {
	Dispatcher *Dispatcher
	Runs       RunRecorder
	Log        *zap.SugaredLogger
}

// Execute runs one job to completion. The summary is persisted even when
// the run aborted early (login timeout, campaign fetch failure), so the
// history reflects the partial progress.
func (s *RunService) Execute(ctx context.Context, job RunJob) error {
	ch, err := model.ParseChannel(job.Channel)
	if err != nil {
		return fmt.Errorf("run %s: %w", job.RunID, err)
	}

	if err := s.Runs.MarkRunning(ctx, job.RunID); err != nil {
		s.Log.Warnw("could not mark run as running", "run_id", job.RunID, "error", err)
	}

	summary, runErr := s.Dispatcher.Run(ctx, job.CampaignID, ch, job.ContactIDs)
	if err := s.Runs.Finish(ctx, job.RunID, summary, runErr); err != nil {
		s.Log.Errorw("could not persist run outcome", "run_id", job.RunID, "error", err)
	}
	return runErr
}
