// internal/runstore/runstore.go
package runstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/carbonsustain/outreach-backend/internal/model"
)

// CampaignRun is one row of local run history. The outreach ledger is the
// source of truth for per-contact dedup; this table only answers "what did
// run X do" for the API surface.
type CampaignRun struct {
	ID         string     `json:"id"`
	CampaignID int        `json:"campaign_id"`
	Channel    string     `json:"channel"`
	Status     string     `json:"status"` // queued, running, completed, failed
	Attempted  int        `json:"attempted"`
	Sent       int        `json:"sent"`
	Skipped    int        `json:"skipped"`
	Failed     int        `json:"failed"`
	Drafted    int        `json:"drafted"`
	LastError  string     `json:"last_error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

type RunRepository struct {
	DB *sql.DB
}

// Init creates the run-history table when it does not exist yet.
func (r *RunRepository) Init(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS campaign_runs (
            id          TEXT PRIMARY KEY,
            campaign_id INTEGER NOT NULL,
            channel     TEXT NOT NULL,
            status      TEXT NOT NULL,
            attempted   INTEGER NOT NULL DEFAULT 0,
            sent        INTEGER NOT NULL DEFAULT 0,
            skipped     INTEGER NOT NULL DEFAULT 0,
            failed      INTEGER NOT NULL DEFAULT 0,
            drafted     INTEGER NOT NULL DEFAULT 0,
            last_error  TEXT NOT NULL DEFAULT '',
            created_at  TIMESTAMPTZ NOT NULL,
            started_at  TIMESTAMPTZ,
            finished_at TIMESTAMPTZ
        )
    `)
	return err
}

func (r *RunRepository) Create(ctx context.Context, run *CampaignRun) error {
	run.CreatedAt = time.Now()
	run.Status = "queued"
	_, err := r.DB.ExecContext(ctx, `
        INSERT INTO campaign_runs (id, campaign_id, channel, status, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `, run.ID, run.CampaignID, run.Channel, run.Status, run.CreatedAt)
	return err
}

func (r *RunRepository) MarkRunning(ctx context.Context, runID string) error {
	_, err := r.DB.ExecContext(ctx, `
        UPDATE campaign_runs SET status='running', started_at=$1 WHERE id=$2
    `, time.Now(), runID)
	return err
}

// Finish records the final counters. A nil summary (campaign fetch never
// happened) still closes the run with zero counts.
func (r *RunRepository) Finish(ctx context.Context, runID string, summary *model.SendSummary, runErr error) error {
	status := "completed"
	lastError := ""
	if runErr != nil {
		status = "failed"
		lastError = runErr.Error()
	}
	if summary == nil {
		summary = &model.SendSummary{}
	}
	_, err := r.DB.ExecContext(ctx, `
        UPDATE campaign_runs
        SET status=$1, attempted=$2, sent=$3, skipped=$4, failed=$5, drafted=$6,
            last_error=$7, finished_at=$8
        WHERE id=$9
    `, status, summary.Attempted, summary.Sent, summary.Skipped, summary.Failed,
		summary.Drafted, lastError, time.Now(), runID)
	return err
}

// activeRunMaxAge bounds how long a queued or running row blocks new runs
// on its channel. A worker crash or a lost Finish update must not wedge
// the channel permanently.
const activeRunMaxAge = 6 * time.Hour

// ActiveExists reports whether a fresh queued or running run exists for
// the channel. The request layer uses this to reject overlapping runs.
func (r *RunRepository) ActiveExists(ctx context.Context, channel string) (bool, error) {
	var count int
	err := r.DB.QueryRowContext(ctx, `
        SELECT COUNT(*) FROM campaign_runs
        WHERE channel=$1 AND status IN ('queued', 'running') AND created_at > $2
    `, channel, time.Now().Add(-activeRunMaxAge)).Scan(&count)
	return count > 0, err
}

func (r *RunRepository) GetByID(ctx context.Context, runID string) (*CampaignRun, error) {
	row := r.DB.QueryRowContext(ctx, `
        SELECT id, campaign_id, channel, status, attempted, sent, skipped, failed,
               drafted, last_error, created_at, started_at, finished_at
        FROM campaign_runs WHERE id=$1
    `, runID)
	var run CampaignRun
	err := row.Scan(&run.ID, &run.CampaignID, &run.Channel, &run.Status,
		&run.Attempted, &run.Sent, &run.Skipped, &run.Failed, &run.Drafted,
		&run.LastError, &run.CreatedAt, &run.StartedAt, &run.FinishedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *RunRepository) ListByCampaign(ctx context.Context, campaignID int) ([]CampaignRun, error) {
	rows, err := r.DB.QueryContext(ctx, `
        SELECT id, campaign_id, channel, status, attempted, sent, skipped, failed,
               drafted, last_error, created_at, started_at, finished_at
        FROM campaign_runs WHERE campaign_id=$1 ORDER BY created_at DESC
    `, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []CampaignRun
	for rows.Next() {
		var run CampaignRun
		if err := rows.Scan(&run.ID, &run.CampaignID, &run.Channel, &run.Status,
			&run.Attempted, &run.Sent, &run.Skipped, &run.Failed, &run.Drafted,
			&run.LastError, &run.CreatedAt, &run.StartedAt, &run.FinishedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
