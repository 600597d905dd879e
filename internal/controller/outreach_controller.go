// internal/controller/outreach_controller.go
package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carbonsustain/outreach-backend/internal/dispatch"
	appErrors "github.com/carbonsustain/outreach-backend/internal/errors"
	"github.com/carbonsustain/outreach-backend/internal/model"
	"github.com/carbonsustain/outreach-backend/internal/queue"
	"github.com/carbonsustain/outreach-backend/internal/runstore"
)

// RunsTopic is the queue topic campaign run jobs are published on.
const RunsTopic = "campaign_runs"

// RunStoreInterface is what the controller needs from the run history.
type RunStoreInterface interface {
	Create(ctx context.Context, run *runstore.CampaignRun) error
	Finish(ctx context.Context, runID string, summary *model.SendSummary, runErr error) error
	GetByID(ctx context.Context, runID string) (*runstore.CampaignRun, error)
	ListByCampaign(ctx context.Context, campaignID int) ([]runstore.CampaignRun, error)
	ActiveExists(ctx context.Context, channel string) (bool, error)
}

// OutreachController keeps the HTTP surface thin: validate, reject
// overlapping runs, record the run, enqueue, respond. Execution happens in
// the queue subscriber (single binary) or the worker (AMQP).
type OutreachController struct {
	Dispatcher *dispatch.Dispatcher
	Runs       RunStoreInterface
	Queue      queue.Queue
	Log        *zap.SugaredLogger
}

// RunCampaign handles POST /campaigns/{id}/run.
func (c *OutreachController) RunCampaign(w http.ResponseWriter, r *http.Request) {
	campaignID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}

	var body struct {
		Channel    string `json:"channel"`
		ContactIDs []int  `json:"contact_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	ch, err := model.ParseChannel(body.Channel)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// One browser session, one writer: overlapping runs on a channel are
	// rejected here, not inside the engine.
	active, err := c.Runs.ActiveExists(r.Context(), ch.String())
	if err != nil {
		http.Error(w, "failed to check active runs: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if active {
		http.Error(w, appErrors.NewRunConflict(ch.String()).Error(), http.StatusConflict)
		return
	}

	run := &runstore.CampaignRun{
		ID:         uuid.New().String(),
		CampaignID: campaignID,
		Channel:    ch.String(),
	}
	if err := c.Runs.Create(r.Context(), run); err != nil {
		http.Error(w, "failed to record run: "+err.Error(), http.StatusInternalServerError)
		return
	}

	job := dispatch.RunJob{
		RunID:      run.ID,
		CampaignID: campaignID,
		Channel:    ch.String(),
		ContactIDs: body.ContactIDs,
	}
	if err := c.Queue.Publish(RunsTopic, job); err != nil {
		c.Log.Errorw("failed to enqueue run", "run_id", run.ID, "error", err)
		// Close the run so its queued row cannot block the channel.
		if ferr := c.Runs.Finish(r.Context(), run.ID, nil, err); ferr != nil {
			c.Log.Errorw("failed to close unqueued run", "run_id", run.ID, "error", ferr)
		}
		http.Error(w, "failed to enqueue run", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"run_id":      run.ID,
		"campaign_id": campaignID,
		"channel":     ch.String(),
		"status":      "queued",
	})
}

// GetRun handles GET /runs/{id}.
func (c *OutreachController) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := c.Runs.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if run == nil {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(run)
}

// ListRuns handles GET /campaigns/{id}/runs.
func (c *OutreachController) ListRuns(w http.ResponseWriter, r *http.Request) {
	campaignID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}
	runs, err := c.Runs.ListByCampaign(r.Context(), campaignID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"data": runs})
}

// ListEligibleContacts handles GET /campaigns/{id}/eligible-contacts.
func (c *OutreachController) ListEligibleContacts(w http.ResponseWriter, r *http.Request) {
	campaignID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}
	ch, err := model.ParseChannel(r.URL.Query().Get("channel"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	contacts, err := c.Dispatcher.ListEligibleContacts(r.Context(), campaignID, ch)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data":  contacts,
		"count": len(contacts),
	})
}

// Healthz handles GET /healthz.
func (c *OutreachController) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
