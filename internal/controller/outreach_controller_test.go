package controller_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/carbonsustain/outreach-backend/internal/controller"
	"github.com/carbonsustain/outreach-backend/internal/dedup"
	"github.com/carbonsustain/outreach-backend/internal/dispatch"
	"github.com/carbonsustain/outreach-backend/internal/model"
	"github.com/carbonsustain/outreach-backend/internal/runstore"
)

type fakeRunStore struct {
	created []runstore.CampaignRun
	runs    map[string]*runstore.CampaignRun
	active  bool
}

func (f *fakeRunStore) ensure() {
	if f.runs == nil {
		f.runs = make(map[string]*runstore.CampaignRun)
	}
}

func (f *fakeRunStore) Create(ctx context.Context, run *runstore.CampaignRun) error {
	f.ensure()
	stored := *run
	stored.Status = "queued"
	f.runs[run.ID] = &stored
	f.created = append(f.created, stored)
	return nil
}

func (f *fakeRunStore) Finish(ctx context.Context, runID string, summary *model.SendSummary, runErr error) error {
	f.ensure()
	run, ok := f.runs[runID]
	if !ok {
		return fmt.Errorf("run %s not found", runID)
	}
	if runErr != nil {
		run.Status = "failed"
		run.LastError = runErr.Error()
	} else {
		run.Status = "completed"
	}
	return nil
}

func (f *fakeRunStore) GetByID(ctx context.Context, runID string) (*runstore.CampaignRun, error) {
	return f.runs[runID], nil
}

func (f *fakeRunStore) ListByCampaign(ctx context.Context, campaignID int) ([]runstore.CampaignRun, error) {
	var out []runstore.CampaignRun
	for _, run := range f.runs {
		if run.CampaignID == campaignID {
			out = append(out, *run)
		}
	}
	return out, nil
}

func (f *fakeRunStore) ActiveExists(ctx context.Context, channel string) (bool, error) {
	if f.active {
		return true, nil
	}
	for _, run := range f.runs {
		if run.Channel == channel && (run.Status == "queued" || run.Status == "running") {
			return true, nil
		}
	}
	return false, nil
}

type fakeQueue struct {
	published []any
	err       error
}

func (f *fakeQueue) Publish(topic string, payload any) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, payload)
	return nil
}

func (f *fakeQueue) Subscribe(topic string, handler func(payload any) error) error {
	return nil
}

type fakeContactSource struct {
	campaign *model.Campaign
	mappings []model.ChannelMapping
	contacts map[int]*model.Contact
}

func (f *fakeContactSource) GetCampaign(ctx context.Context, id int) (*model.Campaign, error) {
	return f.campaign, nil
}

func (f *fakeContactSource) ListChannelMappings(ctx context.Context, campaignID int, ch model.Channel) ([]model.ChannelMapping, error) {
	return f.mappings, nil
}

func (f *fakeContactSource) GetContact(ctx context.Context, id int) (*model.Contact, error) {
	c, ok := f.contacts[id]
	if !ok {
		return nil, fmt.Errorf("contact %d not found", id)
	}
	return c, nil
}

type emptyLedger struct{}

func (emptyLedger) ListLogEntries(ctx context.Context, campaignID, contactID int) ([]model.OutreachLogEntry, error) {
	return nil, nil
}

func (emptyLedger) AppendLogEntry(ctx context.Context, entry model.OutreachLogEntry) error {
	return nil
}

func newRouter(c *controller.OutreachController) *chi.Mux {
	r := chi.NewRouter()
	r.Post("/campaigns/{id}/run", c.RunCampaign)
	r.Get("/campaigns/{id}/runs", c.ListRuns)
	r.Get("/campaigns/{id}/eligible-contacts", c.ListEligibleContacts)
	r.Get("/runs/{id}", c.GetRun)
	r.Get("/healthz", c.Healthz)
	return r
}

func newController(store *fakeRunStore, q *fakeQueue, source *fakeContactSource) *controller.OutreachController {
	log := zap.NewNop().Sugar()
	return &controller.OutreachController{
		Dispatcher: &dispatch.Dispatcher{
			Source: source,
			Ledger: emptyLedger{},
			Guard:  &dedup.Guard{Ledger: emptyLedger{}, Log: log},
			Log:    log,
		},
		Runs:  store,
		Queue: q,
		Log:   log,
	}
}

func TestRunCampaignAccepted(t *testing.T) {
	store := &fakeRunStore{runs: map[string]*runstore.CampaignRun{}}
	q := &fakeQueue{}
	router := newRouter(newController(store, q, &fakeContactSource{}))

	body := bytes.NewBufferString(`{"channel":"email","contact_ids":[10,11]}`)
	req := httptest.NewRequest(http.MethodPost, "/campaigns/3/run", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "queued", resp["status"])
	assert.Equal(t, "email", resp["channel"])
	assert.NotEmpty(t, resp["run_id"])

	require.Len(t, store.created, 1)
	require.Len(t, q.published, 1)
	job, ok := q.published[0].(dispatch.RunJob)
	require.True(t, ok)
	assert.Equal(t, 3, job.CampaignID)
	assert.Equal(t, []int{10, 11}, job.ContactIDs)
	assert.Equal(t, store.created[0].ID, job.RunID)
}

func TestRunCampaignRejectsOverlap(t *testing.T) {
	store := &fakeRunStore{active: true}
	q := &fakeQueue{}
	router := newRouter(newController(store, q, &fakeContactSource{}))

	body := bytes.NewBufferString(`{"channel":"linkedin"}`)
	req := httptest.NewRequest(http.MethodPost, "/campaigns/3/run", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already active")
	assert.Empty(t, store.created)
	assert.Empty(t, q.published)
}

func TestRunCampaignFailedEnqueueDoesNotBlockRetry(t *testing.T) {
	store := &fakeRunStore{}
	q := &fakeQueue{err: errors.New("broker down")}
	router := newRouter(newController(store, q, &fakeContactSource{}))

	req := httptest.NewRequest(http.MethodPost, "/campaigns/3/run",
		bytes.NewBufferString(`{"channel":"email"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	// The run that never reached the queue is closed out, not left queued.
	require.Len(t, store.created, 1)
	run := store.runs[store.created[0].ID]
	require.NotNil(t, run)
	assert.Equal(t, "failed", run.Status)
	assert.Contains(t, run.LastError, "broker down")

	// With the broker back, the channel accepts the next run.
	q.err = nil
	req = httptest.NewRequest(http.MethodPost, "/campaigns/3/run",
		bytes.NewBufferString(`{"channel":"email"}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, q.published, 1)
}

func TestRunCampaignRejectsUnknownChannel(t *testing.T) {
	router := newRouter(newController(&fakeRunStore{}, &fakeQueue{}, &fakeContactSource{}))

	body := bytes.NewBufferString(`{"channel":"fax"}`)
	req := httptest.NewRequest(http.MethodPost, "/campaigns/3/run", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunCampaignRejectsBadID(t *testing.T) {
	router := newRouter(newController(&fakeRunStore{}, &fakeQueue{}, &fakeContactSource{}))

	req := httptest.NewRequest(http.MethodPost, "/campaigns/abc/run", bytes.NewBufferString(`{"channel":"email"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetRun(t *testing.T) {
	store := &fakeRunStore{runs: map[string]*runstore.CampaignRun{
		"run-1": {ID: "run-1", CampaignID: 3, Channel: "email", Status: "completed", Sent: 5},
	}}
	router := newRouter(newController(store, &fakeQueue{}, &fakeContactSource{}))

	req := httptest.NewRequest(http.MethodGet, "/runs/run-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var run runstore.CampaignRun
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, "completed", run.Status)
	assert.Equal(t, 5, run.Sent)
}

func TestGetRunNotFound(t *testing.T) {
	store := &fakeRunStore{runs: map[string]*runstore.CampaignRun{}}
	router := newRouter(newController(store, &fakeQueue{}, &fakeContactSource{}))

	req := httptest.NewRequest(http.MethodGet, "/runs/nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListEligibleContacts(t *testing.T) {
	source := &fakeContactSource{
		campaign: &model.Campaign{ID: 3},
		mappings: []model.ChannelMapping{
			{ID: 1, CampaignID: 3, ContactID: 10},
			{ID: 2, CampaignID: 3, ContactID: 11},
		},
		contacts: map[int]*model.Contact{
			10: {ID: 10, Email: "ada@example.com"},
			11: {ID: 11}, // no email, filtered out
		},
	}
	router := newRouter(newController(&fakeRunStore{}, &fakeQueue{}, source))

	req := httptest.NewRequest(http.MethodGet, "/campaigns/3/eligible-contacts?channel=email", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data  []model.Contact `json:"data"`
		Count int             `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, 10, resp.Data[0].ID)
}

func TestHealthz(t *testing.T) {
	router := newRouter(newController(&fakeRunStore{}, &fakeQueue{}, &fakeContactSource{}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
