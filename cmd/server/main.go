// cmd/server/main.go
package main

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/carbonsustain/outreach-backend/internal/config"
	"github.com/carbonsustain/outreach-backend/internal/controller"
	"github.com/carbonsustain/outreach-backend/internal/crm"
	"github.com/carbonsustain/outreach-backend/internal/dedup"
	"github.com/carbonsustain/outreach-backend/internal/dispatch"
	"github.com/carbonsustain/outreach-backend/internal/model"
	"github.com/carbonsustain/outreach-backend/internal/pacing"
	"github.com/carbonsustain/outreach-backend/internal/queue"
	"github.com/carbonsustain/outreach-backend/internal/runstore"
	"github.com/carbonsustain/outreach-backend/internal/sender"
	"github.com/carbonsustain/outreach-backend/internal/sender/gmail"
	"github.com/carbonsustain/outreach-backend/internal/sender/linkedin"
	"github.com/carbonsustain/outreach-backend/internal/sender/noop"
	"github.com/carbonsustain/outreach-backend/internal/sender/resendmail"
	"github.com/carbonsustain/outreach-backend/internal/session"
)

func main() {
	logger := zap.Must(zap.NewProduction())
	defer logger.Sync()
	sugar := logger.Sugar()

	// Load .env
	if err := godotenv.Load(); err != nil {
		sugar.Info("no .env file found, relying on OS environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		sugar.Fatalw("invalid configuration", "error", err)
	}

	db, err := runstore.Open(cfg.DatabaseURL)
	if err != nil {
		sugar.Fatalw("failed to connect to database", "error", err)
	}
	runs := &runstore.RunRepository{DB: db}
	if err := runs.Init(context.Background()); err != nil {
		sugar.Fatalw("failed to init run history", "error", err)
	}

	dispatcher, linkedInSender, err := buildDispatcher(cfg, sugar)
	if err != nil {
		sugar.Fatalw("failed to build dispatcher", "error", err)
	}
	defer linkedInSender.Stop()

	runService := &dispatch.RunService{
		Dispatcher: dispatcher,
		Runs:       runs,
		Log:        sugar,
	}

	// Single-binary mode: run jobs execute in-process off the in-memory
	// queue. Production deployments point the controller at AMQP and run
	// cmd/worker instead.
	q := queue.NewInMemoryQueue(sugar)
	q.Subscribe(controller.RunsTopic, func(payload any) error {
		job, ok := payload.(dispatch.RunJob)
		if !ok {
			sugar.Errorw("invalid run job payload", "payload", payload)
			return nil
		}
		if err := runService.Execute(context.Background(), job); err != nil {
			sugar.Errorw("campaign run failed", "run_id", job.RunID, "error", err)
		}
		// The outcome is already in the run history; never requeue.
		return nil
	})

	outreachController := &controller.OutreachController{
		Dispatcher: dispatcher,
		Runs:       runs,
		Queue:      q,
		Log:        sugar,
	}

	r := chi.NewRouter()
	r.Post("/campaigns/{id}/run", outreachController.RunCampaign)
	r.Get("/campaigns/{id}/runs", outreachController.ListRuns)
	r.Get("/campaigns/{id}/eligible-contacts", outreachController.ListEligibleContacts)
	r.Get("/runs/{id}", outreachController.GetRun)
	r.Get("/healthz", outreachController.Healthz)

	sugar.Infow("server running", "addr", cfg.Addr)
	sugar.Fatal(http.ListenAndServe(cfg.Addr, r))
}

// buildDispatcher wires the engine: CRM client, dedup guard, renderer-fed
// channel senders, pacing window.
func buildDispatcher(cfg *config.Config, sugar *zap.SugaredLogger) (*dispatch.Dispatcher, *linkedin.Sender, error) {
	crmClient := crm.New(cfg.BaseURL, cfg.APIToken,
		cfg.EmailMethodCode, cfg.LinkedInMethodCode, cfg.HTTPTimeout, sugar)

	pace := pacing.Window{Min: cfg.SendMinDelay, Max: cfg.SendMaxDelay}

	var emailSender sender.ChannelSender
	switch cfg.EmailProvider {
	case "resend":
		emailSender = resendmail.New(cfg.ResendAPIKey, cfg.SenderEmail, sugar)
	case "noop":
		emailSender = &noop.Sender{Log: sugar}
	default:
		emailSender = &gmail.Sender{
			SenderEmail: cfg.SenderEmail,
			TokenPath:   cfg.GmailTokenPath,
			Log:         sugar,
		}
	}

	store, err := session.New(cfg.LinkedInStoragePath)
	if err != nil {
		return nil, nil, err
	}
	linkedInSender := linkedin.New(linkedin.Config{
		Storage:      store,
		Pace:         pace,
		LoginTimeout: cfg.LoginTimeout,
		PollInterval: cfg.LoginPollInterval,
		ActuallySend: cfg.ActuallySend,
		Headless:     cfg.Headless,
	}, sugar)

	dispatcher := &dispatch.Dispatcher{
		Source: crmClient,
		Ledger: crmClient,
		Guard:  &dedup.Guard{Ledger: crmClient, Log: sugar},
		Senders: map[model.Channel]sender.ChannelSender{
			model.ChannelEmail:    emailSender,
			model.ChannelLinkedIn: linkedInSender,
		},
		Pace:        pace,
		SenderEmail: cfg.SenderEmail,
		Log:         sugar,
	}
	return dispatcher, linkedInSender, nil
}
