// cmd/worker/main.go
package main

import (
	"context"
	"encoding/json"

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

// The worker consumes campaign run jobs from RabbitMQ and executes them
// strictly one at a time: the LinkedIn session is a single shared resource
// and sequential pacing is the anti-detection mechanism.
func main() {
	logger := zap.Must(zap.NewProduction())
	defer logger.Sync()
	sugar := logger.Sugar()

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
		sugar.Fatalw("failed to prepare session storage", "error", err)
	}
	linkedInSender := linkedin.New(linkedin.Config{
		Storage:      store,
		Pace:         pace,
		LoginTimeout: cfg.LoginTimeout,
		PollInterval: cfg.LoginPollInterval,
		ActuallySend: cfg.ActuallySend,
		Headless:     cfg.Headless,
	}, sugar)
	defer linkedInSender.Stop()

	runService := &dispatch.RunService{
		Dispatcher: &dispatch.Dispatcher{
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
		},
		Runs: runs,
		Log:  sugar,
	}

	q, err := queue.NewAMQPQueue(cfg.AMQPURL, sugar)
	if err != nil {
		sugar.Fatalw("failed to connect to queue", "error", err)
	}
	defer q.Close()

	err = q.Subscribe(controller.RunsTopic, func(payload any) error {
		body, ok := payload.([]byte)
		if !ok {
			sugar.Errorw("invalid delivery payload")
			return nil
		}
		var job dispatch.RunJob
		if err := json.Unmarshal(body, &job); err != nil {
			sugar.Errorw("invalid run job", "error", err)
			return nil
		}
		sugar.Infow("processing run job", "run_id", job.RunID,
			"campaign_id", job.CampaignID, "channel", job.Channel)
		return runService.Execute(context.Background(), job)
	})
	if err != nil {
		sugar.Fatalw("failed to register consumer", "error", err)
	}

	sugar.Info("worker running, waiting for run jobs")
	select {}
}
