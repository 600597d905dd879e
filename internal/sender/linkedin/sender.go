// internal/sender/linkedin/sender.go
package linkedin

import (
	"context"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/carbonsustain/outreach-backend/internal/pacing"
	"github.com/carbonsustain/outreach-backend/internal/sender"
	"github.com/carbonsustain/outreach-backend/internal/session"
)

// Config carries everything the LinkedIn sender needs. ActuallySend=false
// is draft mode: the whole pipeline runs, including authentication and
// message insertion, but the confirm-send action is never invoked.
type Config struct {
	Storage      *session.Store
	Pace         pacing.Window
	LoginTimeout time.Duration
	PollInterval time.Duration
	ActuallySend bool
	Headless     bool
}

// Sender delivers LinkedIn DMs by driving a real browser. It owns one
// browser for its lifetime; deliveries are strictly sequential because the
// persisted session is a single shared resource.
type Sender struct {
	cfg Config
	log *zap.SugaredLogger

	pw      *playwright.Playwright
	browser playwright.Browser
}

func New(cfg Config, log *zap.SugaredLogger) *Sender {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 3 * time.Second
	}
	if cfg.LoginTimeout == 0 {
		cfg.LoginTimeout = 10 * time.Minute
	}
	return &Sender{cfg: cfg, log: log}
}

// Start launches the browser. Headless is off by default because the
// manual-login fallback needs a window an operator can type into.
func (s *Sender) Start() error {
	if s.browser != nil {
		return nil
	}
	pw, err := playwright.Run()
	if err != nil {
		return fmt.Errorf("start playwright: %w", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(s.cfg.Headless),
		SlowMo:   playwright.Float(150),
	})
	if err != nil {
		pw.Stop()
		return fmt.Errorf("launch browser: %w", err)
	}
	s.pw = pw
	s.browser = browser
	return nil
}

// Stop closes the browser and the Playwright driver.
func (s *Sender) Stop() {
	if s.browser != nil {
		s.browser.Close()
		s.browser = nil
	}
	if s.pw != nil {
		s.pw.Stop()
		s.pw = nil
	}
}

// Send delivers one DM to the profile URL in req.Address. The browser
// context is rebuilt per contact from the persisted session state; the
// state machine in machine.go decides every transition.
//
// ErrLoginTimeout is run-fatal; any other error fails only this contact.
func (s *Sender) Send(ctx context.Context, req sender.Request) (sender.Outcome, error) {
	if err := s.Start(); err != nil {
		return sender.Outcome{}, err
	}

	opts := playwright.BrowserNewContextOptions{}
	if s.cfg.Storage.Exists() {
		s.log.Infow("loading saved session", "path", s.cfg.Storage.Path)
		opts.StorageStatePath = playwright.String(s.cfg.Storage.Path)
	}
	browserCtx, err := s.browser.NewContext(opts)
	if err != nil {
		return sender.Outcome{}, fmt.Errorf("browser context: %w", err)
	}
	defer browserCtx.Close()

	page, err := browserCtx.NewPage()
	if err != nil {
		return sender.Outcome{}, fmt.Errorf("new page: %w", err)
	}

	s.log.Infow("opening profile", "url", req.Address)
	if _, err := page.Goto(req.Address, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(120_000),
	}); err != nil {
		return sender.Outcome{}, fmt.Errorf("open profile: %w", err)
	}

	surf := &pageSurface{
		page:        page,
		browserCtx:  browserCtx,
		profileURL:  req.Address,
		storagePath: s.cfg.Storage.Path,
		log:         s.log,
	}

	state, err := runMachine(ctx, surf, req.Body, machineConfig{
		ActuallySend: s.cfg.ActuallySend,
		Pace:         s.cfg.Pace,
		LoginTimeout: s.cfg.LoginTimeout,
		PollInterval: s.cfg.PollInterval,
	}, s.log)

	switch state {
	case StateSent:
		s.log.Infow("message sent", "url", req.Address)
		return sender.Outcome{Sent: true}, nil
	case StateDrafted:
		s.log.Infow("message drafted, not sent", "url", req.Address)
		return sender.Outcome{Drafted: true}, nil
	case StateTimedOut:
		return sender.Outcome{}, err
	default:
		return sender.Outcome{}, fmt.Errorf("delivery failed in state %s: %w", state, err)
	}
}
