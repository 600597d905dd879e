// internal/sender/linkedin/machine.go
package linkedin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/carbonsustain/outreach-backend/internal/pacing"
)

// ErrLoginTimeout means the operator did not complete the manual login in
// time. The shared session cannot proceed, so this aborts the whole run,
// not just the contact.
var ErrLoginTimeout = errors.New("login not completed before timeout")

// observation is a snapshot of the page state the machine decides on.
type observation struct {
	AuthedIndicator bool
	LoginIndicator  bool
	URL             string
}

type authStatus int

const (
	authUnknown authStatus = iota
	authOK
	authLoginWall
)

// classifyAuth is the pure login-detection decision. Authenticated
// indicators win over login indicators; absence of both is "not yet",
// never an error. URL heuristics break ties when no indicator matched.
func classifyAuth(obs observation) authStatus {
	if obs.AuthedIndicator {
		return authOK
	}
	if obs.LoginIndicator {
		return authLoginWall
	}
	url := strings.ToLower(obs.URL)
	if strings.Contains(url, "login") || strings.Contains(url, "challenge") {
		return authLoginWall
	}
	if strings.Contains(url, "/in/") {
		return authOK
	}
	return authUnknown
}

// surface is the slice of browser behavior the machine drives. The
// playwright implementation lives in page.go; tests substitute a fake.
type surface interface {
	// Observe snapshots the indicators the auth decision needs.
	Observe() observation
	// Restore re-navigates to the target profile after a manual login.
	Restore() error
	// PersistSession writes the authenticated session state to durable
	// storage.
	PersistSession() error
	// OpenCompose locates and activates the message control.
	OpenCompose() error
	// InsertMessage locates the editable surface and inserts the text.
	InsertMessage(text string) error
	// ConfirmSend invokes the send control.
	ConfirmSend() error
}

type machineConfig struct {
	ActuallySend bool
	Pace         pacing.Window
	LoginTimeout time.Duration
	PollInterval time.Duration
}

// runMachine drives one delivery to a terminal state. Failures after
// authentication never undo the session persistence that already happened:
// the login cost is paid at most once across runs.
func runMachine(ctx context.Context, surf surface, message string, cfg machineConfig, log *zap.SugaredLogger) (State, error) {
	state := StateStart

	switch classifyAuth(surf.Observe()) {
	case authOK:
		state = StateAuthenticated
	default:
		state = StateUnauthenticated
		log.Infow("not authenticated, waiting for manual login", "state", state, "timeout", cfg.LoginTimeout)
		state = StateAwaitingManualLogin
		ok := pacing.PollUntil(ctx, cfg.PollInterval, cfg.LoginTimeout, func() bool {
			return classifyAuth(surf.Observe()) == authOK
		})
		if !ok {
			return StateTimedOut, ErrLoginTimeout
		}
		state = StateAuthenticated
	}

	// Persist immediately on the authentication transition, before anything
	// downstream can fail.
	if err := surf.PersistSession(); err != nil {
		log.Warnw("could not persist session state", "error", err)
	}

	if err := surf.Restore(); err != nil {
		return StateFailed, fmt.Errorf("restore profile page: %w", err)
	}

	if err := surf.OpenCompose(); err != nil {
		return StateFailed, err
	}
	state = StateComposeOpened
	log.Debugw("compose control activated", "state", state)

	if err := surf.InsertMessage(message); err != nil {
		return StateFailed, err
	}
	state = StateMessageEntered
	log.Debugw("message inserted", "state", state)

	// Short human-like pause between typing and sending, drawn from the
	// same window semantics as the dispatcher's inter-contact jitter but
	// independently.
	if err := cfg.Pace.Sleep(ctx); err != nil {
		return StateFailed, err
	}

	if !cfg.ActuallySend {
		log.Infow("draft mode, stopping before send", "state", state)
		return StateDrafted, nil
	}

	if err := surf.ConfirmSend(); err != nil {
		return StateFailed, err
	}
	return StateSent, nil
}
