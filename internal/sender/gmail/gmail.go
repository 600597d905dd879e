// internal/sender/gmail/gmail.go
package gmail

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"go.uber.org/zap"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/carbonsustain/outreach-backend/internal/sender"
)

// Scope is the only Gmail permission the engine needs.
const Scope = gmailapi.GmailSendScope

// Sender delivers email through the Gmail API. It is stateless per send:
// the message is built as MIME, base64url-encoded and submitted; the only
// cached state is the authenticated service handle.
type Sender struct {
	SenderEmail string
	TokenPath   string
	Log         *zap.SugaredLogger

	svc *gmailapi.Service
}

// FailureKind classifies a send failure by the API's reported status. All
// kinds are terminal for the contact being processed; none should retry.
type FailureKind string

const (
	FailureAuthorization    FailureKind = "authorization"
	FailureMalformedRequest FailureKind = "malformed_request"
	FailureTransport        FailureKind = "transport"
)

// Classify maps an error from the Gmail API onto a FailureKind.
func Classify(err error) FailureKind {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 401 || apiErr.Code == 403:
			return FailureAuthorization
		case apiErr.Code >= 400 && apiErr.Code < 500:
			return FailureMalformedRequest
		}
	}
	return FailureTransport
}

func (s *Sender) service(ctx context.Context) (*gmailapi.Service, error) {
	if s.svc != nil {
		return s.svc, nil
	}
	ts, err := tokenSource(ctx, s.TokenPath)
	if err != nil {
		return nil, fmt.Errorf("gmail credentials: %w", err)
	}
	svc, err := gmailapi.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, err
	}
	s.svc = svc
	return svc, nil
}

// Send builds the MIME message and submits it. A failure is classified and
// wrapped but never panics; the dispatcher records it and moves on.
func (s *Sender) Send(ctx context.Context, req sender.Request) (sender.Outcome, error) {
	svc, err := s.service(ctx)
	if err != nil {
		return sender.Outcome{}, fmt.Errorf("%s: %w", FailureAuthorization, err)
	}

	raw := base64.URLEncoding.EncodeToString(BuildMIME(s.SenderEmail, req.Address, req.Subject, req.Body))
	msg, err := svc.Users.Messages.Send("me", &gmailapi.Message{Raw: raw}).Context(ctx).Do()
	if err != nil {
		kind := Classify(err)
		s.Log.Errorw("gmail send failed", "to", req.Address, "kind", kind, "error", err)
		return sender.Outcome{}, fmt.Errorf("%s: %w", kind, err)
	}

	s.Log.Infow("email sent", "to", req.Address, "message_id", msg.Id)
	return sender.Outcome{Sent: true, MessageID: msg.Id}, nil
}
