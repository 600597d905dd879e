// internal/sender/resendmail/resend.go
package resendmail

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"

	"github.com/carbonsustain/outreach-backend/internal/sender"
)

// Sender is the Resend-backed alternative to the Gmail sender, for
// deployments without a Google Workspace account. Same contract: stateless
// per call, terminal classified failures.
type Sender struct {
	client *resend.Client
	from   string
	log    *zap.SugaredLogger
}

func New(apiKey, from string, log *zap.SugaredLogger) *Sender {
	return &Sender{
		client: resend.NewClient(apiKey),
		from:   from,
		log:    log,
	}
}

func (s *Sender) Send(ctx context.Context, req sender.Request) (sender.Outcome, error) {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{req.Address},
		Subject: req.Subject,
		Html:    req.Body,
	}
	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		s.log.Errorw("resend send failed", "to", req.Address, "error", err)
		return sender.Outcome{}, fmt.Errorf("resend send failed: %w", err)
	}
	s.log.Infow("email sent", "to", req.Address, "message_id", sent.Id)
	return sender.Outcome{Sent: true, MessageID: sent.Id}, nil
}
