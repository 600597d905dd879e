// internal/sender/noop/noop.go
package noop

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/carbonsustain/outreach-backend/internal/sender"
)

// Sender logs deliveries without performing them. Used in development and
// in tests of the surrounding service.
type Sender struct {
	Log *zap.SugaredLogger
}

func (s *Sender) Send(_ context.Context, req sender.Request) (sender.Outcome, error) {
	s.Log.Infow("noop send", "to", req.Address, "subject", req.Subject)
	return sender.Outcome{
		Sent:      true,
		MessageID: fmt.Sprintf("noop-%d", time.Now().UnixNano()),
	}, nil
}
