// internal/sender/sender.go
package sender

import "context"

// Request is one delivery: Address is an email address or a profile URL
// depending on the channel; Subject is empty for the LinkedIn channel.
type Request struct {
	Address string
	Subject string
	Body    string
}

// Outcome reports what actually happened. Drafted means the full pipeline
// ran but the confirm-send step was deliberately skipped (draft mode); it
// is terminal and not an error. Only Sent outcomes are written to the
// ledger.
type Outcome struct {
	Sent      bool
	Drafted   bool
	MessageID string
}

// ChannelSender delivers one message through one channel. Errors are
// terminal for that contact but must never take down the dispatch loop.
type ChannelSender interface {
	Send(ctx context.Context, req Request) (Outcome, error)
}
