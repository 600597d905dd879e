// internal/model/outreach_log.go
package model

import "time"

const (
	DirectionOutbound = "outbound"
	DirectionInbound  = "inbound"
)

// ChannelMapping links a contact to a campaign for one channel. The
// listing endpoint can return the same contact on more than one page, so
// the dispatcher dedups by contact id before dispatch.
type ChannelMapping struct {
	ID         int `json:"id"`
	CampaignID int `json:"campaign"`
	ContactID  int `json:"contact"`
	MethodCode int `json:"contact_method"`
}

// OutreachLogEntry is one row of the outreach ledger. The engine only ever
// appends outbound entries, and only after a confirmed send.
type OutreachLogEntry struct {
	CampaignID  int        `json:"campaign"`
	ContactID   int        `json:"contact"`
	SenderEmail string     `json:"sender_email"`
	Channel     string     `json:"channel"`
	Direction   string     `json:"direction"`
	Subject     *string    `json:"subject"`
	Body        string     `json:"body"`
	Note        string     `json:"note,omitempty"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
}
