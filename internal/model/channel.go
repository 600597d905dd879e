// internal/model/channel.go
package model

import (
	"fmt"
	"strings"
)

// Channel is the stable internal representation of a delivery medium.
// The system of record identifies channels by numeric contact-method codes
// that have drifted between revisions, so external codes are translated
// here at the boundary and never used directly.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelLinkedIn Channel = "linkedin"
)

// ParseChannel translates an external channel identifier (numeric code or
// string, in any casing) into a Channel.
func ParseChannel(raw string) (Channel, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "email", "2":
		return ChannelEmail, nil
	case "linkedin", "linkedin_message", "network", "network_message", "1", "4":
		return ChannelLinkedIn, nil
	}
	return "", fmt.Errorf("unknown channel %q", raw)
}

// Matches reports whether a ledger channel value refers to this channel.
// Ledger rows are written by more than one client, so the comparison is
// case-insensitive.
func (c Channel) Matches(raw string) bool {
	return strings.EqualFold(string(c), strings.TrimSpace(raw))
}

func (c Channel) String() string { return string(c) }
