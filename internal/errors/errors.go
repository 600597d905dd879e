// internal/errors/errors.go
package appErrors

import "fmt"

// ErrCampaignNotFound is a sentinel error
type ErrCampaignNotFound struct {
	CampaignID int
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %d not found", e.CampaignID)
}

// Helper constructor
func NewCampaignNotFound(id int) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

// ErrRunConflict signals that a run is already active for a channel. The
// session-automated channel holds one shared browser session, so
// overlapping runs are rejected at the request layer.
type ErrRunConflict struct {
	Channel string
}

func (e *ErrRunConflict) Error() string {
	return fmt.Sprintf("a %s campaign run is already active", e.Channel)
}

func NewRunConflict(channel string) error {
	return &ErrRunConflict{Channel: channel}
}
