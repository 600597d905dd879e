// internal/model/send_summary.go
package model

// SendSummary is the per-run outcome tally returned by the dispatcher.
// Per-contact problems land in these counters instead of aborting the run.
type SendSummary struct {
	CampaignID int    `json:"campaign_id"`
	Channel    string `json:"channel"`
	Attempted  int    `json:"attempted"`
	Sent       int    `json:"sent"`
	Skipped    int    `json:"skipped"`
	Failed     int    `json:"failed"`
	Drafted    int    `json:"drafted,omitempty"`
}
