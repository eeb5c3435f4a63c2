package model

import "time"

const (
	MessageStatusSent   = "sent"
	MessageStatusFailed = "failed"
)

// OutboundMessage records the outcome of one paced send.
type OutboundMessage struct {
	ID              int       `db:"id" json:"id"`
	CampaignID      int       `db:"campaign_id" json:"campaign_id"`
	MSISDN          string    `db:"msisdn" json:"msisdn"`
	Status          string    `db:"status" json:"status"` // sent, failed
	RenderedContent string    `db:"rendered_content" json:"rendered_content"`
	LastError       string    `db:"last_error" json:"last_error,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

func IsValidMessageStatus(status string) bool {
	switch status {
	case MessageStatusSent, MessageStatusFailed:
		return true
	default:
		return false
	}
}
