package models

import "time"

const (
	ProposalEventAccept         = "accept"
	ProposalEventRequestChanges = "request-changes"
)

// ProposalEvent is a best-effort analytics record of a public client
// action. Writing it must never fail the status update it describes.
type ProposalEvent struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ProposalID uint      `gorm:"not null;index" json:"proposal_id"`
	Action     string    `gorm:"type:varchar(32);not null" json:"action"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
