package models

import "time"

const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusTrialing = "trialing"
	SubscriptionStatusPastDue  = "past_due"
	SubscriptionStatusCanceled = "canceled"
)

// Subscription mirrors a payment-gateway subscription. It is keyed by the
// gateway's subscription id so repeated or out-of-order webhook deliveries
// upsert instead of duplicating. Written only by internal/pkg/billing.
type Subscription struct {
	ID                    uint       `gorm:"primaryKey" json:"id"`
	UserID                uint       `gorm:"not null;index" json:"user_id"`
	Plan                  string     `gorm:"type:varchar(20);not null" json:"plan"`
	Status                string     `gorm:"type:varchar(32);not null;default:'active';index" json:"status"`
	GatewaySubscriptionID string     `gorm:"type:varchar(191);not null;uniqueIndex" json:"gateway_subscription_id"`
	CurrentPeriodStart    *time.Time `gorm:"type:timestamp;default:null" json:"current_period_start,omitempty"`
	CurrentPeriodEnd      *time.Time `gorm:"type:timestamp;default:null" json:"current_period_end,omitempty"`
	CreatedAt             time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsEntitling reports whether the subscription status still grants plan
// benefits. past_due keeps access until the gateway gives up retrying.
func (s *Subscription) IsEntitling() bool {
	switch s.Status {
	case SubscriptionStatusActive, SubscriptionStatusTrialing, SubscriptionStatusPastDue:
		return true
	default:
		return false
	}
}
