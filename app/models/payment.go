package models

import "time"

const (
	PaymentTypeSubscription = "subscription"
	PaymentTypeExtra        = "extra"

	PaymentStatusCompleted = "completed"
)

// Payment is an append-only audit record of money received. The unique
// gateway payment id doubles as the idempotency key: redelivered webhook
// events insert-or-skip instead of double-recording (and double-granting).
type Payment struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           uint      `gorm:"not null;index" json:"user_id"`
	Type             string    `gorm:"type:varchar(20);not null" json:"type"`
	AmountCents      int64     `gorm:"not null;default:0" json:"amount_cents"`
	Status           string    `gorm:"type:varchar(32);not null;default:'completed'" json:"status"`
	GatewayPaymentID string    `gorm:"type:varchar(191);not null;uniqueIndex" json:"gateway_payment_id"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
}
