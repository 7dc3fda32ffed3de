package models

import (
	"time"

	"gorm.io/gorm"
)

// CreditBalance tracks the proposal-generation credits of one account.
// Monthly credits reset on subscription renewal, extra credits never
// expire. Only internal/pkg/credits mutates this table; every mutation
// is a single guarded UPDATE so concurrent generations cannot overdraw.
type CreditBalance struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	MonthlyLimit   int       `gorm:"not null;default:0" json:"monthly_limit"`
	MonthlyUsed    int       `gorm:"not null;default:0" json:"monthly_used"`
	ExtraAvailable int       `gorm:"not null;default:0" json:"extra_available"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// MonthlyRemaining returns the unused part of the monthly allotment.
func (b *CreditBalance) MonthlyRemaining() int {
	remaining := b.MonthlyLimit - b.MonthlyUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// TotalAvailable returns all credits the account may still spend.
func (b *CreditBalance) TotalAvailable() int {
	return b.MonthlyRemaining() + b.ExtraAvailable
}

// GetOrCreateCreditBalance returns the existing balance row or creates an
// empty one so guarded updates always have a row to hit.
func GetOrCreateCreditBalance(db *gorm.DB, userID uint) (*CreditBalance, error) {
	var balance CreditBalance
	err := db.Where("user_id = ?", userID).First(&balance).Error
	if err == nil {
		return &balance, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	balance = CreditBalance{UserID: userID}
	if err := db.Create(&balance).Error; err != nil {
		// Lost a race against a concurrent creator; re-read.
		if rerr := db.Where("user_id = ?", userID).First(&balance).Error; rerr == nil {
			return &balance, nil
		}
		return nil, err
	}
	return &balance, nil
}
