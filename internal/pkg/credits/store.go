package credits

import (
	"time"

	"github.com/pdfcorretor/pdfcorretor/app/models"
	"gorm.io/gorm"
)

// Store provides the balance operations used by the Ledger. The consume
// operations are guarded conditional updates evaluated by the database,
// never read-then-write from application code: two concurrent requests
// observing "1 credit left" must not both succeed.
type Store interface {
	GetBalance(userID uint) (*models.CreditBalance, error)
	EnsureBalance(userID uint) (*models.CreditBalance, error)
	ConsumeMonthly(userID uint) (bool, error)
	ConsumeExtra(userID uint) (bool, error)
	RefundMonthly(userID uint) error
	RefundExtra(userID uint) error
	Adjust(userID uint, monthlyDelta, extraDelta int) error
	Reset(userID uint, monthlyLimit int) error
}

type gormStore struct {
	db *gorm.DB
}

// NewStore creates a credit balance store backed by GORM.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) GetBalance(userID uint) (*models.CreditBalance, error) {
	var balance models.CreditBalance
	if err := s.db.Where("user_id = ?", userID).First(&balance).Error; err != nil {
		return nil, err
	}
	return &balance, nil
}

func (s *gormStore) EnsureBalance(userID uint) (*models.CreditBalance, error) {
	return models.GetOrCreateCreditBalance(s.db, userID)
}

// ConsumeMonthly burns one monthly credit iff the allotment is not
// exhausted. The WHERE clause is the race guard; RowsAffected tells the
// caller whether this request won a credit.
func (s *gormStore) ConsumeMonthly(userID uint) (bool, error) {
	tx := s.db.Model(&models.CreditBalance{}).
		Where("user_id = ? AND monthly_used < monthly_limit", userID).
		Updates(map[string]interface{}{
			"monthly_used": gorm.Expr("monthly_used + 1"),
			"updated_at":   time.Now(),
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (s *gormStore) ConsumeExtra(userID uint) (bool, error) {
	tx := s.db.Model(&models.CreditBalance{}).
		Where("user_id = ? AND extra_available > 0", userID).
		Updates(map[string]interface{}{
			"extra_available": gorm.Expr("extra_available - 1"),
			"updated_at":      time.Now(),
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// RefundMonthly undoes one monthly consume. Floored at zero: refunding an
// untouched balance is a no-op, not an error.
func (s *gormStore) RefundMonthly(userID uint) error {
	return s.db.Model(&models.CreditBalance{}).
		Where("user_id = ? AND monthly_used > 0", userID).
		Updates(map[string]interface{}{
			"monthly_used": gorm.Expr("monthly_used - 1"),
			"updated_at":   time.Now(),
		}).Error
}

func (s *gormStore) RefundExtra(userID uint) error {
	return s.db.Model(&models.CreditBalance{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"extra_available": gorm.Expr("extra_available + 1"),
			"updated_at":      time.Now(),
		}).Error
}

// Adjust applies signed deltas to monthly_limit and extra_available,
// clamped at zero in SQL so admin corrections can never drive a balance
// negative.
func (s *gormStore) Adjust(userID uint, monthlyDelta, extraDelta int) error {
	return s.db.Model(&models.CreditBalance{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"monthly_limit":   gorm.Expr("GREATEST(monthly_limit + ?, 0)", monthlyDelta),
			"extra_available": gorm.Expr("GREATEST(extra_available + ?, 0)", extraDelta),
			"updated_at":      time.Now(),
		}).Error
}

func (s *gormStore) Reset(userID uint, monthlyLimit int) error {
	if monthlyLimit < 0 {
		monthlyLimit = 0
	}
	return s.db.Model(&models.CreditBalance{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"monthly_limit": monthlyLimit,
			"monthly_used":  0,
			"updated_at":    time.Now(),
		}).Error
}
