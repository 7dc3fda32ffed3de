package billing

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pdfcorretor/pdfcorretor/app/models"
)

// Repository provides DB operations used by the billing service.
type Repository interface {
	UpsertSubscription(sub *models.Subscription) error
	GetSubscriptionByGatewayID(gatewaySubscriptionID string) (*models.Subscription, error)
	UpdateSubscriptionStatus(gatewaySubscriptionID, status string) (bool, error)
	CreatePaymentIfNotExists(payment *models.Payment) (bool, error)
	DeletePaymentByGatewayID(gatewayPaymentID string) error
	CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) UpsertSubscription(sub *models.Subscription) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "gateway_subscription_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_id",
			"plan",
			"status",
			"current_period_start",
			"current_period_end",
			"updated_at",
		}),
	}).Create(sub).Error; err != nil {
		return err
	}

	// Ensure ID is populated after upsert.
	return r.db.Where("gateway_subscription_id = ?", sub.GatewaySubscriptionID).
		First(sub).Error
}

func (r *gormRepository) GetSubscriptionByGatewayID(gatewaySubscriptionID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("gateway_subscription_id = ?", gatewaySubscriptionID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// UpdateSubscriptionStatus flips the status of a known subscription and
// reports whether any row matched.
func (r *gormRepository) UpdateSubscriptionStatus(gatewaySubscriptionID, status string) (bool, error) {
	tx := r.db.Model(&models.Subscription{}).
		Where("gateway_subscription_id = ?", gatewaySubscriptionID).
		Update("status", status)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// CreatePaymentIfNotExists inserts a payment keyed by its gateway
// payment id, skipping silently on redelivery. The returned bool is
// true only for the first insert; credit grants must key off it.
func (r *gormRepository) CreatePaymentIfNotExists(payment *models.Payment) (bool, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "gateway_payment_id"},
		},
		DoNothing: true,
	}).Create(payment)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// DeletePaymentByGatewayID rolls a payment insert back so a webhook
// redelivery can retry the grant that failed after it.
func (r *gormRepository) DeletePaymentByGatewayID(gatewayPaymentID string) error {
	return r.db.Where("gateway_payment_id = ?", gatewayPaymentID).
		Delete(&models.Payment{}).Error
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.BillingWebhookEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.BillingWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
