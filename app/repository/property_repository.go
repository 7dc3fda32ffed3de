package repository

import (
	"github.com/pdfcorretor/pdfcorretor/app/models"
	"gorm.io/gorm"
)

// propertyRepository implements the PropertyRepository interface
type propertyRepository struct {
	db *gorm.DB
}

// NewPropertyRepository creates a new property repository instance
func NewPropertyRepository(db *gorm.DB) PropertyRepository {
	return &propertyRepository{db: db}
}

// Create creates a new property in the database
func (r *propertyRepository) Create(property *models.Property) error {
	return r.db.Create(property).Error
}

// GetByIDForUser retrieves a property scoped to its owner. Rows owned by
// other users come back as record-not-found.
func (r *propertyRepository) GetByIDForUser(id, userID uint) (*models.Property, error) {
	var property models.Property
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&property).Error
	if err != nil {
		return nil, err
	}
	return &property, nil
}

// ListByUser retrieves a user's properties with pagination
func (r *propertyRepository) ListByUser(userID uint, offset, limit int) ([]models.Property, error) {
	var properties []models.Property
	err := r.db.Where("user_id = ?", userID).
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&properties).Error
	return properties, err
}

// Update updates an existing property in the database
func (r *propertyRepository) Update(property *models.Property) error {
	return r.db.Save(property).Error
}

// Delete removes a property, scoped to its owner
func (r *propertyRepository) Delete(id, userID uint) error {
	return r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Property{}).Error
}

// CountByUser returns the number of properties a user owns
func (r *propertyRepository) CountByUser(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Property{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
