package repository

import (
	"github.com/pdfcorretor/pdfcorretor/app/models"
	"gorm.io/gorm"
)

// layoutRepository implements the LayoutRepository interface
type layoutRepository struct {
	db *gorm.DB
}

// NewLayoutRepository creates a new layout repository instance
func NewLayoutRepository(db *gorm.DB) LayoutRepository {
	return &layoutRepository{db: db}
}

// Create creates a new layout in the database
func (r *layoutRepository) Create(layout *models.Layout) error {
	return r.db.Create(layout).Error
}

// GetByID retrieves a layout by its ID
func (r *layoutRepository) GetByID(id uint) (*models.Layout, error) {
	var layout models.Layout
	err := r.db.First(&layout, id).Error
	if err != nil {
		return nil, err
	}
	return &layout, nil
}

// GetBySlug retrieves a layout by its slug
func (r *layoutRepository) GetBySlug(slug string) (*models.Layout, error) {
	var layout models.Layout
	err := r.db.Where("slug = ?", slug).First(&layout).Error
	if err != nil {
		return nil, err
	}
	return &layout, nil
}

// ListActive retrieves all active layouts
func (r *layoutRepository) ListActive() ([]models.Layout, error) {
	var layouts []models.Layout
	err := r.db.Where("is_active = ?", true).Order("name ASC").Find(&layouts).Error
	return layouts, err
}

// Update updates an existing layout in the database
func (r *layoutRepository) Update(layout *models.Layout) error {
	return r.db.Save(layout).Error
}
