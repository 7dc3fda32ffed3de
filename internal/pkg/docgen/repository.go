package docgen

import (
	"errors"

	"github.com/pdfcorretor/pdfcorretor/app/models"
	"github.com/pdfcorretor/pdfcorretor/app/repository"
	"gorm.io/gorm"
)

// Repository provides the DB operations the orchestrator needs.
type Repository interface {
	GetProposalForUser(proposalID, userID uint) (*models.Proposal, error)
	GetUser(id uint) (*models.User, error)
	GetLayout(id uint) (*models.Layout, error)
	GetLayoutBySlug(slug string) (*models.Layout, error)
	GetSettingValue(key string) (string, error)
	MarkGenerated(proposalID uint, documentURL string, layoutID uint) error
}

type gormRepository struct {
	db       *gorm.DB
	settings repository.SettingRepository
}

// NewRepository creates a docgen repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db, settings: repository.NewSettingRepository(db)}
}

// GetProposalForUser loads a proposal with its property, scoped to the
// owning account. A foreign proposal id behaves exactly like a missing
// one.
func (r *gormRepository) GetProposalForUser(proposalID, userID uint) (*models.Proposal, error) {
	var proposal models.Proposal
	err := r.db.Preload("Property").
		Where("id = ? AND user_id = ?", proposalID, userID).
		First(&proposal).Error
	if err != nil {
		return nil, err
	}
	return &proposal, nil
}

func (r *gormRepository) GetUser(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormRepository) GetLayout(id uint) (*models.Layout, error) {
	var layout models.Layout
	if err := r.db.Where("id = ? AND is_active = ?", id, true).First(&layout).Error; err != nil {
		return nil, err
	}
	return &layout, nil
}

func (r *gormRepository) GetLayoutBySlug(slug string) (*models.Layout, error) {
	var layout models.Layout
	if err := r.db.Where("slug = ? AND is_active = ?", slug, true).First(&layout).Error; err != nil {
		return nil, err
	}
	return &layout, nil
}

func (r *gormRepository) GetSettingValue(key string) (string, error) {
	return r.settings.GetValue(key)
}

// MarkGenerated persists the rendered document URL, the layout that was
// actually used, and the generated status in one write.
func (r *gormRepository) MarkGenerated(proposalID uint, documentURL string, layoutID uint) error {
	tx := r.db.Model(&models.Proposal{}).
		Where("id = ?", proposalID).
		Updates(map[string]interface{}{
			"document_url": documentURL,
			"layout_id":    layoutID,
			"status":       models.ProposalStatusGenerated,
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return errors.New("proposal row vanished during generation")
	}
	return nil
}
