package proposalflow

import (
	"github.com/pdfcorretor/pdfcorretor/app/models"
	"github.com/pdfcorretor/pdfcorretor/app/repository"
	"gorm.io/gorm"
)

// Repository provides DB operations used by the proposal flow service.
type Repository interface {
	GetProposalByPublicRef(ref string) (*models.Proposal, error)
	UpdateStatus(proposalID uint, status string) error
	CreateEvent(event *models.ProposalEvent) error
	GetSettingValue(key string) (string, error)
}

type gormRepository struct {
	db       *gorm.DB
	settings repository.SettingRepository
}

// NewRepository creates a proposal flow repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db, settings: repository.NewSettingRepository(db)}
}

func (r *gormRepository) GetProposalByPublicRef(ref string) (*models.Proposal, error) {
	var proposal models.Proposal
	err := r.db.Preload("Property").Preload("User").
		Where("public_ref = ?", ref).
		First(&proposal).Error
	if err != nil {
		return nil, err
	}
	return &proposal, nil
}

// UpdateStatus persists the status unconditionally: client links are not
// single-use, repeated clicks overwrite.
func (r *gormRepository) UpdateStatus(proposalID uint, status string) error {
	return r.db.Model(&models.Proposal{}).
		Where("id = ?", proposalID).
		Update("status", status).Error
}

func (r *gormRepository) CreateEvent(event *models.ProposalEvent) error {
	return r.db.Create(event).Error
}

func (r *gormRepository) GetSettingValue(key string) (string, error) {
	return r.settings.GetValue(key)
}
