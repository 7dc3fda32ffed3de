package repository

import (
	"github.com/pdfcorretor/pdfcorretor/app/models"
	"gorm.io/gorm"
)

// proposalRepository implements the ProposalRepository interface
type proposalRepository struct {
	db *gorm.DB
}

// NewProposalRepository creates a new proposal repository instance
func NewProposalRepository(db *gorm.DB) ProposalRepository {
	return &proposalRepository{db: db}
}

// Create creates a new proposal in the database
func (r *proposalRepository) Create(proposal *models.Proposal) error {
	return r.db.Create(proposal).Error
}

// GetByIDForUser retrieves a proposal scoped to its owner, with the
// property preloaded. Rows owned by other users come back as
// record-not-found.
func (r *proposalRepository) GetByIDForUser(id, userID uint) (*models.Proposal, error) {
	var proposal models.Proposal
	err := r.db.Preload("Property").
		Where("id = ? AND user_id = ?", id, userID).
		First(&proposal).Error
	if err != nil {
		return nil, err
	}
	return &proposal, nil
}

// GetByPublicRef retrieves a proposal by its public reference
func (r *proposalRepository) GetByPublicRef(ref string) (*models.Proposal, error) {
	var proposal models.Proposal
	err := r.db.Preload("Property").Preload("User").
		Where("public_ref = ?", ref).
		First(&proposal).Error
	if err != nil {
		return nil, err
	}
	return &proposal, nil
}

// ListByUser retrieves a user's proposals with pagination
func (r *proposalRepository) ListByUser(userID uint, offset, limit int) ([]models.Proposal, error) {
	var proposals []models.Proposal
	err := r.db.Preload("Property").
		Where("user_id = ?", userID).
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&proposals).Error
	return proposals, err
}

// ListByUserAndStatus retrieves a user's proposals in one lifecycle status
func (r *proposalRepository) ListByUserAndStatus(userID uint, status string, offset, limit int) ([]models.Proposal, error) {
	var proposals []models.Proposal
	err := r.db.Preload("Property").
		Where("user_id = ? AND status = ?", userID, status).
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&proposals).Error
	return proposals, err
}

// Update updates an existing proposal in the database
func (r *proposalRepository) Update(proposal *models.Proposal) error {
	return r.db.Save(proposal).Error
}

// Delete removes a proposal, scoped to its owner
func (r *proposalRepository) Delete(id, userID uint) error {
	return r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Proposal{}).Error
}

// CountByUser returns the number of proposals a user owns
func (r *proposalRepository) CountByUser(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Proposal{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// CountByUserAndStatus returns the number of a user's proposals in a status
func (r *proposalRepository) CountByUserAndStatus(userID uint, status string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Proposal{}).
		Where("user_id = ? AND status = ?", userID, status).
		Count(&count).Error
	return count, err
}
