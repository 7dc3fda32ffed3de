package repository

import (
	"github.com/pdfcorretor/pdfcorretor/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, error)
	Update(user *models.User) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
}

// PropertyRepository defines the interface for property-related database operations
type PropertyRepository interface {
	Create(property *models.Property) error
	GetByIDForUser(id, userID uint) (*models.Property, error)
	ListByUser(userID uint, offset, limit int) ([]models.Property, error)
	Update(property *models.Property) error
	Delete(id, userID uint) error
	CountByUser(userID uint) (int64, error)
}

// ProposalRepository defines the interface for proposal-related database operations
type ProposalRepository interface {
	Create(proposal *models.Proposal) error
	GetByIDForUser(id, userID uint) (*models.Proposal, error)
	GetByPublicRef(ref string) (*models.Proposal, error)
	ListByUser(userID uint, offset, limit int) ([]models.Proposal, error)
	ListByUserAndStatus(userID uint, status string, offset, limit int) ([]models.Proposal, error)
	Update(proposal *models.Proposal) error
	Delete(id, userID uint) error
	CountByUser(userID uint) (int64, error)
	CountByUserAndStatus(userID uint, status string) (int64, error)
}

// LayoutRepository defines the interface for document layout operations
type LayoutRepository interface {
	Create(layout *models.Layout) error
	GetByID(id uint) (*models.Layout, error)
	GetBySlug(slug string) (*models.Layout, error)
	ListActive() ([]models.Layout, error)
	Update(layout *models.Layout) error
}

// SettingRepository defines the interface for application settings
type SettingRepository interface {
	GetValue(key string) (string, error)
	SetValue(key, value string) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	User     UserRepository
	Property PropertyRepository
	Proposal ProposalRepository
	Layout   LayoutRepository
	Setting  SettingRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:     NewUserRepository(db),
		Property: NewPropertyRepository(db),
		Proposal: NewProposalRepository(db),
		Layout:   NewLayoutRepository(db),
		Setting:  NewSettingRepository(db),
	}
}
