package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Proposal status lifecycle. generated-pending and generated are
// distinguished by the presence of a document URL; accepted and
// changes-requested are set through the public client action and stay
// overwritable (links in sent documents are not single-use).
const (
	ProposalStatusPending          = "generated-pending"
	ProposalStatusGenerated        = "generated"
	ProposalStatusAccepted         = "accepted"
	ProposalStatusChangesRequested = "changes-requested"
)

// Proposal is a sales proposal an agent sends to a client as a generated
// document. PublicRef is the only identifier exposed on unauthenticated
// links. LayoutID is overwritten at generation time with the account's
// active layout; it reflects the current rendering truth, not the layout
// chosen at creation time.
type Proposal struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	PublicRef       string         `gorm:"type:varchar(16);not null;uniqueIndex" json:"public_ref"`
	UserID          uint           `gorm:"not null;index" json:"user_id"`
	PropertyID      uint           `gorm:"not null;index" json:"property_id"`
	ClientName      string         `gorm:"type:varchar(150);not null" json:"client_name" validate:"required,min=2,max=150"`
	Unit            string         `gorm:"type:varchar(50);default:null" json:"unit" validate:"max=50"`
	FinalPriceCents int64          `gorm:"not null;default:0" json:"final_price_cents" validate:"gte=0"`
	DiscountCents   int64          `gorm:"not null;default:0" json:"discount_cents" validate:"gte=0"`
	PaymentTerms    StringList     `gorm:"type:text" json:"payment_terms" validate:"required,min=1,max=6"`
	LayoutID        *uint          `gorm:"index;default:null" json:"layout_id"`
	Status          string         `gorm:"type:varchar(32);not null;default:'generated-pending';index" json:"status"`
	DocumentURL     string         `gorm:"type:varchar(500);default:null" json:"document_url"`
	AcceptClicks    int64          `gorm:"not null;default:0" json:"accept_clicks"`
	AdjustClicks    int64          `gorm:"not null;default:0" json:"adjust_clicks"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	Property *Property `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
	User     *User     `gorm:"foreignKey:UserID" json:"-"`
}

func (p *Proposal) Validate() error {
	v := validator.New()

	return v.Struct(p)
}

// OriginalPriceCents is the price before discount shown on documents.
func (p *Proposal) OriginalPriceCents() int64 {
	return p.FinalPriceCents + p.DiscountCents
}

// IsValidProposalStatus reports whether s is a known lifecycle status.
func IsValidProposalStatus(s string) bool {
	switch s {
	case ProposalStatusPending, ProposalStatusGenerated, ProposalStatusAccepted, ProposalStatusChangesRequested:
		return true
	default:
		return false
	}
}
