package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Property is a listing registered by an agent. The core components only
// read it; all mutation happens in the CRUD layer.
type Property struct {
	ID         uint             `gorm:"primaryKey" json:"id"`
	UserID     uint             `gorm:"not null;index" json:"user_id"`
	Name       string           `gorm:"type:varchar(200);not null" json:"name" validate:"required,min=3,max=200"`
	Address    string           `gorm:"type:varchar(255);not null" json:"address" validate:"required,max=255"`
	PriceCents int64            `gorm:"not null;default:0" json:"price_cents" validate:"gte=0"`
	SqMeters   int              `gorm:"not null;default:0" json:"sq_meters" validate:"gte=0"`
	Images     StringList       `gorm:"type:text" json:"images"`
	Features   PropertyFeatures `gorm:"type:text" json:"features"`
	CreatedAt  time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt   `gorm:"index" json:"-"`
}

func (p *Property) Validate() error {
	v := validator.New()

	return v.Struct(p)
}
