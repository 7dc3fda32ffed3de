package models

import "time"

// Layout is a document template/branding option. TemplateRef is the
// template identifier at the external document generator.
type Layout struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Slug        string    `gorm:"type:varchar(100);not null;uniqueIndex" json:"slug"`
	Name        string    `gorm:"type:varchar(150);not null" json:"name"`
	TemplateRef string    `gorm:"type:varchar(191);not null" json:"template_ref"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
