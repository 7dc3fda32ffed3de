package repository

import (
	"time"

	"github.com/pdfcorretor/pdfcorretor/app/models"
	"github.com/pdfcorretor/pdfcorretor/internal/pkg/cache"
	"gorm.io/gorm"
)

const (
	settingCachePrefix = "setting:"
	settingCacheTTL    = 5 * time.Minute
)

// settingRepository implements the SettingRepository interface
type settingRepository struct {
	db *gorm.DB
}

// NewSettingRepository creates a new setting repository instance
func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &settingRepository{db: db}
}

// GetValue retrieves a setting value, preferring the redis cache. Cache
// misses and redis outages fall back to the database.
func (r *settingRepository) GetValue(key string) (string, error) {
	if v, err := cache.Get(settingCachePrefix + key); err == nil && v != "" {
		return v, nil
	}

	value, err := models.GetSettingValue(r.db, key)
	if err != nil {
		return "", err
	}
	if value != "" {
		// Best-effort cache fill.
		_ = cache.Set(settingCachePrefix+key, value, settingCacheTTL)
	}
	return value, nil
}

// SetValue sets a specific setting value by key
func (r *settingRepository) SetValue(key, value string) error {
	var setting models.Setting
	// Correct column is `setting_key` (see gorm tag in models.Setting)
	err := r.db.Where("setting_key = ?", key).First(&setting).Error

	if err == gorm.ErrRecordNotFound {
		setting = models.Setting{
			Key:   key,
			Value: value,
		}
		err = r.db.Create(&setting).Error
	} else if err != nil {
		return err
	} else {
		setting.Value = value
		err = r.db.Save(&setting).Error
	}
	if err != nil {
		return err
	}

	// Drop the cached value so readers see the new one immediately.
	_ = cache.Delete(settingCachePrefix + key)
	return nil
}
