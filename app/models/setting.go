package models

import (
	"time"

	"gorm.io/gorm"
)

// Setting keys used by the core components.
const (
	SettingMsgAccept     = "msg_accept"
	SettingMsgAdjust     = "msg_adjust"
	SettingAcceptMessage = "wa_accept_message"
	SettingAdjustMessage = "wa_adjust_message"
)

// Setting is a key/value admin setting (outbound message templates and
// similar back-office knobs).
type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"column:setting_key;size:255;not null;uniqueIndex" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetSettingValue returns the stored value or "" when the key is unset.
func GetSettingValue(db *gorm.DB, key string) (string, error) {
	var setting Setting
	err := db.Where("setting_key = ?", key).First(&setting).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", nil
		}
		return "", err
	}
	return setting.Value, nil
}
