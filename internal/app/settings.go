package app

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"gorm.io/gorm"

	"github.com/pyropuff/pyroshop/internal/domain"
	"github.com/pyropuff/pyroshop/pkg/common"
)

// Settings categories and keys in the sys_config table.
const (
	SettingsTypeShipping = "shipping"
	SettingsTypeSystem   = "system"

	SettingsFreeThreshold = "free_threshold"
	SettingsFlatRate      = "flat_rate"
	SettingsCurrency      = "currency"
)

// GetSettingsStringValue retrieves a string configuration value
func (a *Application) GetSettingsStringValue(category, key string) string {
	var cfg domain.SysConfig
	if err := a.gormDB.Where("type = ? and name = ?", category, key).First(&cfg).Error; err != nil {
		return ""
	}
	return cfg.Value
}

// GetSettingsInt64Value retrieves an int64 configuration value
func (a *Application) GetSettingsInt64Value(category, key string) int64 {
	return cast.ToInt64(a.GetSettingsStringValue(category, key))
}

// GetSettingsBoolValue retrieves a boolean configuration value
func (a *Application) GetSettingsBoolValue(category, key string) bool {
	return cast.ToBool(a.GetSettingsStringValue(category, key))
}

// SaveSetting upserts one configuration value
func (a *Application) SaveSetting(category, key, value string) error {
	var cfg domain.SysConfig
	err := a.gormDB.Where("type = ? and name = ?", category, key).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return a.gormDB.Create(&domain.SysConfig{
			ID:        common.UUIDint64(),
			Type:      category,
			Name:      key,
			Value:     value,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}).Error
	}
	if err != nil {
		return err
	}
	return a.gormDB.Model(&cfg).Updates(map[string]interface{}{
		"value":      value,
		"updated_at": time.Now(),
	}).Error
}

// The three methods below satisfy shop.ShopSettings, falling back to
// the boot config when the settings table has no row yet.

func (a *Application) ShippingFreeThreshold() decimal.Decimal {
	return a.settingDecimal(SettingsTypeShipping, SettingsFreeThreshold, a.appConfig.Shipping.FreeThreshold)
}

func (a *Application) ShippingFlatRate() decimal.Decimal {
	return a.settingDecimal(SettingsTypeShipping, SettingsFlatRate, a.appConfig.Shipping.FlatRate)
}

func (a *Application) Currency() string {
	if v := a.GetSettingsStringValue(SettingsTypeSystem, SettingsCurrency); v != "" {
		return v
	}
	return a.appConfig.Shipping.Currency
}

func (a *Application) settingDecimal(category, key, fallback string) decimal.Decimal {
	v := a.GetSettingsStringValue(category, key)
	if v == "" {
		v = fallback
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero
	}
	return d
}
