package app

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pyropuff/pyroshop/config"
	"github.com/pyropuff/pyroshop/internal/domain"
	"github.com/pyropuff/pyroshop/pkg/common"
)

func newSettingsApp(t *testing.T) *Application {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", common.UUID())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(domain.Tables...))

	cfg := &config.AppConfig{}
	cfg.Shipping.FreeThreshold = "100"
	cfg.Shipping.FlatRate = "10"
	cfg.Shipping.Currency = "usd"

	a := NewApplication(cfg)
	a.OverrideDB(db)
	return a
}

func TestSaveSettingUpsert(t *testing.T) {
	a := newSettingsApp(t)

	require.NoError(t, a.SaveSetting(SettingsTypeShipping, SettingsFlatRate, "12.50"))
	assert.Equal(t, "12.50", a.GetSettingsStringValue(SettingsTypeShipping, SettingsFlatRate))

	require.NoError(t, a.SaveSetting(SettingsTypeShipping, SettingsFlatRate, "8"))
	assert.Equal(t, "8", a.GetSettingsStringValue(SettingsTypeShipping, SettingsFlatRate))

	var count int64
	a.DB().Model(&domain.SysConfig{}).
		Where("type = ? AND name = ?", SettingsTypeShipping, SettingsFlatRate).
		Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestSettingsTypedGetters(t *testing.T) {
	a := newSettingsApp(t)

	require.NoError(t, a.SaveSetting(SettingsTypeSystem, "max_items", "42"))
	require.NoError(t, a.SaveSetting(SettingsTypeSystem, "maintenance", "true"))

	assert.EqualValues(t, 42, a.GetSettingsInt64Value(SettingsTypeSystem, "max_items"))
	assert.True(t, a.GetSettingsBoolValue(SettingsTypeSystem, "maintenance"))
	assert.Empty(t, a.GetSettingsStringValue(SettingsTypeSystem, "missing"))
}

func TestShippingSettingsFallBackToConfig(t *testing.T) {
	a := newSettingsApp(t)

	// empty settings table falls back to the boot config
	assert.True(t, a.ShippingFreeThreshold().Equal(decimalFromString(t, "100")))
	assert.True(t, a.ShippingFlatRate().Equal(decimalFromString(t, "10")))
	assert.Equal(t, "usd", a.Currency())

	// table rows shadow the config without a restart
	require.NoError(t, a.SaveSetting(SettingsTypeShipping, SettingsFreeThreshold, "250"))
	require.NoError(t, a.SaveSetting(SettingsTypeSystem, SettingsCurrency, "eur"))

	assert.True(t, a.ShippingFreeThreshold().Equal(decimalFromString(t, "250")))
	assert.Equal(t, "eur", a.Currency())
}

func decimalFromString(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}
