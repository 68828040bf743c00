package app

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pyropuff/pyroshop/internal/domain"
	"github.com/pyropuff/pyroshop/pkg/common"
)

func (a *Application) checkSuper() {
	const superUsername = "admin"
	const defaultPassword = "pyroshop"

	var operator domain.SysOpr
	err := a.gormDB.Where("username = ?", superUsername).First(&operator).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		hashed, herr := bcrypt.GenerateFromPassword([]byte(defaultPassword), bcrypt.DefaultCost)
		if herr != nil {
			zap.L().Error("failed to hash default super admin password", zap.Error(herr))
			return
		}
		if err := a.gormDB.Create(&domain.SysOpr{
			ID:        common.UUIDint64(),
			Realname:  "administrator",
			Mobile:    "0000",
			Email:     "N/A",
			Username:  superUsername,
			Password:  string(hashed),
			Level:     "super",
			Status:    common.ENABLED,
			Remark:    "super",
			LastLogin: time.Now(),
		}).Error; err != nil {
			zap.L().Error("failed to create default super admin", zap.Error(err))
		} else {
			zap.L().Info("initialized default super admin account", zap.String("username", superUsername))
		}
	case err != nil:
		zap.L().Error("failed to query super admin", zap.Error(err))
	}
}

type settingSeed struct {
	Type   string
	Name   string
	Value  string
	Remark string
}

func (a *Application) checkSettings() {
	seeds := []settingSeed{
		{SettingsTypeShipping, SettingsFreeThreshold, a.appConfig.Shipping.FreeThreshold, "Subtotal above which shipping is free"},
		{SettingsTypeShipping, SettingsFlatRate, a.appConfig.Shipping.FlatRate, "Flat shipping rate below the free threshold"},
		{SettingsTypeSystem, SettingsCurrency, a.appConfig.Shipping.Currency, "Store currency code"},
	}

	for sort, seed := range seeds {
		var cfg domain.SysConfig
		err := a.gormDB.Where("type = ? and name = ?", seed.Type, seed.Name).First(&cfg).Error
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err := a.gormDB.Create(&domain.SysConfig{
			ID:        common.UUIDint64(),
			Sort:      sort,
			Type:      seed.Type,
			Name:      seed.Name,
			Value:     seed.Value,
			Remark:    seed.Remark,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}).Error; err != nil {
			zap.L().Error("failed to seed setting",
				zap.String("type", seed.Type), zap.String("name", seed.Name), zap.Error(err))
		}
	}
}
