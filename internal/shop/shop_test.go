package shop

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pyropuff/pyroshop/internal/domain"
	"github.com/pyropuff/pyroshop/pkg/common"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", common.UUID())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(domain.Tables...))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, name string) *domain.Product {
	t.Helper()
	product := &domain.Product{
		ID:        common.UUIDint64(),
		Name:      name,
		Slug:      common.Slugify(name),
		Stock:     100,
		Active:    true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func seedPrice(t *testing.T, db *gorm.DB, productID int64, role, price string) {
	t.Helper()
	require.NoError(t, db.Create(&domain.ProductPrice{
		ID:        common.UUIDint64(),
		ProductID: productID,
		Role:      role,
		Price:     dec(price),
		Currency:  "usd",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}).Error)
}

func seedCustomer(t *testing.T, db *gorm.DB, userID, role string) {
	t.Helper()
	require.NoError(t, db.Create(&domain.Customer{
		ID:        userID,
		Email:     userID + "@example.com",
		Role:      role,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}).Error)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// fixedSettings is a ShopSettings stub with constant values.
type fixedSettings struct {
	freeThreshold string
	flatRate      string
	currency      string
}

func (f fixedSettings) ShippingFreeThreshold() decimal.Decimal { return dec(f.freeThreshold) }
func (f fixedSettings) ShippingFlatRate() decimal.Decimal     { return dec(f.flatRate) }
func (f fixedSettings) Currency() string                      { return f.currency }

var defaultSettings = fixedSettings{freeThreshold: "100", flatRate: "10", currency: "usd"}
