package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category groups products; a category may nest under a parent.
type Category struct {
	ID        int64     `json:"id,string" form:"id"`
	ParentID  *int64    `gorm:"index" json:"parent_id,omitempty" form:"parent_id"`
	Name      string    `gorm:"index" json:"name" form:"name"`
	Slug      string    `gorm:"uniqueIndex;size:200" json:"slug" form:"slug"`
	Remark    string    `json:"remark" form:"remark"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Category) TableName() string {
	return "categories"
}

// Product is a catalog item. Products referenced by orders are never
// deleted, only disabled via Active=false.
type Product struct {
	ID          int64     `json:"id,string" form:"id"`
	CategoryID  *int64    `gorm:"index" json:"category_id,omitempty" form:"category_id"`
	Name        string    `gorm:"index" json:"name" form:"name"`
	Slug        string    `gorm:"uniqueIndex;size:200" json:"slug" form:"slug"`
	Description string    `json:"description" form:"description"`
	Sku         string    `gorm:"size:64" json:"sku" form:"sku"`
	Stock       int       `json:"stock" form:"stock"`
	Active      bool      `gorm:"index" json:"active" form:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

// ProductImage references an object-storage path; Position orders the
// gallery, the lowest position is the primary image.
type ProductImage struct {
	ID          int64     `json:"id,string" form:"id"`
	ProductID   int64     `gorm:"index" json:"product_id,string" form:"product_id"`
	StoragePath string    `gorm:"size:1024" json:"storage_path" form:"storage_path"`
	Position    int       `json:"position" form:"position"`
	CreatedAt   time.Time `json:"created_at"`
}

func (ProductImage) TableName() string {
	return "product_images"
}

// ProductPrice is a role-keyed price list entry, at most one per
// (product, role). Price must be positive when present.
type ProductPrice struct {
	ID        int64           `json:"id,string" form:"id"`
	ProductID int64           `gorm:"uniqueIndex:uk_product_role" json:"product_id,string" form:"product_id"`
	Role      string          `gorm:"uniqueIndex:uk_product_role;size:32" json:"role" form:"role"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2)" json:"price" form:"price"`
	Currency  string          `gorm:"size:8" json:"currency" form:"currency"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (ProductPrice) TableName() string {
	return "product_prices"
}
