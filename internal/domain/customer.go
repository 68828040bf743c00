package domain

import "time"

const (
	AddressTypeShipping = "shipping"
	AddressTypeBilling  = "billing"
)

// Customer extends an externally-authenticated identity with shop
// profile fields. ID is issued by the auth provider, not by us. Role
// gates both pricing tier and admin access.
type Customer struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id" form:"id"`
	Email     string    `gorm:"index;size:200" json:"email" form:"email"`
	FirstName string    `json:"first_name" form:"first_name"`
	LastName  string    `json:"last_name" form:"last_name"`
	Phone     string    `gorm:"size:32" json:"phone" form:"phone"`
	Role      string    `gorm:"index;size:32" json:"role" form:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Customer) TableName() string {
	return "users_extension"
}

// Address is a shipping or billing destination. UserID is empty for
// addresses captured during guest checkout.
type Address struct {
	ID          int64     `json:"id,string" form:"id"`
	UserID      string    `gorm:"index;size:64" json:"user_id" form:"user_id"`
	Type        string    `gorm:"size:16" json:"type" form:"type"`
	FullName    string    `json:"full_name" form:"full_name"`
	AddressLine string    `json:"address_line" form:"address_line"`
	City        string    `json:"city" form:"city"`
	Province    string    `json:"province" form:"province"`
	PostalCode  string    `gorm:"size:16" json:"postal_code" form:"postal_code"`
	Country     string    `gorm:"size:64" json:"country" form:"country"`
	Phone       string    `gorm:"size:32" json:"phone" form:"phone"`
	IsDefault   bool      `json:"is_default" form:"is_default"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Address) TableName() string {
	return "addresses"
}
