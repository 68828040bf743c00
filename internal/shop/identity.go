package shop

import "gorm.io/gorm"

// Identity is the owner of a cart or order: either an authenticated
// user id or an anonymous guest token, never both.
type Identity struct {
	UserID     string
	GuestToken string
}

func UserIdentity(userID string) Identity {
	return Identity{UserID: userID}
}

func GuestIdentity(token string) Identity {
	return Identity{GuestToken: token}
}

func (id Identity) IsUser() bool {
	return id.UserID != ""
}

func (id Identity) Valid() bool {
	return id.UserID != "" || id.GuestToken != ""
}

// scope narrows a query to rows owned by this identity.
func (id Identity) scope(db *gorm.DB) *gorm.DB {
	if id.IsUser() {
		return db.Where("user_id = ?", id.UserID)
	}
	return db.Where("guest_token = ?", id.GuestToken)
}
