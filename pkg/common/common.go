package common

import (
	"crypto/sha256"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

const (
	ENABLED  = "enabled"
	DISABLED = "disabled"
)

var snowflakeNode *snowflake.Node

func init() {
	var err error
	snowflakeNode, err = snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
}

// UUIDint64 returns a snowflake id used as primary key for all entities.
func UUIDint64() int64 {
	return snowflakeNode.Generate().Int64()
}

// UUID returns a random string identifier.
func UUID() string {
	return uuid.NewString()
}

// NewGuestToken mints an opaque token identifying an anonymous shopper.
// Clients persist it locally; it substitutes for a user id.
func NewGuestToken() string {
	return "guest_" + uuid.NewString()
}

// Slugify converts a product name to a unique-index friendly URL slug.
func Slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

// Sha256Hash returns the hex sha256 of the given string.
func Sha256Hash(src string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(src)))
}

// GetSecretSalt reads the instance salt from the environment, falling
// back to a fixed development value.
func GetSecretSalt() string {
	if salt := os.Getenv("PYROSHOP_SECRET_SALT"); salt != "" {
		return salt
	}
	return "pyroshop-dev-salt"
}
