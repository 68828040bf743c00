package common

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Roman Candle":           "roman-candle",
		"  Sky Lantern  ":        "sky-lantern",
		"100 Shot Cake!":         "100-shot-cake",
		"Ñandú Édition":          "ñandú-édition",
		"--weird---input--":      "weird-input",
		"UPPER case MIX":         "upper-case-mix",
		"dots.and/slashes\\here": "dots-and-slashes-here",
		"":                       "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), "input %q", in)
	}
}

func TestUUIDint64Unique(t *testing.T) {
	seen := make(map[int64]bool)
	for i := 0; i < 1000; i++ {
		id := UUIDint64()
		assert.Positive(t, id)
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
}

func TestNewGuestToken(t *testing.T) {
	first := NewGuestToken()
	second := NewGuestToken()
	assert.True(t, strings.HasPrefix(first, "guest_"))
	assert.NotEqual(t, first, second)
}

func TestSha256Hash(t *testing.T) {
	assert.Equal(t,
		"2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		Sha256Hash("hello"))
}
