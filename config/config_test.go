package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))

	assert.Equal(t, "PyroShop", cfg.System.Appid)
	assert.Equal(t, 8000, cfg.Web.Port)
	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, "100", cfg.Shipping.FreeThreshold)
	assert.Equal(t, "10", cfg.Shipping.FlatRate)
	assert.Equal(t, "usd", cfg.Shipping.Currency)
}

func TestLoadConfigFromFile(t *testing.T) {
	cfile := filepath.Join(t.TempDir(), "pyroshop.yml")
	require.NoError(t, os.WriteFile(cfile, []byte(`
system:
  appid: TestShop
  app_url: https://shop.example.com
web:
  port: 9000
shipping:
  free_threshold: "200"
  flat_rate: "15"
  currency: eur
`), 0644))

	cfg := LoadConfig(cfile)
	assert.Equal(t, "TestShop", cfg.System.Appid)
	assert.Equal(t, "https://shop.example.com", cfg.System.AppURL)
	assert.Equal(t, 9000, cfg.Web.Port)
	assert.Equal(t, "200", cfg.Shipping.FreeThreshold)
	assert.Equal(t, "eur", cfg.Shipping.Currency)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("PYROSHOP_WEB_PORT", "8443")
	t.Setenv("PYROSHOP_DB_TYPE", "sqlite")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_env")
	t.Setenv("PYROSHOP_SHIPPING_CURRENCY", "zar")

	cfg := LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Equal(t, 8443, cfg.Web.Port)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "whsec_env", cfg.Stripe.WebhookSecret)
	assert.Equal(t, "zar", cfg.Shipping.Currency)
}
