package config

import (
	"fmt"
	"os"
	"path"
	"strconv"

	"gopkg.in/yaml.v3"
)

type SysConfig struct {
	Appid    string `yaml:"appid" json:"appid"`
	Location string `yaml:"location" json:"location"`
	Workdir  string `yaml:"workdir" json:"workdir"`
	Debug    bool   `yaml:"debug" json:"debug"`
	// AppURL is the public base URL used when building payment redirect links
	AppURL string `yaml:"app_url" json:"app_url"`
}

type WebConfig struct {
	Host   string `yaml:"host" json:"host"`
	Port   int    `yaml:"port" json:"port"`
	Secret string `yaml:"secret" json:"secret"`
}

type DBConfig struct {
	Type     string `yaml:"type" json:"type"`
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Name     string `yaml:"name" json:"name"`
	User     string `yaml:"user" json:"user"`
	Passwd   string `yaml:"passwd" json:"passwd"`
	MaxConn  int    `yaml:"max_conn" json:"max_conn"`
	IdleConn int    `yaml:"idle_conn" json:"idle_conn"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type StripeConfig struct {
	SecretKey     string `yaml:"secret_key" json:"secret_key"`
	WebhookSecret string `yaml:"webhook_secret" json:"webhook_secret"`
}

// ShippingConfig holds the boot defaults for shipping charges.
// Runtime values are kept in the sys_config table and may be changed
// from the admin API without a restart.
type ShippingConfig struct {
	FreeThreshold string `yaml:"free_threshold" json:"free_threshold"`
	FlatRate      string `yaml:"flat_rate" json:"flat_rate"`
	Currency      string `yaml:"currency" json:"currency"`
}

type SmtpConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
	From     string `yaml:"from" json:"from"`
}

type LogConfig struct {
	Mode       string `yaml:"mode" json:"mode"`
	FileEnable bool   `yaml:"file_enable" json:"file_enable"`
	Filename   string `yaml:"filename" json:"filename"`
}

type AppConfig struct {
	System   SysConfig      `yaml:"system" json:"system"`
	Web      WebConfig      `yaml:"web" json:"web"`
	Database DBConfig       `yaml:"database" json:"database"`
	Stripe   StripeConfig   `yaml:"stripe" json:"stripe"`
	Shipping ShippingConfig `yaml:"shipping" json:"shipping"`
	Smtp     SmtpConfig     `yaml:"smtp" json:"smtp"`
	Logger   LogConfig      `yaml:"logger" json:"logger"`
}

func (c *AppConfig) GetLogDir() string {
	return path.Join(c.System.Workdir, "logs")
}

func (c *AppConfig) GetDataDir() string {
	return path.Join(c.System.Workdir, "data")
}

func (c *AppConfig) InitDirs() {
	_ = os.MkdirAll(path.Join(c.System.Workdir, "logs"), 0755)
	_ = os.MkdirAll(path.Join(c.System.Workdir, "data"), 0755)
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "PyroShop",
		Location: "Africa/Johannesburg",
		Workdir:  "/var/pyroshop",
		Debug:    true,
		AppURL:   "http://127.0.0.1:8000",
	},
	Web: WebConfig{
		Host:   "0.0.0.0",
		Port:   8000,
		Secret: "9b6de5cc-0731-4bf1-xpmi-0f568ac9da37",
	},
	Database: DBConfig{
		Type:     "postgres",
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "pyroshop",
		User:     "postgres",
		Passwd:   "myroot",
		MaxConn:  100,
		IdleConn: 10,
	},
	Shipping: ShippingConfig{
		FreeThreshold: "100",
		FlatRate:      "10",
		Currency:      "usd",
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: true,
		Filename:   "/var/pyroshop/pyroshop.log",
	},
}

func setEnvValue(name string, val *string) {
	if evalue := os.Getenv(name); evalue != "" {
		*val = evalue
	}
}

func setEnvIntValue(name string, val *int) {
	if evalue := os.Getenv(name); evalue != "" {
		if p, err := strconv.ParseInt(evalue, 10, 64); err == nil {
			*val = int(p)
		}
	}
}

func setEnvBoolValue(name string, val *bool) {
	if evalue := os.Getenv(name); evalue != "" {
		*val = evalue == "true" || evalue == "1" || evalue == "on"
	}
}

// LoadConfig reads the YAML config file when present and applies
// PYROSHOP_* environment overrides on top of it.
func LoadConfig(cfile string) *AppConfig {
	cfg := DefaultAppConfig
	if cfile != "" {
		if data, err := os.ReadFile(cfile); err == nil {
			cfg = new(AppConfig)
			if err := yaml.Unmarshal(data, cfg); err != nil {
				fmt.Fprintf(os.Stderr, "parse config %s error: %v\n", cfile, err)
				os.Exit(1)
			}
		}
	}

	setEnvValue("PYROSHOP_SYSTEM_WORKDIR", &cfg.System.Workdir)
	setEnvValue("PYROSHOP_SYSTEM_LOCATION", &cfg.System.Location)
	setEnvValue("PYROSHOP_SYSTEM_APP_URL", &cfg.System.AppURL)
	setEnvBoolValue("PYROSHOP_SYSTEM_DEBUG", &cfg.System.Debug)

	setEnvValue("PYROSHOP_WEB_HOST", &cfg.Web.Host)
	setEnvIntValue("PYROSHOP_WEB_PORT", &cfg.Web.Port)
	setEnvValue("PYROSHOP_WEB_SECRET", &cfg.Web.Secret)

	setEnvValue("PYROSHOP_DB_TYPE", &cfg.Database.Type)
	setEnvValue("PYROSHOP_DB_HOST", &cfg.Database.Host)
	setEnvIntValue("PYROSHOP_DB_PORT", &cfg.Database.Port)
	setEnvValue("PYROSHOP_DB_NAME", &cfg.Database.Name)
	setEnvValue("PYROSHOP_DB_USER", &cfg.Database.User)
	setEnvValue("PYROSHOP_DB_PWD", &cfg.Database.Passwd)
	setEnvBoolValue("PYROSHOP_DB_DEBUG", &cfg.Database.Debug)

	setEnvValue("STRIPE_SECRET_KEY", &cfg.Stripe.SecretKey)
	setEnvValue("STRIPE_WEBHOOK_SECRET", &cfg.Stripe.WebhookSecret)

	setEnvValue("PYROSHOP_SHIPPING_FREE_THRESHOLD", &cfg.Shipping.FreeThreshold)
	setEnvValue("PYROSHOP_SHIPPING_FLAT_RATE", &cfg.Shipping.FlatRate)
	setEnvValue("PYROSHOP_SHIPPING_CURRENCY", &cfg.Shipping.Currency)

	setEnvBoolValue("PYROSHOP_SMTP_ENABLED", &cfg.Smtp.Enabled)
	setEnvValue("PYROSHOP_SMTP_HOST", &cfg.Smtp.Host)
	setEnvIntValue("PYROSHOP_SMTP_PORT", &cfg.Smtp.Port)
	setEnvValue("PYROSHOP_SMTP_USERNAME", &cfg.Smtp.Username)
	setEnvValue("PYROSHOP_SMTP_PASSWORD", &cfg.Smtp.Password)
	setEnvValue("PYROSHOP_SMTP_FROM", &cfg.Smtp.From)

	setEnvValue("PYROSHOP_LOGGER_MODE", &cfg.Logger.Mode)
	setEnvBoolValue("PYROSHOP_LOGGER_FILE_ENABLE", &cfg.Logger.FileEnable)
	setEnvValue("PYROSHOP_LOGGER_FILENAME", &cfg.Logger.Filename)

	return cfg
}
