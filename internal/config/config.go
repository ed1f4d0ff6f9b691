package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Port     string `mapstructure:"PORT"`
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`
	GinMode  string `mapstructure:"GIN_MODE"`

	// Mail account used both to authenticate and as the From address.
	EmailUser        string `mapstructure:"EMAIL_USER"`
	EmailAppPassword string `mapstructure:"EMAIL_APP_PASSWORD"`
	SMTPHost         string `mapstructure:"SMTP_HOST"`
	SMTPPort         int    `mapstructure:"SMTP_PORT"`
	OwnerEmail       string `mapstructure:"OWNER_EMAIL"`

	GoogleClientID     string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURI  string `mapstructure:"GOOGLE_REDIRECT_URI"`
	GoogleRefreshToken string `mapstructure:"GOOGLE_REFRESH_TOKEN"`
	GoogleCalendarID   string `mapstructure:"GOOGLE_CALENDAR_ID"`

	// EventTimezone is the IANA zone booking date/time fields are read in.
	EventTimezone string `mapstructure:"EVENT_TIMEZONE"`

	ProviderTimeout time.Duration `mapstructure:"PROVIDER_TIMEOUT"`
	RateLimitPerMin int           `mapstructure:"RATE_LIMIT_PER_MIN"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
}

var defaults = map[string]any{
	"PORT":                 "3000",
	"ENV":                  "development",
	"LOG_LEVEL":            "info",
	"GIN_MODE":             "debug",
	"EMAIL_USER":           "",
	"EMAIL_APP_PASSWORD":   "",
	"SMTP_HOST":            "smtp.gmail.com",
	"SMTP_PORT":            587,
	"OWNER_EMAIL":          "",
	"GOOGLE_CLIENT_ID":     "",
	"GOOGLE_CLIENT_SECRET": "",
	"GOOGLE_REDIRECT_URI":  "",
	"GOOGLE_REFRESH_TOKEN": "",
	"GOOGLE_CALENDAR_ID":   "primary",
	"EVENT_TIMEZONE":       "Local",
	"PROVIDER_TIMEOUT":     "30s",
	"RATE_LIMIT_PER_MIN":   0,
	"SHUTDOWN_TIMEOUT":     "10s",
}

// Load reads configuration from the environment and, when present, a
// config.yaml in the working directory or ./config.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// Location resolves EventTimezone, falling back to the process zone.
func (c *Config) Location() (*time.Location, error) {
	if c.EventTimezone == "" || c.EventTimezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.EventTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid EVENT_TIMEZONE %q: %w", c.EventTimezone, err)
	}
	return loc, nil
}
