// Package config loads service configuration: built-in defaults, then an
// optional YAML file, then a .env file, then the process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	EnvProduction = "production"

	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"

	devIdentitySecret = "dev-identity-secret"
)

type Config struct {
	Env      string `yaml:"env"      envconfig:"ENV"`
	Port     int    `yaml:"port"     envconfig:"PORT"`
	Timezone string `yaml:"timezone" envconfig:"TIMEZONE"`

	DBDriver      string `yaml:"dbDriver"      envconfig:"DB_DRIVER"`
	MongoURI      string `yaml:"mongoUri"      envconfig:"MONGO_URI"`
	MongoDatabase string `yaml:"mongoDatabase" envconfig:"MONGO_DATABASE"`
	SQLitePath    string `yaml:"sqlitePath"    envconfig:"SQLITE_PATH"`

	IdentitySecret string        `yaml:"identitySecret" envconfig:"IDENTITY_SECRET"`
	IdentityTTL    time.Duration `yaml:"identityTtl"    envconfig:"IDENTITY_TTL"`
	CookieDomain   string        `yaml:"cookieDomain"   envconfig:"COOKIE_DOMAIN"`
	CookieSecure   bool          `yaml:"cookieSecure"   envconfig:"COOKIE_SECURE"`

	SchikkoOverride     string        `yaml:"schikkoOverride"     envconfig:"SCHIKKO_OVERRIDE"`
	SchikkoOverrideHash string        `yaml:"schikkoOverrideHash" envconfig:"SCHIKKO_OVERRIDE_HASH"`
	TOTPIssuer          string        `yaml:"totpIssuer"          envconfig:"TOTP_ISSUER"`
	SessionTTL          time.Duration `yaml:"sessionTtl"          envconfig:"SESSION_TTL"`

	LoginLimit   int           `yaml:"loginLimit"   envconfig:"LOGIN_LIMIT"`
	LoginWindow  time.Duration `yaml:"loginWindow"  envconfig:"LOGIN_WINDOW"`
	DrinkLimit   int           `yaml:"drinkLimit"   envconfig:"DRINK_LIMIT"`
	DrinkWindow  time.Duration `yaml:"drinkWindow"  envconfig:"DRINK_WINDOW"`
	ActionLimit  int           `yaml:"actionLimit"  envconfig:"ACTION_LIMIT"`
	ActionWindow time.Duration `yaml:"actionWindow" envconfig:"ACTION_WINDOW"`

	LogRetention      time.Duration `yaml:"logRetention"      envconfig:"LOG_RETENTION"`
	AutoUnsetInterval time.Duration `yaml:"autoUnsetInterval" envconfig:"AUTO_UNSET_INTERVAL"`

	CORSOrigins  []string `yaml:"corsOrigins"  envconfig:"CORS_ORIGINS"`
	MetricsAllow []string `yaml:"metricsAllow" envconfig:"METRICS_ALLOW"`

	SMTPHost     string   `yaml:"smtpHost"     envconfig:"SMTP_HOST"`
	SMTPPort     int      `yaml:"smtpPort"     envconfig:"SMTP_PORT"`
	SMTPUsername string   `yaml:"smtpUsername" envconfig:"SMTP_USERNAME"`
	SMTPPassword string   `yaml:"smtpPassword" envconfig:"SMTP_PASSWORD"`
	SMTPFrom     string   `yaml:"smtpFrom"     envconfig:"SMTP_FROM"`
	SMTPTo       []string `yaml:"smtpTo"       envconfig:"SMTP_TO"`

	location *time.Location
}

func Default() *Config {
	return &Config{
		Env:               "development",
		Port:              1414,
		Timezone:          "Europe/Amsterdam",
		DBDriver:          DriverSQLite,
		MongoDatabase:     "schikko",
		SQLitePath:        "data/schikko.db",
		IdentityTTL:       365 * 24 * time.Hour,
		TOTPIssuer:        "Schikko",
		SessionTTL:        12 * time.Hour,
		LoginLimit:        20,
		LoginWindow:       10 * time.Minute,
		DrinkLimit:        5,
		DrinkWindow:       10 * time.Minute,
		ActionLimit:       60,
		ActionWindow:      time.Minute,
		LogRetention:      30 * 24 * time.Hour,
		AutoUnsetInterval: 10 * time.Minute,
		MetricsAllow:      []string{"127.0.0.1", "::1"},
		SMTPPort:          587,
	}
}

// Load builds the configuration. file is an optional YAML file; a missing
// .env file is not an error.
func Load(file string) (*Config, error) {
	cfg := Default()
	if file != "" {
		buf, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	switch c.DBDriver {
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required for the sqlite driver")
		}
	case DriverMongo:
		if c.MongoURI == "" || c.MongoDatabase == "" {
			return errors.New("MONGO_URI and MONGO_DATABASE are required for the mongo driver")
		}
	default:
		return fmt.Errorf("invalid DB_DRIVER %q (must be %q or %q)", c.DBDriver, DriverSQLite, DriverMongo)
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	c.location = loc

	if c.IdentitySecret == "" {
		if c.IsProduction() {
			return errors.New("IDENTITY_SECRET is required in production")
		}
		c.IdentitySecret = devIdentitySecret
	}
	for name, v := range map[string]int{"LOGIN_LIMIT": c.LoginLimit, "DRINK_LIMIT": c.DrinkLimit, "ACTION_LIMIT": c.ActionLimit} {
		if v <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	for name, v := range map[string]time.Duration{
		"LOGIN_WINDOW":        c.LoginWindow,
		"DRINK_WINDOW":        c.DrinkWindow,
		"ACTION_WINDOW":       c.ActionWindow,
		"SESSION_TTL":         c.SessionTTL,
		"IDENTITY_TTL":        c.IdentityTTL,
		"LOG_RETENTION":       c.LogRetention,
		"AUTO_UNSET_INTERVAL": c.AutoUnsetInterval,
	} {
		if v <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Location is the zone cycle keys and job times are computed in.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// Override is the break-glass login value; a bcrypt hash wins over the
// plain value.
func (c *Config) Override() string {
	if c.SchikkoOverrideHash != "" {
		return c.SchikkoOverrideHash
	}
	return c.SchikkoOverride
}
