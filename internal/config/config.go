// Package config loads the server configuration from YAML with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/claude/repsight/internal/analytics"
)

// Config is the top-level server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// MigrationsPath is the directory holding the SQL migrations.
	MigrationsPath string `yaml:"migrations_path"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

// TailscaleConfig enables serving on a tailnet via tsnet, with the caller's
// Tailscale identity mapped to a user.
type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// AnalyticsConfig holds report defaults.
type AnalyticsConfig struct {
	// Timezone is an IANA name used for calendar days and weeks.
	Timezone   string `yaml:"timezone"`
	TrendWeeks int    `yaml:"trend_weeks"`
	TopLifts   int    `yaml:"top_lifts"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Location resolves the configured timezone. An empty name means UTC.
func (a AnalyticsConfig) Location() (*time.Location, error) {
	if a.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", a.Timezone, err)
	}
	return loc, nil
}

// Options returns the analytics options for this configuration.
func (a AnalyticsConfig) Options() (analytics.Options, error) {
	loc, err := a.Location()
	if err != nil {
		return analytics.Options{}, err
	}
	return analytics.Options{Location: loc, TrendWeeks: a.TrendWeeks, TopLifts: a.TopLifts}, nil
}

// Load reads config from a YAML file, then applies REPSIGHT_* environment
// overrides (see envOverrides) and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	c.Server.MigrationsPath = "migrations"
	c.Tailscale.Hostname = "repsight"
	c.Tailscale.StateDir = "tsnet-state"
	c.Analytics.TrendWeeks = 10
	c.Analytics.TopLifts = 10
	c.Metrics.Enabled = true
	c.Metrics.Path = "/metrics"
}

type envOverride struct {
	name  string
	apply func(c *Config, v string) error
}

func setString(field func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*field(c) = v
		return nil
	}
}

func setInt(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := cast.ToIntE(v)
		if err != nil {
			return err
		}
		*field(c) = n
		return nil
	}
}

func setBool(field func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := cast.ToBoolE(v)
		if err != nil {
			return err
		}
		*field(c) = b
		return nil
	}
}

var envOverrides = []envOverride{
	{"REPSIGHT_SERVER_HOST", setString(func(c *Config) *string { return &c.Server.Host })},
	{"REPSIGHT_SERVER_PORT", setInt(func(c *Config) *int { return &c.Server.Port })},
	{"REPSIGHT_MIGRATIONS_PATH", setString(func(c *Config) *string { return &c.Server.MigrationsPath })},
	{"REPSIGHT_DB_HOST", setString(func(c *Config) *string { return &c.Database.Host })},
	{"REPSIGHT_DB_PORT", setInt(func(c *Config) *int { return &c.Database.Port })},
	{"REPSIGHT_DB_NAME", setString(func(c *Config) *string { return &c.Database.Name })},
	{"REPSIGHT_DB_USER", setString(func(c *Config) *string { return &c.Database.User })},
	{"REPSIGHT_DB_PASSWORD", setString(func(c *Config) *string { return &c.Database.Password })},
	{"REPSIGHT_DB_SSLMODE", setString(func(c *Config) *string { return &c.Database.SSLMode })},
	{"REPSIGHT_AUTH_API_KEY", setString(func(c *Config) *string { return &c.Auth.APIKey })},
	{"REPSIGHT_TAILSCALE_ENABLED", setBool(func(c *Config) *bool { return &c.Tailscale.Enabled })},
	{"REPSIGHT_TAILSCALE_HOSTNAME", setString(func(c *Config) *string { return &c.Tailscale.Hostname })},
	{"REPSIGHT_TIMEZONE", setString(func(c *Config) *string { return &c.Analytics.Timezone })},
	{"REPSIGHT_TREND_WEEKS", setInt(func(c *Config) *int { return &c.Analytics.TrendWeeks })},
	{"REPSIGHT_TOP_LIFTS", setInt(func(c *Config) *int { return &c.Analytics.TopLifts })},
	{"REPSIGHT_METRICS_ENABLED", setBool(func(c *Config) *bool { return &c.Metrics.Enabled })},
}

// applyEnv applies every set, non-empty override. Malformed numbers and
// booleans are reported rather than silently ignored.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	for _, o := range envOverrides {
		v, ok := lookup(o.name)
		if !ok || v == "" {
			continue
		}
		if err := o.apply(c, v); err != nil {
			errs = append(errs, fmt.Errorf("%s=%q: %w", o.name, v, err))
		}
	}
	return errors.Join(errs...)
}

// validate reports every problem at once.
func (c *Config) validate() error {
	var errs []error
	required := func(ok bool, field string) {
		if !ok {
			errs = append(errs, fmt.Errorf("%s is required", field))
		}
	}
	required(c.Server.Port != 0 || c.Tailscale.Enabled, "server.port")
	required(c.Database.Host != "", "database.host")
	required(c.Database.Port != 0, "database.port")
	required(c.Database.Name != "", "database.name")
	required(c.Database.User != "", "database.user")
	required(c.Auth.APIKey != "", "auth.api_key")
	if c.Tailscale.Enabled {
		required(c.Tailscale.Hostname != "", "tailscale.hostname")
	}
	if c.Analytics.TrendWeeks < 0 || c.Analytics.TopLifts < 0 {
		errs = append(errs, errors.New("analytics.trend_weeks and analytics.top_lifts must not be negative"))
	}
	if _, err := c.Analytics.Location(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
