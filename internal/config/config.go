package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var metricsNamespacePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	HTTPAddr               string        `mapstructure:"http_addr"`
	ShutdownTimeoutSeconds int64         `mapstructure:"shutdown_timeout_seconds"`
	ShutdownTimeout        time.Duration `mapstructure:"-"`

	RemoteBaseURL        string        `mapstructure:"remote_base_url"`
	RemoteTimeoutSeconds int64         `mapstructure:"remote_timeout_seconds"`
	RemoteTimeout        time.Duration `mapstructure:"-"`

	MetricsNamespace string `mapstructure:"metrics_namespace"`

	EndpointsFile  string `mapstructure:"endpoints_file"`
	PublishersFile string `mapstructure:"publishers_file"`

	JournalType     string        `mapstructure:"journal_type"`
	JournalPath     string        `mapstructure:"journal_path"`
	JournalTTLHours int64         `mapstructure:"journal_ttl_hours"`
	JournalTTL      time.Duration `mapstructure:"-"`

	ExchangeAuthHeader string `mapstructure:"exchange_auth_header"`
	CredentialUsername string `mapstructure:"credential_username"`
	CredentialPassword string `mapstructure:"credential_password"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "item-relay")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("shutdown_timeout_seconds", 10)
	v.SetDefault("remote_base_url", "http://localhost:7070")
	v.SetDefault("remote_timeout_seconds", 10)
	v.SetDefault("metrics_namespace", "relay")
	v.SetDefault("endpoints_file", "")
	v.SetDefault("publishers_file", "")
	v.SetDefault("journal_type", "none")
	v.SetDefault("journal_path", "data/journal.db")
	v.SetDefault("journal_ttl_hours", 120)
	v.SetDefault("exchange_auth_header", "X-Authorization")
	v.SetDefault("credential_username", "Robbie")
	v.SetDefault("credential_password", "1234")
}

func (c *Config) finalize() error {
	c.HTTPAddr = strings.TrimSpace(c.HTTPAddr)
	if c.HTTPAddr == "" {
		return fmt.Errorf("invalid http_addr (must not be empty)")
	}

	c.RemoteBaseURL = strings.TrimRight(strings.TrimSpace(c.RemoteBaseURL), "/")
	u, err := url.Parse(c.RemoteBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid remote_base_url %q (must be an absolute http(s) URL)", c.RemoteBaseURL)
	}

	if c.RemoteTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid remote_timeout_seconds (must be positive seconds)")
	}
	if c.ShutdownTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid shutdown_timeout_seconds (must be positive seconds)")
	}
	c.RemoteTimeout = time.Duration(c.RemoteTimeoutSeconds) * time.Second
	c.ShutdownTimeout = time.Duration(c.ShutdownTimeoutSeconds) * time.Second

	c.ExchangeAuthHeader = strings.TrimSpace(c.ExchangeAuthHeader)
	if c.ExchangeAuthHeader == "" {
		return fmt.Errorf("invalid exchange_auth_header (must not be empty)")
	}
	c.MetricsNamespace = strings.TrimSpace(c.MetricsNamespace)
	if !metricsNamespacePattern.MatchString(c.MetricsNamespace) {
		return fmt.Errorf("invalid metrics_namespace %q (letters, digits and underscores, not starting with a digit)", c.MetricsNamespace)
	}
	c.EndpointsFile = strings.TrimSpace(c.EndpointsFile)
	c.PublishersFile = strings.TrimSpace(c.PublishersFile)

	c.JournalType = strings.ToLower(strings.TrimSpace(c.JournalType))
	switch c.JournalType {
	case "", "none", "disabled", "bbolt":
	default:
		return fmt.Errorf("invalid journal_type %q (expected none or bbolt)", c.JournalType)
	}
	if c.JournalTTLHours <= 0 {
		return fmt.Errorf("invalid journal_ttl_hours (must be positive hours)")
	}
	c.JournalTTL = time.Duration(c.JournalTTLHours) * time.Hour
	return nil
}

// LogFields returns the configuration as a map with secrets redacted.
func (c *Config) LogFields() map[string]any {
	return map[string]any{
		"app_name":               c.AppName,
		"app_env":                c.Env,
		"log_level":              c.LogLevel,
		"http_addr":              c.HTTPAddr,
		"remote_base_url":        c.RemoteBaseURL,
		"remote_timeout_seconds": c.RemoteTimeoutSeconds,
		"metrics_namespace":      c.MetricsNamespace,
		"endpoints_file":         c.EndpointsFile,
		"publishers_file":        c.PublishersFile,
		"journal_type":           c.JournalType,
		"journal_path":           c.JournalPath,
		"exchange_auth_header":   c.ExchangeAuthHeader,
		"credential_username":    c.CredentialUsername,
	}
}
