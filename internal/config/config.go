// Package config loads process configuration from an optional .env file,
// LABINV_* environment variables and an optional labinventory.yaml.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultAPIURL is the authentication service the login screen was built against.
const DefaultAPIURL = "https://web-production-f798a.up.railway.app"

type Config struct {
	ListenAddr string
	DBPath     string
	LogFile    string

	// AuthAPIURL serves the login screen; InventoryAPIURL serves the
	// dashboard. They are separate because the two screens target different
	// backend deployments.
	AuthAPIURL      string
	InventoryAPIURL string

	// DashboardEmail is sent by the dashboard's email-only login.
	DashboardEmail string

	// Prefilled login form values.
	DefaultEmail    string
	DefaultPassword string

	UpstreamTimeout time.Duration
	SecureCookies   bool
}

// Load reads configuration. If configFile is empty, labinventory.yaml is
// looked up in the working directory and skipped when absent.
func Load(configFile string) (*Config, error) {
	// A missing .env is normal.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("LABINV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("addr", ":8080")
	v.SetDefault("db", "labinventory.sqlite3")
	v.SetDefault("log", "")
	v.SetDefault("auth_api_url", DefaultAPIURL)
	v.SetDefault("inventory_api_url", "")
	v.SetDefault("dashboard_email", "admin@lab.com")
	v.SetDefault("default_email", "admin@lab.com")
	v.SetDefault("default_password", "admin123")
	v.SetDefault("upstream_timeout", 30*time.Second)
	v.SetDefault("secure_cookies", false)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else {
		v.SetConfigName("labinventory")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	cfg := &Config{
		ListenAddr:      v.GetString("addr"),
		DBPath:          v.GetString("db"),
		LogFile:         v.GetString("log"),
		AuthAPIURL:      v.GetString("auth_api_url"),
		InventoryAPIURL: v.GetString("inventory_api_url"),
		DashboardEmail:  v.GetString("dashboard_email"),
		DefaultEmail:    v.GetString("default_email"),
		DefaultPassword: v.GetString("default_password"),
		UpstreamTimeout: v.GetDuration("upstream_timeout"),
		SecureCookies:   v.GetBool("secure_cookies"),
	}
	if cfg.InventoryAPIURL == "" {
		cfg.InventoryAPIURL = cfg.AuthAPIURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail on first use.
func (c *Config) Validate() error {
	for name, u := range map[string]string{
		"auth_api_url":      c.AuthAPIURL,
		"inventory_api_url": c.InventoryAPIURL,
	} {
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return fmt.Errorf("%s must be an http(s) URL, got %q", name, u)
		}
	}
	if c.UpstreamTimeout < 0 {
		return fmt.Errorf("upstream_timeout must not be negative")
	}
	return nil
}
