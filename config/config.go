// Package config loads the station configuration from an optional YAML file
// with environment variable overrides, so a fleet of kiosks can share one
// file and differ only in their env.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration makes time.Duration YAML-decodable from "10s"/"1h" strings.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the full gateway configuration. Duration fields use Go duration
// syntax ("10s", "1h") in both YAML and env.
type Config struct {
	BackendURL  string `yaml:"backend_url"`
	APIKey      string `yaml:"api_key"`
	Mode        string `yaml:"mode"`       // "activity" or "room"
	ContextID   string `yaml:"context_id"` // activity or room id
	Timezone    string `yaml:"timezone"`
	ListenAddr  string `yaml:"listen_addr"`
	JournalPath string `yaml:"journal_path"` // empty disables the journal

	CatalogInterval      Duration `yaml:"catalog_interval"`
	AvailabilityInterval Duration `yaml:"availability_interval"`
	SessionInterval      Duration `yaml:"session_interval"`
	PollInterval         Duration `yaml:"poll_interval"`
	PollTimeout          Duration `yaml:"poll_timeout"`

	HTTPTimeout Duration `yaml:"http_timeout"`
}

// Load reads path (when it exists), applies env overrides and validates.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Mode:                 "activity",
		Timezone:             "Europe/Copenhagen",
		ListenAddr:           ":8080",
		CatalogInterval:      Duration(time.Hour),
		AvailabilityInterval: Duration(10 * time.Second),
		SessionInterval:      Duration(time.Hour),
		PollInterval:         Duration(time.Second),
		PollTimeout:          Duration(5 * time.Minute),
		HTTPTimeout:          Duration(10 * time.Second),
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if cfg.BackendURL == "" {
		return nil, fmt.Errorf("backend_url is required (KIOSK_BACKEND_URL)")
	}
	if cfg.Mode != "activity" && cfg.Mode != "room" {
		return nil, fmt.Errorf("mode must be \"activity\" or \"room\", got %q", cfg.Mode)
	}
	if cfg.ContextID == "" {
		return nil, fmt.Errorf("context_id is required (KIOSK_CONTEXT_ID)")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.BackendURL, "KIOSK_BACKEND_URL")
	setString(&cfg.APIKey, "KIOSK_API_KEY")
	setString(&cfg.Mode, "KIOSK_MODE")
	setString(&cfg.ContextID, "KIOSK_CONTEXT_ID")
	setString(&cfg.Timezone, "KIOSK_TIMEZONE")
	setString(&cfg.ListenAddr, "KIOSK_LISTEN_ADDR")
	setString(&cfg.JournalPath, "KIOSK_JOURNAL_PATH")

	for dst, key := range map[*Duration]string{
		&cfg.CatalogInterval:      "KIOSK_CATALOG_INTERVAL",
		&cfg.AvailabilityInterval: "KIOSK_AVAILABILITY_INTERVAL",
		&cfg.SessionInterval:      "KIOSK_SESSION_INTERVAL",
		&cfg.PollInterval:         "KIOSK_POLL_INTERVAL",
		&cfg.PollTimeout:          "KIOSK_POLL_TIMEOUT",
		&cfg.HTTPTimeout:          "KIOSK_HTTP_TIMEOUT",
	} {
		if err := setDuration(dst, key); err != nil {
			return err
		}
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// setDuration rejects malformed values instead of silently keeping the
// default; a typo in an env override must not go unnoticed.
func setDuration(dst *Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid duration in %s: %q", key, v)
	}
	*dst = Duration(d)
	return nil
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
