// Package config loads the server configuration from an optional YAML
// file with environment variable overrides. Flags on the server binary
// take precedence over both.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rfpgate/rfpgate/pkg/docstore"
	"github.com/rfpgate/rfpgate/pkg/notify"
)

// Database connection settings.
type Database struct {
	// Type selects the driver: "postgres" or "mysql".
	Type string `yaml:"type"`
	DSN  string `yaml:"dsn"`
}

// Config is the full server configuration.
type Config struct {
	Listen   string
	Database Database
	CacheTTL time.Duration
	Notify   notify.Config
	Storage  docstore.Config
}

// fileConfig is the YAML schema. Durations are strings in Go duration
// syntax; pointers distinguish "absent" from zero values.
type fileConfig struct {
	Listen   string    `yaml:"listen"`
	Database *Database `yaml:"database"`
	CacheTTL string    `yaml:"cache_ttl"`

	Notify *struct {
		Enabled      *bool  `yaml:"enabled"`
		Concurrency  int    `yaml:"concurrency"`
		PollInterval string `yaml:"poll_interval"`
		MaxAttempts  int    `yaml:"max_attempts"`
	} `yaml:"notify"`

	Storage *struct {
		Region    string `yaml:"region"`
		Bucket    string `yaml:"bucket"`
		Endpoint  string `yaml:"endpoint"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		URLTTL    string `yaml:"url_ttl"`
	} `yaml:"storage"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() Config {
	return Config{
		Listen: ":8080",
		Database: Database{
			Type: "postgres",
			DSN:  "host=localhost user=rfpgate dbname=rfpgate sslmode=disable",
		},
		CacheTTL: 5 * time.Second,
		Notify:   notify.DefaultConfig(),
		// Bucket left empty: document downloads stay disabled until a
		// storage backend is configured.
		Storage: docstore.Config{
			Region: "us-east-1",
			URLTTL: docstore.DefaultURLTTL,
		},
	}
}

// Load reads the configuration file at path (empty path skips the file)
// and applies RFPGATE_* environment overrides on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		var fc fileConfig
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
		if err := fc.apply(&cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func (fc *fileConfig) apply(cfg *Config) error {
	if fc.Listen != "" {
		cfg.Listen = fc.Listen
	}
	if fc.Database != nil {
		if fc.Database.Type != "" {
			cfg.Database.Type = fc.Database.Type
		}
		if fc.Database.DSN != "" {
			cfg.Database.DSN = fc.Database.DSN
		}
	}
	if err := parseDuration(fc.CacheTTL, "cache_ttl", &cfg.CacheTTL); err != nil {
		return err
	}

	if fc.Notify != nil {
		if fc.Notify.Enabled != nil {
			cfg.Notify.Enabled = *fc.Notify.Enabled
		}
		if fc.Notify.Concurrency > 0 {
			cfg.Notify.Concurrency = fc.Notify.Concurrency
		}
		if fc.Notify.MaxAttempts > 0 {
			cfg.Notify.MaxAttempts = fc.Notify.MaxAttempts
		}
		if err := parseDuration(fc.Notify.PollInterval, "notify.poll_interval", &cfg.Notify.PollInterval); err != nil {
			return err
		}
	}

	if fc.Storage != nil {
		if fc.Storage.Region != "" {
			cfg.Storage.Region = fc.Storage.Region
		}
		if fc.Storage.Bucket != "" {
			cfg.Storage.Bucket = fc.Storage.Bucket
		}
		if fc.Storage.Endpoint != "" {
			cfg.Storage.Endpoint = fc.Storage.Endpoint
		}
		if fc.Storage.AccessKey != "" {
			cfg.Storage.AccessKey = fc.Storage.AccessKey
		}
		if fc.Storage.SecretKey != "" {
			cfg.Storage.SecretKey = fc.Storage.SecretKey
		}
		if err := parseDuration(fc.Storage.URLTTL, "storage.url_ttl", &cfg.Storage.URLTTL); err != nil {
			return err
		}
	}

	return nil
}

func parseDuration(raw, field string, dst *time.Duration) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse %s: %w", field, err)
	}
	*dst = d
	return nil
}

func applyEnv(cfg *Config) {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	setString("RFPGATE_LISTEN", &cfg.Listen)
	setString("RFPGATE_DB_TYPE", &cfg.Database.Type)
	setString("RFPGATE_DB_DSN", &cfg.Database.DSN)
	setString("RFPGATE_S3_REGION", &cfg.Storage.Region)
	setString("RFPGATE_S3_BUCKET", &cfg.Storage.Bucket)
	setString("RFPGATE_S3_ENDPOINT", &cfg.Storage.Endpoint)
	setString("RFPGATE_S3_ACCESS_KEY", &cfg.Storage.AccessKey)
	setString("RFPGATE_S3_SECRET_KEY", &cfg.Storage.SecretKey)

	if v, ok := os.LookupEnv("RFPGATE_CACHE_TTL"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.CacheTTL = d
		}
	}
}
