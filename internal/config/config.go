package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DefaultFile is read when no --config flag is given and it exists.
const DefaultFile = "pos.yaml"

type Config struct {
	DataDir          string        `yaml:"data_dir"`
	CacheSize        int           `yaml:"cache_size"`
	ReconcileOnStart bool          `yaml:"reconcile_on_start"`
	Log              LogConfig     `yaml:"log"`
	Session          SessionConfig `yaml:"session"`
	Alerts           AlertsConfig  `yaml:"alerts"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Dir    string `yaml:"dir"`
}

type SessionConfig struct {
	// Secret signs session tokens. Empty means a key file in the data
	// directory is used instead.
	Secret   string `yaml:"secret"`
	TTLHours int    `yaml:"ttl_hours"`
}

type AlertsConfig struct {
	LowStock int     `yaml:"low_stock"`
	HighDebt float64 `yaml:"high_debt"`
}

func Default() Config {
	return Config{
		DataDir:          "data",
		CacheSize:        100,
		ReconcileOnStart: true,
		Log:              LogConfig{Level: "info", Format: "text"},
		Session:          SessionConfig{TTLHours: 12},
		Alerts:           AlertsConfig{LowStock: 5, HighDebt: 1000},
	}
}

// Load starts from Default, applies the YAML file at path, then the
// environment. An empty path reads DefaultFile when present.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	c.DataDir = getEnv("POS_DATA_DIR", c.DataDir)
	c.CacheSize = getEnvInt("POS_CACHE_SIZE", c.CacheSize)
	c.ReconcileOnStart = getEnvBool("POS_RECONCILE_ON_START", c.ReconcileOnStart)
	c.Log.Level = getEnv("POS_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("POS_LOG_FORMAT", c.Log.Format)
	c.Log.Dir = getEnv("POS_LOG_DIR", c.Log.Dir)
	c.Session.Secret = getEnv("POS_SESSION_SECRET", c.Session.Secret)
	c.Session.TTLHours = getEnvInt("POS_SESSION_TTL_HOURS", c.Session.TTLHours)
	c.Alerts.LowStock = getEnvInt("POS_LOW_STOCK", c.Alerts.LowStock)
	c.Alerts.HighDebt = getEnvFloat("POS_HIGH_DEBT", c.Alerts.HighDebt)
}

func (c Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("data_dir must not be empty")
	}
	if c.CacheSize < 0 {
		return errors.New("cache_size must not be negative")
	}
	if c.Session.TTLHours <= 0 {
		return errors.New("session.ttl_hours must be positive")
	}
	if c.Alerts.LowStock < 0 || c.Alerts.HighDebt < 0 {
		return errors.New("alert thresholds must not be negative")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}
