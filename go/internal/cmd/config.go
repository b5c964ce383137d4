package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/mcdev12/deepdesert/go/internal/auth"
	"github.com/mcdev12/deepdesert/go/internal/mapsync"
)

type Config struct {
	Server struct {
		Port        string   `yaml:"port"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`

	Log struct {
		Level   string `yaml:"level"`
		Console bool   `yaml:"console"`
	} `yaml:"log"`

	Database struct {
		Migrate bool `yaml:"migrate"`
	} `yaml:"database"`

	Sync struct {
		Mode          string        `yaml:"mode"`
		RetryDelay    time.Duration `yaml:"retry_delay"`
		MaxRetryDelay time.Duration `yaml:"max_retry_delay"`
	} `yaml:"sync"`

	NATS struct {
		URL           string        `yaml:"url"`
		SubjectPrefix string        `yaml:"subject_prefix"`
		Stream        string        `yaml:"stream"`
		StreamMaxAge  time.Duration `yaml:"stream_max_age"`
	} `yaml:"nats"`

	Auth struct {
		SessionTTL time.Duration   `yaml:"session_ttl"`
		Managers   []ManagerConfig `yaml:"managers"`
	} `yaml:"auth"`
}

type ManagerConfig struct {
	Email        string `yaml:"email"`
	PasswordHash string `yaml:"password_hash"`

	// fromEnv marks the manager added from MANAGER_EMAIL
	fromEnv bool
}

func defaultConfig() *Config {
	var c Config
	c.Server.Port = "8080"
	c.Server.CORSOrigins = []string{"*"}
	c.Log.Level = "info"
	c.Log.Console = true
	c.Sync.Mode = string(mapsync.ModeLegacy)
	c.Sync.RetryDelay = time.Second
	c.Sync.MaxRetryDelay = time.Minute
	c.Auth.SessionTTL = auth.DefaultSessionTTL
	return &c
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// loadConfig reads the YAML file at path over the defaults. A missing file
// is not an error.
func loadConfig(path string) (*Config, error) {
	config := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Warn().Str("path", path).Msg("config file not found, using defaults")
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	config.applyEnv()
	return config, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Console = getEnvAsBool("LOG_CONSOLE", c.Log.Console)
	c.Database.Migrate = getEnvAsBool("DB_MIGRATE", c.Database.Migrate)
	c.Sync.Mode = getEnv("SYNC_MODE", c.Sync.Mode)
	c.NATS.URL = getEnv("NATS_URL", c.NATS.URL)
	c.NATS.Stream = getEnv("NATS_STREAM", c.NATS.Stream)

	if email := os.Getenv("MANAGER_EMAIL"); email != "" {
		c.Auth.Managers = append(c.Auth.Managers, ManagerConfig{
			Email:        email,
			PasswordHash: os.Getenv("MANAGER_PASSWORD_HASH"),
			fromEnv:      true,
		})
	}
}

// syncConfig validates and converts the sync section
func (c *Config) syncConfig() (mapsync.Config, error) {
	mode, err := mapsync.ParseMode(c.Sync.Mode)
	if err != nil {
		return mapsync.Config{}, err
	}
	cfg := mapsync.DefaultConfig()
	cfg.Mode = mode
	if c.Sync.RetryDelay > 0 {
		cfg.RetryDelay = c.Sync.RetryDelay
	}
	if c.Sync.MaxRetryDelay > 0 {
		cfg.MaxRetryDelay = c.Sync.MaxRetryDelay
	}
	return cfg, nil
}

// managers returns the configured manager credentials. A plain password in
// MANAGER_PASSWORD is hashed for the MANAGER_EMAIL manager when it has no
// hash; managers from the config file must carry a hash.
func (c *Config) managers() ([]auth.Credentials, error) {
	plain := os.Getenv("MANAGER_PASSWORD")
	out := make([]auth.Credentials, 0, len(c.Auth.Managers))
	for _, m := range c.Auth.Managers {
		hash := []byte(m.PasswordHash)
		if len(hash) == 0 {
			if !m.fromEnv || plain == "" {
				return nil, fmt.Errorf("manager %s has no password hash", m.Email)
			}
			var err error
			if hash, err = auth.HashPassword(plain); err != nil {
				return nil, err
			}
		}
		out = append(out, auth.Credentials{Email: m.Email, PasswordHash: hash})
	}
	return out, nil
}

func setupLogging(c *Config) {
	if c.Log.Console {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	level, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}
