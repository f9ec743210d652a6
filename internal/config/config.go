// Package config loads the triage settings from the environment and an optional .env file.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/triage/internal/logging"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Session store kinds.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreFile   = "file"
)

// Config holds every setting the commands share. Command-line flags override it.
type Config struct {
	Questions string `env:"TRIAGE_QUESTIONS" envDefault:"questions.csv"`
	Prompts   string `env:"TRIAGE_PROMPTS"   envDefault:"prompts.csv"`
	// DB, when set, reads the node tables from this SQLite file instead of CSV.
	DB    string `env:"TRIAGE_DB"`
	Entry string `env:"TRIAGE_ENTRY" envDefault:"question:1"`
	Title string `env:"TRIAGE_TITLE" envDefault:"Medical Decision Support System"`

	Addr string `env:"TRIAGE_ADDR" envDefault:":8080"`

	SessionStore  string        `env:"TRIAGE_SESSION_STORE"  envDefault:"memory"`
	SessionTTL    time.Duration `env:"TRIAGE_SESSION_TTL"    envDefault:"1h"`
	SessionDir    string        `env:"TRIAGE_SESSION_DIR"    envDefault:".triage/sessions"`
	RedisAddr     string        `env:"TRIAGE_REDIS_ADDR"     envDefault:"localhost:6379"`
	RedisPassword string        `env:"TRIAGE_REDIS_PASSWORD"`
	RedisDB       int           `env:"TRIAGE_REDIS_DB"       envDefault:"0"`

	// SessionKey, when set, encrypts stored sessions with this base64 AES-256 key.
	// Keys in SessionFallbackKeys still decrypt sessions sealed before a rotation.
	SessionKey          string   `env:"TRIAGE_SESSION_KEY"`
	SessionFallbackKeys []string `env:"TRIAGE_SESSION_FALLBACK_KEYS" envSeparator:","`

	LogLevel     string `env:"TRIAGE_LOG_LEVEL"      envDefault:"info"`
	LogFormat    string `env:"TRIAGE_LOG_FORMAT"     envDefault:"text"`
	MaxInputSize int    `env:"TRIAGE_MAX_INPUT_SIZE" envDefault:"4096"`
}

// Load reads envFile into the process environment (a missing default ".env" is ignored,
// variables already set win) and parses the result.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	} else if err := godotenv.Load(envFile); err != nil {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// Parse builds a Config from the given variables only, ignoring the process environment.
func Parse(environ map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks cross-field invariants.
func (c *Config) Validate() error {
	var errs []error
	if c.DB == "" && (c.Questions == "" || c.Prompts == "") {
		errs = append(errs, errors.New("TRIAGE_QUESTIONS and TRIAGE_PROMPTS are required unless TRIAGE_DB is set"))
	}
	if _, err := c.EntryRef(); err != nil {
		errs = append(errs, fmt.Errorf("TRIAGE_ENTRY: %w", err))
	}
	switch c.SessionStore {
	case StoreMemory:
	case StoreSQLite:
		if c.DB == "" {
			errs = append(errs, errors.New("TRIAGE_SESSION_STORE=sqlite requires TRIAGE_DB"))
		}
	case StoreRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("TRIAGE_SESSION_STORE=redis requires TRIAGE_REDIS_ADDR"))
		}
	case StoreFile:
		if c.SessionDir == "" {
			errs = append(errs, errors.New("TRIAGE_SESSION_STORE=file requires TRIAGE_SESSION_DIR"))
		}
	default:
		errs = append(errs, fmt.Errorf("TRIAGE_SESSION_STORE: unknown store %q (want memory, file, sqlite or redis)", c.SessionStore))
	}
	if _, _, err := c.EncryptionKeys(); err != nil {
		errs = append(errs, err)
	}
	if c.SessionTTL < 0 {
		errs = append(errs, errors.New("TRIAGE_SESSION_TTL cannot be negative"))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("TRIAGE_LOG_LEVEL: %w", err))
	}
	if f := strings.ToLower(c.LogFormat); f != "text" && f != "json" {
		errs = append(errs, fmt.Errorf("TRIAGE_LOG_FORMAT: unknown format %q", c.LogFormat))
	}
	if c.MaxInputSize <= 0 {
		errs = append(errs, errors.New("TRIAGE_MAX_INPUT_SIZE must be > 0"))
	}
	return errors.Join(errs...)
}

// EntryRef parses Entry.
func (c *Config) EntryRef() (domain.StepRef, error) {
	return domain.ParseStepRef(strings.TrimSpace(c.Entry))
}

// EncryptionKeys decodes SessionKey and SessionFallbackKeys. active is nil when
// encryption is disabled.
func (c *Config) EncryptionKeys() (active []byte, fallback [][]byte, err error) {
	if c.SessionKey == "" {
		if len(c.SessionFallbackKeys) > 0 {
			return nil, nil, errors.New("TRIAGE_SESSION_FALLBACK_KEYS requires TRIAGE_SESSION_KEY")
		}
		return nil, nil, nil
	}
	if active, err = decodeKey(c.SessionKey); err != nil {
		return nil, nil, fmt.Errorf("TRIAGE_SESSION_KEY: %w", err)
	}
	for i, k := range c.SessionFallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("TRIAGE_SESSION_FALLBACK_KEYS[%d]: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

// Logger builds the application logger for the configured level and format.
func (c *Config) Logger() *slog.Logger {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	return logging.New(level, c.LogFormat, nil)
}
