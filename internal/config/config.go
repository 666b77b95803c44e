// Package config reads process configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Store backends.
const (
	StoreSQLite   = "sqlite"
	StoreRedis    = "redis"
	StoreBadger   = "badger"
	StorePostgres = "postgres"
)

type Config struct {
	Store          string        `validate:"oneof=sqlite redis badger postgres"`
	DBPath         string        `validate:"required_if=Store sqlite"`
	RedisURL       string        `validate:"required_if=Store redis"`
	BadgerDir      string        `validate:"required_if=Store badger"`
	DatabaseURL    string        `validate:"required_if=Store postgres"`
	Debounce       time.Duration `validate:"gt=0"`
	TemplatesFile  string
	WatchTemplates bool
	HTTPAddr       string `validate:"required"`
	LogLevel       slog.Level
	LogSessions    bool
}

// DefaultConfig returns the configuration used when no variable is set.
func DefaultConfig() Config {
	home := defaultHome()
	return Config{
		Store:     StoreSQLite,
		DBPath:    filepath.Join(home, "appraise.db"),
		RedisURL:  "redis://localhost:6379/0",
		BadgerDir: filepath.Join(home, "badger"),
		Debounce:  2 * time.Second,
		HTTPAddr:  ":8088",
		LogLevel:  slog.LevelInfo,
	}
}

// Load reads APPRAISE_* variables over the defaults and validates the
// result.
func Load() (Config, error) {
	return load(os.Getenv)
}

func load(lookup func(string) string) (Config, error) {
	def := DefaultConfig()
	cfg := Config{
		Store:          strings.ToLower(getenv(lookup, "APPRAISE_STORE", def.Store)),
		DBPath:         getenv(lookup, "APPRAISE_DB", def.DBPath),
		RedisURL:       getenv(lookup, "APPRAISE_REDIS_URL", def.RedisURL),
		BadgerDir:      getenv(lookup, "APPRAISE_BADGER_DIR", def.BadgerDir),
		DatabaseURL:    getenv(lookup, "APPRAISE_DATABASE_URL", ""),
		Debounce:       time.Duration(getenvInt(lookup, "APPRAISE_AUTOSAVE_DEBOUNCE_MS", int(def.Debounce/time.Millisecond))) * time.Millisecond,
		TemplatesFile:  getenv(lookup, "APPRAISE_TEMPLATES", ""),
		WatchTemplates: getenvBool(lookup, "APPRAISE_WATCH_TEMPLATES", false),
		HTTPAddr:       getenv(lookup, "APPRAISE_HTTP_ADDR", def.HTTPAddr),
		LogLevel:       def.LogLevel,
		LogSessions:    getenvBool(lookup, "APPRAISE_LOG_SESSIONS", false),
	}
	if v := lookup("APPRAISE_LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return Config{}, fmt.Errorf("APPRAISE_LOG_LEVEL: %w", err)
		}
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks that the selected store has its location set.
func Validate(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func defaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".appraise"
	}
	return filepath.Join(home, ".appraise")
}

func getenv(lookup func(string) string, key, fallback string) string {
	value := lookup(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(lookup func(string) string, key string, fallback int) int {
	value := lookup(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getenvBool(lookup func(string) string, key string, fallback bool) bool {
	value := lookup(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
