package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

type Config struct {
	Issuer   string   `validate:"required"` // Required: issuer claim for tokens
	Audience []string // Optional: audiences stamped into and checked on tokens

	AccessSecret  string `validate:"omitempty,min=16"` // Optional: HS256 secret for access tokens (generated if empty)
	RefreshSecret string `validate:"omitempty,min=16"` // Optional: HS256 secret for refresh tokens (generated if empty)

	AccessTTL    time.Duration `validate:"gt=0"`
	RefreshTTL   time.Duration `validate:"gt=0"`
	TemporaryTTL time.Duration `validate:"gt=0"`

	BlacklistBackend string `validate:"oneof=memory sqlite redis"` // Revocation store driver
	DatabaseFile     string // Path to SQLite database file (default: ./auth.db)
	RedisAddr        string `validate:"required_if=BlacklistBackend redis"`
	RedisPassword    string
	RedisDB          int

	KeyStorageMode string `validate:"oneof=ephemeral persistent"` // Signing secret storage mode
	MasterKeyPath  string `validate:"required_if=KeyStorageMode persistent"`

	CookieName       string // Optional: cookie consulted as the last token fallback
	RotateRevokesOld bool   // Single-use refresh tokens when set

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        `validate:"oneof=json text"`
	Port                 int           `validate:"gte=1,lte=65535"`
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Blacklist purge interval (default: 1h)
}

// LoadConfig resolves configuration from, in increasing precedence: built
// in defaults, a .env file in the working directory, the process
// environment, then command line flags.
func LoadConfig(args []string) (Config, error) {
	cfg := defaults()

	if err := loadDotEnv(); err != nil {
		return cfg, fmt.Errorf("app: load .env: %w", err)
	}
	cfg.loadEnv(os.Getenv)

	if err := cfg.parseFlags(args); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		Issuer:               "cinder-auth",
		AccessTTL:            15 * time.Minute,
		RefreshTTL:           7 * 24 * time.Hour,
		TemporaryTTL:         5 * time.Minute,
		BlacklistBackend:     "memory",
		DatabaseFile:         "auth.db",
		RedisAddr:            "localhost:6379",
		KeyStorageMode:       "ephemeral",
		Env:                  "dev",
		LogLevel:             "info",
		LogFormat:            "json",
		Port:                 8080,
		ShutdownGracePeriod:  10 * time.Second,
		HousekeepingInterval: 1 * time.Hour,
	}
}

// loadDotEnv merges a .env file into the process environment without
// overriding variables that are already set. A missing file is fine.
func loadDotEnv() error {
	err := godotenv.Load()
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (c *Config) loadEnv(getenv func(string) string) {
	setString := func(o *string) func(string) {
		return func(value string) {
			if value != "" {
				*o = value
			}
		}
	}
	setBool := func(o *bool) func(string) {
		return func(value string) {
			if b, err := strconv.ParseBool(value); err == nil {
				*o = b
			}
		}
	}
	setInt := func(o *int) func(string) {
		return func(value string) {
			if n, err := strconv.Atoi(value); err == nil {
				*o = n
			}
		}
	}
	setDuration := func(o *time.Duration) func(string) {
		return func(value string) {
			if d, err := time.ParseDuration(value); err == nil {
				*o = d
			}
		}
	}

	envMap := map[string]func(string){
		"AUTH_ISSUER":            setString(&c.Issuer),
		"AUTH_ACCESS_SECRET":     setString(&c.AccessSecret),
		"AUTH_REFRESH_SECRET":    setString(&c.RefreshSecret),
		"AUTH_ACCESS_TTL":        setDuration(&c.AccessTTL),
		"AUTH_REFRESH_TTL":       setDuration(&c.RefreshTTL),
		"AUTH_TEMPORARY_TTL":     setDuration(&c.TemporaryTTL),
		"AUTH_BLACKLIST_BACKEND": setString(&c.BlacklistBackend),
		"AUTH_DATABASE_FILE":     setString(&c.DatabaseFile),
		"REDIS_ADDR":             setString(&c.RedisAddr),
		"REDIS_PASSWORD":         setString(&c.RedisPassword),
		"REDIS_DB":               setInt(&c.RedisDB),
		"AUTH_KEY_STORAGE_MODE":  setString(&c.KeyStorageMode),
		"AUTH_MASTER_KEY_PATH":   setString(&c.MasterKeyPath),
		"AUTH_COOKIE_NAME":       setString(&c.CookieName),
		"ROTATE_REVOKES_OLD":     setBool(&c.RotateRevokesOld),
		"ENV":                    setString(&c.Env),
		"LOG_LEVEL":              setString(&c.LogLevel),
		"LOG_FORMAT":             setString(&c.LogFormat),
		"PORT":                   setInt(&c.Port),
		"SHUTDOWN_GRACE_PERIOD":  setDuration(&c.ShutdownGracePeriod),
		"HOUSEKEEPING_INTERVAL":  setDuration(&c.HousekeepingInterval),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}

	if aud := getenv("AUTH_AUDIENCE"); aud != "" {
		c.Audience = splitList(aud)
	}
}

func (c *Config) parseFlags(args []string) error {
	fs := pflag.NewFlagSet("auth", pflag.ContinueOnError)

	fs.StringVar(&c.Issuer, "issuer", c.Issuer, "Issuer claim stamped into tokens")
	fs.StringVarP(&c.BlacklistBackend, "blacklist", "b", c.BlacklistBackend,
		"Revocation store backend (memory, sqlite, redis)")
	fs.StringVarP(&c.DatabaseFile, "database", "d", c.DatabaseFile, "SQLite database file")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Env, "environment", "e", c.Env, "Environment (dev, staging, prod)")
	fs.IntVarP(&c.Port, "port", "p", c.Port, "HTTP listen port")

	return fs.Parse(args)
}

// Validate rejects configurations the service can't safely run with, so
// a bad deployment fails at startup rather than at the first request.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			ve := verrs[0]
			return fmt.Errorf("app: invalid config: field %s failed %q", ve.Field(), ve.Tag())
		}
		return fmt.Errorf("app: invalid config: %w", err)
	}
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
