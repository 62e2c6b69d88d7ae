package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultStatusURL = "https://servers-frontend.fivem.net/api/servers/single/do39my"

type Config struct {
	AppEnv   string
	LogLevel string
	HTTPPort int

	DatabaseURL    string
	MigrationsPath string

	SessionSigningKey string

	PayPalClientID string

	DiscordClientID     string
	DiscordClientSecret string
	DiscordRedirectURL  string

	StatusURL      string
	StatusInterval time.Duration

	RedisAddr     string
	RedisPassword string

	KafkaBrokers     []string
	OrderEventsTopic string

	CatalogDBPath         string
	CatalogMigrationsPath string

	VisitorIdleTTL  time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// MissingError lists every required key that had no value.
type MissingError struct {
	Keys []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Keys, ", "))
}

// Load reads an optional .env file, then the process environment. It fails
// when any required key is absent or a typed value cannot be parsed.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an arbitrary key lookup. Load uses the process
// environment; tests pass a map.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	r := reader{lookup: lookup}

	cfg := &Config{
		AppEnv:   r.get("APP_ENV", "dev"),
		LogLevel: r.get("LOG_LEVEL", "info"),
		HTTPPort: r.getInt("HTTP_PORT", 8080),

		DatabaseURL:    r.required("DATABASE_URL"),
		MigrationsPath: r.get("MIGRATIONS_PATH", "./internal/repository/migrations"),

		SessionSigningKey: r.required("SESSION_SIGNING_KEY"),

		PayPalClientID: r.required("PAYPAL_CLIENT_ID"),

		DiscordClientID:     r.required("DISCORD_CLIENT_ID"),
		DiscordClientSecret: r.required("DISCORD_CLIENT_SECRET"),
		DiscordRedirectURL:  r.required("DISCORD_REDIRECT_URL"),

		StatusURL:      r.get("STATUS_URL", defaultStatusURL),
		StatusInterval: r.getDuration("STATUS_INTERVAL", time.Minute),

		RedisAddr:     r.get("REDIS_ADDR", ""),
		RedisPassword: r.get("REDIS_PASSWORD", ""),

		KafkaBrokers:     r.getList("KAFKA_BROKERS"),
		OrderEventsTopic: r.get("ORDER_EVENTS_TOPIC", "vehicle-orders"),

		CatalogDBPath:         r.get("CATALOG_DB_PATH", ""),
		CatalogMigrationsPath: r.get("CATALOG_MIGRATIONS_PATH", "./internal/catalog/migrations"),

		VisitorIdleTTL:  r.getDuration("VISITOR_IDLE_TTL", 24*time.Hour),
		RequestTimeout:  r.getDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout: r.getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	if err := r.err(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type reader struct {
	lookup  func(string) (string, bool)
	missing []string
	invalid []error
}

func (r *reader) value(key string) string {
	v, ok := r.lookup(key)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

func (r *reader) get(key, def string) string {
	if v := r.value(key); v != "" {
		return v
	}
	return def
}

func (r *reader) required(key string) string {
	v := r.value(key)
	if v == "" {
		r.missing = append(r.missing, key)
	}
	return v
}

func (r *reader) getInt(key string, def int) int {
	v := r.value(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.invalid = append(r.invalid, fmt.Errorf("invalid %s %q: %w", key, v, err))
		return def
	}
	return n
}

func (r *reader) getDuration(key string, def time.Duration) time.Duration {
	v := r.value(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.invalid = append(r.invalid, fmt.Errorf("invalid %s %q: %w", key, v, err))
		return def
	}
	if d <= 0 {
		r.invalid = append(r.invalid, fmt.Errorf("invalid %s %q: must be positive", key, v))
		return def
	}
	return d
}

func (r *reader) getList(key string) []string {
	v := r.value(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (r *reader) err() error {
	var errs []error
	if len(r.missing) > 0 {
		errs = append(errs, &MissingError{Keys: r.missing})
	}
	errs = append(errs, r.invalid...)
	return errors.Join(errs...)
}
