package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

var ErrMissingSecret = errors.New("JWT_SECRET is required")

// Config неизменяем после Load. Время жизни refresh-токена по умолчанию 12ч (43200с).
type Config struct {
	HTTPAddr    string
	DatabaseURL string
	LogLevel    string

	JWTSecret          string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration

	RefreshStore  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SweepInterval  time.Duration
	MigrateOnStart bool

	CORSAllowedOrigins []string
	LoginRateLimit     int
	LoginRateWindow    time.Duration

	MetricsUser     string
	MetricsPassword string
}

// Load читает .env (если есть) и переменные окружения.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}
	return FromEnv(os.Getenv)
}

// FromEnv собирает конфиг из произвольного источника переменных.
func FromEnv(getenv func(string) string) (*Config, error) {
	e := env{getenv: getenv}

	cfg := &Config{
		HTTPAddr:           e.str("HTTP_ADDR", ":8080"),
		DatabaseURL:        e.str("DATABASE_URL", ""),
		LogLevel:           e.str("LOG_LEVEL", "info"),
		JWTSecret:          e.str("JWT_SECRET", ""),
		RefreshTokenSecret: e.str("REFRESH_TOKEN_SECRET", ""),
		AccessTokenTTL:     e.duration("ACCESS_TOKEN_TTL", 20*time.Second),
		RefreshTokenTTL:    e.duration("REFRESH_TOKEN_TTL", 12*time.Hour),
		RefreshStore:       strings.ToLower(e.str("REFRESH_STORE", StorePostgres)),
		RedisAddr:          e.str("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      e.str("REDIS_PASSWORD", ""),
		RedisDB:            e.int("REDIS_DB", 0),
		SweepInterval:      e.duration("SWEEP_INTERVAL", time.Hour),
		MigrateOnStart:     e.bool("MIGRATE_ON_START", true),
		CORSAllowedOrigins: e.list("CORS_ALLOWED_ORIGINS", []string{"*"}),
		LoginRateLimit:     e.int("LOGIN_RATE_LIMIT", 10),
		LoginRateWindow:    e.duration("LOGIN_RATE_WINDOW", time.Minute),
		MetricsUser:        e.str("METRICS_USER", ""),
		MetricsPassword:    e.str("METRICS_PASSWORD", ""),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = databaseURLFromParts(e)
	}
	if cfg.RefreshTokenSecret == "" {
		cfg.RefreshTokenSecret = cfg.JWTSecret
	}

	if len(e.errs) > 0 {
		return nil, errors.Join(e.errs...)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return ErrMissingSecret
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if c.RefreshStore != StorePostgres && c.RefreshStore != StoreRedis {
		return fmt.Errorf("unknown REFRESH_STORE %q", c.RefreshStore)
	}
	if c.SweepInterval < 0 {
		return errors.New("SWEEP_INTERVAL must not be negative")
	}
	if c.LoginRateLimit <= 0 || c.LoginRateWindow <= 0 {
		return errors.New("login rate limit and window must be positive")
	}
	return nil
}

// MetricsEnabled - /metrics монтируется только при заданных учётных данных.
func (c *Config) MetricsEnabled() bool {
	return c.MetricsUser != "" && c.MetricsPassword != ""
}

func databaseURLFromParts(e env) string {
	host := e.str("DB_HOST", "localhost")
	name := e.str("DB_NAME", "taskapi")

	u := url.URL{
		Scheme:   "postgres",
		Host:     host,
		Path:     "/" + name,
		RawQuery: "sslmode=disable",
	}
	if user := e.str("DB_USERNAME", ""); user != "" {
		u.User = url.UserPassword(user, e.str("DB_PASSWORD", ""))
	}
	return u.String()
}

type env struct {
	getenv func(string) string
	errs   []error
}

func (e *env) str(key, def string) string {
	if v := strings.TrimSpace(e.getenv(key)); v != "" {
		return v
	}
	return def
}

func (e *env) int(key string, def int) int {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("invalid int for %s: %w", key, err))
		return def
	}
	return i
}

func (e *env) bool(key string, def bool) bool {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("invalid bool for %s: %w", key, err))
		return def
	}
	return b
}

func (e *env) duration(key string, def time.Duration) time.Duration {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("invalid duration for %s: %w", key, err))
		return def
	}
	return d
}

func (e *env) list(key string, def []string) []string {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
