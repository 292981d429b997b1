package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env  string
	Port int

	DBDriver   string // postgres | sqlite | memory
	DBURL      string
	SQLitePath string

	SessionSecret string
	SessionTTL    time.Duration
	SessionCookie string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	CORSOrigins     []string
	SeedUsers       []SeedUser
	LoginRatePerMin int
	MaxBodyBytes    int64

	OTelEndpoint string
}

// SeedUser is an account created at startup when missing.
type SeedUser struct {
	Username string
	Password string
	Name     string
}

func Load() Config {
	env := getEnv("APP_ENV", "dev")

	return Config{
		Env:  env,
		Port: getEnvInt("PORT", 3001),

		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBURL:      buildDBURL(),
		SQLitePath: getEnv("SQLITE_PATH", "films.sqlite"),

		SessionSecret: getEnv("SESSION_SECRET", "dev-session-secret-change-me"),
		SessionTTL:    time.Duration(getEnvInt("SESSION_TTL_HOURS", 24)) * time.Hour,
		SessionCookie: getEnv("SESSION_COOKIE", "filmlib.sid"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		CORSOrigins:     splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		SeedUsers:       ParseSeedUsers(os.Getenv("SEED_USERS")),
		LoginRatePerMin: getEnvInt("LOGIN_RATE_PER_MIN", 10),
		MaxBodyBytes:    int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),

		OTelEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}
}

// Validate rejects settings that are unsafe outside dev.
func (c Config) Validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite", "memory":
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}

	if c.Env == "prod" && c.SessionSecret == "dev-session-secret-change-me" {
		return fmt.Errorf("SESSION_SECRET must be set in prod")
	}

	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL_HOURS must be positive")
	}

	return nil
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "filmlib")
	pass := getEnv("DB_PASSWORD", "filmlib")
	name := getEnv("DB_NAME", "filmlib")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

// ParseSeedUsers reads "username:password:Name;username2:password2:Name2".
// Malformed entries are skipped.
func ParseSeedUsers(raw string) []SeedUser {
	var out []SeedUser

	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.SplitN(entry, ":", 3)
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			continue
		}

		u := SeedUser{Username: parts[0], Password: parts[1]}
		if len(parts) == 3 {
			u.Name = parts[2]
		}

		out = append(out, u)
	}

	return out
}

// WithTimeout bounds a store call. A nil parent means context.Background.
func WithTimeout(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			fmt.Println(err)
			return fallback
		}

		return num
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string

	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}
