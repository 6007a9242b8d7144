package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	DatabaseURL string
	// SQLDriver selects the database/sql driver behind gorm: "pgx" (default) or "pq".
	SQLDriver string

	JWTAccessSecret []byte

	KafkaBrokers []string

	RedisURL       string
	ConfirmLockTTL time.Duration

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	TossBaseURL    string
	TossSecretKey  string
	GatewayTimeout time.Duration

	Timezone string

	CookieSecure bool
}

func Load() Config {
	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "shop"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		SQLDriver:   EnvDefault("DB_SQL_DRIVER", "pgx"),

		JWTAccessSecret: []byte(os.Getenv("JWT_SECRET")),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		RedisURL:       os.Getenv("REDIS_URL"),
		ConfirmLockTTL: EnvDurationDefault("CONFIRM_LOCK_TTL", 30*time.Second),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "products"),

		TossBaseURL:    EnvDefault("TOSS_BASE_URL", "https://api.tosspayments.com"),
		TossSecretKey:  os.Getenv("TOSS_SECRET_KEY"),
		GatewayTimeout: EnvDurationDefault("GATEWAY_TIMEOUT", 10*time.Second),

		Timezone: EnvDefault("APP_TIMEZONE", "Asia/Seoul"),

		CookieSecure: EnvDefault("COOKIE_SECURE", "false") == "true",
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
