package config

import "log"

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

func MustNonEmptyBytes(value []byte, envName string) {
	if len(value) == 0 {
		log.Fatalf("missing required env %s", envName)
	}
}

// MustRequired stops the process when a value the shop cannot start without is missing.
func (c Config) MustRequired() {
	MustNonEmpty(c.DatabaseURL, "DATABASE_URL")
	MustNonEmptyBytes(c.JWTAccessSecret, "JWT_SECRET")
	MustNonEmpty(c.TossSecretKey, "TOSS_SECRET_KEY")
	if c.SQLDriver != "pgx" && c.SQLDriver != "pq" {
		log.Fatalf("DB_SQL_DRIVER must be pgx or pq, got %q", c.SQLDriver)
	}
}
