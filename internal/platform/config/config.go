package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process-level configuration so main stays lean.
type Server struct {
	Addr          string
	DatabaseURL   string
	RedisAddr     string
	JWTSigningKey string
	// InsecureIdentityHeaders trusts X-User-* headers instead of requiring a
	// signed bearer token. Dev/test only.
	InsecureIdentityHeaders bool

	EmailMaxAttempts int
	EmailBackoffBase time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	addr := os.Getenv("BIDHALL_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default - must be overridden in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	maxAttempts := 5
	if v, err := strconv.Atoi(os.Getenv("EMAIL_MAX_ATTEMPTS")); err == nil && v > 0 {
		maxAttempts = v
	}

	backoff := 500 * time.Millisecond
	if v, err := time.ParseDuration(os.Getenv("EMAIL_BACKOFF_BASE")); err == nil && v > 0 {
		backoff = v
	}

	return Server{
		Addr:                    addr,
		DatabaseURL:             os.Getenv("DATABASE_URL"),
		RedisAddr:               os.Getenv("REDIS_ADDR"),
		JWTSigningKey:           jwtSigningKey,
		InsecureIdentityHeaders: os.Getenv("INSECURE_IDENTITY_HEADERS") == "true",
		EmailMaxAttempts:        maxAttempts,
		EmailBackoffBase:        backoff,
		HTTPReadTimeout:         durationEnv("HTTP_READ_TIMEOUT"),
		HTTPWriteTimeout:        durationEnv("HTTP_WRITE_TIMEOUT"),
		HTTPIdleTimeout:         durationEnv("HTTP_IDLE_TIMEOUT"),
	}
}

// durationEnv returns the parsed duration, or zero so the consumer applies
// its own default.
func durationEnv(key string) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return 0
	}
	return v
}
