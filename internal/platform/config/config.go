package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process-level configuration. main stays lean; everything
// comes from the environment with development defaults.
type Server struct {
	Addr          string
	JWTSigningKey string
	JWTIssuer     string
	TokenTTL      time.Duration
	UploadDir     string
	PostgresDSN   string
	Redis         RedisConfig
	OTP           OTPConfig
	DevMode       bool

	// BootstrapAdmin seeds one super-admin account at startup when both
	// fields are set. Existing accounts are left untouched.
	BootstrapAdminUser string
	BootstrapAdminPass string
}

// RedisConfig holds connection settings for the shared Redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// OTPConfig governs OTP issuance and the per-phone send limit.
type OTPConfig struct {
	TTL         time.Duration
	MaxAttempts int
	SendWindow  time.Duration
	SendLimit   int
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	addr := getenv("UNION_ADDR", ":8080")

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:          addr,
		JWTSigningKey: jwtSigningKey,
		JWTIssuer:     getenv("JWT_ISSUER", "udyam-union"),
		TokenTTL:      getDuration("JWT_TTL", 7*24*time.Hour),
		UploadDir:     getenv("UPLOAD_DIR", "./uploads"),
		PostgresDSN:   os.Getenv("POSTGRES_DSN"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		OTP: OTPConfig{
			TTL:         getDuration("OTP_TTL", 5*time.Minute),
			MaxAttempts: getInt("OTP_MAX_ATTEMPTS", 3),
			SendWindow:  getDuration("OTP_SEND_WINDOW", 15*time.Minute),
			SendLimit:   getInt("OTP_SEND_LIMIT", 3),
		},
		DevMode:            os.Getenv("DEV_MODE") == "true",
		BootstrapAdminUser: os.Getenv("ADMIN_USERNAME"),
		BootstrapAdminPass: os.Getenv("ADMIN_PASSWORD"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
