package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	Auth           AuthConfig
	Gateway        GatewayConfig
	Webhook        WebhookConfig
	RateLimit      RateLimitConfig
	AdminBootstrap AdminBootstrapConfig
	Jobs           JobsConfig
	Logging        LoggingConfig
	Tracing        TracingConfig
	Environment    string
}

type ServerConfig struct {
	Host    string
	Port    int
	BaseURL string
}

type DatabaseConfig struct {
	URL            string
	MaxConnections int
	MaxIdle        int
}

type AuthConfig struct {
	JWTSecret string
	JWTExpiry time.Duration
	Issuer    string
}

// GatewayConfig selects merchant credentials and the Cielo environment.
// When Sandbox is true and no explicit URLs are configured, the sandbox
// endpoints are used.
type GatewayConfig struct {
	MerchantID   string
	MerchantKey  string
	APIBaseURL   string
	QueryBaseURL string
	Sandbox      bool
	Timeout      time.Duration
}

type WebhookConfig struct {
	Secret string
}

type RateLimitConfig struct {
	PublicPerMinute  int
	UserPerMinute    int
	WebhookPerMinute int
}

type AdminBootstrapConfig struct {
	Name     string
	Password string
	Email    string
}

type JobsConfig struct {
	ReconcileInterval  time.Duration
	ReconcileMinAge    time.Duration
	ReconcileBatchSize int
	ExpireGrace        time.Duration
	RetryReconcile     int
}

type LoggingConfig struct {
	Level  string
	Format string
}

type TracingConfig struct {
	Enabled      bool
	Exporter     string
	ServiceName  string
	OTLPEndpoint string
	SampleRate   float64
}

func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host:    getEnv("SERVER_HOST", "0.0.0.0"),
			Port:    getEnvInt("SERVER_PORT", 8080),
			BaseURL: getEnv("SERVER_BASE_URL", "http://localhost:8080"),
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConnections: getEnvInt("DATABASE_MAX_CONNECTIONS", 25),
			MaxIdle:        getEnvInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			JWTExpiry: time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 24)) * time.Hour,
			Issuer:    getEnv("JWT_ISSUER", "inscrevo"),
		},
		Gateway: GatewayConfig{
			MerchantID:   getEnv("CIELO_MERCHANT_ID", ""),
			MerchantKey:  getEnv("CIELO_MERCHANT_KEY", ""),
			APIBaseURL:   getEnv("CIELO_API_URL", ""),
			QueryBaseURL: getEnv("CIELO_QUERY_URL", ""),
			Sandbox:      getEnvBool("CIELO_SANDBOX", true),
			Timeout:      time.Duration(getEnvInt("CIELO_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Webhook: WebhookConfig{
			Secret: getEnv("WEBHOOK_SECRET", ""),
		},
		RateLimit: RateLimitConfig{
			PublicPerMinute:  getEnvInt("RATE_LIMIT_PUBLIC", 60),
			UserPerMinute:    getEnvInt("RATE_LIMIT_USER", 300),
			WebhookPerMinute: getEnvInt("RATE_LIMIT_WEBHOOK", 0),
		},
		AdminBootstrap: AdminBootstrapConfig{
			Name:     getEnv("ADMIN_NAME", ""),
			Password: getEnv("ADMIN_PASSWORD", ""),
			Email:    getEnv("ADMIN_EMAIL", ""),
		},
		Jobs: JobsConfig{
			ReconcileInterval:  time.Duration(getEnvInt("JOB_RECONCILE_INTERVAL_MINUTES", 15)) * time.Minute,
			ReconcileMinAge:    time.Duration(getEnvInt("JOB_RECONCILE_MIN_AGE_MINUTES", 10)) * time.Minute,
			ReconcileBatchSize: getEnvInt("JOB_RECONCILE_BATCH_SIZE", 100),
			ExpireGrace:        time.Duration(getEnvInt("JOB_EXPIRE_GRACE_HOURS", 24)) * time.Hour,
			RetryReconcile:     getEnvInt("JOB_RETRY_RECONCILE", 5),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Tracing: TracingConfig{
			Enabled:      getEnvBool("TRACING_ENABLED", false),
			Exporter:     getEnv("TRACING_EXPORTER", "none"),
			ServiceName:  getEnv("TRACING_SERVICE_NAME", "inscrevo-server"),
			OTLPEndpoint: getEnv("TRACING_OTLP_ENDPOINT", "localhost:4317"),
			SampleRate:   getEnvFloat("TRACING_SAMPLE_RATE", 1.0),
		},
		Environment: getEnv("ENVIRONMENT", "development"),
	}

	if cfg.Database.URL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.Gateway.MerchantID == "" || cfg.Gateway.MerchantKey == "" {
		return Config{}, fmt.Errorf("CIELO_MERCHANT_ID and CIELO_MERCHANT_KEY are required")
	}
	if cfg.Webhook.Secret == "" {
		// An empty secret would make signature verification vacuous: an
		// unsigned notification compares equal to "".
		return Config{}, fmt.Errorf("WEBHOOK_SECRET is required")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
