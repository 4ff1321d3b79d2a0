package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel           string
	HTTPPort           string
	CORSAllowedOrigins []string

	// Polymarket API
	PolymarketGammaURL string
	PolymarketWSURL    string

	// Live order books
	LiveBooksEnabled        bool
	WSDialTimeout           time.Duration
	WSPingInterval          time.Duration
	WSPongTimeout           time.Duration
	WSReconnectInitialDelay time.Duration
	WSReconnectMaxDelay     time.Duration
	WSReconnectBackoffMult  float64
	WSMessageBufferSize     int
	BookWindow              time.Duration
	BookDepthBand           float64
	BookImpactSize          float64

	// Scanner
	ScannerEnabled     bool
	ScannerSchedule    string
	ScannerMarketLimit int

	// Cache
	CacheTTL time.Duration

	// Storage
	StorageMode  string // "postgres" or "console"
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string

	// Publisher
	PublisherMode string // "redis" or "nop"
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SignalStream  string

	// Engine defaults
	FlowSessionGap            time.Duration
	FlowMinTrades             int
	KellyDefaultRiskTolerance string
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		// Application defaults
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort:           getEnvOrDefault("HTTP_PORT", "8080"),
		CORSAllowedOrigins: getListOrDefault("CORS_ALLOWED_ORIGINS", []string{"*"}),

		// Polymarket API defaults
		PolymarketGammaURL: getEnvOrDefault("POLYMARKET_GAMMA_API_URL", "https://gamma-api.polymarket.com"),
		PolymarketWSURL:    getEnvOrDefault("POLYMARKET_WS_URL", "wss://ws-subscriptions-clob.polymarket.com/ws/market"),

		// Live order book defaults
		LiveBooksEnabled:        getBoolOrDefault("LIVE_BOOKS_ENABLED", false),
		WSDialTimeout:           getDurationOrDefault("WS_DIAL_TIMEOUT", 10*time.Second),
		WSPingInterval:          getDurationOrDefault("WS_PING_INTERVAL", 10*time.Second),
		WSPongTimeout:           getDurationOrDefault("WS_PONG_TIMEOUT", 30*time.Second),
		WSReconnectInitialDelay: getDurationOrDefault("WS_RECONNECT_INITIAL_DELAY", time.Second),
		WSReconnectMaxDelay:     getDurationOrDefault("WS_RECONNECT_MAX_DELAY", 30*time.Second),
		WSReconnectBackoffMult:  getFloat64OrDefault("WS_RECONNECT_BACKOFF_MULTIPLIER", 2.0),
		WSMessageBufferSize:     getIntOrDefault("WS_MESSAGE_BUFFER_SIZE", 1000),
		BookWindow:              getDurationOrDefault("BOOK_WINDOW", time.Hour),
		BookDepthBand:           getFloat64OrDefault("BOOK_DEPTH_BAND", 0.05),
		BookImpactSize:          getFloat64OrDefault("BOOK_IMPACT_SIZE_USD", 1000),

		// Scanner defaults
		ScannerEnabled:     getBoolOrDefault("SCANNER_ENABLED", true),
		ScannerSchedule:    getEnvOrDefault("SCANNER_SCHEDULE", "@every 5m"),
		ScannerMarketLimit: getIntOrDefault("SCANNER_MARKET_LIMIT", 100),

		CacheTTL: getDurationOrDefault("CACHE_TTL", 5*time.Minute),

		// Storage defaults
		StorageMode:  getEnvOrDefault("STORAGE_MODE", "console"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "polymarket"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "polymarket123"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "polymarket_insights"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),

		// Publisher defaults
		PublisherMode: getEnvOrDefault("PUBLISHER_MODE", "nop"),
		RedisAddr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getIntOrDefault("REDIS_DB", 0),
		SignalStream:  getEnvOrDefault("SIGNAL_STREAM", "insights.signals"),

		// Engine defaults
		FlowSessionGap:            time.Duration(getIntOrDefault("FLOW_SESSION_GAP_MINUTES", 30)) * time.Minute,
		FlowMinTrades:             getIntOrDefault("FLOW_MIN_TRADES", 2),
		KellyDefaultRiskTolerance: getEnvOrDefault("KELLY_DEFAULT_RISK_TOLERANCE", "conservative"),
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}

	if c.PolymarketGammaURL == "" {
		return fmt.Errorf("POLYMARKET_GAMMA_API_URL cannot be empty")
	}

	if c.LiveBooksEnabled {
		if c.PolymarketWSURL == "" {
			return fmt.Errorf("POLYMARKET_WS_URL cannot be empty when live books are enabled")
		}
		if c.WSMessageBufferSize <= 0 {
			return fmt.Errorf("WS_MESSAGE_BUFFER_SIZE must be positive, got %d", c.WSMessageBufferSize)
		}
		if c.BookDepthBand <= 0 || c.BookDepthBand >= 1 {
			return fmt.Errorf("BOOK_DEPTH_BAND must be between 0 and 1, got %v", c.BookDepthBand)
		}
		if c.BookImpactSize <= 0 {
			return fmt.Errorf("BOOK_IMPACT_SIZE_USD must be positive, got %v", c.BookImpactSize)
		}
	}

	if c.ScannerEnabled && c.ScannerSchedule == "" {
		return fmt.Errorf("SCANNER_SCHEDULE cannot be empty when the scanner is enabled")
	}

	if c.ScannerMarketLimit < 0 {
		return fmt.Errorf("SCANNER_MARKET_LIMIT must be >= 0 (0 = unlimited), got %d", c.ScannerMarketLimit)
	}

	if c.CacheTTL < 0 {
		return fmt.Errorf("CACHE_TTL must be >= 0, got %v", c.CacheTTL)
	}

	if c.StorageMode != "postgres" && c.StorageMode != "console" {
		return fmt.Errorf("STORAGE_MODE must be 'postgres' or 'console', got %q", c.StorageMode)
	}

	if c.PublisherMode != "redis" && c.PublisherMode != "nop" {
		return fmt.Errorf("PUBLISHER_MODE must be 'redis' or 'nop', got %q", c.PublisherMode)
	}

	if c.PublisherMode == "redis" && c.SignalStream == "" {
		return fmt.Errorf("SIGNAL_STREAM cannot be empty in redis mode")
	}

	if c.FlowSessionGap <= 0 {
		return fmt.Errorf("FLOW_SESSION_GAP_MINUTES must be positive, got %v", c.FlowSessionGap)
	}

	if c.FlowMinTrades < 1 {
		return fmt.Errorf("FLOW_MIN_TRADES must be >= 1, got %d", c.FlowMinTrades)
	}

	switch c.KellyDefaultRiskTolerance {
	case "aggressive", "moderate", "conservative":
	default:
		return fmt.Errorf("KELLY_DEFAULT_RISK_TOLERANCE must be aggressive, moderate or conservative, got %q",
			c.KellyDefaultRiskTolerance)
	}

	return nil
}

// PostgresDSN builds the lib/pq connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPass, c.PostgresDB, c.PostgresSSL)
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatVal
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}

func getListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}

	return out
}
