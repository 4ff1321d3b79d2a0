package config

import (
	"os"
	"testing"
	"time"
)

// BenchmarkConfig_Validate benchmarks configuration validation
func BenchmarkConfig_Validate(b *testing.B) {
	cfg := &Config{
		HTTPPort:                  "8080",
		PolymarketGammaURL:        "https://gamma-api.polymarket.com",
		ScannerSchedule:           "@every 5m",
		StorageMode:               "console",
		PublisherMode:             "nop",
		FlowSessionGap:            30 * time.Minute,
		FlowMinTrades:             2,
		KellyDefaultRiskTolerance: "conservative",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = cfg.Validate()
	}
}

// BenchmarkConfig_LoadFromEnv benchmarks environment variable loading
func BenchmarkConfig_LoadFromEnv(b *testing.B) {
	os.Setenv("SCANNER_MARKET_LIMIT", "250")
	os.Setenv("FLOW_MIN_TRADES", "4")
	os.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	defer func() {
		os.Unsetenv("SCANNER_MARKET_LIMIT")
		os.Unsetenv("FLOW_MIN_TRADES")
		os.Unsetenv("CORS_ALLOWED_ORIGINS")
	}()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = LoadFromEnv()
	}
}
