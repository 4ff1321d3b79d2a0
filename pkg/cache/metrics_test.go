package cache

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestMetrics_Registration tests all metrics are initialized
func TestMetrics_Registration(t *testing.T) {
	if CacheHitsTotal == nil {
		t.Error("CacheHitsTotal not registered")
	}

	if CacheMissesTotal == nil {
		t.Error("CacheMissesTotal not registered")
	}

	if CacheSetsTotal == nil {
		t.Error("CacheSetsTotal not registered")
	}

	if CacheDeletesTotal == nil {
		t.Error("CacheDeletesTotal not registered")
	}
}

// TestMetrics_MissesLabelledByKind tests misses are counted per insight kind
func TestMetrics_MissesLabelledByKind(t *testing.T) {
	cache, err := NewRistrettoCache(DefaultRistrettoConfig(nil))
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	defer cache.Close()

	before := testutil.ToFloat64(CacheMissesTotal.WithLabelValues("metrics-test"))
	cache.Get("metrics-test:absent")
	after := testutil.ToFloat64(CacheMissesTotal.WithLabelValues("metrics-test"))

	if after-before != 1 {
		t.Errorf("expected one miss, got %v", after-before)
	}
}
