package discovery

import (
	"testing"
)

// TestMetrics_Registration tests all metrics are initialized
func TestMetrics_Registration(t *testing.T) {
	if MarketsDiscoveredTotal == nil {
		t.Error("MarketsDiscoveredTotal not registered")
	}

	if NewMarketsTotal == nil {
		t.Error("NewMarketsTotal not registered")
	}

	if PollDurationSeconds == nil {
		t.Error("PollDurationSeconds not registered")
	}

	if PollErrorsTotal == nil {
		t.Error("PollErrorsTotal not registered")
	}
}
