package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-insights/internal/insights"
	"github.com/mselser95/polymarket-insights/internal/marketstate"
	"github.com/mselser95/polymarket-insights/pkg/healthprobe"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	hc := healthprobe.New()
	hc.SetReady(true)

	return New(&Config{
		Port:          "0",
		Logger:        zap.NewNop(),
		HealthChecker: hc,
		Insights:      insights.New(&insights.Config{Logger: zap.NewNop()}),
	})
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestOperationalEndpoints(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"health", "/health", http.StatusOK, `"status":"healthy"`},
		{"ready", "/ready", http.StatusOK, `"status":"ready"`},
		{"metrics", "/metrics", http.StatusOK, "go_goroutines"},
		{"unknown_route", "/nope", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodGet, tt.path, "")
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.Contains(t, w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestAPIRoutes(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "market_state",
			method:     http.MethodPost,
			path:       "/api/v1/market-state",
			body:       `{"features":{"marketId":"m1","spread":0.01,"depth":25000,"volProxy":0.01,"staleness":2}}`,
			wantStatus: http.StatusOK,
			wantBody:   `"stateLabel":"calm_liquid"`,
		},
		{
			name:       "market_state_missing_id",
			method:     http.MethodPost,
			path:       "/api/v1/market-state",
			body:       `{"features":{"spread":0.01}}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   "marketId is required",
		},
		{
			name:       "malformed_body",
			method:     http.MethodPost,
			path:       "/api/v1/behavior",
			body:       `{"marketId":`,
			wantStatus: http.StatusBadRequest,
			wantBody:   "invalid request body",
		},
		{
			name:       "behavior",
			method:     http.MethodPost,
			path:       "/api/v1/behavior",
			body:       `{"marketId":"m1","question":"Will CPI come in above 3% in the March report?","category":"Economics","avgSpread":0.02,"avgVolume24h":50000}`,
			wantStatus: http.StatusOK,
			wantBody:   `"cluster":`,
		},
		{
			name:       "cluster_display",
			method:     http.MethodGet,
			path:       "/api/v1/behavior/clusters/breaking_news",
			wantStatus: http.StatusOK,
			wantBody:   `"cluster":"breaking_news"`,
		},
		{
			name:       "cluster_unknown",
			method:     http.MethodGet,
			path:       "/api/v1/behavior/clusters/vibes",
			wantStatus: http.StatusNotFound,
			wantBody:   "unknown cluster",
		},
		{
			name:       "market_state_label_unknown",
			method:     http.MethodGet,
			path:       "/api/v1/market-state/labels/sleepy",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "consistency_unrelated",
			method:     http.MethodPost,
			path:       "/api/v1/consistency",
			body:       `{"pair":{"marketA":{"marketId":"a","question":"Will it rain in London tomorrow?","price":0.5},"marketB":{"marketId":"b","question":"Will the Lakers win the championship?","price":0.5}}}`,
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "consistency_scan_empty",
			method:     http.MethodPost,
			path:       "/api/v1/consistency/scan",
			body:       `{"markets":[]}`,
			wantStatus: http.StatusOK,
			wantBody:   `"results":[]`,
		},
		{
			name:       "flow_requires_market",
			method:     http.MethodPost,
			path:       "/api/v1/flow/summary",
			body:       `{"trades":[]}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   "MarketID",
		},
		{
			name:       "flow_episodes_empty",
			method:     http.MethodPost,
			path:       "/api/v1/flow/episodes",
			body:       `{"marketId":"m1","trades":[]}`,
			wantStatus: http.StatusOK,
			wantBody:   `[]`,
		},
		{
			name:       "rank_requires_wallet_address",
			method:     http.MethodPost,
			path:       "/api/v1/traders/rank",
			body:       `{"wallets":[{"metrics":{"winRate":60}}]}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   "WalletAddress",
		},
		{
			name:       "kelly",
			method:     http.MethodPost,
			path:       "/api/v1/sizing/kelly",
			body:       `{"bankroll":1000,"odds":0.5,"edge":0.1}`,
			wantStatus: http.StatusOK,
			wantBody:   `"riskPercentage":2.5`,
		},
		{
			name:       "kelly_bad_odds",
			method:     http.MethodPost,
			path:       "/api/v1/sizing/kelly",
			body:       `{"bankroll":1000,"odds":1.5,"edge":0.1}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "kelly_bad_tolerance",
			method:     http.MethodPost,
			path:       "/api/v1/sizing/kelly",
			body:       `{"bankroll":1000,"odds":0.5,"edge":0.1,"riskTolerance":"reckless"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "advanced_kelly_default_tolerance",
			method:     http.MethodPost,
			path:       "/api/v1/sizing/advanced",
			body:       `{"bankroll":1000,"odds":0.5,"winProbability":0.6}`,
			wantStatus: http.StatusOK,
			wantBody:   `"riskPercentage":2.5`,
		},
		{
			name:       "risk_levels",
			method:     http.MethodPost,
			path:       "/api/v1/sizing/risk-levels",
			body:       `{"entry":0.4}`,
			wantStatus: http.StatusOK,
			wantBody:   `"stopLoss":0.34`,
		},
		{
			name:       "best_bets_insufficient",
			method:     http.MethodPost,
			path:       "/api/v1/signals/best-bets",
			body:       `{"marketId":"m1","currentPrice":0.5,"activities":[]}`,
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "best_bets_bad_price",
			method:     http.MethodPost,
			path:       "/api/v1/signals/best-bets",
			body:       `{"marketId":"m1","currentPrice":1.5}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   "CurrentPrice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantBody != "" {
				assert.Contains(t, w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestBestBetsEndpoint(t *testing.T) {
	s := newTestServer(t)

	ts := time.Now().UTC().Add(-5 * time.Minute).Format(time.RFC3339)
	body := `{"marketId":"m1","question":"Will it happen?","category":"Politics","currentPrice":0.55,"liquidity":120000,"activities":[` +
		`{"walletAddress":"0x1","eliteScore":90,"side":"yes","positionSize":2000,"entryPrice":0.5,"timestamp":"` + ts + `"},` +
		`{"walletAddress":"0x2","eliteScore":80,"side":"yes","positionSize":1000,"entryPrice":0.52,"timestamp":"` + ts + `"}]}`

	w := do(t, s, http.MethodPost, "/api/v1/signals/best-bets", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	out := decodeBody(t, w)
	assert.Equal(t, "bb-m1-yes", out["id"])
	assert.Equal(t, "yes", out["consensusSide"])
}

type stubBooks map[string]marketstate.Features

func (b stubBooks) Features(marketID string) (marketstate.Features, bool) {
	f, ok := b[marketID]
	return f, ok
}

func TestPartialThresholdsKeepDefaults(t *testing.T) {
	s := newTestServer(t)

	t.Run("market_state", func(t *testing.T) {
		// Only spreadTight is given; spreadWide must stay 0.05 so a 4c spread is not "wide"
		w := do(t, s, http.MethodPost, "/api/v1/market-state",
			`{"features":{"marketId":"m1","spread":0.04},"thresholds":{"spreadTight":0.05}}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var result marketstate.Result
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.Equal(t, marketstate.StateCalmLiquid, result.StateLabel)
		assert.InDelta(t, 35, result.Scores[marketstate.StateCalmLiquid], 1e-9)
		assert.InDelta(t, 5, result.Scores[marketstate.StateThinSlippage], 1e-9)
		assert.InDelta(t, 100, result.Confidence, 1e-9)
	})

	t.Run("flow_episodes", func(t *testing.T) {
		// Three trades an hour apart form three single-trade sessions, which the
		// default minimum of two trades per episode discards
		body := `{"marketId":"m1","thresholds":{"sessionGapMinutes":30},"trades":[
			{"walletId":"w1","side":"buy","size":100,"price":0.5,"timestamp":"2026-03-01T10:00:00Z"},
			{"walletId":"w2","side":"buy","size":100,"price":0.5,"timestamp":"2026-03-01T11:00:00Z"},
			{"walletId":"w3","side":"buy","size":100,"price":0.5,"timestamp":"2026-03-01T12:00:00Z"}]}`
		w := do(t, s, http.MethodPost, "/api/v1/flow/episodes", body)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("null_thresholds", func(t *testing.T) {
		w := do(t, s, http.MethodPost, "/api/v1/market-state",
			`{"features":{"marketId":"m1","spread":0.01},"thresholds":null}`)
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	t.Run("invalid_thresholds", func(t *testing.T) {
		w := do(t, s, http.MethodPost, "/api/v1/consistency",
			`{"pair":{"marketA":{"marketId":"a"},"marketB":{"marketId":"b"}},"thresholds":{"minSimilarity":"high"}}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "invalid thresholds")
	})
}

func TestLiveMarketState(t *testing.T) {
	spread, depth, vol, staleness := 0.01, 25000.0, 0.01, 2.0

	s := New(&Config{
		Port:          "0",
		Logger:        zap.NewNop(),
		HealthChecker: healthprobe.New(),
		Insights:      insights.New(&insights.Config{}),
		Books: stubBooks{
			"m1": {MarketID: "m1", Spread: &spread, Depth: &depth, VolProxy: &vol, Staleness: &staleness},
		},
	})

	w := do(t, s, http.MethodGet, "/api/v1/markets/m1/state", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := decodeBody(t, w)
	assert.Equal(t, "calm_liquid", out["stateLabel"])
	assert.Equal(t, "m1", out["marketId"])

	w = do(t, s, http.MethodGet, "/api/v1/markets/m2/state", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "no live book")
}

func TestLiveMarketState_Disabled(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/api/v1/markets/m1/state", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAPIRoutes_OnlyWithInsights(t *testing.T) {
	s := New(&Config{Port: "0", Logger: zap.NewNop(), HealthChecker: healthprobe.New()})

	w := do(t, s, http.MethodPost, "/api/v1/sizing/kelly", `{"bankroll":1000,"odds":0.5,"edge":0.1}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORS(t *testing.T) {
	s := New(&Config{
		Port:           "0",
		Logger:         zap.NewNop(),
		HealthChecker:  healthprobe.New(),
		Insights:       insights.New(&insights.Config{}),
		AllowedOrigins: []string{"https://app.example"},
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/sizing/kelly", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_Timeouts(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, 15*time.Second, s.server.ReadTimeout)
	assert.Equal(t, 10*time.Second, s.server.ReadHeaderTimeout)
	assert.Equal(t, 15*time.Second, s.server.WriteTimeout)
	assert.Equal(t, 60*time.Second, s.server.IdleTimeout)
}

func TestServer_StartAndShutdown(t *testing.T) {
	s := newTestServer(t)

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- s.Start()
	}()

	time.Sleep(100 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := s.Shutdown(ctx)
	assert.NoError(t, err)

	select {
	case err := <-serverDone:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start() did not return after shutdown")
	}
}
