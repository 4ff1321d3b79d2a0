package discovery

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
)

// gammaMarket mirrors the Gamma API wire shape.
type gammaMarket struct {
	ID            string `json:"id"`
	Slug          string `json:"slug"`
	Question      string `json:"question"`
	Category      string `json:"category,omitempty"`
	Closed        bool   `json:"closed"`
	Active        bool   `json:"active"`
	EndDate       string `json:"endDate,omitempty"`
	Outcomes      string `json:"outcomes,omitempty"`
	OutcomePrices string `json:"outcomePrices,omitempty"`
}

func pricedMarket(n int) gammaMarket {
	return gammaMarket{
		ID:            fmt.Sprintf("market%d", n),
		Slug:          fmt.Sprintf("market-%d", n),
		Question:      fmt.Sprintf("Question %d?", n),
		Active:        true,
		Outcomes:      `["Yes","No"]`,
		OutcomePrices: `["0.52","0.48"]`,
	}
}

func writeMarkets(t *testing.T, w http.ResponseWriter, markets []gammaMarket) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(markets); err != nil {
		t.Errorf("encode markets: %v", err)
	}
}

// pagedServer serves total markets, honoring limit and offset.
func pagedServer(t *testing.T, total int, requests *[]string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		*requests = append(*requests, fmt.Sprintf("%d@%d", limit, offset))

		n := max(0, min(limit, total-offset))
		markets := make([]gammaMarket, 0, n)
		for i := 0; i < n; i++ {
			markets = append(markets, pricedMarket(offset+i+1))
		}
		writeMarkets(t, w, markets)
	}))
}

func TestClient_Pagination(t *testing.T) {
	tests := []struct {
		name         string
		available    int
		limit        int
		offset       int
		wantCount    int
		wantRequests []string
	}{
		{
			name:         "small-limit-single-request",
			available:    500,
			limit:        50,
			wantCount:    50,
			wantRequests: []string{"50@0"},
		},
		{
			name:         "large-limit-paginates",
			available:    500,
			limit:        250,
			wantCount:    250,
			wantRequests: []string{"100@0", "100@100", "50@200"},
		},
		{
			name:         "fetch-all",
			available:    350,
			limit:        0,
			wantCount:    350,
			wantRequests: []string{"100@0", "100@100", "100@200", "100@300"},
		},
		{
			name:         "with-offset",
			available:    500,
			limit:        150,
			offset:       100,
			wantCount:    150,
			wantRequests: []string{"100@100", "50@200"},
		},
		{
			name:         "partial-last-page",
			available:    130,
			limit:        300,
			wantCount:    130,
			wantRequests: []string{"100@0", "100@100"},
		},
		{
			name:         "exact-multiple",
			available:    200,
			limit:        200,
			wantCount:    200,
			wantRequests: []string{"100@0", "100@100"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var requests []string
			server := pagedServer(t, tt.available, &requests)
			defer server.Close()

			client := NewClient(server.URL, zap.NewNop())
			resp, err := client.FetchActiveMarkets(context.Background(), tt.limit, tt.offset, "volume24hr")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if resp.Count != tt.wantCount {
				t.Errorf("expected count=%d, got %d", tt.wantCount, resp.Count)
			}
			if fmt.Sprint(requests) != fmt.Sprint(tt.wantRequests) {
				t.Errorf("expected requests %v, got %v", tt.wantRequests, requests)
			}
			if resp.Count > 0 && resp.Data[0].ID != fmt.Sprintf("market%d", tt.offset+1) {
				t.Errorf("unexpected first market %s", resp.Data[0].ID)
			}
		})
	}
}

func TestClient_Pagination_Error(t *testing.T) {
	requestCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++
		if requestCount == 2 {
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		markets := make([]gammaMarket, 0, MaxBatchSize)
		for i := 0; i < MaxBatchSize; i++ {
			markets = append(markets, pricedMarket(i+1))
		}
		writeMarkets(t, w, markets)
	}))
	defer server.Close()

	client := NewClient(server.URL, zap.NewNop())
	_, err := client.FetchActiveMarkets(context.Background(), 300, 0, "volume24hr")
	if err == nil {
		t.Fatal("expected error from failing page")
	}
	if requestCount != 2 {
		t.Errorf("expected pagination to stop after the failing page, got %d requests", requestCount)
	}
}

func TestClient_SortDirection(t *testing.T) {
	var ascending []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ascending = append(ascending, r.URL.Query().Get("order")+"="+r.URL.Query().Get("ascending"))
		if r.Header.Get("User-Agent") != userAgent {
			t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
		}
		writeMarkets(t, w, nil)
	}))
	defer server.Close()

	client := NewClient(server.URL, zap.NewNop())
	_, _ = client.FetchActiveMarkets(context.Background(), 10, 0, "endDate")
	_, _ = client.FetchActiveMarkets(context.Background(), 10, 0, "volume24hr")

	want := []string{"endDate=true", "volume24hr=false"}
	if fmt.Sprint(ascending) != fmt.Sprint(want) {
		t.Errorf("expected %v, got %v", want, ascending)
	}
}
