package testutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/mselser95/polymarket-insights/internal/signals"
	"github.com/mselser95/polymarket-insights/internal/storage"
)

// MockGammaAPI is a mock HTTP server that simulates the Polymarket Gamma API.
type MockGammaAPI struct {
	*httptest.Server
	Markets  []GammaMarket
	requests int
	mu       sync.RWMutex
}

// NewMockGammaAPI creates a new mock Gamma API server. It serves /markets
// with limit/offset paging and /markets/{id}.
func NewMockGammaAPI(markets []GammaMarket) *MockGammaAPI {
	mock := &MockGammaAPI{
		Markets: markets,
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requests++
		mock.mu.Unlock()

		mock.mu.RLock()
		defer mock.mu.RUnlock()

		// Gamma API returns a direct array, not wrapped in an object
		if r.URL.Path == "/markets" {
			writeJSON(w, mock.page(r))
			return
		}

		if id, ok := strings.CutPrefix(r.URL.Path, "/markets/"); ok {
			for _, m := range mock.Markets {
				if m.ID == id {
					writeJSON(w, m)
					return
				}
			}
		}

		http.NotFound(w, r)
	})

	mock.Server = httptest.NewServer(handler)
	return mock
}

func (m *MockGammaAPI) page(r *http.Request) []GammaMarket {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = len(m.Markets)
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	if offset >= len(m.Markets) {
		return []GammaMarket{}
	}
	end := offset + limit
	if end > len(m.Markets) {
		end = len(m.Markets)
	}
	return m.Markets[offset:end]
}

// AddMarket adds a market to the mock API.
func (m *MockGammaAPI) AddMarket(market GammaMarket) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Markets = append(m.Markets, market)
}

// Requests returns the number of requests served.
func (m *MockGammaAPI) Requests() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requests
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// MockStorage is an in-memory storage implementation for testing.
type MockStorage struct {
	Records []*storage.Record
	Err     error
	mu      sync.Mutex
}

// NewMockStorage creates a new mock storage.
func NewMockStorage() *MockStorage {
	return &MockStorage{
		Records: make([]*storage.Record, 0),
	}
}

// StoreResult stores a record in memory, or returns Err when set.
func (m *MockStorage) StoreResult(ctx context.Context, rec *storage.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}

	recCopy := *rec
	m.Records = append(m.Records, &recCopy)
	return nil
}

// Close is a no-op for mock storage.
func (m *MockStorage) Close() error {
	return nil
}

// Kinds returns the kind of every stored record, in order.
func (m *MockStorage) Kinds() []storage.Kind {
	m.mu.Lock()
	defer m.mu.Unlock()

	kinds := make([]storage.Kind, 0, len(m.Records))
	for _, r := range m.Records {
		kinds = append(kinds, r.Kind)
	}
	return kinds
}

// Count returns how many records of kind were stored.
func (m *MockStorage) Count(kind storage.Kind) int {
	n := 0
	for _, k := range m.Kinds() {
		if k == kind {
			n++
		}
	}
	return n
}

// MockPublisher records published signals.
type MockPublisher struct {
	Published []*signals.BestBetsSignal
	Err       error
	mu        sync.Mutex
}

// NewMockPublisher creates a new mock publisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

// PublishSignal records the signal and returns Err.
func (m *MockPublisher) PublishSignal(ctx context.Context, signal *signals.BestBetsSignal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Published = append(m.Published, signal)
	return m.Err
}

// Close is a no-op for mock publisher.
func (m *MockPublisher) Close() error {
	return nil
}

// Signals returns the published signals.
func (m *MockPublisher) Signals() []*signals.BestBetsSignal {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*signals.BestBetsSignal, len(m.Published))
	copy(out, m.Published)
	return out
}
