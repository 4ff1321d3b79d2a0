package discovery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-insights/pkg/types"
)

const (
	// MaxBatchSize is the maximum number of markets to fetch per API request.
	MaxBatchSize = 100

	userAgent = "polymarket-insights/1.0"
)

// Client is an HTTP client for the Polymarket Gamma API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new Gamma API client.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// FetchActiveMarkets fetches active markets with automatic pagination.
// A limit of 0 fetches every active market. orderBy is a Gamma sort field:
// "volume24hr", "liquidity", "createdAt" or "endDate".
func (c *Client) FetchActiveMarkets(ctx context.Context, limit int, offset int, orderBy string) (*types.MarketsResponse, error) {
	if limit > MaxBatchSize || limit == 0 {
		return c.fetchWithPagination(ctx, limit, offset, orderBy)
	}

	return c.fetchSinglePage(ctx, limit, offset, orderBy)
}

func (c *Client) fetchSinglePage(ctx context.Context, limit int, offset int, orderBy string) (*types.MarketsResponse, error) {
	if limit == 0 {
		limit = MaxBatchSize
	}

	params := url.Values{}
	params.Add("closed", "false")
	params.Add("active", "true")
	params.Add("limit", strconv.Itoa(limit))
	params.Add("offset", strconv.Itoa(offset))
	params.Add("order", orderBy)

	// endDate ascending puts the soonest resolutions first
	if orderBy == "endDate" {
		params.Add("ascending", "true")
	} else {
		params.Add("ascending", "false")
	}

	requestURL := fmt.Sprintf("%s/markets?%s", c.baseURL, params.Encode())

	c.logger.Debug("fetching-markets",
		zap.String("url", requestURL),
		zap.Int("limit", limit),
		zap.Int("offset", offset))

	var markets []types.Market
	err := c.getJSON(ctx, requestURL, &markets)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("fetched-markets", zap.Int("count", len(markets)))

	return &types.MarketsResponse{
		Data:   markets,
		Count:  len(markets),
		Limit:  limit,
		Offset: offset,
	}, nil
}

func (c *Client) fetchWithPagination(ctx context.Context, limit int, offset int, orderBy string) (*types.MarketsResponse, error) {
	var (
		allMarkets   []types.Market
		currentPage  = 0
		totalFetched = 0
		fetchAll     = limit == 0
	)

	for {
		pageBatchSize := MaxBatchSize
		if !fetchAll {
			remaining := limit - totalFetched
			if remaining <= 0 {
				break
			}
			pageBatchSize = min(remaining, MaxBatchSize)
		}

		pageOffset := offset + currentPage*MaxBatchSize

		resp, err := c.fetchSinglePage(ctx, pageBatchSize, pageOffset, orderBy)
		if err != nil {
			return nil, fmt.Errorf("fetch page %d: %w", currentPage, err)
		}

		allMarkets = append(allMarkets, resp.Data...)
		totalFetched += len(resp.Data)

		c.logger.Debug("fetched-page",
			zap.Int("page", currentPage),
			zap.Int("markets", len(resp.Data)),
			zap.Int("total", totalFetched))

		// A short page means the API has no more data
		if len(resp.Data) < pageBatchSize {
			break
		}

		if !fetchAll && totalFetched >= limit {
			break
		}

		currentPage++
	}

	return &types.MarketsResponse{
		Data:   allMarkets,
		Count:  len(allMarkets),
		Limit:  limit,
		Offset: offset,
	}, nil
}

// FetchMarket fetches a single market by its Gamma ID.
func (c *Client) FetchMarket(ctx context.Context, id string) (*types.Market, error) {
	requestURL := fmt.Sprintf("%s/markets/%s", c.baseURL, url.PathEscape(id))

	var market types.Market
	err := c.getJSON(ctx, requestURL, &market)
	if err != nil {
		return nil, err
	}

	return &market, nil
}

// FetchMarketBySlug searches the active market list for slug.
// The Gamma API only addresses single markets by ID.
func (c *Client) FetchMarketBySlug(ctx context.Context, slug string) (*types.Market, error) {
	const (
		limit    = 100
		maxPages = 10
	)
	offset := 0

	for range maxPages {
		resp, err := c.FetchActiveMarkets(ctx, limit, offset, "volume24hr")
		if err != nil {
			return nil, fmt.Errorf("fetch markets: %w", err)
		}

		for i := range resp.Data {
			if resp.Data[i].Slug == slug {
				return &resp.Data[i], nil
			}
		}

		if len(resp.Data) < limit {
			break
		}

		offset += limit
	}

	return nil, fmt.Errorf("market not found: %s", slug)
}

func (c *Client) getJSON(ctx context.Context, requestURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	err = json.Unmarshal(body, out)
	if err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	return nil
}
