package types

import (
	"strconv"
	"time"

	json "github.com/goccy/go-json"
)

// Market represents a Polymarket market from the Gamma API.
type Market struct {
	ID            string    `json:"id"`
	Question      string    `json:"question"`
	Slug          string    `json:"slug"`
	Category      string    `json:"category"`
	Closed        bool      `json:"closed"`
	Active        bool      `json:"active"`
	Tokens        []Token   `json:"-"` // Populated from outcomes + outcomePrices
	EndDate       time.Time `json:"-"` // Parsed from endDate, zero when absent
	Volume24hr    float64   `json:"volume24hr"`
	Liquidity     float64   `json:"liquidityNum"`
	Spread        float64   `json:"spread"`
	Outcomes      string    `json:"outcomes"`      // JSON string: "[\"Yes\", \"No\"]"
	OutcomePrices string    `json:"outcomePrices"` // JSON string: "[\"0.52\", \"0.48\"]"
	ClobTokenIDs  string    `json:"clobTokenIds"`  // JSON string: "[\"token1\", \"token2\"]"
}

// UnmarshalJSON parses endDate leniently and expands outcomes, outcomePrices
// and clobTokenIds into Tokens.
func (m *Market) UnmarshalJSON(data []byte) error {
	type Alias Market
	aux := &struct {
		EndDate string `json:"endDate"`
		*Alias
	}{
		Alias: (*Alias)(m),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.EndDate != "" {
		endDate, err := time.Parse(time.RFC3339, aux.EndDate)
		if err == nil {
			m.EndDate = endDate
		}
	}

	if m.Outcomes == "" {
		return nil
	}

	var outcomes []string
	if err := json.Unmarshal([]byte(m.Outcomes), &outcomes); err != nil {
		return nil
	}

	var prices []string
	if m.OutcomePrices != "" {
		_ = json.Unmarshal([]byte(m.OutcomePrices), &prices)
	}

	var tokenIDs []string
	if m.ClobTokenIDs != "" {
		_ = json.Unmarshal([]byte(m.ClobTokenIDs), &tokenIDs)
	}

	m.Tokens = make([]Token, 0, len(outcomes))
	for i, outcome := range outcomes {
		token := Token{Outcome: outcome}
		if i < len(tokenIDs) {
			token.TokenID = tokenIDs[i]
		}
		if i < len(prices) {
			price, err := strconv.ParseFloat(prices[i], 64)
			if err == nil {
				token.Price = price
			}
		}
		m.Tokens = append(m.Tokens, token)
	}

	return nil
}

// Token represents a market outcome with its last quoted price.
type Token struct {
	TokenID string  `json:"tokenId,omitempty"`
	Outcome string  `json:"outcome"`
	Price   float64 `json:"price,omitempty"`
}

// YesPrice returns the price of the YES outcome, falling back to the first outcome.
// Returns false when the market carries no prices.
func (m *Market) YesPrice() (float64, bool) {
	for i := range m.Tokens {
		if m.Tokens[i].Outcome == "Yes" || m.Tokens[i].Outcome == "YES" {
			return m.Tokens[i].Price, true
		}
	}

	if len(m.Tokens) > 0 {
		return m.Tokens[0].Price, true
	}

	return 0, false
}

// YesTokenID returns the CLOB token ID of the YES outcome, falling back to the
// first outcome. Returns "" when the market carries no token IDs.
func (m *Market) YesTokenID() string {
	for i := range m.Tokens {
		if m.Tokens[i].Outcome == "Yes" || m.Tokens[i].Outcome == "YES" {
			return m.Tokens[i].TokenID
		}
	}

	if len(m.Tokens) > 0 {
		return m.Tokens[0].TokenID
	}

	return ""
}

// MarketsResponse wraps a page of Gamma API markets.
type MarketsResponse struct {
	Data   []Market `json:"data"`
	Count  int      `json:"count"`
	Limit  int      `json:"limit"`
	Offset int      `json:"offset"`
}
