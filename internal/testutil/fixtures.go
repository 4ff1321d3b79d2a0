package testutil

import (
	"strconv"
	"time"

	"github.com/mselser95/polymarket-insights/internal/signals"
)

// GammaMarket is a market in the Gamma API wire format, with outcomes and
// prices as JSON-encoded strings.
type GammaMarket struct {
	ID            string  `json:"id"`
	Question      string  `json:"question"`
	Slug          string  `json:"slug"`
	Category      string  `json:"category,omitempty"`
	Active        bool    `json:"active"`
	Closed        bool    `json:"closed"`
	EndDate       string  `json:"endDate,omitempty"`
	Volume24hr    float64 `json:"volume24hr"`
	LiquidityNum  float64 `json:"liquidityNum"`
	Spread        float64 `json:"spread"`
	Outcomes      string  `json:"outcomes"`
	OutcomePrices string  `json:"outcomePrices"`
	ClobTokenIDs  string  `json:"clobTokenIds,omitempty"`
}

// CreateGammaMarket creates an open YES/NO market priced at yes, resolving
// in 30 days. Its CLOB token IDs are tok-<id>-yes and tok-<id>-no.
func CreateGammaMarket(id string, question string, yes float64) GammaMarket {
	no := 1 - yes
	return GammaMarket{
		ID:            id,
		Question:      question,
		Slug:          "market-" + id,
		Category:      "Politics",
		Active:        true,
		EndDate:       time.Now().Add(30 * 24 * time.Hour).UTC().Format(time.RFC3339),
		Volume24hr:    25000,
		LiquidityNum:  60000,
		Spread:        0.02,
		Outcomes:      `["Yes", "No"]`,
		OutcomePrices: `["` + strconv.FormatFloat(yes, 'f', 2, 64) + `", "` + strconv.FormatFloat(no, 'f', 2, 64) + `"]`,
		ClobTokenIDs:  `["tok-` + id + `-yes", "tok-` + id + `-no"]`,
	}
}

// CreateTraderActivity creates an elite-trader entry on side, age ago.
func CreateTraderActivity(wallet string, side signals.Side, eliteScore float64, age time.Duration) signals.TraderActivity {
	return signals.TraderActivity{
		WalletAddress: wallet,
		EliteScore:    eliteScore,
		Side:          side,
		PositionSize:  1000,
		EntryPrice:    0.55,
		Timestamp:     time.Now().UTC().Add(-age),
	}
}
