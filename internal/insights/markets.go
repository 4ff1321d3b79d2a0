package insights

import (
	"github.com/mselser95/polymarket-insights/internal/behavior"
	"github.com/mselser95/polymarket-insights/internal/consistency"
	"github.com/mselser95/polymarket-insights/pkg/types"
)

// BehaviorMarket maps a Gamma market onto the behavior classifier input.
// Gamma's current spread and 24h volume stand in for the averages.
func BehaviorMarket(m types.Market) behavior.Market {
	return behavior.Market{
		MarketID:     m.ID,
		Question:     m.Question,
		Category:     m.Category,
		EndDate:      m.EndDate,
		AvgSpread:    m.Spread,
		AvgVolume24h: m.Volume24hr,
	}
}

// Snapshot maps a Gamma market onto a consistency snapshot priced at YES.
func Snapshot(m types.Market) consistency.MarketSnapshot {
	price, _ := m.YesPrice()
	return consistency.MarketSnapshot{
		MarketID: m.ID,
		Question: m.Question,
		Price:    price,
		EndDate:  m.EndDate,
		Category: m.Category,
	}
}
