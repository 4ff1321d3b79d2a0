package behavior

// Cluster is one of the six behavioral archetypes.
type Cluster string

// Known clusters, in tie-break order.
const (
	ClusterScheduledEvent  Cluster = "scheduled_event"
	ClusterBreakingNews    Cluster = "breaking_news"
	ClusterLongHorizon     Cluster = "long_horizon"
	ClusterDataRelease     Cluster = "data_release"
	ClusterPriceThreshold  Cluster = "price_threshold"
	ClusterSentimentDriven Cluster = "sentiment_driven"
)

// Range is an inclusive [Min, Max] band on a 0-100 dimension.
type Range struct {
	Min float64
	Max float64
}

func (r Range) mid() float64 {
	return (r.Min + r.Max) / 2
}

func (r Range) halfWidth() float64 {
	return (r.Max - r.Min) / 2
}

// definition declares what a cluster looks like along each dimension.
type definition struct {
	cluster          Cluster
	infoCadence      Range
	infoStructure    Range
	liquidity        Range
	timeToResolution Range
	concentration    Range
	keywords         []string
	categories       []string
}

// definitions returns the archetypes in tie-break order.
func definitions() []definition {
	return []definition{
		{
			cluster:          ClusterScheduledEvent,
			infoCadence:      Range{50, 80},
			infoStructure:    Range{60, 90},
			liquidity:        Range{50, 90},
			timeToResolution: Range{0, 35},
			concentration:    Range{20, 60},
			keywords:         []string{"win", "vs", "match", "game", "final", "championship", "beat", "score", "series"},
			categories:       []string{"sports", "nba", "nfl", "mlb", "nhl", "soccer", "tennis", "esports"},
		},
		{
			cluster:          ClusterBreakingNews,
			infoCadence:      Range{70, 100},
			infoStructure:    Range{10, 50},
			liquidity:        Range{0, 50},
			timeToResolution: Range{0, 50},
			concentration:    Range{20, 70},
			keywords:         []string{"war", "attack", "strike", "ceasefire", "invade", "sanction", "resign", "indicted", "arrest", "ban"},
			categories:       []string{"geopolitics", "world", "news", "breaking"},
		},
		{
			cluster:          ClusterLongHorizon,
			infoCadence:      Range{0, 40},
			infoStructure:    Range{30, 70},
			liquidity:        Range{55, 100},
			timeToResolution: Range{65, 100},
			concentration:    Range{0, 45},
			keywords:         []string{"election", "president", "nominee", "2028", "senate", "congress", "governor", "primary", "by end of"},
			categories:       []string{"politics", "elections", "us-politics"},
		},
		{
			cluster:          ClusterDataRelease,
			infoCadence:      Range{30, 60},
			infoStructure:    Range{75, 100},
			liquidity:        Range{45, 90},
			timeToResolution: Range{10, 55},
			concentration:    Range{30, 70},
			keywords:         []string{"cpi", "inflation", "fed", "rate", "gdp", "jobs", "unemployment", "payrolls", "fomc", "bps"},
			categories:       []string{"economics", "economy", "finance", "macro"},
		},
		{
			cluster:          ClusterPriceThreshold,
			infoCadence:      Range{75, 100},
			infoStructure:    Range{70, 100},
			liquidity:        Range{30, 80},
			timeToResolution: Range{0, 60},
			concentration:    Range{20, 60},
			keywords:         []string{"price", "above", "below", "bitcoin", "btc", "ethereum", "eth", "solana", "reach", "hit", "$"},
			categories:       []string{"crypto", "stocks", "markets", "commodities"},
		},
		{
			cluster:          ClusterSentimentDriven,
			infoCadence:      Range{30, 70},
			infoStructure:    Range{0, 35},
			liquidity:        Range{0, 55},
			timeToResolution: Range{20, 80},
			concentration:    Range{55, 100},
			keywords:         []string{"say", "tweet", "post", "album", "movie", "celebrity", "oscar", "grammy", "announce", "mention"},
			categories:       []string{"pop-culture", "culture", "entertainment", "social", "celebrities"},
		},
	}
}

// ClusterDisplayInfo is the UI-facing description of a cluster.
type ClusterDisplayInfo struct {
	Cluster     Cluster `json:"cluster"`
	Label       string  `json:"label"`
	Description string  `json:"description"`
	TradingNote string  `json:"tradingNote"`
	Color       string  `json:"color"`
}

//nolint:gochecknoglobals // read-only lookup table
var displayInfo = map[Cluster]ClusterDisplayInfo{
	ClusterScheduledEvent: {
		Label:       "Scheduled Event",
		Description: "resolves at a known time on a discrete, observable outcome",
		TradingNote: "Information arrives in bursts around the event itself.",
		Color:       "blue",
	},
	ClusterBreakingNews: {
		Label:       "Breaking News",
		Description: "driven by unscheduled headlines with loosely defined resolution sources",
		TradingNote: "Liquidity can vanish quickly when headlines hit.",
		Color:       "red",
	},
	ClusterLongHorizon: {
		Label:       "Long Horizon",
		Description: "resolves far in the future with slow-moving information",
		TradingNote: "Prices drift with polling and fundamentals rather than single events.",
		Color:       "indigo",
	},
	ClusterDataRelease: {
		Label:       "Data Release",
		Description: "settles on a scheduled, numeric data print",
		TradingNote: "Positioning tends to build ahead of the release date.",
		Color:       "teal",
	},
	ClusterPriceThreshold: {
		Label:       "Price Threshold",
		Description: "tracks a continuously quoted price crossing a level",
		TradingNote: "Moves with the underlying asset in near real time.",
		Color:       "amber",
	},
	ClusterSentimentDriven: {
		Label:       "Sentiment Driven",
		Description: "hinges on public statements or cultural outcomes",
		TradingNote: "Often concentrated among a few motivated participants.",
		Color:       "pink",
	},
}

// GetDisplayInfo returns the display info for a cluster.
func GetDisplayInfo(cluster Cluster) (ClusterDisplayInfo, bool) {
	info, ok := displayInfo[cluster]
	if !ok {
		return ClusterDisplayInfo{}, false
	}
	info.Cluster = cluster
	return info, true
}

// Clusters lists every cluster in tie-break order.
func Clusters() []Cluster {
	defs := definitions()
	out := make([]Cluster, 0, len(defs))
	for _, def := range defs {
		out = append(out, def.cluster)
	}
	return out
}
