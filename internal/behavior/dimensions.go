package behavior

import (
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/mselser95/polymarket-insights/pkg/scoring"
)

const (
	keywordStep  = 12.0
	numericBonus = 10.0
	horizonDays  = 730.0
	neutralScore = 50.0
	dimensionMax = 100.0
	dimensionMin = 0.0
)

//nolint:gochecknoglobals // read-only keyword sets
var (
	fastKeywords       = []string{"today", "tonight", "tomorrow", "this week", "live", "breaking", "hourly", "daily", "price", "minute"}
	slowKeywords       = []string{"by end of", "before 2027", "2027", "2028", "2030", "election", "eventually", "ever", "decade"}
	structuredKeywords = []string{"above", "below", "at least", "more than", "less than", "over", "under", "%", "$", "rate", "win", "beat", "vs", "score", "reach"}
	vagueKeywords      = []string{"say", "said", "mention", "tweet", "announce", "claim", "rumor", "likely", "considered", "believe"}
)

// Dimensions are the five 0-100 behavioral axes of a market.
type Dimensions struct {
	InfoCadence              float64 `json:"infoCadence"`
	InfoStructure            float64 `json:"infoStructure"`
	LiquidityStability       float64 `json:"liquidityStability"`
	TimeToResolution         float64 `json:"timeToResolution"`
	ParticipantConcentration float64 `json:"participantConcentration"`
}

// dimension pairs a display name with a value, in declaration order.
type dimension struct {
	name   string
	metric string
	value  float64
}

func (d Dimensions) list() []dimension {
	return []dimension{
		{name: "info cadence", metric: "info_cadence", value: d.InfoCadence},
		{name: "info structure", metric: "info_structure", value: d.InfoStructure},
		{name: "liquidity stability", metric: "liquidity_stability", value: d.LiquidityStability},
		{name: "time to resolution", metric: "time_to_resolution", value: d.TimeToResolution},
		{name: "participant concentration", metric: "participant_concentration", value: d.ParticipantConcentration},
	}
}

// dominant returns the dimension farthest from neutral. Ties keep the earlier one.
func (d Dimensions) dominant() dimension {
	dims := d.list()
	best := dims[0]
	for _, dim := range dims[1:] {
		if math.Abs(dim.value-neutralScore) > math.Abs(best.value-neutralScore) {
			best = dim
		}
	}
	return best
}

// ComputeDimensions derives the behavioral dimensions for a market as of now.
func ComputeDimensions(market Market) Dimensions {
	return computeDimensions(market, time.Now().UTC())
}

func computeDimensions(market Market, now time.Time) Dimensions {
	text := newQuestionText(market.Question)

	return Dimensions{
		InfoCadence:              scoring.Round(infoCadence(text, market)),
		InfoStructure:            scoring.Round(infoStructure(text)),
		LiquidityStability:       scoring.Round(liquidityStability(market)),
		TimeToResolution:         scoring.Round(timeToResolution(market.EndDate, now)),
		ParticipantConcentration: scoring.Round(participantConcentration(market)),
	}
}

func infoCadence(text questionText, market Market) float64 {
	v := neutralScore
	v += keywordStep * float64(text.countMatches(fastKeywords))
	v -= keywordStep * float64(text.countMatches(slowKeywords))

	if market.TradeCount != nil {
		switch tc := *market.TradeCount; {
		case tc >= 1000:
			v += 15
		case tc >= 200:
			v += 5
		case tc < 20:
			v -= 10
		}
	}

	return clampDimension(v)
}

func infoStructure(text questionText) float64 {
	v := neutralScore
	v += keywordStep * float64(text.countMatches(structuredKeywords))
	v -= keywordStep * float64(text.countMatches(vagueKeywords))
	if text.hasDigit {
		v += numericBonus
	}
	return clampDimension(v)
}

func liquidityStability(market Market) float64 {
	var v float64
	switch s := market.AvgSpread; {
	case s <= 0.01:
		v = 85
	case s <= 0.03:
		v = 70
	case s <= 0.06:
		v = 50
	default:
		v = 30
	}

	switch vol := market.AvgVolume24h; {
	case vol >= 100000:
		v += 10
	case vol >= 10000:
		v += 5
	case vol < 1000:
		v -= 10
	}

	if market.SpreadVariance != nil {
		switch sv := *market.SpreadVariance; {
		case sv > 0.001:
			v -= 15
		case sv < 0.0001:
			v += 5
		}
	}

	return clampDimension(v)
}

// timeToResolution maps days until end date onto a log scale saturating at two years.
func timeToResolution(endDate time.Time, now time.Time) float64 {
	if endDate.IsZero() {
		return neutralScore
	}
	days := endDate.Sub(now).Hours() / 24
	if days <= 0 {
		return dimensionMin
	}
	return clampDimension(dimensionMax * math.Log1p(days) / math.Log1p(horizonDays))
}

func participantConcentration(market Market) float64 {
	if market.UniqueTraders == nil {
		return neutralScore
	}

	var v float64
	switch n := *market.UniqueTraders; {
	case n >= 1000:
		v = 15
	case n >= 300:
		v = 30
	case n >= 100:
		v = 45
	case n >= 30:
		v = 60
	case n >= 10:
		v = 75
	default:
		v = 90
	}

	if market.TradeCount != nil && *market.UniqueTraders > 0 {
		if float64(*market.TradeCount)/float64(*market.UniqueTraders) >= 10 {
			v += 10
		}
	}

	return clampDimension(v)
}

func clampDimension(v float64) float64 {
	return scoring.Clamp(v, dimensionMin, dimensionMax)
}

// questionText is a pre-tokenized, lowercased market question.
type questionText struct {
	lower    string
	tokens   map[string]struct{}
	hasDigit bool
}

func newQuestionText(question string) questionText {
	lower := strings.ToLower(question)
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		tokens[f] = struct{}{}
	}

	return questionText{
		lower:    lower,
		tokens:   tokens,
		hasDigit: strings.ContainsFunc(lower, unicode.IsDigit),
	}
}

// matches reports whether a keyword appears. Single words match whole tokens,
// phrases and symbols match as substrings.
func (q questionText) matches(keyword string) bool {
	if isWord(keyword) {
		_, ok := q.tokens[keyword]
		return ok
	}
	return strings.Contains(q.lower, keyword)
}

func (q questionText) countMatches(keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if q.matches(kw) {
			n++
		}
	}
	return n
}

func isWord(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
