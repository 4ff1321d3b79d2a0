package participation

// SetupBand grades historical trading conditions.
type SetupBand string

// Setup quality bands.
const (
	SetupExcellent SetupBand = "excellent"
	SetupGood      SetupBand = "good"
	SetupFair      SetupBand = "fair"
	SetupPoor      SetupBand = "poor"
)

// ParticipantBand grades who has been trading.
type ParticipantBand string

// Participant quality bands.
const (
	ParticipantSophisticated   ParticipantBand = "sophisticated"
	ParticipantMixed           ParticipantBand = "mixed"
	ParticipantRetailDominated ParticipantBand = "retail_dominated"
)

// SetupBandFor bands a 0-100 setup score.
func SetupBandFor(score float64) SetupBand {
	switch {
	case score >= 80:
		return SetupExcellent
	case score >= 60:
		return SetupGood
	case score >= 40:
		return SetupFair
	default:
		return SetupPoor
	}
}

// ParticipantBandFor bands a 0-100 participant score.
func ParticipantBandFor(score float64) ParticipantBand {
	switch {
	case score >= 70:
		return ParticipantSophisticated
	case score >= 45:
		return ParticipantMixed
	default:
		return ParticipantRetailDominated
	}
}

// BandDisplayInfo is the UI-facing description of a band.
type BandDisplayInfo struct {
	Label       string `json:"label"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

//nolint:gochecknoglobals // read-only lookup tables
var (
	setupDisplay = map[SetupBand]BandDisplayInfo{
		SetupExcellent: {Label: "Excellent setup", Description: "Deep, tight and steady trading conditions.", Color: "green"},
		SetupGood:      {Label: "Good setup", Description: "Generally clean conditions with minor frictions.", Color: "teal"},
		SetupFair:      {Label: "Fair setup", Description: "Usable conditions with noticeable frictions.", Color: "yellow"},
		SetupPoor:      {Label: "Poor setup", Description: "Thin or erratic conditions.", Color: "red"},
	}

	participantDisplay = map[ParticipantBand]BandDisplayInfo{
		ParticipantSophisticated:   {Label: "Sophisticated", Description: "Volume has come mostly from large, active traders.", Color: "indigo"},
		ParticipantMixed:           {Label: "Mixed", Description: "A blend of large and small traders.", Color: "blue"},
		ParticipantRetailDominated: {Label: "Retail dominated", Description: "Volume has come mostly from small traders.", Color: "orange"},
	}

	// behaviorInsights describe what similar structures looked like in the past.
	behaviorInsights = map[Summary]map[SetupBand]string{
		SummaryWhaleLed: {
			SetupExcellent: "Historically, whale-led markets with clean setups have seen large orders absorbed with little price disruption.",
			SetupGood:      "Historically, whale-led markets with good setups have seen large orders move price modestly before settling.",
			SetupFair:      "Historically, whale-led markets with fair setups have seen individual large orders leave visible price footprints.",
			SetupPoor:      "Historically, whale-led markets with poor setups have seen single wallets dominate price formation.",
		},
		SummaryBalanced: {
			SetupExcellent: "Historically, balanced participation with clean setups has coincided with orderly, two-sided trading.",
			SetupGood:      "Historically, balanced participation with good setups has coincided with steady price discovery.",
			SetupFair:      "Historically, balanced participation with fair setups has coincided with uneven liquidity across the day.",
			SetupPoor:      "Historically, balanced participation with poor setups has coincided with gappy, sporadic trading.",
		},
		SummaryRetailLed: {
			SetupExcellent: "Historically, retail-led markets with clean setups have traded in many small, evenly spread orders.",
			SetupGood:      "Historically, retail-led markets with good setups have shown bursts of activity around news.",
			SetupFair:      "Historically, retail-led markets with fair setups have shown crowding into one side during busy periods.",
			SetupPoor:      "Historically, retail-led markets with poor setups have shown thin books and frequent price gaps.",
		},
	}
)

// SetupQualityDisplayInfo returns the display info for a setup band.
func SetupQualityDisplayInfo(band SetupBand) BandDisplayInfo {
	if info, ok := setupDisplay[band]; ok {
		return info
	}
	return BandDisplayInfo{Label: string(band), Description: "Unknown setup quality", Color: "gray"}
}

// ParticipantQualityDisplayInfo returns the display info for a participant band.
func ParticipantQualityDisplayInfo(band ParticipantBand) BandDisplayInfo {
	if info, ok := participantDisplay[band]; ok {
		return info
	}
	return BandDisplayInfo{Label: string(band), Description: "Unknown participant quality", Color: "gray"}
}

// BehaviorInsight returns the historical-structure sentence for a summary and band.
func BehaviorInsight(summary Summary, band SetupBand) string {
	if row, ok := behaviorInsights[summary]; ok {
		if insight, ok := row[band]; ok {
			return insight
		}
	}
	return "Not enough history to describe this market's participation structure."
}
