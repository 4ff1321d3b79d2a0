package marketstate

// DisplayInfo is the UI-facing description of a state label.
type DisplayInfo struct {
	Label       string `json:"label"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

//nolint:gochecknoglobals // read-only lookup table
var displayInfo = map[StateLabel]DisplayInfo{
	StateCalmLiquid: {
		Label:       "Calm & Liquid",
		Description: "Tight spreads and deep books; orders fill near the quoted price.",
		Color:       "green",
	},
	StateThinSlippage: {
		Label:       "Thin / Slippage Risk",
		Description: "Wide spreads or shallow depth; larger orders will move the price.",
		Color:       "orange",
	},
	StateJumpy: {
		Label:       "Jumpy",
		Description: "Prices are moving sharply between trades.",
		Color:       "yellow",
	},
	StateEventDriven: {
		Label:       "Event-Driven",
		Description: "Activity is well above its usual baseline, typically around news.",
		Color:       "purple",
	},
}

// GetDisplayInfo returns the display info for a label.
// Unknown labels get a neutral entry.
func GetDisplayInfo(label StateLabel) DisplayInfo {
	info, ok := displayInfo[label]
	if !ok {
		return DisplayInfo{Label: string(label), Description: "Unknown market state", Color: "gray"}
	}
	return info
}
