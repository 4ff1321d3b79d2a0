package types

// WhyBulletCount is the number of evidence items every classification carries.
const WhyBulletCount = 3

// WhyBullet is a structured evidence item justifying a classification.
type WhyBullet struct {
	Text       string  `json:"text"`
	Metric     string  `json:"metric"`
	Value      float64 `json:"value"`
	Unit       string  `json:"unit,omitempty"`
	Comparison string  `json:"comparison,omitempty"`
}

// PadWhyBullets returns exactly WhyBulletCount bullets.
// Longer lists are truncated; shorter lists are filled from fillers in order,
// cycling through them if there are not enough.
func PadWhyBullets(bullets []WhyBullet, fillers []WhyBullet) []WhyBullet {
	out := make([]WhyBullet, 0, WhyBulletCount)
	for _, b := range bullets {
		if len(out) == WhyBulletCount {
			return out
		}
		out = append(out, b)
	}

	if len(fillers) == 0 {
		fillers = []WhyBullet{{
			Text:   "No further evidence available for this classification",
			Metric: "evidence_available",
			Value:  float64(len(out)),
		}}
	}

	for i := 0; len(out) < WhyBulletCount; i++ {
		out = append(out, fillers[i%len(fillers)])
	}

	return out
}
