package sentiment

import "math"

// Label is the discrete sentiment category. The classifier only ever
// produces these three values.
type Label string

const (
	LabelPositive Label = "positive"
	LabelNeutral  Label = "neutral"
	LabelNegative Label = "negative"
)

// Classification thresholds. Positive needs a much stronger signal than
// negative: missing distress costs more than a missed celebration.
const (
	PositiveThreshold = 0.5
	NegativeThreshold = -0.05
)

// Classify maps a compound score to a label and a confidence in [0, 1]:
//
//	compound >=  0.50  → positive, confidence = min(2·c, 1)
//	compound <= -0.05  → negative, confidence = min(20·|c|, 1)
//	otherwise          → neutral,  confidence = clamp(1 − 2·|c|, 0, 1)
func Classify(compound float64) (Label, float64) {
	switch {
	case compound >= PositiveThreshold:
		return LabelPositive, math.Min(compound*2, 1)
	case compound <= NegativeThreshold:
		return LabelNegative, math.Min(math.Abs(compound)*20, 1)
	default:
		return LabelNeutral, clamp(1-math.Abs(compound)*2, 0, 1)
	}
}

// Scores is the positive/neutral/negative triple plus the signed compound.
// The triple sums to 1 within rounding tolerance.
type Scores struct {
	Positive float64 `json:"positive" msgpack:"positive"`
	Neutral  float64 `json:"neutral" msgpack:"neutral"`
	Negative float64 `json:"negative" msgpack:"negative"`
	Compound float64 `json:"compound" msgpack:"compound"`
}

// scoresFor derives the display triple from an unrounded compound.
func scoresFor(compound float64) Scores {
	pos := math.Max(0, compound)
	neg := math.Max(0, -compound)
	return Scores{
		Positive: round3(pos),
		Neutral:  round3(1 - pos - neg),
		Negative: round3(neg),
		Compound: round3(compound),
	}
}

// neutralScores is the triple for input that carries no sentiment signal.
var neutralScores = Scores{Positive: 0, Neutral: 1, Negative: 0, Compound: 0}
