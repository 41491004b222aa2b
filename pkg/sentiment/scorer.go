package sentiment

import (
	"math"

	"github.com/denizumutdereli/moodlens/pkg/lexicon"
)

const (
	// NegationFactor both flips and dampens a negated word's score.
	NegationFactor = -0.74

	// NegationWindow is how many preceding tokens are scanned for a negator.
	NegationWindow = 3

	// ExclamationWeight is added per '!' to a positive-leaning compound.
	ExclamationWeight = 0.292

	// MaxExclamationBoost caps the total exclamation contribution.
	MaxExclamationBoost = 1.0

	// QuestionWeight is added per '?' regardless of compound sign.
	QuestionWeight = -0.18

	// NormalizationAlpha controls how fast the compound saturates toward ±1.
	NormalizationAlpha = 15.0
)

// UnitKind tells whether a contribution came from a phrase or a single word.
type UnitKind string

const (
	KindPhrase UnitKind = "phrase"
	KindWord   UnitKind = "word"
)

// Contribution is the score of one counted unit after all adjustments.
type Contribution struct {
	Unit        string   `json:"unit" msgpack:"unit"`
	Kind        UnitKind `json:"kind" msgpack:"kind"`
	Base        float64  `json:"base" msgpack:"base"`
	Intensifier float64  `json:"intensifier,omitempty" msgpack:"intensifier,omitempty"`
	Negated     bool     `json:"negated,omitempty" msgpack:"negated,omitempty"`
	Score       float64  `json:"score" msgpack:"score"`
}

// scoreUnits produces one contribution per matched phrase and per uncovered
// lexicon word. Words that appear in any matched phrase are not scored again
// anywhere in the text.
func scoreUnits(tokens []string, matches []phraseMatch, lx *lexicon.Lexicon) []Contribution {
	units := make([]Contribution, 0, len(matches)+len(tokens)/2)

	covered := make(map[string]struct{})
	for _, m := range matches {
		units = append(units, Contribution{
			Unit:  m.phrase,
			Kind:  KindPhrase,
			Base:  m.score,
			Score: m.score,
		})
		for _, w := range Tokenize(m.phrase) {
			covered[w] = struct{}{}
		}
	}

	for i, tok := range tokens {
		if _, ok := covered[tok]; ok {
			continue
		}
		base, ok := lx.Polarity(tok)
		if !ok {
			continue
		}

		c := Contribution{Unit: tok, Kind: KindWord, Base: base, Score: base}
		if i > 0 {
			if mult, ok := lx.Intensifier(tokens[i-1]); ok {
				c.Intensifier = mult
				c.Score *= mult
			}
		}
		if negatedAt(tokens, i, lx) {
			c.Negated = true
			c.Score *= NegationFactor
		}
		units = append(units, c)
	}
	return units
}

// negatedAt reports whether a negation word occurs in the window of tokens
// immediately preceding index i.
func negatedAt(tokens []string, i int, lx *lexicon.Lexicon) bool {
	start := i - NegationWindow
	if start < 0 {
		start = 0
	}
	for j := i - 1; j >= start; j-- {
		if lx.IsNegation(tokens[j]) {
			return true
		}
	}
	return false
}

// hasSignal reports whether any unit carries a nonzero score.
func hasSignal(units []Contribution) bool {
	for _, u := range units {
		if u.Score != 0 {
			return true
		}
	}
	return false
}

func sumScores(units []Contribution) float64 {
	sum := 0.0
	for _, u := range units {
		sum += u.Score
	}
	return sum
}

// normalize maps a raw score sum into (-1, 1).
func normalize(sum float64) float64 {
	return sum / math.Sqrt(sum*sum+NormalizationAlpha)
}

// punctuationModifier is the additive adjustment for '!' and '?'.
// Exclamations only count toward a positive-leaning compound.
func punctuationModifier(compound float64, exclamations, questions int) float64 {
	mod := float64(questions) * QuestionWeight
	if compound > 0 {
		mod += math.Min(float64(exclamations)*ExclamationWeight, MaxExclamationBoost)
	}
	return mod
}

// applyPunctuation adds mod to a nonzero compound and clamps to [-1, 1].
// An exactly neutral compound is returned unchanged.
func applyPunctuation(compound, mod float64) float64 {
	if compound == 0 {
		return 0
	}
	return clamp(compound+mod, -1, 1)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// round3 rounds to three decimals and folds -0 into 0.
func round3(v float64) float64 {
	r := math.Round(v*1000) / 1000
	if r == 0 {
		return 0
	}
	return r
}
