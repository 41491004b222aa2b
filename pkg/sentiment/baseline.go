package sentiment

import (
	"math"
	"sync"

	"github.com/jonreiter/govader"
)

// BaselineScores is the stock VADER output for a text, labelled with the
// same thresholds the engine uses.
type BaselineScores struct {
	Sentiment Label   `json:"sentiment" msgpack:"sentiment"`
	Compound  float64 `json:"compound" msgpack:"compound"`
	Positive  float64 `json:"positive" msgpack:"positive"`
	Negative  float64 `json:"negative" msgpack:"negative"`
	Neutral   float64 `json:"neutral" msgpack:"neutral"`
}

// Comparison places an engine result next to the VADER baseline.
type Comparison struct {
	Engine   Result         `json:"engine" msgpack:"engine"`
	Baseline BaselineScores `json:"baseline" msgpack:"baseline"`
	Agree    bool           `json:"agree" msgpack:"agree"`
	Delta    float64        `json:"delta" msgpack:"delta"`
}

// Baseline wraps govader's SentimentIntensityAnalyzer as a reference scorer
// for lexicon tuning. It never feeds the engine. It is safe for concurrent use.
type Baseline struct {
	sia *govader.SentimentIntensityAnalyzer
	mu  sync.Mutex
}

// NewBaseline loads the VADER lexicon. This allocates a few MB; create one
// per process.
func NewBaseline() *Baseline {
	return &Baseline{
		sia: govader.NewSentimentIntensityAnalyzer(),
	}
}

// Score returns VADER polarity scores for text.
func (b *Baseline) Score(text string) BaselineScores {
	b.mu.Lock()
	scores := b.sia.PolarityScores(text)
	b.mu.Unlock()

	label, _ := Classify(scores.Compound)
	return BaselineScores{
		Sentiment: label,
		Compound:  round3(scores.Compound),
		Positive:  round3(scores.Positive),
		Negative:  round3(scores.Negative),
		Neutral:   round3(scores.Neutral),
	}
}

// Compare scores text with both e and VADER.
func (b *Baseline) Compare(e *Engine, text string) Comparison {
	r := e.Analyze(text)
	base := b.Score(text)
	return Comparison{
		Engine:   r,
		Baseline: base,
		Agree:    r.Sentiment == base.Sentiment,
		Delta:    round3(math.Abs(r.Scores.Compound - base.Compound)),
	}
}
