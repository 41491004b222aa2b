// Package sentiment classifies short, informal text as positive, neutral, or
// negative using a fixed lexicon: phrase detection, single-word polarity,
// intensifier and negation adjustment, punctuation modifiers, and square-root
// normalisation into a compound score in [-1, 1].
//
// Analysis is synchronous, performs no I/O, and never fails. An Engine only
// reads its Lexicon, so one Engine can be shared by any number of goroutines.
package sentiment

import (
	"strings"
	"sync"
	"time"

	"github.com/denizumutdereli/moodlens/pkg/lexicon"
)

// Result is the outcome of one analysis call.
type Result struct {
	Sentiment  Label   `json:"sentiment" msgpack:"sentiment"`
	Confidence float64 `json:"confidence" msgpack:"confidence"`
	Scores     Scores  `json:"scores" msgpack:"scores"`

	// ProcessingTime is the measured wall-clock time of the call in milliseconds.
	ProcessingTime float64 `json:"processingTime" msgpack:"processingTime"`
}

// Breakdown describes how a Result was reached.
type Breakdown struct {
	Tokens        []string       `json:"tokens" msgpack:"tokens"`
	Contributions []Contribution `json:"contributions" msgpack:"contributions"`
	Sum           float64        `json:"sum" msgpack:"sum"`

	// RawCompound is the normalised sum before punctuation is applied.
	RawCompound float64 `json:"rawCompound" msgpack:"rawCompound"`

	Exclamations        int     `json:"exclamations" msgpack:"exclamations"`
	Questions           int     `json:"questions" msgpack:"questions"`
	PunctuationModifier float64 `json:"punctuationModifier" msgpack:"punctuationModifier"`
}

// Engine runs the scoring pipeline against one Lexicon.
type Engine struct {
	lex *lexicon.Lexicon
}

var (
	defaultEngine *Engine
	once          sync.Once
)

// Default returns the package-level Engine over the built-in lexicon.
func Default() *Engine {
	once.Do(func() {
		defaultEngine = NewEngine(lexicon.Default())
	})
	return defaultEngine
}

// NewEngine creates an Engine. A nil lexicon selects the built-in one.
func NewEngine(lx *lexicon.Lexicon) *Engine {
	if lx == nil {
		lx = lexicon.Default()
	}
	return &Engine{lex: lx}
}

// Analyze classifies text with the default Engine.
func Analyze(text string) Result {
	return Default().Analyze(text)
}

// Lexicon returns the lexicon the engine scores against.
func (e *Engine) Lexicon() *lexicon.Lexicon {
	return e.lex
}

// Analyze classifies text. Empty, whitespace-only, and signal-free input
// yields a neutral result with zero confidence.
func (e *Engine) Analyze(text string) Result {
	r, _ := e.run(text, false)
	return r
}

// Explain classifies text and also returns the per-unit breakdown.
func (e *Engine) Explain(text string) (Result, Breakdown) {
	return e.run(text, true)
}

func (e *Engine) run(text string, explain bool) (Result, Breakdown) {
	start := time.Now()
	var bd Breakdown

	if strings.TrimSpace(text) == "" {
		return neutralResult(start), bd
	}

	tokens := Tokenize(text)
	matches := findPhrases(strings.ToLower(text), e.lex)
	units := scoreUnits(tokens, matches, e.lex)
	if explain {
		bd.Tokens = tokens
		bd.Contributions = units
	}
	if !hasSignal(units) {
		return neutralResult(start), bd
	}

	sum := sumScores(units)
	raw := normalize(sum)
	excl, quest := CountPunctuation(text)
	mod := punctuationModifier(raw, excl, quest)
	compound := applyPunctuation(raw, mod)

	label, confidence := Classify(compound)
	r := Result{
		Sentiment:  label,
		Confidence: confidence,
		Scores:     scoresFor(compound),
	}
	if explain {
		bd.Sum = sum
		bd.RawCompound = raw
		bd.Exclamations = excl
		bd.Questions = quest
		bd.PunctuationModifier = mod
	}
	r.ProcessingTime = elapsedMillis(start)
	return r, bd
}

func neutralResult(start time.Time) Result {
	return Result{
		Sentiment:      LabelNeutral,
		Confidence:     0,
		Scores:         neutralScores,
		ProcessingTime: elapsedMillis(start),
	}
}

func elapsedMillis(start time.Time) float64 {
	return float64(time.Since(start).Nanoseconds()) / 1e6
}
