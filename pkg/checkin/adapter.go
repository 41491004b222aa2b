// Package checkin turns a structured daily check-in into the text the
// sentiment engine scores, and scores it.
package checkin

import (
	"strings"
	"sync"

	"github.com/denizumutdereli/moodlens/pkg/sentiment"
)

// Input is one check-in submission. Every field is optional.
type Input struct {
	MoodToday           MoodTags `json:"mood_today,omitempty" jsonschema:"description=Mood tags selected for today"`
	UserNote            string   `json:"user_note,omitempty" jsonschema:"description=Free-text note"`
	PrimaryConcernToday string   `json:"primary_concern_today,omitempty" jsonschema:"description=Main concern today"`

	// ConfidenceToday is the 1-10 slider value; nil means the user skipped it.
	ConfidenceToday *float64 `json:"confidence_today,omitempty" jsonschema:"description=Confidence slider on a 1-10 scale"`
}

// IsEmpty reports whether the input carries neither text nor a confidence value.
func (in Input) IsEmpty() bool {
	return strings.TrimSpace(in.UserNote) == "" &&
		strings.TrimSpace(in.PrimaryConcernToday) == "" &&
		len(in.MoodToday) == 0 &&
		in.ConfidenceToday == nil
}

// Confidence bands used when a check-in has no text.
const (
	HighConfidence = 8
	LowConfidence  = 3
)

const (
	fallbackHigh = "feeling really good confident positive"
	fallbackLow  = "struggling difficult challenging"
	fallbackMid  = "okay neutral managing"
)

// FallbackText is the synthetic phrase for a text-less check-in with the
// given confidence value. Values outside 1-10 fall into the nearest band.
func FallbackText(confidence float64) string {
	switch {
	case confidence >= HighConfidence:
		return fallbackHigh
	case confidence <= LowConfidence:
		return fallbackLow
	default:
		return fallbackMid
	}
}

// Adapter assembles check-in text and delegates to a sentiment Engine.
// It holds no mutable state and is safe for concurrent use.
type Adapter struct {
	engine      *sentiment.Engine
	stripMarkup bool
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithEngine scores with e instead of the default engine.
func WithEngine(e *sentiment.Engine) Option {
	return func(a *Adapter) {
		if e != nil {
			a.engine = e
		}
	}
}

// WithMarkupStripping toggles HTML cleaning of the note and concern fields.
func WithMarkupStripping(on bool) Option {
	return func(a *Adapter) { a.stripMarkup = on }
}

// NewAdapter returns an Adapter over the default engine with markup
// stripping enabled unless overridden.
func NewAdapter(opts ...Option) *Adapter {
	a := &Adapter{engine: sentiment.Default(), stripMarkup: true}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

var (
	defaultAdapter *Adapter
	once           sync.Once
)

// Default returns the shared Adapter.
func Default() *Adapter {
	once.Do(func() { defaultAdapter = NewAdapter() })
	return defaultAdapter
}

// Analyze scores in with the default Adapter.
func Analyze(in Input) sentiment.Result {
	return Default().Analyze(in)
}

// Engine returns the engine the adapter delegates to.
func (a *Adapter) Engine() *sentiment.Engine { return a.engine }

// Text returns the exact string the engine sees for in: note, concern and
// mood tags joined by spaces, or a confidence fallback phrase when all of
// them are blank. It returns "" when there is nothing to analyse.
func (a *Adapter) Text(in Input) string {
	note, concern := in.UserNote, in.PrimaryConcernToday
	if a.stripMarkup {
		note, concern = CleanMarkup(note), CleanMarkup(concern)
	}

	parts := make([]string, 0, 3)
	for _, p := range []string{note, concern, in.MoodToday.String()} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	if in.ConfidenceToday != nil {
		return FallbackText(*in.ConfidenceToday)
	}
	return ""
}

// Analyze scores the assembled text of in.
func (a *Adapter) Analyze(in Input) sentiment.Result {
	return a.engine.Analyze(a.Text(in))
}

// Explain returns the assembled text along with the engine's breakdown.
func (a *Adapter) Explain(in Input) (string, sentiment.Result, sentiment.Breakdown) {
	text := a.Text(in)
	r, bd := a.engine.Explain(text)
	return text, r, bd
}
