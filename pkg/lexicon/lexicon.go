// Package lexicon holds the hand-authored polarity dictionary used by the
// sentiment engine: positive and negative terms and phrases with signed
// weights, intensifier multipliers, and negation words.
//
// A Lexicon is built once and never mutated. All accessors are read-only and
// safe for concurrent use without locking.
package lexicon

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrInvalidLexicon is returned when a lexicon set fails validation.
var ErrInvalidLexicon = errors.New("invalid lexicon")

const (
	// MaxAbsWeight bounds the magnitude of a single term or phrase weight.
	MaxAbsWeight = 4.0

	// MinIntensifier and MaxIntensifier bound intensifier multipliers.
	MinIntensifier = 1.0
	MaxIntensifier = 3.0
)

// Entry is a single term-or-phrase → weight pair.
// Phrases contain at least one space; single words do not.
type Entry struct {
	Term   string  `yaml:"term" json:"term"`
	Weight float64 `yaml:"weight" json:"weight"`
}

// IsPhrase reports whether the entry is a multi-word phrase.
func (e Entry) IsPhrase() bool {
	return strings.Contains(e.Term, " ")
}

// Set is the serialisable, order-preserving description of a lexicon.
// Positive and Negative keep their authored order, which breaks ties when
// phrases of equal length are sorted for matching.
type Set struct {
	Positive     []Entry  `yaml:"positive" json:"positive"`
	Negative     []Entry  `yaml:"negative" json:"negative"`
	Intensifiers []Entry  `yaml:"intensifiers" json:"intensifiers"`
	Negations    []string `yaml:"negations" json:"negations"`
}

// Stats summarises the size of a lexicon.
type Stats struct {
	PositiveWords   int `json:"positiveWords" msgpack:"positiveWords"`
	PositivePhrases int `json:"positivePhrases" msgpack:"positivePhrases"`
	NegativeWords   int `json:"negativeWords" msgpack:"negativeWords"`
	NegativePhrases int `json:"negativePhrases" msgpack:"negativePhrases"`
	Intensifiers    int `json:"intensifiers" msgpack:"intensifiers"`
	Negations       int `json:"negations" msgpack:"negations"`
}

// Lexicon is the immutable, indexed form of a Set.
type Lexicon struct {
	positive     map[string]float64
	negative     map[string]float64
	intensifiers map[string]float64
	negations    map[string]struct{}

	positivePhrases []Entry
	negativePhrases []Entry

	stats Stats
}

var (
	defaultLexicon *Lexicon
	once           sync.Once
)

// Default returns the process-wide built-in lexicon (lazy-initialized).
func Default() *Lexicon {
	once.Do(func() {
		lx, err := New(Builtin())
		if err != nil {
			panic(fmt.Sprintf("built-in lexicon is invalid: %v", err))
		}
		defaultLexicon = lx
	})
	return defaultLexicon
}

// New validates set and builds an immutable Lexicon from it.
// The set is copied; later changes to it do not affect the Lexicon.
func New(set Set) (*Lexicon, error) {
	if err := set.Validate(); err != nil {
		return nil, err
	}

	lx := &Lexicon{
		positive:     make(map[string]float64, len(set.Positive)),
		negative:     make(map[string]float64, len(set.Negative)),
		intensifiers: make(map[string]float64, len(set.Intensifiers)),
		negations:    make(map[string]struct{}, len(set.Negations)),
	}

	for _, e := range set.Positive {
		lx.positive[e.Term] = e.Weight
		if e.IsPhrase() {
			lx.positivePhrases = append(lx.positivePhrases, e)
			lx.stats.PositivePhrases++
		} else {
			lx.stats.PositiveWords++
		}
	}
	for _, e := range set.Negative {
		lx.negative[e.Term] = e.Weight
		if e.IsPhrase() {
			lx.negativePhrases = append(lx.negativePhrases, e)
			lx.stats.NegativePhrases++
		} else {
			lx.stats.NegativeWords++
		}
	}
	for _, e := range set.Intensifiers {
		lx.intensifiers[e.Term] = e.Weight
	}
	for _, n := range set.Negations {
		lx.negations[n] = struct{}{}
	}
	lx.stats.Intensifiers = len(lx.intensifiers)
	lx.stats.Negations = len(lx.negations)

	sortByLength(lx.positivePhrases)
	sortByLength(lx.negativePhrases)

	return lx, nil
}

// sortByLength orders phrases longest first, keeping authored order on ties.
func sortByLength(phrases []Entry) {
	sort.SliceStable(phrases, func(i, j int) bool {
		return len(phrases[i].Term) > len(phrases[j].Term)
	})
}

// Positive returns the weight of a positive term or phrase.
func (l *Lexicon) Positive(term string) (float64, bool) {
	w, ok := l.positive[term]
	return w, ok
}

// Negative returns the (negative) weight of a negative term or phrase.
func (l *Lexicon) Negative(term string) (float64, bool) {
	w, ok := l.negative[term]
	return w, ok
}

// Polarity looks a term up in the positive lexicon, then the negative one.
func (l *Lexicon) Polarity(term string) (float64, bool) {
	if w, ok := l.positive[term]; ok {
		return w, true
	}
	w, ok := l.negative[term]
	return w, ok
}

// Intensifier returns the multiplier for an intensifier word.
func (l *Lexicon) Intensifier(term string) (float64, bool) {
	m, ok := l.intensifiers[term]
	return m, ok
}

// IsNegation reports whether term is a negation word.
func (l *Lexicon) IsNegation(term string) bool {
	_, ok := l.negations[term]
	return ok
}

// PositivePhrases returns the positive phrases, longest first.
func (l *Lexicon) PositivePhrases() []Entry {
	return append([]Entry(nil), l.positivePhrases...)
}

// NegativePhrases returns the negative phrases, longest first.
func (l *Lexicon) NegativePhrases() []Entry {
	return append([]Entry(nil), l.negativePhrases...)
}

// EachPhrase calls fn for every phrase, positive phrases first, each group
// longest first. It avoids the copies made by PositivePhrases/NegativePhrases
// on the scoring hot path.
func (l *Lexicon) EachPhrase(fn func(Entry)) {
	for _, e := range l.positivePhrases {
		fn(e)
	}
	for _, e := range l.negativePhrases {
		fn(e)
	}
}

// Stats returns entry counts for the lexicon.
func (l *Lexicon) Stats() Stats {
	return l.stats
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

// Validate checks the structural rules every lexicon must satisfy.
// The first violation is returned, wrapped in ErrInvalidLexicon.
func (s Set) Validate() error {
	if len(s.Positive) == 0 && len(s.Negative) == 0 {
		return fmt.Errorf("%w: at least one positive or negative entry is required", ErrInvalidLexicon)
	}
	if err := validateEntries("positive", s.Positive, func(w float64) bool { return w > 0 }); err != nil {
		return err
	}
	if err := validateEntries("negative", s.Negative, func(w float64) bool { return w < 0 }); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(s.Intensifiers))
	for i, e := range s.Intensifiers {
		if err := validateTerm("intensifiers", i, e.Term); err != nil {
			return err
		}
		if e.IsPhrase() {
			return fmt.Errorf("%w: intensifiers[%d] %q must be a single word", ErrInvalidLexicon, i, e.Term)
		}
		if e.Weight < MinIntensifier || e.Weight > MaxIntensifier {
			return fmt.Errorf("%w: intensifiers[%d] %q multiplier %.2f outside [%.1f, %.1f]",
				ErrInvalidLexicon, i, e.Term, e.Weight, MinIntensifier, MaxIntensifier)
		}
		if _, dup := seen[e.Term]; dup {
			return fmt.Errorf("%w: intensifiers[%d] %q is duplicated", ErrInvalidLexicon, i, e.Term)
		}
		seen[e.Term] = struct{}{}
	}

	seen = make(map[string]struct{}, len(s.Negations))
	for i, n := range s.Negations {
		if err := validateTerm("negations", i, n); err != nil {
			return err
		}
		if strings.Contains(n, " ") {
			return fmt.Errorf("%w: negations[%d] %q must be a single word", ErrInvalidLexicon, i, n)
		}
		if _, dup := seen[n]; dup {
			return fmt.Errorf("%w: negations[%d] %q is duplicated", ErrInvalidLexicon, i, n)
		}
		seen[n] = struct{}{}
	}
	return nil
}

func validateEntries(section string, entries []Entry, signOK func(float64) bool) error {
	seen := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		if err := validateTerm(section, i, e.Term); err != nil {
			return err
		}
		if !signOK(e.Weight) {
			return fmt.Errorf("%w: %s[%d] %q has weight %.3f with the wrong sign", ErrInvalidLexicon, section, i, e.Term, e.Weight)
		}
		if e.Weight > MaxAbsWeight || e.Weight < -MaxAbsWeight {
			return fmt.Errorf("%w: %s[%d] %q weight %.3f exceeds ±%.1f", ErrInvalidLexicon, section, i, e.Term, e.Weight, MaxAbsWeight)
		}
		if _, dup := seen[e.Term]; dup {
			return fmt.Errorf("%w: %s[%d] %q is duplicated", ErrInvalidLexicon, section, i, e.Term)
		}
		seen[e.Term] = struct{}{}
	}
	return nil
}

func validateTerm(section string, i int, term string) error {
	if strings.TrimSpace(term) == "" {
		return fmt.Errorf("%w: %s[%d] has an empty term", ErrInvalidLexicon, section, i)
	}
	if term != strings.TrimSpace(term) {
		return fmt.Errorf("%w: %s[%d] %q has leading or trailing whitespace", ErrInvalidLexicon, section, i, term)
	}
	if term != strings.ToLower(term) {
		return fmt.Errorf("%w: %s[%d] %q must be lower-case", ErrInvalidLexicon, section, i, term)
	}
	if strings.Contains(term, "  ") {
		return fmt.Errorf("%w: %s[%d] %q contains repeated spaces", ErrInvalidLexicon, section, i, term)
	}
	return nil
}
