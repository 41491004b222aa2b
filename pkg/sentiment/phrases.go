package sentiment

import (
	"sort"
	"strings"

	"github.com/denizumutdereli/moodlens/pkg/lexicon"
)

// Span is a half-open byte interval [Start, End) in the lower-cased text.
type Span struct {
	Start int
	End   int
}

// Len returns the span width in bytes.
func (s Span) Len() int { return s.End - s.Start }

// Contains reports whether o lies entirely within s.
func (s Span) Contains(o Span) bool {
	return s.Start <= o.Start && o.End <= s.End
}

// phraseMatch is one occurrence of a lexicon phrase.
type phraseMatch struct {
	phrase string
	score  float64
	span   Span
}

// findPhrases locates lexicon phrases in lower (already lower-cased).
// Each phrase contributes its non-overlapping left-to-right occurrences;
// matches fully contained in a longer match are then dropped.
func findPhrases(lower string, lx *lexicon.Lexicon) []phraseMatch {
	var matches []phraseMatch
	lx.EachPhrase(func(e lexicon.Entry) {
		from := 0
		for from <= len(lower)-len(e.Term) {
			i := strings.Index(lower[from:], e.Term)
			if i < 0 {
				break
			}
			start := from + i
			end := start + len(e.Term)
			matches = append(matches, phraseMatch{
				phrase: e.Term,
				score:  e.Weight,
				span:   Span{Start: start, End: end},
			})
			from = end
		}
	})
	if len(matches) < 2 {
		return matches
	}

	spans := make([]Span, len(matches))
	for i, m := range matches {
		spans[i] = m.span
	}
	keep := FilterContained(spans)
	kept := make([]phraseMatch, 0, len(keep))
	for _, i := range keep {
		kept = append(kept, matches[i])
	}
	return kept
}

// FilterContained returns the indices of spans that are not fully contained
// in another span, in ascending start order. When two spans are identical
// the one listed first is kept. Partially overlapping spans are both kept.
func FilterContained(spans []Span) []int {
	order := make([]int, len(spans))
	for i := range order {
		order[i] = i
	}
	// Start ascending, then wider first, so any container precedes what it contains.
	sort.SliceStable(order, func(a, b int) bool {
		sa, sb := spans[order[a]], spans[order[b]]
		if sa.Start != sb.Start {
			return sa.Start < sb.Start
		}
		return sa.Len() > sb.Len()
	})

	keep := make([]int, 0, len(spans))
	maxEnd := -1
	for _, i := range order {
		if spans[i].End <= maxEnd {
			continue
		}
		keep = append(keep, i)
		maxEnd = spans[i].End
	}
	return keep
}
