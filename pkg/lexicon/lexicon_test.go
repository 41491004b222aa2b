package lexicon

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// Built-in lexicon
// ---------------------------------------------------------------------------

func TestBuiltinIsValid(t *testing.T) {
	if err := Builtin().Validate(); err != nil {
		t.Fatalf("built-in lexicon failed validation: %v", err)
	}
}

func TestDefaultIsSingleton(t *testing.T) {
	a := Default()
	b := Default()
	if a != b {
		t.Error("Default() should return the same instance")
	}
}

func TestBuiltinReturnsCopy(t *testing.T) {
	set := Builtin()
	set.Positive[0].Weight = 99
	set.Negations = append(set.Negations, "mutated")

	fresh := Builtin()
	if fresh.Positive[0].Weight == 99 {
		t.Error("mutating a Builtin() copy leaked into the next copy")
	}
	if Default().IsNegation("mutated") {
		t.Error("mutating a Builtin() copy leaked into Default()")
	}
}

func TestBuiltinWeightRange(t *testing.T) {
	set := Builtin()
	for _, e := range append(set.Positive, set.Negative...) {
		if e.Weight < -2.6 || e.Weight > 2.5 {
			t.Errorf("%q weight %.2f outside hand-tuned range [-2.6, 2.5]", e.Term, e.Weight)
		}
	}
	for _, e := range set.Intensifiers {
		if e.Weight < 1.1 || e.Weight > 1.6 {
			t.Errorf("intensifier %q multiplier %.2f outside [1.1, 1.6]", e.Term, e.Weight)
		}
	}
}

func TestLookups(t *testing.T) {
	lx := Default()

	if w, ok := lx.Positive("happy"); !ok || w <= 0 {
		t.Errorf("Positive(happy) = %v, %v", w, ok)
	}
	if w, ok := lx.Negative("exhausted"); !ok || w >= 0 {
		t.Errorf("Negative(exhausted) = %v, %v", w, ok)
	}
	if _, ok := lx.Positive("exhausted"); ok {
		t.Error("exhausted should not be positive")
	}
	if w, ok := lx.Polarity("hopeless"); !ok || w >= 0 {
		t.Errorf("Polarity(hopeless) = %v, %v", w, ok)
	}
	if _, ok := lx.Polarity("table"); ok {
		t.Error("unknown word should have no polarity")
	}
	if m, ok := lx.Intensifier("really"); !ok || m != 1.3 {
		t.Errorf("Intensifier(really) = %v, %v, want 1.3", m, ok)
	}
	if m, ok := lx.Intensifier("absolutely"); !ok || m != 1.5 {
		t.Errorf("Intensifier(absolutely) = %v, %v, want 1.5", m, ok)
	}
	if !lx.IsNegation("not") || !lx.IsNegation("never") {
		t.Error("not/never should be negations")
	}
	if lx.IsNegation("happy") {
		t.Error("happy is not a negation")
	}
}

// ---------------------------------------------------------------------------
// Phrase ordering
// ---------------------------------------------------------------------------

func TestPhrasesSortedLongestFirst(t *testing.T) {
	lx := Default()
	for name, phrases := range map[string][]Entry{
		"positive": lx.PositivePhrases(),
		"negative": lx.NegativePhrases(),
	} {
		if len(phrases) == 0 {
			t.Fatalf("%s: expected phrases", name)
		}
		for i := 1; i < len(phrases); i++ {
			if len(phrases[i].Term) > len(phrases[i-1].Term) {
				t.Errorf("%s: %q (len %d) sorted after shorter %q", name,
					phrases[i].Term, len(phrases[i].Term), phrases[i-1].Term)
			}
		}
		for _, p := range phrases {
			if !strings.Contains(p.Term, " ") {
				t.Errorf("%s: %q listed as phrase without a space", name, p.Term)
			}
		}
	}
}

func TestPhraseTiesKeepAuthoredOrder(t *testing.T) {
	lx, err := New(Set{
		Positive: []Entry{
			{"ab cd", 1.0},
			{"long phrase", 1.0},
			{"ef gh", 1.0},
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := lx.PositivePhrases()
	want := []string{"long phrase", "ab cd", "ef gh"}
	for i, w := range want {
		if got[i].Term != w {
			t.Errorf("phrase[%d] = %q, want %q", i, got[i].Term, w)
		}
	}
}

func TestPhraseAccessorsReturnCopies(t *testing.T) {
	lx := Default()
	p := lx.PositivePhrases()
	p[0].Weight = -100
	if lx.PositivePhrases()[0].Weight == -100 {
		t.Error("PositivePhrases() exposed internal storage")
	}
}

func TestEachPhraseVisitsPositiveThenNegative(t *testing.T) {
	lx := Default()
	var seenNegative bool
	count := 0
	lx.EachPhrase(func(e Entry) {
		count++
		if e.Weight < 0 {
			seenNegative = true
		} else if seenNegative {
			t.Errorf("positive phrase %q visited after a negative one", e.Term)
		}
	})
	stats := lx.Stats()
	if count != stats.PositivePhrases+stats.NegativePhrases {
		t.Errorf("EachPhrase visited %d phrases, stats report %d", count, stats.PositivePhrases+stats.NegativePhrases)
	}
}

func TestStats(t *testing.T) {
	lx, err := New(Set{
		Positive:     []Entry{{"happy", 2}, {"good news", 2}},
		Negative:     []Entry{{"sad", -2}},
		Intensifiers: []Entry{{"very", 1.3}},
		Negations:    []string{"not", "never"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := lx.Stats()
	want := Stats{PositiveWords: 1, PositivePhrases: 1, NegativeWords: 1, Intensifiers: 1, Negations: 2}
	if got != want {
		t.Errorf("Stats() = %+v, want %+v", got, want)
	}
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name string
		set  Set
	}{
		{"empty", Set{}},
		{"positive with negative weight", Set{Positive: []Entry{{"happy", -1}}}},
		{"negative with positive weight", Set{Negative: []Entry{{"sad", 1}}}},
		{"zero weight", Set{Positive: []Entry{{"meh", 0}}}},
		{"weight too large", Set{Positive: []Entry{{"happy", 5}}}},
		{"upper case", Set{Positive: []Entry{{"Happy", 1}}}},
		{"empty term", Set{Positive: []Entry{{"  ", 1}}}},
		{"untrimmed", Set{Positive: []Entry{{" happy", 1}}}},
		{"double space phrase", Set{Positive: []Entry{{"good  news", 1}}}},
		{"duplicate", Set{Positive: []Entry{{"happy", 1}, {"happy", 2}}}},
		{"intensifier too weak", Set{Positive: []Entry{{"happy", 1}}, Intensifiers: []Entry{{"very", 0.5}}}},
		{"intensifier phrase", Set{Positive: []Entry{{"happy", 1}}, Intensifiers: []Entry{{"very very", 1.2}}}},
		{"negation phrase", Set{Positive: []Entry{{"happy", 1}}, Negations: []string{"not at"}}},
		{"duplicate negation", Set{Positive: []Entry{{"happy", 1}}, Negations: []string{"not", "not"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.set.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, ErrInvalidLexicon) {
				t.Errorf("error %v should wrap ErrInvalidLexicon", err)
			}
			if _, err := New(tc.set); err == nil {
				t.Error("New should reject an invalid set")
			}
		})
	}
}

func TestNewCopiesSet(t *testing.T) {
	set := Set{Positive: []Entry{{"happy", 2}}}
	lx, err := New(set)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	set.Positive[0].Weight = 0.1
	if w, _ := lx.Positive("happy"); w != 2 {
		t.Errorf("lexicon weight changed after mutating source set: %v", w)
	}
}

// ---------------------------------------------------------------------------
// YAML file loading
// ---------------------------------------------------------------------------

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	content := `
positive:
  - {term: sunny, weight: 1.5}
  - {term: good vibes, weight: 2.0}
negative:
  - {term: gloomy, weight: -1.7}
intensifiers:
  - {term: mega, weight: 1.4}
negations: [not, never]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	lx, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if w, ok := lx.Positive("sunny"); !ok || w != 1.5 {
		t.Errorf("Positive(sunny) = %v, %v", w, ok)
	}
	if p := lx.PositivePhrases(); len(p) != 1 || p[0].Term != "good vibes" {
		t.Errorf("PositivePhrases() = %+v", p)
	}
	if m, ok := lx.Intensifier("mega"); !ok || m != 1.4 {
		t.Errorf("Intensifier(mega) = %v, %v", m, ok)
	}
	if _, ok := lx.Positive("happy"); ok {
		t.Error("custom lexicon must not inherit built-in entries")
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	content := "positive:\n  - {term: sunny, weight: 1.5}\nnegation: [not]\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown key 'negation'")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadInvalidSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	if err := os.WriteFile(path, []byte("positive:\n  - {term: sunny, weight: -1}\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := Load(path)
	if !errors.Is(err, ErrInvalidLexicon) {
		t.Fatalf("expected ErrInvalidLexicon, got %v", err)
	}
}

func TestEncodeYAMLRoundTripsBuiltin(t *testing.T) {
	data, err := EncodeYAML(Builtin())
	if err != nil {
		t.Fatalf("EncodeYAML: %v", err)
	}
	set, err := ParseYAML(data)
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	lx, err := New(set)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if lx.Stats() != Default().Stats() {
		t.Errorf("stats after YAML round trip = %+v, want %+v", lx.Stats(), Default().Stats())
	}
}
