package lexicon

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML lexicon file and builds an immutable Lexicon from it.
//
// Expected layout:
//
//	positive:
//	  - {term: happy, weight: 2.0}
//	  - {term: falling into place, weight: 2.0}
//	negative:
//	  - {term: exhausted, weight: -2.0}
//	intensifiers:
//	  - {term: really, weight: 1.3}
//	negations: [not, never, no]
func Load(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading lexicon file %s: %w", path, err)
	}
	set, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("parsing lexicon file %s: %w", path, err)
	}
	lx, err := New(set)
	if err != nil {
		return nil, fmt.Errorf("lexicon file %s: %w", path, err)
	}
	return lx, nil
}

// ParseYAML decodes a lexicon Set from YAML. Unknown keys are rejected so
// that typos such as "negation:" do not silently yield an empty section.
func ParseYAML(data []byte) (Set, error) {
	var set Set
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&set); err != nil {
		return Set{}, err
	}
	return set, nil
}

// EncodeYAML renders a Set in the format accepted by Load.
func EncodeYAML(set Set) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(set); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
