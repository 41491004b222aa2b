package checkin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
)

// MoodTags is the normalised form of the mood_today field. On the wire it is
// either a JSON array of strings or a single comma-separated string; both
// decode to the same ordered list with blank tags removed.
type MoodTags []string

// ParseMoodTags splits a comma-separated tag string.
func ParseMoodTags(s string) MoodTags {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return normaliseTags(strings.Split(s, ","))
}

func normaliseTags(raw []string) MoodTags {
	tags := make(MoodTags, 0, len(raw))
	for _, t := range raw {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}

// UnmarshalJSON accepts null, a string, or an array of strings.
func (m *MoodTags) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*m = nil
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("mood_today: %w", err)
		}
		*m = ParseMoodTags(s)
		return nil
	case data[0] == '[':
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("mood_today: list must contain only strings: %w", err)
		}
		*m = normaliseTags(list)
		return nil
	default:
		return fmt.Errorf("mood_today: expected a string or a list of strings")
	}
}

// MarshalJSON always emits the list form.
func (m MoodTags) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	return json.Marshal([]string(m))
}

// String joins the tags with spaces, the way they are fed to the engine.
func (m MoodTags) String() string {
	return strings.Join(m, " ")
}

// JSONSchema describes both accepted wire forms.
func (MoodTags) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Description: "Mood tags as a list of strings or one comma-separated string",
		OneOf: []*jsonschema.Schema{
			{Type: "string"},
			{Type: "array", Items: &jsonschema.Schema{Type: "string"}},
		},
	}
}
