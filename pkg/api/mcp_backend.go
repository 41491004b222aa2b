package api

import (
	"context"

	"github.com/denizumutdereli/moodlens/pkg/checkin"
	"github.com/denizumutdereli/moodlens/pkg/core"
	mcpapi "github.com/denizumutdereli/moodlens/pkg/mcp"
	"github.com/denizumutdereli/moodlens/pkg/sentiment"
)

type mcpBackend struct {
	adapter  *checkin.Adapter
	baseline *sentiment.Baseline
	source   string
}

// NewMCPBackend exposes adapter (and baseline, when non-nil) as MCP tool
// capabilities. source labels the active lexicon in moodlens_lexicon output.
func NewMCPBackend(adapter *checkin.Adapter, baseline *sentiment.Baseline, source string) mcpapi.Backend {
	if adapter == nil {
		adapter = checkin.Default()
	}
	return &mcpBackend{adapter: adapter, baseline: baseline, source: lexiconSource(source)}
}

func (b *mcpBackend) Analyze(_ context.Context, text string) (map[string]any, error) {
	if err := core.ValidateText(text); err != nil {
		return nil, err
	}
	return resultDocument(b.adapter.Engine().Analyze(text)), nil
}

func (b *mcpBackend) Checkin(_ context.Context, in checkin.Input) (map[string]any, error) {
	if err := validateCheckin(in); err != nil {
		return nil, err
	}
	text, result, _ := b.adapter.Explain(in)
	doc := resultDocument(result)
	doc["text"] = text
	return doc, nil
}

func (b *mcpBackend) Explain(_ context.Context, text string) (map[string]any, error) {
	if err := core.ValidateText(text); err != nil {
		return nil, err
	}
	result, bd := b.adapter.Engine().Explain(text)
	doc := resultDocument(result)
	doc["breakdown"] = bd
	return doc, nil
}

func (b *mcpBackend) Compare(_ context.Context, text string) (map[string]any, error) {
	if b.baseline == nil {
		return nil, core.ErrBaselineDisabled
	}
	if err := core.ValidateRequiredText(text); err != nil {
		return nil, err
	}
	c := b.baseline.Compare(b.adapter.Engine(), text)
	return map[string]any{
		"engine":   resultDocument(c.Engine),
		"baseline": c.Baseline,
		"agree":    c.Agree,
		"delta":    c.Delta,
	}, nil
}

func (b *mcpBackend) Lexicon(context.Context) (map[string]any, error) {
	return map[string]any{
		"source": b.source,
		"stats":  b.adapter.Engine().Lexicon().Stats(),
	}, nil
}

// resultDocument flattens a Result into the map shape MCP summaries read.
func resultDocument(r sentiment.Result) map[string]any {
	return map[string]any{
		"sentiment":      string(r.Sentiment),
		"confidence":     r.Confidence,
		"scores":         r.Scores,
		"processingTime": r.ProcessingTime,
	}
}

// validateCheckin applies the text size limit to each free-text field and
// to the joined mood tags.
func validateCheckin(in checkin.Input) error {
	for _, text := range []string{in.UserNote, in.PrimaryConcernToday, in.MoodToday.String()} {
		if err := core.ValidateText(text); err != nil {
			return err
		}
	}
	return nil
}

func lexiconSource(path string) string {
	if path == "" {
		return "builtin"
	}
	return path
}
