package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/denizumutdereli/moodlens/pkg/checkin"
	"github.com/denizumutdereli/moodlens/pkg/concurrency"
	"github.com/denizumutdereli/moodlens/pkg/core"
	"github.com/denizumutdereli/moodlens/pkg/lexicon"
	"github.com/denizumutdereli/moodlens/pkg/sentiment"
)

// report is one scored input as shown to the user.
type report struct {
	Text      string               `json:"text,omitempty"`
	Result    sentiment.Result     `json:"result"`
	Breakdown *sentiment.Breakdown `json:"breakdown,omitempty"`
}

// scorer runs analyses either in-process or against a moodlens server.
type scorer interface {
	Analyze(ctx context.Context, text string, explain bool) (report, error)
	Checkin(ctx context.Context, in checkin.Input, explain bool) (report, error)
	Compare(ctx context.Context, text string) (sentiment.Comparison, error)
	Batch(ctx context.Context, texts []string) ([]sentiment.Result, error)
	Lexicon(ctx context.Context) (lexicon.Stats, error)
}

// ---------------------------------------------------------------------------
// In-process
// ---------------------------------------------------------------------------

type localScorer struct {
	adapter *checkin.Adapter
	batch   *concurrency.Batch

	baselineOnce sync.Once
	baseline     *sentiment.Baseline
}

func newLocalScorer(lexiconPath string) (*localScorer, error) {
	lx := lexicon.Default()
	if lexiconPath != "" {
		var err error
		if lx, err = lexicon.Load(lexiconPath); err != nil {
			return nil, err
		}
	}
	adapter := checkin.NewAdapter(checkin.WithEngine(sentiment.NewEngine(lx)))
	return &localScorer{
		adapter: adapter,
		batch:   concurrency.NewBatch(adapter, 0, 0),
	}, nil
}

func (l *localScorer) Analyze(_ context.Context, text string, explain bool) (report, error) {
	if err := core.ValidateText(text); err != nil {
		return report{}, err
	}
	if !explain {
		return report{Result: l.adapter.Engine().Analyze(text)}, nil
	}
	r, bd := l.adapter.Engine().Explain(text)
	return report{Result: r, Breakdown: &bd}, nil
}

func (l *localScorer) Checkin(_ context.Context, in checkin.Input, explain bool) (report, error) {
	text, r, bd := l.adapter.Explain(in)
	rep := report{Text: text, Result: r}
	if explain {
		rep.Breakdown = &bd
	}
	return rep, nil
}

// Compare loads the VADER baseline on first use.
func (l *localScorer) Compare(_ context.Context, text string) (sentiment.Comparison, error) {
	if err := core.ValidateRequiredText(text); err != nil {
		return sentiment.Comparison{}, err
	}
	l.baselineOnce.Do(func() { l.baseline = sentiment.NewBaseline() })
	return l.baseline.Compare(l.adapter.Engine(), text), nil
}

func (l *localScorer) Batch(ctx context.Context, texts []string) ([]sentiment.Result, error) {
	return l.batch.AnalyzeTexts(ctx, texts)
}

func (l *localScorer) Lexicon(context.Context) (lexicon.Stats, error) {
	return l.adapter.Engine().Lexicon().Stats(), nil
}

// ---------------------------------------------------------------------------
// Remote
// ---------------------------------------------------------------------------

type remoteScorer struct {
	baseURL    string
	httpClient *http.Client
}

func newRemoteScorer(baseURL string, client *http.Client) *remoteScorer {
	return &remoteScorer{baseURL: strings.TrimRight(baseURL, "/"), httpClient: client}
}

func (r *remoteScorer) Analyze(ctx context.Context, text string, explain bool) (report, error) {
	var rep report
	err := r.call(ctx, http.MethodPost, "/v1/analyze", map[string]any{"text": text, "explain": explain}, &rep)
	return rep, err
}

func (r *remoteScorer) Checkin(ctx context.Context, in checkin.Input, explain bool) (report, error) {
	path := "/v1/checkin"
	if explain {
		path += "?explain=true"
	}
	var rep report
	err := r.call(ctx, http.MethodPost, path, in, &rep)
	return rep, err
}

func (r *remoteScorer) Compare(ctx context.Context, text string) (sentiment.Comparison, error) {
	var out struct {
		Comparison sentiment.Comparison `json:"comparison"`
	}
	err := r.call(ctx, http.MethodPost, "/v1/compare", map[string]any{"text": text}, &out)
	return out.Comparison, err
}

func (r *remoteScorer) Batch(ctx context.Context, texts []string) ([]sentiment.Result, error) {
	var out struct {
		Results []sentiment.Result `json:"results"`
	}
	err := r.call(ctx, http.MethodPost, "/v1/batch", map[string]any{"texts": texts}, &out)
	return out.Results, err
}

func (r *remoteScorer) Lexicon(ctx context.Context) (lexicon.Stats, error) {
	var out struct {
		Stats lexicon.Stats `json:"stats"`
	}
	err := r.call(ctx, http.MethodGet, "/v1/lexicon", nil, &out)
	return out.Stats, err
}

// call sends body as JSON and decodes a successful reply into dst. Error
// envelopes are surfaced as "CODE: message".
func (r *remoteScorer) call(ctx context.Context, method, path string, body, dst any) error {
	var reader io.Reader
	if body != nil {
		blob, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(blob)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		var envelope struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if json.Unmarshal(data, &envelope) == nil && envelope.Code != "" {
			return fmt.Errorf("%s: %s", envelope.Code, envelope.Error)
		}
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}
	return json.Unmarshal(data, dst)
}
