package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/denizumutdereli/moodlens/pkg/api"
	"github.com/denizumutdereli/moodlens/pkg/checkin"
	"github.com/denizumutdereli/moodlens/pkg/core"
	"github.com/denizumutdereli/moodlens/pkg/lexicon"
	"github.com/denizumutdereli/moodlens/pkg/sentiment"
)

func newTestCLI(t *testing.T, stdin string) (*cli, *bytes.Buffer) {
	t.Helper()
	t.Setenv("MOODLENS_URL", "")
	t.Setenv("MOODLENS_ADMIN_USER", "")
	t.Setenv("MOODLENS_ADMIN_PASSWORD", "")
	out := &bytes.Buffer{}
	return &cli{
		in:         strings.NewReader(stdin),
		out:        out,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}, out
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	c, out := newTestCLI(t, stdin)
	cmd := newRootCmd(c)
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func decodeReport(t *testing.T, out string) report {
	t.Helper()
	var rep report
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}
	return rep
}

func newRemote(t *testing.T, mutate func(*core.Config)) string {
	t.Helper()
	cfg := core.DefaultConfig()
	cfg.MCP.Enabled = false
	if mutate != nil {
		mutate(cfg)
	}
	srv := httptest.NewServer(api.NewServer(cfg, nil, nil).Handler())
	t.Cleanup(func() {
		srv.Close()
		_ = core.SetMaxTextBytes(core.DefaultMaxTextBytes)
	})
	return srv.URL
}

// ---------------------------------------------------------------------------
// In-process commands
// ---------------------------------------------------------------------------

func TestAnalyzeJSON(t *testing.T) {
	out, err := runCLI(t, "", "analyze", "--json", "happy", "excited")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	rep := decodeReport(t, out)
	if rep.Result.Sentiment != sentiment.LabelPositive {
		t.Fatalf("expected positive, got %s", rep.Result.Sentiment)
	}
	if rep.Breakdown != nil {
		t.Fatal("breakdown should be omitted without --explain")
	}
}

func TestAnalyzeReadsStdin(t *testing.T) {
	out, err := runCLI(t, "very sad\n", "analyze", "--json")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if got := decodeReport(t, out).Result.Sentiment; got != sentiment.LabelNegative {
		t.Fatalf("expected negative, got %s", got)
	}
}

func TestExplainPlainText(t *testing.T) {
	out, err := runCLI(t, "", "explain", "not happy")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	for _, want := range []string{"sentiment", "negative", "contributions", "happy", "negated"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestExplainNoSignal(t *testing.T) {
	out, err := runCLI(t, "", "explain", "the meeting is at noon")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if !strings.Contains(out, "no sentiment-bearing terms") {
		t.Fatalf("expected empty contributions note:\n%s", out)
	}
}

func TestCheckinFallback(t *testing.T) {
	out, err := runCLI(t, "", "checkin", "--json", "--confidence", "2")
	if err != nil {
		t.Fatalf("checkin: %v", err)
	}
	rep := decodeReport(t, out)
	if rep.Text != checkin.FallbackText(2) {
		t.Fatalf("text = %q", rep.Text)
	}
	if rep.Result.Sentiment != sentiment.LabelNegative {
		t.Fatalf("expected negative, got %s", rep.Result.Sentiment)
	}
}

func TestCheckinFields(t *testing.T) {
	out, err := runCLI(t, "", "checkin", "--json", "--explain",
		"--note", "rough week", "--mood", "sad, tired")
	if err != nil {
		t.Fatalf("checkin: %v", err)
	}
	rep := decodeReport(t, out)
	if rep.Text != "rough week sad tired" {
		t.Fatalf("text = %q", rep.Text)
	}
	if rep.Breakdown == nil || len(rep.Breakdown.Contributions) == 0 {
		t.Fatal("expected breakdown with contributions")
	}
}

func TestBatchFromStdin(t *testing.T) {
	out, err := runCLI(t, "happy excited\n\nvery sad\n", "batch", "--json")
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	var results []sentiment.Result
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Sentiment != sentiment.LabelPositive || results[1].Sentiment != sentiment.LabelNegative {
		t.Fatalf("unexpected labels: %s, %s", results[0].Sentiment, results[1].Sentiment)
	}
}

func TestBatchEmpty(t *testing.T) {
	_, err := runCLI(t, "\n  \n", "batch")
	if !errors.Is(err, core.ErrBatchEmpty) {
		t.Fatalf("expected ErrBatchEmpty, got %v", err)
	}
}

func TestCompareRequiresText(t *testing.T) {
	_, err := runCLI(t, "", "compare")
	if !errors.Is(err, core.ErrTextRequired) {
		t.Fatalf("expected ErrTextRequired, got %v", err)
	}
}

func TestLexiconStats(t *testing.T) {
	out, err := runCLI(t, "", "lexicon", "--json")
	if err != nil {
		t.Fatalf("lexicon: %v", err)
	}
	var body struct {
		Source string        `json:"source"`
		Stats  lexicon.Stats `json:"stats"`
	}
	if err := json.Unmarshal([]byte(out), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Source != "builtin" {
		t.Fatalf("source = %q", body.Source)
	}
	if body.Stats != lexicon.Default().Stats() {
		t.Fatalf("stats = %+v", body.Stats)
	}
}

func TestLexiconDumpRoundTrips(t *testing.T) {
	out, err := runCLI(t, "", "lexicon", "--dump")
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	set, err := lexicon.ParseYAML([]byte(out))
	if err != nil {
		t.Fatalf("parse dump: %v", err)
	}
	builtin := lexicon.Builtin()
	if len(set.Positive) != len(builtin.Positive) || len(set.Negations) != len(builtin.Negations) {
		t.Fatalf("dump does not match builtin set")
	}
}

func TestSchemaCommand(t *testing.T) {
	out, err := runCLI(t, "", "schema")
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	if !strings.Contains(out, "confidence_today") {
		t.Fatalf("schema missing confidence_today:\n%s", out)
	}
}

func TestBadLexiconPath(t *testing.T) {
	_, err := runCLI(t, "", "--lexicon", t.TempDir()+"/missing.yaml", "analyze", "hi")
	if err == nil || !strings.Contains(err.Error(), "failed to load lexicon") {
		t.Fatalf("expected lexicon load error, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Remote commands
// ---------------------------------------------------------------------------

func TestRemoteAnalyze(t *testing.T) {
	url := newRemote(t, nil)
	out, err := runCLI(t, "", "--server", url, "analyze", "--json", "--explain", "so happy")
	if err != nil {
		t.Fatalf("remote analyze: %v", err)
	}
	rep := decodeReport(t, out)
	if rep.Result.Sentiment != sentiment.LabelPositive {
		t.Fatalf("expected positive, got %s", rep.Result.Sentiment)
	}
	if rep.Breakdown == nil {
		t.Fatal("expected breakdown from server")
	}
}

func TestRemoteCheckinAndBatch(t *testing.T) {
	url := newRemote(t, nil)

	out, err := runCLI(t, "", "--server", url, "checkin", "--json", "--confidence", "9")
	if err != nil {
		t.Fatalf("remote checkin: %v", err)
	}
	if got := decodeReport(t, out).Result.Sentiment; got != sentiment.LabelPositive {
		t.Fatalf("expected positive, got %s", got)
	}

	out, err = runCLI(t, "happy\nsad\n", "--server", url, "batch", "--json")
	if err != nil {
		t.Fatalf("remote batch: %v", err)
	}
	var results []sentiment.Result
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
}

func TestRemoteErrorEnvelope(t *testing.T) {
	url := newRemote(t, nil)
	_, err := runCLI(t, "", "--server", url, "compare", "happy")
	if err == nil || !strings.HasPrefix(err.Error(), "BASELINE_DISABLED:") {
		t.Fatalf("expected BASELINE_DISABLED error, got %v", err)
	}
}

func TestRemoteFromEnv(t *testing.T) {
	url := newRemote(t, nil)
	c, out := newTestCLI(t, "")
	t.Setenv("MOODLENS_URL", url)
	cmd := newRootCmd(c)
	cmd.SetArgs([]string{"lexicon", "--json"})
	cmd.SetErr(io.Discard)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("lexicon: %v", err)
	}
	if !strings.Contains(out.String(), url) {
		t.Fatalf("expected server URL as source:\n%s", out.String())
	}
}

func TestPing(t *testing.T) {
	url := newRemote(t, nil)
	out, err := runCLI(t, "", "--server", url, "ping")
	if err != nil {
		t.Fatalf("ping: %v", err)
	}
	if !strings.Contains(out, `"healthy"`) {
		t.Fatalf("unexpected ping output:\n%s", out)
	}
}

func TestPingRequiresServer(t *testing.T) {
	_, err := runCLI(t, "", "ping")
	if err == nil || !strings.Contains(err.Error(), "--server") {
		t.Fatalf("expected --server error, got %v", err)
	}
}

func TestConfigCommands(t *testing.T) {
	url := newRemote(t, func(cfg *core.Config) {
		cfg.Admin.Enabled = true
		cfg.Admin.User = "admin"
		cfg.Admin.Password = "secret"
	})

	out, err := runCLI(t, "", "--server", url, "config", "get", "security", "--user", "admin", "--password", "secret")
	if err != nil {
		t.Fatalf("config get: %v", err)
	}
	if !strings.Contains(out, "maxTextBytes") {
		t.Fatalf("security section missing maxTextBytes:\n%s", out)
	}

	out, err = runCLI(t, "", "--server", url, "config", "set", "security.rateLimitRequests", "50",
		"--user", "admin", "--password", "secret")
	if err != nil {
		t.Fatalf("config set: %v", err)
	}
	if !strings.Contains(out, "rateLimitRequests") {
		t.Fatalf("change not reported:\n%s", out)
	}

	if _, err := runCLI(t, "", "--server", url, "config", "get", "nope", "--user", "admin", "--password", "secret"); err == nil {
		t.Fatal("expected unknown section error")
	}
	if _, err := runCLI(t, "", "--server", url, "config", "show", "--user", "admin", "--password", "wrong"); err == nil {
		t.Fatal("expected auth failure")
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func TestConfigPatch(t *testing.T) {
	tests := []struct {
		key, value string
		want       string
		wantErr    bool
	}{
		{"security.maxTextBytes", "2048", `{"security":{"maxTextBytes":2048}}`, false},
		{"security.rateLimitRequests", "0", `{"security":{"rateLimitRequests":0}}`, false},
		{"security.allowedOrigins", "https://a.example", `{"security":{"allowedOrigins":"https://a.example"}}`, false},
		{"security.maxRequestBody", "12abc", "", true},
		{"maxTextBytes", "10", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			got, err := configPatch(tt.key, tt.value)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %s", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("configPatch: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestTokenize(t *testing.T) {
	got := tokenize(`"long day" mood=tired,sad   can't sleep`)
	want := []string{"long day", "mood=tired,sad", "can't", "sleep"}
	if len(got) != len(want) {
		t.Fatalf("got %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseCheckinArgs(t *testing.T) {
	in := parseCheckinArgs([]string{"rough", "week", "mood=Tired,anxious", "concern=work", "confidence=4", "x=y"})
	if in.UserNote != "rough week x=y" {
		t.Fatalf("note = %q", in.UserNote)
	}
	if len(in.MoodToday) != 2 {
		t.Fatalf("mood = %v", in.MoodToday)
	}
	if in.PrimaryConcernToday != "work" {
		t.Fatalf("concern = %q", in.PrimaryConcernToday)
	}
	if in.ConfidenceToday == nil || *in.ConfidenceToday != 4 {
		t.Fatalf("confidence = %v", in.ConfidenceToday)
	}

	if in := parseCheckinArgs([]string{"confidence=high"}); in.ConfidenceToday != nil {
		t.Fatal("non-numeric confidence should be ignored")
	}
}

func TestReadLines(t *testing.T) {
	lines, err := readLines(strings.NewReader("  a \n\n b\n"))
	if err != nil {
		t.Fatalf("readLines: %v", err)
	}
	if len(lines) != 2 || lines[0] != "a" || lines[1] != "b" {
		t.Fatalf("lines = %q", lines)
	}
}

// ---------------------------------------------------------------------------
// REPL
// ---------------------------------------------------------------------------

func TestDispatchREPL(t *testing.T) {
	c, out := newTestCLI(t, "")
	if err := c.setup(); err != nil {
		t.Fatalf("setup: %v", err)
	}
	ctx := context.Background()
	state := &replState{}

	if dispatchREPL(ctx, c, state, `\explain`) || !state.explain {
		t.Fatal("\\explain should toggle explain on")
	}
	out.Reset()
	dispatchREPL(ctx, c, state, "very sad")
	if !strings.Contains(out.String(), "contributions") {
		t.Fatalf("explain mode should print contributions:\n%s", out.String())
	}

	out.Reset()
	dispatchREPL(ctx, c, state, `\checkin "long day" confidence=9`)
	if !strings.Contains(out.String(), "long day") {
		t.Fatalf("checkin output missing note:\n%s", out.String())
	}

	for _, quit := range []string{`\q`, `\quit`, "exit", "QUIT"} {
		if !dispatchREPL(ctx, c, state, quit) {
			t.Errorf("%q should quit", quit)
		}
	}
}

func TestRunREPL(t *testing.T) {
	c, out := newTestCLI(t, "happy excited\n\\status\n\\quit\n")
	if err := c.setup(); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := runREPL(context.Background(), c); err != nil {
		t.Fatalf("runREPL: %v", err)
	}
	s := out.String()
	for _, want := range []string{"moodlens shell (in-process)", "positive", "in-process (builtin)", "Bye."} {
		if !strings.Contains(s, want) {
			t.Errorf("output missing %q", want)
		}
	}
}
