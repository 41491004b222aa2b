// Package mcp exposes the sentiment engine as Model Context Protocol tools
// over streamable HTTP or stdio.
package mcp

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	mcpproto "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/denizumutdereli/moodlens/pkg/api/apierr"
	"github.com/denizumutdereli/moodlens/pkg/checkin"
)

const (
	toolAnalyze = "moodlens_analyze"
	toolCheckin = "moodlens_checkin"
	toolExplain = "moodlens_explain"
	toolCompare = "moodlens_compare"
	toolLexicon = "moodlens_lexicon"

	promptCheckinReply = "moodlens_checkin_reply"

	serverName    = "moodlens-mcp"
	serverVersion = "1.0.0"
)

// Config controls MCP route behavior.
type Config struct {
	APIKey         string
	Stateless      bool
	RateLimitRPS   float64
	RateLimitBurst int
	EnablePrompts  bool
	AllowedTools   []string
}

// Backend is the capability contract exposed to MCP tools.
type Backend interface {
	Analyze(ctx context.Context, text string) (map[string]any, error)
	Checkin(ctx context.Context, in checkin.Input) (map[string]any, error)
	Explain(ctx context.Context, text string) (map[string]any, error)
	Compare(ctx context.Context, text string) (map[string]any, error)
	Lexicon(ctx context.Context) (map[string]any, error)
}

// NewServer builds the MCP server with every allowed tool registered.
func NewServer(cfg Config, backend Backend) (*mcpserver.MCPServer, error) {
	if backend == nil {
		return nil, fmt.Errorf("mcp backend is required")
	}

	s := mcpserver.NewMCPServer(
		serverName,
		serverVersion,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithPromptCapabilities(cfg.EnablePrompts),
		mcpserver.WithRecovery(),
	)

	registerTools(s, backend, cfg.AllowedTools)
	if cfg.EnablePrompts {
		registerPrompts(s)
	}
	return s, nil
}

// NewHandler builds an MCP streamable HTTP handler with optional API-key auth
// and endpoint-local rate limiting.
func NewHandler(cfg Config, backend Backend) (http.Handler, error) {
	s, err := NewServer(cfg, backend)
	if err != nil {
		return nil, err
	}

	streamable := mcpserver.NewStreamableHTTPServer(s, mcpserver.WithStateLess(cfg.Stateless))
	var h http.Handler = http.HandlerFunc(streamable.ServeHTTP)

	if strings.TrimSpace(cfg.APIKey) != "" {
		h = apiKeyMiddleware(strings.TrimSpace(cfg.APIKey), h)
	}
	if cfg.RateLimitRPS > 0 && cfg.RateLimitBurst > 0 {
		h = rateLimitMiddleware(newRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst), h)
	}

	return h, nil
}

// ServeStdio serves the tools over stdin/stdout until the input closes.
func ServeStdio(cfg Config, backend Backend) error {
	s, err := NewServer(cfg, backend)
	if err != nil {
		return err
	}
	return mcpserver.ServeStdio(s)
}

func registerTools(s *mcpserver.MCPServer, backend Backend, allowed []string) {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, name := range allowed {
		name = strings.TrimSpace(name)
		if name != "" {
			allowedSet[name] = struct{}{}
		}
	}
	isAllowed := func(name string) bool {
		if len(allowedSet) == 0 {
			return true
		}
		_, ok := allowedSet[name]
		return ok
	}

	if isAllowed(toolAnalyze) {
		s.AddTool(mcpproto.NewTool(toolAnalyze,
			mcpproto.WithDescription("Classify short informal text as positive, neutral or negative with a confidence score."),
			mcpproto.WithString("text", mcpproto.Required(), mcpproto.Description("Text to analyse, e.g. a check-in note.")),
		), func(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
			text := getString(req.GetArguments(), "text", "")
			if strings.TrimSpace(text) == "" {
				return errResult("text is required"), nil
			}
			result, err := backend.Analyze(ctx, text)
			if err != nil {
				return errResult(err.Error()), nil
			}
			return structuredResult(summaryOf("sentiment", result), result)
		})
	}

	if isAllowed(toolCheckin) {
		s.AddTool(mcpproto.NewTool(toolCheckin,
			mcpproto.WithDescription("Analyse a daily check-in. With no text, confidence_today (1-10) selects a fallback."),
			mcpproto.WithString("user_note", mcpproto.Description("Free-text note.")),
			mcpproto.WithString("primary_concern_today", mcpproto.Description("Main concern today.")),
			mcpproto.WithString("mood_today", mcpproto.Description("Comma-separated mood tags, e.g. \"tired, hopeful\".")),
			mcpproto.WithNumber("confidence_today", mcpproto.Description("Confidence slider value on a 1-10 scale.")),
		), func(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
			args := req.GetArguments()
			in := checkin.Input{
				UserNote:            getString(args, "user_note", ""),
				PrimaryConcernToday: getString(args, "primary_concern_today", ""),
				MoodToday:           checkin.ParseMoodTags(getString(args, "mood_today", "")),
				ConfidenceToday:     getFloatPtr(args, "confidence_today"),
			}
			if in.IsEmpty() {
				return errResult("at least one of user_note, primary_concern_today, mood_today or confidence_today is required"), nil
			}
			result, err := backend.Checkin(ctx, in)
			if err != nil {
				return errResult(err.Error()), nil
			}
			return structuredResult(summaryOf("check-in sentiment", result), result)
		})
	}

	if isAllowed(toolExplain) {
		s.AddTool(mcpproto.NewTool(toolExplain,
			mcpproto.WithDescription("Analyse text and list every phrase and word that contributed to the score."),
			mcpproto.WithString("text", mcpproto.Required(), mcpproto.Description("Text to analyse.")),
		), func(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
			text := getString(req.GetArguments(), "text", "")
			if strings.TrimSpace(text) == "" {
				return errResult("text is required"), nil
			}
			result, err := backend.Explain(ctx, text)
			if err != nil {
				return errResult(err.Error()), nil
			}
			return structuredResult("breakdown computed", result)
		})
	}

	if isAllowed(toolCompare) {
		s.AddTool(mcpproto.NewTool(toolCompare,
			mcpproto.WithDescription("Compare the lexicon engine with the stock VADER analyzer on the same text."),
			mcpproto.WithString("text", mcpproto.Required(), mcpproto.Description("Text to analyse.")),
		), func(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
			text := getString(req.GetArguments(), "text", "")
			if strings.TrimSpace(text) == "" {
				return errResult("text is required"), nil
			}
			result, err := backend.Compare(ctx, text)
			if err != nil {
				return errResult(err.Error()), nil
			}
			return structuredResult("comparison computed", result)
		})
	}

	if isAllowed(toolLexicon) {
		s.AddTool(mcpproto.NewTool(toolLexicon,
			mcpproto.WithDescription("Report the size of the active sentiment lexicon."),
		), func(ctx context.Context, _ mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
			result, err := backend.Lexicon(ctx)
			if err != nil {
				return errResult(err.Error()), nil
			}
			return structuredResult("lexicon stats", result)
		})
	}
}

func registerPrompts(s *mcpserver.MCPServer) {
	s.AddPrompt(mcpproto.NewPrompt(promptCheckinReply,
		mcpproto.WithPromptDescription("Draft a supportive or celebratory reply to a check-in based on its sentiment."),
		mcpproto.WithArgument("user_note", mcpproto.RequiredArgument(), mcpproto.ArgumentDescription("The check-in note.")),
		mcpproto.WithArgument("mood_today", mcpproto.ArgumentDescription("Comma-separated mood tags.")),
	), func(_ context.Context, req mcpproto.GetPromptRequest) (*mcpproto.GetPromptResult, error) {
		note := req.Params.Arguments["user_note"]
		mood := req.Params.Arguments["mood_today"]
		return &mcpproto.GetPromptResult{
			Description: "Check-in reply workflow",
			Messages: []mcpproto.PromptMessage{
				{
					Role: mcpproto.RoleUser,
					Content: mcpproto.TextContent{
						Type: "text",
						Text: fmt.Sprintf("Call moodlens_checkin with user_note %q and mood_today %q. If the sentiment is negative, write a short supportive reply; if positive, celebrate with the user; if neutral, acknowledge and ask one gentle follow-up question. Keep it under three sentences.", note, mood),
					},
				},
			},
		}, nil
	})
}

// summaryOf renders "<prefix>: <label> (<confidence>)" when result carries them.
func summaryOf(prefix string, result map[string]any) string {
	label, _ := result["sentiment"].(string)
	if label == "" {
		return prefix + " computed"
	}
	if c, ok := result["confidence"].(float64); ok {
		return fmt.Sprintf("%s: %s (confidence %.2f)", prefix, label, c)
	}
	return prefix + ": " + label
}

func errResult(msg string) *mcpproto.CallToolResult {
	return &mcpproto.CallToolResult{
		Content: []mcpproto.Content{
			mcpproto.TextContent{Type: "text", Text: "Error: " + msg},
		},
		IsError: true,
	}
}

func structuredResult(summary string, data any) (*mcpproto.CallToolResult, error) {
	blob, err := json.Marshal(data)
	if err != nil {
		return errResult(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return &mcpproto.CallToolResult{
		Content: []mcpproto.Content{
			mcpproto.TextContent{Type: "text", Text: summary},
			mcpproto.TextContent{Type: "text", Text: string(blob)},
		},
	}, nil
}

func getString(args map[string]any, key string, def string) string {
	if args == nil {
		return def
	}
	if v, ok := args[key].(string); ok {
		return v
	}
	return def
}

// getFloatPtr returns nil when key is absent or not a finite number.
func getFloatPtr(args map[string]any, key string) *float64 {
	if args == nil {
		return nil
	}
	v, ok := args[key].(float64)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// mcpRealm names the protected space in WWW-Authenticate challenges.
const mcpRealm = "moodlens mcp"

// apiKeyMiddleware admits requests that present the configured key as
// X-API-Key or as a bearer token. Preflight requests pass without a key.
func apiKeyMiddleware(expected string, next http.Handler) http.Handler {
	want := []byte(expected)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		got := presentedKey(r)
		if got == "" || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Bearer realm=%q`, mcpRealm))
			apierr.Unauthorized(w, "missing or invalid MCP API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func presentedKey(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get("X-API-Key")); key != "" {
		return key
	}
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// bucket is one client's token balance at the time of its last request.
type bucket struct {
	tokens float64
	seen   time.Time
}

// rateLimiter is a per-client token bucket refilled at rps up to burst.
type rateLimiter struct {
	rps   float64
	burst float64

	mu      sync.Mutex
	buckets map[string]bucket
}

// maxTrackedClients bounds the bucket map; full buckets are dropped first.
const maxTrackedClients = 4096

func newRateLimiter(rps float64, burst int) *rateLimiter {
	return &rateLimiter{
		rps:     rps,
		burst:   float64(burst),
		buckets: make(map[string]bucket),
	}
}

func (rl *rateLimiter) allow(key string) bool {
	ok, _ := rl.take(key, time.Now())
	return ok
}

// take spends one token for key. When none is left it reports how long the
// client must wait for the next one.
func (rl *rateLimiter) take(key string, now time.Time) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok {
		if len(rl.buckets) >= maxTrackedClients {
			rl.pruneLocked(now)
		}
		b = bucket{tokens: rl.burst, seen: now}
	}
	b.tokens = math.Min(rl.burst, b.tokens+now.Sub(b.seen).Seconds()*rl.rps)
	b.seen = now

	if b.tokens < 1 {
		rl.buckets[key] = b
		wait := time.Duration((1 - b.tokens) / rl.rps * float64(time.Second))
		return false, wait
	}
	b.tokens--
	rl.buckets[key] = b
	return true, 0
}

// pruneLocked forgets clients whose buckets have refilled completely.
func (rl *rateLimiter) pruneLocked(now time.Time) {
	for key, b := range rl.buckets {
		if b.tokens+now.Sub(b.seen).Seconds()*rl.rps >= rl.burst {
			delete(rl.buckets, key)
		}
	}
}

func rateLimitMiddleware(rl *rateLimiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, wait := rl.take(clientAddr(r), time.Now())
		if !ok {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(wait)))
			apierr.TooManyRequests(w, "MCP rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// retryAfterSeconds rounds wait up to whole seconds, at least one.
func retryAfterSeconds(wait time.Duration) int {
	secs := int(math.Ceil(wait.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

// clientAddr keys rate limiting on the first X-Forwarded-For hop, falling
// back to the connection's host.
func clientAddr(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	remote := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(remote); err == nil && host != "" {
		return host
	}
	if remote != "" {
		return remote
	}
	return "unknown"
}
