package api

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/denizumutdereli/moodlens/pkg/api/apierr"
	"github.com/denizumutdereli/moodlens/pkg/checkin"
	"github.com/denizumutdereli/moodlens/pkg/concurrency"
	"github.com/denizumutdereli/moodlens/pkg/core"
	mcpapi "github.com/denizumutdereli/moodlens/pkg/mcp"
	"github.com/denizumutdereli/moodlens/pkg/sentiment"
)

// Server is the HTTP/REST API server.
type Server struct {
	adapter  *checkin.Adapter
	batch    *concurrency.Batch
	baseline *sentiment.Baseline
	config   *core.Config
	cfgMu    sync.RWMutex
	started  time.Time

	httpServer *http.Server
	addr       string
	mcpPath    string

	rateLimitRequests int
	rateLimitWindow   time.Duration
	rateLimitMu       sync.Mutex
	rateLimitEntries  map[string]rateLimitEntry
}

const (
	defaultRateLimitWindow = time.Minute
	maxRequestIDLength     = 128
)

type rateLimitEntry struct {
	windowStart time.Time
	count       int
}

// NewServer creates a new API server. A nil adapter selects the default
// check-in adapter; a nil baseline disables /v1/compare.
func NewServer(cfg *core.Config, adapter *checkin.Adapter, baseline *sentiment.Baseline) *Server {
	if adapter == nil {
		adapter = checkin.Default()
	}
	window := cfg.Security.RateLimitWindow
	if window <= 0 {
		window = defaultRateLimitWindow
	}

	s := &Server{
		adapter:           adapter,
		batch:             concurrency.NewBatch(adapter, cfg.Batch.Workers, cfg.Batch.MaxItems),
		baseline:          baseline,
		config:            cfg,
		started:           time.Now(),
		addr:              cfg.Server.HTTPAddr,
		rateLimitRequests: cfg.Security.RateLimitRequests,
		rateLimitWindow:   window,
		rateLimitEntries:  make(map[string]rateLimitEntry),
	}
	if err := core.SetMaxTextBytes(cfg.Security.MaxTextBytes); err != nil {
		log.Printf("⚠ invalid security.maxTextBytes=%d, using runtime default: %v", cfg.Security.MaxTextBytes, err)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)

	mux.HandleFunc("/v1/analyze", s.handleAnalyze)
	mux.HandleFunc("/v1/checkin", s.handleCheckin)
	mux.HandleFunc("/v1/batch", s.handleBatch)
	mux.HandleFunc("/v1/compare", s.handleCompare)
	mux.HandleFunc("/v1/schema/checkin", s.handleCheckinSchema)
	mux.HandleFunc("/v1/lexicon", s.handleLexicon)

	if cfg.MCP.Enabled {
		path := cfg.MCP.Path
		if strings.TrimSpace(path) == "" {
			path = "/mcp"
		}
		if len(path) > 1 {
			path = strings.TrimRight(path, "/")
		}

		mcpHandler, err := mcpapi.NewHandler(mcpapi.Config{
			APIKey:         cfg.MCP.APIKey,
			Stateless:      cfg.MCP.Stateless,
			RateLimitRPS:   cfg.MCP.RateLimitRPS,
			RateLimitBurst: cfg.MCP.RateLimitBurst,
			EnablePrompts:  cfg.MCP.EnablePrompts,
			AllowedTools:   cfg.MCP.AllowedTools,
		}, NewMCPBackend(adapter, baseline, cfg.Engine.LexiconPath))
		if err != nil {
			log.Printf("⚠ MCP endpoint disabled: %v", err)
		} else {
			s.mcpPath = path
			mux.Handle(path, mcpHandler)
			log.Printf("MCP endpoint enabled at %s (stateless=%v)", path, cfg.MCP.Stateless)
		}
	}

	if cfg.Admin.Enabled {
		mux.HandleFunc("/admin/config", s.requireAdmin(s.handleConfig))
	}

	s.httpServer = &http.Server{
		Addr:         s.addr,
		Handler:      s.withMiddleware(mux),
		ReadTimeout:  cfg.Security.ReadTimeout,
		WriteTimeout: cfg.Security.WriteTimeout,
	}

	return s
}

// withMiddleware adds common middleware (request id, CORS, rate limit,
// content negotiation, request body limit, logging).
func (s *Server) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.isMCPPath(r.URL.Path) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.Printf("%s %s %v", r.Method, r.URL.Path, time.Since(start))
			return
		}

		w.Header().Set(apierr.RequestIDHeader, requestID(r))

		s.cfgMu.RLock()
		origins := s.config.Security.AllowedOrigins
		maxBody := s.config.Security.MaxRequestBody
		s.cfgMu.RUnlock()

		// AllowedOrigins may be comma-separated; match against the request Origin header.
		if requestOrigin := r.Header.Get("Origin"); requestOrigin != "" && originAllowed(origins, requestOrigin) {
			w.Header().Set("Access-Control-Allow-Origin", requestOrigin)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization, "+apierr.RequestIDHeader)
		w.Header().Set("Access-Control-Expose-Headers", apierr.RequestIDHeader)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		if !s.allowRequestByRateLimit(r) {
			retryAfter := int(s.rateLimitWindow.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			apierr.TooManyRequests(w, "rate limit exceeded")
			return
		}

		if !acceptable(r.Header.Get("Accept")) {
			apierr.NotAcceptable(w, "supported response types: application/json, "+contentTypeMsgpack)
			return
		}

		if maxBody > 0 && r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBody)
		}

		w.Header().Set("Content-Type", contentTypeJSON)

		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %v", r.Method, r.URL.Path, time.Since(start))
	})
}

func (s *Server) isMCPPath(path string) bool {
	if s.mcpPath == "" {
		return false
	}
	if path == s.mcpPath {
		return true
	}
	return strings.HasPrefix(path, s.mcpPath+"/")
}

// requestID reuses a caller-supplied X-Request-ID or mints a new one.
func requestID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(apierr.RequestIDHeader)); id != "" && len(id) <= maxRequestIDLength {
		return id
	}
	return uuid.NewString()
}

func originAllowed(allowed, origin string) bool {
	if allowed == "*" {
		return true
	}
	for _, o := range strings.Split(allowed, ",") {
		if strings.TrimSpace(o) == origin {
			return true
		}
	}
	return false
}

// requireAdmin wraps a handler with admin Basic-Auth verification.
// The client must send an Authorization header: Basic base64(user:password).
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="moodlens admin"`)
			apierr.Unauthorized(w, "admin authentication required")
			return
		}

		// Constant-time comparison to prevent timing attacks.
		userHash := sha256.Sum256([]byte(user))
		passHash := sha256.Sum256([]byte(pass))
		expectedUserHash := sha256.Sum256([]byte(s.config.Admin.User))
		expectedPassHash := sha256.Sum256([]byte(s.config.Admin.Password))

		userMatch := subtle.ConstantTimeCompare(userHash[:], expectedUserHash[:]) == 1
		passMatch := subtle.ConstantTimeCompare(passHash[:], expectedPassHash[:]) == 1

		if !userMatch || !passMatch {
			apierr.Unauthorized(w, "invalid admin credentials")
			return
		}

		next(w, r)
	}
}

// writeOperationError maps analysis errors to HTTP API errors.
func (s *Server) writeOperationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrTextRequired):
		apierr.BadRequest(w, apierr.CodeTextRequired, err.Error())
	case errors.Is(err, core.ErrTextTooLarge):
		apierr.TextTooLarge(w, err.Error())
	case errors.Is(err, core.ErrBatchEmpty):
		apierr.BadRequest(w, apierr.CodeBatchEmpty, err.Error())
	case errors.Is(err, core.ErrBatchTooLarge):
		apierr.BatchTooLarge(w, err.Error())
	case errors.Is(err, core.ErrBaselineDisabled):
		apierr.BaselineDisabled(w)
	default:
		apierr.Internal(w, err.Error())
	}
}

// decodeJSONRequest decodes the body into dst. Malformed JSON yields
// INVALID_JSON; well-formed JSON of the wrong shape yields shapeCode.
func (s *Server) decodeJSONRequest(w http.ResponseWriter, r *http.Request, dst any, shapeCode string) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var (
			maxErr    *http.MaxBytesError
			syntaxErr *json.SyntaxError
		)
		switch {
		case errors.As(err, &maxErr):
			apierr.PayloadTooLarge(w, err.Error())
		case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			apierr.InvalidJSON(w)
		default:
			apierr.BadRequest(w, shapeCode, err.Error())
		}
		return false
	}
	return true
}

func (s *Server) allowRequestByRateLimit(r *http.Request) bool {
	s.rateLimitMu.Lock()
	defer s.rateLimitMu.Unlock()

	if s.rateLimitRequests <= 0 || s.rateLimitWindow <= 0 {
		return true
	}

	key := r.RemoteAddr
	if ip := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); ip != "" {
		parts := strings.Split(ip, ",")
		key = strings.TrimSpace(parts[0])
	} else if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		key = ip
	} else if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		key = host
	}
	if key == "" {
		key = "unknown"
	}

	now := time.Now()
	entry := s.rateLimitEntries[key]
	if entry.windowStart.IsZero() || now.Sub(entry.windowStart) >= s.rateLimitWindow {
		s.rateLimitEntries[key] = rateLimitEntry{windowStart: now, count: 1}
		return true
	}
	if entry.count >= s.rateLimitRequests {
		return false
	}
	entry.count++
	s.rateLimitEntries[key] = entry
	return true
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the server. Uses TLS if configured.
func (s *Server) Start() error {
	if s.config.Security.TLSCert != "" && s.config.Security.TLSKey != "" {
		log.Printf("🚀 moodlens API server starting on %s (TLS)", s.addr)
		return s.httpServer.ListenAndServeTLS(s.config.Security.TLSCert, s.config.Security.TLSKey)
	}
	log.Printf("🚀 moodlens API server starting on %s", s.addr)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
