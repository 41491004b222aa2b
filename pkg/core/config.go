package core

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"
)

// MCPToolNames lists every tool the MCP surface can register.
var MCPToolNames = []string{
	"moodlens_analyze",
	"moodlens_checkin",
	"moodlens_explain",
	"moodlens_compare",
	"moodlens_lexicon",
}

// ---------------------------------------------------------------------------
// Config is the central configuration for a moodlens server instance.
//
// The configuration is resolved through a four-level hierarchy where each
// layer overrides values set by the layer beneath it:
//
//	Priority (highest → lowest):
//	  1. Programmatic overrides (CLI flags applied after loading)
//	  2. Environment variables (MOODLENS_* prefix)
//	  3. YAML configuration file
//	  4. Built-in defaults
//
// Duration fields accept Go duration strings ("30s", "5m").
// ---------------------------------------------------------------------------

// ServerConfig groups network listener settings.
type ServerConfig struct {
	// HTTPAddr is the TCP address the HTTP API binds to.
	HTTPAddr string `yaml:"httpAddr"`
}

// EngineConfig groups scoring engine settings.
type EngineConfig struct {
	// LexiconPath points to a YAML lexicon that replaces the built-in one.
	// Empty selects the built-in lexicon.
	LexiconPath string `yaml:"lexiconPath"`

	// BaselineEnabled loads the VADER reference analyzer for /v1/compare.
	// It costs a few MB of memory at startup.
	BaselineEnabled bool `yaml:"baselineEnabled"`
}

// CheckinConfig groups check-in adapter settings.
type CheckinConfig struct {
	// StripMarkup removes HTML from note and concern fields before scoring.
	StripMarkup bool `yaml:"stripMarkup"`
}

// BatchConfig groups batch analysis settings.
type BatchConfig struct {
	// Workers bounds concurrent analyses per batch. 0 = GOMAXPROCS.
	Workers int `yaml:"workers"`

	// MaxItems is the largest batch accepted in one request.
	MaxItems int `yaml:"maxItems"`
}

// AdminConfig groups server administration settings.
type AdminConfig struct {
	// Enabled controls whether /admin/* routes are mounted.
	Enabled bool `yaml:"enabled"`

	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// MCPConfig groups Model Context Protocol endpoint settings.
type MCPConfig struct {
	// Enabled controls whether the MCP endpoint is exposed.
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP route for MCP transport.
	Path string `yaml:"path"`

	// APIKey is an optional shared secret validated from X-API-Key or Bearer token.
	APIKey string `yaml:"apiKey"`

	// Stateless enables stateless session-id handling for streamable HTTP.
	Stateless bool `yaml:"stateless"`

	// RateLimitRPS is the per-client limit in requests/second. 0 disables it.
	RateLimitRPS float64 `yaml:"rateLimitRPS"`

	// RateLimitBurst is the burst capacity for MCP rate limiting.
	RateLimitBurst int `yaml:"rateLimitBurst"`

	// EnablePrompts toggles MCP prompt registration.
	EnablePrompts bool `yaml:"enablePrompts"`

	// AllowedTools is an optional allowlist; empty means all tools.
	AllowedTools []string `yaml:"allowedTools"`
}

// SecurityConfig groups network security and request-limiting settings.
type SecurityConfig struct {
	// AllowedOrigins is "*" or a comma-separated list of CORS origins.
	AllowedOrigins string `yaml:"allowedOrigins"`

	// MaxRequestBody is the largest accepted HTTP body in bytes. 0 = unlimited.
	MaxRequestBody int64 `yaml:"maxRequestBody"`

	// MaxTextBytes is the largest single text accepted for analysis.
	MaxTextBytes int64 `yaml:"maxTextBytes"`

	// RateLimitRequests is the per-IP request budget per RateLimitWindow.
	// 0 disables HTTP rate limiting.
	RateLimitRequests int           `yaml:"rateLimitRequests"`
	RateLimitWindow   time.Duration `yaml:"rateLimitWindow"`

	// TLSCert and TLSKey enable HTTPS when both are set.
	TLSCert string `yaml:"tlsCert"`
	TLSKey  string `yaml:"tlsKey"`

	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
}

// Config is the root configuration object for a moodlens server.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Engine   EngineConfig   `yaml:"engine"`
	Checkin  CheckinConfig  `yaml:"checkin"`
	Batch    BatchConfig    `yaml:"batch"`
	Admin    AdminConfig    `yaml:"admin"`
	MCP      MCPConfig      `yaml:"mcp"`
	Security SecurityConfig `yaml:"security"`
}

// ---------------------------------------------------------------------------
// Factory functions
// ---------------------------------------------------------------------------

// DefaultConfig returns a Config populated with production-safe defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr: ":6070",
		},
		Engine: EngineConfig{
			LexiconPath:     "",
			BaselineEnabled: false,
		},
		Checkin: CheckinConfig{
			StripMarkup: true,
		},
		Batch: BatchConfig{
			Workers:  0,
			MaxItems: 500,
		},
		Admin: AdminConfig{
			Enabled:  false,
			User:     "admin",
			Password: "moodlens",
		},
		MCP: MCPConfig{
			Enabled:        false,
			Path:           "/mcp",
			Stateless:      true,
			RateLimitRPS:   30,
			RateLimitBurst: 60,
			EnablePrompts:  true,
		},
		Security: SecurityConfig{
			AllowedOrigins:    "http://localhost:6070",
			MaxRequestBody:    1 << 20, // 1 MB
			MaxTextBytes:      DefaultMaxTextBytes,
			RateLimitRequests: 6000,
			RateLimitWindow:   time.Minute,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
		},
	}
}

// ConfigFromFile reads a YAML configuration file and merges it on top of
// the built-in defaults. Fields absent from the file retain their defaults.
func ConfigFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// ConfigFromEnv applies environment variable overrides to cfg.
// If cfg is nil a new default Config is created first.
//
// Environment variable mapping (all optional):
//
//	MOODLENS_HTTP_ADDR            → Server.HTTPAddr
//	MOODLENS_LEXICON_PATH         → Engine.LexiconPath
//	MOODLENS_BASELINE_ENABLED     → Engine.BaselineEnabled   ("true"/"false")
//	MOODLENS_STRIP_MARKUP         → Checkin.StripMarkup      ("true"/"false")
//	MOODLENS_BATCH_WORKERS        → Batch.Workers
//	MOODLENS_BATCH_MAX_ITEMS      → Batch.MaxItems
//	MOODLENS_ADMIN_ENABLED        → Admin.Enabled
//	MOODLENS_ADMIN_USER           → Admin.User
//	MOODLENS_ADMIN_PASSWORD       → Admin.Password
//	MOODLENS_MCP_ENABLED          → MCP.Enabled
//	MOODLENS_MCP_PATH             → MCP.Path
//	MOODLENS_MCP_API_KEY          → MCP.APIKey
//	MOODLENS_MCP_STATELESS        → MCP.Stateless
//	MOODLENS_MCP_RATE_LIMIT_RPS   → MCP.RateLimitRPS         (float)
//	MOODLENS_MCP_RATE_LIMIT_BURST → MCP.RateLimitBurst
//	MOODLENS_MCP_ENABLE_PROMPTS   → MCP.EnablePrompts
//	MOODLENS_MCP_ALLOWED_TOOLS    → MCP.AllowedTools         (comma-separated)
//	MOODLENS_ALLOWED_ORIGINS      → Security.AllowedOrigins
//	MOODLENS_MAX_REQUEST_BODY     → Security.MaxRequestBody  (bytes)
//	MOODLENS_MAX_TEXT_BYTES       → Security.MaxTextBytes    (bytes)
//	MOODLENS_RATE_LIMIT_REQUESTS  → Security.RateLimitRequests
//	MOODLENS_RATE_LIMIT_WINDOW    → Security.RateLimitWindow (duration)
//	MOODLENS_TLS_CERT             → Security.TLSCert
//	MOODLENS_TLS_KEY              → Security.TLSKey
//	MOODLENS_READ_TIMEOUT         → Security.ReadTimeout     (duration)
//	MOODLENS_WRITE_TIMEOUT        → Security.WriteTimeout    (duration)
func ConfigFromEnv(cfg *Config) *Config {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	setEnvStr("MOODLENS_HTTP_ADDR", &cfg.Server.HTTPAddr)

	setEnvStr("MOODLENS_LEXICON_PATH", &cfg.Engine.LexiconPath)
	setEnvBool("MOODLENS_BASELINE_ENABLED", &cfg.Engine.BaselineEnabled)

	setEnvBool("MOODLENS_STRIP_MARKUP", &cfg.Checkin.StripMarkup)

	setEnvInt("MOODLENS_BATCH_WORKERS", &cfg.Batch.Workers)
	setEnvInt("MOODLENS_BATCH_MAX_ITEMS", &cfg.Batch.MaxItems)

	setEnvBool("MOODLENS_ADMIN_ENABLED", &cfg.Admin.Enabled)
	setEnvStr("MOODLENS_ADMIN_USER", &cfg.Admin.User)
	setEnvStr("MOODLENS_ADMIN_PASSWORD", &cfg.Admin.Password)

	setEnvBool("MOODLENS_MCP_ENABLED", &cfg.MCP.Enabled)
	setEnvStr("MOODLENS_MCP_PATH", &cfg.MCP.Path)
	setEnvStr("MOODLENS_MCP_API_KEY", &cfg.MCP.APIKey)
	setEnvBool("MOODLENS_MCP_STATELESS", &cfg.MCP.Stateless)
	setEnvFloat("MOODLENS_MCP_RATE_LIMIT_RPS", &cfg.MCP.RateLimitRPS)
	setEnvInt("MOODLENS_MCP_RATE_LIMIT_BURST", &cfg.MCP.RateLimitBurst)
	setEnvBool("MOODLENS_MCP_ENABLE_PROMPTS", &cfg.MCP.EnablePrompts)
	setEnvCSV("MOODLENS_MCP_ALLOWED_TOOLS", &cfg.MCP.AllowedTools)

	setEnvStr("MOODLENS_ALLOWED_ORIGINS", &cfg.Security.AllowedOrigins)
	setEnvInt64("MOODLENS_MAX_REQUEST_BODY", &cfg.Security.MaxRequestBody)
	setEnvInt64("MOODLENS_MAX_TEXT_BYTES", &cfg.Security.MaxTextBytes)
	setEnvInt("MOODLENS_RATE_LIMIT_REQUESTS", &cfg.Security.RateLimitRequests)
	setEnvDuration("MOODLENS_RATE_LIMIT_WINDOW", &cfg.Security.RateLimitWindow)
	setEnvStr("MOODLENS_TLS_CERT", &cfg.Security.TLSCert)
	setEnvStr("MOODLENS_TLS_KEY", &cfg.Security.TLSKey)
	setEnvDuration("MOODLENS_READ_TIMEOUT", &cfg.Security.ReadTimeout)
	setEnvDuration("MOODLENS_WRITE_TIMEOUT", &cfg.Security.WriteTimeout)

	return cfg
}

// LoadConfig resolves defaults, then the YAML file (when configPath is
// non-empty), then environment variables. The caller applies CLI overrides.
func LoadConfig(configPath string) (*Config, error) {
	var cfg *Config
	if configPath != "" {
		var err error
		cfg, err = ConfigFromFile(configPath)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = DefaultConfig()
	}
	return ConfigFromEnv(cfg), nil
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

// Validate performs structural validation of the entire configuration and
// normalises a few fields in place (MCP path, allowed tools).
// Returns a descriptive error for the first invalid field encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("%w: server.httpAddr must not be empty", ErrInvalidConfig)
	}

	// Engine
	if c.Engine.LexiconPath != "" {
		if _, err := os.Stat(c.Engine.LexiconPath); err != nil {
			return fmt.Errorf("%w: engine.lexiconPath: %v", ErrInvalidConfig, err)
		}
	}

	// Batch
	if c.Batch.Workers < 0 {
		return fmt.Errorf("%w: batch.workers must be >= 0, got %d", ErrInvalidConfig, c.Batch.Workers)
	}
	if c.Batch.MaxItems < 1 {
		return fmt.Errorf("%w: batch.maxItems must be >= 1, got %d", ErrInvalidConfig, c.Batch.MaxItems)
	}
	if c.Batch.Workers > 4*runtime.NumCPU() {
		log.Printf("⚠ WARNING: batch.workers=%d is far above the CPU count (%d); analysis is CPU-bound", c.Batch.Workers, runtime.NumCPU())
	}
	if c.Batch.MaxItems > 10_000 {
		log.Printf("⚠ WARNING: batch.maxItems=%d allows very large requests", c.Batch.MaxItems)
	}

	// Admin
	if c.Admin.Enabled {
		if c.Admin.User == "" || c.Admin.Password == "" {
			return fmt.Errorf("%w: admin.user and admin.password must not be empty when admin is enabled", ErrInvalidConfig)
		}
		if c.Admin.Password == "moodlens" {
			if isProductionMode() {
				return fmt.Errorf("%w: admin.password must not use default value in production", ErrInvalidConfig)
			}
			log.Printf("⚠ WARNING: admin.password is set to the default value; change it before deploying")
		}
	}

	// MCP
	mcpPath := strings.TrimSpace(c.MCP.Path)
	if mcpPath == "" {
		mcpPath = "/mcp"
	}
	if !strings.HasPrefix(mcpPath, "/") {
		return fmt.Errorf("%w: mcp.path must start with '/'", ErrInvalidConfig)
	}
	if len(mcpPath) > 1 {
		mcpPath = strings.TrimRight(mcpPath, "/")
	}
	if reservedPath(mcpPath) {
		return fmt.Errorf("%w: mcp.path %q collides with an API route", ErrInvalidConfig, mcpPath)
	}
	c.MCP.Path = mcpPath
	if c.MCP.RateLimitRPS < 0 {
		return fmt.Errorf("%w: mcp.rateLimitRPS must be >= 0", ErrInvalidConfig)
	}
	if c.MCP.RateLimitBurst < 0 {
		return fmt.Errorf("%w: mcp.rateLimitBurst must be >= 0", ErrInvalidConfig)
	}
	if len(c.MCP.AllowedTools) > 0 {
		tools, err := normaliseToolList(c.MCP.AllowedTools)
		if err != nil {
			return err
		}
		c.MCP.AllowedTools = tools
	}

	// Security
	if c.Security.MaxRequestBody < 0 {
		return fmt.Errorf("%w: security.maxRequestBody must be >= 0 (0 = unlimited)", ErrInvalidConfig)
	}
	if c.Security.MaxTextBytes <= 0 {
		return fmt.Errorf("%w: security.maxTextBytes must be > 0", ErrInvalidConfig)
	}
	if c.Security.MaxRequestBody > 0 && c.Security.MaxTextBytes > c.Security.MaxRequestBody {
		log.Printf("⚠ WARNING: security.maxTextBytes (%d) exceeds security.maxRequestBody (%d); the body limit applies first",
			c.Security.MaxTextBytes, c.Security.MaxRequestBody)
	}
	if c.Security.RateLimitRequests < 0 {
		return fmt.Errorf("%w: security.rateLimitRequests must be >= 0", ErrInvalidConfig)
	}
	if c.Security.RateLimitRequests > 0 && c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("%w: security.rateLimitWindow must be > 0 when rate limiting is on", ErrInvalidConfig)
	}
	if c.Security.ReadTimeout <= 0 {
		return fmt.Errorf("%w: security.readTimeout must be > 0", ErrInvalidConfig)
	}
	if c.Security.WriteTimeout <= 0 {
		return fmt.Errorf("%w: security.writeTimeout must be > 0", ErrInvalidConfig)
	}
	if c.Admin.Enabled && c.Security.AllowedOrigins == "*" {
		return fmt.Errorf("%w: security.allowedOrigins must not be '*' when admin is enabled", ErrInvalidConfig)
	}
	if c.Security.AllowedOrigins == "*" {
		log.Printf("⚠ WARNING: security.allowedOrigins is set to \"*\" (allow all); restrict for production use")
	}
	if c.Security.TLSCert != "" && c.Security.TLSKey == "" {
		return fmt.Errorf("%w: security.tlsKey is required when security.tlsCert is set", ErrInvalidConfig)
	}
	if c.Security.TLSKey != "" && c.Security.TLSCert == "" {
		return fmt.Errorf("%w: security.tlsCert is required when security.tlsKey is set", ErrInvalidConfig)
	}

	return nil
}

func normaliseToolList(names []string) ([]string, error) {
	known := make(map[string]struct{}, len(MCPToolNames))
	for _, n := range MCPToolNames {
		known[n] = struct{}{}
	}

	dedup := make(map[string]struct{}, len(names))
	var invalid []string
	tools := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := dedup[name]; ok {
			continue
		}
		if _, ok := known[name]; !ok {
			invalid = append(invalid, name)
			continue
		}
		dedup[name] = struct{}{}
		tools = append(tools, name)
	}
	if len(invalid) > 0 {
		sort.Strings(invalid)
		return nil, fmt.Errorf("%w: mcp.allowedTools contains unsupported tools: %s", ErrInvalidConfig, strings.Join(invalid, ", "))
	}
	return tools, nil
}

func reservedPath(p string) bool {
	return p == "/" || p == "/health" || p == "/v1" || strings.HasPrefix(p, "/v1/") || strings.HasPrefix(p, "/admin")
}

func isProductionMode() bool {
	for _, key := range []string{"MOODLENS_ENV", "GO_ENV", "APP_ENV"} {
		v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
		if v == "production" || v == "prod" {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Environment variable helpers
// ---------------------------------------------------------------------------

// setEnvStr sets *target to the value of the named env var if it is non-empty.
func setEnvStr(key string, target *string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

// setEnvBool accepts anything strconv.ParseBool does; invalid values are ignored.
func setEnvBool(key string, target *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*target = b
		}
	}
}

func setEnvInt(key string, target *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*target = n
		}
	}
}

func setEnvInt64(key string, target *int64) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*target = n
		}
	}
}

func setEnvFloat(key string, target *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*target = f
		}
	}
}

// setEnvDuration uses time.ParseDuration, so accepts "30s", "5m", "1h30m".
func setEnvDuration(key string, target *time.Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*target = d
		}
	}
}

// setEnvCSV sets *target to a comma-separated env var list.
func setEnvCSV(key string, target *[]string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		*target = out
	}
}

// ---------------------------------------------------------------------------
// CLI flag overrides: the final layer of the configuration hierarchy.
// ---------------------------------------------------------------------------

// CLIOverrides carries optional values set via command-line flags.
// Pointer fields are nil when the flag was not explicitly provided.
type CLIOverrides struct {
	ConfigPath      *string
	HTTPAddr        *string
	LexiconPath     *string
	BaselineEnabled *bool
	StripMarkup     *bool
	BatchWorkers    *int
	BatchMaxItems   *int
	AdminEnabled    *bool
	AdminUser       *string
	AdminPassword   *string
	MCPEnabled      *bool
	MCPPath         *string
	MCPAPIKey       *string
	AllowedOrigins  *string
	MaxRequestBody  *int64
	MaxTextBytes    *int64
	TLSCert         *string
	TLSKey          *string
}

// ApplyCLIOverrides patches the Config with any explicitly-set CLI flags.
func (c *Config) ApplyCLIOverrides(o *CLIOverrides) {
	if o == nil {
		return
	}
	if o.HTTPAddr != nil {
		c.Server.HTTPAddr = *o.HTTPAddr
	}
	if o.LexiconPath != nil {
		c.Engine.LexiconPath = *o.LexiconPath
	}
	if o.BaselineEnabled != nil {
		c.Engine.BaselineEnabled = *o.BaselineEnabled
	}
	if o.StripMarkup != nil {
		c.Checkin.StripMarkup = *o.StripMarkup
	}
	if o.BatchWorkers != nil {
		c.Batch.Workers = *o.BatchWorkers
	}
	if o.BatchMaxItems != nil {
		c.Batch.MaxItems = *o.BatchMaxItems
	}
	if o.AdminEnabled != nil {
		c.Admin.Enabled = *o.AdminEnabled
	}
	if o.AdminUser != nil {
		c.Admin.User = *o.AdminUser
	}
	if o.AdminPassword != nil {
		c.Admin.Password = *o.AdminPassword
	}
	if o.MCPEnabled != nil {
		c.MCP.Enabled = *o.MCPEnabled
	}
	if o.MCPPath != nil {
		c.MCP.Path = *o.MCPPath
	}
	if o.MCPAPIKey != nil {
		c.MCP.APIKey = *o.MCPAPIKey
	}
	if o.AllowedOrigins != nil {
		c.Security.AllowedOrigins = *o.AllowedOrigins
	}
	if o.MaxRequestBody != nil {
		c.Security.MaxRequestBody = *o.MaxRequestBody
	}
	if o.MaxTextBytes != nil {
		c.Security.MaxTextBytes = *o.MaxTextBytes
	}
	if o.TLSCert != nil {
		c.Security.TLSCert = *o.TLSCert
	}
	if o.TLSKey != nil {
		c.Security.TLSKey = *o.TLSKey
	}
}

// ---------------------------------------------------------------------------
// Lifecycle helpers
// ---------------------------------------------------------------------------

// WaitForShutdown blocks until SIGINT/SIGTERM or ctx is done, then cancels.
func WaitForShutdown(ctx context.Context, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		log.Printf("Received signal %v, initiating shutdown...", sig)
		cancel()
	case <-ctx.Done():
	}
}

// PrintBanner prints the moodlens banner to stdout.
func PrintBanner() {
	banner := `
                         _ _                
  _ __ ___   ___   ___  __| | | ___ _ __  ___ 
 | '_ ` + "`" + ` _ \ / _ \ / _ \/ _` + "`" + ` | |/ _ \ '_ \/ __|
 | | | | | | (_) | (_) | (_| | |  __/ | | \__ \
 |_| |_| |_|\___/ \___/ \__,_|_|\___|_| |_|___/

    Lexicon sentiment for daily check-ins
    ─────────────────────────────────────
`
	fmt.Print(banner)
}
