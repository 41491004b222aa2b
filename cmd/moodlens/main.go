package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/denizumutdereli/moodlens/pkg/api"
	"github.com/denizumutdereli/moodlens/pkg/checkin"
	"github.com/denizumutdereli/moodlens/pkg/core"
	"github.com/denizumutdereli/moodlens/pkg/lexicon"
	"github.com/denizumutdereli/moodlens/pkg/sentiment"
)

func main() {
	var cliOverrides core.CLIOverrides

	rootCmd := &cobra.Command{
		Use:   "moodlens",
		Short: "moodlens - lexicon-based sentiment for check-ins",
		Long:  "An HTTP and MCP server that classifies short, informal check-in text as positive, neutral, or negative.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Flags(), &cliOverrides)
		},
		SilenceUsage: true,
	}

	// CLI flags - highest priority in the config hierarchy.
	f := rootCmd.Flags()

	cliOverrides.ConfigPath = f.StringP("config", "f", "", "Path to YAML config file (overrides MOODLENS_CONFIG env)")
	cliOverrides.HTTPAddr = f.String("http-addr", "", "HTTP listen address")

	// Engine flags
	cliOverrides.LexiconPath = f.String("lexicon", "", "Path to a YAML lexicon replacing the built-in one")
	cliOverrides.BaselineEnabled = f.Bool("baseline", false, "Load the VADER baseline for /v1/compare")
	cliOverrides.StripMarkup = f.Bool("strip-markup", true, "Strip HTML from check-in notes before scoring")
	cliOverrides.BatchWorkers = f.Int("batch-workers", 0, "Concurrent analyses per batch (0 = GOMAXPROCS)")
	cliOverrides.BatchMaxItems = f.Int("batch-max-items", 0, "Largest accepted batch")

	// Admin flags
	cliOverrides.AdminEnabled = f.Bool("admin", false, "Enable admin endpoints")
	cliOverrides.AdminUser = f.String("admin-user", "", "Admin username")
	cliOverrides.AdminPassword = f.String("admin-password", "", "Admin password")

	// MCP flags
	cliOverrides.MCPEnabled = f.Bool("mcp", false, "Expose MCP tools over streamable HTTP")
	cliOverrides.MCPPath = f.String("mcp-path", "", "HTTP route for the MCP endpoint")
	cliOverrides.MCPAPIKey = f.String("mcp-api-key", "", "Shared secret required on MCP requests")

	// Security flags
	cliOverrides.AllowedOrigins = f.String("allowed-origins", "", "CORS allowed origins (comma-separated, \"*\" for all)")
	cliOverrides.MaxRequestBody = f.Int64("max-request-body", 0, "Maximum HTTP request body in bytes")
	cliOverrides.MaxTextBytes = f.Int64("max-text-bytes", 0, "Maximum size of a single analysed text in bytes")
	cliOverrides.TLSCert = f.String("tls-cert", "", "Path to TLS certificate file")
	cliOverrides.TLSKey = f.String("tls-key", "", "Path to TLS private key file")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// run implements the server startup sequence after CLI flags are parsed.
func run(flags *pflag.FlagSet, cliOverrides *core.CLIOverrides) error {
	core.PrintBanner()

	// Resolve config path: --config flag > MOODLENS_CONFIG env var
	configPath := ""
	if cliOverrides.ConfigPath != nil && *cliOverrides.ConfigPath != "" {
		configPath = *cliOverrides.ConfigPath
	} else {
		configPath = os.Getenv("MOODLENS_CONFIG")
	}

	// Load config through hierarchy: defaults -> YAML -> env vars
	cfg, err := core.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Apply CLI flag overrides (only flags that were explicitly set)
	applyExplicitFlags(flags, cfg, cliOverrides)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := core.SetMaxTextBytes(cfg.Security.MaxTextBytes); err != nil {
		return fmt.Errorf("invalid text size limit: %w", err)
	}

	log.Printf("HTTP: %s", cfg.Server.HTTPAddr)

	lx := lexicon.Default()
	if cfg.Engine.LexiconPath != "" {
		lx, err = lexicon.Load(cfg.Engine.LexiconPath)
		if err != nil {
			return fmt.Errorf("failed to load lexicon: %w", err)
		}
		log.Printf("Lexicon loaded from %s", cfg.Engine.LexiconPath)
	} else {
		log.Println("Using built-in lexicon")
	}
	stats := lx.Stats()
	log.Printf("Lexicon: %d positive, %d negative, %d intensifiers, %d negations",
		stats.PositiveWords+stats.PositivePhrases, stats.NegativeWords+stats.NegativePhrases,
		stats.Intensifiers, stats.Negations)

	adapter := checkin.NewAdapter(
		checkin.WithEngine(sentiment.NewEngine(lx)),
		checkin.WithMarkupStripping(cfg.Checkin.StripMarkup),
	)

	var baseline *sentiment.Baseline
	if cfg.Engine.BaselineEnabled {
		baseline = sentiment.NewBaseline()
		log.Println("VADER baseline initialized")
	} else {
		log.Println("VADER baseline disabled (enable with --baseline or MOODLENS_BASELINE_ENABLED=true)")
	}

	httpServer := api.NewServer(cfg, adapter, baseline)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		if err := httpServer.Start(); err != nil {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	log.Println("moodlens is ready!")
	log.Println("--------------------------------------------")

	core.WaitForShutdown(ctx, cancel)

	log.Println("Initiating graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}

	log.Println("moodlens shutdown complete")
	return nil
}

// applyExplicitFlags applies only the CLI flags that were explicitly set
// by the user on the command line. Unset flags are ignored so they do not
// override values resolved from YAML or environment variables.
func applyExplicitFlags(flags *pflag.FlagSet, cfg *core.Config, o *core.CLIOverrides) {
	overrides := core.CLIOverrides{}

	if flags.Changed("http-addr") {
		overrides.HTTPAddr = o.HTTPAddr
	}
	if flags.Changed("lexicon") {
		overrides.LexiconPath = o.LexiconPath
	}
	if flags.Changed("baseline") {
		overrides.BaselineEnabled = o.BaselineEnabled
	}
	if flags.Changed("strip-markup") {
		overrides.StripMarkup = o.StripMarkup
	}
	if flags.Changed("batch-workers") {
		overrides.BatchWorkers = o.BatchWorkers
	}
	if flags.Changed("batch-max-items") {
		overrides.BatchMaxItems = o.BatchMaxItems
	}
	if flags.Changed("admin") {
		overrides.AdminEnabled = o.AdminEnabled
	}
	if flags.Changed("admin-user") {
		overrides.AdminUser = o.AdminUser
	}
	if flags.Changed("admin-password") {
		overrides.AdminPassword = o.AdminPassword
	}
	if flags.Changed("mcp") {
		overrides.MCPEnabled = o.MCPEnabled
	}
	if flags.Changed("mcp-path") {
		overrides.MCPPath = o.MCPPath
	}
	if flags.Changed("mcp-api-key") {
		overrides.MCPAPIKey = o.MCPAPIKey
	}
	if flags.Changed("allowed-origins") {
		overrides.AllowedOrigins = o.AllowedOrigins
	}
	if flags.Changed("max-request-body") {
		overrides.MaxRequestBody = o.MaxRequestBody
	}
	if flags.Changed("max-text-bytes") {
		overrides.MaxTextBytes = o.MaxTextBytes
	}
	if flags.Changed("tls-cert") {
		overrides.TLSCert = o.TLSCert
	}
	if flags.Changed("tls-key") {
		overrides.TLSKey = o.TLSKey
	}

	cfg.ApplyCLIOverrides(&overrides)
}
