package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/denizumutdereli/moodlens/pkg/api"
	"github.com/denizumutdereli/moodlens/pkg/checkin"
	"github.com/denizumutdereli/moodlens/pkg/core"
	"github.com/denizumutdereli/moodlens/pkg/lexicon"
	mcpapi "github.com/denizumutdereli/moodlens/pkg/mcp"
	"github.com/denizumutdereli/moodlens/pkg/sentiment"
)

// cli holds the shared state for all subcommands.
type cli struct {
	serverURL   string
	lexiconPath string
	adminUser   string
	adminPass   string
	asJSON      bool
	noColor     bool

	in         io.Reader
	out        io.Writer
	httpClient *http.Client
	scorer     scorer
	render     *renderer
}

func main() {
	c := &cli{
		in:         os.Stdin,
		out:        os.Stdout,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	if err := newRootCmd(c).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(c *cli) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "moodlens-cli",
		Short: "moodlens CLI: score check-ins from the terminal",
		Long:  "Scores text and check-ins in-process, or against a moodlens server with --server.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
		// When called with no subcommand, drop into the interactive shell
		// or score piped input.
		RunE: func(cmd *cobra.Command, args []string) error {
			if f, ok := c.in.(*os.File); ok && !isatty.IsTerminal(f.Fd()) {
				text, err := io.ReadAll(c.in)
				if err != nil {
					return err
				}
				return c.analyze(cmd.Context(), string(text), false)
			}
			return runREPL(cmd.Context(), c)
		},
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&c.serverURL, "server", "", "moodlens server URL (default: score in-process; env MOODLENS_URL)")
	pf.StringVar(&c.lexiconPath, "lexicon", "", "YAML lexicon for in-process scoring")
	pf.BoolVar(&c.asJSON, "json", false, "Print JSON instead of styled text")
	pf.BoolVar(&c.noColor, "no-color", false, "Disable coloured output")

	// ── Analyze ─────────────────────────────────────────────
	analyzeCmd := &cobra.Command{
		Use:   "analyze [text...]",
		Short: "Classify text (reads stdin when no text is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			explain, _ := cmd.Flags().GetBool("explain")
			text, err := c.textArg(args)
			if err != nil {
				return err
			}
			return c.analyze(cmd.Context(), text, explain)
		},
	}
	analyzeCmd.Flags().Bool("explain", false, "Show per-term contributions")
	rootCmd.AddCommand(analyzeCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "explain [text...]",
		Short: "Classify text and show how the score was reached",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := c.textArg(args)
			if err != nil {
				return err
			}
			return c.analyze(cmd.Context(), text, true)
		},
	})

	// ── Check-in ────────────────────────────────────────────
	checkinCmd := &cobra.Command{
		Use:   "checkin",
		Short: "Score a daily check-in",
		Example: `  moodlens-cli checkin --note "long day" --mood "tired, hopeful"
  moodlens-cli checkin --confidence 8`,
		RunE: func(cmd *cobra.Command, args []string) error {
			note, _ := cmd.Flags().GetString("note")
			concern, _ := cmd.Flags().GetString("concern")
			mood, _ := cmd.Flags().GetString("mood")
			explain, _ := cmd.Flags().GetBool("explain")

			in := checkin.Input{
				UserNote:            note,
				PrimaryConcernToday: concern,
				MoodToday:           checkin.ParseMoodTags(mood),
			}
			if cmd.Flags().Changed("confidence") {
				v, _ := cmd.Flags().GetFloat64("confidence")
				in.ConfidenceToday = &v
			}
			rep, err := c.scorer.Checkin(cmd.Context(), in, explain)
			if err != nil {
				return err
			}
			return c.render.Report(rep)
		},
	}
	checkinCmd.Flags().String("note", "", "Free-text note")
	checkinCmd.Flags().String("concern", "", "Primary concern today")
	checkinCmd.Flags().String("mood", "", "Comma-separated mood tags")
	checkinCmd.Flags().Float64("confidence", 0, "Confidence slider value (1-10)")
	checkinCmd.Flags().Bool("explain", false, "Show per-term contributions")
	rootCmd.AddCommand(checkinCmd)

	// ── Compare ─────────────────────────────────────────────
	rootCmd.AddCommand(&cobra.Command{
		Use:   "compare [text...]",
		Short: "Compare the engine with the VADER baseline",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := c.textArg(args)
			if err != nil {
				return err
			}
			cmp, err := c.scorer.Compare(cmd.Context(), text)
			if err != nil {
				return err
			}
			return c.render.Comparison(cmp)
		},
	})

	// ── Batch ───────────────────────────────────────────────
	rootCmd.AddCommand(&cobra.Command{
		Use:   "batch [file]",
		Short: "Score one text per line from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := c.in
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			texts, err := readLines(r)
			if err != nil {
				return err
			}
			if len(texts) == 0 {
				return core.ErrBatchEmpty
			}
			results, err := c.scorer.Batch(cmd.Context(), texts)
			if err != nil {
				return err
			}
			return c.render.Batch(texts, results)
		},
	})

	// ── Lexicon ─────────────────────────────────────────────
	lexiconCmd := &cobra.Command{
		Use:   "lexicon",
		Short: "Show lexicon size, or dump the built-in lexicon as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dump, _ := cmd.Flags().GetBool("dump"); dump {
				blob, err := lexicon.EncodeYAML(lexicon.Builtin())
				if err != nil {
					return err
				}
				_, err = c.out.Write(blob)
				return err
			}
			stats, err := c.scorer.Lexicon(cmd.Context())
			if err != nil {
				return err
			}
			return c.render.Lexicon(c.lexiconSource(), stats)
		},
	}
	lexiconCmd.Flags().Bool("dump", false, "Print the built-in lexicon as YAML (a starting point for --lexicon)")
	rootCmd.AddCommand(lexiconCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of a check-in record",
		RunE: func(cmd *cobra.Command, args []string) error {
			blob, err := checkin.SchemaJSON()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.out, string(blob))
			return err
		},
	})

	// ── MCP (stdio) ─────────────────────────────────────────
	mcpCmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve moodlens tools over MCP stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			local, ok := c.scorer.(*localScorer)
			if !ok {
				return fmt.Errorf("mcp serves in-process only; drop --server")
			}
			withBaseline, _ := cmd.Flags().GetBool("baseline")
			var baseline *sentiment.Baseline
			if withBaseline {
				baseline = sentiment.NewBaseline()
			}
			return mcpapi.ServeStdio(mcpapi.Config{EnablePrompts: true},
				api.NewMCPBackend(local.adapter, baseline, c.lexiconPath))
		},
	}
	mcpCmd.Flags().Bool("baseline", false, "Enable moodlens_compare (loads VADER)")
	rootCmd.AddCommand(mcpCmd)

	// ── Ping / config (remote) ──────────────────────────────
	rootCmd.AddCommand(&cobra.Command{
		Use:   "ping",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.remoteRequest(cmd.Context(), "GET", "/health", "", false)
		},
	})

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Runtime configuration management (requires --server and admin credentials)",
	}
	configCmd.PersistentFlags().StringVar(&c.adminUser, "user", "", "Admin username (env MOODLENS_ADMIN_USER)")
	configCmd.PersistentFlags().StringVar(&c.adminPass, "password", "", "Admin password (env MOODLENS_ADMIN_PASSWORD)")

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show active server configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.remoteRequest(cmd.Context(), "GET", "/admin/config", "", true)
		},
	})
	configCmd.AddCommand(&cobra.Command{
		Use:   "get [section]",
		Short: "Show one config section (server, engine, checkin, batch, mcp, admin, security)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.configGetSection(cmd.Context(), args[0])
		},
	})
	configCmd.AddCommand(&cobra.Command{
		Use:   "set [key] [value]",
		Short: "Set a runtime config parameter",
		Long: `Set a runtime config parameter. Supported keys:
  security.allowedOrigins      (string)
  security.maxRequestBody      (int64, bytes)
  security.maxTextBytes        (int64, bytes)
  security.rateLimitRequests   (int, per window)`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := configPatch(args[0], args[1])
			if err != nil {
				return err
			}
			return c.remoteRequest(cmd.Context(), "POST", "/admin/config", body, true)
		},
	})
	rootCmd.AddCommand(configCmd)

	return rootCmd
}

// setup resolves the scorer and renderer once flags are parsed.
func (c *cli) setup() error {
	if c.serverURL == "" {
		c.serverURL = os.Getenv("MOODLENS_URL")
	}
	if c.adminUser == "" {
		c.adminUser = os.Getenv("MOODLENS_ADMIN_USER")
	}
	if c.adminPass == "" {
		c.adminPass = os.Getenv("MOODLENS_ADMIN_PASSWORD")
	}

	color := false
	if f, ok := c.out.(*os.File); ok {
		color = colorEnabled(f, c.noColor)
	}
	c.render = &renderer{out: c.out, json: c.asJSON, styles: newStyles(color)}

	if c.serverURL != "" {
		c.scorer = newRemoteScorer(c.serverURL, c.httpClient)
		return nil
	}
	local, err := newLocalScorer(c.lexiconPath)
	if err != nil {
		return fmt.Errorf("failed to load lexicon: %w", err)
	}
	c.scorer = local
	return nil
}

func (c *cli) analyze(ctx context.Context, text string, explain bool) error {
	rep, err := c.scorer.Analyze(ctx, text, explain)
	if err != nil {
		return err
	}
	return c.render.Report(rep)
}

// textArg joins args, or reads stdin when there are none.
func (c *cli) textArg(args []string) (string, error) {
	if len(args) > 0 && !(len(args) == 1 && args[0] == "-") {
		return strings.Join(args, " "), nil
	}
	blob, err := io.ReadAll(c.in)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(blob)), nil
}

func (c *cli) lexiconSource() string {
	switch {
	case c.serverURL != "":
		return c.serverURL
	case c.lexiconPath != "":
		return c.lexiconPath
	default:
		return "builtin"
	}
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), int(core.MaxTextBytes())+1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

// ── Remote helpers ──────────────────────────────────────────

func (c *cli) remoteRequest(ctx context.Context, method, path, body string, admin bool) error {
	data, err := c.fetch(ctx, method, path, body, admin)
	if err != nil {
		return err
	}
	var pretty map[string]any
	if err := json.Unmarshal(data, &pretty); err == nil {
		out, _ := json.MarshalIndent(pretty, "", "  ")
		fmt.Fprintln(c.out, string(out))
		return nil
	}
	fmt.Fprintln(c.out, string(data))
	return nil
}

func (c *cli) fetch(ctx context.Context, method, path, body string, admin bool) ([]byte, error) {
	if c.serverURL == "" {
		return nil, fmt.Errorf("--server (or MOODLENS_URL) is required for %s", path)
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.serverURL, "/")+path, strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if admin && c.adminUser != "" {
		req.SetBasicAuth(c.adminUser, c.adminPass)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connection failed: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		fmt.Fprintf(os.Stderr, "Error %d: %s\n", resp.StatusCode, strings.TrimSpace(string(data)))
		return nil, fmt.Errorf("request failed with status %d", resp.StatusCode)
	}
	return data, nil
}

func (c *cli) configGetSection(ctx context.Context, section string) error {
	data, err := c.fetch(ctx, "GET", "/admin/config", "", true)
	if err != nil {
		return err
	}
	var full map[string]any
	if err := json.Unmarshal(data, &full); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}

	val, ok := full[section]
	if !ok {
		valid := make([]string, 0, len(full))
		for k := range full {
			valid = append(valid, k)
		}
		return fmt.Errorf("unknown section %q, valid: %v", section, valid)
	}

	out, _ := json.MarshalIndent(val, "", "  ")
	fmt.Fprintln(c.out, string(out))
	return nil
}

// configPatch builds the JSON patch body; the value type depends on the field.
func configPatch(key, value string) (string, error) {
	parts := strings.SplitN(key, ".", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("key must be section.field (e.g. security.maxTextBytes)")
	}
	section, field := parts[0], parts[1]

	var fieldJSON string
	switch field {
	case "maxRequestBody", "maxTextBytes", "rateLimitRequests":
		if _, err := strconv.ParseInt(value, 10, 64); err != nil {
			return "", fmt.Errorf("numeric field %q requires an integer", key)
		}
		fieldJSON = fmt.Sprintf(`%q:%s`, field, value)
	default:
		fieldJSON = fmt.Sprintf(`%q:%q`, field, value)
	}
	return fmt.Sprintf(`{%q:{%s}}`, section, fieldJSON), nil
}
