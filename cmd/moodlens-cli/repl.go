package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/denizumutdereli/moodlens/pkg/checkin"
)

const replHelp = `
moodlens interactive shell. Type any text to score it.

  Scoring:
    <text>                            Classify a line of text
    \explain                          Toggle per-term breakdown
    \compare <text>                   Compare with the VADER baseline
    \checkin <note> [mood=a,b] [confidence=N]
                                      Score a check-in record
    \lexicon                          Show lexicon size

  Shell:
    \help                             Show this help
    \status                           Show scoring mode
    \quit  (or exit, quit, Ctrl-D)    Exit
`

// replState is the mutable shell state across lines.
type replState struct {
	explain bool
}

// runREPL starts the interactive shell. The scorer and renderer are already
// initialised by the cobra PersistentPreRunE.
func runREPL(ctx context.Context, c *cli) error {
	mode := "in-process"
	if c.serverURL != "" {
		mode = c.serverURL
	}
	fmt.Fprintf(c.out, "moodlens shell (%s)\nType \\help for commands, \\quit to exit.\n\n", mode)

	state := &replState{}
	scanner := bufio.NewScanner(c.in)
	for {
		prompt := "moodlens"
		if state.explain {
			prompt += "[explain]"
		}
		fmt.Fprintf(c.out, "%s> ", prompt)

		if !scanner.Scan() {
			fmt.Fprintln(c.out)
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if done := dispatchREPL(ctx, c, state, line); done {
			fmt.Fprintln(c.out, "Bye.")
			break
		}
	}
	return scanner.Err()
}

// dispatchREPL executes one REPL line. Returns true when the user wants to quit.
func dispatchREPL(ctx context.Context, c *cli, state *replState, line string) bool {
	if !strings.HasPrefix(line, `\`) {
		switch strings.ToLower(line) {
		case "exit", "quit":
			return true
		case "help":
			fmt.Fprint(c.out, replHelp)
			return false
		}
		replPrintErr(c.analyze(ctx, line, state.explain))
		return false
	}

	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(cmd) {
	case `\quit`, `\q`:
		return true

	case `\help`, `\h`:
		fmt.Fprint(c.out, replHelp)

	case `\status`:
		mode := "in-process (" + c.lexiconSource() + ")"
		if c.serverURL != "" {
			mode = "remote " + c.serverURL
		}
		fmt.Fprintf(c.out, "mode:     %s\nexplain:  %v\n", mode, state.explain)

	case `\explain`:
		state.explain = !state.explain
		fmt.Fprintf(c.out, "explain %s\n", onOff(state.explain))

	case `\compare`:
		if rest == "" {
			fmt.Fprintln(os.Stderr, `usage: \compare <text>`)
			return false
		}
		cmp, err := c.scorer.Compare(ctx, rest)
		if err == nil {
			err = c.render.Comparison(cmp)
		}
		replPrintErr(err)

	case `\checkin`:
		in := parseCheckinArgs(tokenize(rest))
		rep, err := c.scorer.Checkin(ctx, in, state.explain)
		if err == nil {
			err = c.render.Report(rep)
		}
		replPrintErr(err)

	case `\lexicon`:
		stats, err := c.scorer.Lexicon(ctx)
		if err == nil {
			err = c.render.Lexicon(c.lexiconSource(), stats)
		}
		replPrintErr(err)

	default:
		fmt.Fprintf(os.Stderr, "unknown command %q (\\help for help)\n", cmd)
	}
	return false
}

// parseCheckinArgs turns `note words mood=a,b confidence=7` into an Input.
// Unrecognised key=value tokens are kept as note text.
func parseCheckinArgs(tokens []string) checkin.Input {
	var in checkin.Input
	var note []string
	for _, tok := range tokens {
		key, val, ok := strings.Cut(tok, "=")
		switch {
		case ok && key == "mood":
			in.MoodToday = append(in.MoodToday, checkin.ParseMoodTags(val)...)
		case ok && key == "concern":
			in.PrimaryConcernToday = val
		case ok && key == "confidence":
			var v float64
			if _, err := fmt.Sscanf(val, "%g", &v); err == nil {
				in.ConfidenceToday = &v
			}
		default:
			note = append(note, tok)
		}
	}
	in.UserNote = strings.Join(note, " ")
	return in
}

func replPrintErr(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// tokenize splits a line into tokens respecting double-quoted strings.
// Apostrophes are ordinary characters so contractions survive.
func tokenize(line string) []string {
	var tokens []string
	var cur strings.Builder
	inQuote := false

	for _, ch := range line {
		switch {
		case inQuote:
			if ch == '"' {
				inQuote = false
			} else {
				cur.WriteRune(ch)
			}
		case ch == '"':
			inQuote = true
		case ch == ' ' || ch == '\t':
			if cur.Len() > 0 {
				tokens = append(tokens, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(ch)
		}
	}
	if cur.Len() > 0 {
		tokens = append(tokens, cur.String())
	}
	return tokens
}
