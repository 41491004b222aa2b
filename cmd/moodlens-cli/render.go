package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/denizumutdereli/moodlens/pkg/lexicon"
	"github.com/denizumutdereli/moodlens/pkg/sentiment"
)

var (
	colorPositive = lipgloss.Color("#66bb6a")
	colorNegative = lipgloss.Color("#ef5350")
	colorNeutral  = lipgloss.Color("#fff59d")
	colorPrimary  = lipgloss.Color("#64b5f6")
	colorMuted    = lipgloss.Color("#888888")
)

// styles holds every style the renderer uses so colour can be switched off
// in one place.
type styles struct {
	positive lipgloss.Style
	negative lipgloss.Style
	neutral  lipgloss.Style
	header   lipgloss.Style
	muted    lipgloss.Style
	label    lipgloss.Style
}

func newStyles(color bool) styles {
	if !color {
		plain := lipgloss.NewStyle()
		return styles{
			positive: plain, negative: plain, neutral: plain,
			header: plain, muted: plain, label: plain.Width(16),
		}
	}
	return styles{
		positive: lipgloss.NewStyle().Foreground(colorPositive).Bold(true),
		negative: lipgloss.NewStyle().Foreground(colorNegative).Bold(true),
		neutral:  lipgloss.NewStyle().Foreground(colorNeutral).Bold(true),
		header:   lipgloss.NewStyle().Foreground(colorPrimary).Bold(true),
		muted:    lipgloss.NewStyle().Foreground(colorMuted),
		label:    lipgloss.NewStyle().Width(16),
	}
}

// colorEnabled reports whether out is a terminal and colour was not disabled.
func colorEnabled(out *os.File, noColor bool) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	fd := out.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// renderer writes reports either as indented JSON or as styled text.
type renderer struct {
	out    io.Writer
	json   bool
	styles styles
}

func (r *renderer) labelStyle(l sentiment.Label) lipgloss.Style {
	switch l {
	case sentiment.LabelPositive:
		return r.styles.positive
	case sentiment.LabelNegative:
		return r.styles.negative
	default:
		return r.styles.neutral
	}
}

func (r *renderer) writeJSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (r *renderer) row(label, value string) {
	fmt.Fprintf(r.out, "%s%s\n", r.styles.label.Render(label), value)
}

func (r *renderer) Report(rep report) error {
	if r.json {
		return r.writeJSON(rep)
	}
	res := rep.Result
	if rep.Text != "" {
		r.row("text", r.styles.muted.Render(rep.Text))
	}
	r.row("sentiment", r.labelStyle(res.Sentiment).Render(string(res.Sentiment)))
	r.row("confidence", fmt.Sprintf("%.3f", res.Confidence))
	r.row("compound", fmt.Sprintf("%.3f", res.Scores.Compound))
	r.row("scores", fmt.Sprintf("pos %.3f  neu %.3f  neg %.3f", res.Scores.Positive, res.Scores.Neutral, res.Scores.Negative))
	r.row("time", r.styles.muted.Render(fmt.Sprintf("%.3fms", res.ProcessingTime)))
	if rep.Breakdown != nil {
		r.Breakdown(*rep.Breakdown)
	}
	return nil
}

func (r *renderer) Breakdown(bd sentiment.Breakdown) {
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, r.styles.header.Render("contributions"))
	if len(bd.Contributions) == 0 {
		fmt.Fprintln(r.out, r.styles.muted.Render("  (no sentiment-bearing terms)"))
		return
	}
	width := 4
	for _, c := range bd.Contributions {
		if n := len(c.Unit); n > width {
			width = n
		}
	}
	for _, c := range bd.Contributions {
		var mods []string
		if c.Intensifier != 0 {
			mods = append(mods, fmt.Sprintf("x%.2f", c.Intensifier))
		}
		if c.Negated {
			mods = append(mods, "negated")
		}
		line := fmt.Sprintf("  %-*s  %-6s  %+6.2f  %+7.3f", width, c.Unit, c.Kind, c.Base, c.Score)
		s := r.styles.positive
		if c.Score < 0 {
			s = r.styles.negative
		}
		fmt.Fprintf(r.out, "%s  %s\n", s.Render(line), r.styles.muted.Render(strings.Join(mods, " ")))
	}
	r.row("sum", fmt.Sprintf("%.3f", bd.Sum))
	r.row("raw compound", fmt.Sprintf("%.3f", bd.RawCompound))
	r.row("punctuation", fmt.Sprintf("%d ! / %d ? (%+.3f)", bd.Exclamations, bd.Questions, bd.PunctuationModifier))
}

func (r *renderer) Comparison(c sentiment.Comparison) error {
	if r.json {
		return r.writeJSON(c)
	}
	r.row("engine", fmt.Sprintf("%s %.3f", r.labelStyle(c.Engine.Sentiment).Render(string(c.Engine.Sentiment)), c.Engine.Scores.Compound))
	r.row("vader", fmt.Sprintf("%s %.3f", r.labelStyle(c.Baseline.Sentiment).Render(string(c.Baseline.Sentiment)), c.Baseline.Compound))
	agree := r.styles.positive.Render("yes")
	if !c.Agree {
		agree = r.styles.negative.Render("no")
	}
	r.row("agree", agree)
	r.row("delta", fmt.Sprintf("%.3f", c.Delta))
	return nil
}

func (r *renderer) Batch(texts []string, results []sentiment.Result) error {
	if r.json {
		return r.writeJSON(results)
	}
	for i, res := range results {
		text := texts[i]
		if len(text) > 60 {
			text = text[:57] + "..."
		}
		label := r.labelStyle(res.Sentiment).Render(fmt.Sprintf("%-8s", res.Sentiment))
		fmt.Fprintf(r.out, "%4d  %s  %+.3f  %s\n", i+1, label, res.Scores.Compound, r.styles.muted.Render(text))
	}
	return nil
}

func (r *renderer) Lexicon(source string, s lexicon.Stats) error {
	if r.json {
		return r.writeJSON(map[string]any{"source": source, "stats": s})
	}
	fmt.Fprintln(r.out, r.styles.header.Render("lexicon "+source))
	r.row("positive", fmt.Sprintf("%d words, %d phrases", s.PositiveWords, s.PositivePhrases))
	r.row("negative", fmt.Sprintf("%d words, %d phrases", s.NegativeWords, s.NegativePhrases))
	r.row("intensifiers", fmt.Sprint(s.Intensifiers))
	r.row("negations", fmt.Sprint(s.Negations))
	return nil
}
