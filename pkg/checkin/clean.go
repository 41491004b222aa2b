package checkin

import (
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// markupPolicy removes every tag and the contents of script/style-like
// elements. A space replaces each stripped tag so adjacent blocks don't
// run together.
var markupPolicy = bluemonday.StripTagsPolicy().AddSpaceWhenStrippingTag(true)

// htmlElements are the tag names treated as markup. Anything else in angle
// brackets ("<terrible>", "x<y") is the user's own text.
var htmlElements = map[atom.Atom]struct{}{}

func init() {
	for _, a := range []atom.Atom{
		atom.A, atom.Abbr, atom.Address, atom.Article, atom.Aside, atom.Audio,
		atom.B, atom.Blockquote, atom.Body, atom.Br, atom.Button, atom.Canvas,
		atom.Caption, atom.Center, atom.Cite, atom.Code, atom.Col, atom.Colgroup,
		atom.Dd, atom.Del, atom.Details, atom.Div, atom.Dl, atom.Dt, atom.Em,
		atom.Embed, atom.Fieldset, atom.Figcaption, atom.Figure, atom.Font,
		atom.Footer, atom.Form, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5,
		atom.H6, atom.Head, atom.Header, atom.Hr, atom.Html, atom.I, atom.Iframe,
		atom.Img, atom.Input, atom.Ins, atom.Kbd, atom.Label, atom.Legend,
		atom.Li, atom.Link, atom.Main, atom.Mark, atom.Meta, atom.Nav,
		atom.Noembed, atom.Noframes, atom.Noscript, atom.Object, atom.Ol,
		atom.Option, atom.P, atom.Plaintext, atom.Pre, atom.Q, atom.S,
		atom.Samp, atom.Script, atom.Section, atom.Select, atom.Small,
		atom.Source, atom.Span, atom.Strike, atom.Strong, atom.Style, atom.Sub,
		atom.Summary, atom.Sup, atom.Svg, atom.Table, atom.Tbody, atom.Td,
		atom.Template, atom.Textarea, atom.Tfoot, atom.Th, atom.Thead,
		atom.Title, atom.Tr, atom.U, atom.Ul, atom.Var, atom.Video, atom.Wbr,
		atom.Xmp,
	} {
		htmlElements[a] = struct{}{}
	}
}

// CleanMarkup turns a free-text field that may carry pasted HTML into plain
// text: HTML elements stripped, entities decoded, control characters dropped
// and whitespace collapsed. Angle-bracket text that is not an HTML element
// is kept as written. Sentence punctuation is left alone since the engine
// scores '!' and '?'.
func CleanMarkup(text string) string {
	if strings.ContainsAny(text, "<&") {
		// Sanitize output is HTML-escaped; decode back to plain text.
		text = html.UnescapeString(markupPolicy.Sanitize(escapeNonElements(text)))
	}
	return collapseWhitespace(dropControl(text))
}

// escapeNonElements HTML-escapes every tag-like token whose name is not a
// known element, plus any tag left unterminated at the end of the text, so
// the sanitizer passes them through as text.
func escapeNonElements(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	z := html.NewTokenizer(strings.NewReader(text))
	for {
		switch z.Next() {
		case html.ErrorToken:
			// Raw holds an unterminated tag, if any.
			b.WriteString(html.EscapeString(string(z.Raw())))
			return b.String()
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			raw := string(z.Raw())
			name, _ := z.TagName()
			if _, ok := htmlElements[atom.Lookup(name)]; ok {
				b.WriteString(raw)
			} else {
				b.WriteString(html.EscapeString(raw))
			}
		case html.CommentToken:
			raw := string(z.Raw())
			if strings.HasSuffix(raw, ">") {
				b.WriteString(raw)
			} else {
				b.WriteString(html.EscapeString(raw))
			}
		default:
			b.Write(z.Raw())
		}
	}
}

func dropControl(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			return ' '
		case unicode.Is(unicode.Cc, r):
			return -1
		case r >= 0xFE00 && r <= 0xFE0F: // variation selectors
			return -1
		case r == 0x200B || r == 0x200D || r == 0xFEFF: // zero-width
			return -1
		}
		return r
	}, s)
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
