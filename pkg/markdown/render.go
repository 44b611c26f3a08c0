// Package markdown renders model output for the terminal.
//
// Only the subset the summaries use is styled: headings, emphasis, lists,
// code, quotes and rules. Anything else degrades to its plain text.
package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

type Styles struct {
	Heading1 lipgloss.Style
	Heading  lipgloss.Style
	Strong   lipgloss.Style
	Emphasis lipgloss.Style
	Code     lipgloss.Style
	Quote    lipgloss.Style
	Rule     lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Heading1: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8ee6ff")),
		Heading:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff9f")),
		Strong:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#97ce4c")),
		Emphasis: lipgloss.NewStyle().Italic(true),
		Code:     lipgloss.NewStyle().Foreground(lipgloss.Color("#e5c07b")),
		Quote:    lipgloss.NewStyle().Foreground(lipgloss.Color("#9ca3af")),
		Rule:     lipgloss.NewStyle().Foreground(lipgloss.Color("#374151")),
	}
}

var parser = goldmark.New()

// Render converts Markdown to styled text wrapped at width columns.
// A width of zero or less disables wrapping.
func Render(src string, width int) string {
	return RenderWithStyles(src, width, DefaultStyles())
}

func RenderWithStyles(src string, width int, styles Styles) string {
	source := []byte(src)
	doc := parser.Parser().Parse(text.NewReader(source))

	r := &renderer{source: source, width: width, styles: styles}
	blocks := r.blocks(doc)

	return strings.Join(blocks, "\n\n")
}

type renderer struct {
	source []byte
	width  int
	styles Styles
}

// blocks renders every block child of n.
func (r *renderer) blocks(n ast.Node) []string {
	var out []string
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if s := r.block(c, r.width); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (r *renderer) block(n ast.Node, width int) string {
	switch n := n.(type) {
	case *ast.Heading:
		style := r.styles.Heading
		if n.Level == 1 {
			style = r.styles.Heading1
		}
		return style.Render(r.wrap(r.inline(n), width))
	case *ast.Paragraph, *ast.TextBlock:
		return r.wrap(r.inline(n), width)
	case *ast.List:
		return r.list(n, width)
	case *ast.Blockquote:
		inner := r.childBlocks(n, width-2)
		return prefixLines(r.styles.Quote.Render(inner), "│ ", "│ ")
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		return r.styles.Code.Render(strings.TrimRight(r.lines(n), "\n"))
	case *ast.ThematicBreak:
		w := width
		if w <= 0 || w > 40 {
			w = 40
		}
		return r.styles.Rule.Render(strings.Repeat("─", w))
	case *ast.HTMLBlock:
		return strings.TrimRight(r.lines(n), "\n")
	default:
		if n.HasChildren() {
			return r.childBlocks(n, width)
		}
		return ""
	}
}

func (r *renderer) childBlocks(n ast.Node, width int) string {
	var out []string
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if s := r.block(c, width); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, "\n")
}

func (r *renderer) list(n *ast.List, width int) string {
	var items []string
	index := n.Start
	if index == 0 {
		index = 1
	}

	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		bullet := "• "
		if n.IsOrdered() {
			bullet = fmt.Sprintf("%d. ", index)
			index++
		}
		indent := strings.Repeat(" ", len([]rune(bullet)))
		body := r.childBlocks(c, width-len(indent))
		items = append(items, prefixLines(body, bullet, indent))
	}

	return strings.Join(items, "\n")
}

func (r *renderer) inline(n ast.Node) string {
	var buf strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		r.writeInline(&buf, c)
	}
	return buf.String()
}

func (r *renderer) writeInline(buf *strings.Builder, n ast.Node) {
	switch n := n.(type) {
	case *ast.Text:
		buf.Write(n.Segment.Value(r.source))
		if n.HardLineBreak() {
			buf.WriteString("\n")
		} else if n.SoftLineBreak() {
			buf.WriteString(" ")
		}
	case *ast.String:
		buf.Write(n.Value)
	case *ast.Emphasis:
		style := r.styles.Emphasis
		if n.Level >= 2 {
			style = r.styles.Strong
		}
		buf.WriteString(style.Render(r.inline(n)))
	case *ast.CodeSpan:
		buf.WriteString(r.styles.Code.Render(r.inline(n)))
	case *ast.AutoLink:
		buf.Write(n.URL(r.source))
	case *ast.RawHTML:
		segs := n.Segments
		for i := 0; i < segs.Len(); i++ {
			seg := segs.At(i)
			buf.Write(seg.Value(r.source))
		}
	default:
		// Links, images and unknown inlines keep their text.
		buf.WriteString(r.inline(n))
	}
}

func (r *renderer) lines(n ast.Node) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(r.source))
	}
	return buf.String()
}

func (r *renderer) wrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	return ansi.Wordwrap(s, width, "")
}

func prefixLines(s, first, rest string) string {
	lines := strings.Split(s, "\n")
	for i := range lines {
		if i == 0 {
			lines[i] = first + lines[i]
		} else {
			lines[i] = rest + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}
