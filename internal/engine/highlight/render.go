package highlight

import (
	"html"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Renderer turns sentinel-marked text into display output.
type Renderer interface {
	Render(marked string) string
}

// HTMLRenderer escapes the text and then swaps the sentinels for spans, so
// the delimiters themselves are never escaped.
type HTMLRenderer struct {
	GlobalClass    string
	UndefinedClass string
}

func NewHTMLRenderer(globalClass, undefinedClass string) *HTMLRenderer {
	if globalClass == "" {
		globalClass = string(ClassGlobal)
	}
	if undefinedClass == "" {
		undefinedClass = string(ClassUndefined)
	}
	return &HTMLRenderer{GlobalClass: globalClass, UndefinedClass: undefinedClass}
}

func (r *HTMLRenderer) Render(marked string) string {
	escaped := html.EscapeString(marked)
	return strings.NewReplacer(
		openGlobal, `<span class="`+html.EscapeString(r.GlobalClass)+`">`,
		openUndefined, `<span class="`+html.EscapeString(r.UndefinedClass)+`">`,
		closeMark, "</span>",
	).Replace(escaped)
}

// PlainRenderer marks globals as [[name]] and undefined names as {{name}}.
type PlainRenderer struct{}

func (PlainRenderer) Render(marked string) string {
	var b strings.Builder
	b.Grow(len(marked))
	closer := "]]"
	for _, r := range marked {
		switch string(r) {
		case openGlobal:
			b.WriteString("[[")
			closer = "]]"
		case openUndefined:
			b.WriteString("{{")
			closer = "}}"
		case closeMark:
			b.WriteString(closer)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

var (
	GlobalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	UndefinedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true).
			Underline(true)
)

// TerminalRenderer styles marked segments with lipgloss.
type TerminalRenderer struct {
	Global    lipgloss.Style
	Undefined lipgloss.Style
}

func NewTerminalRenderer() *TerminalRenderer {
	return &TerminalRenderer{Global: GlobalStyle, Undefined: UndefinedStyle}
}

func (r *TerminalRenderer) Render(marked string) string {
	var b strings.Builder
	b.Grow(len(marked))
	for len(marked) > 0 {
		open := strings.IndexAny(marked, openGlobal+openUndefined)
		if open < 0 {
			b.WriteString(marked)
			break
		}
		b.WriteString(marked[:open])
		style := r.Undefined
		if strings.HasPrefix(marked[open:], openGlobal) {
			style = r.Global
		}
		rest := marked[open+len(openGlobal):]
		end := strings.Index(rest, closeMark)
		if end < 0 {
			b.WriteString(style.Render(rest))
			break
		}
		b.WriteString(style.Render(rest[:end]))
		marked = rest[end+len(closeMark):]
	}
	return b.String()
}

// NewRenderer picks a renderer by format name: html, terminal or plain.
func NewRenderer(format, globalClass, undefinedClass string) Renderer {
	switch format {
	case "terminal":
		return NewTerminalRenderer()
	case "plain":
		return PlainRenderer{}
	default:
		return NewHTMLRenderer(globalClass, undefinedClass)
	}
}
