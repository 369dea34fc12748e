package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/lemonberrylabs/kitty/pkg/analysis"
	"github.com/lemonberrylabs/kitty/pkg/printer"
)

var (
	colorLiteral = lipgloss.Color("#06B6D4") // Cyan
	colorKeyword = lipgloss.Color("#8B5CF6") // Violet
	colorIdent   = lipgloss.Color("#F59E0B") // Amber
	colorError   = lipgloss.Color("#EF4444") // Red
	colorMuted   = lipgloss.Color("#6B7280") // Gray
	colorSuccess = lipgloss.Color("#10B981") // Emerald
)

// palette colors CLI output. The zero palette prints plain text.
type palette struct {
	color bool

	literal lipgloss.Style
	keyword lipgloss.Style
	ident   lipgloss.Style
	errText lipgloss.Style
	muted   lipgloss.Style
	ok      lipgloss.Style
	bold    lipgloss.Style
}

func newPalette(color bool) palette {
	return palette{
		color:   color,
		literal: lipgloss.NewStyle().Foreground(colorLiteral),
		keyword: lipgloss.NewStyle().Foreground(colorKeyword).Bold(true),
		ident:   lipgloss.NewStyle().Foreground(colorIdent),
		errText: lipgloss.NewStyle().Foreground(colorError).Bold(true),
		muted:   lipgloss.NewStyle().Foreground(colorMuted),
		ok:      lipgloss.NewStyle().Foreground(colorSuccess),
		bold:    lipgloss.NewStyle().Bold(true),
	}
}

func (p palette) paint(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

func (p palette) kindStyle(l analysis.Lexeme) lipgloss.Style {
	switch {
	case l.Invalid():
		return p.errText
	case l.Kind == "COMMENT":
		return p.muted
	case l.Kind == "INT" || l.Kind == "FLOAT" || l.Kind == "STRING":
		return p.literal
	case l.Kind == "IDENT":
		return p.ident
	case strings.ToLower(l.Kind) == l.Text:
		return p.keyword
	default:
		return p.bold
	}
}

// writeLexemes prints one lexeme per line: position, kind, text and, for
// invalid lexemes, the reason.
func writeLexemes(w io.Writer, lexemes []analysis.Lexeme, p palette) {
	width := 0
	for _, l := range lexemes {
		width = max(width, len(l.Kind))
	}
	for _, l := range lexemes {
		pos := fmt.Sprintf("%d:%d", l.Line, l.Column)
		kind := fmt.Sprintf("%-*s", width, l.Kind)
		line := fmt.Sprintf("%-8s %s  %s", pos, p.paint(p.kindStyle(l), kind), l.Text)
		if l.Invalid() {
			line += "  " + p.paint(p.errText, "("+l.Reason+")")
		}
		fmt.Fprintln(w, line)
	}
}

// writeTree prints the tree with one node per line, indented by depth.
func writeTree(w io.Writer, n *printer.TreeNode, p palette) {
	writeTreeNode(w, n, "", p)
}

func writeTreeNode(w io.Writer, n *printer.TreeNode, indent string, p palette) {
	var label string
	switch n.Type {
	case "literal":
		label = p.paint(p.literal, n.Text) + " " + p.paint(p.muted, n.Kind)
	case "grouping":
		label = p.paint(p.muted, "group")
	default:
		label = p.paint(p.keyword, n.Op) + " " + p.paint(p.muted, n.Type)
	}
	fmt.Fprintln(w, indent+label)
	for _, c := range n.Children {
		writeTreeNode(w, c, indent+"  ", p)
	}
}

// writeDiagnostic prints a parse error with the offending source line and a
// caret under the error position.
func writeDiagnostic(w io.Writer, name, source string, d *analysis.Diagnostic, p palette) {
	fmt.Fprintf(w, "%s:%d:%d: %s %s\n", name, d.Line, d.Column, p.paint(p.errText, "error:"), d.Message)
	line, caret := d.Excerpt(source)
	fmt.Fprintf(w, "  %s\n  %s\n", line, p.paint(p.errText, caret))
}

// encode writes v as JSON or YAML.
func encode(w io.Writer, format string, v interface{}) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}
