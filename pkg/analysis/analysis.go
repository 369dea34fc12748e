// Package analysis runs the scanner and parser on behalf of the service and
// CLI layers and shapes their output for encoding.
package analysis

import (
	"errors"
	"strings"

	"github.com/lemonberrylabs/kitty/pkg/parser"
	"github.com/lemonberrylabs/kitty/pkg/printer"
	"github.com/lemonberrylabs/kitty/pkg/rewrite"
	"github.com/lemonberrylabs/kitty/pkg/scanner"
	"github.com/lemonberrylabs/kitty/pkg/token"
)

// Lexeme is a scanned lexeme with its source text resolved.
type Lexeme struct {
	Kind   string `json:"kind" yaml:"kind"`
	Start  int    `json:"start" yaml:"start"`
	Length int    `json:"length" yaml:"length"`
	Line   int    `json:"line" yaml:"line"`
	Column int    `json:"column" yaml:"column"`
	Text   string `json:"text" yaml:"text"`
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Invalid reports whether the lexeme is a lexical error.
func (l Lexeme) Invalid() bool {
	return l.Kind == token.Invalid.String()
}

// Scan returns every lexeme in source. Comments are dropped unless
// comments is set.
func Scan(source string, comments bool) []Lexeme {
	var src scanner.TokenSource = scanner.New(source)
	if !comments {
		src = scanner.SkipComments(src)
	}

	idx := NewLineIndex(source)
	var out []Lexeme
	for {
		lex, ok := src.Next()
		if !ok {
			break
		}
		line, col := idx.Position(lex.Start)
		l := Lexeme{
			Kind:   lex.Kind.String(),
			Start:  lex.Start,
			Length: lex.Length,
			Line:   line,
			Column: col,
			Text:   scanner.Text(source, lex),
		}
		if lex.Kind == token.Invalid {
			l.Reason = lex.Reason.String()
		}
		out = append(out, l)
	}
	return out
}

// Result is a successfully parsed expression.
type Result struct {
	SExpr     string            `json:"sexpr" yaml:"sexpr"`
	Tree      *printer.TreeNode `json:"tree" yaml:"tree"`
	Nodes     int               `json:"nodes" yaml:"nodes"`
	Unwrapped int               `json:"unwrapped,omitempty" yaml:"unwrapped,omitempty"`
}

// Parse parses source as one expression. With unwrap set, redundant
// groupings are removed before rendering.
func Parse(source string, unwrap bool, opts ...parser.Option) (*Result, error) {
	arena, root, err := parser.Parse(source, opts...)
	if err != nil {
		return nil, err
	}

	res := &Result{Nodes: arena.Len()}
	if unwrap {
		root, res.Unwrapped = rewrite.UnwrapGroupings(arena, root)
	}
	res.SExpr = printer.Print(arena, root)
	res.Tree = printer.Tree(arena, root)
	return res, nil
}

// Diagnostic describes a parse error with a resolved source position.
type Diagnostic struct {
	Code     string `json:"code" yaml:"code"`
	Message  string `json:"message" yaml:"message"`
	Offset   int    `json:"offset" yaml:"offset"`
	Length   int    `json:"length" yaml:"length"`
	Line     int    `json:"line" yaml:"line"`
	Column   int    `json:"column" yaml:"column"`
	Found    string `json:"found,omitempty" yaml:"found,omitempty"`
	Expected string `json:"expected,omitempty" yaml:"expected,omitempty"`
}

// Diagnose converts a *parser.ParseError anywhere in err's chain. It
// returns false for any other error.
func Diagnose(source string, err error) (*Diagnostic, bool) {
	var perr *parser.ParseError
	if !errors.As(err, &perr) {
		return nil, false
	}
	line, col := NewLineIndex(source).Position(perr.Offset)
	return &Diagnostic{
		Code:     strings.ReplaceAll(perr.Code.String(), " ", "_"),
		Message:  perr.Message(),
		Offset:   perr.Offset,
		Length:   perr.Length,
		Line:     line,
		Column:   col,
		Found:    perr.Found,
		Expected: perr.Expected,
	}, true
}

// Excerpt returns the source line holding the diagnostic and a caret line
// underlining it.
func (d *Diagnostic) Excerpt(source string) (string, string) {
	start := strings.LastIndexByte(source[:min(d.Offset, len(source))], '\n') + 1
	end := strings.IndexByte(source[start:], '\n')
	if end < 0 {
		end = len(source)
	} else {
		end += start
	}
	width := max(d.Length, 1)
	if d.Offset+width > end {
		width = max(end-d.Offset, 1)
	}
	return source[start:end], strings.Repeat(" ", d.Offset-start) + strings.Repeat("^", width)
}
