// Package parser builds kitty expression trees with a Pratt
// (precedence-climbing) parser.
package parser

import (
	"fmt"
	"strconv"

	"github.com/lemonberrylabs/kitty/pkg/ast"
	"github.com/lemonberrylabs/kitty/pkg/scanner"
	"github.com/lemonberrylabs/kitty/pkg/token"
)

// MaxSourceSize is the default maximum source size in bytes (128 KB).
const MaxSourceSize = 128 * 1024

// Option configures a Parser.
type Option func(*Parser)

// WithGrammar replaces the default operator table.
func WithGrammar(g *Grammar) Option {
	return func(p *Parser) { p.grammar = g }
}

// WithMaxSourceSize changes the source size limit. n <= 0 disables it.
func WithMaxSourceSize(n int) Option {
	return func(p *Parser) { p.maxSize = n }
}

// Parser parses one source string into an arena.
type Parser struct {
	source  string
	grammar *Grammar
	arena   *ast.Arena
	maxSize int
	toks    *stream
}

// New creates a parser over source with a fresh arena.
func New(source string, opts ...Option) *Parser {
	p := &Parser{
		source:  source,
		grammar: DefaultGrammar(),
		arena:   ast.NewArena(),
		maxSize: MaxSourceSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.toks = newStream(scanner.New(source))
	return p
}

// Parse parses source as a single expression. Any lexeme left after the
// expression is an error.
func Parse(source string, opts ...Option) (*ast.Arena, ast.ExprKey, error) {
	p := New(source, opts...)
	root, err := p.ParseExpression()
	if err != nil {
		return nil, ast.ExprKey{}, err
	}
	if lex, ok := p.toks.peek(); ok {
		if lex.IsInvalid() {
			return nil, ast.ExprKey{}, p.invalidToken(lex)
		}
		return nil, ast.ExprKey{}, p.errorAt(TrailingInput, lex, "")
	}
	return p.arena, root, nil
}

// ParseExpr parses one expression from src, inserting nodes into arena.
// Comments in src are skipped. source must be the text src was scanned
// from. Unlike ParseExpression, no source size limit is applied; callers
// feeding untrusted input should check len(source) themselves.
func ParseExpr(src scanner.TokenSource, source string, arena *ast.Arena, g *Grammar) (ast.ExprKey, error) {
	if arena == nil {
		return ast.ExprKey{}, ErrNilArena
	}
	if g == nil {
		g = DefaultGrammar()
	}
	p := &Parser{
		source:  source,
		grammar: g,
		arena:   arena,
		toks:    newStream(src),
	}
	return p.parseExpression(0)
}

// Arena returns the arena nodes are inserted into.
func (p *Parser) Arena() *ast.Arena {
	return p.arena
}

// ParseExpression parses the next expression and returns its key. Lexemes
// after the expression are left unconsumed.
func (p *Parser) ParseExpression() (ast.ExprKey, error) {
	if p.maxSize > 0 && len(p.source) > p.maxSize {
		return ast.ExprKey{}, &ParseError{
			Code:   SourceTooLarge,
			Detail: fmt.Sprintf("source size %d exceeds maximum %d bytes", len(p.source), p.maxSize),
		}
	}
	return p.parseExpression(0)
}

// parseExpression parses a prefix position, then folds in infix operators
// whose left binding power is at least minBP.
func (p *Parser) parseExpression(minBP int) (ast.ExprKey, error) {
	left, err := p.parsePrefix()
	if err != nil {
		return ast.ExprKey{}, err
	}

	for {
		lex, ok := p.toks.peek()
		if !ok {
			break
		}

		kind := lex.Kind
		signed := p.isSignedNumber(lex)
		if signed {
			// "3-1": the scanner glued '-' to the literal, but a left
			// operand is pending, so it is a subtraction.
			kind = token.Minus
		}

		op, ok := p.grammar.Infix(kind)
		if !ok || op.Precedence < minBP {
			break
		}

		p.toks.next()
		if signed {
			p.toks.push(unsigned(lex))
		}

		right, err := p.parseExpression(op.rightBindingPower())
		if err != nil {
			return ast.ExprKey{}, err
		}
		left = p.arena.InsertBinary(op.Op, left, right)
	}

	return left, nil
}

// parsePrefix consumes one primary or prefix-operator expression.
func (p *Parser) parsePrefix() (ast.ExprKey, error) {
	lex, ok := p.toks.next()
	if !ok {
		return ast.ExprKey{}, p.unexpectedEnd(UnexpectedEnd, "expression")
	}

	switch {
	case lex.IsInvalid():
		return ast.ExprKey{}, p.invalidToken(lex)

	case lex.Kind.IsLiteral():
		if p.isSignedNumber(lex) {
			return p.parseSignedNumber(lex)
		}
		lit, err := p.literal(lex)
		if err != nil {
			return ast.ExprKey{}, err
		}
		return p.arena.InsertLiteral(lit), nil

	case lex.Kind == token.LeftParen:
		return p.parseGrouping(lex)
	}

	if op, ok := p.grammar.Prefix(lex.Kind); ok {
		operand, err := p.parseExpression(p.grammar.UnaryPrecedence())
		if err != nil {
			return ast.ExprKey{}, err
		}
		return p.arena.InsertUnary(op, operand), nil
	}

	return ast.ExprKey{}, p.errorAt(UnexpectedToken, lex, "expression")
}

// parseSignedNumber turns "-2" into Negate(2). The most negative int64 has
// no positive counterpart and is kept as a single literal.
func (p *Parser) parseSignedNumber(lex token.Lexeme) (ast.ExprKey, error) {
	lit, err := p.literal(unsigned(lex))
	if err != nil {
		whole, wholeErr := p.literal(lex)
		if wholeErr != nil {
			return ast.ExprKey{}, err
		}
		return p.arena.InsertLiteral(whole), nil
	}
	operand := p.arena.InsertLiteral(lit)
	return p.arena.InsertUnary(ast.Negate, operand), nil
}

// parseGrouping parses "( expr )" after the opening paren was consumed.
func (p *Parser) parseGrouping(open token.Lexeme) (ast.ExprKey, error) {
	inner, err := p.parseExpression(0)
	if err != nil {
		return ast.ExprKey{}, err
	}

	expected := fmt.Sprintf("')' to close '(' at offset %d", open.Start)
	closing, ok := p.toks.next()
	if !ok {
		return ast.ExprKey{}, p.unexpectedEnd(UnclosedGroup, expected)
	}
	if closing.Kind != token.RightParen {
		if closing.IsInvalid() {
			return ast.ExprKey{}, p.invalidToken(closing)
		}
		return ast.ExprKey{}, p.errorAt(UnclosedGroup, closing, expected)
	}

	return p.arena.InsertGrouping(inner), nil
}

// literal re-parses the source text of a literal lexeme.
func (p *Parser) literal(lex token.Lexeme) (ast.Literal, error) {
	text := scanner.Text(p.source, lex)

	switch lex.Kind {
	case token.Int:
		v, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return ast.Literal{}, p.errorAt(LiteralOutOfRange, lex, "")
		}
		return ast.Int(v), nil
	case token.Float:
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return ast.Literal{}, p.errorAt(LiteralOutOfRange, lex, "")
		}
		return ast.Float(v), nil
	case token.String:
		return ast.String(text[1 : len(text)-1]), nil
	case token.True:
		return ast.Bool(true), nil
	case token.False:
		return ast.Bool(false), nil
	case token.Null:
		return ast.Null(), nil
	default:
		return ast.Literal{}, p.errorAt(UnexpectedToken, lex, "literal")
	}
}

func (p *Parser) isSignedNumber(lex token.Lexeme) bool {
	return (lex.Kind == token.Int || lex.Kind == token.Float) && p.source[lex.Start] == '-'
}

// unsigned strips the leading '-' from a signed number lexeme.
func unsigned(lex token.Lexeme) token.Lexeme {
	return token.Lexeme{Kind: lex.Kind, Start: lex.Start + 1, Length: lex.Length - 1}
}

func (p *Parser) errorAt(code ErrorCode, lex token.Lexeme, expected string) *ParseError {
	return &ParseError{
		Code:     code,
		Offset:   lex.Start,
		Length:   lex.Length,
		Kind:     lex.Kind,
		Found:    scanner.Text(p.source, lex),
		Expected: expected,
	}
}

func (p *Parser) invalidToken(lex token.Lexeme) *ParseError {
	e := p.errorAt(InvalidToken, lex, "")
	e.Reason = lex.Reason
	e.Detail = lex.Reason.String()
	return e
}

func (p *Parser) unexpectedEnd(code ErrorCode, expected string) *ParseError {
	return &ParseError{Code: code, Offset: len(p.source), Expected: expected}
}

// stream feeds the parser comment-free lexemes with one slot of pushback,
// used when a signed number is split into an operator and a literal.
type stream struct {
	src        scanner.TokenSource
	pending    token.Lexeme
	hasPending bool
}

func newStream(src scanner.TokenSource) *stream {
	return &stream{src: scanner.SkipComments(src)}
}

func (s *stream) peek() (token.Lexeme, bool) {
	if s.hasPending {
		return s.pending, true
	}
	return s.src.Peek()
}

func (s *stream) next() (token.Lexeme, bool) {
	if s.hasPending {
		s.hasPending = false
		return s.pending, true
	}
	return s.src.Next()
}

func (s *stream) push(lex token.Lexeme) {
	s.pending = lex
	s.hasPending = true
}
