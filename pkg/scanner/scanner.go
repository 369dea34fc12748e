// Package scanner turns kitty source text into a stream of lexemes.
//
// The scanner never fails: malformed input is reported as Invalid lexemes
// carrying the offending span, and scanning resumes right after it.
package scanner

import (
	"iter"

	"github.com/lemonberrylabs/kitty/pkg/token"
)

// TokenSource is a peekable, consuming stream of lexemes.
type TokenSource interface {
	// Next consumes and returns the next lexeme. ok is false once the
	// stream is exhausted.
	Next() (lex token.Lexeme, ok bool)
	// Peek returns the next lexeme without consuming it.
	Peek() (lex token.Lexeme, ok bool)
}

// Scanner lazily scans a source string. It is one-shot: once exhausted it
// stays exhausted.
type Scanner struct {
	source  string
	pos     int
	peeked  token.Lexeme
	hasPeek bool
}

// New creates a new scanner for the given source.
func New(source string) *Scanner {
	return &Scanner{source: source}
}

// Source returns the text being scanned.
func (s *Scanner) Source() string {
	return s.source
}

// Next consumes the next lexeme.
func (s *Scanner) Next() (token.Lexeme, bool) {
	if s.hasPeek {
		s.hasPeek = false
		return s.peeked, true
	}
	return s.scan()
}

// Peek returns the next lexeme without consuming it.
func (s *Scanner) Peek() (token.Lexeme, bool) {
	if s.hasPeek {
		return s.peeked, true
	}
	lex, ok := s.scan()
	if !ok {
		return token.Lexeme{}, false
	}
	s.peeked = lex
	s.hasPeek = true
	return lex, true
}

// All returns an iterator over the remaining lexemes. Ranging over it
// consumes the scanner.
func (s *Scanner) All() iter.Seq[token.Lexeme] {
	return func(yield func(token.Lexeme) bool) {
		for {
			lex, ok := s.Next()
			if !ok || !yield(lex) {
				return
			}
		}
	}
}

// Collect scans the whole source and returns every lexeme, comments
// included.
func Collect(source string) []token.Lexeme {
	var lexemes []token.Lexeme
	for lex := range New(source).All() {
		lexemes = append(lexemes, lex)
	}
	return lexemes
}

// Text returns the slice of source covered by lex.
func Text(source string, lex token.Lexeme) string {
	return source[lex.Start:lex.End()]
}

// scan produces the lexeme starting at the current position.
func (s *Scanner) scan() (token.Lexeme, bool) {
	s.skipWhitespace()

	if s.pos >= len(s.source) {
		return token.Lexeme{}, false
	}

	start := s.pos
	ch := s.source[s.pos]

	// Line comments
	if ch == '/' && s.peekByte(1) == '/' {
		return s.readComment(), true
	}

	// String literals
	if ch == '"' {
		return s.readString(), true
	}

	// Number literals, including a '-' glued to the first digit
	if isDigit(ch) || (ch == '-' && isDigit(s.peekByte(1))) {
		return s.readNumber(), true
	}

	// Identifiers and keywords
	if isIdentStart(ch) {
		return s.readIdentifier(), true
	}

	// Two-character operators
	switch ch {
	case '=', '<', '>', '!':
		if s.peekByte(1) == '=' {
			s.pos += 2
			return s.lexeme(twoCharKinds[ch], start), true
		}
		if ch == '!' {
			s.pos++
			return s.invalid(token.BangNotSupported, start), true
		}
	}

	// Single-character operators
	if kind, ok := singleCharKinds[ch]; ok {
		s.pos++
		return s.lexeme(kind, start), true
	}

	for s.pos < len(s.source) && !isWhitespace(s.source[s.pos]) && !startsLexeme(s.source[s.pos]) {
		s.pos++
	}
	return s.invalid(token.UnknownChars, start), true
}

// readComment reads a // comment up to, but not including, the newline.
func (s *Scanner) readComment() token.Lexeme {
	start := s.pos
	for s.pos < len(s.source) && s.source[s.pos] != '\n' {
		s.pos++
	}
	return s.lexeme(token.Comment, start)
}

// readString reads a double-quoted string. Newlines are ordinary content.
func (s *Scanner) readString() token.Lexeme {
	start := s.pos
	s.pos++ // skip opening quote

	for s.pos < len(s.source) {
		if s.source[s.pos] == '"' {
			s.pos++ // skip closing quote
			return s.lexeme(token.String, start)
		}
		s.pos++
	}

	return s.invalid(token.UnterminatedString, start)
}

// readNumber reads an integer or float literal with an optional leading '-'.
func (s *Scanner) readNumber() token.Lexeme {
	start := s.pos
	kind := token.Int

	if s.source[s.pos] == '-' {
		s.pos++
	}
	s.skipDigits()

	// A '.' only continues the number when digits follow it.
	if s.peekByte(0) == '.' && isDigit(s.peekByte(1)) {
		kind = token.Float
		s.pos++
		s.skipDigits()
	}

	if s.pos < len(s.source) && isIdentPart(s.source[s.pos]) {
		for s.pos < len(s.source) && isIdentPart(s.source[s.pos]) {
			s.pos++
		}
		return s.invalid(token.UnknownNumberChars, start)
	}

	return s.lexeme(kind, start)
}

// readIdentifier reads an identifier or keyword.
func (s *Scanner) readIdentifier() token.Lexeme {
	start := s.pos
	for s.pos < len(s.source) && isIdentPart(s.source[s.pos]) {
		s.pos++
	}
	return s.lexeme(token.LookupIdent(s.source[start:s.pos]), start)
}

func (s *Scanner) lexeme(kind token.Kind, start int) token.Lexeme {
	return token.Lexeme{Kind: kind, Start: start, Length: s.pos - start}
}

func (s *Scanner) invalid(reason token.InvalidReason, start int) token.Lexeme {
	return token.Lexeme{Kind: token.Invalid, Reason: reason, Start: start, Length: s.pos - start}
}

func (s *Scanner) peekByte(offset int) byte {
	if s.pos+offset >= len(s.source) {
		return 0
	}
	return s.source[s.pos+offset]
}

func (s *Scanner) skipDigits() {
	for s.pos < len(s.source) && isDigit(s.source[s.pos]) {
		s.pos++
	}
}

func (s *Scanner) skipWhitespace() {
	for s.pos < len(s.source) && isWhitespace(s.source[s.pos]) {
		s.pos++
	}
}

var singleCharKinds = map[byte]token.Kind{
	'(': token.LeftParen,
	')': token.RightParen,
	'{': token.LeftBrace,
	'}': token.RightBrace,
	'[': token.LeftBracket,
	']': token.RightBracket,
	',': token.Comma,
	'.': token.Period,
	'-': token.Minus,
	'+': token.Plus,
	';': token.Semicolon,
	'/': token.Slash,
	'*': token.Star,
	'=': token.Equal,
	'>': token.Greater,
	'<': token.Less,
}

var twoCharKinds = map[byte]token.Kind{
	'=': token.EqualEqual,
	'<': token.LessEqual,
	'>': token.GreaterEqual,
	'!': token.BangEqual,
}

// startsLexeme reports whether ch can begin a valid lexeme. It bounds runs
// of unknown characters.
func startsLexeme(ch byte) bool {
	if _, ok := singleCharKinds[ch]; ok {
		return true
	}
	return ch == '"' || ch == '!' || isIdentStart(ch) || isDigit(ch)
}

// isWhitespace matches ASCII whitespace only; bytes of multi-byte UTF-8
// sequences are never skipped.
func isWhitespace(ch byte) bool {
	switch ch {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
