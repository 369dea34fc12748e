package parser

import (
	"errors"
	"fmt"

	"github.com/lemonberrylabs/kitty/pkg/token"
)

// ErrNilArena is returned by ParseExpr when it is given no arena.
var ErrNilArena = errors.New("parser: nil arena")

// ErrorCode classifies a syntax error.
type ErrorCode int

const (
	UnexpectedToken ErrorCode = iota
	UnexpectedEnd
	UnclosedGroup
	InvalidToken
	TrailingInput
	LiteralOutOfRange
	SourceTooLarge
)

func (c ErrorCode) String() string {
	switch c {
	case UnexpectedToken:
		return "unexpected token"
	case UnexpectedEnd:
		return "unexpected end of input"
	case UnclosedGroup:
		return "unclosed group"
	case InvalidToken:
		return "invalid token"
	case TrailingInput:
		return "trailing input"
	case LiteralOutOfRange:
		return "literal out of range"
	case SourceTooLarge:
		return "source too large"
	default:
		return "syntax error"
	}
}

// ParseError represents a syntax error. Offset and Length locate the
// offending lexeme; at end of input Offset is len(source) and Length is 0.
type ParseError struct {
	Code     ErrorCode
	Offset   int
	Length   int
	Kind     token.Kind // kind of the offending lexeme, if any
	Found    string     // source text of the offending lexeme
	Expected string     // what the parser wanted instead
	Reason   token.InvalidReason
	Detail   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at offset %d: %s", e.Offset, e.Message())
}

// Message describes the error without the position prefix.
func (e *ParseError) Message() string {
	switch e.Code {
	case UnexpectedToken:
		return fmt.Sprintf("unexpected %s %q, expected %s", e.Kind, e.Found, e.Expected)
	case UnexpectedEnd:
		return fmt.Sprintf("unexpected end of input, expected %s", e.Expected)
	case UnclosedGroup:
		if e.Found == "" {
			return fmt.Sprintf("unexpected end of input, expected %s", e.Expected)
		}
		return fmt.Sprintf("unexpected %s %q, expected %s", e.Kind, e.Found, e.Expected)
	case InvalidToken:
		return fmt.Sprintf("invalid token %q: %s", e.Found, e.Detail)
	case TrailingInput:
		return fmt.Sprintf("unexpected %s %q after expression", e.Kind, e.Found)
	case LiteralOutOfRange:
		return fmt.Sprintf("literal %s out of range", e.Found)
	default:
		return e.Detail
	}
}

// IsIncomplete reports whether err only says the input stopped too early,
// so appending more source could make it parse.
func IsIncomplete(err error) bool {
	var perr *ParseError
	if !errors.As(err, &perr) {
		return false
	}
	switch perr.Code {
	case UnexpectedEnd:
		return true
	case UnclosedGroup:
		return perr.Length == 0
	case InvalidToken:
		return perr.Reason == token.UnterminatedString
	default:
		return false
	}
}
