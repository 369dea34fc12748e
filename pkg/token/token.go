// Package token defines the lexeme classifications shared by the scanner and
// the parser.
package token

// Kind represents the classification of a lexeme.
type Kind int

const (
	// Single-character punctuation
	LeftParen    Kind = iota // (
	RightParen               // )
	LeftBrace                // {
	RightBrace               // }
	LeftBracket              // [
	RightBracket             // ]
	Comma                    // ,
	Period                   // .
	Minus                    // -
	Plus                     // +
	Semicolon                // ;
	Slash                    // /
	Star                     // *
	Equal                    // =
	Greater                  // >
	Less                     // <

	// Two-character punctuation
	BangEqual    // !=
	EqualEqual   // ==
	GreaterEqual // >=
	LessEqual    // <=

	// Literals
	Identifier
	String
	Float
	Int

	// Keywords
	And
	Or
	Not
	Break
	Continue
	If
	Else
	True
	False
	Null
	Fn
	For
	Var
	Const
	Return
	While

	// Misc
	Comment
	Invalid
)

// InvalidReason explains why a lexeme was classified as Invalid.
type InvalidReason int

const (
	NoReason           InvalidReason = iota // valid lexeme
	UnknownChars                            // run of unrecognized characters
	UnterminatedString                      // input ended before the closing quote
	UnknownNumberChars                      // numeric literal followed by identifier characters
	BangNotSupported                        // '!' not followed by '='
)

// Lexeme is a classified span of the source. It carries no parsed value;
// callers re-slice the source with Start and Length to recover the text.
type Lexeme struct {
	Kind   Kind
	Reason InvalidReason // set only when Kind is Invalid
	Start  int           // byte offset of the first character
	Length int           // number of bytes, always > 0
}

// End returns the offset just past the lexeme.
func (l Lexeme) End() int {
	return l.Start + l.Length
}

// IsInvalid reports whether the lexeme is an Invalid lexeme.
func (l Lexeme) IsInvalid() bool {
	return l.Kind == Invalid
}

// Keywords maps every reserved word to its Kind. Lookups must match the
// whole identifier run.
var Keywords = map[string]Kind{
	"and":      And,
	"or":       Or,
	"not":      Not,
	"break":    Break,
	"continue": Continue,
	"if":       If,
	"else":     Else,
	"true":     True,
	"false":    False,
	"null":     Null,
	"fn":       Fn,
	"for":      For,
	"var":      Var,
	"const":    Const,
	"return":   Return,
	"while":    While,
}

// LookupIdent returns the keyword Kind for word, or Identifier.
func LookupIdent(word string) Kind {
	if k, ok := Keywords[word]; ok {
		return k
	}
	return Identifier
}

// IsKeyword reports whether k is a reserved word.
func (k Kind) IsKeyword() bool {
	return k >= And && k <= While
}

// IsLiteral reports whether k starts a literal primary expression.
func (k Kind) IsLiteral() bool {
	switch k {
	case Int, Float, String, True, False, Null:
		return true
	}
	return false
}

// String returns a debug-friendly representation of the kind.
func (k Kind) String() string {
	switch k {
	case LeftParen:
		return "LPAREN"
	case RightParen:
		return "RPAREN"
	case LeftBrace:
		return "LBRACE"
	case RightBrace:
		return "RBRACE"
	case LeftBracket:
		return "LBRACKET"
	case RightBracket:
		return "RBRACKET"
	case Comma:
		return "COMMA"
	case Period:
		return "PERIOD"
	case Minus:
		return "MINUS"
	case Plus:
		return "PLUS"
	case Semicolon:
		return "SEMICOLON"
	case Slash:
		return "SLASH"
	case Star:
		return "STAR"
	case Equal:
		return "EQUAL"
	case Greater:
		return "GREATER"
	case Less:
		return "LESS"
	case BangEqual:
		return "BANG_EQUAL"
	case EqualEqual:
		return "EQUAL_EQUAL"
	case GreaterEqual:
		return "GREATER_EQUAL"
	case LessEqual:
		return "LESS_EQUAL"
	case Identifier:
		return "IDENT"
	case String:
		return "STRING"
	case Float:
		return "FLOAT"
	case Int:
		return "INT"
	case And:
		return "AND"
	case Or:
		return "OR"
	case Not:
		return "NOT"
	case Break:
		return "BREAK"
	case Continue:
		return "CONTINUE"
	case If:
		return "IF"
	case Else:
		return "ELSE"
	case True:
		return "TRUE"
	case False:
		return "FALSE"
	case Null:
		return "NULL"
	case Fn:
		return "FN"
	case For:
		return "FOR"
	case Var:
		return "VAR"
	case Const:
		return "CONST"
	case Return:
		return "RETURN"
	case While:
		return "WHILE"
	case Comment:
		return "COMMENT"
	case Invalid:
		return "INVALID"
	default:
		return "UNKNOWN"
	}
}

func (r InvalidReason) String() string {
	switch r {
	case NoReason:
		return ""
	case UnknownChars:
		return "unknown characters"
	case UnterminatedString:
		return "unterminated string"
	case UnknownNumberChars:
		return "unknown characters in number"
	case BangNotSupported:
		return "'!' is not supported, use 'not'"
	default:
		return "unknown reason"
	}
}
