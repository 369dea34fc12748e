package ast

import (
	"strconv"
)

// Expr is the interface for all expression nodes.
type Expr interface {
	Node
	exprNode()
}

// LiteralExpr represents a literal value (int, float, string, bool, null).
type LiteralExpr struct {
	Value Literal
}

// UnaryExpr represents a prefix operation (e.g., -x, not x).
type UnaryExpr struct {
	Op      UnaryOp
	Operand ExprKey
}

// BinaryExpr represents an infix operation (e.g., a + b, x == y).
type BinaryExpr struct {
	Op    BinaryOp
	Left  ExprKey
	Right ExprKey
}

// GroupingExpr represents a parenthesized expression.
type GroupingExpr struct {
	Inner ExprKey
}

func (LiteralExpr) Category() Category  { return CategoryExpr }
func (UnaryExpr) Category() Category    { return CategoryExpr }
func (BinaryExpr) Category() Category   { return CategoryExpr }
func (GroupingExpr) Category() Category { return CategoryExpr }

func (LiteralExpr) exprNode()  {}
func (UnaryExpr) exprNode()    {}
func (BinaryExpr) exprNode()   {}
func (GroupingExpr) exprNode() {}

// UnaryOp is a prefix operator.
type UnaryOp int

const (
	Negate UnaryOp = iota // -
	Not                   // not
)

func (op UnaryOp) String() string {
	switch op {
	case Negate:
		return "-"
	case Not:
		return "not"
	default:
		return "?"
	}
}

// BinaryOp is an infix operator.
type BinaryOp int

const (
	Add          BinaryOp = iota // +
	Sub                          // -
	Mul                          // *
	Div                          // /
	Equal                        // ==
	NotEqual                     // !=
	Less                         // <
	LessEqual                    // <=
	Greater                      // >
	GreaterEqual                 // >=
	And                          // and
	Or                           // or
)

func (op BinaryOp) String() string {
	switch op {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "*"
	case Div:
		return "/"
	case Equal:
		return "=="
	case NotEqual:
		return "!="
	case Less:
		return "<"
	case LessEqual:
		return "<="
	case Greater:
		return ">"
	case GreaterEqual:
		return ">="
	case And:
		return "and"
	case Or:
		return "or"
	default:
		return "?"
	}
}

// LiteralKind identifies the variant held by a Literal.
type LiteralKind int

const (
	NullLiteral LiteralKind = iota
	BoolLiteral
	IntLiteral
	FloatLiteral
	StringLiteral
)

func (k LiteralKind) String() string {
	switch k {
	case NullLiteral:
		return "null"
	case BoolLiteral:
		return "bool"
	case IntLiteral:
		return "int"
	case FloatLiteral:
		return "float"
	case StringLiteral:
		return "string"
	default:
		return "unknown"
	}
}

// Literal is a value written directly in the source, as opposed to an
// identifier that refers to one. Only the field matching Kind is set.
type Literal struct {
	Kind  LiteralKind
	Bool  bool
	Int   int64
	Float float64
	Str   string
}

// Null returns the null literal.
func Null() Literal { return Literal{Kind: NullLiteral} }

// Bool returns a boolean literal.
func Bool(v bool) Literal { return Literal{Kind: BoolLiteral, Bool: v} }

// Int returns an integer literal.
func Int(v int64) Literal { return Literal{Kind: IntLiteral, Int: v} }

// Float returns a float literal.
func Float(v float64) Literal { return Literal{Kind: FloatLiteral, Float: v} }

// String returns a string literal.
func String(v string) Literal { return Literal{Kind: StringLiteral, Str: v} }

// String renders the literal the way the pretty-printer shows it.
func (l Literal) String() string {
	switch l.Kind {
	case NullLiteral:
		return "<null>"
	case BoolLiteral:
		return strconv.FormatBool(l.Bool)
	case IntLiteral:
		return strconv.FormatInt(l.Int, 10)
	case FloatLiteral:
		return strconv.FormatFloat(l.Float, 'f', -1, 64)
	case StringLiteral:
		return `"` + l.Str + `"`
	default:
		return "<unknown>"
	}
}

// Interface returns the literal as a plain Go value (nil, bool, int64,
// float64 or string), suitable for JSON and YAML encoding.
func (l Literal) Interface() interface{} {
	switch l.Kind {
	case BoolLiteral:
		return l.Bool
	case IntLiteral:
		return l.Int
	case FloatLiteral:
		return l.Float
	case StringLiteral:
		return l.Str
	default:
		return nil
	}
}
