package parser

import (
	"github.com/lemonberrylabs/kitty/pkg/ast"
	"github.com/lemonberrylabs/kitty/pkg/token"
)

// Associativity decides how operators of equal precedence group.
type Associativity int

const (
	LeftAssoc Associativity = iota
	RightAssoc
)

// InfixOp describes how a token behaves in infix position.
type InfixOp struct {
	Op         ast.BinaryOp
	Precedence int // left binding power, >= 1
	Assoc      Associativity
}

// rightBindingPower is the minimum binding power used to parse the right
// operand.
func (o InfixOp) rightBindingPower() int {
	if o.Assoc == RightAssoc {
		return o.Precedence
	}
	return o.Precedence + 1
}

// Grammar is the operator table driving the Pratt loop.
type Grammar struct {
	infix  map[token.Kind]InfixOp
	prefix map[token.Kind]ast.UnaryOp
	unary  int
}

// Precedence levels of the default grammar, loosest first.
const (
	PrecOr = iota + 1
	PrecAnd
	PrecEquality
	PrecComparison
	PrecAdditive
	PrecMultiplicative
)

// NewGrammar returns an empty grammar.
func NewGrammar() *Grammar {
	return &Grammar{
		infix:  make(map[token.Kind]InfixOp),
		prefix: make(map[token.Kind]ast.UnaryOp),
		unary:  1,
	}
}

// DefaultGrammar returns the kitty operator table. All binary operators
// are left-associative and every prefix operator binds tighter than any
// infix one.
func DefaultGrammar() *Grammar {
	g := NewGrammar()
	g.Register(token.Or, InfixOp{Op: ast.Or, Precedence: PrecOr})
	g.Register(token.And, InfixOp{Op: ast.And, Precedence: PrecAnd})
	g.Register(token.EqualEqual, InfixOp{Op: ast.Equal, Precedence: PrecEquality})
	g.Register(token.BangEqual, InfixOp{Op: ast.NotEqual, Precedence: PrecEquality})
	g.Register(token.Less, InfixOp{Op: ast.Less, Precedence: PrecComparison})
	g.Register(token.LessEqual, InfixOp{Op: ast.LessEqual, Precedence: PrecComparison})
	g.Register(token.Greater, InfixOp{Op: ast.Greater, Precedence: PrecComparison})
	g.Register(token.GreaterEqual, InfixOp{Op: ast.GreaterEqual, Precedence: PrecComparison})
	g.Register(token.Plus, InfixOp{Op: ast.Add, Precedence: PrecAdditive})
	g.Register(token.Minus, InfixOp{Op: ast.Sub, Precedence: PrecAdditive})
	g.Register(token.Star, InfixOp{Op: ast.Mul, Precedence: PrecMultiplicative})
	g.Register(token.Slash, InfixOp{Op: ast.Div, Precedence: PrecMultiplicative})
	g.RegisterPrefix(token.Minus, ast.Negate)
	g.RegisterPrefix(token.Not, ast.Not)
	return g
}

// Register adds or replaces an infix operator. The prefix binding power is
// raised as needed so prefix operators keep binding tighter.
func (g *Grammar) Register(kind token.Kind, op InfixOp) *Grammar {
	if op.Precedence < 1 {
		op.Precedence = 1
	}
	g.infix[kind] = op
	if op.Precedence >= g.unary {
		g.unary = op.Precedence + 1
	}
	return g
}

// RegisterPrefix adds or replaces a prefix operator.
func (g *Grammar) RegisterPrefix(kind token.Kind, op ast.UnaryOp) *Grammar {
	g.prefix[kind] = op
	return g
}

// Infix returns the infix operator for kind.
func (g *Grammar) Infix(kind token.Kind) (InfixOp, bool) {
	op, ok := g.infix[kind]
	return op, ok
}

// Prefix returns the prefix operator for kind.
func (g *Grammar) Prefix(kind token.Kind) (ast.UnaryOp, bool) {
	op, ok := g.prefix[kind]
	return op, ok
}

// UnaryPrecedence is the binding power used for prefix operands.
func (g *Grammar) UnaryPrecedence() int {
	return g.unary
}
