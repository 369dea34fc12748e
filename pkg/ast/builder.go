package ast

// Builder composes expression trees into an arena. Each helper builds its
// operands first, then the node that references them.
type Builder struct {
	arena *Arena
}

// BuildFunc builds a sub-expression and returns its key.
type BuildFunc func(b *Builder) ExprKey

// NewBuilder creates a builder that inserts into arena.
func NewBuilder(arena *Arena) *Builder {
	return &Builder{arena: arena}
}

// Arena returns the arena the builder inserts into.
func (b *Builder) Arena() *Arena {
	return b.arena
}

// Build runs f and returns the key it produced.
func (b *Builder) Build(f BuildFunc) ExprKey {
	return f(b)
}

// Literal inserts a literal node.
func (b *Builder) Literal(value Literal) ExprKey {
	return b.arena.InsertLiteral(value)
}

// Unary builds the operand, then the unary node.
func (b *Builder) Unary(op UnaryOp, operand BuildFunc) ExprKey {
	return b.arena.InsertUnary(op, operand(b))
}

// Binary builds the left operand, the right operand, then the binary node.
func (b *Builder) Binary(op BinaryOp, left, right BuildFunc) ExprKey {
	l := left(b)
	r := right(b)
	return b.arena.InsertBinary(op, l, r)
}

// Grouping builds the inner expression, then the grouping node.
func (b *Builder) Grouping(inner BuildFunc) ExprKey {
	return b.arena.InsertGrouping(inner(b))
}
