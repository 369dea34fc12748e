package ast

// ExprVisitor maps each expression variant to a result of type T. Visitors
// receive copies of the immediate node only; to descend they call VisitExpr
// on the child keys themselves.
type ExprVisitor[T any] interface {
	VisitLiteral(n LiteralExpr) T
	VisitUnary(n UnaryExpr) T
	VisitBinary(n BinaryExpr) T
	VisitGrouping(n GroupingExpr) T
}

// MutableExprVisitor is like ExprVisitor but receives the stored node and
// may change its fields in place. The node's key never changes.
type MutableExprVisitor[T any] interface {
	VisitLiteral(n *LiteralExpr) T
	VisitUnary(n *UnaryExpr) T
	VisitBinary(n *BinaryExpr) T
	VisitGrouping(n *GroupingExpr) T
}

// VisitExpr dispatches the node behind k to the matching method of v. It
// panics with an *InvariantError if k does not belong to arena.
func VisitExpr[T any](v ExprVisitor[T], arena *Arena, k ExprKey) T {
	switch n := arena.expr(k).(type) {
	case *LiteralExpr:
		return v.VisitLiteral(*n)
	case *UnaryExpr:
		return v.VisitUnary(*n)
	case *BinaryExpr:
		return v.VisitBinary(*n)
	case *GroupingExpr:
		return v.VisitGrouping(*n)
	default:
		invariant(k.key, "unsupported expression node %T", n)
		panic("unreachable")
	}
}

// VisitExprMut dispatches the stored node behind k to the matching method
// of v, allowing in-place modification. It panics with an *InvariantError
// if k does not belong to arena.
func VisitExprMut[T any](v MutableExprVisitor[T], arena *Arena, k ExprKey) T {
	switch n := arena.expr(k).(type) {
	case *LiteralExpr:
		return v.VisitLiteral(n)
	case *UnaryExpr:
		return v.VisitUnary(n)
	case *BinaryExpr:
		return v.VisitBinary(n)
	case *GroupingExpr:
		return v.VisitGrouping(n)
	default:
		invariant(k.key, "unsupported expression node %T", n)
		panic("unreachable")
	}
}
