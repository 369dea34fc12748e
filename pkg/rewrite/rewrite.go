// Package rewrite holds in-place passes over kitty expression trees.
package rewrite

import (
	"github.com/lemonberrylabs/kitty/pkg/ast"
)

// UnwrapGroupings makes every parent point past grouping nodes to the
// expression they wrap. The tree shape already encodes the grouping, so the
// result evaluates the same. Nodes are edited in place; grouping nodes stay
// in the arena but become unreachable. It returns the new root, which
// differs from root only when root itself is a grouping, and the number of
// groupings removed from the tree.
func UnwrapGroupings(arena *ast.Arena, root ast.ExprKey) (ast.ExprKey, int) {
	u := &unwrapper{arena: arena}
	return u.unwrap(root), u.removed
}

type unwrapper struct {
	arena   *ast.Arena
	removed int
}

// unwrap rewrites the subtree at k and returns the key its parent should
// reference.
func (u *unwrapper) unwrap(k ast.ExprKey) ast.ExprKey {
	if r := ast.VisitExprMut[ast.ExprKey](u, u.arena, k); !r.IsZero() {
		return r
	}
	return k
}

func (u *unwrapper) VisitLiteral(n *ast.LiteralExpr) ast.ExprKey {
	return ast.ExprKey{}
}

func (u *unwrapper) VisitUnary(n *ast.UnaryExpr) ast.ExprKey {
	n.Operand = u.unwrap(n.Operand)
	return ast.ExprKey{}
}

func (u *unwrapper) VisitBinary(n *ast.BinaryExpr) ast.ExprKey {
	n.Left = u.unwrap(n.Left)
	n.Right = u.unwrap(n.Right)
	return ast.ExprKey{}
}

func (u *unwrapper) VisitGrouping(n *ast.GroupingExpr) ast.ExprKey {
	u.removed++
	return u.unwrap(n.Inner)
}
