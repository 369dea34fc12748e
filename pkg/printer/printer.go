// Package printer renders kitty expression trees. It is a plain consumer of
// the ast visitor protocol.
package printer

import (
	"fmt"

	"github.com/lemonberrylabs/kitty/pkg/ast"
)

// Print renders the tree rooted at k in fully parenthesized prefix form,
// e.g. "(* (- 123) (group 45.67))".
func Print(arena *ast.Arena, k ast.ExprKey) string {
	return ast.VisitExpr[string](&prettyPrinter{arena: arena}, arena, k)
}

type prettyPrinter struct {
	arena *ast.Arena
}

func (p *prettyPrinter) visit(k ast.ExprKey) string {
	return ast.VisitExpr[string](p, p.arena, k)
}

func (p *prettyPrinter) VisitBinary(n ast.BinaryExpr) string {
	return fmt.Sprintf("(%s %s %s)", n.Op, p.visit(n.Left), p.visit(n.Right))
}

func (p *prettyPrinter) VisitGrouping(n ast.GroupingExpr) string {
	return fmt.Sprintf("(group %s)", p.visit(n.Inner))
}

func (p *prettyPrinter) VisitLiteral(n ast.LiteralExpr) string {
	return n.Value.String()
}

func (p *prettyPrinter) VisitUnary(n ast.UnaryExpr) string {
	return fmt.Sprintf("(%s %s)", n.Op, p.visit(n.Operand))
}
