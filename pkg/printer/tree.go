package printer

import (
	"github.com/lemonberrylabs/kitty/pkg/ast"
)

// TreeNode is a self-contained copy of an expression tree, shaped for JSON
// and YAML encoding.
type TreeNode struct {
	Type     string      `json:"type" yaml:"type"`                             // literal, unary, binary, grouping
	Op       string      `json:"op,omitempty" yaml:"op,omitempty"`             // operator symbol
	Kind     string      `json:"kind,omitempty" yaml:"kind,omitempty"`         // literal kind
	Text     string      `json:"text,omitempty" yaml:"text,omitempty"`         // literal as printed
	Children []*TreeNode `json:"children,omitempty" yaml:"children,omitempty"` // operands in source order
}

// Tree copies the tree rooted at k out of the arena.
func Tree(arena *ast.Arena, k ast.ExprKey) *TreeNode {
	return ast.VisitExpr[*TreeNode](&treeBuilder{arena: arena}, arena, k)
}

// Size returns the number of nodes in the tree.
func (n *TreeNode) Size() int {
	if n == nil {
		return 0
	}
	size := 1
	for _, c := range n.Children {
		size += c.Size()
	}
	return size
}

type treeBuilder struct {
	arena *ast.Arena
}

func (b *treeBuilder) visit(k ast.ExprKey) *TreeNode {
	return ast.VisitExpr[*TreeNode](b, b.arena, k)
}

func (b *treeBuilder) VisitLiteral(n ast.LiteralExpr) *TreeNode {
	return &TreeNode{Type: "literal", Kind: n.Value.Kind.String(), Text: n.Value.String()}
}

func (b *treeBuilder) VisitUnary(n ast.UnaryExpr) *TreeNode {
	return &TreeNode{Type: "unary", Op: n.Op.String(), Children: []*TreeNode{b.visit(n.Operand)}}
}

func (b *treeBuilder) VisitBinary(n ast.BinaryExpr) *TreeNode {
	return &TreeNode{Type: "binary", Op: n.Op.String(), Children: []*TreeNode{b.visit(n.Left), b.visit(n.Right)}}
}

func (b *treeBuilder) VisitGrouping(n ast.GroupingExpr) *TreeNode {
	return &TreeNode{Type: "grouping", Children: []*TreeNode{b.visit(n.Inner)}}
}
