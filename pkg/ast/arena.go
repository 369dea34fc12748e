// Package ast defines the kitty abstract syntax tree.
//
// Nodes live in an append-only Arena and refer to their children by key, so
// the tree is stored flat. Keys are tagged by node category: an ExprKey can
// only be minted by inserting an expression, and only ExprKeys are accepted
// where an expression operand is required.
package ast

import (
	"fmt"
	"sync/atomic"
)

// Category identifies the family a node belongs to.
type Category int

const (
	CategoryExpr Category = iota
)

func (c Category) String() string {
	switch c {
	case CategoryExpr:
		return "expr"
	default:
		return "unknown"
	}
}

// Node is implemented by every node stored in an Arena.
type Node interface {
	Category() Category
}

// NodeKey is an opaque handle to a node. It is only meaningful for the
// arena that minted it. The zero NodeKey refers to nothing.
type NodeKey struct {
	arena uint64
	index uint32
	gen   uint32
}

// IsZero reports whether k is the zero key.
func (k NodeKey) IsZero() bool {
	return k.gen == 0
}

func (k NodeKey) String() string {
	if k.IsZero() {
		return "node(nil)"
	}
	return fmt.Sprintf("node(%dv%d@%d)", k.index, k.gen, k.arena)
}

// ExprKey is a NodeKey known to refer to an expression node.
type ExprKey struct {
	key NodeKey
}

// Node returns the untyped key.
func (k ExprKey) Node() NodeKey {
	return k.key
}

// IsZero reports whether k is the zero key.
func (k ExprKey) IsZero() bool {
	return k.key.IsZero()
}

func (k ExprKey) String() string {
	return k.key.String()
}

// InvariantError is the panic value raised when a key is dereferenced
// against an arena that does not hold it. It signals a bug in the embedding
// code, never bad user input.
type InvariantError struct {
	Key     NodeKey
	Message string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("ast invariant violated for %s: %s", e.Key, e.Message)
}

func invariant(k NodeKey, format string, args ...interface{}) {
	panic(&InvariantError{Key: k, Message: fmt.Sprintf(format, args...)})
}

var arenaIDs atomic.Uint64

// slot holds one node. gen is stamped into every key minted for the slot;
// it only changes if slots are ever reused.
type slot struct {
	gen  uint32
	node Node
}

// Arena is append-only storage for AST nodes. It is not safe for
// concurrent mutation.
type Arena struct {
	id    uint64
	slots []slot
}

// NewArena creates an empty arena with a fresh identity.
func NewArena() *Arena {
	return &Arena{id: arenaIDs.Add(1)}
}

// Len returns the number of nodes in the arena.
func (a *Arena) Len() int {
	return len(a.slots)
}

// Contains reports whether k was minted by this arena.
func (a *Arena) Contains(k NodeKey) bool {
	_, ok := a.lookup(k)
	return ok
}

// Category returns the category of the node behind k.
func (a *Arena) Category(k NodeKey) (Category, bool) {
	n, ok := a.lookup(k)
	if !ok {
		return 0, false
	}
	return n.Category(), true
}

// Get returns a copy of the expression behind k. Mutation goes through
// VisitExprMut so that keys held elsewhere stay valid.
func (a *Arena) Get(k ExprKey) Expr {
	switch n := a.expr(k).(type) {
	case *LiteralExpr:
		return *n
	case *UnaryExpr:
		return *n
	case *BinaryExpr:
		return *n
	case *GroupingExpr:
		return *n
	default:
		invariant(k.key, "unsupported expression node %T", n)
		return nil
	}
}

func (a *Arena) lookup(k NodeKey) (Node, bool) {
	if k.IsZero() || k.arena != a.id || int(k.index) >= len(a.slots) {
		return nil, false
	}
	s := a.slots[k.index]
	if s.gen != k.gen {
		return nil, false
	}
	return s.node, true
}

// expr returns the stored expression pointer for k, panicking with an
// InvariantError when k is foreign or dangling.
func (a *Arena) expr(k ExprKey) Expr {
	n, ok := a.lookup(k.key)
	if !ok {
		invariant(k.key, "expr node key must exist in this arena")
	}
	e, ok := n.(Expr)
	if !ok {
		invariant(k.key, "node is a %s, not an expression", n.Category())
	}
	return e
}

func (a *Arena) insert(n Node) NodeKey {
	a.slots = append(a.slots, slot{gen: 1, node: n})
	return NodeKey{arena: a.id, index: uint32(len(a.slots) - 1), gen: 1}
}

func (a *Arena) insertExpr(e Expr) ExprKey {
	return ExprKey{key: a.insert(e)}
}

// InsertLiteral stores a literal node.
func (a *Arena) InsertLiteral(value Literal) ExprKey {
	return a.insertExpr(&LiteralExpr{Value: value})
}

// InsertUnary stores a unary node. operand must belong to this arena.
func (a *Arena) InsertUnary(op UnaryOp, operand ExprKey) ExprKey {
	a.expr(operand)
	return a.insertExpr(&UnaryExpr{Op: op, Operand: operand})
}

// InsertBinary stores a binary node. Both operands must belong to this arena.
func (a *Arena) InsertBinary(op BinaryOp, left, right ExprKey) ExprKey {
	a.expr(left)
	a.expr(right)
	return a.insertExpr(&BinaryExpr{Op: op, Left: left, Right: right})
}

// InsertGrouping stores a parenthesized expression node.
func (a *Arena) InsertGrouping(inner ExprKey) ExprKey {
	a.expr(inner)
	return a.insertExpr(&GroupingExpr{Inner: inner})
}
