// Package ast declares the parse tree of the expression language.
package ast

import (
	"fmt"
	"strconv"
)

// Node represents a node in the parse tree.
type Node interface {
	String() string
	node()
}

func (*Number) node()      {}
func (*Variable) node()    {}
func (*Negate) node()      {}
func (*Binary) node()      {}
func (*Conditional) node() {}

// Number represents an unsigned integer literal.
type Number struct {
	Value uint64
}

// String returns the string representation of the literal.
func (n *Number) String() string {
	return strconv.FormatUint(n.Value, 10)
}

// Variable represents a reference to a named variable.
type Variable struct {
	Name string
}

// String returns the name of the variable.
func (n *Variable) String() string {
	return n.Name
}

// Negate represents unary arithmetic negation.
type Negate struct {
	X Node
}

// String returns the string representation of the negation.
func (n *Negate) String() string {
	return fmt.Sprintf("(-%s)", n.X)
}

// Op represents a binary operator.
type Op int

// Binary operators.
const (
	ILLEGAL Op = iota
	ADD
	SUB
	MUL
	DIV
	SHL
	SHR
	POW
)

var ops = [...]string{
	ADD: "+",
	SUB: "-",
	MUL: "*",
	DIV: "/",
	SHL: "<<",
	SHR: ">>",
	POW: "^",
}

// String returns the source form of the operator.
func (op Op) String() string {
	if op > ILLEGAL && op < Op(len(ops)) {
		return ops[op]
	}
	return fmt.Sprintf("Op<%d>", op)
}

// Binary represents an operation on two operands.
type Binary struct {
	Op Op
	X  Node
	Y  Node
}

// String returns the fully parenthesized form of the operation.
func (n *Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", n.X, n.Op, n.Y)
}

// Conditional represents "cond ? then : else".
type Conditional struct {
	Cond Node
	Then Node
	Else Node
}

// String returns the fully parenthesized form of the conditional.
func (n *Conditional) String() string {
	return fmt.Sprintf("(%s ? %s : %s)", n.Cond, n.Then, n.Else)
}

// Visitor is called for each node visited by Walk.
// If Visit returns false then the children of the node are skipped.
type Visitor func(n Node) bool

// Walk traverses the tree depth-first in source order.
func Walk(v Visitor, n Node) {
	if n == nil || !v(n) {
		return
	}

	switch n := n.(type) {
	case *Number, *Variable:
		// nop
	case *Negate:
		Walk(v, n.X)
	case *Binary:
		Walk(v, n.X)
		Walk(v, n.Y)
	case *Conditional:
		Walk(v, n.Cond)
		Walk(v, n.Then)
		Walk(v, n.Else)
	default:
		panic(fmt.Sprintf("ast.Walk: unexpected node type: %T", n))
	}
}

// Variables returns the variable names referenced by n in order of first occurrence.
func Variables(n Node) []string {
	var names []string
	seen := make(map[string]struct{})
	Walk(func(n Node) bool {
		if n, ok := n.(*Variable); ok {
			if _, ok := seen[n.Name]; !ok {
				seen[n.Name] = struct{}{}
				names = append(names, n.Name)
			}
		}
		return true
	}, n)
	return names
}
