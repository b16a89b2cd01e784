package core

import (
	"fmt"

	"github.com/leapstack-labs/leapexpr/pkg/token"
)

// NodeKind distinguishes the shapes of expression nodes.
type NodeKind int

// Node kinds.
const (
	// NodeLiteral is a number, string or boolean constant.
	NodeLiteral NodeKind = iota
	// NodeField is a bracketed column reference: [Total].
	NodeField
	// NodeIdentifier is a bare name: a column or a zero-argument clause.
	NodeIdentifier
	// NodeCall is an operator or function application.
	NodeCall
)

// String returns the name of the node kind.
func (k NodeKind) String() string {
	switch k {
	case NodeLiteral:
		return "literal"
	case NodeField:
		return "field"
	case NodeIdentifier:
		return "identifier"
	case NodeCall:
		return "call"
	default:
		return fmt.Sprintf("NodeKind(%d)", int(k))
	}
}

// Node is one node of a formula expression tree. Trees never share nodes.
type Node struct {
	Kind NodeKind
	// Clause is the canonical clause name of a call ("count-where", "+").
	// It is empty for calls to unknown functions.
	Clause string
	// Name is the identifier or field name, or for calls the name as typed.
	Name string
	// Value is the literal payload: float64, string or bool.
	Value any
	// Type is the literal's own type after parsing and the inferred type of
	// any node after resolution.
	Type     ResultType
	Children []*Node
	// Options is the trailing named-options argument, if any.
	Options *Node
	Range   token.Span
}

// NewLiteral returns a literal node, deriving its type from v.
func NewLiteral(v any, span token.Span) *Node {
	n := &Node{Kind: NodeLiteral, Value: v, Range: span}
	switch v.(type) {
	case float64:
		n.Type = TypeNumber
	case string:
		n.Type = TypeString
	case bool:
		n.Type = TypeBoolean
	}
	return n
}

// NewField returns a bracketed column reference node.
func NewField(name string, span token.Span) *Node {
	return &Node{Kind: NodeField, Name: name, Range: span}
}

// NewIdentifier returns a bare identifier node.
func NewIdentifier(name string, span token.Span) *Node {
	return &Node{Kind: NodeIdentifier, Name: name, Range: span}
}

// NewCall returns a call node for the given clause.
func NewCall(clause, name string, span token.Span, children ...*Node) *Node {
	return &Node{Kind: NodeCall, Clause: clause, Name: name, Range: span, Children: children}
}

// IsLiteral reports whether n is a literal node.
func (n *Node) IsLiteral() bool {
	return n != nil && n.Kind == NodeLiteral
}

// IsCall reports whether n calls the given clause.
func (n *Node) IsCall(clause string) bool {
	return n != nil && n.Kind == NodeCall && n.Clause == clause
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.Clone()
		}
	}
	c.Options = n.Options.Clone()
	return &c
}

// Walk visits n and its descendants depth-first. Returning false from fn
// skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, child := range n.Children {
		child.Walk(fn)
	}
	n.Options.Walk(fn)
}

// Equal reports whether two trees have the same structure: kinds, clauses,
// names and literal values. Source ranges, resolved types and the spelling
// of called names are ignored.
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	if n.Kind != o.Kind || len(n.Children) != len(o.Children) {
		return false
	}
	switch n.Kind {
	case NodeLiteral:
		if n.Value != o.Value {
			return false
		}
	case NodeField, NodeIdentifier:
		if n.Name != o.Name {
			return false
		}
	case NodeCall:
		if n.Clause != o.Clause {
			return false
		}
		if n.Clause == "" && n.Name != o.Name {
			return false
		}
	}
	for i := range n.Children {
		if !n.Children[i].Equal(o.Children[i]) {
			return false
		}
	}
	return n.Options.Equal(o.Options)
}

// String renders the tree as an s-expression, for debugging and tests.
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	switch n.Kind {
	case NodeLiteral:
		if s, ok := n.Value.(string); ok {
			return fmt.Sprintf("%q", s)
		}
		return fmt.Sprint(n.Value)
	case NodeField:
		return "[" + n.Name + "]"
	case NodeIdentifier:
		return n.Name
	}
	name := n.Clause
	if name == "" {
		name = n.Name + "?"
	}
	out := "(" + name
	for _, child := range n.Children {
		out += " " + child.String()
	}
	if n.Options != nil {
		out += " :options " + n.Options.String()
	}
	return out + ")"
}
