// Package filter compiles nested filter mappings into boolean condition trees
// and renders those trees as GORM clause expressions.
package filter

import (
	"fmt"
	"strings"

	"github.com/storefront/backend/internal/domain/shared"
)

// Combinator joins the children of a group node.
type Combinator string

const (
	And Combinator = "AND"
	Or  Combinator = "OR"
)

// Operator is a lookup applied to a field.
type Operator string

const (
	Exact       Operator = "exact"
	IExact      Operator = "iexact"
	Gt          Operator = "gt"
	Gte         Operator = "gte"
	Lt          Operator = "lt"
	Lte         Operator = "lte"
	In          Operator = "in"
	Contains    Operator = "contains"
	IContains   Operator = "icontains"
	StartsWith  Operator = "startswith"
	IStartsWith Operator = "istartswith"
	EndsWith    Operator = "endswith"
	IEndsWith   Operator = "iendswith"
	IsNull      Operator = "isnull"
	Range       Operator = "range"
)

var operators = map[Operator]struct{}{
	Exact: {}, IExact: {}, Gt: {}, Gte: {}, Lt: {}, Lte: {}, In: {},
	Contains: {}, IContains: {}, StartsWith: {}, IStartsWith: {},
	EndsWith: {}, IEndsWith: {}, IsNull: {}, Range: {},
}

// Node is either a leaf comparing Field with Value through Operator, or a
// group combining Children with Combinator.
type Node struct {
	Combinator Combinator
	Children   []*Node

	Field    string
	Operator Operator
	Value    any

	Negated bool
}

// IsLeaf reports whether n compares a single field.
func (n *Node) IsLeaf() bool {
	return n.Combinator == ""
}

// Lookup returns the field with its operator suffix, exact lookups bare.
func (n *Node) Lookup() string {
	if n.Operator == Exact || n.Operator == "" {
		return n.Field
	}
	return n.Field + "__" + string(n.Operator)
}

// String renders the tree, e.g. AND(a__gte=1, NOT(b=2)).
func (n *Node) String() string {
	var s string
	if n.IsLeaf() {
		if ref, ok := n.Value.(shared.Reference); ok {
			s = fmt.Sprintf("%s=F(%s)", n.Lookup(), ref.Field)
		} else {
			s = fmt.Sprintf("%s=%v", n.Lookup(), n.Value)
		}
	} else {
		parts := make([]string, len(n.Children))
		for i, child := range n.Children {
			parts[i] = child.String()
		}
		s = string(n.Combinator) + "(" + strings.Join(parts, ", ") + ")"
	}
	if n.Negated {
		return "NOT(" + s + ")"
	}
	return s
}
