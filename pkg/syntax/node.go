// Package syntax provides the syntax tree consumed by the metric engine:
// node kinds, the node structure with parent links, traversal helpers,
// node conditions and a JSON/YAML codec.
package syntax

import (
	"iter"
	"strconv"
	"strings"
)

// Child roles. A node's Field names the slot it occupies in its parent.
const (
	FieldBody       = "body"
	FieldTest       = "test"
	FieldOrElse     = "orelse"
	FieldIter       = "iter"
	FieldTarget     = "target"
	FieldHandlers   = "handlers"
	FieldFinalBody  = "finalbody"
	FieldValues     = "values"
	FieldIfs        = "ifs"
	FieldGenerators = "generators"
	FieldElt        = "elt"
	FieldKey        = "key"
	FieldValue      = "value"
	FieldArgs       = "args"
	FieldDefaults   = "defaults"
	FieldAnnotation = "annotation"
	FieldReturns    = "returns"
	FieldDecorators = "decorators"
	FieldBases      = "bases"
	FieldKeywords   = "keywords"
	FieldFunc       = "func"
	FieldLeft       = "left"
	FieldRight      = "right"
	FieldOperand    = "operand"
	FieldOps        = "ops"
	FieldSlice      = "slice"
	FieldType       = "type"
	FieldName       = "name"
	FieldItems      = "items"
	FieldSubject    = "subject"
	FieldCases      = "cases"
	FieldPattern    = "pattern"
	FieldGuard      = "guard"
	FieldElts       = "elts"
	FieldTargets    = "targets"
	FieldExc        = "exc"
	FieldCause      = "cause"
	FieldMsg        = "msg"
	FieldLower      = "lower"
	FieldUpper      = "upper"
	FieldStep       = "step"
	FieldFormat     = "format_spec"
)

// Node is a syntax tree node.
//
// Fields:
//
//	Kind: syntactic category.
//	Field: role of the node in its parent (see the Field* constants).
//	Name: identifier for definitions, names, attributes and keywords.
//	Op: operator for BoolOp, BinOp, UnaryOp, Compare and AugAssign.
//	Value: literal source text for Const.
//	Path: source file path, set on Module only.
//	Line, EndLine: 1-based line span. Column: 0-based start column.
//	Elif: set on an If that was written as an elif clause.
//	Children: ordered child nodes, owned by this node.
//	Parent: back reference, nil for the root.
type Node struct {
	Kind     Kind    `json:"kind"               yaml:"kind"`
	Field    string  `json:"field,omitempty"    yaml:"field,omitempty"`
	Name     string  `json:"name,omitempty"     yaml:"name,omitempty"`
	Op       string  `json:"op,omitempty"       yaml:"op,omitempty"`
	Value    string  `json:"value,omitempty"    yaml:"value,omitempty"`
	Path     string  `json:"path,omitempty"     yaml:"path,omitempty"`
	Line     int     `json:"line,omitempty"     yaml:"line,omitempty"`
	Column   int     `json:"column,omitempty"   yaml:"column,omitempty"`
	EndLine  int     `json:"end_line,omitempty" yaml:"end_line,omitempty"`
	Elif     bool    `json:"elif,omitempty"     yaml:"elif,omitempty"`
	Children []*Node `json:"children,omitempty" yaml:"children,omitempty"`
	Parent   *Node   `json:"-"                  yaml:"-"`
}

// AddChild appends child under the given field and links it back to n.
func (targetNode *Node) AddChild(field string, child *Node) *Node {
	if child == nil {
		return targetNode
	}

	child.Field = field
	child.Parent = targetNode
	targetNode.Children = append(targetNode.Children, child)

	return targetNode
}

// AddChildren appends every child under the same field.
func (targetNode *Node) AddChildren(field string, children ...*Node) *Node {
	for _, child := range children {
		targetNode.AddChild(field, child)
	}

	return targetNode
}

// Fields returns the children occupying the given field, in order.
func (targetNode *Node) Fields(field string) []*Node {
	if targetNode == nil {
		return nil
	}

	var matched []*Node

	for _, child := range targetNode.Children {
		if child.Field == field {
			matched = append(matched, child)
		}
	}

	return matched
}

// First returns the first child in the given field, or nil.
func (targetNode *Node) First(field string) *Node {
	if targetNode == nil {
		return nil
	}

	for _, child := range targetNode.Children {
		if child.Field == field {
			return child
		}
	}

	return nil
}

// Test returns the condition of an If, IfExp or While.
func (targetNode *Node) Test() *Node { return targetNode.First(FieldTest) }

// Iter returns the iterable of a For or Comprehension.
func (targetNode *Node) Iter() *Node { return targetNode.First(FieldIter) }

// Target returns the loop target of a For or Comprehension.
func (targetNode *Node) Target() *Node { return targetNode.First(FieldTarget) }

// Body returns the body statements.
func (targetNode *Node) Body() []*Node { return targetNode.Fields(FieldBody) }

// OrElse returns the else branch statements.
func (targetNode *Node) OrElse() []*Node { return targetNode.Fields(FieldOrElse) }

// Handlers returns the except handlers of a TryExcept.
func (targetNode *Node) Handlers() []*Node { return targetNode.Fields(FieldHandlers) }

// Values returns the operands of a BoolOp.
func (targetNode *Node) Values() []*Node { return targetNode.Fields(FieldValues) }

// Ifs returns the filter conditions of a Comprehension.
func (targetNode *Node) Ifs() []*Node { return targetNode.Fields(FieldIfs) }

// FinalBody returns the finally statements of a TryExcept.
func (targetNode *Node) FinalBody() []*Node { return targetNode.Fields(FieldFinalBody) }

// Generators returns the Comprehension children of a comprehension expression.
func (targetNode *Node) Generators() []*Node { return targetNode.Fields(FieldGenerators) }

// Root returns the topmost ancestor of the node.
func (targetNode *Node) Root() *Node {
	current := targetNode
	for current != nil && current.Parent != nil {
		current = current.Parent
	}

	return current
}

// Module returns the enclosing Module node, or nil for a detached subtree.
func (targetNode *Node) Module() *Node {
	root := targetNode.Root()
	if root == nil || root.Kind != KindModule {
		return nil
	}

	return root
}

// Scopes returns the names of the enclosing function and class definitions,
// outermost first, excluding the node itself.
func (targetNode *Node) Scopes() []string {
	var scopes []string

	for current := targetNode.Parent; current != nil; current = current.Parent {
		if current.Kind.IsDefinition() {
			scopes = append(scopes, current.Name)
		}
	}

	for left, right := 0, len(scopes)-1; left < right; left, right = left+1, right-1 {
		scopes[left], scopes[right] = scopes[right], scopes[left]
	}

	return scopes
}

// Walk yields the node and all its descendants in pre-order.
// Breaking out of the loop stops the traversal.
func Walk(root *Node) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		if root == nil {
			return
		}

		stack := []*Node{root}

		for len(stack) > 0 {
			current := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if !yield(current) {
				return
			}

			for idx := len(current.Children) - 1; idx >= 0; idx-- {
				stack = append(stack, current.Children[idx])
			}
		}
	}
}

// Find returns all nodes in the tree (including root) for which predicate is true.
func (targetNode *Node) Find(predicate Condition) []*Node {
	var found []*Node

	for current := range Walk(targetNode) {
		if predicate(current) {
			found = append(found, current)
		}
	}

	return found
}

// Relink restores Parent pointers below the node. Decoders call it after
// building the tree from a serialized form.
func (targetNode *Node) Relink() {
	for current := range Walk(targetNode) {
		for _, child := range current.Children {
			child.Parent = current
		}
	}
}

// Count returns the number of nodes in the subtree.
func (targetNode *Node) Count() int {
	total := 0

	for range Walk(targetNode) {
		total++
	}

	return total
}

// String renders the node as a single S-expression line.
func (targetNode *Node) String() string {
	var buf strings.Builder

	nodeString(&buf, targetNode)

	return buf.String()
}

func nodeString(buf *strings.Builder, targetNode *Node) {
	if targetNode == nil {
		buf.WriteString("()")

		return
	}

	buf.WriteByte('(')
	buf.WriteString(targetNode.Kind.String())

	for _, token := range []string{targetNode.Name, targetNode.Op, targetNode.Value} {
		if token != "" {
			buf.WriteByte(' ')
			buf.WriteString(strconv.Quote(token))
		}
	}

	for _, child := range targetNode.Children {
		buf.WriteByte(' ')
		nodeString(buf, child)
	}

	buf.WriteByte(')')
}
