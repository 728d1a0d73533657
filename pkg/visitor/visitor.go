// Package visitor provides composable visitors over syntax trees.
//
// A visitor computes a fact about a single node (Touch) and derives the
// visitor to use for a node's subtree (Enter). Context such as nesting
// depth travels by value through Enter, so a parent visitor is never
// mutated and leaving a subtree needs no cleanup.
package visitor

import (
	"iter"

	"github.com/Sumatoshi-tech/codemetrics/pkg/syntax"
)

// Visitor computes a fact of type T about nodes.
type Visitor[T any] interface {
	// Enter returns the visitor that applies to node and its subtree.
	Enter(node *syntax.Node) Visitor[T]
	// Touch returns the fact about node alone.
	Touch(node *syntax.Node) T
}

// Visit enters node and returns the fact about it.
func Visit[T any](v Visitor[T], node *syntax.Node) T {
	return v.Enter(node).Touch(node)
}

// Identity returns the node itself.
type Identity struct{}

// Enter implements Visitor.
func (Identity) Enter(*syntax.Node) Visitor[*syntax.Node] { return Identity{} }

// Touch implements Visitor.
func (Identity) Touch(node *syntax.Node) *syntax.Node { return node }

// Func adapts a plain function into a stateless Visitor.
type Func[T any] func(*syntax.Node) T

// Enter implements Visitor.
func (fn Func[T]) Enter(*syntax.Node) Visitor[T] { return fn }

// Touch implements Visitor.
func (fn Func[T]) Touch(node *syntax.Node) T { return fn(node) }

// Option is a possibly absent value.
type Option[T any] struct {
	Value T
	OK    bool
}

// Some wraps a present value.
func Some[T any](value T) Option[T] {
	return Option[T]{Value: value, OK: true}
}

// Conditional yields Sub's fact for nodes satisfying Condition and an empty
// Option otherwise. Context follows Sub regardless of the condition.
type Conditional[T any] struct {
	Sub       Visitor[T]
	Condition syntax.Condition
}

// Enter implements Visitor.
func (cond Conditional[T]) Enter(node *syntax.Node) Visitor[Option[T]] {
	return Conditional[T]{Sub: cond.Sub.Enter(node), Condition: cond.condition()}
}

// Touch implements Visitor.
func (cond Conditional[T]) Touch(node *syntax.Node) Option[T] {
	if !cond.condition()(node) {
		return Option[T]{}
	}

	return Some(cond.Sub.Touch(node))
}

func (cond Conditional[T]) condition() syntax.Condition {
	if cond.Condition == nil {
		return syntax.Always
	}

	return cond.Condition
}

// Compound runs several visitors over the same node and combines their facts.
type Compound[T, R any] struct {
	Visitors []Visitor[T]
	Combine  func([]T) R
}

// NewCompound combines visitors into a fixed-order slice of facts.
func NewCompound[T any](visitors ...Visitor[T]) Compound[T, []T] {
	return Compound[T, []T]{Visitors: visitors, Combine: func(facts []T) []T { return facts }}
}

// Enter implements Visitor.
func (comp Compound[T, R]) Enter(node *syntax.Node) Visitor[R] {
	entered := make([]Visitor[T], len(comp.Visitors))
	for idx, sub := range comp.Visitors {
		entered[idx] = sub.Enter(node)
	}

	return Compound[T, R]{Visitors: entered, Combine: comp.Combine}
}

// Touch implements Visitor.
func (comp Compound[T, R]) Touch(node *syntax.Node) R {
	facts := make([]T, len(comp.Visitors))
	for idx, sub := range comp.Visitors {
		facts[idx] = sub.Touch(node)
	}

	return comp.Combine(facts)
}

// Tree applies Sub to a node and every descendant, entering each child
// before touching it, and folds the facts with Collect.
type Tree[T, R any] struct {
	Sub     Visitor[T]
	Collect func(iter.Seq[T]) R
}

// NewTree collects Sub's facts over a subtree into a slice.
func NewTree[T any](sub Visitor[T]) Tree[T, []T] {
	return Tree[T, []T]{Sub: sub, Collect: Collect[T]}
}

// Enter implements Visitor.
func (tree Tree[T, R]) Enter(node *syntax.Node) Visitor[R] {
	return Tree[T, R]{Sub: tree.Sub.Enter(node), Collect: tree.Collect}
}

// Touch implements Visitor.
func (tree Tree[T, R]) Touch(node *syntax.Node) R {
	return tree.Collect(tree.Walk(node))
}

// Walk lazily yields Sub's fact for node, then for each child in order the
// facts of the child's subtree under the visitor entered for that child.
// Stopping the iteration stops the traversal.
func (tree Tree[T, R]) Walk(node *syntax.Node) iter.Seq[T] {
	return func(yield func(T) bool) {
		walk(tree.Sub, node, yield)
	}
}

func walk[T any](sub Visitor[T], node *syntax.Node, yield func(T) bool) bool {
	if !yield(sub.Touch(node)) {
		return false
	}

	for _, child := range node.Children {
		if !walk(sub.Enter(child), child, yield) {
			return false
		}
	}

	return true
}

// Collect gathers every fact into a slice.
func Collect[T any](facts iter.Seq[T]) []T {
	var out []T
	for fact := range facts {
		out = append(out, fact)
	}

	return out
}

// Number constrains facts that Sum and Max can fold.
type Number interface {
	~int | ~int64 | ~float64
}

// Sum adds every fact; zero for an empty walk.
func Sum[T Number](facts iter.Seq[T]) T {
	var total T
	for fact := range facts {
		total += fact
	}

	return total
}

// Max returns the largest fact; zero for an empty walk.
func Max[T Number](facts iter.Seq[T]) T {
	var (
		best  T
		first = true
	)

	for fact := range facts {
		if first || fact > best {
			best = fact
			first = false
		}
	}

	return best
}

// Count returns the number of facts.
func Count[T any](facts iter.Seq[T]) int {
	total := 0
	for range facts {
		total++
	}

	return total
}

// Present keeps only the present values of optional facts.
func Present[T any](facts iter.Seq[Option[T]]) iter.Seq[T] {
	return func(yield func(T) bool) {
		for fact := range facts {
			if fact.OK && !yield(fact.Value) {
				return
			}
		}
	}
}
