// Package extract pulls nodes or derived values out of a syntax tree.
package extract

import (
	"errors"
	"fmt"
	"iter"

	"github.com/Sumatoshi-tech/codemetrics/pkg/syntax"
	"github.com/Sumatoshi-tech/codemetrics/pkg/visitor"
)

// Selection errors.
var (
	ErrAmbiguousSelector = errors.New("selector sets both condition and function")
	ErrSelectorType      = errors.New("node selection requires a *syntax.Node result type")
)

// Selector chooses what Extract yields. Set at most one of the fields:
// Condition yields matching nodes, Function yields the values it accepts.
// With neither set every node is yielded.
type Selector[T any] struct {
	Condition syntax.Condition
	Function  func(*syntax.Node) (T, bool)
}

// Extract walks root in pre-order and yields what sel selects.
// The sequence is lazy; stopping early stops the walk.
func Extract[T any](root *syntax.Node, sel Selector[T]) (iter.Seq[T], error) {
	if sel.Condition != nil && sel.Function != nil {
		return nil, ErrAmbiguousSelector
	}

	if sel.Function != nil {
		return Values(root, sel.Function), nil
	}

	var zero T
	if _, ok := any(zero).(*syntax.Node); !ok {
		return nil, fmt.Errorf("%w, got %T", ErrSelectorType, zero)
	}

	cond := sel.Condition
	if cond == nil {
		cond = syntax.Always
	}

	return func(yield func(T) bool) {
		for node := range Nodes(root, cond) {
			typed, _ := any(node).(T)
			if !yield(typed) {
				return
			}
		}
	}, nil
}

// Nodes yields every node under root satisfying cond.
func Nodes(root *syntax.Node, cond syntax.Condition) iter.Seq[*syntax.Node] {
	tree := visitor.NewTree[visitor.Option[*syntax.Node]](visitor.Conditional[*syntax.Node]{
		Sub:       visitor.Identity{},
		Condition: cond,
	})

	return visitor.Present(walk(tree, root))
}

// Values yields fn's accepted results for every node under root.
func Values[T any](root *syntax.Node, fn func(*syntax.Node) (T, bool)) iter.Seq[T] {
	tree := visitor.NewTree[visitor.Option[T]](visitor.Func[visitor.Option[T]](func(node *syntax.Node) visitor.Option[T] {
		value, ok := fn(node)

		return visitor.Option[T]{Value: value, OK: ok}
	}))

	return visitor.Present(walk(tree, root))
}

// Methods yields every function definition under root, nested ones included.
func Methods(root *syntax.Node) iter.Seq[*syntax.Node] {
	return Nodes(root, syntax.IsMethod)
}

func walk[T any](tree visitor.Tree[T, []T], root *syntax.Node) iter.Seq[T] {
	return func(yield func(T) bool) {
		if root == nil {
			return
		}

		entered, _ := tree.Enter(root).(visitor.Tree[T, []T])
		for fact := range entered.Walk(root) {
			if !yield(fact) {
				return
			}
		}
	}
}
