package metrics

import (
	"slices"

	"github.com/Sumatoshi-tech/codemetrics/pkg/extract"
	"github.com/Sumatoshi-tech/codemetrics/pkg/syntax"
	"github.com/Sumatoshi-tech/codemetrics/pkg/visitor"
)

// WorkingMemoryVisitor estimates how many identifiers a reader holds in
// mind at each statement.
//
// Penalty grows by the names tested in every enclosing if. Assigned names
// join a scope shared by the whole traversal and stay there for the
// statements that follow. A statement costs its own names, plus the scoped
// names it does not mention, plus the penalty. An if costs its test names
// and a for its iterable and target names, each plus the penalty.
// Definitions cost nothing.
type WorkingMemoryVisitor struct {
	Penalty int
	scope   *scopedNames
}

type scopedNames struct {
	names map[string]struct{}
}

// NewWorkingMemoryVisitor returns a visitor with an empty scope.
func NewWorkingMemoryVisitor() WorkingMemoryVisitor {
	return WorkingMemoryVisitor{scope: &scopedNames{names: make(map[string]struct{})}}
}

// Enter implements visitor.Visitor.
func (v WorkingMemoryVisitor) Enter(node *syntax.Node) visitor.Visitor[int] {
	next := v
	if next.scope == nil {
		next.scope = &scopedNames{names: make(map[string]struct{})}
	}

	switch node.Kind {
	case syntax.KindIf:
		next.Penalty += len(nameSet(node.Test()))
	case syntax.KindAssignName:
		next.scope.names[node.Name] = struct{}{}
	default:
	}

	return next
}

// Touch implements visitor.Visitor.
func (v WorkingMemoryVisitor) Touch(node *syntax.Node) int {
	switch node.Kind {
	case syntax.KindIf:
		return len(nameSet(node.Test())) + v.Penalty
	case syntax.KindFor, syntax.KindAsyncFor:
		return len(nameSet(node.Iter())) + len(nameSet(node.Target())) + v.Penalty
	case syntax.KindFunctionDef, syntax.KindAsyncFunctionDef, syntax.KindClassDef:
		return 0
	default:
	}

	if !node.Kind.IsStatement() {
		return 0
	}

	used := nameSet(node)
	unused := 0

	if v.scope != nil {
		for name := range v.scope.names {
			if _, ok := used[name]; !ok {
				unused++
			}
		}
	}

	return len(used) + unused + v.Penalty
}

// PeakWorkingMemory returns the largest working memory over the subtree.
func PeakWorkingMemory(node *syntax.Node) int {
	tree := visitor.Tree[int, int]{Sub: NewWorkingMemoryVisitor(), Collect: visitor.Max[int]}

	return visitor.Visit[int](tree, node)
}

// WorkingMemory returns the peak working memory of a method.
func WorkingMemory(method *syntax.Node) (int, error) {
	if err := checkMethod(method); err != nil {
		return 0, err
	}

	return PeakWorkingMemory(method), nil
}

// Identifiers returns the distinct identifiers referenced in the subtree, sorted:
// loaded names, assigned names and the final component of attribute loads.
func Identifiers(node *syntax.Node) []string {
	set := nameSet(node)

	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

func nameSet(node *syntax.Node) map[string]struct{} {
	set := make(map[string]struct{})
	if node == nil {
		return set
	}

	for name := range extract.Values(node, identifier) {
		set[name] = struct{}{}
	}

	return set
}

func identifier(node *syntax.Node) (string, bool) {
	switch node.Kind {
	case syntax.KindName, syntax.KindAssignName, syntax.KindAttribute:
		return node.Name, true
	default:
		return "", false
	}
}
