package metrics

import (
	"strings"

	"github.com/Sumatoshi-tech/codemetrics/pkg/syntax"
	"github.com/Sumatoshi-tech/codemetrics/pkg/visitor"
)

// StatementCount is 1 for a statement that is not a function or class
// definition and 0 otherwise.
func StatementCount(node *syntax.Node) int {
	if node.Kind.IsDefinition() || !node.Kind.IsStatement() {
		return 0
	}

	return 1
}

// TotalStatementCount sums StatementCount over the subtree. Bodies of
// nested definitions are still counted.
func TotalStatementCount(node *syntax.Node) int {
	tree := visitor.Tree[int, int]{Sub: visitor.Func[int](StatementCount), Collect: visitor.Sum[int]}

	return visitor.Visit[int](tree, node)
}

// Length returns the number of statements in a method.
func Length(method *syntax.Node) (int, error) {
	if err := checkMethod(method); err != nil {
		return 0, err
	}

	return TotalStatementCount(method), nil
}

// Qualname returns the dotted path of a definition: the module name, the
// enclosing class and function names, then the node's own name.
func Qualname(node *syntax.Node) string {
	var parts []string

	if module := node.Module(); module != nil && module.Name != "" {
		parts = append(parts, module.Name)
	}

	parts = append(parts, node.Scopes()...)
	parts = append(parts, node.Name)

	return strings.Join(parts, ".")
}
