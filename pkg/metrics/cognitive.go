package metrics

import (
	"github.com/Sumatoshi-tech/codemetrics/pkg/syntax"
	"github.com/Sumatoshi-tech/codemetrics/pkg/visitor"
)

// CognitiveComplexityVisitor scores control flow by how deeply it is nested.
//
// Entering an if, conditional expression, loop or except handler nests one
// level deeper, except for an elif, which stays at the depth of the if that
// opened its chain. A touched if, loop or handler costs the current nesting;
// an if with a plain else branch and a conditional expression cost one more.
type CognitiveComplexityVisitor struct {
	Nesting int
}

// Enter implements visitor.Visitor.
func (v CognitiveComplexityVisitor) Enter(node *syntax.Node) visitor.Visitor[int] {
	if syntax.IsElif(node) {
		return v
	}

	switch node.Kind {
	case syntax.KindIf, syntax.KindIfExp, syntax.KindFor, syntax.KindAsyncFor,
		syntax.KindWhile, syntax.KindExceptHandler:
		return CognitiveComplexityVisitor{Nesting: v.Nesting + 1}
	default:
		return v
	}
}

// Touch implements visitor.Visitor.
func (v CognitiveComplexityVisitor) Touch(node *syntax.Node) int {
	switch node.Kind {
	case syntax.KindIf:
		orelse := node.OrElse()
		if len(orelse) > 0 && !syntax.IsElif(orelse[0]) {
			return v.Nesting + 1
		}

		return v.Nesting
	case syntax.KindIfExp:
		return v.Nesting + 1
	case syntax.KindFor, syntax.KindAsyncFor, syntax.KindWhile, syntax.KindExceptHandler:
		return v.Nesting
	default:
		return 0
	}
}

// TotalCognitiveComplexity sums the cognitive complexity over the subtree,
// starting at nesting zero.
func TotalCognitiveComplexity(node *syntax.Node) int {
	tree := visitor.Tree[int, int]{Sub: CognitiveComplexityVisitor{}, Collect: visitor.Sum[int]}

	return visitor.Visit[int](tree, node)
}

// CognitiveComplexity returns the total cognitive complexity of a method.
func CognitiveComplexity(method *syntax.Node) (int, error) {
	if err := checkMethod(method); err != nil {
		return 0, err
	}

	return TotalCognitiveComplexity(method), nil
}
