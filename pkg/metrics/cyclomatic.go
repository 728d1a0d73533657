package metrics

import (
	"github.com/Sumatoshi-tech/codemetrics/pkg/syntax"
	"github.com/Sumatoshi-tech/codemetrics/pkg/visitor"
)

// NodeCyclomaticComplexity returns the number of extra execution paths a
// single node introduces:
//
//   - try: one per except handler, plus one for an else branch;
//   - and/or chain: operands minus one;
//   - if: one, plus one for an else branch that is not an elif;
//   - conditional expression: two;
//   - for/while: one, plus one for an else branch;
//   - comprehension clause: one plus its filters.
func NodeCyclomaticComplexity(node *syntax.Node) int {
	switch node.Kind {
	case syntax.KindTryExcept:
		return len(node.Handlers()) + btoi(len(node.OrElse()) > 0)
	case syntax.KindBoolOp:
		return max(len(node.Values())-1, 0)
	case syntax.KindIf:
		orelse := node.OrElse()

		return 1 + btoi(len(orelse) > 0 && !syntax.IsElif(orelse[0]))
	case syntax.KindIfExp:
		return 2 //nolint:mnd // both branches
	case syntax.KindFor, syntax.KindAsyncFor, syntax.KindWhile:
		return 1 + btoi(len(node.OrElse()) > 0)
	case syntax.KindComprehension:
		return len(node.Ifs()) + 1
	default:
		return 0
	}
}

// TotalCyclomaticComplexity sums NodeCyclomaticComplexity over the subtree.
func TotalCyclomaticComplexity(node *syntax.Node) int {
	tree := visitor.Tree[int, int]{Sub: visitor.Func[int](NodeCyclomaticComplexity), Collect: visitor.Sum[int]}

	return visitor.Visit[int](tree, node)
}

// CyclomaticComplexity returns the total cyclomatic complexity of a method.
func CyclomaticComplexity(method *syntax.Node) (int, error) {
	if err := checkMethod(method); err != nil {
		return 0, err
	}

	return TotalCyclomaticComplexity(method), nil
}

func btoi(flag bool) int {
	if flag {
		return 1
	}

	return 0
}
