package visitor_test

import (
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/codemetrics/pkg/syntax"
	"github.com/Sumatoshi-tech/codemetrics/pkg/visitor"
)

// depthVisitor reports how deep a node sits below the first entered node.
type depthVisitor struct {
	depth int
}

func (v depthVisitor) Enter(*syntax.Node) visitor.Visitor[int] {
	return depthVisitor{depth: v.depth + 1}
}

func (v depthVisitor) Touch(*syntax.Node) int {
	return v.depth - 1
}

func kindName(n *syntax.Node) string { return n.Kind.String() }

// sample builds "x + y" wrapped in an expression statement.
func sample() *syntax.Node {
	return syntax.NewExpr(syntax.NewBinOp("+", syntax.NewName("x"), syntax.NewName("y")))
}

func TestIdentity(t *testing.T) {
	t.Parallel()

	n := sample()

	assert.Same(t, n, visitor.Visit[*syntax.Node](visitor.Identity{}, n))
}

func TestFunc(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Expr", visitor.Visit[string](visitor.Func[string](kindName), sample()))
}

func TestConditional(t *testing.T) {
	t.Parallel()

	names := visitor.Conditional[string]{Sub: visitor.Func[string](kindName), Condition: syntax.IsName}

	assert.Equal(t, visitor.Option[string]{}, visitor.Visit[visitor.Option[string]](names, sample()))
	assert.Equal(t, visitor.Some("Name"), visitor.Visit[visitor.Option[string]](names, syntax.NewName("x")))

	always := visitor.Conditional[string]{Sub: visitor.Func[string](kindName)}
	assert.True(t, visitor.Visit[visitor.Option[string]](always, sample()).OK)
}

func TestCompound(t *testing.T) {
	t.Parallel()

	line := visitor.Func[string](func(n *syntax.Node) string { return n.Op })
	comp := visitor.NewCompound[string](visitor.Func[string](kindName), line)

	got := visitor.Visit[[]string](comp, syntax.NewBinOp("-", syntax.NewName("a"), syntax.NewName("b")))

	assert.Equal(t, []string{"BinOp", "-"}, got)
}

func TestTree_CollectsPreOrder(t *testing.T) {
	t.Parallel()

	tree := visitor.NewTree[string](visitor.Func[string](kindName))

	assert.Equal(t,
		[]string{"Expr", "BinOp", "Name", "Name"},
		visitor.Visit[[]string](tree, sample()))
}

func TestTree_EntersChildren(t *testing.T) {
	t.Parallel()

	tree := visitor.NewTree[int](depthVisitor{})

	assert.Equal(t, []int{0, 1, 2, 2}, visitor.Visit[[]int](tree, sample()))
	assert.Equal(t, 0, visitor.Visit[int](depthVisitor{}, sample()))
}

func TestTree_Collectors(t *testing.T) {
	t.Parallel()

	sum := visitor.Tree[int, int]{Sub: depthVisitor{}, Collect: visitor.Sum[int]}
	peak := visitor.Tree[int, int]{Sub: depthVisitor{}, Collect: visitor.Max[int]}
	count := visitor.Tree[int, int]{Sub: depthVisitor{}, Collect: visitor.Count[int]}

	assert.Equal(t, 5, visitor.Visit[int](sum, sample()))
	assert.Equal(t, 2, visitor.Visit[int](peak, sample()))
	assert.Equal(t, 4, visitor.Visit[int](count, sample()))
}

func TestTree_WalkStopsEarly(t *testing.T) {
	t.Parallel()

	tree := visitor.NewTree[string](visitor.Func[string](kindName))

	var seen []string

	for kind := range tree.Walk(sample()) {
		seen = append(seen, kind)
		if kind == "BinOp" {
			break
		}
	}

	assert.Equal(t, []string{"Expr", "BinOp"}, seen)
}

func TestPresent(t *testing.T) {
	t.Parallel()

	names := visitor.Conditional[string]{Sub: visitor.Func[string](func(n *syntax.Node) string { return n.Name }), Condition: syntax.IsName}
	tree := visitor.Tree[visitor.Option[string], []string]{
		Sub: names,
		Collect: func(facts iter.Seq[visitor.Option[string]]) []string {
			return visitor.Collect(visitor.Present(facts))
		},
	}

	assert.Equal(t, []string{"x", "y"}, visitor.Visit[[]string](tree, sample()))
}
