package metrics_test

import (
	"github.com/Sumatoshi-tech/codemetrics/pkg/syntax"
)

func name(id string) *syntax.Node {
	return syntax.NewName(id)
}

func store(id string) *syntax.Node {
	return syntax.NewAssignName(id)
}

func num(v string) *syntax.Node {
	return syntax.NewConst(v)
}

func expr(v *syntax.Node) *syntax.Node {
	return syntax.NewExpr(v)
}

func ret(v *syntax.Node) *syntax.Node {
	return syntax.NewReturn(v)
}

func body(nodes ...*syntax.Node) []*syntax.Node {
	return nodes
}

func call(fn string, args ...*syntax.Node) *syntax.Node {
	return syntax.NewCall(name(fn), args...)
}

func cmp(op string, left, right *syntax.Node) *syntax.Node {
	return syntax.NewCompare(op, left, right)
}

func def(id string, params []string, stmts ...*syntax.Node) *syntax.Node {
	return syntax.NewFunction(id, params, stmts...)
}

// elifChain builds an if statement followed by elif clauses, one per
// test, and an optional trailing else body.
func elifChain(tests []*syntax.Node, bodies [][]*syntax.Node, orelse []*syntax.Node) *syntax.Node {
	tail := orelse

	for idx := len(tests) - 1; idx >= 1; idx-- {
		tail = []*syntax.Node{syntax.NewElif(tests[idx], bodies[idx], tail...)}
	}

	return syntax.NewIf(tests[0], bodies[0], tail...)
}

// divMethod builds:
//
//	def div(x, y):
//	    return None if y == 0 else x / y
func divMethod() *syntax.Node {
	return def("div", []string{"x", "y"},
		ret(syntax.NewIfExp(
			cmp("==", name("y"), num("0")),
			num("None"),
			syntax.NewBinOp("/", name("x"), name("y")))))
}

// addMethod builds:
//
//	def add(x, y):
//	    return x + y
func addMethod() *syntax.Node {
	return def("add", []string{"x", "y"}, ret(syntax.NewBinOp("+", name("x"), name("y"))))
}

// getWords builds:
//
//	def getWords(number):
//	    if number == 1:
//	        return "one"
//	    elif number == 2:
//	        return "a couple"
//	    elif number == 3:
//	        return "a few"
//	    else:
//	        return "lots"
func getWords() *syntax.Node {
	return def("getWords", []string{"number"},
		elifChain(
			[]*syntax.Node{
				cmp("==", name("number"), num("1")),
				cmp("==", name("number"), num("2")),
				cmp("==", name("number"), num("3")),
			},
			[][]*syntax.Node{
				body(ret(num("'one'"))),
				body(ret(num("'a couple'"))),
				body(ret(num("'a few'"))),
			},
			body(ret(num("'lots'")))))
}

// sumOfPrimes builds:
//
//	def sumOfPrimes(max):
//	    total = 0
//	    for i in range(1, max):
//	        for j in range(2, j):
//	            if i % j == 0:
//	                break
//	            j = j + 1
//	        total = total + 1
//	        i = i + 1
//	    return total
func sumOfPrimes() *syntax.Node {
	inner := syntax.NewFor(store("j"), call("range", num("2"), name("j")), body(
		syntax.NewIf(cmp("==", syntax.NewBinOp("%", name("i"), name("j")), num("0")), body(syntax.New(syntax.KindBreak))),
		syntax.NewAssign(store("j"), syntax.NewBinOp("+", name("j"), num("1"))),
	))
	outer := syntax.NewFor(store("i"), call("range", num("1"), name("max")), body(
		inner,
		syntax.NewAssign(store("total"), syntax.NewBinOp("+", name("total"), num("1"))),
		syntax.NewAssign(store("i"), syntax.NewBinOp("+", name("i"), num("1"))),
	))

	return def("sumOfPrimes", []string{"max"},
		syntax.NewAssign(store("total"), num("0")),
		outer,
		ret(name("total")))
}
