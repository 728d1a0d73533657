package syntax

// New creates a detached node of the given kind.
func New(kind Kind) *Node {
	return &Node{Kind: kind}
}

// With appends children under field and returns the node for chaining.
func (targetNode *Node) With(field string, children ...*Node) *Node {
	return targetNode.AddChildren(field, children...)
}

// At sets the source line of the node and returns it.
func (targetNode *Node) At(line int) *Node {
	targetNode.Line = line
	if targetNode.EndLine < line {
		targetNode.EndLine = line
	}

	return targetNode
}

// NewModule creates a module holding the given statements.
func NewModule(path string, body ...*Node) *Node {
	module := New(KindModule)
	module.Path = path

	return module.With(FieldBody, body...)
}

// NewFunction creates a function definition with positional parameters.
func NewFunction(name string, params []string, body ...*Node) *Node {
	function := New(KindFunctionDef)
	function.Name = name

	arguments := New(KindArguments)
	for _, param := range params {
		arguments.AddChild(FieldArgs, NewAssignName(param))
	}

	return function.With(FieldArgs, arguments).With(FieldBody, body...)
}

// NewAsyncFunction creates an async function definition.
func NewAsyncFunction(name string, params []string, body ...*Node) *Node {
	function := NewFunction(name, params, body...)
	function.Kind = KindAsyncFunctionDef

	return function
}

// NewClass creates a class definition.
func NewClass(name string, body ...*Node) *Node {
	class := New(KindClassDef)
	class.Name = name

	return class.With(FieldBody, body...)
}

// NewName creates a loaded name.
func NewName(identifier string) *Node {
	name := New(KindName)
	name.Name = identifier

	return name
}

// NewAssignName creates a stored name.
func NewAssignName(identifier string) *Node {
	name := New(KindAssignName)
	name.Name = identifier

	return name
}

// NewAttribute creates a loaded attribute access value.attr.
func NewAttribute(value *Node, attr string) *Node {
	attribute := New(KindAttribute)
	attribute.Name = attr

	return attribute.With(FieldValue, value)
}

// NewConst creates a literal.
func NewConst(literal string) *Node {
	constant := New(KindConst)
	constant.Value = literal

	return constant
}

// NewCall creates a call of fn with positional arguments.
func NewCall(fn *Node, args ...*Node) *Node {
	return New(KindCall).With(FieldFunc, fn).With(FieldArgs, args...)
}

// NewExpr wraps an expression as a statement.
func NewExpr(value *Node) *Node {
	return New(KindExpr).With(FieldValue, value)
}

// NewAssign creates target = value.
func NewAssign(target, value *Node) *Node {
	return New(KindAssign).With(FieldTargets, target).With(FieldValue, value)
}

// NewReturn creates a return statement; value may be nil.
func NewReturn(value *Node) *Node {
	return New(KindReturn).With(FieldValue, value)
}

// NewPass creates a pass statement.
func NewPass() *Node {
	return New(KindPass)
}

// NewBoolOp creates an and/or chain over values.
func NewBoolOp(op string, values ...*Node) *Node {
	boolOp := New(KindBoolOp)
	boolOp.Op = op

	return boolOp.With(FieldValues, values...)
}

// NewBinOp creates a binary arithmetic operation.
func NewBinOp(op string, left, right *Node) *Node {
	binOp := New(KindBinOp)
	binOp.Op = op

	return binOp.With(FieldLeft, left).With(FieldRight, right)
}

// NewCompare creates a single comparison.
func NewCompare(op string, left, right *Node) *Node {
	compare := New(KindCompare)
	compare.Op = op

	return compare.With(FieldLeft, left).With(FieldOps, right)
}

// NewIf creates an if statement.
func NewIf(test *Node, body []*Node, orelse ...*Node) *Node {
	return New(KindIf).With(FieldTest, test).With(FieldBody, body...).With(FieldOrElse, orelse...)
}

// NewElif creates an if statement marked as an elif clause. It only counts
// as an elif once placed first in the else branch of another If.
func NewElif(test *Node, body []*Node, orelse ...*Node) *Node {
	elif := NewIf(test, body, orelse...)
	elif.Elif = true

	return elif
}

// NewIfExp creates a conditional expression body if test else orelse.
func NewIfExp(test, body, orelse *Node) *Node {
	return New(KindIfExp).With(FieldTest, test).With(FieldBody, body).With(FieldOrElse, orelse)
}

// NewFor creates a for loop.
func NewFor(target, iterable *Node, body []*Node, orelse ...*Node) *Node {
	return New(KindFor).
		With(FieldTarget, target).
		With(FieldIter, iterable).
		With(FieldBody, body...).
		With(FieldOrElse, orelse...)
}

// NewWhile creates a while loop.
func NewWhile(test *Node, body []*Node, orelse ...*Node) *Node {
	return New(KindWhile).With(FieldTest, test).With(FieldBody, body...).With(FieldOrElse, orelse...)
}

// NewTry creates a try statement with handlers and optional else branch.
func NewTry(body []*Node, handlers []*Node, orelse ...*Node) *Node {
	return New(KindTryExcept).With(FieldBody, body...).With(FieldHandlers, handlers...).With(FieldOrElse, orelse...)
}

// NewHandler creates an except clause; exceptionType may be nil.
func NewHandler(exceptionType *Node, body ...*Node) *Node {
	return New(KindExceptHandler).With(FieldType, exceptionType).With(FieldBody, body...)
}

// NewComprehension creates one "for target in iter if ..." clause.
func NewComprehension(target, iterable *Node, ifs ...*Node) *Node {
	return New(KindComprehension).With(FieldTarget, target).With(FieldIter, iterable).With(FieldIfs, ifs...)
}

// NewListComp creates a list comprehension.
func NewListComp(elt *Node, generators ...*Node) *Node {
	return New(KindListComp).With(FieldElt, elt).With(FieldGenerators, generators...)
}

// NewTuple creates a tuple of elements.
func NewTuple(elts ...*Node) *Node {
	return New(KindTuple).With(FieldElts, elts...)
}

// Stmts is shorthand for a statement list.
func Stmts(nodes ...*Node) []*Node {
	return nodes
}
