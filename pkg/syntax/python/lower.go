package python

import (
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/codemetrics/pkg/syntax"
)

// targetKinds picks the node kinds for names and attributes written by an
// assignment or removed by del.
type targetKinds struct {
	name      syntax.Kind
	attribute syntax.Kind
}

//nolint:gochecknoglobals // Immutable context tables.
var (
	storeTarget  = targetKinds{name: syntax.KindAssignName, attribute: syntax.KindAssignAttr}
	deleteTarget = targetKinds{name: syntax.KindDelName, attribute: syntax.KindDelAttr}
)

// lowerer converts tree-sitter nodes of one file into syntax nodes.
type lowerer struct {
	source []byte
}

func (lower *lowerer) text(tsNode sitter.Node) string {
	return tsNode.Content(lower.source)
}

// at creates a node of kind positioned at tsNode.
func (lower *lowerer) at(kind syntax.Kind, tsNode sitter.Node) *syntax.Node {
	out := syntax.New(kind)
	start, end := tsNode.StartPoint(), tsNode.EndPoint()
	out.Line = int(start.Row) + 1
	out.Column = int(start.Column)
	out.EndLine = int(end.Row) + 1

	return out
}

// namedChildren returns the named children of tsNode without comments.
func namedChildren(tsNode sitter.Node) []sitter.Node {
	if tsNode.IsNull() {
		return nil
	}

	children := make([]sitter.Node, 0, tsNode.ChildCount())

	for idx := range tsNode.ChildCount() {
		child := tsNode.Child(idx)
		if !child.IsNamed() || child.Type() == "comment" || child.Type() == "line_continuation" {
			continue
		}

		children = append(children, child)
	}

	return children
}

// hasToken reports whether tsNode has an anonymous child spelled token.
func hasToken(tsNode sitter.Node, token string) bool {
	for idx := range tsNode.ChildCount() {
		child := tsNode.Child(idx)
		if !child.IsNamed() && child.Type() == token {
			return true
		}
	}

	return false
}

func childOfType(tsNode sitter.Node, nodeType string) (sitter.Node, bool) {
	for _, child := range namedChildren(tsNode) {
		if child.Type() == nodeType {
			return child, true
		}
	}

	return sitter.Node{}, false
}

// clauseBody returns the block of an else, finally or except clause.
func clauseBody(clause sitter.Node) sitter.Node {
	if body := clause.ChildByFieldName("body"); !body.IsNull() {
		return body
	}

	body, _ := childOfType(clause, "block")

	return body
}

// splitAs separates "value as alias"; alias is null when there is none.
func splitAs(tsNode sitter.Node) (value, alias sitter.Node) {
	if tsNode.Type() != "as_pattern" {
		return tsNode, sitter.Node{}
	}

	children := namedChildren(tsNode)
	if len(children) == 0 {
		return tsNode, sitter.Node{}
	}

	value = children[0]

	if target, ok := childOfType(tsNode, "as_pattern_target"); ok {
		if inner := namedChildren(target); len(inner) > 0 {
			return value, inner[0]
		}

		return value, target
	}

	if len(children) > 1 {
		alias = children[len(children)-1]
	}

	return value, alias
}

// block lowers the statements of a module or block.
func (lower *lowerer) block(tsNode sitter.Node) []*syntax.Node {
	var statements []*syntax.Node

	for _, child := range namedChildren(tsNode) {
		if statement := lower.statement(child); statement != nil {
			statements = append(statements, statement)
		}
	}

	return statements
}

func (lower *lowerer) statement(tsNode sitter.Node) *syntax.Node {
	switch tsNode.Type() {
	case "function_definition":
		return lower.function(tsNode, nil)
	case "class_definition":
		return lower.class(tsNode, nil)
	case "decorated_definition":
		return lower.decorated(tsNode)
	case "if_statement":
		return lower.ifStatement(tsNode)
	case "for_statement":
		return lower.forStatement(tsNode)
	case "while_statement":
		return lower.whileStatement(tsNode)
	case "try_statement":
		return lower.tryStatement(tsNode)
	case "with_statement":
		return lower.withStatement(tsNode)
	case "match_statement":
		return lower.matchStatement(tsNode)
	case "expression_statement":
		return lower.expressionStatement(tsNode)
	case "return_statement":
		return lower.at(syntax.KindReturn, tsNode).With(syntax.FieldValue, lower.firstExpression(tsNode))
	case "pass_statement":
		return lower.at(syntax.KindPass, tsNode)
	case "break_statement":
		return lower.at(syntax.KindBreak, tsNode)
	case "continue_statement":
		return lower.at(syntax.KindContinue, tsNode)
	case "raise_statement":
		return lower.raiseStatement(tsNode)
	case "assert_statement":
		return lower.assertStatement(tsNode)
	case "delete_statement":
		return lower.deleteStatement(tsNode)
	case "global_statement", "nonlocal_statement":
		return lower.scopeStatement(tsNode)
	case "import_statement", "import_from_statement", "future_import_statement":
		return lower.importStatement(tsNode)
	case "type_alias_statement":
		alias := lower.at(syntax.KindTypeAlias, tsNode)
		for _, child := range namedChildren(tsNode) {
			alias.AddChild(syntax.FieldValues, lower.expression(child))
		}

		return alias
	default:
		return lower.at(syntax.KindExpr, tsNode).With(syntax.FieldValue, lower.expression(tsNode))
	}
}

func (lower *lowerer) decorated(tsNode sitter.Node) *syntax.Node {
	var decorators *syntax.Node

	for _, child := range namedChildren(tsNode) {
		if child.Type() != "decorator" {
			continue
		}

		if decorators == nil {
			decorators = lower.at(syntax.KindDecorators, child)
		}

		decorators.AddChild(syntax.FieldValues, lower.firstExpression(child))
	}

	definition := tsNode.ChildByFieldName("definition")

	switch definition.Type() {
	case "function_definition":
		return lower.function(definition, decorators)
	case "class_definition":
		return lower.class(definition, decorators)
	default:
		return lower.statement(definition)
	}
}

func (lower *lowerer) function(tsNode sitter.Node, decorators *syntax.Node) *syntax.Node {
	kind := syntax.KindFunctionDef
	if hasToken(tsNode, "async") {
		kind = syntax.KindAsyncFunctionDef
	}

	function := lower.at(kind, tsNode)
	function.Name = lower.text(tsNode.ChildByFieldName("name"))
	function.AddChild(syntax.FieldDecorators, decorators)
	function.AddChild(syntax.FieldArgs, lower.parameters(tsNode.ChildByFieldName("parameters"), tsNode))

	if returns := tsNode.ChildByFieldName("return_type"); !returns.IsNull() {
		function.AddChild(syntax.FieldReturns, lower.expression(returns))
	}

	return function.With(syntax.FieldBody, lower.block(tsNode.ChildByFieldName("body"))...)
}

// parameters lowers a parameter list. Plain, defaulted and annotated names
// become AssignName nodes; *args and **kwargs do not.
func (lower *lowerer) parameters(params, owner sitter.Node) *syntax.Node {
	if params.IsNull() {
		return lower.at(syntax.KindArguments, owner)
	}

	arguments := lower.at(syntax.KindArguments, params)

	var defaults, annotations []*syntax.Node

	for _, param := range namedChildren(params) {
		switch param.Type() {
		case "identifier":
			arguments.AddChild(syntax.FieldArgs, lower.target(param, storeTarget))
		case "default_parameter", "typed_default_parameter":
			arguments.AddChild(syntax.FieldArgs, lower.target(param.ChildByFieldName("name"), storeTarget))
			defaults = append(defaults, lower.expression(param.ChildByFieldName("value")))

			if annotation := param.ChildByFieldName("type"); !annotation.IsNull() {
				annotations = append(annotations, lower.expression(annotation))
			}
		case "typed_parameter":
			if inner := namedChildren(param); len(inner) > 0 && inner[0].Type() == "identifier" {
				arguments.AddChild(syntax.FieldArgs, lower.target(inner[0], storeTarget))
			}

			annotations = append(annotations, lower.expression(param.ChildByFieldName("type")))
		case "tuple_pattern":
			arguments.AddChild(syntax.FieldArgs, lower.target(param, storeTarget))
		default:
		}
	}

	return arguments.With(syntax.FieldDefaults, defaults...).With(syntax.FieldAnnotation, annotations...)
}

func (lower *lowerer) class(tsNode sitter.Node, decorators *syntax.Node) *syntax.Node {
	class := lower.at(syntax.KindClassDef, tsNode)
	class.Name = lower.text(tsNode.ChildByFieldName("name"))
	class.AddChild(syntax.FieldDecorators, decorators)

	for _, base := range namedChildren(tsNode.ChildByFieldName("superclasses")) {
		switch base.Type() {
		case "keyword_argument", "dictionary_splat":
			class.AddChild(syntax.FieldKeywords, lower.keyword(base))
		default:
			class.AddChild(syntax.FieldBases, lower.expression(base))
		}
	}

	return class.With(syntax.FieldBody, lower.block(tsNode.ChildByFieldName("body"))...)
}

// ifStatement lowers an if with its elif and else clauses into nested If
// nodes: every elif becomes the only else-branch statement of the previous
// test and is flagged as an elif.
func (lower *lowerer) ifStatement(tsNode sitter.Node) *syntax.Node {
	var (
		clauses []sitter.Node
		orelse  []*syntax.Node
	)

	for _, child := range namedChildren(tsNode) {
		switch child.Type() {
		case "elif_clause":
			clauses = append(clauses, child)
		case "else_clause":
			orelse = lower.block(clauseBody(child))
		default:
		}
	}

	for idx := len(clauses) - 1; idx >= 0; idx-- {
		clause := clauses[idx]

		elif := lower.at(syntax.KindIf, clause).
			With(syntax.FieldTest, lower.expression(clause.ChildByFieldName("condition"))).
			With(syntax.FieldBody, lower.block(clause.ChildByFieldName("consequence"))...).
			With(syntax.FieldOrElse, orelse...)
		elif.Elif = true

		orelse = []*syntax.Node{elif}
	}

	return lower.at(syntax.KindIf, tsNode).
		With(syntax.FieldTest, lower.expression(tsNode.ChildByFieldName("condition"))).
		With(syntax.FieldBody, lower.block(tsNode.ChildByFieldName("consequence"))...).
		With(syntax.FieldOrElse, orelse...)
}

func (lower *lowerer) elseBranch(tsNode sitter.Node) []*syntax.Node {
	alternative := tsNode.ChildByFieldName("alternative")
	if alternative.IsNull() {
		return nil
	}

	return lower.block(clauseBody(alternative))
}

func (lower *lowerer) forStatement(tsNode sitter.Node) *syntax.Node {
	kind := syntax.KindFor
	if hasToken(tsNode, "async") {
		kind = syntax.KindAsyncFor
	}

	return lower.at(kind, tsNode).
		With(syntax.FieldTarget, lower.target(tsNode.ChildByFieldName("left"), storeTarget)).
		With(syntax.FieldIter, lower.expression(tsNode.ChildByFieldName("right"))).
		With(syntax.FieldBody, lower.block(tsNode.ChildByFieldName("body"))...).
		With(syntax.FieldOrElse, lower.elseBranch(tsNode)...)
}

func (lower *lowerer) whileStatement(tsNode sitter.Node) *syntax.Node {
	return lower.at(syntax.KindWhile, tsNode).
		With(syntax.FieldTest, lower.expression(tsNode.ChildByFieldName("condition"))).
		With(syntax.FieldBody, lower.block(tsNode.ChildByFieldName("body"))...).
		With(syntax.FieldOrElse, lower.elseBranch(tsNode)...)
}

func (lower *lowerer) tryStatement(tsNode sitter.Node) *syntax.Node {
	try := lower.at(syntax.KindTryExcept, tsNode).
		With(syntax.FieldBody, lower.block(tsNode.ChildByFieldName("body"))...)

	for _, child := range namedChildren(tsNode) {
		switch child.Type() {
		case "except_clause", "except_group_clause":
			try.AddChild(syntax.FieldHandlers, lower.handler(child))
		case "else_clause":
			try.AddChildren(syntax.FieldOrElse, lower.block(clauseBody(child))...)
		case "finally_clause":
			try.AddChildren(syntax.FieldFinalBody, lower.block(clauseBody(child))...)
		default:
		}
	}

	return try
}

func (lower *lowerer) handler(tsNode sitter.Node) *syntax.Node {
	handler := lower.at(syntax.KindExceptHandler, tsNode)

	var parts []sitter.Node

	for _, child := range namedChildren(tsNode) {
		if child.Type() != "block" {
			parts = append(parts, child)
		}
	}

	if len(parts) > 0 {
		exceptionType, alias := splitAs(parts[0])
		if alias.IsNull() && len(parts) > 1 {
			alias = parts[1]
		}

		handler.AddChild(syntax.FieldType, lower.expression(exceptionType))

		if !alias.IsNull() {
			handler.AddChild(syntax.FieldName, lower.target(alias, storeTarget))
		}
	}

	return handler.With(syntax.FieldBody, lower.block(clauseBody(tsNode))...)
}

func (lower *lowerer) withStatement(tsNode sitter.Node) *syntax.Node {
	kind := syntax.KindWith
	if hasToken(tsNode, "async") {
		kind = syntax.KindAsyncWith
	}

	with := lower.at(kind, tsNode)

	if clause, ok := childOfType(tsNode, "with_clause"); ok {
		for _, item := range namedChildren(clause) {
			value := item.ChildByFieldName("value")
			if value.IsNull() {
				value = item
			}

			contextExpr, alias := splitAs(value)
			with.AddChild(syntax.FieldItems, lower.expression(contextExpr))

			if !alias.IsNull() {
				with.AddChild(syntax.FieldTarget, lower.target(alias, storeTarget))
			}
		}
	}

	return with.With(syntax.FieldBody, lower.block(tsNode.ChildByFieldName("body"))...)
}

func (lower *lowerer) matchStatement(tsNode sitter.Node) *syntax.Node {
	match := lower.at(syntax.KindMatch, tsNode)

	for _, child := range namedChildren(tsNode) {
		if child.Type() != "block" {
			match.AddChild(syntax.FieldSubject, lower.expression(child))

			continue
		}

		for _, clause := range namedChildren(child) {
			if clause.Type() == "case_clause" {
				match.AddChild(syntax.FieldCases, lower.matchCase(clause))
			}
		}
	}

	return match
}

func (lower *lowerer) matchCase(tsNode sitter.Node) *syntax.Node {
	matchCase := lower.at(syntax.KindMatchCase, tsNode)

	for _, child := range namedChildren(tsNode) {
		switch child.Type() {
		case "block":
			matchCase.AddChildren(syntax.FieldBody, lower.block(child)...)
		case "if_clause":
			matchCase.AddChild(syntax.FieldGuard, lower.firstExpression(child))
		default:
			matchCase.AddChild(syntax.FieldPattern, lower.expression(child))
		}
	}

	return matchCase
}

func (lower *lowerer) expressionStatement(tsNode sitter.Node) *syntax.Node {
	children := namedChildren(tsNode)

	if len(children) == 1 {
		switch child := children[0]; child.Type() {
		case "assignment":
			return lower.assignment(child, tsNode)
		case "augmented_assignment":
			augAssign := lower.at(syntax.KindAugAssign, tsNode)
			augAssign.Op = lower.text(child.ChildByFieldName("operator"))

			return augAssign.
				With(syntax.FieldTarget, lower.target(child.ChildByFieldName("left"), storeTarget)).
				With(syntax.FieldValue, lower.expression(child.ChildByFieldName("right")))
		default:
			return lower.at(syntax.KindExpr, tsNode).With(syntax.FieldValue, lower.expression(child))
		}
	}

	tuple := lower.at(syntax.KindTuple, tsNode)
	for _, child := range children {
		tuple.AddChild(syntax.FieldElts, lower.expression(child))
	}

	return lower.at(syntax.KindExpr, tsNode).With(syntax.FieldValue, tuple)
}

// assignment lowers "a = b = value" into one Assign with every target, and
// an annotated assignment into AnnAssign.
func (lower *lowerer) assignment(tsNode, statement sitter.Node) *syntax.Node {
	left := tsNode.ChildByFieldName("left")
	right := tsNode.ChildByFieldName("right")

	if annotation := tsNode.ChildByFieldName("type"); !annotation.IsNull() {
		annAssign := lower.at(syntax.KindAnnAssign, statement).
			With(syntax.FieldTarget, lower.target(left, storeTarget)).
			With(syntax.FieldAnnotation, lower.expression(annotation))

		return annAssign.With(syntax.FieldValue, lower.expression(right))
	}

	assign := lower.at(syntax.KindAssign, statement).With(syntax.FieldTargets, lower.target(left, storeTarget))

	for right.Type() == "assignment" && right.ChildByFieldName("type").IsNull() {
		assign.AddChild(syntax.FieldTargets, lower.target(right.ChildByFieldName("left"), storeTarget))
		right = right.ChildByFieldName("right")
	}

	return assign.With(syntax.FieldValue, lower.expression(right))
}

func (lower *lowerer) raiseStatement(tsNode sitter.Node) *syntax.Node {
	raise := lower.at(syntax.KindRaise, tsNode)
	cause := tsNode.ChildByFieldName("cause")

	for _, child := range namedChildren(tsNode) {
		if !cause.IsNull() && child.StartByte() == cause.StartByte() {
			raise.AddChild(syntax.FieldCause, lower.expression(child))

			continue
		}

		raise.AddChild(syntax.FieldExc, lower.expression(child))
	}

	return raise
}

func (lower *lowerer) assertStatement(tsNode sitter.Node) *syntax.Node {
	assert := lower.at(syntax.KindAssert, tsNode)

	for idx, child := range namedChildren(tsNode) {
		field := syntax.FieldTest
		if idx > 0 {
			field = syntax.FieldMsg
		}

		assert.AddChild(field, lower.expression(child))
	}

	return assert
}

func (lower *lowerer) deleteStatement(tsNode sitter.Node) *syntax.Node {
	deletion := lower.at(syntax.KindDelete, tsNode)

	for _, child := range namedChildren(tsNode) {
		if child.Type() == "expression_list" {
			for _, item := range namedChildren(child) {
				deletion.AddChild(syntax.FieldTargets, lower.target(item, deleteTarget))
			}

			continue
		}

		deletion.AddChild(syntax.FieldTargets, lower.target(child, deleteTarget))
	}

	return deletion
}

func (lower *lowerer) scopeStatement(tsNode sitter.Node) *syntax.Node {
	kind := syntax.KindGlobal
	if tsNode.Type() == "nonlocal_statement" {
		kind = syntax.KindNonlocal
	}

	statement := lower.at(kind, tsNode)
	statement.Name = lower.joinedNames(namedChildren(tsNode))

	return statement
}

func (lower *lowerer) importStatement(tsNode sitter.Node) *syntax.Node {
	switch tsNode.Type() {
	case "import_from_statement":
		statement := lower.at(syntax.KindImportFrom, tsNode)
		statement.Name = lower.text(tsNode.ChildByFieldName("module_name"))

		return statement
	case "future_import_statement":
		statement := lower.at(syntax.KindImportFrom, tsNode)
		statement.Name = "__future__"

		return statement
	default:
		statement := lower.at(syntax.KindImport, tsNode)

		names := namedChildren(tsNode)
		for idx, name := range names {
			if name.Type() == "aliased_import" {
				names[idx] = name.ChildByFieldName("name")
			}
		}

		statement.Name = lower.joinedNames(names)

		return statement
	}
}

func (lower *lowerer) joinedNames(names []sitter.Node) string {
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, lower.text(name))
	}

	return strings.Join(parts, ", ")
}

// firstExpression lowers the first named child, or returns nil.
func (lower *lowerer) firstExpression(tsNode sitter.Node) *syntax.Node {
	children := namedChildren(tsNode)
	if len(children) == 0 {
		return nil
	}

	return lower.expression(children[0])
}

// target lowers the left-hand side of an assignment, loop, with item or
// deletion, marking names and attributes with the kinds of the context.
func (lower *lowerer) target(tsNode sitter.Node, kinds targetKinds) *syntax.Node {
	if tsNode.IsNull() {
		return nil
	}

	switch tsNode.Type() {
	case "identifier", "keyword_identifier":
		name := lower.at(kinds.name, tsNode)
		name.Name = lower.text(tsNode)

		return name
	case "attribute":
		attribute := lower.at(kinds.attribute, tsNode)
		attribute.Name = lower.text(tsNode.ChildByFieldName("attribute"))

		return attribute.With(syntax.FieldValue, lower.expression(tsNode.ChildByFieldName("object")))
	case "pattern_list", "tuple_pattern", "expression_list", "tuple":
		return lower.targets(syntax.KindTuple, tsNode, kinds)
	case "list_pattern", "list":
		return lower.targets(syntax.KindList, tsNode, kinds)
	case "list_splat_pattern", "list_splat":
		children := namedChildren(tsNode)
		starred := lower.at(syntax.KindStarred, tsNode)

		if len(children) > 0 {
			starred.AddChild(syntax.FieldValue, lower.target(children[0], kinds))
		}

		return starred
	case "parenthesized_expression":
		if children := namedChildren(tsNode); len(children) > 0 {
			return lower.target(children[0], kinds)
		}

		return lower.expression(tsNode)
	default:
		return lower.expression(tsNode)
	}
}

func (lower *lowerer) targets(kind syntax.Kind, tsNode sitter.Node, kinds targetKinds) *syntax.Node {
	out := lower.at(kind, tsNode)
	for _, child := range namedChildren(tsNode) {
		out.AddChild(syntax.FieldElts, lower.target(child, kinds))
	}

	return out
}
