package python

import (
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/codemetrics/pkg/syntax"
)

// expression lowers a value read by the program. A null node lowers to nil.
func (lower *lowerer) expression(tsNode sitter.Node) *syntax.Node {
	if tsNode.IsNull() {
		return nil
	}

	switch tsNode.Type() {
	case "identifier", "keyword_identifier":
		name := lower.at(syntax.KindName, tsNode)
		name.Name = lower.text(tsNode)

		return name
	case "integer", "float", "true", "false", "none", "ellipsis":
		constant := lower.at(syntax.KindConst, tsNode)
		constant.Value = lower.text(tsNode)

		return constant
	case "string":
		return lower.str(tsNode)
	case "concatenated_string":
		return lower.concatenated(tsNode)
	case "attribute":
		attribute := lower.at(syntax.KindAttribute, tsNode)
		attribute.Name = lower.text(tsNode.ChildByFieldName("attribute"))

		return attribute.With(syntax.FieldValue, lower.expression(tsNode.ChildByFieldName("object")))
	case "subscript":
		return lower.subscript(tsNode)
	case "slice":
		return lower.slice(tsNode)
	case "call":
		return lower.call(tsNode)
	case "boolean_operator":
		return lower.boolOp(tsNode)
	case "not_operator":
		unary := lower.at(syntax.KindUnaryOp, tsNode)
		unary.Op = "not"

		return unary.With(syntax.FieldOperand, lower.expression(tsNode.ChildByFieldName("argument")))
	case "unary_operator":
		unary := lower.at(syntax.KindUnaryOp, tsNode)
		unary.Op = lower.text(tsNode.ChildByFieldName("operator"))

		return unary.With(syntax.FieldOperand, lower.expression(tsNode.ChildByFieldName("argument")))
	case "binary_operator":
		binOp := lower.at(syntax.KindBinOp, tsNode)
		binOp.Op = lower.text(tsNode.ChildByFieldName("operator"))

		return binOp.
			With(syntax.FieldLeft, lower.expression(tsNode.ChildByFieldName("left"))).
			With(syntax.FieldRight, lower.expression(tsNode.ChildByFieldName("right")))
	case "comparison_operator":
		return lower.compare(tsNode)
	case "conditional_expression":
		return lower.conditional(tsNode)
	case "lambda":
		return lower.at(syntax.KindLambda, tsNode).
			With(syntax.FieldArgs, lower.parameters(tsNode.ChildByFieldName("parameters"), tsNode)).
			With(syntax.FieldBody, lower.expression(tsNode.ChildByFieldName("body")))
	case "list":
		return lower.sequence(syntax.KindList, tsNode)
	case "set":
		return lower.sequence(syntax.KindSet, tsNode)
	case "tuple", "expression_list", "pattern_list", "tuple_pattern":
		return lower.sequence(syntax.KindTuple, tsNode)
	case "list_pattern":
		return lower.sequence(syntax.KindList, tsNode)
	case "dictionary":
		return lower.dictionary(tsNode)
	case "list_comprehension":
		return lower.comprehension(syntax.KindListComp, tsNode)
	case "set_comprehension":
		return lower.comprehension(syntax.KindSetComp, tsNode)
	case "dictionary_comprehension":
		return lower.comprehension(syntax.KindDictComp, tsNode)
	case "generator_expression":
		return lower.comprehension(syntax.KindGeneratorExp, tsNode)
	case "parenthesized_expression", "type":
		if children := namedChildren(tsNode); len(children) == 1 {
			return lower.expression(children[0])
		}

		return lower.generic(tsNode)
	case "await":
		return lower.at(syntax.KindAwait, tsNode).With(syntax.FieldValue, lower.firstExpression(tsNode))
	case "yield":
		kind := syntax.KindYield
		if hasToken(tsNode, "from") {
			kind = syntax.KindYieldFrom
		}

		return lower.at(kind, tsNode).With(syntax.FieldValue, lower.firstExpression(tsNode))
	case "named_expression":
		return lower.at(syntax.KindNamedExpr, tsNode).
			With(syntax.FieldTarget, lower.target(tsNode.ChildByFieldName("name"), storeTarget)).
			With(syntax.FieldValue, lower.expression(tsNode.ChildByFieldName("value")))
	case "list_splat", "dictionary_splat", "list_splat_pattern", "dictionary_splat_pattern":
		return lower.at(syntax.KindStarred, tsNode).With(syntax.FieldValue, lower.firstExpression(tsNode))
	case "keyword_argument":
		return lower.keyword(tsNode)
	default:
		return lower.generic(tsNode)
	}
}

// generic keeps the named children of a construct without a dedicated
// kind, so the identifiers it mentions stay visible.
func (lower *lowerer) generic(tsNode sitter.Node) *syntax.Node {
	unknown := lower.at(syntax.KindUnknown, tsNode)
	unknown.Value = tsNode.Type()

	for _, child := range namedChildren(tsNode) {
		unknown.AddChild(syntax.FieldValues, lower.expression(child))
	}

	return unknown
}

func (lower *lowerer) sequence(kind syntax.Kind, tsNode sitter.Node) *syntax.Node {
	out := lower.at(kind, tsNode)
	for _, child := range namedChildren(tsNode) {
		out.AddChild(syntax.FieldElts, lower.expression(child))
	}

	return out
}

func (lower *lowerer) dictionary(tsNode sitter.Node) *syntax.Node {
	dict := lower.at(syntax.KindDict, tsNode)

	for _, child := range namedChildren(tsNode) {
		if child.Type() == "pair" {
			dict.AddChild(syntax.FieldKey, lower.expression(child.ChildByFieldName("key")))
			dict.AddChild(syntax.FieldValue, lower.expression(child.ChildByFieldName("value")))

			continue
		}

		dict.AddChild(syntax.FieldValue, lower.expression(child))
	}

	return dict
}

// comprehension lowers a comprehension; every "for" clause becomes a
// Comprehension node that owns the "if" clauses following it.
func (lower *lowerer) comprehension(kind syntax.Kind, tsNode sitter.Node) *syntax.Node {
	out := lower.at(kind, tsNode)
	body := tsNode.ChildByFieldName("body")

	if body.Type() == "pair" {
		out.AddChild(syntax.FieldKey, lower.expression(body.ChildByFieldName("key")))
		out.AddChild(syntax.FieldValue, lower.expression(body.ChildByFieldName("value")))
	} else {
		out.AddChild(syntax.FieldElt, lower.expression(body))
	}

	var current *syntax.Node

	for _, child := range namedChildren(tsNode) {
		switch child.Type() {
		case "for_in_clause":
			current = lower.at(syntax.KindComprehension, child).
				With(syntax.FieldTarget, lower.target(child.ChildByFieldName("left"), storeTarget)).
				With(syntax.FieldIter, lower.expression(child.ChildByFieldName("right")))
			out.AddChild(syntax.FieldGenerators, current)
		case "if_clause":
			if current != nil {
				current.AddChild(syntax.FieldIfs, lower.firstExpression(child))
			}
		default:
		}
	}

	return out
}

func (lower *lowerer) subscript(tsNode sitter.Node) *syntax.Node {
	value := tsNode.ChildByFieldName("value")
	subscript := lower.at(syntax.KindSubscript, tsNode).With(syntax.FieldValue, lower.expression(value))

	var slices []*syntax.Node

	for _, child := range namedChildren(tsNode) {
		if child.StartByte() == value.StartByte() && child.EndByte() == value.EndByte() {
			continue
		}

		slices = append(slices, lower.expression(child))
	}

	if len(slices) == 1 {
		return subscript.With(syntax.FieldSlice, slices[0])
	}

	tuple := lower.at(syntax.KindTuple, tsNode).With(syntax.FieldElts, slices...)

	return subscript.With(syntax.FieldSlice, tuple)
}

// slice lowers lower:upper:step; the colon count places each bound.
func (lower *lowerer) slice(tsNode sitter.Node) *syntax.Node {
	out := lower.at(syntax.KindSlice, tsNode)
	fields := []string{syntax.FieldLower, syntax.FieldUpper, syntax.FieldStep}
	colons := 0

	for idx := range tsNode.ChildCount() {
		child := tsNode.Child(idx)

		switch {
		case !child.IsNamed() && child.Type() == ":":
			colons++
		case child.IsNamed() && child.Type() != "comment" && colons < len(fields):
			out.AddChild(fields[colons], lower.expression(child))
		}
	}

	return out
}

func (lower *lowerer) call(tsNode sitter.Node) *syntax.Node {
	call := lower.at(syntax.KindCall, tsNode).With(syntax.FieldFunc, lower.expression(tsNode.ChildByFieldName("function")))
	arguments := tsNode.ChildByFieldName("arguments")

	if arguments.Type() == "generator_expression" {
		return call.With(syntax.FieldArgs, lower.expression(arguments))
	}

	for _, argument := range namedChildren(arguments) {
		switch argument.Type() {
		case "keyword_argument", "dictionary_splat":
			call.AddChild(syntax.FieldKeywords, lower.keyword(argument))
		default:
			call.AddChild(syntax.FieldArgs, lower.expression(argument))
		}
	}

	return call
}

// keyword lowers name=value, or **mapping as a keyword without a name.
func (lower *lowerer) keyword(tsNode sitter.Node) *syntax.Node {
	keyword := lower.at(syntax.KindKeyword, tsNode)

	if tsNode.Type() == "dictionary_splat" {
		return keyword.With(syntax.FieldValue, lower.firstExpression(tsNode))
	}

	keyword.Name = lower.text(tsNode.ChildByFieldName("name"))

	return keyword.With(syntax.FieldValue, lower.expression(tsNode.ChildByFieldName("value")))
}

// boolOp flattens a left-nested chain of one operator, so "a and b and c"
// becomes a single BoolOp with three values. Parenthesized operands stay
// nested.
func (lower *lowerer) boolOp(tsNode sitter.Node) *syntax.Node {
	operator := lower.text(tsNode.ChildByFieldName("operator"))
	boolOp := lower.at(syntax.KindBoolOp, tsNode)
	boolOp.Op = operator

	var operands []sitter.Node

	current := tsNode
	for current.Type() == "boolean_operator" && lower.text(current.ChildByFieldName("operator")) == operator {
		operands = append(operands, current.ChildByFieldName("right"))
		current = current.ChildByFieldName("left")
	}

	operands = append(operands, current)

	for idx := len(operands) - 1; idx >= 0; idx-- {
		boolOp.AddChild(syntax.FieldValues, lower.expression(operands[idx]))
	}

	return boolOp
}

// compare lowers a comparison chain: the first operand is the left side,
// the rest are the compared values, and Op lists the operators in order.
func (lower *lowerer) compare(tsNode sitter.Node) *syntax.Node {
	compare := lower.at(syntax.KindCompare, tsNode)

	var operators []string

	first := true

	for idx := range tsNode.ChildCount() {
		child := tsNode.Child(idx)

		switch {
		case !child.IsNamed():
			operators = append(operators, strings.Join(strings.Fields(lower.text(child)), " "))
		case child.Type() == "comment":
		case first:
			compare.AddChild(syntax.FieldLeft, lower.expression(child))

			first = false
		default:
			compare.AddChild(syntax.FieldOps, lower.expression(child))
		}
	}

	compare.Op = strings.Join(operators, " ")

	return compare
}

// conditional lowers "body if test else orelse" with the test first.
func (lower *lowerer) conditional(tsNode sitter.Node) *syntax.Node {
	parts := namedChildren(tsNode)
	if len(parts) != 3 { //nolint:mnd // body, test, orelse
		return lower.generic(tsNode)
	}

	return lower.at(syntax.KindIfExp, tsNode).
		With(syntax.FieldTest, lower.expression(parts[1])).
		With(syntax.FieldBody, lower.expression(parts[0])).
		With(syntax.FieldOrElse, lower.expression(parts[2]))
}

func isFormatted(literal string) bool {
	quote := strings.IndexAny(literal, `'"`)
	if quote < 0 {
		return false
	}

	return strings.ContainsAny(literal[:quote], "fF")
}

// str lowers a string literal. Plain strings are constants; f-strings
// become JoinedStr with a FormattedValue per interpolation.
func (lower *lowerer) str(tsNode sitter.Node) *syntax.Node {
	literal := lower.text(tsNode)
	if !isFormatted(literal) {
		constant := lower.at(syntax.KindConst, tsNode)
		constant.Value = literal

		return constant
	}

	joined := lower.at(syntax.KindJoinedStr, tsNode)
	lower.joinParts(joined, tsNode)

	return joined
}

func (lower *lowerer) joinParts(joined *syntax.Node, tsNode sitter.Node) {
	for _, child := range namedChildren(tsNode) {
		switch child.Type() {
		case "interpolation":
			joined.AddChild(syntax.FieldValues, lower.interpolation(child))
		case "string_content":
			constant := lower.at(syntax.KindConst, child)
			constant.Value = lower.text(child)
			joined.AddChild(syntax.FieldValues, constant)
		default:
		}
	}
}

func (lower *lowerer) interpolation(tsNode sitter.Node) *syntax.Node {
	formatted := lower.at(syntax.KindFormattedValue, tsNode)

	value := tsNode.ChildByFieldName("expression")
	if value.IsNull() {
		if children := namedChildren(tsNode); len(children) > 0 {
			value = children[0]
		}
	}

	formatted.AddChild(syntax.FieldValue, lower.expression(value))

	if spec, ok := childOfType(tsNode, "format_specifier"); ok {
		format := lower.at(syntax.KindJoinedStr, spec)

		for _, child := range namedChildren(spec) {
			if child.Type() == "interpolation" {
				format.AddChild(syntax.FieldValues, lower.interpolation(child))
			}
		}

		formatted.AddChild(syntax.FieldFormat, format)
	}

	return formatted
}

func (lower *lowerer) concatenated(tsNode sitter.Node) *syntax.Node {
	parts := namedChildren(tsNode)

	formatted := false
	for _, part := range parts {
		formatted = formatted || isFormatted(lower.text(part))
	}

	if !formatted {
		constant := lower.at(syntax.KindConst, tsNode)
		constant.Value = lower.text(tsNode)

		return constant
	}

	joined := lower.at(syntax.KindJoinedStr, tsNode)

	for _, part := range parts {
		if isFormatted(lower.text(part)) {
			lower.joinParts(joined, part)

			continue
		}

		joined.AddChild(syntax.FieldValues, lower.expression(part))
	}

	return joined
}
