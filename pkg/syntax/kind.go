package syntax

import (
	"errors"
	"fmt"
)

// Kind identifies the syntactic category of a Node.
type Kind uint8

// Node kinds. The set is closed; frontends map anything they cannot
// classify to KindUnknown.
const (
	KindUnknown Kind = iota
	KindModule
	KindFunctionDef
	KindAsyncFunctionDef
	KindClassDef
	KindArguments
	KindDecorators
	KindIf
	KindIfExp
	KindFor
	KindAsyncFor
	KindWhile
	KindTryExcept
	KindExceptHandler
	KindWith
	KindAsyncWith
	KindMatch
	KindMatchCase
	KindBoolOp
	KindBinOp
	KindUnaryOp
	KindCompare
	KindCall
	KindKeyword
	KindLambda
	KindComprehension
	KindListComp
	KindSetComp
	KindDictComp
	KindGeneratorExp
	KindName
	KindAssignName
	KindDelName
	KindAttribute
	KindAssignAttr
	KindDelAttr
	KindSubscript
	KindSlice
	KindStarred
	KindNamedExpr
	KindTuple
	KindList
	KindSet
	KindDict
	KindConst
	KindJoinedStr
	KindFormattedValue
	KindAwait
	KindYield
	KindYieldFrom
	KindReturn
	KindAssign
	KindAugAssign
	KindAnnAssign
	KindExpr
	KindPass
	KindBreak
	KindContinue
	KindRaise
	KindAssert
	KindDelete
	KindGlobal
	KindNonlocal
	KindImport
	KindImportFrom
	KindTypeAlias

	kindCount
)

// ErrUnknownKind is returned when a kind name does not match any Kind.
var ErrUnknownKind = errors.New("unknown node kind")

//nolint:gochecknoglobals // Immutable lookup table.
var kindNames = [kindCount]string{
	KindUnknown:          "Unknown",
	KindModule:           "Module",
	KindFunctionDef:      "FunctionDef",
	KindAsyncFunctionDef: "AsyncFunctionDef",
	KindClassDef:         "ClassDef",
	KindArguments:        "Arguments",
	KindDecorators:       "Decorators",
	KindIf:               "If",
	KindIfExp:            "IfExp",
	KindFor:              "For",
	KindAsyncFor:         "AsyncFor",
	KindWhile:            "While",
	KindTryExcept:        "TryExcept",
	KindExceptHandler:    "ExceptHandler",
	KindWith:             "With",
	KindAsyncWith:        "AsyncWith",
	KindMatch:            "Match",
	KindMatchCase:        "MatchCase",
	KindBoolOp:           "BoolOp",
	KindBinOp:            "BinOp",
	KindUnaryOp:          "UnaryOp",
	KindCompare:          "Compare",
	KindCall:             "Call",
	KindKeyword:          "Keyword",
	KindLambda:           "Lambda",
	KindComprehension:    "Comprehension",
	KindListComp:         "ListComp",
	KindSetComp:          "SetComp",
	KindDictComp:         "DictComp",
	KindGeneratorExp:     "GeneratorExp",
	KindName:             "Name",
	KindAssignName:       "AssignName",
	KindDelName:          "DelName",
	KindAttribute:        "Attribute",
	KindAssignAttr:       "AssignAttr",
	KindDelAttr:          "DelAttr",
	KindSubscript:        "Subscript",
	KindSlice:            "Slice",
	KindStarred:          "Starred",
	KindNamedExpr:        "NamedExpr",
	KindTuple:            "Tuple",
	KindList:             "List",
	KindSet:              "Set",
	KindDict:             "Dict",
	KindConst:            "Const",
	KindJoinedStr:        "JoinedStr",
	KindFormattedValue:   "FormattedValue",
	KindAwait:            "Await",
	KindYield:            "Yield",
	KindYieldFrom:        "YieldFrom",
	KindReturn:           "Return",
	KindAssign:           "Assign",
	KindAugAssign:        "AugAssign",
	KindAnnAssign:        "AnnAssign",
	KindExpr:             "Expr",
	KindPass:             "Pass",
	KindBreak:            "Break",
	KindContinue:         "Continue",
	KindRaise:            "Raise",
	KindAssert:           "Assert",
	KindDelete:           "Delete",
	KindGlobal:           "Global",
	KindNonlocal:         "Nonlocal",
	KindImport:           "Import",
	KindImportFrom:       "ImportFrom",
	KindTypeAlias:        "TypeAlias",
}

//nolint:gochecknoglobals // Built once from kindNames.
var kindsByName = func() map[string]Kind {
	byName := make(map[string]Kind, len(kindNames))
	for idx, name := range kindNames {
		byName[name] = Kind(idx)
	}

	return byName
}()

// String returns the kind name, e.g. "FunctionDef".
func (k Kind) String() string {
	if k >= kindCount {
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}

	return kindNames[k]
}

// ParseKind returns the Kind with the given name.
func ParseKind(name string) (Kind, error) {
	kind, ok := kindsByName[name]
	if !ok {
		return KindUnknown, fmt.Errorf("%w: %q", ErrUnknownKind, name)
	}

	return kind, nil
}

// Kinds returns every kind name in declaration order.
func Kinds() []string {
	names := make([]string, len(kindNames))
	copy(names, kindNames[:])

	return names
}

// IsStatement reports whether nodes of this kind are statements.
// Definitions and except handlers are statements too.
func (k Kind) IsStatement() bool {
	switch k {
	case KindFunctionDef, KindAsyncFunctionDef, KindClassDef,
		KindIf, KindFor, KindAsyncFor, KindWhile,
		KindTryExcept, KindExceptHandler, KindWith, KindAsyncWith, KindMatch,
		KindReturn, KindAssign, KindAugAssign, KindAnnAssign, KindExpr,
		KindPass, KindBreak, KindContinue, KindRaise, KindAssert, KindDelete,
		KindGlobal, KindNonlocal, KindImport, KindImportFrom, KindTypeAlias:
		return true
	default:
		return false
	}
}

// IsDefinition reports whether the kind opens a new function or class scope.
func (k Kind) IsDefinition() bool {
	return k == KindFunctionDef || k == KindAsyncFunctionDef || k == KindClassDef
}

// IsFunction reports whether the kind is a (possibly async) function definition.
func (k Kind) IsFunction() bool {
	return k == KindFunctionDef || k == KindAsyncFunctionDef
}
