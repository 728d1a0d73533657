package metrics

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Sumatoshi-tech/codemetrics/pkg/syntax"
)

// Sentinel errors.
var (
	// ErrWrongNodeKind is wrapped by WrongNodeKindError.
	ErrWrongNodeKind = errors.New("metric not defined for node kind")
	// ErrShapeMismatch reports combining results of different shapes.
	ErrShapeMismatch = errors.New("result shapes do not match")
	// ErrEmptyAggregation reports a total or average over no results.
	ErrEmptyAggregation = errors.New("aggregation over empty sequence")
	// ErrUnknownMetric reports a metric name missing from the registry.
	ErrUnknownMetric = errors.New("unknown metric")
	// ErrUnknownAggregation reports an unknown aggregation name.
	ErrUnknownAggregation = errors.New("unknown aggregation")
)

// WrongNodeKindError is returned when a method metric receives a node that
// is not a function definition.
type WrongNodeKindError struct {
	Actual  syntax.Kind
	Allowed []syntax.Kind
}

// Error implements error.
func (e *WrongNodeKindError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for idx, kind := range e.Allowed {
		allowed[idx] = kind.String()
	}

	return fmt.Sprintf("%s: got %s, allowed %s", ErrWrongNodeKind, e.Actual, strings.Join(allowed, ", "))
}

// Unwrap returns ErrWrongNodeKind.
func (e *WrongNodeKindError) Unwrap() error {
	return ErrWrongNodeKind
}

//nolint:gochecknoglobals // Fixed set of method kinds.
var methodKinds = []syntax.Kind{syntax.KindFunctionDef, syntax.KindAsyncFunctionDef}

// checkMethod validates that node is a function definition.
func checkMethod(node *syntax.Node) error {
	if node == nil {
		return &WrongNodeKindError{Actual: syntax.KindUnknown, Allowed: methodKinds}
	}

	if !node.Kind.IsFunction() {
		return &WrongNodeKindError{Actual: node.Kind, Allowed: methodKinds}
	}

	return nil
}
