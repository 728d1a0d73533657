package metrics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Result is a metric value that can be aggregated: summed, divided by a
// count and ordered.
//
// Leaves are Number, Text and Missing. Tuple and Named bundle several
// results and apply every operation pointwise. Arithmetic on a pair of
// leaves that are not both numbers yields Missing instead of failing, so
// bundles that mix numeric and descriptive metrics stay aggregable.
// Combining results of different shapes fails with ErrShapeMismatch.
type Result interface {
	// Add returns the pointwise sum.
	Add(other Result) (Result, error)
	// Div returns the pointwise quotient; it never fails.
	Div(divisor float64) Result
	// Less orders results: Missing < Number < Text across leaf kinds,
	// compounds compare lexicographically.
	Less(other Result) bool
	// Equal reports pointwise equality.
	Equal(other Result) bool
	String() string
}

// Number is a numeric result.
type Number float64

// Text is a descriptive result, such as a qualified name.
type Text string

// Missing marks a value that could not be computed.
type Missing struct{}

// Tuple is an ordered compound result.
type Tuple []Result

// Named is a compound result keyed by metric name. Keys keep insertion
// order; setting an existing key replaces its value in place.
type Named struct {
	keys   []string
	values map[string]Result
}

// NewNamed creates an empty named result.
func NewNamed() *Named {
	return &Named{values: make(map[string]Result)}
}

// Set stores value under key and returns the receiver.
func (n *Named) Set(key string, value Result) *Named {
	if n.values == nil {
		n.values = make(map[string]Result)
	}

	if _, exists := n.values[key]; !exists {
		n.keys = append(n.keys, key)
	}

	n.values[key] = normalize(value)

	return n
}

// Get returns the value stored under key.
func (n *Named) Get(key string) (Result, bool) {
	if n == nil {
		return nil, false
	}

	value, ok := n.values[key]

	return value, ok
}

// Keys returns the keys in insertion order.
func (n *Named) Keys() []string {
	if n == nil {
		return nil
	}

	keys := make([]string, len(n.keys))
	copy(keys, n.keys)

	return keys
}

// Len returns the number of keys.
func (n *Named) Len() int {
	if n == nil {
		return 0
	}

	return len(n.keys)
}

// Pairs iterates over key/value pairs in insertion order.
func (n *Named) Pairs() iter.Seq2[string, Result] {
	return func(yield func(string, Result) bool) {
		if n == nil {
			return
		}

		for _, key := range n.keys {
			if !yield(key, n.values[key]) {
				return
			}
		}
	}
}

// Clone returns a shallow copy with its own key order.
func (n *Named) Clone() *Named {
	out := NewNamed()
	for key, value := range n.Pairs() {
		out.Set(key, value)
	}

	return out
}

// Add implements Result.
func (v Number) Add(other Result) (Result, error) { return add(v, other) }

// Add implements Result.
func (v Text) Add(other Result) (Result, error) { return add(v, other) }

// Add implements Result.
func (v Missing) Add(other Result) (Result, error) { return add(v, other) }

// Add implements Result.
func (v Tuple) Add(other Result) (Result, error) { return add(v, other) }

// Add implements Result.
func (n *Named) Add(other Result) (Result, error) { return add(n, other) }

// Div implements Result.
func (v Number) Div(divisor float64) Result { return div(v, divisor) }

// Div implements Result.
func (v Text) Div(divisor float64) Result { return div(v, divisor) }

// Div implements Result.
func (v Missing) Div(divisor float64) Result { return div(v, divisor) }

// Div implements Result.
func (v Tuple) Div(divisor float64) Result { return div(v, divisor) }

// Div implements Result.
func (n *Named) Div(divisor float64) Result { return div(n, divisor) }

// Less implements Result.
func (v Number) Less(other Result) bool { return less(v, other) }

// Less implements Result.
func (v Text) Less(other Result) bool { return less(v, other) }

// Less implements Result.
func (v Missing) Less(other Result) bool { return less(v, other) }

// Less implements Result.
func (v Tuple) Less(other Result) bool { return less(v, other) }

// Less implements Result.
func (n *Named) Less(other Result) bool { return less(n, other) }

// Equal implements Result.
func (v Number) Equal(other Result) bool { return equal(v, other) }

// Equal implements Result.
func (v Text) Equal(other Result) bool { return equal(v, other) }

// Equal implements Result.
func (v Missing) Equal(other Result) bool { return equal(v, other) }

// Equal implements Result.
func (v Tuple) Equal(other Result) bool { return equal(v, other) }

// Equal implements Result.
func (n *Named) Equal(other Result) bool { return equal(n, other) }

func (v Number) String() string { return strconv.FormatFloat(float64(v), 'f', -1, 64) }

func (v Text) String() string { return string(v) }

func (Missing) String() string { return "n/a" }

func (v Tuple) String() string {
	parts := make([]string, len(v))
	for idx, item := range v {
		parts[idx] = normalize(item).String()
	}

	return "(" + strings.Join(parts, ", ") + ")"
}

func (n *Named) String() string {
	parts := make([]string, 0, n.Len())
	for key, value := range n.Pairs() {
		parts = append(parts, key+": "+value.String())
	}

	return "{" + strings.Join(parts, ", ") + "}"
}

// Float returns the numeric value of a result and whether it has one.
func Float(result Result) (float64, bool) {
	number, ok := result.(Number)

	return float64(number), ok
}

func normalize(result Result) Result {
	if result == nil {
		return Missing{}
	}

	if named, ok := result.(*Named); ok && named == nil {
		return Missing{}
	}

	return result
}

func isCompound(result Result) bool {
	switch result.(type) {
	case Tuple, *Named:
		return true
	default:
		return false
	}
}

func shape(result Result) string {
	switch typed := normalize(result).(type) {
	case Number:
		return "number"
	case Text:
		return "text"
	case Missing:
		return "missing"
	case Tuple:
		return fmt.Sprintf("tuple[%d]", len(typed))
	case *Named:
		return "named{" + strings.Join(typed.keys, ",") + "}"
	default:
		return fmt.Sprintf("%T", result)
	}
}

func mismatch(left, right Result) error {
	return fmt.Errorf("%w: %s and %s", ErrShapeMismatch, shape(left), shape(right))
}

func sameKeys(left, right *Named) bool {
	if left.Len() != right.Len() {
		return false
	}

	for _, key := range left.keys {
		if _, ok := right.values[key]; !ok {
			return false
		}
	}

	return true
}

// pointwise combines two results of the same shape with leaf applied to
// every aligned pair of leaves.
func pointwise(left, right Result, leaf func(l, r Result) Result) (Result, error) {
	left, right = normalize(left), normalize(right)

	switch typedLeft := left.(type) {
	case Tuple:
		typedRight, ok := right.(Tuple)
		if !ok || len(typedLeft) != len(typedRight) {
			return nil, mismatch(left, right)
		}

		out := make(Tuple, len(typedLeft))

		for idx := range typedLeft {
			combined, err := pointwise(typedLeft[idx], typedRight[idx], leaf)
			if err != nil {
				return nil, err
			}

			out[idx] = combined
		}

		return out, nil
	case *Named:
		typedRight, ok := right.(*Named)
		if !ok || !sameKeys(typedLeft, typedRight) {
			return nil, mismatch(left, right)
		}

		out := NewNamed()

		for key, value := range typedLeft.Pairs() {
			combined, err := pointwise(value, typedRight.values[key], leaf)
			if err != nil {
				return nil, err
			}

			out.Set(key, combined)
		}

		return out, nil
	default:
		if isCompound(right) {
			return nil, mismatch(left, right)
		}

		return leaf(left, right), nil
	}
}

func add(left, right Result) (Result, error) {
	return pointwise(left, right, func(l, r Result) Result {
		ln, lok := l.(Number)
		rn, rok := r.(Number)

		if !lok || !rok {
			return Missing{}
		}

		return ln + rn
	})
}

// maximum is the pointwise maximum used by Peak.
func maximum(left, right Result) (Result, error) {
	return pointwise(left, right, func(l, r Result) Result {
		if less(l, r) {
			return r
		}

		return l
	})
}

func div(result Result, divisor float64) Result {
	switch typed := normalize(result).(type) {
	case Number:
		if divisor == 0 {
			return Missing{}
		}

		return typed / Number(divisor)
	case Tuple:
		out := make(Tuple, len(typed))
		for idx, item := range typed {
			out[idx] = div(item, divisor)
		}

		return out
	case *Named:
		out := NewNamed()
		for key, value := range typed.Pairs() {
			out.Set(key, div(value, divisor))
		}

		return out
	default:
		return Missing{}
	}
}

func rank(result Result) int {
	switch result.(type) {
	case Missing:
		return 0
	case Number:
		return 1
	case Text:
		return 2 //nolint:mnd // ordering rank
	case Tuple:
		return 3 //nolint:mnd // ordering rank
	default:
		return 4 //nolint:mnd // ordering rank
	}
}

func less(left, right Result) bool {
	left, right = normalize(left), normalize(right)

	if rank(left) != rank(right) {
		return rank(left) < rank(right)
	}

	switch typedLeft := left.(type) {
	case Number:
		return typedLeft < right.(Number) //nolint:forcetypeassert // same rank
	case Text:
		return typedLeft < right.(Text) //nolint:forcetypeassert // same rank
	case Tuple:
		return lessSeq(typedLeft, right.(Tuple)) //nolint:forcetypeassert // same rank
	case *Named:
		typedRight, ok := right.(*Named)
		if !ok {
			return false
		}

		return lessSeq(typedLeft.valueList(), typedRight.valueList())
	default:
		return false
	}
}

func lessSeq(left, right []Result) bool {
	for idx := 0; idx < len(left) && idx < len(right); idx++ {
		if less(left[idx], right[idx]) {
			return true
		}

		if less(right[idx], left[idx]) {
			return false
		}
	}

	return len(left) < len(right)
}

func (n *Named) valueList() []Result {
	values := make([]Result, 0, n.Len())
	for _, value := range n.Pairs() {
		values = append(values, value)
	}

	return values
}

func equal(left, right Result) bool {
	left, right = normalize(left), normalize(right)

	switch typedLeft := left.(type) {
	case Number:
		typedRight, ok := right.(Number)

		return ok && typedLeft == typedRight
	case Text:
		typedRight, ok := right.(Text)

		return ok && typedLeft == typedRight
	case Missing:
		_, ok := right.(Missing)

		return ok
	case Tuple:
		typedRight, ok := right.(Tuple)
		if !ok || len(typedLeft) != len(typedRight) {
			return false
		}

		for idx := range typedLeft {
			if !equal(typedLeft[idx], typedRight[idx]) {
				return false
			}
		}

		return true
	case *Named:
		typedRight, ok := right.(*Named)
		if !ok || !sameKeys(typedLeft, typedRight) {
			return false
		}

		for key, value := range typedLeft.Pairs() {
			if !equal(value, typedRight.values[key]) {
				return false
			}
		}

		return true
	default:
		return false
	}
}

// MarshalJSON encodes Missing as null.
func (Missing) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

// MarshalYAML encodes Missing as null.
func (Missing) MarshalYAML() (any, error) { return nil, nil } //nolint:nilnil // null is the encoding

// MarshalJSON encodes the pairs as an object in insertion order.
func (n *Named) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	idx := 0

	for key, value := range n.Pairs() {
		if idx > 0 {
			buf.WriteByte(',')
		}

		idx++

		encodedKey, err := json.Marshal(key)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", key, err)
		}

		encodedValue, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("marshal value of %q: %w", key, err)
		}

		buf.Write(encodedKey)
		buf.WriteByte(':')
		buf.Write(encodedValue)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object keeping key order.
func (n *Named) UnmarshalJSON(data []byte) error {
	decoded, err := DecodeJSON(data)
	if err != nil {
		return err
	}

	named, ok := decoded.(*Named)
	if !ok {
		return fmt.Errorf("%w: expected object, got %s", ErrShapeMismatch, shape(decoded))
	}

	*n = *named

	return nil
}

// MarshalYAML encodes the pairs as a mapping in insertion order.
func (n *Named) MarshalYAML() (any, error) {
	mapping := &yaml.Node{Kind: yaml.MappingNode}

	for key, value := range n.Pairs() {
		valueNode := &yaml.Node{}
		if err := valueNode.Encode(value); err != nil {
			return nil, fmt.Errorf("marshal value of %q: %w", key, err)
		}

		mapping.Content = append(mapping.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			valueNode)
	}

	return mapping, nil
}

// UnmarshalYAML decodes a mapping keeping key order.
func (n *Named) UnmarshalYAML(node *yaml.Node) error {
	decoded, err := decodeYAML(node)
	if err != nil {
		return err
	}

	named, ok := decoded.(*Named)
	if !ok {
		return fmt.Errorf("%w: expected mapping, got %s", ErrShapeMismatch, shape(decoded))
	}

	*n = *named

	return nil
}

// DecodeJSON decodes any encoded Result: objects become Named, arrays
// Tuple, numbers Number, strings Text and null Missing.
func DecodeJSON(data []byte) (Result, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	result, err := decodeJSONValue(dec)
	if err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}

	return result, nil
}

func decodeJSONValue(dec *json.Decoder) (Result, error) {
	token, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch typed := token.(type) {
	case json.Delim:
		return decodeJSONContainer(dec, typed)
	case json.Number:
		value, err := typed.Float64()
		if err != nil {
			return nil, err
		}

		return Number(value), nil
	case string:
		return Text(typed), nil
	case bool:
		return Text(strconv.FormatBool(typed)), nil
	default:
		return Missing{}, nil
	}
}

func decodeJSONContainer(dec *json.Decoder, open json.Delim) (Result, error) {
	var result Result

	switch open {
	case '{':
		named := NewNamed()

		for dec.More() {
			keyToken, err := dec.Token()
			if err != nil {
				return nil, err
			}

			key, _ := keyToken.(string)

			value, err := decodeJSONValue(dec)
			if err != nil {
				return nil, err
			}

			named.Set(key, value)
		}

		result = named
	default:
		tuple := Tuple{}

		for dec.More() {
			value, err := decodeJSONValue(dec)
			if err != nil {
				return nil, err
			}

			tuple = append(tuple, value)
		}

		result = tuple
	}

	// Consume the closing delimiter.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	return result, nil
}

func decodeYAML(node *yaml.Node) (Result, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return Missing{}, nil
		}

		return decodeYAML(node.Content[0])
	case yaml.AliasNode:
		return decodeYAML(node.Alias)
	case yaml.MappingNode:
		named := NewNamed()

		for idx := 0; idx+1 < len(node.Content); idx += 2 {
			value, err := decodeYAML(node.Content[idx+1])
			if err != nil {
				return nil, err
			}

			named.Set(node.Content[idx].Value, value)
		}

		return named, nil
	case yaml.SequenceNode:
		tuple := make(Tuple, 0, len(node.Content))

		for _, item := range node.Content {
			value, err := decodeYAML(item)
			if err != nil {
				return nil, err
			}

			tuple = append(tuple, value)
		}

		return tuple, nil
	default:
		switch node.ShortTag() {
		case "!!null":
			return Missing{}, nil
		case "!!int", "!!float":
			value, err := strconv.ParseFloat(node.Value, 64)
			if err != nil {
				return nil, fmt.Errorf("decode number %q: %w", node.Value, err)
			}

			return Number(value), nil
		default:
			return Text(node.Value), nil
		}
	}
}
