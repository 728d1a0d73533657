package metrics

import (
	"fmt"
	"iter"
	"slices"
	"strings"
)

// Aggregation folds a sequence of results into one. The sequence is read
// exactly once.
type Aggregation func(results iter.Seq[Result]) (Result, error)

// Collect returns every result unchanged, as a Tuple.
func Collect(results iter.Seq[Result]) (Result, error) {
	collected := Tuple{}
	for result := range results {
		collected = append(collected, normalize(result))
	}

	return collected, nil
}

// Total adds all results.
func Total(results iter.Seq[Result]) (Result, error) {
	sum, _, err := fold(results)

	return sum, err
}

// Average divides the total by the number of results, counted during the
// same pass.
func Average(results iter.Seq[Result]) (Result, error) {
	sum, count, err := fold(results)
	if err != nil {
		return nil, err
	}

	return sum.Div(float64(count)), nil
}

// Peak returns the pointwise maximum. The first result fixes the shape;
// text columns take the lexicographically greatest value.
func Peak(results iter.Seq[Result]) (Result, error) {
	var best Result

	for result := range results {
		if best == nil {
			best = normalize(result)

			continue
		}

		next, err := maximum(best, result)
		if err != nil {
			return nil, fmt.Errorf("peak: %w", err)
		}

		best = next
	}

	if best == nil {
		return nil, fmt.Errorf("peak: %w", ErrEmptyAggregation)
	}

	return best, nil
}

func fold(results iter.Seq[Result]) (Result, int, error) {
	var (
		sum   Result
		count int
	)

	for result := range results {
		count++

		if sum == nil {
			sum = normalize(result)

			continue
		}

		next, err := sum.Add(result)
		if err != nil {
			return nil, 0, fmt.Errorf("total: %w", err)
		}

		sum = next
	}

	if count == 0 {
		return nil, 0, ErrEmptyAggregation
	}

	return sum, count, nil
}

//nolint:gochecknoglobals // Immutable name table.
var aggregations = map[string]Aggregation{
	"collect": Collect,
	"total":   Total,
	"average": Average,
	"peak":    Peak,
}

// AggregationNames lists the aggregation names, sorted.
func AggregationNames() []string {
	names := make([]string, 0, len(aggregations))
	for name := range aggregations {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// AggregationByName resolves an aggregation by name.
func AggregationByName(name string) (Aggregation, error) {
	aggregation, ok := aggregations[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAggregation, name)
	}

	return aggregation, nil
}

// Results adapts a slice to a sequence.
func Results(results ...Result) iter.Seq[Result] {
	return slices.Values(results)
}
