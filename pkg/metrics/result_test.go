package metrics_test

import (
	"encoding/json"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/codemetrics/pkg/metrics"
	"github.com/Sumatoshi-tech/codemetrics/pkg/syntax"
)

func namedX(value float64) *metrics.Named {
	return metrics.NewNamed().Set("x", metrics.Number(value))
}

func TestResult_Add(t *testing.T) {
	t.Parallel()

	sum, err := metrics.Number(1).Add(metrics.Number(2))
	require.NoError(t, err)
	assert.Equal(t, metrics.Number(3), sum)

	mixed, err := metrics.Tuple{metrics.Number(1), metrics.Text("f")}.Add(metrics.Tuple{metrics.Number(2), metrics.Text("g")})
	require.NoError(t, err)
	assert.True(t, mixed.Equal(metrics.Tuple{metrics.Number(3), metrics.Missing{}}))

	named, err := namedX(1).Add(namedX(2))
	require.NoError(t, err)
	assert.True(t, named.Equal(namedX(3)))

	leaf, err := metrics.Text("a").Add(metrics.Number(1))
	require.NoError(t, err)
	assert.Equal(t, metrics.Missing{}, leaf)
}

func TestResult_ShapeMismatch(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		left, right metrics.Result
	}{
		{"tuple arity", metrics.Tuple{metrics.Number(1)}, metrics.Tuple{metrics.Number(1), metrics.Number(2)}},
		{"tuple and leaf", metrics.Tuple{metrics.Number(1)}, metrics.Number(1)},
		{"leaf and tuple", metrics.Number(1), metrics.Tuple{metrics.Number(1)}},
		{"different keys", namedX(1), metrics.NewNamed().Set("y", metrics.Number(1))},
		{"named and tuple", namedX(1), metrics.Tuple{metrics.Number(1)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := tc.left.Add(tc.right)
			require.ErrorIs(t, err, metrics.ErrShapeMismatch)
		})
	}
}

func TestResult_Div(t *testing.T) {
	t.Parallel()

	assert.Equal(t, metrics.Number(1.5), metrics.Number(3).Div(2))
	assert.Equal(t, metrics.Missing{}, metrics.Number(3).Div(0))
	assert.Equal(t, metrics.Missing{}, metrics.Text("a").Div(2))
	assert.Equal(t, metrics.Missing{}, metrics.Missing{}.Div(2))

	tuple := metrics.Tuple{metrics.Number(3), metrics.Text("q")}.Div(2)
	assert.True(t, tuple.Equal(metrics.Tuple{metrics.Number(1.5), metrics.Missing{}}))
	assert.True(t, namedX(3).Div(2).Equal(namedX(1.5)))
}

func TestResult_Less(t *testing.T) {
	t.Parallel()

	assert.True(t, metrics.Number(1).Less(metrics.Number(2)))
	assert.True(t, metrics.Text("a").Less(metrics.Text("b")))
	assert.True(t, metrics.Missing{}.Less(metrics.Number(-5)))
	assert.True(t, metrics.Number(99).Less(metrics.Text("")))
	assert.False(t, metrics.Missing{}.Less(metrics.Missing{}))
	assert.True(t, metrics.Tuple{metrics.Number(1), metrics.Number(9)}.Less(metrics.Tuple{metrics.Number(2), metrics.Number(0)}))
	assert.True(t, metrics.Tuple{metrics.Number(1)}.Less(metrics.Tuple{metrics.Number(1), metrics.Number(0)}))
	assert.True(t, namedX(1).Less(namedX(2)))
}

func TestNamed_Order(t *testing.T) {
	t.Parallel()

	named := metrics.NewNamed().
		Set("b", metrics.Number(1)).
		Set("a", metrics.Text("q")).
		Set("b", metrics.Number(7))

	assert.Equal(t, []string{"b", "a"}, named.Keys())

	value, ok := named.Get("b")
	require.True(t, ok)
	assert.Equal(t, metrics.Number(7), value)

	var keys []string
	for key := range named.Pairs() {
		keys = append(keys, key)
	}

	assert.Equal(t, []string{"b", "a"}, keys)
	assert.Equal(t, "{b: 7, a: q}", named.String())
}

func TestNamed_JSONAndYAML(t *testing.T) {
	t.Parallel()

	named := metrics.NewNamed().
		Set("qualname", metrics.Text("m.f")).
		Set("method_length", metrics.Number(3)).
		Set("missing", metrics.Missing{}).
		Set("pair", metrics.Tuple{metrics.Number(1), metrics.Number(2.5)})

	encoded, err := json.Marshal(named)
	require.NoError(t, err)
	assert.JSONEq(t, `{"qualname":"m.f","method_length":3,"missing":null,"pair":[1,2.5]}`, string(encoded))
	assert.Equal(t, `{"qualname":"m.f","method_length":3,"missing":null,"pair":[1,2.5]}`, string(encoded))

	var decoded metrics.Named
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, named.Keys(), decoded.Keys())
	assert.True(t, named.Equal(&decoded))

	encodedYAML, err := yaml.Marshal(named)
	require.NoError(t, err)

	var fromYAML metrics.Named
	require.NoError(t, yaml.Unmarshal(encodedYAML, &fromYAML))
	assert.Equal(t, named.Keys(), fromYAML.Keys())
	assert.True(t, named.Equal(&fromYAML))
}

func TestAggregations(t *testing.T) {
	t.Parallel()

	numbers := func() []metrics.Result {
		return []metrics.Result{metrics.Number(1), metrics.Number(2), metrics.Number(3)}
	}
	tuples := []metrics.Result{metrics.Tuple{metrics.Number(1)}, metrics.Tuple{metrics.Number(2)}}
	nameds := []metrics.Result{namedX(1), namedX(2)}

	tests := []struct {
		name        string
		aggregation metrics.Aggregation
		input       []metrics.Result
		want        metrics.Result
	}{
		{"average numbers", metrics.Average, numbers(), metrics.Number(2)},
		{"average tuples", metrics.Average, tuples, metrics.Tuple{metrics.Number(1.5)}},
		{"average named", metrics.Average, nameds, namedX(1.5)},
		{"total numbers", metrics.Total, numbers(), metrics.Number(6)},
		{"total tuples", metrics.Total, tuples, metrics.Tuple{metrics.Number(3)}},
		{"total named", metrics.Total, nameds, namedX(3)},
		{"peak numbers", metrics.Peak, numbers(), metrics.Number(3)},
		{"peak tuples", metrics.Peak, tuples, metrics.Tuple{metrics.Number(2)}},
		{"peak named", metrics.Peak, nameds, namedX(2)},
		{"peak columns", metrics.Peak, []metrics.Result{
			metrics.Tuple{metrics.Number(1), metrics.Number(5)},
			metrics.Tuple{metrics.Number(3), metrics.Number(2)},
		}, metrics.Tuple{metrics.Number(3), metrics.Number(5)}},
		{"peak text", metrics.Peak, []metrics.Result{
			metrics.Tuple{metrics.Text("apple"), metrics.Number(1)},
			metrics.Tuple{metrics.Text("pear"), metrics.Number(0)},
		}, metrics.Tuple{metrics.Text("pear"), metrics.Number(1)}},
		{"collect", metrics.Collect, numbers(), metrics.Tuple(numbers())},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := tt.aggregation(slices.Values(tt.input))
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestAggregations_SinglePass(t *testing.T) {
	t.Parallel()

	reads := 0
	once := func(yield func(metrics.Result) bool) {
		for _, value := range []float64{2, 4, 6} {
			reads++
			if !yield(metrics.Number(value)) {
				return
			}
		}
	}

	average, err := metrics.Average(once)
	require.NoError(t, err)
	assert.Equal(t, metrics.Number(4), average)
	assert.Equal(t, 3, reads)
}

func TestAggregations_Laws(t *testing.T) {
	t.Parallel()

	r := metrics.NewNamed().Set("a", metrics.Number(2)).Set("b", metrics.Number(7))

	average, err := metrics.Average(metrics.Results(r, r, r))
	require.NoError(t, err)
	assert.True(t, r.Equal(average))

	values := metrics.Results(metrics.Number(4), metrics.Number(4), metrics.Number(4))

	total, err := metrics.Total(values)
	require.NoError(t, err)

	mean, err := metrics.Average(values)
	require.NoError(t, err)

	scaled, ok := metrics.Float(mean)
	require.True(t, ok)
	assert.Equal(t, total, metrics.Number(scaled*3))
}

func TestAggregations_Empty(t *testing.T) {
	t.Parallel()

	for _, aggregation := range []metrics.Aggregation{metrics.Total, metrics.Average, metrics.Peak} {
		_, err := aggregation(metrics.Results())
		require.ErrorIs(t, err, metrics.ErrEmptyAggregation)
	}

	collected, err := metrics.Collect(metrics.Results())
	require.NoError(t, err)
	assert.Equal(t, metrics.Tuple{}, collected)
}

func TestAggregationByName(t *testing.T) {
	t.Parallel()

	for _, name := range metrics.AggregationNames() {
		_, err := metrics.AggregationByName(name)
		require.NoError(t, err)
	}

	_, err := metrics.AggregationByName("median")
	require.ErrorIs(t, err, metrics.ErrUnknownAggregation)
}

func TestCompounders(t *testing.T) {
	t.Parallel()

	sub := def("sub", []string{"x", "y"}, ret(syntax.NewBinOp("-", name("x"), name("y"))))
	statementCount := metrics.New("statement_count", func(n *syntax.Node) (metrics.Result, error) {
		return metrics.Number(metrics.StatementCount(n)), nil
	})
	totalCount := metrics.New("total_statement_count", func(n *syntax.Node) (metrics.Result, error) {
		return metrics.Number(metrics.TotalStatementCount(n)), nil
	})

	tupled, err := metrics.TupleMetrics(statementCount, totalCount).Measure(sub)
	require.NoError(t, err)
	assert.True(t, metrics.Tuple{metrics.Number(0), metrics.Number(1)}.Equal(tupled))

	named, err := metrics.NameMetrics(statementCount, totalCount).Measure(sub)
	require.NoError(t, err)
	assert.True(t, metrics.NewNamed().
		Set("statement_count", metrics.Number(0)).
		Set("total_statement_count", metrics.Number(1)).Equal(named))

	assert.Equal(t, "statement_count,total_statement_count", metrics.NameMetrics(statementCount, totalCount).Name())
}

func TestCompounders_PositionMatchesName(t *testing.T) {
	t.Parallel()

	standard := metrics.Standard()

	for _, method := range []*syntax.Node{divMethod(), addMethod(), getWords(), sumOfPrimes()} {
		tupled, err := metrics.TupleMetrics(standard...).Measure(method)
		require.NoError(t, err)

		named, err := metrics.NameMetrics(standard...).Measure(method)
		require.NoError(t, err)

		byName, ok := named.(*metrics.Named)
		require.True(t, ok)

		for idx, metric := range standard {
			value, found := byName.Get(metric.Name())
			require.True(t, found)
			assert.Equal(t, tupled.(metrics.Tuple)[idx], value) //nolint:forcetypeassert // tuple compounder
		}
	}
}

func TestCompounders_PropagateErrors(t *testing.T) {
	t.Parallel()

	_, err := metrics.NameMetrics(metrics.Standard()...).Measure(syntax.New(syntax.KindImport))
	require.ErrorIs(t, err, metrics.ErrWrongNodeKind)
}

func TestUtilityMetrics(t *testing.T) {
	t.Parallel()

	method := def("method", []string{"self"}, syntax.NewPass()).At(4)
	module := syntax.NewModule("pkg/mod.py", syntax.NewClass("Klass", method))
	module.Name = "pkg.mod"

	tests := []struct {
		metric metrics.Metric
		want   metrics.Result
	}{
		{metrics.MethodName, metrics.Text("method")},
		{metrics.MethodQualname, metrics.Text("pkg.mod.Klass.method")},
		{metrics.MethodFile, metrics.Text("pkg/mod.py")},
		{metrics.MethodLine, metrics.Number(4)},
		{metrics.NodeTypeName, metrics.Text("FunctionDef")},
	}

	for _, tt := range tests {
		got, err := tt.metric.Measure(method)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.metric.Name())
	}

	bare := def("free", nil, syntax.NewPass())
	assert.Equal(t, "free", metrics.Qualname(bare))
}

func TestLookup(t *testing.T) {
	t.Parallel()

	for _, label := range []string{"length", "method_length", "Method-Length"} {
		metric, err := metrics.Lookup(label)
		require.NoError(t, err)
		assert.Equal(t, "method_length", metric.Name())
	}

	resolved, err := metrics.LookupAll([]string{"cognitive_complexity", "qualname"})
	require.NoError(t, err)
	assert.Equal(t, []string{"method_cognitive_complexity", "method_qualname"}, metrics.Names(resolved))

	_, err = metrics.Lookup("halstead")
	require.ErrorIs(t, err, metrics.ErrUnknownMetric)

	assert.Equal(t, "working_memory", metrics.ShortName("method_working_memory"))
	assert.Equal(t,
		[]string{"method_length", "method_cyclomatic_complexity", "method_cognitive_complexity", "method_working_memory"},
		metrics.Names(metrics.Standard()))
}
