package metrics

// Info holds display metadata for a registered metric. Type is TypeCount
// for numeric metrics and TypeLabel for descriptive ones. Threshold is the
// default assess threshold, zero when the metric is not assessed.
type Info struct {
	Name        string `json:"name" yaml:"name"`
	DisplayName string `json:"display_name" yaml:"display_name"`
	Description string `json:"description" yaml:"description"`
	Type        string `json:"type" yaml:"type"`
	Threshold   int    `json:"threshold,omitempty" yaml:"threshold,omitempty"`
}

// Metric types.
const (
	TypeCount = "count"
	TypeLabel = "label"
)

// Default assess thresholds.
const (
	DefaultLengthThreshold        = 15
	DefaultCyclomaticThreshold    = 10
	DefaultCognitiveThreshold     = 10
	DefaultWorkingMemoryThreshold = 20
)

//nolint:gochecknoglobals // Static metric catalogue.
var catalogue = map[string]Info{
	"method_length": {
		DisplayName: "Length",
		Description: "Number of statements in the method body, nested statements included.",
		Type:        TypeCount,
		Threshold:   DefaultLengthThreshold,
	},
	"method_cyclomatic_complexity": {
		DisplayName: "Cyclomatic Complexity",
		Description: "Number of decision points: branches, loops, handlers, boolean operators and comprehension filters.",
		Type:        TypeCount,
		Threshold:   DefaultCyclomaticThreshold,
	},
	"method_cognitive_complexity": {
		DisplayName: "Cognitive Complexity",
		Description: "Structural increments weighted by nesting depth.",
		Type:        TypeCount,
		Threshold:   DefaultCognitiveThreshold,
	},
	"method_working_memory": {
		DisplayName: "Working Memory",
		Description: "Peak number of distinct names a reader must hold at any statement.",
		Type:        TypeCount,
		Threshold:   DefaultWorkingMemoryThreshold,
	},
	"method_name":     {DisplayName: "Name", Description: "Method name.", Type: TypeLabel},
	"method_qualname": {DisplayName: "Qualified Name", Description: "Dotted module, class and method path.", Type: TypeLabel},
	"method_file":     {DisplayName: "File", Description: "Path of the file defining the method.", Type: TypeLabel},
	"method_line":     {DisplayName: "Line", Description: "Line of the method definition.", Type: TypeLabel},
	"node_type_name":  {DisplayName: "Node Type", Description: "Kind of the measured node.", Type: TypeLabel},
}

// Describe returns the metadata of the named metric. The name is resolved
// as in Lookup.
func Describe(name string) (Info, error) {
	metric, err := Lookup(name)
	if err != nil {
		return Info{}, err
	}

	info := catalogue[metric.Name()]
	info.Name = metric.Name()

	return info, nil
}

// Catalogue describes every registered metric in registration order.
func Catalogue() []Info {
	all := All()
	out := make([]Info, 0, len(all))

	for _, metric := range all {
		info := catalogue[metric.Name()]
		info.Name = metric.Name()
		out = append(out, info)
	}

	return out
}

// DefaultThresholds maps each assessed metric to its default threshold.
func DefaultThresholds() map[string]int {
	out := make(map[string]int)

	for name, info := range catalogue {
		if info.Threshold > 0 {
			out[name] = info.Threshold
		}
	}

	return out
}

// RiskLevel grades how far a value exceeds its threshold.
type RiskLevel string

// Risk levels.
const (
	RiskCritical RiskLevel = "CRITICAL"
	RiskHigh     RiskLevel = "HIGH"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskLow      RiskLevel = "LOW"
)

// Risk grades value against threshold: at most the threshold is low, up to
// 1.5x medium, up to 2x high, and beyond that critical.
func Risk(value float64, threshold int) RiskLevel {
	limit := float64(threshold)

	switch {
	case value <= limit:
		return RiskLow
	case value <= limit*1.5:
		return RiskMedium
	case value <= limit*2:
		return RiskHigh
	default:
		return RiskCritical
	}
}
