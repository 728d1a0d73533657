package config

// Default configuration values.
const (
	// DefaultWorkers selects one parsing worker per CPU.
	DefaultWorkers = 0
	// DefaultIncludeVendor keeps vendored trees out of discovery.
	DefaultIncludeVendor = false
	// DefaultSettingsFile is the project settings file holding thresholds.
	DefaultSettingsFile = "pyproject.toml"

	// DefaultFormat is the default output format.
	DefaultFormat = FormatTable
	// DefaultNoColor keeps colored assessment output.
	DefaultNoColor = false

	// DefaultCacheEnabled turns the parse cache on.
	DefaultCacheEnabled = true
	// DefaultCacheMaxSize is the in-memory cache budget.
	DefaultCacheMaxSize = "64MB"

	// DefaultLogLevel is the minimum log level.
	DefaultLogLevel = "warn"
	// DefaultLogJSON selects text log output.
	DefaultLogJSON = false
)

// Output formats.
const (
	FormatTable = "table"
	FormatPlain = "plain"
	FormatCSV   = "csv"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatPlot  = "plot"
)

// Formats returns every supported output format.
func Formats() []string {
	return []string{FormatTable, FormatPlain, FormatCSV, FormatJSON, FormatYAML, FormatPlot}
}
