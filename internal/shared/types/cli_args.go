package types

// CLIArgs represents the command-line arguments.
type CLIArgs struct {
	ConfigFile    string
	Months        []string
	Input         string
	Zones         string
	HardExclude   []string
	Rules         []string
	Threshold     int
	AutoThreshold bool
	ReportName    string
	ReportType    []string
	Dir           string
	MetricsFile   string
	Profile       string
	Region        string
	ForecastDays  int
	Parallel      int
	LogLevel      string

	// Limits overrides the quality rule limits; only non-zero fields apply.
	Limits QualityLimits
}

// MonthPlaceholder in Input is replaced by the period being processed (YYYY-MM).
const MonthPlaceholder = "{month}"
