package types

// Config represents the application configuration that can be loaded from a file.
type Config struct {
	Months        []string      `json:"months" yaml:"months" toml:"months"`
	Input         string        `json:"input" yaml:"input" toml:"input"`
	ZoneLookup    string        `json:"zone_lookup" yaml:"zone_lookup" toml:"zone_lookup"`
	HardExclude   []string      `json:"hard_exclude" yaml:"hard_exclude" toml:"hard_exclude"`
	Rules         []string      `json:"rules" yaml:"rules" toml:"rules"`
	Threshold     *int          `json:"threshold" yaml:"threshold" toml:"threshold"`
	AutoThreshold bool          `json:"auto_threshold" yaml:"auto_threshold" toml:"auto_threshold"`
	ReportName    string        `json:"report_name" yaml:"report_name" toml:"report_name"`
	ReportType    []string      `json:"report_type" yaml:"report_type" toml:"report_type"`
	Dir           string        `json:"dir" yaml:"dir" toml:"dir"`
	MetricsFile   string        `json:"metrics_file" yaml:"metrics_file" toml:"metrics_file"`
	Profile       string        `json:"profile" yaml:"profile" toml:"profile"`
	Region        string        `json:"region" yaml:"region" toml:"region"`
	ForecastDays  int           `json:"forecast_days" yaml:"forecast_days" toml:"forecast_days"`
	Parallel      int           `json:"parallel" yaml:"parallel" toml:"parallel"`
	LogLevel      string        `json:"log_level" yaml:"log_level" toml:"log_level"`
	Limits        QualityLimits `json:"limits" yaml:"limits" toml:"limits"`
}

// QualityLimits overrides the numeric limits of the quality rules. Zero means default.
type QualityLimits struct {
	MaxSpeedMPH          float64 `json:"max_speed_mph" yaml:"max_speed_mph" toml:"max_speed_mph"`
	MaxDurationMinutes   float64 `json:"max_duration_minutes" yaml:"max_duration_minutes" toml:"max_duration_minutes"`
	ShortDurationMinutes float64 `json:"short_duration_minutes" yaml:"short_duration_minutes" toml:"short_duration_minutes"`
	LongDistanceMiles    float64 `json:"long_distance_miles" yaml:"long_distance_miles" toml:"long_distance_miles"`
	FareTotalTolerance   float64 `json:"fare_total_tolerance" yaml:"fare_total_tolerance" toml:"fare_total_tolerance"`
	MaxPassengerCount    float64 `json:"max_passenger_count" yaml:"max_passenger_count" toml:"max_passenger_count"`
	ValidRatecodes       []int   `json:"valid_ratecodes" yaml:"valid_ratecodes" toml:"valid_ratecodes"`
}
