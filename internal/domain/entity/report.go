package entity

import "time"

// RuleSummary is one line of the QA summary: how many rows violate a rule.
// Text is the "count/pct%" rendering used in reports.
type RuleSummary struct {
	Rule    RuleName `json:"rule"`
	Band    RuleBand `json:"band,omitempty"`
	Count   int      `json:"count"`
	Percent float64  `json:"percent"`
	Text    string   `json:"text"`
}

// CleaningStats describes what the cleaner removed.
type CleaningStats struct {
	InputRows    int              `json:"input_rows"`
	KeptRows     int              `json:"kept_rows"`
	ExcludedRows int              `json:"excluded_rows"`
	GarbageRows  int              `json:"garbage_rows"`
	HardFlagged  map[RuleName]int `json:"hard_flagged"`
	Threshold    int              `json:"threshold"`
}

// PeriodReport is everything produced by one pipeline run over one reporting month.
type PeriodReport struct {
	RunID                string          `json:"run_id"`
	Period               string          `json:"period"`
	PeriodName           string          `json:"period_name"`
	Source               string          `json:"source"`
	GeneratedAt          time.Time       `json:"generated_at"`
	Policy               ExclusionPolicy `json:"policy"`
	RecommendedThreshold int             `json:"recommended_threshold"`
	QASummary            []RuleSummary   `json:"qa_summary"`
	Cleaning             CleaningStats   `json:"cleaning"`
	KPIs                 KPITables       `json:"kpis"`
	Forecast             *ForecastResult `json:"forecast,omitempty"`
}
