package entity

// Forecast model names.
const (
	ModelSeasonalNaive = "Baseline"
	ModelLinearTrend   = "Linear Trend"
)

// ForecastScore is the hold-out error of one model.
type ForecastScore struct {
	Model string `json:"model"`
	MAE   Metric `json:"MAE"`
	MAPE  Metric `json:"MAPE (%)"`
}

// ForecastPoint is one held-out day with the actual value and each model's prediction.
type ForecastPoint struct {
	Date      string  `json:"date"`
	Actual    float64 `json:"actual"`
	Baseline  Metric  `json:"baseline_pred"`
	LinearFit Metric  `json:"trend_pred"`
}

// ForecastResult evaluates simple models on the tail of a daily KPI series.
type ForecastResult struct {
	ValueColumn string          `json:"value_column"`
	TestPeriods int             `json:"test_periods"`
	Scores      []ForecastScore `json:"metrics"`
	Predictions []ForecastPoint `json:"predictions"`
}
