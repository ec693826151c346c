// Package forecast scores simple next-days models on the tail of a daily KPI series.
package forecast

import (
	"errors"
	"fmt"
	"math"

	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/domain/entity"
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/shared/stats"
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/shared/types"
)

// SeasonalLag is the weekly season of a daily series.
const SeasonalLag = 7

// DefaultTestPeriods is the number of held-out days.
const DefaultTestPeriods = 7

// ErrSeriesTooShort means there are not enough days to train and score the models.
var ErrSeriesTooShort = errors.New("series too short to forecast")

var columns = map[string]func(r entity.KPIRow) float64{
	"trips":        func(r entity.KPIRow) float64 { return float64(r.Trips) },
	"Total_trips":  func(r entity.KPIRow) float64 { return float64(r.TotalTrips) },
	"Total_fare":   func(r entity.KPIRow) float64 { return r.TotalFare },
	"Total_amount": func(r entity.KPIRow) float64 { return r.TotalAmount },
}

// Evaluate holds out the last testPeriods daily rows and scores a seasonal-naive baseline
// (the value SeasonalLag days earlier) and a linear trend fitted on the remaining days.
func Evaluate(daily []entity.KPIRow, column string, testPeriods int) (*entity.ForecastResult, error) {
	value, ok := columns[column]
	if !ok {
		return nil, fmt.Errorf("%w: cannot forecast column %q", types.ErrConfig, column)
	}
	if testPeriods <= 0 {
		return nil, fmt.Errorf("%w: forecast test periods must be > 0, got %d", types.ErrConfig, testPeriods)
	}
	if len(daily) < testPeriods+SeasonalLag {
		return nil, fmt.Errorf("%w: %d days, need at least %d", ErrSeriesTooShort, len(daily), testPeriods+SeasonalLag)
	}

	series := make([]float64, len(daily))
	for i, r := range daily {
		series[i] = value(r)
	}
	split := len(series) - testPeriods

	xs := make([]float64, split)
	for i := range xs {
		xs[i] = float64(i)
	}
	slope, intercept, fitted := stats.LinearFit(xs, series[:split])

	result := &entity.ForecastResult{ValueColumn: column, TestPeriods: testPeriods}
	var actual, baseline, trend []float64
	for i := split; i < len(series); i++ {
		p := entity.ForecastPoint{
			Date:      daily[i].Bucket,
			Actual:    series[i],
			Baseline:  entity.Metric(series[i-SeasonalLag]),
			LinearFit: entity.NaN(),
		}
		if fitted {
			p.LinearFit = entity.Metric(slope*float64(i) + intercept)
		}
		result.Predictions = append(result.Predictions, p)
		actual = append(actual, p.Actual)
		baseline = append(baseline, p.Baseline.Float64())
		trend = append(trend, p.LinearFit.Float64())
	}

	result.Scores = []entity.ForecastScore{
		{Model: entity.ModelSeasonalNaive, MAE: entity.Metric(MAE(actual, baseline)), MAPE: entity.Metric(MAPE(actual, baseline))},
		{Model: entity.ModelLinearTrend, MAE: entity.Metric(MAE(actual, trend)), MAPE: entity.Metric(MAPE(actual, trend))},
	}
	return result, nil
}

// MAE is the mean absolute error over pairs where the prediction is defined.
func MAE(actual, predicted []float64) float64 {
	errs := make([]float64, 0, len(actual))
	for i := range actual {
		if math.IsNaN(predicted[i]) {
			continue
		}
		errs = append(errs, math.Abs(actual[i]-predicted[i]))
	}
	return stats.Mean(errs)
}

// MAPE is the mean absolute percentage error. Zero actuals are skipped.
func MAPE(actual, predicted []float64) float64 {
	errs := make([]float64, 0, len(actual))
	for i := range actual {
		if actual[i] == 0 || math.IsNaN(predicted[i]) {
			continue
		}
		errs = append(errs, math.Abs((actual[i]-predicted[i])/actual[i])*100)
	}
	return stats.Mean(errs)
}
