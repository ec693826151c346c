package kpi

import (
	"fmt"
	"math"

	"github.com/hashicorp/go-multierror"

	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/domain/entity"
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/shared/stats"
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/shared/types"
)

// Field is a numeric TripRecord column a metric reads.
type Field string

const (
	FieldDuration Field = "trip_duration_minutes"
	FieldSpeed    Field = "avg_speed_mph"
	FieldDistance Field = "trip_distance"
	FieldFare     Field = "fare_amount"
	FieldTotal    Field = "total_amount"
	FieldTip      Field = "tip_amount"
)

var fieldReaders = map[Field]func(r *entity.TripRecord) float64{
	FieldDuration: func(r *entity.TripRecord) float64 { return r.DurationMinutes },
	FieldSpeed:    func(r *entity.TripRecord) float64 { return r.AvgSpeedMPH },
	FieldDistance: func(r *entity.TripRecord) float64 { return r.TripDistance },
	FieldFare:     func(r *entity.TripRecord) float64 { return r.FareAmount },
	FieldTotal:    func(r *entity.TripRecord) float64 { return r.TotalAmount },
	FieldTip:      func(r *entity.TripRecord) float64 { return r.TipAmount },
}

// Value reads the field from r. Unknown fields read as NaN.
func (f Field) Value(r *entity.TripRecord) float64 {
	read, ok := fieldReaders[f]
	if !ok {
		return math.NaN()
	}
	return read(r)
}

func (f Field) known() bool {
	_, ok := fieldReaders[f]
	return ok
}

// Statistic is the reduction applied to a metric's masked values.
type Statistic string

const (
	StatCount Statistic = "count"
	StatSum   Statistic = "sum"
	StatMean  Statistic = "mean"
	StatP50   Statistic = "p50"
	StatP95   Statistic = "p95"
	// StatRatio is sum(Field) / sum(Denominator) over the same masked rows.
	StatRatio Statistic = "ratio"
)

// Output columns a MetricSpec can fill.
const (
	ColumnTotalFare      = "Total_fare"
	ColumnTotalAmount    = "Total_amount"
	ColumnDurationP50    = "duration_p50"
	ColumnDurationP95    = "duration_p95"
	ColumnSpeedP50       = "speed_p50"
	ColumnDistanceP50    = "distance_p50"
	ColumnDistanceP95    = "distance_p95"
	ColumnAvgDistance    = "avg_distance"
	ColumnTrips          = "trips"
	ColumnRevenuePerTrip = "revenue_per_trip"
	ColumnRevenuePerMile = "revenue_per_mile"
)

// MetricSpec declares one KPI column: which field, which statistic, and which QA rules
// remove a row from this metric only. Masks are read from the pre-clean flag table.
type MetricSpec struct {
	Column      string
	Field       Field
	Statistic   Statistic
	Exclude     []entity.RuleName
	Denominator Field
}

var (
	durationMask = []entity.RuleName{entity.RuleExcessiveDuration, entity.RuleShortDurationLongDistance}
	speedMask    = []entity.RuleName{entity.RuleExcessiveSpeed}
	distanceMask = []entity.RuleName{entity.RuleSuspiciousZeroFare, entity.RuleShortDurationLongDistance}
	fareMask     = []entity.RuleName{entity.RuleInvalidFareAmount}
	totalMask    = []entity.RuleName{entity.RuleInvalidTotalAmount, entity.RuleFareTotalMismatch}
)

// DefaultMetrics is the standard KPI configuration.
func DefaultMetrics() []MetricSpec {
	return []MetricSpec{
		{Column: ColumnTrips, Field: FieldDistance, Statistic: StatCount},
		{Column: ColumnTotalFare, Field: FieldFare, Statistic: StatSum, Exclude: fareMask},
		{Column: ColumnTotalAmount, Field: FieldTotal, Statistic: StatSum, Exclude: totalMask},
		{Column: ColumnDurationP50, Field: FieldDuration, Statistic: StatP50, Exclude: durationMask},
		{Column: ColumnDurationP95, Field: FieldDuration, Statistic: StatP95, Exclude: durationMask},
		{Column: ColumnSpeedP50, Field: FieldSpeed, Statistic: StatP50, Exclude: speedMask},
		{Column: ColumnDistanceP50, Field: FieldDistance, Statistic: StatP50, Exclude: distanceMask},
		{Column: ColumnDistanceP95, Field: FieldDistance, Statistic: StatP95, Exclude: distanceMask},
		{Column: ColumnAvgDistance, Field: FieldDistance, Statistic: StatMean, Exclude: distanceMask},
		{Column: ColumnRevenuePerTrip, Field: FieldFare, Statistic: StatMean, Exclude: fareMask},
		{Column: ColumnRevenuePerMile, Field: FieldFare, Statistic: StatRatio, Denominator: FieldDistance, Exclude: fareMask},
	}
}

// ValidateMetrics reports every malformed spec at once.
func ValidateMetrics(specs []MetricSpec) error {
	var result *multierror.Error
	seen := make(map[string]bool, len(specs))
	for _, m := range specs {
		if !knownColumn(m.Column) {
			result = multierror.Append(result, fmt.Errorf("%w: unknown KPI column %q", types.ErrConfig, m.Column))
		}
		if seen[m.Column] {
			result = multierror.Append(result, fmt.Errorf("%w: KPI column %q configured twice", types.ErrConfig, m.Column))
		}
		seen[m.Column] = true
		if !m.Field.known() {
			result = multierror.Append(result, fmt.Errorf("%w: %s: unknown field %q", types.ErrConfig, m.Column, m.Field))
		}
		switch m.Statistic {
		case StatCount, StatSum, StatMean, StatP50, StatP95:
		case StatRatio:
			if !m.Denominator.known() {
				result = multierror.Append(result, fmt.Errorf("%w: %s: ratio needs a denominator field", types.ErrConfig, m.Column))
			}
		default:
			result = multierror.Append(result, fmt.Errorf("%w: %s: unknown statistic %q", types.ErrConfig, m.Column, m.Statistic))
		}
		for _, r := range m.Exclude {
			if !r.Known() {
				result = multierror.Append(result, fmt.Errorf("%w: %s: unknown mask rule %q", types.ErrConfig, m.Column, r))
			}
		}
	}
	return result.ErrorOrNil()
}

// evaluate reduces the masked rows of one group.
func (m MetricSpec) evaluate(records []entity.TripRecord, rows []int) float64 {
	values := make([]float64, len(rows))
	for i, pos := range rows {
		values[i] = m.Field.Value(&records[pos])
	}

	switch m.Statistic {
	case StatCount:
		return float64(stats.Count(values))
	case StatSum:
		return stats.Sum(values)
	case StatMean:
		return stats.Mean(values)
	case StatP50:
		return stats.Quantile(values, 0.5)
	case StatP95:
		return stats.Quantile(values, 0.95)
	case StatRatio:
		if len(rows) == 0 {
			return math.NaN()
		}
		den := make([]float64, len(rows))
		for i, pos := range rows {
			den[i] = m.Denominator.Value(&records[pos])
		}
		return stats.Ratio(stats.Sum(values), stats.Sum(den))
	}
	return math.NaN()
}

func knownColumn(column string) bool {
	var probe entity.KPIRow
	return assign(&probe, column, 0)
}

// assign writes v into the KPIRow field named by column.
func assign(row *entity.KPIRow, column string, v float64) bool {
	switch column {
	case ColumnTotalFare:
		row.TotalFare = v
	case ColumnTotalAmount:
		row.TotalAmount = v
	case ColumnDurationP50:
		row.DurationP50 = entity.Metric(v)
	case ColumnDurationP95:
		row.DurationP95 = entity.Metric(v)
	case ColumnSpeedP50:
		row.SpeedP50 = entity.Metric(v)
	case ColumnDistanceP50:
		row.DistanceP50 = entity.Metric(v)
	case ColumnDistanceP95:
		row.DistanceP95 = entity.Metric(v)
	case ColumnAvgDistance:
		row.AvgDistance = entity.Metric(v)
	case ColumnTrips:
		row.Trips = int(v)
	case ColumnRevenuePerTrip:
		row.RevenuePerTrip = entity.Metric(v)
	case ColumnRevenuePerMile:
		row.RevenuePerMile = entity.Metric(v)
	default:
		return false
	}
	return true
}
