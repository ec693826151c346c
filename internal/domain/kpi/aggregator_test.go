package kpi

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/domain/entity"
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/shared/types"
)

var january = entity.Period{Year: 2024, Month: time.January}

func trip(index int, pickup time.Time, minutes, miles, fare float64) entity.TripRecord {
	return entity.TripRecord{
		Index:           index,
		PickupDatetime:  pickup,
		DropoffDatetime: pickup.Add(time.Duration(minutes) * time.Minute),
		TripDistance:    miles,
		FareAmount:      fare,
		TotalAmount:     fare + 3,
		DurationMinutes: minutes,
		AvgSpeedMPH:     miles / (minutes / 60),
		PickupDayOfWeek: pickup.Weekday().String(),
		PUZone:          "Midtown Center",
	}
}

// flagsFor builds an all-rules table whose index covers every record plus extra rows,
// the way the pre-clean table covers rows the cleaner dropped.
func flagsFor(records []entity.TripRecord, extra int, set map[int][]entity.RuleName) *entity.QAFlagTable {
	var index []int
	for _, r := range records {
		index = append(index, r.Index)
	}
	for i := 0; i < extra; i++ {
		index = append(index, 1000+i)
	}
	flags := entity.NewQAFlagTable(entity.AllRules, index)
	for idx, rules := range set {
		row, _ := flags.RowOf(idx)
		for _, r := range rules {
			flags.Set(r, row, true)
		}
	}
	return flags
}

func aggregate(t *testing.T, records []entity.TripRecord, flags *entity.QAFlagTable) *entity.KPITables {
	t.Helper()
	agg, err := NewAggregator(nil)
	require.NoError(t, err)
	tables, err := agg.Aggregate(records, flags, january)
	require.NoError(t, err)
	return tables
}

func at(day, hour int) time.Time { return time.Date(2024, 1, day, hour, 0, 0, 0, time.UTC) }

func TestPerMetricMasksAreIndependent(t *testing.T) {
	records := []entity.TripRecord{
		trip(0, at(5, 9), 2000, 4, 20), // flagged excessive_duration only
		trip(1, at(5, 10), 10, 2, 10),
	}
	flags := flagsFor(records, 3, map[int][]entity.RuleName{0: {entity.RuleExcessiveDuration}})

	monthly := aggregate(t, records, flags).Monthly
	require.Len(t, monthly, 1)
	row := monthly[0]

	assert.Equal(t, entity.Metric(10), row.DurationP50)
	assert.Equal(t, entity.Metric(10), row.DurationP95)
	assert.Equal(t, entity.Metric(3), row.DistanceP50)
	assert.InDelta(t, 3.9, row.DistanceP95.Float64(), 1e-9)
	assert.Equal(t, entity.Metric(3), row.AvgDistance)
	assert.Equal(t, 2, row.Trips)
	assert.Equal(t, 2, row.TotalTrips)
	assert.Equal(t, 30.0, row.TotalFare)
}

func TestRevenueMetricsShareTheFareMask(t *testing.T) {
	records := []entity.TripRecord{
		trip(0, at(5, 9), 10, 8, -5), // invalid fare
		trip(1, at(5, 10), 10, 2, 10),
		trip(2, at(5, 11), 10, 3, 5),
	}
	flags := flagsFor(records, 0, map[int][]entity.RuleName{0: {entity.RuleInvalidFareAmount}})

	row := aggregate(t, records, flags).Monthly[0]
	assert.Equal(t, 15.0, row.TotalFare)
	assert.Equal(t, entity.Metric(7.5), row.RevenuePerTrip)
	// 15 / (2 + 3), the invalid row's 8 miles are not in the denominator
	assert.Equal(t, entity.Metric(3), row.RevenuePerMile)
}

func TestTotalAmountMask(t *testing.T) {
	records := []entity.TripRecord{
		trip(0, at(5, 9), 10, 2, 10),
		trip(1, at(5, 10), 10, 2, 20),
		trip(2, at(5, 11), 10, 2, 30),
	}
	flags := flagsFor(records, 0, map[int][]entity.RuleName{
		1: {entity.RuleFareTotalMismatch},
		2: {entity.RuleInvalidTotalAmount},
	})
	row := aggregate(t, records, flags).Monthly[0]
	assert.Equal(t, 13.0, row.TotalAmount)
	assert.Equal(t, 60.0, row.TotalFare)
}

func TestEarlyMorningOnly(t *testing.T) {
	records := []entity.TripRecord{
		trip(0, at(3, 0), 10, 1, 10),
		trip(1, at(3, 2), 20, 2, 10),
		trip(2, at(4, 3), 30, 3, 10),
	}
	bins := aggregate(t, records, flagsFor(records, 0, nil)).TimeBin
	require.Len(t, bins, 6)

	assert.Equal(t, "Early Morning", bins[0].Bucket)
	assert.Equal(t, 3, bins[0].Trips)
	assert.Equal(t, entity.Metric(20), bins[0].DurationP50)

	for _, b := range bins[1:] {
		assert.Equal(t, 0, b.Trips, b.Bucket)
		assert.Equal(t, 0, b.TotalTrips, b.Bucket)
		assert.False(t, b.DurationP50.Valid(), b.Bucket)
		assert.False(t, b.SpeedP50.Valid(), b.Bucket)
		assert.False(t, b.RevenuePerMile.Valid(), b.Bucket)
		assert.Equal(t, 0.0, b.TotalFare, b.Bucket)
	}
}

func TestDailyIndex100WithEmptyFirstDay(t *testing.T) {
	records := []entity.TripRecord{
		trip(0, at(2, 8), 10, 1, 10),
		trip(1, at(2, 9), 10, 1, 10),
		trip(2, at(3, 9), 10, 1, 10),
	}
	daily := aggregate(t, records, flagsFor(records, 0, nil)).Daily
	require.Len(t, daily, 31)

	assert.Equal(t, "2024-01-01", daily[0].Bucket)
	assert.Equal(t, "Monday", daily[0].DayOfWeek)
	assert.Equal(t, 0, daily[0].Trips)
	assert.Equal(t, entity.Metric(0), daily[0].Index100ByDay)
	assert.Equal(t, entity.Metric(200), daily[1].Index100ByDay)
	assert.Equal(t, entity.Metric(100), daily[2].Index100ByDay)
	assert.False(t, daily[0].DurationP50.Valid())
}

func TestDailyIndex100Baseline(t *testing.T) {
	records := []entity.TripRecord{
		trip(0, at(1, 8), 10, 1, 10),
		trip(1, at(1, 9), 10, 1, 10),
		trip(2, at(2, 9), 10, 1, 10),
	}
	daily := aggregate(t, records, flagsFor(records, 0, nil)).Daily
	assert.Equal(t, entity.Metric(100), daily[0].Index100ByDay)
	assert.Equal(t, entity.Metric(50), daily[1].Index100ByDay)
	assert.Equal(t, entity.Metric(0), daily[2].Index100ByDay)
}

func TestWeeklyAndMonthlyBuckets(t *testing.T) {
	records := []entity.TripRecord{
		trip(0, at(7, 23), 10, 1, 10),  // Sunday closes the first week
		trip(1, at(8, 0), 10, 1, 10),   // Monday opens the next
		trip(2, at(31, 12), 10, 1, 10), // Wednesday in the week ending Feb 4
	}
	tables := aggregate(t, records, flagsFor(records, 0, nil))

	var labels []string
	var trips []int
	for _, w := range tables.Weekly {
		labels = append(labels, w.Bucket)
		trips = append(trips, w.Trips)
	}
	assert.Equal(t, []string{"2024-01-07", "2024-01-14", "2024-01-21", "2024-01-28", "2024-02-04"}, labels)
	assert.Equal(t, []int{1, 1, 0, 0, 1}, trips)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), tables.Weekly[0].Start)
	assert.False(t, tables.Weekly[0].Index100ByDay.Valid())

	require.Len(t, tables.Monthly, 1)
	assert.Equal(t, "2024-01-31", tables.Monthly[0].Bucket)
	assert.Equal(t, 3, tables.Monthly[0].Trips)
	assert.Equal(t, "2024-01-07", tables.Monthly[0].Date)
	assert.Equal(t, "Sunday", tables.Monthly[0].DayOfWeek)
}

func TestBinRates(t *testing.T) {
	records := []entity.TripRecord{
		trip(0, at(5, 1), 10, 1, 10),
		trip(1, at(5, 3), 90, 1, 10), // drops off at 04:30
	}
	row := aggregate(t, records, flagsFor(records, 0, nil)).Daily[4]
	require.Len(t, row.BinRates, 6)
	assert.Equal(t, "0.5 / 0.25", row.BinRates[0].String())
	assert.Equal(t, "0.0 / 0.33", row.BinRates[1].String())
}

func TestZoneTime(t *testing.T) {
	a := trip(0, at(5, 8), 10, 1, 10)
	b := trip(1, at(6, 8), 20, 2, 10)
	c := trip(2, at(6, 20), 30, 3, 10)
	c.PUZone = "JFK Airport"
	d := trip(3, at(6, 21), 30, 3, 10)
	d.PUZone = ""
	records := []entity.TripRecord{a, b, c, d}

	zt := aggregate(t, records, flagsFor(records, 0, nil)).ZoneTime
	require.Len(t, zt, 2)

	assert.Equal(t, "JFK Airport", zt[0].Zone)
	assert.Equal(t, "Late Night", zt[0].TimeBin)
	assert.Equal(t, 1, zt[0].Trips)
	assert.InDelta(t, 66.666, zt[0].TripsIndex100.Float64(), 1e-3)

	assert.Equal(t, "Midtown Center", zt[1].Zone)
	assert.Equal(t, "Morning Rush", zt[1].TimeBin)
	assert.Equal(t, 2, zt[1].Trips)
	assert.Equal(t, entity.Metric(15), zt[1].DurationP50)
	assert.InDelta(t, 133.333, zt[1].TripsIndex100.Float64(), 1e-3)
}

func TestAggregateSchemaErrors(t *testing.T) {
	records := []entity.TripRecord{trip(0, at(5, 8), 10, 1, 10)}
	agg, err := NewAggregator(nil)
	require.NoError(t, err)

	partial := entity.NewQAFlagTable([]entity.RuleName{entity.RuleExcessiveSpeed}, []int{0})
	_, err = agg.Aggregate(records, partial, january)
	assert.True(t, errors.Is(err, types.ErrSchema))

	other := entity.NewQAFlagTable(entity.AllRules, []int{7})
	_, err = agg.Aggregate(records, other, january)
	assert.True(t, errors.Is(err, types.ErrSchema))
}

func TestAggregateDoesNotModifyInputs(t *testing.T) {
	records := []entity.TripRecord{trip(0, at(5, 8), 10, 1, 10)}
	flags := flagsFor(records, 1, map[int][]entity.RuleName{0: {entity.RuleExcessiveSpeed}})
	before := append([]entity.TripRecord(nil), records...)

	aggregate(t, records, flags)
	assert.Empty(t, cmp.Diff(before, records))
	assert.Equal(t, 2, flags.Len())
	assert.True(t, flags.Flag(entity.RuleExcessiveSpeed, 0))
}

func TestValidateMetrics(t *testing.T) {
	require.NoError(t, ValidateMetrics(DefaultMetrics()))

	err := ValidateMetrics([]MetricSpec{
		{Column: "nope", Field: FieldFare, Statistic: StatSum},
		{Column: ColumnSpeedP50, Field: "speed", Statistic: StatP50},
		{Column: ColumnRevenuePerMile, Field: FieldFare, Statistic: StatRatio},
		{Column: ColumnDurationP50, Field: FieldDuration, Statistic: "median", Exclude: []entity.RuleName{"late"}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrConfig))
	for _, want := range []string{`"nope"`, `"speed"`, "denominator", `"median"`, `"late"`} {
		assert.Contains(t, err.Error(), want)
	}

	_, err = NewAggregator([]MetricSpec{{Column: ColumnTrips, Field: FieldDistance, Statistic: "mode"}})
	assert.True(t, errors.Is(err, types.ErrConfig))
}

func TestKPIRowJSONUsesNullForUndefined(t *testing.T) {
	row := aggregate(t, nil, flagsFor(nil, 0, nil)).Daily[0]
	data, err := json.Marshal(row)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Nil(t, decoded["duration_p50"])
	assert.Equal(t, 0.0, decoded["Total_fare"])
	assert.Equal(t, 0.0, decoded["trips"])
	assert.Equal(t, 0.0, decoded["index_100_by_day"])
	assert.True(t, math.IsNaN(row.RevenuePerTrip.Float64()))
}
