// Package kpi computes KPI tables from cleaned trips, masking each metric with its own
// QA rules read from the pre-clean flag table.
package kpi

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/domain/entity"
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/shared/types"
)

// Aggregator computes the daily, weekly, monthly, time-bin and zone/time tables.
type Aggregator struct {
	metrics []MetricSpec
}

// NewAggregator validates metrics. A nil list uses DefaultMetrics.
func NewAggregator(metrics []MetricSpec) (*Aggregator, error) {
	if metrics == nil {
		metrics = DefaultMetrics()
	}
	if err := ValidateMetrics(metrics); err != nil {
		return nil, err
	}
	return &Aggregator{metrics: metrics}, nil
}

// Metrics returns the configured metric specs.
func (a *Aggregator) Metrics() []MetricSpec { return append([]MetricSpec(nil), a.metrics...) }

// masked holds, per metric, the record positions the metric may use.
type masked struct {
	records []entity.TripRecord
	include [][]bool
}

// mask resolves each record against the original flag table.
func (a *Aggregator) mask(records []entity.TripRecord, flags *entity.QAFlagTable) (*masked, error) {
	for _, m := range a.metrics {
		if err := flags.Require(m.Exclude...); err != nil {
			return nil, fmt.Errorf("metric %s: %w", m.Column, err)
		}
	}

	rows := make([]int, len(records))
	for pos := range records {
		row, ok := flags.RowOf(records[pos].Index)
		if !ok {
			return nil, fmt.Errorf("%w: record index %d has no row in the flag table", types.ErrSchema, records[pos].Index)
		}
		rows[pos] = row
	}

	include := make([][]bool, len(a.metrics))
	for i, m := range a.metrics {
		include[i] = make([]bool, len(records))
		for pos, row := range rows {
			include[i][pos] = !flags.AnyOf(row, m.Exclude)
		}
	}
	return &masked{records: records, include: include}, nil
}

// Aggregate builds every KPI table. records are the cleaned trips; flags is the flag table
// before cleaning, from which per-metric masks are drawn. Neither is modified.
func (a *Aggregator) Aggregate(records []entity.TripRecord, flags *entity.QAFlagTable, period entity.Period) (*entity.KPITables, error) {
	mk, err := a.mask(records, flags)
	if err != nil {
		return nil, err
	}

	tables := &entity.KPITables{
		Daily:   a.rows(mk, entity.GranularityDaily, groupByTime(records, period, dayBucket)),
		Weekly:  a.rows(mk, entity.GranularityWeekly, groupByTime(records, period, weekBucket)),
		Monthly: a.rows(mk, entity.GranularityMonthly, groupByTime(records, period, monthBucket)),
		TimeBin: a.rows(mk, entity.GranularityTimeBin, groupByTimeBin(records, period)),
	}
	applyIndex100(tables.Daily)
	tables.ZoneTime = a.zoneTime(mk)
	return tables, nil
}

func (a *Aggregator) rows(mk *masked, g entity.Granularity, groups []*group) []entity.KPIRow {
	out := make([]entity.KPIRow, len(groups))
	for i, grp := range groups {
		out[i] = a.row(mk, g, grp)
	}
	return out
}

func (a *Aggregator) row(mk *masked, g entity.Granularity, grp *group) entity.KPIRow {
	row := entity.KPIRow{
		Granularity:    g,
		Bucket:         grp.Label,
		Start:          grp.Start,
		End:            grp.End,
		TotalTrips:     len(grp.rows),
		DurationP50:    entity.NaN(),
		DurationP95:    entity.NaN(),
		SpeedP50:       entity.NaN(),
		DistanceP50:    entity.NaN(),
		DistanceP95:    entity.NaN(),
		AvgDistance:    entity.NaN(),
		RevenuePerTrip: entity.NaN(),
		RevenuePerMile: entity.NaN(),
		Index100ByDay:  entity.NaN(),
	}

	switch {
	case g == entity.GranularityDaily:
		row.Date = grp.Start.Format(time.DateOnly)
		row.DayOfWeek = grp.Start.Weekday().String()
	case len(grp.rows) > 0:
		first := mk.records[grp.rows[0]]
		row.Date = first.PickupDatetime.Format(time.DateOnly)
		row.DayOfWeek = first.PickupDayOfWeek
	}

	for i, m := range a.metrics {
		rows := make([]int, 0, len(grp.rows))
		for _, pos := range grp.rows {
			if mk.include[i][pos] {
				rows = append(rows, pos)
			}
		}
		assign(&row, m.Column, m.evaluate(mk.records, rows))
	}

	row.BinRates = binRates(mk.records, grp.rows)
	return row
}

// binRates counts pickups and dropoffs per hour of each time bin.
func binRates(records []entity.TripRecord, rows []int) []entity.BinRate {
	pickups := make([]int, len(entity.TimeBins))
	dropoffs := make([]int, len(entity.TimeBins))
	for _, pos := range rows {
		r := &records[pos]
		if r.HasPickup() {
			if i := entity.TimeBinIndex(r.PickupDatetime.Hour()); i >= 0 {
				pickups[i]++
			}
		}
		if r.HasDropoff() {
			if i := entity.TimeBinIndex(r.DropoffDatetime.Hour()); i >= 0 {
				dropoffs[i]++
			}
		}
	}

	rates := make([]entity.BinRate, len(entity.TimeBins))
	for i, b := range entity.TimeBins {
		h := float64(b.Hours())
		rates[i] = entity.BinRate{
			Label:          b.Label,
			PickupPerHour:  float64(pickups[i]) / h,
			DropoffPerHour: float64(dropoffs[i]) / h,
		}
	}
	return rates
}

// applyIndex100 scales each day's trips against the first day. A first day with no trips
// uses a baseline of 1.
func applyIndex100(daily []entity.KPIRow) {
	if len(daily) == 0 {
		return
	}
	base := float64(daily[0].Trips)
	if base == 0 {
		base = 1
	}
	for i := range daily {
		daily[i].Index100ByDay = entity.Metric(float64(daily[i].Trips) / base * 100)
	}
}

// zoneTime builds one row per observed (pickup zone, time bin). Trips without a resolved
// pickup zone or pickup timestamp are left out.
func (a *Aggregator) zoneTime(mk *masked) []entity.ZoneTimeKPI {
	type key struct {
		zone string
		bin  int
	}
	groups := make(map[key]*group)
	for pos := range mk.records {
		r := &mk.records[pos]
		if r.PUZone == "" || !r.HasPickup() {
			continue
		}
		bin := entity.TimeBinIndex(r.PickupDatetime.Hour())
		if bin < 0 {
			continue
		}
		k := key{zone: r.PUZone, bin: bin}
		g, ok := groups[k]
		if !ok {
			g = &group{bucket: bucket{Label: entity.TimeBins[bin].Label}}
			groups[k] = g
		}
		g.rows = append(g.rows, pos)
	}

	keys := make([]key, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].zone != keys[j].zone {
			return keys[i].zone < keys[j].zone
		}
		return keys[i].bin < keys[j].bin
	})

	out := make([]entity.ZoneTimeKPI, len(keys))
	var totalTrips float64
	for i, k := range keys {
		row := a.row(mk, entity.GranularityZoneTime, groups[k])
		out[i] = entity.ZoneTimeKPI{
			Zone:            k.zone,
			TimeBin:         entity.TimeBins[k.bin].Label,
			DurationP50:     row.DurationP50,
			DurationP95:     row.DurationP95,
			SpeedP50:        row.SpeedP50,
			AvgTripDistance: row.AvgDistance,
			Trips:           row.Trips,
		}
		totalTrips += float64(row.Trips)
	}

	if len(out) == 0 {
		return out
	}
	mean := totalTrips / float64(len(out))
	if mean == 0 || math.IsNaN(mean) {
		mean = 1
	}
	for i := range out {
		out[i].TripsIndex100 = entity.Metric(float64(out[i].Trips) / mean * 100)
	}
	return out
}
