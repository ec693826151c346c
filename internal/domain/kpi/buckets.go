package kpi

import (
	"sort"
	"time"

	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/domain/entity"
)

// bucket is one time key. Start is inclusive, End exclusive.
type bucket struct {
	Label string
	Start time.Time
	End   time.Time
}

// group is a bucket plus the positions of its records in the aggregated slice.
type group struct {
	bucket
	rows []int
}

type bucketFunc func(t time.Time) bucket

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func dayBucket(t time.Time) bucket {
	start := midnight(t)
	return bucket{Label: start.Format(time.DateOnly), Start: start, End: start.AddDate(0, 0, 1)}
}

// weekBucket groups Monday..Sunday and labels the week by its Sunday.
func weekBucket(t time.Time) bucket {
	day := midnight(t)
	sunday := day.AddDate(0, 0, (7-int(day.Weekday()))%7)
	return bucket{Label: sunday.Format(time.DateOnly), Start: sunday.AddDate(0, 0, -6), End: sunday.AddDate(0, 0, 1)}
}

// monthBucket labels the month by its last day.
func monthBucket(t time.Time) bucket {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	return bucket{Label: end.AddDate(0, 0, -1).Format(time.DateOnly), Start: start, End: end}
}

// groupByTime buckets records by pickup time. Every bucket touching the period exists even
// when empty; records without a pickup timestamp belong to no bucket.
func groupByTime(records []entity.TripRecord, period entity.Period, fn bucketFunc) []*group {
	byLabel := make(map[string]*group)
	ensure := func(b bucket) *group {
		g, ok := byLabel[b.Label]
		if !ok {
			g = &group{bucket: b}
			byLabel[b.Label] = g
		}
		return g
	}

	if !period.IsZero() {
		for _, d := range period.Days() {
			ensure(fn(d))
		}
	}
	for pos := range records {
		if !records[pos].HasPickup() {
			continue
		}
		g := ensure(fn(records[pos].PickupDatetime))
		g.rows = append(g.rows, pos)
	}

	groups := make([]*group, 0, len(byLabel))
	for _, g := range byLabel {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Start.Before(groups[j].Start) })
	return groups
}

// groupByTimeBin always returns the six intraday bins, keyed by pickup hour.
func groupByTimeBin(records []entity.TripRecord, period entity.Period) []*group {
	groups := make([]*group, len(entity.TimeBins))
	for i, b := range entity.TimeBins {
		groups[i] = &group{bucket: bucket{Label: b.Label}}
		if !period.IsZero() {
			groups[i].Start, groups[i].End = period.Start(), period.End()
		}
	}
	for pos := range records {
		if !records[pos].HasPickup() {
			continue
		}
		if i := entity.TimeBinIndex(records[pos].PickupDatetime.Hour()); i >= 0 {
			groups[i].rows = append(groups[i].rows, pos)
		}
	}
	return groups
}
