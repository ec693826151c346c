package entity

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Granularity identifies the grouping key of a KPI table.
type Granularity string

const (
	GranularityDaily    Granularity = "daily"
	GranularityWeekly   Granularity = "weekly"
	GranularityMonthly  Granularity = "monthly"
	GranularityTimeBin  Granularity = "time_bin"
	GranularityZoneTime Granularity = "zone_time"
)

// TimeBin is a fixed hour-of-day bucket, [StartHour, EndHour).
type TimeBin struct {
	Label     string `json:"label"`
	StartHour int    `json:"start_hour"`
	EndHour   int    `json:"end_hour"`
}

// Hours returns the width of the bin.
func (b TimeBin) Hours() int { return b.EndHour - b.StartHour }

// TimeBins are the six intraday buckets, in order.
var TimeBins = []TimeBin{
	{Label: "Early Morning", StartHour: 0, EndHour: 4},
	{Label: "Morning", StartHour: 4, EndHour: 7},
	{Label: "Morning Rush", StartHour: 7, EndHour: 10},
	{Label: "Midday", StartHour: 10, EndHour: 16},
	{Label: "Evening Rush", StartHour: 16, EndHour: 19},
	{Label: "Late Night", StartHour: 19, EndHour: 24},
}

// TimeBinIndex returns the position in TimeBins of the bin containing hour, -1 outside [0,24).
func TimeBinIndex(hour int) int {
	for i, b := range TimeBins {
		if hour >= b.StartHour && hour < b.EndHour {
			return i
		}
	}
	return -1
}

// BinRate is the number of pickups and dropoffs per hour inside one time bin of a bucket.
type BinRate struct {
	Label          string  `json:"label"`
	PickupPerHour  float64 `json:"pickup_per_hour"`
	DropoffPerHour float64 `json:"dropoff_per_hour"`
}

// String renders the rate as "pickup / dropoff", both rounded to two decimals.
func (b BinRate) String() string {
	return fmt.Sprintf("%s / %s", formatRate(b.PickupPerHour), formatRate(b.DropoffPerHour))
}

func formatRate(v float64) string {
	s := strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
	if !strings.ContainsAny(s, ".N") {
		s += ".0"
	}
	return s
}

// KPIRow is one time bucket of a KPI table. Column names in JSON are the literal names
// downstream consumers key off.
type KPIRow struct {
	Granularity Granularity `json:"granularity"`
	Bucket      string      `json:"bucket"`
	Start       time.Time   `json:"start"`
	End         time.Time   `json:"end"`

	Date       string `json:"Date"`
	DayOfWeek  string `json:"Day_of_Week"`
	TotalTrips int    `json:"Total_trips"`
	Trips      int    `json:"trips"`

	TotalFare   float64 `json:"Total_fare"`
	TotalAmount float64 `json:"Total_amount"`

	DurationP50 Metric `json:"duration_p50"`
	DurationP95 Metric `json:"duration_p95"`
	SpeedP50    Metric `json:"speed_p50"`
	DistanceP50 Metric `json:"distance_p50"`
	DistanceP95 Metric `json:"distance_p95"`
	AvgDistance Metric `json:"avg_distance"`

	RevenuePerTrip Metric `json:"revenue_per_trip"`
	RevenuePerMile Metric `json:"revenue_per_mile"`

	BinRates      []BinRate `json:"bin_rates,omitempty"`
	Index100ByDay Metric    `json:"index_100_by_day"`
}

// ZoneTimeKPI is one (pickup zone, time bin) cell feeding zone/time segmentation.
type ZoneTimeKPI struct {
	Zone            string `json:"zone"`
	TimeBin         string `json:"time_bin"`
	DurationP50     Metric `json:"duration_p50"`
	DurationP95     Metric `json:"duration_p95"`
	SpeedP50        Metric `json:"speed_p50"`
	AvgTripDistance Metric `json:"avg_trip_distance"`
	Trips           int    `json:"trips"`
	TripsIndex100   Metric `json:"trips_index_100"`
}

// KPITables groups every table computed for one reporting period.
type KPITables struct {
	Daily    []KPIRow      `json:"daily"`
	Weekly   []KPIRow      `json:"weekly"`
	Monthly  []KPIRow      `json:"monthly"`
	TimeBin  []KPIRow      `json:"time_bin"`
	ZoneTime []ZoneTimeKPI `json:"zone_time"`
}
