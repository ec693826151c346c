// Package normalize turns raw trip rows into the enriched TripRecord schema.
package normalize

import (
	"math"

	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/domain/entity"
)

// PaymentTypeNames follows the TLC data dictionary.
var PaymentTypeNames = map[int]string{
	0: "Flex Fare trip",
	1: "Credit card",
	2: "Cash",
	3: "No charge",
	4: "Dispute",
	5: "Unknown",
	6: "Voided trip",
}

// RatecodeNames follows the TLC data dictionary.
var RatecodeNames = map[int]string{
	1: "Standard rate",
	2: "JFK",
	3: "Newark",
	4: "Nassau or Westchester",
	5: "Negotiated fare",
	6: "Group ride",
}

// Normalizer enriches raw trips with labels, zone names and derived duration/speed fields.
type Normalizer struct {
	zones entity.ZoneLookup
}

// NewNormalizer creates a Normalizer resolving locations against zones.
// A nil lookup leaves every zone unresolved.
func NewNormalizer(zones entity.ZoneLookup) *Normalizer {
	if zones == nil {
		zones = entity.ZoneLookup{}
	}
	return &Normalizer{zones: zones}
}

// Normalize maps every raw row to a TripRecord. Index is the row position in raw.
func (n *Normalizer) Normalize(raw []entity.RawTrip) []entity.TripRecord {
	records := make([]entity.TripRecord, len(raw))
	for i, r := range raw {
		records[i] = n.Trip(i, r)
	}
	return records
}

// Trip normalizes a single raw row.
func (n *Normalizer) Trip(index int, r entity.RawTrip) entity.TripRecord {
	rec := entity.TripRecord{
		Index:                index,
		PickupDatetime:       r.PickupDatetime,
		DropoffDatetime:      r.DropoffDatetime,
		PassengerCount:       r.PassengerCount,
		TripDistance:         r.TripDistance,
		RatecodeID:           r.RatecodeID,
		PULocationID:         r.PULocationID,
		DOLocationID:         r.DOLocationID,
		PaymentType:          r.PaymentType,
		FareAmount:           r.FareAmount,
		Extra:                r.Extra,
		MTATax:               r.MTATax,
		TipAmount:            r.TipAmount,
		TollsAmount:          r.TollsAmount,
		ImprovementSurcharge: r.ImprovementSurcharge,
		TotalAmount:          r.TotalAmount,
		CongestionSurcharge:  r.CongestionSurcharge,
		AirportFee:           r.AirportFee,
		RatecodeName:         label(RatecodeNames, r.RatecodeID),
		PaymentTypeName:      label(PaymentTypeNames, r.PaymentType),
	}

	rec.ComputedTotalAmount = ComputedTotal(r)

	rec.DurationSeconds = math.NaN()
	rec.DurationMinutes = math.NaN()
	rec.AvgSpeedMPH = math.NaN()
	if rec.HasPickup() && rec.HasDropoff() {
		rec.DurationSeconds = r.DropoffDatetime.Sub(r.PickupDatetime).Seconds()
		rec.DurationMinutes = math.RoundToEven(rec.DurationSeconds / 60)
		rec.AvgSpeedMPH = speed(r.TripDistance, rec.DurationSeconds)
	}
	if rec.HasPickup() {
		rec.PickupDayOfWeek = r.PickupDatetime.Weekday().String()
	}

	rec.PUBorough, rec.PUZone = n.zones.Resolve(r.PULocationID)
	rec.DOBorough, rec.DOZone = n.zones.Resolve(r.DOLocationID)
	return rec
}

// ComputedTotal sums the fare components a TLC total is made of. Missing components count as zero.
func ComputedTotal(r entity.RawTrip) float64 {
	parts := []float64{
		r.FareAmount,
		r.Extra,
		r.MTATax,
		r.TipAmount,
		r.TollsAmount,
		r.ImprovementSurcharge,
		r.CongestionSurcharge,
		r.AirportFee,
	}
	var total float64
	for _, p := range parts {
		if !math.IsNaN(p) {
			total += p
		}
	}
	return total
}

// speed returns miles per hour rounded to cents; a zero duration gives NaN instead of ±Inf.
func speed(distance, seconds float64) float64 {
	if math.IsNaN(distance) || seconds == 0 {
		return math.NaN()
	}
	mph := distance / (seconds / 3600)
	if math.IsInf(mph, 0) {
		return math.NaN()
	}
	return math.RoundToEven(mph*100) / 100
}

func label(names map[int]string, code float64) string {
	if math.IsNaN(code) || code != math.Trunc(code) {
		return ""
	}
	return names[int(code)]
}
