package quality

import (
	"math"
	"strconv"
	"strings"

	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/domain/entity"
)

// batch is the evaluation context shared by every rule over one run.
type batch struct {
	records    []entity.TripRecord
	period     entity.Period
	th         Thresholds
	ratecodes  map[int]bool
	duplicates []bool
}

// predicate reports whether the record at row violates a rule.
type predicate func(b *batch, row int) bool

// predicates binds every canonical rule to its check. NaN operands compare false,
// so a missing value never trips a rule unless the rule is about missing data.
var predicates = map[entity.RuleName]predicate{
	entity.RuleDuplicate: func(b *batch, row int) bool {
		return b.duplicates[row]
	},
	entity.RuleMissingDatetime: func(b *batch, row int) bool {
		r := &b.records[row]
		return !r.HasPickup() || !r.HasDropoff()
	},
	entity.RuleInvalidTimeOrder: func(b *batch, row int) bool {
		r := &b.records[row]
		return r.HasPickup() && r.HasDropoff() && r.DropoffDatetime.Before(r.PickupDatetime)
	},
	entity.RuleInvalidMonth: func(b *batch, row int) bool {
		r := &b.records[row]
		return r.HasPickup() && !b.period.Contains(r.PickupDatetime)
	},
	entity.RuleInvalidDuration: func(b *batch, row int) bool {
		return b.records[row].DurationMinutes <= 0
	},
	entity.RuleInvalidDistance: func(b *batch, row int) bool {
		return b.records[row].TripDistance <= 0
	},
	entity.RuleInvalidSpeed: func(b *batch, row int) bool {
		return b.records[row].AvgSpeedMPH <= 0
	},

	entity.RuleSuspiciousZeroFare: func(b *batch, row int) bool {
		r := &b.records[row]
		return r.FareAmount == 0 && r.TripDistance > 0
	},
	entity.RuleShortDurationLongDistance: func(b *batch, row int) bool {
		r := &b.records[row]
		return r.DurationMinutes < b.th.ShortDurationMinutes && r.TripDistance > b.th.LongDistanceMiles
	},
	entity.RuleExcessiveSpeed: func(b *batch, row int) bool {
		return b.records[row].AvgSpeedMPH > b.th.MaxSpeedMPH
	},
	entity.RuleExcessiveDuration: func(b *batch, row int) bool {
		return b.records[row].DurationMinutes > b.th.MaxDurationMinutes
	},
	entity.RuleInvalidFareAmount: func(b *batch, row int) bool {
		return b.records[row].FareAmount <= 0
	},
	entity.RuleInvalidTipAmount: func(b *batch, row int) bool {
		return b.records[row].TipAmount < 0
	},
	entity.RuleInvalidExtraAmount: func(b *batch, row int) bool {
		return b.records[row].Extra < 0
	},
	entity.RuleInvalidTollsAmount: func(b *batch, row int) bool {
		return b.records[row].TollsAmount < 0
	},
	entity.RuleInvalidTotalAmount: func(b *batch, row int) bool {
		return b.records[row].TotalAmount <= 0
	},
	entity.RuleFareTotalMismatch: func(b *batch, row int) bool {
		r := &b.records[row]
		return math.Abs(r.ComputedTotalAmount-r.TotalAmount) > b.th.FareTotalTolerance
	},
	entity.RuleInvalidPaymentType: func(b *batch, row int) bool {
		p := b.records[row].PaymentType
		return p < 0 || p > b.th.MaxPaymentType
	},
	entity.RuleInvalidRatecode: func(b *batch, row int) bool {
		code := b.records[row].RatecodeID
		if math.IsNaN(code) || code != math.Trunc(code) {
			return true
		}
		return !b.ratecodes[int(code)]
	},
	entity.RuleInvalidPassengerCount: func(b *batch, row int) bool {
		n := b.records[row].PassengerCount
		return n == 0 || n > b.th.MaxPassengerCount
	},
	entity.RuleInvalidZone: func(b *batch, row int) bool {
		r := &b.records[row]
		return r.PUBorough == "" || r.PUZone == "" || r.DOBorough == "" || r.DOZone == ""
	},
}

// duplicateMask marks every row that repeats an earlier row field for field.
// The first occurrence stays unflagged.
func duplicateMask(records []entity.TripRecord) []bool {
	seen := make(map[string]struct{}, len(records))
	dup := make([]bool, len(records))
	for i := range records {
		key := rowKey(&records[i])
		if _, ok := seen[key]; ok {
			dup[i] = true
			continue
		}
		seen[key] = struct{}{}
	}
	return dup
}

// rowKey serializes the source fields of a record. NaN formats as "NaN", so two missing
// cells compare equal the way a dataframe duplicate check treats them.
func rowKey(r *entity.TripRecord) string {
	var sb strings.Builder
	writeTime := func(hasValue bool, unixNano int64) {
		if hasValue {
			sb.WriteString(strconv.FormatInt(unixNano, 10))
		}
		sb.WriteByte('|')
	}
	writeFloat := func(v float64) {
		sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		sb.WriteByte('|')
	}

	writeTime(r.HasPickup(), r.PickupDatetime.UnixNano())
	writeTime(r.HasDropoff(), r.DropoffDatetime.UnixNano())
	writeFloat(r.PassengerCount)
	writeFloat(r.TripDistance)
	writeFloat(r.RatecodeID)
	sb.WriteString(strconv.Itoa(r.PULocationID))
	sb.WriteByte('|')
	sb.WriteString(strconv.Itoa(r.DOLocationID))
	sb.WriteByte('|')
	writeFloat(r.PaymentType)
	writeFloat(r.FareAmount)
	writeFloat(r.Extra)
	writeFloat(r.MTATax)
	writeFloat(r.TipAmount)
	writeFloat(r.TollsAmount)
	writeFloat(r.ImprovementSurcharge)
	writeFloat(r.TotalAmount)
	writeFloat(r.CongestionSurcharge)
	writeFloat(r.AirportFee)
	return sb.String()
}
