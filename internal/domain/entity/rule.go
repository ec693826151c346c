package entity

// RuleName is the literal column name of a QA rule in the flag table.
type RuleName string

// RuleBand separates rules that always remove a row from rules that only flag it.
type RuleBand string

const (
	BandHard RuleBand = "hard"
	BandSoft RuleBand = "soft"
)

// Structural rules. A violation always removes the row.
const (
	RuleDuplicate        RuleName = "is_duplicate"
	RuleMissingDatetime  RuleName = "missing_datetime"
	RuleInvalidTimeOrder RuleName = "invalid_time_order"
	RuleInvalidMonth     RuleName = "invalid_month"
	RuleInvalidDuration  RuleName = "invalid_duration"
	RuleInvalidDistance  RuleName = "invalid_distance"
	RuleInvalidSpeed     RuleName = "invalid_speed"
)

// Flag rules. The row is kept but counted toward the garbage threshold and per-metric masks.
const (
	RuleSuspiciousZeroFare        RuleName = "suspicious_zero_fare"
	RuleShortDurationLongDistance RuleName = "short_duration_long_distance"
	RuleExcessiveSpeed            RuleName = "excessive_speed"
	RuleExcessiveDuration         RuleName = "excessive_duration"
	RuleInvalidFareAmount         RuleName = "invalid_fare_amount"
	RuleInvalidTipAmount          RuleName = "invalid_tip_amount"
	RuleInvalidExtraAmount        RuleName = "invalid_extra_amount"
	RuleInvalidTollsAmount        RuleName = "invalid_tolls_amount"
	RuleInvalidTotalAmount        RuleName = "invalid_total_amount"
	RuleFareTotalMismatch         RuleName = "fare_total_mismatch"
	RuleInvalidPaymentType        RuleName = "invalid_payment_type"
	RuleInvalidRatecode           RuleName = "invalid_ratecode"
	RuleInvalidPassengerCount     RuleName = "invalid_passenger_count"
	RuleInvalidZone               RuleName = "invalid_zone"
)

// RuleAnyViolation labels the summary entry for rows with at least one flag set. It is not a column.
const RuleAnyViolation RuleName = "any_violation"

// AllRules is the canonical, ordered rule set. Flag tables keep columns in this order.
var AllRules = []RuleName{
	RuleDuplicate,
	RuleMissingDatetime,
	RuleInvalidTimeOrder,
	RuleInvalidMonth,
	RuleInvalidDuration,
	RuleInvalidDistance,
	RuleInvalidSpeed,
	RuleSuspiciousZeroFare,
	RuleShortDurationLongDistance,
	RuleExcessiveSpeed,
	RuleExcessiveDuration,
	RuleInvalidFareAmount,
	RuleInvalidTipAmount,
	RuleInvalidExtraAmount,
	RuleInvalidTollsAmount,
	RuleInvalidTotalAmount,
	RuleFareTotalMismatch,
	RuleInvalidPaymentType,
	RuleInvalidRatecode,
	RuleInvalidPassengerCount,
	RuleInvalidZone,
}

// DefaultHardExclude lists the structural rules removed unconditionally by the cleaner.
var DefaultHardExclude = []RuleName{
	RuleDuplicate,
	RuleMissingDatetime,
	RuleInvalidTimeOrder,
	RuleInvalidMonth,
	RuleInvalidDuration,
	RuleInvalidDistance,
	RuleInvalidSpeed,
}

// Band returns the band a known rule belongs to.
func (r RuleName) Band() RuleBand {
	for _, h := range DefaultHardExclude {
		if h == r {
			return BandHard
		}
	}
	return BandSoft
}

// Known reports whether r is part of the canonical rule set.
func (r RuleName) Known() bool {
	for _, known := range AllRules {
		if known == r {
			return true
		}
	}
	return false
}

// ToRuleNames converts raw strings into rule names, returning the ones that are not known.
func ToRuleNames(names []string) ([]RuleName, []string) {
	rules := make([]RuleName, 0, len(names))
	var unknown []string
	for _, n := range names {
		r := RuleName(n)
		if !r.Known() {
			unknown = append(unknown, n)
			continue
		}
		rules = append(rules, r)
	}
	return rules, unknown
}
