package entity

// DefaultGarbageThreshold is the soft-violation count above which a row is treated as garbage
// when the caller does not supply or derive a threshold.
const DefaultGarbageThreshold = 5

// ExclusionPolicy configures the cleaner: rules that always remove a row, and the maximum
// number of soft violations a kept row may carry.
type ExclusionPolicy struct {
	HardExclude []RuleName `json:"hard_exclude"`
	Threshold   int        `json:"threshold"`
	// ThresholdSource records where Threshold came from ("default", "config", "p95").
	ThresholdSource string `json:"threshold_source,omitempty"`
}

// DefaultExclusionPolicy returns the structural rules with the documented default threshold.
func DefaultExclusionPolicy() ExclusionPolicy {
	return ExclusionPolicy{
		HardExclude:     append([]RuleName(nil), DefaultHardExclude...),
		Threshold:       DefaultGarbageThreshold,
		ThresholdSource: "default",
	}
}

// IsHard reports whether rule is in the hard-exclude list.
func (p ExclusionPolicy) IsHard(rule RuleName) bool {
	for _, h := range p.HardExclude {
		if h == rule {
			return true
		}
	}
	return false
}

// SoftRules returns the rules of columns that are not hard-excluded, keeping column order.
func (p ExclusionPolicy) SoftRules(columns []RuleName) []RuleName {
	soft := make([]RuleName, 0, len(columns))
	for _, c := range columns {
		if !p.IsHard(c) {
			soft = append(soft, c)
		}
	}
	return soft
}
