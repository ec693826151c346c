package quality

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/shared/types"
)

// Thresholds are the numeric limits used by the soft rules.
type Thresholds struct {
	MaxSpeedMPH          float64 `json:"max_speed_mph" yaml:"max_speed_mph" toml:"max_speed_mph"`
	MaxDurationMinutes   float64 `json:"max_duration_minutes" yaml:"max_duration_minutes" toml:"max_duration_minutes"`
	ShortDurationMinutes float64 `json:"short_duration_minutes" yaml:"short_duration_minutes" toml:"short_duration_minutes"`
	LongDistanceMiles    float64 `json:"long_distance_miles" yaml:"long_distance_miles" toml:"long_distance_miles"`
	FareTotalTolerance   float64 `json:"fare_total_tolerance" yaml:"fare_total_tolerance" toml:"fare_total_tolerance"`
	MaxPaymentType       float64 `json:"max_payment_type" yaml:"max_payment_type" toml:"max_payment_type"`
	MaxPassengerCount    float64 `json:"max_passenger_count" yaml:"max_passenger_count" toml:"max_passenger_count"`
	ValidRatecodes       []int   `json:"valid_ratecodes" yaml:"valid_ratecodes" toml:"valid_ratecodes"`
}

// DefaultThresholds returns the limits of the canonical rule set.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxSpeedMPH:          66,
		MaxDurationMinutes:   24 * 60,
		ShortDurationMinutes: 2,
		LongDistanceMiles:    10,
		FareTotalTolerance:   1,
		MaxPaymentType:       6,
		MaxPassengerCount:    5,
		ValidRatecodes:       []int{1, 2, 3, 4, 5, 6},
	}
}

// Merge returns t with every zero field taken from base.
func (t Thresholds) Merge(base Thresholds) Thresholds {
	if t.MaxSpeedMPH == 0 {
		t.MaxSpeedMPH = base.MaxSpeedMPH
	}
	if t.MaxDurationMinutes == 0 {
		t.MaxDurationMinutes = base.MaxDurationMinutes
	}
	if t.ShortDurationMinutes == 0 {
		t.ShortDurationMinutes = base.ShortDurationMinutes
	}
	if t.LongDistanceMiles == 0 {
		t.LongDistanceMiles = base.LongDistanceMiles
	}
	if t.FareTotalTolerance == 0 {
		t.FareTotalTolerance = base.FareTotalTolerance
	}
	if t.MaxPaymentType == 0 {
		t.MaxPaymentType = base.MaxPaymentType
	}
	if t.MaxPassengerCount == 0 {
		t.MaxPassengerCount = base.MaxPassengerCount
	}
	if len(t.ValidRatecodes) == 0 {
		t.ValidRatecodes = append([]int(nil), base.ValidRatecodes...)
	}
	return t
}

// Validate reports every negative limit at once.
func (t Thresholds) Validate() error {
	var result *multierror.Error
	check := func(name string, v float64) {
		if v < 0 {
			result = multierror.Append(result, fmt.Errorf("%w: %s must be >= 0, got %v", types.ErrConfig, name, v))
		}
	}
	check("max_speed_mph", t.MaxSpeedMPH)
	check("max_duration_minutes", t.MaxDurationMinutes)
	check("short_duration_minutes", t.ShortDurationMinutes)
	check("long_distance_miles", t.LongDistanceMiles)
	check("fare_total_tolerance", t.FareTotalTolerance)
	check("max_payment_type", t.MaxPaymentType)
	check("max_passenger_count", t.MaxPassengerCount)
	return result.ErrorOrNil()
}
