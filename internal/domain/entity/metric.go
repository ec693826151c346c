package entity

import (
	"encoding/json"
	"math"
	"strconv"
)

// Metric is a KPI value that may be undefined (empty group, zero denominator).
// Undefined values are NaN in memory and null in JSON.
type Metric float64

// NaN returns an undefined metric.
func NaN() Metric { return Metric(math.NaN()) }

// Valid reports whether the metric holds a finite number.
func (m Metric) Valid() bool {
	f := float64(m)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Float64 returns the raw value.
func (m Metric) Float64() float64 { return float64(m) }

// Ptr returns nil for undefined metrics, used by storage adapters that map NaN to NULL.
func (m Metric) Ptr() *float64 {
	if !m.Valid() {
		return nil
	}
	f := float64(m)
	return &f
}

// String renders the value with two decimals, "NaN" when undefined.
func (m Metric) String() string {
	if !m.Valid() {
		return "NaN"
	}
	return strconv.FormatFloat(float64(m), 'f', 2, 64)
}

func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(m))
}

func (m *Metric) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = NaN()
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*m = Metric(f)
	return nil
}
