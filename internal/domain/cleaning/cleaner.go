// Package cleaning applies the two-tier exclusion policy to a flagged trip batch.
package cleaning

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/domain/entity"
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/shared/types"
)

// Result is the cleaner output. Records and Flags are row-aligned and keep input order.
// Annotated is the full input table with total_violations and is_garbage_row added.
type Result struct {
	Records   []entity.TripRecord
	Flags     *entity.QAFlagTable
	Annotated *entity.QAFlagTable
	Stats     entity.CleaningStats
}

// ValidatePolicy checks the policy on its own: a non-negative threshold and known rule names.
// All problems are returned together.
func ValidatePolicy(policy entity.ExclusionPolicy) error {
	var result *multierror.Error
	if policy.Threshold < 0 {
		result = multierror.Append(result, fmt.Errorf("%w: garbage threshold must be >= 0, got %d", types.ErrConfig, policy.Threshold))
	}
	for _, r := range policy.HardExclude {
		if !r.Known() {
			result = multierror.Append(result, fmt.Errorf("%w: unknown hard-exclude rule %q", types.ErrConfig, r))
		}
	}
	return result.ErrorOrNil()
}

// Clean removes every row flagged by a hard-exclude rule and every row whose soft violation
// count is strictly greater than the threshold. Neither input is modified.
func Clean(records []entity.TripRecord, flags *entity.QAFlagTable, policy entity.ExclusionPolicy) (*Result, error) {
	if err := ValidatePolicy(policy); err != nil {
		return nil, err
	}
	if err := flags.Require(policy.HardExclude...); err != nil {
		return nil, err
	}
	if err := checkAligned(records, flags); err != nil {
		return nil, err
	}

	soft := policy.SoftRules(flags.Rules())
	n := flags.Len()
	totals := make([]int, n)
	garbage := make([]bool, n)
	keep := make([]bool, n)

	stats := entity.CleaningStats{
		InputRows:   n,
		HardFlagged: make(map[entity.RuleName]int, len(policy.HardExclude)),
		Threshold:   policy.Threshold,
	}
	for _, r := range policy.HardExclude {
		stats.HardFlagged[r] = flags.Count(r)
	}

	for row := 0; row < n; row++ {
		totals[row] = flags.SumOf(row, soft)
		garbage[row] = totals[row] > policy.Threshold
		if garbage[row] {
			stats.GarbageRows++
		}
		keep[row] = !garbage[row] && !flags.AnyOf(row, policy.HardExclude)
	}

	annotated, err := flags.WithDerived(totals, garbage)
	if err != nil {
		return nil, err
	}
	cleanedFlags, err := annotated.Filter(keep)
	if err != nil {
		return nil, err
	}

	cleaned := make([]entity.TripRecord, 0, cleanedFlags.Len())
	for row, k := range keep {
		if k {
			cleaned = append(cleaned, records[row])
		}
	}

	stats.KeptRows = len(cleaned)
	stats.ExcludedRows = n - len(cleaned)
	return &Result{
		Records:   cleaned,
		Flags:     cleanedFlags,
		Annotated: annotated,
		Stats:     stats,
	}, nil
}

func checkAligned(records []entity.TripRecord, flags *entity.QAFlagTable) error {
	if len(records) != flags.Len() {
		return fmt.Errorf("%w: %d records but %d flag rows", types.ErrSchema, len(records), flags.Len())
	}
	index := flags.Index()
	for row := range records {
		if records[row].Index != index[row] {
			return fmt.Errorf("%w: record at row %d has index %d, flag row has %d",
				types.ErrSchema, row, records[row].Index, index[row])
		}
	}
	return nil
}
