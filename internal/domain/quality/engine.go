// Package quality evaluates the per-row data-quality rules over a normalized trip batch.
package quality

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/domain/entity"
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/shared/types"
)

// Engine produces a QAFlagTable with one column per configured rule.
// Rules are independent predicates over a single record and never read each other's flags.
type Engine struct {
	thresholds Thresholds
	rules      []entity.RuleName
}

// NewEngine builds an engine over the given rule names, in canonical order.
// No names selects every rule. Unknown names and invalid thresholds are reported together.
func NewEngine(thresholds Thresholds, ruleNames ...string) (*Engine, error) {
	var result *multierror.Error
	if err := thresholds.Validate(); err != nil {
		result = multierror.Append(result, err)
	}

	rules := entity.AllRules
	if len(ruleNames) > 0 {
		selected, unknown := entity.ToRuleNames(ruleNames)
		for _, u := range unknown {
			result = multierror.Append(result, fmt.Errorf("%w: unknown QA rule %q", types.ErrConfig, u))
		}
		rules = canonicalOrder(selected)
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}

	return &Engine{thresholds: thresholds, rules: rules}, nil
}

// Rules returns the rule columns the engine produces.
func (e *Engine) Rules() []entity.RuleName { return append([]entity.RuleName(nil), e.rules...) }

// Run evaluates every rule for every record. records is not modified.
func (e *Engine) Run(records []entity.TripRecord, period entity.Period) (*entity.QAFlagTable, error) {
	if period.IsZero() {
		return nil, fmt.Errorf("%w: a reporting period is required to check %s", types.ErrConfig, entity.RuleInvalidMonth)
	}

	b := &batch{
		records:   records,
		period:    period,
		th:        e.thresholds,
		ratecodes: make(map[int]bool, len(e.thresholds.ValidRatecodes)),
	}
	for _, code := range e.thresholds.ValidRatecodes {
		b.ratecodes[code] = true
	}
	if e.has(entity.RuleDuplicate) {
		b.duplicates = duplicateMask(records)
	}

	index := make([]int, len(records))
	for i := range records {
		index[i] = records[i].Index
	}
	if err := checkUniqueIndex(index); err != nil {
		return nil, err
	}

	flags := entity.NewQAFlagTable(e.rules, index)
	for _, rule := range e.rules {
		check := predicates[rule]
		for row := range records {
			if check(b, row) {
				flags.Set(rule, row, true)
			}
		}
	}
	return flags, nil
}

func (e *Engine) has(rule entity.RuleName) bool {
	for _, r := range e.rules {
		if r == rule {
			return true
		}
	}
	return false
}

func canonicalOrder(selected []entity.RuleName) []entity.RuleName {
	want := make(map[entity.RuleName]bool, len(selected))
	for _, r := range selected {
		want[r] = true
	}
	ordered := make([]entity.RuleName, 0, len(want))
	for _, r := range entity.AllRules {
		if want[r] {
			ordered = append(ordered, r)
		}
	}
	return ordered
}

func checkUniqueIndex(index []int) error {
	seen := make(map[int]struct{}, len(index))
	var dups []string
	for _, idx := range index {
		if _, ok := seen[idx]; ok {
			dups = append(dups, fmt.Sprint(idx))
			continue
		}
		seen[idx] = struct{}{}
	}
	if len(dups) > 0 {
		return fmt.Errorf("%w: record index is not unique (%s)", types.ErrSchema, strings.Join(dups, ", "))
	}
	return nil
}
