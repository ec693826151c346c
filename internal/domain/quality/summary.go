package quality

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/domain/entity"
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/shared/stats"
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/shared/types"
)

// Summarize counts violations per rule column, plus one any_violation entry for rows with
// at least one flag. Percentages are rounded to 2 decimals per rule and 3 for any_violation.
func Summarize(flags *entity.QAFlagTable) []entity.RuleSummary {
	total := flags.Len()
	rules := flags.Rules()
	out := make([]entity.RuleSummary, 0, len(rules)+1)
	for _, rule := range rules {
		count := flags.Count(rule)
		out = append(out, summaryLine(rule, rule.Band(), count, total, 2))
	}

	anyCount := 0
	for row := 0; row < total; row++ {
		if flags.Any(row) {
			anyCount++
		}
	}
	out = append(out, summaryLine(entity.RuleAnyViolation, "", anyCount, total, 3))
	return out
}

func summaryLine(rule entity.RuleName, band entity.RuleBand, count, total, decimals int) entity.RuleSummary {
	pct := 0.0
	if total > 0 {
		scale := math.Pow(10, float64(decimals))
		pct = math.Round(float64(count)/float64(total)*100*scale) / scale
	}
	return entity.RuleSummary{
		Rule:    rule,
		Band:    band,
		Count:   count,
		Percent: pct,
		Text:    fmt.Sprintf("%d/%s%%", count, formatPercent(pct)),
	}
}

// formatPercent prints the shortest representation, keeping one decimal for whole numbers (12.0).
func formatPercent(pct float64) string {
	s := strconv.FormatFloat(pct, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// SoftTotals returns, per row, the number of flags set outside hardExclude.
func SoftTotals(flags *entity.QAFlagTable, hardExclude []entity.RuleName) ([]int, error) {
	if err := flags.Require(hardExclude...); err != nil {
		return nil, err
	}
	policy := entity.ExclusionPolicy{HardExclude: hardExclude}
	soft := policy.SoftRules(flags.Rules())

	totals := make([]int, flags.Len())
	for row := range totals {
		totals[row] = flags.SumOf(row, soft)
	}
	return totals, nil
}

// RecommendThreshold derives a garbage threshold from the data: the 95th percentile
// (linear interpolation) of per-row soft violation totals, floored. For integer totals
// "total > floor(p95)" excludes exactly the rows above the percentile.
// An empty table falls back to the default threshold.
func RecommendThreshold(flags *entity.QAFlagTable, hardExclude []entity.RuleName) (int, error) {
	totals, err := SoftTotals(flags, hardExclude)
	if err != nil {
		return 0, err
	}
	if len(totals) == 0 {
		return entity.DefaultGarbageThreshold, nil
	}

	values := make([]float64, len(totals))
	for i, v := range totals {
		values[i] = float64(v)
	}
	p95 := stats.Quantile(values, 0.95)
	if math.IsNaN(p95) {
		return 0, fmt.Errorf("%w: cannot derive threshold from %d rows", types.ErrSchema, len(totals))
	}
	return int(math.Floor(p95)), nil
}
