package entity

import (
	"fmt"

	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/shared/types"
)

// QAFlagTable holds one boolean column per rule, aligned row by row with a TripRecord batch.
// Each row also remembers the original batch index of its trip so that a filtered table can
// still be joined back to records. TotalViolations and IsGarbageRow are only set by the cleaner.
type QAFlagTable struct {
	rules    []RuleName
	columns  map[RuleName][]bool
	index    []int
	position map[int]int

	totalViolations []int
	isGarbageRow    []bool
}

// NewQAFlagTable allocates an all-false table for the given rules, one row per original index.
func NewQAFlagTable(rules []RuleName, index []int) *QAFlagTable {
	t := &QAFlagTable{
		rules:    append([]RuleName(nil), rules...),
		columns:  make(map[RuleName][]bool, len(rules)),
		index:    append([]int(nil), index...),
		position: make(map[int]int, len(index)),
	}
	for _, r := range rules {
		t.columns[r] = make([]bool, len(index))
	}
	for row, idx := range index {
		t.position[idx] = row
	}
	return t
}

// Len returns the number of rows.
func (t *QAFlagTable) Len() int { return len(t.index) }

// Rules returns the rule columns in table order.
func (t *QAFlagTable) Rules() []RuleName { return append([]RuleName(nil), t.rules...) }

// Has reports whether the table carries a column for rule.
func (t *QAFlagTable) Has(rule RuleName) bool {
	_, ok := t.columns[rule]
	return ok
}

// Require fails with a schema error naming every rule column that is absent.
func (t *QAFlagTable) Require(rules ...RuleName) error {
	var missing []RuleName
	for _, r := range rules {
		if !t.Has(r) {
			missing = append(missing, r)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: flag table has no column(s) %v", types.ErrSchema, missing)
	}
	return nil
}

// Set writes a flag. It is meant for the engine while the table is being built.
func (t *QAFlagTable) Set(rule RuleName, row int, value bool) {
	t.columns[rule][row] = value
}

// Flag returns the flag of rule at row. Unknown rules read as false; call Require first.
func (t *QAFlagTable) Flag(rule RuleName, row int) bool {
	col, ok := t.columns[rule]
	if !ok {
		return false
	}
	return col[row]
}

// Column returns a copy of a rule column.
func (t *QAFlagTable) Column(rule RuleName) ([]bool, error) {
	col, ok := t.columns[rule]
	if !ok {
		return nil, fmt.Errorf("%w: flag table has no column %q", types.ErrSchema, rule)
	}
	return append([]bool(nil), col...), nil
}

// Count returns how many rows have rule set.
func (t *QAFlagTable) Count(rule RuleName) int {
	n := 0
	for _, v := range t.columns[rule] {
		if v {
			n++
		}
	}
	return n
}

// Index returns the original batch index of every row.
func (t *QAFlagTable) Index() []int { return append([]int(nil), t.index...) }

// RowOf returns the row holding the original batch index idx.
func (t *QAFlagTable) RowOf(idx int) (int, bool) {
	row, ok := t.position[idx]
	return row, ok
}

// AnyOf reports whether any of rules is set at row.
func (t *QAFlagTable) AnyOf(row int, rules []RuleName) bool {
	for _, r := range rules {
		if t.Flag(r, row) {
			return true
		}
	}
	return false
}

// Any reports whether any rule column is set at row.
func (t *QAFlagTable) Any(row int) bool { return t.AnyOf(row, t.rules) }

// SumOf counts the flags set at row over rules.
func (t *QAFlagTable) SumOf(row int, rules []RuleName) int {
	n := 0
	for _, r := range rules {
		if t.Flag(r, row) {
			n++
		}
	}
	return n
}

// HasDerived reports whether the cleaner columns are present.
func (t *QAFlagTable) HasDerived() bool { return t.totalViolations != nil }

// TotalViolations returns a copy of the total_violations column, nil before cleaning.
func (t *QAFlagTable) TotalViolations() []int {
	if t.totalViolations == nil {
		return nil
	}
	return append([]int(nil), t.totalViolations...)
}

// IsGarbageRow returns a copy of the is_garbage_row column, nil before cleaning.
func (t *QAFlagTable) IsGarbageRow() []bool {
	if t.isGarbageRow == nil {
		return nil
	}
	return append([]bool(nil), t.isGarbageRow...)
}

// WithDerived returns a copy of the table carrying the two cleaner columns.
func (t *QAFlagTable) WithDerived(totalViolations []int, isGarbageRow []bool) (*QAFlagTable, error) {
	if len(totalViolations) != t.Len() || len(isGarbageRow) != t.Len() {
		return nil, fmt.Errorf("%w: derived columns have %d/%d rows, table has %d",
			types.ErrSchema, len(totalViolations), len(isGarbageRow), t.Len())
	}
	c := t.Clone()
	c.totalViolations = append([]int(nil), totalViolations...)
	c.isGarbageRow = append([]bool(nil), isGarbageRow...)
	return c, nil
}

// Clone returns a deep copy.
func (t *QAFlagTable) Clone() *QAFlagTable {
	c := NewQAFlagTable(t.rules, t.index)
	for r, col := range t.columns {
		copy(c.columns[r], col)
	}
	if t.totalViolations != nil {
		c.totalViolations = append([]int(nil), t.totalViolations...)
	}
	if t.isGarbageRow != nil {
		c.isGarbageRow = append([]bool(nil), t.isGarbageRow...)
	}
	return c
}

// Filter returns the rows where keep is true, in their original order.
func (t *QAFlagTable) Filter(keep []bool) (*QAFlagTable, error) {
	if len(keep) != t.Len() {
		return nil, fmt.Errorf("%w: keep mask has %d rows, table has %d", types.ErrSchema, len(keep), t.Len())
	}
	var rows []int
	for row, k := range keep {
		if k {
			rows = append(rows, row)
		}
	}

	index := make([]int, len(rows))
	for i, row := range rows {
		index[i] = t.index[row]
	}
	f := NewQAFlagTable(t.rules, index)
	for r, col := range t.columns {
		dst := f.columns[r]
		for i, row := range rows {
			dst[i] = col[row]
		}
	}
	if t.totalViolations != nil {
		f.totalViolations = make([]int, len(rows))
		f.isGarbageRow = make([]bool, len(rows))
		for i, row := range rows {
			f.totalViolations[i] = t.totalViolations[row]
			f.isGarbageRow[i] = t.isGarbageRow[row]
		}
	}
	return f, nil
}
