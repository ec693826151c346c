package types

import (
	"errors"
	"fmt"
)

var (
	// ErrSchema signals a contract violation between stages: a column or row the stage needs is absent.
	ErrSchema = errors.New("schema error")
	// ErrConfig signals an invalid policy, threshold or rule name supplied by the caller.
	ErrConfig = errors.New("configuration error")

	ErrNoPeriods     = errors.New("no reporting period given. Use --month YYYY-MM or set months in the config file")
	ErrNoInput       = errors.New("no trip input given. Use --input or set input in the config file")
	ErrNoZoneLookup  = errors.New("no zone lookup given. Use --zones or set zone_lookup in the config file")
	ErrUnsupportedIO = errors.New("unsupported location")
)

// Pipeline stage names used in StageError.
const (
	StageLoad      = "load"
	StageNormalize = "normalize"
	StageQuality   = "quality"
	StageClean     = "clean"
	StageAggregate = "aggregate"
	StageForecast  = "forecast"
	StageExport    = "export"
)

// StageError names the period and pipeline stage that failed.
type StageError struct {
	Period string
	Stage  string
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("period %s: stage %s: %v", e.Period, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// NewStageError wraps err with its period and stage, or returns nil for a nil err.
func NewStageError(period, stage string, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Period: period, Stage: stage, Err: err}
}
