package repository

import (
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/domain/entity"
)

// MetricsRepository records run metrics for monitoring.
type MetricsRepository interface {
	RecordReport(report *entity.PeriodReport)
	RecordFailure(period, stage string)
	// WriteTextfile writes every recorded metric to path in the Prometheus text format.
	WriteTextfile(path string) error
}
