package repository

import (
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/domain/entity"
)

// ExportRepository writes finished period reports. Every method returns the path(s) written.
type ExportRepository interface {
	// ExportToCSV writes one CSV per table (qa summary, daily, weekly, monthly, time bins, zone/time).
	ExportToCSV(reports []entity.PeriodReport, filename string, outputDir string) ([]string, error)
	ExportToJSON(reports []entity.PeriodReport, filename string, outputDir string) (string, error)
	ExportToPDF(reports []entity.PeriodReport, filename string, outputDir string) (string, error)
	ExportToSQLite(reports []entity.PeriodReport, filename string, outputDir string) (string, error)
}
