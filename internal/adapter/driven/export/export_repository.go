package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/domain/entity"
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/domain/repository"
)

// ExportRepositoryImpl implementa o ExportRepository.
type ExportRepositoryImpl struct {
	fs  afero.Fs
	now func() time.Time
}

// NewExportRepository cria uma nova implementação do ExportRepository.
// SQLite exports always go through the OS filesystem since the driver opens the file itself.
func NewExportRepository(fs afero.Fs) repository.ExportRepository {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &ExportRepositoryImpl{fs: fs, now: time.Now}
}

// csvTable is one CSV file of a multi-table export.
type csvTable struct {
	suffix string
	header []string
	rows   func(rep entity.PeriodReport) [][]string
}

var kpiHeader = []string{
	"Period", "Granularity", "Bucket", "Start", "End", "Date", "Day_of_Week",
	"Total_trips", "trips", "Total_fare", "Total_amount",
	"duration_p50", "duration_p95", "speed_p50", "distance_p50", "distance_p95", "avg_distance",
	"revenue_per_trip", "revenue_per_mile", "index_100_by_day",
}

func kpiTable(suffix string, pick func(entity.KPITables) []entity.KPIRow) csvTable {
	header := append([]string(nil), kpiHeader...)
	for _, b := range entity.TimeBins {
		header = append(header, b.Label)
	}
	return csvTable{
		suffix: suffix,
		header: header,
		rows: func(rep entity.PeriodReport) [][]string {
			var out [][]string
			for _, row := range pick(rep.KPIs) {
				out = append(out, kpiRecord(rep.Period, row))
			}
			return out
		},
	}
}

func kpiRecord(period string, row entity.KPIRow) []string {
	record := []string{
		period,
		string(row.Granularity),
		row.Bucket,
		row.Start.Format("2006-01-02"),
		row.End.Format("2006-01-02"),
		row.Date,
		row.DayOfWeek,
		strconv.Itoa(row.TotalTrips),
		strconv.Itoa(row.Trips),
		formatFloat(row.TotalFare),
		formatFloat(row.TotalAmount),
		metricCell(row.DurationP50),
		metricCell(row.DurationP95),
		metricCell(row.SpeedP50),
		metricCell(row.DistanceP50),
		metricCell(row.DistanceP95),
		metricCell(row.AvgDistance),
		metricCell(row.RevenuePerTrip),
		metricCell(row.RevenuePerMile),
		metricCell(row.Index100ByDay),
	}
	rates := make(map[string]string, len(row.BinRates))
	for _, br := range row.BinRates {
		rates[br.Label] = br.String()
	}
	for _, b := range entity.TimeBins {
		record = append(record, rates[b.Label])
	}
	return record
}

var csvTables = []csvTable{
	{
		suffix: "qa_summary",
		header: []string{"Period", "Rule", "Band", "Count", "Percent", "Summary"},
		rows: func(rep entity.PeriodReport) [][]string {
			out := make([][]string, 0, len(rep.QASummary))
			for _, s := range rep.QASummary {
				out = append(out, []string{
					rep.Period, string(s.Rule), string(s.Band),
					strconv.Itoa(s.Count), formatFloat(s.Percent), s.Text,
				})
			}
			return out
		},
	},
	{
		suffix: "cleaning",
		header: []string{
			"Run ID", "Period", "Source", "Hard Exclude", "Threshold", "Threshold Source",
			"Recommended Threshold", "Input Rows", "Kept Rows", "Excluded Rows", "Garbage Rows",
		},
		rows: func(rep entity.PeriodReport) [][]string {
			hard := make([]string, 0, len(rep.Policy.HardExclude))
			for _, r := range rep.Policy.HardExclude {
				hard = append(hard, string(r))
			}
			return [][]string{{
				rep.RunID,
				rep.Period,
				rep.Source,
				strings.Join(hard, ";"),
				strconv.Itoa(rep.Policy.Threshold),
				rep.Policy.ThresholdSource,
				strconv.Itoa(rep.RecommendedThreshold),
				strconv.Itoa(rep.Cleaning.InputRows),
				strconv.Itoa(rep.Cleaning.KeptRows),
				strconv.Itoa(rep.Cleaning.ExcludedRows),
				strconv.Itoa(rep.Cleaning.GarbageRows),
			}}
		},
	},
	kpiTable("daily", func(k entity.KPITables) []entity.KPIRow { return k.Daily }),
	kpiTable("weekly", func(k entity.KPITables) []entity.KPIRow { return k.Weekly }),
	kpiTable("monthly", func(k entity.KPITables) []entity.KPIRow { return k.Monthly }),
	kpiTable("time_bin", func(k entity.KPITables) []entity.KPIRow { return k.TimeBin }),
	{
		suffix: "zone_time",
		header: []string{
			"Period", "PUZone", "time_bin", "duration_p50", "duration_p95", "speed_p50",
			"avg_trip_distance", "trips", "trips_index_100",
		},
		rows: func(rep entity.PeriodReport) [][]string {
			out := make([][]string, 0, len(rep.KPIs.ZoneTime))
			for _, z := range rep.KPIs.ZoneTime {
				out = append(out, []string{
					rep.Period, z.Zone, z.TimeBin,
					metricCell(z.DurationP50), metricCell(z.DurationP95), metricCell(z.SpeedP50),
					metricCell(z.AvgTripDistance), strconv.Itoa(z.Trips), metricCell(z.TripsIndex100),
				})
			}
			return out
		},
	},
	{
		suffix: "forecast",
		header: []string{"Period", "Value Column", "Date", "Actual", "baseline_pred", "trend_pred"},
		rows: func(rep entity.PeriodReport) [][]string {
			if rep.Forecast == nil {
				return nil
			}
			out := make([][]string, 0, len(rep.Forecast.Predictions))
			for _, p := range rep.Forecast.Predictions {
				out = append(out, []string{
					rep.Period, rep.Forecast.ValueColumn, p.Date,
					formatFloat(p.Actual), metricCell(p.Baseline), metricCell(p.LinearFit),
				})
			}
			return out
		},
	},
}

// ExportToCSV writes one CSV file per table. Tables with no rows in any report are skipped.
func (r *ExportRepositoryImpl) ExportToCSV(reports []entity.PeriodReport, filename, outputDir string) ([]string, error) {
	var generatedFiles []string
	for _, table := range csvTables {
		var rows [][]string
		for _, rep := range reports {
			rows = append(rows, table.rows(rep)...)
		}
		if len(rows) == 0 {
			continue
		}
		path, err := r.writeCSV(filename+"_"+table.suffix, outputDir, table.header, rows)
		if err != nil {
			return generatedFiles, err
		}
		generatedFiles = append(generatedFiles, path)
	}
	return generatedFiles, nil
}

func (r *ExportRepositoryImpl) writeCSV(base, outputDir string, header []string, rows [][]string) (string, error) {
	outputFilename, err := r.generateFilename(base, outputDir, "csv")
	if err != nil {
		return "", err
	}

	file, err := r.fs.Create(outputFilename)
	if err != nil {
		return "", fmt.Errorf("error creating CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return "", fmt.Errorf("error writing CSV header: %w", err)
	}
	if err := writer.WriteAll(rows); err != nil {
		return "", fmt.Errorf("error writing CSV rows: %w", err)
	}

	return filepath.Abs(outputFilename)
}

func (r *ExportRepositoryImpl) ExportToJSON(reports []entity.PeriodReport, filename, outputDir string) (string, error) {
	outputFilename, err := r.generateFilename(filename, outputDir, "json")
	if err != nil {
		return "", err
	}

	file, err := r.fs.Create(outputFilename)
	if err != nil {
		return "", fmt.Errorf("error creating JSON file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(reports); err != nil {
		return "", fmt.Errorf("error encoding JSON data: %w", err)
	}

	return filepath.Abs(outputFilename)
}

// --- Funções Auxiliares ---

// generateFilename cria um nome de arquivo único com timestamp e garante que o diretório exista.
func (r *ExportRepositoryImpl) generateFilename(base, dir, ext string) (string, error) {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("could not get current working directory: %w", err)
		}
		dir = cwd
	}
	if err := r.fs.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("error creating output directory '%s': %w", dir, err)
	}
	timestamp := r.now().Format("20060102_150405")
	filename := fmt.Sprintf("%s_%s.%s", base, timestamp, ext)
	return filepath.Join(dir, filename), nil
}

// metricCell leaves undefined metrics empty so spreadsheets read them as blanks.
func metricCell(m entity.Metric) string {
	if !m.Valid() {
		return ""
	}
	return formatFloat(m.Float64())
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
