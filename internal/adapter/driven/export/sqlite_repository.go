package export

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/domain/entity"
)

const sqliteBatchSize = 500

// RunModel is one row per exported period report.
type RunModel struct {
	ID                   uint      `gorm:"primaryKey"`
	RunID                string    `gorm:"type:varchar(36);index:idx_run_period"`
	Period               string    `gorm:"type:varchar(7);index:idx_run_period"`
	PeriodName           string    `gorm:"type:varchar(32)"`
	Source               string    `gorm:"type:text"`
	GeneratedAt          time.Time
	HardExclude          string `gorm:"type:text"`
	Threshold            int
	ThresholdSource      string `gorm:"type:varchar(16)"`
	RecommendedThreshold int
	InputRows            int
	KeptRows             int
	ExcludedRows         int
	GarbageRows          int
}

func (RunModel) TableName() string { return "runs" }

// QASummaryModel stores one rule line of the QA summary.
type QASummaryModel struct {
	ID      uint   `gorm:"primaryKey"`
	RunID   string `gorm:"type:varchar(36);index"`
	Period  string `gorm:"type:varchar(7)"`
	Rule    string `gorm:"type:varchar(64)"`
	Band    string `gorm:"type:varchar(8)"`
	Count   int
	Percent float64
	Text    string `gorm:"type:varchar(64)"`
}

func (QASummaryModel) TableName() string { return "qa_summary" }

// KPIRowModel stores daily, weekly, monthly and time-bin rows. Undefined metrics are NULL.
type KPIRowModel struct {
	ID             uint   `gorm:"primaryKey"`
	RunID          string `gorm:"type:varchar(36);index:idx_kpi_lookup"`
	Period         string `gorm:"type:varchar(7);index:idx_kpi_lookup"`
	Granularity    string `gorm:"type:varchar(16);index:idx_kpi_lookup"`
	Bucket         string `gorm:"type:varchar(32)"`
	Start          time.Time
	End            time.Time
	Date           string `gorm:"type:varchar(10)"`
	DayOfWeek      string `gorm:"type:varchar(10)"`
	TotalTrips     int
	Trips          int
	TotalFare      float64
	TotalAmount    float64
	DurationP50    *float64
	DurationP95    *float64
	SpeedP50       *float64
	DistanceP50    *float64
	DistanceP95    *float64
	AvgDistance    *float64
	RevenuePerTrip *float64
	RevenuePerMile *float64
	Index100ByDay  *float64
	BinRates       string `gorm:"type:text"`
}

func (KPIRowModel) TableName() string { return "kpi_rows" }

// ZoneTimeModel stores one (zone, time bin) cell.
type ZoneTimeModel struct {
	ID              uint   `gorm:"primaryKey"`
	RunID           string `gorm:"type:varchar(36);index"`
	Period          string `gorm:"type:varchar(7)"`
	Zone            string `gorm:"type:varchar(128)"`
	TimeBin         string `gorm:"type:varchar(16)"`
	DurationP50     *float64
	DurationP95     *float64
	SpeedP50        *float64
	AvgTripDistance *float64
	Trips           int
	TripsIndex100   *float64
}

func (ZoneTimeModel) TableName() string { return "zone_time" }

// ForecastScoreModel stores the hold-out error of one forecast model.
type ForecastScoreModel struct {
	ID          uint   `gorm:"primaryKey"`
	RunID       string `gorm:"type:varchar(36);index"`
	Period      string `gorm:"type:varchar(7)"`
	ValueColumn string `gorm:"type:varchar(32)"`
	TestPeriods int
	Model       string `gorm:"type:varchar(32)"`
	MAE         *float64
	MAPE        *float64
}

func (ForecastScoreModel) TableName() string { return "forecast_scores" }

var sqliteModels = []interface{}{
	&RunModel{},
	&QASummaryModel{},
	&KPIRowModel{},
	&ZoneTimeModel{},
	&ForecastScoreModel{},
}

// ExportToSQLite writes every report into a fresh SQLite database file.
func (r *ExportRepositoryImpl) ExportToSQLite(reports []entity.PeriodReport, filename, outputDir string) (string, error) {
	osRepo := &ExportRepositoryImpl{fs: afero.NewOsFs(), now: r.now}
	outputFilename, err := osRepo.generateFilename(filename, outputDir, "sqlite")
	if err != nil {
		return "", err
	}

	db, err := gorm.Open(sqlite.Open(outputFilename), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return "", fmt.Errorf("error opening SQLite database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return "", fmt.Errorf("error opening SQLite database: %w", err)
	}
	defer sqlDB.Close()

	if err := db.AutoMigrate(sqliteModels...); err != nil {
		return "", fmt.Errorf("error migrating SQLite schema: %w", err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		for _, rep := range reports {
			if err := insertReport(tx, rep); err != nil {
				return fmt.Errorf("period %s: %w", rep.Period, err)
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("error writing SQLite rows: %w", err)
	}

	return filepath.Abs(outputFilename)
}

func insertReport(tx *gorm.DB, rep entity.PeriodReport) error {
	run := runModel(rep)
	if err := tx.Create(&run).Error; err != nil {
		return err
	}

	if qa := qaModels(rep); len(qa) > 0 {
		if err := tx.CreateInBatches(qa, sqliteBatchSize).Error; err != nil {
			return err
		}
	}

	var kpis []KPIRowModel
	for _, rows := range [][]entity.KPIRow{rep.KPIs.Daily, rep.KPIs.Weekly, rep.KPIs.Monthly, rep.KPIs.TimeBin} {
		for _, row := range rows {
			kpis = append(kpis, kpiModel(rep, row))
		}
	}
	if len(kpis) > 0 {
		if err := tx.CreateInBatches(kpis, sqliteBatchSize).Error; err != nil {
			return err
		}
	}

	zones := make([]ZoneTimeModel, 0, len(rep.KPIs.ZoneTime))
	for _, z := range rep.KPIs.ZoneTime {
		zones = append(zones, ZoneTimeModel{
			RunID:           rep.RunID,
			Period:          rep.Period,
			Zone:            z.Zone,
			TimeBin:         z.TimeBin,
			DurationP50:     z.DurationP50.Ptr(),
			DurationP95:     z.DurationP95.Ptr(),
			SpeedP50:        z.SpeedP50.Ptr(),
			AvgTripDistance: z.AvgTripDistance.Ptr(),
			Trips:           z.Trips,
			TripsIndex100:   z.TripsIndex100.Ptr(),
		})
	}
	if len(zones) > 0 {
		if err := tx.CreateInBatches(zones, sqliteBatchSize).Error; err != nil {
			return err
		}
	}

	if rep.Forecast != nil && len(rep.Forecast.Scores) > 0 {
		scores := make([]ForecastScoreModel, 0, len(rep.Forecast.Scores))
		for _, s := range rep.Forecast.Scores {
			scores = append(scores, ForecastScoreModel{
				RunID:       rep.RunID,
				Period:      rep.Period,
				ValueColumn: rep.Forecast.ValueColumn,
				TestPeriods: rep.Forecast.TestPeriods,
				Model:       s.Model,
				MAE:         s.MAE.Ptr(),
				MAPE:        s.MAPE.Ptr(),
			})
		}
		if err := tx.Create(&scores).Error; err != nil {
			return err
		}
	}
	return nil
}

func runModel(rep entity.PeriodReport) RunModel {
	hard := make([]string, 0, len(rep.Policy.HardExclude))
	for _, h := range rep.Policy.HardExclude {
		hard = append(hard, string(h))
	}
	return RunModel{
		RunID:                rep.RunID,
		Period:               rep.Period,
		PeriodName:           rep.PeriodName,
		Source:               rep.Source,
		GeneratedAt:          rep.GeneratedAt,
		HardExclude:          strings.Join(hard, ","),
		Threshold:            rep.Policy.Threshold,
		ThresholdSource:      rep.Policy.ThresholdSource,
		RecommendedThreshold: rep.RecommendedThreshold,
		InputRows:            rep.Cleaning.InputRows,
		KeptRows:             rep.Cleaning.KeptRows,
		ExcludedRows:         rep.Cleaning.ExcludedRows,
		GarbageRows:          rep.Cleaning.GarbageRows,
	}
}

func qaModels(rep entity.PeriodReport) []QASummaryModel {
	out := make([]QASummaryModel, 0, len(rep.QASummary))
	for _, s := range rep.QASummary {
		out = append(out, QASummaryModel{
			RunID:   rep.RunID,
			Period:  rep.Period,
			Rule:    string(s.Rule),
			Band:    string(s.Band),
			Count:   s.Count,
			Percent: s.Percent,
			Text:    s.Text,
		})
	}
	return out
}

func kpiModel(rep entity.PeriodReport, row entity.KPIRow) KPIRowModel {
	rates := make([]string, 0, len(row.BinRates))
	for _, br := range row.BinRates {
		rates = append(rates, br.Label+"="+br.String())
	}
	return KPIRowModel{
		RunID:          rep.RunID,
		Period:         rep.Period,
		Granularity:    string(row.Granularity),
		Bucket:         row.Bucket,
		Start:          row.Start,
		End:            row.End,
		Date:           row.Date,
		DayOfWeek:      row.DayOfWeek,
		TotalTrips:     row.TotalTrips,
		Trips:          row.Trips,
		TotalFare:      row.TotalFare,
		TotalAmount:    row.TotalAmount,
		DurationP50:    row.DurationP50.Ptr(),
		DurationP95:    row.DurationP95.Ptr(),
		SpeedP50:       row.SpeedP50.Ptr(),
		DistanceP50:    row.DistanceP50.Ptr(),
		DistanceP95:    row.DistanceP95.Ptr(),
		AvgDistance:    row.AvgDistance.Ptr(),
		RevenuePerTrip: row.RevenuePerTrip.Ptr(),
		RevenuePerMile: row.RevenuePerMile.Ptr(),
		Index100ByDay:  row.Index100ByDay.Ptr(),
		BinRates:       strings.Join(rates, ";"),
	}
}
