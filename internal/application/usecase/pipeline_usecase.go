package usecase

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/domain/cleaning"
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/domain/entity"
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/domain/forecast"
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/domain/kpi"
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/domain/normalize"
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/domain/quality"
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/domain/repository"
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/shared/types"
)

// ThresholdSource values recorded on the exclusion policy.
const (
	ThresholdDefault = "default"
	ThresholdConfig  = "config"
	ThresholdP95     = "p95"
)

// ForecastColumn is the daily series the forecast is scored on.
const ForecastColumn = "trips"

// PipelineUseCase runs load -> normalize -> flag -> clean -> aggregate -> forecast for every
// requested month, then displays and exports the reports.
type PipelineUseCase struct {
	tripRepo    repository.TripRepository
	zoneRepo    repository.ZoneRepository
	exportRepo  repository.ExportRepository
	metricsRepo repository.MetricsRepository
	console     types.ConsoleInterface
	log         logrus.FieldLogger

	now      func() time.Time
	newRunID func() string
}

// NewPipelineUseCase creates a new pipeline use case. metricsRepo may be nil.
func NewPipelineUseCase(
	tripRepo repository.TripRepository,
	zoneRepo repository.ZoneRepository,
	exportRepo repository.ExportRepository,
	metricsRepo repository.MetricsRepository,
	console types.ConsoleInterface,
	log logrus.FieldLogger,
) *PipelineUseCase {
	return &PipelineUseCase{
		tripRepo:    tripRepo,
		zoneRepo:    zoneRepo,
		exportRepo:  exportRepo,
		metricsRepo: metricsRepo,
		console:     console,
		log:         log,
		now:         time.Now,
		newRunID:    uuid.NewString,
	}
}

// runPlan is everything resolved from the arguments before any data is read.
type runPlan struct {
	runID        string
	periods      []entity.Period
	policy       entity.ExclusionPolicy
	autoThresh   bool
	engine       *quality.Engine
	aggregator   *kpi.Aggregator
	input        string
	zones        string
	forecastDays int
	parallel     int
}

// RunPipeline processes every requested month. Any stage failure aborts the whole run and
// nothing is exported.
func (uc *PipelineUseCase) RunPipeline(ctx context.Context, args *types.CLIArgs) error {
	reports, err := uc.BuildReports(ctx, args)
	if err != nil {
		uc.writeMetrics(args.MetricsFile)
		return err
	}

	for i := range reports {
		uc.displayReport(&reports[i])
		if uc.metricsRepo != nil {
			uc.metricsRepo.RecordReport(&reports[i])
		}
	}

	if args.ReportName != "" && len(args.ReportType) > 0 {
		if err := uc.exportReports(reports, args); err != nil {
			return err
		}
	}

	uc.writeMetrics(args.MetricsFile)
	return nil
}

// BuildReports resolves the run plan and produces one report per period, in period order.
func (uc *PipelineUseCase) BuildReports(ctx context.Context, args *types.CLIArgs) ([]entity.PeriodReport, error) {
	plan, err := uc.plan(args)
	if err != nil {
		return nil, err
	}
	uc.log.WithFields(logrus.Fields{
		"run_id":    plan.runID,
		"periods":   len(plan.periods),
		"threshold": plan.policy.Threshold,
		"auto":      plan.autoThresh,
	}).Info("starting pipeline run")

	status := uc.console.Status("Loading zone lookup...")
	zones, err := uc.zoneRepo.LoadZones(ctx, plan.zones)
	status.Stop()
	if err != nil {
		uc.recordFailure("", types.StageLoad)
		return nil, types.NewStageError("", types.StageLoad, fmt.Errorf("zone lookup: %w", err))
	}
	uc.log.WithField("zones", len(zones)).Debug("zone lookup loaded")
	normalizer := normalize.NewNormalizer(zones)

	labels := make([]string, len(plan.periods))
	for i, p := range plan.periods {
		labels[i] = p.String()
	}
	progress := uc.console.Progress(labels)
	var progressMu sync.Mutex

	reports := make([]entity.PeriodReport, len(plan.periods))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(plan.parallel)
	for i, period := range plan.periods {
		i, period := i, period
		g.Go(func() error {
			report, err := uc.processPeriod(gctx, plan, normalizer, period)
			if err != nil {
				var stageErr *types.StageError
				if errors.As(err, &stageErr) && !errors.Is(err, context.Canceled) {
					uc.recordFailure(stageErr.Period, stageErr.Stage)
				}
				return err
			}
			reports[i] = *report

			progressMu.Lock()
			progress.Increment()
			progressMu.Unlock()
			return nil
		})
	}
	err = g.Wait()
	progress.Stop()
	if err != nil {
		return nil, err
	}
	return reports, nil
}

func (uc *PipelineUseCase) plan(args *types.CLIArgs) (*runPlan, error) {
	if strings.TrimSpace(args.Input) == "" {
		return nil, types.ErrNoInput
	}
	if strings.TrimSpace(args.Zones) == "" {
		return nil, types.ErrNoZoneLookup
	}
	periods, err := ResolvePeriods(args.Months)
	if err != nil {
		return nil, err
	}
	if len(periods) > 1 && !strings.Contains(args.Input, types.MonthPlaceholder) {
		uc.console.LogWarning("Input %s has no %s placeholder; every month reads the same file", args.Input, types.MonthPlaceholder)
	}

	policy, err := BuildPolicy(args)
	if err != nil {
		return nil, err
	}

	engine, err := quality.NewEngine(ThresholdsFromLimits(args.Limits), args.Rules...)
	if err != nil {
		return nil, err
	}
	aggregator, err := kpi.NewAggregator(nil)
	if err != nil {
		return nil, err
	}

	parallel := args.Parallel
	if parallel <= 0 {
		parallel = runtime.GOMAXPROCS(0)
	}
	forecastDays := args.ForecastDays
	if forecastDays <= 0 {
		forecastDays = forecast.DefaultTestPeriods
	}

	return &runPlan{
		runID:        uc.newRunID(),
		periods:      periods,
		policy:       policy,
		autoThresh:   args.AutoThreshold,
		engine:       engine,
		aggregator:   aggregator,
		input:        args.Input,
		zones:        args.Zones,
		forecastDays: forecastDays,
		parallel:     parallel,
	}, nil
}

func (uc *PipelineUseCase) processPeriod(
	ctx context.Context,
	plan *runPlan,
	normalizer *normalize.Normalizer,
	period entity.Period,
) (*entity.PeriodReport, error) {
	name := period.String()
	log := uc.log.WithFields(logrus.Fields{"run_id": plan.runID, "period": name})
	fail := func(stage string, err error) error {
		log.WithField("stage", stage).WithError(err).Error("stage failed")
		return types.NewStageError(name, stage, err)
	}

	location := strings.ReplaceAll(plan.input, types.MonthPlaceholder, name)
	raw, err := uc.tripRepo.LoadTrips(ctx, location)
	if err != nil {
		return nil, fail(types.StageLoad, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fail(types.StageLoad, err)
	}
	log.WithField("rows", len(raw)).Debug("trips loaded")

	records := normalizer.Normalize(raw)

	flags, err := plan.engine.Run(records, period)
	if err != nil {
		return nil, fail(types.StageQuality, err)
	}
	summary := quality.Summarize(flags)

	policy := plan.policy
	recommended, err := quality.RecommendThreshold(flags, policy.HardExclude)
	if err != nil {
		return nil, fail(types.StageClean, err)
	}
	if plan.autoThresh {
		policy.Threshold = recommended
		policy.ThresholdSource = ThresholdP95
	}

	cleaned, err := cleaning.Clean(records, flags, policy)
	if err != nil {
		return nil, fail(types.StageClean, err)
	}
	log.WithFields(logrus.Fields{
		"input":     cleaned.Stats.InputRows,
		"kept":      cleaned.Stats.KeptRows,
		"garbage":   cleaned.Stats.GarbageRows,
		"threshold": policy.Threshold,
	}).Info("batch cleaned")
	if err := ctx.Err(); err != nil {
		return nil, fail(types.StageClean, err)
	}

	// Metric masks read the pre-clean flags, not cleaned.Flags.
	tables, err := plan.aggregator.Aggregate(cleaned.Records, flags, period)
	if err != nil {
		return nil, fail(types.StageAggregate, err)
	}

	var fc *entity.ForecastResult
	fc, err = forecast.Evaluate(tables.Daily, ForecastColumn, plan.forecastDays)
	switch {
	case errors.Is(err, forecast.ErrSeriesTooShort):
		log.WithError(err).Warn("forecast skipped")
		fc = nil
	case err != nil:
		return nil, fail(types.StageForecast, err)
	}

	return &entity.PeriodReport{
		RunID:                plan.runID,
		Period:               name,
		PeriodName:           period.Name(),
		Source:               location,
		GeneratedAt:          uc.now().UTC(),
		Policy:               policy,
		RecommendedThreshold: recommended,
		QASummary:            summary,
		Cleaning:             cleaned.Stats,
		KPIs:                 *tables,
		Forecast:             fc,
	}, nil
}

func (uc *PipelineUseCase) exportReports(reports []entity.PeriodReport, args *types.CLIArgs) error {
	var result *multierror.Error
	for _, reportType := range args.ReportType {
		switch reportType {
		case "csv":
			csvPaths, err := uc.exportRepo.ExportToCSV(reports, args.ReportName, args.Dir)
			if err != nil {
				uc.console.LogError("Failed to export to CSV: %s", err)
				result = multierror.Append(result, err)
			} else {
				uc.console.LogSuccess("Successfully exported to CSV: %s", strings.Join(csvPaths, ", "))
			}
		case "json":
			jsonPath, err := uc.exportRepo.ExportToJSON(reports, args.ReportName, args.Dir)
			if err != nil {
				uc.console.LogError("Failed to export to JSON: %s", err)
				result = multierror.Append(result, err)
			} else {
				uc.console.LogSuccess("Successfully exported to JSON: %s", jsonPath)
			}
		case "pdf":
			pdfPath, err := uc.exportRepo.ExportToPDF(reports, args.ReportName, args.Dir)
			if err != nil {
				uc.console.LogError("Failed to export to PDF: %s", err)
				result = multierror.Append(result, err)
			} else {
				uc.console.LogSuccess("Successfully exported to PDF: %s", pdfPath)
			}
		case "sqlite":
			dbPath, err := uc.exportRepo.ExportToSQLite(reports, args.ReportName, args.Dir)
			if err != nil {
				uc.console.LogError("Failed to export to SQLite: %s", err)
				result = multierror.Append(result, err)
			} else {
				uc.console.LogSuccess("Successfully exported to SQLite: %s", dbPath)
			}
		default:
			result = multierror.Append(result, fmt.Errorf("%w: report type %q", types.ErrConfig, reportType))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return types.NewStageError("", types.StageExport, err)
	}
	return nil
}

func (uc *PipelineUseCase) recordFailure(period, stage string) {
	if uc.metricsRepo != nil {
		uc.metricsRepo.RecordFailure(period, stage)
	}
}

func (uc *PipelineUseCase) writeMetrics(path string) {
	if uc.metricsRepo == nil || path == "" {
		return
	}
	if err := uc.metricsRepo.WriteTextfile(path); err != nil {
		uc.console.LogWarning("Could not write metrics file: %s", err)
		return
	}
	uc.log.WithField("path", path).Debug("metrics textfile written")
}

// ResolvePeriods parses YYYY-MM values (comma lists allowed), dropping duplicates and sorting.
func ResolvePeriods(months []string) ([]entity.Period, error) {
	seen := make(map[entity.Period]bool)
	var periods []entity.Period
	var result *multierror.Error
	for _, m := range months {
		for _, part := range strings.Split(m, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			p, err := entity.ParsePeriod(part)
			if err != nil {
				result = multierror.Append(result, fmt.Errorf("%w: %v", types.ErrConfig, err))
				continue
			}
			if !seen[p] {
				seen[p] = true
				periods = append(periods, p)
			}
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	if len(periods) == 0 {
		return nil, types.ErrNoPeriods
	}
	sort.Slice(periods, func(i, j int) bool {
		return periods[i].Start().Before(periods[j].Start())
	})
	return periods, nil
}

// BuildPolicy turns the hard-exclude list and threshold arguments into a validated policy.
// With AutoThreshold the threshold is replaced per period by the p95 recommendation.
func BuildPolicy(args *types.CLIArgs) (entity.ExclusionPolicy, error) {
	policy := entity.DefaultExclusionPolicy()
	if len(args.HardExclude) > 0 {
		rules, unknown := entity.ToRuleNames(args.HardExclude)
		if len(unknown) > 0 {
			return entity.ExclusionPolicy{}, fmt.Errorf("%w: unknown hard-exclude rule(s) %v", types.ErrConfig, unknown)
		}
		policy.HardExclude = rules
	}
	if args.Threshold != entity.DefaultGarbageThreshold {
		policy.Threshold = args.Threshold
		policy.ThresholdSource = ThresholdConfig
	}
	if err := cleaning.ValidatePolicy(policy); err != nil {
		return entity.ExclusionPolicy{}, err
	}
	return policy, nil
}

// ThresholdsFromLimits overlays configured limits on the default rule thresholds.
func ThresholdsFromLimits(l types.QualityLimits) quality.Thresholds {
	return quality.Thresholds{
		MaxSpeedMPH:          l.MaxSpeedMPH,
		MaxDurationMinutes:   l.MaxDurationMinutes,
		ShortDurationMinutes: l.ShortDurationMinutes,
		LongDistanceMiles:    l.LongDistanceMiles,
		FareTotalTolerance:   l.FareTotalTolerance,
		MaxPassengerCount:    l.MaxPassengerCount,
		ValidRatecodes:       append([]int(nil), l.ValidRatecodes...),
	}.Merge(quality.DefaultThresholds())
}
