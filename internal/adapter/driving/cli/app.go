package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/domain/entity"
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/domain/forecast"
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/domain/repository"
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/shared/logging"
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/shared/types"
	"github.com/tlc-analytics/taxi-trip-kpi-go/pkg/version"
)

// PipelineRunner runs the pipeline for already merged arguments.
type PipelineRunner interface {
	RunPipeline(ctx context.Context, args *types.CLIArgs) error
}

// PipelineFactory builds a runner once flags and config are known, since the S3 profile,
// region and log level all come from them.
type PipelineFactory func(args *types.CLIArgs, log *logrus.Logger) PipelineRunner

// CLIApp represents the command-line interface application.
type CLIApp struct {
	rootCmd    *cobra.Command
	configRepo repository.ConfigRepository
	factory    PipelineFactory
	version    string
	banner     bool
}

// NewCLIApp cria uma nova aplicação CLI.
func NewCLIApp(versionStr string, configRepo repository.ConfigRepository) *CLIApp {
	app := &CLIApp{
		configRepo: configRepo,
		version:    versionStr,
		banner:     true,
	}

	// Obtem a versão formatada
	formattedVersion := version.FormatVersion()

	rootCmd := &cobra.Command{
		Use:           "taxi-kpi",
		Short:         "Taxi trip data-quality and KPI pipeline",
		Version:       formattedVersion,
		RunE:          app.runCommand,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{printf "Taxi Trip KPI version: %s\n" .Version}}`)

	flags := rootCmd.PersistentFlags()
	flags.StringP("config-file", "C", "", "Path to a TOML, YAML, or JSON configuration file")
	flags.StringSliceP("month", "m", nil, "Reporting months as YYYY-MM (repeatable or comma-separated)")
	flags.StringP("input", "i", "", "Trip CSV path or s3://bucket/key; {month} is replaced by each month")
	flags.StringP("zones", "z", "", "Taxi zone lookup CSV path or s3://bucket/key")
	flags.StringSlice("hard-exclude", nil, "Rules that always remove a row (default: the structural rules)")
	flags.StringSlice("rules", nil, "Evaluate only these QA rules (default: all)")
	flags.IntP("threshold", "t", entity.DefaultGarbageThreshold, "Maximum soft violations a kept row may carry")
	flags.Bool("auto-threshold", false, "Use the p95 of soft violation totals as threshold for each month")
	flags.StringP("report-name", "n", "", "Specify the base name for the report file (without extension)")
	flags.StringSliceP("report-type", "y", []string{"csv"}, "Specify report types: csv, json, pdf, sqlite")
	flags.StringP("dir", "d", "", "Directory to save the report files (default: current directory)")
	flags.String("metrics-file", "", "Write run metrics in Prometheus text format to this file")
	flags.String("profile", "", "AWS profile used for s3:// inputs")
	flags.String("region", "", "AWS region used for s3:// inputs")
	flags.Int("forecast-days", forecast.DefaultTestPeriods, "Days held out when scoring the trip forecast")
	flags.Int("parallel", 0, "Months processed concurrently (default: number of CPUs)")
	flags.String("log-level", logging.DefaultLevel, "Log level: debug, info, warn, error")
	flags.Float64("max-speed", 0, "Speed in mph above which excessive_speed is flagged (default 66)")
	flags.Float64("max-duration", 0, "Duration in minutes above which excessive_duration is flagged (default 1440)")

	app.rootCmd = rootCmd
	return app
}

// Execute runs the CLI application.
func (app *CLIApp) Execute() error {
	return app.rootCmd.Execute()
}

// SetPipelineFactory sets how the pipeline use case is built for a run.
func (app *CLIApp) SetPipelineFactory(factory PipelineFactory) {
	app.factory = factory
}

// parseArgs parses command-line arguments into a CLIArgs struct.
func (app *CLIApp) parseArgs() (*types.CLIArgs, error) {
	f := app.rootCmd.Flags()
	configFile, _ := f.GetString("config-file")
	months, _ := f.GetStringSlice("month")
	input, _ := f.GetString("input")
	zones, _ := f.GetString("zones")
	hardExclude, _ := f.GetStringSlice("hard-exclude")
	rules, _ := f.GetStringSlice("rules")
	threshold, _ := f.GetInt("threshold")
	autoThreshold, _ := f.GetBool("auto-threshold")
	reportName, _ := f.GetString("report-name")
	reportType, _ := f.GetStringSlice("report-type")
	dir, _ := f.GetString("dir")
	metricsFile, _ := f.GetString("metrics-file")
	profile, _ := f.GetString("profile")
	region, _ := f.GetString("region")
	forecastDays, _ := f.GetInt("forecast-days")
	parallel, _ := f.GetInt("parallel")
	logLevel, _ := f.GetString("log-level")
	maxSpeed, _ := f.GetFloat64("max-speed")
	maxDuration, _ := f.GetFloat64("max-duration")

	return &types.CLIArgs{
		ConfigFile:    configFile,
		Months:        months,
		Input:         input,
		Zones:         zones,
		HardExclude:   hardExclude,
		Rules:         rules,
		Threshold:     threshold,
		AutoThreshold: autoThreshold,
		ReportName:    reportName,
		ReportType:    reportType,
		Dir:           dir,
		MetricsFile:   metricsFile,
		Profile:       profile,
		Region:        region,
		ForecastDays:  forecastDays,
		Parallel:      parallel,
		LogLevel:      logLevel,
		Limits: types.QualityLimits{
			MaxSpeedMPH:        maxSpeed,
			MaxDurationMinutes: maxDuration,
		},
	}, nil
}

// mergeConfig fills every argument whose flag was not set explicitly from the config file.
func (app *CLIApp) mergeConfig(args *types.CLIArgs, cfg *types.Config) {
	changed := app.rootCmd.Flags().Changed

	if !changed("month") && len(cfg.Months) > 0 {
		args.Months = cfg.Months
	}
	if !changed("input") && cfg.Input != "" {
		args.Input = cfg.Input
	}
	if !changed("zones") && cfg.ZoneLookup != "" {
		args.Zones = cfg.ZoneLookup
	}
	if !changed("hard-exclude") && len(cfg.HardExclude) > 0 {
		args.HardExclude = cfg.HardExclude
	}
	if !changed("rules") && len(cfg.Rules) > 0 {
		args.Rules = cfg.Rules
	}
	if !changed("threshold") && cfg.Threshold != nil {
		args.Threshold = *cfg.Threshold
	}
	if !changed("auto-threshold") && cfg.AutoThreshold {
		args.AutoThreshold = true
	}
	if !changed("report-name") && cfg.ReportName != "" {
		args.ReportName = cfg.ReportName
	}
	if !changed("report-type") && len(cfg.ReportType) > 0 {
		args.ReportType = cfg.ReportType
	}
	if !changed("dir") && cfg.Dir != "" {
		args.Dir = cfg.Dir
	}
	if !changed("metrics-file") && cfg.MetricsFile != "" {
		args.MetricsFile = cfg.MetricsFile
	}
	if !changed("profile") && cfg.Profile != "" {
		args.Profile = cfg.Profile
	}
	if !changed("region") && cfg.Region != "" {
		args.Region = cfg.Region
	}
	if !changed("forecast-days") && cfg.ForecastDays > 0 {
		args.ForecastDays = cfg.ForecastDays
	}
	if !changed("parallel") && cfg.Parallel > 0 {
		args.Parallel = cfg.Parallel
	}
	if !changed("log-level") && cfg.LogLevel != "" {
		args.LogLevel = cfg.LogLevel
	}

	limits := cfg.Limits
	if changed("max-speed") {
		limits.MaxSpeedMPH = args.Limits.MaxSpeedMPH
	}
	if changed("max-duration") {
		limits.MaxDurationMinutes = args.Limits.MaxDurationMinutes
	}
	args.Limits = limits
}

// resolveDir turns the output directory into an absolute path, the working directory by default.
func resolveDir(dir string) (string, error) {
	if dir == "" {
		return os.Getwd()
	}
	return filepath.Abs(dir)
}

// runCommand é o ponto de entrada principal para o comando CLI.
func (app *CLIApp) runCommand(cmd *cobra.Command, _ []string) error {
	if app.banner {
		displayWelcomeBanner(app.version)
		go checkLatestVersion(app.version)
	}

	cliArgs, err := app.parseArgs()
	if err != nil {
		return err
	}

	if cliArgs.ConfigFile != "" {
		if app.configRepo == nil {
			return fmt.Errorf("%w: no config loader available", types.ErrConfig)
		}
		cfg, err := app.configRepo.LoadConfigFile(cliArgs.ConfigFile)
		if err != nil {
			return err
		}
		app.mergeConfig(cliArgs, cfg)
	}

	cliArgs.Dir, err = resolveDir(cliArgs.Dir)
	if err != nil {
		return err
	}

	logger, err := logging.New(cliArgs.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if app.factory == nil {
		return fmt.Errorf("%w: pipeline is not configured", types.ErrConfig)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	return app.factory(cliArgs, logger).RunPipeline(ctx, cliArgs)
}
