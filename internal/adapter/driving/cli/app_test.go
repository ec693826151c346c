package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/shared/types"
)

type fakeConfigRepo struct {
	cfg  *types.Config
	path string
}

func (f *fakeConfigRepo) LoadConfigFile(path string) (*types.Config, error) {
	f.path = path
	return f.cfg, nil
}

type recordingRunner struct {
	args *types.CLIArgs
}

func (r *recordingRunner) RunPipeline(_ context.Context, args *types.CLIArgs) error {
	r.args = args
	return nil
}

func runApp(t *testing.T, cfg *types.Config, argv ...string) (*types.CLIArgs, *logrus.Logger) {
	t.Helper()
	app := NewCLIApp("0.0.0-dev", &fakeConfigRepo{cfg: cfg})
	app.banner = false

	runner := &recordingRunner{}
	var logger *logrus.Logger
	app.SetPipelineFactory(func(_ *types.CLIArgs, log *logrus.Logger) PipelineRunner {
		logger = log
		return runner
	})
	app.rootCmd.SetArgs(argv)
	require.NoError(t, app.Execute())
	require.NotNil(t, runner.args)
	return runner.args, logger
}

func TestParseArgsDefaults(t *testing.T) {
	dir := t.TempDir()
	args, logger := runApp(t, nil, "--month", "2024-01,2024-02", "-i", "trips_{month}.csv", "-z", "zones.csv", "-d", dir)

	want := &types.CLIArgs{
		Months:       []string{"2024-01", "2024-02"},
		Input:        "trips_{month}.csv",
		Zones:        "zones.csv",
		Threshold:    5,
		ReportType:   []string{"csv"},
		Dir:          dir,
		ForecastDays: 7,
		LogLevel:     "warn",
	}
	if diff := cmp.Diff(want, args, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())
}

func TestConfigFileFillsUnsetFlags(t *testing.T) {
	threshold := 3
	cfg := &types.Config{
		Months:      []string{"2023-12"},
		Input:       "s3://bucket/trips_{month}.csv",
		ZoneLookup:  "zones.csv",
		HardExclude: []string{"is_duplicate"},
		Threshold:   &threshold,
		ReportName:  "from-config",
		ReportType:  []string{"json", "pdf"},
		Region:      "us-east-1",
		LogLevel:    "debug",
		Limits:      types.QualityLimits{MaxSpeedMPH: 70, LongDistanceMiles: 12},
	}
	dir := t.TempDir()
	args, logger := runApp(t, cfg,
		"-C", "taxi.toml",
		"--month", "2024-05",
		"--threshold", "8",
		"--max-duration", "600",
		"-d", dir,
	)

	// Flags given on the command line win over the file.
	assert.Equal(t, []string{"2024-05"}, args.Months)
	assert.Equal(t, 8, args.Threshold)
	assert.Equal(t, 600.0, args.Limits.MaxDurationMinutes)
	assert.Equal(t, dir, args.Dir)

	assert.Equal(t, "s3://bucket/trips_{month}.csv", args.Input)
	assert.Equal(t, "zones.csv", args.Zones)
	assert.Equal(t, []string{"is_duplicate"}, args.HardExclude)
	assert.Equal(t, "from-config", args.ReportName)
	assert.Equal(t, []string{"json", "pdf"}, args.ReportType)
	assert.Equal(t, "us-east-1", args.Region)
	assert.Equal(t, 70.0, args.Limits.MaxSpeedMPH)
	assert.Equal(t, 12.0, args.Limits.LongDistanceMiles)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
}

func TestConfigThresholdZeroIsHonoured(t *testing.T) {
	zero := 0
	args, _ := runApp(t, &types.Config{Threshold: &zero}, "-C", "taxi.yaml", "-d", t.TempDir())
	assert.Equal(t, 0, args.Threshold)
}

func TestRelativeDirBecomesAbsolute(t *testing.T) {
	args, _ := runApp(t, nil, "-d", "reports")
	assert.True(t, filepath.IsAbs(args.Dir))
	assert.Equal(t, "reports", filepath.Base(args.Dir))
}

func TestInvalidLogLevel(t *testing.T) {
	app := NewCLIApp("0.0.0-dev", nil)
	app.banner = false
	app.SetPipelineFactory(func(*types.CLIArgs, *logrus.Logger) PipelineRunner { return &recordingRunner{} })
	app.rootCmd.SetArgs([]string{"--log-level", "loud"})
	assert.ErrorIs(t, app.Execute(), types.ErrConfig)
}

func TestMissingFactory(t *testing.T) {
	app := NewCLIApp("0.0.0-dev", nil)
	app.banner = false
	app.rootCmd.SetArgs([]string{})
	assert.ErrorIs(t, app.Execute(), types.ErrConfig)
}
