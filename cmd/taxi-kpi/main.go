package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/adapter/driven/aws"
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/adapter/driven/config"
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/adapter/driven/export"
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/adapter/driven/metrics"
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/adapter/driven/source"
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/adapter/driven/zones"
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/adapter/driving/cli"
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/application/usecase"
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/shared/types"
	"github.com/tlc-analytics/taxi-trip-kpi-go/pkg/console"
	"github.com/tlc-analytics/taxi-trip-kpi-go/pkg/version"
)

func main() {
	fs := afero.NewOsFs()

	// Inicializa o aplicativo CLI
	app := cli.NewCLIApp(version.Version, config.NewConfigRepository(fs))

	// Os repositórios dependem de profile/região e do nível de log, conhecidos só após o parse
	app.SetPipelineFactory(func(args *types.CLIArgs, log *logrus.Logger) cli.PipelineRunner {
		files := source.NewFileRepository(fs, aws.NewS3Repository(args.Profile, args.Region))
		return usecase.NewPipelineUseCase(
			source.NewTripRepository(files),
			zones.NewZoneRepository(files),
			export.NewExportRepository(fs),
			metrics.NewPrometheusRepository(),
			console.NewConsole(),
			log,
		)
	})

	// Executa o aplicativo
	if err := app.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
