package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/domain/entity"
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/domain/repository"
)

const namespace = "taxi_kpi"

// PrometheusRepository keeps run metrics in a private registry so they can be dumped
// for the node_exporter textfile collector at the end of a batch run.
type PrometheusRepository struct {
	registry *prometheus.Registry

	rows            *prometheus.GaugeVec
	ruleViolations  *prometheus.GaugeVec
	threshold       *prometheus.GaugeVec
	trips           *prometheus.GaugeVec
	forecastMAE     *prometheus.GaugeVec
	stageFailures   *prometheus.CounterVec
	periodsReported prometheus.Counter
}

// NewPrometheusRepository cria um repositório de métricas com registro próprio.
func NewPrometheusRepository() repository.MetricsRepository {
	r := &PrometheusRepository{
		registry: prometheus.NewRegistry(),
		rows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rows",
			Help:      "Trip rows per period and cleaning outcome.",
		}, []string{"period", "outcome"}),
		ruleViolations: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rule_violations",
			Help:      "Rows flagged by each QA rule before cleaning.",
		}, []string{"period", "rule", "band"}),
		threshold: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "garbage_threshold",
			Help:      "Soft-violation threshold applied by the cleaner.",
		}, []string{"period", "source"}),
		trips: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "monthly_trips",
			Help:      "Trips counted in the monthly KPI table.",
		}, []string{"period"}),
		forecastMAE: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "forecast_mae",
			Help:      "Hold-out mean absolute error per forecast model.",
		}, []string{"period", "model"}),
		stageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_failures_total",
			Help:      "Pipeline failures per period and stage.",
		}, []string{"period", "stage"}),
		periodsReported: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "periods_reported_total",
			Help:      "Periods that produced a report.",
		}),
	}
	r.registry.MustRegister(
		r.rows, r.ruleViolations, r.threshold, r.trips,
		r.forecastMAE, r.stageFailures, r.periodsReported,
	)
	return r
}

func (r *PrometheusRepository) RecordReport(report *entity.PeriodReport) {
	if report == nil {
		return
	}
	p := report.Period
	c := report.Cleaning
	r.rows.WithLabelValues(p, "input").Set(float64(c.InputRows))
	r.rows.WithLabelValues(p, "kept").Set(float64(c.KeptRows))
	r.rows.WithLabelValues(p, "excluded").Set(float64(c.ExcludedRows))
	r.rows.WithLabelValues(p, "garbage").Set(float64(c.GarbageRows))

	for _, s := range report.QASummary {
		if s.Rule == entity.RuleAnyViolation {
			continue
		}
		r.ruleViolations.WithLabelValues(p, string(s.Rule), string(s.Band)).Set(float64(s.Count))
	}

	r.threshold.WithLabelValues(p, report.Policy.ThresholdSource).Set(float64(report.Policy.Threshold))

	trips := 0
	for _, row := range report.KPIs.Monthly {
		trips += row.TotalTrips
	}
	r.trips.WithLabelValues(p).Set(float64(trips))

	if report.Forecast != nil {
		for _, s := range report.Forecast.Scores {
			if s.MAE.Valid() {
				r.forecastMAE.WithLabelValues(p, s.Model).Set(s.MAE.Float64())
			}
		}
	}
	r.periodsReported.Inc()
}

func (r *PrometheusRepository) RecordFailure(period, stage string) {
	r.stageFailures.WithLabelValues(period, stage).Inc()
}

func (r *PrometheusRepository) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("error writing metrics textfile: %w", err)
	}
	return nil
}

// Registry exposes the underlying registry, mostly for tests.
func (r *PrometheusRepository) Registry() *prometheus.Registry { return r.registry }
