package usecase

import (
	"fmt"
	"sort"

	"github.com/pterm/pterm"

	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/domain/entity"
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/shared/types"
)

// displayReport prints the QA summary, cleaning outcome, monthly KPIs, daily trend and
// forecast scores of one period.
func (uc *PipelineUseCase) displayReport(report *entity.PeriodReport) {
	uc.console.Printf("\n%s\n", pterm.FgYellow.Sprintf("%s (%s) - run %s", report.PeriodName, report.Source, report.RunID))

	uc.console.Print(uc.qaTable(report.QASummary).Render())
	uc.console.Print(uc.cleaningTable(report).Render())

	if len(report.KPIs.Monthly) > 0 {
		uc.console.Print(uc.kpiTable(report.KPIs.Monthly).Render())
	}
	if len(report.KPIs.TimeBin) > 0 {
		uc.console.Print(uc.kpiTable(report.KPIs.TimeBin).Render())
	}

	points := make([]types.TrendPoint, 0, len(report.KPIs.Daily))
	for _, row := range report.KPIs.Daily {
		points = append(points, types.TrendPoint{Label: row.Date, Value: float64(row.TotalTrips)})
	}
	if len(points) > 0 {
		uc.console.DisplayTrendBars(fmt.Sprintf("Daily trips - %s", report.PeriodName), points)
	}

	if report.Forecast != nil {
		table := uc.console.CreateTable()
		table.AddColumn("Model")
		table.AddColumn("MAE")
		table.AddColumn("MAPE (%)")
		for _, s := range report.Forecast.Scores {
			table.AddRow(s.Model, s.MAE.String(), s.MAPE.String())
		}
		uc.console.Print(table.Render())
	}
}

func (uc *PipelineUseCase) qaTable(summary []entity.RuleSummary) types.TableInterface {
	table := uc.console.CreateTable()
	table.AddColumn("Rule")
	table.AddColumn("Band")
	table.AddColumn("Violations")
	for _, s := range summary {
		text := s.Text
		if s.Count > 0 && s.Band == entity.BandHard {
			text = pterm.FgRed.Sprint(text)
		}
		table.AddRow(string(s.Rule), string(s.Band), text)
	}
	return table
}

func (uc *PipelineUseCase) cleaningTable(report *entity.PeriodReport) types.TableInterface {
	c := report.Cleaning
	table := uc.console.CreateTable()
	table.AddColumn("Input Rows")
	table.AddColumn("Kept")
	table.AddColumn("Excluded")
	table.AddColumn("Garbage")
	table.AddColumn("Threshold")
	table.AddColumn("Hard Exclusions")

	rules := make([]string, 0, len(c.HardFlagged))
	for r := range c.HardFlagged {
		rules = append(rules, string(r))
	}
	sort.Strings(rules)
	hard := ""
	for _, r := range rules {
		if n := c.HardFlagged[entity.RuleName(r)]; n > 0 {
			hard += fmt.Sprintf("%s: %d\n", r, n)
		}
	}
	if hard == "" {
		hard = "none"
	}

	table.AddRow(
		c.InputRows,
		pterm.FgGreen.Sprint(c.KeptRows),
		c.ExcludedRows,
		c.GarbageRows,
		fmt.Sprintf("%d (%s, p95 %d)", report.Policy.Threshold, report.Policy.ThresholdSource, report.RecommendedThreshold),
		hard,
	)
	return table
}

func (uc *PipelineUseCase) kpiTable(rows []entity.KPIRow) types.TableInterface {
	table := uc.console.CreateTable()
	for _, col := range []string{
		"Bucket", "Trips", "Total Fare", "Total Amount", "Duration p50/p95",
		"Speed p50", "Distance p50/p95", "Rev/Trip", "Rev/Mile",
	} {
		table.AddColumn(col)
	}
	for _, row := range rows {
		table.AddRow(
			row.Bucket,
			row.TotalTrips,
			fmt.Sprintf("$%.2f", row.TotalFare),
			fmt.Sprintf("$%.2f", row.TotalAmount),
			fmt.Sprintf("%s / %s", row.DurationP50, row.DurationP95),
			row.SpeedP50.String(),
			fmt.Sprintf("%s / %s", row.DistanceP50, row.DistanceP95),
			row.RevenuePerTrip.String(),
			row.RevenuePerMile.String(),
		)
	}
	return table
}
