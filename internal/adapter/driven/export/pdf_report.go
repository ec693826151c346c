package export

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/domain/entity"
)

var dailyColumns = []struct {
	title string
	width float64
	value func(entity.KPIRow) string
}{
	{"Date", 24, func(r entity.KPIRow) string { return r.Date }},
	{"Day", 22, func(r entity.KPIRow) string { return r.DayOfWeek }},
	{"Trips", 18, func(r entity.KPIRow) string { return fmt.Sprintf("%d", r.TotalTrips) }},
	{"Fare", 26, func(r entity.KPIRow) string { return fmt.Sprintf("%.2f", r.TotalFare) }},
	{"Amount", 26, func(r entity.KPIRow) string { return fmt.Sprintf("%.2f", r.TotalAmount) }},
	{"Dur p50", 18, func(r entity.KPIRow) string { return r.DurationP50.String() }},
	{"Speed p50", 20, func(r entity.KPIRow) string { return r.SpeedP50.String() }},
	{"Rev/Trip", 18, func(r entity.KPIRow) string { return r.RevenuePerTrip.String() }},
	{"Index", 18, func(r entity.KPIRow) string { return r.Index100ByDay.String() }},
}

func (r *ExportRepositoryImpl) ExportToPDF(reports []entity.PeriodReport, filename, outputDir string) (string, error) {
	outputFilename, err := r.generateFilename(filename, outputDir, "pdf")
	if err != nil {
		return "", err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	headerColor := [3]int{40, 40, 40}
	headerTextColor := [3]int{255, 255, 255}
	sectionTitleColor := [3]int{0, 0, 0}
	bodyTextColor := [3]int{50, 50, 50}
	lineColor := [3]int{200, 200, 200}

	sectionTitle := func(title string) {
		pdf.SetFont("Arial", "B", 12)
		pdf.SetTextColor(sectionTitleColor[0], sectionTitleColor[1], sectionTitleColor[2])
		pdf.Cell(0, 8, title)
		pdf.Ln(7)

		pdf.SetDrawColor(lineColor[0], lineColor[1], lineColor[2])
		pdf.Line(pdf.GetX(), pdf.GetY(), pdf.GetX()+190, pdf.GetY())
		pdf.Ln(4)
	}

	drawSection := func(title string, content string) {
		if content == "" {
			return
		}
		sectionTitle(title)
		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
		pdf.MultiCell(190, 5, tr(content), "", "L", false)
		pdf.Ln(8)
	}

	drawDaily := func(rows []entity.KPIRow) {
		if len(rows) == 0 {
			return
		}
		sectionTitle("Daily KPIs")
		pdf.SetFont("Arial", "B", 8)
		pdf.SetFillColor(240, 240, 240)
		pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
		for _, c := range dailyColumns {
			pdf.CellFormat(c.width, 6, c.title, "B", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 8)
		for _, row := range rows {
			for _, c := range dailyColumns {
				pdf.CellFormat(c.width, 5, tr(c.value(row)), "", 0, "L", false, 0, "")
			}
			pdf.Ln(-1)
		}
		pdf.Ln(6)
	}

	for i, rep := range reports {
		pdf.AddPage()

		pdf.SetFillColor(headerColor[0], headerColor[1], headerColor[2])
		pdf.SetTextColor(headerTextColor[0], headerTextColor[1], headerTextColor[2])
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 12, tr(fmt.Sprintf("  Trip KPIs - %s", rep.PeriodName)), "", 1, "L", true, 0, "")

		pdf.SetFont("Arial", "", 10)
		pdf.SetFillColor(240, 240, 240)
		pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
		source := rep.Source
		if len(source) > 90 {
			source = "..." + source[len(source)-87:]
		}
		pdf.CellFormat(0, 8, tr(fmt.Sprintf("  Source: %s", source)), "", 1, "L", true, 0, "")
		pdf.Ln(8)

		drawSection("Cleaning", cleaningText(rep))
		drawSection("Quality Summary", qaText(rep.QASummary))
		drawSection("Monthly KPIs", monthlyText(rep.KPIs.Monthly))
		drawDaily(rep.KPIs.Daily)
		drawSection("Forecast Evaluation", forecastText(rep.Forecast))

		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		footerText := fmt.Sprintf("Generated by Taxi Trip KPI (Go) | run %s | %s", rep.RunID, rep.GeneratedAt.Format("2006-01-02"))
		pdf.CellFormat(0, 10, tr(footerText), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 10, tr(fmt.Sprintf("Page %d", i+1)), "", 0, "R", false, 0, "")
	}

	file, err := r.fs.Create(outputFilename)
	if err != nil {
		return "", fmt.Errorf("error creating PDF file: %w", err)
	}
	defer file.Close()
	if err := pdf.Output(file); err != nil {
		return "", fmt.Errorf("error writing PDF file: %w", err)
	}

	return filepath.Abs(outputFilename)
}

func cleaningText(rep entity.PeriodReport) string {
	c := rep.Cleaning
	var b strings.Builder
	fmt.Fprintf(&b, "Input rows: %d\nKept rows: %d\nExcluded rows: %d\nGarbage rows: %d\n",
		c.InputRows, c.KeptRows, c.ExcludedRows, c.GarbageRows)
	fmt.Fprintf(&b, "Threshold: %d (%s), recommended %d\n",
		rep.Policy.Threshold, rep.Policy.ThresholdSource, rep.RecommendedThreshold)

	rules := make([]string, 0, len(c.HardFlagged))
	for rule := range c.HardFlagged {
		rules = append(rules, string(rule))
	}
	sort.Strings(rules)
	for _, rule := range rules {
		fmt.Fprintf(&b, "  %s: %d\n", rule, c.HardFlagged[entity.RuleName(rule)])
	}
	return strings.TrimSpace(b.String())
}

func qaText(summary []entity.RuleSummary) string {
	lines := make([]string, 0, len(summary))
	for _, s := range summary {
		lines = append(lines, fmt.Sprintf("%s: %s", s.Rule, s.Text))
	}
	return strings.Join(lines, "\n")
}

func monthlyText(rows []entity.KPIRow) string {
	var lines []string
	for _, row := range rows {
		lines = append(lines, fmt.Sprintf(
			"%s: %d trips, fare %.2f, amount %.2f, duration p50 %s min, speed p50 %s mph, revenue/mile %s",
			row.Bucket, row.TotalTrips, row.TotalFare, row.TotalAmount,
			row.DurationP50, row.SpeedP50, row.RevenuePerMile))
		for _, br := range row.BinRates {
			lines = append(lines, fmt.Sprintf("  %s: %s", br.Label, br))
		}
	}
	return strings.Join(lines, "\n")
}

func forecastText(f *entity.ForecastResult) string {
	if f == nil {
		return ""
	}
	lines := []string{fmt.Sprintf("%s, last %d days held out", f.ValueColumn, f.TestPeriods)}
	for _, s := range f.Scores {
		lines = append(lines, fmt.Sprintf("%s: MAE %s, MAPE %s%%", s.Model, s.MAE, s.MAPE))
	}
	return strings.Join(lines, "\n")
}
