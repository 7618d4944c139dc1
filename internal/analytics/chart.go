package analytics

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-analyze/charts"
	"gitlab.com/yelinaung/expenditure-manager/internal/models"
)

// ErrNothingToChart is returned when a period has no expenses.
var ErrNothingToChart = errors.New("no expenses to chart")

// RenderCategoryPie draws the expense-by-category breakdown of a summary as a PNG.
func RenderCategoryPie(summary Summary) ([]byte, error) {
	if len(summary.ExpenseByCategory) == 0 {
		return nil, ErrNothingToChart
	}

	values := make([]float64, 0, len(summary.ExpenseByCategory))
	names := make([]string, 0, len(summary.ExpenseByCategory))
	for _, c := range summary.ExpenseByCategory {
		name := c.Name
		if name == "" {
			name = "Uncategorized"
		}
		names = append(names, name)
		values = append(values, c.Total.InexactFloat64())
	}

	p, err := charts.PieRender(
		values,
		charts.TitleOptionFunc(charts.TitleOption{
			Text: fmt.Sprintf("Expense Breakdown - %s", summary.Period.Title()),
		}),
		charts.LegendLabelsOptionFunc(names),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	return buf, nil
}

// ChartFilename creates a filename like "chart_monthly_2026-01-31.png".
func ChartFilename(period models.Period, now time.Time) string {
	return fmt.Sprintf("chart_%s_%s.png", periodSlug(period), now.Format("2006-01-02"))
}
