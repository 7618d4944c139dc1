//go:build ignore
// +build ignore

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/expenditure-manager/internal/analytics"
	"gitlab.com/yelinaung/expenditure-manager/internal/models"
)

func main() {
	now := time.Date(2026, time.January, 20, 12, 0, 0, 0, time.UTC)
	day := func(d int) time.Time { return time.Date(2026, time.January, d, 9, 0, 0, 0, time.UTC) }

	txns := []models.Transaction{
		{Amount: decimal.NewFromFloat(150.50), Type: models.TypeExpense, Category: models.Category{Name: "Groceries", ColorHex: "#4CAF50"}, Date: day(3)},
		{Amount: decimal.NewFromFloat(130.50), Type: models.TypeExpense, Category: models.Category{Name: "Dining Out", ColorHex: "#FF9800"}, Date: day(7)},
		{Amount: decimal.NewFromFloat(60.00), Type: models.TypeExpense, Category: models.Category{Name: "Transport", ColorHex: "#2196F3"}, Date: day(9)},
		{Amount: decimal.NewFromFloat(25.00), Type: models.TypeExpense, Category: models.Category{Name: "Entertainment", ColorHex: "#9C27B0"}, Date: day(12)},
		{Amount: decimal.NewFromFloat(120.00), Type: models.TypeExpense, Category: models.Category{Name: "Utilities", ColorHex: "#607D8B"}, Date: day(15)},
		{Amount: decimal.NewFromFloat(3200.00), Type: models.TypeIncome, Category: models.Category{Name: "Salary"}, Date: day(1)},
	}

	summary := analytics.Aggregate(txns, models.PeriodMonthly, now)
	chartData, err := analytics.RenderCategoryPie(summary)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile("graph.png", chartData, 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Created graph.png - expense breakdown, balance %s\n", analytics.Balance(txns).StringFixed(2))
}
