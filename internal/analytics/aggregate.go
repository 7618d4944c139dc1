// Package analytics computes summaries, chart buckets and threshold checks
// over a flat list of transactions. Every function here is pure: the
// reference instant is always passed in.
package analytics

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/expenditure-manager/internal/models"
)

const (
	day  = 24 * time.Hour
	week = 7 * day
)

// CategoryTotal is the sum of one category's amounts.
type CategoryTotal struct {
	Name  string          `json:"name"`
	Total decimal.Decimal `json:"total"`
}

// Summary holds totals for the transactions inside a period window.
type Summary struct {
	Period            models.Period   `json:"period"`
	TotalIncome       decimal.Decimal `json:"totalIncome"`
	TotalExpense      decimal.Decimal `json:"totalExpense"`
	IncomeByCategory  []CategoryTotal `json:"incomeByCategory"`
	ExpenseByCategory []CategoryTotal `json:"expenseByCategory"`
}

// Aggregate filters transactions into the window for period and sums them.
//
//   - DAILY keeps records 0 to 6 whole days old.
//   - WEEKLY keeps records 0 to 3 whole weeks old.
//   - MONTHLY keeps every record in now's calendar year.
//   - YEARLY keeps records from the current year and the 4 before it.
//
// Future-dated records are outside the DAILY and WEEKLY windows.
func Aggregate(transactions []models.Transaction, period models.Period, now time.Time) Summary {
	filtered := Filter(transactions, period, now)

	return Summary{
		Period:            period,
		TotalIncome:       sumByType(filtered, models.TypeIncome),
		TotalExpense:      sumByType(filtered, models.TypeExpense),
		IncomeByCategory:  byCategory(filtered, models.TypeIncome),
		ExpenseByCategory: byCategory(filtered, models.TypeExpense),
	}
}

// Filter returns the transactions inside the aggregation window for period.
// Unknown periods keep everything.
func Filter(transactions []models.Transaction, period models.Period, now time.Time) []models.Transaction {
	out := make([]models.Transaction, 0, len(transactions))
	for i := range transactions {
		if inWindow(transactions[i].Date, period, now) {
			out = append(out, transactions[i])
		}
	}
	return out
}

func inWindow(date time.Time, period models.Period, now time.Time) bool {
	switch period {
	case models.PeriodDaily:
		age := floorDiv(now.Sub(date), day)
		return age >= 0 && age < 7
	case models.PeriodWeekly:
		age := floorDiv(now.Sub(date), week)
		return age >= 0 && age < 4
	case models.PeriodMonthly:
		return date.In(now.Location()).Year() == now.Year()
	case models.PeriodYearly:
		y := date.In(now.Location()).Year()
		return y >= now.Year()-4 && y <= now.Year()
	default:
		return true
	}
}

// floorDiv divides rounding toward negative infinity, so anything in the
// future has a negative age.
func floorDiv(d, unit time.Duration) int64 {
	q := int64(d / unit)
	if d%unit != 0 && d < 0 {
		q--
	}
	return q
}

func sumByType(transactions []models.Transaction, typ models.TransactionType) decimal.Decimal {
	total := decimal.Zero
	for i := range transactions {
		if transactions[i].Type == typ {
			total = total.Add(transactions[i].Amount)
		}
	}
	return total
}

// byCategory groups by category name, not ID, and sorts descending by total.
// Ties keep first-encounter order.
func byCategory(transactions []models.Transaction, typ models.TransactionType) []CategoryTotal {
	totals := []CategoryTotal{}
	index := make(map[string]int)

	for i := range transactions {
		if transactions[i].Type != typ {
			continue
		}
		name := transactions[i].Category.Name
		if j, ok := index[name]; ok {
			totals[j].Total = totals[j].Total.Add(transactions[i].Amount)
			continue
		}
		index[name] = len(totals)
		totals = append(totals, CategoryTotal{Name: name, Total: transactions[i].Amount})
	}

	slices.SortStableFunc(totals, func(a, b CategoryTotal) int {
		return b.Total.Cmp(a.Total)
	})
	return totals
}

// Balance is total income minus total expense over the full history.
func Balance(transactions []models.Transaction) decimal.Decimal {
	return sumByType(transactions, models.TypeIncome).Sub(sumByType(transactions, models.TypeExpense))
}
