package analytics

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/expenditure-manager/internal/models"
)

const dayLabelLayout = "Jan 02"

// TableHeader is the first row of the chart dataset.
var TableHeader = []any{"Period", "Income", "Expense"}

var monthLabels = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// Bucket is one labeled slot on a chart's x axis.
type Bucket struct {
	Label   string          `json:"label"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// Buckets spreads the entire transaction list over the fixed labels for
// period. Every label is present even when nothing falls into it, and
// records matching no label are dropped.
//
// DAILY labels carry no year, so a record from the same day of an earlier
// year lands in today's bucket.
func Buckets(transactions []models.Transaction, period models.Period, now time.Time) []Bucket {
	loc := now.Location()

	var (
		labels []string
		match  func(time.Time) (int, bool)
	)

	switch period {
	case models.PeriodDaily:
		labels, match = dailyLabels(now)
	case models.PeriodWeekly:
		labels, match = weeklyLabels(now)
	case models.PeriodMonthly:
		labels = monthLabels
		match = func(t time.Time) (int, bool) {
			if t.Year() != now.Year() {
				return 0, false
			}
			return int(t.Month()) - 1, true
		}
	case models.PeriodYearly:
		labels, match = yearlyLabels(now)
	default:
		return []Bucket{}
	}

	buckets := make([]Bucket, len(labels))
	for i, label := range labels {
		buckets[i] = Bucket{Label: label, Income: decimal.Zero, Expense: decimal.Zero}
	}

	for i := range transactions {
		idx, ok := match(transactions[i].Date.In(loc))
		if !ok {
			continue
		}
		if transactions[i].Type == models.TypeIncome {
			buckets[idx].Income = buckets[idx].Income.Add(transactions[i].Amount)
		} else {
			buckets[idx].Expense = buckets[idx].Expense.Add(transactions[i].Amount)
		}
	}

	return buckets
}

func byLabel(labels []string, label func(time.Time) string) func(time.Time) (int, bool) {
	index := make(map[string]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}
	return func(t time.Time) (int, bool) {
		i, ok := index[label(t)]
		return i, ok
	}
}

func dailyLabels(now time.Time) ([]string, func(time.Time) (int, bool)) {
	labels := make([]string, 0, 7)
	for i := 6; i >= 0; i-- {
		labels = append(labels, now.AddDate(0, 0, -i).Format(dayLabelLayout))
	}
	return labels, byLabel(labels, func(t time.Time) string { return t.Format(dayLabelLayout) })
}

// WeekStart returns local midnight of the Monday on or before t.
func WeekStart(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return time.Date(t.Year(), t.Month(), t.Day()-weekday+1, 0, 0, 0, 0, t.Location())
}

func weeklyLabels(now time.Time) ([]string, func(time.Time) (int, bool)) {
	current := WeekStart(now)
	starts := make([]time.Time, 0, 4)
	labels := make([]string, 0, 4)
	for i := 3; i >= 0; i-- {
		start := current.AddDate(0, 0, -7*i)
		starts = append(starts, start)
		labels = append(labels, "Week "+start.Format(dayLabelLayout))
	}

	return labels, func(t time.Time) (int, bool) {
		for i, start := range starts {
			if !t.Before(start) && t.Before(start.AddDate(0, 0, 7)) {
				return i, true
			}
		}
		return 0, false
	}
}

func yearlyLabels(now time.Time) ([]string, func(time.Time) (int, bool)) {
	labels := make([]string, 0, 5)
	for y := now.Year() - 4; y <= now.Year(); y++ {
		labels = append(labels, strconv.Itoa(y))
	}
	return labels, byLabel(labels, func(t time.Time) string { return strconv.Itoa(t.Year()) })
}

// Table converts buckets into a chart dataset: a header row followed by
// one [label, income, expense] row per bucket.
func Table(buckets []Bucket) [][]any {
	rows := make([][]any, 0, len(buckets)+1)
	rows = append(rows, TableHeader)
	for _, b := range buckets {
		rows = append(rows, []any{b.Label, b.Income.InexactFloat64(), b.Expense.InexactFloat64()})
	}
	return rows
}

// TableJSON serializes the chart dataset for an embedded renderer.
func TableJSON(buckets []Bucket) ([]byte, error) {
	data, err := json.Marshal(Table(buckets))
	if err != nil {
		return nil, fmt.Errorf("failed to encode chart table: %w", err)
	}
	return data, nil
}
