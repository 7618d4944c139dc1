package analytics

import (
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/expenditure-manager/internal/models"
)

// SpendTotals are expense sums for the calendar day, month and year of a reference instant.
type SpendTotals struct {
	Today     decimal.Decimal `json:"today"`
	ThisMonth decimal.Decimal `json:"thisMonth"`
	ThisYear  decimal.Decimal `json:"thisYear"`
}

// ThresholdStatus compares one spend total against its limit.
type ThresholdStatus struct {
	Period models.Period   `json:"period"`
	Spent  decimal.Decimal `json:"spent"`
	Limit  decimal.Decimal `json:"limit"`
	Over   bool            `json:"over"`
}

// ComputeSpendTotals sums expenses for now's calendar day, month and year.
func ComputeSpendTotals(transactions []models.Transaction, now time.Time) SpendTotals {
	totals := SpendTotals{Today: decimal.Zero, ThisMonth: decimal.Zero, ThisYear: decimal.Zero}
	loc := now.Location()

	for i := range transactions {
		if transactions[i].Type != models.TypeExpense {
			continue
		}
		d := transactions[i].Date.In(loc)
		if d.Year() != now.Year() {
			continue
		}
		amount := transactions[i].Amount
		totals.ThisYear = totals.ThisYear.Add(amount)
		if d.Month() == now.Month() {
			totals.ThisMonth = totals.ThisMonth.Add(amount)
		}
		if d.YearDay() == now.YearDay() {
			totals.Today = totals.Today.Add(amount)
		}
	}

	return totals
}

// CheckThresholds reports daily, monthly and yearly spend against the limits.
// A limit is exceeded only when spend is strictly greater.
func CheckThresholds(totals SpendTotals, limits models.Threshold) []ThresholdStatus {
	return []ThresholdStatus{
		status(models.PeriodDaily, totals.Today, limits.Daily),
		status(models.PeriodMonthly, totals.ThisMonth, limits.Monthly),
		status(models.PeriodYearly, totals.ThisYear, limits.Yearly),
	}
}

func status(period models.Period, spent, limit decimal.Decimal) ThresholdStatus {
	return ThresholdStatus{Period: period, Spent: spent, Limit: limit, Over: spent.GreaterThan(limit)}
}
