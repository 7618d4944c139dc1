package models

import (
	"fmt"
	"strings"
)

// Period is the aggregation and bucketing granularity.
type Period string

// Supported periods.
const (
	PeriodDaily   Period = "DAILY"
	PeriodWeekly  Period = "WEEKLY"
	PeriodMonthly Period = "MONTHLY"
	PeriodYearly  Period = "YEARLY"
)

// Periods lists every period in selector order.
var Periods = []Period{PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodYearly}

// ParsePeriod accepts "daily", "Day", "week", "MONTHLY" and similar.
func ParsePeriod(s string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "day", "d":
		return PeriodDaily, nil
	case "weekly", "week", "w":
		return PeriodWeekly, nil
	case "monthly", "month", "m":
		return PeriodMonthly, nil
	case "yearly", "year", "y", "annual":
		return PeriodYearly, nil
	default:
		return "", fmt.Errorf("unknown period %q", s)
	}
}

// Title returns the period in title case, e.g. "Daily".
func (p Period) Title() string {
	if p == "" {
		return ""
	}
	s := strings.ToLower(string(p))
	return strings.ToUpper(s[:1]) + s[1:]
}
