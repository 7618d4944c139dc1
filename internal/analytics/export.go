package analytics

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"gitlab.com/yelinaung/expenditure-manager/internal/models"
)

// ExportCSV renders transactions as CSV with a header row.
func ExportCSV(transactions []models.Transaction) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := []string{"ID", "Date", "Type", "Amount", "Currency", "Description", "Card", "Category"}
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i := range transactions {
		categoryName := transactions[i].Category.Name
		if categoryName == "" {
			categoryName = "Uncategorized"
		}

		row := []string{
			transactions[i].ID,
			transactions[i].Date.Format("2006-01-02 15:04:05"),
			string(transactions[i].Type),
			transactions[i].Amount.StringFixed(2),
			transactions[i].Currency,
			transactions[i].Description,
			transactions[i].CardOrWallet,
			categoryName,
		}

		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ReportFilename creates a filename like "transactions_2026-01-31.csv".
func ReportFilename(now time.Time) string {
	return fmt.Sprintf("transactions_%s.csv", now.Format("2006-01-02"))
}

func periodSlug(p models.Period) string {
	if p == "" {
		return "all"
	}
	return strings.ToLower(string(p))
}
