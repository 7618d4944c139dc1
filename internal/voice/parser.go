// Package voice turns recognized speech into transaction fields.
package voice

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/expenditure-manager/internal/models"
)

var (
	incomeKeywords   = []string{"receive", "income", "salary", "deposit"}
	expenseKeywords  = []string{"expense", "spent", "paid", "bought"}
	currencyKeywords = []string{"dollars", "usd", "euro"}

	amountRegex = regexp.MustCompile(`\d+(\.\d+)?`)
	spaceRegex  = regexp.MustCompile(`\s+`)
)

const cashKeyword = "cash"

// Command is the result of parsing one utterance. Nil fields were not
// mentioned and should leave any existing value alone.
type Command struct {
	Amount      *decimal.Decimal
	Type        *models.TransactionType
	Card        *string
	Category    *string
	Description string
}

// Parse extracts type, amount, card and category from text, in that order.
// Each stage removes what it matched before the next stage runs, and the
// leftover text becomes the description.
//
// Matching is ordered first-match on lower-cased substrings, so a category
// named "Income" is consumed as a type keyword before category matching sees it.
func Parse(text string, knownCards, knownCategories []string) Command {
	buf := strings.ToLower(text)
	var cmd Command

	buf, cmd.Type = parseType(buf)
	buf, cmd.Amount = parseAmount(buf)
	buf, cmd.Card = matchKnown(buf, knownCards)
	if cmd.Card == nil && strings.Contains(buf, cashKeyword) {
		cash := models.CashWallet
		cmd.Card = &cash
		buf = strings.TrimSpace(strings.ReplaceAll(buf, cashKeyword, ""))
	}
	buf, cmd.Category = matchKnown(buf, knownCategories)

	cmd.Description = strings.TrimSpace(spaceRegex.ReplaceAllString(buf, " "))
	return cmd
}

func parseType(buf string) (string, *models.TransactionType) {
	for _, set := range []struct {
		keywords []string
		typ      models.TransactionType
	}{
		{incomeKeywords, models.TypeIncome},
		{expenseKeywords, models.TypeExpense},
	} {
		if !containsAny(buf, set.keywords) {
			continue
		}
		typ := set.typ
		return strings.TrimSpace(removeAll(buf, set.keywords)), &typ
	}
	return buf, nil
}

func parseAmount(buf string) (string, *decimal.Decimal) {
	var amount *decimal.Decimal

	if match := amountRegex.FindString(buf); match != "" {
		if d, err := decimal.NewFromString(match); err == nil {
			amount = &d
			buf = strings.TrimSpace(strings.ReplaceAll(buf, match, ""))
		}
	}

	return strings.TrimSpace(removeAll(buf, currencyKeywords)), amount
}

// matchKnown selects the first name, in the given order, that appears in buf.
// The returned name keeps its original casing.
func matchKnown(buf string, names []string) (string, *string) {
	for _, name := range names {
		lower := strings.ToLower(name)
		if lower == "" || !strings.Contains(buf, lower) {
			continue
		}
		selected := name
		return strings.TrimSpace(strings.ReplaceAll(buf, lower, "")), &selected
	}
	return buf, nil
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func removeAll(s string, keywords []string) string {
	for _, k := range keywords {
		s = strings.ReplaceAll(s, k, "")
	}
	return s
}
