// Package models defines the domain entities for the expenditure manager.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is stamped on new transactions. Currency is informational only.
const DefaultCurrency = "USD"

// DefaultCategoryColor is used when a category is created without a color.
const DefaultCategoryColor = "#00B140"

// CashWallet is the card name used for cash payments.
const CashWallet = "Cash"

// MaxCategoryNameLength is the maximum allowed length for category names.
const MaxCategoryNameLength = 50

// SupportedCurrencies maps currency codes to display symbols.
var SupportedCurrencies = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"SGD": "S$",
	"JPY": "¥",
	"MYR": "RM",
	"THB": "฿",
	"INR": "₹",
	"AUD": "A$",
}

// TransactionType is the direction of a transaction.
type TransactionType string

// Transaction types.
const (
	TypeExpense TransactionType = "EXPENSE"
	TypeIncome  TransactionType = "INCOME"
)

// ParseTransactionType parses a case-insensitive transaction type.
func ParseTransactionType(s string) (TransactionType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(TypeExpense):
		return TypeExpense, nil
	case string(TypeIncome):
		return TypeIncome, nil
	default:
		return "", fmt.Errorf("unknown transaction type %q", s)
	}
}

// Sign returns "+" for income and "-" for expense.
func (t TransactionType) Sign() string {
	if t == TypeIncome {
		return "+"
	}
	return "-"
}

// Category is a user-defined label. It is embedded by value into transactions,
// so renaming a category never rewrites history.
type Category struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ColorHex string `json:"colorHex"`
}

// Transaction is a single income or expense record.
// Amount is always a magnitude; direction comes from Type.
type Transaction struct {
	ID           string          `json:"id"`
	UserID       string          `json:"-"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	Type         TransactionType `json:"type"`
	CardOrWallet string          `json:"cardOrWallet"`
	Category     Category        `json:"category"`
	Date         time.Time       `json:"date"`
	// HeardText is the raw transcript of a voice entry. Never persisted.
	HeardText string `json:"-"`
}

// DateMillis returns the transaction date as milliseconds since epoch.
func (t Transaction) DateMillis() int64 {
	return t.Date.UnixMilli()
}

// SignedDisplay formats the amount with its direction, e.g. "-$12.50".
func (t Transaction) SignedDisplay() string {
	return t.Type.Sign() + FormatAmount(t.Amount, t.Currency)
}

// FormatAmount renders an amount with the currency symbol when known.
func FormatAmount(amount decimal.Decimal, currency string) string {
	if symbol, ok := SupportedCurrencies[currency]; ok {
		return symbol + amount.StringFixed(2)
	}
	if currency == "" {
		return amount.StringFixed(2)
	}
	return amount.StringFixed(2) + " " + currency
}

// Card is a payment card or wallet. CardNumber is stored as entered and
// must be replaced by a tokenized reference before production use; it is
// masked in every response and log line. No CVV is ever accepted.
type Card struct {
	ID                  string           `json:"id"`
	UserID              string           `json:"-"`
	BankName            string           `json:"bankName"`
	CardNumber          string           `json:"cardNumber"`
	HolderName          string           `json:"holderName"`
	Expiry              string           `json:"expiry"`
	MonthlyBudget       *decimal.Decimal `json:"monthlyBudget,omitempty"`
	CurrentMonthLeft    *decimal.Decimal `json:"currentMonthLeft,omitempty"`
	PreviousMonthBudget *decimal.Decimal `json:"previousMonthBudget,omitempty"`
	PreviousMonthLeft   *decimal.Decimal `json:"previousMonthLeft,omitempty"`
}

// Threshold holds per-user spend limits. Checked only on request.
type Threshold struct {
	Daily   decimal.Decimal `json:"daily"`
	Monthly decimal.Decimal `json:"monthly"`
	Yearly  decimal.Decimal `json:"yearly"`
}

// UserProfile is the per-user profile document.
type UserProfile struct {
	UserID          string `json:"userId"`
	Email           string `json:"email"`
	FullName        string `json:"fullName"`
	WhatDoWeCallYou string `json:"whatDoWeCallYou"`
	PhoneNumber     string `json:"phoneNumber"`
}

// ProfileUpdate carries a partial profile update. Nil fields are left unchanged.
type ProfileUpdate struct {
	FullName        *string `json:"fullName,omitempty"`
	WhatDoWeCallYou *string `json:"whatDoWeCallYou,omitempty"`
	PhoneNumber     *string `json:"phoneNumber,omitempty"`
}

// Empty reports whether the update changes nothing.
func (u ProfileUpdate) Empty() bool {
	return u.FullName == nil && u.WhatDoWeCallYou == nil && u.PhoneNumber == nil
}
