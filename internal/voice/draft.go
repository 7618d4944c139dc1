package voice

import (
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/expenditure-manager/internal/models"
)

// Draft is a transaction being entered. Fields fill in across several
// commands until the user confirms.
type Draft struct {
	Amount       *decimal.Decimal
	Type         models.TransactionType
	CardOrWallet string
	Category     string
	Description  string
	HeardText    string
}

// NewDraft starts an expense draft.
func NewDraft() *Draft {
	return &Draft{Type: models.TypeExpense}
}

// Apply merges a parsed command into the draft. Fields the command did not
// mention keep their current value. An empty description is ignored.
func (d *Draft) Apply(cmd Command, heard string) {
	if cmd.Amount != nil {
		amount := *cmd.Amount
		d.Amount = &amount
	}
	if cmd.Type != nil {
		d.Type = *cmd.Type
	}
	if cmd.Card != nil {
		d.CardOrWallet = *cmd.Card
	}
	if cmd.Category != nil {
		d.Category = *cmd.Category
	}
	if cmd.Description != "" {
		d.Description = cmd.Description
	}
	d.HeardText = heard
}

// Missing lists the fields still required before the draft can be saved.
func (d *Draft) Missing() []string {
	var missing []string
	if d.Amount == nil {
		missing = append(missing, "amount")
	}
	if d.Category == "" {
		missing = append(missing, "category")
	}
	if d.Description == "" {
		missing = append(missing, "description")
	}
	if d.CardOrWallet == "" {
		missing = append(missing, "card")
	}
	return missing
}
