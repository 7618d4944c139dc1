package models

import "github.com/shopspring/decimal"

// NotificationItem is demo data shown in the notifications list. Never persisted.
// Unlike transactions, Amount is signed.
type NotificationItem struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	TimeAgo     string          `json:"timeAgo"`
	Categories  []string        `json:"categories"`
}

// SampleNotifications returns the fixed sample notification feed.
func SampleNotifications() []NotificationItem {
	in := []string{"Income", "Loan", "Others"}
	out := []string{"Food", "Shopping", "Others"}
	return []NotificationItem{
		{ID: "n1", Description: "+ 200$ From A", Amount: decimal.NewFromInt(200), TimeAgo: "2m", Categories: in},
		{ID: "n2", Description: "- 500$ To B", Amount: decimal.NewFromInt(-500), TimeAgo: "15m", Categories: out},
		{ID: "n3", Description: "+ 200$ From C", Amount: decimal.NewFromInt(200), TimeAgo: "1d", Categories: in},
		{ID: "n4", Description: "- 500$ To D", Amount: decimal.NewFromInt(-500), TimeAgo: "2d", Categories: out},
		{ID: "n5", Description: "- 500$ To E", Amount: decimal.NewFromInt(-500), TimeAgo: "1w", Categories: out},
	}
}
