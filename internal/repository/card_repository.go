package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/expenditure-manager/internal/database"
	"gitlab.com/yelinaung/expenditure-manager/internal/models"
)

// CardRepository handles card database operations.
type CardRepository struct {
	db database.PGXDB
}

// NewCardRepository creates a new CardRepository.
func NewCardRepository(db database.PGXDB) *CardRepository {
	return &CardRepository{db: db}
}

// Add inserts a new card with a generated ID.
func (r *CardRepository) Add(ctx context.Context, c *models.Card) error {
	c.ID = uuid.NewString()
	return r.Set(ctx, c)
}

// Set creates or fully overwrites a card by ID. An ID owned by another
// user returns ErrNotFound and changes nothing.
func (r *CardRepository) Set(ctx context.Context, c *models.Card) error {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO cards (id, user_id, bank_name, card_number, holder_name, expiry,
			monthly_budget, current_month_left, previous_month_budget, previous_month_left)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			bank_name = EXCLUDED.bank_name,
			card_number = EXCLUDED.card_number,
			holder_name = EXCLUDED.holder_name,
			expiry = EXCLUDED.expiry,
			monthly_budget = EXCLUDED.monthly_budget,
			current_month_left = EXCLUDED.current_month_left,
			previous_month_budget = EXCLUDED.previous_month_budget,
			previous_month_left = EXCLUDED.previous_month_left
		WHERE cards.user_id = EXCLUDED.user_id
	`, c.ID, c.UserID, c.BankName, c.CardNumber, c.HolderName, c.Expiry,
		nullDecimal(c.MonthlyBudget), nullDecimal(c.CurrentMonthLeft),
		nullDecimal(c.PreviousMonthBudget), nullDecimal(c.PreviousMonthLeft))
	if err != nil {
		return fmt.Errorf("failed to set card: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to set card: %w", ErrNotFound)
	}
	return nil
}

// List returns a user's cards ordered by bank name.
func (r *CardRepository) List(ctx context.Context, userID string) ([]models.Card, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, bank_name, card_number, holder_name, expiry,
			monthly_budget, current_month_left, previous_month_budget, previous_month_left
		FROM cards WHERE user_id = $1 ORDER BY bank_name, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	defer rows.Close()

	cards := []models.Card{}
	for rows.Next() {
		var c models.Card
		var budget, left, pBudget, pLeft decimal.NullDecimal
		if err := rows.Scan(&c.ID, &c.UserID, &c.BankName, &c.CardNumber, &c.HolderName, &c.Expiry,
			&budget, &left, &pBudget, &pLeft); err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		c.MonthlyBudget = fromNull(budget)
		c.CurrentMonthLeft = fromNull(left)
		c.PreviousMonthBudget = fromNull(pBudget)
		c.PreviousMonthLeft = fromNull(pLeft)
		cards = append(cards, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cards: %w", err)
	}
	return cards, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

func fromNull(n decimal.NullDecimal) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	d := n.Decimal
	return &d
}
