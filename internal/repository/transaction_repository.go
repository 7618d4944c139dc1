package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gitlab.com/yelinaung/expenditure-manager/internal/database"
	"gitlab.com/yelinaung/expenditure-manager/internal/models"
)

// TransactionRepository handles transaction database operations.
type TransactionRepository struct {
	db database.PGXDB
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(db database.PGXDB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `id, user_id, description, amount, currency, type, card_or_wallet,
	category_id, category_name, category_color, date_ms`

// Add inserts a new transaction, assigning an ID when it has none.
// The category is stored by value alongside the row.
func (r *TransactionRepository) Add(ctx context.Context, t *models.Transaction) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Currency == "" {
		t.Currency = models.DefaultCurrency
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, t.ID, t.UserID, t.Description, t.Amount, t.Currency, string(t.Type), t.CardOrWallet,
		t.Category.ID, t.Category.Name, t.Category.ColorHex, t.DateMillis())
	if err != nil {
		return fmt.Errorf("failed to add transaction: %w", err)
	}
	return nil
}

// Get retrieves one of a user's transactions.
func (r *TransactionRepository) Get(ctx context.Context, userID, id string) (*models.Transaction, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+transactionColumns+` FROM transactions WHERE user_id = $1 AND id = $2
	`, userID, id)

	t, err := scanTransaction(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", notFound(err))
	}
	return t, nil
}

// List returns every transaction for a user, newest first.
func (r *TransactionRepository) List(ctx context.Context, userID string) ([]models.Transaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE user_id = $1
		ORDER BY date_ms DESC, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return transactions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var (
		t      models.Transaction
		typ    string
		dateMs int64
	)
	err := row.Scan(&t.ID, &t.UserID, &t.Description, &t.Amount, &t.Currency, &typ, &t.CardOrWallet,
		&t.Category.ID, &t.Category.Name, &t.Category.ColorHex, &dateMs)
	if err != nil {
		return nil, err
	}
	t.Type = models.TransactionType(typ)
	t.Date = time.UnixMilli(dateMs)
	return &t, nil
}
