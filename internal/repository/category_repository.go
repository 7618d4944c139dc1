package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gitlab.com/yelinaung/expenditure-manager/internal/database"
	"gitlab.com/yelinaung/expenditure-manager/internal/models"
)

// CategoryRepository handles category database operations.
type CategoryRepository struct {
	db database.PGXDB
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(db database.PGXDB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Add inserts a new category with a generated ID.
func (r *CategoryRepository) Add(ctx context.Context, userID string, c *models.Category) error {
	c.ID = uuid.NewString()
	return r.Set(ctx, userID, c)
}

// Set creates or fully overwrites a category by ID. Existing transactions
// keep their embedded copy of the old values. An ID owned by another user
// returns ErrNotFound and changes nothing.
func (r *CategoryRepository) Set(ctx context.Context, userID string, c *models.Category) error {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO categories (id, user_id, name, color_hex) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			color_hex = EXCLUDED.color_hex
		WHERE categories.user_id = EXCLUDED.user_id
	`, c.ID, userID, c.Name, c.ColorHex)
	if err != nil {
		return fmt.Errorf("failed to set category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to set category: %w", ErrNotFound)
	}
	return nil
}

// List returns a user's categories ordered by name.
func (r *CategoryRepository) List(ctx context.Context, userID string) ([]models.Category, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, color_hex FROM categories WHERE user_id = $1 ORDER BY name, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var cat models.Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.ColorHex); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return categories, nil
}

// GetByName retrieves a user's category by name (case-insensitive).
func (r *CategoryRepository) GetByName(ctx context.Context, userID, name string) (*models.Category, error) {
	var cat models.Category
	err := r.db.QueryRow(ctx, `
		SELECT id, name, color_hex FROM categories
		WHERE user_id = $1 AND LOWER(name) = LOWER($2)
		ORDER BY id LIMIT 1
	`, userID, name).Scan(&cat.ID, &cat.Name, &cat.ColorHex)
	if err != nil {
		return nil, fmt.Errorf("failed to get category by name: %w", notFound(err))
	}
	return &cat, nil
}
