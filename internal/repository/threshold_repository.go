package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/expenditure-manager/internal/database"
	"gitlab.com/yelinaung/expenditure-manager/internal/models"
)

// ThresholdRepository stores the per-user threshold singleton.
type ThresholdRepository struct {
	db database.PGXDB
}

// NewThresholdRepository creates a new ThresholdRepository.
func NewThresholdRepository(db database.PGXDB) *ThresholdRepository {
	return &ThresholdRepository{db: db}
}

// Get returns the user's thresholds, or all zeros when none are set.
func (r *ThresholdRepository) Get(ctx context.Context, userID string) (*models.Threshold, error) {
	var th models.Threshold
	err := r.db.QueryRow(ctx, `
		SELECT daily, monthly, yearly FROM thresholds WHERE user_id = $1
	`, userID).Scan(&th.Daily, &th.Monthly, &th.Yearly)
	if err != nil {
		if errors.Is(notFound(err), ErrNotFound) {
			return &models.Threshold{Daily: decimal.Zero, Monthly: decimal.Zero, Yearly: decimal.Zero}, nil
		}
		return nil, fmt.Errorf("failed to get thresholds: %w", err)
	}
	return &th, nil
}

// Set overwrites the user's thresholds.
func (r *ThresholdRepository) Set(ctx context.Context, userID string, th models.Threshold) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO thresholds (user_id, daily, monthly, yearly) VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			daily = EXCLUDED.daily,
			monthly = EXCLUDED.monthly,
			yearly = EXCLUDED.yearly
	`, userID, th.Daily, th.Monthly, th.Yearly)
	if err != nil {
		return fmt.Errorf("failed to set thresholds: %w", err)
	}
	return nil
}
