package repository

import (
	"context"
	"fmt"

	"gitlab.com/yelinaung/expenditure-manager/internal/database"
	"gitlab.com/yelinaung/expenditure-manager/internal/models"
)

// ProfileRepository handles user profile database operations.
type ProfileRepository struct {
	db database.PGXDB
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(db database.PGXDB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Set creates or fully overwrites a profile.
func (r *ProfileRepository) Set(ctx context.Context, p *models.UserProfile) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO user_profiles (user_id, email, full_name, what_do_we_call_you, phone_number)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			email = EXCLUDED.email,
			full_name = EXCLUDED.full_name,
			what_do_we_call_you = EXCLUDED.what_do_we_call_you,
			phone_number = EXCLUDED.phone_number,
			updated_at = NOW()
	`, p.UserID, p.Email, p.FullName, p.WhatDoWeCallYou, p.PhoneNumber)
	if err != nil {
		return fmt.Errorf("failed to set profile: %w", err)
	}
	return nil
}

// Get retrieves a profile by user ID.
func (r *ProfileRepository) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	var p models.UserProfile
	err := r.db.QueryRow(ctx, `
		SELECT user_id, email, full_name, what_do_we_call_you, phone_number
		FROM user_profiles WHERE user_id = $1
	`, userID).Scan(&p.UserID, &p.Email, &p.FullName, &p.WhatDoWeCallYou, &p.PhoneNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", notFound(err))
	}
	return &p, nil
}

// Update applies a partial update. Nil fields keep their stored value.
func (r *ProfileRepository) Update(ctx context.Context, userID string, u models.ProfileUpdate) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE user_profiles SET
			full_name = COALESCE($2, full_name),
			what_do_we_call_you = COALESCE($3, what_do_we_call_you),
			phone_number = COALESCE($4, phone_number),
			updated_at = NOW()
		WHERE user_id = $1
	`, userID, u.FullName, u.WhatDoWeCallYou, u.PhoneNumber)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update profile: %w", ErrNotFound)
	}
	return nil
}
