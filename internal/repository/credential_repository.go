package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"gitlab.com/yelinaung/expenditure-manager/internal/database"
	"gitlab.com/yelinaung/expenditure-manager/internal/models"
)

// Credential is a stored email and password hash.
type Credential struct {
	UserID       string
	Email        string
	PasswordHash string
}

// CredentialRepository stores password hashes for email sign-in.
type CredentialRepository struct {
	db database.TxPGXDB
}

// NewCredentialRepository creates a new CredentialRepository.
func NewCredentialRepository(db database.TxPGXDB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// CreateAccount inserts a new profile and its credential in one
// transaction. A taken email returns ErrDuplicate and writes nothing.
func (r *CredentialRepository) CreateAccount(ctx context.Context, p *models.UserProfile, c *Credential) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO user_profiles (user_id, email, full_name, what_do_we_call_you, phone_number)
			VALUES ($1, $2, $3, $4, $5)
		`, p.UserID, p.Email, p.FullName, p.WhatDoWeCallYou, p.PhoneNumber); err != nil {
			return fmt.Errorf("failed to create profile: %w", duplicate(err))
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO credentials (user_id, email, password_hash) VALUES ($1, $2, $3)
		`, c.UserID, c.Email, c.PasswordHash); err != nil {
			return fmt.Errorf("failed to create credential: %w", duplicate(err))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetByEmail looks up a credential by email, case-insensitively.
func (r *CredentialRepository) GetByEmail(ctx context.Context, email string) (*Credential, error) {
	var c Credential
	err := r.db.QueryRow(ctx, `
		SELECT user_id, email, password_hash FROM credentials WHERE LOWER(email) = LOWER($1)
	`, email).Scan(&c.UserID, &c.Email, &c.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to get credential: %w", notFound(err))
	}
	return &c, nil
}

// GetByUserID looks up a credential by user ID.
func (r *CredentialRepository) GetByUserID(ctx context.Context, userID string) (*Credential, error) {
	var c Credential
	err := r.db.QueryRow(ctx, `
		SELECT user_id, email, password_hash FROM credentials WHERE user_id = $1
	`, userID).Scan(&c.UserID, &c.Email, &c.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to get credential: %w", notFound(err))
	}
	return &c, nil
}

// UpdatePassword replaces the stored password hash.
func (r *CredentialRepository) UpdatePassword(ctx context.Context, userID, hash string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE credentials SET password_hash = $2, updated_at = NOW() WHERE user_id = $1
	`, userID, hash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update password: %w", ErrNotFound)
	}
	return nil
}
