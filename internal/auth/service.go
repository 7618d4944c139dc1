// Package auth implements email and password accounts with JWT sessions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/badoux/checkmail"
	"github.com/google/uuid"
	"gitlab.com/yelinaung/expenditure-manager/internal/logger"
	"gitlab.com/yelinaung/expenditure-manager/internal/models"
	"gitlab.com/yelinaung/expenditure-manager/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the work factor for new password hashes.
const DefaultBcryptCost = 12

// CredentialStore persists accounts and password hashes. CreateAccount
// writes the profile and the credential atomically and reports a taken
// email as repository.ErrDuplicate.
type CredentialStore interface {
	CreateAccount(ctx context.Context, p *models.UserProfile, c *repository.Credential) error
	GetByEmail(ctx context.Context, email string) (*repository.Credential, error)
	GetByUserID(ctx context.Context, userID string) (*repository.Credential, error)
	UpdatePassword(ctx context.Context, userID, hash string) error
}

// Session is a signed-in user's token.
type Session struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SignUpParams is the sign-up form.
type SignUpParams struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	AcceptedTerms   bool   `json:"acceptedTerms"`
}

// Service handles sign-up, sign-in, password changes and sign-out.
type Service struct {
	creds  CredentialStore
	tokens *TokenManager
	cost   int
}

// NewService creates a new Service.
func NewService(creds CredentialStore, tokens *TokenManager) *Service {
	return &Service{creds: creds, tokens: tokens, cost: DefaultBcryptCost}
}

// WithCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func (s *Service) WithCost(cost int) *Service {
	s.cost = cost
	return s
}

// SignUp creates an account and bootstraps the profile with the given
// name as both full name and display name.
func (s *Service) SignUp(ctx context.Context, p SignUpParams) (*Session, error) {
	if !p.AcceptedTerms {
		return nil, ErrTermsNotAccepted
	}
	if p.Password != p.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	if p.Password == "" {
		return nil, ErrEmptyPassword
	}
	email := strings.TrimSpace(p.Email)
	if err := checkmail.ValidateFormat(email); err != nil {
		return nil, ErrInvalidEmail
	}

	_, err := s.creds.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, ErrEmailTaken
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	userID := uuid.NewString()
	name := strings.TrimSpace(p.Name)
	profile := &models.UserProfile{
		UserID:          userID,
		Email:           email,
		FullName:        name,
		WhatDoWeCallYou: name,
		PhoneNumber:     "",
	}
	cred := &repository.Credential{UserID: userID, Email: email, PasswordHash: string(hash)}
	if err := s.creds.CreateAccount(ctx, profile, cred); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	logger.Log.Info().Str("user", logger.HashUserID(userID)).Msg("User signed up")
	return s.session(userID, email)
}

// SignIn checks an email and password and opens a session.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	cred, err := s.creds.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		logger.Log.Warn().Str("email", logger.HashEmail(email)).Msg("Sign-in rejected")
		return nil, ErrInvalidCredentials
	}
	return s.session(cred.UserID, cred.Email)
}

// ChangePassword re-authenticates with the current password, then stores the new one.
func (s *Service) ChangePassword(ctx context.Context, userID, current, newPassword, confirm string) error {
	if newPassword != confirm {
		return ErrPasswordMismatch
	}
	if newPassword == "" {
		return ErrEmptyPassword
	}

	cred, err := s.creds.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("failed to load credentials: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(current)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.creds.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	logger.Log.Info().Str("user", logger.HashUserID(userID)).Msg("Password changed")
	return nil
}

// SignOut revokes a session token.
func (s *Service) SignOut(_ context.Context, token string) error {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return err
	}
	s.tokens.Revoke(claims)
	return nil
}

// Verify returns the user ID for a valid session token.
func (s *Service) Verify(token string) (string, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (s *Service) session(userID, email string) (*Session, error) {
	token, expires, err := s.tokens.Issue(userID, email)
	if err != nil {
		return nil, err
	}
	return &Session{UserID: userID, Email: email, Token: token, ExpiresAt: expires}, nil
}
