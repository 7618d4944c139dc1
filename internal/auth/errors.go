package auth

import "errors"

var (
	ErrTermsNotAccepted   = errors.New("terms not accepted")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrEmptyPassword      = errors.New("password is empty")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid session token")
	ErrExpiredToken       = errors.New("session token expired")
)

var messages = []struct {
	err error
	msg string
}{
	{ErrTermsNotAccepted, "Please accept the terms & policy."},
	{ErrPasswordMismatch, "Passwords do not match."},
	{ErrEmptyPassword, "Password cannot be empty."},
	{ErrInvalidEmail, "Please enter a valid email address."},
	{ErrEmailTaken, "An account with this email already exists."},
	{ErrInvalidCredentials, "Invalid email or password."},
	{ErrExpiredToken, "Your session has expired. Please sign in again."},
	{ErrInvalidToken, "Please sign in."},
}

// Message returns the user-facing text for an auth error.
func Message(err error) string {
	for _, m := range messages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return "Something went wrong. Please try again."
}

// IsClientError reports whether err was caused by the caller's input.
func IsClientError(err error) bool {
	for _, m := range messages {
		if errors.Is(err, m.err) {
			return true
		}
	}
	return false
}
