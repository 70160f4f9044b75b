package auth

import "errors"

var (
	// ErrUserNotFound means an email login matched zero accounts.
	ErrUserNotFound = errors.New("no account found with the given e-mail")

	// ErrAmbiguousEmail means an email login matched more than one account.
	// That is a data-integrity condition and is surfaced distinctly instead
	// of silently picking one.
	ErrAmbiguousEmail = errors.New("more than one account with the given e-mail")

	// ErrInvalidCredentials covers wrong passwords and inactive accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrTokenNotValid covers malformed, expired and revoked tokens.
	ErrTokenNotValid = errors.New("token is invalid or expired")
)
