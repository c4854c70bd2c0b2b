package service

import "errors"

var (
	// ErrInvalidCredentials is the only login failure a caller ever sees:
	// unknown username everywhere, or wrong password for a known user.
	ErrInvalidCredentials = errors.New("invalid_credentials")

	// ErrUsernameTaken reports a registration against an existing username.
	ErrUsernameTaken = errors.New("username_taken")
)
