package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")
	ErrUserInactive      = errors.New("inactive user")

	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrTokenInvalid covers every token failure: malformed, forged, expired or of the wrong kind.
	ErrTokenInvalid = errors.New("invalid or expired token")
)
