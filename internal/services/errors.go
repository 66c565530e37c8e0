package services

import "errors"

// Client-facing errors. The message of each error is returned to the caller as is.
var (
	ErrMissingParameter   = errors.New("Missing parameter")
	ErrDuplicateEmail     = errors.New("This email already has an account")
	ErrDuplicateUsername  = errors.New("This username already has an account")
	ErrAccountNotFound    = errors.New("This account does not exist")
	ErrInvalidCredentials = errors.New("Unauthorized")

	// ErrUnauthenticated means the bearer token is missing, malformed or unknown.
	ErrUnauthenticated = errors.New("Unauthorized")

	// ErrUnauthorized means the caller does not own the resource.
	ErrUnauthorized = errors.New("Unauthorized")

	ErrMissingID    = errors.New("Missing Id")
	ErrUserNotFound = errors.New("User not found")
	ErrMissingPhoto = errors.New("Missing photo")
	ErrNoPhotoFound = errors.New("No photo found")

	ErrPhotoTooLarge = errors.New("uploaded file too large")
)
