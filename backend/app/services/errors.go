package services

import "errors"

// Error kinds. Services wrap them with detail using %w; controllers map
// them to responses with errors.Is.
var (
	ErrValidation         = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnauthenticated    = errors.New("login required")
	ErrForbidden          = errors.New("unauthorized access")
	ErrNotFound           = errors.New("room not found")
	ErrUpload             = errors.New("image upload failed")
	ErrConflict           = errors.New("username already taken")
)

// IsAuthError reports whether err is one of the authentication or
// authorization failures.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrUnauthenticated) || errors.Is(err, ErrForbidden)
}
