package subscriber

import "errors"

// Sentinel errors for the subscriber service layer.
var (
	ErrNotFound       = errors.New("subscriber not found")
	ErrInvalidEmail   = errors.New("invalid email address")
	ErrDuplicateEmail = errors.New("email already subscribed")
	ErrInvalidToken   = errors.New("invalid unsubscribe token")
)
