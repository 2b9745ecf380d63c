package newsletter

import "errors"

// Sentinel errors for the newsletter service layer.
var (
	ErrNotFound        = errors.New("newsletter not found")
	ErrNotScheduled    = errors.New("newsletter is not scheduled")
	ErrScheduleTooSoon = errors.New("scheduled time must be at least 5 minutes from now")
	ErrTitleRequired   = errors.New("title is required")
)
