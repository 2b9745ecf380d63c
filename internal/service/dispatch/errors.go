package dispatch

import "errors"

// Sentinel errors for the dispatch service layer.
var (
	ErrNewsletterNotFound = errors.New("newsletter not found")
	ErrSubscriberNotFound = errors.New("subscriber not found")
	ErrEmptySelection     = errors.New("no subscribers selected")
	ErrInvalidTarget      = errors.New("invalid target mode")
	ErrNoRecipients       = errors.New("no active subscribers to send to")
	ErrInvalidTestEmail   = errors.New("invalid test email address")
)
