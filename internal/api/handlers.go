// Package api exposes the HTTP surface: authenticated management routes
// under /api, the OAuth flow under /auth, and the public newsletter and
// unsubscribe endpoints.
package api

import (
	"errors"
	"net/http"

	"github.com/inkwell/newsletter-platform/internal/service/dispatch"
	"github.com/inkwell/newsletter-platform/internal/service/newsletter"
	"github.com/inkwell/newsletter-platform/internal/service/subscriber"
)

// Handlers bundles the service dependencies for all HTTP handlers.
type Handlers struct {
	newsletters *newsletter.Service
	subscribers *subscriber.Service
	dispatcher  *dispatch.Service
	baseURL     string
}

// NewHandlers creates the handler set.
func NewHandlers(
	newsletters *newsletter.Service,
	subscribers *subscriber.Service,
	dispatcher *dispatch.Service,
	baseURL string,
) *Handlers {
	return &Handlers{
		newsletters: newsletters,
		subscribers: subscribers,
		dispatcher:  dispatcher,
		baseURL:     baseURL,
	}
}

// HealthCheck reports liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// respondServiceError translates service sentinel errors into HTTP status
// codes. Unknown errors become sanitized 500s.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, newsletter.ErrNotFound),
		errors.Is(err, subscriber.ErrNotFound),
		errors.Is(err, dispatch.ErrNewsletterNotFound),
		errors.Is(err, dispatch.ErrSubscriberNotFound):
		respondError(w, http.StatusNotFound, err.Error())

	case errors.Is(err, newsletter.ErrTitleRequired),
		errors.Is(err, newsletter.ErrScheduleTooSoon),
		errors.Is(err, newsletter.ErrNotScheduled),
		errors.Is(err, subscriber.ErrInvalidEmail),
		errors.Is(err, subscriber.ErrInvalidToken),
		errors.Is(err, dispatch.ErrEmptySelection),
		errors.Is(err, dispatch.ErrInvalidTarget),
		errors.Is(err, dispatch.ErrNoRecipients),
		errors.Is(err, dispatch.ErrInvalidTestEmail):
		respondError(w, http.StatusBadRequest, err.Error())

	case errors.Is(err, subscriber.ErrDuplicateEmail):
		respondError(w, http.StatusConflict, err.Error())

	default:
		respondSafeError(w, http.StatusInternalServerError, err, safeErrorMessage(http.StatusInternalServerError, err))
	}
}
