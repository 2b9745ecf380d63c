package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/inkwell/newsletter-platform/internal/auth"
	"github.com/inkwell/newsletter-platform/internal/domain"
	"github.com/inkwell/newsletter-platform/internal/service/dispatch"
)

// SendBatch dispatches a newsletter to many recipients and returns the
// settled per-recipient outcomes. The request either targets the whole
// active list or an explicit id selection.
func (h *Handlers) SendBatch(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserID(r.Context())

	var body struct {
		NewsletterID  string   `json:"newsletterId"`
		SendToAll     bool     `json:"sendToAll"`
		SubscriberIDs []string `json:"subscriberIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.NewsletterID == "" {
		respondError(w, http.StatusBadRequest, "newsletterId is required")
		return
	}

	target := dispatch.Target{Mode: dispatch.TargetSelected, SubscriberIDs: body.SubscriberIDs}
	if body.SendToAll {
		target = dispatch.Target{Mode: dispatch.TargetAll}
	}

	result, err := h.dispatcher.SendBatch(r.Context(), ownerID, body.NewsletterID, target)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"result":  result,
		"message": fmt.Sprintf("sent %d of %d, %d failed", result.Successful, result.Total, result.Failed),
	})
}

// SendSingle sends a newsletter to one subscriber, or to an ad-hoc test
// address when testEmail is set. Test sends are never recorded in the
// delivery ledger.
func (h *Handlers) SendSingle(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserID(r.Context())

	var body struct {
		NewsletterID string `json:"newsletterId"`
		SubscriberID string `json:"subscriberId"`
		TestEmail    string `json:"testEmail"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.NewsletterID == "" {
		respondError(w, http.StatusBadRequest, "newsletterId is required")
		return
	}
	if body.SubscriberID == "" && body.TestEmail == "" {
		respondError(w, http.StatusBadRequest, "subscriberId or testEmail is required")
		return
	}

	messageID, err := h.dispatcher.SendSingle(r.Context(), ownerID, body.NewsletterID, body.SubscriberID, body.TestEmail)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	message := "email sent"
	if body.TestEmail != "" {
		message = "test email sent"
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"messageId": messageID,
		"message":   message,
	})
}

// ListSends returns the delivery ledger for a newsletter the caller owns.
func (h *Handlers) ListSends(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserID(r.Context())
	id := chi.URLParam(r, "id")

	attempts, err := h.dispatcher.Attempts(r.Context(), ownerID, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if attempts == nil {
		attempts = []domain.DeliveryAttempt{}
	}

	var sent, failed int
	for _, a := range attempts {
		switch a.Status {
		case domain.DeliverySent:
			sent++
		case domain.DeliveryFailed, domain.DeliveryBounced:
			failed++
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sends":  attempts,
		"total":  len(attempts),
		"sent":   sent,
		"failed": failed,
	})
}
