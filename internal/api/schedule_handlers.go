package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/inkwell/newsletter-platform/internal/auth"
)

// ScheduleNewsletter sets a future send time. The time must be more than
// the minimum lead in the future.
func (h *Handlers) ScheduleNewsletter(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserID(r.Context())
	id := chi.URLParam(r, "id")

	var body struct {
		ScheduledAt time.Time `json:"scheduledAt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ScheduledAt.IsZero() {
		respondError(w, http.StatusBadRequest, "scheduledAt is required")
		return
	}

	if err := h.newsletters.Schedule(r.Context(), ownerID, id, body.ScheduledAt); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"message":     "newsletter scheduled",
		"scheduledAt": body.ScheduledAt.UTC(),
	})
}

// CancelSchedule returns a scheduled newsletter to draft.
func (h *Handlers) CancelSchedule(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserID(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.newsletters.CancelSchedule(r.Context(), ownerID, id); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "schedule cancelled",
	})
}

// PublishNewsletter marks a newsletter as published.
func (h *Handlers) PublishNewsletter(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserID(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.newsletters.Publish(r.Context(), ownerID, id); err != nil {
		respondServiceError(w, err)
		return
	}

	n, err := h.newsletters.Get(r.Context(), ownerID, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, n)
}

// SetPublicVisibility toggles web visibility and returns the share URL when
// enabled.
func (h *Handlers) SetPublicVisibility(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserID(r.Context())
	id := chi.URLParam(r, "id")

	var body struct {
		IsPublic bool `json:"isPublic"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.newsletters.SetPublic(r.Context(), ownerID, id, body.IsPublic); err != nil {
		respondServiceError(w, err)
		return
	}

	// publicUrl is null when toggling private.
	var publicURL interface{}
	message := "newsletter set to private"
	if body.IsPublic {
		publicURL = h.baseURL + "/public/" + id
		message = "newsletter is now public"
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   message,
		"isPublic":  body.IsPublic,
		"publicUrl": publicURL,
	})
}
