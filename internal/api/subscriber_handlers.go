package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/inkwell/newsletter-platform/internal/auth"
	"github.com/inkwell/newsletter-platform/internal/domain"
)

// ListSubscribers returns the caller's full subscriber list.
func (h *Handlers) ListSubscribers(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserID(r.Context())

	subs, err := h.subscribers.List(r.Context(), ownerID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if subs == nil {
		subs = []domain.Subscriber{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"subscribers": subs,
		"total":       len(subs),
	})
}

// AddSubscriber registers a new subscriber on the caller's list.
func (h *Handlers) AddSubscriber(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserID(r.Context())

	var body struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sub, err := h.subscribers.Add(r.Context(), ownerID, body.Email, body.Name)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, sub)
}

// DeleteSubscriber removes a subscriber from the caller's list.
func (h *Handlers) DeleteSubscriber(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserID(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.subscribers.Delete(r.Context(), ownerID, id); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// Unsubscribe handles footer unsubscribe links. It is public: the token
// alone authorizes the deactivation. Repeat clicks succeed.
func (h *Handlers) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, http.StatusBadRequest, "missing token")
		return
	}

	if err := h.subscribers.Unsubscribe(r.Context(), token); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "unsubscribed",
	})
}
