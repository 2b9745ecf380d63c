package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/inkwell/newsletter-platform/internal/auth"
	"github.com/inkwell/newsletter-platform/internal/domain"
	"github.com/inkwell/newsletter-platform/internal/service/newsletter"
)

// ListNewsletters returns the caller's newsletters, optionally filtered by
// status, with total count for pagination.
func (h *Handlers) ListNewsletters(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserID(r.Context())

	f := newsletter.ListFilter{
		Status: r.URL.Query().Get("status"),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		f.Limit, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		f.Offset, _ = strconv.Atoi(v)
	}

	items, total, err := h.newsletters.List(r.Context(), ownerID, f)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if items == nil {
		items = []domain.Newsletter{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"newsletters": items,
		"total":       total,
	})
}

// GetNewsletter returns one newsletter owned by the caller.
func (h *Handlers) GetNewsletter(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserID(r.Context())
	id := chi.URLParam(r, "id")

	n, err := h.newsletters.Get(r.Context(), ownerID, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, n)
}

// CreateNewsletter creates a draft newsletter.
func (h *Handlers) CreateNewsletter(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserID(r.Context())

	var input newsletter.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	n, err := h.newsletters.Create(r.Context(), ownerID, input)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, n)
}

// UpdateNewsletter modifies title and/or content. Absent fields are left
// unchanged.
func (h *Handlers) UpdateNewsletter(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserID(r.Context())
	id := chi.URLParam(r, "id")

	var body struct {
		Title   *string `json:"title"`
		Content *string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.newsletters.Update(r.Context(), ownerID, id, newsletter.UpdateFields{
		Title:   body.Title,
		Content: body.Content,
	})
	if err != nil {
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

// DeleteNewsletter removes a newsletter.
func (h *Handlers) DeleteNewsletter(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserID(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.newsletters.Delete(r.Context(), ownerID, id); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// GetPublicNewsletter serves a publicly shared newsletter without
// authentication. Private newsletters are indistinguishable from missing
// ones.
func (h *Handlers) GetPublicNewsletter(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	n, err := h.newsletters.GetPublic(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":          n.ID,
		"title":       n.Title,
		"content":     n.Content,
		"publishedAt": n.PublishedAt,
	})
}
