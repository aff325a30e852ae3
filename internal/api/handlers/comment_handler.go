package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/projecthub-be/internal/auth"
	"github.com/isdelr/projecthub-be/internal/models"
	"github.com/isdelr/projecthub-be/internal/services"
)

// CommentHandler handles HTTP requests related to comments.
type CommentHandler struct {
	service services.CommentServiceProvider
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(service services.CommentServiceProvider) *CommentHandler {
	return &CommentHandler{service: service}
}

// ListForProject lists a project's comments, newest first.
func (h *CommentHandler) ListForProject(w http.ResponseWriter, r *http.Request) {
	comments, err := h.service.ListCommentsByProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

// Create adds a comment to a project.
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	actorID, _ := auth.ActorFromContext(r.Context())

	var payload models.CommentInput
	if err := decodeJSON(w, r, &payload); err != nil {
		writeServiceError(w, r, err)
		return
	}

	comment, err := h.service.CreateComment(r.Context(), actorID, chi.URLParam(r, "id"), payload)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

// Update applies a partial update to a comment.
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	actorID, _ := auth.ActorFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var patch models.CommentPatch
	if err := decodePatch(w, r, &patch); err != nil {
		if _, authErr := h.service.AuthorizeComment(r.Context(), actorID, id, auth.ActionUpdate); authErr != nil {
			err = authErr
		}
		writeServiceError(w, r, err)
		return
	}

	comment, err := h.service.UpdateComment(r.Context(), actorID, id, patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comment)
}

// Delete removes a comment.
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actorID, _ := auth.ActorFromContext(r.Context())

	if err := h.service.DeleteComment(r.Context(), actorID, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
