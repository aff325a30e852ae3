package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/projecthub-be/internal/apperrors"
	"github.com/isdelr/projecthub-be/internal/auth"
	"github.com/isdelr/projecthub-be/internal/models"
	"github.com/isdelr/projecthub-be/internal/services"
	"github.com/rs/zerolog/log"
)

// ProjectHandler handles HTTP requests related to projects.
type ProjectHandler struct {
	service services.ProjectServiceProvider
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(service services.ProjectServiceProvider) *ProjectHandler {
	return &ProjectHandler{service: service}
}

// GetAll lists every project, newest first.
func (h *ProjectHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	projects, err := h.service.ListProjects(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

// GetMine lists the projects owned by the authenticated user.
func (h *ProjectHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	actorID, ok := auth.ActorFromContext(r.Context())
	if !ok {
		writeServiceError(w, r, apperrors.ErrUnauthenticated)
		return
	}
	projects, err := h.service.ListProjectsByOwner(r.Context(), actorID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

// Get handles the request to get a single project by its ID.
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	project, err := h.service.GetProjectByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// Create handles the request to create a new project.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	actorID, _ := auth.ActorFromContext(r.Context())

	var payload models.ProjectInput
	if err := decodeJSON(w, r, &payload); err != nil {
		writeServiceError(w, r, err)
		return
	}

	project, err := h.service.CreateProject(r.Context(), actorID, payload)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	log.Info().Str("user_id", actorID).Str("project_id", project.ID).Msg("Project created")
	writeJSON(w, http.StatusCreated, project)
}

// Update applies a partial update. PUT and PATCH behave the same.
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	actorID, _ := auth.ActorFromContext(r.Context())
	id := chi.URLParam(r, "id")

	// A body that does not decode is only reported to someone allowed to
	// change the project.
	var patch models.ProjectPatch
	if err := decodePatch(w, r, &patch); err != nil {
		if _, authErr := h.service.AuthorizeProject(r.Context(), actorID, id, auth.ActionUpdate); authErr != nil {
			err = authErr
		}
		writeServiceError(w, r, err)
		return
	}

	project, err := h.service.UpdateProject(r.Context(), actorID, id, patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// Delete removes a project together with its comments.
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actorID, _ := auth.ActorFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteProject(r.Context(), actorID, id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	log.Info().Str("user_id", actorID).Str("project_id", id).Msg("Project deleted")
	w.WriteHeader(http.StatusNoContent)
}
