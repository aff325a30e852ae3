package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/projecthub-be/internal/apperrors"
	"github.com/isdelr/projecthub-be/internal/auth"
	"github.com/isdelr/projecthub-be/internal/models"
	"github.com/isdelr/projecthub-be/internal/validation"
)

// ProjectServiceProvider defines the interface for project services.
type ProjectServiceProvider interface {
	CreateProject(ctx context.Context, actorID string, in models.ProjectInput) (models.Project, error)
	GetProjectByID(ctx context.Context, id string) (models.Project, error)
	ListProjects(ctx context.Context) ([]models.Project, error)
	ListProjectsByOwner(ctx context.Context, ownerID string) ([]models.Project, error)
	UpdateProject(ctx context.Context, actorID, id string, patch models.ProjectPatch) (models.Project, error)
	DeleteProject(ctx context.Context, actorID, id string) error
	AuthorizeProject(ctx context.Context, actorID, id string, action auth.Action) (models.Project, error)
}

// ProjectService is the project store. Reads are public; mutations go
// through the ownership guard.
type ProjectService struct {
	db     *sql.DB
	events EventServiceProvider
	now    func() time.Time
}

// NewProjectService creates a new ProjectService.
func NewProjectService(db *sql.DB, events EventServiceProvider) *ProjectService {
	return &ProjectService{db: db, events: events, now: time.Now}
}

const selectProject = `
	SELECT p.id, p.owner_id, p.title, p.description, p.code_content, p.github_url,
	       p.created_at, p.updated_at, u.email, u.first_name, u.last_name
	FROM projects p
	JOIN users u ON u.id = p.owner_id`

// scanProject is a helper to scan a project and its owner from a row or rows object.
func scanProject(scanner rowScanner) (models.Project, error) {
	var p models.Project
	var code, github sql.NullString
	var createdAt, updatedAt int64
	owner := &models.UserSummary{}

	err := scanner.Scan(
		&p.ID, &p.OwnerID, &p.Title, &p.Description, &code, &github,
		&createdAt, &updatedAt, &owner.Email, &owner.FirstName, &owner.LastName,
	)
	if err != nil {
		return p, err
	}

	p.CodeContent = code.String
	p.GithubURL = github.String
	p.CreatedAt = fromMillis(createdAt)
	p.UpdatedAt = fromMillis(updatedAt)
	owner.ID = p.OwnerID
	p.Owner = owner
	return p, nil
}

func (s *ProjectService) queryProjects(ctx context.Context, query string, args ...interface{}) ([]models.Project, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	projects := make([]models.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// CreateProject validates the payload and stores a project owned by actorID.
func (s *ProjectService) CreateProject(ctx context.Context, actorID string, in models.ProjectInput) (models.Project, error) {
	if actorID == "" {
		return models.Project{}, apperrors.ErrUnauthenticated
	}
	in.Normalize()
	if err := validation.Struct(&in); err != nil {
		return models.Project{}, err
	}

	now := truncate(s.now())
	project := models.Project{
		ID:          uuid.New().String(),
		OwnerID:     actorID,
		Title:       in.Title,
		Description: in.Description,
		CodeContent: in.CodeContent,
		GithubURL:   in.GithubURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, owner_id, title, description, code_content, github_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		project.ID, project.OwnerID, project.Title, project.Description,
		nullString(project.CodeContent), nullString(project.GithubURL),
		toMillis(project.CreatedAt), toMillis(project.UpdatedAt),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return models.Project{}, fmt.Errorf("%w: unknown user", apperrors.ErrUnauthenticated)
		}
		return models.Project{}, fmt.Errorf("create project: %w", err)
	}

	recordEvent(ctx, s.events, "project.create", fmt.Sprintf("Project '%s' created", project.Title), actorID, project.ID)
	return s.GetProjectByID(ctx, project.ID)
}

// GetProjectByID retrieves a single project by its ID.
func (s *ProjectService) GetProjectByID(ctx context.Context, id string) (models.Project, error) {
	if err := validation.ID("project", id); err != nil {
		return models.Project{}, err
	}
	p, err := scanProject(s.db.QueryRowContext(ctx, selectProject+" WHERE p.id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Project{}, apperrors.NotFound("project", id)
		}
		return models.Project{}, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

// ListProjects returns every project, newest first.
func (s *ProjectService) ListProjects(ctx context.Context) ([]models.Project, error) {
	return s.queryProjects(ctx, selectProject+" ORDER BY p.created_at DESC, p.rowid DESC")
}

// ListProjectsByOwner returns the projects owned by ownerID, newest first.
func (s *ProjectService) ListProjectsByOwner(ctx context.Context, ownerID string) ([]models.Project, error) {
	if err := validation.ID("user", ownerID); err != nil {
		return nil, err
	}
	return s.queryProjects(ctx, selectProject+" WHERE p.owner_id = ? ORDER BY p.created_at DESC, p.rowid DESC", ownerID)
}

// AuthorizeProject runs the checks a mutation of project id by actorID would
// run, without mutating anything.
func (s *ProjectService) AuthorizeProject(ctx context.Context, actorID, id string, action auth.Action) (models.Project, error) {
	return authorizeMutation(ctx, "project", id, actorID, action, s.GetProjectByID)
}

// UpdateProject applies the supplied fields of patch to a project owned by
// actorID. A patch that changes nothing returns the stored project untouched.
func (s *ProjectService) UpdateProject(ctx context.Context, actorID, id string, patch models.ProjectPatch) (models.Project, error) {
	current, err := authorizeMutation(ctx, "project", id, actorID, auth.ActionUpdate, s.GetProjectByID)
	if err != nil {
		return models.Project{}, err
	}

	patch.Normalize()
	if err := validation.Struct(&patch); err != nil {
		return models.Project{}, err
	}

	changes := patch.Changes(current)
	if changes.IsEmpty() {
		return current, nil
	}

	var sets []string
	var args []interface{}
	if changes.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *changes.Title)
	}
	if changes.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *changes.Description)
	}
	if changes.CodeContent != nil {
		sets = append(sets, "code_content = ?")
		args = append(args, nullString(*changes.CodeContent))
	}
	if changes.GithubURL != nil {
		sets = append(sets, "github_url = ?")
		args = append(args, nullString(*changes.GithubURL))
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, toMillis(nextUpdatedAt(s.now(), current.UpdatedAt)), id)

	res, err := s.db.ExecContext(ctx, "UPDATE projects SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return models.Project{}, fmt.Errorf("update project: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// Deleted between the ownership check and the write.
		return models.Project{}, apperrors.NotFound("project", id)
	}

	recordEvent(ctx, s.events, "project.update", fmt.Sprintf("Project '%s' updated", current.Title), actorID, id)
	return s.GetProjectByID(ctx, id)
}

// DeleteProject removes a project owned by actorID together with its comments.
func (s *ProjectService) DeleteProject(ctx context.Context, actorID, id string) error {
	current, err := authorizeMutation(ctx, "project", id, actorID, auth.ActionDelete, s.GetProjectByID)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete project: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM comments WHERE project_id = ?", id); err != nil {
		return fmt.Errorf("delete project comments: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.NotFound("project", id)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete project: %w", err)
	}

	recordEvent(ctx, s.events, "project.delete", fmt.Sprintf("Project '%s' deleted", current.Title), actorID, id)
	return nil
}
