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

// CommentServiceProvider defines the interface for comment services.
type CommentServiceProvider interface {
	CreateComment(ctx context.Context, actorID, projectID string, in models.CommentInput) (models.Comment, error)
	GetCommentByID(ctx context.Context, id string) (models.Comment, error)
	ListCommentsByProject(ctx context.Context, projectID string) ([]models.Comment, error)
	UpdateComment(ctx context.Context, actorID, id string, patch models.CommentPatch) (models.Comment, error)
	DeleteComment(ctx context.Context, actorID, id string) error
	AuthorizeComment(ctx context.Context, actorID, id string, action auth.Action) (models.Comment, error)
}

// CommentService is the comment store. Any authenticated user may comment on
// any project; only the author may change or remove a comment.
type CommentService struct {
	db       *sql.DB
	projects ProjectServiceProvider
	events   EventServiceProvider
	now      func() time.Time
}

// NewCommentService creates a new CommentService.
func NewCommentService(db *sql.DB, projects ProjectServiceProvider, events EventServiceProvider) *CommentService {
	return &CommentService{db: db, projects: projects, events: events, now: time.Now}
}

const selectComment = `
	SELECT c.id, c.project_id, c.author_id, c.body, c.category, c.created_at, c.updated_at,
	       u.email, u.first_name, u.last_name
	FROM comments c
	JOIN users u ON u.id = c.author_id`

func scanComment(scanner rowScanner) (models.Comment, error) {
	var c models.Comment
	var createdAt, updatedAt int64
	author := &models.UserSummary{}

	err := scanner.Scan(
		&c.ID, &c.ProjectID, &c.AuthorID, &c.Body, &c.Category, &createdAt, &updatedAt,
		&author.Email, &author.FirstName, &author.LastName,
	)
	if err != nil {
		return c, err
	}
	c.CreatedAt = fromMillis(createdAt)
	c.UpdatedAt = fromMillis(updatedAt)
	author.ID = c.AuthorID
	c.Author = author
	return c, nil
}

// CreateComment adds a comment by actorID to an existing project.
func (s *CommentService) CreateComment(ctx context.Context, actorID, projectID string, in models.CommentInput) (models.Comment, error) {
	if actorID == "" {
		return models.Comment{}, apperrors.ErrUnauthenticated
	}
	if _, err := s.projects.GetProjectByID(ctx, projectID); err != nil {
		return models.Comment{}, err
	}
	if err := validation.Struct(&in); err != nil {
		return models.Comment{}, err
	}
	if in.Category == "" {
		in.Category = models.CategoryGeneral
	}

	now := truncate(s.now())
	comment := models.Comment{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		AuthorID:  actorID,
		Body:      in.Body,
		Category:  in.Category,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO comments (id, project_id, author_id, body, category, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		comment.ID, comment.ProjectID, comment.AuthorID, comment.Body, string(comment.Category),
		toMillis(comment.CreatedAt), toMillis(comment.UpdatedAt),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			// The project was deleted after the existence check.
			return models.Comment{}, apperrors.NotFound("project", projectID)
		}
		return models.Comment{}, fmt.Errorf("create comment: %w", err)
	}

	recordEvent(ctx, s.events, "comment.create", fmt.Sprintf("Comment (%s) added", comment.Category), actorID, comment.ID)
	return s.GetCommentByID(ctx, comment.ID)
}

// GetCommentByID retrieves a single comment by its ID.
func (s *CommentService) GetCommentByID(ctx context.Context, id string) (models.Comment, error) {
	if err := validation.ID("comment", id); err != nil {
		return models.Comment{}, err
	}
	c, err := scanComment(s.db.QueryRowContext(ctx, selectComment+" WHERE c.id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Comment{}, apperrors.NotFound("comment", id)
		}
		return models.Comment{}, fmt.Errorf("get comment: %w", err)
	}
	return c, nil
}

// ListCommentsByProject returns the comments of a project, newest first. An
// unknown project has no comments.
func (s *CommentService) ListCommentsByProject(ctx context.Context, projectID string) ([]models.Comment, error) {
	if err := validation.ID("project", projectID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, selectComment+" WHERE c.project_id = ? ORDER BY c.created_at DESC, c.rowid DESC", projectID)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	comments := make([]models.Comment, 0)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// AuthorizeComment runs the checks a mutation of comment id by actorID would
// run, without mutating anything.
func (s *CommentService) AuthorizeComment(ctx context.Context, actorID, id string, action auth.Action) (models.Comment, error) {
	return authorizeMutation(ctx, "comment", id, actorID, action, s.GetCommentByID)
}

// UpdateComment applies the supplied fields of patch to a comment written by
// actorID.
func (s *CommentService) UpdateComment(ctx context.Context, actorID, id string, patch models.CommentPatch) (models.Comment, error) {
	current, err := authorizeMutation(ctx, "comment", id, actorID, auth.ActionUpdate, s.GetCommentByID)
	if err != nil {
		return models.Comment{}, err
	}

	if err := validation.Struct(&patch); err != nil {
		return models.Comment{}, err
	}

	changes := patch.Changes(current)
	if changes.IsEmpty() {
		return current, nil
	}

	var sets []string
	var args []interface{}
	if changes.Body != nil {
		sets = append(sets, "body = ?")
		args = append(args, *changes.Body)
	}
	if changes.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, string(*changes.Category))
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, toMillis(nextUpdatedAt(s.now(), current.UpdatedAt)), id)

	res, err := s.db.ExecContext(ctx, "UPDATE comments SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return models.Comment{}, fmt.Errorf("update comment: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.Comment{}, apperrors.NotFound("comment", id)
	}

	recordEvent(ctx, s.events, "comment.update", "Comment updated", actorID, id)
	return s.GetCommentByID(ctx, id)
}

// DeleteComment removes a comment written by actorID.
func (s *CommentService) DeleteComment(ctx context.Context, actorID, id string) error {
	if _, err := authorizeMutation(ctx, "comment", id, actorID, auth.ActionDelete, s.GetCommentByID); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM comments WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.NotFound("comment", id)
	}

	recordEvent(ctx, s.events, "comment.delete", "Comment deleted", actorID, id)
	return nil
}
