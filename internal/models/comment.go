package models

import "time"

// CommentCategory classifies a comment.
type CommentCategory string

const (
	CategoryGeneral     CommentCategory = "general"
	CategorySuggestion  CommentCategory = "suggestion"
	CategoryBug         CommentCategory = "bug"
	CategoryImprovement CommentCategory = "improvement"
	CategoryApproval    CommentCategory = "approval"
)

// Comment is feedback left by any user on a project.
type Comment struct {
	ID        string          `json:"id"`
	ProjectID string          `json:"projectId"`
	AuthorID  string          `json:"authorId"`
	Author    *UserSummary    `json:"author,omitempty"`
	Body      string          `json:"body"`
	Category  CommentCategory `json:"category"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// OwnedBy returns the id of the comment's author.
func (c Comment) OwnedBy() string { return c.AuthorID }

// CommentInput is the payload accepted when commenting on a project.
type CommentInput struct {
	Body     string          `json:"body" validate:"required,max=2000"`
	Category CommentCategory `json:"category" validate:"omitempty,oneof=general suggestion bug improvement approval"`
}

// CommentPatch is a partial update of a comment.
type CommentPatch struct {
	Body     *string          `json:"body" validate:"omitnil,min=1,max=2000"`
	Category *CommentCategory `json:"category" validate:"omitnil,oneof=general suggestion bug improvement approval"`
}

// Changes reports which supplied fields differ from cur.
func (p CommentPatch) Changes(cur Comment) CommentPatch {
	var out CommentPatch
	if p.Body != nil && *p.Body != cur.Body {
		out.Body = p.Body
	}
	if p.Category != nil && *p.Category != cur.Category {
		out.Category = p.Category
	}
	return out
}

// IsEmpty reports whether the patch carries no fields.
func (p CommentPatch) IsEmpty() bool {
	return p.Body == nil && p.Category == nil
}
