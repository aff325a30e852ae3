package models

import (
	"strings"
	"time"
)

// Project is a piece of work shared by its owner.
type Project struct {
	ID          string       `json:"id"`
	OwnerID     string       `json:"ownerId"`
	Owner       *UserSummary `json:"owner,omitempty"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	CodeContent string       `json:"codeContent,omitempty"`
	GithubURL   string       `json:"githubUrl,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// OwnedBy returns the id of the only user allowed to mutate the project.
func (p Project) OwnedBy() string { return p.OwnerID }

// ProjectInput is the payload accepted when creating a project.
type ProjectInput struct {
	Title       string `json:"title" validate:"required,max=100"`
	Description string `json:"description" validate:"required,max=1000"`
	CodeContent string `json:"codeContent" validate:"max=10000"`
	GithubURL   string `json:"githubUrl" validate:"max=2048,absurl"`
}

// Normalize trims the title.
func (in *ProjectInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
}

// ProjectPatch is a partial update; nil fields are left untouched. An empty
// CodeContent or GithubURL clears the stored value.
type ProjectPatch struct {
	Title       *string `json:"title" validate:"omitnil,min=1,max=100"`
	Description *string `json:"description" validate:"omitnil,min=1,max=1000"`
	CodeContent *string `json:"codeContent" validate:"omitnil,max=10000"`
	GithubURL   *string `json:"githubUrl" validate:"omitnil,max=2048,absurl"`
}

// Normalize trims the title if present.
func (p *ProjectPatch) Normalize() {
	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		p.Title = &t
	}
}

// Changes reports which supplied fields differ from cur.
func (p ProjectPatch) Changes(cur Project) ProjectPatch {
	var out ProjectPatch
	if p.Title != nil && *p.Title != cur.Title {
		out.Title = p.Title
	}
	if p.Description != nil && *p.Description != cur.Description {
		out.Description = p.Description
	}
	if p.CodeContent != nil && *p.CodeContent != cur.CodeContent {
		out.CodeContent = p.CodeContent
	}
	if p.GithubURL != nil && *p.GithubURL != cur.GithubURL {
		out.GithubURL = p.GithubURL
	}
	return out
}

// IsEmpty reports whether the patch carries no fields.
func (p ProjectPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.CodeContent == nil && p.GithubURL == nil
}
