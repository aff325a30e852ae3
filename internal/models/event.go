package models

import "time"

// Event represents a recorded action in the activity log.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`  // e.g., "project.create", "comment.delete"
	Level      string    `json:"level"` // e.g., "info", "warn"
	Message    string    `json:"message"`
	ActorID    *string   `json:"actorId,omitempty"`
	ResourceID *string   `json:"resourceId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
