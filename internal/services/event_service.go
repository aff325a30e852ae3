package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/projecthub-be/internal/models"
	"github.com/rs/zerolog/log"
)

// Maximum number of events a single listing returns.
const MaxEventLimit = 100

// EventServiceProvider defines the interface for event services.
type EventServiceProvider interface {
	CreateEvent(ctx context.Context, eventType, level, message string, actorID, resourceID *string) error
	GetRecentEvents(ctx context.Context, limit int) ([]models.Event, error)
	PruneEventsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// EventService provides business logic for the activity log.
type EventService struct {
	db  *sql.DB
	now func() time.Time
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB) *EventService {
	return &EventService{db: db, now: time.Now}
}

// CreateEvent logs a new event to the database.
func (s *EventService) CreateEvent(ctx context.Context, eventType, level, message string, actorID, resourceID *string) error {
	event := models.Event{
		ID:         uuid.New().String(),
		Type:       eventType,
		Level:      level,
		Message:    message,
		ActorID:    actorID,
		ResourceID: resourceID,
		CreatedAt:  s.now(),
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO events (id, type, level, message, actor_id, resource_id, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		event.ID, event.Type, event.Level, event.Message, event.ActorID, event.ResourceID, toMillis(event.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// GetRecentEvents retrieves the most recent events from the database.
func (s *EventService) GetRecentEvents(ctx context.Context, limit int) ([]models.Event, error) {
	if limit <= 0 || limit > MaxEventLimit {
		limit = MaxEventLimit
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, type, level, message, actor_id, resource_id, created_at FROM events ORDER BY created_at DESC, rowid DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := make([]models.Event, 0)
	for rows.Next() {
		var event models.Event
		var createdAt int64
		if err := rows.Scan(&event.ID, &event.Type, &event.Level, &event.Message, &event.ActorID, &event.ResourceID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		event.CreatedAt = fromMillis(createdAt)
		events = append(events, event)
	}
	return events, rows.Err()
}

// PruneEventsBefore deletes events recorded before cutoff and returns how many
// were removed.
func (s *EventService) PruneEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM events WHERE created_at < ?", toMillis(cutoff))
	if err != nil {
		return 0, fmt.Errorf("prune events: %w", err)
	}
	return res.RowsAffected()
}

// recordEvent appends to the activity log after a mutation has committed.
// Failures are logged and never surface to the caller.
func recordEvent(ctx context.Context, events EventServiceProvider, eventType, message, actorID, resourceID string) {
	if events == nil {
		return
	}
	if err := events.CreateEvent(ctx, eventType, "info", message, &actorID, &resourceID); err != nil {
		log.Warn().Err(err).Str("type", eventType).Str("resource_id", resourceID).Msg("Failed to record event")
	}
}
