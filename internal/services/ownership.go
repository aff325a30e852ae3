package services

import (
	"context"

	"github.com/isdelr/projecthub-be/internal/auth"
	"github.com/isdelr/projecthub-be/internal/metrics"
	"github.com/isdelr/projecthub-be/internal/validation"
	"github.com/rs/zerolog/log"
)

// authorizeMutation is the single path every project and comment mutation
// takes before touching the store: reject a malformed id, load the resource
// (NotFound), then run the ownership guard (Forbidden).
func authorizeMutation[T auth.Owned](
	ctx context.Context,
	kind, id, actorID string,
	action auth.Action,
	load func(context.Context, string) (T, error),
) (T, error) {
	var zero T
	if err := validation.ID(kind, id); err != nil {
		return zero, err
	}
	res, err := load(ctx, id)
	if err != nil {
		return zero, err
	}
	if err := auth.Authorize(actorID, res, action); err != nil {
		metrics.RecordAuthorization(kind, string(action), false)
		log.Warn().
			Str("actor_id", actorID).
			Str("resource", kind).
			Str("resource_id", id).
			Str("action", string(action)).
			Msg("Ownership check denied")
		return zero, err
	}
	metrics.RecordAuthorization(kind, string(action), true)
	return res, nil
}
