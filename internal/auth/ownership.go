package auth

import (
	"fmt"

	"github.com/isdelr/projecthub-be/internal/apperrors"
)

// Action is what an actor wants to do with a resource.
type Action string

const (
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Owned is any resource with a single user allowed to mutate it. Projects
// report their owner, comments their author.
type Owned interface {
	OwnedBy() string
}

// Authorize decides whether actorID may perform action on resource. Reads are
// always allowed; update and delete require actorID to be the owner. Unknown
// actions are denied.
func Authorize(actorID string, resource Owned, action Action) error {
	switch action {
	case ActionRead:
		return nil
	case ActionUpdate, ActionDelete:
		if actorID == "" {
			return apperrors.ErrUnauthenticated
		}
		if resource.OwnedBy() != actorID {
			return fmt.Errorf("%w: not authorized to %s this resource", apperrors.ErrForbidden, action)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown action %q", apperrors.ErrForbidden, action)
	}
}
