package emergency

import (
	"context"
)

type Repository interface {
	// GetActive returns the user's active alert or NotFound.
	GetActive(ctx context.Context, userID int64) (*Alert, error)
	// Trigger creates an active alert, or moves the existing one to stage.
	// The bool is true when a new alert was created.
	Trigger(ctx context.Context, userID int64, stage string) (*Alert, bool, error)
	// Resolve deactivates the alert. The first resolution time is kept.
	Resolve(ctx context.Context, userID, id int64) (*Alert, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*Alert, int, error)
}
