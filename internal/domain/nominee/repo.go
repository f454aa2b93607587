package nominee

import (
	"context"
)

// Repository methods are always scoped to the owning user. A nominee that
// belongs to someone else behaves exactly like one that does not exist.
type Repository interface {
	Create(ctx context.Context, n *Nominee) error
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*Nominee, int, error)
	Delete(ctx context.Context, userID, id int64) error
}
