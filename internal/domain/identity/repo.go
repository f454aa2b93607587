package identity

import (
	"context"
)

type UserRepository interface {
	// Create inserts u and fills ID and CreatedAt. A taken phone is a Conflict.
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByPhone(ctx context.Context, phone string) (*User, error)
	ExistsByPhone(ctx context.Context, phone string) (bool, error)
	// UpdateProfile rewrites the mutable fields of user u.ID.
	UpdateProfile(ctx context.Context, u *User) error
}
