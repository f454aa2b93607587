package nominee

import (
	"strings"
	"time"

	"github.com/lumicare/lumi/internal/platform/apperr"
)

// Nominee is an emergency contact owned by one user.
type Nominee struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	Name         string    `db:"name" json:"name"`
	Relationship string    `db:"relationship" json:"relationship"`
	Phone        string    `db:"phone" json:"phone"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type CreateRequest struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	Phone        string `json:"phone"`
}

func (r *CreateRequest) validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Relationship = strings.TrimSpace(r.Relationship)
	r.Phone = strings.TrimSpace(r.Phone)
	switch {
	case r.Name == "":
		return apperr.Validation("name is required")
	case r.Relationship == "":
		return apperr.Validation("relationship is required")
	case r.Phone == "":
		return apperr.Validation("phone is required")
	}
	for _, f := range []struct {
		name, value string
		max         int
	}{
		{"name", r.Name, 255},
		{"relationship", r.Relationship, 64},
		{"phone", r.Phone, 32},
	} {
		if err := apperr.MaxLen(f.name, f.value, f.max); err != nil {
			return err
		}
	}
	return nil
}
