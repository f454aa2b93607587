package identity

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/lumicare/lumi/internal/platform/apperr"
	"github.com/lumicare/lumi/internal/platform/db"
)

type userRepoPG struct{ db db.Querier }

func NewUserRepoPG(q db.Querier) UserRepository {
	return &userRepoPG{db: q}
}

const userCols = `id, phone, fullname, dob, blood_group, address, created_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Phone, &u.Fullname, &u.DOB.Time, &u.BloodGroup, &u.Address, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.DOB = u.DOB.Normalize()
	return &u, nil
}

func (r *userRepoPG) Create(ctx context.Context, u *User) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO app_user (phone, fullname, dob, blood_group, address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		u.Phone, u.Fullname, u.DOB.Time, u.BloodGroup, u.Address,
	).Scan(&u.ID, &u.CreatedAt)
	err = apperr.FromDB(err, "user not found")
	if apperr.Is(err, apperr.KindConflict) {
		return apperr.Conflict("phone number already registered")
	}
	return err
}

func (r *userRepoPG) GetByID(ctx context.Context, id int64) (*User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userCols+` FROM app_user WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.FromDB(err, "user not found")
	}
	return u, nil
}

func (r *userRepoPG) GetByPhone(ctx context.Context, phone string) (*User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userCols+` FROM app_user WHERE phone = $1`, phone))
	if err != nil {
		return nil, apperr.FromDB(err, "user not found")
	}
	return u, nil
}

func (r *userRepoPG) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM app_user WHERE phone = $1)`, phone).Scan(&exists)
	if err != nil {
		return false, apperr.FromDB(err, "")
	}
	return exists, nil
}

func (r *userRepoPG) UpdateProfile(ctx context.Context, u *User) error {
	row := r.db.QueryRow(ctx, `
		UPDATE app_user SET fullname = $2, dob = $3, blood_group = $4, address = $5
		WHERE id = $1
		RETURNING `+userCols,
		u.ID, u.Fullname, u.DOB.Time, u.BloodGroup, u.Address)
	updated, err := scanUser(row)
	if err != nil {
		return apperr.FromDB(err, "user not found")
	}
	*u = *updated
	return nil
}
