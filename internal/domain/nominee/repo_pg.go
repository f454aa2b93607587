package nominee

import (
	"context"

	"github.com/lumicare/lumi/internal/platform/apperr"
	"github.com/lumicare/lumi/internal/platform/db"
)

type repoPG struct{ db db.Querier }

func NewRepoPG(q db.Querier) Repository {
	return &repoPG{db: q}
}

func (r *repoPG) Create(ctx context.Context, n *Nominee) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO nominee (user_id, name, relationship, phone)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		n.UserID, n.Name, n.Relationship, n.Phone,
	).Scan(&n.ID, &n.CreatedAt)
	return apperr.FromDB(err, "user not found")
}

func (r *repoPG) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*Nominee, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM nominee WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, apperr.FromDB(err, "")
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, name, relationship, phone, created_at
		FROM nominee WHERE user_id = $1
		ORDER BY id
		LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, apperr.FromDB(err, "")
	}
	defer rows.Close()

	items := []*Nominee{}
	for rows.Next() {
		var n Nominee
		if err := rows.Scan(&n.ID, &n.UserID, &n.Name, &n.Relationship, &n.Phone, &n.CreatedAt); err != nil {
			return nil, 0, apperr.FromDB(err, "")
		}
		items = append(items, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperr.FromDB(err, "")
	}
	return items, total, nil
}

func (r *repoPG) Delete(ctx context.Context, userID, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM nominee WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return apperr.FromDB(err, "")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("nominee not found")
	}
	return nil
}
