package emergency

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/lumicare/lumi/internal/platform/apperr"
	"github.com/lumicare/lumi/internal/platform/db"
)

type repoPG struct{ db db.Querier }

func NewRepoPG(q db.Querier) Repository {
	return &repoPG{db: q}
}

const alertCols = `id, user_id, stage, is_active, created_at, resolved_at`

func scanAlert(row pgx.Row) (*Alert, error) {
	var a Alert
	if err := row.Scan(&a.ID, &a.UserID, &a.Stage, &a.IsActive, &a.CreatedAt, &a.ResolvedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repoPG) GetActive(ctx context.Context, userID int64) (*Alert, error) {
	a, err := scanAlert(r.db.QueryRow(ctx, `
		SELECT `+alertCols+`
		FROM emergency_alert
		WHERE user_id = $1 AND is_active
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, userID))
	if err != nil {
		return nil, apperr.FromDB(err, "no active emergency")
	}
	return a, nil
}

// Trigger relies on the partial unique index emergency_alert_one_active:
// a second concurrent insert for the same user conflicts and becomes an
// update of the active row instead.
func (r *repoPG) Trigger(ctx context.Context, userID int64, stage string) (*Alert, bool, error) {
	var a Alert
	var created bool
	err := r.db.QueryRow(ctx, `
		INSERT INTO emergency_alert (user_id, stage, is_active)
		VALUES ($1, $2, TRUE)
		ON CONFLICT (user_id) WHERE is_active DO UPDATE
		SET stage = EXCLUDED.stage
		RETURNING `+alertCols+`, (xmax = 0) AS created`,
		userID, stage,
	).Scan(&a.ID, &a.UserID, &a.Stage, &a.IsActive, &a.CreatedAt, &a.ResolvedAt, &created)
	if err != nil {
		return nil, false, apperr.FromDB(err, "user not found")
	}
	return &a, created, nil
}

func (r *repoPG) Resolve(ctx context.Context, userID, id int64) (*Alert, error) {
	a, err := scanAlert(r.db.QueryRow(ctx, `
		UPDATE emergency_alert
		SET is_active = FALSE,
		    resolved_at = COALESCE(resolved_at, NOW())
		WHERE id = $1 AND user_id = $2
		RETURNING `+alertCols, id, userID))
	if err != nil {
		return nil, apperr.FromDB(err, "alert not found")
	}
	return a, nil
}

func (r *repoPG) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*Alert, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM emergency_alert WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, apperr.FromDB(err, "")
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+alertCols+`
		FROM emergency_alert
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, apperr.FromDB(err, "")
	}
	defer rows.Close()

	items := []*Alert{}
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, 0, apperr.FromDB(err, "")
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperr.FromDB(err, "")
	}
	return items, total, nil
}
