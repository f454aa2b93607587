package medication

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/lumicare/lumi/internal/platform/apperr"
	"github.com/lumicare/lumi/internal/platform/db"
	"github.com/lumicare/lumi/pkg/caldate"
)

// =========== Medication Repository ===========

type medicationRepoPG struct{ db db.Querier }

func NewMedicationRepoPG(q db.Querier) MedicationRepository {
	return &medicationRepoPG{db: q}
}

const medCols = `id, user_id, name, dosage, scheduled_time, start_date, end_date, created_at`

func scanMed(row pgx.Row) (*Medication, error) {
	var m Medication
	var end *time.Time
	if err := row.Scan(&m.ID, &m.UserID, &m.Name, &m.Dosage, &m.ScheduledTime,
		&m.StartDate.Time, &end, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.StartDate = m.StartDate.Normalize()
	if end != nil {
		d := caldate.Of(*end)
		m.EndDate = &d
	}
	return &m, nil
}

// dateArg turns an optional date into a query argument, nil for NULL.
func dateArg(d *caldate.Date) *time.Time {
	if d == nil {
		return nil
	}
	return &d.Time
}

func (r *medicationRepoPG) Create(ctx context.Context, m *Medication) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO medication (user_id, name, dosage, scheduled_time, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		m.UserID, m.Name, m.Dosage, m.ScheduledTime, m.StartDate.Time, dateArg(m.EndDate),
	).Scan(&m.ID, &m.CreatedAt)
	return apperr.FromDB(err, "user not found")
}

func (r *medicationRepoPG) GetByID(ctx context.Context, userID, id int64) (*Medication, error) {
	m, err := scanMed(r.db.QueryRow(ctx,
		`SELECT `+medCols+` FROM medication WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		return nil, apperr.FromDB(err, "medication not found")
	}
	return m, nil
}

func (r *medicationRepoPG) ListByUser(ctx context.Context, userID int64) ([]*Medication, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+medCols+` FROM medication WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, apperr.FromDB(err, "")
	}
	defer rows.Close()

	items := []*Medication{}
	for rows.Next() {
		m, err := scanMed(rows)
		if err != nil {
			return nil, apperr.FromDB(err, "")
		}
		items = append(items, m)
	}
	return items, apperr.FromDB(rows.Err(), "")
}

// =========== Log Repository ===========

type logRepoPG struct{ db db.Querier }

func NewLogRepoPG(q db.Querier) LogRepository {
	return &logRepoPG{db: q}
}

const logCols = `id, medication_id, user_id, log_date, status, taken_at, created_at, updated_at`

func scanLog(row pgx.Row) (*MedicationLog, error) {
	var l MedicationLog
	if err := row.Scan(&l.ID, &l.MedicationID, &l.UserID, &l.Date.Time, &l.Status,
		&l.TakenAt, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	l.Date = l.Date.Normalize()
	return &l, nil
}

// Upsert selects the medication row under the ownership condition, so a
// foreign or missing medication inserts nothing and returns no row. The
// unique (medication_id, log_date) constraint turns a concurrent second
// insert into an update; xmax = 0 only on a freshly inserted tuple.
func (r *logRepoPG) Upsert(ctx context.Context, userID int64, l *MedicationLog) (bool, error) {
	var created bool
	err := r.db.QueryRow(ctx, `
		INSERT INTO medication_log (medication_id, user_id, log_date, status, taken_at)
		SELECT m.id, m.user_id, $3, $4, $5
		FROM medication m
		WHERE m.id = $1 AND m.user_id = $2
		ON CONFLICT (medication_id, log_date) DO UPDATE
		SET status = EXCLUDED.status,
		    taken_at = EXCLUDED.taken_at,
		    updated_at = NOW()
		RETURNING id, user_id, created_at, updated_at, (xmax = 0) AS created`,
		l.MedicationID, userID, l.Date.Time, l.Status, l.TakenAt,
	).Scan(&l.ID, &l.UserID, &l.CreatedAt, &l.UpdatedAt, &created)
	if err != nil {
		return false, apperr.FromDB(err, "medication not found")
	}
	return created, nil
}

func (r *logRepoPG) ListByUser(ctx context.Context, userID int64, start, end caldate.Date) ([]*MedicationLog, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+logCols+`
		FROM medication_log
		WHERE user_id = $1 AND log_date BETWEEN $2 AND $3
		ORDER BY log_date, medication_id`, userID, start.Time, end.Time)
	if err != nil {
		return nil, apperr.FromDB(err, "")
	}
	defer rows.Close()

	items := []*MedicationLog{}
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, apperr.FromDB(err, "")
		}
		items = append(items, l)
	}
	return items, apperr.FromDB(rows.Err(), "")
}

func (r *logRepoPG) CountByStatus(ctx context.Context, userID int64, start, end caldate.Date) (map[string]int, error) {
	rows, err := r.db.Query(ctx, `
		SELECT status, COUNT(*)
		FROM medication_log
		WHERE user_id = $1 AND log_date BETWEEN $2 AND $3
		GROUP BY status`, userID, start.Time, end.Time)
	if err != nil {
		return nil, apperr.FromDB(err, "")
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, apperr.FromDB(err, "")
		}
		counts[status] = n
	}
	return counts, apperr.FromDB(rows.Err(), "")
}
