package medication

import (
	"context"

	"github.com/lumicare/lumi/pkg/caldate"
)

// Every method takes the caller's user id. Medications and logs owned by
// another user are reported as not found.

type MedicationRepository interface {
	Create(ctx context.Context, m *Medication) error
	GetByID(ctx context.Context, userID, id int64) (*Medication, error)
	ListByUser(ctx context.Context, userID int64) ([]*Medication, error)
}

type LogRepository interface {
	// Upsert creates or overwrites the log for (l.MedicationID, l.Date) in
	// one atomic step and reports whether a new row was created. It fails
	// with NotFound unless the medication belongs to userID.
	Upsert(ctx context.Context, userID int64, l *MedicationLog) (bool, error)
	// ListByUser returns logs with start <= date <= end ordered by date,
	// then medication id.
	ListByUser(ctx context.Context, userID int64, start, end caldate.Date) ([]*MedicationLog, error)
	CountByStatus(ctx context.Context, userID int64, start, end caldate.Date) (map[string]int, error)
}
