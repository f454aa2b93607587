package medication

import (
	"math"
	"strings"
	"time"

	"github.com/lumicare/lumi/internal/platform/apperr"
	"github.com/lumicare/lumi/pkg/caldate"
)

// Medication maps to the medication table. Rows are never updated once
// created.
type Medication struct {
	ID            int64         `db:"id" json:"id"`
	UserID        int64         `db:"user_id" json:"user_id"`
	Name          string        `db:"name" json:"name"`
	Dosage        string        `db:"dosage" json:"dosage"`
	ScheduledTime string        `db:"scheduled_time" json:"scheduled_time"`
	StartDate     caldate.Date  `db:"start_date" json:"start_date"`
	EndDate       *caldate.Date `db:"end_date" json:"end_date,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
}

// Covers reports whether d falls inside the medication's schedule window.
func (m *Medication) Covers(d caldate.Date) bool {
	return d.Within(m.StartDate, m.EndDate)
}

// MedicationLog maps to the medication_log table: one row per medication
// per calendar date.
type MedicationLog struct {
	ID           int64        `db:"id" json:"id"`
	MedicationID int64        `db:"medication_id" json:"medication_id"`
	UserID       int64        `db:"user_id" json:"user_id"`
	Date         caldate.Date `db:"log_date" json:"date"`
	Status       string       `db:"status" json:"status"`
	TakenAt      *time.Time   `db:"taken_at" json:"taken_at"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

const (
	StatusTaken   = "taken"
	StatusMissed  = "missed"
	StatusPending = "pending"
)

var validStatuses = map[string]bool{
	StatusTaken:   true,
	StatusMissed:  true,
	StatusPending: true,
}

type CreateRequest struct {
	Name          string        `json:"name"`
	Dosage        string        `json:"dosage"`
	ScheduledTime string        `json:"scheduled_time"`
	StartDate     caldate.Date  `json:"start_date"`
	EndDate       *caldate.Date `json:"end_date,omitempty"`
}

func (r *CreateRequest) validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Dosage = strings.TrimSpace(r.Dosage)
	r.ScheduledTime = strings.TrimSpace(r.ScheduledTime)

	if r.Name == "" {
		return apperr.Validation("name is required")
	}
	if r.Dosage == "" {
		return apperr.Validation("dosage is required")
	}
	if err := apperr.MaxLen("name", r.Name, 255); err != nil {
		return err
	}
	if err := apperr.MaxLen("dosage", r.Dosage, 128); err != nil {
		return err
	}
	if !validClock(r.ScheduledTime) {
		return apperr.Validation("scheduled_time must be HH:MM between 00:00 and 23:59")
	}
	if r.StartDate.IsZero() {
		return apperr.Validation("start_date is required")
	}
	if r.EndDate != nil && r.EndDate.Before(r.StartDate) {
		return apperr.Validation("end_date must not be before start_date")
	}
	return nil
}

func validClock(s string) bool {
	if len(s) != 5 {
		return false
	}
	_, err := time.Parse("15:04", s)
	return err == nil
}

// LogRequest is the body of POST /medications/:id/log. The medication id
// comes from the path.
type LogRequest struct {
	Date    caldate.Date `json:"date"`
	Status  string       `json:"status"`
	TakenAt *time.Time   `json:"taken_at"`
}

// AdherenceSummary aggregates log statuses over a date range.
type AdherenceSummary struct {
	StartDate caldate.Date `json:"start_date"`
	EndDate   caldate.Date `json:"end_date"`
	Taken     int          `json:"taken"`
	Missed    int          `json:"missed"`
	Pending   int          `json:"pending"`
	Total     int          `json:"total"`
	Rate      int          `json:"adherence_rate"`
}

func newSummary(start, end caldate.Date, counts map[string]int) AdherenceSummary {
	s := AdherenceSummary{
		StartDate: start,
		EndDate:   end,
		Taken:     counts[StatusTaken],
		Missed:    counts[StatusMissed],
		Pending:   counts[StatusPending],
	}
	s.Total = s.Taken + s.Missed + s.Pending
	s.Rate = 100
	if s.Total > 0 {
		s.Rate = int(math.Round(100 * float64(s.Taken) / float64(s.Total)))
	}
	return s
}
