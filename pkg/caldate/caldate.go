// Package caldate is a calendar date without a time of day or zone,
// serialized as "YYYY-MM-DD".
package caldate

import (
	"encoding/json"
	"fmt"
	"time"
)

const Layout = "2006-01-02"

// Date is always stored at midnight UTC so equality and ordering behave.
type Date struct {
	time.Time
}

func New(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// Parse accepts "YYYY-MM-DD" only.
func Parse(s string) (Date, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return Date{t}, nil
}

// Of truncates t to its calendar date in t's own location.
func Of(t time.Time) Date {
	return New(t.Year(), t.Month(), t.Day())
}

func Today() Date {
	return Of(time.Now())
}

func (d Date) String() string {
	return d.Format(Layout)
}

func (d Date) AddDays(n int) Date {
	return Date{d.Time.AddDate(0, 0, n)}
}

func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }
func (d Date) After(o Date) bool  { return d.Time.After(o.Time) }
func (d Date) Equal(o Date) bool  { return d.Time.Equal(o.Time) }

// Within reports whether d lies in [start, end]. A nil end is open.
func (d Date) Within(start Date, end *Date) bool {
	if d.Before(start) {
		return false
	}
	return end == nil || !d.After(*end)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Normalize re-anchors a date read back from the database at midnight UTC.
func (d Date) Normalize() Date {
	return New(d.Year(), d.Month(), d.Day())
}
