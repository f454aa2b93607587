package medication

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lumicare/lumi/internal/platform/apperr"
	"github.com/lumicare/lumi/pkg/caldate"
)

type logKey struct {
	medicationID int64
	date         caldate.Date
}

// memStore keeps medications and logs behind one lock so the ownership
// check and the create-or-update decision happen together.
type memStore struct {
	mu        sync.RWMutex
	nextMedID int64
	nextLogID int64
	meds      map[int64]*Medication
	logs      map[logKey]*MedicationLog
	now       func() time.Time
}

// NewMemoryRepos returns repositories sharing one in-process store.
func NewMemoryRepos() (MedicationRepository, LogRepository) {
	s := &memStore{
		meds: make(map[int64]*Medication),
		logs: make(map[logKey]*MedicationLog),
		now:  func() time.Time { return time.Now().UTC() },
	}
	return memMedications{s}, memLogs{s}
}

type memMedications struct{ s *memStore }

func (r memMedications) Create(_ context.Context, m *Medication) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextMedID++
	m.ID = r.s.nextMedID
	m.CreatedAt = r.s.now()
	stored := *m
	r.s.meds[m.ID] = &stored
	return nil
}

func (r memMedications) GetByID(_ context.Context, userID, id int64) (*Medication, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.meds[id]
	if !ok || m.UserID != userID {
		return nil, apperr.NotFound("medication not found")
	}
	cp := *m
	return &cp, nil
}

func (r memMedications) ListByUser(_ context.Context, userID int64) ([]*Medication, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	items := []*Medication{}
	for _, m := range r.s.meds {
		if m.UserID == userID {
			cp := *m
			items = append(items, &cp)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

type memLogs struct{ s *memStore }

func (r memLogs) Upsert(_ context.Context, userID int64, l *MedicationLog) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	m, ok := r.s.meds[l.MedicationID]
	if !ok || m.UserID != userID {
		return false, apperr.NotFound("medication not found")
	}

	now := r.s.now()
	key := logKey{medicationID: l.MedicationID, date: l.Date}
	if existing, ok := r.s.logs[key]; ok {
		existing.Status = l.Status
		existing.TakenAt = l.TakenAt
		existing.UpdatedAt = now
		*l = *existing
		return false, nil
	}

	r.s.nextLogID++
	l.ID = r.s.nextLogID
	l.UserID = m.UserID
	l.CreatedAt = now
	l.UpdatedAt = now
	stored := *l
	r.s.logs[key] = &stored
	return true, nil
}

func (r memLogs) inRange(userID int64, start, end caldate.Date) []*MedicationLog {
	var out []*MedicationLog
	for _, l := range r.s.logs {
		if l.UserID == userID && l.Date.Within(start, &end) {
			out = append(out, l)
		}
	}
	return out
}

func (r memLogs) ListByUser(_ context.Context, userID int64, start, end caldate.Date) ([]*MedicationLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	items := []*MedicationLog{}
	for _, l := range r.inRange(userID, start, end) {
		cp := *l
		items = append(items, &cp)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].Date.Equal(items[j].Date) {
			return items[i].Date.Before(items[j].Date)
		}
		return items[i].MedicationID < items[j].MedicationID
	})
	return items, nil
}

func (r memLogs) CountByStatus(_ context.Context, userID int64, start, end caldate.Date) (map[string]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	counts := make(map[string]int)
	for _, l := range r.inRange(userID, start, end) {
		counts[l.Status]++
	}
	return counts, nil
}
