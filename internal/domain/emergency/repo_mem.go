package emergency

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lumicare/lumi/internal/platform/apperr"
)

type memRepo struct {
	mu     sync.Mutex
	nextID int64
	alerts map[int64]*Alert
	// active indexes the one active alert per user.
	active map[int64]int64
	now    func() time.Time
}

func NewRepoMemory() Repository {
	return &memRepo{
		alerts: make(map[int64]*Alert),
		active: make(map[int64]int64),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *memRepo) GetActive(_ context.Context, userID int64) (*Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.active[userID]
	if !ok {
		return nil, apperr.NotFound("no active emergency")
	}
	cp := *r.alerts[id]
	return &cp, nil
}

func (r *memRepo) Trigger(_ context.Context, userID int64, stage string) (*Alert, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.active[userID]; ok {
		a := r.alerts[id]
		a.Stage = stage
		cp := *a
		return &cp, false, nil
	}

	r.nextID++
	a := &Alert{
		ID:        r.nextID,
		UserID:    userID,
		Stage:     stage,
		IsActive:  true,
		CreatedAt: r.now(),
	}
	r.alerts[a.ID] = a
	r.active[userID] = a.ID
	cp := *a
	return &cp, true, nil
}

func (r *memRepo) Resolve(_ context.Context, userID, id int64) (*Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.alerts[id]
	if !ok || a.UserID != userID {
		return nil, apperr.NotFound("alert not found")
	}
	if a.IsActive {
		a.IsActive = false
		delete(r.active, userID)
	}
	if a.ResolvedAt == nil {
		now := r.now()
		a.ResolvedAt = &now
	}
	cp := *a
	return &cp, nil
}

func (r *memRepo) ListByUser(_ context.Context, userID int64, limit, offset int) ([]*Alert, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	owned := []*Alert{}
	for _, a := range r.alerts {
		if a.UserID == userID {
			cp := *a
			owned = append(owned, &cp)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		if !owned[i].CreatedAt.Equal(owned[j].CreatedAt) {
			return owned[i].CreatedAt.After(owned[j].CreatedAt)
		}
		return owned[i].ID > owned[j].ID
	})

	total := len(owned)
	if offset >= total {
		return []*Alert{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return owned[offset:end], total, nil
}
