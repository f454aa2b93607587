package nominee

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lumicare/lumi/internal/platform/apperr"
)

type memRepo struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]*Nominee
}

func NewRepoMemory() Repository {
	return &memRepo{items: make(map[int64]*Nominee)}
}

func (r *memRepo) Create(_ context.Context, n *Nominee) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	n.ID = r.nextID
	n.CreatedAt = time.Now().UTC()
	stored := *n
	r.items[n.ID] = &stored
	return nil
}

func (r *memRepo) ListByUser(_ context.Context, userID int64, limit, offset int) ([]*Nominee, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	owned := []*Nominee{}
	for _, n := range r.items {
		if n.UserID == userID {
			cp := *n
			owned = append(owned, &cp)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].ID < owned[j].ID })

	total := len(owned)
	if offset >= total {
		return []*Nominee{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return owned[offset:end], total, nil
}

func (r *memRepo) Delete(_ context.Context, userID, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.items[id]
	if !ok || n.UserID != userID {
		return apperr.NotFound("nominee not found")
	}
	delete(r.items, id)
	return nil
}
