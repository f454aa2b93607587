package identity

import (
	"context"
	"sync"
	"time"

	"github.com/lumicare/lumi/internal/platform/apperr"
)

// memUserRepo backs STORE=memory and the tests.
type memUserRepo struct {
	mu      sync.RWMutex
	nextID  int64
	byID    map[int64]*User
	byPhone map[string]int64
}

func NewUserRepoMemory() UserRepository {
	return &memUserRepo{
		byID:    make(map[int64]*User),
		byPhone: make(map[string]int64),
	}
}

func (r *memUserRepo) Create(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byPhone[u.Phone]; taken {
		return apperr.Conflict("phone number already registered")
	}
	r.nextID++
	u.ID = r.nextID
	u.CreatedAt = time.Now().UTC()
	stored := *u
	r.byID[u.ID] = &stored
	r.byPhone[u.Phone] = u.ID
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id int64) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) GetByPhone(ctx context.Context, phone string) (*User, error) {
	r.mu.RLock()
	id, ok := r.byPhone[phone]
	r.mu.RUnlock()
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	return r.GetByID(ctx, id)
}

func (r *memUserRepo) ExistsByPhone(_ context.Context, phone string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byPhone[phone]
	return ok, nil
}

func (r *memUserRepo) UpdateProfile(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[u.ID]
	if !ok {
		return apperr.NotFound("user not found")
	}
	stored.Fullname = u.Fullname
	stored.DOB = u.DOB
	stored.BloodGroup = u.BloodGroup
	stored.Address = u.Address
	*u = *stored
	return nil
}
