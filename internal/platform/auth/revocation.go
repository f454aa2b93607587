package auth

import (
	"context"
	"sync"
	"time"
)

// Revocations tracks logged-out token ids until the tokens would have
// expired on their own. Safe for concurrent use.
type Revocations struct {
	mu      sync.RWMutex
	entries map[string]time.Time // jti -> token expiry
	now     func() time.Time
}

func NewRevocations() *Revocations {
	return &Revocations{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Revoke marks jti as revoked. Entries already past expiresAt are not kept.
func (r *Revocations) Revoke(jti string, expiresAt time.Time) {
	if jti == "" || !r.now().Before(expiresAt) {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[jti] = expiresAt
}

func (r *Revocations) IsRevoked(jti string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[jti]
	return ok
}

func (r *Revocations) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Sweep drops entries whose tokens have expired and returns how many it removed.
func (r *Revocations) Sweep() int {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for jti, exp := range r.entries {
		if now.After(exp) {
			delete(r.entries, jti)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (r *Revocations) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
