package auth

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestRevocations_RevokeAndCheck(t *testing.T) {
	r := NewRevocations()
	r.Revoke("jti-1", time.Now().Add(time.Hour))

	if !r.IsRevoked("jti-1") {
		t.Error("expected jti-1 to be revoked")
	}
	if r.IsRevoked("jti-2") {
		t.Error("expected jti-2 not to be revoked")
	}
}

func TestRevocations_IgnoresExpiredAndEmpty(t *testing.T) {
	r := NewRevocations()
	r.Revoke("old", time.Now().Add(-time.Minute))
	r.Revoke("", time.Now().Add(time.Hour))

	if r.Count() != 0 {
		t.Errorf("expected no entries, got %d", r.Count())
	}
}

func TestRevocations_Sweep(t *testing.T) {
	r := NewRevocations()
	base := time.Now()
	r.now = func() time.Time { return base }

	r.Revoke("short", base.Add(time.Minute))
	r.Revoke("long", base.Add(time.Hour))

	r.now = func() time.Time { return base.Add(10 * time.Minute) }
	if n := r.Sweep(); n != 1 {
		t.Errorf("expected 1 removed, got %d", n)
	}
	if r.IsRevoked("short") {
		t.Error("expected expired entry to be swept")
	}
	if !r.IsRevoked("long") {
		t.Error("expected live entry to survive the sweep")
	}
}

func TestRevocations_RunStopsOnCancel(t *testing.T) {
	r := NewRevocations()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRevocations_Concurrent(t *testing.T) {
	r := NewRevocations()
	exp := time.Now().Add(time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			jti := string(rune('a' + i%26))
			r.Revoke(jti, exp)
			r.IsRevoked(jti)
		}(i)
	}
	wg.Wait()

	if r.Count() != 26 {
		t.Errorf("expected 26 distinct entries, got %d", r.Count())
	}
}
