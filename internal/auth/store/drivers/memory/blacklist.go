// Package memory provides an in-process Blacklist for tests and
// single-node deployments that can tolerate losing revocations on
// restart.
package memory

import (
	"context"
	"sync"
	"time"
)

// Blacklist keeps revoked token IDs in a map with per-entry deadlines.
// Expired entries are dropped lazily on lookup and swept during Add, so
// no background goroutine is needed.
type Blacklist struct {
	mu      sync.Mutex
	entries map[string]time.Time // jti -> expiry deadline
	now     func() time.Time
}

func NewBlacklist() *Blacklist {
	return &Blacklist{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (b *Blacklist) Add(ctx context.Context, jti string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	b.entries[jti] = now.Add(ttl)

	// Opportunistic sweep so long-lived processes don't hoard dead jtis.
	for id, deadline := range b.entries {
		if now.After(deadline) {
			delete(b.entries, id)
		}
	}

	return nil
}

func (b *Blacklist) Has(ctx context.Context, jti string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	deadline, ok := b.entries[jti]
	if !ok {
		return false, nil
	}
	if b.now().After(deadline) {
		delete(b.entries, jti)
		return false, nil
	}
	return true, nil
}
