package order

import (
	"context"
	"sync"
	"time"

	"voice-order/internal/pkg/logger"
)

type refMutex struct {
	sync.Mutex
	refs int
}

// keyedMutex serializes work per session id. Entries are dropped once
// nobody holds or waits on them.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// credentialStore holds API keys in process memory only. Entries share the
// session TTL and are refreshed whenever the session is saved.
type credentialStore struct {
	mu   sync.Mutex
	ttl  time.Duration
	now  func() time.Time
	keys map[string]credential
}

type credential struct {
	key     string
	expires time.Time
}

func newCredentialStore(ttl time.Duration, now func() time.Time) *credentialStore {
	return &credentialStore{ttl: ttl, now: now, keys: make(map[string]credential)}
}

func (c *credentialStore) set(id, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys[id] = credential{key: key, expires: c.now().Add(c.ttl)}
}

func (c *credentialStore) get(id string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	cred, ok := c.keys[id]
	if !ok {
		return ""
	}
	if !c.now().Before(cred.expires) {
		delete(c.keys, id)
		return ""
	}
	return cred.key
}

func (c *credentialStore) touch(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cred, ok := c.keys[id]; ok {
		cred.expires = c.now().Add(c.ttl)
		c.keys[id] = cred
	}
}

func (c *credentialStore) clear(id string) {
	c.mu.Lock()
	delete(c.keys, id)
	c.mu.Unlock()
}

// sweep drops expired keys and reports how many were removed.
func (c *credentialStore) sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	removed := 0
	for id, cred := range c.keys {
		if !now.Before(cred.expires) {
			delete(c.keys, id)
			removed++
		}
	}
	return removed
}

func (c *credentialStore) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.keys)
}

// janitor sweeps expired keys until ctx ends.
func (c *credentialStore) janitor(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.sweep(); n > 0 {
				logger.Info.Printf("Dropped %d expired credentials", n)
			}
		}
	}
}
