package detect

import (
	"sync"
	"time"
)

type memoryEntry struct {
	framework string
	expiresAt time.Time
}

// Memory remembers the detected framework per origin so a multi-route
// snapshot pays for detection once per site instead of once per page.
// Entries expire after the TTL and are pruned in the background.
type Memory struct {
	store sync.Map // origin (string) -> *memoryEntry
	ttl   time.Duration
	done  chan struct{}
}

// NewMemory creates a Memory with the given TTL (30m when zero) and
// starts the background pruner. Call Stop when done with it.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	m := &Memory{
		ttl:  ttl,
		done: make(chan struct{}),
	}
	go m.pruneLoop()
	return m
}

// Get returns the remembered framework for an origin, or "" when the
// origin is unknown or the entry expired.
func (m *Memory) Get(origin string) string {
	val, ok := m.store.Load(origin)
	if !ok {
		return ""
	}
	entry := val.(*memoryEntry)
	if time.Now().After(entry.expiresAt) {
		m.store.Delete(origin)
		return ""
	}
	return entry.framework
}

// Set records the framework detected for an origin.
func (m *Memory) Set(origin, framework string) {
	m.store.Store(origin, &memoryEntry{
		framework: framework,
		expiresAt: time.Now().Add(m.ttl),
	})
}

// Forget drops the memory for an origin, e.g. after the remembered
// strategy stopped yielding routes.
func (m *Memory) Forget(origin string) {
	m.store.Delete(origin)
}

// Stop terminates the background pruner.
func (m *Memory) Stop() {
	close(m.done)
}

func (m *Memory) pruneLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			now := time.Now()
			m.store.Range(func(key, value any) bool {
				if now.After(value.(*memoryEntry).expiresAt) {
					m.store.Delete(key)
				}
				return true
			})
		}
	}
}
