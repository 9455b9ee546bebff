package application

import (
	"sync"
	"time"

	"github.com/emaximovel/agenda/internal/agenda"
)

const (
	defaultSnapshotTTL     = 30 * time.Second
	defaultSnapshotEntries = 256
)

// snapshotCache keeps short-lived per broker/date appointment listings so a
// burst of saves does not re-read the same day repeatedly. Any write
// invalidates the whole cache; entries are small and the TTL is short.
type snapshotCache struct {
	mu         sync.Mutex
	entries    map[string]snapshotEntry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

type snapshotEntry struct {
	appointments []agenda.Appointment
	storedAt     time.Time
}

func newSnapshotCache(ttl time.Duration, maxEntries int, now func() time.Time) *snapshotCache {
	if ttl <= 0 {
		ttl = defaultSnapshotTTL
	}
	if maxEntries <= 0 {
		maxEntries = defaultSnapshotEntries
	}
	if now == nil {
		now = time.Now
	}
	return &snapshotCache{
		entries:    make(map[string]snapshotEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        now,
	}
}

func (c *snapshotCache) Get(key string) ([]agenda.Appointment, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.storedAt) > c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return entry.appointments, true
}

func (c *snapshotCache) Store(key string, appointments []agenda.Appointment) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxEntries {
		c.entries = make(map[string]snapshotEntry)
	}
	c.entries[key] = snapshotEntry{appointments: appointments, storedAt: c.now()}
}

func (c *snapshotCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]snapshotEntry)
}
