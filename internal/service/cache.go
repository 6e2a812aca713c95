package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/AdamBeresnev/op-tournament-engine/internal/bracket"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Snapshot is a tournament together with its matches as read in one
// transaction. Cached snapshots are shared; callers must not modify them.
type Snapshot struct {
	Tournament bracket.Tournament
	Matches    []bracket.Match
}

type loadFunc func(ctx context.Context, id uuid.UUID) (*Snapshot, error)

type cacheEntry struct {
	snapshot *Snapshot
	expires  time.Time
}

// Cache is a read-through cache of tournament snapshots. Concurrent misses for
// one tournament share a single load. Writers call Invalidate with every
// tournament they touched; a load that overlaps an invalidation is returned to
// its callers but not stored.
type Cache struct {
	ttl  time.Duration
	load loadFunc
	now  func() time.Time

	group singleflight.Group

	mu          sync.Mutex
	entries     map[uuid.UUID]cacheEntry
	generations map[uuid.UUID]uint64
}

// NewCache returns a cache keeping snapshots for ttl. A ttl of zero or less
// disables storage but still deduplicates concurrent loads.
func NewCache(ttl time.Duration, load loadFunc) *Cache {
	return &Cache{
		ttl:         ttl,
		load:        load,
		now:         time.Now,
		entries:     make(map[uuid.UUID]cacheEntry),
		generations: make(map[uuid.UUID]uint64),
	}
}

func (c *Cache) Get(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	c.mu.Lock()
	if e, ok := c.entries[id]; ok && c.now().Before(e.expires) {
		c.mu.Unlock()
		return e.snapshot, nil
	}
	generation := c.generations[id]
	c.mu.Unlock()

	key := fmt.Sprintf("%s/%d", id, generation)
	v, err, _ := c.group.Do(key, func() (any, error) {
		snapshot, err := c.load(ctx, id)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.ttl > 0 && c.generations[id] == generation {
			c.entries[id] = cacheEntry{snapshot: snapshot, expires: c.now().Add(c.ttl)}
		}
		c.mu.Unlock()
		return snapshot, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// Invalidate drops the given tournaments and fences off loads already in flight.
func (c *Cache) Invalidate(ids ...uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.entries, id)
		c.generations[id]++
	}
}
