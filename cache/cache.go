/*
Package cache holds the in-memory caches of the service:
the last known fix per bus, the last pushed batch per bus,
a duplicate filter for pushes, and recently processed paths.
*/
package cache

import (
	"sync"

	"github.com/golang/groupcache/lru"
	lrucache "github.com/hashicorp/golang-lru/v2"
	"github.com/jellydator/ttlcache/v3"
	"github.com/mitchellh/hashstructure/v2"
	"github.com/rotblauer/bustrack/conceptual"
	"github.com/rotblauer/bustrack/geo/path"
	"github.com/rotblauer/bustrack/params"
	"github.com/rotblauer/bustrack/types/fix"
)

type Caches struct {
	LastKnown *ttlcache.Cache[conceptual.BusID, fix.Fix]
	LastPush  *ttlcache.Cache[conceptual.BusID, fix.Fixes]
	Dedupe    *Dedupe
	Paths     *PathCache
}

func New() (*Caches, error) {
	paths, err := NewPathCache(params.DefaultPathCacheSize)
	if err != nil {
		return nil, err
	}
	return &Caches{
		LastKnown: ttlcache.New[conceptual.BusID, fix.Fix](
			ttlcache.WithTTL[conceptual.BusID, fix.Fix](params.CacheLastKnownTTL)),
		LastPush: ttlcache.New[conceptual.BusID, fix.Fixes](
			ttlcache.WithTTL[conceptual.BusID, fix.Fixes](params.CacheLastPushTTL)),
		Dedupe: NewDedupe(params.DefaultDedupeCacheSize),
		Paths:  paths,
	}, nil
}

// Start runs the TTL caches' expiry loops until Stop.
func (c *Caches) Start() {
	go c.LastKnown.Start()
	go c.LastPush.Start()
}

func (c *Caches) Stop() {
	c.LastKnown.Stop()
	c.LastPush.Stop()
}

// SetLastKnown caches f as the last known fix of the bus,
// unless a later fix is already cached.
func (c *Caches) SetLastKnown(busID conceptual.BusID, f fix.Fix) {
	if item := c.LastKnown.Get(busID); item != nil && item.Value().Timestamp > f.Timestamp {
		return
	}
	c.LastKnown.Set(busID, f, ttlcache.DefaultTTL)
}

// GetLastKnown returns the cached last known fix of the bus, if any.
func (c *Caches) GetLastKnown(busID conceptual.BusID) (fix.Fix, bool) {
	item := c.LastKnown.Get(busID)
	if item == nil {
		return fix.Fix{}, false
	}
	return item.Value(), true
}

// LastKnownAll returns the unexpired last known fixes of all cached buses.
func (c *Caches) LastKnownAll() map[conceptual.BusID]fix.Fix {
	out := map[conceptual.BusID]fix.Fix{}
	for k, item := range c.LastKnown.Items() {
		if item.IsExpired() {
			continue
		}
		out[k] = item.Value()
	}
	return out
}

// Dedupe drops fixes it has recently seen, using a
// Least Recently Used (LRU) cache of their hashes.
type Dedupe struct {
	mu    sync.Mutex
	cache *lru.Cache
}

func NewDedupe(size int) *Dedupe {
	return &Dedupe{cache: lru.New(size)}
}

type dedupeKey struct {
	BusID conceptual.BusID
	Fix   fix.Fix
}

// Key hashes the bus and fix into a dedupe key.
func (d *Dedupe) Key(busID conceptual.BusID, f fix.Fix) (uint64, error) {
	return hashstructure.Hash(dedupeKey{busID, f}, hashstructure.FormatV2, nil)
}

// Seen reports whether the key was added. It does not add it.
func (d *Dedupe) Seen(key uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.cache.Get(key)
	return ok
}

// Add records keys as seen.
// Callers add keys only once their fixes are stored.
func (d *Dedupe) Add(keys ...uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, k := range keys {
		d.cache.Add(k, true)
	}
}

// PathKey identifies one processed history read.
type PathKey struct {
	BusID    conceptual.BusID
	Start    int64
	End      int64
	Smoother string
}

// PathCache keeps recently processed paths.
// Entries for a bus must be invalidated when its history changes.
type PathCache struct {
	*lrucache.Cache[PathKey, *path.Path]
}

func NewPathCache(size int) (*PathCache, error) {
	c, err := lrucache.New[PathKey, *path.Path](size)
	if err != nil {
		return nil, err
	}
	return &PathCache{Cache: c}, nil
}

// InvalidateBus drops all cached paths of the bus.
func (c *PathCache) InvalidateBus(busID conceptual.BusID) int {
	n := 0
	for _, k := range c.Keys() {
		if k.BusID == busID {
			if c.Remove(k) {
				n++
			}
		}
	}
	return n
}
