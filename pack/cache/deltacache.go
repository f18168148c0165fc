package cache

import (
	"container/list"
	"sync"

	"github.com/kack1/got-portable/hash"
)

// DefaultDeltaCacheSize is the number of resolved delta results kept
// per pack.
const DefaultDeltaCacheSize = 256

// DeltaEntry is a cached, fully-resolved delta result: the plain type
// and content an object at a given pack offset resolves to, computed
// once so that repeated reads of the same offset don't repeat the
// chain walk. Entries are immutable once inserted. It is consulted
// only while applying a delta chain, never while locating an object
// by id (spec.md §4.6).
type DeltaEntry struct {
	Type      byte
	Content   []byte
	Deltified bool
	Depth     int
}

type deltaCacheEntry struct {
	offset int64
	value  DeltaEntry
}

// deltaBucket is one pack's own move-to-front LRU, holding at most
// capacity entries keyed by offset within that pack.
type deltaBucket struct {
	ll    *list.List
	items map[int64]*list.Element
}

func newDeltaBucket() *deltaBucket {
	return &deltaBucket{ll: list.New(), items: make(map[int64]*list.Element)}
}

// DeltaCache holds one independent, fixed-size move-to-front LRU
// bucket per pack checksum (spec.md §4.8's "per-pack-path bucket of up
// to 256 entries", mirrored from got_pack_lib.h's repo->delta_cache
// array of per-pack caches in lib/pack.c's cache_delta/
// add_delta_cache_entry). Heavy delta traffic in one pack's bucket
// never evicts another pack's entries.
type DeltaCache struct {
	mu       sync.Mutex
	capacity int
	buckets  map[hash.HashId]*deltaBucket
}

// NewDeltaCache returns a cache holding at most capacity entries per
// pack. capacity <= 0 is treated as DefaultDeltaCacheSize.
func NewDeltaCache(capacity int) *DeltaCache {
	if capacity <= 0 {
		capacity = DefaultDeltaCacheSize
	}
	return &DeltaCache{
		capacity: capacity,
		buckets:  make(map[hash.HashId]*deltaBucket),
	}
}

// Get returns the cached result for (packChecksum, offset), if any.
func (c *DeltaCache) Get(packChecksum hash.HashId, offset int64) (DeltaEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.buckets[packChecksum]
	if !ok {
		return DeltaEntry{}, false
	}
	el, ok := b.items[offset]
	if !ok {
		return DeltaEntry{}, false
	}
	b.ll.MoveToFront(el)
	return el.Value.(*deltaCacheEntry).value, true
}

// Put inserts a resolved result, evicting the least recently used
// entry in packChecksum's own bucket if it is full. Other packs'
// buckets are untouched.
func (c *DeltaCache) Put(packChecksum hash.HashId, offset int64, value DeltaEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.buckets[packChecksum]
	if !ok {
		b = newDeltaBucket()
		c.buckets[packChecksum] = b
	}

	if el, ok := b.items[offset]; ok {
		b.ll.MoveToFront(el)
		el.Value.(*deltaCacheEntry).value = value
		return
	}

	if b.ll.Len() >= c.capacity {
		if el := b.ll.Back(); el != nil {
			b.ll.Remove(el)
			delete(b.items, el.Value.(*deltaCacheEntry).offset)
		}
	}

	el := b.ll.PushFront(&deltaCacheEntry{offset: offset, value: value})
	b.items[offset] = el
}

// InvalidatePack drops packChecksum's entire bucket. Used when a pack
// is evicted from the PackCache or disappears from disk, so a later
// reinsertion of the same checksum (an unlikely but possible
// repack-in-place) never serves stale content.
func (c *DeltaCache) InvalidatePack(packChecksum hash.HashId) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.buckets, packChecksum)
}

// Len returns the number of entries currently cached across every
// pack's bucket.
func (c *DeltaCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, b := range c.buckets {
		n += b.ll.Len()
	}
	return n
}
