// Package cache provides the two fixed-size, count-bounded LRUs the
// repository core uses to avoid re-opening and re-resolving the same
// packs and deltas on every lookup (spec.md §4.6, §4.7). Both caches
// are bounded by entry count, not byte size, following the shape of
// go-git's plumbing/cache package.
package cache

import (
	"container/list"
	"sync"

	"github.com/kack1/got-portable/hash"
	"github.com/kack1/got-portable/pack/idx"
	"github.com/kack1/got-portable/pack/pack"
)

// DefaultPackCacheSize is the number of open (index, pack) pairs kept
// resident at once.
const DefaultPackCacheSize = 4

type packEntry struct {
	checksum hash.HashId
	idx      *idx.PackIndex
	pf       *pack.PackFile
}

// PackCache is a fixed-size, move-to-front LRU of opened pack/index
// pairs, keyed by the pack's trailer checksum. When a new entry is
// inserted into a full cache, the least recently used entry is
// evicted and its pack file handle is closed.
type PackCache struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[hash.HashId]*list.Element
}

// NewPackCache returns a cache holding at most capacity entries.
// capacity <= 0 is treated as DefaultPackCacheSize.
func NewPackCache(capacity int) *PackCache {
	if capacity <= 0 {
		capacity = DefaultPackCacheSize
	}
	return &PackCache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[hash.HashId]*list.Element),
	}
}

// Get returns the cached (index, pack) pair for checksum, moving it
// to the front of the LRU on a hit.
func (c *PackCache) Get(checksum hash.HashId) (*idx.PackIndex, *pack.PackFile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[checksum]
	if !ok {
		return nil, nil, false
	}
	c.ll.MoveToFront(el)
	e := el.Value.(*packEntry)
	return e.idx, e.pf, true
}

// Put inserts or refreshes a cache entry. If the cache is at capacity
// and checksum is not already present, the least recently used entry
// is evicted and its PackFile handle closed.
func (c *PackCache) Put(checksum hash.HashId, pi *idx.PackIndex, pf *pack.PackFile) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[checksum]; ok {
		c.ll.MoveToFront(el)
		el.Value.(*packEntry).idx = pi
		el.Value.(*packEntry).pf = pf
		return
	}

	if c.ll.Len() >= c.capacity {
		c.evictOldest()
	}

	el := c.ll.PushFront(&packEntry{checksum: checksum, idx: pi, pf: pf})
	c.items[checksum] = el
}

// Remove drops checksum from the cache, closing its pack handle, if
// present. Used when a pack directory rescan finds a pack file has
// disappeared from disk.
func (c *PackCache) Remove(checksum hash.HashId) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[checksum]
	if !ok {
		return
	}
	c.removeElement(el)
}

// Len returns the number of entries currently cached.
func (c *PackCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Close evicts and closes every cached pack handle. Intended for
// repository shutdown.
func (c *PackCache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.ll.Len() > 0 {
		c.evictOldest()
	}
}

func (c *PackCache) evictOldest() {
	el := c.ll.Back()
	if el != nil {
		c.removeElement(el)
	}
}

func (c *PackCache) removeElement(el *list.Element) {
	e := el.Value.(*packEntry)
	c.ll.Remove(el)
	delete(c.items, e.checksum)
	e.pf.Close()
}
