// Package buffer implements a bounded LRU page cache backed by a
// disk.Manager. The doubly-linked-list-plus-map shape and hit/miss
// counters are grounded on Felmond13-novusdb's storage/lru.go; eviction
// writeback-if-dirty is grounded on tinySQL's internal/storage/pager
// PageBufferPool. Pages are not pinned: eviction always takes the LRU tail.
package buffer

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/SimonWaldherr/tinyrel/internal/storage/disk"
	"github.com/SimonWaldherr/tinyrel/internal/storage/page"
)

type node struct {
	id         page.ID
	p          *page.Page
	dirty      bool
	prev, next *node
}

// Pool is a bounded, LRU-ordered cache of pages. It is the single
// authority that calls disk.Manager.WritePage (spec §5): no other
// component writes pages directly.
type Pool struct {
	mu       sync.Mutex
	capacity int
	disk     *disk.Manager
	items    map[page.ID]*node
	head     *node // most recently used
	tail     *node // least recently used (eviction candidate)

	hits, misses uint64
	log          *logrus.Entry
}

// New constructs a Pool of the given capacity (in pages) over disk.
func New(d *disk.Manager, capacity int) *Pool {
	if capacity < 1 {
		capacity = 1
	}
	return &Pool{
		capacity: capacity,
		disk:     d,
		items:    make(map[page.ID]*node, capacity),
		log:      logrus.WithField("component", "bufferpool"),
	}
}

func (bp *Pool) unlink(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		bp.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		bp.tail = n.prev
	}
	n.prev, n.next = nil, nil
}

func (bp *Pool) pushFront(n *node) {
	n.prev = nil
	n.next = bp.head
	if bp.head != nil {
		bp.head.prev = n
	}
	bp.head = n
	if bp.tail == nil {
		bp.tail = n
	}
}

func (bp *Pool) moveToFront(n *node) {
	if bp.head == n {
		return
	}
	bp.unlink(n)
	bp.pushFront(n)
}

// evictOne writes back the LRU victim if dirty and drops it from the
// pool. Caller must hold bp.mu.
func (bp *Pool) evictOne() error {
	victim := bp.tail
	if victim == nil {
		return nil
	}
	bp.unlink(victim)
	delete(bp.items, victim.id)
	if victim.dirty {
		bp.log.WithField("page_id", victim.id).Debug("writeback on eviction")
		if err := bp.disk.WritePage(victim.p); err != nil {
			return err
		}
	}
	return nil
}

// insert adds p at MRU, evicting the LRU entry first if the pool is full.
// Caller must hold bp.mu.
func (bp *Pool) insert(id page.ID, p *page.Page, dirty bool) error {
	if n, ok := bp.items[id]; ok {
		n.p = p
		n.dirty = n.dirty || dirty
		bp.moveToFront(n)
		return nil
	}
	if len(bp.items) >= bp.capacity {
		if err := bp.evictOne(); err != nil {
			return err
		}
	}
	n := &node{id: id, p: p, dirty: dirty}
	bp.items[id] = n
	bp.pushFront(n)
	return nil
}

// GetPage returns the page for id, promoting it to MRU. On a cache miss
// it reads through the disk manager and inserts the result. Getting a
// page never clears its dirty bit (spec §4.2).
func (bp *Pool) GetPage(id page.ID) (*page.Page, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if n, ok := bp.items[id]; ok {
		bp.hits++
		bp.moveToFront(n)
		return n.p, nil
	}
	bp.misses++
	p, err := bp.disk.ReadPage(id)
	if err != nil {
		return nil, err
	}
	if err := bp.insert(id, p, false); err != nil {
		return nil, err
	}
	return p, nil
}

// GetPages returns pages for every id in ids: cache-hit pages first (in
// their relative order among ids), then the remaining ids read from disk
// in their original relative order. This avoids a prior disk fetch
// evicting a still-needed cached page before it's been returned to the
// caller (spec §4.2 rationale).
func (bp *Pool) GetPages(ids []page.ID) ([]*page.Page, error) {
	bp.mu.Lock()
	var cached []*page.Page
	var missIDs []page.ID
	for _, id := range ids {
		if n, ok := bp.items[id]; ok {
			bp.hits++
			bp.moveToFront(n)
			cached = append(cached, n.p)
		} else {
			missIDs = append(missIDs, id)
		}
	}
	bp.mu.Unlock()

	out := make([]*page.Page, 0, len(ids))
	out = append(out, cached...)
	for _, id := range missIDs {
		p, err := bp.GetPage(id)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Put inserts or replaces p at MRU, marking it dirty. Used for
// ShadowPages, which are always dirty by definition (spec §4.2).
func (bp *Pool) Put(p *page.Page) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return bp.insert(p.ID, p, true)
}

// MarkDirty flags an already-resident page as dirty.
func (bp *Pool) MarkDirty(id page.ID) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	if n, ok := bp.items[id]; ok {
		n.dirty = true
	}
}

// Flush writes every dirty page to disk without evicting it.
func (bp *Pool) Flush() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	for n := bp.head; n != nil; n = n.next {
		if n.dirty {
			if err := bp.disk.WritePage(n.p); err != nil {
				return err
			}
		}
	}
	return nil
}

// Drop removes id from the pool without writeback, used when a page's id
// is known garbage after a rollback (spec §4.4.5 — optional eager evict).
func (bp *Pool) Drop(id page.ID) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	if n, ok := bp.items[id]; ok {
		bp.unlink(n)
		delete(bp.items, id)
	}
}

// Len reports the current number of resident pages.
func (bp *Pool) Len() int {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return len(bp.items)
}

// Stats is a diagnostic snapshot of cache performance, supplementing the
// spec's required operations (§6 allows auxiliary diagnostic artifacts).
type Stats struct {
	Hits, Misses uint64
	Size         int
}

func (bp *Pool) Stats() Stats {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return Stats{Hits: bp.hits, Misses: bp.misses, Size: len(bp.items)}
}

// HitRate returns the fraction of page lookups (GetPage/GetPages count
// one per page id) satisfied from cache, or 0 when there has been no
// traffic yet.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
