// Package recall keeps a bounded, in-memory ring of recently entered lines,
// never written to disk. This is deliberately distinct from history
// persistence, which this shell does not implement. The ring is not
// connected to the terminal line editor: its up-arrow history is
// readline's own, bounded separately by the same history_size setting.
package recall

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// Ring is a fixed-capacity, insertion-ordered recall list. It is backed by
// an LRU cache used as a bounded ring rather than for its eviction-by-reuse
// behavior: every push is a new key, so the oldest entry is simply the
// first one evicted once the ring is full.
type Ring struct {
	cache *lru.Cache[int, string]
	seq   int
	order []string
}

// New creates a Ring holding at most size lines. size <= 0 is treated as 1.
func New(size int) *Ring {
	if size <= 0 {
		size = 1
	}
	cache, _ := lru.New[int, string](size)
	return &Ring{cache: cache}
}

// Push records line as the most recent entry, evicting the oldest one if
// the ring is already full.
func (r *Ring) Push(line string) {
	if line == "" {
		return
	}
	r.seq++
	r.cache.Add(r.seq, line)
	r.rebuildOrder()
}

// Lines returns the recalled lines, oldest first.
func (r *Ring) Lines() []string {
	return r.order
}

// Len reports how many lines are currently held.
func (r *Ring) Len() int {
	return r.cache.Len()
}

func (r *Ring) rebuildOrder() {
	keys := r.cache.Keys()
	order := make([]string, 0, len(keys))
	for _, k := range keys {
		if v, ok := r.cache.Peek(k); ok {
			order = append(order, v)
		}
	}
	r.order = order
}
