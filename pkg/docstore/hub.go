package docstore

import "sync"

// Hub fans change signals out to in-process watchers. Used by drivers that have no native
// change feed. Signals coalesce: a watcher that is busy sees one pending signal.
type Hub struct {
	mu       sync.Mutex
	next     uint64
	watchers map[string]map[uint64]chan struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{watchers: make(map[string]map[uint64]chan struct{})}
}

// Watch registers interest in a collection. The returned func detaches the watcher.
func (h *Hub) Watch(collection string) (<-chan struct{}, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	id := h.next
	ch := make(chan struct{}, 1)
	if h.watchers[collection] == nil {
		h.watchers[collection] = make(map[uint64]chan struct{})
	}
	h.watchers[collection][id] = ch
	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.watchers[collection], id)
		if len(h.watchers[collection]) == 0 {
			delete(h.watchers, collection)
		}
	}
}

// Notify signals every watcher of collection without blocking.
func (h *Hub) Notify(collection string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.watchers[collection] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Watchers counts active watchers of a collection.
func (h *Hub) Watchers(collection string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.watchers[collection])
}
