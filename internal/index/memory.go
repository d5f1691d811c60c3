package index

import (
	"sort"
	"sync"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/domain"
)

// Entry is a component as last served, with bookkeeping.
type Entry struct {
	Component domain.Component `json:"component"`
	LastSeen  time.Time        `json:"last_seen"`
	Uses      int              `json:"uses"`
}

// MemoryIndex keeps every component recently served to a client.
// Handlers use it to resolve components without a round trip and to
// count uses; the janitor prunes entries that stopped appearing.
type MemoryIndex struct {
	mu         sync.RWMutex
	entries    map[string]*Entry // ID -> Entry
	lastRecord time.Time
	now        func() time.Time
}

// NewMemoryIndex creates a new memory index
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		entries: make(map[string]*Entry),
		now:     time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (idx *MemoryIndex) WithClock(now func() time.Time) *MemoryIndex {
	idx.now = now
	return idx
}

// Record adds or refreshes the given components. Use counts survive.
func (idx *MemoryIndex) Record(items []domain.Component) {
	if len(items) == 0 {
		return
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()

	now := idx.now()
	for _, c := range items {
		if c.ID == "" {
			continue
		}
		if e, ok := idx.entries[c.ID]; ok {
			e.Component = c
			e.LastSeen = now
			continue
		}
		idx.entries[c.ID] = &Entry{Component: c, LastSeen: now}
	}
	idx.lastRecord = now
}

// Get retrieves a component by ID
func (idx *MemoryIndex) Get(id string) (domain.Component, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	e, ok := idx.entries[id]
	if !ok {
		return domain.Component{}, false
	}
	return e.Component, true
}

// Entries returns a copy of every entry, most used first then by title.
func (idx *MemoryIndex) Entries() []Entry {
	idx.mu.RLock()
	out := make([]Entry, 0, len(idx.entries))
	for _, e := range idx.entries {
		out = append(out, *e)
	}
	idx.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Uses != out[j].Uses {
			return out[i].Uses > out[j].Uses
		}
		return out[i].Component.Title < out[j].Component.Title
	})
	return out
}

// IncrementUses bumps the use counter of a known component and returns
// the new value, 0 when the id is unknown.
func (idx *MemoryIndex) IncrementUses(id string) int {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	e, ok := idx.entries[id]
	if !ok {
		return 0
	}
	e.Uses++
	return e.Uses
}

// Prune removes entries not seen since cutoff and returns how many went.
func (idx *MemoryIndex) Prune(cutoff time.Time) int {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	removed := 0
	for id, e := range idx.entries {
		if e.LastSeen.Before(cutoff) {
			delete(idx.entries, id)
			removed++
		}
	}
	return removed
}

// Count returns the number of components in the index
func (idx *MemoryIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.entries)
}

// LastRecord returns the time of the last Record call
func (idx *MemoryIndex) LastRecord() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastRecord
}
