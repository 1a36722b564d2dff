// Package yield holds creations staged by scripts until they are pushed.
package yield

import (
	"maps"
	"sync"

	"github.com/dotsian/dexscript/internal/model"
	"github.com/dotsian/dexscript/internal/store"
)

// Op is the kind of staged operation.
type Op int

const (
	OpCreate Op = iota
)

func (o Op) String() string {
	switch o {
	case OpCreate:
		return "create"
	}
	return "unknown"
}

// Yield is a staged, not yet persisted creation.
type Yield struct {
	Entry      *model.Entry
	Identifier string
	Fields     store.Record
	Op         Op
}

// Cache is an ordered queue of yields. Insertion order is commit order.
// It is safe for concurrent use.
type Cache struct {
	mu    sync.Mutex
	items []*Yield
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{}
}

// Append stages y at the end of the queue.
func (c *Cache) Append(y *Yield) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, y)
}

// Find returns a copy of the first staged yield for the entry and identifier.
func (c *Cache) Find(entry *model.Entry, identifier string) (Yield, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if y := c.find(entry, identifier); y != nil {
		return y.clone(), true
	}
	return Yield{}, false
}

// Update sets one staged field of the first yield for the entry and
// identifier. It reports whether such a yield exists.
func (c *Cache) Update(entry *model.Entry, identifier, field string, value any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	y := c.find(entry, identifier)
	if y == nil {
		return false
	}
	if y.Fields == nil {
		y.Fields = store.Record{}
	}
	y.Fields[field] = value
	return true
}

func (c *Cache) find(entry *model.Entry, identifier string) *Yield {
	for _, y := range c.items {
		if y.Entry == entry && y.Identifier == identifier {
			return y
		}
	}
	return nil
}

// Items returns copies of the staged yields in order.
func (c *Cache) Items() []Yield {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Yield, len(c.items))
	for i, y := range c.items {
		out[i] = y.clone()
	}
	return out
}

// Len returns the number of staged yields.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Clear discards every staged yield.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
}

// Drain empties the queue and returns what it held.
func (c *Cache) Drain() []Yield {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Yield, len(c.items))
	for i, y := range c.items {
		out[i] = *y
	}
	c.items = nil
	return out
}

func (y *Yield) clone() Yield {
	out := *y
	out.Fields = maps.Clone(y.Fields)
	return out
}
