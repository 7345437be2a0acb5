package diag

import (
	"sort"
	"sync"
)

// Collector is an in-memory Messager that keeps every diagnostic.
type Collector struct {
	mu    sync.Mutex
	items []Diagnostic
}

func NewCollector() *Collector { return &Collector{} }

func (c *Collector) PrintMessage(d Diagnostic) {
	c.mu.Lock()
	c.items = append(c.items, d)
	c.mu.Unlock()
}

// Items returns a copy of the collected diagnostics.
func (c *Collector) Items() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Diagnostic, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Filter returns the diagnostics of one kind.
func (c *Collector) Filter(kind Kind) []Diagnostic {
	var out []Diagnostic
	for _, d := range c.Items() {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

// HasErrors returns true if at least one Error was collected.
func (c *Collector) HasErrors() bool {
	return len(c.Filter(Error)) > 0
}

// Sort orders diagnostics by file, offset, kind (most severe first) and message.
func (c *Collector) Sort() {
	c.mu.Lock()
	defer c.mu.Unlock()
	sort.SliceStable(c.items, func(i, j int) bool {
		di, dj := c.items[i], c.items[j]
		if di.Pos.Filename != dj.Pos.Filename {
			return di.Pos.Filename < dj.Pos.Filename
		}
		if di.Pos.Offset != dj.Pos.Offset {
			return di.Pos.Offset < dj.Pos.Offset
		}
		if di.Kind != dj.Kind {
			return di.Kind > dj.Kind
		}
		return di.Message < dj.Message
	})
}

// Dedup drops repeated diagnostics with the same kind, position and message.
func (c *Collector) Dedup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	seen := make(map[string]bool)
	items := make([]Diagnostic, 0, len(c.items))
	for _, d := range c.items {
		key := d.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		items = append(items, d)
	}
	c.items = items
}

// Reset discards everything collected so far.
func (c *Collector) Reset() {
	c.mu.Lock()
	c.items = nil
	c.mu.Unlock()
}
