package sequence

import (
	"context"
	"sync"
)

// MemoryGenerator is an in-process Generator for tests and for wiring
// components without a database.
type MemoryGenerator struct {
	mu       sync.Mutex
	counters map[string]int64
}

func NewMemoryGenerator() *MemoryGenerator {
	return &MemoryGenerator{
		counters: make(map[string]int64),
	}
}

func (g *MemoryGenerator) Next(_ context.Context, prefix string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.counters[prefix]++
	return Format(prefix, g.counters[prefix]), nil
}
