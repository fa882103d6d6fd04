package testutil

import (
	"fmt"
	"sync"
)

// SequentialRunIDs hands out run ids "run-0001", "run-0002", ...
//
// Unlike engine.FixedGenerator it never runs out, and it can be reset so the
// same scenario run twice produces identical batch logs.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequentialRunIDs struct {
	mu  sync.Mutex
	seq int64
}

// NewSequentialRunIDs creates a generator whose first id is "run-0001".
func NewSequentialRunIDs() *SequentialRunIDs {
	return &SequentialRunIDs{}
}

// Generate returns the next id.
//
// Implements engine.RunIDGenerator.
func (g *SequentialRunIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("run-%04d", g.seq)
}

// Count returns how many ids have been handed out.
func (g *SequentialRunIDs) Count() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq
}

// Reset starts the sequence over.
func (g *SequentialRunIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
