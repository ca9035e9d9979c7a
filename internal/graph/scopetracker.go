package graph

import (
	"fmt"
	"sync"
)

// scopeFrame is one entry on the ScopeTracker's stack: a single named
// enclosing scope (module, class, or function).
type scopeFrame struct {
	name string
	kind NodeKind
}

// ScopeTracker is the per-file state machine that computes scope paths for
// the semantic identifier service (spec §4.1). Exactly one ScopeTracker is
// created per file and never shared across files — owned by that file's
// traversal goroutine, but guarded anyway so a misbehaving visitor calling
// it from a spawned sub-task fails safe instead of racing.
type ScopeTracker struct {
	mu      sync.Mutex
	file    string
	stack   []scopeFrame
	counter map[string]int
}

// NewScopeTracker creates a tracker seeded with the file's MODULE scope,
// which is always the outermost frame and is never popped.
func NewScopeTracker(file string) *ScopeTracker {
	return &ScopeTracker{
		file:    file,
		stack:   []scopeFrame{{name: file, kind: KindModule}},
		counter: make(map[string]int),
	}
}

// Push enters a new named scope (class body, function body, block with its
// own binding scope). Every Push must be matched by a Pop before the
// traversal that opened it returns — ScopeTracker does not self-balance.
func (s *ScopeTracker) Push(name string, kind NodeKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stack = append(s.stack, scopeFrame{name: name, kind: kind})
}

// Pop leaves the innermost scope. Popping the module frame is a
// programming error in the caller and panics rather than silently
// corrupting the scope path invariant (balanced push/pop, spec §4.1).
func (s *ScopeTracker) Pop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.stack) <= 1 {
		panic("graph: ScopeTracker.Pop called with no pushed scope")
	}
	s.stack = s.stack[:len(s.stack)-1]
}

// Context is the snapshot returned by GetContext: the file and the ordered
// list of enclosing named scopes from outermost to innermost.
type Context struct {
	File      string
	ScopePath []string
}

// GetContext returns the current {file, scopePath} (spec §4.1).
func (s *ScopeTracker) GetContext() Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	path := make([]string, len(s.stack))
	for i, f := range s.stack {
		path[i] = f.name
	}
	return Context{File: s.file, ScopePath: path}
}

// GetNamedParent returns the nearest named enclosing scope (module, class,
// or function), i.e. the frame directly below the current innermost one.
func (s *ScopeTracker) GetNamedParent() (name string, kind NodeKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.stack) < 2 {
		f := s.stack[0]
		return f.name, f.kind
	}
	f := s.stack[len(s.stack)-2]
	return f.name, f.kind
}

// GetItemCounter returns a monotonically increasing integer for the pair
// (current scope, key), used as a discriminator source for anonymous or
// repeated constructs (e.g. the Nth anonymous function in a scope).
func (s *ScopeTracker) GetItemCounter(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	scopeKey := fmt.Sprintf("%s\x00%s", s.currentPathLocked(), key)
	n := s.counter[scopeKey]
	s.counter[scopeKey] = n + 1
	return n
}

// Depth reports how many scopes are currently pushed, for traversal code
// that asserts balanced push/pop at file-visit boundaries.
func (s *ScopeTracker) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stack)
}

func (s *ScopeTracker) currentPathLocked() string {
	out := ""
	for i, f := range s.stack {
		if i > 0 {
			out += "/"
		}
		out += f.name
	}
	return out
}
