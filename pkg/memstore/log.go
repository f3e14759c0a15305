// Package memstore holds process-lifetime, append-only collections shared by
// concurrent handlers.
package memstore

import "sync"

// Log is an insertion-ordered, append-only sequence safe for concurrent use.
// Values are copied in and out, so callers never observe a partially written
// element. The zero value is ready to use.
type Log[T any] struct {
	mu    sync.RWMutex
	items []T
}

// NewLog returns an empty Log.
func NewLog[T any]() *Log[T] {
	return &Log[T]{}
}

// Append adds v to the end of the log and returns the new length.
func (l *Log[T]) Append(v T) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(l.items, v)
	return len(l.items)
}

// Snapshot returns a copy of the current contents in insertion order.
// The result is never nil.
func (l *Log[T]) Snapshot() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

// Len returns the number of elements appended so far.
func (l *Log[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}
