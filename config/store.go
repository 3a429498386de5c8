// Package config provides a generic, hot-reloadable configuration system:
// TOML loading, an atomically swapped store with change listeners, and an
// fsnotify-based file watcher that feeds the store.
package config

import (
	"slices"
	"sync"
	"sync/atomic"
)

// Store holds the current configuration value. Reads never lock; swaps
// notify listeners synchronously, in registration order.
type Store[T any] struct {
	value atomic.Pointer[T]

	mu        sync.RWMutex
	nextID    int
	listeners []listener[T]
}

type listener[T any] struct {
	id int
	fn func(old, new_ *T)
}

// NewStore creates a config store with the given initial value.
func NewStore[T any](initial *T) *Store[T] {
	s := &Store[T]{}
	s.value.Store(initial)
	return s
}

// Get returns the current config value.
func (s *Store[T]) Get() *T {
	return s.value.Load()
}

// Swap replaces the config, notifies listeners and returns the old value.
func (s *Store[T]) Swap(new_ *T) *T {
	old := s.value.Swap(new_)

	s.mu.RLock()
	ls := slices.Clone(s.listeners)
	s.mu.RUnlock()

	for _, l := range ls {
		l.fn(old, new_)
	}
	return old
}

// OnChange registers fn to run after every Swap. The returned function
// removes the listener.
func (s *Store[T]) OnChange(fn func(old, new_ *T)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listener[T]{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.listeners = slices.DeleteFunc(s.listeners, func(l listener[T]) bool { return l.id == id })
	}
}
