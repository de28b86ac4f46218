// Package syncmap provides a typed, concurrency-safe map for values that are computed at most once
// per key and then never change.
package syncmap

import "sync"

// A Map associates each key with the first value stored for it.  Later stores for the same key are
// ignored.  The zero value is an empty map ready for use.
type Map[K comparable, V any] struct {
	m sync.Map
}

// Load returns the value stored for k.  The bool distinguishes a stored zero value from a missing
// key.
func (m *Map[K, V]) Load(k K) (V, bool) {
	vAny, ok := m.m.Load(k)
	if !ok {
		return *new(V), false
	}
	return vAny.(V), true
}

// LoadOrStore stores v for k unless a value is already present.  It returns the value now stored
// for k and whether that value was already present.
func (m *Map[K, V]) LoadOrStore(k K, v V) (V, bool) {
	vAny, loaded := m.m.LoadOrStore(k, v)
	return vAny.(V), loaded
}
