package cache

import "github.com/puzpuzpuz/xsync/v3"

type equaler[V any] interface {
	Equal(V) bool
}

// entityStore maps keys to immutable snapshots of V.
// Writers swap the stored pointer under the key's bucket lock; readers never see a partially written value.
type entityStore[K comparable, V equaler[V]] struct {
	m *xsync.MapOf[K, *V]
}

func newEntityStore[K comparable, V equaler[V]]() *entityStore[K, V] {
	return &entityStore[K, V]{m: xsync.NewMapOf[K, *V]()}
}

// Upsert stores value under key.
// If the stored value is structurally equal, the existing handle is returned and changed is false.
func (s *entityStore[K, V]) Upsert(key K, value V) (handle *V, changed bool) {
	handle, _ = s.m.Compute(key, func(old *V, loaded bool) (*V, bool) {
		if loaded && old != nil && (*old).Equal(value) {
			changed = false
			return old, false
		}

		changed = true
		v := value
		return &v, false
	})
	return handle, changed
}

// Mutate clones the value stored under key, applies fn to the clone and stores it.
// fn must replace slices rather than modify them in place. Absent keys are left absent.
func (s *entityStore[K, V]) Mutate(key K, fn func(*V)) (*V, bool) {
	return s.m.Compute(key, func(old *V, loaded bool) (*V, bool) {
		if !loaded || old == nil {
			return nil, true
		}

		v := *old
		fn(&v)
		return &v, false
	})
}

func (s *entityStore[K, V]) Get(key K) (*V, bool) {
	return s.m.Load(key)
}

func (s *entityStore[K, V]) Remove(key K) (*V, bool) {
	return s.m.LoadAndDelete(key)
}

func (s *entityStore[K, V]) Len() int {
	return s.m.Size()
}

func (s *entityStore[K, V]) Range(fn func(K, *V) bool) {
	s.m.Range(fn)
}
