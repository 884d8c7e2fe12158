package cache

import (
	"sync"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/puzpuzpuz/xsync/v3"
)

// IndexResult is the outcome of inserting a child ID into a guild index.
type IndexResult uint8

const (
	Inserted IndexResult = iota
	AlreadyPresent
	SkippedNoParent
)

func (r IndexResult) String() string {
	switch r {
	case Inserted:
		return "inserted"
	case AlreadyPresent:
		return "already present"
	case SkippedNoParent:
		return "skipped (no parent)"
	}
	return "unknown"
}

type idSet[T comparable] struct {
	mu     sync.RWMutex
	ids    map[T]struct{}
	closed bool
}

// guildIndex maps a guild to the set of its child IDs.
// A set only exists between GuildCreate and GuildDelete; inserts into a guild without a set are skipped.
type guildIndex[T comparable] struct {
	sets    *xsync.MapOf[discord.GuildID, *idSet[T]]
	skipped *xsync.Counter
}

func newGuildIndex[T comparable]() *guildIndex[T] {
	return &guildIndex[T]{
		sets:    xsync.NewMapOf[discord.GuildID, *idSet[T]](),
		skipped: xsync.NewCounter(),
	}
}

// Ensure creates the set for guildID if it doesn't exist yet.
func (ix *guildIndex[T]) Ensure(guildID discord.GuildID) {
	ix.sets.LoadOrCompute(guildID, func() *idSet[T] {
		return &idSet[T]{ids: map[T]struct{}{}}
	})
}

// update runs fn with the guild's set locked for writing.
// It returns false without calling fn if the set is missing or already drained.
func (ix *guildIndex[T]) update(guildID discord.GuildID, fn func(ids map[T]struct{})) bool {
	set, ok := ix.sets.Load(guildID)
	if !ok {
		return false
	}

	set.mu.Lock()
	defer set.mu.Unlock()
	if set.closed {
		return false
	}
	fn(set.ids)
	return true
}

func (ix *guildIndex[T]) Insert(guildID discord.GuildID, id T) IndexResult {
	return ix.InsertWith(guildID, id, nil)
}

// InsertWith inserts id and calls fn while still holding the set's lock,
// so callers can store the child entity atomically with its index entry.
// fn is not called if the insert is skipped.
func (ix *guildIndex[T]) InsertWith(guildID discord.GuildID, id T, fn func()) IndexResult {
	res := SkippedNoParent
	ix.update(guildID, func(ids map[T]struct{}) {
		if fn != nil {
			fn()
		}

		if _, ok := ids[id]; ok {
			res = AlreadyPresent
			return
		}
		ids[id] = struct{}{}
		res = Inserted
	})

	if res == SkippedNoParent {
		ix.skipped.Inc()
	}
	return res
}

// Remove removes id from the guild's set, returning true if it was present.
func (ix *guildIndex[T]) Remove(guildID discord.GuildID, id T) (removed bool) {
	ix.update(guildID, func(ids map[T]struct{}) {
		_, removed = ids[id]
		delete(ids, id)
	})
	return removed
}

// Drain detaches the guild's set and calls fn for every ID in it.
// The set is closed before its lock is released, so concurrent inserts into it are skipped.
func (ix *guildIndex[T]) Drain(guildID discord.GuildID, fn func(T)) int {
	set, ok := ix.sets.LoadAndDelete(guildID)
	if !ok {
		return 0
	}

	set.mu.Lock()
	defer set.mu.Unlock()
	set.closed = true
	n := len(set.ids)
	for id := range set.ids {
		fn(id)
	}
	set.ids = nil
	return n
}

// IDs returns a copy of the guild's set.
func (ix *guildIndex[T]) IDs(guildID discord.GuildID) []T {
	set, ok := ix.sets.Load(guildID)
	if !ok {
		return nil
	}

	set.mu.RLock()
	defer set.mu.RUnlock()
	out := make([]T, 0, len(set.ids))
	for id := range set.ids {
		out = append(out, id)
	}
	return out
}

func (ix *guildIndex[T]) Has(guildID discord.GuildID, id T) bool {
	set, ok := ix.sets.Load(guildID)
	if !ok {
		return false
	}

	set.mu.RLock()
	defer set.mu.RUnlock()
	_, ok = set.ids[id]
	return ok
}

func (ix *guildIndex[T]) Len(guildID discord.GuildID) int {
	set, ok := ix.sets.Load(guildID)
	if !ok {
		return 0
	}

	set.mu.RLock()
	defer set.mu.RUnlock()
	return len(set.ids)
}

// Exists returns true if the guild has a set.
func (ix *guildIndex[T]) Exists(guildID discord.GuildID) bool {
	_, ok := ix.sets.Load(guildID)
	return ok
}

// Skipped returns the number of inserts skipped because the parent guild had no set.
func (ix *guildIndex[T]) Skipped() int64 {
	return ix.skipped.Value()
}
