// Package stats reports cache sizes and event rates to InfluxDB, Prometheus and Redis.
package stats

import (
	"github.com/starshine-sys/guildcache/cache"
)

// Sink receives guild and user count deltas from the cache, and processed event names from the gateway handler.
type Sink interface {
	cache.Counters
	RegisterEvent(name string)
}

// Multi fans out to every sink in it. Nil sinks are skipped.
type Multi []Sink

var _ Sink = Multi(nil)

func (m Multi) AddGuilds(delta int64) {
	for _, s := range m {
		if s != nil {
			s.AddGuilds(delta)
		}
	}
}

func (m Multi) AddUsers(delta int64) {
	for _, s := range m {
		if s != nil {
			s.AddUsers(delta)
		}
	}
}

func (m Multi) RegisterEvent(name string) {
	for _, s := range m {
		if s != nil {
			s.RegisterEvent(name)
		}
	}
}
