// Package events feeds gateway events into the cache.
package events

import (
	"emperror.dev/errors"
	"go.uber.org/zap"

	"github.com/starshine-sys/guildcache/cache"
	"github.com/starshine-sys/guildcache/common/log"
)

// EventRecorder counts applied events by name.
type EventRecorder interface {
	RegisterEvent(name string)
}

// Handler applies gateway events to a cache.
// Register Handle as a synchronous handler so events of one shard are applied in order.
type Handler struct {
	cache    *cache.Cache
	recorder EventRecorder
	reporter *Reporter
	log      *zap.SugaredLogger
}

func NewHandler(c *cache.Cache, recorder EventRecorder, reporter *Reporter) *Handler {
	return &Handler{
		cache:    c,
		recorder: recorder,
		reporter: reporter,
		log:      log.Named("events"),
	}
}

// Handle handles any gateway event. Events the cache doesn't track are ignored.
func (h *Handler) Handle(ev interface{}) {
	cev, ok := Convert(ev)
	if !ok {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			h.report(cev, errors.Errorf("panic: %v", r))
		}
	}()

	if err := h.cache.Apply(cev); err != nil {
		h.report(cev, err)
		return
	}

	if h.recorder != nil {
		h.recorder.RegisterEvent(cev.Kind().String())
	}
}

func (h *Handler) report(ev cache.Event, err error) {
	if h.reporter == nil {
		h.log.Errorf("Error applying %v: %v", ev.Kind(), err)
		return
	}
	h.reporter.Report(ErrorContext{Event: ev.Kind().String()}, err)
}
