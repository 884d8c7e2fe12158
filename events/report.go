package events

import (
	"time"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/starshine-sys/guildcache/cache"
	"github.com/starshine-sys/guildcache/common/log"
)

// ErrorContext is the context for an error
type ErrorContext struct {
	Event   string
	GuildID discord.GuildID
}

// Reporter sends errors to Sentry, if it's enabled.
type Reporter struct {
	hub *sentry.Hub
	log *zap.SugaredLogger
}

// NewReporter returns a Reporter. If useSentry is false, errors are only logged.
// sentry.Init must have been called before.
func NewReporter(useSentry bool) *Reporter {
	r := &Reporter{log: log.Named("report")}
	if useSentry {
		r.hub = sentry.CurrentHub()
	}
	return r
}

// Report reports an error and returns its ID.
// Without Sentry, the ID is a random UUID that only appears in the logs.
func (r *Reporter) Report(ctx ErrorContext, err error) string {
	var id string
	if r.hub != nil {
		id = r.capture(ctx, err)
	}
	if id == "" {
		id = uuid.New().String()
	}

	r.log.Errorw("Error handling event", "event", ctx.Event, "guild", ctx.GuildID, "error_id", id, "error", err)
	return id
}

func (r *Reporter) capture(ctx ErrorContext, err error) string {
	hub := r.hub.Clone()

	data := map[string]interface{}{}
	if ctx.Event != "" {
		data["event"] = ctx.Event
	}
	if ctx.GuildID.IsValid() {
		data["guild"] = ctx.GuildID.String()
	}

	hub.ConfigureScope(func(scope *sentry.Scope) {
		if ctx.Event != "" {
			scope.SetTag("event", ctx.Event)
		}
	})

	hub.AddBreadcrumb(&sentry.Breadcrumb{
		Data:      data,
		Level:     sentry.LevelError,
		Timestamp: time.Now().UTC(),
	}, nil)

	if id := hub.CaptureException(err); id != nil {
		return string(*id)
	}
	return ""
}

// Fault reports a permission fault from the cache. It can be passed as cache.Options.Faults.
func (r *Reporter) Fault(kind cache.Kind, guildID discord.GuildID, err error) {
	r.Report(ErrorContext{Event: kind.String(), GuildID: guildID}, err)
}
