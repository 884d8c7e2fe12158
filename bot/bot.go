package bot

import (
	"context"

	"emperror.dev/errors"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/gateway"
	"github.com/diamondburned/arikawa/v3/session/shard"
	"github.com/diamondburned/arikawa/v3/state"
	arikawastore "github.com/diamondburned/arikawa/v3/state/store"
	"github.com/diamondburned/arikawa/v3/utils/ws"
	"golang.org/x/sync/errgroup"

	"github.com/starshine-sys/guildcache/cache"
	"github.com/starshine-sys/guildcache/common/log"
	"github.com/starshine-sys/guildcache/events"
	"github.com/starshine-sys/guildcache/stats"
	"github.com/starshine-sys/guildcache/web/server"
)

const Intents = gateway.IntentGuilds | gateway.IntentGuildMembers

type Bot struct {
	Config Config

	Manager  *shard.Manager
	Cache    *cache.Cache
	Handler  *events.Handler
	Reporter *events.Reporter

	sinks  stats.Multi
	influx *stats.Influx
	redis  *stats.Redis
	prom   *stats.Prometheus
	server *server.Server
}

// New creates a new Bot. Sentry must already be set up if a DSN is configured.
func New(ctx context.Context, c Config) (*Bot, error) {
	// set up debug logging
	ws.WSDebug = log.Debug
	ws.WSError = func(err error) {
		log.SugaredLogger.Error("ws error: ", err)
	}

	// set up the shard manager; every store is ours, so arikawa's are disabled
	mgr, err := shard.NewManager("Bot "+c.Auth.Discord, state.NewShardFunc(func(m *shard.Manager, s *state.State) {
		s.AddIntents(Intents)

		s.Cabinet.ChannelStore = arikawastore.Noop
		s.Cabinet.GuildStore = arikawastore.Noop
		s.Cabinet.MemberStore = arikawastore.Noop
		s.Cabinet.MessageStore = arikawastore.Noop
		s.Cabinet.PresenceStore = arikawastore.Noop
		s.Cabinet.RoleStore = arikawastore.Noop
	}))
	if err != nil {
		return nil, errors.Wrap(err, "creating shard manager")
	}

	bot := &Bot{
		Config:   c,
		Manager:  mgr,
		Reporter: events.NewReporter(c.Auth.Sentry != ""),
	}

	if err := bot.setupStats(ctx); err != nil {
		return nil, err
	}

	bot.Cache = cache.New(cache.Options{
		Logger:        log.Named("cache"),
		Counters:      bot.sinks,
		Faults:        bot.Reporter.Fault,
		Reserved:      &c.Cache.ReservedNames,
		RemovalWindow: c.Cache.RemovalWindow.Duration(),
		FetchMissTTL:  c.Cache.FetchMissTTL.Duration(),
	})
	bot.Handler = events.NewHandler(bot.Cache, bot.sinks, bot.Reporter)

	// events from a single shard must be applied in order
	mgr.ForEach(func(s shard.Shard) {
		s.(*state.State).AddSyncHandler(bot.Handler.Handle)
	})

	if c.Server.Listen != "" {
		opts := server.Options{}
		if bot.prom != nil {
			bot.prom.Observe(bot.Cache)
			opts.Metrics = bot.prom.Handler()
		}
		if bot.redis != nil {
			opts.Totals = bot.redis.Totals
		}
		bot.server = server.New(bot.Cache, opts)
	}

	return bot, nil
}

func (bot *Bot) setupStats(ctx context.Context) error {
	c := bot.Config

	if c.Auth.Influx.URL != "" {
		log.Debug("setting up InfluxDB")
		bot.influx = stats.NewInflux(c.Auth.Influx.URL, c.Auth.Influx.Token, c.Auth.Influx.Organization, c.Auth.Influx.Database)
		bot.sinks = append(bot.sinks, bot.influx)
	}

	if c.Auth.Redis != "" {
		log.Debug("setting up Redis")
		r, err := stats.NewRedis(ctx, c.Auth.Redis, c.Stats.RedisPrefix)
		if err != nil {
			return errors.Wrap(err, "creating redis client")
		}
		bot.redis = r
		bot.sinks = append(bot.sinks, r)
	}

	if c.Server.Prometheus {
		bot.prom = stats.NewPrometheus(nil)
		bot.sinks = append(bot.sinks, bot.prom)
	}

	return nil
}

// Run opens the gateway connection and blocks until ctx is cancelled or the API server fails.
func (bot *Bot) Run(ctx context.Context) error {
	interval := bot.Config.Stats.Interval.Duration()

	var loops []func(context.Context) error
	if bot.influx != nil {
		loops = append(loops, func(ctx context.Context) error {
			bot.influx.Run(ctx, interval)
			return nil
		})
	}
	if bot.redis != nil {
		loops = append(loops, func(ctx context.Context) error {
			bot.redis.Run(ctx, interval)
			return nil
		})
	}
	if bot.server != nil {
		loops = append(loops, func(ctx context.Context) error {
			return bot.server.Run(ctx, bot.Config.Server.Listen)
		})
	}

	return run(ctx, bot.Manager.Open, loops...)
}

// run starts loops, then calls open. Every loop has returned by the time run does.
func run(ctx context.Context, open func(context.Context) error, loops ...func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	for _, loop := range loops {
		loop := loop
		g.Go(func() error { return loop(ctx) })
	}

	log.Debug("opening gateway connection")
	if err := open(ctx); err != nil {
		cancel()
		return errors.Append(errors.Wrap(err, "opening gateway connection"), g.Wait())
	}

	<-ctx.Done()
	return g.Wait()
}

// Close closes the gateway connection and releases the cache.
func (bot *Bot) Close(ctx context.Context) error {
	err := errors.Wrap(bot.Manager.Close(), "closing gateway connection")

	if bot.redis != nil {
		err = errors.Append(err, bot.redis.Close(ctx))
	}
	return errors.Append(err, bot.Cache.Close())
}

func (bot *Bot) StateFromGuildID(guildID discord.GuildID) (s *state.State, id int) {
	sh, id := bot.Manager.FromGuildID(guildID)
	return sh.(*state.State), id
}

// Member returns a member from the cache, fetching it from the API if it isn't cached.
func (bot *Bot) Member(ctx context.Context, guildID discord.GuildID, userID discord.UserID) (*cache.Member, error) {
	s, _ := bot.StateFromGuildID(guildID)
	return bot.Cache.MemberOrFetch(ctx, s, guildID, userID)
}
