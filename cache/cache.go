// Package cache is an in-memory mirror of the guilds, channels, roles, members and users a bot can see,
// kept up to date by gateway events, with the bot's own permissions precomputed per guild and channel.
package cache

import (
	"strings"
	"sync/atomic"
	"time"

	"emperror.dev/errors"
	"github.com/ReneKroon/ttlcache/v2"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/starshine-sys/guildcache/common/log"
)

const (
	ErrCache        = errors.Sentinel("cache update failed")
	ErrUnknownEvent = errors.Sentinel("unknown event type")
)

const (
	defaultRemovalWindow = 10 * time.Minute
	defaultFetchMissTTL  = time.Minute
)

// Counters receives resource count deltas.
type Counters interface {
	AddGuilds(delta int64)
	AddUsers(delta int64)
}

// NoopCounters discards every delta.
type NoopCounters struct{}

func (NoopCounters) AddGuilds(int64) {}
func (NoopCounters) AddUsers(int64)  {}

// FaultHandler is called when the bot's permissions can't be computed because cached data is inconsistent.
type FaultHandler func(kind Kind, guildID discord.GuildID, err error)

// ReservedNames are the channel and role names the cache links on the guild.
// Matching is case-insensitive; empty names never match.
type ReservedNames struct {
	LogChannel         string `toml:"log_channel"`
	BypassRole         string `toml:"bypass_role"`
	NicknameBypassRole string `toml:"nickname_bypass_role"`
	AdminRole          string `toml:"admin_role"`
	TrainerRole        string `toml:"trainer_role"`
}

// DefaultReservedNames ...
var DefaultReservedNames = ReservedNames{
	LogChannel:         "bot-logs",
	BypassRole:         "Filter Bypass",
	NicknameBypassRole: "Nickname Bypass",
	AdminRole:          "Bot Admin",
	TrainerRole:        "Bot Trainer",
}

func nameMatches(name, reserved string) bool {
	return reserved != "" && strings.EqualFold(name, reserved)
}

// Options configure a Cache. The zero value is valid.
type Options struct {
	Logger   *zap.SugaredLogger
	Counters Counters
	Faults   FaultHandler
	Reserved *ReservedNames

	// RemovalWindow is how long a member removal is remembered, so redelivered removals aren't counted twice.
	RemovalWindow time.Duration
	// FetchMissTTL is how long a failed member fetch is cached.
	FetchMissTTL time.Duration
}

type userEntry struct {
	user   *User
	guilds map[discord.GuildID]struct{}
}

type unavailableGuild struct {
	memberCount int64
	counted     bool
}

// Cache is safe for concurrent use.
type Cache struct {
	log      *zap.SugaredLogger
	counters Counters
	faults   FaultHandler
	reserved ReservedNames

	guilds   *entityStore[discord.GuildID, Guild]
	channels *entityStore[discord.ChannelID, Channel]
	roles    *entityStore[discord.RoleID, Role]
	members  *entityStore[memberKey, Member]
	users    *xsync.MapOf[discord.UserID, *userEntry]

	guildChannels *guildIndex[discord.ChannelID]
	guildRoles    *guildIndex[discord.RoleID]
	guildMembers  *guildIndex[discord.UserID]
	unavailable   *xsync.MapOf[discord.GuildID, unavailableGuild]

	guildPerms   *xsync.MapOf[discord.GuildID, discord.Permissions]
	channelPerms *xsync.MapOf[discord.ChannelID, discord.Permissions]

	me atomic.Pointer[User]

	removals    *ttlcache.Cache
	fetchMisses *ttlcache.Cache
	fetches     singleflight.Group

	permFaults *xsync.Counter
}

// New returns an empty cache. Close must be called to stop its expiry goroutines.
func New(opts Options) *Cache {
	c := &Cache{
		log:      opts.Logger,
		counters: opts.Counters,
		faults:   opts.Faults,
		reserved: DefaultReservedNames,

		guilds:   newEntityStore[discord.GuildID, Guild](),
		channels: newEntityStore[discord.ChannelID, Channel](),
		roles:    newEntityStore[discord.RoleID, Role](),
		members:  newEntityStore[memberKey, Member](),
		users:    xsync.NewMapOf[discord.UserID, *userEntry](),

		guildChannels: newGuildIndex[discord.ChannelID](),
		guildRoles:    newGuildIndex[discord.RoleID](),
		guildMembers:  newGuildIndex[discord.UserID](),
		unavailable:   xsync.NewMapOf[discord.GuildID, unavailableGuild](),

		guildPerms:   xsync.NewMapOf[discord.GuildID, discord.Permissions](),
		channelPerms: xsync.NewMapOf[discord.ChannelID, discord.Permissions](),

		removals:    ttlcache.NewCache(),
		fetchMisses: ttlcache.NewCache(),

		permFaults: xsync.NewCounter(),
	}

	if c.log == nil {
		c.log = log.Named("cache")
	}
	if c.counters == nil {
		c.counters = NoopCounters{}
	}
	if opts.Reserved != nil {
		c.reserved = *opts.Reserved
	}

	window := opts.RemovalWindow
	if window <= 0 {
		window = defaultRemovalWindow
	}
	_ = c.removals.SetTTL(window)

	missTTL := opts.FetchMissTTL
	if missTTL <= 0 {
		missTTL = defaultFetchMissTTL
	}
	_ = c.fetchMisses.SetTTL(missTTL)
	c.fetchMisses.SkipTTLExtensionOnHit(true)

	return c
}

// Close stops the cache's expiry goroutines. The cache stays readable.
func (c *Cache) Close() error {
	return errors.Combine(c.removals.Close(), c.fetchMisses.Close())
}

// Apply applies a single event to the cache.
func (c *Cache) Apply(ev Event) error {
	switch ev := ev.(type) {
	case ChannelCreate:
		c.channelUpsert(ev.Kind(), ev.Channel)
	case ChannelUpdate:
		c.channelUpsert(ev.Kind(), ev.Channel)
	case ChannelDelete:
		c.channelDelete(ev.Channel)
	case GuildCreate:
		c.guildCreate(ev)
	case GuildUpdate:
		c.guildUpdate(ev)
	case GuildDelete:
		c.guildDelete(ev.GuildID)
	case UnavailableGuild:
		c.guildUnavailable(ev.GuildID)
	case MemberAdd:
		c.memberAdd(ev.GuildID, ev.Member)
	case MemberRemove:
		c.memberRemove(ev.GuildID, ev.User.ID)
	case MemberUpdate:
		c.memberUpdate(ev)
	case MemberChunk:
		c.memberChunk(ev)
	case RoleCreate:
		c.roleUpsert(ev.Kind(), ev.GuildID, ev.Role)
	case RoleUpdate:
		c.roleUpsert(ev.Kind(), ev.GuildID, ev.Role)
	case RoleDelete:
		c.roleDelete(ev.GuildID, ev.RoleID)
	case Ready:
		c.ready(ev)
	case UserUpdate:
		c.userUpdate(ev.User)
	default:
		return errors.Combine(ErrCache, errors.Wrapf(ErrUnknownEvent, "%T", ev))
	}
	return nil
}
