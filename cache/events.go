package cache

import (
	"time"

	"github.com/diamondburned/arikawa/v3/discord"
)

// Kind identifies an event type.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindChannelCreate
	KindChannelUpdate
	KindChannelDelete
	KindGuildCreate
	KindGuildUpdate
	KindGuildDelete
	KindUnavailableGuild
	KindMemberAdd
	KindMemberRemove
	KindMemberUpdate
	KindMemberChunk
	KindRoleCreate
	KindRoleUpdate
	KindRoleDelete
	KindReady
	KindUserUpdate
)

var kindNames = [...]string{
	KindUnknown:          "Unknown",
	KindChannelCreate:    "ChannelCreate",
	KindChannelUpdate:    "ChannelUpdate",
	KindChannelDelete:    "ChannelDelete",
	KindGuildCreate:      "GuildCreate",
	KindGuildUpdate:      "GuildUpdate",
	KindGuildDelete:      "GuildDelete",
	KindUnavailableGuild: "UnavailableGuild",
	KindMemberAdd:        "MemberAdd",
	KindMemberRemove:     "MemberRemove",
	KindMemberUpdate:     "MemberUpdate",
	KindMemberChunk:      "MemberChunk",
	KindRoleCreate:       "RoleCreate",
	KindRoleUpdate:       "RoleUpdate",
	KindRoleDelete:       "RoleDelete",
	KindReady:            "Ready",
	KindUserUpdate:       "UserUpdate",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return kindNames[KindUnknown]
}

// Event is a cache update. The set of events is closed; see Cache.Apply.
type Event interface {
	Kind() Kind
	cacheEvent()
}

type ChannelCreate struct {
	Channel discord.Channel
}

type ChannelUpdate struct {
	Channel discord.Channel
}

type ChannelDelete struct {
	Channel discord.Channel
}

// GuildCreate is sent when the bot joins a guild, or when a guild becomes available.
type GuildCreate struct {
	Guild       discord.Guild
	Joined      time.Time
	MemberCount int64
	Channels    []discord.Channel
	Members     []discord.Member
}

type GuildUpdate struct {
	Guild discord.Guild
}

// GuildDelete is sent when the bot leaves or is removed from a guild.
type GuildDelete struct {
	GuildID discord.GuildID
}

// UnavailableGuild is sent when a guild goes offline.
// Its children are kept until it comes back or is deleted.
type UnavailableGuild struct {
	GuildID discord.GuildID
}

type MemberAdd struct {
	GuildID discord.GuildID
	Member  discord.Member
}

type MemberRemove struct {
	GuildID discord.GuildID
	User    discord.User
}

type MemberUpdate struct {
	GuildID discord.GuildID
	User    discord.User
	Nick    string
	RoleIDs []discord.RoleID
	Pending bool
}

type MemberChunk struct {
	GuildID discord.GuildID
	Members []discord.Member
}

type RoleCreate struct {
	GuildID discord.GuildID
	Role    discord.Role
}

type RoleUpdate struct {
	GuildID discord.GuildID
	Role    discord.Role
}

type RoleDelete struct {
	GuildID discord.GuildID
	RoleID  discord.RoleID
}

// Ready is sent once per shard session.
// Guilds that were available at connect time are in Guilds, the rest in Unavailable.
type Ready struct {
	User        discord.User
	Guilds      []GuildCreate
	Unavailable []discord.GuildID
}

type UserUpdate struct {
	User discord.User
}

func (ChannelCreate) Kind() Kind    { return KindChannelCreate }
func (ChannelUpdate) Kind() Kind    { return KindChannelUpdate }
func (ChannelDelete) Kind() Kind    { return KindChannelDelete }
func (GuildCreate) Kind() Kind      { return KindGuildCreate }
func (GuildUpdate) Kind() Kind      { return KindGuildUpdate }
func (GuildDelete) Kind() Kind      { return KindGuildDelete }
func (UnavailableGuild) Kind() Kind { return KindUnavailableGuild }
func (MemberAdd) Kind() Kind        { return KindMemberAdd }
func (MemberRemove) Kind() Kind     { return KindMemberRemove }
func (MemberUpdate) Kind() Kind     { return KindMemberUpdate }
func (MemberChunk) Kind() Kind      { return KindMemberChunk }
func (RoleCreate) Kind() Kind       { return KindRoleCreate }
func (RoleUpdate) Kind() Kind       { return KindRoleUpdate }
func (RoleDelete) Kind() Kind       { return KindRoleDelete }
func (Ready) Kind() Kind            { return KindReady }
func (UserUpdate) Kind() Kind       { return KindUserUpdate }

func (ChannelCreate) cacheEvent()    {}
func (ChannelUpdate) cacheEvent()    {}
func (ChannelDelete) cacheEvent()    {}
func (GuildCreate) cacheEvent()      {}
func (GuildUpdate) cacheEvent()      {}
func (GuildDelete) cacheEvent()      {}
func (UnavailableGuild) cacheEvent() {}
func (MemberAdd) cacheEvent()        {}
func (MemberRemove) cacheEvent()     {}
func (MemberUpdate) cacheEvent()     {}
func (MemberChunk) cacheEvent()      {}
func (RoleCreate) cacheEvent()       {}
func (RoleUpdate) cacheEvent()       {}
func (RoleDelete) cacheEvent()       {}
func (Ready) cacheEvent()            {}
func (UserUpdate) cacheEvent()       {}
