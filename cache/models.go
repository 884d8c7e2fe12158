package cache

import (
	"slices"
	"sync/atomic"
	"time"

	"github.com/diamondburned/arikawa/v3/discord"
)

// Channel types that carry permission overwrites in this cache.
// Announcement channels are compared by value so older and newer arikawa names both work.
const (
	textChannel         = discord.GuildText
	announcementChannel = discord.ChannelType(5)
)

// Guild is a cached guild.
// Handles are immutable snapshots, except for the member counter,
// which is shared by every snapshot of the same guild.
type Guild struct {
	ID              discord.GuildID
	Name            string
	Description     string
	Icon            string
	OwnerID         discord.UserID
	Permissions     discord.Permissions
	PreferredLocale string
	Joined          time.Time
	Unavailable     bool

	LogChannel         discord.ChannelID
	BypassRole         discord.RoleID
	NicknameBypassRole discord.RoleID
	AdminRole          discord.RoleID
	TrainerRole        discord.RoleID

	memberCount *atomic.Int64
}

func newGuild(g discord.Guild, joined time.Time) Guild {
	return Guild{
		ID:              g.ID,
		Name:            g.Name,
		Description:     string(g.Description),
		Icon:            string(g.Icon),
		OwnerID:         g.OwnerID,
		Permissions:     g.Permissions,
		PreferredLocale: string(g.PreferredLocale),
		Joined:          joined,
		memberCount:     new(atomic.Int64),
	}
}

// MemberCount returns the live member count of the guild.
func (g Guild) MemberCount() int64 {
	if g.memberCount == nil {
		return 0
	}
	return g.memberCount.Load()
}

// Equal compares every field except the live member counter.
func (g Guild) Equal(o Guild) bool {
	return g.ID == o.ID &&
		g.Name == o.Name &&
		g.Description == o.Description &&
		g.Icon == o.Icon &&
		g.OwnerID == o.OwnerID &&
		g.Permissions == o.Permissions &&
		g.PreferredLocale == o.PreferredLocale &&
		g.Joined.Equal(o.Joined) &&
		g.Unavailable == o.Unavailable &&
		g.LogChannel == o.LogChannel &&
		g.BypassRole == o.BypassRole &&
		g.NicknameBypassRole == o.NicknameBypassRole &&
		g.AdminRole == o.AdminRole &&
		g.TrainerRole == o.TrainerRole
}

// User is a cached user. Users are global and shared between guilds.
type User struct {
	ID            discord.UserID
	Username      string
	Discriminator string
	Avatar        string
	Bot           bool
}

func newUser(u discord.User) User {
	return User{
		ID:            u.ID,
		Username:      u.Username,
		Discriminator: u.Discriminator,
		Avatar:        string(u.Avatar),
		Bot:           u.Bot,
	}
}

func (u User) Equal(o User) bool { return u == o }

// Member is a cached guild member.
type Member struct {
	GuildID discord.GuildID
	User    *User
	Nick    string
	RoleIDs []discord.RoleID
	Pending bool
	Joined  time.Time
}

func newMember(guildID discord.GuildID, m discord.Member, u *User) Member {
	return Member{
		GuildID: guildID,
		User:    u,
		Nick:    m.Nick,
		RoleIDs: slices.Clone(m.RoleIDs),
		Pending: m.IsPending,
		Joined:  m.Joined.Time(),
	}
}

// UserID returns the member's user ID.
func (m Member) UserID() discord.UserID {
	if m.User == nil {
		return 0
	}
	return m.User.ID
}

// HasRole returns true if the member has the given role.
func (m Member) HasRole(id discord.RoleID) bool {
	return slices.Contains(m.RoleIDs, id)
}

// Equal compares members by value, including the user they point to.
func (m Member) Equal(o Member) bool {
	if (m.User == nil) != (o.User == nil) {
		return false
	}
	if m.User != nil && *m.User != *o.User {
		return false
	}

	return m.GuildID == o.GuildID &&
		m.Nick == o.Nick &&
		m.Pending == o.Pending &&
		m.Joined.Equal(o.Joined) &&
		slices.Equal(m.RoleIDs, o.RoleIDs)
}

type memberKey struct {
	GuildID discord.GuildID
	UserID  discord.UserID
}

func (k memberKey) String() string {
	return k.GuildID.String() + ":" + k.UserID.String()
}

// Role is a cached role.
type Role struct {
	ID          discord.RoleID
	GuildID     discord.GuildID
	Name        string
	Position    int
	Permissions discord.Permissions
	Managed     bool
}

func newRole(guildID discord.GuildID, r discord.Role) Role {
	return Role{
		ID:          r.ID,
		GuildID:     guildID,
		Name:        r.Name,
		Position:    r.Position,
		Permissions: r.Permissions,
		Managed:     r.Managed,
	}
}

func (r Role) Equal(o Role) bool { return r == o }

// IsEveryone returns true if this is the guild's @everyone role.
func (r Role) IsEveryone() bool {
	return discord.GuildID(r.ID) == r.GuildID
}

// Channel is a cached guild channel.
type Channel struct {
	ID         discord.ChannelID
	GuildID    discord.GuildID
	Type       discord.ChannelType
	Name       string
	Position   int
	ParentID   discord.ChannelID
	Overwrites []discord.Overwrite
}

func newChannel(ch discord.Channel) Channel {
	return Channel{
		ID:         ch.ID,
		GuildID:    ch.GuildID,
		Type:       ch.Type,
		Name:       ch.Name,
		Position:   ch.Position,
		ParentID:   ch.ParentID,
		Overwrites: slices.Clone(ch.Overwrites),
	}
}

// TextLike returns true for channel kinds whose overwrites are resolved by ChannelPermissions.
func (ch Channel) TextLike() bool {
	return ch.Type == textChannel || ch.Type == announcementChannel
}

func (ch Channel) Equal(o Channel) bool {
	return ch.ID == o.ID &&
		ch.GuildID == o.GuildID &&
		ch.Type == o.Type &&
		ch.Name == o.Name &&
		ch.Position == o.Position &&
		ch.ParentID == o.ParentID &&
		slices.Equal(ch.Overwrites, o.Overwrites)
}
