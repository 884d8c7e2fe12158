package cache

import (
	"cmp"
	"slices"

	"emperror.dev/errors"
	"github.com/diamondburned/arikawa/v3/discord"
)

const ErrNotCached = errors.Sentinel("not found in cache")

func (c *Cache) Guild(id discord.GuildID) (*Guild, bool) {
	return c.guilds.Get(id)
}

func (c *Cache) Member(guildID discord.GuildID, userID discord.UserID) (*Member, bool) {
	return c.members.Get(memberKey{guildID, userID})
}

func (c *Cache) User(id discord.UserID) (*User, bool) {
	e, ok := c.users.Load(id)
	if !ok {
		return nil, false
	}
	return e.user, true
}

func (c *Cache) Role(id discord.RoleID) (*Role, bool) {
	return c.roles.Get(id)
}

func (c *Cache) Channel(id discord.ChannelID) (*Channel, bool) {
	return c.channels.Get(id)
}

// GuildIDs returns the IDs of all available cached guilds.
func (c *Cache) GuildIDs() []discord.GuildID {
	ids := make([]discord.GuildID, 0, c.guilds.Len())
	c.guilds.Range(func(id discord.GuildID, _ *Guild) bool {
		ids = append(ids, id)
		return true
	})
	return ids
}

// GuildRoles returns the guild's roles, sorted from lowest to highest position.
func (c *Cache) GuildRoles(guildID discord.GuildID) []*Role {
	ids := c.guildRoles.IDs(guildID)
	roles := make([]*Role, 0, len(ids))
	for _, id := range ids {
		if r, ok := c.roles.Get(id); ok {
			roles = append(roles, r)
		}
	}

	slices.SortFunc(roles, func(a, b *Role) int {
		if a.Position != b.Position {
			return cmp.Compare(a.Position, b.Position)
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return roles
}

func (c *Cache) GuildRoleIDs(guildID discord.GuildID) []discord.RoleID {
	return c.guildRoles.IDs(guildID)
}

func (c *Cache) GuildChannelIDs(guildID discord.GuildID) []discord.ChannelID {
	return c.guildChannels.IDs(guildID)
}

func (c *Cache) GuildMemberIDs(guildID discord.GuildID) []discord.UserID {
	return c.guildMembers.IDs(guildID)
}

// GuildPermissions returns the bot's last computed permissions in the guild.
func (c *Cache) GuildPermissions(guildID discord.GuildID) (discord.Permissions, bool) {
	return c.guildPerms.Load(guildID)
}

// ChannelPermissions returns the bot's last computed permissions in the channel.
func (c *Cache) ChannelPermissions(channelID discord.ChannelID) (discord.Permissions, bool) {
	return c.channelPerms.Load(channelID)
}

// MemberPermissions computes the guild-wide permissions of any cached member.
func (c *Cache) MemberPermissions(guildID discord.GuildID, userID discord.UserID) (discord.Permissions, error) {
	g, ok := c.guilds.Get(guildID)
	if !ok {
		return 0, errors.Wrapf(ErrNotCached, "guild %v", guildID)
	}

	var roles []discord.RoleID
	if g.OwnerID != userID {
		m, ok := c.members.Get(memberKey{guildID, userID})
		if !ok {
			return 0, errors.Wrapf(ErrNotCached, "member %v in guild %v", userID, guildID)
		}
		roles = m.RoleIDs
	}

	return GuildPermissions(g, c.roleMap(guildID), userID, roles)
}

// MemberChannelPermissions computes the permissions of any cached member in a text channel.
func (c *Cache) MemberChannelPermissions(channelID discord.ChannelID, userID discord.UserID) (discord.Permissions, error) {
	ch, ok := c.channels.Get(channelID)
	if !ok {
		return 0, errors.Wrapf(ErrNotCached, "channel %v", channelID)
	}

	g, ok := c.guilds.Get(ch.GuildID)
	if !ok {
		return 0, errors.Wrapf(ErrNotCached, "guild %v", ch.GuildID)
	}

	var roles []discord.RoleID
	if g.OwnerID != userID {
		m, ok := c.members.Get(memberKey{ch.GuildID, userID})
		if !ok {
			return 0, errors.Wrapf(ErrNotCached, "member %v in guild %v", userID, ch.GuildID)
		}
		roles = m.RoleIDs
	}

	return ChannelPermissions(g, c.roleMap(ch.GuildID), userID, roles, ch)
}

// CurrentUser returns the bot user, once a Ready event has been applied.
func (c *Cache) CurrentUser() (*User, bool) {
	u := c.me.Load()
	return u, u != nil
}

func (c *Cache) IsUnavailable(guildID discord.GuildID) bool {
	_, ok := c.unavailable.Load(guildID)
	return ok
}

// MemberCount returns the live member count of the guild.
func (c *Cache) MemberCount(guildID discord.GuildID) (int64, bool) {
	g, ok := c.guilds.Get(guildID)
	if !ok {
		return 0, false
	}
	return g.MemberCount(), true
}

// CacheMember stores a member fetched outside the gateway.
// It returns false if the member's guild isn't cached.
func (c *Cache) CacheMember(guildID discord.GuildID, m discord.Member) (*Member, bool) {
	res, h, changed := c.storeMember(guildID, m)
	if res == SkippedNoParent {
		return nil, false
	}

	if changed && c.isMe(m.User.ID) {
		c.refreshGuild(KindMemberUpdate, guildID)
	}
	return h, true
}

func (c *Cache) CacheRole(guildID discord.GuildID, r discord.Role) *Role {
	c.roleUpsert(KindRoleUpdate, guildID, r)
	h, _ := c.roles.Get(r.ID)
	return h
}

func (c *Cache) CacheChannel(ch discord.Channel) *Channel {
	c.channelUpsert(KindChannelUpdate, ch)
	h, _ := c.channels.Get(ch.ID)
	return h
}

// CacheUser updates a user that is already cached. Users are only added through their members.
func (c *Cache) CacheUser(u discord.User) (*User, bool) {
	h := c.updateUser(u)
	return h, h != nil
}

// Stats is a snapshot of the cache's size.
type Stats struct {
	Guilds           int   `json:"guilds"`
	Unavailable      int   `json:"unavailable"`
	Channels         int   `json:"channels"`
	Roles            int   `json:"roles"`
	Members          int   `json:"members"`
	Users            int   `json:"users"`
	IndexSkips       int64 `json:"index_skips"`
	PermissionFaults int64 `json:"permission_faults"`
}

func (c *Cache) Stats() Stats {
	return Stats{
		Guilds:           c.guilds.Len(),
		Unavailable:      c.unavailable.Size(),
		Channels:         c.channels.Len(),
		Roles:            c.roles.Len(),
		Members:          c.members.Len(),
		Users:            c.users.Size(),
		IndexSkips:       c.guildChannels.Skipped() + c.guildRoles.Skipped() + c.guildMembers.Skipped(),
		PermissionFaults: c.permFaults.Value(),
	}
}
