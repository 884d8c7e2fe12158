package cache

import (
	"github.com/diamondburned/arikawa/v3/discord"
)

type permissionInputs struct {
	guild      *Guild
	roles      map[discord.RoleID]*Role
	actorID    discord.UserID
	actorRoles []discord.RoleID
}

// permissionInputs collects what's needed to compute the bot's permissions in a guild.
// It returns false if we don't know who we are, or if our own member isn't cached yet.
func (c *Cache) permissionInputs(guildID discord.GuildID) (in permissionInputs, ok bool) {
	me := c.me.Load()
	if me == nil {
		return in, false
	}

	in.guild, ok = c.guilds.Get(guildID)
	if !ok {
		return in, false
	}
	in.actorID = me.ID

	if in.guild.OwnerID != me.ID {
		m, ok := c.members.Get(memberKey{guildID, me.ID})
		if !ok {
			return in, false
		}
		in.actorRoles = m.RoleIDs
	}

	in.roles = c.roleMap(guildID)
	return in, true
}

// refreshGuild recomputes the bot's guild-wide permissions and the permissions in every channel of the guild.
func (c *Cache) refreshGuild(kind Kind, guildID discord.GuildID) {
	in, ok := c.permissionInputs(guildID)
	if !ok {
		return
	}

	perms, err := GuildPermissions(in.guild, in.roles, in.actorID, in.actorRoles)
	if err != nil {
		c.fault(kind, guildID, err)
		return
	}
	c.guildPerms.Store(guildID, perms)

	for _, id := range c.guildChannels.IDs(guildID) {
		ch, ok := c.channels.Get(id)
		if !ok {
			continue
		}
		c.computeChannel(kind, in, ch)
	}
}

func (c *Cache) refreshChannel(kind Kind, ch *Channel) {
	in, ok := c.permissionInputs(ch.GuildID)
	if !ok {
		return
	}
	c.computeChannel(kind, in, ch)
}

func (c *Cache) computeChannel(kind Kind, in permissionInputs, ch *Channel) {
	// a channel can change type, so drop what was cached for its old kind
	if !ch.TextLike() {
		c.channelPerms.Delete(ch.ID)
		return
	}

	perms, err := ChannelPermissions(in.guild, in.roles, in.actorID, in.actorRoles, ch)
	if err != nil {
		c.fault(kind, ch.GuildID, err)
		return
	}
	c.channelPerms.Store(ch.ID, perms)
}

func (c *Cache) fault(kind Kind, guildID discord.GuildID, err error) {
	c.permFaults.Inc()
	c.log.Warnf("Couldn't compute permissions in guild %v after %v: %v", guildID, kind, err)

	if c.faults != nil {
		c.faults(kind, guildID, err)
	}
}

func (c *Cache) roleMap(guildID discord.GuildID) map[discord.RoleID]*Role {
	ids := c.guildRoles.IDs(guildID)
	roles := make(map[discord.RoleID]*Role, len(ids))
	for _, id := range ids {
		if r, ok := c.roles.Get(id); ok {
			roles[id] = r
		}
	}
	return roles
}
