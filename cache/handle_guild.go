package cache

import (
	"github.com/diamondburned/arikawa/v3/discord"
)

func (c *Cache) guildCreate(ev GuildCreate) {
	id := ev.Guild.ID

	var oldCount int64
	old, wasCached := c.guilds.Get(id)
	if wasCached {
		oldCount = old.MemberCount()
	}
	prev, wasUnavailable := c.unavailable.LoadAndDelete(id)

	c.guildRoles.Ensure(id)
	c.guildChannels.Ensure(id)
	c.guildMembers.Ensure(id)

	g := newGuild(ev.Guild, ev.Joined)

	roles := make(map[discord.RoleID]struct{}, len(ev.Guild.Roles))
	for _, r := range ev.Guild.Roles {
		roles[r.ID] = struct{}{}
		c.storeRole(id, r)
		c.linkRole(&g, r.ID, r.Name)
	}

	channels := make(map[discord.ChannelID]struct{}, len(ev.Channels))
	for _, ch := range ev.Channels {
		ch.GuildID = id
		channels[ch.ID] = struct{}{}
		c.storeChannel(ch)
		c.linkChannel(&g, ch.ID, ch.Name)
	}

	// a returning guild may have lost roles and channels while it was away
	if wasCached || wasUnavailable {
		c.pruneGuild(id, roles, channels)
	}

	members := make(map[discord.UserID]struct{}, len(ev.Members))
	for _, m := range ev.Members {
		members[m.User.ID] = struct{}{}
		c.storeMember(id, m)
	}
	if wasCached || wasUnavailable {
		c.pruneMembers(id, members)
	}

	h, _ := c.guilds.Upsert(id, g)
	h.memberCount.Store(ev.MemberCount)

	switch {
	case wasCached:
		c.addUsers(ev.MemberCount - oldCount)
	case wasUnavailable && prev.counted:
		c.addUsers(ev.MemberCount - prev.memberCount)
	default:
		c.counters.AddGuilds(1)
		c.addUsers(ev.MemberCount)
	}

	c.refreshGuild(KindGuildCreate, id)
}

// pruneGuild removes roles and channels of a guild that aren't in the given sets.
func (c *Cache) pruneGuild(guildID discord.GuildID, roles map[discord.RoleID]struct{}, channels map[discord.ChannelID]struct{}) {
	for _, id := range c.guildRoles.IDs(guildID) {
		if _, ok := roles[id]; !ok {
			c.roles.Remove(id)
			c.guildRoles.Remove(guildID, id)
		}
	}

	for _, id := range c.guildChannels.IDs(guildID) {
		if _, ok := channels[id]; !ok {
			c.channels.Remove(id)
			c.guildChannels.Remove(guildID, id)
			c.channelPerms.Delete(id)
		}
	}
}

// pruneMembers removes cached members of a guild that aren't in keep. Our own member is always kept.
// The member count comes from the event, so it isn't touched.
func (c *Cache) pruneMembers(guildID discord.GuildID, keep map[discord.UserID]struct{}) {
	c.guildMembers.update(guildID, func(ids map[discord.UserID]struct{}) {
		for userID := range ids {
			if _, ok := keep[userID]; ok || c.isMe(userID) {
				continue
			}

			delete(ids, userID)
			c.members.Remove(memberKey{guildID, userID})
			c.releaseUser(userID, guildID)
		}
	})
}

func (c *Cache) guildUpdate(ev GuildUpdate) {
	old, ok := c.guilds.Get(ev.Guild.ID)
	if !ok {
		return
	}

	_, changed := c.patchGuild(ev.Guild.ID, func(g *Guild) {
		g.Name = ev.Guild.Name
		g.Description = string(ev.Guild.Description)
		g.Icon = string(ev.Guild.Icon)
		g.OwnerID = ev.Guild.OwnerID
		g.Permissions = ev.Guild.Permissions
		g.PreferredLocale = string(ev.Guild.PreferredLocale)
	})

	if changed && old.OwnerID != ev.Guild.OwnerID {
		c.refreshGuild(KindGuildUpdate, ev.Guild.ID)
	}
}

func (c *Cache) guildDelete(id discord.GuildID) {
	g, wasCached := c.guilds.Remove(id)
	prev, wasUnavailable := c.unavailable.LoadAndDelete(id)

	c.guildRoles.Drain(id, func(r discord.RoleID) {
		c.roles.Remove(r)
	})
	c.guildChannels.Drain(id, func(ch discord.ChannelID) {
		c.channels.Remove(ch)
		c.channelPerms.Delete(ch)
	})
	c.guildMembers.Drain(id, func(u discord.UserID) {
		c.members.Remove(memberKey{id, u})
		c.releaseUser(u, id)
	})
	c.guildPerms.Delete(id)

	switch {
	case wasCached:
		c.counters.AddGuilds(-1)
		c.addUsers(-g.MemberCount())
	case wasUnavailable && prev.counted:
		c.counters.AddGuilds(-1)
		c.addUsers(-prev.memberCount)
	}
}

func (c *Cache) guildUnavailable(id discord.GuildID) {
	g, wasCached := c.guilds.Remove(id)

	c.unavailable.Compute(id, func(old unavailableGuild, loaded bool) (unavailableGuild, bool) {
		if wasCached {
			return unavailableGuild{memberCount: g.MemberCount(), counted: true}, false
		}
		if loaded {
			return old, false
		}
		return unavailableGuild{}, false
	})

	c.guildPerms.Delete(id)
}

// patchGuild applies fn to the cached guild, storing a new snapshot only if fn changed anything.
func (c *Cache) patchGuild(id discord.GuildID, fn func(*Guild)) (*Guild, bool) {
	g, ok := c.guilds.Get(id)
	if !ok {
		return nil, false
	}

	next := *g
	fn(&next)
	if next.Equal(*g) {
		return g, false
	}

	return c.guilds.Mutate(id, fn)
}

func (c *Cache) addUsers(delta int64) {
	if delta != 0 {
		c.counters.AddUsers(delta)
	}
}

// linkRole points the guild's reserved role links at id if name matches,
// and clears links to id that no longer match. A cleared link moves to another cached role with the reserved name.
func (c *Cache) linkRole(g *Guild, id discord.RoleID, name string) {
	link := func(field *discord.RoleID, reserved string) {
		switch {
		case nameMatches(name, reserved):
			if !field.IsValid() {
				*field = id
			}
		case *field == id:
			*field = c.findRole(g.ID, id, reserved)
		}
	}

	link(&g.BypassRole, c.reserved.BypassRole)
	link(&g.NicknameBypassRole, c.reserved.NicknameBypassRole)
	link(&g.AdminRole, c.reserved.AdminRole)
	link(&g.TrainerRole, c.reserved.TrainerRole)
}

func (c *Cache) linkChannel(g *Guild, id discord.ChannelID, name string) {
	switch {
	case nameMatches(name, c.reserved.LogChannel):
		if !g.LogChannel.IsValid() {
			g.LogChannel = id
		}
	case g.LogChannel == id:
		g.LogChannel = c.findChannel(g.ID, id, c.reserved.LogChannel)
	}
}

// findRole returns the lowest-id cached role in the guild, other than skip, named reserved.
func (c *Cache) findRole(guildID discord.GuildID, skip discord.RoleID, reserved string) (found discord.RoleID) {
	for _, id := range c.guildRoles.IDs(guildID) {
		if id == skip || (found.IsValid() && id > found) {
			continue
		}
		if r, ok := c.roles.Get(id); ok && nameMatches(r.Name, reserved) {
			found = id
		}
	}
	return found
}

// findChannel returns the lowest-id cached channel in the guild, other than skip, named reserved.
func (c *Cache) findChannel(guildID discord.GuildID, skip discord.ChannelID, reserved string) (found discord.ChannelID) {
	for _, id := range c.guildChannels.IDs(guildID) {
		if id == skip || (found.IsValid() && id > found) {
			continue
		}
		if ch, ok := c.channels.Get(id); ok && nameMatches(ch.Name, reserved) {
			found = id
		}
	}
	return found
}
