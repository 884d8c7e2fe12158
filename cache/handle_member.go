package cache

import (
	"maps"
	"slices"

	"github.com/diamondburned/arikawa/v3/discord"
)

// storeMember stores the member and indexes it, both under the guild's member set lock.
// Members of guilds without a set are not stored at all.
func (c *Cache) storeMember(guildID discord.GuildID, m discord.Member) (res IndexResult, h *Member, changed bool) {
	res = c.guildMembers.InsertWith(guildID, m.User.ID, func() {
		u := c.acquireUser(m.User, guildID)
		h, changed = c.members.Upsert(memberKey{guildID, m.User.ID}, newMember(guildID, m, u))
	})
	return res, h, changed
}

func (c *Cache) memberAdd(guildID discord.GuildID, m discord.Member) {
	key := memberKey{guildID, m.User.ID}

	var changed bool
	res := c.guildMembers.InsertWith(guildID, m.User.ID, func() {
		_ = c.removals.Remove(key.String())

		u := c.acquireUser(m.User, guildID)
		_, changed = c.members.Upsert(key, newMember(guildID, m, u))
	})

	if res == Inserted {
		c.bumpMembers(guildID, 1)
	}
	if changed && c.isMe(m.User.ID) {
		c.refreshGuild(KindMemberAdd, guildID)
	}
}

func (c *Cache) memberRemove(guildID discord.GuildID, userID discord.UserID) {
	key := memberKey{guildID, userID}

	var counted bool
	c.guildMembers.update(guildID, func(ids map[discord.UserID]struct{}) {
		if _, err := c.removals.Get(key.String()); err == nil {
			return
		}
		_ = c.removals.Set(key.String(), true)
		counted = true

		if _, ok := ids[userID]; !ok {
			return
		}
		delete(ids, userID)
		c.members.Remove(key)
		c.releaseUser(userID, guildID)
	})

	if counted {
		c.bumpMembers(guildID, -1)
	}
}

func (c *Cache) memberUpdate(ev MemberUpdate) {
	key := memberKey{ev.GuildID, ev.User.ID}
	if _, ok := c.members.Get(key); !ok {
		return
	}

	u := c.updateUser(ev.User)
	_, ok := c.members.Mutate(key, func(m *Member) {
		m.Nick = ev.Nick
		m.RoleIDs = slices.Clone(ev.RoleIDs)
		m.Pending = ev.Pending
		if u != nil {
			m.User = u
		}
	})

	if ok && c.isMe(ev.User.ID) {
		c.refreshGuild(KindMemberUpdate, ev.GuildID)
	}
}

func (c *Cache) memberChunk(ev MemberChunk) {
	var refresh bool
	for _, m := range ev.Members {
		_, _, changed := c.storeMember(ev.GuildID, m)
		if changed && c.isMe(m.User.ID) {
			refresh = true
		}
	}

	if refresh {
		c.refreshGuild(KindMemberChunk, ev.GuildID)
	}
}

func (c *Cache) bumpMembers(guildID discord.GuildID, delta int64) {
	g, ok := c.guilds.Get(guildID)
	if !ok {
		return
	}

	g.memberCount.Add(delta)
	c.counters.AddUsers(delta)
}

func (c *Cache) isMe(id discord.UserID) bool {
	me := c.me.Load()
	return me != nil && me.ID == id
}

// acquireUser stores u and records that a member of guildID references it.
func (c *Cache) acquireUser(u discord.User, guildID discord.GuildID) *User {
	nu := newUser(u)

	e, _ := c.users.Compute(u.ID, func(old *userEntry, loaded bool) (*userEntry, bool) {
		if !loaded {
			return &userEntry{
				user:   &nu,
				guilds: map[discord.GuildID]struct{}{guildID: {}},
			}, false
		}

		_, referenced := old.guilds[guildID]
		sameUser := *old.user == nu
		if referenced && sameUser {
			return old, false
		}

		next := &userEntry{user: old.user, guilds: old.guilds}
		if !sameUser {
			next.user = &nu
		}
		if !referenced {
			next.guilds = maps.Clone(old.guilds)
			next.guilds[guildID] = struct{}{}
		}
		return next, false
	})
	return e.user
}

// releaseUser drops guildID's reference to the user, removing the user once nothing references it.
func (c *Cache) releaseUser(id discord.UserID, guildID discord.GuildID) {
	c.users.Compute(id, func(old *userEntry, loaded bool) (*userEntry, bool) {
		if !loaded {
			return nil, true
		}
		if _, ok := old.guilds[guildID]; !ok {
			return old, false
		}
		if len(old.guilds) <= 1 {
			return nil, true
		}

		next := &userEntry{user: old.user, guilds: maps.Clone(old.guilds)}
		delete(next.guilds, guildID)
		return next, false
	})
}

// updateUser replaces the stored user if it's cached, returning the new handle.
func (c *Cache) updateUser(u discord.User) *User {
	nu := newUser(u)

	e, ok := c.users.Compute(u.ID, func(old *userEntry, loaded bool) (*userEntry, bool) {
		if !loaded {
			return nil, true
		}
		if *old.user == nu {
			return old, false
		}
		return &userEntry{user: &nu, guilds: old.guilds}, false
	})
	if !ok {
		return nil
	}
	return e.user
}
