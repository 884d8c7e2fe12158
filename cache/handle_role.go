package cache

import (
	"slices"

	"github.com/diamondburned/arikawa/v3/discord"
)

// storeRole stores the role and indexes it under its guild if the guild is known.
func (c *Cache) storeRole(guildID discord.GuildID, r discord.Role) (*Role, bool) {
	h, changed := c.roles.Upsert(r.ID, newRole(guildID, r))
	c.guildRoles.Insert(guildID, r.ID)
	return h, changed
}

func (c *Cache) roleUpsert(kind Kind, guildID discord.GuildID, r discord.Role) {
	_, changed := c.storeRole(guildID, r)
	c.patchGuild(guildID, func(g *Guild) {
		c.linkRole(g, r.ID, r.Name)
	})

	if changed {
		c.refreshGuild(kind, guildID)
	}
}

func (c *Cache) roleDelete(guildID discord.GuildID, id discord.RoleID) {
	c.roles.Remove(id)
	c.guildRoles.Remove(guildID, id)

	c.patchGuild(guildID, func(g *Guild) {
		c.linkRole(g, id, "")
	})

	// otherwise our own permissions can't be computed until the member update arrives
	if me := c.me.Load(); me != nil {
		key := memberKey{guildID, me.ID}
		if m, ok := c.members.Get(key); ok && m.HasRole(id) {
			c.members.Mutate(key, func(m *Member) {
				m.RoleIDs = slices.DeleteFunc(slices.Clone(m.RoleIDs), func(r discord.RoleID) bool {
					return r == id
				})
			})
		}
	}

	c.refreshGuild(KindRoleDelete, guildID)
}
