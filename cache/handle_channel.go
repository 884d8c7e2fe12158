package cache

import "github.com/diamondburned/arikawa/v3/discord"

// storeChannel stores the channel and indexes it under its guild if the guild is known.
func (c *Cache) storeChannel(ch discord.Channel) (*Channel, bool) {
	h, changed := c.channels.Upsert(ch.ID, newChannel(ch))
	c.guildChannels.Insert(ch.GuildID, ch.ID)
	return h, changed
}

func (c *Cache) channelUpsert(kind Kind, ch discord.Channel) {
	// DM channels aren't cached
	if !ch.GuildID.IsValid() {
		return
	}

	h, changed := c.storeChannel(ch)
	c.patchGuild(ch.GuildID, func(g *Guild) {
		c.linkChannel(g, ch.ID, ch.Name)
	})

	if changed {
		c.refreshChannel(kind, h)
	}
}

func (c *Cache) channelDelete(ch discord.Channel) {
	c.channels.Remove(ch.ID)
	c.guildChannels.Remove(ch.GuildID, ch.ID)
	c.channelPerms.Delete(ch.ID)

	c.patchGuild(ch.GuildID, func(g *Guild) {
		c.linkChannel(g, ch.ID, "")
	})
}
