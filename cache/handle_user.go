package cache

import "github.com/diamondburned/arikawa/v3/discord"

func (c *Cache) ready(ev Ready) {
	u := newUser(ev.User)
	c.me.Store(&u)

	for _, id := range ev.Unavailable {
		c.guildUnavailable(id)
	}
	for _, g := range ev.Guilds {
		c.guildCreate(g)
	}
}

// userUpdate replaces the current user. Permissions don't depend on the user object, so nothing is recomputed.
func (c *Cache) userUpdate(u discord.User) {
	nu := newUser(u)
	c.me.Store(&nu)
	c.updateUser(u)
}
