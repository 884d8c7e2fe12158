package cache

import (
	"cmp"
	"slices"

	"github.com/diamondburned/arikawa/v3/discord"
)

// GuildChannels returns the guild's channels in the order the Discord client shows them:
// uncategorized channels first, then each category followed by its children.
// Channels whose category isn't cached are treated as uncategorized.
func (c *Cache) GuildChannels(guildID discord.GuildID) []*Channel {
	ids := c.guildChannels.IDs(guildID)
	channels := make([]*Channel, 0, len(ids))
	for _, id := range ids {
		if ch, ok := c.channels.Get(id); ok {
			channels = append(channels, ch)
		}
	}
	return sortChannels(channels)
}

func sortChannels(channels []*Channel) []*Channel {
	byPosition := func(a, b *Channel) int {
		if a.Position != b.Position {
			return cmp.Compare(a.Position, b.Position)
		}
		return cmp.Compare(a.ID, b.ID)
	}

	var (
		noCategory []*Channel
		categories []*Channel
		children   = make(map[discord.ChannelID][]*Channel)
	)
	isCategory := make(map[discord.ChannelID]bool)
	for _, ch := range channels {
		if ch.Type == discord.GuildCategory {
			isCategory[ch.ID] = true
			categories = append(categories, ch)
		}
	}

	for _, ch := range channels {
		switch {
		case ch.Type == discord.GuildCategory:
		case ch.ParentID.IsValid() && isCategory[ch.ParentID]:
			children[ch.ParentID] = append(children[ch.ParentID], ch)
		default:
			noCategory = append(noCategory, ch)
		}
	}

	slices.SortFunc(noCategory, byPosition)
	slices.SortFunc(categories, byPosition)

	sorted := make([]*Channel, 0, len(channels))
	sorted = append(sorted, noCategory...)
	for _, cat := range categories {
		sorted = append(sorted, cat)

		kids := children[cat.ID]
		slices.SortFunc(kids, byPosition)
		sorted = append(sorted, kids...)
	}
	return sorted
}
