package events

import (
	"github.com/diamondburned/arikawa/v3/gateway"

	"github.com/starshine-sys/guildcache/cache"
)

// Convert turns a gateway event into a cache event.
// It returns false for events the cache doesn't track.
func Convert(ev interface{}) (cache.Event, bool) {
	switch ev := ev.(type) {
	case *gateway.ReadyEvent:
		r := cache.Ready{User: ev.User}
		for i := range ev.Guilds {
			g := &ev.Guilds[i]
			if g.Unavailable {
				r.Unavailable = append(r.Unavailable, g.ID)
				continue
			}
			r.Guilds = append(r.Guilds, guildCreate(g))
		}
		return r, true

	case *gateway.GuildCreateEvent:
		if ev.Unavailable {
			return cache.UnavailableGuild{GuildID: ev.ID}, true
		}
		return guildCreate(ev), true
	case *gateway.GuildUpdateEvent:
		return cache.GuildUpdate{Guild: ev.Guild}, true
	case *gateway.GuildDeleteEvent:
		if ev.Unavailable {
			return cache.UnavailableGuild{GuildID: ev.ID}, true
		}
		return cache.GuildDelete{GuildID: ev.ID}, true

	case *gateway.GuildMemberAddEvent:
		return cache.MemberAdd{GuildID: ev.GuildID, Member: ev.Member}, true
	case *gateway.GuildMemberRemoveEvent:
		return cache.MemberRemove{GuildID: ev.GuildID, User: ev.User}, true
	case *gateway.GuildMemberUpdateEvent:
		return cache.MemberUpdate{
			GuildID: ev.GuildID,
			User:    ev.User,
			Nick:    ev.Nick,
			RoleIDs: ev.RoleIDs,
			Pending: ev.IsPending,
		}, true
	case *gateway.GuildMembersChunkEvent:
		return cache.MemberChunk{GuildID: ev.GuildID, Members: ev.Members}, true

	case *gateway.GuildRoleCreateEvent:
		return cache.RoleCreate{GuildID: ev.GuildID, Role: ev.Role}, true
	case *gateway.GuildRoleUpdateEvent:
		return cache.RoleUpdate{GuildID: ev.GuildID, Role: ev.Role}, true
	case *gateway.GuildRoleDeleteEvent:
		return cache.RoleDelete{GuildID: ev.GuildID, RoleID: ev.RoleID}, true

	case *gateway.ChannelCreateEvent:
		return cache.ChannelCreate{Channel: ev.Channel}, true
	case *gateway.ChannelUpdateEvent:
		return cache.ChannelUpdate{Channel: ev.Channel}, true
	case *gateway.ChannelDeleteEvent:
		return cache.ChannelDelete{Channel: ev.Channel}, true

	case *gateway.UserUpdateEvent:
		return cache.UserUpdate{User: ev.User}, true
	}

	return nil, false
}

func guildCreate(ev *gateway.GuildCreateEvent) cache.GuildCreate {
	return cache.GuildCreate{
		Guild:       ev.Guild,
		Joined:      ev.Joined.Time(),
		MemberCount: int64(ev.MemberCount),
		Channels:    ev.Channels,
		Members:     ev.Members,
	}
}
