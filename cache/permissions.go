package cache

import (
	"emperror.dev/errors"
	"github.com/diamondburned/arikawa/v3/discord"
)

const (
	ErrEveryoneRoleMissing    = errors.Sentinel("@everyone role is not cached")
	ErrUnknownMemberRole      = errors.Sentinel("member has a role that is not cached")
	ErrUnsupportedChannelKind = errors.Sentinel("channel kind has no resolvable permissions")
)

// GuildPermissions returns the guild-wide permissions of the given actor.
// The guild owner always has all permissions, regardless of the roles passed in.
// Administrator is returned as a plain bit; callers that want Discord's resolution check for it.
func GuildPermissions(guild *Guild, roles map[discord.RoleID]*Role, actorID discord.UserID, actorRoles []discord.RoleID) (discord.Permissions, error) {
	if actorID == guild.OwnerID {
		return discord.PermissionAll, nil
	}

	everyone, ok := roles[discord.RoleID(guild.ID)]
	if !ok {
		return 0, errors.Wrapf(ErrEveryoneRoleMissing, "guild %v", guild.ID)
	}
	perms := everyone.Permissions

	for _, id := range actorRoles {
		r, ok := roles[id]
		if !ok {
			return 0, errors.Wrapf(ErrUnknownMemberRole, "role %v in guild %v", id, guild.ID)
		}
		perms |= r.Permissions
	}
	return perms, nil
}

// ChannelPermissions returns the actor's permissions in a text or announcement channel.
func ChannelPermissions(guild *Guild, roles map[discord.RoleID]*Role, actorID discord.UserID, actorRoles []discord.RoleID, ch *Channel) (discord.Permissions, error) {
	perms, err := GuildPermissions(guild, roles, actorID, actorRoles)
	if err != nil {
		return 0, err
	}

	if !ch.TextLike() {
		return 0, errors.Wrapf(ErrUnsupportedChannelKind, "channel %v has type %v", ch.ID, ch.Type)
	}

	var roleAllow, roleDeny, memberAllow, memberDeny discord.Permissions
	for _, o := range ch.Overwrites {
		switch o.Type {
		case discord.OverwriteRole:
			id := discord.RoleID(o.ID)
			if id == discord.RoleID(guild.ID) {
				perms &^= o.Deny
				perms |= o.Allow
				continue
			}

			if hasRole(actorRoles, id) {
				roleAllow |= o.Allow
				roleDeny |= o.Deny
			}
		case discord.OverwriteMember:
			if discord.UserID(o.ID) == actorID {
				memberAllow |= o.Allow
				memberDeny |= o.Deny
			}
		}
	}

	perms &^= roleDeny
	perms |= roleAllow
	perms &^= memberDeny
	perms |= memberAllow

	return perms, nil
}

func hasRole(roles []discord.RoleID, id discord.RoleID) bool {
	for _, r := range roles {
		if r == id {
			return true
		}
	}
	return false
}
