package cache

import (
	"testing"

	"emperror.dev/errors"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	permGuild  discord.GuildID   = 10
	permOwner  discord.UserID    = 20
	permActor  discord.UserID    = 30
	permRole   discord.RoleID    = 40
	permOther  discord.RoleID    = 41
	permChanID discord.ChannelID = 50
)

func permFixture(everyone discord.Permissions, roles ...*Role) (*Guild, map[discord.RoleID]*Role) {
	g := &Guild{ID: permGuild, OwnerID: permOwner}
	m := map[discord.RoleID]*Role{
		discord.RoleID(permGuild): {ID: discord.RoleID(permGuild), GuildID: permGuild, Permissions: everyone},
	}
	for _, r := range roles {
		m[r.ID] = r
	}
	return g, m
}

func TestGuildPermissionsOwnerBypass(t *testing.T) {
	g := &Guild{ID: permGuild, OwnerID: permOwner}

	perms, err := GuildPermissions(g, nil, permOwner, []discord.RoleID{12345})
	require.NoError(t, err)
	assert.Equal(t, discord.PermissionAll, perms)
}

func TestGuildPermissionsEveryoneMissing(t *testing.T) {
	g := &Guild{ID: permGuild, OwnerID: permOwner}

	_, err := GuildPermissions(g, map[discord.RoleID]*Role{}, permActor, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEveryoneRoleMissing))
}

func TestGuildPermissionsUnknownRole(t *testing.T) {
	g, roles := permFixture(discord.PermissionSendMessages)

	_, err := GuildPermissions(g, roles, permActor, []discord.RoleID{permRole})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownMemberRole))
}

func TestGuildPermissionsUnion(t *testing.T) {
	g, roles := permFixture(discord.PermissionSendMessages,
		&Role{ID: permRole, GuildID: permGuild, Permissions: discord.PermissionManageMessages},
		&Role{ID: permOther, GuildID: permGuild, Permissions: discord.PermissionBanMembers},
	)

	perms, err := GuildPermissions(g, roles, permActor, []discord.RoleID{permRole})
	require.NoError(t, err)
	assert.Equal(t, discord.PermissionSendMessages|discord.PermissionManageMessages, perms)
}

func TestGuildPermissionsAdministratorIsNotExpanded(t *testing.T) {
	g, roles := permFixture(discord.PermissionAdministrator)

	perms, err := GuildPermissions(g, roles, permActor, nil)
	require.NoError(t, err)
	assert.Equal(t, discord.PermissionAdministrator, perms)
}

func TestChannelPermissionsUnsupportedKind(t *testing.T) {
	g, roles := permFixture(discord.PermissionSendMessages)
	ch := &Channel{ID: permChanID, GuildID: permGuild, Type: discord.GuildVoice}

	_, err := ChannelPermissions(g, roles, permActor, nil, ch)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedChannelKind))
}

func TestChannelPermissionsMemberOverwriteWins(t *testing.T) {
	g, roles := permFixture(discord.PermissionSendMessages, &Role{ID: permRole, GuildID: permGuild})
	ch := &Channel{
		ID: permChanID, GuildID: permGuild, Type: discord.GuildText,
		Overwrites: []discord.Overwrite{
			{ID: discord.Snowflake(permActor), Type: discord.OverwriteMember, Allow: discord.PermissionSendMessages},
			{ID: discord.Snowflake(permRole), Type: discord.OverwriteRole, Deny: discord.PermissionSendMessages},
		},
	}

	perms, err := ChannelPermissions(g, roles, permActor, []discord.RoleID{permRole}, ch)
	require.NoError(t, err)
	assert.True(t, perms.Has(discord.PermissionSendMessages))
}

func TestChannelPermissionsEveryoneOverwrite(t *testing.T) {
	g, roles := permFixture(discord.PermissionSendMessages | discord.PermissionViewChannel)
	ch := &Channel{
		ID: permChanID, GuildID: permGuild, Type: discord.GuildText,
		Overwrites: []discord.Overwrite{
			{ID: discord.Snowflake(permGuild), Type: discord.OverwriteRole, Deny: discord.PermissionSendMessages, Allow: discord.PermissionAddReactions},
		},
	}

	perms, err := ChannelPermissions(g, roles, permActor, nil, ch)
	require.NoError(t, err)
	assert.Equal(t, discord.PermissionViewChannel|discord.PermissionAddReactions, perms)
}

func TestChannelPermissionsRoleOverwrites(t *testing.T) {
	g, roles := permFixture(discord.PermissionViewChannel,
		&Role{ID: permRole, GuildID: permGuild},
		&Role{ID: permOther, GuildID: permGuild},
	)
	ch := &Channel{
		ID: permChanID, GuildID: permGuild, Type: announcementChannel,
		Overwrites: []discord.Overwrite{
			// role allow beats @everyone deny
			{ID: discord.Snowflake(permGuild), Type: discord.OverwriteRole, Deny: discord.PermissionSendMessages},
			{ID: discord.Snowflake(permRole), Type: discord.OverwriteRole, Allow: discord.PermissionSendMessages},
			// not held by the actor
			{ID: discord.Snowflake(permOther), Type: discord.OverwriteRole, Deny: discord.PermissionViewChannel},
			// someone else
			{ID: discord.Snowflake(permOwner), Type: discord.OverwriteMember, Deny: discord.PermissionViewChannel},
		},
	}

	perms, err := ChannelPermissions(g, roles, permActor, []discord.RoleID{permRole}, ch)
	require.NoError(t, err)
	assert.Equal(t, discord.PermissionViewChannel|discord.PermissionSendMessages, perms)
}

func TestChannelPermissionsAdministratorKeepsOverwrites(t *testing.T) {
	g, roles := permFixture(discord.PermissionAdministrator | discord.PermissionSendMessages)
	ch := &Channel{
		ID: permChanID, GuildID: permGuild, Type: discord.GuildText,
		Overwrites: []discord.Overwrite{
			{ID: discord.Snowflake(permGuild), Type: discord.OverwriteRole, Deny: discord.PermissionSendMessages},
		},
	}

	perms, err := ChannelPermissions(g, roles, permActor, nil, ch)
	require.NoError(t, err)
	assert.Equal(t, discord.PermissionAdministrator, perms)
}

func TestChannelPermissionsOwnerKeepsOverwrites(t *testing.T) {
	g, roles := permFixture(0)
	ch := &Channel{
		ID: permChanID, GuildID: permGuild, Type: discord.GuildText,
		Overwrites: []discord.Overwrite{
			{ID: discord.Snowflake(permOwner), Type: discord.OverwriteMember, Deny: discord.PermissionSendMessages},
		},
	}

	perms, err := ChannelPermissions(g, roles, permOwner, nil, ch)
	require.NoError(t, err)
	assert.Equal(t, discord.PermissionAll&^discord.PermissionSendMessages, perms)
}
