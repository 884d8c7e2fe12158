package common

import "github.com/diamondburned/arikawa/v3/discord"

// Perm is a single permission
type Perm struct {
	Permission discord.Permissions
	Name       string
}

// Permission constants that Arikawa is missing
const (
	PermissionViewServerInsights discord.Permissions = 1 << 19
	PermissionModerateMembers    discord.Permissions = 1 << 40
)

// LogPerms are the permissions needed to post in a log channel.
const LogPerms = discord.PermissionViewChannel | discord.PermissionSendMessages | discord.PermissionEmbedLinks | discord.PermissionAttachFiles

var (
	MajorPerms = []Perm{
		{discord.PermissionAdministrator, "Administrator"},
		{discord.PermissionManageGuild, "Manage Server"},
		{discord.PermissionManageWebhooks, "Manage Webhooks"},
		{discord.PermissionManageChannels, "Manage Channels"},

		{discord.PermissionBanMembers, "Ban Members"},
		{discord.PermissionKickMembers, "Kick Members"},
		{PermissionModerateMembers, "Timeout Members"},

		{discord.PermissionManageRoles, "Manage Roles"},
		{discord.PermissionManageNicknames, "Manage Nicknames"},
		{discord.PermissionManageMessages, "Manage Messages"},
		{discord.PermissionMentionEveryone, "Mention Everyone"},
	}

	MinorPerms = []Perm{
		{discord.PermissionViewAuditLog, "View Audit Log"},
		{PermissionViewServerInsights, "View Server Insights"},
		{discord.PermissionCreateInstantInvite, "Create Invite"},

		{discord.PermissionViewChannel, "View Channel"},
		{discord.PermissionSendMessages, "Send Messages"},
		{discord.PermissionReadMessageHistory, "Read Message History"},
		{discord.PermissionAttachFiles, "Attach Files"},
		{discord.PermissionEmbedLinks, "Embed Links"},
		{discord.PermissionAddReactions, "Add Reactions"},
		{discord.PermissionUseExternalEmojis, "Use External Emojis"},
		{discord.PermissionChangeNickname, "Change Nickname"},
	}

	AllPerms = append(MajorPerms, MinorPerms...)
)

// PermStrings gives permission strings for all Discord permissions
func PermStrings(p discord.Permissions) []string {
	return PermStringsFor(AllPerms, p)
}

// PermStringsFor gives permission strings for the given Perm slice
func PermStringsFor(m []Perm, p discord.Permissions) []string {
	var out = make([]string, 0, len(m))
	for _, perm := range m {
		if p&perm.Permission == perm.Permission {
			out = append(out, perm.Name)
		}
	}

	return out
}

// MissingPerms returns the names of the permissions in want that have doesn't hold.
func MissingPerms(have, want discord.Permissions) []string {
	if have.Has(discord.PermissionAdministrator) {
		return nil
	}
	return PermStringsFor(AllPerms, want&^have)
}
