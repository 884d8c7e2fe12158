package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starshine-sys/guildcache/cache"
)

const (
	guildID   discord.GuildID   = 100
	botID     discord.UserID    = 1
	userID    discord.UserID    = 5
	channelID discord.ChannelID = 200
	voiceID   discord.ChannelID = 201
)

func testServer(t *testing.T) (*cache.Cache, http.Handler) {
	t.Helper()

	c := cache.New(cache.Options{})
	t.Cleanup(func() { _ = c.Close() })

	require.NoError(t, c.Apply(cache.Ready{User: discord.User{ID: botID, Username: "bot"}}))
	require.NoError(t, c.Apply(cache.GuildCreate{
		Guild: discord.Guild{
			ID:      guildID,
			Name:    "test",
			OwnerID: 2,
			Roles: []discord.Role{
				{ID: discord.RoleID(guildID), Permissions: discord.PermissionViewChannel | discord.PermissionSendMessages},
			},
		},
		Joined:      time.Unix(1600000000, 0),
		MemberCount: 1234,
		Channels: []discord.Channel{
			{ID: channelID, GuildID: guildID, Type: discord.GuildText, Name: "bot-logs"},
			{ID: voiceID, GuildID: guildID, Type: discord.GuildVoice, Name: "voice"},
		},
		Members: []discord.Member{
			{User: discord.User{ID: botID, Username: "bot"}},
			{User: discord.User{ID: userID, Username: "five"}, Nick: "5"},
		},
	}))

	return c, New(c, Options{Metrics: http.NotFoundHandler()}).Router()
}

func get(t *testing.T, h http.Handler, path string, v any) int {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if v != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
	}
	return rec.Code
}

func TestStats(t *testing.T) {
	_, h := testServer(t)

	var resp statsResponse
	require.Equal(t, http.StatusOK, get(t, h, "/stats", &resp))
	assert.Equal(t, 1, resp.Guilds)
	assert.Equal(t, 2, resp.Members)
	assert.Equal(t, "1 guilds, 2 members, 2 users", resp.Summary)
	assert.Nil(t, resp.TotalGuilds)
}

func TestGuild(t *testing.T) {
	_, h := testServer(t)

	var resp guildResponse
	require.Equal(t, http.StatusOK, get(t, h, "/guilds/100", &resp))
	assert.Equal(t, "test", resp.Name)
	assert.EqualValues(t, 1234, resp.MemberCount)
	assert.Equal(t, "1,234", resp.Members)
	assert.Equal(t, 2, resp.Channels)
	assert.Equal(t, channelID, resp.LogChannel)
	assert.ElementsMatch(t, []string{"Embed Links", "Attach Files"}, resp.LogChannelMissing)
	require.NotNil(t, resp.Permissions)
	assert.Contains(t, resp.Permissions.Names, "Send Messages")

	assert.Equal(t, http.StatusNotFound, get(t, h, "/guilds/101", nil))
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/guilds/abc", nil))
}

func TestGuildPermissions(t *testing.T) {
	_, h := testServer(t)

	var resp guildPermissionsResponse
	require.Equal(t, http.StatusOK, get(t, h, "/guilds/100/permissions", &resp))
	require.Len(t, resp.Channels, 1, "voice channels have no cached permissions")
	assert.Equal(t, channelID, resp.Channels[0].ID)
	assert.ElementsMatch(t, []string{"View Channel", "Send Messages"}, resp.Channels[0].Names)
}

func TestMember(t *testing.T) {
	_, h := testServer(t)

	var resp memberResponse
	require.Equal(t, http.StatusOK, get(t, h, "/guilds/100/members/5", &resp))
	assert.Equal(t, "five", resp.Username)
	assert.Equal(t, "5", resp.Nick)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/guilds/100/members/6", nil))
}

func TestChannelPermissions(t *testing.T) {
	c, h := testServer(t)

	var resp permissions
	require.Equal(t, http.StatusOK, get(t, h, "/channels/200/permissions", &resp))
	assert.ElementsMatch(t, []string{"View Channel", "Send Messages"}, resp.Names)

	require.NoError(t, c.Apply(cache.ChannelUpdate{Channel: discord.Channel{
		ID: channelID, GuildID: guildID, Type: discord.GuildText, Name: "bot-logs",
		Overwrites: []discord.Overwrite{
			{ID: discord.Snowflake(userID), Type: discord.OverwriteMember, Deny: discord.PermissionSendMessages},
		},
	}}))

	require.Equal(t, http.StatusOK, get(t, h, "/channels/200/permissions?user=5", &resp))
	assert.Equal(t, []string{"View Channel"}, resp.Names)

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/channels/201/permissions?user=5", nil))
	assert.Equal(t, http.StatusNotFound, get(t, h, "/channels/201/permissions", nil))
}

func TestMetricsRoute(t *testing.T) {
	c := cache.New(cache.Options{})
	t.Cleanup(func() { _ = c.Close() })

	h := New(c, Options{}).Router()
	assert.Equal(t, http.StatusNotFound, get(t, h, "/metrics", nil))

	called := false
	h = New(c, Options{Metrics: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})}).Router()
	assert.Equal(t, http.StatusOK, get(t, h, "/metrics", nil))
	assert.True(t, called)
}
