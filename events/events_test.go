package events

import (
	"sync"
	"testing"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starshine-sys/guildcache/cache"
)

func TestConvert(t *testing.T) {
	ev, ok := Convert(&gateway.GuildMemberAddEvent{
		Member:  discord.Member{User: discord.User{ID: 5}},
		GuildID: 1,
	})
	require.True(t, ok)
	add, ok := ev.(cache.MemberAdd)
	require.True(t, ok)
	assert.Equal(t, discord.GuildID(1), add.GuildID)
	assert.Equal(t, discord.UserID(5), add.Member.User.ID)

	ev, ok = Convert(&gateway.GuildDeleteEvent{ID: 1, Unavailable: true})
	require.True(t, ok)
	assert.Equal(t, cache.KindUnavailableGuild, ev.Kind())

	ev, ok = Convert(&gateway.GuildDeleteEvent{ID: 1})
	require.True(t, ok)
	assert.Equal(t, cache.KindGuildDelete, ev.Kind())

	ev, ok = Convert(&gateway.GuildCreateEvent{Guild: discord.Guild{ID: 1}, MemberCount: 12})
	require.True(t, ok)
	gc, ok := ev.(cache.GuildCreate)
	require.True(t, ok)
	assert.EqualValues(t, 12, gc.MemberCount)

	_, ok = Convert(&gateway.TypingStartEvent{})
	assert.False(t, ok)
}

func TestConvertReady(t *testing.T) {
	ev, ok := Convert(&gateway.ReadyEvent{
		User: discord.User{ID: 1},
		Guilds: []gateway.GuildCreateEvent{
			{Guild: discord.Guild{ID: 10}, Unavailable: true},
			{Guild: discord.Guild{ID: 11}},
		},
	})
	require.True(t, ok)

	r := ev.(cache.Ready)
	assert.Equal(t, discord.UserID(1), r.User.ID)
	assert.Equal(t, []discord.GuildID{10}, r.Unavailable)
	require.Len(t, r.Guilds, 1)
	assert.Equal(t, discord.GuildID(11), r.Guilds[0].Guild.ID)
}

type recorder struct {
	mu    sync.Mutex
	names []string
}

func (r *recorder) RegisterEvent(name string) {
	r.mu.Lock()
	r.names = append(r.names, name)
	r.mu.Unlock()
}

func TestHandler(t *testing.T) {
	c := cache.New(cache.Options{})
	t.Cleanup(func() { _ = c.Close() })

	rec := &recorder{}
	h := NewHandler(c, rec, NewReporter(false))

	h.Handle(&gateway.ReadyEvent{User: discord.User{ID: 1}})
	h.Handle(&gateway.GuildCreateEvent{
		Guild: discord.Guild{
			ID:      10,
			OwnerID: 2,
			Roles:   []discord.Role{{ID: 10, Permissions: discord.PermissionSendMessages}},
		},
		MemberCount: 2,
		Members:     []discord.Member{{User: discord.User{ID: 1}}},
	})
	h.Handle(&gateway.TypingStartEvent{})

	perms, ok := c.GuildPermissions(10)
	require.True(t, ok)
	assert.Equal(t, discord.PermissionSendMessages, perms)

	assert.Equal(t, []string{"Ready", "GuildCreate"}, rec.names)
}
