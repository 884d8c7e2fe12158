package cache

import (
	"context"

	"emperror.dev/errors"
	"github.com/diamondburned/arikawa/v3/discord"
)

// MemberFetcher fetches a member from the API. *api.Client and *state.State satisfy it.
type MemberFetcher interface {
	Member(guildID discord.GuildID, userID discord.UserID) (*discord.Member, error)
}

// MemberOrFetch returns the cached member, or fetches and caches it.
// Concurrent fetches for the same member are coalesced, and failed fetches are remembered for a while.
func (c *Cache) MemberOrFetch(ctx context.Context, f MemberFetcher, guildID discord.GuildID, userID discord.UserID) (*Member, error) {
	if m, ok := c.Member(guildID, userID); ok {
		return m, nil
	}

	key := memberKey{guildID, userID}.String()
	if v, err := c.fetchMisses.Get(key); err == nil {
		if err, ok := v.(error); ok {
			return nil, err
		}
	}

	ch := c.fetches.DoChan(key, func() (interface{}, error) {
		dm, err := f.Member(guildID, userID)
		if err != nil {
			err = errors.Wrapf(err, "fetching member %v in guild %v", userID, guildID)
			_ = c.fetchMisses.Set(key, err)
			return nil, err
		}

		if m, ok := c.CacheMember(guildID, *dm); ok {
			return m, nil
		}

		// guild isn't cached, so the member can't be either
		u := newUser(dm.User)
		m := newMember(guildID, *dm, &u)
		return &m, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Member), nil
	}
}
