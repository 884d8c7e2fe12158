package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"emperror.dev/errors"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	calls   atomic.Int32
	err     error
	release chan struct{}
}

func (f *fakeFetcher) Member(guildID discord.GuildID, userID discord.UserID) (*discord.Member, error) {
	f.calls.Add(1)
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}

	m := member(userID)
	m.Nick = "fetched"
	return &m, nil
}

func TestMemberOrFetchCachesResult(t *testing.T) {
	c := readyCache(t, Options{})
	require.NoError(t, c.Apply(guildCreate(testGuild, 1, nil, nil)))

	f := &fakeFetcher{}
	m, err := c.MemberOrFetch(context.Background(), f, testGuild, 5)
	require.NoError(t, err)
	assert.Equal(t, "fetched", m.Nick)

	cached, ok := c.Member(testGuild, 5)
	require.True(t, ok)
	assert.Same(t, m, cached)

	_, err = c.MemberOrFetch(context.Background(), f, testGuild, 5)
	require.NoError(t, err)
	assert.EqualValues(t, 1, f.calls.Load())

	count, _ := c.MemberCount(testGuild)
	assert.EqualValues(t, 1, count, "fetched members don't change the member count")
}

func TestMemberOrFetchUncachedGuild(t *testing.T) {
	c := readyCache(t, Options{})

	m, err := c.MemberOrFetch(context.Background(), &fakeFetcher{}, testGuild, 5)
	require.NoError(t, err)
	assert.Equal(t, discord.UserID(5), m.UserID())

	_, ok := c.Member(testGuild, 5)
	assert.False(t, ok)
}

func TestMemberOrFetchNegativeCache(t *testing.T) {
	c := readyCache(t, Options{FetchMissTTL: time.Hour})
	require.NoError(t, c.Apply(guildCreate(testGuild, 1, nil, nil)))

	notFound := errors.New("unknown member")
	f := &fakeFetcher{err: notFound}

	for i := 0; i < 3; i++ {
		_, err := c.MemberOrFetch(context.Background(), f, testGuild, 5)
		require.Error(t, err)
		assert.True(t, errors.Is(err, notFound))
	}
	assert.EqualValues(t, 1, f.calls.Load())
}

func TestMemberOrFetchCoalesces(t *testing.T) {
	c := readyCache(t, Options{})
	require.NoError(t, c.Apply(guildCreate(testGuild, 1, nil, nil)))

	f := &fakeFetcher{release: make(chan struct{})}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.MemberOrFetch(context.Background(), f, testGuild, 5)
			assert.NoError(t, err)
		}()
	}

	// let every goroutine join the in-flight fetch before it completes
	time.Sleep(50 * time.Millisecond)
	close(f.release)
	wg.Wait()

	assert.EqualValues(t, 1, f.calls.Load())
}

func TestMemberOrFetchContext(t *testing.T) {
	c := readyCache(t, Options{})

	f := &fakeFetcher{release: make(chan struct{})}
	defer close(f.release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.MemberOrFetch(ctx, f, testGuild, 5)
	assert.ErrorIs(t, err, context.Canceled)
}
